package schedule

import (
	"errors"
	"fmt"
	"time"
)

// MasterKey is the reserved manager key of the master schedule.
const MasterKey = "master"

// ErrNoMaster is returned when a master operation runs before a master
// schedule is set.
var ErrNoMaster = errors.New("schedule: no master schedule set")

// Manager is a keyed collection of schedules with one designated master and
// any number of disposable minion working copies. Minions are snapshots taken
// at spawn time; mutations to master never retroactively affect a minion
// unless explicitly propagated via removeFromMinions.
type Manager struct {
	schedules map[string]*Schedule
	master    string
}

// NewManager returns an empty schedule manager.
func NewManager() *Manager {
	return &Manager{schedules: make(map[string]*Schedule)}
}

func (m *Manager) add(key string, s *Schedule, isMaster bool) error {
	if key == "" {
		return errors.New("schedule: manager key must be non-empty")
	}
	if _, ok := m.schedules[key]; ok {
		return fmt.Errorf("schedule: manager key %q already defined", key)
	}
	if isMaster && m.master != "" {
		return errors.New("schedule: master is already set")
	}
	m.schedules[key] = s
	if isMaster {
		m.master = key
	}
	return nil
}

// AddMaster sets the master schedule. May be called at most once.
func (m *Manager) AddMaster(s *Schedule) error {
	return m.add(MasterKey, s, true)
}

// HasMaster reports whether a master schedule is set.
func (m *Manager) HasMaster() bool { return m.master != "" }

// Master returns the master schedule, or nil when unset.
func (m *Manager) Master() *Schedule {
	if m.master == "" {
		return nil
	}
	return m.schedules[m.master]
}

// AddMinion registers an externally built schedule as a minion.
func (m *Manager) AddMinion(key string, s *Schedule) error {
	return m.add(key, s, false)
}

// SpawnMinion snapshots the master as a new minion working copy.
func (m *Manager) SpawnMinion(key string) (*Schedule, error) {
	master := m.Master()
	if master == nil {
		return nil, ErrNoMaster
	}
	minion := master.Clone()
	if err := m.add(key, minion, false); err != nil {
		return nil, err
	}
	return minion, nil
}

// Minion returns the minion registered under key, or nil.
func (m *Manager) Minion(key string) *Schedule {
	if key == m.master {
		return nil
	}
	return m.schedules[key]
}

// AddMasterEvent places ev on the master for every date. With
// removeFromMinions set, every minion drops any placement of the same event
// id, keeping a tracked event in at most one slot across the managed set.
func (m *Manager) AddMasterEvent(dates []time.Time, ev *Event, removeFromMinions bool) error {
	master := m.Master()
	if master == nil {
		return ErrNoMaster
	}
	if err := master.AddEvent(dates, ev); err != nil {
		return err
	}
	if removeFromMinions {
		for key, s := range m.schedules {
			if key == m.master {
				continue
			}
			s.RemoveEvent(ev.ID())
		}
	}
	return nil
}

// AddMinionEvent places ev on the minion registered under key.
func (m *Manager) AddMinionEvent(key string, dates []time.Time, ev *Event) error {
	s := m.Minion(key)
	if s == nil {
		return fmt.Errorf("schedule: unknown minion key %q", key)
	}
	return s.AddEvent(dates, ev)
}
