// Package planner defines the pluggable strategy deciding missing-day fill
// and conflict resolution, plus the built-in policies.
package planner

import (
	"time"

	"planera/core/factory"
	"planera/core/schedule"
)

// Planner is the strategy object bound to one build.
type Planner interface {
	// PlanInit produces the schedule the build starts from. A non-nil seed
	// is reused as-is.
	PlanInit(opts schedule.Options, seed *schedule.Schedule) (*schedule.Schedule, error)
	// ResolveConflict picks one of the candidates for a date, or nil to
	// leave the day empty.
	ResolveConflict(sch *schedule.Schedule, date time.Time, candidates []*schedule.Event) (*schedule.Event, error)
	// PlanMissingEvent proposes an event for a day with no candidates, or
	// nil to leave it unfilled.
	PlanMissingEvent(date time.Time, day *schedule.Day) (*schedule.Event, error)
	// PlanSingleEvent may veto or substitute a sole-candidate placement.
	PlanSingleEvent(date time.Time, ev *schedule.Event) (*schedule.Event, error)
	// ApplyBoundaries reports whether candidate construction should apply
	// boundaries at all.
	ApplyBoundaries() bool
}

// EventPoolAware planners receive the full wrapped event pool at setup.
type EventPoolAware interface {
	SetEventPool(events []*schedule.Event)
}

// Base provides the default hooks: identity single-event planning, no
// missing-day fill and boundaries enabled. Embed it and override what the
// policy needs.
type Base struct{}

// PlanInit returns the seed unchanged, or a fresh schedule from opts.
func (Base) PlanInit(opts schedule.Options, seed *schedule.Schedule) (*schedule.Schedule, error) {
	if seed != nil {
		return seed, nil
	}
	return schedule.New(opts)
}

// PlanMissingEvent leaves days without candidates unfilled.
func (Base) PlanMissingEvent(time.Time, *schedule.Day) (*schedule.Event, error) {
	return nil, nil
}

// PlanSingleEvent is the identity hook.
func (Base) PlanSingleEvent(_ time.Time, ev *schedule.Event) (*schedule.Event, error) {
	return ev, nil
}

// ApplyBoundaries enables boundary-based candidate narrowing.
func (Base) ApplyBoundaries() bool { return true }

type plannerConf struct {
	Seed int64 `json:"seed"`
}

// NewRegistry returns the closed registry of planner kinds.
func NewRegistry() *factory.Registry[Planner] {
	reg := factory.NewRegistry[Planner]()
	register := func(kind string, f factory.Factory[Planner]) {
		if err := reg.Register(kind, f); err != nil {
			panic(err)
		}
	}
	register(KindWeighted, func(conf map[string]any) (Planner, error) {
		var c plannerConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewWeighted(c.Seed), nil
	})
	register(KindRandomizer, func(conf map[string]any) (Planner, error) {
		var c plannerConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRandomizer(c.Seed), nil
	})
	return reg
}
