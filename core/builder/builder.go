// Package builder runs the planning pipeline that turns source events and
// rule sets into a built schedule: candidate decision, quota-driven
// indeterminate placement, determinate placement and conflict resolution.
package builder

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	xrand "golang.org/x/exp/rand"

	"planera/core/boundary"
	"planera/core/events"
	"planera/core/factory"
	"planera/core/filter"
	"planera/core/logger"
	"planera/core/model"
	"planera/core/planner"
	"planera/core/quota"
	"planera/core/schedule"
	"planera/internal/eventbus"
)

// Build statuses. The pipeline is forward-only; Terminate refuses to run
// before planning reached statusPlanOK.
const (
	statusNew     = "new"
	statusPlanOK  = "plan_ok"
	statusBuildOK = "build_ok"
)

// ErrPipelineOrder is returned when Terminate runs before the planning
// phases completed.
var ErrPipelineOrder = errors.New("builder: terminate before planning completed")

// UnsatisfiableQuotaError reports a quota window whose capacity cannot be
// met: fewer sole-candidate dates remained than placements required.
type UnsatisfiableQuotaError struct {
	EventID  int
	Window   quota.Window
	PoolSize int
}

func (e *UnsatisfiableQuotaError) Error() string {
	return fmt.Sprintf("builder: event %d quota window (%s, capacity %d) has only %d sole-candidate dates",
		e.EventID, e.Window.TimeUnit, e.Window.Capacity(), e.PoolSize)
}

// Config assembles one builder.
type Config struct {
	Planner planner.Planner
	Input   model.Input
	Options schedule.Options
	// IterMethod orders conflict-resolution dates: sorted or random.
	IterMethod string
	// Seed drives both the iteration shuffle and indeterminate sampling.
	// Zero falls back to the current time.
	Seed int64
	Log  logger.Logger
	// Filters are custom chain stages appended after the defaults.
	Filters []filter.Filter
}

// Builder executes one pipeline run over a schedule manager. It is not safe
// for concurrent use; the controller runs one build at a time.
type Builder struct {
	id         string
	log        logger.Logger
	planner    planner.Planner
	input      model.Input
	opts       schedule.Options
	iterMethod string

	manager    *schedule.Manager
	chain      *filter.Chain
	boundaries *factory.Registry[schedule.Boundary]
	ruleSets   map[string]model.NamedRuleSet
	events     []*schedule.Event
	candKey    string

	rng    *rand.Rand
	src    xrand.Source
	status string

	phases     *eventbus.TypedBus[events.Phase]
	placements *eventbus.TypedBus[events.Placement]
}

// New assembles a builder from cfg. The filter chain is populated with the
// default stages plus cfg.Filters; a broken custom filter name fails here.
func New(cfg Config) (*Builder, error) {
	if cfg.Planner == nil {
		return nil, errors.New("builder: planner is required")
	}
	log := cfg.Log
	if log == nil {
		log = logger.NopLogger{}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	chain := filter.NewChain(log)
	for _, f := range filter.Defaults(cfg.Options.ExcludeEventIDs) {
		if err := chain.Register(f); err != nil {
			return nil, err
		}
	}
	for _, f := range cfg.Filters {
		if err := chain.RegisterCustom(f); err != nil {
			return nil, err
		}
	}
	return &Builder{
		id:         uuid.NewString(),
		log:        log,
		planner:    cfg.Planner,
		input:      cfg.Input,
		opts:       cfg.Options,
		iterMethod: cfg.IterMethod,
		manager:    schedule.NewManager(),
		chain:      chain,
		boundaries: boundary.NewRegistry(),
		candKey:    uuid.NewString(),
		rng:        rand.New(rand.NewSource(seed)),
		src:        xrand.NewSource(uint64(seed)),
		status:     statusNew,
		phases:     eventbus.NewTyped[events.Phase](),
		placements: eventbus.NewTyped[events.Placement](),
	}, nil
}

// ID returns the build id.
func (b *Builder) ID() string { return b.id }

// Status returns the current build status.
func (b *Builder) Status() string { return b.status }

// Manager returns the schedule manager of this build.
func (b *Builder) Manager() *schedule.Manager { return b.manager }

// Master returns the master schedule, nil before Setup ran.
func (b *Builder) Master() *schedule.Schedule { return b.manager.Master() }

// Phases returns the phase notification bus.
func (b *Builder) Phases() *eventbus.TypedBus[events.Phase] { return b.phases }

// Placements returns the placement notification bus.
func (b *Builder) Placements() *eventbus.TypedBus[events.Placement] { return b.placements }

// Close shuts the notification buses down.
func (b *Builder) Close() {
	b.phases.Close()
	b.placements.Close()
}

// Handler is one pipeline phase.
type Handler interface {
	Name() string
	Handle(b *Builder) error
}

// Build runs the full pipeline. A non-nil seed schedule is planned on top of
// instead of a fresh one. The returned schedule may be partial; completeness
// is the controller's concern.
func (b *Builder) Build(seed *schedule.Schedule) (*schedule.Schedule, error) {
	pipeline := []Handler{
		setupPhase{seed: seed},
		decideCandidatesPhase{},
		planIndeterminatePhase{},
		planDeterminatePhase{},
		resolveConflictsPhase{},
		terminatePhase{},
	}
	for _, h := range pipeline {
		b.log.Debugw("pipeline phase", map[string]any{"build": b.id, "phase": h.Name()})
		b.phases.Publish(events.Phase{BuildID: b.id, Name: h.Name(), At: time.Now().UTC()})
		started := time.Now()
		if err := h.Handle(b); err != nil {
			return nil, fmt.Errorf("builder: phase %s: %w", h.Name(), err)
		}
		phaseDuration.WithLabelValues(h.Name()).Observe(time.Since(started).Seconds())
	}
	return b.Master(), nil
}

// candidates returns the candidate-index minion, nil before Setup ran.
func (b *Builder) candidates() *schedule.Schedule {
	return b.manager.Minion(b.candKey)
}

// place commits ev to the master for one date and records provenance.
func (b *Builder) place(date time.Time, ev *schedule.Event, method string, removeFromMinions bool) error {
	if err := b.manager.AddMasterEvent([]time.Time{date}, ev, removeFromMinions); err != nil {
		return err
	}
	ev.AddMeta(schedule.MetaMethod, method)
	placementsTotal.WithLabelValues(method).Inc()
	b.placements.Publish(events.Placement{
		BuildID: b.id,
		EventID: ev.ID(),
		Date:    date,
		Method:  method,
	})
	return nil
}

// applyChain runs the filter chain for one date over the given candidates.
func (b *Builder) applyChain(date time.Time, evs []*schedule.Event) ([]*schedule.Event, error) {
	return b.chain.Apply(&filter.Context{
		Schedule: b.Master(),
		Date:     date,
		Events:   evs,
	})
}
