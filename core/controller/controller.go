// Package controller drives the build loop: validate the input, run the
// builder pipeline up to a configured number of iterations and feed each
// partial result back as the next seed until every day is filled.
package controller

import (
	"errors"
	"fmt"
	"time"

	"planera/core/builder"
	"planera/core/events"
	"planera/core/filter"
	"planera/core/logger"
	"planera/core/model"
	"planera/core/planner"
	"planera/core/schedule"
	"planera/core/timeutil"
	"planera/core/validate"
	"planera/internal/eventbus"
)

// SeedStrategy decides what happens to days already placed on a seed
// schedule before re-planning.
type SeedStrategy string

const (
	// SeedIgnorePlacedDays keeps existing placements and plans around them.
	SeedIgnorePlacedDays SeedStrategy = "ignore_placed_days"
	// SeedReplacePlacedDays clears every day inside the planning window
	// before planning.
	SeedReplacePlacedDays SeedStrategy = "replace_placed_days"
)

// ErrUnknownSeedStrategy is returned for strategies other than the two
// defined ones.
var ErrUnknownSeedStrategy = errors.New("controller: unknown seed strategy")

// BuildError carries a failed validation result. The partial state that
// failed is in Result.Data.
type BuildError struct {
	Stage  string
	Result validate.Result
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("controller: %s failed: %s", e.Stage, e.Result.Msg)
}

// Config assembles one controller.
type Config struct {
	Planner planner.Planner
	Input   model.Input
	Options schedule.Options
	// Iterations caps the number of build passes. Zero or negative
	// defaults to 1.
	Iterations   int
	IterMethod   string
	Seed         int64
	SeedStrategy SeedStrategy
	Log          logger.Logger
	Filters      []filter.Filter
}

// Controller runs builds until the schedule is complete or the iteration
// cap is reached. The last schedule is returned either way; partial
// schedules are valid terminal states.
type Controller struct {
	cfg        Config
	log        logger.Logger
	iterations *eventbus.TypedBus[events.Iteration]
}

// New returns a controller for cfg.
func New(cfg Config) (*Controller, error) {
	switch cfg.SeedStrategy {
	case "", SeedIgnorePlacedDays, SeedReplacePlacedDays:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSeedStrategy, cfg.SeedStrategy)
	}
	if cfg.Iterations < 1 {
		cfg.Iterations = 1
	}
	log := cfg.Log
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Controller{
		cfg:        cfg,
		log:        log,
		iterations: eventbus.NewTyped[events.Iteration](),
	}, nil
}

// Iterations returns the per-pass notification bus.
func (c *Controller) Iterations() *eventbus.TypedBus[events.Iteration] {
	return c.iterations
}

// Close shuts the notification bus down.
func (c *Controller) Close() {
	c.iterations.Close()
}

// Run executes the build loop on top of an optional seed schedule.
func (c *Controller) Run(seed *schedule.Schedule) (*schedule.Schedule, error) {
	if res := validate.PreValidate(c.cfg.Input, seed); !res.OK {
		return nil, &BuildError{Stage: "pre_validate", Result: res}
	}
	if seed != nil && c.cfg.SeedStrategy == SeedReplacePlacedDays {
		c.clearPlanningWindow(seed)
	}

	current := seed
	var sch *schedule.Schedule
	for i := 1; i <= c.cfg.Iterations; i++ {
		started := time.Now().UTC()
		b, err := builder.New(builder.Config{
			Planner:    c.cfg.Planner,
			Input:      c.cfg.Input,
			Options:    c.cfg.Options,
			IterMethod: c.cfg.IterMethod,
			Seed:       c.cfg.Seed,
			Log:        c.log,
			Filters:    c.cfg.Filters,
		})
		if err != nil {
			return nil, err
		}
		sch, err = b.Build(current)
		b.Close()
		if err != nil {
			return nil, err
		}
		if res := validate.PostValidate(sch); !res.OK {
			return nil, &BuildError{Stage: "post_validate", Result: res}
		}

		iterationsTotal.Inc()
		unfilled := len(sch.UnfilledDates())
		complete := sch.Complete()
		c.iterations.Publish(events.Iteration{
			BuildID:   b.ID(),
			Number:    i,
			Unfilled:  unfilled,
			Complete:  complete,
			StartedAt: started,
			EndedAt:   time.Now().UTC(),
		})
		c.log.Infof("iteration %d/%d: %d unfilled", i, c.cfg.Iterations, unfilled)
		if complete {
			break
		}
		current = sch
	}
	return sch, nil
}

// clearPlanningWindow empties every day of the seed inside its planning
// sub-window.
func (c *Controller) clearPlanningWindow(seed *schedule.Schedule) {
	for _, d := range timeutil.DayRange(seed.PlanningStart(), seed.PlanningEnd()) {
		if seed.ClearDay(d) {
			c.log.Debugf("cleared seeded day %s", timeutil.FormatDay(d))
		}
	}
}
