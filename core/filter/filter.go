// Package filter implements the event eligibility chain: ordered predicates
// over (date, candidate events) applied before any placement decision.
package filter

import (
	"errors"
	"fmt"
	"time"

	"planera/core/logger"
	"planera/core/schedule"
)

// ErrDuplicateFilter is returned when a filter name is registered twice.
var ErrDuplicateFilter = errors.New("filter: duplicate filter registration")

// Context carries the state one chain application evaluates against.
type Context struct {
	Schedule *schedule.Schedule
	Date     time.Time
	Events   []*schedule.Event
}

// Func narrows the candidate events for one date. An empty result
// short-circuits the remaining chain.
type Func func(*Context) ([]*schedule.Event, error)

// Filter is a named chain stage.
type Filter interface {
	Name() string
	Func() Func
}

type stage struct {
	name string
	fn   Func
}

// Chain applies registered filters in order with fail-fast semantics.
type Chain struct {
	stages []stage
	names  map[string]bool
	log    logger.Logger
}

// NewChain returns an empty chain logging through log.
func NewChain(log logger.Logger) *Chain {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Chain{names: make(map[string]bool), log: log}
}

// Register appends a default filter after running the registration self-test:
// applied to an empty synthetic context the filter must be a no-op. A broken
// filter signature or side effect fails here instead of mid-plan.
func (c *Chain) Register(f Filter) error {
	if err := c.checkName(f); err != nil {
		return err
	}
	out, err := f.Func()(&Context{})
	if err != nil {
		return fmt.Errorf("filter: self-test of %s: %w", f.Name(), err)
	}
	if len(out) != 0 {
		return fmt.Errorf("filter: self-test of %s: not a no-op on empty input", f.Name())
	}
	c.append(f)
	return nil
}

// RegisterCustom appends a caller-supplied filter. Custom filters are exempt
// from the self-test.
func (c *Chain) RegisterCustom(f Filter) error {
	if err := c.checkName(f); err != nil {
		return err
	}
	c.append(f)
	return nil
}

func (c *Chain) checkName(f Filter) error {
	if c.names[f.Name()] {
		return fmt.Errorf("%w: %s", ErrDuplicateFilter, f.Name())
	}
	return nil
}

func (c *Chain) append(f Filter) {
	c.log.Debugf("registering event filter: %s", f.Name())
	c.names[f.Name()] = true
	c.stages = append(c.stages, stage{name: f.Name(), fn: f.Func()})
}

// Apply runs the chain over ctx. Any stage returning an empty set stops the
// remaining stages for that date.
func (c *Chain) Apply(ctx *Context) ([]*schedule.Event, error) {
	events := ctx.Events
	for _, s := range c.stages {
		if len(events) == 0 {
			return nil, nil
		}
		next, err := s.fn(&Context{Schedule: ctx.Schedule, Date: ctx.Date, Events: events})
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", s.name, err)
		}
		events = next
	}
	return events, nil
}

// Len returns the number of registered stages.
func (c *Chain) Len() int { return len(c.stages) }

// funcFilter adapts a name and Func to the Filter interface.
type funcFilter struct {
	name string
	fn   Func
}

func (f funcFilter) Name() string { return f.name }
func (f funcFilter) Func() Func   { return f.fn }

// New wraps fn as a named filter.
func New(name string, fn Func) Filter {
	return funcFilter{name: name, fn: fn}
}
