package planner

import (
	"math/rand"
	"time"

	"planera/core/schedule"
)

// KindRandomizer is the registry name of the randomizing policy.
const KindRandomizer = "randomizer"

// Randomizer ignores boundaries entirely and fills days by uniform choice.
// Useful to generate unconstrained baseline schedules.
type Randomizer struct {
	Base
	rng  *rand.Rand
	pool []*schedule.Event
}

// NewRandomizer returns a randomizing planner. A zero seed falls back to the
// current time.
func NewRandomizer(seed int64) *Randomizer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Randomizer{rng: rand.New(rand.NewSource(seed))}
}

// SetEventPool implements EventPoolAware.
func (p *Randomizer) SetEventPool(events []*schedule.Event) {
	p.pool = events
}

// ApplyBoundaries disables boundary-based candidate narrowing.
func (p *Randomizer) ApplyBoundaries() bool { return false }

func (p *Randomizer) ResolveConflict(_ *schedule.Schedule, _ time.Time, candidates []*schedule.Event) (*schedule.Event, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	return candidates[p.rng.Intn(len(candidates))], nil
}

// PlanMissingEvent fills an empty day with a uniform pick from the pool.
func (p *Randomizer) PlanMissingEvent(time.Time, *schedule.Day) (*schedule.Event, error) {
	if len(p.pool) == 0 {
		return nil, nil
	}
	return p.pool[p.rng.Intn(len(p.pool))], nil
}
