package planner

import (
	"math/rand"
	"time"

	"planera/core/schedule"
)

// KindWeighted is the registry name of the weighted conflict policy.
const KindWeighted = "weighted"

// Weighted resolves conflicts by, in order: picking a candidate that holds
// its last remaining global candidate slot, preferring the event with the
// fewest prior placements, breaking ties by highest priority and finally by
// seeded uniform choice. One event per day.
type Weighted struct {
	Base
	rng *rand.Rand
}

// NewWeighted returns a weighted planner. A zero seed falls back to the
// current time.
func NewWeighted(seed int64) *Weighted {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Weighted{rng: rand.New(rand.NewSource(seed))}
}

// PlanInit caps days at one event each.
func (p *Weighted) PlanInit(opts schedule.Options, seed *schedule.Schedule) (*schedule.Schedule, error) {
	if seed != nil {
		return seed, nil
	}
	opts.DailyEventLimit = 1
	return schedule.New(opts)
}

func (p *Weighted) ResolveConflict(sch *schedule.Schedule, date time.Time, candidates []*schedule.Event) (*schedule.Event, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	// a candidate down to its single remaining global slot wins outright
	var lastSlot []*schedule.Event
	for _, ev := range candidates {
		if len(ev.Candidates()) == 1 {
			lastSlot = append(lastSlot, ev)
		}
	}
	if len(lastSlot) == 1 {
		return lastSlot[0], nil
	}

	best := candidates
	best = fewestPlacements(sch, best)
	best = highestPrio(best)
	return best[p.rng.Intn(len(best))], nil
}

// fewestPlacements keeps the events with the fewest prior placements on sch.
func fewestPlacements(sch *schedule.Schedule, events []*schedule.Event) []*schedule.Event {
	low := -1
	var out []*schedule.Event
	for _, ev := range events {
		n := sch.PlacementCount(ev.ID())
		switch {
		case low == -1 || n < low:
			low = n
			out = []*schedule.Event{ev}
		case n == low:
			out = append(out, ev)
		}
	}
	return out
}

// highestPrio keeps the events with the highest priority value.
func highestPrio(events []*schedule.Event) []*schedule.Event {
	high := events[0].Prio()
	for _, ev := range events[1:] {
		if ev.Prio() > high {
			high = ev.Prio()
		}
	}
	var out []*schedule.Event
	for _, ev := range events {
		if ev.Prio() == high {
			out = append(out, ev)
		}
	}
	return out
}
