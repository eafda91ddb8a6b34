package filter

import (
	"time"

	"planera/core/schedule"
	"planera/core/timeutil"
)

// Default filter names, ordered cheapest to most expensive.
const (
	NameExcludeIDs       = "default__exclude_event_ids"
	NamePlanningInterval = "default__planning_interval"
	NamePlaced           = "default__placed"
	NameDateInterval     = "default__date_interval"
	NameDistance         = "default__distance"
	NameQuota            = "default__quota"
)

// Defaults returns the built-in chain in evaluation order.
func Defaults(excludeIDs []int) []Filter {
	return []Filter{
		ExcludeIDs(excludeIDs),
		PlanningInterval(),
		Placed(),
		DateInterval(),
		Distance(),
		Quota(),
	}
}

// ExcludeIDs drops events whose id is explicitly excluded.
func ExcludeIDs(ids []int) Filter {
	excluded := make(map[int]bool, len(ids))
	for _, id := range ids {
		excluded[id] = true
	}
	return New(NameExcludeIDs, func(ctx *Context) ([]*schedule.Event, error) {
		if len(excluded) == 0 {
			return ctx.Events, nil
		}
		var out []*schedule.Event
		for _, ev := range ctx.Events {
			if !excluded[ev.ID()] {
				out = append(out, ev)
			}
		}
		return out, nil
	})
}

// PlanningInterval yields nothing for dates outside the schedule's planning
// sub-window.
func PlanningInterval() Filter {
	return New(NamePlanningInterval, func(ctx *Context) ([]*schedule.Event, error) {
		if len(ctx.Events) == 0 {
			return nil, nil
		}
		if ctx.Date.Before(ctx.Schedule.PlanningStart()) || ctx.Date.After(ctx.Schedule.PlanningEnd()) {
			return nil, nil
		}
		return ctx.Events, nil
	})
}

// Placed yields nothing for dates that already hold a placement, enforcing
// at most one planning attempt per day per pass.
func Placed() Filter {
	return New(NamePlaced, func(ctx *Context) ([]*schedule.Event, error) {
		if len(ctx.Events) == 0 {
			return nil, nil
		}
		if ctx.Schedule.HasEvent(ctx.Date) {
			return nil, nil
		}
		return ctx.Events, nil
	})
}

// DateInterval drops events whose own validity window excludes the date.
func DateInterval() Filter {
	return New(NameDateInterval, func(ctx *Context) ([]*schedule.Event, error) {
		var out []*schedule.Event
		for _, ev := range ctx.Events {
			if min, ok := ev.MinDate(); ok && ctx.Date.Before(min) {
				continue
			}
			if max, ok := ev.MaxDate(); ok && ctx.Date.After(max) {
				continue
			}
			out = append(out, ev)
		}
		return out, nil
	})
}

// Distance drops events with a distance-boundary conflict on the date.
func Distance() Filter {
	return New(NameDistance, func(ctx *Context) ([]*schedule.Event, error) {
		var out []*schedule.Event
		for _, ev := range ctx.Events {
			ok := true
			for _, b := range ev.BoundariesByClass(schedule.ClassDistance) {
				eligible, err := b.EligibleEvents(&schedule.BoundaryContext{
					Schedule: ctx.Schedule,
					Events:   []*schedule.Event{ev},
					Dates:    []time.Time{timeutil.Day(ctx.Date)},
				})
				if err != nil {
					return nil, err
				}
				if len(eligible) == 0 {
					ok = false
					break
				}
			}
			if ok {
				out = append(out, ev)
			}
		}
		return out, nil
	})
}

// Quota drops events whose quota would be exceeded by a placement on the
// date.
func Quota() Filter {
	return New(NameQuota, func(ctx *Context) ([]*schedule.Event, error) {
		var out []*schedule.Event
		for _, ev := range ctx.Events {
			ok, _, err := ctx.Schedule.ValidateQuota(ev, ctx.Date)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, ev)
			}
		}
		return out, nil
	})
}
