package boundary

import (
	"fmt"
	"time"

	"planera/core/factory"
	"planera/core/schedule"
	"planera/core/timeutil"
)

// DistanceSpec is one minimum-separation rule between occurrences of the
// same event id.
type DistanceSpec struct {
	Value    int    `json:"value"`
	TimeUnit string `json:"time_unit"`
}

type distanceConf struct {
	Distance []DistanceSpec `json:"distance"`
}

// Distance rejects an event when any existing placement of the same id falls
// inside the day-span window around the probe date. Week and month units use
// fixed 7- and 30-day approximations, not calendar-accurate arithmetic.
type Distance struct {
	specs []DistanceSpec
}

func newDistance(conf map[string]any) (schedule.Boundary, error) {
	var c distanceConf
	if err := factory.Decode(conf, &c); err != nil {
		return nil, fmt.Errorf("boundary: decode distance payload: %w", err)
	}
	for _, spec := range c.Distance {
		if spec.Value <= 0 {
			return nil, fmt.Errorf("boundary: distance value must be positive, got %d", spec.Value)
		}
		if _, err := spanDays(spec); err != nil {
			return nil, err
		}
	}
	return &Distance{specs: c.Distance}, nil
}

func spanDays(spec DistanceSpec) (int, error) {
	switch spec.TimeUnit {
	case "day":
		return spec.Value, nil
	case "week":
		return spec.Value * 7, nil
	case "month":
		return spec.Value * 30, nil
	default:
		return 0, fmt.Errorf("boundary: unknown distance time unit %q", spec.TimeUnit)
	}
}

func (b *Distance) Kind() string { return KindDistance }
func (b *Distance) Class() schedule.BoundaryClass { return schedule.ClassDistance }

func (b *Distance) EligibleDates(ctx *schedule.BoundaryContext) ([]time.Time, error) {
	return ctx.Dates, nil
}

// EligibleEvents returns the context events without a distance conflict on
// the single probe date.
func (b *Distance) EligibleEvents(ctx *schedule.BoundaryContext) ([]*schedule.Event, error) {
	if len(ctx.Dates) > 1 {
		return nil, ErrMultiDateProbe
	}
	if len(ctx.Dates) == 0 {
		return ctx.Events, nil
	}
	probe := timeutil.Day(ctx.Dates[0])
	var eligible []*schedule.Event
	for _, ev := range ctx.Events {
		conflict, err := b.hasConflict(ctx.Schedule, probe, ev)
		if err != nil {
			return nil, err
		}
		if !conflict {
			eligible = append(eligible, ev)
		}
	}
	return eligible, nil
}

// hasConflict examines [probe-(span-1), probe+(span-1)], excluding the probe
// date itself, for placements of the same event id.
func (b *Distance) hasConflict(sch *schedule.Schedule, probe time.Time, ev *schedule.Event) (bool, error) {
	if sch == nil || len(sch.Events()) == 0 {
		return false, nil
	}
	placed := sch.EventsByID(ev.ID())
	if len(placed) == 0 {
		return false, nil
	}
	for _, spec := range b.specs {
		span, err := spanDays(spec)
		if err != nil {
			return false, err
		}
		start := timeutil.AddDays(probe, -span+1)
		end := timeutil.AddDays(probe, span-1)
		for _, date := range timeutil.DayRange(start, end) {
			if date.Equal(probe) {
				continue
			}
			if len(placed[date]) > 0 {
				return true, nil
			}
		}
	}
	return false, nil
}
