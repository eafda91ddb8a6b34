// Package validate checks planning inputs before a build and built schedules
// after one. Failures are expected, recoverable outcomes carried in a
// structured result rather than a Go error.
package validate

import (
	"fmt"

	"planera/core/model"
	"planera/core/schedule"
	"planera/core/timeutil"
)

// Result is the outcome of a validation pass. Data carries the offending
// records keyed by check name so callers can surface them.
type Result struct {
	OK   bool
	Msg  string
	Data map[string]any
}

func ok() Result {
	return Result{OK: true, Msg: "validation passed"}
}

func fail(msg string, data map[string]any) Result {
	return Result{OK: false, Msg: msg, Data: data}
}

// PreValidate checks the planning input: required event fields, unique ids,
// resolvable rule references and, when a seed schedule is given, that every
// seeded placement references a known event id.
func PreValidate(input model.Input, seed *schedule.Schedule) Result {
	seen := make(map[int]bool, len(input.Events))
	sets := input.RuleSets()

	for _, ev := range input.Events {
		if ev.ID == 0 {
			return fail("event without id", map[string]any{"event": ev})
		}
		if ev.Name == "" {
			return fail(fmt.Sprintf("event %d without name", ev.ID), map[string]any{"event_id": ev.ID})
		}
		if seen[ev.ID] {
			return fail(fmt.Sprintf("duplicate event id %d", ev.ID), map[string]any{"event_id": ev.ID})
		}
		seen[ev.ID] = true
		for _, name := range ev.Rules {
			if _, found := sets[name]; !found {
				return fail(fmt.Sprintf("event %d references unknown rule set %q", ev.ID, name),
					map[string]any{"event_id": ev.ID, "rule_set": name})
			}
		}
	}

	if seed != nil {
		for _, ev := range seed.Events() {
			if !seen[ev.ID()] {
				return fail(fmt.Sprintf("seed schedule places unknown event id %d", ev.ID()),
					map[string]any{"event_id": ev.ID()})
			}
		}
	}
	return ok()
}

// PostValidate checks a built schedule: the day map covers the full
// interval, the daily limit holds and no quota window is over capacity.
func PostValidate(sch *schedule.Schedule) Result {
	if sch == nil {
		return fail("no schedule produced", nil)
	}

	want := timeutil.DayRange(sch.Start(), sch.End())
	if got := len(sch.Dates()); got != len(want) {
		return fail(fmt.Sprintf("day map holds %d dates, interval spans %d", got, len(want)),
			map[string]any{"have": got, "want": len(want)})
	}
	for _, d := range want {
		if sch.Day(d) == nil {
			return fail(fmt.Sprintf("day map misses %s", timeutil.FormatDay(d)),
				map[string]any{"date": timeutil.FormatDay(d)})
		}
	}

	limit := sch.Options().DailyEventLimit
	if limit > 0 {
		for _, d := range sch.Dates() {
			if n := len(sch.EventsOn(d)); n > limit {
				return fail(fmt.Sprintf("%s holds %d events, limit is %d", timeutil.FormatDay(d), n, limit),
					map[string]any{"date": timeutil.FormatDay(d), "events": n})
			}
		}
	}

	for _, id := range sch.Quotas().EventIDs() {
		for _, w := range sch.Quotas().Windows(id) {
			if w.Used > w.Capacity() {
				return fail(fmt.Sprintf("event %d quota window over capacity: used %d of %d", id, w.Used, w.Capacity()),
					map[string]any{"event_id": id, "used": w.Used, "capacity": w.Capacity()})
			}
		}
	}
	return ok()
}
