// Package schedule holds the calendar data structure of the planning engine:
// the day map, placed events, quota bookkeeping and the master/minion
// schedule manager.
package schedule

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"planera/core/quota"
	"planera/core/timeutil"
)

// Iteration methods for walking schedule dates.
const (
	IterSorted = "sorted"
	IterRandom = "random"
)

// ErrUnknownIterMethod is returned for iteration methods other than sorted
// or random.
var ErrUnknownIterMethod = errors.New("schedule: unknown iteration method")

// InvalidAdditionError reports an event addition that failed quota
// validation. It indicates a caller bypassing the validate-then-commit
// discipline.
type InvalidAdditionError struct {
	EventID int
	Date    time.Time
	Windows []quota.Window
}

func (e *InvalidAdditionError) Error() string {
	return fmt.Sprintf("schedule: invalid addition of event %d on %s: quota exceeded",
		e.EventID, timeutil.FormatDay(e.Date))
}

// Options configures a schedule instance.
type Options struct {
	Start time.Time
	End   time.Time
	// PlanningStart/PlanningEnd bound the sub-window eligible for new
	// placements. Zero values default to the full range.
	PlanningStart time.Time
	PlanningEnd   time.Time
	// DailyEventLimit caps events per day; 0 means unlimited.
	DailyEventLimit int
	// IncludeProps projects serialized event fields; nil means all.
	IncludeProps []string
	// ExcludeEventIDs are dropped by the first filter stage.
	ExcludeEventIDs []int
	Name            string
}

// Normalize truncates dates to days and applies planning-window defaults.
func (o *Options) Normalize() error {
	if o.Start.IsZero() || o.End.IsZero() {
		return errors.New("schedule: start and end dates are required")
	}
	o.Start, o.End = timeutil.Day(o.Start), timeutil.Day(o.End)
	if o.End.Before(o.Start) {
		return fmt.Errorf("schedule: end %s before start %s",
			timeutil.FormatDay(o.End), timeutil.FormatDay(o.Start))
	}
	if o.PlanningStart.IsZero() {
		o.PlanningStart = o.Start
	} else {
		o.PlanningStart = timeutil.Day(o.PlanningStart)
	}
	if o.PlanningEnd.IsZero() {
		o.PlanningEnd = o.End
	} else {
		o.PlanningEnd = timeutil.Day(o.PlanningEnd)
	}
	if o.DailyEventLimit < 0 {
		return fmt.Errorf("schedule: negative daily event limit %d", o.DailyEventLimit)
	}
	return nil
}

// Day is one calendar day bucket of a schedule.
type Day struct {
	Events []*Event
}

// Schedule owns a fixed interval of days and the events placed into them.
// Every date in [start, end] has exactly one day entry, created at
// construction and never removed.
type Schedule struct {
	id      string
	opts    Options
	days    map[time.Time]*Day
	quotas  *quota.Table
	builtAt time.Time
}

// New creates a schedule spanning opts.Start..opts.End with empty days.
func New(opts Options) (*Schedule, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}
	s := &Schedule{
		id:     uuid.NewString(),
		opts:   opts,
		days:   make(map[time.Time]*Day),
		quotas: quota.NewTable(),
	}
	for _, d := range timeutil.DayRange(opts.Start, opts.End) {
		s.days[d] = &Day{}
	}
	return s, nil
}

// ID returns the schedule's unique id.
func (s *Schedule) ID() string { return s.id }

// Options returns the schedule options.
func (s *Schedule) Options() Options { return s.opts }

// Start returns the first day of the interval.
func (s *Schedule) Start() time.Time { return s.opts.Start }

// End returns the last day of the interval.
func (s *Schedule) End() time.Time { return s.opts.End }

// PlanningStart returns the first day eligible for new placements.
func (s *Schedule) PlanningStart() time.Time { return s.opts.PlanningStart }

// PlanningEnd returns the last day eligible for new placements.
func (s *Schedule) PlanningEnd() time.Time { return s.opts.PlanningEnd }

// BuiltAt returns the build completion time, zero until MarkBuilt.
func (s *Schedule) BuiltAt() time.Time { return s.builtAt }

// MarkBuilt records the build completion time.
func (s *Schedule) MarkBuilt() { s.builtAt = time.Now().UTC() }

// Quotas returns the schedule's quota table.
func (s *Schedule) Quotas() *quota.Table { return s.quotas }

// Dates returns all schedule dates in sorted order.
func (s *Schedule) Dates() []time.Time {
	dates := make([]time.Time, 0, len(s.days))
	for d := range s.days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// IterDates returns schedule dates ordered by method: sorted for
// determinism, random to avoid systematic placement bias across builds.
func (s *Schedule) IterDates(method string, rng *rand.Rand) ([]time.Time, error) {
	dates := s.Dates()
	switch method {
	case IterSorted, "":
		return dates, nil
	case IterRandom:
		rng.Shuffle(len(dates), func(i, j int) {
			dates[i], dates[j] = dates[j], dates[i]
		})
		return dates, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIterMethod, method)
	}
}

// Day returns the bucket for date, or nil if outside the interval.
func (s *Schedule) Day(date time.Time) *Day {
	return s.days[timeutil.Day(date)]
}

// EventsOn returns the events placed on date.
func (s *Schedule) EventsOn(date time.Time) []*Event {
	if day := s.Day(date); day != nil {
		return day.Events
	}
	return nil
}

// HasEvent reports whether date holds at least one placed event.
func (s *Schedule) HasEvent(date time.Time) bool {
	return len(s.EventsOn(date)) > 0
}

// Events returns all placed events in date order.
func (s *Schedule) Events() []*Event {
	var out []*Event
	for _, d := range s.Dates() {
		out = append(out, s.days[d].Events...)
	}
	return out
}

// EventsByID returns all placements of the given event id grouped by date.
func (s *Schedule) EventsByID(id int) map[time.Time][]*Event {
	out := make(map[time.Time][]*Event)
	for date, day := range s.days {
		for _, ev := range day.Events {
			if ev.ID() == id {
				out[date] = append(out[date], ev)
			}
		}
	}
	return out
}

// PlacementCount returns the number of placements of the given event id.
func (s *Schedule) PlacementCount(id int) int {
	n := 0
	for _, day := range s.days {
		for _, ev := range day.Events {
			if ev.ID() == id {
				n++
			}
		}
	}
	return n
}

// EventsByWeek returns all events placed in the given ISO week of the year.
func (s *Schedule) EventsByWeek(year, week int) []*Event {
	var out []*Event
	for _, date := range s.Dates() {
		y, w := date.ISOWeek()
		if y == year && w == week {
			out = append(out, s.days[date].Events...)
		}
	}
	return out
}

// Complete reports whether every day holds at least one event.
func (s *Schedule) Complete() bool {
	for _, day := range s.days {
		if len(day.Events) == 0 {
			return false
		}
	}
	return true
}

// UnfilledDates returns the dates with no placed event, sorted.
func (s *Schedule) UnfilledDates() []time.Time {
	var out []time.Time
	for _, d := range s.Dates() {
		if len(s.days[d].Events) == 0 {
			out = append(out, d)
		}
	}
	return out
}

// ValidateQuota dry-runs a quota consumption for ev on date.
func (s *Schedule) ValidateQuota(ev *Event, date time.Time) (bool, []quota.Window, error) {
	return s.quotas.Validate(ev.ID(), []time.Time{timeutil.Day(date)})
}

// AddEvent places ev on every given date. Each placement is validated
// against quotas before the day is mutated and the quota consumed, keeping
// pre-check and consumption atomic per call.
func (s *Schedule) AddEvent(dates []time.Time, ev *Event) error {
	if ev == nil {
		return errors.New("schedule: nil event")
	}
	for _, date := range dates {
		date = timeutil.Day(date)
		day := s.days[date]
		if day == nil {
			return fmt.Errorf("schedule: date %s outside interval %s..%s",
				timeutil.FormatDay(date), timeutil.FormatDay(s.opts.Start), timeutil.FormatDay(s.opts.End))
		}
		ok, windows, err := s.quotas.Validate(ev.ID(), []time.Time{date})
		if err != nil {
			return err
		}
		if !ok {
			return &InvalidAdditionError{EventID: ev.ID(), Date: date, Windows: windows}
		}
		if s.opts.DailyEventLimit > 0 && len(day.Events)+1 > s.opts.DailyEventLimit {
			return fmt.Errorf("schedule: date %s exceeds daily event limit %d",
				timeutil.FormatDay(date), s.opts.DailyEventLimit)
		}
		day.Events = append(day.Events, ev)
		if err := s.quotas.Consume(ev.ID(), []time.Time{date}, 1); err != nil {
			return err
		}
	}
	return nil
}

// RemoveEvent removes every placement of the event id. Quota usage is not
// refunded; used only increases within one build.
func (s *Schedule) RemoveEvent(id int) {
	for _, day := range s.days {
		kept := day.Events[:0]
		for _, ev := range day.Events {
			if ev.ID() != id {
				kept = append(kept, ev)
			}
		}
		day.Events = kept
	}
}

// ClearDay empties the bucket for date, keeping the date entry itself.
// It reports whether any event was removed.
func (s *Schedule) ClearDay(date time.Time) bool {
	day := s.Day(date)
	if day == nil || len(day.Events) == 0 {
		return false
	}
	day.Events = nil
	return true
}

// AddQuota registers quota windows for the event id.
func (s *Schedule) AddQuota(eventID int, windows []*quota.Window) {
	s.quotas.Add(eventID, windows)
}

// Clone returns a structural copy: the day map and its event slices are
// copied, the quota table is cloned, and event pointers are shared since
// source records are immutable once wrapped.
func (s *Schedule) Clone() *Schedule {
	cp := &Schedule{
		id:      uuid.NewString(),
		opts:    s.opts,
		days:    make(map[time.Time]*Day, len(s.days)),
		quotas:  s.quotas.Clone(),
		builtAt: s.builtAt,
	}
	for date, day := range s.days {
		cp.days[date] = &Day{Events: append([]*Event(nil), day.Events...)}
	}
	return cp
}
