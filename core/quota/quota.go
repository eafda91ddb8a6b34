// Package quota tracks consumable usage windows per event id. Windows are
// expanded from templates across a calendar interval and consumed one date at
// a time under a validate-then-commit discipline.
package quota

import (
	"errors"
	"fmt"
	"time"

	"planera/core/timeutil"
)

// TimeUnit selects the sub-period a quota template expands into.
type TimeUnit string

const (
	UnitWeek     TimeUnit = "week"
	UnitMonth    TimeUnit = "month"
	UnitHalfYear TimeUnit = "half_year"
	UnitYear     TimeUnit = "year"
)

// ErrUnknownTimeUnit is returned when a template names no known time unit.
var ErrUnknownTimeUnit = errors.New("quota: unknown time unit")

// ErrMultiDateConsume is returned when more than one date is passed to a
// single Validate or Consume call. Callers pass one date at a time.
var ErrMultiDateConsume = errors.New("quota: multi-date consumption is not implemented")

// Template describes a quota to be expanded across a schedule interval.
type Template struct {
	Min      int      `json:"min"`
	Max      int      `json:"max"`
	TimeUnit TimeUnit `json:"time_unit"`
}

// Validate checks template fields.
func (t Template) Validate() error {
	switch t.TimeUnit {
	case UnitWeek, UnitMonth, UnitHalfYear, UnitYear:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTimeUnit, t.TimeUnit)
	}
	if t.Min < 0 || t.Max < t.Min {
		return fmt.Errorf("quota: invalid bounds min=%d max=%d", t.Min, t.Max)
	}
	return nil
}

// Window is one instantiated quota sub-period. Used only increases;
// Remaining never goes negative.
type Window struct {
	Min      int
	Max      int
	TimeUnit TimeUnit
	Dates    []time.Time
	Used     int
}

// Capacity is the usage ceiling of the window.
func (w *Window) Capacity() int {
	return w.Max - w.Min + 1
}

// Remaining is the usable capacity left, floored at zero.
func (w *Window) Remaining() int {
	r := w.Capacity() - w.Used
	if r < 0 {
		return 0
	}
	return r
}

func (w *Window) contains(date time.Time) bool {
	for _, d := range w.Dates {
		if d.Equal(date) {
			return true
		}
	}
	return false
}

// Build expands tpl into one window per calendar sub-period overlapping
// [start, end]. Window date sets are truncated to the interval.
func Build(start, end time.Time, tpl Template) ([]*Window, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	var periods [][]time.Time
	switch tpl.TimeUnit {
	case UnitWeek:
		periods = timeutil.WeekRange(start, end)
	case UnitMonth:
		periods = timeutil.MonthRange(start, end)
	case UnitHalfYear:
		periods = timeutil.HalfYearRanges(start, end)
	case UnitYear:
		periods = timeutil.YearRanges(start, end)
	}
	windows := make([]*Window, 0, len(periods))
	for _, dates := range periods {
		windows = append(windows, &Window{
			Min:      tpl.Min,
			Max:      tpl.Max,
			TimeUnit: tpl.TimeUnit,
			Dates:    dates,
		})
	}
	return windows, nil
}

// ExceededError reports an attempt to consume beyond a window's capacity.
type ExceededError struct {
	EventID int
	Window  Window
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("quota: event %d exceeds window capacity %d (used %d)",
		e.EventID, e.Window.Capacity(), e.Window.Used)
}

// Table maps event ids to their ordered quota windows.
type Table struct {
	windows map[int][]*Window
}

// NewTable returns an empty quota table.
func NewTable() *Table {
	return &Table{windows: make(map[int][]*Window)}
}

// Add appends windows for the given event id.
func (t *Table) Add(eventID int, ws []*Window) {
	t.windows[eventID] = append(t.windows[eventID], ws...)
}

// Has reports whether any windows exist for the event id.
func (t *Table) Has(eventID int) bool {
	return len(t.windows[eventID]) > 0
}

// Windows returns the windows tracked for the event id.
func (t *Table) Windows(eventID int) []*Window {
	return t.windows[eventID]
}

// EventIDs returns the event ids with tracked windows.
func (t *Table) EventIDs() []int {
	ids := make([]int, 0, len(t.windows))
	for id := range t.windows {
		ids = append(ids, id)
	}
	return ids
}

// apply walks the windows touched by dates, adding amount to Used. With
// dryRun set it operates on copies and leaves the table untouched.
func (t *Table) apply(eventID int, dates []time.Time, amount int, dryRun bool) ([]Window, error) {
	if len(dates) > 1 {
		return nil, ErrMultiDateConsume
	}
	windows := t.windows[eventID]
	if len(windows) == 0 {
		// nothing tracked for this event, nothing to consume
		return nil, nil
	}
	touched := make([]Window, 0, len(windows))
	for _, w := range windows {
		hit := false
		for _, date := range dates {
			if w.contains(date) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		if dryRun {
			cp := *w
			cp.Used += amount
			touched = append(touched, cp)
			continue
		}
		w.Used += amount
		touched = append(touched, *w)
	}
	return touched, nil
}

// Validate dry-runs a consumption of one unit per date against window copies.
// It returns false with the offending window snapshot if any touched window
// would exceed its capacity. The table is never mutated.
func (t *Table) Validate(eventID int, dates []time.Time) (bool, []Window, error) {
	touched, err := t.apply(eventID, dates, 1, true)
	if err != nil {
		return false, nil, err
	}
	for _, w := range touched {
		if w.Used > w.Capacity() {
			return false, touched, nil
		}
	}
	return true, touched, nil
}

// Consume commits amount units against the windows touched by dates. It must
// only be called after a successful Validate; an overflow here means the
// caller bypassed the validate-then-commit discipline and is reported as an
// ExceededError.
func (t *Table) Consume(eventID int, dates []time.Time, amount int) error {
	ok, touched, err := t.Validate(eventID, dates)
	if err != nil {
		return err
	}
	if !ok {
		for _, w := range touched {
			if w.Used > w.Capacity() {
				return &ExceededError{EventID: eventID, Window: w}
			}
		}
		return &ExceededError{EventID: eventID}
	}
	_, err = t.apply(eventID, dates, amount, false)
	return err
}

// Clone returns a deep copy of the table. Window date sets are shared since
// they are never mutated after Build.
func (t *Table) Clone() *Table {
	cp := NewTable()
	for id, ws := range t.windows {
		cloned := make([]*Window, len(ws))
		for i, w := range ws {
			c := *w
			cloned[i] = &c
		}
		cp.windows[id] = cloned
	}
	return cp
}
