package schedule

import (
	"sort"
	"time"

	"planera/core/model"
)

// Placement method tags recorded in event metadata. Provenance only, never
// control flow.
const (
	MetaMethod            = "method"
	MethodIndeterminate   = "indeterminate"
	MethodDeterminate     = "determinate_single"
	MethodConflict        = "conflict_resolution"
	MethodMissingFill     = "missing_fill"
	candidatePreviewCount = 3
)

// Event wraps an immutable source record with the mutable facets attached
// during planning: candidate dates, matched boundaries and metadata tags.
// Identity is the source event id.
type Event struct {
	src        model.Event
	candidates []time.Time
	boundaries []Boundary
	meta       map[string][]string
}

// NewEvent wraps a source record.
func NewEvent(src model.Event) *Event {
	return &Event{src: src, meta: make(map[string][]string)}
}

// Source returns the wrapped record.
func (e *Event) Source() model.Event { return e.src }

func (e *Event) ID() int      { return e.src.ID }
func (e *Event) Name() string { return e.src.Name }
func (e *Event) Prio() int    { return e.src.Prio }

// Active reports whether the event takes part in planning.
func (e *Event) Active() bool { return e.src.IsActive() }

// Rules returns the rule names attached to the event. The returned slice is
// the live list; SetRules replaces it.
func (e *Event) Rules() []string { return e.src.Rules }

// SetRules replaces the rule name list, used for global rule injection.
func (e *Event) SetRules(rules []string) { e.src.Rules = rules }

// MinDate returns the lower validity bound, or zero time when unbounded.
func (e *Event) MinDate() (time.Time, bool) {
	if e.src.MinDate == nil {
		return time.Time{}, false
	}
	return e.src.MinDate.Time, true
}

// MaxDate returns the upper validity bound, or zero time when unbounded.
func (e *Event) MaxDate() (time.Time, bool) {
	if e.src.MaxDate == nil {
		return time.Time{}, false
	}
	return e.src.MaxDate.Time, true
}

// SetCandidates replaces the candidate date set, kept sorted.
func (e *Event) SetCandidates(dates []time.Time) {
	cp := append([]time.Time(nil), dates...)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Before(cp[j]) })
	e.candidates = cp
}

// Candidates returns the candidate dates this event is still eligible for.
func (e *Event) Candidates() []time.Time { return e.candidates }

// AddBoundary records a boundary matched to this event during candidate
// construction.
func (e *Event) AddBoundary(b Boundary) {
	e.boundaries = append(e.boundaries, b)
}

// Boundaries returns all matched boundaries.
func (e *Event) Boundaries() []Boundary { return e.boundaries }

// BoundariesByClass returns the matched boundaries of the given class.
func (e *Event) BoundariesByClass(class BoundaryClass) []Boundary {
	var out []Boundary
	for _, b := range e.boundaries {
		if b.Class() == class {
			out = append(out, b)
		}
	}
	return out
}

// AddMeta appends a value to the multi-valued metadata key, deduplicated.
func (e *Event) AddMeta(key, value string) {
	for _, v := range e.meta[key] {
		if v == value {
			return
		}
	}
	e.meta[key] = append(e.meta[key], value)
}

// Meta returns the values recorded under key.
func (e *Event) Meta(key string) []string { return e.meta[key] }

// View projects the event onto props. A nil props list includes all fields;
// an empty list includes only the id.
func (e *Event) View(props []string) map[string]any {
	full := map[string]any{
		"id":   e.src.ID,
		"name": e.src.Name,
		"prio": e.src.Prio,
	}
	if len(e.src.Rules) > 0 {
		full["rules"] = e.src.Rules
	}
	if len(e.candidates) > 0 {
		full["candidates"] = previewCandidates(e.candidates)
	}
	if len(e.meta) > 0 {
		full["metadata"] = e.meta
	}
	if props == nil {
		return full
	}
	out := map[string]any{"id": e.src.ID}
	for _, p := range props {
		if v, ok := full[p]; ok {
			out[p] = v
		}
	}
	return out
}

// previewCandidates formats candidate dates, eliding the middle of long lists.
func previewCandidates(dates []time.Time) []string {
	format := func(ds []time.Time) []string {
		out := make([]string, len(ds))
		for i, d := range ds {
			out[i] = d.Format("2006-01-02")
		}
		return out
	}
	if len(dates) <= candidatePreviewCount*2 {
		return format(dates)
	}
	head := format(dates[:candidatePreviewCount])
	tail := format(dates[len(dates)-candidatePreviewCount:])
	return append(append(head, "[...]"), tail...)
}
