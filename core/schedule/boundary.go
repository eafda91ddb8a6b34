package schedule

import "time"

// BoundaryClass decides which planning phase consumes a boundary.
type BoundaryClass int

const (
	// ClassDeterminate boundaries compute eligible dates directly from
	// calendar facts.
	ClassDeterminate BoundaryClass = iota
	// ClassIndeterminate boundaries defer narrowing to quota consumption.
	ClassIndeterminate
	// ClassDistance boundaries reject events too close to their own prior
	// placements.
	ClassDistance
)

func (c BoundaryClass) String() string {
	switch c {
	case ClassDeterminate:
		return "determinate"
	case ClassIndeterminate:
		return "indeterminate"
	case ClassDistance:
		return "distance"
	}
	return "unknown"
}

// BoundaryContext carries the state a boundary evaluates against.
type BoundaryContext struct {
	Schedule *Schedule
	Events   []*Event
	Dates    []time.Time
}

// Boundary narrows a date or event candidate set. Date-narrowing boundaries
// pass events through unchanged and vice versa.
type Boundary interface {
	Kind() string
	Class() BoundaryClass
	EligibleDates(ctx *BoundaryContext) ([]time.Time, error)
	EligibleEvents(ctx *BoundaryContext) ([]*Event, error)
}
