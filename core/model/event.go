// Package model defines the source records consumed by the planning engine:
// events and the rule sets that constrain them.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"planera/core/timeutil"
)

// Day is a calendar day that marshals as "2006-01-02".
type Day struct {
	time.Time
}

// NewDay wraps t truncated to midnight UTC.
func NewDay(t time.Time) Day {
	return Day{Time: timeutil.Day(t)}
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeutil.FormatDay(d.Time))
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := timeutil.ParseDay(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Event is an immutable source record describing one recurring event.
// The Active flag defaults to active when absent from the input.
type Event struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Rules   []string `json:"rules"`
	Active  *int     `json:"active,omitempty"`
	Prio    int      `json:"prio,omitempty"`
	MinDate *Day     `json:"min_date,omitempty"`
	MaxDate *Day     `json:"max_date,omitempty"`
}

// IsActive reports whether the event takes part in planning.
func (e Event) IsActive() bool {
	return e.Active == nil || *e.Active != 0
}

// ParseEvents decodes a JSON array of event records.
func ParseEvents(data []byte) ([]Event, error) {
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parse events: %w", err)
	}
	return events, nil
}
