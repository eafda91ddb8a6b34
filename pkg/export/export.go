// Package export serializes built schedules to JSON and CSV and parses the
// JSON form back into placements.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"planera/core/schedule"
	"planera/core/timeutil"
)

// Document is the JSON shape of a built schedule.
type Document struct {
	ScheduleID string             `json:"schedule_id"`
	Name       string             `json:"name,omitempty"`
	StartDate  string             `json:"start_date"`
	EndDate    string             `json:"end_date"`
	Days       map[string]DayView `json:"days"`
	Options    OptionsView        `json:"options"`
	BuiltAt    *time.Time         `json:"built_at,omitempty"`
}

// DayView holds the event projections of one day.
type DayView struct {
	Events []map[string]any `json:"events"`
}

// OptionsView is the serialized subset of the schedule options.
type OptionsView struct {
	PlanningStart   string   `json:"planning_start"`
	PlanningEnd     string   `json:"planning_end"`
	DailyEventLimit int      `json:"daily_event_limit"`
	IncludeProps    []string `json:"include_props,omitempty"`
	ExcludeEventIDs []int    `json:"exclude_event_ids,omitempty"`
}

// Snapshot projects sch into its serializable document. Event fields follow
// the schedule's IncludeProps projection.
func Snapshot(sch *schedule.Schedule) Document {
	opts := sch.Options()
	doc := Document{
		ScheduleID: sch.ID(),
		Name:       opts.Name,
		StartDate:  timeutil.FormatDay(sch.Start()),
		EndDate:    timeutil.FormatDay(sch.End()),
		Days:       make(map[string]DayView, len(sch.Dates())),
		Options: OptionsView{
			PlanningStart:   timeutil.FormatDay(opts.PlanningStart),
			PlanningEnd:     timeutil.FormatDay(opts.PlanningEnd),
			DailyEventLimit: opts.DailyEventLimit,
			IncludeProps:    opts.IncludeProps,
			ExcludeEventIDs: opts.ExcludeEventIDs,
		},
	}
	if t := sch.BuiltAt(); !t.IsZero() {
		doc.BuiltAt = &t
	}
	for _, date := range sch.Dates() {
		views := make([]map[string]any, 0, len(sch.EventsOn(date)))
		for _, ev := range sch.EventsOn(date) {
			views = append(views, ev.View(opts.IncludeProps))
		}
		doc.Days[timeutil.FormatDay(date)] = DayView{Events: views}
	}
	return doc
}

// WriteJSON writes the schedule document to w.
func WriteJSON(w io.Writer, sch *schedule.Schedule) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Snapshot(sch))
}

// WriteCSV writes one row per placement: date, event id, name, method.
func WriteCSV(w io.Writer, sch *schedule.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "event_id", "name", "method"}); err != nil {
		return err
	}
	for _, date := range sch.Dates() {
		for _, ev := range sch.EventsOn(date) {
			method := ""
			if ms := ev.Meta(schedule.MetaMethod); len(ms) > 0 {
				method = ms[0]
			}
			rec := []string{
				timeutil.FormatDay(date),
				strconv.Itoa(ev.ID()),
				ev.Name(),
				method,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Placement is one parsed (date, event id) pair.
type Placement struct {
	Date    time.Time
	EventID int
}

// ParseSchedule reads a JSON schedule document back into its placements,
// sorted by date then id.
func ParseSchedule(r io.Reader) (Document, []Placement, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, nil, fmt.Errorf("export: decode schedule: %w", err)
	}
	var placements []Placement
	for day, view := range doc.Days {
		date, err := timeutil.ParseDay(day)
		if err != nil {
			return Document{}, nil, fmt.Errorf("export: day key %q: %w", day, err)
		}
		for _, ev := range view.Events {
			raw, ok := ev["id"]
			if !ok {
				return Document{}, nil, fmt.Errorf("export: event without id on %s", day)
			}
			id, ok := raw.(float64)
			if !ok {
				return Document{}, nil, fmt.Errorf("export: non-numeric event id %v on %s", raw, day)
			}
			placements = append(placements, Placement{Date: date, EventID: int(id)})
		}
	}
	sort.Slice(placements, func(i, j int) bool {
		if !placements[i].Date.Equal(placements[j].Date) {
			return placements[i].Date.Before(placements[j].Date)
		}
		return placements[i].EventID < placements[j].EventID
	})
	return doc, placements, nil
}
