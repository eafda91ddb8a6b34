package config

import (
	"fmt"

	"planera/core/schedule"
	"planera/core/timeutil"
)

// ScheduleConfig describes the schedule interval and placement limits.
type ScheduleConfig struct {
	Name string `json:"name"`
	// StartDate and EndDate bound the schedule, "2006-01-02".
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	// PlanningStart and PlanningEnd bound the sub-window open for new
	// placements; empty means the full interval.
	PlanningStart string `json:"planning_start"`
	PlanningEnd   string `json:"planning_end"`
	// DailyEventLimit caps events per day; 0 means unlimited.
	DailyEventLimit int `json:"daily_event_limit"`
	// IncludeProps projects serialized event fields; empty means all.
	IncludeProps []string `json:"include_props"`
	// ExcludeEventIDs are never planned.
	ExcludeEventIDs []int `json:"exclude_event_ids"`
}

// Validate checks mandatory fields and date formats.
func (c ScheduleConfig) Validate() error {
	if _, err := c.Options(); err != nil {
		return err
	}
	return nil
}

// Options converts the section into schedule options.
func (c ScheduleConfig) Options() (schedule.Options, error) {
	var opts schedule.Options
	var err error
	if c.StartDate == "" || c.EndDate == "" {
		return opts, fmt.Errorf("schedule.start_date and schedule.end_date are required")
	}
	if opts.Start, err = timeutil.ParseDay(c.StartDate); err != nil {
		return opts, fmt.Errorf("schedule.start_date: %w", err)
	}
	if opts.End, err = timeutil.ParseDay(c.EndDate); err != nil {
		return opts, fmt.Errorf("schedule.end_date: %w", err)
	}
	if c.PlanningStart != "" {
		if opts.PlanningStart, err = timeutil.ParseDay(c.PlanningStart); err != nil {
			return opts, fmt.Errorf("schedule.planning_start: %w", err)
		}
	}
	if c.PlanningEnd != "" {
		if opts.PlanningEnd, err = timeutil.ParseDay(c.PlanningEnd); err != nil {
			return opts, fmt.Errorf("schedule.planning_end: %w", err)
		}
	}
	opts.Name = c.Name
	opts.DailyEventLimit = c.DailyEventLimit
	opts.IncludeProps = c.IncludeProps
	opts.ExcludeEventIDs = c.ExcludeEventIDs
	if err := opts.Normalize(); err != nil {
		return opts, err
	}
	return opts, nil
}
