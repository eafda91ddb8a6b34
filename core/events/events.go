// Package events defines the notifications emitted while a schedule is
// being built. They are published on a typed bus so observers (metrics,
// logging, tests) can follow a build without touching the pipeline.
package events

import "time"

// Phase marks entry into one pipeline stage of a build.
type Phase struct {
	BuildID string
	Name    string
	At      time.Time
}

// Placement reports one event placed on the master schedule, tagged with
// the method that produced it.
type Placement struct {
	BuildID string
	EventID int
	Date    time.Time
	Method  string
}

// Iteration summarizes one controller pass: how many dates remain unfilled
// after the pass and whether the schedule came out complete.
type Iteration struct {
	BuildID   string
	Number    int
	Unfilled  int
	Complete  bool
	StartedAt time.Time
	EndedAt   time.Time
}
