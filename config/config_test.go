package config

import (
	"os"
	"path/filepath"
	"testing"

	"planera/core/model"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `input:
  events: "events.json"
  rules: "rules.json"
schedule:
  name: "crew-2024"
  start_date: "2024-01-01"
  end_date: "2024-03-31"
  planning_start: "2024-02-01"
  daily_event_limit: 1
  exclude_event_ids: [7]
planner:
  kind: "weighted"
  conf:
    seed: 42
build:
  iterations: 3
  iter_method: "random"
  seed: 42
event_defaults:
  prio: 2
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"input.events", cfg.Input.Events, "events.json"},
		{"input.rules", cfg.Input.Rules, "rules.json"},
		{"schedule.name", cfg.Schedule.Name, "crew-2024"},
		{"start_date", cfg.Schedule.StartDate, "2024-01-01"},
		{"planning_start", cfg.Schedule.PlanningStart, "2024-02-01"},
		{"daily_limit", cfg.Schedule.DailyEventLimit, 1},
		{"exclude", len(cfg.Schedule.ExcludeEventIDs) == 1 && cfg.Schedule.ExcludeEventIDs[0] == 7, true},
		{"planner.kind", cfg.Planner.Kind, "weighted"},
		{"iterations", cfg.Build.Iterations, 3},
		{"iter_method", cfg.Build.IterMethod, "random"},
		{"seed", cfg.Build.Seed, int64(42)},
		{"seed_strategy default", cfg.Build.SeedStrategy, "ignore_placed_days"},
		{"logging default", cfg.Logging.Component, "planera"},
		{"event_defaults.prio", cfg.EventDefaults.Prio != nil && *cfg.EventDefaults.Prio == 2, true},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}

	opts, err := cfg.Schedule.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.PlanningEnd != opts.End {
		t.Errorf("planning_end must default to end, got %v", opts.PlanningEnd)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{
  "schedule": {"start_date": "2024-01-01", "end_date": "2024-01-31"},
  "planner": {"kind": "randomizer"}
}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Planner.Kind != "randomizer" {
		t.Errorf("kind: got %s", cfg.Planner.Kind)
	}
	if cfg.Build.Iterations != 5 {
		t.Errorf("iterations default: got %d", cfg.Build.Iterations)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `schedule:
  start_date: "2024-01-01"
  end_date: "2024-01-31"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.Setenv("PLANERA_BUILD__ITER_METHOD", "random"); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := os.Unsetenv("PLANERA_BUILD__ITER_METHOD"); err != nil {
			t.Error(err)
		}
	}()

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Build.IterMethod != "random" {
		t.Errorf("env override ignored, got %q", cfg.Build.IterMethod)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"bad date", "schedule:\n  start_date: \"01/01/2024\"\n  end_date: \"2024-01-31\"\n"},
		{"end before start", "schedule:\n  start_date: \"2024-02-01\"\n  end_date: \"2024-01-01\"\n"},
		{"bad iter method", "schedule:\n  start_date: \"2024-01-01\"\n  end_date: \"2024-01-31\"\nbuild:\n  iter_method: \"zigzag\"\n"},
		{"bad seed strategy", "schedule:\n  start_date: \"2024-01-01\"\n  end_date: \"2024-01-31\"\nbuild:\n  seed_strategy: \"rebuild\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			if err := os.WriteFile(path, []byte(tc.data), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected load error")
			}
		})
	}
}

func TestEventDefaultsApply(t *testing.T) {
	prio, active := 3, 1
	explicit := 0
	d := EventDefaults{Prio: &prio, Active: &active}
	events := d.Apply([]model.Event{
		{ID: 1},
		{ID: 2, Prio: 5, Active: &explicit},
	})
	if events[0].Prio != 3 || events[0].Active == nil || *events[0].Active != 1 {
		t.Errorf("defaults not applied: %+v", events[0])
	}
	if events[1].Prio != 5 || *events[1].Active != 0 {
		t.Errorf("explicit values overwritten: %+v", events[1])
	}
}
