package config

import (
	"fmt"

	"planera/core/controller"
	"planera/core/schedule"
)

// PlannerConfig selects and configures the planning policy.
type PlannerConfig struct {
	// Kind is a registered planner name: "weighted" or "randomizer".
	Kind string `json:"kind"`
	// Conf is the raw policy configuration, decoded by the planner factory.
	Conf map[string]any `json:"conf"`
}

// SetDefaults applies sane defaults.
func (c *PlannerConfig) SetDefaults() {
	if c.Kind == "" {
		c.Kind = "weighted"
	}
}

// Validate checks mandatory fields.
func (c PlannerConfig) Validate() error {
	if c.Kind == "" {
		return fmt.Errorf("planner.kind is required")
	}
	return nil
}

// BuildConfig tunes the build loop.
type BuildConfig struct {
	// Iterations caps the number of build passes.
	Iterations int `json:"iterations"`
	// IterMethod orders conflict-resolution dates: "sorted" or "random".
	IterMethod string `json:"iter_method"`
	// Seed makes sampling and shuffling reproducible; 0 uses the clock.
	Seed int64 `json:"seed"`
	// SeedStrategy handles pre-placed days of a seed schedule:
	// "ignore_placed_days" or "replace_placed_days".
	SeedStrategy string `json:"seed_strategy"`
}

// SetDefaults applies sane defaults.
func (c *BuildConfig) SetDefaults() {
	if c.Iterations == 0 {
		c.Iterations = 5
	}
	if c.IterMethod == "" {
		c.IterMethod = schedule.IterSorted
	}
	if c.SeedStrategy == "" {
		c.SeedStrategy = string(controller.SeedIgnorePlacedDays)
	}
}

// Validate checks field values.
func (c BuildConfig) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("build.iterations must be positive, got %d", c.Iterations)
	}
	switch c.IterMethod {
	case schedule.IterSorted, schedule.IterRandom:
	default:
		return fmt.Errorf("unknown iter_method %q", c.IterMethod)
	}
	switch controller.SeedStrategy(c.SeedStrategy) {
	case controller.SeedIgnorePlacedDays, controller.SeedReplacePlacedDays:
	default:
		return fmt.Errorf("unknown seed_strategy %q", c.SeedStrategy)
	}
	return nil
}

// LoggingConfig names the logger component.
type LoggingConfig struct {
	// Component tags every log line; output format follows APP_ENV.
	Component string `json:"component"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Component == "" {
		c.Component = "planera"
	}
}
