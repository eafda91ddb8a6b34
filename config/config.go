// Package config loads and validates the engine configuration from JSON or
// YAML files, with environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Input         InputConfig    `json:"input"`
	Schedule      ScheduleConfig `json:"schedule"`
	Planner       PlannerConfig  `json:"planner"`
	Build         BuildConfig    `json:"build"`
	Logging       LoggingConfig  `json:"logging"`
	EventDefaults EventDefaults  `json:"event_defaults"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("PLANERA_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "planera_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Planner.SetDefaults()
	cfg.Build.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Schedule.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Planner.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Build.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// InputConfig points at the planning source files.
type InputConfig struct {
	// Events is the path of the JSON event list.
	Events string `json:"events"`
	// Rules is the path of the JSON rule group list.
	Rules string `json:"rules"`
}

// Validate checks mandatory fields.
func (c InputConfig) Validate() error {
	if c.Events == "" {
		return fmt.Errorf("input.events is required")
	}
	if c.Rules == "" {
		return fmt.Errorf("input.rules is required")
	}
	return nil
}
