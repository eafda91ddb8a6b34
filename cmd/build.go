package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"planera/config"
	"planera/core/builder"
	"planera/core/controller"
	"planera/core/factory"
	"planera/core/model"
	"planera/core/planner"
	"planera/core/schedule"
	"planera/infra/logger"
	"planera/pkg/export"
)

var (
	seedPath   string
	outputPath string
	format     string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a schedule from the configured events and rules",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&seedPath, "seed", "", "previously exported schedule to plan on top of")
	buildCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	buildCmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or csv")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Input.Validate(); err != nil {
		return err
	}
	if format != "json" && format != "csv" {
		return fmt.Errorf("unknown output format %q", format)
	}

	logg := logger.New(cfg.Logging.Component)
	input, err := loadInput(cfg)
	if err != nil {
		return err
	}
	opts, err := cfg.Schedule.Options()
	if err != nil {
		return err
	}

	plan, err := planner.NewRegistry().Create(factory.ModuleConfig{
		Kind: cfg.Planner.Kind,
		Conf: cfg.Planner.Conf,
	})
	if err != nil {
		return fmt.Errorf("planner %q: %w", cfg.Planner.Kind, err)
	}

	var seed *schedule.Schedule
	if seedPath != "" {
		if seed, err = loadSeed(seedPath, opts, input); err != nil {
			return fmt.Errorf("seed schedule: %w", err)
		}
	}

	ctrl, err := controller.New(controller.Config{
		Planner:      plan,
		Input:        input,
		Options:      opts,
		Iterations:   cfg.Build.Iterations,
		IterMethod:   cfg.Build.IterMethod,
		Seed:         cfg.Build.Seed,
		SeedStrategy: controller.SeedStrategy(cfg.Build.SeedStrategy),
		Log:          logg,
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()

	sch, err := ctrl.Run(seed)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := f.Close(); err != nil {
				logg.Errorf("close output: %v", err)
			}
		}()
		out = f
	}
	return writeSchedule(out, sch)
}

func writeSchedule(w io.Writer, sch *schedule.Schedule) error {
	if format == "csv" {
		return export.WriteCSV(w, sch)
	}
	return export.WriteJSON(w, sch)
}

func loadInput(cfg *config.Config) (model.Input, error) {
	var input model.Input
	eventsData, err := os.ReadFile(cfg.Input.Events)
	if err != nil {
		return input, fmt.Errorf("read events: %w", err)
	}
	events, err := model.ParseEvents(eventsData)
	if err != nil {
		return input, err
	}
	rulesData, err := os.ReadFile(cfg.Input.Rules)
	if err != nil {
		return input, fmt.Errorf("read rules: %w", err)
	}
	groups, err := model.ParseRuleGroups(rulesData)
	if err != nil {
		return input, err
	}
	input.Events = cfg.EventDefaults.Apply(events)
	input.RuleGroups = groups
	return input, nil
}

// loadSeed rebuilds a schedule from a previously exported document, wrapping
// placements in fresh events resolved by id. Quota windows are primed first
// so every seeded placement consumes against them.
func loadSeed(path string, opts schedule.Options, input model.Input) (*schedule.Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	_, placements, err := export.ParseSchedule(f)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]model.Event, len(input.Events))
	for _, ev := range input.Events {
		byID[ev.ID] = ev
	}
	seed, err := schedule.New(opts)
	if err != nil {
		return nil, err
	}
	if err := builder.PrimeSeed(seed, input); err != nil {
		return nil, err
	}
	wrapped := make(map[int]*schedule.Event)
	for _, p := range placements {
		src, ok := byID[p.EventID]
		if !ok {
			return nil, fmt.Errorf("seed places unknown event id %d", p.EventID)
		}
		ev := wrapped[p.EventID]
		if ev == nil {
			ev = schedule.NewEvent(src)
			wrapped[p.EventID] = ev
		}
		if err := seed.AddEvent([]time.Time{p.Date}, ev); err != nil {
			return nil, err
		}
	}
	return seed, nil
}
