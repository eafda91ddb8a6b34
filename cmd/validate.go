package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"planera/config"
	"planera/core/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configured events and rules without building",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Input.Validate(); err != nil {
		return err
	}
	input, err := loadInput(cfg)
	if err != nil {
		return err
	}

	res := validate.PreValidate(input, nil)
	if !res.OK {
		return fmt.Errorf("validation failed: %s (%v)", res.Msg, res.Data)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d events, %d rule groups: %s\n",
		len(input.Events), len(input.RuleGroups), res.Msg)
	return nil
}
