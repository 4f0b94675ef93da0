package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate [paths...]",
	Short: "Validate the configuration and every scenario",
	Long: `Loads the configuration file and checks for errors, missing required fields,
and invalid values, then parses and converts every scenario without
launching a browser.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			cfg.Input.Directories = args
		}

		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		log.Debugf("Loaded config: %+v", cfg)

		c, err := wire(cfg)
		if err != nil {
			return err
		}
		scenarios, err := c.suite.Load(cfg)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file %q is valid.\n", cfgFile)
		fmt.Fprintf(cmd.OutOrStdout(), "%d scenario(s) are valid.\n", len(scenarios))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
