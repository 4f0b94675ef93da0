package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/browser"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download the playwright driver and the configured browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log.Infof("Installing playwright driver and %s", cfg.Browser.Engine)
		if err := browser.Install(cfg.Browser.Engine); err != nil {
			return fmt.Errorf("install failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed %s.\n", cfg.Browser.Engine)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
