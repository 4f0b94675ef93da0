package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/config"
)

var errScenariosFailed = errors.New("one or more scenarios failed")

var (
	runBaseURL  string
	runParallel int
	runHeaded   bool
	runDryRun   bool
	runFormats  []string
	runFilter   string
)

var runCmd = &cobra.Command{
	Use:   "run [paths...]",
	Short: "Run UI scenarios against the target application",
	Long: `Loads every scenario from input.directories (or from the given files and
directories), runs each one in its own browser session and writes the
configured reports. Exits non-zero when any scenario fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		applyRunFlags(cmd, cfg, args)

		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}

		log.Infof("Target: %s", cfg.Target.BaseURL)
		log.Debugf("Scanning: %v", cfg.Input.Directories)

		c, err := wire(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := c.launcher.Shutdown(); err != nil {
				log.Warnf("Failed to stop playwright: %v", err)
			}
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := c.suite.Run(ctx, cfg)
		if err != nil {
			return err
		}
		if result == nil {
			return nil
		}

		summary, err := c.engine.Render("text", result)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), summary)

		if !result.OK() {
			return errScenariosFailed
		}
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runBaseURL, "base-url", "", "override target.base_url")
	f.IntVar(&runParallel, "parallel", 1, "number of scenarios to run at once")
	f.BoolVar(&runHeaded, "headed", false, "show the browser window")
	f.BoolVar(&runDryRun, "dry-run", false, "load and validate scenarios without running them")
	f.StringSliceVar(&runFormats, "format", nil, "report formats to write (text, markdown, junit, json)")
	f.StringVar(&runFilter, "filter", "", "only run scenarios whose name matches this regular expression")
	rootCmd.AddCommand(runCmd)
}

// applyRunFlags overlays explicitly set flags onto cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, paths []string) {
	f := cmd.Flags()
	if len(paths) > 0 {
		cfg.Input.Directories = paths
	}
	if runBaseURL != "" {
		cfg.Target.BaseURL = runBaseURL
	}
	if f.Changed("parallel") {
		cfg.Runner.Parallel = runParallel
	}
	if runHeaded {
		headless := false
		cfg.Browser.Headless = &headless
	}
	if runDryRun {
		cfg.DryRun = true
	}
	if f.Changed("format") {
		cfg.Output.Formats = runFormats
	}
	if runFilter != "" {
		cfg.Filter = runFilter
	}
}
