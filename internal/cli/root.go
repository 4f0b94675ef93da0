package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/config"
)

const defaultConfigFile = "scenario-runner.yaml"

var (
	cfgFile string
	verbose bool
	log     = logrus.New()
	logFile io.Closer
)

// rootCmd is the base command for scenario-runner.
var rootCmd = &cobra.Command{
	Use:   "scenario-runner",
	Short: "Run browser UI scenarios written in YAML, Markdown or AsciiDoc",
	Long: `scenario-runner drives a real browser through UI scenarios: ordered
navigation, typing, clicking and reading steps followed by assertions on
what the page shows.

Scenarios live in *.scenario.yaml files or in fenced ui-scenario blocks of
Markdown and AsciiDoc documents. Everything else is configured through
scenario-runner.yaml.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.InfoLevel)
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command. The log file is closed on every exit
// path, including commands that return an error.
func Execute() error {
	defer closeLogFile()
	return rootCmd.Execute()
}

func closeLogFile() {
	if logFile == nil {
		return
	}
	log.SetOutput(os.Stderr)
	_ = logFile.Close()
	logFile = nil
}

// loadConfig reads and validates the config file and applies its logging
// section. The default file may be absent; an explicit --config may not.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit := cmd.Flags().Changed("config")
	cfg, err := config.Load(cfgFile, !explicit)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := configureLogging(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configureLogging applies logging settings. --verbose wins over the
// configured level.
func configureLogging(lc config.LoggingConfig) error {
	if !verbose && lc.Level != "" {
		level, err := logrus.ParseLevel(lc.Level)
		if err != nil {
			return fmt.Errorf("invalid logging.level: %w", err)
		}
		log.SetLevel(level)
	}

	if lc.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if lc.File != "" {
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		log.SetOutput(f)
		logFile = f
	}
	return nil
}
