package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/config"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/suite"
)

var listFilter string

var listCmd = &cobra.Command{
	Use:   "list [paths...]",
	Short: "List discovered scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			cfg.Input.Directories = args
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}

		c, err := wire(cfg)
		if err != nil {
			return err
		}
		scenarios, err := c.suite.Load(cfg)
		if err != nil {
			return err
		}
		scenarios, err = suite.Select(scenarios, listFilter)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTEPS\tASSERTIONS\tTAGS\tSOURCE")
		for _, sc := range scenarios {
			name := sc.Name
			if sc.Skip {
				name += " (skip)"
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s:%d\n",
				name, len(sc.Steps), len(sc.Assertions), strings.Join(sc.Tags, ","), sc.SourceFile, sc.LineNumber)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().StringVar(&listFilter, "filter", "", "only list scenarios whose name matches this regular expression")
	rootCmd.AddCommand(listCmd)
}
