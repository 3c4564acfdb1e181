package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"InsightDigest/internal/app"
	"InsightDigest/internal/logging"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one fetch-analyze-deliver cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := logging.New(cfg.Logging.Level)

		application, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		report, err := application.RunOnce(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		sources := make([]string, 0, len(report.Fetched))
		for name := range report.Fetched {
			sources = append(sources, name)
		}
		sort.Strings(sources)
		for _, name := range sources {
			fmt.Fprintf(out, "fetched %d new items from %s\n", report.Fetched[name], name)
		}
		fmt.Fprintf(out, "analyzed %d items (%d failed, %d pending)\n",
			report.Analyzed, report.AnalysisFailed, report.Backlog)

		plugins := make([]string, 0, len(report.Delivered))
		for id := range report.Delivered {
			plugins = append(plugins, id)
		}
		sort.Strings(plugins)
		for _, id := range plugins {
			status := "ok"
			if !report.Delivered[id] {
				status = "failed"
			}
			fmt.Fprintf(out, "delivery %s: %s\n", id, status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
