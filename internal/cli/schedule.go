package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"InsightDigest/internal/app"
	"InsightDigest/internal/logging"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on the configured interval until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := logging.New(cfg.Logging.Level)

		application, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Info("scheduler started", "interval", cfg.Scheduler.Interval.Std())
		return application.RunScheduled(ctx)
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
