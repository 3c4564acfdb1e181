package cli

import (
	"os"

	"github.com/spf13/cobra"

	"InsightDigest/internal/config"
)

var (
	configPath string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "insightdigest",
	Short: "Fetch research items, extract insights with an LLM and deliver digests",
	Long: `insightdigest pulls new papers from configured sources, runs each one
through an analysis model, stores the extracted insights in a local SQLite
database and delivers digests over the enabled channels.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default $INSIGHT_DIGEST_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")
}

// loadConfig applies flag overrides on top of file and environment
// configuration.
func loadConfig() config.Config {
	cfg := config.Load(configPath)
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	return cfg
}
