package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"InsightDigest/internal/infrastructure/storage"
)

const summaryPreviewLen = 200

var (
	listLimit    int
	listSince    string
	listInsights bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show stored items or insights, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		if _, err := os.Stat(cfg.Storage.Path); err != nil {
			return fmt.Errorf("database not found at %s, run `insightdigest run` first", cfg.Storage.Path)
		}

		var since time.Time
		if listSince != "" {
			parsed, err := parseSince(listSince)
			if err != nil {
				return err
			}
			since = parsed
		}

		store, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		if listInsights {
			return printInsights(cmd, store, since)
		}
		return printItems(cmd, store, since)
	},
}

func parseSince(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse --since value %q (use 2006-01-02 or RFC3339)", raw)
}

func printItems(cmd *cobra.Command, store *storage.Store, since time.Time) error {
	items, err := store.RawItems().ListSince(cmd.Context(), since, listLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d items\n\n", len(items))
	for i, item := range items {
		fmt.Fprintf(out, "--- [%d] id=%d | %s | %s ---\n",
			i+1, item.ID, item.FetchedAt.UTC().Format(time.RFC3339), item.Source)
		fmt.Fprintf(out, "Title: %s\n", item.Title)
		fmt.Fprintf(out, "URL: %s\n", item.URL)
		fmt.Fprintf(out, "Summary: %s\n\n", preview(item.Summary))
	}
	return nil
}

func printInsights(cmd *cobra.Command, store *storage.Store, since time.Time) error {
	insights, err := store.Insights().ListSince(cmd.Context(), since, listLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d insights\n\n", len(insights))
	for i, insight := range insights {
		fmt.Fprintf(out, "--- [%d] id=%d | item=%d | %s ---\n",
			i+1, insight.ID, insight.RawItemID, insight.AnalyzedAt.UTC().Format(time.RFC3339))
		data, err := json.Marshal(insight.Data)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n\n", data)
	}
	return nil
}

func preview(summary string) string {
	flat := strings.ReplaceAll(summary, "\n", " ")
	if utf8.RuneCountInString(flat) > summaryPreviewLen {
		return string([]rune(flat)[:summaryPreviewLen]) + "..."
	}
	return flat
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum entries to show")
	listCmd.Flags().StringVar(&listSince, "since", "", "only entries at or after this time (2006-01-02 or RFC3339)")
	listCmd.Flags().BoolVar(&listInsights, "insights", false, "list insights instead of raw items")
	rootCmd.AddCommand(listCmd)
}
