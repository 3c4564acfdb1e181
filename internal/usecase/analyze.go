package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"InsightDigest/internal/config"
	"InsightDigest/internal/domain"
	"InsightDigest/internal/ports"
)

// AnalyzeResult summarizes one analysis pass.
type AnalyzeResult struct {
	Analyzed int
	Failed   int
	Backlog  int
}

// Analyzer runs pending raw items through the chat model and stores the
// extracted insights. Items that fail stay unanalyzed and are retried on
// later runs.
type Analyzer struct {
	items    ports.RawItemReader
	insights ports.InsightWriter
	chat     ports.ChatClient
	cfg      config.AnalyzerConfig
	logger   *slog.Logger
}

// NewAnalyzer wires the analysis stage. A nil chat client disables it.
func NewAnalyzer(items ports.RawItemReader, insights ports.InsightWriter, chat ports.ChatClient, cfg config.AnalyzerConfig, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		items:    items,
		insights: insights,
		chat:     chat,
		cfg:      cfg,
		logger:   logger,
	}
}

// Analyze processes up to MaxItemsPerRun pending items. Recent items are
// oversampled by a factor of two so already-analyzed rows can be filtered
// out without starving the batch.
func (a *Analyzer) Analyze(ctx context.Context) (AnalyzeResult, error) {
	var result AnalyzeResult

	if a.chat == nil {
		a.logger.Warn("no analysis model configured, skipping analysis")
		return a.withBacklog(ctx, result)
	}

	done, err := a.insights.AnalyzedRawItemIDs(ctx)
	if err != nil {
		return result, fmt.Errorf("load analyzed ids: %w", err)
	}

	max := a.cfg.MaxItemsPerRun
	if max <= 0 {
		max = 1
	}
	recent, err := a.items.ListSince(ctx, time.Time{}, max*2)
	if err != nil {
		return result, fmt.Errorf("list recent items: %w", err)
	}

	var pending []domain.RawItem
	for _, item := range recent {
		if _, ok := done[item.ID]; ok {
			continue
		}
		pending = append(pending, item)
		if len(pending) == max {
			break
		}
	}

	for _, item := range pending {
		if err := a.analyzeOne(ctx, item); err != nil {
			result.Failed++
			a.logger.Warn("analysis failed", "item", item.ID, "url", item.URL, "error", err)
			continue
		}
		result.Analyzed++
	}

	return a.withBacklog(ctx, result)
}

func (a *Analyzer) analyzeOne(ctx context.Context, item domain.RawItem) error {
	summary := truncateRunes(item.Summary, a.cfg.SummaryMaxChars)
	user := fmt.Sprintf("Title: %s\nURL: %s\nAbstract/Summary: %s", item.Title, item.URL, summary)

	completion, err := a.chat.Complete(ctx, a.cfg.SystemPrompt, user)
	if err != nil {
		return err
	}

	// An unparsable completion degrades to an empty payload; the item is
	// still marked analyzed so it is not retried forever.
	payload := ExtractPayload(completion)
	if payload.Len() == 0 {
		a.logger.Warn("model response had no JSON object, storing empty payload", "item", item.ID)
	}

	if _, err := a.insights.Insert(ctx, item.ID, payload); err != nil {
		return fmt.Errorf("store insight: %w", err)
	}
	return nil
}

// truncateRunes caps s at max characters, never splitting a UTF-8 rune.
func truncateRunes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func (a *Analyzer) withBacklog(ctx context.Context, result AnalyzeResult) (AnalyzeResult, error) {
	backlog, err := a.insights.BacklogCount(ctx)
	if err != nil {
		return result, fmt.Errorf("count backlog: %w", err)
	}
	result.Backlog = backlog
	if backlog > 0 {
		a.logger.Warn("unanalyzed items remain", "backlog", backlog)
	}
	return result, nil
}
