package usecase

import (
	"context"
	"log/slog"

	"InsightDigest/internal/config"
	"InsightDigest/internal/domain"
	"InsightDigest/internal/ports"
	"InsightDigest/internal/scanner"
)

// Fetcher pulls candidates from every enabled source and persists the ones
// not seen before. A failing source contributes zero items and never aborts
// the run.
type Fetcher struct {
	registry *scanner.Registry
	sink     ports.RawItemSink
	sources  []config.SourceConfig
	logger   *slog.Logger
}

// NewFetcher wires the fetch stage.
func NewFetcher(registry *scanner.Registry, sink ports.RawItemSink, sources []config.SourceConfig, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		registry: registry,
		sink:     sink,
		sources:  sources,
		logger:   logger,
	}
}

// Fetch runs every enabled source once and returns per-source counts of
// newly stored items.
func (f *Fetcher) Fetch(ctx context.Context) map[string]int {
	counts := make(map[string]int, len(f.sources))
	for _, src := range f.sources {
		if !src.IsEnabled() {
			f.logger.Info("source disabled, skipping", "source", src.Name)
			continue
		}
		counts[src.Name] = f.fetchSource(ctx, src)
	}
	return counts
}

func (f *Fetcher) fetchSource(ctx context.Context, src config.SourceConfig) int {
	strategy, err := f.registry.Resolve(src.Scanner)
	if err != nil {
		f.logger.Error("unknown scanner for source", "source", src.Name, "scanner", src.Scanner)
		return 0
	}

	req := scanner.Request{
		SourceName: src.Name,
		MaxResults: src.MaxResults,
		Options:    src.Options,
	}
	for _, cat := range src.Categories {
		req.Categories = append(req.Categories, scanner.Category{Name: cat.Name, URL: cat.URL})
	}

	candidates, err := strategy.Scan(ctx, req)
	if err != nil {
		f.logger.Error("source fetch failed", "source", src.Name, "error", err)
		return 0
	}

	kept := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.URL == "" {
			continue
		}
		kept = append(kept, c)
	}

	stored, err := f.sink.InsertMany(ctx, kept, src.Name)
	if err != nil {
		f.logger.Error("storing fetched items failed", "source", src.Name, "error", err)
		return stored
	}

	f.logger.Info("source fetched",
		"source", src.Name,
		"candidates", len(candidates),
		"new", stored)
	return stored
}
