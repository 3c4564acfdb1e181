package usecase

import (
	"context"
	"log/slog"

	"InsightDigest/internal/config"
	"InsightDigest/internal/delivery"
	"InsightDigest/internal/ports"
)

// Report captures the outcome of one full pipeline run.
type Report struct {
	Fetched        map[string]int
	Analyzed       int
	AnalysisFailed int
	Backlog        int
	Delivered      map[string]bool
}

// Pipeline runs fetch, analysis and delivery as one unit. Stage failures
// are contained: a broken source or delivery channel never prevents the
// other stages from running.
type Pipeline struct {
	fetcher  *Fetcher
	analyzer *Analyzer
	plugins  *delivery.Registry
	insights ports.InsightReader
	rawItems ports.RawItemReader
	cfg      config.DeliveryConfig
	logger   *slog.Logger
}

// NewPipeline assembles the run orchestrator.
func NewPipeline(
	fetcher *Fetcher,
	analyzer *Analyzer,
	plugins *delivery.Registry,
	insights ports.InsightReader,
	rawItems ports.RawItemReader,
	cfg config.DeliveryConfig,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		analyzer: analyzer,
		plugins:  plugins,
		insights: insights,
		rawItems: rawItems,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes one fetch-analyze-deliver cycle.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	report := Report{Delivered: map[string]bool{}}

	report.Fetched = p.fetcher.Fetch(ctx)

	analysis, err := p.analyzer.Analyze(ctx)
	if err != nil {
		// Delivery still runs over whatever earlier runs committed.
		p.logger.Error("analysis stage failed", "error", err)
	}
	report.Analyzed = analysis.Analyzed
	report.AnalysisFailed = analysis.Failed
	report.Backlog = analysis.Backlog

	deps := delivery.Deps{RawItems: p.rawItems, Logger: p.logger}
	for _, id := range p.cfg.Plugins {
		plugin, err := p.plugins.Resolve(id)
		if err != nil {
			p.logger.Error("delivery plugin missing", "plugin", id)
			report.Delivered[id] = false
			continue
		}
		if err := plugin.Deliver(ctx, p.insights, delivery.Config(p.cfg.Channel(id)), deps); err != nil {
			p.logger.Error("delivery failed", "plugin", id, "error", err)
			report.Delivered[id] = false
			continue
		}
		p.logger.Info("delivery completed", "plugin", id)
		report.Delivered[id] = true
	}

	p.logger.Info("pipeline run finished",
		"analyzed", report.Analyzed,
		"failed", report.AnalysisFailed,
		"backlog", report.Backlog)
	return report, nil
}
