package ports

import (
	"context"
	"time"

	"InsightDigest/internal/domain"
)

// RawItemSink receives candidates fetched from source adapters.
type RawItemSink interface {
	InsertMany(ctx context.Context, items []domain.Candidate, source string) (int, error)
}

// RawItemReader resolves stored raw items for analysis and digest rendering.
type RawItemReader interface {
	GetByID(ctx context.Context, id int64) (domain.RawItem, error)
	ListSince(ctx context.Context, since time.Time, limit int) ([]domain.RawItem, error)
}

// InsightWriter persists analysis results and tracks which raw items are done.
type InsightWriter interface {
	Insert(ctx context.Context, rawItemID int64, data domain.Payload) (int64, error)
	AnalyzedRawItemIDs(ctx context.Context) (map[int64]struct{}, error)
	BacklogCount(ctx context.Context) (int, error)
}

// InsightReader serves stored insights to delivery plugins.
type InsightReader interface {
	GetByID(ctx context.Context, id int64) (domain.Insight, error)
	ListSince(ctx context.Context, since time.Time, limit int) ([]domain.Insight, error)
}

// ChatClient sends one system/user prompt pair to a language model and
// returns the raw completion text.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
