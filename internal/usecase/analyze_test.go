package usecase

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InsightDigest/internal/config"
	"InsightDigest/internal/domain"
)

func analyzerConfig() config.AnalyzerConfig {
	return config.AnalyzerConfig{
		SystemPrompt:    "extract insights",
		MaxItemsPerRun:  10,
		SummaryMaxChars: 500,
	}
}

func seedItems(t *testing.T, store *memoryStore, candidates ...domain.Candidate) {
	t.Helper()
	_, err := store.InsertMany(context.Background(), candidates, "arxiv")
	require.NoError(t, err)
}

func TestAnalyzePendingItemsOnce(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	seedItems(t, store,
		domain.Candidate{Title: "Paper A", URL: "https://example.org/a", Summary: "summary a"},
		domain.Candidate{Title: "Paper B", URL: "https://example.org/b", Summary: "summary b"},
	)

	chat := &scriptedChat{response: `{"opportunities": ["x"], "directions": ["y"], "innovations": []}`}
	analyzer := NewAnalyzer(store, store, chat, analyzerConfig(), discardLogger())

	result, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Analyzed)
	assert.Zero(t, result.Failed)
	assert.Zero(t, result.Backlog)
	assert.Len(t, chat.calls, 2)

	// Second pass finds nothing pending.
	result, err = analyzer.Analyze(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Analyzed)
	assert.Len(t, chat.calls, 2)
	assert.Len(t, store.insights, 2)
}

func TestAnalyzeContinuesPastFailures(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	seedItems(t, store,
		domain.Candidate{Title: "Good", URL: "https://example.org/good", Summary: "fine"},
		domain.Candidate{Title: "Bad", URL: "https://example.org/bad", Summary: "broken"},
	)

	chat := &scriptedChat{
		response: `{"opportunities": ["x"]}`,
		failOn:   "https://example.org/bad",
	}
	analyzer := NewAnalyzer(store, store, chat, analyzerConfig(), discardLogger())

	result, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Analyzed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Backlog)
}

func TestAnalyzeWithoutModel(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	seedItems(t, store, domain.Candidate{Title: "Pending", URL: "https://example.org/p"})

	analyzer := NewAnalyzer(store, store, nil, analyzerConfig(), discardLogger())

	result, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Analyzed)
	assert.Equal(t, 1, result.Backlog)
}

func TestAnalyzeStoresEmptyPayloadForUnparsableResponse(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	seedItems(t, store, domain.Candidate{Title: "Paper", URL: "https://example.org/p"})

	chat := &scriptedChat{response: "Sorry, I cannot produce JSON today."}
	analyzer := NewAnalyzer(store, store, chat, analyzerConfig(), discardLogger())

	result, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Analyzed)
	assert.Zero(t, result.Failed)
	assert.Zero(t, result.Backlog)
	require.Len(t, store.insights, 1)
	assert.Zero(t, store.insights[0].Data.Len())

	// The item is marked analyzed; it is not retried.
	result, err = analyzer.Analyze(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Analyzed)
	assert.Len(t, chat.calls, 1)
}

func TestAnalyzeTruncatesSummary(t *testing.T) {
	t.Parallel()

	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'a'
	}

	store := newMemoryStore()
	seedItems(t, store, domain.Candidate{Title: "Long", URL: "https://example.org/l", Summary: string(long)})

	chat := &scriptedChat{response: `{"opportunities": []}`}
	cfg := analyzerConfig()
	cfg.SummaryMaxChars = 100
	analyzer := NewAnalyzer(store, store, chat, cfg, discardLogger())

	_, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, chat.calls, 1)
	assert.Less(t, len(chat.calls[0]), 200)
}

func TestAnalyzeTruncatesSummaryOnRuneBoundary(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	seedItems(t, store, domain.Candidate{
		Title:   "Accents",
		URL:     "https://example.org/a",
		Summary: strings.Repeat("é", 300),
	})

	chat := &scriptedChat{response: `{"opportunities": []}`}
	cfg := analyzerConfig()
	cfg.SummaryMaxChars = 101
	analyzer := NewAnalyzer(store, store, chat, cfg, discardLogger())

	_, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, chat.calls, 1)
	assert.True(t, utf8.ValidString(chat.calls[0]))
	assert.Contains(t, chat.calls[0], strings.Repeat("é", 101))
	assert.NotContains(t, chat.calls[0], strings.Repeat("é", 102))
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "héllo", truncateRunes("héllo", 0))
	assert.Equal(t, "héllo", truncateRunes("héllo", 10))
	assert.Equal(t, "hél", truncateRunes("héllo", 3))
	assert.Equal(t, "ééé", truncateRunes(strings.Repeat("é", 5), 3))
}

func TestAnalyzeRespectsMaxItemsPerRun(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	seedItems(t, store,
		domain.Candidate{Title: "A", URL: "https://example.org/a"},
		domain.Candidate{Title: "B", URL: "https://example.org/b"},
		domain.Candidate{Title: "C", URL: "https://example.org/c"},
	)

	chat := &scriptedChat{response: `{"opportunities": ["x"]}`}
	cfg := analyzerConfig()
	cfg.MaxItemsPerRun = 2
	analyzer := NewAnalyzer(store, store, chat, cfg, discardLogger())

	result, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Analyzed)
	assert.Equal(t, 1, result.Backlog)
}
