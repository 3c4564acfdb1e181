package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"InsightDigest/internal/domain"
	"InsightDigest/internal/scanner"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeScanner struct {
	name       string
	candidates []domain.Candidate
	err        error
	calls      int
}

func (s *fakeScanner) Name() string { return s.name }

func (s *fakeScanner) Scan(context.Context, scanner.Request) ([]domain.Candidate, error) {
	s.calls++
	return s.candidates, s.err
}

// memoryStore is an in-memory stand-in for the SQLite store, honoring the
// same (source, url) uniqueness and recency ordering.
type memoryStore struct {
	items    []domain.RawItem
	insights []domain.Insight
	nextID   int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{nextID: 1}
}

func (m *memoryStore) InsertMany(_ context.Context, items []domain.Candidate, source string) (int, error) {
	count := 0
	for _, c := range items {
		if m.hasItem(source, c.URL) {
			continue
		}
		m.items = append(m.items, domain.RawItem{
			ID:        m.nextID,
			Title:     c.Title,
			URL:       c.URL,
			Summary:   c.Summary,
			Source:    source,
			FetchedAt: time.Now().UTC(),
		})
		m.nextID++
		count++
	}
	return count, nil
}

func (m *memoryStore) hasItem(source, url string) bool {
	for _, item := range m.items {
		if item.Source == source && item.URL == url {
			return true
		}
	}
	return false
}

func (m *memoryStore) GetByID(_ context.Context, id int64) (domain.RawItem, error) {
	for _, item := range m.items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.RawItem{}, domain.ErrNotFound
}

func (m *memoryStore) ListSince(_ context.Context, since time.Time, limit int) ([]domain.RawItem, error) {
	var out []domain.RawItem
	for _, item := range m.items {
		if since.IsZero() || !item.FetchedAt.Before(since) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) Insert(_ context.Context, rawItemID int64, data domain.Payload) (int64, error) {
	id := int64(len(m.insights) + 1)
	m.insights = append(m.insights, domain.Insight{
		ID:         id,
		RawItemID:  rawItemID,
		Data:       data,
		AnalyzedAt: time.Now().UTC(),
	})
	return id, nil
}

func (m *memoryStore) AnalyzedRawItemIDs(context.Context) (map[int64]struct{}, error) {
	done := make(map[int64]struct{}, len(m.insights))
	for _, insight := range m.insights {
		done[insight.RawItemID] = struct{}{}
	}
	return done, nil
}

func (m *memoryStore) BacklogCount(context.Context) (int, error) {
	done, _ := m.AnalyzedRawItemIDs(context.Background())
	count := 0
	for _, item := range m.items {
		if _, ok := done[item.ID]; !ok {
			count++
		}
	}
	return count, nil
}

func (m *memoryStore) InsightByID(_ context.Context, id int64) (domain.Insight, error) {
	for _, insight := range m.insights {
		if insight.ID == id {
			return insight, nil
		}
	}
	return domain.Insight{}, domain.ErrNotFound
}

// insightView adapts memoryStore to the insight reader port.
type insightView struct{ store *memoryStore }

func (v insightView) GetByID(ctx context.Context, id int64) (domain.Insight, error) {
	return v.store.InsightByID(ctx, id)
}

func (v insightView) ListSince(_ context.Context, since time.Time, limit int) ([]domain.Insight, error) {
	var out []domain.Insight
	for _, insight := range v.store.insights {
		if since.IsZero() || !insight.AnalyzedAt.Before(since) {
			out = append(out, insight)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// scriptedChat answers each prompt with the canned completion keyed by a
// substring of the user prompt, or fails when failOn matches.
type scriptedChat struct {
	response string
	failOn   string
	calls    []string
}

func (c *scriptedChat) Complete(_ context.Context, _ string, user string) (string, error) {
	c.calls = append(c.calls, user)
	if c.failOn != "" && strings.Contains(user, c.failOn) {
		return "", errors.New("model unavailable")
	}
	return c.response, nil
}
