package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"InsightDigest/internal/domain"
	"InsightDigest/internal/ports"
)

// InsightStore persists analysis results. The payload is serialized as
// opaque JSON text; referential integrity against raw_items is advisory,
// callers are responsible for passing a valid reference.
type InsightStore struct {
	store *Store
}

var _ ports.InsightWriter = (*InsightStore)(nil)
var _ ports.InsightReader = (*InsightStore)(nil)

// Insert persists one insight with the current UTC timestamp.
func (s *InsightStore) Insert(ctx context.Context, rawItemID int64, data domain.Payload) (int64, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	query, args, err := builder.
		Insert("insights").
		Columns("raw_item_id", "data", "analyzed_at").
		Values(rawItemID, string(payload), s.store.timestamp()).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := s.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert insight: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// AnalyzedRawItemIDs returns the set of raw-item ids that already have at
// least one insight, reflecting all commits made before the call returns.
func (s *InsightStore) AnalyzedRawItemIDs(ctx context.Context) (map[int64]struct{}, error) {
	query, _, err := builder.
		Select("DISTINCT raw_item_id").
		From("insights").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query analyzed ids: %w", err)
	}
	defer rows.Close()

	ids := map[int64]struct{}{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan analyzed id: %w", err)
		}
		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyzed ids: %w", err)
	}
	return ids, nil
}

// BacklogCount returns how many raw items have no insight yet.
func (s *InsightStore) BacklogCount(ctx context.Context) (int, error) {
	query, _, err := builder.
		Select("COUNT(*)").
		From("raw_items r").
		LeftJoin("insights i ON i.raw_item_id = r.id").
		Where("i.id IS NULL").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build select: %w", err)
	}

	var count int
	if err := s.store.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count backlog: %w", err)
	}
	return count, nil
}

// GetByID returns the insight or domain.ErrNotFound.
func (s *InsightStore) GetByID(ctx context.Context, id int64) (domain.Insight, error) {
	query, args, err := builder.
		Select("id", "raw_item_id", "data", "analyzed_at").
		From("insights").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Insight{}, fmt.Errorf("build select: %w", err)
	}

	row := s.store.db.QueryRowContext(ctx, query, args...)

	var insight domain.Insight
	var data, analyzedAt string
	if err := row.Scan(&insight.ID, &insight.RawItemID, &data, &analyzedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Insight{}, domain.ErrNotFound
		}
		return domain.Insight{}, fmt.Errorf("scan insight: %w", err)
	}

	return finishInsight(insight, data, analyzedAt)
}

// ListSince returns insights ordered most-recently-analyzed first, with the
// same since/limit semantics as RawItemStore.ListSince.
func (s *InsightStore) ListSince(ctx context.Context, since time.Time, limit int) ([]domain.Insight, error) {
	q := builder.
		Select("id", "raw_item_id", "data", "analyzed_at").
		From("insights").
		OrderBy("analyzed_at DESC", "id DESC").
		Limit(uint64(limit))
	if !since.IsZero() {
		q = q.Where(sq.GtOrEq{"analyzed_at": since.UTC().Format(timeLayout)})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	var insights []domain.Insight
	for rows.Next() {
		var insight domain.Insight
		var data, analyzedAt string
		if err := rows.Scan(&insight.ID, &insight.RawItemID, &data, &analyzedAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		insight, err = finishInsight(insight, data, analyzedAt)
		if err != nil {
			return nil, err
		}
		insights = append(insights, insight)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate insights: %w", err)
	}
	return insights, nil
}

func finishInsight(insight domain.Insight, data, analyzedAt string) (domain.Insight, error) {
	if err := json.Unmarshal([]byte(data), &insight.Data); err != nil {
		return domain.Insight{}, fmt.Errorf("unmarshal payload for insight %d: %w", insight.ID, err)
	}

	parsed, err := parseTimestamp(analyzedAt)
	if err != nil {
		return domain.Insight{}, err
	}
	insight.AnalyzedAt = parsed
	return insight, nil
}
