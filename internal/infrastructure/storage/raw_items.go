package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"InsightDigest/internal/domain"
	"InsightDigest/internal/ports"
)

// RawItemStore persists fetched entries. Unique key: (source, url).
type RawItemStore struct {
	store *Store
}

var _ ports.RawItemSink = (*RawItemStore)(nil)
var _ ports.RawItemReader = (*RawItemStore)(nil)

// Insert persists one item with the current UTC timestamp. Returns
// domain.ErrDuplicate, and writes nothing, when (source, url) already
// exists.
func (r *RawItemStore) Insert(ctx context.Context, title, url, summary, source string) (int64, error) {
	query, args, err := builder.
		Insert("raw_items").
		Columns("title", "url", "summary", "source", "fetched_at").
		Values(title, url, summary, source, r.store.timestamp()).
		Suffix("ON CONFLICT(source, url) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert raw item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return 0, domain.ErrDuplicate
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// InsertMany applies Insert to each candidate and returns the count of
// items actually persisted. Duplicates are silently skipped.
func (r *RawItemStore) InsertMany(ctx context.Context, items []domain.Candidate, source string) (int, error) {
	count := 0
	for _, item := range items {
		_, err := r.Insert(ctx, item.Title, item.URL, item.Summary, source)
		if errors.Is(err, domain.ErrDuplicate) {
			continue
		}
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// GetByID returns the item or domain.ErrNotFound.
func (r *RawItemStore) GetByID(ctx context.Context, id int64) (domain.RawItem, error) {
	query, args, err := builder.
		Select("id", "title", "url", "summary", "source", "fetched_at").
		From("raw_items").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.RawItem{}, fmt.Errorf("build select: %w", err)
	}

	return scanRawItem(r.store.db.QueryRowContext(ctx, query, args...))
}

// ListSince returns items ordered most-recently-fetched first, ties broken
// by insertion order. A zero since means the most recent limit items
// overall; otherwise only items fetched at or after since.
func (r *RawItemStore) ListSince(ctx context.Context, since time.Time, limit int) ([]domain.RawItem, error) {
	q := builder.
		Select("id", "title", "url", "summary", "source", "fetched_at").
		From("raw_items").
		OrderBy("fetched_at DESC", "id DESC").
		Limit(uint64(limit))
	if !since.IsZero() {
		q = q.Where(sq.GtOrEq{"fetched_at": since.UTC().Format(timeLayout)})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query raw items: %w", err)
	}
	defer rows.Close()

	var items []domain.RawItem
	for rows.Next() {
		var item domain.RawItem
		var fetchedAt string
		if err := rows.Scan(&item.ID, &item.Title, &item.URL, &item.Summary, &item.Source, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan raw item: %w", err)
		}
		if item.FetchedAt, err = parseTimestamp(fetchedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw items: %w", err)
	}
	return items, nil
}

func scanRawItem(row *sql.Row) (domain.RawItem, error) {
	var item domain.RawItem
	var fetchedAt string
	if err := row.Scan(&item.ID, &item.Title, &item.URL, &item.Summary, &item.Source, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RawItem{}, domain.ErrNotFound
		}
		return domain.RawItem{}, fmt.Errorf("scan raw item: %w", err)
	}

	parsed, err := parseTimestamp(fetchedAt)
	if err != nil {
		return domain.RawItem{}, err
	}
	item.FetchedAt = parsed
	return item, nil
}
