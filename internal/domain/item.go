package domain

import (
	"errors"
	"time"
)

var (
	// ErrDuplicate signals an insert whose (source, url) pair is already stored.
	ErrDuplicate = errors.New("duplicate item")
	// ErrNotFound signals a lookup for an id that does not exist.
	ErrNotFound = errors.New("not found")
)

// Candidate is one entry produced by a source adapter before persistence.
type Candidate struct {
	Title   string
	URL     string
	Summary string
}

// RawItem is a fetched source entry. Immutable after insertion; the pair
// (Source, URL) is unique across the store.
type RawItem struct {
	ID        int64
	Title     string
	URL       string
	Summary   string
	Source    string
	FetchedAt time.Time
}

// Insight is the analysis result attached to exactly one raw item. Data has
// no fixed schema; it is whatever object the model produced.
type Insight struct {
	ID         int64
	RawItemID  int64
	Data       Payload
	AnalyzedAt time.Time
}
