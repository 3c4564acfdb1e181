package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"InsightDigest/internal/domain"
	"InsightDigest/internal/scanner"
)

const (
	apiBaseURL          = "http://export.arxiv.org/api/query"
	defaultMaxResults   = 50
	summaryMaxStoredLen = 5000
	clientUserAgent     = "InsightDigest/1.0"
)

// APIScanner fetches recent papers through the arXiv Atom API, sorted by
// submission date descending.
type APIScanner struct {
	client  *http.Client
	baseURL string
}

var _ scanner.Scanner = (*APIScanner)(nil)

// NewAPIScanner wires an HTTP client; a nil client gets a 20s timeout.
func NewAPIScanner(client *http.Client) *APIScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &APIScanner{client: client, baseURL: apiBaseURL}
}

// Name identifies the strategy inside the registry.
func (a *APIScanner) Name() string {
	return "arxiv"
}

// Scan queries the API once for all requested categories and returns the
// candidates. Zero entries is a valid, empty result.
func (a *APIScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for source %s", req.SourceName)
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	terms := make([]string, len(req.Categories))
	for i, cat := range req.Categories {
		terms[i] = "cat:" + cat.Name
	}

	params := url.Values{}
	params.Set("search_query", "("+strings.Join(terms, " OR ")+")")
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")
	params.Set("max_results", strconv.Itoa(maxResults))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", clientUserAgent)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("query arxiv api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv api returned %s", resp.Status)
	}

	return parseFeed(resp.Body)
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
}

func parseFeed(r io.Reader) ([]domain.Candidate, error) {
	var feed atomFeed
	if err := xml.NewDecoder(r).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parse atom feed: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		title := flatten(entry.Title)
		link := strings.TrimSpace(entry.ID)
		if title == "" || link == "" {
			continue
		}

		summary := flatten(entry.Summary)
		if len(summary) > summaryMaxStoredLen {
			summary = summary[:summaryMaxStoredLen]
		}

		candidates = append(candidates, domain.Candidate{
			Title:   title,
			URL:     link,
			Summary: summary,
		})
	}
	return candidates, nil
}

// flatten collapses newlines and runs of whitespace into single spaces.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
