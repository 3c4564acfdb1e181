package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"InsightDigest/internal/domain"
	"InsightDigest/internal/scanner"
)

const arxivBaseURL = "https://arxiv.org"

// ListScanner crawls arXiv category listing pages (the /list/<cat>/ HTML
// views) and extracts candidates. Categories must carry their listing URL.
type ListScanner struct {
	client   *http.Client
	pageSize int
}

var _ scanner.Scanner = (*ListScanner)(nil)

// NewListScanner wires an HTTP client; pageSize defaults to 200.
func NewListScanner(client *http.Client) *ListScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ListScanner{client: client, pageSize: 200}
}

// Name identifies the strategy inside the registry.
func (l *ListScanner) Name() string {
	return "arxiv-list"
}

// Scan pages through each category URL until the max-result cap is reached
// or a page comes back short.
func (l *ListScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for source %s", req.SourceName)
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = l.pageSize
	}

	results := make([]domain.Candidate, 0, maxResults)
	seen := map[string]struct{}{}

	for _, cat := range req.Categories {
		skip := 0
		for len(results) < maxResults {
			pageURL, err := buildPageURL(cat.URL, skip, l.pageSize)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			doc, err := l.fetchDocument(ctx, pageURL)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			entries := extractEntries(doc)
			for _, candidate := range entries {
				if _, ok := seen[candidate.URL]; ok {
					continue
				}
				seen[candidate.URL] = struct{}{}
				results = append(results, candidate)
				if len(results) >= maxResults {
					break
				}
			}

			if len(entries) < l.pageSize {
				break
			}
			skip += l.pageSize
		}
	}

	return results, nil
}

func (l *ListScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", clientUserAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractEntries(doc *goquery.Document) []domain.Candidate {
	var entries []domain.Candidate

	doc.Find("dl > dt").Each(func(_ int, dt *goquery.Selection) {
		if candidate, ok := parseEntry(dt, dt.Next()); ok {
			entries = append(entries, candidate)
		}
	})

	return entries
}

func parseEntry(dt, dd *goquery.Selection) (domain.Candidate, bool) {
	link := dt.Find("a[href*=\"/abs/\"]").First()
	href, _ := link.Attr("href")
	if href == "" {
		return domain.Candidate{}, false
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))
	if title == "" {
		return domain.Candidate{}, false
	}

	summary := dd.Find("p.mathjax").First().Text()
	summary = strings.TrimSpace(strings.TrimPrefix(summary, "Abstract:"))
	summary = flatten(summary)
	if len(summary) > summaryMaxStoredLen {
		summary = summary[:summaryMaxStoredLen]
	}

	return domain.Candidate{Title: title, URL: href, Summary: summary}, true
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
