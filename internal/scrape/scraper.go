// Package scrape provides chained page fetching for the extraction
// fallback: hosted scrapers first, a local readability fetcher last.
package scrape

import "context"

// Page holds one fetched page as markdown-ish text.
type Page struct {
	URL        string
	Title      string
	Content    string
	StatusCode int
	Source     string // e.g. "firecrawl", "jina", "local_http"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Page, error)
	Name() string
}
