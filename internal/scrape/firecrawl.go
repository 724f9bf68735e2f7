package scrape

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/shelfmetrics/enrich-cli/pkg/firecrawl"
)

// FirecrawlScraper fetches pages through the Firecrawl scrape endpoint.
type FirecrawlScraper struct {
	client firecrawl.Client
}

// NewFirecrawlScraper wraps a Firecrawl client as a Scraper.
func NewFirecrawlScraper(client firecrawl.Client) *FirecrawlScraper {
	return &FirecrawlScraper{client: client}
}

func (f *FirecrawlScraper) Name() string { return "firecrawl" }

func (f *FirecrawlScraper) Scrape(ctx context.Context, targetURL string) (*Page, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     targetURL,
		Formats: []string{"markdown"},
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data.Markdown == "" {
		return nil, eris.Errorf("firecrawl: empty scrape result for %s", targetURL)
	}
	return &Page{
		URL:        targetURL,
		Title:      resp.Data.Title,
		Content:    resp.Data.Markdown,
		StatusCode: resp.Data.StatusCode,
		Source:     f.Name(),
	}, nil
}
