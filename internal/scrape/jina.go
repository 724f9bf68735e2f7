package scrape

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/shelfmetrics/enrich-cli/pkg/jina"
)

// JinaScraper fetches pages through the Jina reader.
type JinaScraper struct {
	client jina.Client
}

// NewJinaScraper wraps a Jina client as a Scraper.
func NewJinaScraper(client jina.Client) *JinaScraper {
	return &JinaScraper{client: client}
}

func (j *JinaScraper) Name() string { return "jina" }

func (j *JinaScraper) Scrape(ctx context.Context, targetURL string) (*Page, error) {
	resp, err := j.client.Read(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	if resp.Data.Content == "" {
		return nil, eris.Errorf("jina: empty reader result for %s", targetURL)
	}
	return &Page{
		URL:        targetURL,
		Title:      resp.Data.Title,
		Content:    resp.Data.Content,
		StatusCode: 200,
		Source:     j.Name(),
	}, nil
}
