// Package providers adapts the external API clients to the capability
// interfaces the research loop consumes.
package providers

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/shelfmetrics/enrich-cli/internal/research"
	"github.com/shelfmetrics/enrich-cli/pkg/firecrawl"
	"github.com/shelfmetrics/enrich-cli/pkg/jina"
)

// JinaSearch adapts the Jina Search API to the search capability.
type JinaSearch struct {
	client jina.Client
}

// NewJinaSearch creates a JinaSearch adapter.
func NewJinaSearch(client jina.Client) *JinaSearch {
	return &JinaSearch{client: client}
}

func (s *JinaSearch) Search(ctx context.Context, query string, opts research.SearchOptions) ([]research.SearchResult, error) {
	var jOpts []jina.SearchOption
	if opts.Limit > 0 {
		jOpts = append(jOpts, jina.WithLimit(opts.Limit))
	}
	if opts.Locale != "" {
		jOpts = append(jOpts, jina.WithLocale(opts.Locale))
	}
	if opts.Kind == research.ResultKindImages {
		jOpts = append(jOpts, jina.WithImages())
	}

	resp, err := s.client.Search(ctx, query, jOpts...)
	if err != nil {
		return nil, err
	}

	results := make([]research.SearchResult, 0, len(resp.Data))
	for _, r := range resp.Data {
		results = append(results, research.SearchResult{URL: r.URL, Title: r.Title})
	}
	return results, nil
}

// FirecrawlExtract adapts the Firecrawl extract endpoint to the extract
// capability.
type FirecrawlExtract struct {
	client firecrawl.Client
}

// NewFirecrawlExtract creates a FirecrawlExtract adapter.
func NewFirecrawlExtract(client firecrawl.Client) *FirecrawlExtract {
	return &FirecrawlExtract{client: client}
}

func (e *FirecrawlExtract) Extract(ctx context.Context, urls []string, instruction string, schema research.Schema) (map[string]any, error) {
	props := make(map[string]firecrawl.SchemaProperty, len(schema))
	for name, spec := range schema {
		props[name] = firecrawl.SchemaProperty{Type: spec.Type, Description: spec.Description}
	}

	resp, err := e.client.Extract(ctx, firecrawl.ExtractRequest{
		URLs:   urls,
		Prompt: instruction,
		Schema: firecrawl.Schema{Type: "object", Properties: props},
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, eris.New("providers: firecrawl extract unsuccessful")
	}
	return resp.Data, nil
}
