package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shelfmetrics/enrich-cli/internal/research"
	"github.com/shelfmetrics/enrich-cli/pkg/firecrawl"
	"github.com/shelfmetrics/enrich-cli/pkg/jina"
)

type mockJina struct {
	mock.Mock
}

func (m *mockJina) Read(ctx context.Context, targetURL string) (*jina.ReadResponse, error) {
	args := m.Called(ctx, targetURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jina.ReadResponse), args.Error(1)
}

func (m *mockJina) Search(ctx context.Context, query string, opts ...jina.SearchOption) (*jina.SearchResponse, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jina.SearchResponse), args.Error(1)
}

type mockFirecrawl struct {
	mock.Mock
}

func (m *mockFirecrawl) Scrape(ctx context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.ScrapeResponse), args.Error(1)
}

func (m *mockFirecrawl) Extract(ctx context.Context, req firecrawl.ExtractRequest) (*firecrawl.ExtractResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.ExtractResponse), args.Error(1)
}

func TestJinaSearch_MapsResults(t *testing.T) {
	client := &mockJina{}
	client.On("Search", mock.Anything, "HP W1331X dimensions", mock.Anything).
		Return(&jina.SearchResponse{Code: 200, Data: []jina.SearchResult{
			{URL: "https://icecat.biz/p/1", Title: "HP W1331X"},
			{URL: "https://www.hp.com/supplies", Title: "HP supplies"},
		}}, nil)

	s := NewJinaSearch(client)
	results, err := s.Search(context.Background(), "HP W1331X dimensions",
		research.SearchOptions{Limit: 5, Locale: "en-US"})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://icecat.biz/p/1", results[0].URL)
	client.AssertExpectations(t)
}

func TestFirecrawlExtract_BuildsSchema(t *testing.T) {
	client := &mockFirecrawl{}
	client.On("Extract", mock.Anything, mock.MatchedBy(func(req firecrawl.ExtractRequest) bool {
		prop, ok := req.Schema.Properties["width_mm"]
		return req.Schema.Type == "object" && ok && prop.Type == "number"
	})).Return(&firecrawl.ExtractResponse{Success: true, Data: map[string]any{"width_mm": 120.0}}, nil)

	e := NewFirecrawlExtract(client)
	data, err := e.Extract(context.Background(), []string{"https://icecat.biz/p/1"}, "extract",
		research.Schema{"width_mm": {Type: "number", Description: "width"}})

	require.NoError(t, err)
	assert.Equal(t, 120.0, data["width_mm"])
	client.AssertExpectations(t)
}

func TestFirecrawlExtract_UnsuccessfulIsError(t *testing.T) {
	client := &mockFirecrawl{}
	client.On("Extract", mock.Anything, mock.Anything).
		Return(&firecrawl.ExtractResponse{Success: false}, nil)

	e := NewFirecrawlExtract(client)
	_, err := e.Extract(context.Background(), []string{"https://a.example.com"}, "x",
		research.Schema{"width_mm": {Type: "number"}})
	assert.Error(t, err)
}
