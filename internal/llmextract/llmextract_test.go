package llmextract

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shelfmetrics/enrich-cli/internal/research"
	"github.com/shelfmetrics/enrich-cli/internal/scrape"
	"github.com/shelfmetrics/enrich-cli/pkg/anthropic"
)

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) Scrape(ctx context.Context, url string) (*scrape.Page, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scrape.Page), args.Error(1)
}

func (m *mockScraper) Name() string { return "mock" }

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: text}}}
}

var dimsSchema = research.Schema{
	"width_mm": {Type: "number", Description: "package width in millimeters"},
}

func TestExtract_ScrapesAndParsesReply(t *testing.T) {
	scraper := &mockScraper{}
	scraper.On("Scrape", mock.Anything, "https://icecat.biz/p/1").
		Return(&scrape.Page{URL: "https://icecat.biz/p/1", Content: "Width: 120 mm"}, nil)

	llm := &mockLLM{}
	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-sonnet-4-5-20250929" &&
			len(req.Messages) == 1 && req.Messages[0].Role == "user"
	})).Return(textResponse("Here you go:\n```json\n{\"width_mm\": 120}\n```"), nil)

	e := New(scraper, llm, "claude-sonnet-4-5-20250929", 1024)
	data, err := e.Extract(context.Background(), []string{"https://icecat.biz/p/1"}, "Extract packaging width.", dimsSchema)

	require.NoError(t, err)
	assert.Equal(t, 120.0, data["width_mm"])
	scraper.AssertExpectations(t)
	llm.AssertExpectations(t)
}

func TestExtract_SkipsFailedScrapes(t *testing.T) {
	scraper := &mockScraper{}
	scraper.On("Scrape", mock.Anything, "https://a.example.com/1").
		Return(nil, errors.New("fetch failed"))
	scraper.On("Scrape", mock.Anything, "https://b.example.com/2").
		Return(&scrape.Page{URL: "https://b.example.com/2", Content: "Width: 118 mm"}, nil)

	llm := &mockLLM{}
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"width_mm": 118}`), nil)

	e := New(scraper, llm, "m", 1024)
	data, err := e.Extract(context.Background(),
		[]string{"https://a.example.com/1", "https://b.example.com/2"},
		"Extract packaging width.", dimsSchema)

	require.NoError(t, err)
	assert.Equal(t, 118.0, data["width_mm"])
}

func TestExtract_AllScrapesFailedIsError(t *testing.T) {
	scraper := &mockScraper{}
	scraper.On("Scrape", mock.Anything, mock.Anything).
		Return(nil, errors.New("fetch failed"))

	llm := &mockLLM{}

	e := New(scraper, llm, "m", 1024)
	_, err := e.Extract(context.Background(), []string{"https://a.example.com/1"}, "x", dimsSchema)

	assert.Error(t, err)
	llm.AssertNotCalled(t, "CreateMessage")
}

func TestParseJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"bare object", `{"a": 1}`, false},
		{"fenced block", "```json\n{\"a\": 1}\n```", false},
		{"prose around object", "Sure: {\"a\": 1} done.", false},
		{"no object", "I could not find any data.", true},
		{"broken json", "{\"a\": ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := parseJSONObject(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1.0, data["a"])
		})
	}
}

func TestTruncate_KeepsRuneBoundaries(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short string untouched", "abc", 10, "abc"},
		{"exact length untouched", "abc", 3, "abc"},
		{"ascii cut", "abcdef", 4, "abcd"},
		{"multibyte cut mid-rune", "abécd", 3, "ab"},
		{"multibyte cut on boundary", "abécd", 4, "abé"},
		{"cjk cut mid-rune", "盒子", 4, "盒"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
