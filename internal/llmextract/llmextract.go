// Package llmextract implements schema-driven extraction by scraping page
// content and asking an LLM to fill the schema. It backs up the managed
// extraction provider when that provider is unavailable or fails.
package llmextract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/shelfmetrics/enrich-cli/internal/research"
	"github.com/shelfmetrics/enrich-cli/internal/scrape"
	"github.com/shelfmetrics/enrich-cli/pkg/anthropic"
)

// pages larger than this are truncated before prompting
const maxPageChars = 24000

const systemPrompt = `You extract structured product data from web page content. Answer with a single JSON object matching the requested fields. Use null for fields the content does not state. Never invent values.`

// Extractor scrapes URLs and fills schemas with an LLM.
type Extractor struct {
	scraper   scrape.Scraper
	llm       anthropic.Client
	model     string
	maxTokens int64
}

// New creates an Extractor.
func New(scraper scrape.Scraper, llm anthropic.Client, model string, maxTokens int64) *Extractor {
	return &Extractor{
		scraper:   scraper,
		llm:       llm,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Extract implements the extract capability: scrape each URL, concatenate
// the content, and prompt the model to fill the schema.
func (e *Extractor) Extract(ctx context.Context, urls []string, instruction string, schema research.Schema) (map[string]any, error) {
	var pages []string
	for _, u := range urls {
		page, err := e.scraper.Scrape(ctx, u)
		if err != nil {
			zap.L().Debug("llmextract: scrape failed, skipping url",
				zap.String("url", u), zap.Error(err))
			continue
		}
		content := truncate(page.Content, maxPageChars)
		pages = append(pages, fmt.Sprintf("=== SOURCE: %s ===\n%s", u, content))
	}
	if len(pages) == 0 {
		return nil, eris.New("llmextract: no page content available")
	}

	prompt, err := buildPrompt(instruction, schema, pages)
	if err != nil {
		return nil, err
	}

	resp, err := e.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System:    systemPrompt,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "llmextract: create message")
	}

	return parseJSONObject(resp.Text())
}

func buildPrompt(instruction string, schema research.Schema, pages []string) (string, error) {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "llmextract: marshal schema")
	}

	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nFields to extract:\n")
	b.Write(schemaJSON)
	b.WriteString("\n\nPage content:\n\n")
	b.WriteString(strings.Join(pages, "\n\n"))
	b.WriteString("\n\nRespond with the JSON object only.")
	return b.String(), nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// parseJSONObject reads the first JSON object from a model reply,
// tolerating fenced code blocks and surrounding prose.
func parseJSONObject(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.New("llmextract: no JSON object in reply")
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, eris.Wrap(err, "llmextract: parse reply")
	}
	return out, nil
}
