// Package research implements the iterative research loop: planning,
// collection, extraction, consensus merging, and the quality gate that
// decides when a record is done.
package research

import "context"

// ResultKind selects the kind of search results to return.
type ResultKind string

const (
	ResultKindWeb    ResultKind = "web"
	ResultKindImages ResultKind = "images"
)

// SearchOptions configures one search call.
type SearchOptions struct {
	Limit  int
	Locale string
	Kind   ResultKind
}

// SearchResult is one hit from a search provider.
type SearchResult struct {
	URL   string
	Title string
}

// SearchClient is the search capability consumed by the collector.
// Implementations surface auth/billing failures as
// resilience.CriticalProviderError and 429s as resilience.RateLimitedError.
type SearchClient interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
}

// FieldSpec describes one field in an extraction schema.
type FieldSpec struct {
	Type        string // "string", "number", "boolean", "array"
	Description string
}

// Schema is the field schema handed to the extract capability.
type Schema map[string]FieldSpec

// ExtractClient is the structured-extraction capability consumed by the
// extractor. It returns the partial object the provider could support;
// fields absent from the map were not reported by any of the pages.
type ExtractClient interface {
	Extract(ctx context.Context, urls []string, instruction string, schema Schema) (map[string]any, error)
}
