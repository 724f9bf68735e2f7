package research

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// --- Search capability mock ---

type mockSearchClient struct {
	mock.Mock
}

func (m *mockSearchClient) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SearchResult), args.Error(1)
}

// --- Extract capability mock ---

type mockExtractClient struct {
	mock.Mock
}

func (m *mockExtractClient) Extract(ctx context.Context, urls []string, instruction string, schema Schema) (map[string]any, error) {
	args := m.Called(ctx, urls, instruction, schema)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

// searchFunc adapts a function to SearchClient for tests that need
// per-call behavior beyond what mock expectations express cleanly.
type searchFunc func(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)

func (f searchFunc) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	return f(ctx, query, opts)
}

// extractFunc adapts a function to ExtractClient.
type extractFunc func(ctx context.Context, urls []string, instruction string, schema Schema) (map[string]any, error)

func (f extractFunc) Extract(ctx context.Context, urls []string, instruction string, schema Schema) (map[string]any, error) {
	return f(ctx, urls, instruction, schema)
}
