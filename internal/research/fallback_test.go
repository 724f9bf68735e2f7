package research

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackExtractor_PrimarySuccess(t *testing.T) {
	primary := extractFunc(func(ctx context.Context, urls []string, instruction string, schema Schema) (map[string]any, error) {
		return map[string]any{"width_mm": 120.0}, nil
	})
	fallback := &mockExtractClient{}

	f := &FallbackExtractor{Primary: primary, Fallback: fallback}
	data, err := f.Extract(context.Background(), []string{"https://a.example.com"}, "x", packagingSchema)

	require.NoError(t, err)
	assert.Equal(t, 120.0, data["width_mm"])
	fallback.AssertNotCalled(t, "Extract")
}

func TestFallbackExtractor_FallsBackOnFailure(t *testing.T) {
	primary := extractFunc(func(ctx context.Context, urls []string, instruction string, schema Schema) (map[string]any, error) {
		return nil, errors.New("provider down")
	})
	fallback := extractFunc(func(ctx context.Context, urls []string, instruction string, schema Schema) (map[string]any, error) {
		return map[string]any{"width_mm": 118.0}, nil
	})

	f := &FallbackExtractor{Primary: primary, Fallback: fallback}
	data, err := f.Extract(context.Background(), []string{"https://a.example.com"}, "x", packagingSchema)

	require.NoError(t, err)
	assert.Equal(t, 118.0, data["width_mm"])
}

func TestFallbackExtractor_BothFail(t *testing.T) {
	failing := extractFunc(func(ctx context.Context, urls []string, instruction string, schema Schema) (map[string]any, error) {
		return nil, errors.New("down")
	})

	f := &FallbackExtractor{Primary: failing, Fallback: failing}
	_, err := f.Extract(context.Background(), []string{"https://a.example.com"}, "x", packagingSchema)
	assert.Error(t, err)
}

func TestFallbackExtractor_NoFallbackConfigured(t *testing.T) {
	primary := extractFunc(func(ctx context.Context, urls []string, instruction string, schema Schema) (map[string]any, error) {
		return nil, errors.New("down")
	})

	f := &FallbackExtractor{Primary: primary}
	_, err := f.Extract(context.Background(), []string{"https://a.example.com"}, "x", packagingSchema)
	assert.Error(t, err)
}
