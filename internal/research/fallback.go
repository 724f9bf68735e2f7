package research

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FallbackExtractor tries the primary extract provider and falls back to
// the secondary on any failure. A failing managed provider should degrade
// to the slower scrape-and-prompt path, not sink the category.
type FallbackExtractor struct {
	Primary  ExtractClient
	Fallback ExtractClient
}

func (f *FallbackExtractor) Extract(ctx context.Context, urls []string, instruction string, schema Schema) (map[string]any, error) {
	data, err := f.Primary.Extract(ctx, urls, instruction, schema)
	if err == nil {
		return data, nil
	}
	if f.Fallback == nil {
		return nil, err
	}

	zap.L().Warn("extract: primary provider failed, using fallback", zap.Error(err))
	data, fbErr := f.Fallback.Extract(ctx, urls, instruction, schema)
	if fbErr != nil {
		return nil, eris.Wrap(fbErr, "extract: fallback failed")
	}
	return data, nil
}
