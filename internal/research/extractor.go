package research

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shelfmetrics/enrich-cli/internal/model"
	"github.com/shelfmetrics/enrich-cli/internal/resilience"
)

// Per-category URL caps for extraction calls.
const (
	logisticsURLCap = 3
	compatURLCap    = 5
	genericURLCap   = 3
)

// lowTrustConfidenceCap bounds packaging confidence when the only
// evidence comes from off-catalog domains.
const lowTrustConfidenceCap = 0.5

var packagingSchema = Schema{
	"width_mm":  {Type: "number", Description: "package width in millimeters"},
	"height_mm": {Type: "number", Description: "package height in millimeters"},
	"depth_mm":  {Type: "number", Description: "package depth in millimeters"},
	"weight_g":  {Type: "number", Description: "gross package weight in grams"},
}

var printersSchema = Schema{
	"printers": {Type: "array", Description: "full printer model names this cartridge is compatible with"},
}

var relatedSchema = Schema{
	"related": {Type: "array", Description: "names of sibling or alternative products in the same supplies family"},
}

var imagesSchema = Schema{
	"images": {Type: "array", Description: "product image URLs with width, height, background_score, has_packaging, has_watermark, has_logo"},
}

var faqSchema = Schema{
	"faq": {Type: "array", Description: "frequently asked questions as objects with question and answer"},
}

// ExtractResult is one extraction pass over a round's findings.
type ExtractResult struct {
	Partials []model.Partial
	// ExclusionNotes explain compatibility URLs that were filtered out or
	// failed extraction; the merger appends them to the record.
	ExclusionNotes []string
}

// Extractor turns per-category findings into typed partials via the
// Extract capability. Categories fan out concurrently: extract providers
// meter per request, and partials stay component-local until the
// single-writer merge.
type Extractor struct {
	extract ExtractClient
	tiers   *TierClassifier
	retry   resilience.RetryConfig
}

// NewExtractor creates an Extractor.
func NewExtractor(extract ExtractClient, tiers *TierClassifier) *Extractor {
	return &Extractor{
		extract: extract,
		tiers:   tiers,
		retry:   resilience.DefaultRetryConfig(),
	}
}

// Extract runs bounded, schema-driven extraction for every finding.
// Failures degrade to "no update this iteration"; the loop retries the
// category later if it is still missing.
func (e *Extractor) Extract(ctx context.Context, findings []model.Finding, rec *model.EnrichedRecord, strict bool, stats *model.RunStats) ExtractResult {
	var (
		mu     sync.Mutex
		result ExtractResult
	)

	g, gCtx := errgroup.WithContext(ctx)
	for _, f := range findings {
		f := f
		g.Go(func() error {
			partial, notes := e.extractCategory(gCtx, f, rec, strict, stats, &mu)
			mu.Lock()
			if partial != nil {
				result.Partials = append(result.Partials, *partial)
			}
			result.ExclusionNotes = append(result.ExclusionNotes, notes...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func (e *Extractor) extractCategory(ctx context.Context, f model.Finding, rec *model.EnrichedRecord, strict bool, stats *model.RunStats, mu *sync.Mutex) (*model.Partial, []string) {
	switch f.Category {
	case model.CategoryLogistics:
		return e.extractLogistics(ctx, f, rec, strict, stats, mu)
	case model.CategoryCompatibility:
		return e.extractCompatibility(ctx, f, rec, strict, stats, mu)
	case model.CategoryRelated:
		if len(rec.Related) > 0 {
			return nil, nil
		}
		return e.extractRelated(ctx, f, rec, stats, mu), nil
	case model.CategoryImages:
		return e.extractImages(ctx, f, rec, stats, mu), nil
	case model.CategoryFAQ:
		if len(rec.FAQ) > 0 {
			return nil, nil
		}
		return e.extractFAQ(ctx, f, rec, stats, mu), nil
	default:
		return nil, nil
	}
}

func (e *Extractor) callExtract(ctx context.Context, urls []string, instruction string, schema Schema, stats *model.RunStats, mu *sync.Mutex) (map[string]any, error) {
	mu.Lock()
	stats.ExtractCalls++
	mu.Unlock()

	cfg := e.retry
	cfg.OnRetry = resilience.RetryLogger("extract", "extract")
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (map[string]any, error) {
		return e.extract.Extract(ctx, urls, instruction, schema)
	})
}

func (e *Extractor) extractLogistics(ctx context.Context, f model.Finding, rec *model.EnrichedRecord, strict bool, stats *model.RunStats, mu *sync.Mutex) (*model.Partial, []string) {
	if rec.Packaging != nil {
		return nil, nil
	}

	var catalog, offCatalog []string
	for _, u := range f.URLs {
		if e.tiers.IsCatalog(u) {
			catalog = append(catalog, u)
		} else {
			offCatalog = append(offCatalog, u)
		}
	}

	urls := capURLs(catalog, logisticsURLCap)
	lowTrust := false
	if len(urls) == 0 {
		if strict {
			// Exhaustive sourcing: packaging only from the catalog allow-list.
			return nil, nil
		}
		// Off-catalog packaging is retained with lowered confidence rather
		// than silently dropped.
		urls = capURLs(offCatalog, logisticsURLCap)
		lowTrust = true
	}
	if len(urls) == 0 {
		return nil, nil
	}

	instruction := fmt.Sprintf(
		"Extract the retail packaging dimensions and gross weight for the %s. Report only values the page states explicitly; convert to millimeters and grams.",
		subjectOf(rec),
	)
	data, err := e.callExtract(ctx, urls, instruction, packagingSchema, stats, mu)
	if err != nil {
		zap.L().Warn("extractor: logistics extraction failed",
			zap.Strings("urls", urls), zap.Error(err))
		return nil, nil
	}

	partial := &model.PackagingPartial{
		WidthMM:  numberField(data, "width_mm"),
		HeightMM: numberField(data, "height_mm"),
		DepthMM:  numberField(data, "depth_mm"),
		WeightG:  numberField(data, "weight_g"),
	}
	if !partial.Reported() {
		return nil, nil
	}

	confidence := 0.9
	if lowTrust {
		confidence = lowTrustConfidenceCap
	}
	return &model.Partial{
		Category:   model.CategoryLogistics,
		Packaging:  partial,
		Sources:    urls,
		Confidence: confidence,
		Method:     "schema_extract",
		LowTrust:   lowTrust,
	}, nil
}

func (e *Extractor) extractCompatibility(ctx context.Context, f model.Finding, rec *model.EnrichedRecord, strict bool, stats *model.RunStats, mu *sync.Mutex) (*model.Partial, []string) {
	urls := f.URLs
	var notes []string
	if strict {
		var kept []string
		for _, u := range urls {
			if e.tiers.IsAllowListed(u) || e.tiers.Classify(u, rec.Identity.Brand) == model.TierAOEM {
				kept = append(kept, u)
			}
		}
		if dropped := len(urls) - len(kept); dropped > 0 {
			notes = append(notes, fmt.Sprintf("excluded %d compatibility sources outside the allow-list", dropped))
		}
		urls = kept
	}
	urls = capURLs(urls, compatURLCap)
	if len(urls) == 0 {
		return nil, notes
	}

	instruction := fmt.Sprintf(
		"List every printer model the page states is compatible with the %s. Use full official model names; do not infer models the page does not mention.",
		subjectOf(rec),
	)
	data, err := e.callExtract(ctx, urls, instruction, printersSchema, stats, mu)
	if err != nil {
		zap.L().Warn("extractor: compatibility extraction failed",
			zap.Strings("urls", urls), zap.Error(err))
		notes = append(notes, "compatibility extraction failed for "+strings.Join(urls, ", "))
		return nil, notes
	}

	printers := stringSlice(data["printers"])
	if len(printers) == 0 {
		return nil, notes
	}
	return &model.Partial{
		Category:   model.CategoryCompatibility,
		Printers:   printers,
		Sources:    urls,
		Confidence: 0.8,
		Method:     "schema_extract",
	}, notes
}

func (e *Extractor) extractRelated(ctx context.Context, f model.Finding, rec *model.EnrichedRecord, stats *model.RunStats, mu *sync.Mutex) *model.Partial {
	urls := capURLs(f.URLs, genericURLCap)
	if len(urls) == 0 {
		return nil
	}

	instruction := fmt.Sprintf("List sibling or alternative products in the same supplies family as the %s.", subjectOf(rec))
	data, err := e.callExtract(ctx, urls, instruction, relatedSchema, stats, mu)
	if err != nil {
		zap.L().Warn("extractor: related extraction failed", zap.Error(err))
		return nil
	}

	var related []model.RelatedItem
	for _, item := range anySlice(data["related"]) {
		switch v := item.(type) {
		case string:
			if v != "" {
				related = append(related, model.RelatedItem{Name: v})
			}
		case map[string]any:
			name, _ := v["name"].(string)
			url, _ := v["url"].(string)
			if name != "" {
				related = append(related, model.RelatedItem{Name: name, URL: url})
			}
		}
	}
	if len(related) == 0 {
		return nil
	}
	return &model.Partial{
		Category:   model.CategoryRelated,
		Related:    related,
		Sources:    urls,
		Confidence: 0.7,
		Method:     "schema_extract",
	}
}

func (e *Extractor) extractImages(ctx context.Context, f model.Finding, rec *model.EnrichedRecord, stats *model.RunStats, mu *sync.Mutex) *model.Partial {
	urls := capURLs(f.URLs, genericURLCap)
	if len(urls) == 0 {
		return nil
	}

	instruction := fmt.Sprintf(
		"Collect product images of the %s. For each, report url, pixel width and height, a 0-1 background_score for clean white backgrounds, and whether the shot shows retail packaging, a watermark, or a reseller logo.",
		subjectOf(rec),
	)
	data, err := e.callExtract(ctx, urls, instruction, imagesSchema, stats, mu)
	if err != nil {
		zap.L().Warn("extractor: image extraction failed", zap.Error(err))
		return nil
	}

	var images []model.ImageCandidate
	for _, item := range anySlice(data["images"]) {
		obj, ok := item.(map[string]any)
		if !ok {
			if s, isStr := item.(string); isStr && s != "" {
				images = append(images, model.ImageCandidate{URL: s})
			}
			continue
		}
		url, _ := obj["url"].(string)
		if url == "" {
			continue
		}
		img := model.ImageCandidate{URL: url}
		if w := numberField(obj, "width"); w != nil {
			img.Width = int(*w)
		}
		if h := numberField(obj, "height"); h != nil {
			img.Height = int(*h)
		}
		if bg := numberField(obj, "background_score"); bg != nil {
			img.BackgroundScore = *bg
		}
		img.HasPackaging, _ = obj["has_packaging"].(bool)
		img.HasWatermark, _ = obj["has_watermark"].(bool)
		img.HasLogo, _ = obj["has_logo"].(bool)
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil
	}
	return &model.Partial{
		Category:   model.CategoryImages,
		Images:     images,
		Sources:    urls,
		Confidence: 0.7,
		Method:     "schema_extract",
	}
}

func (e *Extractor) extractFAQ(ctx context.Context, f model.Finding, rec *model.EnrichedRecord, stats *model.RunStats, mu *sync.Mutex) *model.Partial {
	urls := capURLs(f.URLs, genericURLCap)
	if len(urls) == 0 {
		return nil
	}

	instruction := fmt.Sprintf("Collect frequently asked questions and their answers about the %s.", subjectOf(rec))
	data, err := e.callExtract(ctx, urls, instruction, faqSchema, stats, mu)
	if err != nil {
		zap.L().Warn("extractor: faq extraction failed", zap.Error(err))
		return nil
	}

	var faq []model.FAQEntry
	for _, item := range anySlice(data["faq"]) {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		q, _ := obj["question"].(string)
		a, _ := obj["answer"].(string)
		if q != "" && a != "" {
			faq = append(faq, model.FAQEntry{Question: q, Answer: a, Sources: urls})
		}
	}
	if len(faq) == 0 {
		return nil
	}
	return &model.Partial{
		Category:   model.CategoryFAQ,
		FAQ:        faq,
		Sources:    urls,
		Confidence: 0.7,
		Method:     "schema_extract",
	}
}

func subjectOf(rec *model.EnrichedRecord) string {
	subject := strings.TrimSpace(rec.Identity.Brand + " " + rec.Identity.Model)
	if subject == "" {
		return rec.Identity.Raw
	}
	if rec.Identity.Kind != "" {
		subject += " " + rec.Identity.Kind
	}
	return subject
}

func capURLs(urls []string, n int) []string {
	if len(urls) > n {
		return urls[:n]
	}
	return urls
}

// numberField tolerantly reads a numeric field the provider may return as
// a JSON number or a string.
func numberField(data map[string]any, key string) *float64 {
	v, ok := data[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func anySlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func stringSlice(v any) []string {
	var out []string
	for _, item := range anySlice(v) {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
