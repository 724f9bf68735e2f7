package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmetrics/enrich-cli/internal/model"
)

func completeRecord() *model.EnrichedRecord {
	rec := hpRecord()
	rec.Packaging = &model.Packaging{
		WidthMM: 120, HeightMM: 80, DepthMM: 40, WeightG: 250,
		Sources:    []string{"https://icecat.biz/p/hp/w1331x"},
		Confidence: 0.9,
	}
	rec.Compatibility = model.Compatibility{
		Printers: []string{"HP LaserJet M211dw", "HP LaserJet MFP M236dw", "HP LaserJet MFP M236sdw"},
		Sources: []string{
			"https://www.staples.com/product/123",
			"https://www.officedepot.com/a/products/456",
		},
		Trusted: true,
	}
	rec.Related = []model.RelatedItem{{Name: "HP 133A", URL: "https://www.hp.com/supplies/w1330a"}}
	rec.FAQ = []model.FAQEntry{{Question: "What is the page yield?", Answer: "About 5000 pages."}}
	rec.Images = []model.ImageCandidate{{
		URL: "https://cdn.hp.com/w1331x.jpg", Width: 1600, Height: 1600, BackgroundScore: 0.9,
	}}
	return rec
}

func TestIsValidationSatisfied_CompleteRecord(t *testing.T) {
	assert.True(t, IsValidationSatisfied(completeRecord()))
}

func TestIsValidationSatisfied_EachFieldRequired(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.EnrichedRecord)
	}{
		{"no packaging", func(r *model.EnrichedRecord) { r.Packaging = nil }},
		{"no printers", func(r *model.EnrichedRecord) { r.Compatibility.Printers = nil }},
		{"no faq", func(r *model.EnrichedRecord) { r.FAQ = nil }},
		{"no related", func(r *model.EnrichedRecord) { r.Related = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := completeRecord()
			tt.mutate(rec)
			assert.False(t, IsValidationSatisfied(rec))
		})
	}
}

func TestEvaluate_CompleteRecordIsPublishReady(t *testing.T) {
	gate := NewGate(NewTierClassifier(testSourceConfig()))

	report := gate.Evaluate(completeRecord())

	assert.Empty(t, report.BlockingIssues)
	assert.GreaterOrEqual(t, report.OverallScore, 0.7)
	assert.True(t, report.PublishReady)
	assert.Equal(t, 1.0, report.Completeness)
	assert.Equal(t, 1.0, report.MarketCompliance)
}

func TestEvaluate_EmptyRecordBlocks(t *testing.T) {
	gate := NewGate(NewTierClassifier(testSourceConfig()))

	rec := model.NewRecord(model.Identity{Raw: "HP W1331X"})

	report := gate.Evaluate(rec)

	assert.False(t, report.PublishReady)
	require.NotEmpty(t, report.BlockingIssues)
	assert.Equal(t, 0.0, report.Completeness)
	assert.Equal(t, 0.0, report.SourceReliability)
}

func TestEvaluate_UntrustedCompatibilityBlocks(t *testing.T) {
	gate := NewGate(NewTierClassifier(testSourceConfig()))

	rec := completeRecord()
	rec.Compatibility.Trusted = false
	rec.Compatibility.NeedsReview = true

	report := gate.Evaluate(rec)

	assert.False(t, report.PublishReady)
	found := false
	for _, issue := range report.BlockingIssues {
		if issue == "compatibility: printer list lacks trusted sourcing" {
			found = true
		}
	}
	assert.True(t, found, "expected untrusted compatibility blocking issue, got %v", report.BlockingIssues)
	assert.Equal(t, 0.4, report.MarketCompliance)
}

func TestScoreImage(t *testing.T) {
	tests := []struct {
		name string
		img  model.ImageCandidate
		want float64
	}{
		{
			"high res clean background",
			model.ImageCandidate{Width: 1600, Height: 1600, BackgroundScore: 1.0},
			1.0,
		},
		{
			"mid res",
			model.ImageCandidate{Width: 1000, Height: 1200, BackgroundScore: 0.5},
			0.65,
		},
		{
			"penalties stack",
			model.ImageCandidate{Width: 1600, Height: 1600, BackgroundScore: 1.0, HasWatermark: true, HasLogo: true},
			0.6,
		},
		{
			"tiny image floors near zero",
			model.ImageCandidate{Width: 200, Height: 200, HasPackaging: true},
			0.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreImage(tt.img), 1e-9)
		})
	}
}

func TestEvaluate_ImageScoreUsesBestCandidate(t *testing.T) {
	gate := NewGate(NewTierClassifier(testSourceConfig()))

	rec := completeRecord()
	rec.Images = []model.ImageCandidate{
		{URL: "https://a.example.com/1.jpg", Width: 200, Height: 200},
		{URL: "https://a.example.com/2.jpg", Width: 1600, Height: 1600, BackgroundScore: 1.0},
	}

	report := gate.Evaluate(rec)
	assert.Equal(t, 1.0, report.ImageScore)
}

func TestManualEffort_CapAndAddOns(t *testing.T) {
	gate := NewGate(NewTierClassifier(testSourceConfig()))

	rec := model.NewRecord(model.Identity{Raw: "unknown cartridge"})
	report := gate.Evaluate(rec)

	// 3 blocking issues, several recommendations, plus the image add-on.
	assert.Greater(t, report.ManualEffortMin, 0)
	assert.LessOrEqual(t, report.ManualEffortMin, 120)

	complete := gate.Evaluate(completeRecord())
	assert.Less(t, complete.ManualEffortMin, report.ManualEffortMin)
}

func TestEvaluate_SourceReliabilityWeighsTiers(t *testing.T) {
	gate := NewGate(NewTierClassifier(testSourceConfig()))

	rec := completeRecord()
	rec.Packaging.Sources = []string{"https://www.hp.com/supplies/w1331x"}
	rec.Compatibility.Sources = []string{"https://www.hp.com/compat/w1331x"}
	allOEM := gate.Evaluate(rec)
	assert.Equal(t, 1.0, allOEM.SourceReliability)

	rec.Packaging.Sources = []string{"https://www.amazon.com/dp/B0TEST"}
	rec.Compatibility.Sources = []string{"https://www.ebay.com/itm/123"}
	marketplace := gate.Evaluate(rec)
	assert.InDelta(t, 0.4, marketplace.SourceReliability, 1e-9)
}
