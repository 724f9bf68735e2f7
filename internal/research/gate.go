package research

import (
	"github.com/shelfmetrics/enrich-cli/internal/model"
)

// Fixed weights of the publication-readiness score.
const (
	weightCompleteness = 0.40
	weightDataQuality  = 0.25
	weightMarket       = 0.15
	weightImages       = 0.10
	weightSources      = 0.10

	publishThreshold = 0.7
)

// Manual-effort estimate parameters, in minutes.
const (
	effortPerBlocking       = 15
	effortPerRecommendation = 5
	effortImageSourcing     = 10
	effortCap               = 120
)

// GateReport is the QualityGate's assessment of an accumulated record.
// The overall score and publish flag drive operator triage only; loop
// termination uses IsValidationSatisfied.
type GateReport struct {
	OverallScore      float64  `json:"overall_score"`
	Completeness      float64  `json:"completeness"`
	DataQuality       float64  `json:"data_quality"`
	MarketCompliance  float64  `json:"market_compliance"`
	ImageScore        float64  `json:"image_score"`
	SourceReliability float64  `json:"source_reliability"`
	BlockingIssues    []string `json:"blocking_issues,omitempty"`
	Recommendations   []string `json:"recommendations,omitempty"`
	PublishReady      bool     `json:"publish_ready"`
	ManualEffortMin   int      `json:"manual_effort_min"`
}

// IsValidationSatisfied is the loop-termination check: the record is
// complete when packaging, at least one compatible printer, at least one
// FAQ entry, and related items are all present.
func IsValidationSatisfied(rec *model.EnrichedRecord) bool {
	return rec.Packaging != nil &&
		len(rec.Compatibility.Printers) > 0 &&
		len(rec.FAQ) > 0 &&
		len(rec.Related) > 0
}

// Gate scores records for publication readiness.
type Gate struct {
	tiers *TierClassifier
}

// NewGate creates a Gate.
func NewGate(tiers *TierClassifier) *Gate {
	return &Gate{tiers: tiers}
}

// Evaluate computes the weighted readiness score, blocking issues, and
// the manual-effort estimate for a record.
func (g *Gate) Evaluate(rec *model.EnrichedRecord) GateReport {
	report := GateReport{
		Completeness:      g.completenessScore(rec),
		DataQuality:       g.dataQualityScore(rec),
		MarketCompliance:  g.marketScore(rec),
		ImageScore:        g.imageScore(rec),
		SourceReliability: g.sourceScore(rec),
	}

	report.OverallScore = report.Completeness*weightCompleteness +
		report.DataQuality*weightDataQuality +
		report.MarketCompliance*weightMarket +
		report.ImageScore*weightImages +
		report.SourceReliability*weightSources

	report.BlockingIssues = g.blockingIssues(rec)
	report.Recommendations = g.recommendations(rec, report)
	report.PublishReady = report.OverallScore >= publishThreshold && len(report.BlockingIssues) == 0
	report.ManualEffortMin = g.manualEffort(rec, report)

	return report
}

func (g *Gate) completenessScore(rec *model.EnrichedRecord) float64 {
	checks := []bool{
		rec.Identity.Brand != "" && rec.Identity.Model != "",
		rec.Packaging != nil,
		len(rec.Compatibility.Printers) > 0,
		len(rec.Related) > 0,
		len(rec.FAQ) > 0,
	}
	present := 0
	for _, ok := range checks {
		if ok {
			present++
		}
	}
	return float64(present) / float64(len(checks))
}

// dataQualityScore averages per-component confidence over the components
// that are actually populated.
func (g *Gate) dataQualityScore(rec *model.EnrichedRecord) float64 {
	var scores []float64
	if rec.Packaging != nil {
		scores = append(scores, clamp01(rec.Packaging.Confidence))
	}
	if len(rec.Compatibility.Printers) > 0 {
		if rec.Compatibility.Trusted {
			scores = append(scores, 1.0)
		} else {
			scores = append(scores, 0.4)
		}
	}
	if len(rec.Related) > 0 {
		scores = append(scores, 0.7)
	}
	if len(rec.FAQ) > 0 {
		scores = append(scores, 0.7)
	}
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func (g *Gate) marketScore(rec *model.EnrichedRecord) float64 {
	if len(rec.Compatibility.Printers) == 0 {
		return 0
	}
	if rec.Compatibility.Trusted && !rec.Compatibility.NeedsReview {
		return 1.0
	}
	return 0.4
}

// imageScore takes the best candidate: a resolution tier on the shorter
// side, plus the background score at weight 0.3, minus penalties for
// packaging shots, watermarks, and reseller logos.
func (g *Gate) imageScore(rec *model.EnrichedRecord) float64 {
	best := 0.0
	for _, img := range rec.Images {
		best = max(best, scoreImage(img))
	}
	return best
}

func scoreImage(img model.ImageCandidate) float64 {
	minSide := min(img.Width, img.Height)
	var score float64
	switch {
	case minSide >= 1500:
		score = 0.7
	case minSide >= 1000:
		score = 0.5
	case minSide >= 500:
		score = 0.3
	default:
		score = 0.1
	}
	score += clamp01(img.BackgroundScore) * 0.3
	if img.HasPackaging {
		score -= 0.2
	}
	if img.HasWatermark {
		score -= 0.2
	}
	if img.HasLogo {
		score -= 0.2
	}
	return clamp01(score)
}

// sourceScore averages tier weights over all evidence URLs on the record.
func (g *Gate) sourceScore(rec *model.EnrichedRecord) float64 {
	var urls []string
	if rec.Packaging != nil {
		urls = append(urls, rec.Packaging.Sources...)
	}
	urls = append(urls, rec.Compatibility.Sources...)
	if len(urls) == 0 {
		return 0
	}
	sum := 0.0
	for _, u := range urls {
		switch g.tiers.Classify(u, rec.Identity.Brand) {
		case model.TierAOEM:
			sum += 1.0
		case model.TierBRetailer:
			sum += 0.8
		case model.TierCMarketplace:
			sum += 0.4
		default:
			sum += 0.2
		}
	}
	return sum / float64(len(urls))
}

func (g *Gate) blockingIssues(rec *model.EnrichedRecord) []string {
	var issues []string
	if rec.Identity.Brand == "" || rec.Identity.Model == "" {
		issues = append(issues, "identity: brand or model not resolved")
	}
	if rec.Packaging == nil {
		issues = append(issues, "packaging: dimensions and weight missing")
	}
	if len(rec.Compatibility.Printers) == 0 {
		issues = append(issues, "compatibility: no printers found")
	} else if !rec.Compatibility.Trusted {
		issues = append(issues, "compatibility: printer list lacks trusted sourcing")
	}
	return issues
}

func (g *Gate) recommendations(rec *model.EnrichedRecord, report GateReport) []string {
	var recs []string
	if len(rec.Images) == 0 {
		recs = append(recs, "source product images")
	} else if report.ImageScore < publishThreshold {
		recs = append(recs, "replace images with higher resolution clean-background shots")
	}
	if rec.Packaging != nil && rec.Packaging.LowTrustSource {
		recs = append(recs, "verify packaging data against a catalog source")
	}
	if len(rec.Related) == 0 {
		recs = append(recs, "add related products")
	}
	if len(rec.FAQ) == 0 {
		recs = append(recs, "add FAQ entries")
	}
	return recs
}

func (g *Gate) manualEffort(rec *model.EnrichedRecord, report GateReport) int {
	effort := effortPerBlocking*len(report.BlockingIssues) +
		effortPerRecommendation*len(report.Recommendations)
	if len(rec.Images) == 0 {
		effort += effortImageSourcing
	}
	if effort > effortCap {
		effort = effortCap
	}
	return effort
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
