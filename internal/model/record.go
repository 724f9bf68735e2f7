// Package model defines the enriched product record and the supporting
// types that flow through the research loop.
package model

// AutomationStatus is the final disposition of a research run.
type AutomationStatus string

const (
	StatusNeedsReview AutomationStatus = "needs_review"
	StatusDone        AutomationStatus = "done"
	StatusFailed      AutomationStatus = "failed"
)

// Mode selects a budget triple for a run.
type Mode string

const (
	ModeFast       Mode = "fast"
	ModeStandard   Mode = "standard"
	ModeExhaustive Mode = "exhaustive"
)

// Budget is the run-scoped ceiling set. Immutable once a run starts.
type Budget struct {
	TimeMS        int64 `json:"time_ms"`
	MaxCalls      int   `json:"max_calls"`
	MaxSources    int   `json:"max_sources"`
	QueryCap      int   `json:"query_cap"`
	BaseURLLimit  int   `json:"base_url_limit"`
	StrictSources bool  `json:"strict_sources"`
}

// Identity holds the raw input query plus the offline-seeded guesses.
type Identity struct {
	Raw        string `json:"raw"`
	Brand      string `json:"brand,omitempty"`
	Model      string `json:"model,omitempty"`
	Kind       string `json:"kind,omitempty"` // toner, ink, drum, ribbon
	Color      string `json:"color,omitempty"`
	YieldPages int    `json:"yield_pages,omitempty"`
	HighYield  bool   `json:"high_yield,omitempty"`
}

// Evidence ties one extracted field value to its sources.
type Evidence struct {
	Field          string   `json:"field"`
	Value          string   `json:"value"`
	Sources        []string `json:"sources"`
	Confidence     float64  `json:"confidence"`
	Method         string   `json:"method"`
	LowTrustSource bool     `json:"low_trust_source,omitempty"`
}

// Packaging holds shipping dimensions and weight. It is written once per
// run; later confirmations only append evidence sources.
type Packaging struct {
	WidthMM        float64  `json:"width_mm"`
	HeightMM       float64  `json:"height_mm"`
	DepthMM        float64  `json:"depth_mm"`
	WeightG        float64  `json:"weight_g"`
	Sources        []string `json:"sources"`
	Confidence     float64  `json:"confidence"`
	NotFound       bool     `json:"not_found,omitempty"`
	LowTrustSource bool     `json:"low_trust_source,omitempty"`
}

// Compatibility is the printer list with its trust state. The printer set
// only grows; trust is recomputed over the evidence union on every merge.
type Compatibility struct {
	Printers    []string `json:"printers"`
	Sources     []string `json:"sources"`
	Trusted     bool     `json:"trusted"`
	NeedsReview bool     `json:"needs_review"`
	Notes       []string `json:"notes,omitempty"`
}

// RelatedItem is a sibling or alternative product.
type RelatedItem struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// ImageCandidate is a product image with validation signals.
type ImageCandidate struct {
	URL             string  `json:"url"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	BackgroundScore float64 `json:"background_score,omitempty"`
	HasPackaging    bool    `json:"has_packaging,omitempty"`
	HasWatermark    bool    `json:"has_watermark,omitempty"`
	HasLogo         bool    `json:"has_logo,omitempty"`
}

// FAQEntry is a question/answer pair sourced from the web.
type FAQEntry struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources,omitempty"`
}

// RunStats tracks live counters for budget accounting.
type RunStats struct {
	Iterations   int   `json:"iterations"`
	SearchCalls  int   `json:"search_calls"`
	ExtractCalls int   `json:"extract_calls"`
	SourcesSeen  int   `json:"sources_seen"`
	ElapsedMS    int64 `json:"elapsed_ms"`
}

// RunMeta is the run metadata embedded in the record.
type RunMeta struct {
	RunID    string   `json:"run_id"`
	Mode     Mode     `json:"mode"`
	Locale   string   `json:"locale,omitempty"`
	Budget   Budget   `json:"budget"`
	Stats    RunStats `json:"stats"`
	Warnings []string `json:"warnings,omitempty"`
}

// EnrichedRecord is the structured, evidence-backed output for one query.
// It is created empty at run start, seeded from the offline parse, mutated
// only by the merger inside the loop, and immutable once returned.
type EnrichedRecord struct {
	Identity      Identity         `json:"identity"`
	Packaging     *Packaging       `json:"packaging,omitempty"`
	Compatibility Compatibility    `json:"compatibility"`
	Related       []RelatedItem    `json:"related,omitempty"`
	Images        []ImageCandidate `json:"images,omitempty"`
	FAQ           []FAQEntry       `json:"faq,omitempty"`
	Meta          RunMeta          `json:"meta"`
	Status        AutomationStatus `json:"automation_status"`
}

// NewRecord creates an empty record seeded with the given identity.
func NewRecord(id Identity) *EnrichedRecord {
	return &EnrichedRecord{
		Identity: id,
		Status:   StatusNeedsReview,
	}
}

// AppendUnique appends the given values to dst, skipping any already
// present. Order of first appearance is preserved.
func AppendUnique(dst []string, values ...string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
