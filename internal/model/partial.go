package model

// PackagingPartial carries the packaging fields an extraction actually
// reported. Pointer fields distinguish "not reported" from zero.
type PackagingPartial struct {
	WidthMM  *float64 `json:"width_mm,omitempty"`
	HeightMM *float64 `json:"height_mm,omitempty"`
	DepthMM  *float64 `json:"depth_mm,omitempty"`
	WeightG  *float64 `json:"weight_g,omitempty"`
}

// Reported returns true if at least one field was actually present in the
// extraction output.
func (p PackagingPartial) Reported() bool {
	return p.WidthMM != nil || p.HeightMM != nil || p.DepthMM != nil || p.WeightG != nil
}

// Partial is one category's extraction result for a single iteration.
// Exactly one of the payload sections is populated, tagged by Category;
// the merger folds it into the record field by field.
type Partial struct {
	Category   Category          `json:"category"`
	Packaging  *PackagingPartial `json:"packaging,omitempty"`
	Printers   []string          `json:"printers,omitempty"`
	Related    []RelatedItem     `json:"related,omitempty"`
	Images     []ImageCandidate  `json:"images,omitempty"`
	FAQ        []FAQEntry        `json:"faq,omitempty"`
	Sources    []string          `json:"sources"`
	Confidence float64           `json:"confidence"`
	Method     string            `json:"method"`
	LowTrust   bool              `json:"low_trust,omitempty"`
}

// Empty reports whether the partial carries no usable payload.
func (p Partial) Empty() bool {
	switch p.Category {
	case CategoryLogistics:
		return p.Packaging == nil || !p.Packaging.Reported()
	case CategoryCompatibility:
		return len(p.Printers) == 0
	case CategoryRelated:
		return len(p.Related) == 0
	case CategoryImages:
		return len(p.Images) == 0
	case CategoryFAQ:
		return len(p.FAQ) == 0
	default:
		return true
	}
}
