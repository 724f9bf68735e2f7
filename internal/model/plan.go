package model

// Category identifies one research concern in a plan or finding.
type Category string

const (
	CategoryLogistics     Category = "logistics"
	CategoryCompatibility Category = "compatibility"
	CategoryRelated       Category = "related"
	CategoryImages        Category = "images"
	CategoryFAQ           Category = "faq"
)

// AllCategories returns the categories in planning order.
func AllCategories() []Category {
	return []Category{
		CategoryLogistics,
		CategoryCompatibility,
		CategoryRelated,
		CategoryImages,
		CategoryFAQ,
	}
}

// CategoryPlan is the ordered query list for one category.
type CategoryPlan struct {
	Needed    bool     `json:"needed"`
	Escalated bool     `json:"escalated,omitempty"`
	Queries   []string `json:"queries"`
}

// ResearchPlan maps categories to their query lists for one iteration.
type ResearchPlan struct {
	Categories map[Category]CategoryPlan `json:"categories"`
}

// Empty reports whether every category list is empty. An empty plan is a
// loop-terminating signal.
func (p ResearchPlan) Empty() bool {
	for _, cp := range p.Categories {
		if len(cp.Queries) > 0 {
			return false
		}
	}
	return true
}

// Finding is the unique URL set discovered for one category in one
// collector pass.
type Finding struct {
	Category Category `json:"category"`
	URLs     []string `json:"urls"`
}

// SourceTier is the trust class of a source domain. Higher values are more
// trusted.
type SourceTier int

const (
	TierUnknown SourceTier = iota
	TierCMarketplace
	TierBRetailer
	TierAOEM
)

// String returns the wire name of the tier.
func (t SourceTier) String() string {
	switch t {
	case TierAOEM:
		return "tier_a_oem"
	case TierBRetailer:
		return "tier_b_retailer"
	case TierCMarketplace:
		return "tier_c_marketplace"
	default:
		return "unknown"
	}
}
