package research

import (
	"strings"

	"go.uber.org/zap"

	"github.com/shelfmetrics/enrich-cli/internal/model"
)

const untrustedNote = "compatibility sources below consensus threshold (need 1 OEM or 2 distinct retailer domains)"

// Merger reconciles per-iteration partials into the accumulated record.
// It is the record's only writer inside the loop; callers must invoke
// Merge sequentially.
type Merger struct {
	tiers *TierClassifier
}

// NewMerger creates a Merger over the given classifier.
func NewMerger(tiers *TierClassifier) *Merger {
	return &Merger{tiers: tiers}
}

// Trusted applies the consensus rule to an evidence URL set: trusted iff
// it contains at least one Tier A URL or at least two distinct Tier B
// registrable domains.
func (m *Merger) Trusted(urls []string, brand string) bool {
	tierBDomains := make(map[string]struct{})
	for _, u := range urls {
		switch m.tiers.Classify(u, brand) {
		case model.TierAOEM:
			return true
		case model.TierBRetailer:
			tierBDomains[RegistrableDomain(u)] = struct{}{}
		}
	}
	return len(tierBDomains) >= 2
}

// Merge folds one partial into the record. Evidence is never discarded:
// URL sets are append-only and deduplicated, packaging is written once,
// the printer set only grows, related and FAQ are written once, images
// accumulate. Returns true if the record changed.
func (m *Merger) Merge(rec *model.EnrichedRecord, p model.Partial) bool {
	if p.Empty() {
		return false
	}

	switch p.Category {
	case model.CategoryLogistics:
		return m.mergeLogistics(rec, p)
	case model.CategoryCompatibility:
		return m.mergeCompatibility(rec, p)
	case model.CategoryRelated:
		if len(rec.Related) > 0 {
			return false
		}
		rec.Related = p.Related
		return true
	case model.CategoryFAQ:
		if len(rec.FAQ) > 0 {
			return false
		}
		rec.FAQ = p.FAQ
		return true
	case model.CategoryImages:
		return m.mergeImages(rec, p)
	default:
		return false
	}
}

func (m *Merger) mergeLogistics(rec *model.EnrichedRecord, p model.Partial) bool {
	if rec.Packaging != nil {
		// Written once per run; later confirmations only add evidence URLs.
		before := len(rec.Packaging.Sources)
		rec.Packaging.Sources = model.AppendUnique(rec.Packaging.Sources, p.Sources...)
		return len(rec.Packaging.Sources) != before
	}

	pkg := &model.Packaging{
		Sources:        model.AppendUnique(nil, p.Sources...),
		Confidence:     p.Confidence,
		LowTrustSource: p.LowTrust,
	}
	if p.Packaging.WidthMM != nil {
		pkg.WidthMM = *p.Packaging.WidthMM
	}
	if p.Packaging.HeightMM != nil {
		pkg.HeightMM = *p.Packaging.HeightMM
	}
	if p.Packaging.DepthMM != nil {
		pkg.DepthMM = *p.Packaging.DepthMM
	}
	if p.Packaging.WeightG != nil {
		pkg.WeightG = *p.Packaging.WeightG
	}
	rec.Packaging = pkg
	return true
}

func (m *Merger) mergeCompatibility(rec *model.EnrichedRecord, p model.Partial) bool {
	comp := &rec.Compatibility
	wasTrusted := comp.Trusted
	before := len(comp.Printers) + len(comp.Sources)

	for _, printer := range p.Printers {
		printer = strings.TrimSpace(printer)
		if printer == "" || containsFold(comp.Printers, printer) {
			continue
		}
		comp.Printers = append(comp.Printers, printer)
	}
	comp.Sources = model.AppendUnique(comp.Sources, p.Sources...)

	// Trust is recomputed over the union of old and new evidence. An
	// upgrade is wholesale: once the union is trusted, the whole printer
	// set rides on it.
	nowTrusted := m.Trusted(comp.Sources, rec.Identity.Brand)
	switch {
	case nowTrusted:
		comp.Trusted = true
		comp.NeedsReview = false
		comp.Notes = removeNote(comp.Notes, untrustedNote)
		if !wasTrusted {
			zap.L().Info("consensus: compatibility trust upgraded",
				zap.Int("printers", len(comp.Printers)),
				zap.Int("sources", len(comp.Sources)),
			)
		}
	default:
		// Merge anyway, but flag for review with an explanatory note:
		// recall is kept, trust is gated.
		comp.Trusted = false
		comp.NeedsReview = true
		if !containsFold(comp.Notes, untrustedNote) {
			comp.Notes = append(comp.Notes, untrustedNote)
		}
	}

	return len(comp.Printers)+len(comp.Sources) != before || wasTrusted != comp.Trusted
}

func (m *Merger) mergeImages(rec *model.EnrichedRecord, p model.Partial) bool {
	existing := make(map[string]struct{}, len(rec.Images))
	for _, img := range rec.Images {
		existing[img.URL] = struct{}{}
	}
	changed := false
	for _, img := range p.Images {
		if img.URL == "" {
			continue
		}
		if _, ok := existing[img.URL]; ok {
			continue
		}
		existing[img.URL] = struct{}{}
		rec.Images = append(rec.Images, img)
		changed = true
	}
	return changed
}

// AppendExclusionNote records why a compatibility extraction was rejected.
func (m *Merger) AppendExclusionNote(rec *model.EnrichedRecord, note string) {
	if note == "" || containsFold(rec.Compatibility.Notes, note) {
		return
	}
	rec.Compatibility.Notes = append(rec.Compatibility.Notes, note)
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func removeNote(notes []string, note string) []string {
	out := notes[:0]
	for _, n := range notes {
		if !strings.EqualFold(n, note) {
			out = append(out, n)
		}
	}
	return out
}
