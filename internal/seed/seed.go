// Package seed parses the raw input query into a product identity before
// any network research happens. The parse is offline and deterministic;
// everything it cannot resolve is left for the research loop.
package seed

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/shelfmetrics/enrich-cli/internal/model"
)

// knownBrands maps lowercase brand tokens to their display names.
var knownBrands = map[string]string{
	"hp":      "HP",
	"canon":   "Canon",
	"brother": "Brother",
	"epson":   "Epson",
	"lexmark": "Lexmark",
	"kyocera": "Kyocera",
	"ricoh":   "Ricoh",
	"xerox":   "Xerox",
	"oki":     "OKI",
	"samsung": "Samsung",
}

var knownColors = map[string]string{
	"black":     "black",
	"cyan":      "cyan",
	"magenta":   "magenta",
	"yellow":    "yellow",
	"tricolor":  "tri-color",
	"tri-color": "tri-color",
	"color":     "color",
	"schwarz":   "black",
	"gelb":      "yellow",
}

var knownKinds = map[string]string{
	"toner":     "toner",
	"cartridge": "cartridge",
	"ink":       "ink",
	"drum":      "drum",
	"ribbon":    "ribbon",
	"printhead": "printhead",
}

// modelCodeRe matches OEM supply codes like W1331X, CF217A, TN-2420,
// 106R03480, or PG-545XL.
var modelCodeRe = regexp.MustCompile(`(?i)\b([A-Z]{1,3}-?[0-9]{2,6}[A-Z]{0,3}|[0-9]{3}[A-Z]{1,2}[0-9]{0,5})\b`)

var yieldRe = regexp.MustCompile(`(?i)\b([0-9][0-9.,]{2,})\s*(?:pages|seiten|p\.)\b`)

// Parse tokenizes a raw query into an identity.
func Parse(raw string) model.Identity {
	id := model.Identity{Raw: strings.TrimSpace(raw)}

	// NFKC folds full-width characters and compatibility forms that show
	// up in copy-pasted marketplace listings.
	normalized := norm.NFKC.String(id.Raw)
	tokens := strings.Fields(normalized)

	for _, tok := range tokens {
		lower := strings.ToLower(strings.Trim(tok, ".,;:()[]"))
		if id.Brand == "" {
			if display, ok := knownBrands[lower]; ok {
				id.Brand = display
				continue
			}
		}
		if id.Color == "" {
			if color, ok := knownColors[lower]; ok {
				id.Color = color
				continue
			}
		}
		if id.Kind == "" {
			if kind, ok := knownKinds[lower]; ok {
				id.Kind = kind
				continue
			}
		}
	}

	if m := modelCodeRe.FindString(normalized); m != "" {
		id.Model = strings.ToUpper(m)
	}

	if m := yieldRe.FindStringSubmatch(normalized); m != nil {
		digits := strings.NewReplacer(",", "", ".", "").Replace(m[1])
		if pages, err := strconv.Atoi(digits); err == nil {
			id.YieldPages = pages
		}
	}

	id.HighYield = isHighYield(normalized, id.Model)
	return id
}

// isHighYield checks the common OEM conventions: an XL marker in the text
// or a model code ending in X or XL.
func isHighYield(text, modelCode string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, " xl") || strings.HasSuffix(lower, "xl") || strings.Contains(lower, "high yield") || strings.Contains(lower, "high-yield") {
		return true
	}
	return strings.HasSuffix(modelCode, "X") || strings.HasSuffix(modelCode, "XL")
}
