package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		brand string
		model string
		kind  string
		color string
		yield int
		high  bool
	}{
		{
			name: "hp toner with yield marker",
			raw:  "HP W1331X toner black 5000 pages",
			brand: "HP", model: "W1331X", kind: "toner", color: "black",
			yield: 5000, high: true,
		},
		{
			name: "canon ink with xl suffix",
			raw:  "Canon PG-545XL ink tri-color",
			brand: "Canon", model: "PG-545XL", kind: "ink", color: "tri-color",
			high: true,
		},
		{
			name: "brother standard yield",
			raw:  "Brother TN-2420 toner",
			brand: "Brother", model: "TN-2420", kind: "toner",
		},
		{
			name: "xerox numeric-first code",
			raw:  "Xerox 106R03480 black",
			brand: "Xerox", model: "106R03480", color: "black",
		},
		{
			name: "german listing with dotted yield",
			raw:  "HP 133A Schwarz Toner 1.200 Seiten",
			brand: "HP", model: "133A", kind: "toner", color: "black",
			yield: 1200,
		},
		{
			name: "unknown brand leaves fields empty",
			raw:  "generic refill kit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := Parse(tt.raw)
			assert.Equal(t, tt.raw, id.Raw)
			assert.Equal(t, tt.brand, id.Brand)
			assert.Equal(t, tt.model, id.Model)
			assert.Equal(t, tt.kind, id.Kind)
			assert.Equal(t, tt.color, id.Color)
			assert.Equal(t, tt.yield, id.YieldPages)
			assert.Equal(t, tt.high, id.HighYield)
		})
	}
}

func TestParse_NormalizesFullWidthInput(t *testing.T) {
	// Full-width characters from marketplace listings fold to ASCII.
	id := Parse("ＨＰ Ｗ１３３１Ｘ")
	assert.Equal(t, "HP", id.Brand)
	assert.Equal(t, "W1331X", id.Model)
}

func TestParse_IsDeterministic(t *testing.T) {
	a := Parse("HP W1331X toner black")
	b := Parse("HP W1331X toner black")
	assert.Equal(t, a, b)
}
