package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeResolvesAliases(t *testing.T) {
	assert.Equal(t, "artificial intelligence", Normalize("AI"))
	assert.Equal(t, "artificial intelligence", Normalize("  Deep Learning "))
	assert.Equal(t, "electric vehicles", Normalize("EVs"))
}

func TestNormalizePassesThroughUnknown(t *testing.T) {
	assert.Equal(t, "vertical farming drones", Normalize("Vertical Farming Drones"))
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, name := range []string{"AI", "cloud", "Something New"} {
		once := Normalize(name)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "technology", Category("AI"))
	assert.Empty(t, Category("no such theme"))
}

func TestThemesSortedAndDescribed(t *testing.T) {
	names := Themes()
	assert.True(t, len(names) >= 30)
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
	// Every theme needs a description for the embedding pre-filter.
	for _, name := range names {
		assert.NotEmpty(t, Description(name), name)
	}
}

func TestSICThemes(t *testing.T) {
	assert.Contains(t, SICThemes("7372"), "software")
	assert.Empty(t, SICThemes("0000"))
}

func TestCPCThemesPrefixFallback(t *testing.T) {
	// Full code misses, 4-char prefix G06N hits.
	assert.Contains(t, CPCThemes("G06N3/08"), "artificial intelligence")
	// 3-char prefix fallback.
	assert.NotEmpty(t, CPCThemes("H01M4/62"))
	assert.Empty(t, CPCThemes("Z99Z"))
}

func TestGDELTThemePrefixMatch(t *testing.T) {
	theme, ok := GDELTTheme("TAX_AI")
	assert.True(t, ok)
	assert.Equal(t, "artificial intelligence", theme)

	theme, ok = GDELTTheme("tax_ai_deeplearning")
	assert.True(t, ok)
	assert.Equal(t, "artificial intelligence", theme)

	_, ok = GDELTTheme("UNRELATED_CODE")
	assert.False(t, ok)
}

func TestBlocked(t *testing.T) {
	assert.True(t, Blocked("technology"))
	assert.False(t, Blocked("artificial intelligence"))
}
