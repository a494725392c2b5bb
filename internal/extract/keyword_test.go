package extract

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stock-themes/internal/model"
)

func TestKeywordDensityScoring(t *testing.T) {
	e := NewKeywordExtractor()
	// Exactly 500 characters with two matches for the artificial intelligence
	// pattern set: density 2/0.5 = 4, confidence 0.35 + 4*0.08 = 0.67.
	text := "artificial intelligence and machine learning " + strings.Repeat("z", 455)
	require.Len(t, text, 500)
	profile := &model.CompanyProfile{Ticker: "AITK", BusinessDescription: text}

	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)

	require.Len(t, themes, 1)
	assert.Equal(t, "artificial intelligence", themes[0].Name)
	assert.Equal(t, 0.67, themes[0].Confidence)
	assert.Equal(t, model.MethodKeywordNLP, themes[0].Source)
	assert.Contains(t, themes[0].Evidence, "artificial intelligence")
}

func TestKeywordConfidenceCapped(t *testing.T) {
	e := NewKeywordExtractor()
	profile := &model.CompanyProfile{
		Ticker:          "DENS",
		BusinessSummary: strings.Repeat("blockchain ", 20),
	}

	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)

	require.Len(t, themes, 1)
	assert.Equal(t, "blockchain", themes[0].Name)
	assert.Equal(t, 0.9, themes[0].Confidence)
}

func TestKeywordNoTextNoThemes(t *testing.T) {
	e := NewKeywordExtractor()
	profile := &model.CompanyProfile{Ticker: "EMPT"}

	assert.False(t, e.Eligible(profile))
	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)
	assert.Empty(t, themes)
}

func TestKeywordCombinesAllTextFields(t *testing.T) {
	e := NewKeywordExtractor()
	profile := &model.CompanyProfile{
		Ticker:              "COMB",
		BusinessDescription: "We operate a cybersecurity platform.",
		RiskFactors:         "Our encryption products face competition.",
	}

	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)

	// Both fields contribute matches to the same theme.
	require.Len(t, themes, 1)
	assert.Equal(t, "cybersecurity", themes[0].Name)
}

func TestKeywordEvidenceWindowKeepsRuneBoundary(t *testing.T) {
	// The 40-byte window start lands inside a 2-byte rune; the boundary must
	// snap to a rune start instead of emitting invalid UTF-8.
	text := strings.Repeat("é", 25) + " artificial intelligence systems"

	hits := matchKeywords(text)

	match, ok := hits["artificial intelligence"]
	require.True(t, ok)
	assert.True(t, utf8.ValidString(match.evidence))
	assert.Contains(t, match.evidence, "artificial intelligence")
}

func TestSocialRequiresTwoMatches(t *testing.T) {
	e := NewSocialExtractor()
	profile := &model.CompanyProfile{
		Ticker: "COIN",
		// bitcoin twice (cryptocurrency), solar power once (dropped).
		SocialText: "bitcoin breaking out, bitcoin to new highs, solar power play",
	}

	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)

	require.Len(t, themes, 1)
	assert.Equal(t, "cryptocurrency", themes[0].Name)
	assert.Equal(t, model.MethodSocial, themes[0].Source)
}

func TestSocialConfidenceCapped(t *testing.T) {
	e := NewSocialExtractor()
	profile := &model.CompanyProfile{
		Ticker:     "HYPE",
		SocialText: strings.Repeat("bitcoin ", 10),
	}

	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)

	require.Len(t, themes, 1)
	assert.Equal(t, 0.75, themes[0].Confidence)
}

func TestSocialIgnoresOtherTextFields(t *testing.T) {
	e := NewSocialExtractor()
	profile := &model.CompanyProfile{
		Ticker:              "DESC",
		BusinessDescription: "bitcoin bitcoin bitcoin",
	}

	assert.False(t, e.Eligible(profile))
	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)
	assert.Empty(t, themes)
}
