// Package extract implements the individual theme extractors and the ensemble
// that merges their candidates into a ranked result.
package extract

import (
	"context"
	"math"
	"sort"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/semantic"
)

// Extractor is one independent theme-extraction strategy. Implementations must
// be safe for concurrent use across tickers.
type Extractor interface {
	Name() string
	// Eligible reports whether the extractor has the inputs it needs for this
	// profile. Ineligible extractors are skipped, not failed.
	Eligible(profile *model.CompanyProfile) bool
	Extract(ctx context.Context, profile *model.CompanyProfile, filter *semantic.FilterResult) ([]model.Theme, error)
}

// round3 rounds to three decimal places, the precision used for all
// confidence values.
func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// sortThemes orders by confidence descending, breaking ties by name ascending
// so output is deterministic.
func sortThemes(themes []model.Theme) {
	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Confidence != themes[j].Confidence {
			return themes[i].Confidence > themes[j].Confidence
		}
		return themes[i].Name < themes[j].Name
	})
}
