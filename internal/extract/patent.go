package extract

import (
	"context"
	"fmt"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/semantic"
	"github.com/sells-group/stock-themes/internal/taxonomy"
)

// PatentExtractor maps a portfolio's CPC classification codes to technology
// themes. Confidence blends a theme's share of the portfolio with a volume
// bonus for larger portfolios.
type PatentExtractor struct{}

func NewPatentExtractor() *PatentExtractor { return &PatentExtractor{} }

func (e *PatentExtractor) Name() string { return "patent" }

func (e *PatentExtractor) Eligible(profile *model.CompanyProfile) bool {
	return len(profile.PatentCPCCodes) > 0
}

func (e *PatentExtractor) Extract(_ context.Context, profile *model.CompanyProfile, _ *semantic.FilterResult) ([]model.Theme, error) {
	if len(profile.PatentCPCCodes) == 0 {
		return nil, nil
	}

	counts := make(map[string]int)
	for _, code := range profile.PatentCPCCodes {
		for _, theme := range taxonomy.CPCThemes(code) {
			counts[theme]++
		}
	}
	if len(counts) == 0 {
		return nil, nil
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	totalPatents := profile.PatentCount
	if totalPatents == 0 {
		totalPatents = len(profile.PatentCPCCodes)
	}
	volumeBonus := float64(totalPatents) / 500
	if volumeBonus > 0.2 {
		volumeBonus = 0.2
	}

	themes := make([]model.Theme, 0, len(counts))
	for theme, count := range counts {
		confidence := 0.3 + (float64(count)/float64(maxCount))*0.35 + volumeBonus
		if confidence > 0.85 {
			confidence = 0.85
		}
		themes = append(themes, model.Theme{
			Name:       theme,
			Confidence: round3(confidence),
			Source:     model.MethodPatent,
			Evidence:   fmt.Sprintf("%d patents with matching CPC codes (of %d total)", count, totalPatents),
		})
	}

	sortThemes(themes)
	return themes, nil
}
