package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/semantic"
	"github.com/sells-group/stock-themes/internal/taxonomy"
)

// SICExtractor maps SEC SIC codes and provider sector/industry labels to
// themes via the static classification table.
type SICExtractor struct{}

func NewSICExtractor() *SICExtractor { return &SICExtractor{} }

func (e *SICExtractor) Name() string { return "sic" }

func (e *SICExtractor) Eligible(profile *model.CompanyProfile) bool {
	return profile.SICCode != "" || profile.Sector != "" || profile.Industry != ""
}

func (e *SICExtractor) Extract(_ context.Context, profile *model.CompanyProfile, _ *semantic.FilterResult) ([]model.Theme, error) {
	var themes []model.Theme
	seen := make(map[string]bool)

	add := func(name string, confidence float64, evidence string) {
		if seen[name] {
			return
		}
		themes = append(themes, model.Theme{
			Name:       name,
			Confidence: confidence,
			Source:     model.MethodSICMapping,
			Evidence:   evidence,
		})
		seen[name] = true
	}

	if sic := strings.TrimSpace(profile.SICCode); sic != "" {
		for _, name := range taxonomy.SICThemes(sic) {
			add(name, 0.65, fmt.Sprintf("SIC code %s", sic))
		}

		// Broader 2-digit industry group, e.g. 7372 falls back to 7300.
		if len(sic) >= 2 {
			prefix := sic[:2] + "00"
			if prefix != sic {
				for _, name := range taxonomy.SICThemes(prefix) {
					add(name, 0.4, fmt.Sprintf("SIC prefix %sxx", sic[:2]))
				}
			}
		}
	}

	if profile.Sector != "" {
		add(strings.ToLower(profile.Sector), 0.5, "Yahoo Finance sector")
	}
	if profile.Industry != "" {
		add(strings.ToLower(profile.Industry), 0.55, "Yahoo Finance industry")
	}

	return themes, nil
}
