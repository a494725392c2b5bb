package extract

import (
	"context"
	"fmt"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/semantic"
	"github.com/sells-group/stock-themes/internal/taxonomy"
)

// NewsExtractor maps GDELT theme codes from news coverage to canonical themes.
// Confidence blends a theme's relative frequency with its article coverage.
type NewsExtractor struct{}

func NewNewsExtractor() *NewsExtractor { return &NewsExtractor{} }

func (e *NewsExtractor) Name() string { return "news" }

func (e *NewsExtractor) Eligible(profile *model.CompanyProfile) bool {
	return len(profile.NewsThemes) > 0
}

func (e *NewsExtractor) Extract(_ context.Context, profile *model.CompanyProfile, _ *semantic.FilterResult) ([]model.Theme, error) {
	if len(profile.NewsThemes) == 0 {
		return nil, nil
	}

	counts := make(map[string]int)
	for _, code := range profile.NewsThemes {
		if theme, ok := taxonomy.GDELTTheme(code); ok {
			counts[theme]++
		}
	}
	if len(counts) == 0 {
		return nil, nil
	}

	totalArticles := len(profile.NewsTitles)
	if totalArticles == 0 {
		totalArticles = 1
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	themes := make([]model.Theme, 0, len(counts))
	for theme, count := range counts {
		coverage := float64(count) / float64(totalArticles)
		if coverage > 0.15 {
			coverage = 0.15
		}
		confidence := 0.25 + (float64(count)/float64(maxCount))*0.3 + coverage
		if confidence > 0.8 {
			confidence = 0.8
		}
		themes = append(themes, model.Theme{
			Name:       theme,
			Confidence: round3(confidence),
			Source:     model.MethodNews,
			Evidence:   fmt.Sprintf("Mentioned in %d GDELT articles", count),
		})
	}

	sortThemes(themes)
	return themes, nil
}
