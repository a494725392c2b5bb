package extract

import (
	"context"
	"fmt"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/semantic"
)

// EmbeddingExtractor converts the semantic pre-filter's theme similarity
// scores directly into theme candidates.
type EmbeddingExtractor struct{}

func NewEmbeddingExtractor() *EmbeddingExtractor { return &EmbeddingExtractor{} }

func (e *EmbeddingExtractor) Name() string { return "embedding" }

func (e *EmbeddingExtractor) Eligible(profile *model.CompanyProfile) bool {
	return profile.HasText()
}

func (e *EmbeddingExtractor) Extract(_ context.Context, _ *model.CompanyProfile, filter *semantic.FilterResult) ([]model.Theme, error) {
	if filter == nil {
		return nil, nil
	}

	themes := make([]model.Theme, 0, len(filter.ThemeScores))
	for theme, score := range filter.ThemeScores {
		themes = append(themes, model.Theme{
			Name:       theme,
			Confidence: round3(score),
			Source:     model.MethodEmbedding,
			Evidence:   fmt.Sprintf("Cosine similarity %.3f against theme embedding", score),
		})
	}

	sortThemes(themes)
	return themes, nil
}
