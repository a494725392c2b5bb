package extract

import (
	"context"
	"strings"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/semantic"
)

// SocialExtractor runs the keyword patterns over social text only. Social
// chatter is noisy, so it requires at least two hits per theme and scores on
// a flatter curve with a lower cap.
type SocialExtractor struct{}

func NewSocialExtractor() *SocialExtractor { return &SocialExtractor{} }

func (e *SocialExtractor) Name() string { return "social" }

func (e *SocialExtractor) Eligible(profile *model.CompanyProfile) bool {
	return strings.TrimSpace(profile.SocialText) != ""
}

func (e *SocialExtractor) Extract(_ context.Context, profile *model.CompanyProfile, _ *semantic.FilterResult) ([]model.Theme, error) {
	text := profile.SocialText
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var themes []model.Theme
	for theme, hit := range matchKeywords(text) {
		if hit.count < 2 {
			continue
		}
		density := float64(hit.count) / (float64(len(text)) / 1000)
		confidence := 0.25 + density*0.07
		if confidence > 0.75 {
			confidence = 0.75
		}
		themes = append(themes, model.Theme{
			Name:       theme,
			Confidence: round3(confidence),
			Source:     model.MethodSocial,
			Evidence:   hit.evidence,
		})
	}

	sortThemes(themes)
	return themes, nil
}
