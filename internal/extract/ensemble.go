package extract

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/semantic"
	"github.com/sells-group/stock-themes/internal/taxonomy"
)

const (
	multiSourceBonus    = 0.05 // per additional confirming source
	maxMultiSourceBonus = 0.15
)

// Ensemble runs every eligible extractor and merges their candidates into a
// single ranked, deduplicated theme list. Individual extractor failures are
// logged and skipped so one bad provider never sinks a ticker.
type Ensemble struct {
	semantic   *semantic.Service
	extractors []Extractor
	maxThemes  int
}

// NewEnsemble builds an ensemble over the given extractors. The semantic
// service may be nil, in which case the pre-filter is skipped and the
// embedding extractor sees no filter result.
func NewEnsemble(svc *semantic.Service, maxThemes int, extractors ...Extractor) *Ensemble {
	return &Ensemble{
		semantic:   svc,
		extractors: extractors,
		maxThemes:  maxThemes,
	}
}

// Extract produces the final ranked result for one company.
func (e *Ensemble) Extract(ctx context.Context, profile *model.CompanyProfile) (*model.ThemeResult, error) {
	var filter *semantic.FilterResult
	if e.semantic != nil {
		var err error
		filter, err = e.semantic.Filter(ctx, profile)
		if err != nil {
			zap.L().Warn("semantic filter failed",
				zap.String("ticker", profile.Ticker),
				zap.Error(err))
			filter = nil
		}
	}

	var all []model.Theme
	sourcesUsed := make(map[string]bool)

	for _, ex := range e.extractors {
		if !ex.Eligible(profile) {
			zap.L().Debug("extractor skipped",
				zap.String("ticker", profile.Ticker),
				zap.String("extractor", ex.Name()))
			continue
		}
		themes, err := ex.Extract(ctx, profile, filter)
		if err != nil {
			zap.L().Warn("extractor failed",
				zap.String("ticker", profile.Ticker),
				zap.String("extractor", ex.Name()),
				zap.Error(err))
			continue
		}
		zap.L().Debug("extractor produced themes",
			zap.String("ticker", profile.Ticker),
			zap.String("extractor", ex.Name()),
			zap.Int("count", len(themes)))
		for _, t := range themes {
			sourcesUsed[string(t.Source)] = true
		}
		all = append(all, themes...)
	}

	ranked := mergeAndRank(all)
	if len(ranked) > e.maxThemes {
		ranked = ranked[:e.maxThemes]
	}

	sources := make([]string, 0, len(sourcesUsed))
	for s := range sourcesUsed {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	result := &model.ThemeResult{
		Ticker:      profile.Ticker,
		CompanyName: profile.Name,
		Themes:      ranked,
		Profile:     *profile,
		Metadata: model.ResultMetadata{
			SourcesUsed:    sources,
			TotalRawThemes: len(all),
		},
	}
	if filter != nil {
		result.Metadata.ChunksTotal = filter.ChunksTotal
		result.Metadata.ChunksRelevant = len(filter.RelevantChunks)
	}
	return result, nil
}

// mergeAndRank groups candidates by normalized name, drops blocked generic
// terms, and combines each group into one theme: a source-weighted average
// confidence plus a bonus for independent confirmation, capped at 1.0.
// Evidence and source come from the group's highest-confidence member.
func mergeAndRank(themes []model.Theme) []model.Theme {
	grouped := make(map[string][]model.Theme)
	for _, t := range themes {
		grouped[taxonomy.Normalize(t.Name)] = append(grouped[taxonomy.Normalize(t.Name)], t)
	}

	merged := make([]model.Theme, 0, len(grouped))
	for name, group := range grouped {
		if taxonomy.Blocked(name) {
			zap.L().Debug("filtered generic theme", zap.String("theme", name))
			continue
		}

		distinctSources := make(map[model.ExtractionMethod]bool)
		for _, t := range group {
			distinctSources[t.Source] = true
		}
		bonus := multiSourceBonus * float64(len(distinctSources)-1)
		if bonus > maxMultiSourceBonus {
			bonus = maxMultiSourceBonus
		}

		var weightedSum, weightTotal float64
		for _, t := range group {
			w := t.Source.Weight()
			weightedSum += t.Confidence * w
			weightTotal += w
		}
		avg := 0.0
		if weightTotal > 0 {
			avg = weightedSum / weightTotal
		}
		final := avg + bonus
		if final > 1.0 {
			final = 1.0
		}

		best := group[0]
		for _, t := range group[1:] {
			if t.Confidence > best.Confidence {
				best = t
			}
		}

		merged = append(merged, model.Theme{
			Name:              name,
			Confidence:        round3(final),
			Source:            best.Source,
			Evidence:          best.Evidence,
			CanonicalCategory: taxonomy.Category(name),
		})
	}

	sortThemes(merged)
	return merged
}
