package pipeline

import (
	"strings"

	"github.com/sells-group/stock-themes/internal/model"
)

// Merge combines per-provider partial profiles into one company aggregate.
// Scalar fields take the first provider's non-empty value, so partials must be
// ordered by provider priority. List fields concatenate and patent counts sum.
func Merge(ticker string, partials ...*model.CompanyProfile) *model.CompanyProfile {
	merged := &model.CompanyProfile{Ticker: strings.ToUpper(strings.TrimSpace(ticker))}

	for _, p := range partials {
		if p == nil {
			continue
		}
		setIfEmpty(&merged.Name, p.Name)
		setIfEmpty(&merged.Sector, p.Sector)
		setIfEmpty(&merged.Industry, p.Industry)
		setIfEmpty(&merged.SICCode, p.SICCode)
		setIfEmpty(&merged.Exchange, p.Exchange)
		setIfEmpty(&merged.Website, p.Website)
		setIfEmpty(&merged.BusinessSummary, p.BusinessSummary)
		setIfEmpty(&merged.BusinessDescription, p.BusinessDescription)
		setIfEmpty(&merged.RiskFactors, p.RiskFactors)
		setIfEmpty(&merged.SocialText, p.SocialText)
		if merged.MarketCap == 0 {
			merged.MarketCap = p.MarketCap
		}
		if merged.Employees == 0 {
			merged.Employees = p.Employees
		}
		if merged.NewsTone == 0 {
			merged.NewsTone = p.NewsTone
		}
		if merged.SocialSentiment == nil {
			merged.SocialSentiment = p.SocialSentiment
		}

		merged.PatentTitles = append(merged.PatentTitles, p.PatentTitles...)
		merged.PatentCPCCodes = append(merged.PatentCPCCodes, p.PatentCPCCodes...)
		merged.PatentCount += p.PatentCount
		merged.NewsThemes = append(merged.NewsThemes, p.NewsThemes...)
		merged.NewsTitles = append(merged.NewsTitles, p.NewsTitles...)
		merged.DataSources = append(merged.DataSources, p.DataSources...)
	}

	return merged
}

func setIfEmpty(dst *string, val string) {
	if *dst == "" {
		*dst = val
	}
}
