// Package pipeline fetches company data from all providers and assembles the
// unified profile that extraction runs on.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/store"
	"github.com/sells-group/stock-themes/pkg/edgar"
	"github.com/sells-group/stock-themes/pkg/gdelt"
	"github.com/sells-group/stock-themes/pkg/patentsview"
	"github.com/sells-group/stock-themes/pkg/stocktwits"
	"github.com/sells-group/stock-themes/pkg/yahoo"
)

// Deps wires the providers and store into a Fetcher. Any provider may be nil
// and is then skipped.
type Deps struct {
	Yahoo       yahoo.Client
	Edgar       edgar.Client
	PatentsView patentsview.Client
	GDELT       gdelt.Client
	StockTwits  stocktwits.Client
	Store       store.Store

	CacheTTL         time.Duration
	SocialWindowDays int
}

// Fetcher assembles company profiles from the configured providers.
type Fetcher struct {
	deps Deps
}

// NewFetcher creates a Fetcher.
func NewFetcher(deps Deps) *Fetcher {
	if deps.SocialWindowDays <= 0 {
		deps.SocialWindowDays = 30
	}
	return &Fetcher{deps: deps}
}

// Fetch builds the unified profile for a ticker. Core providers (Yahoo and
// EDGAR) run first; their failure is tolerated individually but not jointly.
// Enrichment providers run once the company name is known, and any of their
// failures degrades the profile instead of aborting.
func (f *Fetcher) Fetch(ctx context.Context, ticker string) (*model.CompanyProfile, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, eris.New("pipeline: empty ticker")
	}

	var partials []*model.CompanyProfile
	coreFailures := 0
	coreProviders := 0

	if f.deps.Yahoo != nil {
		coreProviders++
		if p := f.cached(ctx, "yahoo", ticker, f.fetchYahoo); p != nil {
			partials = append(partials, p)
		} else {
			coreFailures++
		}
	}
	if f.deps.Edgar != nil {
		coreProviders++
		if p := f.cached(ctx, "edgar", ticker, f.fetchEdgar); p != nil {
			partials = append(partials, p)
		} else {
			coreFailures++
		}
	}
	if coreProviders > 0 && coreFailures == coreProviders {
		return nil, eris.Errorf("pipeline: all core providers failed for %s", ticker)
	}

	core := Merge(ticker, partials...)

	if core.Name != "" {
		if f.deps.PatentsView != nil {
			if p := f.cached(ctx, "patentsview", ticker, func(ctx context.Context, _ string) (*model.CompanyProfile, error) {
				return f.fetchPatents(ctx, core.Name)
			}); p != nil {
				partials = append(partials, p)
			}
		}
		if f.deps.GDELT != nil {
			if p := f.cached(ctx, "gdelt", ticker, func(ctx context.Context, _ string) (*model.CompanyProfile, error) {
				return f.fetchNews(ctx, core.Name)
			}); p != nil {
				partials = append(partials, p)
			}
		}
	}
	if f.deps.StockTwits != nil {
		if p, err := f.fetchSocial(ctx, ticker); err != nil {
			zap.L().Warn("social fetch failed",
				zap.String("ticker", ticker), zap.Error(err))
		} else if p != nil {
			partials = append(partials, p)
		}
	}

	profile := Merge(ticker, partials...)
	zap.L().Info("profile assembled",
		zap.String("ticker", ticker),
		zap.Strings("sources", profile.DataSources),
		zap.Int("patents", profile.PatentCount),
		zap.Int("news_titles", len(profile.NewsTitles)))
	return profile, nil
}

type fetchFunc func(ctx context.Context, ticker string) (*model.CompanyProfile, error)

// cached runs a provider fetch behind the store's provider cache. Returns nil
// on failure after logging; providers degrade rather than abort.
func (f *Fetcher) cached(ctx context.Context, provider, ticker string, fetch fetchFunc) *model.CompanyProfile {
	if f.deps.Store != nil {
		if p, err := f.deps.Store.GetCachedProfile(ctx, provider, ticker); err == nil {
			zap.L().Debug("provider cache hit",
				zap.String("provider", provider), zap.String("ticker", ticker))
			return p
		} else if !eris.Is(err, store.ErrNotFound) {
			zap.L().Warn("provider cache read failed",
				zap.String("provider", provider), zap.Error(err))
		}
	}

	p, err := fetch(ctx, ticker)
	if err != nil {
		zap.L().Warn("provider fetch failed",
			zap.String("provider", provider),
			zap.String("ticker", ticker),
			zap.Error(err))
		return nil
	}

	if f.deps.Store != nil && p != nil {
		if err := f.deps.Store.SetCachedProfile(ctx, provider, ticker, p, f.deps.CacheTTL); err != nil {
			zap.L().Warn("provider cache write failed",
				zap.String("provider", provider), zap.Error(err))
		}
	}
	return p
}

func (f *Fetcher) fetchYahoo(ctx context.Context, ticker string) (*model.CompanyProfile, error) {
	quote, err := f.deps.Yahoo.Quote(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return &model.CompanyProfile{
		Ticker:          ticker,
		Name:            quote.ShortName,
		Sector:          quote.Sector,
		Industry:        quote.Industry,
		MarketCap:       quote.MarketCap,
		Exchange:        quote.Exchange,
		Employees:       quote.Employees,
		Website:         quote.Website,
		BusinessSummary: quote.BusinessSummary,
		DataSources:     []string{"yahoo"},
	}, nil
}

func (f *Fetcher) fetchEdgar(ctx context.Context, ticker string) (*model.CompanyProfile, error) {
	company, err := f.deps.Edgar.Company(ctx, ticker)
	if err != nil {
		return nil, err
	}
	profile := &model.CompanyProfile{
		Ticker:      ticker,
		Name:        company.Name,
		SICCode:     company.SICCode,
		DataSources: []string{"edgar"},
	}

	filing, err := f.deps.Edgar.FilingText(ctx, company)
	if err != nil {
		zap.L().Warn("filing text fetch failed",
			zap.String("ticker", ticker), zap.Error(err))
		return profile, nil
	}
	profile.BusinessDescription = filing.BusinessDescription
	profile.RiskFactors = filing.RiskFactors
	return profile, nil
}

func (f *Fetcher) fetchPatents(ctx context.Context, companyName string) (*model.CompanyProfile, error) {
	result, err := f.deps.PatentsView.SearchAssignee(ctx, companyName)
	if err != nil {
		return nil, err
	}
	return &model.CompanyProfile{
		PatentTitles:   result.Titles,
		PatentCPCCodes: result.CPCCodes,
		PatentCount:    result.PatentCount,
		DataSources:    []string{"patentsview"},
	}, nil
}

func (f *Fetcher) fetchNews(ctx context.Context, companyName string) (*model.CompanyProfile, error) {
	articles, err := f.deps.GDELT.ArticleList(ctx, companyName)
	if err != nil {
		return nil, err
	}
	return &model.CompanyProfile{
		NewsThemes:  articles.Themes,
		NewsTitles:  articles.Titles,
		NewsTone:    articles.AvgTone,
		DataSources: []string{"gdelt"},
	}, nil
}

// fetchSocial pulls the latest StockTwits stream, persists the messages, and
// aggregates the non-bearish text over the trailing window. Without a store
// the window reduces to the current stream page.
func (f *Fetcher) fetchSocial(ctx context.Context, ticker string) (*model.CompanyProfile, error) {
	messages, err := f.deps.StockTwits.Stream(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}

	sentiment := make(map[string]int)
	records := make([]model.SocialMessage, 0, len(messages))
	var fresh []string
	for _, msg := range messages {
		key := msg.Sentiment
		if key == "" {
			key = "neutral"
		}
		sentiment[key]++
		if msg.Sentiment != "Bearish" {
			fresh = append(fresh, msg.Body)
		}
		records = append(records, model.SocialMessage{
			Ticker:    ticker,
			Source:    "stocktwits",
			MessageID: msg.ID,
			Body:      msg.Body,
			Sentiment: msg.Sentiment,
			CreatedAt: msg.CreatedAt,
		})
	}

	text := strings.Join(fresh, " ")
	if f.deps.Store != nil {
		if _, err := f.deps.Store.StoreSocialMessages(ctx, records); err != nil {
			zap.L().Warn("social message store failed",
				zap.String("ticker", ticker), zap.Error(err))
		} else if windowed, err := f.deps.Store.SocialText(ctx, ticker, f.deps.SocialWindowDays); err != nil {
			zap.L().Warn("social window read failed",
				zap.String("ticker", ticker), zap.Error(err))
		} else if windowed != "" {
			text = windowed
		}
	}

	return &model.CompanyProfile{
		SocialText:      text,
		SocialSentiment: sentiment,
		DataSources:     []string{"stocktwits"},
	}, nil
}
