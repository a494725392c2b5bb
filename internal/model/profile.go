package model

import "time"

// CompanyProfile is the unified company aggregate merged from all providers.
// Scalar fields hold at most one value (first provider wins during merge);
// list fields are concatenations across providers.
type CompanyProfile struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`
	SICCode  string `json:"sic_code,omitempty"`

	MarketCap float64 `json:"market_cap,omitempty"`
	Exchange  string  `json:"exchange,omitempty"`
	Employees int     `json:"employees,omitempty"`
	Website   string  `json:"website,omitempty"`

	// Text sources
	BusinessSummary     string `json:"business_summary,omitempty"`     // Yahoo Finance short summary
	BusinessDescription string `json:"business_description,omitempty"` // SEC 10-K/Q/S-1 full text
	RiskFactors         string `json:"risk_factors,omitempty"`         // SEC Item 1A

	// Patent data
	PatentTitles   []string `json:"patent_titles,omitempty"`
	PatentCPCCodes []string `json:"patent_cpc_codes,omitempty"`
	PatentCount    int      `json:"patent_count,omitempty"`

	// News data
	NewsThemes []string `json:"news_themes,omitempty"` // GDELT theme codes
	NewsTitles []string `json:"news_titles,omitempty"`
	NewsTone   float64  `json:"news_tone,omitempty"` // average tone from GDELT

	// Social data
	SocialText      string         `json:"social_text,omitempty"` // aggregated StockTwits messages
	SocialSentiment map[string]int `json:"social_sentiment,omitempty"`

	DataSources []string `json:"data_sources,omitempty"`
}

// HasText reports whether any free-text field is populated.
func (p *CompanyProfile) HasText() bool {
	return p.BusinessDescription != "" || p.BusinessSummary != "" ||
		p.RiskFactors != "" || p.SocialText != ""
}

// SocialMessage is a single social media message collected for a ticker.
type SocialMessage struct {
	Ticker    string     `json:"ticker"`
	Source    string     `json:"source"` // "stocktwits"
	MessageID string     `json:"message_id"`
	Body      string     `json:"body"`
	Sentiment string     `json:"sentiment,omitempty"` // "bullish", "bearish", or "" (neutral)
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
