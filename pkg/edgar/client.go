// Package edgar provides a client for SEC EDGAR company submissions and
// filing text.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/stock-themes/pkg/httpx"
)

// maxSectionLength truncates very long filing sections.
const maxSectionLength = 15000

// Client defines the SEC EDGAR operations.
type Client interface {
	// Company resolves a ticker to its EDGAR company record.
	Company(ctx context.Context, ticker string) (*Company, error)
	// FilingText extracts business description and risk factors, trying
	// 10-Q, then 10-K, then S-1.
	FilingText(ctx context.Context, company *Company) (*FilingText, error)
}

// Company is the EDGAR company record for a ticker.
type Company struct {
	CIK     int64
	Ticker  string
	Name    string
	SICCode string

	filings recentFilings
}

// FilingText holds the text sections extracted from the most recent usable filing.
type FilingText struct {
	FormType            string
	BusinessDescription string
	RiskFactors         string
}

// ErrCompanyNotFound is returned when a ticker has no EDGAR record.
var ErrCompanyNotFound = eris.New("edgar: company not found")

// Option configures the EDGAR client.
type Option func(*httpClient)

// WithBaseURL sets a custom www.sec.gov base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithDataBaseURL sets a custom data.sec.gov base URL (for testing).
func WithDataBaseURL(url string) Option {
	return func(c *httpClient) {
		c.dataBaseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	userAgent   string
	baseURL     string
	dataBaseURL string
	http        *http.Client
	limiter     *rate.Limiter

	mu      sync.Mutex
	tickers map[string]tickerEntry // ticker → CIK, loaded once
}

// NewClient creates a new EDGAR client. The userAgent must identify the
// requester per SEC fair-access policy ("app-name contact@example.com").
// Requests are limited to SEC's 10 req/s ceiling.
func NewClient(userAgent string, opts ...Option) Client {
	c := &httpClient{
		userAgent:   userAgent,
		baseURL:     "https://www.sec.gov",
		dataBaseURL: "https://data.sec.gov",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// submissionsResponse mirrors the relevant slice of the submissions API.
type submissionsResponse struct {
	Name    string        `json:"name"`
	SIC     string        `json:"sic"`
	Filings struct {
		Recent recentFilings `json:"recent"`
	} `json:"filings"`
}

type recentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

func (c *httpClient) get(ctx context.Context, url string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, eris.Wrap(err, "edgar: rate limiter")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "edgar: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	return httpx.RetryDo(ctx, c.http, req, "edgar")
}

// loadTickers fetches the full ticker→CIK table once per client.
func (c *httpClient) loadTickers(ctx context.Context) (map[string]tickerEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tickers != nil {
		return c.tickers, nil
	}

	body, statusCode, err := c.get(ctx, c.baseURL+"/files/company_tickers.json")
	if err != nil {
		return nil, eris.Wrap(err, "edgar: fetch ticker table")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("edgar: ticker table status %d", statusCode)
	}

	var raw map[string]tickerEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "edgar: unmarshal ticker table")
	}

	c.tickers = make(map[string]tickerEntry, len(raw))
	for _, entry := range raw {
		c.tickers[strings.ToUpper(entry.Ticker)] = entry
	}
	return c.tickers, nil
}

func (c *httpClient) Company(ctx context.Context, ticker string) (*Company, error) {
	tickers, err := c.loadTickers(ctx)
	if err != nil {
		return nil, err
	}

	entry, ok := tickers[strings.ToUpper(strings.TrimSpace(ticker))]
	if !ok {
		return nil, ErrCompanyNotFound
	}

	url := fmt.Sprintf("%s/submissions/CIK%010d.json", c.dataBaseURL, entry.CIK)
	body, statusCode, err := c.get(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "edgar: fetch submissions for %s", ticker)
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("edgar: submissions status %d for %s", statusCode, ticker)
	}

	var subs submissionsResponse
	if err := json.Unmarshal(body, &subs); err != nil {
		return nil, eris.Wrap(err, "edgar: unmarshal submissions")
	}

	return &Company{
		CIK:     entry.CIK,
		Ticker:  strings.ToUpper(ticker),
		Name:    subs.Name,
		SICCode: subs.SIC,
		filings: subs.Filings.Recent,
	}, nil
}

// formFallbackOrder is the preference order for filing text. 10-Q MD&A is the
// freshest narrative, 10-K Item 1 the fullest, S-1 covers pre-10-K companies.
var formFallbackOrder = []string{"10-Q", "10-K", "S-1"}

func (c *httpClient) FilingText(ctx context.Context, company *Company) (*FilingText, error) {
	for _, form := range formFallbackOrder {
		idx := company.filings.latestIndex(form)
		if idx < 0 {
			continue
		}

		text, err := c.fetchDocument(ctx, company.CIK,
			company.filings.AccessionNumber[idx], company.filings.PrimaryDocument[idx])
		if err != nil {
			zap.L().Debug("filing fetch failed",
				zap.String("ticker", company.Ticker),
				zap.String("form", form),
				zap.Error(err))
			continue
		}

		desc, risks := extractSections(text, form)
		if desc == "" {
			continue
		}
		zap.L().Info("extracted filing text",
			zap.String("ticker", company.Ticker),
			zap.String("form", form))
		return &FilingText{
			FormType:            form,
			BusinessDescription: truncateText(desc),
			RiskFactors:         truncateText(risks),
		}, nil
	}

	zap.L().Warn("no filing text extracted from any form type",
		zap.String("ticker", company.Ticker))
	return &FilingText{}, nil
}

// latestIndex returns the index of the most recent filing of the given form,
// or -1. Recent filings are ordered newest first.
func (f recentFilings) latestIndex(form string) int {
	for i, ft := range f.Form {
		if ft == form && i < len(f.AccessionNumber) && i < len(f.PrimaryDocument) {
			return i
		}
	}
	return -1
}

func (c *httpClient) fetchDocument(ctx context.Context, cik int64, accession, doc string) (string, error) {
	url := fmt.Sprintf("%s/Archives/edgar/data/%d/%s/%s",
		c.baseURL, cik, strings.ReplaceAll(accession, "-", ""), doc)

	body, statusCode, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	if statusCode != http.StatusOK {
		return "", eris.Errorf("edgar: document status %d", statusCode)
	}
	return stripHTML(string(body)), nil
}

// truncateText caps a section at maxSectionLength bytes without splitting a
// multi-byte rune.
func truncateText(s string) string {
	if len(s) <= maxSectionLength {
		return s
	}
	n := maxSectionLength
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
