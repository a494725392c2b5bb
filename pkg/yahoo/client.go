// Package yahoo provides a client for the Yahoo Finance quoteSummary API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/stock-themes/pkg/httpx"
)

// Client defines the Yahoo Finance operations.
type Client interface {
	// Quote fetches the company profile modules for a ticker.
	Quote(ctx context.Context, ticker string) (*Quote, error)
}

// Quote is the flattened company profile from Yahoo Finance.
type Quote struct {
	Ticker          string
	ShortName       string
	Sector          string
	Industry        string
	MarketCap       float64
	Exchange        string
	Employees       int
	Website         string
	BusinessSummary string
}

// ErrTickerNotFound is returned when Yahoo has no quote for the symbol.
var ErrTickerNotFound = eris.New("yahoo: ticker not found")

// Option configures the Yahoo client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new Yahoo Finance client. Requests are rate limited to
// stay under Yahoo's unauthenticated quota.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://query2.finance.yahoo.com",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// quoteSummaryResponse mirrors the relevant slice of Yahoo's response.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector              string `json:"sector"`
				Industry            string `json:"industry"`
				Website             string `json:"website"`
				FullTimeEmployees   int    `json:"fullTimeEmployees"`
				LongBusinessSummary string `json:"longBusinessSummary"`
			} `json:"assetProfile"`
			Price struct {
				ShortName    string `json:"shortName"`
				ExchangeName string `json:"exchangeName"`
				MarketCap    struct {
					Raw float64 `json:"raw"`
				} `json:"marketCap"`
			} `json:"price"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

func (c *httpClient) Quote(ctx context.Context, ticker string) (*Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "yahoo: rate limiter")
	}

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	reqURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile%%2Cprice", c.baseURL, ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "yahoo: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; stock-themes/1.0)")

	body, statusCode, err := httpx.RetryDo(ctx, c.http, req, "yahoo")
	if err != nil {
		return nil, eris.Wrap(err, "yahoo: request failed")
	}
	if statusCode == http.StatusNotFound {
		return nil, ErrTickerNotFound
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("yahoo: unexpected status %d: %s", statusCode, string(body))
	}

	var result quoteSummaryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "yahoo: unmarshal response")
	}
	if result.QuoteSummary.Error != nil {
		return nil, eris.Errorf("yahoo: %s: %s",
			result.QuoteSummary.Error.Code, result.QuoteSummary.Error.Description)
	}
	if len(result.QuoteSummary.Result) == 0 {
		return nil, ErrTickerNotFound
	}

	r := result.QuoteSummary.Result[0]
	if r.Price.ShortName == "" {
		return nil, ErrTickerNotFound
	}

	return &Quote{
		Ticker:          ticker,
		ShortName:       r.Price.ShortName,
		Sector:          r.AssetProfile.Sector,
		Industry:        r.AssetProfile.Industry,
		MarketCap:       r.Price.MarketCap.Raw,
		Exchange:        r.Price.ExchangeName,
		Employees:       r.AssetProfile.FullTimeEmployees,
		Website:         r.AssetProfile.Website,
		BusinessSummary: r.AssetProfile.LongBusinessSummary,
	}, nil
}
