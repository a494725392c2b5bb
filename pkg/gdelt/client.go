// Package gdelt provides a client for the GDELT DOC 2.0 article search API.
package gdelt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stock-themes/pkg/httpx"
)

// Client defines the GDELT operations.
type Client interface {
	// ArticleList searches recent English-language coverage of a company.
	ArticleList(ctx context.Context, companyName string) (*ArticleList, error)
}

// ArticleList holds coverage data for a company.
type ArticleList struct {
	Titles  []string
	Themes  []string // deduplicated GDELT theme codes
	AvgTone float64
}

// Option configures the GDELT client.
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
}

// NewClient creates a new GDELT client. The API needs no credentials.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://api.gdeltproject.org",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// articleListResponse mirrors the relevant slice of the DOC API response.
type articleListResponse struct {
	Articles []struct {
		Title  string          `json:"title"`
		Themes json.RawMessage `json:"themes"` // list or ";"-joined string
		Tone   json.RawMessage `json:"tone"`   // number or string
	} `json:"articles"`
}

func (c *httpClient) ArticleList(ctx context.Context, companyName string) (*ArticleList, error) {
	// Quoted name for exact match; drop ", Inc." style suffixes.
	clean := strings.TrimSpace(strings.Split(companyName, ",")[0])
	if clean == "" {
		return &ArticleList{}, nil
	}

	params := url.Values{}
	params.Set("query", `"`+clean+`" sourcelang:eng`)
	params.Set("mode", "artlist")
	params.Set("maxrecords", "75")
	params.Set("timespan", "3months")
	params.Set("format", "json")
	params.Set("sort", "datedesc")

	reqURL := c.baseURL + "/api/v2/doc/doc?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "gdelt: create request")
	}
	req.Header.Set("Accept", "application/json")

	body, statusCode, err := httpx.RetryDo(ctx, c.http, req, "gdelt")
	if err != nil {
		return nil, eris.Wrapf(err, "gdelt: search failed for %q", clean)
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("gdelt: unexpected status %d: %s", statusCode, string(body))
	}

	var result articleListResponse
	if err := json.Unmarshal(body, &result); err != nil {
		// GDELT returns non-JSON text when a query has no results.
		zap.L().Debug("gdelt returned non-JSON, treating as empty",
			zap.String("company", clean))
		return &ArticleList{}, nil
	}

	var titles []string
	themeSeen := make(map[string]bool)
	var themes []string
	var toneSum float64
	toneCount := 0

	for _, article := range result.Articles {
		if article.Title != "" {
			titles = append(titles, article.Title)
		}
		for _, theme := range parseThemes(article.Themes) {
			if theme != "" && !themeSeen[theme] {
				themeSeen[theme] = true
				themes = append(themes, theme)
			}
		}
		if tone, ok := parseTone(article.Tone); ok {
			toneSum += tone
			toneCount++
		}
	}

	avgTone := 0.0
	if toneCount > 0 {
		avgTone = toneSum / float64(toneCount)
	}

	zap.L().Info("gdelt article list",
		zap.String("company", clean),
		zap.Int("articles", len(result.Articles)),
		zap.Int("themes", len(themes)))

	return &ArticleList{Titles: titles, Themes: themes, AvgTone: avgTone}, nil
}

// parseThemes handles both encodings GDELT uses: a JSON array of codes or a
// single ";"-joined string.
func parseThemes(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return strings.Split(joined, ";")
	}
	return nil
}

func parseTone(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
