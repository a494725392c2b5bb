// Package patentsview provides a client for the PatentsView patent search API.
package patentsview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stock-themes/pkg/httpx"
)

// Client defines the PatentsView operations.
type Client interface {
	// SearchAssignee finds recent patents assigned to a company by name.
	SearchAssignee(ctx context.Context, companyName string) (*SearchResult, error)
}

// SearchResult holds the patent portfolio slice returned for an assignee.
type SearchResult struct {
	Titles      []string
	CPCCodes    []string // deduplicated CPC group IDs
	PatentCount int
}

// Option configures the PatentsView client.
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
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new PatentsView client. An API key is required.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://search.patentsview.org",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResponse mirrors the relevant slice of the API response.
type searchResponse struct {
	Patents []struct {
		PatentID    string `json:"patent_id"`
		PatentTitle string `json:"patent_title"`
		CPCAtIssue  []struct {
			CPCGroupID string `json:"cpc_group_id"`
		} `json:"cpc_at_issue"`
	} `json:"patents"`
}

func (c *httpClient) SearchAssignee(ctx context.Context, companyName string) (*SearchResult, error) {
	clean := CleanCompanyName(companyName)
	if clean == "" {
		return &SearchResult{}, nil
	}

	q, _ := json.Marshal(map[string]any{
		"_contains": map[string]string{"assignees.assignee_organization": clean},
	})
	f, _ := json.Marshal([]string{
		"patent_id", "patent_title", "patent_date",
		"cpc_at_issue.cpc_group_id",
	})
	o, _ := json.Marshal(map[string]int{"size": 100})
	s, _ := json.Marshal([]map[string]string{{"patent_date": "desc"}})

	params := url.Values{}
	params.Set("q", string(q))
	params.Set("f", string(f))
	params.Set("o", string(o))
	params.Set("s", string(s))

	reqURL := c.baseURL + "/api/v1/patent/?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "patentsview: create request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	body, statusCode, err := httpx.RetryDo(ctx, c.http, req, "patentsview")
	if err != nil {
		return nil, eris.Wrapf(err, "patentsview: search failed for %q", clean)
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("patentsview: unexpected status %d: %s", statusCode, string(body))
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "patentsview: unmarshal response")
	}

	var titles []string
	cpcSeen := make(map[string]bool)
	var cpcCodes []string
	for _, p := range result.Patents {
		if p.PatentTitle != "" {
			titles = append(titles, p.PatentTitle)
		}
		for _, cpc := range p.CPCAtIssue {
			if cpc.CPCGroupID != "" && !cpcSeen[cpc.CPCGroupID] {
				cpcSeen[cpc.CPCGroupID] = true
				cpcCodes = append(cpcCodes, cpc.CPCGroupID)
			}
		}
	}

	zap.L().Info("patentsview search",
		zap.String("assignee", clean),
		zap.Int("patents", len(result.Patents)),
		zap.Int("cpc_codes", len(cpcCodes)))

	return &SearchResult{
		Titles:      titles,
		CPCCodes:    cpcCodes,
		PatentCount: len(result.Patents),
	}, nil
}

// corporateSuffixes are stripped from company names before assignee search.
var corporateSuffixes = []string{
	" Inc.", " Inc", " Corp.", " Corp", " Corporation",
	" Ltd.", " Ltd", " Limited", " LLC", " L.L.C.",
	" PLC", " plc", " N.V.", " S.A.", " AG", " SE",
	" Co.", " Co", " Company", " Group",
	",", ".",
}

// CleanCompanyName strips common corporate suffixes so assignee matching is
// less sensitive to how a provider formats the legal name.
func CleanCompanyName(name string) string {
	cleaned := strings.TrimSpace(name)
	for _, suffix := range corporateSuffixes {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, suffix))
	}
	return cleaned
}
