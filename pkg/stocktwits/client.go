// Package stocktwits provides a client for the StockTwits symbol stream API.
package stocktwits

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stock-themes/pkg/httpx"
)

// Client defines the StockTwits operations.
type Client interface {
	// Stream fetches the latest messages for a ticker (StockTwits returns up
	// to 30 per call).
	Stream(ctx context.Context, ticker string) ([]Message, error)
}

// Message is one StockTwits message.
type Message struct {
	ID        string
	Body      string
	Sentiment string // "Bullish", "Bearish", or ""
	CreatedAt *time.Time
}

// Option configures the StockTwits client.
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

// NewClient creates a new StockTwits client. The public stream API needs no
// credentials.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://api.stocktwits.com",
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// streamResponse mirrors the relevant slice of the stream API response.
type streamResponse struct {
	Response struct {
		Status int `json:"status"`
	} `json:"response"`
	Messages []struct {
		ID        int64  `json:"id"`
		Body      string `json:"body"`
		CreatedAt string `json:"created_at"`
		Entities  struct {
			Sentiment *struct {
				Basic string `json:"basic"`
			} `json:"sentiment"`
		} `json:"entities"`
	} `json:"messages"`
}

func (c *httpClient) Stream(ctx context.Context, ticker string) ([]Message, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	reqURL := fmt.Sprintf("%s/api/2/streams/symbol/%s.json", c.baseURL, ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "stocktwits: create request")
	}
	req.Header.Set("Accept", "application/json")

	body, statusCode, err := httpx.RetryDo(ctx, c.http, req, "stocktwits")
	if err != nil {
		return nil, eris.Wrapf(err, "stocktwits: stream failed for %s", ticker)
	}
	if statusCode == http.StatusNotFound {
		return nil, nil
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("stocktwits: unexpected status %d: %s", statusCode, string(body))
	}

	var result streamResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "stocktwits: unmarshal response")
	}
	if result.Response.Status != 200 {
		return nil, nil
	}

	messages := make([]Message, 0, len(result.Messages))
	for _, m := range result.Messages {
		msg := Message{
			ID:   fmt.Sprintf("%d", m.ID),
			Body: m.Body,
		}
		if m.Entities.Sentiment != nil {
			msg.Sentiment = m.Entities.Sentiment.Basic
		}
		if m.CreatedAt != "" {
			if ts, err := time.Parse("2006-01-02T15:04:05Z", m.CreatedAt); err == nil {
				msg.CreatedAt = &ts
			}
		}
		messages = append(messages, msg)
	}

	zap.L().Info("stocktwits stream",
		zap.String("ticker", ticker),
		zap.Int("messages", len(messages)))

	return messages, nil
}
