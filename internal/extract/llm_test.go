package extract

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/semantic"
	"github.com/sells-group/stock-themes/pkg/anthropic"
)

// fakeAnthropicClient returns a canned response and records the last request.
type fakeAnthropicClient struct {
	response string
	lastReq  anthropic.MessageRequest
	err      error
}

func (f *fakeAnthropicClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.response}},
	}, nil
}

func TestLLMMarketCapGate(t *testing.T) {
	e := NewLLMExtractor(&fakeAnthropicClient{}, "test-model", 1e9)

	assert.False(t, e.Eligible(&model.CompanyProfile{Ticker: "SMOL", MarketCap: 5e8}))
	assert.True(t, e.Eligible(&model.CompanyProfile{Ticker: "BIGC", MarketCap: 2e9}))
}

func TestLLMNilClientNotEligible(t *testing.T) {
	e := NewLLMExtractor(nil, "test-model", 1e9)

	assert.False(t, e.Eligible(&model.CompanyProfile{Ticker: "BIGC", MarketCap: 2e9}))
}

func TestLLMParsesBareArray(t *testing.T) {
	fake := &fakeAnthropicClient{
		response: `[{"theme": "Artificial Intelligence", "confidence": 0.95}, {"theme": "cloud computing", "confidence": 0.85}]`,
	}
	e := NewLLMExtractor(fake, "test-model", 1e9)
	profile := &model.CompanyProfile{
		Ticker:          "AITK",
		Name:            "AI Technologies",
		MarketCap:       2e9,
		BusinessSummary: "AI platform company.",
	}

	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)

	require.Len(t, themes, 2)
	assert.Equal(t, "artificial intelligence", themes[0].Name)
	assert.Equal(t, 0.95, themes[0].Confidence)
	assert.Equal(t, model.MethodLLM, themes[0].Source)
}

func TestLLMParsesWrappedObject(t *testing.T) {
	fake := &fakeAnthropicClient{
		response: `{"themes": [{"theme": "fintech", "confidence": 0.8}]}`,
	}
	e := NewLLMExtractor(fake, "test-model", 1e9)
	profile := &model.CompanyProfile{Ticker: "PAYX", Name: "Pay Co", MarketCap: 2e9, BusinessSummary: "Payments."}

	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)

	require.Len(t, themes, 1)
	assert.Equal(t, "fintech", themes[0].Name)
}

func TestLLMStripsMarkdownFences(t *testing.T) {
	fake := &fakeAnthropicClient{
		response: "```json\n[{\"theme\": \"gaming\", \"confidence\": 0.7}]\n```",
	}
	e := NewLLMExtractor(fake, "test-model", 1e9)
	profile := &model.CompanyProfile{Ticker: "GAME", Name: "Game Co", MarketCap: 2e9, BusinessSummary: "Games."}

	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)

	require.Len(t, themes, 1)
	assert.Equal(t, "gaming", themes[0].Name)
}

func TestLLMUnparseableResponseYieldsNoThemes(t *testing.T) {
	fake := &fakeAnthropicClient{response: "I think this company is about AI."}
	e := NewLLMExtractor(fake, "test-model", 1e9)
	profile := &model.CompanyProfile{Ticker: "BADJ", Name: "Bad JSON", MarketCap: 2e9, BusinessSummary: "Something."}

	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)
	assert.Empty(t, themes)
}

func TestLLMClampsConfidenceAndDropsEmpty(t *testing.T) {
	fake := &fakeAnthropicClient{
		response: `[{"theme": "robotics", "confidence": 1.4}, {"theme": "", "confidence": 0.5}, {"theme": "solar", "confidence": 0}]`,
	}
	e := NewLLMExtractor(fake, "test-model", 1e9)
	profile := &model.CompanyProfile{Ticker: "CLMP", Name: "Clamp", MarketCap: 2e9, BusinessSummary: "Robots."}

	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)

	require.Len(t, themes, 1)
	assert.Equal(t, "robotics", themes[0].Name)
	assert.Equal(t, 1.0, themes[0].Confidence)
}

func TestLLMPromptPrefersRelevantChunks(t *testing.T) {
	fake := &fakeAnthropicClient{response: `[]`}
	e := NewLLMExtractor(fake, "test-model", 1e9)
	profile := &model.CompanyProfile{
		Ticker:              "CHNK",
		Name:                "Chunk Co",
		Sector:              "Technology",
		MarketCap:           2e9,
		BusinessDescription: "Full raw description that should not be sent.",
	}
	filter := &semantic.FilterResult{
		RelevantChunks: []string{"We build robots.", "Our robots are industrial."},
	}

	_, err := e.Extract(context.Background(), profile, filter)
	require.NoError(t, err)

	prompt := fake.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "Company: Chunk Co (CHNK)")
	assert.Contains(t, prompt, "Sector: Technology")
	assert.Contains(t, prompt, "We build robots.")
	assert.NotContains(t, prompt, "should not be sent")
}

func TestLLMPromptTruncatesLongDescription(t *testing.T) {
	fake := &fakeAnthropicClient{response: `[]`}
	e := NewLLMExtractor(fake, "test-model", 1e9)
	long := make([]byte, 6000)
	for i := range long {
		long[i] = 'a'
	}
	profile := &model.CompanyProfile{
		Ticker:              "LONG",
		Name:                "Long Co",
		MarketCap:           2e9,
		BusinessDescription: string(long),
	}

	_, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)

	prompt := fake.lastReq.Messages[0].Content
	assert.Less(t, len(prompt), 4200)
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	s := strings.Repeat("é", 10) // 2 bytes per rune

	cut := truncate(s, 5)

	// Cutting at byte 5 would split the third rune; the cut backs off to 4.
	assert.Equal(t, "éé", cut)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, s, truncate(s, 100))
}

func TestLLMNoTextNoCall(t *testing.T) {
	fake := &fakeAnthropicClient{response: `[]`}
	e := NewLLMExtractor(fake, "test-model", 1e9)
	profile := &model.CompanyProfile{Ticker: "NOTX", Name: "No Text", MarketCap: 2e9}

	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)

	assert.Empty(t, themes)
	assert.Empty(t, fake.lastReq.Messages, "no API call without prompt text")
}
