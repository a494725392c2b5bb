package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/semantic"
	"github.com/sells-group/stock-themes/pkg/anthropic"
)

const llmSystemPrompt = `You are a financial analyst specializing in thematic investing.
Given text about a company, extract the investment themes that apply.

Themes should be:
- Lowercase, 1-3 words each (e.g., "artificial intelligence", "cloud computing", "mobile")
- Specific enough to be actionable (not just "technology")
- Relevant to how thematic ETFs categorize stocks

Return a JSON array of objects with "theme" and "confidence" (0.0-1.0) keys.
Return at most 15 themes. Sort by confidence descending.
Output ONLY valid JSON, no other text.

Example output:
[
  {"theme": "artificial intelligence", "confidence": 0.95},
  {"theme": "cloud computing", "confidence": 0.85},
  {"theme": "wearable technology", "confidence": 0.80}
]`

const (
	llmMaxTokens      = 600
	llmTemperature    = 0.2
	llmMaxChunks      = 10
	llmMaxDescription = 4000
)

// LLMExtractor asks Claude to name themes from pre-filtered text. It only
// runs for companies above the market-cap threshold to keep API spend on
// names where the extra precision matters.
type LLMExtractor struct {
	client             anthropic.Client
	model              string
	marketCapThreshold float64
}

func NewLLMExtractor(client anthropic.Client, llmModel string, marketCapThreshold float64) *LLMExtractor {
	return &LLMExtractor{
		client:             client,
		model:              llmModel,
		marketCapThreshold: marketCapThreshold,
	}
}

func (e *LLMExtractor) Name() string { return "llm" }

func (e *LLMExtractor) Eligible(profile *model.CompanyProfile) bool {
	return e.client != nil && profile.MarketCap >= e.marketCapThreshold
}

func (e *LLMExtractor) Extract(ctx context.Context, profile *model.CompanyProfile, filter *semantic.FilterResult) ([]model.Theme, error) {
	prompt := buildPrompt(profile, filter)
	if prompt == "" {
		return nil, nil
	}

	temp := llmTemperature
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   llmMaxTokens,
		System:      llmSystemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(e.model, profile.Ticker)

	raw := parseThemes(resp.Text())
	themes := make([]model.Theme, 0, len(raw))
	for _, t := range raw {
		name := strings.ToLower(strings.TrimSpace(t.Theme))
		if name == "" || t.Confidence == 0 {
			continue
		}
		confidence := t.Confidence
		if confidence > 1 {
			confidence = 1
		}
		if confidence < 0 {
			confidence = 0
		}
		themes = append(themes, model.Theme{
			Name:       name,
			Confidence: confidence,
			Source:     model.MethodLLM,
			Evidence:   "LLM extraction from pre-filtered text",
		})
	}
	return themes, nil
}

// buildPrompt prefers the pre-filtered relevant chunks, falls back to a
// truncated raw description, then to the short summary. Returns "" when the
// profile has nothing to send.
func buildPrompt(profile *model.CompanyProfile, filter *semantic.FilterResult) string {
	parts := []string{fmt.Sprintf("Company: %s (%s)", profile.Name, profile.Ticker)}

	if profile.Sector != "" {
		parts = append(parts, "Sector: "+profile.Sector)
	}
	if profile.Industry != "" {
		parts = append(parts, "Industry: "+profile.Industry)
	}

	switch {
	case filter != nil && len(filter.RelevantChunks) > 0:
		chunks := filter.RelevantChunks
		if len(chunks) > llmMaxChunks {
			chunks = chunks[:llmMaxChunks]
		}
		parts = append(parts, "Relevant business text:\n"+strings.Join(chunks, "\n\n"))
	case profile.BusinessDescription != "":
		parts = append(parts, "Business description:\n"+truncate(profile.BusinessDescription, llmMaxDescription))
	case profile.BusinessSummary != "":
		parts = append(parts, "Business summary:\n"+profile.BusinessSummary)
	default:
		return ""
	}

	return strings.Join(parts, "\n\n")
}

// llmTheme is one entry in the model's JSON output.
type llmTheme struct {
	Theme      string  `json:"theme"`
	Confidence float64 `json:"confidence"`
}

// parseThemes decodes the model output, accepting either a bare array or a
// {"themes": [...]} wrapper. Unparseable output yields an empty list, not an
// error, so a malformed response degrades to the other extractors.
func parseThemes(content string) []llmTheme {
	content = cleanJSON(content)
	if content == "" {
		return nil
	}

	var list []llmTheme
	if err := json.Unmarshal([]byte(content), &list); err == nil {
		return list
	}

	var wrapped struct {
		Themes []llmTheme `json:"themes"`
	}
	if err := json.Unmarshal([]byte(content), &wrapped); err == nil {
		return wrapped.Themes
	}

	zap.L().Warn("failed to parse LLM theme response", zap.String("content", truncate(content, 200)))
	return nil
}

// cleanJSON strips markdown code fences that models sometimes wrap around
// JSON output.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

// truncate cuts s to at most n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
