package semantic

import (
	"regexp"
	"strings"

	"github.com/sells-group/stock-themes/internal/model"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	sentenceRe   = regexp.MustCompile(`(?:[.!?])\s+`)
)

// Chunk splits text into chunks of approximately sizeWords words, breaking on
// sentence boundaries where possible. A sentence is only split across chunks
// when it alone exceeds the chunk size. Returns non-empty chunks only.
func Chunk(text string, sizeWords int) []string {
	text = whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)

	var chunks []string
	var current []string
	currentWords := 0

	for _, sentence := range sentences {
		words := len(strings.Fields(sentence))

		if currentWords+words > sizeWords && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = []string{sentence}
			currentWords = words
			continue
		}
		current = append(current, sentence)
		currentWords += words
	}

	if len(current) > 0 {
		if chunk := strings.TrimSpace(strings.Join(current, " ")); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

// splitSentences splits on sentence-terminating punctuation followed by
// whitespace, keeping the punctuation with the preceding sentence.
func splitSentences(text string) []string {
	locs := sentenceRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	var sentences []string
	start := 0
	for _, loc := range locs {
		// loc[0]+1 keeps the terminator with the sentence.
		sentences = append(sentences, text[start:loc[0]+1])
		start = loc[1]
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

// CollectText gathers every text source from a profile into a single string
// for chunking: filings first, then summaries, patent and news titles, and
// social text.
func CollectText(profile *model.CompanyProfile) string {
	var parts []string

	if profile.BusinessDescription != "" {
		parts = append(parts, profile.BusinessDescription)
	}
	if profile.BusinessSummary != "" {
		parts = append(parts, profile.BusinessSummary)
	}
	if profile.RiskFactors != "" {
		parts = append(parts, profile.RiskFactors)
	}
	if len(profile.PatentTitles) > 0 {
		parts = append(parts, strings.Join(profile.PatentTitles, " "))
	}
	if len(profile.NewsTitles) > 0 {
		parts = append(parts, strings.Join(profile.NewsTitles, " "))
	}
	if profile.SocialText != "" {
		parts = append(parts, profile.SocialText)
	}

	return strings.Join(parts, " ")
}
