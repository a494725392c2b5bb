package model

// ExtractionMethod identifies the strategy that produced a theme candidate.
type ExtractionMethod string

const (
	MethodSICMapping ExtractionMethod = "sic"
	MethodKeywordNLP ExtractionMethod = "keyword"
	MethodPatent     ExtractionMethod = "patent"
	MethodEmbedding  ExtractionMethod = "embedding"
	MethodNews       ExtractionMethod = "news"
	MethodSocial     ExtractionMethod = "social"
	MethodLLM        ExtractionMethod = "llm"
)

// sourceWeights encodes trust in each method's precision for ensemble scoring.
// The ordering (LLM highest, social lowest) must be preserved for rankings to
// reproduce.
var sourceWeights = map[ExtractionMethod]float64{
	MethodLLM:        1.0,
	MethodEmbedding:  0.85,
	MethodKeywordNLP: 0.8,
	MethodPatent:     0.7,
	MethodNews:       0.6,
	MethodSICMapping: 0.5,
	MethodSocial:     0.4,
}

// Weight returns the ensemble weight for a method. Unknown methods get 0.5.
func (m ExtractionMethod) Weight() float64 {
	if w, ok := sourceWeights[m]; ok {
		return w
	}
	return 0.5
}

// KnownMethods lists all extraction methods in descending weight order.
var KnownMethods = []ExtractionMethod{
	MethodLLM,
	MethodEmbedding,
	MethodKeywordNLP,
	MethodPatent,
	MethodNews,
	MethodSICMapping,
	MethodSocial,
}

// Theme is a single extracted investment theme. Immutable once produced by an
// extractor; the ensemble re-derives a new instance during merge.
type Theme struct {
	Name              string           `json:"name"`
	Confidence        float64          `json:"confidence"` // 0.0 to 1.0
	Source            ExtractionMethod `json:"source"`
	Evidence          string           `json:"evidence,omitempty"`
	CanonicalCategory string           `json:"canonical_category,omitempty"`
}

// ResultMetadata carries diagnostics about a single extraction run.
type ResultMetadata struct {
	SourcesUsed    []string `json:"sources_used"`
	TotalRawThemes int      `json:"total_raw_themes"`
	ChunksTotal    int      `json:"chunks_total"`
	ChunksRelevant int      `json:"chunks_relevant"`
}

// ThemeResult is the final ranked output for a ticker.
type ThemeResult struct {
	Ticker      string         `json:"ticker"`
	CompanyName string         `json:"company_name"`
	Themes      []Theme        `json:"themes"`
	Profile     CompanyProfile `json:"profile"`
	Metadata    ResultMetadata `json:"metadata"`
}

// ThemeNames returns the names of themes at or above minConfidence, in rank order.
func (r *ThemeResult) ThemeNames(minConfidence float64) []string {
	var names []string
	for _, t := range r.Themes {
		if t.Confidence >= minConfidence {
			names = append(names, t.Name)
		}
	}
	return names
}
