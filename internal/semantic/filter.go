package semantic

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/taxonomy"
)

// FilterResult holds the outcome of the semantic pre-filter for one company.
type FilterResult struct {
	// AllChunks is the full chunk list before filtering, in document order.
	AllChunks []string
	// RelevantChunks are the text chunks whose best theme similarity met the
	// threshold, in original document order.
	RelevantChunks []string
	// ThemeScores maps each theme that matched at least one relevant chunk to
	// its best similarity across those chunks.
	ThemeScores map[string]float64
	// ChunksTotal is the number of chunks before filtering.
	ChunksTotal int
}

// Filter chunks the profile's text, embeds the chunks, and keeps those whose
// maximum similarity to any taxonomy theme meets the threshold. A profile with
// no usable text yields an empty result, not an error.
func (s *Service) Filter(ctx context.Context, profile *model.CompanyProfile) (*FilterResult, error) {
	empty := &FilterResult{ThemeScores: map[string]float64{}}

	text := strings.TrimSpace(CollectText(profile))
	if text == "" {
		return empty, nil
	}

	chunks := Chunk(text, s.chunkSize)
	if len(chunks) == 0 {
		return empty, nil
	}

	themeVecs, err := s.themeEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	chunkVecs, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, eris.Wrapf(err, "semantic: embed %d chunks for %s", len(chunks), profile.Ticker)
	}
	if len(chunkVecs) != len(chunks) {
		return nil, eris.Errorf("semantic: got %d chunk vectors, want %d", len(chunkVecs), len(chunks))
	}

	names := taxonomy.Themes()
	result := &FilterResult{
		AllChunks:   chunks,
		ThemeScores: map[string]float64{},
		ChunksTotal: len(chunks),
	}

	for i, vec := range chunkVecs {
		best := 0.0
		for _, tv := range themeVecs {
			if sim := cosine(vec, tv); sim > best {
				best = sim
			}
		}
		if best < s.threshold {
			continue
		}
		result.RelevantChunks = append(result.RelevantChunks, chunks[i])
		for j, tv := range themeVecs {
			sim := cosine(vec, tv)
			if sim >= s.threshold && sim > result.ThemeScores[names[j]] {
				result.ThemeScores[names[j]] = sim
			}
		}
	}

	zap.L().Debug("semantic filter",
		zap.String("ticker", profile.Ticker),
		zap.Int("chunks_total", result.ChunksTotal),
		zap.Int("chunks_relevant", len(result.RelevantChunks)),
		zap.Int("themes_matched", len(result.ThemeScores)))

	return result, nil
}
