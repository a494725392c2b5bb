// Package semantic implements the embedding-based relevance pre-filter: it
// chunks a company's text, embeds chunks and taxonomy descriptions, and keeps
// only chunks semantically close to at least one known theme.
package semantic

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stock-themes/internal/taxonomy"
)

// Embedder produces dense vectors for a batch of texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ModelID() string
}

// Service runs the semantic pre-filter. Theme-description embeddings are
// computed once per model and cached on disk; the in-memory copy is shared
// across concurrent tickers.
type Service struct {
	embedder  Embedder
	cacheDir  string
	threshold float64
	chunkSize int

	mu        sync.Mutex
	themeVecs [][]float32 // aligned with taxonomy.Themes()
}

// NewService builds a Service. cacheDir may be empty, in which case theme
// embeddings are recomputed on every process start.
func NewService(embedder Embedder, cacheDir string, threshold float64, chunkSizeWords int) *Service {
	return &Service{
		embedder:  embedder,
		cacheDir:  cacheDir,
		threshold: threshold,
		chunkSize: chunkSizeWords,
	}
}

// themeCache is the on-disk shape of the theme-embedding cache.
type themeCache struct {
	Model   string      `json:"model"`
	Themes  []string    `json:"themes"`
	Vectors [][]float32 `json:"vectors"`
}

func (s *Service) cachePath() string {
	return filepath.Join(s.cacheDir, "theme_embeddings.json")
}

// themeEmbeddings returns one vector per taxonomy theme, loading from the
// disk cache when it matches the current model and vocabulary.
func (s *Service) themeEmbeddings(ctx context.Context) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.themeVecs != nil {
		return s.themeVecs, nil
	}

	names := taxonomy.Themes()
	if cached := s.loadCache(names); cached != nil {
		s.themeVecs = cached
		return cached, nil
	}

	texts := make([]string, len(names))
	for i, name := range names {
		texts[i] = name + ": " + taxonomy.Description(name)
	}

	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, eris.Wrap(err, "semantic: embed taxonomy")
	}
	if len(vecs) != len(names) {
		return nil, eris.Errorf("semantic: got %d theme vectors, want %d", len(vecs), len(names))
	}

	s.themeVecs = vecs
	s.saveCache(names, vecs)
	return vecs, nil
}

// loadCache returns cached vectors when the model and theme list match, nil
// otherwise. A stale or unreadable cache is treated as a miss.
func (s *Service) loadCache(names []string) [][]float32 {
	if s.cacheDir == "" {
		return nil
	}
	data, err := os.ReadFile(s.cachePath())
	if err != nil {
		return nil
	}
	var cache themeCache
	if err := json.Unmarshal(data, &cache); err != nil {
		zap.L().Warn("theme embedding cache unreadable, recomputing", zap.Error(err))
		return nil
	}
	if cache.Model != s.embedder.ModelID() ||
		len(cache.Vectors) != len(names) || len(cache.Themes) != len(names) {
		return nil
	}
	for i, name := range cache.Themes {
		if name != names[i] {
			return nil
		}
	}
	return cache.Vectors
}

func (s *Service) saveCache(names []string, vecs [][]float32) {
	if s.cacheDir == "" {
		return
	}
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		zap.L().Warn("create embedding cache dir failed", zap.Error(err))
		return
	}
	data, err := json.Marshal(themeCache{Model: s.embedder.ModelID(), Themes: names, Vectors: vecs})
	if err != nil {
		return
	}
	if err := os.WriteFile(s.cachePath(), data, 0o644); err != nil {
		zap.L().Warn("write embedding cache failed", zap.Error(err))
	}
}
