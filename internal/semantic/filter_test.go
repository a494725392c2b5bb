package semantic

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/taxonomy"
)

// fakeEmbedder maps texts to fixed vectors by keyword so similarity outcomes
// are deterministic.
type fakeEmbedder struct {
	model string
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		switch {
		case strings.Contains(lower, "artificial intelligence"):
			vecs[i] = []float32{1, 0, 0}
		case strings.Contains(lower, "battery"):
			vecs[i] = []float32{0, 1, 0}
		case strings.Contains(lower, "unrelated"):
			// Similarity 1/sqrt(3) against every axis, below a 0.6 threshold.
			vecs[i] = []float32{1, 1, 1}
		default:
			vecs[i] = []float32{0, 0, 1}
		}
	}
	return vecs, nil
}

func (f *fakeEmbedder) ModelID() string { return f.model }

func newTestService(t *testing.T) (*Service, *fakeEmbedder) {
	t.Helper()
	emb := &fakeEmbedder{model: "test-model"}
	return NewService(emb, t.TempDir(), 0.6, 200), emb
}

func TestFilterNoTextReturnsEmptyResult(t *testing.T) {
	svc, emb := newTestService(t)

	result, err := svc.Filter(context.Background(), &model.CompanyProfile{Ticker: "EMPT"})

	require.NoError(t, err)
	assert.Empty(t, result.RelevantChunks)
	assert.Empty(t, result.ThemeScores)
	assert.Zero(t, result.ChunksTotal)
	assert.Zero(t, emb.calls, "no embedding calls for an empty profile")
}

func TestFilterKeepsRelevantChunks(t *testing.T) {
	svc, _ := newTestService(t)
	profile := &model.CompanyProfile{
		Ticker:              "AITK",
		BusinessDescription: "We build artificial intelligence platforms for enterprise customers.",
	}

	result, err := svc.Filter(context.Background(), profile)

	require.NoError(t, err)
	assert.Equal(t, 1, result.ChunksTotal)
	require.Len(t, result.RelevantChunks, 1)
	assert.Contains(t, result.RelevantChunks[0], "artificial intelligence")
	assert.InDelta(t, 1.0, result.ThemeScores["artificial intelligence"], 1e-6)
}

func TestFilterDropsIrrelevantChunks(t *testing.T) {
	svc, _ := newTestService(t)
	profile := &model.CompanyProfile{
		Ticker:              "BORE",
		BusinessDescription: "Totally unrelated commentary about nothing in particular.",
	}

	result, err := svc.Filter(context.Background(), profile)

	require.NoError(t, err)
	assert.Equal(t, 1, result.ChunksTotal)
	assert.Empty(t, result.RelevantChunks)
	assert.Empty(t, result.ThemeScores)
}

func TestFilterMixedChunks(t *testing.T) {
	// Small chunk size forces one chunk per sentence.
	svc := NewService(&fakeEmbedder{model: "test-model"}, t.TempDir(), 0.6, 10)
	relevant := "Our artificial intelligence products lead the market in accuracy today."
	irrelevant := "Totally unrelated commentary about nothing in particular at all here."
	profile := &model.CompanyProfile{
		Ticker:              "MIXD",
		BusinessDescription: relevant + " " + irrelevant,
	}

	result, err := svc.Filter(context.Background(), profile)

	require.NoError(t, err)
	assert.Equal(t, 2, result.ChunksTotal)
	assert.Len(t, result.AllChunks, 2)
	require.Len(t, result.RelevantChunks, 1)
	assert.Contains(t, result.RelevantChunks[0], "artificial intelligence")
}

func TestThemeEmbeddingsCachedAcrossServices(t *testing.T) {
	dir := t.TempDir()
	emb := &fakeEmbedder{model: "test-model"}
	first := NewService(emb, dir, 0.6, 200)

	_, err := first.themeEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, emb.calls)

	// A fresh service with the same model and cache dir reads from disk.
	second := NewService(emb, dir, 0.6, 200)
	_, err = second.themeEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, emb.calls)
}

func TestThemeEmbeddingsCacheWithExtraThemeRecomputes(t *testing.T) {
	dir := t.TempDir()
	emb := &fakeEmbedder{model: "test-model"}

	// Hand-craft a cache whose theme list is longer than the vocabulary while
	// the vector count still matches. Must be treated as a miss, not a crash.
	names := taxonomy.Themes()
	stale := themeCache{
		Model:   "test-model",
		Themes:  append(append([]string{}, names...), "phantom theme"),
		Vectors: make([][]float32, len(names)),
	}
	for i := range stale.Vectors {
		stale.Vectors[i] = []float32{0, 0, 1}
	}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "theme_embeddings.json"), data, 0o644))

	svc := NewService(emb, dir, 0.6, 200)
	_, err = svc.themeEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, emb.calls, "stale cache forces recompute")
}

func TestThemeEmbeddingsCacheInvalidatedByModelChange(t *testing.T) {
	dir := t.TempDir()
	emb := &fakeEmbedder{model: "model-a"}
	first := NewService(emb, dir, 0.6, 200)

	_, err := first.themeEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, emb.calls)

	emb.model = "model-b"
	second := NewService(emb, dir, 0.6, 200)
	_, err = second.themeEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, emb.calls, "model change forces recompute")
}
