package gdelt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/doc/doc", r.URL.Path)
		assert.Equal(t, `"NVIDIA" sourcelang:eng`, r.URL.Query().Get("query"))
		assert.Equal(t, "artlist", r.URL.Query().Get("mode"))

		w.Write([]byte(`{"articles": [
			{"title": "NVIDIA unveils new AI chips", "themes": ["TAX_AI", "TAX_SEMICONDUCTOR"], "tone": 2.5},
			{"title": "Data center boom", "themes": "TAX_AI;ECON_CLOUDCOMPUTING", "tone": "1.5"}
		]}`))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	result, err := c.ArticleList(context.Background(), "NVIDIA, Inc.")
	require.NoError(t, err)

	assert.Equal(t, []string{"NVIDIA unveils new AI chips", "Data center boom"}, result.Titles)
	// Themes are deduplicated across list and semicolon-joined encodings.
	assert.Equal(t, []string{"TAX_AI", "TAX_SEMICONDUCTOR", "ECON_CLOUDCOMPUTING"}, result.Themes)
	assert.InDelta(t, 2.0, result.AvgTone, 1e-9)
}

func TestArticleListNonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// GDELT returns plain text for queries with no results.
		w.Write([]byte("No results found for your query."))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	result, err := c.ArticleList(context.Background(), "Obscure Co")
	require.NoError(t, err)

	assert.Empty(t, result.Titles)
	assert.Empty(t, result.Themes)
}

func TestArticleListEmptyName(t *testing.T) {
	c := NewClient()

	result, err := c.ArticleList(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, result.Titles)
}
