package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/store"
)

func newServeEnv(t *testing.T) *engineEnv {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	require.NoError(t, st.SaveThemeResult(context.Background(), &model.ThemeResult{
		Ticker: "NVDA",
		Profile: model.CompanyProfile{
			Ticker: "NVDA", Name: "Nvidia Corp", Sector: "Technology", MarketCap: 3.2e12,
		},
		Themes: []model.Theme{
			{Name: "artificial intelligence", Confidence: 0.95, Source: model.MethodLLM, CanonicalCategory: "technology"},
			{Name: "gaming", Confidence: 0.4, Source: model.MethodKeywordNLP},
		},
	}))

	return &engineEnv{Store: st}
}

func TestServeStockThemes(t *testing.T) {
	router := newRouter(context.Background(), newServeEnv(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stocks/NVDA/themes?min_confidence=0.5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Stock  store.Stock        `json:"stock"`
		Themes []store.StockTheme `json:"themes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Nvidia Corp", body.Stock.Name)
	require.Len(t, body.Themes, 1)
	assert.Equal(t, "artificial intelligence", body.Themes[0].Name)
}

func TestServeStockNotFound(t *testing.T) {
	router := newRouter(context.Background(), newServeEnv(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stocks/ZZZZ/themes", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeThemeStocksResolvesAlias(t *testing.T) {
	router := newRouter(context.Background(), newServeEnv(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/themes/ai/stocks", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Theme  string             `json:"theme"`
		Stocks []store.ThemeStock `json:"stocks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "artificial intelligence", body.Theme)
	require.Len(t, body.Stocks, 1)
	assert.Equal(t, "NVDA", body.Stocks[0].Ticker)
}

func TestServeThemeDistribution(t *testing.T) {
	router := newRouter(context.Background(), newServeEnv(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats []store.ThemeStat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Len(t, stats, 2)
}

func TestServeExtractValidation(t *testing.T) {
	router := newRouter(context.Background(), newServeEnv(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeHealth(t *testing.T) {
	router := newRouter(context.Background(), newServeEnv(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
