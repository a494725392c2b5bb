package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stock-themes/internal/extract"
	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/internal/pipeline"
	"github.com/sells-group/stock-themes/internal/semantic"
	"github.com/sells-group/stock-themes/internal/store"
	anthropicpkg "github.com/sells-group/stock-themes/pkg/anthropic"
	"github.com/sells-group/stock-themes/pkg/edgar"
	"github.com/sells-group/stock-themes/pkg/embeddings"
	"github.com/sells-group/stock-themes/pkg/gdelt"
	"github.com/sells-group/stock-themes/pkg/patentsview"
	"github.com/sells-group/stock-themes/pkg/stocktwits"
	"github.com/sells-group/stock-themes/pkg/yahoo"
)

// engineEnv holds the initialized store, fetcher and ensemble shared by the
// run/batch/serve commands.
type engineEnv struct {
	Store    store.Store
	Fetcher  *pipeline.Fetcher
	Ensemble *extract.Ensemble
}

// Close releases resources held by the engine environment.
func (e *engineEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initQueryStore opens and migrates the store for read-only commands that do
// not need provider clients.
func initQueryStore(ctx context.Context) (store.Store, error) {
	st, err := store.New(cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initEngine sets up the store, all provider clients and the extractor
// ensemble. Callers should defer env.Close().
func initEngine(ctx context.Context) (*engineEnv, error) {
	st, err := store.New(cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	embedClient := embeddings.NewClient(cfg.Embedding.BaseURL, cfg.Embedding.Key, cfg.Embedding.Model)
	semanticSvc := semantic.NewService(embedClient, cfg.Embedding.CacheDir,
		cfg.Embedding.SimilarityThreshold, cfg.Embedding.ChunkSizeWords)

	// LLM extraction is optional; without a key the extractor stays ineligible.
	var anthropicClient anthropicpkg.Client
	if cfg.LLM.Enabled && cfg.LLM.Key != "" {
		anthropicClient = anthropicpkg.NewClient(cfg.LLM.Key)
	} else {
		zap.L().Info("llm extraction disabled")
	}

	ensemble := extract.NewEnsemble(semanticSvc, cfg.Extraction.MaxThemes,
		extract.NewSICExtractor(),
		extract.NewKeywordExtractor(),
		extract.NewPatentExtractor(),
		extract.NewEmbeddingExtractor(),
		extract.NewNewsExtractor(),
		extract.NewSocialExtractor(),
		extract.NewLLMExtractor(anthropicClient, cfg.LLM.Model, cfg.LLM.MarketCapThreshold),
	)

	var patents patentsview.Client
	if cfg.Providers.PatentsViewKey != "" {
		patents = patentsview.NewClient(cfg.Providers.PatentsViewKey)
	} else {
		zap.L().Info("patentsview key not set, patent enrichment disabled")
	}

	fetcher := pipeline.NewFetcher(pipeline.Deps{
		Yahoo:            yahoo.NewClient(),
		Edgar:            edgar.NewClient(cfg.Providers.EdgarUserAgent),
		PatentsView:      patents,
		GDELT:            gdelt.NewClient(),
		StockTwits:       stocktwits.NewClient(),
		Store:            st,
		CacheTTL:         time.Duration(cfg.Providers.CacheTTLHours) * time.Hour,
		SocialWindowDays: cfg.Providers.SocialWindowDays,
	})

	return &engineEnv{
		Store:    st,
		Fetcher:  fetcher,
		Ensemble: ensemble,
	}, nil
}

// extractTicker runs the full fetch-extract-save cycle for one ticker.
func (e *engineEnv) extractTicker(ctx context.Context, ticker string) (*model.ThemeResult, error) {
	profile, err := e.Fetcher.Fetch(ctx, ticker)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch %s", ticker)
	}

	result, err := e.Ensemble.Extract(ctx, profile)
	if err != nil {
		return nil, eris.Wrapf(err, "extract %s", ticker)
	}

	if err := e.Store.SaveThemeResult(ctx, result); err != nil {
		return nil, eris.Wrapf(err, "save %s", ticker)
	}

	return result, nil
}
