package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/stock-themes/internal/store"
	"github.com/sells-group/stock-themes/internal/taxonomy"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the theme query API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(ctx, env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter builds the query API. baseCtx outlives individual requests and is
// used for async extraction jobs.
func newRouter(baseCtx context.Context, env *engineEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/stocks/{ticker}/themes", func(w http.ResponseWriter, req *http.Request) {
		ticker := chi.URLParam(req, "ticker")
		stock, err := env.Store.GetStock(req.Context(), ticker)
		if err != nil {
			if eris.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "stock not found")
				return
			}
			serveInternalError(w, err)
			return
		}
		themes, err := env.Store.GetThemesForStock(req.Context(), ticker, minConfidenceParam(req.URL.Query()))
		if err != nil {
			serveInternalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"stock": stock, "themes": themes})
	})

	r.Get("/api/stats", func(w http.ResponseWriter, req *http.Request) {
		stats, err := env.Store.ThemeDistribution(req.Context())
		if err != nil {
			serveInternalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})

	r.Get("/api/themes/{theme}/stocks", func(w http.ResponseWriter, req *http.Request) {
		name := taxonomy.Normalize(chi.URLParam(req, "theme"))
		stocks, err := env.Store.GetStocksForTheme(req.Context(), name, minConfidenceParam(req.URL.Query()))
		if err != nil {
			serveInternalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"theme": name, "stocks": stocks})
	})

	r.Post("/api/extract", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Ticker string `json:"ticker"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Ticker == "" {
			writeError(w, http.StatusBadRequest, "ticker is required")
			return
		}

		jobID := uuid.NewString()
		// Extraction takes minutes against live providers, so run it detached
		// from the request context.
		go func() {
			result, err := env.extractTicker(baseCtx, body.Ticker)
			if err != nil {
				zap.L().Error("async extraction failed",
					zap.String("job_id", jobID),
					zap.String("ticker", body.Ticker),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("async extraction complete",
				zap.String("job_id", jobID),
				zap.String("ticker", result.Ticker),
				zap.Int("themes", len(result.Themes)),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "accepted",
			"job_id": jobID,
			"ticker": body.Ticker,
		})
	})

	return r
}

func minConfidenceParam(q url.Values) float64 {
	v, err := strconv.ParseFloat(q.Get("min_confidence"), 64)
	if err != nil {
		return 0
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func serveInternalError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
