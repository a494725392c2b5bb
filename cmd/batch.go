package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	batchFile     string
	batchAll      bool
	batchLimit    int
	batchSkipDays int
)

var batchCmd = &cobra.Command{
	Use:   "batch [TICKER...]",
	Short: "Extract themes for many tickers",
	Long:  "Processes tickers from arguments, a file (one per line), or every stock already in the store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		tickers, err := resolveTickers(ctx, env, args)
		if err != nil {
			return err
		}

		if batchSkipDays > 0 {
			tickers, err = skipRecent(ctx, env, tickers, batchSkipDays)
			if err != nil {
				return err
			}
		}

		return processBatch(ctx, env, tickers, batchLimit, cfg.Batch.MaxConcurrentTickers)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "file with one ticker per line")
	batchCmd.Flags().BoolVar(&batchAll, "all", false, "re-extract every stock in the store")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of tickers to process (0 = no limit)")
	batchCmd.Flags().IntVar(&batchSkipDays, "skip-days", 0, "skip tickers extracted within the last N days")
	rootCmd.AddCommand(batchCmd)
}

func resolveTickers(ctx context.Context, env *engineEnv, args []string) ([]string, error) {
	switch {
	case batchAll:
		return env.Store.AllTickers(ctx)
	case batchFile != "":
		return readTickerFile(batchFile)
	case len(args) > 0:
		return args, nil
	default:
		return nil, eris.New("no tickers given: pass arguments, --file or --all")
	}
}

// skipRecent drops tickers already extracted within the last days.
func skipRecent(ctx context.Context, env *engineEnv, tickers []string, days int) ([]string, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	recent, err := env.Store.TickersUpdatedSince(ctx, since)
	if err != nil {
		return nil, eris.Wrap(err, "query recent tickers")
	}

	fresh := make(map[string]bool, len(recent))
	for _, t := range recent {
		fresh[t] = true
	}

	var remaining []string
	for _, t := range tickers {
		if fresh[strings.ToUpper(t)] {
			continue
		}
		remaining = append(remaining, t)
	}
	if skipped := len(tickers) - len(remaining); skipped > 0 {
		zap.L().Info("skipping recently extracted tickers",
			zap.Int("skipped", skipped), zap.Int("days", days))
	}
	return remaining, nil
}

func readTickerFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open ticker file")
	}
	defer f.Close()

	var tickers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tickers = append(tickers, line)
	}
	return tickers, eris.Wrap(scanner.Err(), "read ticker file")
}

// processBatch runs extraction concurrently. Individual failures are logged
// and do not abort the batch.
func processBatch(ctx context.Context, env *engineEnv, tickers []string, limit, concurrency int) error {
	if len(tickers) == 0 {
		zap.L().Info("no tickers to process")
		return nil
	}
	if limit > 0 && len(tickers) > limit {
		tickers = tickers[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("tickers", len(tickers)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, ticker := range tickers {
		g.Go(func() error {
			log := zap.L().With(zap.String("ticker", ticker))

			result, err := env.extractTicker(gctx, ticker)
			if err != nil {
				failed.Add(1)
				log.Error("extraction failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("extraction complete",
				zap.Int("themes", len(result.Themes)),
				zap.Int("raw_themes", result.Metadata.TotalRawThemes),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
