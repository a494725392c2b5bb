package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/stock-themes/internal/model"
	"github.com/sells-group/stock-themes/pkg/stocktwits"
)

var collectSocialCmd = &cobra.Command{
	Use:   "collect-social [TICKER...]",
	Short: "Collect StockTwits messages into the store",
	Long:  "Pulls the latest StockTwits stream page for each ticker and persists new messages. Run daily to build up the trailing sentiment window. Without arguments, collects for every stock in the store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initQueryStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		tickers := args
		if len(tickers) == 0 {
			tickers, err = st.AllTickers(ctx)
			if err != nil {
				return err
			}
		}

		client := stocktwits.NewClient()
		total := 0
		for _, ticker := range tickers {
			messages, err := client.Stream(ctx, ticker)
			if err != nil {
				zap.L().Warn("stream fetch failed",
					zap.String("ticker", ticker), zap.Error(err))
				continue
			}

			records := make([]model.SocialMessage, 0, len(messages))
			for _, msg := range messages {
				records = append(records, model.SocialMessage{
					Ticker:    ticker,
					Source:    "stocktwits",
					MessageID: msg.ID,
					Body:      msg.Body,
					Sentiment: msg.Sentiment,
					CreatedAt: msg.CreatedAt,
				})
			}

			inserted, err := st.StoreSocialMessages(ctx, records)
			if err != nil {
				zap.L().Warn("message store failed",
					zap.String("ticker", ticker), zap.Error(err))
				continue
			}
			total += inserted
			zap.L().Info("messages collected",
				zap.String("ticker", ticker),
				zap.Int("fetched", len(messages)),
				zap.Int("new", inserted),
			)

			// Stay polite with the unauthenticated API.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}

		// Housekeeping while we hold the store open.
		if deleted, err := st.DeleteExpiredProfiles(ctx); err != nil {
			zap.L().Warn("cache cleanup failed", zap.Error(err))
		} else if deleted > 0 {
			zap.L().Info("expired cache entries removed", zap.Int("count", deleted))
		}

		zap.L().Info("collection complete",
			zap.Int("tickers", len(tickers)),
			zap.Int("new_messages", total),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(collectSocialCmd)
}
