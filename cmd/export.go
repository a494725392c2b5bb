package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

var (
	exportOut           string
	exportMinConfidence float64
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all stocks and themes to an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initQueryStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		file := xlsx.NewFile()

		themeSheet, err := file.AddSheet("Stock Themes")
		if err != nil {
			return eris.Wrap(err, "add themes sheet")
		}
		header := themeSheet.AddRow()
		for _, h := range []string{"Ticker", "Company", "Theme", "Category", "Confidence", "Source", "Evidence"} {
			header.AddCell().SetString(h)
		}

		tickers, err := st.AllTickers(ctx)
		if err != nil {
			return err
		}
		rows := 0
		for _, ticker := range tickers {
			stock, err := st.GetStock(ctx, ticker)
			if err != nil {
				return err
			}
			themes, err := st.GetThemesForStock(ctx, ticker, exportMinConfidence)
			if err != nil {
				return err
			}
			for _, theme := range themes {
				row := themeSheet.AddRow()
				row.AddCell().SetString(stock.Ticker)
				row.AddCell().SetString(stock.Name)
				row.AddCell().SetString(theme.Name)
				row.AddCell().SetString(theme.Category)
				row.AddCell().SetFloat(theme.Confidence)
				row.AddCell().SetString(theme.Source)
				row.AddCell().SetString(theme.Evidence)
				rows++
			}
		}

		statsSheet, err := file.AddSheet("Theme Distribution")
		if err != nil {
			return eris.Wrap(err, "add stats sheet")
		}
		statsHeader := statsSheet.AddRow()
		for _, h := range []string{"Theme", "Category", "Stocks", "Avg Confidence"} {
			statsHeader.AddCell().SetString(h)
		}
		stats, err := st.ThemeDistribution(ctx)
		if err != nil {
			return err
		}
		for _, stat := range stats {
			row := statsSheet.AddRow()
			row.AddCell().SetString(stat.Name)
			row.AddCell().SetString(stat.Category)
			row.AddCell().SetInt(stat.StockCount)
			row.AddCell().SetFloat(stat.AvgConfidence)
		}

		if err := file.Save(exportOut); err != nil {
			return eris.Wrapf(err, "save %s", exportOut)
		}

		zap.L().Info("export complete",
			zap.String("file", exportOut),
			zap.Int("stocks", len(tickers)),
			zap.Int("theme_rows", rows),
		)
		fmt.Println(exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "stock_themes.xlsx", "output file path")
	exportCmd.Flags().Float64Var(&exportMinConfidence, "min-confidence", 0, "minimum theme confidence")
	rootCmd.AddCommand(exportCmd)
}
