package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var lookupMinConfidence float64

var lookupCmd = &cobra.Command{
	Use:   "lookup TICKER",
	Short: "Show stored themes for a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initQueryStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		stock, err := st.GetStock(ctx, args[0])
		if err != nil {
			return err
		}
		themes, err := st.GetThemesForStock(ctx, args[0], lookupMinConfidence)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"stock":  stock,
			"themes": themes,
		})
	},
}

func init() {
	lookupCmd.Flags().Float64Var(&lookupMinConfidence, "min-confidence", 0, "minimum theme confidence")
	rootCmd.AddCommand(lookupCmd)
}
