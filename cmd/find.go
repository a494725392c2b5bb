package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/stock-themes/internal/taxonomy"
)

var findMinConfidence float64

var findCmd = &cobra.Command{
	Use:   "find THEME",
	Short: "Find stocks carrying a theme",
	Long:  "Looks up stocks by theme name. Aliases resolve through the taxonomy, so \"ai\" finds \"artificial intelligence\".",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initQueryStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		name := taxonomy.Normalize(args[0])
		stocks, err := st.GetStocksForTheme(ctx, name, findMinConfidence)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"theme":  name,
			"stocks": stocks,
		})
	},
}

func init() {
	findCmd.Flags().Float64Var(&findMinConfidence, "min-confidence", 0, "minimum theme confidence")
	rootCmd.AddCommand(findCmd)
}
