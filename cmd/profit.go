package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simonvc/stockledger/internal/cogs"
	"github.com/simonvc/stockledger/internal/ledger"
)

var (
	profitFrom      string
	profitTo        string
	profitThreshold string
	profitLimit     int
)

var profitCmd = &cobra.Command{
	Use:   "profit",
	Short: "Profitability by product and category",
}

var profitProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "Revenue, cost and margin per product",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := parseRange(profitFrom, profitTo)
		if err != nil {
			return err
		}
		rep, err := newClient().ProductProfitability(context.Background(), from, to)
		if err != nil {
			return err
		}
		printProfitability(rep, "PRODUCT")
		return nil
	},
}

var profitCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Revenue, cost and margin per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := parseRange(profitFrom, profitTo)
		if err != nil {
			return err
		}
		rep, err := newClient().CategoryProfitability(context.Background(), from, to)
		if err != nil {
			return err
		}
		printProfitability(rep, "CATEGORY")
		return nil
	},
}

var profitLowMarginCmd = &cobra.Command{
	Use:   "low-margin",
	Short: "Products below a margin threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := parseRange(profitFrom, profitTo)
		if err != nil {
			return err
		}
		var threshold *decimal.Decimal
		if profitThreshold != "" {
			d, err := decimal.NewFromString(profitThreshold)
			if err != nil {
				return fmt.Errorf("--threshold: %w", err)
			}
			threshold = &d
		}
		rep, err := newClient().LowMarginProducts(context.Background(), from, to, threshold)
		if err != nil {
			return err
		}
		printProfitability(rep, "PRODUCT")
		return nil
	},
}

var profitTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Most profitable products",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := parseRange(profitFrom, profitTo)
		if err != nil {
			return err
		}
		rep, err := newClient().TopPerformers(context.Background(), from, to, profitLimit)
		if err != nil {
			return err
		}
		printProfitability(rep, "PRODUCT")
		return nil
	},
}

func printProfitability(rep *cogs.ProfitabilityReport, label string) {
	if len(rep.Rows) == 0 {
		fmt.Println("No sales in period.")
		return
	}
	fmt.Printf("%-28s %10s %12s %12s %12s %8s\n", label, "QTY", "REVENUE", "COGS", "PROFIT", "MARGIN")
	fmt.Printf("%-28s %10s %12s %12s %12s %8s\n", "----", "---", "-------", "----", "------", "------")
	for _, r := range rep.Rows {
		name := r.Name
		if r.Recomputed {
			name += "*"
		}
		if len(name) > 26 {
			name = name[:26] + ".."
		}
		fmt.Printf("%-28s %10s %12s %12s %12s %7s%%\n",
			name, r.Quantity.String(),
			ledger.FormatAmount(r.Revenue), ledger.FormatAmount(r.COGS), ledger.FormatAmount(r.Profit),
			r.Margin.StringFixed(2))
	}
	fmt.Printf("%-39s %12s %12s %12s %7s%%\n", "TOTAL",
		ledger.FormatAmount(rep.TotalRevenue), ledger.FormatAmount(rep.TotalCOGS), ledger.FormatAmount(rep.TotalProfit),
		rep.Margin.StringFixed(2))
	fmt.Println("\n* cost recomputed from current stock valuation")
	for _, w := range rep.Warnings {
		fmt.Printf("warning: %s: variation %d: %s\n", w.Kind, w.VariationID, w.Message)
	}
}

func init() {
	profitCmd.PersistentFlags().StringVar(&profitFrom, "from", "", "Period start (YYYY-MM-DD)")
	profitCmd.PersistentFlags().StringVar(&profitTo, "to", "", "Period end (YYYY-MM-DD)")
	profitLowMarginCmd.Flags().StringVar(&profitThreshold, "threshold", "", "Margin percent (default reports.low_margin_threshold)")
	profitTopCmd.Flags().IntVar(&profitLimit, "limit", 10, "Number of products")

	profitCmd.AddCommand(profitProductsCmd)
	profitCmd.AddCommand(profitCategoriesCmd)
	profitCmd.AddCommand(profitLowMarginCmd)
	profitCmd.AddCommand(profitTopCmd)
	rootCmd.AddCommand(profitCmd)
}
