package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/ledger"
	"github.com/simonvc/stockledger/internal/valuation"
)

var (
	invMethod   string
	invAsOf     string
	invLocation int64
	invYear     int
	invGranular string
)

var inventoryCmd = &cobra.Command{
	Use:     "inventory",
	Aliases: []string{"inv"},
	Short:   "Stock valuation",
}

func methodFlag() (inventory.Method, error) {
	return inventory.ParseMethod(invMethod)
}

var inventoryValueCmd = &cobra.Command{
	Use:   "value [variation-id]",
	Short: "Value one variation at one location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var vid int64
		if _, err := fmt.Sscan(args[0], &vid); err != nil {
			return fmt.Errorf("invalid variation id %q", args[0])
		}
		m, err := methodFlag()
		if err != nil {
			return err
		}
		asOf, err := parseDate("as-of", invAsOf)
		if err != nil {
			return err
		}
		v, err := newClient().Valuate(context.Background(), vid, invLocation, m, asOf)
		if err != nil {
			return err
		}

		fmt.Printf("Variation: %d %s (location %d)\n", v.VariationID, v.Name, v.LocationID)
		fmt.Printf("Category:  %s\n", v.CategoryName)
		fmt.Printf("Method:    %s\n", strings.ToUpper(string(v.Method)))
		fmt.Printf("Quantity:  %s\n", v.Quantity.String())
		fmt.Printf("Unit cost: %s\n", v.UnitCost.StringFixed(4))
		fmt.Printf("Value:     %s\n", ledger.FormatAmount(v.TotalValue))
		if v.Fallback {
			fmt.Println("           (priced at last purchase price)")
		}
		if len(v.Layers) > 0 {
			fmt.Printf("Layers:\n")
			fmt.Printf("  %-10s %12s %12s\n", "RECEIVED", "QUANTITY", "UNIT COST")
			for _, l := range v.Layers {
				fmt.Printf("  %-10s %12s %12s\n", l.PurchaseDate.Format(ledger.DateLayout), l.RemainingQuantity.String(), l.UnitCost.StringFixed(4))
			}
		}
		printWarnings(v.Warnings)
		return nil
	},
}

var inventoryCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Stock value by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := methodFlag()
		if err != nil {
			return err
		}
		asOf, err := parseDate("as-of", invAsOf)
		if err != nil {
			return err
		}
		sum, err := newClient().CategoryValuation(context.Background(), m, asOf)
		if err != nil {
			return err
		}

		fmt.Printf("Method: %s  as of %s\n\n", strings.ToUpper(string(sum.Method)), sum.AsOf.Format(ledger.DateLayout))
		fmt.Printf("%-30s %6s %12s %15s\n", "CATEGORY", "ITEMS", "QUANTITY", "VALUE")
		for _, c := range sum.Categories {
			fmt.Printf("%-30s %6d %12s %15s\n", c.CategoryName, c.Items, c.Quantity.String(), ledger.FormatAmount(c.TotalValue))
		}
		fmt.Printf("%-50s %15s\n", "TOTAL", ledger.FormatAmount(sum.TotalValue))
		printWarnings(sum.Warnings)
		return nil
	},
}

var inventoryTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Stock value at each period end of a year",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := methodFlag()
		if err != nil {
			return err
		}
		var g valuation.Granularity
		if invGranular != "" {
			if g, err = valuation.ParseGranularity(invGranular); err != nil {
				return err
			}
		}
		tr, err := newClient().ValuationTrend(context.Background(), invYear, g, m)
		if err != nil {
			return err
		}

		fmt.Printf("%d %s (%s)\n\n", tr.Year, tr.Granularity, strings.ToUpper(string(tr.Method)))
		fmt.Printf("%-10s %15s\n", "PERIOD", "VALUE")
		for _, p := range tr.Points {
			fmt.Printf("%-10s %15s\n", p.Label, ledger.FormatAmount(p.TotalValue))
		}
		fmt.Printf("\nChange: %s (%s%%)\n", ledger.FormatAmount(tr.Change), tr.PercentChange.StringFixed(2))
		return nil
	},
}

func printWarnings(ws []inventory.Warning) {
	if len(ws) == 0 {
		return
	}
	fmt.Println("\nWarnings:")
	for _, w := range ws {
		fmt.Printf("  %s\n", w)
	}
}

func init() {
	inventoryCmd.PersistentFlags().StringVar(&invMethod, "method", "", "Costing method (fifo, lifo, avco; default the business method)")
	inventoryValueCmd.Flags().Int64Var(&invLocation, "location", 1, "Location ID")
	for _, c := range []*cobra.Command{inventoryValueCmd, inventoryCategoriesCmd} {
		c.Flags().StringVar(&invAsOf, "as-of", "", "Valuation date (YYYY-MM-DD, default now)")
	}
	inventoryTrendCmd.Flags().IntVar(&invYear, "year", 0, "Year (default current year)")
	inventoryTrendCmd.Flags().StringVar(&invGranular, "granularity", "", "monthly, quarterly or yearly (default reports.trend_granularity)")

	inventoryCmd.AddCommand(inventoryValueCmd)
	inventoryCmd.AddCommand(inventoryCategoriesCmd)
	inventoryCmd.AddCommand(inventoryTrendCmd)
	rootCmd.AddCommand(inventoryCmd)
}
