package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simonvc/stockledger/internal/export"
	"github.com/simonvc/stockledger/internal/ledger"
)

var (
	reportAsOf string
	reportFrom string
	reportTo   string
	reportXLSX string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Financial statements",
}

var reportBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show balance sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseDate("as-of", reportAsOf)
		if err != nil {
			return err
		}
		bs, err := newClient().BalanceSheet(context.Background(), asOf)
		if err != nil {
			return err
		}
		printBalanceSheet(bs)
		return writeWorkbook(export.Statements{BalanceSheet: bs})
	},
}

var reportTrialCmd = &cobra.Command{
	Use:   "trial",
	Short: "Show trial balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseDate("as-of", reportAsOf)
		if err != nil {
			return err
		}
		tb, err := newClient().TrialBalance(context.Background(), asOf)
		if err != nil {
			return err
		}
		printTrialBalance(tb)
		return writeWorkbook(export.Statements{TrialBalance: tb})
	},
}

var reportIncomeCmd = &cobra.Command{
	Use:   "income",
	Short: "Show income statement",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := parseRange(reportFrom, reportTo)
		if err != nil {
			return err
		}
		is, err := newClient().IncomeStatement(context.Background(), from, to)
		if err != nil {
			return err
		}
		printIncomeStatement(is)
		return writeWorkbook(export.Statements{IncomeStatement: is})
	},
}

var reportAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Export every statement to one workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportXLSX == "" {
			return fmt.Errorf("--xlsx is required")
		}
		asOf, err := parseDate("as-of", reportAsOf)
		if err != nil {
			return err
		}
		from, to, err := parseRange(reportFrom, reportTo)
		if err != nil {
			return err
		}
		ctx := context.Background()
		c := newClient()
		var st export.Statements
		if st.TrialBalance, err = c.TrialBalance(ctx, asOf); err != nil {
			return err
		}
		if st.BalanceSheet, err = c.BalanceSheet(ctx, asOf); err != nil {
			return err
		}
		if st.IncomeStatement, err = c.IncomeStatement(ctx, from, to); err != nil {
			return err
		}
		return writeWorkbook(st)
	},
}

// writeWorkbook saves st to --xlsx when it is set.
func writeWorkbook(st export.Statements) error {
	if reportXLSX == "" {
		return nil
	}
	f, err := os.Create(reportXLSX)
	if err != nil {
		return err
	}
	if err := export.WriteStatements(f, st); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("\n  Wrote %s\n", reportXLSX)
	return nil
}

func printBalanceSheet(bs *ledger.BalanceSheet) {
	w := 60
	fmt.Println()
	fmt.Println(center("BALANCE SHEET", w))
	fmt.Println(center("as of "+bs.AsOf.Format(ledger.DateLayout), w))
	fmt.Println(center(strings.Repeat("=", 20), w))
	fmt.Println()

	printSection(bs.CurrentAssets, w)
	printSection(bs.FixedAssets, w)
	printTotal("Total Assets", bs.TotalAssets, w, "─")

	printSection(bs.CurrentLiabilities, w)
	printSection(bs.LongTermLiabilities, w)
	printTotal("Total Liabilities", bs.TotalLiabilities, w, "─")

	printSection(bs.Equity, w)
	fmt.Printf("  %-*s%15s\n", w-17, "Current period earnings", ledger.FormatAmount(bs.CurrentPeriodEarnings))
	printTotal("Total Equity", bs.TotalEquity, w, "─")

	printTotal("Total L + E", bs.TotalLiabilities.Add(bs.TotalEquity), w, "═")

	fmt.Printf("  %-*s%15s\n", w-17, "Working capital", ledger.FormatAmount(bs.WorkingCapital))
	fmt.Printf("  %-*s%15s\n", w-17, "Current ratio", bs.CurrentRatio.StringFixed(2))
	fmt.Printf("  %-*s%15s\n", w-17, "Debt to equity", bs.DebtToEquity.StringFixed(2))

	printBalanced(bs.Balanced, bs.Difference)
}

func printSection(sec ledger.StatementSection, w int) {
	if len(sec.Lines) == 0 {
		return
	}
	fmt.Printf("  %s\n", strings.ToUpper(sec.Title))
	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	for _, l := range sec.Lines {
		name := l.AccountName
		if len(name) > 30 {
			name = name[:28] + ".."
		}
		fmt.Printf("  %-6d %-*s%15s\n", l.Code, w-24, name, ledger.FormatAmount(l.Amount))
	}
	fmt.Printf("  %-*s%15s\n", w-17, "Total "+sec.Title, ledger.FormatAmount(sec.Total))
	fmt.Println()
}

func printTotal(label string, amount decimal.Decimal, w int, rule string) {
	fmt.Printf("%*s%s\n", w-13, "", strings.Repeat(rule, 13))
	fmt.Printf("%-*s%15s\n", w-15, label, ledger.FormatAmount(amount))
	fmt.Println()
}

func printBalanced(ok bool, diff decimal.Decimal) {
	if ok {
		fmt.Println("\n  [BALANCED]")
	} else {
		fmt.Printf("\n  [UNBALANCED by %s]\n", ledger.FormatAmount(diff))
	}
}

func printTrialBalance(tb *ledger.TrialBalance) {
	w := 70
	fmt.Println()
	fmt.Println(center("TRIAL BALANCE", w))
	fmt.Println(center(strings.Repeat("=", 20), w))
	fmt.Println()

	fmt.Printf("  %-8s %-30s %15s %15s\n", "CODE", "NAME", "DEBIT", "CREDIT")
	fmt.Printf("  %-8s %-30s %15s %15s\n", "----", "----", "-----", "------")

	for _, l := range tb.Lines {
		name := l.AccountName
		if len(name) > 28 {
			name = name[:28] + ".."
		}
		fmt.Printf("  %-8d %-30s %15s %15s\n", l.Code, name, blankZero(l.Debit), blankZero(l.Credit))
	}

	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	fmt.Printf("  %-39s %15s %15s\n", "TOTALS",
		ledger.FormatAmount(tb.TotalDebit),
		ledger.FormatAmount(tb.TotalCredit))

	printBalanced(tb.Balanced, tb.Difference)
}

func printIncomeStatement(is *ledger.IncomeStatement) {
	w := 60
	fmt.Println()
	fmt.Println(center("INCOME STATEMENT", w))
	fmt.Println(center(is.From.Format(ledger.DateLayout)+" to "+is.To.Format(ledger.DateLayout), w))
	fmt.Println(center(strings.Repeat("=", 20), w))
	fmt.Println()

	printSection(is.Revenue, w)
	printSection(is.ContraRevenue, w)
	printTotal("Net Sales", is.NetSales, w, "─")
	printSection(is.CostOfSales, w)
	printTotal("Gross Profit", is.GrossProfit, w, "─")
	printSection(is.OperatingExpenses, w)
	printTotal("Operating Income", is.OperatingIncome, w, "─")
	printSection(is.OtherIncome, w)
	printSection(is.OtherExpenses, w)
	printTotal("Net Income", is.NetIncome, w, "═")

	fmt.Printf("  %-*s%14s%%\n", w-17, "Gross margin", is.GrossMargin.StringFixed(2))
	fmt.Printf("  %-*s%14s%%\n", w-17, "Operating margin", is.OperatingMargin.StringFixed(2))
	fmt.Printf("  %-*s%14s%%\n", w-17, "Net margin", is.NetMargin.StringFixed(2))
	fmt.Printf("\n  [%s]\n", strings.ToUpper(string(is.Result)))
}

func center(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func blankZero(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return ledger.FormatAmount(d)
}

func init() {
	for _, c := range []*cobra.Command{reportBalanceCmd, reportTrialCmd, reportAllCmd} {
		c.Flags().StringVar(&reportAsOf, "as-of", "", "Report date (YYYY-MM-DD, default today)")
	}
	for _, c := range []*cobra.Command{reportIncomeCmd, reportAllCmd} {
		c.Flags().StringVar(&reportFrom, "from", "", "Period start (YYYY-MM-DD, default all history)")
		c.Flags().StringVar(&reportTo, "to", "", "Period end (YYYY-MM-DD, default today)")
	}
	reportCmd.PersistentFlags().StringVar(&reportXLSX, "xlsx", "", "Also write the statement to an XLSX workbook")

	reportCmd.AddCommand(reportBalanceCmd)
	reportCmd.AddCommand(reportTrialCmd)
	reportCmd.AddCommand(reportIncomeCmd)
	reportCmd.AddCommand(reportAllCmd)
	rootCmd.AddCommand(reportCmd)
}
