package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/simonvc/stockledger/internal/ledger"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Inspect the chart of accounts",
}

var (
	acctListType   string
	acctListActive bool
)

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		typ := ledger.AccountType(acctListType)
		if typ != "" && !ledger.ValidAccountType(typ) {
			return fmt.Errorf("%w: %s", ledger.ErrInvalidAccountType, acctListType)
		}
		accounts, err := newClient().ListAccounts(context.Background(), typ, acctListActive)
		if err != nil {
			return err
		}

		if len(accounts) == 0 {
			fmt.Println("No accounts found.")
			return nil
		}

		fmt.Printf("%6s %-30s %-10s %-22s %15s %s\n", "CODE", "NAME", "TYPE", "SECTION", "BALANCE", "FLAGS")
		fmt.Printf("%6s %-30s %-10s %-22s %15s %s\n", "----", "----", "----", "-------", "-------", "-----")
		for _, a := range accounts {
			name := a.Name
			if len(name) > 28 {
				name = name[:28] + ".."
			}
			fmt.Printf("%6d %-30s %-10s %-22s %15s %s\n", a.Code, name, a.Type, a.Section, ledger.FormatAmount(a.CurrentBalance), accountFlags(a))
		}
		return nil
	},
}

func accountFlags(a ledger.Account) string {
	flags := ""
	if a.IsSystem {
		flags += "S"
	}
	if a.AllowManualEntry {
		flags += "M"
	}
	if !a.IsActive {
		flags += "x"
	}
	return flags
}

var accountGetCmd = &cobra.Command{
	Use:   "get [code]",
	Short: "Get account details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := parseCode(args[0])
		if err != nil {
			return err
		}
		a, err := newClient().GetAccount(context.Background(), code)
		if err != nil {
			return err
		}

		fmt.Printf("Code:      %d\n", a.Code)
		fmt.Printf("Name:      %s\n", a.Name)
		fmt.Printf("Type:      %s (%s)\n", a.Type, a.Subtype)
		fmt.Printf("Normal:    %s\n", a.NormalBalance)
		fmt.Printf("Section:   %s\n", a.Section)
		fmt.Printf("Cash flow: %s\n", a.CashFlowSection)
		fmt.Printf("Balance:   %s\n", ledger.FormatAmount(a.CurrentBalance))
		fmt.Printf("YTD:       Dr %s  Cr %s\n", ledger.FormatAmount(a.YTDDebit), ledger.FormatAmount(a.YTDCredit))
		fmt.Printf("System:    %v\n", a.IsSystem)
		fmt.Printf("Manual:    %v\n", a.AllowManualEntry)
		fmt.Printf("Active:    %v\n", a.IsActive)
		return nil
	},
}

var accountBalanceCmd = &cobra.Command{
	Use:   "balance [code]",
	Short: "Get account balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := parseCode(args[0])
		if err != nil {
			return err
		}
		bal, err := newClient().AccountBalance(context.Background(), code)
		if err != nil {
			return err
		}
		fmt.Printf("Account: %d\n", bal.Code)
		fmt.Printf("Balance: %s\n", bal.Formatted)
		return nil
	},
}

var acctLinesFrom, acctLinesTo string

var accountLinesCmd = &cobra.Command{
	Use:   "lines [code]",
	Short: "List posted lines for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := parseCode(args[0])
		if err != nil {
			return err
		}
		from, to, err := parseRange(acctLinesFrom, acctLinesTo)
		if err != nil {
			return err
		}
		lines, err := newClient().AccountLines(context.Background(), code, from, to)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			fmt.Println("No lines found.")
			return nil
		}

		fmt.Printf("%-10s %-12s %-36s %12s %12s\n", "DATE", "SOURCE", "DESCRIPTION", "DEBIT", "CREDIT")
		for _, l := range lines {
			desc := l.EntryDescription
			if len(desc) > 34 {
				desc = desc[:34] + ".."
			}
			fmt.Printf("%-10s %-12s %-36s %12s %12s\n",
				l.EntryDate.Format(ledger.DateLayout), l.SourceType, desc, blankZero(l.Debit), blankZero(l.Credit))
		}
		return nil
	},
}

var accountDeactivateCmd = &cobra.Command{
	Use:   "deactivate [code]",
	Short: "Deactivate a non-system account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := parseCode(args[0])
		if err != nil {
			return err
		}
		if err := newClient().DeactivateAccount(context.Background(), code); err != nil {
			return err
		}
		fmt.Printf("Account %d deactivated\n", code)
		return nil
	},
}

func parseCode(s string) (int, error) {
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ledger.ErrInvalidAccountCode, s)
	}
	return code, nil
}

func init() {
	accountListCmd.Flags().StringVar(&acctListType, "type", "", "Filter by type (asset, liability, equity, revenue, expense)")
	accountListCmd.Flags().BoolVar(&acctListActive, "active", false, "Only active accounts")
	accountLinesCmd.Flags().StringVar(&acctLinesFrom, "from", "", "Start date (YYYY-MM-DD)")
	accountLinesCmd.Flags().StringVar(&acctLinesTo, "to", "", "End date (YYYY-MM-DD)")

	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountGetCmd)
	accountCmd.AddCommand(accountBalanceCmd)
	accountCmd.AddCommand(accountLinesCmd)
	accountCmd.AddCommand(accountDeactivateCmd)

	rootCmd.AddCommand(accountCmd)
}
