package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simonvc/stockledger/internal/client"
	"github.com/simonvc/stockledger/internal/ledger"
)

var entryCmd = &cobra.Command{
	Use:     "entry",
	Aliases: []string{"je"},
	Short:   "Manage journal entries",
}

// entry create
var (
	entryDescription string
	entryDate        string
	entryReference   string
	entryLines       []string // format: "code:dr|cr:amount"
)

var entryCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Post a manual journal entry",
	Long:  "Post a balanced manual entry to accounts that allow manual posting.\nEach --line is formatted as \"code:dr|cr:amount\" (e.g. \"5200:dr:400\")",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := parseDate("date", entryDate); err != nil {
			return err
		}
		req := client.ManualEntry{
			Date:        entryDate,
			Description: entryDescription,
			Reference:   entryReference,
		}
		for _, raw := range entryLines {
			l, err := parseLine(raw)
			if err != nil {
				return err
			}
			req.Lines = append(req.Lines, l)
		}

		e, err := newClient().CreateManualEntry(context.Background(), req)
		if err != nil {
			return err
		}
		fmt.Printf("Entry posted: %s\n", e.ID)
		printEntryLines(e)
		return nil
	},
}

func parseLine(raw string) (client.ManualLine, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		return client.ManualLine{}, fmt.Errorf("invalid line format %q, expected code:dr|cr:amount", raw)
	}
	code, err := parseCode(parts[0])
	if err != nil {
		return client.ManualLine{}, err
	}
	amount, err := decimal.NewFromString(parts[2])
	if err != nil {
		return client.ManualLine{}, fmt.Errorf("invalid amount %q in line %q: %w", parts[2], raw, err)
	}
	l := client.ManualLine{AccountCode: code}
	switch strings.ToLower(parts[1]) {
	case "dr", "debit":
		l.Debit = amount
	case "cr", "credit":
		l.Credit = amount
	default:
		return client.ManualLine{}, fmt.Errorf("invalid side %q in line %q, expected dr or cr", parts[1], raw)
	}
	return l, nil
}

// entry list
var (
	entryListFrom    string
	entryListTo      string
	entryListSource  string
	entryListAccount int
	entryListLimit   int
)

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := parseRange(entryListFrom, entryListTo)
		if err != nil {
			return err
		}
		entries, err := newClient().ListEntries(context.Background(), client.EntryQuery{
			From:        from,
			To:          to,
			Source:      ledger.SourceType(entryListSource),
			AccountCode: entryListAccount,
			Limit:       entryListLimit,
		})
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No entries found.")
			return nil
		}

		fmt.Printf("%-38s %-10s %-16s %12s %s\n", "ID", "DATE", "SOURCE", "AMOUNT", "DESCRIPTION")
		fmt.Printf("%-38s %-10s %-16s %12s %s\n", "--", "----", "------", "------", "-----------")
		for _, e := range entries {
			desc := e.Description
			if len(desc) > 40 {
				desc = desc[:38] + ".."
			}
			debit, _ := e.Totals()
			fmt.Printf("%-38s %-10s %-16s %12s %s\n",
				e.ID,
				e.EntryDate.Format(ledger.DateLayout),
				e.SourceType,
				ledger.FormatAmount(debit),
				desc,
			)
		}
		return nil
	},
}

var entryGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get journal entry details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newClient().GetEntry(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:          %s\n", e.ID)
		fmt.Printf("Date:        %s\n", e.EntryDate.Format(ledger.DateLayout))
		fmt.Printf("Description: %s\n", e.Description)
		fmt.Printf("Source:      %s %s\n", e.SourceType, e.SourceID)
		if e.Reference != "" {
			fmt.Printf("Reference:   %s\n", e.Reference)
		}
		fmt.Printf("Posted:      %s\n", e.PostedAt.Format("2006-01-02 15:04:05"))
		if e.ReversalOf != "" {
			fmt.Printf("Reverses:    %s\n", e.ReversalOf)
		}
		if e.ReversedBy != "" {
			fmt.Printf("Reversed by: %s\n", e.ReversedBy)
		}
		printEntryLines(e)
		return nil
	},
}

func printEntryLines(e *ledger.JournalEntry) {
	fmt.Printf("Lines:\n")
	fmt.Printf("  %-4s %-6s %12s %s\n", "TYPE", "CODE", "AMOUNT", "DESCRIPTION")
	for _, l := range e.Lines {
		side, amt := "DR", l.Debit
		if l.Credit.IsPositive() {
			side, amt = "CR", l.Credit
		}
		fmt.Printf("  %-4s %-6d %12s %s\n", side, l.AccountCode, ledger.FormatAmount(amt), l.Description)
	}
}

var entryReverseDate string

var entryReverseCmd = &cobra.Command{
	Use:   "reverse [id]",
	Short: "Post a reversing entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate("date", entryReverseDate)
		if err != nil {
			return err
		}
		rev, err := newClient().ReverseEntry(context.Background(), args[0], date, "cli")
		if err != nil {
			return err
		}
		fmt.Printf("Reversal posted: %s\n", rev.ID)
		printEntryLines(rev)
		return nil
	},
}

func init() {
	entryCreateCmd.Flags().StringVar(&entryDescription, "description", "", "Entry description")
	entryCreateCmd.Flags().StringVar(&entryDate, "date", "", "Entry date (YYYY-MM-DD, default today)")
	entryCreateCmd.Flags().StringVar(&entryReference, "reference", "", "External reference")
	entryCreateCmd.Flags().StringSliceVar(&entryLines, "line", nil, "Line in format code:dr|cr:amount (can be repeated)")
	entryCreateCmd.MarkFlagRequired("description")
	entryCreateCmd.MarkFlagRequired("line")

	entryListCmd.Flags().StringVar(&entryListFrom, "from", "", "Start date (YYYY-MM-DD)")
	entryListCmd.Flags().StringVar(&entryListTo, "to", "", "End date (YYYY-MM-DD)")
	entryListCmd.Flags().StringVar(&entryListSource, "source", "", "Filter by source (sale, purchase, payment_received, payment_made, manual, reversal)")
	entryListCmd.Flags().IntVar(&entryListAccount, "account", 0, "Filter by account code")
	entryListCmd.Flags().IntVar(&entryListLimit, "limit", 50, "Maximum entries")

	entryReverseCmd.Flags().StringVar(&entryReverseDate, "date", "", "Reversal date (YYYY-MM-DD, default today)")

	entryCmd.AddCommand(entryCreateCmd)
	entryCmd.AddCommand(entryListCmd)
	entryCmd.AddCommand(entryGetCmd)
	entryCmd.AddCommand(entryReverseCmd)

	rootCmd.AddCommand(entryCmd)
}
