package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simonvc/stockledger/internal/config"
	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/ledger"
)

var businessCmd = &cobra.Command{
	Use:   "business",
	Short: "Set up and inspect the business",
}

var businessInitMethod string

var businessInitCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Seed the chart of accounts for the configured business",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		method := cfg.Method()
		if businessInitMethod != "" {
			m, err := inventory.ParseMethod(businessInitMethod)
			if err != nil {
				return err
			}
			method = m
		}

		b, err := newClient().InitBusiness(context.Background(), name, method)
		if err != nil {
			return err
		}
		printBusiness(b)
		return nil
	},
}

var businessShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured business",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newClient().GetBusiness(context.Background())
		if err != nil {
			return err
		}
		printBusiness(b)
		return nil
	},
}

var businessMethodCmd = &cobra.Command{
	Use:   "method [fifo|lifo|avco]",
	Short: "Change the inventory costing method",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := inventory.ParseMethod(args[0])
		if err != nil {
			return err
		}
		b, err := newClient().SetMethod(context.Background(), m)
		if err != nil {
			return err
		}
		printBusiness(b)
		return nil
	},
}

func printBusiness(b *ledger.Business) {
	fmt.Printf("ID:      %d\n", b.ID)
	fmt.Printf("Name:    %s\n", b.Name)
	fmt.Printf("Method:  %s\n", b.AccountingMethod)
	fmt.Printf("Chart:   v%d\n", b.ChartVersion)
	fmt.Printf("Created: %s\n", b.CreatedAt.Format("2006-01-02 15:04:05"))
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(flagConfig); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", flagConfig)
		}
		if err := config.Save(flagConfig, cfg); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", flagConfig)
		return nil
	},
}

func init() {
	businessInitCmd.Flags().StringVar(&businessInitMethod, "method", "", "Costing method (defaults to accounting.method)")

	businessCmd.AddCommand(businessInitCmd)
	businessCmd.AddCommand(businessShowCmd)
	businessCmd.AddCommand(businessMethodCmd)
	rootCmd.AddCommand(businessCmd)

	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
