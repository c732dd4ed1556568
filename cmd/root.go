package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/simonvc/stockledger/internal/client"
	"github.com/simonvc/stockledger/internal/config"
	"github.com/simonvc/stockledger/internal/ledger"
	"github.com/simonvc/stockledger/internal/logging"
	"github.com/simonvc/stockledger/internal/server"
	"github.com/simonvc/stockledger/internal/valuation"
)

var version = "dev"

var (
	flagConfig   string
	flagServer   string
	flagDB       string
	flagBusiness int64
	flagLogLevel string
)

// Resolved in PersistentPreRunE from the config file and flags.
var (
	cfg    *config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:     "stockledger",
	Short:   "Double-entry accounting and inventory costing for point-of-sale businesses",
	Long:    "A double-entry ledger backed by SQLite that records sales, purchases and payments, values stock with FIFO, LIFO or weighted average cost, and produces financial statements.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cmd.Flags().Changed("config") {
			cfg, err = config.Load(flagConfig)
		} else {
			cfg, err = config.LoadOrDefault(flagConfig)
		}
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			cfg.Database.Path = flagDB
		}
		if cmd.Flags().Changed("server") {
			cfg.Server.URL = flagServer
		}
		if cmd.Flags().Changed("business") {
			cfg.Accounting.BusinessID = flagBusiness
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = flagLogLevel
		}
		if cfg.Accounting.BusinessID <= 0 {
			return fmt.Errorf("%w: %d", ledger.ErrInvalidBusiness, cfg.Accounting.BusinessID)
		}
		logger, err = logging.New(cfg.Log.Level, cfg.Log.Format)
		return err
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Server URL (overrides server.url)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides database.path)")
	rootCmd.PersistentFlags().Int64Var(&flagBusiness, "business", 0, "Business ID (overrides accounting.business_id)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (overrides log.level)")
}

func Execute() error {
	return rootCmd.Execute()
}

func newClient() *client.Client {
	return client.New(cfg.Server.URL, cfg.Accounting.BusinessID)
}

// serverOptions converts the reports section. Validate has already parsed
// every value once, so errors are not expected here.
func serverOptions() server.Options {
	eps, _ := cfg.Epsilon()
	threshold, _ := cfg.LowMarginThreshold()
	g, _ := valuation.ParseGranularity(cfg.Reports.TrendGranularity)
	return server.Options{
		Epsilon:            eps,
		LowMarginThreshold: threshold,
		TrendGranularity:   g,
	}
}

// parseDate reads a YYYY-MM-DD flag value. Empty yields the zero time.
func parseDate(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(ledger.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: want YYYY-MM-DD, got %q", name, s)
	}
	return t, nil
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	f, err := parseDate("from", from)
	if err != nil {
		return f, f, err
	}
	t, err := parseDate("to", to)
	return f, t, err
}
