package cmd

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/simonvc/stockledger/internal/client"
	"github.com/simonvc/stockledger/internal/server"
	"github.com/simonvc/stockledger/internal/store"
	"github.com/simonvc/stockledger/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		serverURL := cfg.Server.URL

		if !cmd.Flags().Changed("server") {
			// Start embedded server in background
			st, err := store.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			defer ln.Close()

			// Request logs would draw over the alt screen.
			logger.SetOutput(io.Discard)
			srv := server.New(st, ln.Addr().String(), logger, serverOptions())
			go func() {
				if err := srv.Serve(ln); err != nil {
					logger.WithError(err).Debug("embedded server stopped")
				}
			}()
			serverURL = "http://" + ln.Addr().String()

			// Wait for server to be ready
			c := client.New(serverURL, cfg.Accounting.BusinessID)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for {
				if err := c.Ping(ctx); err == nil {
					break
				}
				if ctx.Err() != nil {
					return fmt.Errorf("timeout waiting for embedded server")
				}
				time.Sleep(50 * time.Millisecond)
			}
		}

		c := client.New(serverURL, cfg.Accounting.BusinessID)
		app := tui.NewApp(c)
		p := tea.NewProgram(app, tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
