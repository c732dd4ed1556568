package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/simonvc/stockledger/internal/client"
	"github.com/simonvc/stockledger/internal/cogs"
	"github.com/simonvc/stockledger/internal/ledger"
)

type profitLoadedMsg struct {
	rep *cogs.ProfitabilityReport
	err error
}

type profitModel struct {
	rep     *cogs.ProfitabilityReport
	cursor  int
	loading bool
	err     error
	width   int
	height  int
}

func (m *profitModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		rep, err := c.ProductProfitability(context.Background(), time.Time{}, time.Time{})
		return profitLoadedMsg{rep: rep, err: err}
	}
}

func (m profitModel) update(msg tea.Msg) (profitModel, tea.Cmd) {
	switch msg := msg.(type) {
	case profitLoadedMsg:
		m.loading = false
		m.rep = msg.rep
		m.err = msg.err
		m.cursor = 0

	case tea.KeyMsg:
		if m.rep == nil {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.rep.Rows)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m *profitModel) view() string {
	if m.loading {
		return "Loading profitability..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.rep == nil || len(m.rep.Rows) == 0 {
		return dimStyle.Render("No sales recorded yet.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Product Profitability"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-26s %10s %12s %12s %12s %8s", "PRODUCT", "QTY", "REVENUE", "COGS", "PROFIT", "MARGIN")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	maxRows := m.height - 6
	if maxRows < 1 {
		maxRows = 10
	}
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	rows := m.rep.Rows
	for i := start; i < len(rows) && i < start+maxRows; i++ {
		r := rows[i]
		name := r.Name
		if r.Recomputed {
			name += "*"
		}
		if len(name) > 24 {
			name = name[:24] + ".."
		}
		line := fmt.Sprintf("  %-26s %10s %12s %12s %12s %7s%%",
			name, r.Quantity.String(),
			ledger.FormatAmount(r.Revenue), ledger.FormatAmount(r.COGS), ledger.FormatAmount(r.Profit),
			r.Margin.StringFixed(2))
		switch {
		case i == m.cursor:
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		default:
			b.WriteString(ratioStyle(r.Margin, decimal.NewFromInt(20), decimal.Zero).Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("  %s\n", strings.Repeat("─", 86)))
	b.WriteString(fmt.Sprintf("  %-37s %12s %12s %12s %7s%%\n", "TOTAL",
		ledger.FormatAmount(m.rep.TotalRevenue), ledger.FormatAmount(m.rep.TotalCOGS),
		ledger.FormatAmount(m.rep.TotalProfit), m.rep.Margin.StringFixed(2)))
	b.WriteString(dimStyle.Render("\n  * cost recomputed from current stock valuation"))
	if n := len(m.rep.Warnings); n > 0 {
		b.WriteString("\n" + warnStyle.Render(fmt.Sprintf("  %d items could not be costed", n)))
	}
	return b.String()
}
