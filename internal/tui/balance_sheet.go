package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/simonvc/stockledger/internal/client"
	"github.com/simonvc/stockledger/internal/ledger"
)

type balanceSheetLoadedMsg struct {
	bs  *ledger.BalanceSheet
	err error
}

type balanceSheetModel struct {
	bs      *ledger.BalanceSheet
	loading bool
	err     error
	width   int
	height  int
}

func (m *balanceSheetModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		bs, err := c.BalanceSheet(context.Background(), time.Time{})
		return balanceSheetLoadedMsg{bs: bs, err: err}
	}
}

func (m balanceSheetModel) update(msg tea.Msg) (balanceSheetModel, tea.Cmd) {
	switch msg := msg.(type) {
	case balanceSheetLoadedMsg:
		m.loading = false
		m.bs = msg.bs
		m.err = msg.err
	}
	return m, nil
}

var (
	ratioGreen  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	ratioYellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	ratioRed    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func ratioStyle(value, warn, danger decimal.Decimal) lipgloss.Style {
	if value.LessThan(danger) {
		return ratioRed
	}
	if value.LessThan(warn) {
		return ratioYellow
	}
	return ratioGreen
}

// statementWidths sizes the name column to the terminal, leaving room for
// the code and amount columns.
func statementWidths(width int) (w, nameW int) {
	w = width
	if w < 60 {
		w = 80
	}
	nameW = w - 32
	if nameW < 10 {
		nameW = 10
	}
	if nameW > 40 {
		nameW = 40
	}
	return w, nameW
}

func renderSection(b *strings.Builder, sec ledger.StatementSection, w, nameW int) {
	b.WriteString(fmt.Sprintf("  %s\n", headerStyle.Render(sec.Title)))
	if len(sec.Lines) == 0 {
		b.WriteString(dimStyle.Render("    (no balances)") + "\n\n")
		return
	}
	for _, l := range sec.Lines {
		name := l.AccountName
		if len(name) > nameW-2 {
			name = name[:nameW-2] + ".."
		}
		b.WriteString(fmt.Sprintf("    %-6d %-*s %15s\n", l.Code, nameW, name, ledger.FormatAmount(l.Amount)))
	}
	renderTotal(b, "Total "+sec.Title, sec.Total, w, nameW, "─")
}

func renderTotal(b *strings.Builder, label string, amount decimal.Decimal, w, nameW int, rule string) {
	b.WriteString(fmt.Sprintf("    %s\n", strings.Repeat(rule, w-8)))
	b.WriteString(fmt.Sprintf("    %-*s %15s\n", nameW+7, label, ledger.FormatAmount(amount)))
	b.WriteString("\n")
}

func (m *balanceSheetModel) view() string {
	if m.loading {
		return "Loading balance sheet..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.bs == nil {
		return dimStyle.Render("No data available.")
	}
	bs := m.bs

	var b strings.Builder
	w, nameW := statementWidths(m.width)

	b.WriteString(titleStyle.Render(centerStr("BALANCE SHEET", w)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(centerStr("as of "+bs.AsOf.Format(ledger.DateLayout), w)))
	b.WriteString("\n\n")

	renderSection(&b, bs.CurrentAssets, w, nameW)
	renderSection(&b, bs.FixedAssets, w, nameW)
	renderTotal(&b, "Total Assets", bs.TotalAssets, w, nameW, "═")

	renderSection(&b, bs.CurrentLiabilities, w, nameW)
	renderSection(&b, bs.LongTermLiabilities, w, nameW)
	renderSection(&b, bs.Equity, w, nameW)
	b.WriteString(fmt.Sprintf("    %-*s %15s\n", nameW+7, "Current period earnings", ledger.FormatAmount(bs.CurrentPeriodEarnings)))
	renderTotal(&b, "Total L + E", bs.TotalLiabilities.Add(bs.TotalEquity), w, nameW, "═")

	cr := bs.CurrentRatio
	b.WriteString(fmt.Sprintf("    %-*s %15s\n", nameW+7, "Working capital", ledger.FormatAmount(bs.WorkingCapital)))
	b.WriteString(fmt.Sprintf("    %-*s %s\n", nameW+7, "Current ratio",
		ratioStyle(cr, decimal.NewFromFloat(1.5), decimal.NewFromInt(1)).Render(fmt.Sprintf("%15s", cr.StringFixed(2)))))
	b.WriteString(fmt.Sprintf("    %-*s %15s\n", nameW+7, "Debt to equity", bs.DebtToEquity.StringFixed(2)))

	b.WriteString("\n")
	if bs.Balanced {
		b.WriteString(successStyle.Render("    [BALANCED]"))
	} else {
		b.WriteString(errorStyle.Render("    [UNBALANCED by " + ledger.FormatAmount(bs.Difference) + "]"))
	}

	return b.String()
}

func centerStr(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
