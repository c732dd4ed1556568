package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/stockledger/internal/client"
	"github.com/simonvc/stockledger/internal/ledger"
)

type incomeLoadedMsg struct {
	is  *ledger.IncomeStatement
	err error
}

// incomeModel shows the year to date.
type incomeModel struct {
	is      *ledger.IncomeStatement
	loading bool
	err     error
	width   int
	height  int
}

func (m *incomeModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		now := time.Now().UTC()
		from := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		is, err := c.IncomeStatement(context.Background(), from, now)
		return incomeLoadedMsg{is: is, err: err}
	}
}

func (m incomeModel) update(msg tea.Msg) (incomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case incomeLoadedMsg:
		m.loading = false
		m.is = msg.is
		m.err = msg.err
	}
	return m, nil
}

func (m *incomeModel) view() string {
	if m.loading {
		return "Loading income statement..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.is == nil {
		return dimStyle.Render("No data available.")
	}
	is := m.is

	var b strings.Builder
	w, nameW := statementWidths(m.width)

	b.WriteString(titleStyle.Render(centerStr("INCOME STATEMENT", w)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(centerStr(is.From.Format(ledger.DateLayout)+" to "+is.To.Format(ledger.DateLayout), w)))
	b.WriteString("\n\n")

	renderSection(&b, is.Revenue, w, nameW)
	if len(is.ContraRevenue.Lines) > 0 {
		renderSection(&b, is.ContraRevenue, w, nameW)
	}
	renderTotal(&b, "Net Sales", is.NetSales, w, nameW, "═")
	renderSection(&b, is.CostOfSales, w, nameW)
	renderTotal(&b, "Gross Profit", is.GrossProfit, w, nameW, "═")
	renderSection(&b, is.OperatingExpenses, w, nameW)
	renderTotal(&b, "Operating Income", is.OperatingIncome, w, nameW, "═")
	if len(is.OtherIncome.Lines) > 0 {
		renderSection(&b, is.OtherIncome, w, nameW)
	}
	if len(is.OtherExpenses.Lines) > 0 {
		renderSection(&b, is.OtherExpenses, w, nameW)
	}
	renderTotal(&b, "Net Income", is.NetIncome, w, nameW, "═")

	b.WriteString(fmt.Sprintf("    %-*s %14s%%\n", nameW+7, "Gross margin", is.GrossMargin.StringFixed(2)))
	b.WriteString(fmt.Sprintf("    %-*s %14s%%\n", nameW+7, "Operating margin", is.OperatingMargin.StringFixed(2)))
	b.WriteString(fmt.Sprintf("    %-*s %14s%%\n", nameW+7, "Net margin", is.NetMargin.StringFixed(2)))

	b.WriteString("\n")
	label := "    [" + strings.ToUpper(string(is.Result)) + "]"
	switch is.Result {
	case ledger.ResultProfit:
		b.WriteString(successStyle.Render(label))
	case ledger.ResultLoss:
		b.WriteString(errorStyle.Render(label))
	default:
		b.WriteString(dimStyle.Render(label))
	}
	return b.String()
}
