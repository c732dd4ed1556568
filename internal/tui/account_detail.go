package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/stockledger/internal/client"
	"github.com/simonvc/stockledger/internal/ledger"
	"github.com/simonvc/stockledger/internal/store"
)

type accountDetailLoadedMsg struct {
	account *ledger.Account
	lines   []store.AccountLine
	err     error
}

type accountDetailModel struct {
	account *ledger.Account
	lines   []store.AccountLine
	loading bool
	err     error
	width   int
}

func (m *accountDetailModel) init(c *client.Client, code int) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		acct, err := c.GetAccount(context.Background(), code)
		if err != nil {
			return accountDetailLoadedMsg{err: err}
		}
		lines, err := c.AccountLines(context.Background(), code, time.Time{}, time.Time{})
		return accountDetailLoadedMsg{account: acct, lines: lines, err: err}
	}
}

func (m accountDetailModel) update(msg tea.Msg) (accountDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountDetailLoadedMsg:
		m.loading = false
		m.account = msg.account
		m.lines = msg.lines
		m.err = msg.err
	}
	return m, nil
}

func (m *accountDetailModel) view() string {
	if m.loading {
		return "Loading account..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.account == nil {
		return ""
	}
	a := m.account

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Account %d: %s", a.Code, a.Name)))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s (%s)\n", labelStyle.Render("Type:"), a.Type, a.Subtype))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Normal side:"), a.NormalBalance))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Section:"), a.Section))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Balance:"), ledger.FormatAmount(a.CurrentBalance)))
	b.WriteString(fmt.Sprintf("%s Dr %s  Cr %s\n", labelStyle.Render("Year to date:"), ledger.FormatAmount(a.YTDDebit), ledger.FormatAmount(a.YTDCredit)))
	b.WriteString(fmt.Sprintf("%s %v\n", labelStyle.Render("Manual entry:"), a.AllowManualEntry))
	b.WriteString("\n")

	if len(m.lines) == 0 {
		b.WriteString(dimStyle.Render("  No postings."))
	} else {
		header := fmt.Sprintf("  %-4s %-10s %-16s %15s  %s", "TYPE", "DATE", "SOURCE", "AMOUNT", "DESCRIPTION")
		b.WriteString(headerStyle.Render(header))
		b.WriteString("\n")

		for _, l := range m.lines {
			desc := l.EntryDescription
			if len(desc) > 30 {
				desc = desc[:28] + ".."
			}
			if l.Debit.IsPositive() {
				line := fmt.Sprintf("  %-4s %-10s %-16s %15s  %s", "DR", l.EntryDate.Format(ledger.DateLayout), l.SourceType, ledger.FormatAmount(l.Debit), desc)
				b.WriteString(debitStyle.Render(line))
			} else {
				line := fmt.Sprintf("  %-4s %-10s %-16s %15s  %s", "CR", l.EntryDate.Format(ledger.DateLayout), l.SourceType, ledger.FormatAmount(l.Credit), desc)
				b.WriteString(creditStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n" + dimStyle.Render("  Press ESC to go back"))
	return b.String()
}
