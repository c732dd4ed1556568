package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/stockledger/internal/client"
	"github.com/simonvc/stockledger/internal/ledger"
)

type entryDetailLoadedMsg struct {
	entry *ledger.JournalEntry
	err   error
}

type entryReverseConfirmedMsg struct {
	id string
}

type entryReversedMsg struct {
	reversal *ledger.JournalEntry
	err      error
}

type entryDetailModel struct {
	entry         *ledger.JournalEntry
	loading       bool
	err           error
	width         int
	confirmRevert bool
}

func (m *entryDetailModel) init(c *client.Client, id string) tea.Cmd {
	m.loading = true
	m.confirmRevert = false
	return func() tea.Msg {
		e, err := c.GetEntry(context.Background(), id)
		return entryDetailLoadedMsg{entry: e, err: err}
	}
}

// reversible is false for reversals and already-reversed entries.
func (m *entryDetailModel) reversible() bool {
	return m.entry != nil && m.entry.ReversalOf == "" && m.entry.ReversedBy == ""
}

func (m entryDetailModel) update(msg tea.Msg) (entryDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case entryDetailLoadedMsg:
		m.loading = false
		m.entry = msg.entry
		m.err = msg.err

	case entryReversedMsg:
		m.confirmRevert = false
		if msg.err != nil {
			m.err = msg.err
		}

	case tea.KeyMsg:
		if m.confirmRevert {
			m.confirmRevert = false
			if msg.String() == "y" || msg.String() == "Y" {
				id := m.entry.ID
				return m, func() tea.Msg { return entryReverseConfirmedMsg{id: id} }
			}
			return m, nil
		}
		if key.Matches(msg, keys.Reverse) && m.reversible() {
			m.confirmRevert = true
		}
	}
	return m, nil
}

func (m *entryDetailModel) view() string {
	if m.loading {
		return "Loading entry..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.entry == nil {
		return ""
	}
	e := m.entry

	var b strings.Builder

	b.WriteString(titleStyle.Render("Entry " + e.ID))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Description:"), e.Description))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Date:"), e.EntryDate.Format(ledger.DateLayout)))
	b.WriteString(fmt.Sprintf("%s %s %s\n", labelStyle.Render("Source:"), e.SourceType, e.SourceID))
	if e.Reference != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Reference:"), e.Reference))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Posted:"), e.PostedAt.Format("2006-01-02 15:04:05")))
	if e.ReversalOf != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Reverses:"), e.ReversalOf))
	}
	if e.ReversedBy != "" {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%s %s", labelStyle.Render("Reversed by:"), e.ReversedBy)) + "\n")
	}
	b.WriteString("\n")

	header := fmt.Sprintf("  %-4s %-6s %15s %15s  %s", "TYPE", "CODE", "DEBIT", "CREDIT", "MEMO")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for _, l := range e.Lines {
		if l.Debit.IsPositive() {
			line := fmt.Sprintf("  %-4s %-6d %15s %15s  %s", "DR", l.AccountCode, ledger.FormatAmount(l.Debit), "", l.Description)
			b.WriteString(debitStyle.Render(line))
		} else {
			line := fmt.Sprintf("  %-4s %-6d %15s %15s  %s", "CR", l.AccountCode, "", ledger.FormatAmount(l.Credit), l.Description)
			b.WriteString(creditStyle.Render(line))
		}
		b.WriteString("\n")
	}

	switch {
	case m.confirmRevert:
		b.WriteString("\n" + errorStyle.Render("  Post a reversing entry? (y/n)"))
	case m.reversible():
		b.WriteString("\n" + dimStyle.Render("  x:reverse  esc:back"))
	default:
		b.WriteString("\n" + dimStyle.Render("  Press ESC to go back"))
	}
	return b.String()
}
