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

type accountsLoadedMsg struct {
	accounts []ledger.Account
	err      error
}

// accountDeactivateConfirmedMsg is sent when the user confirms with y.
type accountDeactivateConfirmedMsg struct {
	code int
}

// accountDeactivatedMsg is sent after the server processes the request.
type accountDeactivatedMsg struct {
	code int
	err  error
}

type accountListModel struct {
	accounts      []ledger.Account
	cursor        int
	loading       bool
	err           error
	width         int
	height        int
	confirmDeact  bool
	deactivateTgt int
}

func (m *accountListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		accounts, err := c.ListAccounts(context.Background(), "", false)
		return accountsLoadedMsg{accounts: accounts, err: err}
	}
}

func (m accountListModel) update(msg tea.Msg) (accountListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountsLoadedMsg:
		m.loading = false
		m.accounts = msg.accounts
		m.err = msg.err
		if m.cursor >= len(m.accounts) {
			m.cursor = 0
		}

	case accountDeactivatedMsg:
		m.confirmDeact = false
		m.deactivateTgt = 0
		if msg.err != nil {
			m.err = msg.err
		}

	case tea.KeyMsg:
		if m.confirmDeact {
			switch msg.String() {
			case "y", "Y":
				code := m.deactivateTgt
				m.confirmDeact = false
				return m, func() tea.Msg {
					return accountDeactivateConfirmedMsg{code: code}
				}
			default:
				m.confirmDeact = false
				m.deactivateTgt = 0
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.accounts)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Deactivate):
			if a := m.selected(); a != nil && !a.IsSystem && a.IsActive {
				m.confirmDeact = true
				m.deactivateTgt = a.Code
				m.err = nil
			}
		}
	}
	return m, nil
}

func (m *accountListModel) selected() *ledger.Account {
	if m.cursor >= 0 && m.cursor < len(m.accounts) {
		return &m.accounts[m.cursor]
	}
	return nil
}

func (m *accountListModel) selectedCode() int {
	if a := m.selected(); a != nil {
		return a.Code
	}
	return 0
}

func (m *accountListModel) view() string {
	if m.loading {
		return "Loading accounts..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.accounts) == 0 {
		return dimStyle.Render("No accounts found. Run 'stockledger business init' first.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Chart of Accounts"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %6s %-30s %-10s %-7s %15s %s", "CODE", "NAME", "TYPE", "NORMAL", "BALANCE", "")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	maxRows := m.height - 4
	if maxRows < 1 {
		maxRows = 10
	}

	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	for i := start; i < len(m.accounts) && i < start+maxRows; i++ {
		a := m.accounts[i]
		name := a.Name
		if len(name) > 28 {
			name = name[:28] + ".."
		}
		mark := ""
		switch {
		case !a.IsActive:
			mark = "inactive"
		case a.IsSystem:
			mark = "system"
		}

		line := fmt.Sprintf("  %6d %-30s %-10s %-7s %15s %s", a.Code, name, a.Type, a.NormalBalance, ledger.FormatAmount(a.CurrentBalance), mark)
		switch {
		case i == m.cursor:
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		case !a.IsActive:
			b.WriteString(dimStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	if m.confirmDeact {
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("  Deactivate account %d? (y/n)", m.deactivateTgt)))
	} else {
		b.WriteString(fmt.Sprintf("\n  %d accounts", len(m.accounts)))
	}

	return b.String()
}
