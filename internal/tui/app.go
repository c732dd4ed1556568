// Package tui is the terminal front end. It reads everything through the
// HTTP client so it works against a local or remote server.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/simonvc/stockledger/internal/client"
)

type mode int

const (
	modeAccountList mode = iota
	modeAccountDetail
	modeEntryList
	modeEntryDetail
	modeBalanceSheet
	modeIncome
	modeProfit
	modeStock
)

var tabModes = []mode{modeAccountList, modeEntryList, modeBalanceSheet, modeIncome, modeProfit, modeStock}

func tabLabel(m mode) string {
	switch m {
	case modeAccountList:
		return "Accounts"
	case modeEntryList:
		return "Journal"
	case modeBalanceSheet:
		return "Balance Sheet"
	case modeIncome:
		return "Income"
	case modeProfit:
		return "Profitability"
	case modeStock:
		return "Inventory"
	default:
		return ""
	}
}

type App struct {
	client        *client.Client
	mode          mode
	tabIndex      int
	width, height int
	statusMsg     string

	accountList   accountListModel
	accountDetail accountDetailModel
	entryList     entryListModel
	entryDetail   entryDetailModel
	balanceSheet  balanceSheetModel
	income        incomeModel
	profit        profitModel
	stock         stockModel
}

func NewApp(c *client.Client) *App {
	return &App{
		client:   c,
		mode:     modeAccountList,
		tabIndex: 0,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.accountList.init(a.client),
		a.entryList.init(a.client),
		a.balanceSheet.init(a.client),
		a.income.init(a.client),
		a.profit.init(a.client),
		a.stock.init(a.client),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.accountList.width, a.accountList.height = msg.Width, msg.Height-6
		a.entryList.width, a.entryList.height = msg.Width, msg.Height-6
		a.balanceSheet.width, a.balanceSheet.height = msg.Width, msg.Height-6
		a.income.width, a.income.height = msg.Width, msg.Height-6
		a.profit.width, a.profit.height = msg.Width, msg.Height-6
		a.stock.width, a.stock.height = msg.Width, msg.Height-6
		a.accountDetail.width = msg.Width
		a.entryDetail.width = msg.Width
		return a, nil
	}

	// Data-loaded messages go to their sub-model whatever the active mode,
	// since Init fires every load at once.
	switch typedMsg := msg.(type) {
	case accountsLoadedMsg:
		a.accountList, _ = a.accountList.update(msg)
		return a, nil
	case accountDetailLoadedMsg:
		a.accountDetail, _ = a.accountDetail.update(msg)
		return a, nil
	case entriesLoadedMsg:
		a.entryList, _ = a.entryList.update(msg)
		return a, nil
	case entryDetailLoadedMsg:
		a.entryDetail, _ = a.entryDetail.update(msg)
		return a, nil
	case balanceSheetLoadedMsg:
		a.balanceSheet, _ = a.balanceSheet.update(msg)
		return a, nil
	case incomeLoadedMsg:
		a.income, _ = a.income.update(msg)
		return a, nil
	case profitLoadedMsg:
		a.profit, _ = a.profit.update(msg)
		return a, nil
	case stockLoadedMsg:
		a.stock, _ = a.stock.update(msg)
		return a, nil

	case accountDeactivateConfirmedMsg:
		code := typedMsg.code
		return a, func() tea.Msg {
			err := a.client.DeactivateAccount(context.Background(), code)
			return accountDeactivatedMsg{code: code, err: err}
		}
	case accountDeactivatedMsg:
		a.accountList, _ = a.accountList.update(msg)
		if typedMsg.err != nil {
			return a, nil
		}
		a.statusMsg = fmt.Sprintf("Account %d deactivated", typedMsg.code)
		return a, a.accountList.init(a.client)

	case entryReverseConfirmedMsg:
		id := typedMsg.id
		return a, func() tea.Msg {
			rev, err := a.client.ReverseEntry(context.Background(), id, time.Time{}, "tui")
			return entryReversedMsg{reversal: rev, err: err}
		}
	case entryReversedMsg:
		a.entryDetail, _ = a.entryDetail.update(msg)
		if typedMsg.err != nil {
			return a, nil
		}
		a.statusMsg = "Reversal posted: " + typedMsg.reversal.ID
		return a, tea.Batch(
			a.entryDetail.init(a.client, a.entryDetail.entry.ID),
			a.entryList.init(a.client),
			a.accountList.init(a.client),
			a.balanceSheet.init(a.client),
			a.income.init(a.client),
		)
	}

	// Pending y/n confirmations take every key.
	if a.mode == modeAccountList && a.accountList.confirmDeact {
		var cmd tea.Cmd
		a.accountList, cmd = a.accountList.update(msg)
		return a, cmd
	}
	if a.mode == modeEntryDetail && a.entryDetail.confirmRevert {
		var cmd tea.Cmd
		a.entryDetail, cmd = a.entryDetail.update(msg)
		return a, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit

		case key.Matches(msg, keys.Tab):
			a.tabIndex = (a.tabIndex + 1) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg = ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.ShiftTab):
			a.tabIndex = (a.tabIndex - 1 + len(tabModes)) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg = ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.Refresh):
			return a, a.refreshTab()

		case key.Matches(msg, keys.Escape):
			switch a.mode {
			case modeAccountDetail:
				a.mode = modeAccountList
			case modeEntryDetail:
				a.mode = modeEntryList
			}
			return a, nil

		case key.Matches(msg, keys.Enter):
			switch a.mode {
			case modeAccountList:
				if code := a.accountList.selectedCode(); code != 0 {
					a.mode = modeAccountDetail
					return a, a.accountDetail.init(a.client, code)
				}
				return a, nil
			case modeEntryList:
				if id := a.entryList.selectedID(); id != "" {
					a.mode = modeEntryDetail
					return a, a.entryDetail.init(a.client, id)
				}
				return a, nil
			}
		}
	}

	// Delegate update to active sub-model
	var cmd tea.Cmd
	switch a.mode {
	case modeAccountList:
		a.accountList, cmd = a.accountList.update(msg)
	case modeAccountDetail:
		a.accountDetail, cmd = a.accountDetail.update(msg)
	case modeEntryList:
		a.entryList, cmd = a.entryList.update(msg)
	case modeEntryDetail:
		a.entryDetail, cmd = a.entryDetail.update(msg)
	case modeBalanceSheet:
		a.balanceSheet, cmd = a.balanceSheet.update(msg)
	case modeIncome:
		a.income, cmd = a.income.update(msg)
	case modeProfit:
		a.profit, cmd = a.profit.update(msg)
	case modeStock:
		var reload bool
		a.stock, reload = a.stock.update(msg)
		if reload {
			cmd = a.stock.init(a.client)
		}
	}
	return a, cmd
}

func (a *App) refreshTab() tea.Cmd {
	switch a.mode {
	case modeAccountList:
		return a.accountList.init(a.client)
	case modeEntryList:
		return a.entryList.init(a.client)
	case modeBalanceSheet:
		return a.balanceSheet.init(a.client)
	case modeIncome:
		return a.income.init(a.client)
	case modeProfit:
		return a.profit.init(a.client)
	case modeStock:
		return a.stock.init(a.client)
	}
	return nil
}

func (a *App) View() string {
	tabs := ""
	for i, m := range tabModes {
		label := tabLabel(m)
		if i == a.tabIndex {
			tabs += activeTabStyle.Render(label)
		} else {
			tabs += inactiveTabStyle.Render(label)
		}
		if i < len(tabModes)-1 {
			tabs += " "
		}
	}

	var content string
	switch a.mode {
	case modeAccountList:
		content = a.accountList.view()
	case modeAccountDetail:
		content = a.accountDetail.view()
	case modeEntryList:
		content = a.entryList.view()
	case modeEntryDetail:
		content = a.entryDetail.view()
	case modeBalanceSheet:
		content = a.balanceSheet.view()
	case modeIncome:
		content = a.income.view()
	case modeProfit:
		content = a.profit.view()
	case modeStock:
		content = a.stock.view()
	}

	status := ""
	if a.statusMsg != "" {
		status = successStyle.Render(a.statusMsg)
	}

	helpText := dimStyle.Render(fmt.Sprintf("business %d  tab:switch  enter:select  esc:back  r:refresh  q:quit", a.client.BusinessID()))

	return lipgloss.JoinVertical(lipgloss.Left,
		tabs,
		"",
		content,
		"",
		status,
		helpText,
	)
}
