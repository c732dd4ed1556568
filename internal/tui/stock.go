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
	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/ledger"
	"github.com/simonvc/stockledger/internal/valuation"
)

type stockLoadedMsg struct {
	trend      *valuation.Trend
	categories *valuation.CategorySummary
	err        error
}

var stockMethods = []inventory.Method{"", inventory.FIFO, inventory.LIFO, inventory.AVCO}

// stockModel charts the year's inventory value and the current value per
// category. Method index 0 means the business's own method.
type stockModel struct {
	trend      *valuation.Trend
	categories *valuation.CategorySummary
	year       int
	methodIdx  int
	loading    bool
	err        error
	width      int
	height     int
}

func (m *stockModel) method() inventory.Method {
	return stockMethods[m.methodIdx]
}

func (m *stockModel) init(c *client.Client) tea.Cmd {
	if m.year == 0 {
		m.year = time.Now().UTC().Year()
	}
	m.loading = true
	year, method := m.year, m.method()
	return func() tea.Msg {
		ctx := context.Background()
		tr, err := c.ValuationTrend(ctx, year, "", method)
		if err != nil {
			return stockLoadedMsg{err: err}
		}
		cats, err := c.CategoryValuation(ctx, method, time.Time{})
		return stockLoadedMsg{trend: tr, categories: cats, err: err}
	}
}

// update returns reload true when the view needs fresh data.
func (m stockModel) update(msg tea.Msg) (stockModel, bool) {
	switch msg := msg.(type) {
	case stockLoadedMsg:
		m.loading = false
		m.trend = msg.trend
		m.categories = msg.categories
		m.err = msg.err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Method):
			m.methodIdx = (m.methodIdx + 1) % len(stockMethods)
			return m, true
		case key.Matches(msg, keys.PrevYear):
			m.year--
			return m, true
		case key.Matches(msg, keys.NextYear):
			m.year++
			return m, true
		}
	}
	return m, false
}

func (m *stockModel) view() string {
	if m.loading {
		return "Loading inventory valuation..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.trend == nil {
		return dimStyle.Render("No data available.")
	}
	tr := m.trend

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Inventory Value %d (%s)", tr.Year, strings.ToUpper(string(tr.Method)))))
	b.WriteString("\n")

	maxVal := decimal.Zero
	for _, p := range tr.Points {
		if p.TotalValue.GreaterThan(maxVal) {
			maxVal = p.TotalValue
		}
	}
	barW := m.width - 34
	if barW < 10 {
		barW = 40
	}
	for _, p := range tr.Points {
		n := 0
		if maxVal.IsPositive() {
			n = int(p.TotalValue.Div(maxVal).Mul(decimal.NewFromInt(int64(barW))).IntPart())
		}
		b.WriteString(fmt.Sprintf("  %-8s %15s %s\n", p.Label, ledger.FormatAmount(p.TotalValue), barStyle.Render(strings.Repeat("█", n))))
	}
	change := fmt.Sprintf("  Change: %s (%s%%)", ledger.FormatAmount(tr.Change), tr.PercentChange.StringFixed(2))
	if tr.Change.IsNegative() {
		b.WriteString(errorStyle.Render(change))
	} else {
		b.WriteString(successStyle.Render(change))
	}
	b.WriteString("\n\n")

	if m.categories != nil && len(m.categories.Categories) > 0 {
		header := fmt.Sprintf("  %-28s %6s %12s %15s", "CATEGORY", "ITEMS", "QUANTITY", "VALUE")
		b.WriteString(headerStyle.Render(header))
		b.WriteString("\n")
		for _, c := range m.categories.Categories {
			b.WriteString(fmt.Sprintf("  %-28s %6d %12s %15s\n", c.CategoryName, c.Items, c.Quantity.String(), ledger.FormatAmount(c.TotalValue)))
		}
		b.WriteString(fmt.Sprintf("  %-48s %15s\n", "TOTAL", ledger.FormatAmount(m.categories.TotalValue)))
		if n := len(m.categories.Warnings); n > 0 {
			b.WriteString(warnStyle.Render(fmt.Sprintf("  %d valuation warnings", n)) + "\n")
		}
	}

	b.WriteString("\n" + dimStyle.Render("  m:method  left/right:year"))
	return b.String()
}
