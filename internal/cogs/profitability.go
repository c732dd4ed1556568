package cogs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/simonvc/stockledger/internal/events"
	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/valuation"
)

// ProfitRow is one product or category of a profitability report.
type ProfitRow struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	CategoryID int64           `json:"category_id,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	Revenue    decimal.Decimal `json:"revenue"`
	COGS       decimal.Decimal `json:"cogs"`
	Profit     decimal.Decimal `json:"profit"`
	Margin     decimal.Decimal `json:"margin"`
	Sales      int             `json:"sales"`
	Recomputed bool            `json:"recomputed,omitempty"`
}

type ProfitabilityReport struct {
	BusinessID   int64            `json:"business_id"`
	From         time.Time        `json:"from"`
	To           time.Time        `json:"to"`
	Rows         []ProfitRow      `json:"rows"`
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
	TotalCOGS    decimal.Decimal  `json:"total_cogs"`
	TotalProfit  decimal.Decimal  `json:"total_profit"`
	Margin       decimal.Decimal  `json:"margin"`
	Warnings     []CostingWarning `json:"warnings,omitempty"`
}

// costedItem is a sold line with its cost settled.
type costedItem struct {
	events.SoldItem
	revenue    decimal.Decimal
	cogs       decimal.Decimal
	recomputed bool
}

// costSoldItems prices every sale line in range. Lines carry the unit cost
// captured when the sale was completed. Lines whose costing failed at sale
// time keep the zero cost the ledger booked and get a warning; older lines
// with no snapshot at all are re-costed at today's unit cost and flagged.
func (c *Calculator) costSoldItems(ctx context.Context, businessID int64, from, to time.Time) ([]costedItem, []CostingWarning, error) {
	sold, err := c.sales.SoldItems(ctx, businessID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("load sold items: %w", err)
	}

	var warnings []CostingWarning
	current := make(map[inventory.StockKey]decimal.Decimal)
	out := make([]costedItem, 0, len(sold))
	for i, it := range sold {
		ci := costedItem{SoldItem: it, revenue: it.Quantity.Mul(it.SellingPrice), cogs: decimal.Zero}
		if it.UnitCost != nil {
			ci.cogs = it.Quantity.Mul(*it.UnitCost)
			out = append(out, ci)
			continue
		}
		if it.CostingFailed {
			warnings = append(warnings, CostingWarning{
				Kind:        KindPerItemCostingFailure,
				ItemIndex:   i,
				VariationID: it.VariationID,
				LocationID:  it.LocationID,
				Message:     fmt.Sprintf("sale %s: booked at zero cost", it.SaleID),
			})
			out = append(out, ci)
			continue
		}

		ci.recomputed = true
		key := inventory.StockKey{VariationID: it.VariationID, LocationID: it.LocationID}
		unit, ok := current[key]
		if !ok {
			val, err := c.valuer.Valuate(ctx, valuation.Request{
				BusinessID:  businessID,
				VariationID: it.VariationID,
				LocationID:  it.LocationID,
			})
			if err != nil {
				if ctx.Err() != nil {
					return nil, nil, ctx.Err()
				}
				warnings = append(warnings, CostingWarning{
					Kind:        KindPerItemCostingFailure,
					ItemIndex:   i,
					VariationID: it.VariationID,
					LocationID:  it.LocationID,
					Message:     err.Error(),
				})
				c.log.WithFields(logrus.Fields{
					"business_id":  businessID,
					"sale_id":      it.SaleID,
					"variation_id": it.VariationID,
				}).WithError(err).Warn("could not re-cost sold item")
				unit = decimal.Zero
			} else {
				unit = val.UnitCost
			}
			current[key] = unit
		}
		ci.cogs = it.Quantity.Mul(unit)
		out = append(out, ci)
	}
	return out, warnings, nil
}

func (c *Calculator) report(ctx context.Context, businessID int64, from, to time.Time, keyOf func(costedItem) (int64, string)) (*ProfitabilityReport, error) {
	items, warnings, err := c.costSoldItems(ctx, businessID, from, to)
	if err != nil {
		return nil, err
	}

	rep := &ProfitabilityReport{
		BusinessID:   businessID,
		From:         from,
		To:           to,
		Rows:         []ProfitRow{},
		TotalRevenue: decimal.Zero,
		TotalCOGS:    decimal.Zero,
		Warnings:     warnings,
	}
	rows := make(map[int64]*ProfitRow)
	var order []int64
	sales := make(map[int64]map[string]struct{})
	for _, it := range items {
		id, name := keyOf(it)
		row, ok := rows[id]
		if !ok {
			row = &ProfitRow{ID: id, Name: name, CategoryID: it.CategoryID, Quantity: decimal.Zero, Revenue: decimal.Zero, COGS: decimal.Zero}
			rows[id] = row
			order = append(order, id)
			sales[id] = make(map[string]struct{})
		}
		row.Quantity = row.Quantity.Add(it.Quantity)
		row.Revenue = row.Revenue.Add(it.revenue)
		row.COGS = row.COGS.Add(it.cogs)
		row.Recomputed = row.Recomputed || it.recomputed
		sales[id][it.SaleID] = struct{}{}

		rep.TotalRevenue = rep.TotalRevenue.Add(it.revenue)
		rep.TotalCOGS = rep.TotalCOGS.Add(it.cogs)
	}

	for _, id := range order {
		row := rows[id]
		row.Profit = row.Revenue.Sub(row.COGS)
		row.Margin = MarginPercent(row.Profit, row.Revenue)
		row.Sales = len(sales[id])
		rep.Rows = append(rep.Rows, *row)
	}
	sort.SliceStable(rep.Rows, func(i, j int) bool {
		return rep.Rows[i].Profit.GreaterThan(rep.Rows[j].Profit)
	})
	rep.TotalProfit = rep.TotalRevenue.Sub(rep.TotalCOGS)
	rep.Margin = MarginPercent(rep.TotalProfit, rep.TotalRevenue)
	return rep, nil
}

// ProductProfitability groups sold lines by product, ordered by profit.
// Lines whose variation has no product are grouped under the variation,
// with a negative id.
func (c *Calculator) ProductProfitability(ctx context.Context, businessID int64, from, to time.Time) (*ProfitabilityReport, error) {
	return c.report(ctx, businessID, from, to, func(it costedItem) (int64, string) {
		if it.ProductID != 0 {
			return it.ProductID, it.ProductName
		}
		return -it.VariationID, fmt.Sprintf("variation %d", it.VariationID)
	})
}

func (c *Calculator) CategoryProfitability(ctx context.Context, businessID int64, from, to time.Time) (*ProfitabilityReport, error) {
	return c.report(ctx, businessID, from, to, func(it costedItem) (int64, string) {
		if it.CategoryName == "" {
			return it.CategoryID, "Uncategorized"
		}
		return it.CategoryID, it.CategoryName
	})
}

// LowMarginProducts keeps the products whose margin is below threshold
// percent, lowest margin first.
func (c *Calculator) LowMarginProducts(ctx context.Context, businessID int64, from, to time.Time, threshold decimal.Decimal) (*ProfitabilityReport, error) {
	rep, err := c.ProductProfitability(ctx, businessID, from, to)
	if err != nil {
		return nil, err
	}
	low := []ProfitRow{}
	for _, r := range rep.Rows {
		if r.Margin.LessThan(threshold) {
			low = append(low, r)
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].Margin.LessThan(low[j].Margin) })
	rep.Rows = low
	return rep, nil
}

// TopPerformers returns the limit most profitable products. Totals still
// cover every product sold in range.
func (c *Calculator) TopPerformers(ctx context.Context, businessID int64, from, to time.Time, limit int) (*ProfitabilityReport, error) {
	rep, err := c.ProductProfitability(ctx, businessID, from, to)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(rep.Rows) > limit {
		rep.Rows = rep.Rows[:limit]
	}
	return rep, nil
}
