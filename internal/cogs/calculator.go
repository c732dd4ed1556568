// Package cogs prices the items of a sale against inventory and reports
// product and category profitability over past sales.
package cogs

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/simonvc/stockledger/internal/events"
	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/valuation"
)

// Valuer is the part of the valuation engine the calculator uses.
type Valuer interface {
	Valuate(ctx context.Context, req valuation.Request) (*inventory.Valuation, error)
	IssueCost(ctx context.Context, req valuation.Request, qty decimal.Decimal) (*valuation.Issue, error)
}

// SalesSource replays persisted sale lines.
type SalesSource interface {
	SoldItems(ctx context.Context, businessID int64, from, to time.Time) ([]events.SoldItem, error)
}

type WarningKind string

// KindPerItemCostingFailure marks an item whose cost could not be
// determined; it was recorded at zero cost.
const KindPerItemCostingFailure WarningKind = "per_item_costing_failure"

// CostingWarning is returned alongside a costing result so callers can flag
// a degraded-accuracy sale. Valuation warnings carry their own kind.
type CostingWarning struct {
	Kind        WarningKind `json:"kind"`
	ItemIndex   int         `json:"item_index"`
	VariationID int64       `json:"variation_id"`
	LocationID  int64       `json:"location_id"`
	Message     string      `json:"message"`
}

type ItemCOGS struct {
	VariationID   int64           `json:"variation_id"`
	LocationID    int64           `json:"location_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	COGS          decimal.Decimal `json:"cogs"`
	Revenue       decimal.Decimal `json:"revenue"`
	Profit        decimal.Decimal `json:"profit"`
	Margin        decimal.Decimal `json:"margin"`
	Fallback      bool            `json:"fallback,omitempty"`
	CostingFailed bool            `json:"costing_failed,omitempty"`
}

type SaleCOGS struct {
	Method       inventory.Method `json:"method,omitempty"`
	Items        []ItemCOGS       `json:"items"`
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
	TotalCOGS    decimal.Decimal  `json:"total_cogs"`
	TotalProfit  decimal.Decimal  `json:"total_profit"`
	Margin       decimal.Decimal  `json:"margin"`
	Warnings     []CostingWarning `json:"warnings,omitempty"`
}

// Degraded reports whether any item was costed from a fallback or failed.
func (s *SaleCOGS) Degraded() bool {
	return len(s.Warnings) > 0
}

type Calculator struct {
	valuer Valuer
	sales  SalesSource
	log    logrus.FieldLogger
}

func New(valuer Valuer, sales SalesSource, log logrus.FieldLogger) *Calculator {
	return &Calculator{valuer: valuer, sales: sales, log: log}
}

var hundred = decimal.NewFromInt(100)

// MarginPercent is profit / revenue × 100, rounded to two places; zero
// when there is no revenue.
func MarginPercent(profit, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return profit.Div(revenue).Mul(hundred).Round(2)
}

// CalculateSaleCOGS prices every item of a sale at the cost of issuing its
// quantity from current stock. An item that cannot be costed is recorded at
// zero cost with a PerItemCostingFailure warning; the sale is never blocked.
// Only context cancellation returns an error.
func (c *Calculator) CalculateSaleCOGS(ctx context.Context, businessID int64, items []events.SaleItem, method inventory.Method) (*SaleCOGS, error) {
	res := &SaleCOGS{
		Method:       method,
		TotalRevenue: decimal.Zero,
		TotalCOGS:    decimal.Zero,
		TotalProfit:  decimal.Zero,
		Margin:       decimal.Zero,
	}

	// Items repeating a (variation, location) draw from what the earlier
	// items left, so issues are priced cumulatively per pair.
	type drawn struct{ qty, cost decimal.Decimal }
	issued := make(map[inventory.StockKey]drawn)

	for i, it := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := inventory.StockKey{VariationID: it.VariationID, LocationID: it.LocationID}
		prev, ok := issued[key]
		if !ok {
			prev = drawn{qty: decimal.Zero, cost: decimal.Zero}
		}
		ic := ItemCOGS{
			VariationID:  it.VariationID,
			LocationID:   it.LocationID,
			Quantity:     it.Quantity,
			SellingPrice: it.SellingPrice,
			UnitCost:     decimal.Zero,
			COGS:         decimal.Zero,
			Revenue:      it.Revenue(),
		}

		issue, err := c.valuer.IssueCost(ctx, valuation.Request{
			BusinessID:  businessID,
			VariationID: it.VariationID,
			LocationID:  it.LocationID,
			Method:      method,
		}, prev.qty.Add(it.Quantity))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			ic.CostingFailed = true
			w := CostingWarning{
				Kind:        KindPerItemCostingFailure,
				ItemIndex:   i,
				VariationID: it.VariationID,
				LocationID:  it.LocationID,
				Message:     err.Error(),
			}
			res.Warnings = append(res.Warnings, w)
			c.log.WithFields(logrus.Fields{
				"business_id":  businessID,
				"variation_id": it.VariationID,
				"location_id":  it.LocationID,
				"item":         i,
			}).WithError(err).Warn("item costing failed; recorded at zero cost")
		} else {
			if res.Method == "" {
				res.Method = issue.Method
			}
			ic.COGS = issue.Cost.Sub(prev.cost)
			ic.UnitCost = ic.COGS.Div(it.Quantity)
			ic.Fallback = issue.Fallback
			issued[key] = drawn{qty: prev.qty.Add(it.Quantity), cost: issue.Cost}
			for _, vw := range issue.Warnings {
				res.Warnings = append(res.Warnings, CostingWarning{
					Kind:        WarningKind(vw.Kind),
					ItemIndex:   i,
					VariationID: vw.VariationID,
					LocationID:  vw.LocationID,
					Message:     vw.Message,
				})
			}
		}

		ic.Profit = ic.Revenue.Sub(ic.COGS)
		ic.Margin = MarginPercent(ic.Profit, ic.Revenue)
		res.Items = append(res.Items, ic)

		res.TotalRevenue = res.TotalRevenue.Add(ic.Revenue)
		res.TotalCOGS = res.TotalCOGS.Add(ic.COGS)
	}

	res.TotalProfit = res.TotalRevenue.Sub(res.TotalCOGS)
	res.Margin = MarginPercent(res.TotalProfit, res.TotalRevenue)
	return res, nil
}

// Apply copies the computed costs onto the sale items so they are
// snapshotted when the sale is committed.
func (s *SaleCOGS) Apply(items []events.SaleItem) error {
	if len(items) != len(s.Items) {
		return fmt.Errorf("costed %d items but sale has %d", len(s.Items), len(items))
	}
	for i := range items {
		ic := s.Items[i]
		items[i].COGS = ic.COGS
		items[i].CostingFailed = ic.CostingFailed
		if ic.CostingFailed {
			items[i].UnitCost = nil
			continue
		}
		unit := ic.UnitCost
		items[i].UnitCost = &unit
	}
	return nil
}
