// Package valuation values inventory by replaying the stock movement log
// into cost layers on every query. It performs no writes.
package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/simonvc/stockledger/internal/inventory"
)

// StockSource is the read side of the stock log the engine needs.
type StockSource interface {
	AccountingMethod(ctx context.Context, businessID int64) (inventory.Method, error)
	GetVariation(ctx context.Context, businessID, variationID int64) (*inventory.Variation, error)
	InboundTransactions(ctx context.Context, businessID, variationID, locationID int64, asOf time.Time) ([]inventory.StockTransaction, error)
	OutboundQuantity(ctx context.Context, businessID, variationID, locationID int64, asOf time.Time) (decimal.Decimal, error)
	OnHandQuantity(ctx context.Context, businessID, variationID, locationID int64) (decimal.Decimal, error)
	StockedPairs(ctx context.Context, businessID int64) ([]inventory.StockKey, error)
}

// Request selects what to value. A zero AsOf means now; an empty Method
// means the business's configured method.
type Request struct {
	BusinessID  int64
	VariationID int64
	LocationID  int64
	Method      inventory.Method
	AsOf        time.Time
}

// Issue is the cost of taking a quantity out of stock.
type Issue struct {
	Method   inventory.Method    `json:"method"`
	Quantity decimal.Decimal     `json:"quantity"`
	UnitCost decimal.Decimal     `json:"unit_cost"`
	Cost     decimal.Decimal     `json:"cost"`
	Fallback bool                `json:"fallback"`
	Warnings []inventory.Warning `json:"warnings,omitempty"`
}

type Engine struct {
	src StockSource
	log logrus.FieldLogger
	now func() time.Time
}

func New(src StockSource, log logrus.FieldLogger) *Engine {
	return &Engine{
		src: src,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (e *Engine) resolveMethod(ctx context.Context, req Request) (inventory.Method, error) {
	if req.Method != "" {
		return inventory.ParseMethod(string(req.Method))
	}
	m, err := e.src.AccountingMethod(ctx, req.BusinessID)
	if err != nil {
		return "", fmt.Errorf("resolve accounting method: %w", err)
	}
	return m, nil
}

// Valuate values one variation at one location.
//
// FIFO and LIFO rebuild layers from the inbound log and consume the total
// outbound quantity from them. AVCO prices at Σ(q×c)/Σq over inbound rows;
// its quantity is the on-hand record for current valuations and the replayed
// net quantity for point-in-time ones. Stock on hand with no inbound history
// is valued at the last purchase price and flagged as a fallback.
func (e *Engine) Valuate(ctx context.Context, req Request) (*inventory.Valuation, error) {
	method, err := e.resolveMethod(ctx, req)
	if err != nil {
		return nil, err
	}
	variation, err := e.src.GetVariation(ctx, req.BusinessID, req.VariationID)
	if err != nil {
		return nil, err
	}

	val := &inventory.Valuation{
		BusinessID:   req.BusinessID,
		VariationID:  req.VariationID,
		LocationID:   req.LocationID,
		ProductID:    variation.ProductID,
		Name:         variation.Name,
		CategoryID:   variation.CategoryID,
		CategoryName: variation.CategoryName,
		Method:       method,
		Quantity:     decimal.Zero,
		UnitCost:     decimal.Zero,
		TotalValue:   decimal.Zero,
		ValuedAt:     req.AsOf,
	}
	if val.ValuedAt.IsZero() {
		val.ValuedAt = e.now()
	}

	inbound, err := e.src.InboundTransactions(ctx, req.BusinessID, req.VariationID, req.LocationID, req.AsOf)
	if err != nil {
		return nil, err
	}
	if len(inbound) == 0 {
		// Before the first receipt there is nothing to value. The fallback
		// only covers pairs with no receipt on record at all.
		if !req.AsOf.IsZero() {
			later, err := e.src.InboundTransactions(ctx, req.BusinessID, req.VariationID, req.LocationID, time.Time{})
			if err != nil {
				return nil, err
			}
			if len(later) > 0 {
				return val, nil
			}
		}
		onHand, err := e.src.OnHandQuantity(ctx, req.BusinessID, req.VariationID, req.LocationID)
		if err != nil {
			return nil, err
		}
		if onHand.IsPositive() {
			e.applyFallback(val, variation, onHand)
		}
		return val, nil
	}

	outbound, err := e.src.OutboundQuantity(ctx, req.BusinessID, req.VariationID, req.LocationID, req.AsOf)
	if err != nil {
		return nil, err
	}

	switch method {
	case inventory.FIFO, inventory.LIFO:
		remaining, c := inventory.ConsumeLayers(inventory.BuildLayers(inbound, method), outbound)
		val.Layers = remaining
		val.Quantity, val.TotalValue = inventory.SumLayers(remaining)
		if val.Quantity.IsPositive() {
			val.UnitCost = val.TotalValue.Div(val.Quantity)
		}
		if c.Shortfall.IsPositive() {
			e.warn(val, inventory.Warning{
				Kind:        inventory.WarningCostShortfall,
				VariationID: req.VariationID,
				LocationID:  req.LocationID,
				Quantity:    c.Shortfall,
				Message:     fmt.Sprintf("issued %s more than received", c.Shortfall),
			})
		}
	case inventory.AVCO:
		val.UnitCost = inventory.WeightedAverageCost(inbound)
		if req.AsOf.IsZero() {
			val.Quantity, err = e.src.OnHandQuantity(ctx, req.BusinessID, req.VariationID, req.LocationID)
			if err != nil {
				return nil, err
			}
		} else {
			val.Quantity = inventory.InboundQuantity(inbound).Sub(outbound)
		}
		val.TotalValue = val.Quantity.Mul(val.UnitCost)
	default:
		return nil, fmt.Errorf("%w: %q", inventory.ErrInvalidMethod, method)
	}
	return val, nil
}

// IssueCost prices taking qty out of the current stock of one pair without
// recording anything. FIFO and LIFO draw from the layers left after all
// issues so far; AVCO uses the blended cost. Any quantity no layer covers
// is priced at the last purchase price and reported as a warning.
func (e *Engine) IssueCost(ctx context.Context, req Request, qty decimal.Decimal) (*Issue, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: issue quantity %s", inventory.ErrInvalidMovement, qty)
	}
	method, err := e.resolveMethod(ctx, req)
	if err != nil {
		return nil, err
	}
	variation, err := e.src.GetVariation(ctx, req.BusinessID, req.VariationID)
	if err != nil {
		return nil, err
	}
	inbound, err := e.src.InboundTransactions(ctx, req.BusinessID, req.VariationID, req.LocationID, req.AsOf)
	if err != nil {
		return nil, err
	}

	issue := &Issue{Method: method, Quantity: qty, Cost: decimal.Zero, UnitCost: decimal.Zero}
	if len(inbound) == 0 {
		issue.Fallback = true
		issue.Cost = qty.Mul(variation.LastPurchasePrice)
		issue.UnitCost = variation.LastPurchasePrice
		w := inventory.Warning{
			Kind:        inventory.WarningValuationFallback,
			VariationID: req.VariationID,
			LocationID:  req.LocationID,
			Quantity:    qty,
			UnitCost:    variation.LastPurchasePrice,
			Message:     "no inbound history; costed at last purchase price",
		}
		issue.Warnings = append(issue.Warnings, w)
		e.logWarning(req.BusinessID, w)
		return issue, nil
	}

	switch method {
	case inventory.FIFO, inventory.LIFO:
		outbound, err := e.src.OutboundQuantity(ctx, req.BusinessID, req.VariationID, req.LocationID, req.AsOf)
		if err != nil {
			return nil, err
		}
		remaining, _ := inventory.ConsumeLayers(inventory.BuildLayers(inbound, method), outbound)
		_, c := inventory.ConsumeLayers(remaining, qty)
		issue.Cost = c.Cost
		if c.Shortfall.IsPositive() {
			issue.Cost = issue.Cost.Add(c.Shortfall.Mul(variation.LastPurchasePrice))
			w := inventory.Warning{
				Kind:        inventory.WarningCostShortfall,
				VariationID: req.VariationID,
				LocationID:  req.LocationID,
				Quantity:    c.Shortfall,
				UnitCost:    variation.LastPurchasePrice,
				Message:     fmt.Sprintf("%s issued beyond received stock; priced at last purchase price", c.Shortfall),
			}
			issue.Warnings = append(issue.Warnings, w)
			e.logWarning(req.BusinessID, w)
		}
	case inventory.AVCO:
		avg := inventory.WeightedAverageCost(inbound)
		issue.Cost = qty.Mul(avg)
	default:
		return nil, fmt.Errorf("%w: %q", inventory.ErrInvalidMethod, method)
	}
	issue.UnitCost = issue.Cost.Div(qty)
	return issue, nil
}

func (e *Engine) applyFallback(val *inventory.Valuation, v *inventory.Variation, onHand decimal.Decimal) {
	val.Fallback = true
	val.Quantity = onHand
	val.UnitCost = v.LastPurchasePrice
	val.TotalValue = onHand.Mul(v.LastPurchasePrice)
	e.warn(val, inventory.Warning{
		Kind:        inventory.WarningValuationFallback,
		VariationID: val.VariationID,
		LocationID:  val.LocationID,
		Quantity:    onHand,
		UnitCost:    v.LastPurchasePrice,
		Message:     "on-hand stock has no inbound history; valued at last purchase price",
	})
}

func (e *Engine) warn(val *inventory.Valuation, w inventory.Warning) {
	val.Warnings = append(val.Warnings, w)
	e.logWarning(val.BusinessID, w)
}

func (e *Engine) logWarning(businessID int64, w inventory.Warning) {
	e.log.WithFields(logrus.Fields{
		"business_id":  businessID,
		"variation_id": w.VariationID,
		"location_id":  w.LocationID,
		"quantity":     w.Quantity.String(),
		"unit_cost":    w.UnitCost.String(),
		"kind":         string(w.Kind),
	}).Warn(w.Message)
}
