package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CostLayer is the unconsumed remainder of one inbound receipt. Layers are
// derived from the stock log on every query and never persisted.
type CostLayer struct {
	SourceTransactionID int64           `json:"source_transaction_id"`
	PurchaseDate        time.Time       `json:"purchase_date"`
	OriginalQuantity    decimal.Decimal `json:"original_quantity"`
	RemainingQuantity   decimal.Decimal `json:"remaining_quantity"`
	UnitCost            decimal.Decimal `json:"unit_cost"`
}

// TotalValue is the remaining quantity at the layer's unit cost.
func (l CostLayer) TotalValue() decimal.Decimal {
	return l.RemainingQuantity.Mul(l.UnitCost)
}

// Consumption is the result of drawing quantity from a set of layers.
type Consumption struct {
	Quantity  decimal.Decimal // quantity actually drawn from layers
	Cost      decimal.Decimal // cost of the drawn quantity
	Shortfall decimal.Decimal // requested quantity no layer could cover
}

// BuildLayers turns inbound movements into cost layers in consumption
// order: oldest first for FIFO, newest first for LIFO. Outbound rows are
// ignored. Ties on timestamp keep log order (by id).
func BuildLayers(inbound []StockTransaction, method Method) []CostLayer {
	rows := make([]StockTransaction, 0, len(inbound))
	for _, t := range inbound {
		if t.Inbound() {
			rows = append(rows, t)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].OccurredAt.Equal(rows[j].OccurredAt) {
			return rows[i].OccurredAt.Before(rows[j].OccurredAt)
		}
		return rows[i].ID < rows[j].ID
	})
	if method == LIFO {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	layers := make([]CostLayer, 0, len(rows))
	for _, t := range rows {
		layers = append(layers, CostLayer{
			SourceTransactionID: t.ID,
			PurchaseDate:        t.OccurredAt,
			OriginalQuantity:    t.Quantity,
			RemainingQuantity:   t.Quantity,
			UnitCost:            t.UnitCost,
		})
	}
	return layers
}

// ConsumeLayers draws qty from layers in order. The input slice is not
// modified; the returned slice holds only layers with quantity left.
func ConsumeLayers(layers []CostLayer, qty decimal.Decimal) ([]CostLayer, Consumption) {
	c := Consumption{Quantity: decimal.Zero, Cost: decimal.Zero, Shortfall: decimal.Zero}
	left := qty
	if left.IsNegative() {
		left = decimal.Zero
	}

	remaining := make([]CostLayer, 0, len(layers))
	for _, l := range layers {
		if left.IsPositive() {
			take := decimal.Min(left, l.RemainingQuantity)
			c.Quantity = c.Quantity.Add(take)
			c.Cost = c.Cost.Add(take.Mul(l.UnitCost))
			l.RemainingQuantity = l.RemainingQuantity.Sub(take)
			left = left.Sub(take)
		}
		if l.RemainingQuantity.IsPositive() {
			remaining = append(remaining, l)
		}
	}
	c.Shortfall = left
	return remaining, c
}

// SumLayers returns the total remaining quantity and value of layers.
func SumLayers(layers []CostLayer) (qty, value decimal.Decimal) {
	qty, value = decimal.Zero, decimal.Zero
	for _, l := range layers {
		qty = qty.Add(l.RemainingQuantity)
		value = value.Add(l.TotalValue())
	}
	return qty, value
}

// WeightedAverageCost is Σ(quantity × unit cost) / Σ quantity over inbound
// movements. It returns zero when there is no inbound quantity.
func WeightedAverageCost(inbound []StockTransaction) decimal.Decimal {
	qty, cost := decimal.Zero, decimal.Zero
	for _, t := range inbound {
		if !t.Inbound() {
			continue
		}
		qty = qty.Add(t.Quantity)
		cost = cost.Add(t.Quantity.Mul(t.UnitCost))
	}
	if qty.IsZero() {
		return decimal.Zero
	}
	return cost.Div(qty)
}

// InboundQuantity sums the positive movements.
func InboundQuantity(txns []StockTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		if t.Inbound() {
			total = total.Add(t.Quantity)
		}
	}
	return total
}
