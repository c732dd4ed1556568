package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// WarningKind classifies a non-fatal data-quality warning raised while
// costing stock.
type WarningKind string

const (
	// WarningValuationFallback: on-hand stock with no inbound history was
	// valued at the variation's last purchase price.
	WarningValuationFallback WarningKind = "valuation_fallback"
	// WarningCostShortfall: more was issued than was ever received, so part
	// of the quantity had no cost layer.
	WarningCostShortfall WarningKind = "cost_shortfall"
)

type Warning struct {
	Kind        WarningKind     `json:"kind"`
	VariationID int64           `json:"variation_id"`
	LocationID  int64           `json:"location_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Message     string          `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: variation %d at location %d: %s", w.Kind, w.VariationID, w.LocationID, w.Message)
}

// Valuation is the computed value of one variation at one location.
type Valuation struct {
	BusinessID   int64           `json:"business_id"`
	VariationID  int64           `json:"variation_id"`
	LocationID   int64           `json:"location_id"`
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Method       Method          `json:"method"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	TotalValue   decimal.Decimal `json:"total_value"`
	ValuedAt     time.Time       `json:"valued_at"`
	Layers       []CostLayer     `json:"layers,omitempty"`
	Fallback     bool            `json:"fallback"`
	Warnings     []Warning       `json:"warnings,omitempty"`
}
