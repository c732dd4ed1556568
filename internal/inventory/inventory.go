// Package inventory holds the stock movement log types and the cost-layer
// algorithms behind FIFO, LIFO and weighted-average valuation.
package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Method is an inventory valuation method.
type Method string

const (
	FIFO Method = "fifo"
	LIFO Method = "lifo"
	AVCO Method = "avco"
)

var AllMethods = []Method{FIFO, LIFO, AVCO}

var (
	ErrInvalidMethod     = errors.New("invalid valuation method")
	ErrVariationNotFound = errors.New("product variation not found")
	ErrInvalidMovement   = errors.New("invalid stock movement")
)

// ParseMethod accepts fifo, lifo, avco (and "weighted_average" / "average"
// as aliases for avco). Empty input returns "" with no error so callers can
// fall back to the business default.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	case "avco", "average", "weighted_average":
		return AVCO, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
	}
}

// MovementKind describes why stock moved.
type MovementKind string

const (
	KindPurchase    MovementKind = "purchase"
	KindTransferIn  MovementKind = "transfer_in"
	KindReturn      MovementKind = "return"
	KindOpening     MovementKind = "opening"
	KindSale        MovementKind = "sale"
	KindTransferOut MovementKind = "transfer_out"
	KindAdjustment  MovementKind = "adjustment"
)

// StockTransaction is one append-only inventory movement. Quantity is signed:
// positive inbound, negative outbound. UnitCost is set for inbound rows.
type StockTransaction struct {
	ID          int64           `json:"id"`
	BusinessID  int64           `json:"business_id"`
	VariationID int64           `json:"variation_id"`
	LocationID  int64           `json:"location_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Kind        MovementKind    `json:"kind"`
	Reference   string          `json:"reference,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Inbound reports whether the movement adds stock.
func (t StockTransaction) Inbound() bool {
	return t.Quantity.IsPositive()
}

// Validate checks a movement before it is appended to the log.
func (t StockTransaction) Validate() error {
	if t.BusinessID <= 0 || t.VariationID <= 0 || t.LocationID <= 0 {
		return fmt.Errorf("%w: business, variation and location are required", ErrInvalidMovement)
	}
	if t.Quantity.IsZero() {
		return fmt.Errorf("%w: quantity must be non-zero", ErrInvalidMovement)
	}
	if t.Inbound() && t.UnitCost.IsNegative() {
		return fmt.Errorf("%w: negative unit cost %s", ErrInvalidMovement, t.UnitCost)
	}
	return nil
}

// StockKey identifies a product variation at a location.
type StockKey struct {
	VariationID int64 `json:"variation_id"`
	LocationID  int64 `json:"location_id"`
}

// Variation is the slice of the product catalogue valuation needs.
type Variation struct {
	BusinessID        int64           `json:"business_id"`
	ID                int64           `json:"id"`
	ProductID         int64           `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Name              string          `json:"name"`
	CategoryID        int64           `json:"category_id"`
	CategoryName      string          `json:"category_name"`
	LastPurchasePrice decimal.Decimal `json:"last_purchase_price"`
}
