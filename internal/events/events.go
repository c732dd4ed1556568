// Package events defines the business events the accounting core consumes
// from the point-of-sale layer.
package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidEvent = errors.New("invalid event")

// SaleItem is one line of a completed sale. UnitCost and COGS are filled in
// by the COGS calculator before the sale is committed.
type SaleItem struct {
	VariationID   int64            `json:"variation_id"`
	LocationID    int64            `json:"location_id"`
	Quantity      decimal.Decimal  `json:"quantity"`
	SellingPrice  decimal.Decimal  `json:"selling_price"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	COGS          decimal.Decimal  `json:"cogs"`
	CostingFailed bool             `json:"costing_failed,omitempty"`
}

// Revenue is quantity × selling price.
func (i SaleItem) Revenue() decimal.Decimal {
	return i.Quantity.Mul(i.SellingPrice)
}

type SaleEvent struct {
	BusinessID  int64           `json:"business_id"`
	SaleID      string          `json:"sale_id"`
	Date        time.Time       `json:"date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []SaleItem      `json:"items"`
	CustomerID  string          `json:"customer_id,omitempty"`
	IsCredit    bool            `json:"is_credit"`
	CreatedBy   string          `json:"created_by,omitempty"`
}

func (e *SaleEvent) Validate() error {
	if e.BusinessID <= 0 {
		return fmt.Errorf("%w: business id is required", ErrInvalidEvent)
	}
	if e.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: negative sale total", ErrInvalidEvent)
	}
	for i, it := range e.Items {
		if it.VariationID <= 0 || it.LocationID <= 0 {
			return fmt.Errorf("%w: item %d needs variation and location", ErrInvalidEvent, i)
		}
		if !it.Quantity.IsPositive() {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidEvent, i)
		}
		if it.SellingPrice.IsNegative() {
			return fmt.Errorf("%w: item %d has a negative price", ErrInvalidEvent, i)
		}
	}
	return nil
}

// TotalCOGS sums the per-item cost of goods sold.
func (e *SaleEvent) TotalCOGS() decimal.Decimal {
	total := decimal.Zero
	for _, it := range e.Items {
		total = total.Add(it.COGS)
	}
	return total
}

// PurchaseItem is a received quantity of one variation at a location.
type PurchaseItem struct {
	VariationID int64           `json:"variation_id"`
	LocationID  int64           `json:"location_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// PurchaseEvent is a purchase received on credit. When Items is set the
// stock is received in the same transaction as the journal entry.
type PurchaseEvent struct {
	BusinessID int64           `json:"business_id"`
	PurchaseID string          `json:"purchase_id"`
	Date       time.Time       `json:"date"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	SupplierID string          `json:"supplier_id,omitempty"`
	Items      []PurchaseItem  `json:"items,omitempty"`
	CreatedBy  string          `json:"created_by,omitempty"`
}

func (e *PurchaseEvent) Validate() error {
	if e.BusinessID <= 0 {
		return fmt.Errorf("%w: business id is required", ErrInvalidEvent)
	}
	if !e.TotalCost.IsPositive() {
		return fmt.Errorf("%w: purchase total must be positive", ErrInvalidEvent)
	}
	for i, it := range e.Items {
		if it.VariationID <= 0 || it.LocationID <= 0 || !it.Quantity.IsPositive() || it.UnitCost.IsNegative() {
			return fmt.Errorf("%w: purchase item %d", ErrInvalidEvent, i)
		}
	}
	return nil
}

// PaymentEvent is a customer payment received or a supplier payment made.
type PaymentEvent struct {
	BusinessID      int64           `json:"business_id"`
	PaymentID       string          `json:"payment_id"`
	Date            time.Time       `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	CreatedBy       string          `json:"created_by,omitempty"`
}

func (e *PaymentEvent) Validate() error {
	if e.BusinessID <= 0 {
		return fmt.Errorf("%w: business id is required", ErrInvalidEvent)
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("%w: payment amount must be positive", ErrInvalidEvent)
	}
	return nil
}

// SoldItem is a persisted sale line joined with its catalogue data, the
// input to profitability reports.
type SoldItem struct {
	SaleID       string           `json:"sale_id"`
	SaleDate     time.Time        `json:"sale_date"`
	VariationID  int64            `json:"variation_id"`
	LocationID   int64            `json:"location_id"`
	ProductID    int64            `json:"product_id"`
	ProductName  string           `json:"product_name"`
	CategoryID   int64            `json:"category_id"`
	CategoryName string           `json:"category_name"`
	Quantity     decimal.Decimal  `json:"quantity"`
	SellingPrice decimal.Decimal  `json:"selling_price"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`

	// CostingFailed lines were booked at zero cost when the sale posted.
	CostingFailed bool `json:"costing_failed,omitempty"`
}
