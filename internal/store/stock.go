package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/stockledger/internal/inventory"
)

func (s *Store) UpsertVariation(ctx context.Context, v inventory.Variation) error {
	if v.BusinessID <= 0 || v.ID <= 0 {
		return fmt.Errorf("%w: business and variation id are required", inventory.ErrInvalidMovement)
	}
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO variations (business_id, id, product_id, product_name, name, category_id, category_name, last_purchase_price)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(business_id, id) DO UPDATE SET
			product_id = excluded.product_id,
			product_name = excluded.product_name,
			name = excluded.name,
			category_id = excluded.category_id,
			category_name = excluded.category_name,
			last_purchase_price = excluded.last_purchase_price`,
		v.BusinessID, v.ID, v.ProductID, v.ProductName, v.Name, v.CategoryID, v.CategoryName, v.LastPurchasePrice.String(),
	)
	if err != nil {
		return fmt.Errorf("upsert variation: %w", err)
	}
	return nil
}

func (s *Store) GetVariation(ctx context.Context, businessID, variationID int64) (*inventory.Variation, error) {
	return getVariation(ctx, s.reader, businessID, variationID)
}

func getVariation(ctx context.Context, q queryer, businessID, variationID int64) (*inventory.Variation, error) {
	var v inventory.Variation
	var price string
	err := q.QueryRowContext(ctx,
		`SELECT business_id, id, product_id, product_name, name, category_id, category_name, last_purchase_price
		FROM variations WHERE business_id = ? AND id = ?`, businessID, variationID,
	).Scan(&v.BusinessID, &v.ID, &v.ProductID, &v.ProductName, &v.Name, &v.CategoryID, &v.CategoryName, &price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", inventory.ErrVariationNotFound, variationID)
	}
	if err != nil {
		return nil, fmt.Errorf("get variation: %w", err)
	}
	v.LastPurchasePrice, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("variation %d purchase price: %w", variationID, err)
	}
	return &v, nil
}

// RecordStockMovement appends one movement to the stock log and updates the
// on-hand record in the same transaction.
func (s *Store) RecordStockMovement(ctx context.Context, t *inventory.StockTransaction) error {
	if t.OccurredAt.IsZero() {
		t.OccurredAt = s.now()
	}
	if err := t.Validate(); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return recordMovementTx(ctx, tx, t)
	})
}

func recordMovementTx(ctx context.Context, tx *sql.Tx, t *inventory.StockTransaction) error {
	if _, err := getVariation(ctx, tx, t.BusinessID, t.VariationID); err != nil {
		return err
	}
	unitCost := t.UnitCost
	if !t.Inbound() {
		unitCost = decimal.Zero
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO stock_transactions (business_id, variation_id, location_id, quantity, unit_cost, inbound, kind, reference, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.BusinessID, t.VariationID, t.LocationID, t.Quantity.String(), unitCost.String(),
		boolToInt(t.Inbound()), string(t.Kind), t.Reference, formatStamp(t.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("insert stock transaction: %w", err)
	}
	t.ID, _ = res.LastInsertId()

	onHand, err := onHandQuantity(ctx, tx, t.BusinessID, t.VariationID, t.LocationID)
	if err != nil {
		return err
	}
	if err := setStockLevelTx(ctx, tx, t.BusinessID, t.VariationID, t.LocationID, onHand.Add(t.Quantity), t.OccurredAt); err != nil {
		return err
	}

	if t.Inbound() && t.Kind == inventory.KindPurchase {
		_, err = tx.ExecContext(ctx,
			`UPDATE variations SET last_purchase_price = ? WHERE business_id = ? AND id = ?`,
			t.UnitCost.String(), t.BusinessID, t.VariationID)
		if err != nil {
			return fmt.Errorf("update last purchase price: %w", err)
		}
	}
	return nil
}

// SetStockLevel overwrites the on-hand record without logging a movement.
// It exists for importing balances from systems that kept no movement
// history; valuation of such stock falls back to the last purchase price.
func (s *Store) SetStockLevel(ctx context.Context, businessID, variationID, locationID int64, qty decimal.Decimal) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getVariation(ctx, tx, businessID, variationID); err != nil {
			return err
		}
		return setStockLevelTx(ctx, tx, businessID, variationID, locationID, qty, s.now())
	})
}

func setStockLevelTx(ctx context.Context, tx *sql.Tx, businessID, variationID, locationID int64, qty decimal.Decimal, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO stock_levels (business_id, variation_id, location_id, quantity, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(business_id, variation_id, location_id) DO UPDATE SET
			quantity = excluded.quantity,
			updated_at = excluded.updated_at`,
		businessID, variationID, locationID, qty.String(), formatStamp(at),
	)
	if err != nil {
		return fmt.Errorf("update stock level: %w", err)
	}
	return nil
}

// OnHandQuantity reads the authoritative on-hand record. A pair with no
// record has zero on hand.
func (s *Store) OnHandQuantity(ctx context.Context, businessID, variationID, locationID int64) (decimal.Decimal, error) {
	return onHandQuantity(ctx, s.reader, businessID, variationID, locationID)
}

func onHandQuantity(ctx context.Context, q queryer, businessID, variationID, locationID int64) (decimal.Decimal, error) {
	var qty string
	err := q.QueryRowContext(ctx,
		`SELECT quantity FROM stock_levels WHERE business_id = ? AND variation_id = ? AND location_id = ?`,
		businessID, variationID, locationID,
	).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("on-hand quantity: %w", err)
	}
	return decimal.NewFromString(qty)
}

// StockTransactions returns the movement log for a pair, oldest first,
// limited to movements at or before asOf when asOf is non-zero.
func (s *Store) StockTransactions(ctx context.Context, businessID, variationID, locationID int64, asOf time.Time) ([]inventory.StockTransaction, error) {
	return s.stockTransactions(ctx, businessID, variationID, locationID, asOf, false)
}

// InboundTransactions is StockTransactions restricted to receipts.
func (s *Store) InboundTransactions(ctx context.Context, businessID, variationID, locationID int64, asOf time.Time) ([]inventory.StockTransaction, error) {
	return s.stockTransactions(ctx, businessID, variationID, locationID, asOf, true)
}

// OutboundQuantity is the total quantity issued from a pair up to asOf,
// returned as a positive number.
func (s *Store) OutboundQuantity(ctx context.Context, businessID, variationID, locationID int64, asOf time.Time) (decimal.Decimal, error) {
	query := `SELECT quantity FROM stock_transactions
		WHERE business_id = ? AND variation_id = ? AND location_id = ? AND inbound = 0`
	args := []any{businessID, variationID, locationID}
	if !asOf.IsZero() {
		query += ` AND occurred_at <= ?`
		args = append(args, formatStamp(asOf))
	}

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("outbound quantity: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var qty string
		if err := rows.Scan(&qty); err != nil {
			return decimal.Zero, fmt.Errorf("scan outbound quantity: %w", err)
		}
		d, err := decimal.NewFromString(qty)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Sub(d)
	}
	return total, rows.Err()
}

// StockedPairs lists every (variation, location) with an on-hand record or
// any logged movement.
func (s *Store) StockedPairs(ctx context.Context, businessID int64) ([]inventory.StockKey, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT variation_id, location_id FROM stock_levels WHERE business_id = ?
		UNION
		SELECT variation_id, location_id FROM stock_transactions WHERE business_id = ?
		ORDER BY 1, 2`, businessID, businessID)
	if err != nil {
		return nil, fmt.Errorf("stocked pairs: %w", err)
	}
	defer rows.Close()

	var keys []inventory.StockKey
	for rows.Next() {
		var k inventory.StockKey
		if err := rows.Scan(&k.VariationID, &k.LocationID); err != nil {
			return nil, fmt.Errorf("scan stocked pair: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Store) stockTransactions(ctx context.Context, businessID, variationID, locationID int64, asOf time.Time, inboundOnly bool) ([]inventory.StockTransaction, error) {
	query := `SELECT id, business_id, variation_id, location_id, quantity, unit_cost, kind, reference, occurred_at
		FROM stock_transactions
		WHERE business_id = ? AND variation_id = ? AND location_id = ?`
	args := []any{businessID, variationID, locationID}
	if inboundOnly {
		query += ` AND inbound = 1`
	}
	if !asOf.IsZero() {
		query += ` AND occurred_at <= ?`
		args = append(args, formatStamp(asOf))
	}
	query += ` ORDER BY occurred_at, id`

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stock transactions: %w", err)
	}
	defer rows.Close()

	var txns []inventory.StockTransaction
	for rows.Next() {
		var t inventory.StockTransaction
		var qty, cost, occurredAt string
		if err := rows.Scan(&t.ID, &t.BusinessID, &t.VariationID, &t.LocationID, &qty, &cost, &t.Kind, &t.Reference, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan stock transaction: %w", err)
		}
		if t.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("stock transaction %d quantity: %w", t.ID, err)
		}
		if t.UnitCost, err = decimal.NewFromString(cost); err != nil {
			return nil, fmt.Errorf("stock transaction %d unit cost: %w", t.ID, err)
		}
		t.OccurredAt = parseStamp(occurredAt)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
