package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/stockledger/internal/events"
	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/ledger"
)

// CompleteSale commits a sale in one transaction: the journal entry and its
// balance updates, the sale and its items with their cost snapshot, and one
// outbound stock movement per item.
func (s *Store) CompleteSale(ctx context.Context, ev *events.SaleEvent, entry *ledger.JournalEntry) error {
	if err := s.prepareEntry(entry); err != nil {
		return err
	}
	total, err := ledger.ToMinorUnits(ledger.RoundMoney(ev.TotalAmount))
	if err != nil {
		return err
	}
	cogs, err := ledger.ToMinorUnits(ledger.RoundMoney(ev.TotalCOGS()))
	if err != nil {
		return err
	}
	occurredAt := ev.Date
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := postEntryTx(ctx, tx, entry, false); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO sales (business_id, id, sale_date, total_amount, total_cogs, customer_id, is_credit, entry_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.BusinessID, ev.SaleID, formatDate(entry.EntryDate), total, cogs, ev.CustomerID, boolToInt(ev.IsCredit), entry.ID,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sale %s", ledger.ErrDuplicateEvent, ev.SaleID)
		}
		if err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		for i, it := range ev.Items {
			var unitCost any
			if it.UnitCost != nil {
				unitCost = it.UnitCost.String()
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO sale_items (business_id, sale_id, variation_id, location_id, quantity, selling_price, unit_cost, cogs, costing_failed)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				ev.BusinessID, ev.SaleID, it.VariationID, it.LocationID, it.Quantity.String(), it.SellingPrice.String(),
				unitCost, it.COGS.String(), boolToInt(it.CostingFailed),
			)
			if err != nil {
				return fmt.Errorf("insert sale item %d: %w", i, err)
			}

			// A sale never fails on catalogue gaps; unknown variations get a
			// bare row so the stock log stays complete.
			_, err = tx.ExecContext(ctx,
				`INSERT INTO variations (business_id, id) VALUES (?, ?) ON CONFLICT(business_id, id) DO NOTHING`,
				ev.BusinessID, it.VariationID)
			if err != nil {
				return fmt.Errorf("register variation %d: %w", it.VariationID, err)
			}

			mv := &inventory.StockTransaction{
				BusinessID:  ev.BusinessID,
				VariationID: it.VariationID,
				LocationID:  it.LocationID,
				Quantity:    it.Quantity.Neg(),
				Kind:        inventory.KindSale,
				Reference:   ev.SaleID,
				OccurredAt:  occurredAt,
			}
			if err := mv.Validate(); err != nil {
				return err
			}
			if err := recordMovementTx(ctx, tx, mv); err != nil {
				return err
			}
		}
		return nil
	})
}

// CompletePurchase posts the purchase entry and receives its items into
// stock in one transaction.
func (s *Store) CompletePurchase(ctx context.Context, ev *events.PurchaseEvent, entry *ledger.JournalEntry) error {
	if err := s.prepareEntry(entry); err != nil {
		return err
	}
	occurredAt := ev.Date
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := postEntryTx(ctx, tx, entry, false); err != nil {
			return err
		}
		for _, it := range ev.Items {
			mv := &inventory.StockTransaction{
				BusinessID:  ev.BusinessID,
				VariationID: it.VariationID,
				LocationID:  it.LocationID,
				Quantity:    it.Quantity,
				UnitCost:    it.UnitCost,
				Kind:        inventory.KindPurchase,
				Reference:   ev.PurchaseID,
				OccurredAt:  occurredAt,
			}
			if err := mv.Validate(); err != nil {
				return err
			}
			if err := recordMovementTx(ctx, tx, mv); err != nil {
				return err
			}
		}
		return nil
	})
}

// SoldItems returns sale lines dated within [from, to] joined with their
// catalogue data. Items whose variation is unknown keep zero product and
// category ids.
func (s *Store) SoldItems(ctx context.Context, businessID int64, from, to time.Time) ([]events.SoldItem, error) {
	lo, hi := dateBounds(from, to)
	rows, err := s.reader.QueryContext(ctx,
		`SELECT si.sale_id, sa.sale_date, si.variation_id, si.location_id,
			COALESCE(v.product_id, 0), COALESCE(v.product_name, ''), COALESCE(v.category_id, 0), COALESCE(v.category_name, ''),
			si.quantity, si.selling_price, si.unit_cost, si.costing_failed
		FROM sale_items si
		JOIN sales sa ON sa.business_id = si.business_id AND sa.id = si.sale_id
		LEFT JOIN variations v ON v.business_id = si.business_id AND v.id = si.variation_id
		WHERE si.business_id = ? AND sa.sale_date >= ? AND sa.sale_date <= ?
		ORDER BY sa.sale_date, si.id`, businessID, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("sold items: %w", err)
	}
	defer rows.Close()

	var items []events.SoldItem
	for rows.Next() {
		var it events.SoldItem
		var saleDate, qty, price string
		var unitCost sql.NullString
		if err := rows.Scan(&it.SaleID, &saleDate, &it.VariationID, &it.LocationID,
			&it.ProductID, &it.ProductName, &it.CategoryID, &it.CategoryName,
			&qty, &price, &unitCost, &it.CostingFailed); err != nil {
			return nil, fmt.Errorf("scan sold item: %w", err)
		}
		it.SaleDate = parseDate(saleDate)
		if it.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("sale %s quantity: %w", it.SaleID, err)
		}
		if it.SellingPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("sale %s price: %w", it.SaleID, err)
		}
		if unitCost.Valid {
			c, err := decimal.NewFromString(unitCost.String)
			if err != nil {
				return nil, fmt.Errorf("sale %s unit cost: %w", it.SaleID, err)
			}
			it.UnitCost = &c
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
