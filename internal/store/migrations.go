package store

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		if err := migrateV1(ctx, tx); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return tx.Commit()
}

func migrateV1(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS businesses (
			id                INTEGER PRIMARY KEY,
			name              TEXT NOT NULL DEFAULT '',
			accounting_method TEXT NOT NULL DEFAULT 'fifo' CHECK (accounting_method IN ('fifo','lifo','avco')),
			chart_version     INTEGER NOT NULL,
			created_at        TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,

		// Balances are integer minor units so increments are exact.
		`CREATE TABLE IF NOT EXISTS accounts (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			business_id        INTEGER NOT NULL REFERENCES businesses(id),
			code               INTEGER NOT NULL CHECK (code BETWEEN 1000 AND 5999),
			name               TEXT NOT NULL,
			type               TEXT NOT NULL CHECK (type IN ('asset','liability','equity','revenue','expense')),
			subtype            TEXT NOT NULL DEFAULT '',
			normal_balance     TEXT NOT NULL CHECK (normal_balance IN ('debit','credit')),
			section            TEXT NOT NULL DEFAULT '',
			cash_flow_section  TEXT NOT NULL DEFAULT '',
			current_balance    INTEGER NOT NULL DEFAULT 0,
			ytd_debit          INTEGER NOT NULL DEFAULT 0,
			ytd_credit         INTEGER NOT NULL DEFAULT 0,
			is_system          INTEGER NOT NULL DEFAULT 0,
			allow_manual_entry INTEGER NOT NULL DEFAULT 1,
			is_active          INTEGER NOT NULL DEFAULT 1,
			created_at         TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			UNIQUE (business_id, code)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_type ON accounts(business_id, type)`,

		`CREATE TABLE IF NOT EXISTS journal_entries (
			id          TEXT PRIMARY KEY,
			business_id INTEGER NOT NULL REFERENCES businesses(id),
			entry_date  TEXT NOT NULL,
			description TEXT NOT NULL,
			reference   TEXT NOT NULL DEFAULT '',
			source_type TEXT NOT NULL CHECK (source_type IN ('sale','purchase','payment_received','payment_made','manual','reversal')),
			source_id   TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft','posted')),
			balanced    INTEGER NOT NULL DEFAULT 0,
			created_by  TEXT NOT NULL DEFAULT '',
			reversal_of TEXT NOT NULL DEFAULT '',
			reversed_by TEXT NOT NULL DEFAULT '',
			posted_at   TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_date ON journal_entries(business_id, entry_date)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_source ON journal_entries(business_id, source_type, source_id)
			WHERE source_id != '' AND source_type != 'manual'`,

		`CREATE TABLE IF NOT EXISTS journal_lines (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id    TEXT NOT NULL REFERENCES journal_entries(id),
			account_id  INTEGER NOT NULL REFERENCES accounts(id),
			debit       INTEGER NOT NULL DEFAULT 0 CHECK (debit >= 0),
			credit      INTEGER NOT NULL DEFAULT 0 CHECK (credit >= 0),
			description TEXT NOT NULL DEFAULT '',
			CHECK ((debit > 0) != (credit > 0))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lines_entry ON journal_lines(entry_id)`,
		`CREATE INDEX IF NOT EXISTS idx_lines_account ON journal_lines(account_id)`,

		// An entry may only become posted when its lines balance.
		`CREATE TRIGGER IF NOT EXISTS trg_check_balance
		BEFORE UPDATE OF status ON journal_entries
		WHEN NEW.status = 'posted' AND OLD.status = 'draft'
		BEGIN
			SELECT CASE
				WHEN (SELECT COUNT(*) FROM journal_lines WHERE entry_id = NEW.id) < 2
				THEN RAISE(ABORT, 'journal entry must have at least 2 lines')
				WHEN (SELECT SUM(debit) - SUM(credit) FROM journal_lines WHERE entry_id = NEW.id) != 0
				THEN RAISE(ABORT, 'journal entry lines do not balance')
			END;
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_posted_lines_insert
		BEFORE INSERT ON journal_lines
		WHEN (SELECT status FROM journal_entries WHERE id = NEW.entry_id) = 'posted'
		BEGIN
			SELECT RAISE(ABORT, 'cannot add lines to a posted entry');
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_posted_lines_update
		BEFORE UPDATE ON journal_lines
		WHEN (SELECT status FROM journal_entries WHERE id = OLD.entry_id) = 'posted'
		BEGIN
			SELECT RAISE(ABORT, 'cannot modify lines of a posted entry');
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_posted_lines_delete
		BEFORE DELETE ON journal_lines
		WHEN (SELECT status FROM journal_entries WHERE id = OLD.entry_id) = 'posted'
		BEGIN
			SELECT RAISE(ABORT, 'cannot remove lines from a posted entry');
		END`,

		// Posted entries only ever gain a reversed_by link, once.
		`CREATE TRIGGER IF NOT EXISTS trg_posted_entry_update
		BEFORE UPDATE ON journal_entries
		WHEN OLD.status = 'posted' AND (
			NEW.status != OLD.status OR
			NEW.business_id != OLD.business_id OR
			NEW.entry_date != OLD.entry_date OR
			NEW.description != OLD.description OR
			NEW.source_type != OLD.source_type OR
			NEW.source_id != OLD.source_id OR
			NEW.reversal_of != OLD.reversal_of OR
			OLD.reversed_by != ''
		)
		BEGIN
			SELECT RAISE(ABORT, 'posted journal entries are immutable');
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_posted_entry_delete
		BEFORE DELETE ON journal_entries
		WHEN OLD.status = 'posted'
		BEGIN
			SELECT RAISE(ABORT, 'posted journal entries cannot be deleted');
		END`,

		`CREATE TABLE IF NOT EXISTS variations (
			business_id         INTEGER NOT NULL REFERENCES businesses(id),
			id                  INTEGER NOT NULL,
			product_id          INTEGER NOT NULL DEFAULT 0,
			product_name        TEXT NOT NULL DEFAULT '',
			name                TEXT NOT NULL DEFAULT '',
			category_id         INTEGER NOT NULL DEFAULT 0,
			category_name       TEXT NOT NULL DEFAULT '',
			last_purchase_price TEXT NOT NULL DEFAULT '0',
			PRIMARY KEY (business_id, id)
		)`,

		// Authoritative on-hand record, maintained with every movement.
		`CREATE TABLE IF NOT EXISTS stock_levels (
			business_id  INTEGER NOT NULL,
			variation_id INTEGER NOT NULL,
			location_id  INTEGER NOT NULL,
			quantity     TEXT NOT NULL DEFAULT '0',
			updated_at   TEXT NOT NULL,
			PRIMARY KEY (business_id, variation_id, location_id),
			FOREIGN KEY (business_id, variation_id) REFERENCES variations(business_id, id)
		)`,

		`CREATE TABLE IF NOT EXISTS stock_transactions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			business_id  INTEGER NOT NULL,
			variation_id INTEGER NOT NULL,
			location_id  INTEGER NOT NULL,
			quantity     TEXT NOT NULL,
			unit_cost    TEXT NOT NULL DEFAULT '0',
			inbound      INTEGER NOT NULL CHECK (inbound IN (0,1)),
			kind         TEXT NOT NULL,
			reference    TEXT NOT NULL DEFAULT '',
			occurred_at  TEXT NOT NULL,
			FOREIGN KEY (business_id, variation_id) REFERENCES variations(business_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_txn_key ON stock_transactions(business_id, variation_id, location_id, occurred_at)`,

		`CREATE TRIGGER IF NOT EXISTS trg_stock_txn_no_update
		BEFORE UPDATE ON stock_transactions
		BEGIN
			SELECT RAISE(ABORT, 'stock transactions are append-only');
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_stock_txn_no_delete
		BEFORE DELETE ON stock_transactions
		BEGIN
			SELECT RAISE(ABORT, 'stock transactions are append-only');
		END`,

		`CREATE TABLE IF NOT EXISTS sales (
			business_id  INTEGER NOT NULL REFERENCES businesses(id),
			id           TEXT NOT NULL,
			sale_date    TEXT NOT NULL,
			total_amount INTEGER NOT NULL,
			total_cogs   INTEGER NOT NULL,
			customer_id  TEXT NOT NULL DEFAULT '',
			is_credit    INTEGER NOT NULL DEFAULT 0,
			entry_id     TEXT NOT NULL REFERENCES journal_entries(id),
			created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			PRIMARY KEY (business_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(business_id, sale_date)`,

		// unit_cost is the cost snapshotted at sale time; NULL when costing failed.
		`CREATE TABLE IF NOT EXISTS sale_items (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			business_id    INTEGER NOT NULL,
			sale_id        TEXT NOT NULL,
			variation_id   INTEGER NOT NULL,
			location_id    INTEGER NOT NULL,
			quantity       TEXT NOT NULL,
			selling_price  TEXT NOT NULL,
			unit_cost      TEXT,
			cogs           TEXT NOT NULL DEFAULT '0',
			costing_failed INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (business_id, sale_id) REFERENCES sales(business_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(business_id, sale_id)`,

		`INSERT INTO schema_version (version) VALUES (1)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", snippet(stmt), err)
		}
	}
	return nil
}

func snippet(stmt string) string {
	if len(stmt) > 60 {
		return stmt[:60]
	}
	return stmt
}
