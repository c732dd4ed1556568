package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/ledger"
)

const accountColumns = `id, business_id, code, name, type, subtype, normal_balance, section, cash_flow_section,
	current_balance, ytd_debit, ytd_credit, is_system, allow_manual_entry, is_active, created_at`

// InitializeBusiness creates the business row and seeds the chart of
// accounts. Seeding is an upsert keyed by (business, code): running it again
// refreshes names and flags but never touches balances.
func (s *Store) InitializeBusiness(ctx context.Context, businessID int64, name string, method inventory.Method) error {
	if businessID <= 0 {
		return fmt.Errorf("%w: business id %d", ledger.ErrInvalidBusiness, businessID)
	}
	if method == "" {
		method = inventory.FIFO
	}
	if _, err := inventory.ParseMethod(string(method)); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO businesses (id, name, accounting_method, chart_version) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				chart_version = excluded.chart_version,
				name = CASE WHEN excluded.name != '' THEN excluded.name ELSE businesses.name END`,
			businessID, name, string(method), ledger.ChartTemplateVersion,
		)
		if err != nil {
			return fmt.Errorf("upsert business: %w", err)
		}

		for _, ce := range ledger.ChartTemplate {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO accounts (business_id, code, name, type, subtype, normal_balance, section, cash_flow_section, is_system, allow_manual_entry)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT(business_id, code) DO UPDATE SET
					name = excluded.name,
					subtype = excluded.subtype,
					section = excluded.section,
					cash_flow_section = excluded.cash_flow_section,
					is_system = excluded.is_system,
					allow_manual_entry = excluded.allow_manual_entry`,
				businessID, ce.Code, ce.Name, string(ce.Type), ce.Subtype, string(ce.NormalBalance),
				string(ce.Section), string(ce.CashFlowSection), boolToInt(ce.IsSystem), boolToInt(ce.AllowManualEntry),
			)
			if err != nil {
				return fmt.Errorf("seed account %d: %w", ce.Code, err)
			}
		}
		return nil
	})
}

func (s *Store) GetBusiness(ctx context.Context, businessID int64) (*ledger.Business, error) {
	var b ledger.Business
	var createdAt string
	err := s.reader.QueryRowContext(ctx,
		`SELECT id, name, accounting_method, chart_version, created_at FROM businesses WHERE id = ?`, businessID,
	).Scan(&b.ID, &b.Name, &b.AccountingMethod, &b.ChartVersion, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ledger.ErrBusinessNotFound, businessID)
	}
	if err != nil {
		return nil, fmt.Errorf("get business: %w", err)
	}
	b.CreatedAt = parseStamp(createdAt)
	return &b, nil
}

// AccountingMethod returns the business's configured valuation method.
func (s *Store) AccountingMethod(ctx context.Context, businessID int64) (inventory.Method, error) {
	b, err := s.GetBusiness(ctx, businessID)
	if err != nil {
		return "", err
	}
	return inventory.Method(b.AccountingMethod), nil
}

func (s *Store) SetAccountingMethod(ctx context.Context, businessID int64, method inventory.Method) error {
	if _, err := inventory.ParseMethod(string(method)); err != nil || method == "" {
		return fmt.Errorf("%w: %q", inventory.ErrInvalidMethod, method)
	}
	res, err := s.writer.ExecContext(ctx,
		`UPDATE businesses SET accounting_method = ? WHERE id = ?`, string(method), businessID)
	if err != nil {
		return fmt.Errorf("set accounting method: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ledger.ErrBusinessNotFound, businessID)
	}
	return nil
}

// AccountByCode returns a ConfigurationError when the code has not been
// seeded for the business.
func (s *Store) AccountByCode(ctx context.Context, businessID int64, code int) (*ledger.Account, error) {
	return accountByCode(ctx, s.reader, businessID, code)
}

func accountByCode(ctx context.Context, q queryer, businessID int64, code int) (*ledger.Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE business_id = ? AND code = ?`, businessID, code)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.ConfigurationError{BusinessID: businessID, Code: code}
	}
	return acct, err
}

func (s *Store) AccountsByType(ctx context.Context, businessID int64, typ ledger.AccountType) ([]ledger.Account, error) {
	if !ledger.ValidAccountType(typ) {
		return nil, fmt.Errorf("%w: %q", ledger.ErrInvalidAccountType, typ)
	}
	return s.ListAccounts(ctx, businessID, AccountFilter{Type: typ})
}

func (s *Store) ListAccounts(ctx context.Context, businessID int64, filter AccountFilter) ([]ledger.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE business_id = ?`
	args := []any{businessID}

	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.ActiveOnly {
		query += ` AND is_active = 1`
	}

	query += ` ORDER BY code`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
		}
	}

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	return accounts, rows.Err()
}

// AccountBalance is the running balance on the account's normal side.
func (s *Store) AccountBalance(ctx context.Context, businessID int64, code int) (decimal.Decimal, error) {
	acct, err := s.AccountByCode(ctx, businessID, code)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.CurrentBalance, nil
}

// DeactivateAccount hides an account from new postings. Accounts are never
// deleted; system accounts cannot be deactivated.
func (s *Store) DeactivateAccount(ctx context.Context, businessID int64, code int) error {
	acct, err := s.AccountByCode(ctx, businessID, code)
	if err != nil {
		return err
	}
	if acct.IsSystem {
		return fmt.Errorf("%w: %d %s", ledger.ErrSystemAccount, acct.Code, acct.Name)
	}
	_, err = s.writer.ExecContext(ctx, `UPDATE accounts SET is_active = 0 WHERE id = ?`, acct.ID)
	if err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}
	return nil
}

// applyPosting moves an account's running balance by one journal line. It is
// a single relative UPDATE so concurrent postings to the same account never
// lose an increment.
func applyPosting(ctx context.Context, tx *sql.Tx, acct *ledger.Account, debit, credit int64) error {
	delta := debit - credit
	if acct.NormalBalance == ledger.SideCredit {
		delta = credit - debit
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET
			current_balance = current_balance + ?,
			ytd_debit = ytd_debit + ?,
			ytd_credit = ytd_credit + ?
		 WHERE id = ?`,
		delta, debit, credit, acct.ID,
	)
	if err != nil {
		return fmt.Errorf("apply posting to %d: %w", acct.Code, err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return fmt.Errorf("%w: id %d", ledger.ErrAccountNotFound, acct.ID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*ledger.Account, error) {
	var acct ledger.Account
	var balance, ytdDebit, ytdCredit int64
	var isSystem, allowManual, isActive int
	var createdAt string
	err := row.Scan(&acct.ID, &acct.BusinessID, &acct.Code, &acct.Name, &acct.Type, &acct.Subtype,
		&acct.NormalBalance, &acct.Section, &acct.CashFlowSection,
		&balance, &ytdDebit, &ytdCredit, &isSystem, &allowManual, &isActive, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	acct.CurrentBalance = ledger.FromMinorUnits(balance)
	acct.YTDDebit = ledger.FromMinorUnits(ytdDebit)
	acct.YTDCredit = ledger.FromMinorUnits(ytdCredit)
	acct.IsSystem = isSystem == 1
	acct.AllowManualEntry = allowManual == 1
	acct.IsActive = isActive == 1
	acct.CreatedAt = parseStamp(createdAt)
	return &acct, nil
}
