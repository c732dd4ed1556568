package store

import (
	"context"
	"fmt"
	"time"

	"github.com/simonvc/stockledger/internal/ledger"
)

// AccountTotals sums posted lines per account for entries dated within
// [from, to]. A zero from means since the beginning; a zero to means no upper
// bound. Every account of the business is returned, active or not.
func (s *Store) AccountTotals(ctx context.Context, businessID int64, from, to time.Time) ([]ledger.AccountTotal, error) {
	lo, hi := dateBounds(from, to)
	rows, err := s.reader.QueryContext(ctx,
		`SELECT a.id, a.business_id, a.code, a.name, a.type, a.subtype, a.normal_balance, a.section, a.cash_flow_section,
			a.current_balance, a.ytd_debit, a.ytd_credit, a.is_system, a.allow_manual_entry, a.is_active, a.created_at,
			COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM accounts a
		LEFT JOIN (
			SELECT jl.account_id, jl.debit, jl.credit
			FROM journal_lines jl
			JOIN journal_entries je ON je.id = jl.entry_id
			WHERE je.business_id = ? AND je.status = 'posted' AND je.entry_date >= ? AND je.entry_date <= ?
		) l ON l.account_id = a.id
		WHERE a.business_id = ?
		GROUP BY a.id
		ORDER BY a.code`, businessID, lo, hi, businessID)
	if err != nil {
		return nil, fmt.Errorf("account totals query: %w", err)
	}
	defer rows.Close()

	var totals []ledger.AccountTotal
	for rows.Next() {
		var debit, credit int64
		scan := &totalsRow{debit: &debit, credit: &credit, rows: rows}
		acct, err := scanAccount(scan)
		if err != nil {
			return nil, err
		}
		totals = append(totals, ledger.AccountTotal{
			Account: *acct,
			Debit:   ledger.FromMinorUnits(debit),
			Credit:  ledger.FromMinorUnits(credit),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(totals) == 0 {
		if _, err := s.GetBusiness(ctx, businessID); err != nil {
			return nil, err
		}
	}
	return totals, nil
}

// totalsRow lets scanAccount read the account columns of a row that carries
// two trailing sums.
type totalsRow struct {
	rows   rowScanner
	debit  *int64
	credit *int64
}

func (r *totalsRow) Scan(dest ...any) error {
	return r.rows.Scan(append(dest, r.debit, r.credit)...)
}
