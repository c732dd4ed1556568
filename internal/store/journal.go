package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simonvc/stockledger/internal/ledger"
)

// AccountLine is a posted journal line with its entry's date and description.
type AccountLine struct {
	ledger.JournalLine
	EntryDate        time.Time         `json:"entry_date"`
	EntryDescription string            `json:"entry_description"`
	SourceType       ledger.SourceType `json:"source_type"`
}

// PostEntry validates e and posts it: the entry, its lines and every account
// balance update commit together or not at all.
func (s *Store) PostEntry(ctx context.Context, e *ledger.JournalEntry) error {
	if err := s.prepareEntry(e); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return postEntryTx(ctx, tx, e, false)
	})
}

// PostManualEntry posts a hand-keyed entry. Accounts maintained by the
// automated recorders reject manual lines.
func (s *Store) PostManualEntry(ctx context.Context, e *ledger.JournalEntry) error {
	e.SourceType = ledger.SourceManual
	if err := s.prepareEntry(e); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return postEntryTx(ctx, tx, e, true)
	})
}

func (s *Store) prepareEntry(e *ledger.JournalEntry) error {
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV7()).String()
	}
	if e.EntryDate.IsZero() {
		e.EntryDate = s.now()
	}
	e.EntryDate = ledger.NormalizeDate(e.EntryDate)
	if e.SourceType == "" {
		e.SourceType = ledger.SourceManual
	}
	if e.PostedAt.IsZero() {
		e.PostedAt = s.now()
	}
	return e.Validate()
}

func postEntryTx(ctx context.Context, tx *sql.Tx, e *ledger.JournalEntry, manual bool) error {
	accounts := make([]*ledger.Account, len(e.Lines))
	for i, l := range e.Lines {
		acct, err := accountByCode(ctx, tx, e.BusinessID, l.AccountCode)
		if err != nil {
			return err
		}
		if !acct.IsActive {
			return fmt.Errorf("%w: %d %s", ledger.ErrAccountInactive, acct.Code, acct.Name)
		}
		if manual && !acct.AllowManualEntry {
			return fmt.Errorf("%w: %d %s", ledger.ErrManualEntryNotAllowed, acct.Code, acct.Name)
		}
		accounts[i] = acct
	}

	// Insert as draft, add lines, then post. The balance-check trigger
	// validates the lines on the status change; account balances move in
	// applyPosting below.
	_, err := tx.ExecContext(ctx,
		`INSERT INTO journal_entries (id, business_id, entry_date, description, reference, source_type, source_id, status, created_by, reversal_of)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 'draft', ?, ?)`,
		e.ID, e.BusinessID, formatDate(e.EntryDate), e.Description, e.Reference,
		string(e.SourceType), e.SourceID, e.CreatedBy, e.ReversalOf,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s %s", ledger.ErrDuplicateEvent, e.SourceType, e.SourceID)
	}
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}

	debits := make([]int64, len(e.Lines))
	credits := make([]int64, len(e.Lines))
	for i := range e.Lines {
		l := &e.Lines[i]
		l.EntryID = e.ID
		l.AccountID = accounts[i].ID
		debits[i], _ = ledger.ToMinorUnits(l.Debit)
		credits[i], _ = ledger.ToMinorUnits(l.Credit)

		res, err := tx.ExecContext(ctx,
			`INSERT INTO journal_lines (entry_id, account_id, debit, credit, description) VALUES (?, ?, ?, ?, ?)`,
			e.ID, l.AccountID, debits[i], credits[i], l.Description,
		)
		if err != nil {
			return fmt.Errorf("insert line %d: %w", i, err)
		}
		l.ID, _ = res.LastInsertId()
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE journal_entries SET status = 'posted', balanced = 1, posted_at = ? WHERE id = ?`,
		formatStamp(e.PostedAt), e.ID)
	if err != nil {
		return fmt.Errorf("post journal entry: %w", err)
	}

	for i := range e.Lines {
		if err := applyPosting(ctx, tx, accounts[i], debits[i], credits[i]); err != nil {
			return err
		}
	}

	e.Status = ledger.StatusPosted
	e.Balanced = true
	return nil
}

// ReverseEntry posts the mirror image of a posted entry and links the two.
// An entry can be reversed once; reversals cannot be reversed.
func (s *Store) ReverseEntry(ctx context.Context, businessID int64, entryID string, date time.Time, createdBy string) (*ledger.JournalEntry, error) {
	var rev *ledger.JournalEntry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		orig, err := getEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if orig.BusinessID != businessID {
			return fmt.Errorf("%w: %s", ledger.ErrEntryNotFound, entryID)
		}
		if orig.SourceType == ledger.SourceReversal {
			return fmt.Errorf("%w: %s", ledger.ErrCannotReverseReversal, entryID)
		}
		if orig.ReversedBy != "" {
			return fmt.Errorf("%w: %s by %s", ledger.ErrAlreadyReversed, entryID, orig.ReversedBy)
		}

		rev = orig.Mirror(date, createdBy)
		if err := s.prepareEntry(rev); err != nil {
			return err
		}
		if err := postEntryTx(ctx, tx, rev, false); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE journal_entries SET reversed_by = ? WHERE id = ? AND reversed_by = ''`, rev.ID, orig.ID)
		if err != nil {
			return fmt.Errorf("link reversal: %w", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return fmt.Errorf("%w: %s", ledger.ErrAlreadyReversed, entryID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rev, nil
}

// GetEntry loads one entry with its lines. Entries of other businesses are
// reported as not found.
func (s *Store) GetEntry(ctx context.Context, businessID int64, id string) (*ledger.JournalEntry, error) {
	e, err := getEntry(ctx, s.reader, id)
	if err != nil {
		return nil, err
	}
	if e.BusinessID != businessID {
		return nil, fmt.Errorf("%w: %s", ledger.ErrEntryNotFound, id)
	}
	return e, nil
}

const entryColumns = `id, business_id, entry_date, description, reference, source_type, source_id,
	status, balanced, created_by, reversal_of, reversed_by, posted_at`

func getEntry(ctx context.Context, q queryer, id string) (*ledger.JournalEntry, error) {
	row := q.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrEntryNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	e.Lines, err = entryLines(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListEntries returns posted entries newest first.
func (s *Store) ListEntries(ctx context.Context, filter EntryFilter) ([]ledger.JournalEntry, error) {
	from, to := dateBounds(filter.From, filter.To)
	query := `SELECT ` + entryColumns + ` FROM journal_entries je
		WHERE je.business_id = ? AND je.status = 'posted' AND je.entry_date >= ? AND je.entry_date <= ?`
	args := []any{filter.BusinessID, from, to}

	if filter.SourceType != "" {
		query += ` AND je.source_type = ?`
		args = append(args, string(filter.SourceType))
	}
	if filter.AccountCode != 0 {
		query += ` AND EXISTS (SELECT 1 FROM journal_lines jl JOIN accounts a ON a.id = jl.account_id
			WHERE jl.entry_id = je.id AND a.code = ?)`
		args = append(args, filter.AccountCode)
	}

	query += ` ORDER BY je.entry_date DESC, je.posted_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
		}
	}

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].Lines, err = entryLines(ctx, s.reader, entries[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// AccountLines lists the posted lines hitting one account, oldest first.
func (s *Store) AccountLines(ctx context.Context, businessID int64, code int, from, to time.Time) ([]AccountLine, error) {
	acct, err := s.AccountByCode(ctx, businessID, code)
	if err != nil {
		return nil, err
	}
	lo, hi := dateBounds(from, to)
	rows, err := s.reader.QueryContext(ctx,
		`SELECT jl.id, jl.entry_id, jl.account_id, jl.debit, jl.credit, jl.description,
			je.entry_date, je.description, je.source_type
		FROM journal_lines jl
		JOIN journal_entries je ON je.id = jl.entry_id
		WHERE jl.account_id = ? AND je.status = 'posted' AND je.entry_date >= ? AND je.entry_date <= ?
		ORDER BY je.entry_date, jl.id`, acct.ID, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("account lines: %w", err)
	}
	defer rows.Close()

	var lines []AccountLine
	for rows.Next() {
		var al AccountLine
		var debit, credit int64
		var entryDate string
		if err := rows.Scan(&al.ID, &al.EntryID, &al.AccountID, &debit, &credit, &al.Description,
			&entryDate, &al.EntryDescription, &al.SourceType); err != nil {
			return nil, fmt.Errorf("scan account line: %w", err)
		}
		al.AccountCode = code
		al.Debit = ledger.FromMinorUnits(debit)
		al.Credit = ledger.FromMinorUnits(credit)
		al.EntryDate = parseDate(entryDate)
		lines = append(lines, al)
	}
	return lines, rows.Err()
}

func entryLines(ctx context.Context, q queryer, entryID string) ([]ledger.JournalLine, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT jl.id, jl.entry_id, jl.account_id, a.code, jl.debit, jl.credit, jl.description
		FROM journal_lines jl
		JOIN accounts a ON a.id = jl.account_id
		WHERE jl.entry_id = ? ORDER BY jl.id`, entryID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	defer rows.Close()

	var lines []ledger.JournalLine
	for rows.Next() {
		var l ledger.JournalLine
		var debit, credit int64
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.AccountCode, &debit, &credit, &l.Description); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		l.Debit = ledger.FromMinorUnits(debit)
		l.Credit = ledger.FromMinorUnits(credit)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanEntry(row rowScanner) (*ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	var entryDate, postedAt string
	var balanced int
	err := row.Scan(&e.ID, &e.BusinessID, &entryDate, &e.Description, &e.Reference, &e.SourceType, &e.SourceID,
		&e.Status, &balanced, &e.CreatedBy, &e.ReversalOf, &e.ReversedBy, &postedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan journal entry: %w", err)
	}
	e.EntryDate = parseDate(entryDate)
	e.Balanced = balanced == 1
	e.PostedAt = parseStamp(postedAt)
	return &e, nil
}
