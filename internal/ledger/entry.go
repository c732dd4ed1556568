package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SourceType names the business event that produced a journal entry.
type SourceType string

const (
	SourceSale            SourceType = "sale"
	SourcePurchase        SourceType = "purchase"
	SourcePaymentReceived SourceType = "payment_received"
	SourcePaymentMade     SourceType = "payment_made"
	SourceManual          SourceType = "manual"
	SourceReversal        SourceType = "reversal"
)

type EntryStatus string

const (
	StatusDraft  EntryStatus = "draft"
	StatusPosted EntryStatus = "posted"
)

// DateLayout is the storage and wire format of entry dates.
const DateLayout = "2006-01-02"

type JournalLine struct {
	ID          int64           `json:"id,omitempty"`
	EntryID     string          `json:"entry_id,omitempty"`
	AccountID   int64           `json:"account_id,omitempty"`
	AccountCode int             `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

type JournalEntry struct {
	ID          string        `json:"id"`
	BusinessID  int64         `json:"business_id"`
	EntryDate   time.Time     `json:"entry_date"`
	Description string        `json:"description"`
	Reference   string        `json:"reference,omitempty"`
	SourceType  SourceType    `json:"source_type"`
	SourceID    string        `json:"source_id,omitempty"`
	Status      EntryStatus   `json:"status"`
	Balanced    bool          `json:"balanced"`
	CreatedBy   string        `json:"created_by,omitempty"`
	ReversalOf  string        `json:"reversal_of,omitempty"`
	ReversedBy  string        `json:"reversed_by,omitempty"`
	Lines       []JournalLine `json:"lines"`
	PostedAt    time.Time     `json:"posted_at"`
}

// Totals returns the sum of debits and credits over all lines.
func (e *JournalEntry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// Validate checks entry invariants before anything is written: a
// description, at least two lines, exactly one positive side per line with
// at most two decimals, and debits equal to credits.
func (e *JournalEntry) Validate() error {
	if e.BusinessID <= 0 {
		return fmt.Errorf("%w: business id %d", ErrInvalidBusiness, e.BusinessID)
	}
	if e.Description == "" {
		return ErrEmptyDescription
	}
	if len(e.Lines) < 2 {
		return ErrTooFewLines
	}
	for i, l := range e.Lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d has a negative amount", ErrInvalidLine, i)
		}
		if l.Debit.IsZero() == l.Credit.IsZero() {
			return fmt.Errorf("%w: line %d (account %d)", ErrInvalidLine, i, l.AccountCode)
		}
		if _, err := ToMinorUnits(l.Debit); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
		if _, err := ToMinorUnits(l.Credit); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
	}
	debit, credit := e.Totals()
	if !debit.Equal(credit) {
		return &UnbalancedEntryError{Debit: debit, Credit: credit}
	}
	return nil
}

// Mirror builds the offsetting entry for e: every debit becomes a credit of
// the same amount on the same account and vice versa.
func (e *JournalEntry) Mirror(date time.Time, createdBy string) *JournalEntry {
	rev := &JournalEntry{
		BusinessID:  e.BusinessID,
		EntryDate:   date,
		Description: "Reversal of " + e.Description,
		Reference:   e.Reference,
		SourceType:  SourceReversal,
		SourceID:    e.ID,
		CreatedBy:   createdBy,
		ReversalOf:  e.ID,
	}
	for _, l := range e.Lines {
		rev.Lines = append(rev.Lines, JournalLine{
			AccountCode: l.AccountCode,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Description: l.Description,
		})
	}
	return rev
}

// NormalizeDate truncates t to a UTC calendar date.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
