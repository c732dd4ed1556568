package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAccountCode    = errors.New("invalid account code")
	ErrInvalidAccountType    = errors.New("invalid account type")
	ErrCodeTypeMismatch      = errors.New("account code does not match type")
	ErrInvalidBusiness       = errors.New("invalid business")
	ErrBusinessNotFound      = errors.New("business not found")
	ErrConfiguration         = errors.New("accounting configuration error")
	ErrUnbalancedEntry       = errors.New("journal entry does not balance")
	ErrTooFewLines           = errors.New("journal entry must have at least 2 lines")
	ErrEmptyDescription      = errors.New("journal entry description is required")
	ErrInvalidLine           = errors.New("journal line must have exactly one positive side")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrAccountNotFound       = errors.New("account not found")
	ErrAccountInactive       = errors.New("account is inactive")
	ErrSystemAccount         = errors.New("system accounts cannot be deactivated")
	ErrManualEntryNotAllowed = errors.New("account does not accept manual entries")
	ErrEntryNotFound         = errors.New("journal entry not found")
	ErrAlreadyReversed       = errors.New("journal entry already reversed")
	ErrCannotReverseReversal = errors.New("a reversal entry cannot itself be reversed")
	ErrDuplicateEvent        = errors.New("event already recorded")
)

// ConfigurationError reports a required account that has not been seeded for
// a business. It is fatal for the triggering operation and is not retried.
type ConfigurationError struct {
	BusinessID int64
	Code       int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: account %d is not configured for business %d", ErrConfiguration, e.Code, e.BusinessID)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// UnbalancedEntryError carries the totals of a rejected entry.
type UnbalancedEntryError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("%s: debits %s != credits %s", ErrUnbalancedEntry, e.Debit.StringFixed(2), e.Credit.StringFixed(2))
}

func (e *UnbalancedEntryError) Is(target error) bool {
	return target == ErrUnbalancedEntry
}
