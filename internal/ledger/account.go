package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	TypeAsset     AccountType = "asset"
	TypeLiability AccountType = "liability"
	TypeEquity    AccountType = "equity"
	TypeRevenue   AccountType = "revenue"
	TypeExpense   AccountType = "expense"
)

var AllAccountTypes = []AccountType{
	TypeAsset,
	TypeLiability,
	TypeEquity,
	TypeRevenue,
	TypeExpense,
}

// NormalSide is the side on which an account's balance increases.
type NormalSide string

const (
	SideDebit  NormalSide = "debit"
	SideCredit NormalSide = "credit"
)

// Section tags place an account on the balance sheet or income statement.
type Section string

const (
	SectionCurrentAsset      Section = "current_asset"
	SectionFixedAsset        Section = "fixed_asset"
	SectionCurrentLiability  Section = "current_liability"
	SectionLongTermLiability Section = "long_term_liability"
	SectionEquity            Section = "equity"
	SectionRevenue           Section = "revenue"
	SectionContraRevenue     Section = "contra_revenue"
	SectionOtherIncome       Section = "other_income"
	SectionCostOfSales       Section = "cost_of_sales"
	SectionOperatingExpense  Section = "operating_expense"
	SectionOtherExpense      Section = "other_expense"
)

// CashFlowSection classifies an account for the cash flow statement.
type CashFlowSection string

const (
	CashFlowCash      CashFlowSection = "cash"
	CashFlowOperating CashFlowSection = "operating"
	CashFlowInvesting CashFlowSection = "investing"
	CashFlowFinancing CashFlowSection = "financing"
)

type Account struct {
	ID               int64           `json:"id"`
	BusinessID       int64           `json:"business_id"`
	Code             int             `json:"code"`
	Name             string          `json:"name"`
	Type             AccountType     `json:"type"`
	Subtype          string          `json:"subtype"`
	NormalBalance    NormalSide      `json:"normal_balance"`
	Section          Section         `json:"section"`
	CashFlowSection  CashFlowSection `json:"cash_flow_section"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
	YTDDebit         decimal.Decimal `json:"ytd_debit"`
	YTDCredit        decimal.Decimal `json:"ytd_credit"`
	IsSystem         bool            `json:"is_system"`
	AllowManualEntry bool            `json:"allow_manual_entry"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
}

// TypeForCode derives the account type from a 4-digit code.
func TypeForCode(code int) (AccountType, error) {
	switch {
	case code >= 1000 && code < 2000:
		return TypeAsset, nil
	case code >= 2000 && code < 3000:
		return TypeLiability, nil
	case code >= 3000 && code < 4000:
		return TypeEquity, nil
	case code >= 4000 && code < 5000:
		return TypeRevenue, nil
	case code >= 5000 && code < 6000:
		return TypeExpense, nil
	default:
		return "", fmt.Errorf("%w: %d (must be 1000-5999)", ErrInvalidAccountCode, code)
	}
}

// DefaultNormalSide returns the usual normal side for an account type.
// Assets and expenses are debit-normal; liabilities, equity and revenue are credit-normal.
func DefaultNormalSide(t AccountType) NormalSide {
	switch t {
	case TypeAsset, TypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// TypeLabel returns a human-readable label for an account type.
func TypeLabel(t AccountType) string {
	switch t {
	case TypeAsset:
		return "Assets"
	case TypeLiability:
		return "Liabilities"
	case TypeEquity:
		return "Equity"
	case TypeRevenue:
		return "Revenue"
	case TypeExpense:
		return "Expenses"
	default:
		return string(t)
	}
}

// ValidAccountType checks if a type string is valid.
func ValidAccountType(t AccountType) bool {
	for _, at := range AllAccountTypes {
		if at == t {
			return true
		}
	}
	return false
}

// BalanceDelta is the change to an account's balance for one posting,
// following the account's normal side.
func BalanceDelta(side NormalSide, debit, credit decimal.Decimal) decimal.Decimal {
	if side == SideDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// Validate checks account invariants.
func (a *Account) Validate() error {
	if a.BusinessID <= 0 {
		return fmt.Errorf("%w: business id %d", ErrInvalidBusiness, a.BusinessID)
	}
	expected, err := TypeForCode(a.Code)
	if err != nil {
		return err
	}
	if a.Type != expected {
		return fmt.Errorf("%w: code %d should be %s, got %s", ErrCodeTypeMismatch, a.Code, expected, a.Type)
	}
	if a.NormalBalance != SideDebit && a.NormalBalance != SideCredit {
		return fmt.Errorf("%w: normal balance %q", ErrInvalidAccountType, a.NormalBalance)
	}
	if a.Name == "" {
		return fmt.Errorf("account name is required")
	}
	return nil
}
