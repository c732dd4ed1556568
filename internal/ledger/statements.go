package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountTotal is the sum of posted lines for one account over a date range.
type AccountTotal struct {
	Account Account         `json:"account"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
}

// TrialBalanceLine represents a single line in the trial balance.
type TrialBalanceLine struct {
	Code        int             `json:"code"`
	AccountName string          `json:"account_name"`
	Type        AccountType     `json:"type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

type TrialBalance struct {
	BusinessID  int64              `json:"business_id"`
	AsOf        time.Time          `json:"as_of"`
	Lines       []TrialBalanceLine `json:"lines"`
	TotalDebit  decimal.Decimal    `json:"total_debit"`
	TotalCredit decimal.Decimal    `json:"total_credit"`
	Difference  decimal.Decimal    `json:"difference"`
	Balanced    bool               `json:"balanced"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// StatementLine is one account amount on a balance sheet or income statement.
type StatementLine struct {
	Code        int             `json:"code"`
	AccountName string          `json:"account_name"`
	Amount      decimal.Decimal `json:"amount"`
}

// StatementSection groups lines with their total.
type StatementSection struct {
	Title string          `json:"title"`
	Lines []StatementLine `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// Add appends a line and accumulates the section total.
func (s *StatementSection) Add(code int, name string, amount decimal.Decimal) {
	s.Lines = append(s.Lines, StatementLine{Code: code, AccountName: name, Amount: amount})
	s.Total = s.Total.Add(amount)
}

type BalanceSheet struct {
	BusinessID            int64            `json:"business_id"`
	AsOf                  time.Time        `json:"as_of"`
	CurrentAssets         StatementSection `json:"current_assets"`
	FixedAssets           StatementSection `json:"fixed_assets"`
	CurrentLiabilities    StatementSection `json:"current_liabilities"`
	LongTermLiabilities   StatementSection `json:"long_term_liabilities"`
	Equity                StatementSection `json:"equity"`
	CurrentPeriodEarnings decimal.Decimal  `json:"current_period_earnings"`
	TotalAssets           decimal.Decimal  `json:"total_assets"`
	TotalLiabilities      decimal.Decimal  `json:"total_liabilities"`
	TotalEquity           decimal.Decimal  `json:"total_equity"`
	WorkingCapital        decimal.Decimal  `json:"working_capital"`
	CurrentRatio          decimal.Decimal  `json:"current_ratio"`
	DebtToEquity          decimal.Decimal  `json:"debt_to_equity"`
	Difference            decimal.Decimal  `json:"difference"`
	Balanced              bool             `json:"balanced"`
	GeneratedAt           time.Time        `json:"generated_at"`
}

// NetIncomeResult classifies a period's net income.
type NetIncomeResult string

const (
	ResultProfit    NetIncomeResult = "profit"
	ResultLoss      NetIncomeResult = "loss"
	ResultBreakeven NetIncomeResult = "breakeven"
)

type IncomeStatement struct {
	BusinessID        int64            `json:"business_id"`
	From              time.Time        `json:"from"`
	To                time.Time        `json:"to"`
	Revenue           StatementSection `json:"revenue"`
	ContraRevenue     StatementSection `json:"contra_revenue"`
	NetSales          decimal.Decimal  `json:"net_sales"`
	CostOfSales       StatementSection `json:"cost_of_sales"`
	GrossProfit       decimal.Decimal  `json:"gross_profit"`
	OperatingExpenses StatementSection `json:"operating_expenses"`
	OperatingIncome   decimal.Decimal  `json:"operating_income"`
	OtherIncome       StatementSection `json:"other_income"`
	OtherExpenses     StatementSection `json:"other_expenses"`
	NetIncome         decimal.Decimal  `json:"net_income"`
	GrossMargin       decimal.Decimal  `json:"gross_margin"`
	OperatingMargin   decimal.Decimal  `json:"operating_margin"`
	NetMargin         decimal.Decimal  `json:"net_margin"`
	Result            NetIncomeResult  `json:"result"`
	GeneratedAt       time.Time        `json:"generated_at"`
}
