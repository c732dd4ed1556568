// Package statements builds the trial balance, balance sheet and income
// statement by aggregating posted journal lines on demand.
package statements

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/simonvc/stockledger/internal/ledger"
)

// Source sums posted lines per account over an inclusive date range. A zero
// from or to leaves that end open.
type Source interface {
	AccountTotals(ctx context.Context, businessID int64, from, to time.Time) ([]ledger.AccountTotal, error)
}

type Generator struct {
	src     Source
	log     logrus.FieldLogger
	epsilon decimal.Decimal
	now     func() time.Time
}

func New(src Source, log logrus.FieldLogger) *Generator {
	return &Generator{
		src:     src,
		log:     log,
		epsilon: ledger.Epsilon,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithEpsilon sets the tolerance used for balance checks and the
// breakeven band.
func (g *Generator) WithEpsilon(eps decimal.Decimal) *Generator {
	if eps.IsPositive() {
		g.epsilon = eps
	}
	return g
}

func (g *Generator) within(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(g.epsilon)
}

func (g *Generator) asOf(t time.Time) time.Time {
	if t.IsZero() {
		return ledger.NormalizeDate(g.now())
	}
	return ledger.NormalizeDate(t)
}

// TrialBalance lists every account with a non-zero balance as of asOf. The
// balance sits in the column of the account's normal side, or the other
// column when it has gone negative.
func (g *Generator) TrialBalance(ctx context.Context, businessID int64, asOf time.Time) (*ledger.TrialBalance, error) {
	asOf = g.asOf(asOf)
	totals, err := g.src.AccountTotals(ctx, businessID, time.Time{}, asOf)
	if err != nil {
		return nil, err
	}

	tb := &ledger.TrialBalance{
		BusinessID:  businessID,
		AsOf:        asOf,
		Lines:       []ledger.TrialBalanceLine{},
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		GeneratedAt: g.now(),
	}
	for _, t := range totals {
		balance := ledger.BalanceDelta(t.Account.NormalBalance, t.Debit, t.Credit)
		if balance.IsZero() {
			continue
		}
		line := ledger.TrialBalanceLine{
			Code:        t.Account.Code,
			AccountName: t.Account.Name,
			Type:        t.Account.Type,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		}
		onDebit := t.Account.NormalBalance == ledger.SideDebit
		if balance.IsNegative() {
			onDebit = !onDebit
			balance = balance.Neg()
		}
		if onDebit {
			line.Debit = balance
			tb.TotalDebit = tb.TotalDebit.Add(balance)
		} else {
			line.Credit = balance
			tb.TotalCredit = tb.TotalCredit.Add(balance)
		}
		tb.Lines = append(tb.Lines, line)
	}

	tb.Difference = tb.TotalDebit.Sub(tb.TotalCredit)
	tb.Balanced = g.within(tb.TotalDebit, tb.TotalCredit)
	if !tb.Balanced {
		g.imbalance("trial balance", businessID, asOf, tb.Difference)
	}
	return tb, nil
}

// BalanceSheet reports the position as of asOf. Asset sections show
// debit − credit and claims show credit − debit, so contra accounts net
// against their section. Revenue and expense activity not yet closed to
// retained earnings is carried into equity as current-period earnings.
func (g *Generator) BalanceSheet(ctx context.Context, businessID int64, asOf time.Time) (*ledger.BalanceSheet, error) {
	asOf = g.asOf(asOf)
	totals, err := g.src.AccountTotals(ctx, businessID, time.Time{}, asOf)
	if err != nil {
		return nil, err
	}

	bs := &ledger.BalanceSheet{
		BusinessID:            businessID,
		AsOf:                  asOf,
		CurrentAssets:         section("Current Assets"),
		FixedAssets:           section("Fixed Assets"),
		CurrentLiabilities:    section("Current Liabilities"),
		LongTermLiabilities:   section("Long-Term Liabilities"),
		Equity:                section("Equity"),
		CurrentPeriodEarnings: decimal.Zero,
		GeneratedAt:           g.now(),
	}
	for _, t := range totals {
		a := t.Account
		debitSide := t.Debit.Sub(t.Credit)
		creditSide := t.Credit.Sub(t.Debit)
		switch a.Section {
		case ledger.SectionCurrentAsset:
			addNonZero(&bs.CurrentAssets, a, debitSide)
		case ledger.SectionFixedAsset:
			addNonZero(&bs.FixedAssets, a, debitSide)
		case ledger.SectionCurrentLiability:
			addNonZero(&bs.CurrentLiabilities, a, creditSide)
		case ledger.SectionLongTermLiability:
			addNonZero(&bs.LongTermLiabilities, a, creditSide)
		case ledger.SectionEquity:
			addNonZero(&bs.Equity, a, creditSide)
		default:
			bs.CurrentPeriodEarnings = bs.CurrentPeriodEarnings.Add(creditSide)
		}
	}

	bs.TotalAssets = bs.CurrentAssets.Total.Add(bs.FixedAssets.Total)
	bs.TotalLiabilities = bs.CurrentLiabilities.Total.Add(bs.LongTermLiabilities.Total)
	bs.TotalEquity = bs.Equity.Total.Add(bs.CurrentPeriodEarnings)
	bs.WorkingCapital = bs.CurrentAssets.Total.Sub(bs.CurrentLiabilities.Total)
	bs.CurrentRatio = ratio(bs.CurrentAssets.Total, bs.CurrentLiabilities.Total)
	bs.DebtToEquity = ratio(bs.TotalLiabilities, bs.TotalEquity)

	claims := bs.TotalLiabilities.Add(bs.TotalEquity)
	bs.Difference = bs.TotalAssets.Sub(claims)
	bs.Balanced = g.within(bs.TotalAssets, claims)
	if !bs.Balanced {
		g.imbalance("balance sheet", businessID, asOf, bs.Difference)
	}
	return bs, nil
}

// IncomeStatement reports revenue and expense activity dated within
// [from, to].
func (g *Generator) IncomeStatement(ctx context.Context, businessID int64, from, to time.Time) (*ledger.IncomeStatement, error) {
	to = g.asOf(to)
	if !from.IsZero() {
		from = ledger.NormalizeDate(from)
	}
	totals, err := g.src.AccountTotals(ctx, businessID, from, to)
	if err != nil {
		return nil, err
	}

	is := &ledger.IncomeStatement{
		BusinessID:        businessID,
		From:              from,
		To:                to,
		Revenue:           section("Revenue"),
		ContraRevenue:     section("Returns & Discounts"),
		CostOfSales:       section("Cost of Sales"),
		OperatingExpenses: section("Operating Expenses"),
		OtherIncome:       section("Other Income"),
		OtherExpenses:     section("Other Expenses"),
		GeneratedAt:       g.now(),
	}
	for _, t := range totals {
		a := t.Account
		debitSide := t.Debit.Sub(t.Credit)
		creditSide := t.Credit.Sub(t.Debit)
		switch a.Section {
		case ledger.SectionRevenue:
			addNonZero(&is.Revenue, a, creditSide)
		case ledger.SectionContraRevenue:
			addNonZero(&is.ContraRevenue, a, debitSide)
		case ledger.SectionOtherIncome:
			addNonZero(&is.OtherIncome, a, creditSide)
		case ledger.SectionCostOfSales:
			addNonZero(&is.CostOfSales, a, debitSide)
		case ledger.SectionOperatingExpense:
			addNonZero(&is.OperatingExpenses, a, debitSide)
		case ledger.SectionOtherExpense:
			addNonZero(&is.OtherExpenses, a, debitSide)
		}
	}

	is.NetSales = is.Revenue.Total.Sub(is.ContraRevenue.Total)
	is.GrossProfit = is.NetSales.Sub(is.CostOfSales.Total)
	is.OperatingIncome = is.GrossProfit.Sub(is.OperatingExpenses.Total)
	is.NetIncome = is.OperatingIncome.Add(is.OtherIncome.Total).Sub(is.OtherExpenses.Total)
	is.GrossMargin = percent(is.GrossProfit, is.NetSales)
	is.OperatingMargin = percent(is.OperatingIncome, is.NetSales)
	is.NetMargin = percent(is.NetIncome, is.NetSales)

	switch {
	case g.within(is.NetIncome, decimal.Zero):
		is.Result = ledger.ResultBreakeven
	case is.NetIncome.IsPositive():
		is.Result = ledger.ResultProfit
	default:
		is.Result = ledger.ResultLoss
	}
	return is, nil
}

func (g *Generator) imbalance(report string, businessID int64, asOf time.Time, diff decimal.Decimal) {
	g.log.WithFields(logrus.Fields{
		"business_id": businessID,
		"as_of":       asOf.Format(ledger.DateLayout),
		"difference":  diff.StringFixed(ledger.MoneyExponent),
	}).Warn(report + " does not balance")
}

func section(title string) ledger.StatementSection {
	return ledger.StatementSection{Title: title, Lines: []ledger.StatementLine{}, Total: decimal.Zero}
}

func addNonZero(s *ledger.StatementSection, a ledger.Account, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	s.Add(a.Code, a.Name, amount)
}

var hundred = decimal.NewFromInt(100)

// ratio is a / b to four places, zero when b is not positive.
func ratio(a, b decimal.Decimal) decimal.Decimal {
	if !b.IsPositive() {
		return decimal.Zero
	}
	return a.DivRound(b, 4)
}

// percent is part / whole × 100 to two places, zero when whole is zero.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}
