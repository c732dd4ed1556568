package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/stockledger/internal/cogs"
	"github.com/simonvc/stockledger/internal/events"
	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/ledger"
	"github.com/simonvc/stockledger/internal/statements"
	"github.com/simonvc/stockledger/internal/store"
	"github.com/simonvc/stockledger/internal/valuation"
)

const bid int64 = 7

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	st   *store.Store
	rec  *Recorder
	calc *cogs.Calculator
	gen  *statements.Generator
	hook *test.Hook
}

func newFixture(t *testing.T, method inventory.Method) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "rec.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.InitializeBusiness(context.Background(), bid, "Corner Shop", method))

	log, hook := test.NewNullLogger()
	engine := valuation.New(st, log)
	calc := cogs.New(engine, st, log)
	return &fixture{
		st:   st,
		rec:  New(st, calc, log),
		calc: calc,
		gen:  statements.New(st, log),
		hook: hook,
	}
}

func (f *fixture) balance(t *testing.T, code int) decimal.Decimal {
	t.Helper()
	b, err := f.st.AccountBalance(context.Background(), bid, code)
	require.NoError(t, err)
	return b
}

func (f *fixture) stockUp(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.st.UpsertVariation(ctx, inventory.Variation{
		BusinessID: bid, ID: 1, ProductID: 10, ProductName: "Coffee Beans", Name: "1kg",
		CategoryID: 3, CategoryName: "Coffee",
	}))
	_, err := f.rec.RecordPurchase(ctx, &events.PurchaseEvent{
		BusinessID: bid, PurchaseID: "po-1", Date: date(time.January, 5), TotalCost: dec("1000"),
		Items: []events.PurchaseItem{{VariationID: 1, LocationID: 1, Quantity: dec("100"), UnitCost: dec("10")}},
	})
	require.NoError(t, err)
	_, err = f.rec.RecordPurchase(ctx, &events.PurchaseEvent{
		BusinessID: bid, PurchaseID: "po-2", Date: date(time.February, 5), TotalCost: dec("600"),
		Items: []events.PurchaseItem{{VariationID: 1, LocationID: 1, Quantity: dec("50"), UnitCost: dec("12")}},
	})
	require.NoError(t, err)
}

func TestTemplateLines(t *testing.T) {
	lines := CashSaleLines(dec("100"), dec("60"))
	require.Len(t, lines, 4)
	assert.Equal(t, ledger.CodeCash, lines[0].AccountCode)
	assert.True(t, lines[0].Debit.Equal(dec("100")))
	assert.Equal(t, ledger.CodeSalesRevenue, lines[1].AccountCode)
	assert.True(t, lines[1].Credit.Equal(dec("100")))
	assert.Equal(t, ledger.CodeCostOfGoodsSold, lines[2].AccountCode)
	assert.True(t, lines[2].Debit.Equal(dec("60")))
	assert.Equal(t, ledger.CodeInventory, lines[3].AccountCode)
	assert.True(t, lines[3].Credit.Equal(dec("60")))

	credit := CreditSaleLines(dec("100"), dec("60"))
	assert.Equal(t, ledger.CodeAccountsReceivable, credit[0].AccountCode)
	assert.Len(t, CreditSaleLines(dec("100"), decimal.Zero), 2, "no cost lines without cost")

	for _, ls := range [][]ledger.JournalLine{
		PurchaseLines(dec("75")),
		PaymentReceivedLines(dec("75")),
		PaymentMadeLines(dec("75")),
	} {
		require.Len(t, ls, 2)
		e := ledger.JournalEntry{Lines: ls}
		d, c := e.Totals()
		assert.True(t, d.Equal(c))
	}
	assert.Equal(t, ledger.CodeAccountsPayable, PaymentMadeLines(dec("1"))[0].AccountCode)
}

func TestCompleteSale_CashFIFO(t *testing.T) {
	f := newFixture(t, inventory.FIFO)
	f.stockUp(t)
	ctx := context.Background()

	res, err := f.rec.CompleteSale(ctx, &events.SaleEvent{
		BusinessID: bid, SaleID: "s-1", Date: date(time.March, 1), TotalAmount: dec("1800"),
		Items: []events.SaleItem{{VariationID: 1, LocationID: 1, Quantity: dec("120"), SellingPrice: dec("15")}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.True(t, res.Costing.TotalCOGS.Equal(dec("1240")))
	require.Len(t, res.Entry.Lines, 4)

	assert.True(t, f.balance(t, ledger.CodeCash).Equal(dec("1800")))
	assert.True(t, f.balance(t, ledger.CodeInventory).Equal(dec("360")))
	assert.True(t, f.balance(t, ledger.CodeCostOfGoodsSold).Equal(dec("1240")))
	assert.True(t, f.balance(t, ledger.CodeAccountsPayable).Equal(dec("1600")))

	onHand, err := f.st.OnHandQuantity(ctx, bid, 1, 1)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(dec("30")))

	sold, err := f.st.SoldItems(ctx, bid, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, sold, 1)
	require.NotNil(t, sold[0].UnitCost)
	assert.True(t, sold[0].UnitCost.Mul(dec("120")).Round(2).Equal(dec("1240")))
}

func TestCompleteSale_LIFOUsesBusinessMethod(t *testing.T) {
	f := newFixture(t, inventory.LIFO)
	f.stockUp(t)

	res, err := f.rec.CompleteSale(context.Background(), &events.SaleEvent{
		BusinessID: bid, SaleID: "s-1", Date: date(time.March, 1), TotalAmount: dec("1800"),
		Items: []events.SaleItem{{VariationID: 1, LocationID: 1, Quantity: dec("120"), SellingPrice: dec("15")}},
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.LIFO, res.Costing.Method)
	assert.True(t, res.Costing.TotalCOGS.Equal(dec("1300")))
	assert.True(t, f.balance(t, ledger.CodeInventory).Equal(dec("300")))
}

func TestCompleteSale_DegradedCosting(t *testing.T) {
	f := newFixture(t, inventory.FIFO)
	ctx := context.Background()

	res, err := f.rec.CompleteSale(ctx, &events.SaleEvent{
		BusinessID: bid, SaleID: "s-9", Date: date(time.March, 2), TotalAmount: dec("30"),
		Items: []events.SaleItem{{VariationID: 404, LocationID: 1, Quantity: dec("2"), SellingPrice: dec("15")}},
	})
	require.NoError(t, err, "costing failures never block a sale")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, cogs.KindPerItemCostingFailure, res.Warnings[0].Kind)
	require.Len(t, res.Entry.Lines, 2)
	assert.True(t, f.balance(t, ledger.CodeCash).Equal(dec("30")))

	var degraded bool
	for _, e := range f.hook.AllEntries() {
		if e.Message == "sale recorded with degraded costing" {
			degraded = true
			assert.Equal(t, logrus.WarnLevel, e.Level)
			assert.Equal(t, "s-9", e.Data["sale_id"])
		}
	}
	assert.True(t, degraded)

	// Stock arriving later must not change what the ledger booked for it.
	_, err = f.rec.RecordPurchase(ctx, &events.PurchaseEvent{
		BusinessID: bid, PurchaseID: "po-late", Date: date(time.March, 3), TotalCost: dec("50"),
		Items: []events.PurchaseItem{{VariationID: 404, LocationID: 1, Quantity: dec("10"), UnitCost: dec("5")}},
	})
	require.NoError(t, err)

	rep, err := f.calc.ProductProfitability(ctx, bid, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)
	assert.True(t, rep.TotalCOGS.IsZero())
	assert.True(t, rep.TotalCOGS.Equal(f.balance(t, ledger.CodeCostOfGoodsSold)))
	assert.False(t, rep.Rows[0].Recomputed)
	require.Len(t, rep.Warnings, 1)
	assert.Equal(t, cogs.KindPerItemCostingFailure, rep.Warnings[0].Kind)
}

func TestCompleteSale_Duplicate(t *testing.T) {
	f := newFixture(t, inventory.FIFO)
	f.stockUp(t)
	ctx := context.Background()
	sale := func() *events.SaleEvent {
		return &events.SaleEvent{
			BusinessID: bid, SaleID: "s-1", Date: date(time.March, 1), TotalAmount: dec("150"),
			Items: []events.SaleItem{{VariationID: 1, LocationID: 1, Quantity: dec("10"), SellingPrice: dec("15")}},
		}
	}

	_, err := f.rec.CompleteSale(ctx, sale())
	require.NoError(t, err)
	_, err = f.rec.CompleteSale(ctx, sale())
	assert.ErrorIs(t, err, ledger.ErrDuplicateEvent)

	assert.True(t, f.balance(t, ledger.CodeCash).Equal(dec("150")))
	onHand, err := f.st.OnHandQuantity(ctx, bid, 1, 1)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(dec("140")))
}

func TestRecordSale_PreCosted(t *testing.T) {
	f := newFixture(t, inventory.FIFO)
	f.stockUp(t)
	ctx := context.Background()
	sale := func() *events.SaleEvent {
		return &events.SaleEvent{
			BusinessID: bid, SaleID: "till-9", Date: date(time.March, 2), TotalAmount: dec("150"),
			Items: []events.SaleItem{{VariationID: 1, LocationID: 1, Quantity: dec("10"), SellingPrice: dec("15"), COGS: dec("100")}},
		}
	}

	e, err := f.rec.RecordSale(ctx, sale())
	require.NoError(t, err)
	require.Len(t, e.Lines, 4)
	assert.Equal(t, ledger.SourceSale, e.SourceType)
	assert.Equal(t, "till-9", e.SourceID)
	d, c := e.Totals()
	assert.True(t, d.Equal(dec("250")))
	assert.True(t, d.Equal(c))

	assert.True(t, f.balance(t, ledger.CodeCash).Equal(dec("150")))
	assert.True(t, f.balance(t, ledger.CodeSalesRevenue).Equal(dec("150")))
	assert.True(t, f.balance(t, ledger.CodeCostOfGoodsSold).Equal(dec("100")))
	assert.True(t, f.balance(t, ledger.CodeInventory).Equal(dec("1500")))

	onHand, err := f.st.OnHandQuantity(ctx, bid, 1, 1)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(dec("150")), "stock untouched")

	tb, err := f.gen.TrialBalance(ctx, bid, date(time.March, 31))
	require.NoError(t, err)
	assert.True(t, tb.Balanced)

	_, err = f.rec.RecordSale(ctx, sale())
	assert.ErrorIs(t, err, ledger.ErrDuplicateEvent)

	bad := sale()
	bad.SaleID = "till-10"
	bad.Items[0].COGS = dec("-1")
	_, err = f.rec.RecordSale(ctx, bad)
	assert.ErrorIs(t, err, events.ErrInvalidEvent)
}

func TestRecord_MissingAccountsFailBeforePosting(t *testing.T) {
	f := newFixture(t, inventory.FIFO)
	ctx := context.Background()
	const unseeded int64 = 999

	_, err := f.rec.RecordPaymentReceived(ctx, &events.PaymentEvent{BusinessID: unseeded, PaymentID: "p-1", Amount: dec("10")})
	var cfg *ledger.ConfigurationError
	require.True(t, errors.As(err, &cfg))
	assert.Equal(t, unseeded, cfg.BusinessID)
	assert.ErrorIs(t, err, ledger.ErrConfiguration)

	_, err = f.rec.CompleteSale(ctx, &events.SaleEvent{BusinessID: unseeded, SaleID: "s", TotalAmount: dec("1")})
	assert.ErrorIs(t, err, ledger.ErrConfiguration)

	entries, err := f.st.ListEntries(ctx, store.EntryFilter{BusinessID: unseeded})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecord_InvalidEvents(t *testing.T) {
	f := newFixture(t, inventory.FIFO)
	ctx := context.Background()

	_, err := f.rec.RecordPaymentMade(ctx, &events.PaymentEvent{BusinessID: bid, PaymentID: "p", Amount: dec("-5")})
	assert.ErrorIs(t, err, events.ErrInvalidEvent)

	_, err = f.rec.RecordPurchase(ctx, &events.PurchaseEvent{BusinessID: bid, PurchaseID: "po"})
	assert.ErrorIs(t, err, events.ErrInvalidEvent)
}

// Any sequence of recorded events leaves the books balanced.
func TestRecorders_KeepStatementsBalanced(t *testing.T) {
	f := newFixture(t, inventory.AVCO)
	f.stockUp(t)
	ctx := context.Background()

	_, err := f.rec.CompleteSale(ctx, &events.SaleEvent{
		BusinessID: bid, SaleID: "s-1", Date: date(time.March, 1), TotalAmount: dec("450"),
		Items: []events.SaleItem{{VariationID: 1, LocationID: 1, Quantity: dec("30"), SellingPrice: dec("15")}},
	})
	require.NoError(t, err)
	_, err = f.rec.CompleteSale(ctx, &events.SaleEvent{
		BusinessID: bid, SaleID: "s-2", Date: date(time.March, 3), TotalAmount: dec("199.99"),
		IsCredit: true, CustomerID: "cust-1",
		Items: []events.SaleItem{{VariationID: 1, LocationID: 1, Quantity: dec("13"), SellingPrice: dec("15.3838")}},
	})
	require.NoError(t, err)
	_, err = f.rec.RecordPaymentReceived(ctx, &events.PaymentEvent{BusinessID: bid, PaymentID: "r-1", Date: date(time.March, 10), Amount: dec("120.5")})
	require.NoError(t, err)
	_, err = f.rec.RecordPaymentMade(ctx, &events.PaymentEvent{BusinessID: bid, PaymentID: "m-1", Date: date(time.March, 12), Amount: dec("1000")})
	require.NoError(t, err)

	asOf := date(time.March, 31)
	tb, err := f.gen.TrialBalance(ctx, bid, asOf)
	require.NoError(t, err)
	assert.True(t, tb.Balanced, "difference %s", tb.Difference)

	bs, err := f.gen.BalanceSheet(ctx, bid, asOf)
	require.NoError(t, err)
	assert.True(t, bs.Balanced, "difference %s", bs.Difference)
	assert.True(t, ledger.WithinEpsilon(bs.TotalAssets, bs.TotalLiabilities.Add(bs.TotalEquity)))

	is, err := f.gen.IncomeStatement(ctx, bid, date(time.March, 1), asOf)
	require.NoError(t, err)
	assert.True(t, is.NetSales.Equal(dec("649.99")))
	assert.True(t, bs.CurrentPeriodEarnings.Equal(is.NetIncome))
	assert.Equal(t, ledger.ResultProfit, is.Result)

	assert.True(t, f.balance(t, ledger.CodeAccountsReceivable).Equal(dec("79.49")))
	assert.True(t, f.balance(t, ledger.CodeAccountsPayable).Equal(dec("600")))
}
