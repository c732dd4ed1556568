package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/stockledger/internal/events"
	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/ledger"
)

const bid int64 = 42

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.InitializeBusiness(context.Background(), bid, "Corner Shop", inventory.FIFO))
	return st
}

func entry(desc string, lines ...ledger.JournalLine) *ledger.JournalEntry {
	return &ledger.JournalEntry{
		BusinessID:  bid,
		EntryDate:   date(2025, 3, 1),
		Description: desc,
		SourceType:  ledger.SourceManual,
		Lines:       lines,
	}
}

func dr(code int, amt string) ledger.JournalLine {
	return ledger.JournalLine{AccountCode: code, Debit: dec(amt), Credit: decimal.Zero}
}

func cr(code int, amt string) ledger.JournalLine {
	return ledger.JournalLine{AccountCode: code, Debit: decimal.Zero, Credit: dec(amt)}
}

func countRows(t *testing.T, st *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, st.reader.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestInitializeBusiness_Idempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	accts, err := st.ListAccounts(ctx, bid, AccountFilter{})
	require.NoError(t, err)
	assert.Len(t, accts, len(ledger.ChartTemplate))

	require.NoError(t, st.PostEntry(ctx, entry("Owner funding", dr(ledger.CodeCash, "500"), cr(3000, "500"))))
	require.NoError(t, st.InitializeBusiness(ctx, bid, "", inventory.LIFO))

	again, err := st.ListAccounts(ctx, bid, AccountFilter{})
	require.NoError(t, err)
	assert.Len(t, again, len(ledger.ChartTemplate))

	bal, err := st.AccountBalance(ctx, bid, ledger.CodeCash)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("500")), "seeding again must not reset balances")

	b, err := st.GetBusiness(ctx, bid)
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", b.Name)
	assert.Equal(t, "fifo", b.AccountingMethod, "re-seeding keeps the configured method")
	assert.Equal(t, ledger.ChartTemplateVersion, b.ChartVersion)
}

func TestAccountByCode_ConfigurationError(t *testing.T) {
	st := newTestStore(t)

	_, err := st.AccountByCode(context.Background(), 999, ledger.CodeCash)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrConfiguration)

	var ce *ledger.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, int64(999), ce.BusinessID)
	assert.Equal(t, ledger.CodeCash, ce.Code)
}

func TestAccountsByType(t *testing.T) {
	st := newTestStore(t)
	revenue, err := st.AccountsByType(context.Background(), bid, ledger.TypeRevenue)
	require.NoError(t, err)
	require.NotEmpty(t, revenue)
	for _, a := range revenue {
		assert.Equal(t, ledger.TypeRevenue, a.Type)
	}

	_, err = st.AccountsByType(context.Background(), bid, "bogus")
	assert.ErrorIs(t, err, ledger.ErrInvalidAccountType)
}

func TestPostEntry_CashSaleBalances(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	e := entry("Cash sale", ledger.CashSaleTemplate.Build(dec("100.00"), dec("60.00"))...)
	e.SourceType = ledger.SourceSale
	require.NoError(t, st.PostEntry(ctx, e))
	assert.Equal(t, ledger.StatusPosted, e.Status)
	assert.True(t, e.Balanced)

	got, err := st.GetEntry(ctx, e.BusinessID, e.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 4)
	debit, credit := got.Totals()
	assert.True(t, debit.Equal(credit))

	cash, err := st.AccountByCode(ctx, bid, ledger.CodeCash)
	require.NoError(t, err)
	assert.True(t, cash.CurrentBalance.Equal(dec("100")))
	assert.True(t, cash.YTDDebit.Equal(dec("100")))

	inv, err := st.AccountByCode(ctx, bid, ledger.CodeInventory)
	require.NoError(t, err)
	assert.True(t, inv.CurrentBalance.Equal(dec("-60")))
	assert.True(t, inv.YTDCredit.Equal(dec("60")))

	rev, err := st.AccountBalance(ctx, bid, ledger.CodeSalesRevenue)
	require.NoError(t, err)
	assert.True(t, rev.Equal(dec("100")), "credit-normal account grows on credit")
}

func TestPostEntry_UnbalancedWritesNothing(t *testing.T) {
	st := newTestStore(t)

	err := st.PostEntry(context.Background(), entry("Bad", dr(ledger.CodeCash, "100.00"), cr(ledger.CodeSalesRevenue, "90.00")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrUnbalancedEntry)

	assert.Equal(t, 0, countRows(t, st, "journal_entries"))
	assert.Equal(t, 0, countRows(t, st, "journal_lines"))
}

func TestPostEntry_MissingAccountRollsBack(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.InitializeBusiness(ctx, 7, "Other", inventory.FIFO))
	_, err := st.writer.Exec(`DELETE FROM accounts WHERE business_id = 7 AND code = ?`, ledger.CodeInventory)
	require.NoError(t, err)

	e := entry("Sale", ledger.CashSaleTemplate.Build(dec("10"), dec("4"))...)
	e.BusinessID = 7
	err = st.PostEntry(ctx, e)
	assert.ErrorIs(t, err, ledger.ErrConfiguration)

	assert.Equal(t, 0, countRows(t, st, "journal_entries"))
	cash, err := st.AccountBalance(ctx, 7, ledger.CodeCash)
	require.NoError(t, err)
	assert.True(t, cash.IsZero())
}

func TestPostManualEntry_RejectsAutomatedAccounts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.PostManualEntry(ctx, entry("Stock writedown", dr(5800, "20"), cr(ledger.CodeInventory, "20")))
	assert.ErrorIs(t, err, ledger.ErrManualEntryNotAllowed)

	require.NoError(t, st.PostManualEntry(ctx, entry("Owner funding", dr(ledger.CodeCash, "20"), cr(3000, "20"))))
}

func TestDeactivateAccount(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, st.DeactivateAccount(ctx, bid, ledger.CodeCash), ledger.ErrSystemAccount)

	require.NoError(t, st.DeactivateAccount(ctx, bid, 1010))
	acct, err := st.AccountByCode(ctx, bid, 1010)
	require.NoError(t, err)
	assert.False(t, acct.IsActive)

	err = st.PostEntry(ctx, entry("Petty top-up", dr(1010, "5"), cr(ledger.CodeCash, "5")))
	assert.ErrorIs(t, err, ledger.ErrAccountInactive)

	active, err := st.ListAccounts(ctx, bid, AccountFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, len(ledger.ChartTemplate)-1)
}

func TestPostedEntriesAreImmutable(t *testing.T) {
	st := newTestStore(t)
	e := entry("Owner funding", dr(ledger.CodeCash, "50"), cr(3000, "50"))
	require.NoError(t, st.PostEntry(context.Background(), e))

	_, err := st.writer.Exec(`UPDATE journal_lines SET debit = 1 WHERE entry_id = ?`, e.ID)
	assert.Error(t, err)
	_, err = st.writer.Exec(`DELETE FROM journal_entries WHERE id = ?`, e.ID)
	assert.Error(t, err)
	_, err = st.writer.Exec(`UPDATE journal_entries SET description = 'x' WHERE id = ?`, e.ID)
	assert.Error(t, err)
}

func TestReverseEntry(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	orig := entry("Cash sale", ledger.CashSaleTemplate.Build(dec("100"), dec("60"))...)
	orig.SourceType = ledger.SourceSale
	orig.SourceID = "S-1"
	require.NoError(t, st.PostEntry(ctx, orig))

	rev, err := st.ReverseEntry(ctx, bid, orig.ID, date(2025, 3, 2), "alice")
	require.NoError(t, err)
	assert.Equal(t, ledger.SourceReversal, rev.SourceType)
	assert.Equal(t, orig.ID, rev.ReversalOf)

	for _, code := range []int{ledger.CodeCash, ledger.CodeSalesRevenue, ledger.CodeInventory, ledger.CodeCostOfGoodsSold} {
		bal, err := st.AccountBalance(ctx, bid, code)
		require.NoError(t, err)
		assert.True(t, bal.IsZero(), "account %d should net to zero, got %s", code, bal)
	}

	got, err := st.GetEntry(ctx, bid, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, rev.ID, got.ReversedBy)

	_, err = st.GetEntry(ctx, bid+1, orig.ID)
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)

	_, err = st.ReverseEntry(ctx, bid, orig.ID, time.Time{}, "alice")
	assert.ErrorIs(t, err, ledger.ErrAlreadyReversed)
	_, err = st.ReverseEntry(ctx, bid, rev.ID, time.Time{}, "alice")
	assert.ErrorIs(t, err, ledger.ErrCannotReverseReversal)
	_, err = st.ReverseEntry(ctx, bid, "missing", time.Time{}, "alice")
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)
}

func TestPostEntry_DuplicateSource(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := entry("Payment", dr(ledger.CodeCash, "10"), cr(ledger.CodeAccountsReceivable, "10"))
	first.SourceType = ledger.SourcePaymentReceived
	first.SourceID = "P-1"
	require.NoError(t, st.PostEntry(ctx, first))

	dup := entry("Payment", dr(ledger.CodeCash, "10"), cr(ledger.CodeAccountsReceivable, "10"))
	dup.SourceType = ledger.SourcePaymentReceived
	dup.SourceID = "P-1"
	assert.ErrorIs(t, st.PostEntry(ctx, dup), ledger.ErrDuplicateEvent)
}

func TestPostEntry_ConcurrentSameAccount(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := entry(fmt.Sprintf("Funding %d", i), dr(ledger.CodeCash, "12.34"), cr(3000, "12.34"))
			errs <- st.PostEntry(ctx, e)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	cash, err := st.AccountByCode(ctx, bid, ledger.CodeCash)
	require.NoError(t, err)
	assert.True(t, cash.CurrentBalance.Equal(dec("246.80")), "got %s", cash.CurrentBalance)
	assert.True(t, cash.YTDDebit.Equal(dec("246.80")))
}

func TestListEntriesAndAccountLines(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	e1 := entry("Funding", dr(ledger.CodeCash, "100"), cr(3000, "100"))
	e1.EntryDate = date(2025, 1, 10)
	e2 := entry("Rent", dr(5200, "40"), cr(ledger.CodeCash, "40"))
	e2.EntryDate = date(2025, 2, 10)
	require.NoError(t, st.PostEntry(ctx, e1))
	require.NoError(t, st.PostEntry(ctx, e2))

	all, err := st.ListEntries(ctx, EntryFilter{BusinessID: bid})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, e2.ID, all[0].ID, "newest first")
	assert.Len(t, all[0].Lines, 2)

	feb, err := st.ListEntries(ctx, EntryFilter{BusinessID: bid, From: date(2025, 2, 1)})
	require.NoError(t, err)
	require.Len(t, feb, 1)

	rent, err := st.ListEntries(ctx, EntryFilter{BusinessID: bid, AccountCode: 5200})
	require.NoError(t, err)
	require.Len(t, rent, 1)
	assert.Equal(t, e2.ID, rent[0].ID)

	lines, err := st.AccountLines(ctx, bid, ledger.CodeCash, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.True(t, lines[0].Debit.Equal(dec("100")))
	assert.True(t, lines[1].Credit.Equal(dec("40")))
}

func TestAccountTotals_AsOf(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	e1 := entry("Funding", dr(ledger.CodeCash, "100"), cr(3000, "100"))
	e1.EntryDate = date(2025, 1, 10)
	e2 := entry("Rent", dr(5200, "40"), cr(ledger.CodeCash, "40"))
	e2.EntryDate = date(2025, 2, 10)
	require.NoError(t, st.PostEntry(ctx, e1))
	require.NoError(t, st.PostEntry(ctx, e2))

	totals, err := st.AccountTotals(ctx, bid, time.Time{}, date(2025, 1, 31))
	require.NoError(t, err)
	assert.Len(t, totals, len(ledger.ChartTemplate))

	sumD, sumC := decimal.Zero, decimal.Zero
	for _, tt := range totals {
		sumD = sumD.Add(tt.Debit)
		sumC = sumC.Add(tt.Credit)
		if tt.Account.Code == ledger.CodeCash {
			assert.True(t, tt.Debit.Equal(dec("100")))
			assert.True(t, tt.Credit.IsZero(), "February rent excluded")
		}
	}
	assert.True(t, sumD.Equal(sumC))

	_, err = st.AccountTotals(ctx, 555, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ledger.ErrBusinessNotFound)
}

func TestStockMovements(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertVariation(ctx, inventory.Variation{BusinessID: bid, ID: 1, ProductID: 10, ProductName: "Tea", Name: "500g", CategoryID: 3, CategoryName: "Drinks"}))

	t0 := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	moves := []inventory.StockTransaction{
		{BusinessID: bid, VariationID: 1, LocationID: 1, Quantity: dec("100"), UnitCost: dec("10"), Kind: inventory.KindPurchase, OccurredAt: t0},
		{BusinessID: bid, VariationID: 1, LocationID: 1, Quantity: dec("50"), UnitCost: dec("12"), Kind: inventory.KindPurchase, OccurredAt: t0.Add(48 * time.Hour)},
		{BusinessID: bid, VariationID: 1, LocationID: 1, Quantity: dec("-120"), Kind: inventory.KindSale, OccurredAt: t0.Add(96 * time.Hour)},
	}
	for i := range moves {
		require.NoError(t, st.RecordStockMovement(ctx, &moves[i]))
		assert.NotZero(t, moves[i].ID)
	}

	onHand, err := st.OnHandQuantity(ctx, bid, 1, 1)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(dec("30")))

	inbound, err := st.InboundTransactions(ctx, bid, 1, 1, time.Time{})
	require.NoError(t, err)
	require.Len(t, inbound, 2)
	assert.True(t, inbound[1].UnitCost.Equal(dec("12")))

	out, err := st.OutboundQuantity(ctx, bid, 1, 1, time.Time{})
	require.NoError(t, err)
	assert.True(t, out.Equal(dec("120")))

	early, err := st.OutboundQuantity(ctx, bid, 1, 1, t0.Add(72*time.Hour))
	require.NoError(t, err)
	assert.True(t, early.IsZero())

	v, err := st.GetVariation(ctx, bid, 1)
	require.NoError(t, err)
	assert.True(t, v.LastPurchasePrice.Equal(dec("12")))

	pairs, err := st.StockedPairs(ctx, bid)
	require.NoError(t, err)
	assert.Equal(t, []inventory.StockKey{{VariationID: 1, LocationID: 1}}, pairs)

	_, err = st.writer.Exec(`DELETE FROM stock_transactions`)
	assert.Error(t, err, "stock log is append-only")

	err = st.RecordStockMovement(ctx, &inventory.StockTransaction{BusinessID: bid, VariationID: 99, LocationID: 1, Quantity: dec("1"), Kind: inventory.KindPurchase})
	assert.ErrorIs(t, err, inventory.ErrVariationNotFound)
}

func TestCompleteSale_Atomic(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertVariation(ctx, inventory.Variation{BusinessID: bid, ID: 1, Name: "Tea"}))
	require.NoError(t, st.RecordStockMovement(ctx, &inventory.StockTransaction{
		BusinessID: bid, VariationID: 1, LocationID: 1, Quantity: dec("10"), UnitCost: dec("6"), Kind: inventory.KindPurchase,
	}))

	cost := dec("6")
	ev := &events.SaleEvent{
		BusinessID:  bid,
		SaleID:      "S-100",
		Date:        date(2025, 3, 1),
		TotalAmount: dec("100"),
		Items: []events.SaleItem{
			{VariationID: 1, LocationID: 1, Quantity: dec("10"), SellingPrice: dec("10"), UnitCost: &cost, COGS: dec("60")},
		},
	}
	e := entry("Sale S-100", ledger.CashSaleTemplate.Build(ev.TotalAmount, ev.TotalCOGS())...)
	e.SourceType = ledger.SourceSale
	e.SourceID = ev.SaleID
	require.NoError(t, st.CompleteSale(ctx, ev, e))

	onHand, err := st.OnHandQuantity(ctx, bid, 1, 1)
	require.NoError(t, err)
	assert.True(t, onHand.IsZero())

	sold, err := st.SoldItems(ctx, bid, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, sold, 1)
	require.NotNil(t, sold[0].UnitCost)
	assert.True(t, sold[0].UnitCost.Equal(dec("6")))

	// Same sale id again: nothing new is written.
	e2 := entry("Sale S-100", ledger.CashSaleTemplate.Build(ev.TotalAmount, ev.TotalCOGS())...)
	e2.SourceType = ledger.SourceSale
	e2.SourceID = "S-100-retry"
	err = st.CompleteSale(ctx, ev, e2)
	assert.ErrorIs(t, err, ledger.ErrDuplicateEvent)

	assert.Equal(t, 1, countRows(t, st, "journal_entries"))
	cash, err := st.AccountBalance(ctx, bid, ledger.CodeCash)
	require.NoError(t, err)
	assert.True(t, cash.Equal(dec("100")))
	onHand, err = st.OnHandQuantity(ctx, bid, 1, 1)
	require.NoError(t, err)
	assert.True(t, onHand.IsZero())
}

func TestCompletePurchase_ReceivesStock(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.UpsertVariation(ctx, inventory.Variation{BusinessID: bid, ID: 5, Name: "Coffee"}))

	ev := &events.PurchaseEvent{
		BusinessID: bid,
		PurchaseID: "PO-1",
		Date:       date(2025, 3, 1),
		TotalCost:  dec("240"),
		Items:      []events.PurchaseItem{{VariationID: 5, LocationID: 2, Quantity: dec("20"), UnitCost: dec("12")}},
	}
	e := entry("Purchase PO-1", ledger.PurchaseTemplate.Build(ev.TotalCost, decimal.Zero)...)
	e.SourceType = ledger.SourcePurchase
	e.SourceID = ev.PurchaseID
	require.NoError(t, st.CompletePurchase(ctx, ev, e))

	inv, err := st.AccountBalance(ctx, bid, ledger.CodeInventory)
	require.NoError(t, err)
	assert.True(t, inv.Equal(dec("240")))
	ap, err := st.AccountBalance(ctx, bid, ledger.CodeAccountsPayable)
	require.NoError(t, err)
	assert.True(t, ap.Equal(dec("240")))

	onHand, err := st.OnHandQuantity(ctx, bid, 5, 2)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(dec("20")))
}

func TestSetStockLevel(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.UpsertVariation(ctx, inventory.Variation{BusinessID: bid, ID: 3, LastPurchasePrice: dec("4.50")}))
	require.NoError(t, st.SetStockLevel(ctx, bid, 3, 1, dec("8")))

	onHand, err := st.OnHandQuantity(ctx, bid, 3, 1)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(dec("8")))

	inbound, err := st.InboundTransactions(ctx, bid, 3, 1, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, inbound)
}

func TestSetAccountingMethod(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetAccountingMethod(ctx, bid, inventory.AVCO))
	m, err := st.AccountingMethod(ctx, bid)
	require.NoError(t, err)
	assert.Equal(t, inventory.AVCO, m)

	assert.ErrorIs(t, st.SetAccountingMethod(ctx, bid, "hifo"), inventory.ErrInvalidMethod)
	assert.ErrorIs(t, st.SetAccountingMethod(ctx, 404, inventory.FIFO), ledger.ErrBusinessNotFound)
}
