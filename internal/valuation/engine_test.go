package valuation

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/stockledger/internal/inventory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeSource is an in-memory stock log.
type fakeSource struct {
	method     inventory.Method
	variations map[int64]*inventory.Variation
	txns       []inventory.StockTransaction
	onHand     map[inventory.StockKey]decimal.Decimal
	nextID     int64
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		method:     inventory.FIFO,
		variations: make(map[int64]*inventory.Variation),
		onHand:     make(map[inventory.StockKey]decimal.Decimal),
	}
}

func (f *fakeSource) move(vid, lid int64, qty, cost string, at time.Time) {
	f.nextID++
	t := inventory.StockTransaction{
		ID: f.nextID, BusinessID: 1, VariationID: vid, LocationID: lid,
		Quantity: dec(qty), UnitCost: dec(cost), OccurredAt: at,
	}
	f.txns = append(f.txns, t)
	k := inventory.StockKey{VariationID: vid, LocationID: lid}
	f.onHand[k] = f.onHand[k].Add(t.Quantity)
}

func (f *fakeSource) AccountingMethod(context.Context, int64) (inventory.Method, error) {
	return f.method, nil
}

func (f *fakeSource) GetVariation(_ context.Context, _ int64, vid int64) (*inventory.Variation, error) {
	v, ok := f.variations[vid]
	if !ok {
		return nil, inventory.ErrVariationNotFound
	}
	return v, nil
}

func (f *fakeSource) matching(vid, lid int64, asOf time.Time) []inventory.StockTransaction {
	var out []inventory.StockTransaction
	for _, t := range f.txns {
		if t.VariationID != vid || t.LocationID != lid {
			continue
		}
		if !asOf.IsZero() && t.OccurredAt.After(asOf) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (f *fakeSource) InboundTransactions(_ context.Context, _ int64, vid, lid int64, asOf time.Time) ([]inventory.StockTransaction, error) {
	var in []inventory.StockTransaction
	for _, t := range f.matching(vid, lid, asOf) {
		if t.Inbound() {
			in = append(in, t)
		}
	}
	return in, nil
}

func (f *fakeSource) OutboundQuantity(_ context.Context, _ int64, vid, lid int64, asOf time.Time) (decimal.Decimal, error) {
	out := decimal.Zero
	for _, t := range f.matching(vid, lid, asOf) {
		if !t.Inbound() {
			out = out.Sub(t.Quantity)
		}
	}
	return out, nil
}

func (f *fakeSource) OnHandQuantity(_ context.Context, _ int64, vid, lid int64) (decimal.Decimal, error) {
	return f.onHand[inventory.StockKey{VariationID: vid, LocationID: lid}], nil
}

func (f *fakeSource) StockedPairs(context.Context, int64) ([]inventory.StockKey, error) {
	var keys []inventory.StockKey
	for k := range f.onHand {
		keys = append(keys, k)
	}
	return keys, nil
}

var jan = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

// scenarioSource: 100 @ 10.00, then 50 @ 12.00, then 120 sold.
func scenarioSource() *fakeSource {
	f := newFakeSource()
	f.variations[1] = &inventory.Variation{BusinessID: 1, ID: 1, Name: "Tea", CategoryID: 7, CategoryName: "Drinks", LastPurchasePrice: dec("12")}
	f.move(1, 1, "100", "10.00", jan)
	f.move(1, 1, "50", "12.00", jan.Add(24*time.Hour))
	f.move(1, 1, "-120", "0", jan.Add(48*time.Hour))
	return f
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestValuate_Methods(t *testing.T) {
	tests := []struct {
		method    inventory.Method
		qty       string
		value     string
		unitCost  string
		numLayers int
	}{
		{inventory.FIFO, "30", "360", "12", 1},
		{inventory.LIFO, "30", "300", "10", 1},
		{inventory.AVCO, "30", "320", "10.6667", 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			e := New(scenarioSource(), quietLogger())
			val, err := e.Valuate(context.Background(), Request{BusinessID: 1, VariationID: 1, LocationID: 1, Method: tt.method})
			require.NoError(t, err)
			assert.Equal(t, tt.method, val.Method)
			assert.True(t, val.Quantity.Equal(dec(tt.qty)), "qty %s", val.Quantity)
			assert.True(t, val.TotalValue.Round(2).Equal(dec(tt.value)), "value %s", val.TotalValue)
			assert.True(t, val.UnitCost.Round(4).Equal(dec(tt.unitCost)), "unit cost %s", val.UnitCost)
			assert.Len(t, val.Layers, tt.numLayers)
			assert.False(t, val.Fallback)
			assert.Equal(t, int64(7), val.CategoryID)
		})
	}
}

func TestValuate_DefaultsToBusinessMethod(t *testing.T) {
	src := scenarioSource()
	src.method = inventory.LIFO
	e := New(src, quietLogger())

	val, err := e.Valuate(context.Background(), Request{BusinessID: 1, VariationID: 1, LocationID: 1})
	require.NoError(t, err)
	assert.Equal(t, inventory.LIFO, val.Method)
	assert.True(t, val.TotalValue.Equal(dec("300")))
}

func TestValuate_PointInTime(t *testing.T) {
	e := New(scenarioSource(), quietLogger())
	ctx := context.Background()

	// Before the sale: both receipts still on hand.
	asOf := jan.Add(36 * time.Hour)
	val, err := e.Valuate(ctx, Request{BusinessID: 1, VariationID: 1, LocationID: 1, Method: inventory.FIFO, AsOf: asOf})
	require.NoError(t, err)
	assert.True(t, val.Quantity.Equal(dec("150")))
	assert.True(t, val.TotalValue.Equal(dec("1600")))
	assert.Equal(t, asOf, val.ValuedAt)

	avco, err := e.Valuate(ctx, Request{BusinessID: 1, VariationID: 1, LocationID: 1, Method: inventory.AVCO, AsOf: asOf})
	require.NoError(t, err)
	assert.True(t, avco.Quantity.Equal(dec("150")), "point-in-time AVCO replays quantity")
	assert.True(t, avco.TotalValue.Round(2).Equal(dec("1600")))
}

func TestValuate_BeforeFirstReceipt(t *testing.T) {
	src := newFakeSource()
	src.variations[5] = &inventory.Variation{BusinessID: 1, ID: 5, LastPurchasePrice: dec("10")}
	src.move(5, 1, "100", "10", jan.AddDate(0, 2, 4))

	logger, hook := test.NewNullLogger()
	e := New(src, logger)

	for _, m := range inventory.AllMethods {
		val, err := e.Valuate(context.Background(), Request{BusinessID: 1, VariationID: 5, LocationID: 1, Method: m, AsOf: jan.AddDate(0, 0, 30)})
		require.NoError(t, err)
		assert.False(t, val.Fallback, "method %s", m)
		assert.True(t, val.Quantity.IsZero())
		assert.True(t, val.TotalValue.IsZero())
		assert.Empty(t, val.Warnings)
	}
	assert.Empty(t, hook.Entries)

	val, err := e.Valuate(context.Background(), Request{BusinessID: 1, VariationID: 5, LocationID: 1, Method: inventory.FIFO})
	require.NoError(t, err)
	assert.True(t, val.TotalValue.Equal(dec("1000")))
}

func TestValuate_AVCOUsesOnHandRecord(t *testing.T) {
	src := scenarioSource()
	// A stock count adjusted on-hand without a logged movement.
	src.onHand[inventory.StockKey{VariationID: 1, LocationID: 1}] = dec("28")
	e := New(src, quietLogger())

	val, err := e.Valuate(context.Background(), Request{BusinessID: 1, VariationID: 1, LocationID: 1, Method: inventory.AVCO})
	require.NoError(t, err)
	assert.True(t, val.Quantity.Equal(dec("28")))
}

func TestValuate_FallbackToLastPurchasePrice(t *testing.T) {
	src := newFakeSource()
	src.variations[9] = &inventory.Variation{BusinessID: 1, ID: 9, LastPurchasePrice: dec("4.25")}
	src.onHand[inventory.StockKey{VariationID: 9, LocationID: 2}] = dec("10")

	logger, hook := test.NewNullLogger()
	e := New(src, logger)

	for _, m := range inventory.AllMethods {
		hook.Reset()
		val, err := e.Valuate(context.Background(), Request{BusinessID: 1, VariationID: 9, LocationID: 2, Method: m})
		require.NoError(t, err)
		assert.True(t, val.Fallback, "method %s", m)
		assert.True(t, val.Quantity.Equal(dec("10")))
		assert.True(t, val.TotalValue.Equal(dec("42.5")), "value %s", val.TotalValue)
		require.Len(t, val.Warnings, 1)
		assert.Equal(t, inventory.WarningValuationFallback, val.Warnings[0].Kind)

		require.Len(t, hook.Entries, 1)
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		assert.Equal(t, int64(9), hook.LastEntry().Data["variation_id"])
	}
}

func TestValuate_NoStockIsZero(t *testing.T) {
	src := newFakeSource()
	src.variations[3] = &inventory.Variation{BusinessID: 1, ID: 3, LastPurchasePrice: dec("5")}
	e := New(src, quietLogger())

	val, err := e.Valuate(context.Background(), Request{BusinessID: 1, VariationID: 3, LocationID: 1})
	require.NoError(t, err)
	assert.False(t, val.Fallback)
	assert.True(t, val.TotalValue.IsZero())
	assert.Empty(t, val.Warnings)
}

func TestValuate_UnknownVariation(t *testing.T) {
	e := New(newFakeSource(), quietLogger())
	_, err := e.Valuate(context.Background(), Request{BusinessID: 1, VariationID: 404, LocationID: 1})
	assert.ErrorIs(t, err, inventory.ErrVariationNotFound)

	_, err = e.Valuate(context.Background(), Request{BusinessID: 1, VariationID: 404, LocationID: 1, Method: "hifo"})
	assert.ErrorIs(t, err, inventory.ErrInvalidMethod)
}

func TestIssueCost_Scenarios(t *testing.T) {
	tests := []struct {
		method inventory.Method
		cogs   string
	}{
		{inventory.FIFO, "1240"},
		{inventory.LIFO, "1300"},
		{inventory.AVCO, "1280"},
	}
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			src := newFakeSource()
			src.variations[1] = &inventory.Variation{BusinessID: 1, ID: 1, LastPurchasePrice: dec("12")}
			src.move(1, 1, "100", "10.00", jan)
			src.move(1, 1, "50", "12.00", jan.Add(time.Hour))

			e := New(src, quietLogger())
			issue, err := e.IssueCost(context.Background(), Request{BusinessID: 1, VariationID: 1, LocationID: 1, Method: tt.method}, dec("120"))
			require.NoError(t, err)
			assert.True(t, issue.Cost.Round(2).Equal(dec(tt.cogs)), "cogs %s", issue.Cost)
			assert.Empty(t, issue.Warnings)
			assert.True(t, issue.UnitCost.Mul(dec("120")).Round(2).Equal(dec(tt.cogs)))
		})
	}
}

func TestIssueCost_ContinuesFromPriorIssues(t *testing.T) {
	e := New(scenarioSource(), quietLogger())
	// 120 already sold under FIFO; the next 10 come from the 12.00 layer.
	issue, err := e.IssueCost(context.Background(), Request{BusinessID: 1, VariationID: 1, LocationID: 1, Method: inventory.FIFO}, dec("10"))
	require.NoError(t, err)
	assert.True(t, issue.Cost.Equal(dec("120")))
}

func TestIssueCost_ShortfallPricedAtLastPurchase(t *testing.T) {
	logger, hook := test.NewNullLogger()
	e := New(scenarioSource(), logger)

	issue, err := e.IssueCost(context.Background(), Request{BusinessID: 1, VariationID: 1, LocationID: 1, Method: inventory.FIFO}, dec("40"))
	require.NoError(t, err)
	// 30 @ 12 from the layer, 10 short @ 12 last purchase price.
	assert.True(t, issue.Cost.Equal(dec("480")))
	require.Len(t, issue.Warnings, 1)
	assert.Equal(t, inventory.WarningCostShortfall, issue.Warnings[0].Kind)
	assert.True(t, issue.Warnings[0].Quantity.Equal(dec("10")))
	assert.Len(t, hook.Entries, 1)
}

func TestIssueCost_Fallback(t *testing.T) {
	src := newFakeSource()
	src.variations[2] = &inventory.Variation{BusinessID: 1, ID: 2, LastPurchasePrice: dec("3")}
	e := New(src, quietLogger())

	issue, err := e.IssueCost(context.Background(), Request{BusinessID: 1, VariationID: 2, LocationID: 1}, dec("4"))
	require.NoError(t, err)
	assert.True(t, issue.Fallback)
	assert.True(t, issue.Cost.Equal(dec("12")))

	_, err = e.IssueCost(context.Background(), Request{BusinessID: 1, VariationID: 2, LocationID: 1}, dec("0"))
	assert.ErrorIs(t, err, inventory.ErrInvalidMovement)
}
