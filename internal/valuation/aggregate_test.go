package valuation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/stockledger/internal/inventory"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 10, 0, 0, 0, time.UTC)
}

func trendSource() *fakeSource {
	f := newFakeSource()
	f.variations[1] = &inventory.Variation{BusinessID: 1, ID: 1, CategoryID: 7, CategoryName: "Drinks"}
	f.variations[2] = &inventory.Variation{BusinessID: 1, ID: 2, CategoryID: 8, CategoryName: "Snacks", LastPurchasePrice: dec("2")}
	f.move(1, 1, "100", "10", day(time.January, 10))
	f.move(1, 1, "50", "12", day(time.March, 5))
	f.move(1, 1, "-120", "0", day(time.April, 20))
	return f
}

func TestCategoryValuation(t *testing.T) {
	src := trendSource()
	// Legacy stock with no history in a second category.
	src.onHand[inventory.StockKey{VariationID: 2, LocationID: 1}] = dec("5")
	e := New(src, quietLogger())

	sum, err := e.CategoryValuation(context.Background(), 1, inventory.FIFO, time.Time{})
	require.NoError(t, err)
	require.Len(t, sum.Categories, 2)
	assert.Equal(t, "Drinks", sum.Categories[0].CategoryName)
	assert.True(t, sum.Categories[0].TotalValue.Equal(dec("360")))
	assert.Equal(t, "Snacks", sum.Categories[1].CategoryName)
	assert.True(t, sum.Categories[1].TotalValue.Equal(dec("10")))
	assert.True(t, sum.TotalValue.Equal(dec("370")))
	require.Len(t, sum.Warnings, 1)
	assert.Equal(t, inventory.WarningValuationFallback, sum.Warnings[0].Kind)
}

func TestPeriodEnds(t *testing.T) {
	monthly := PeriodEnds(2024, Monthly)
	require.Len(t, monthly, 12)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), monthly[1])
	assert.Equal(t, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), monthly[11])

	quarterly := PeriodEnds(2025, Quarterly)
	require.Len(t, quarterly, 4)
	assert.Equal(t, time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC), quarterly[1])

	assert.Len(t, PeriodEnds(2025, Yearly), 1)
}

func TestTrend_Monthly(t *testing.T) {
	e := New(trendSource(), quietLogger())
	e.now = func() time.Time { return day(time.May, 15) }

	tr, err := e.Trend(context.Background(), TrendRequest{BusinessID: 1, Year: 2025, Granularity: Monthly, Method: inventory.FIFO})
	require.NoError(t, err)
	require.Len(t, tr.Points, 4, "May onwards is in the future")

	want := []string{"1000", "1000", "1600", "360"}
	for i, w := range want {
		assert.True(t, tr.Points[i].TotalValue.Equal(dec(w)), "%s: %s", tr.Points[i].Label, tr.Points[i].TotalValue)
	}
	assert.Equal(t, "2025-01", tr.Points[0].Label)
	assert.True(t, tr.StartValue.Equal(dec("1000")))
	assert.True(t, tr.EndValue.Equal(dec("360")))
	assert.True(t, tr.Change.Equal(dec("-640")))
	assert.True(t, tr.PercentChange.Equal(dec("-64")))
}

func TestTrend_QuarterlyAndEmpty(t *testing.T) {
	e := New(trendSource(), quietLogger())
	e.now = func() time.Time { return day(time.May, 15) }

	tr, err := e.Trend(context.Background(), TrendRequest{BusinessID: 1, Year: 2025, Granularity: Quarterly})
	require.NoError(t, err)
	require.Len(t, tr.Points, 1)
	assert.Equal(t, "2025-Q1", tr.Points[0].Label)
	assert.True(t, tr.PercentChange.IsZero())

	future, err := e.Trend(context.Background(), TrendRequest{BusinessID: 1, Year: 2026, Granularity: Yearly})
	require.NoError(t, err)
	assert.Empty(t, future.Points)
	assert.True(t, future.EndValue.IsZero())
}

func TestTrend_ProductFirstReceivedMidYear(t *testing.T) {
	src := newFakeSource()
	src.variations[5] = &inventory.Variation{BusinessID: 1, ID: 5, CategoryID: 7, CategoryName: "Drinks", LastPurchasePrice: dec("10")}
	src.move(5, 1, "100", "10", day(time.March, 5))

	e := New(src, quietLogger())
	e.now = func() time.Time { return day(time.May, 15) }

	tr, err := e.Trend(context.Background(), TrendRequest{BusinessID: 1, Year: 2025, Granularity: Monthly, Method: inventory.FIFO})
	require.NoError(t, err)
	require.Len(t, tr.Points, 4)

	want := []string{"0", "0", "1000", "1000"}
	for i, w := range want {
		assert.True(t, tr.Points[i].TotalValue.Equal(dec(w)), "%s: %s", tr.Points[i].Label, tr.Points[i].TotalValue)
	}
	assert.True(t, tr.PercentChange.IsZero())
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("Quarterly")
	require.NoError(t, err)
	assert.Equal(t, Quarterly, g)

	g, err = ParseGranularity("")
	require.NoError(t, err)
	assert.Equal(t, Monthly, g)

	_, err = ParseGranularity("weekly")
	assert.Error(t, err)
}
