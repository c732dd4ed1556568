package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/stockledger/internal/cogs"
	"github.com/simonvc/stockledger/internal/ledger"
	"github.com/simonvc/stockledger/internal/recorder"
	"github.com/simonvc/stockledger/internal/store"
	"github.com/simonvc/stockledger/internal/valuation"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "srv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	log, _ := test.NewNullLogger()
	ts := httptest.NewServer(New(st, "", log, Options{}).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var rdr bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&rdr).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+"/api/v1"+path, &rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func setupShop(t *testing.T, ts *httptest.Server) {
	t.Helper()
	require.Equal(t, http.StatusCreated, call(t, ts, "POST", "/businesses/1/init", map[string]string{"name": "Corner Shop", "method": "fifo"}, nil))
	require.Equal(t, http.StatusOK, call(t, ts, "PUT", "/businesses/1/variations/5", map[string]any{
		"product_id": 50, "product_name": "Tea", "name": "Box", "category_id": 2, "category_name": "Drinks",
	}, nil))
	for i, p := range []map[string]any{
		{"purchase_id": "po-1", "date": "2025-01-05", "total_cost": "1000", "items": []map[string]any{{"variation_id": 5, "location_id": 1, "quantity": "100", "unit_cost": "10"}}},
		{"purchase_id": "po-2", "date": "2025-02-05", "total_cost": "600", "items": []map[string]any{{"variation_id": 5, "location_id": 1, "quantity": "50", "unit_cost": "12"}}},
	} {
		require.Equal(t, http.StatusCreated, call(t, ts, "POST", "/businesses/1/purchases", p, nil), "purchase %d", i)
	}
}

func TestSaleFlow(t *testing.T) {
	ts := newTestServer(t)
	setupShop(t, ts)

	var sale recorder.SaleResult
	code := call(t, ts, "POST", "/businesses/1/sales", map[string]any{
		"sale_id": "s-1", "date": "2025-03-01", "total_amount": "1800",
		"items": []map[string]any{{"variation_id": 5, "location_id": 1, "quantity": "120", "selling_price": "15"}},
	}, &sale)
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, sale.Costing.TotalCOGS.Equal(dec("1240")))
	assert.Len(t, sale.Entry.Lines, 4)

	var bal struct {
		Balance   decimal.Decimal `json:"balance"`
		Formatted string          `json:"formatted"`
	}
	require.Equal(t, http.StatusOK, call(t, ts, "GET", "/businesses/1/accounts/1200/balance", nil, &bal))
	assert.Equal(t, "360.00", bal.Formatted)

	var val struct {
		Quantity   decimal.Decimal `json:"quantity"`
		TotalValue decimal.Decimal `json:"total_value"`
	}
	require.Equal(t, http.StatusOK, call(t, ts, "GET", "/businesses/1/valuation?variation_id=5&location_id=1", nil, &val))
	assert.True(t, val.Quantity.Equal(dec("30")))
	assert.True(t, val.TotalValue.Equal(dec("360")))

	require.Equal(t, http.StatusOK, call(t, ts, "GET", "/businesses/1/valuation?variation_id=5&location_id=1&method=lifo", nil, &val))
	assert.True(t, val.TotalValue.Equal(dec("300")))

	var bs ledger.BalanceSheet
	require.Equal(t, http.StatusOK, call(t, ts, "GET", "/businesses/1/reports/balance-sheet?as_of=2025-03-31", nil, &bs))
	assert.True(t, bs.Balanced)

	var is ledger.IncomeStatement
	require.Equal(t, http.StatusOK, call(t, ts, "GET", "/businesses/1/reports/income-statement?from=2025-03-01&to=2025-03-31", nil, &is))
	assert.True(t, is.GrossProfit.Equal(dec("560")))

	var rep cogs.ProfitabilityReport
	require.Equal(t, http.StatusOK, call(t, ts, "GET", "/businesses/1/profitability/products", nil, &rep))
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, "Tea", rep.Rows[0].Name)
	assert.True(t, rep.Rows[0].Profit.Round(2).Equal(dec("560")))

	var errResp errorResponse
	assert.Equal(t, http.StatusConflict, call(t, ts, "POST", "/businesses/1/sales", map[string]any{
		"sale_id": "s-1", "date": "2025-03-01", "total_amount": "15",
		"items": []map[string]any{{"variation_id": 5, "location_id": 1, "quantity": "1", "selling_price": "15"}},
	}, &errResp))
	assert.Contains(t, errResp.Error, "already recorded")
}

func TestCostedSaleLeavesStock(t *testing.T) {
	ts := newTestServer(t)
	setupShop(t, ts)

	sale := map[string]any{
		"sale_id": "till-1", "date": "2025-03-01", "total_amount": "150",
		"items": []map[string]any{{"variation_id": 5, "location_id": 1, "quantity": "10", "selling_price": "15", "cogs": "100"}},
	}
	var e ledger.JournalEntry
	require.Equal(t, http.StatusCreated, call(t, ts, "POST", "/businesses/1/sales/costed", sale, &e))
	assert.Equal(t, ledger.SourceSale, e.SourceType)
	require.Len(t, e.Lines, 4)
	assert.Equal(t, http.StatusConflict, call(t, ts, "POST", "/businesses/1/sales/costed", sale, nil))

	var inv struct{ Formatted string }
	require.Equal(t, http.StatusOK, call(t, ts, "GET", "/businesses/1/accounts/1200/balance", nil, &inv))
	assert.Equal(t, "1500.00", inv.Formatted)

	var val struct{ Quantity decimal.Decimal }
	require.Equal(t, http.StatusOK, call(t, ts, "GET", "/businesses/1/valuation?variation_id=5&location_id=1", nil, &val))
	assert.True(t, val.Quantity.Equal(dec("150")), "stock is untouched")
}

func TestManualEntryAndReversal(t *testing.T) {
	ts := newTestServer(t)
	setupShop(t, ts)

	var e ledger.JournalEntry
	require.Equal(t, http.StatusCreated, call(t, ts, "POST", "/businesses/1/entries", map[string]any{
		"date": "2025-03-05", "description": "March rent",
		"lines": []map[string]any{{"account_code": 5200, "debit": "400"}, {"account_code": 1000, "credit": "400"}},
	}, &e))
	require.NotEmpty(t, e.ID)

	var errResp errorResponse
	assert.Equal(t, http.StatusBadRequest, call(t, ts, "POST", "/businesses/1/entries", map[string]any{
		"description": "lopsided",
		"lines":       []map[string]any{{"account_code": 5200, "debit": "100"}, {"account_code": 1000, "credit": "90"}},
	}, &errResp))
	assert.Contains(t, errResp.Error, "does not balance")

	assert.Equal(t, http.StatusUnprocessableEntity, call(t, ts, "POST", "/businesses/1/entries", map[string]any{
		"description": "sneaky stock write-up",
		"lines":       []map[string]any{{"account_code": 1200, "debit": "50"}, {"account_code": 3000, "credit": "50"}},
	}, nil))

	var rev ledger.JournalEntry
	require.Equal(t, http.StatusCreated, call(t, ts, "POST", "/businesses/1/entries/"+e.ID+"/reverse", map[string]string{"date": "2025-03-06"}, &rev))
	assert.Equal(t, e.ID, rev.ReversalOf)
	assert.Equal(t, http.StatusConflict, call(t, ts, "POST", "/businesses/1/entries/"+e.ID+"/reverse", nil, nil))

	var got ledger.JournalEntry
	require.Equal(t, http.StatusOK, call(t, ts, "GET", "/businesses/1/entries/"+e.ID, nil, &got))
	assert.Equal(t, rev.ID, got.ReversedBy)
	assert.Equal(t, http.StatusNotFound, call(t, ts, "GET", "/businesses/1/entries/nope", nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, ts, "GET", "/businesses/2/entries/"+e.ID, nil, nil), "entries are scoped to their business")

	var tb ledger.TrialBalance
	require.Equal(t, http.StatusOK, call(t, ts, "GET", "/businesses/1/reports/trial-balance", nil, &tb))
	assert.True(t, tb.Balanced)
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusUnprocessableEntity, call(t, ts, "POST", "/businesses/9/payments/received", map[string]any{"payment_id": "p", "date": "2025-03-01", "amount": "5"}, nil),
		"posting to an unseeded business is a configuration error")
	assert.Equal(t, http.StatusNotFound, call(t, ts, "GET", "/businesses/9", nil, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, ts, "GET", "/businesses/abc/accounts", nil, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, ts, "POST", "/businesses/9/init", map[string]string{"method": "hifo"}, nil))

	require.Equal(t, http.StatusCreated, call(t, ts, "POST", "/businesses/9/init", nil, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, ts, "GET", "/businesses/9/reports/balance-sheet?as_of=yesterday", nil, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, ts, "GET", "/businesses/9/valuation/trend?granularity=weekly", nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, ts, "GET", "/businesses/9/valuation?variation_id=1&location_id=1", nil, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, call(t, ts, "POST", "/businesses/9/accounts/1200/deactivate", nil, nil))
	assert.Equal(t, http.StatusNoContent, call(t, ts, "POST", "/businesses/9/accounts/1010/deactivate", nil, nil))
}

func TestSetMethodAndTrend(t *testing.T) {
	ts := newTestServer(t)
	setupShop(t, ts)

	var b ledger.Business
	require.Equal(t, http.StatusOK, call(t, ts, "PUT", "/businesses/1/method", map[string]string{"method": "avco"}, &b))
	assert.Equal(t, "avco", b.AccountingMethod)

	var tr valuation.Trend
	require.Equal(t, http.StatusOK, call(t, ts, "GET", "/businesses/1/valuation/trend?year=2025&granularity=quarterly", nil, &tr))
	require.NotEmpty(t, tr.Points)
	assert.Equal(t, "2025-Q1", tr.Points[0].Label)
	assert.True(t, tr.Points[0].TotalValue.Equal(dec("1600")))
}

func TestMapError(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, mapError(&ledger.ConfigurationError{BusinessID: 1, Code: 1000}))
	assert.Equal(t, http.StatusBadRequest, mapError(&ledger.UnbalancedEntryError{Debit: dec("1"), Credit: dec("2")}))
	assert.Equal(t, http.StatusInternalServerError, mapError(assert.AnError))
}
