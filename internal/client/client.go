// Package client talks to a running stockledger server on behalf of one
// business.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/stockledger/internal/cogs"
	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/ledger"
	"github.com/simonvc/stockledger/internal/store"
	"github.com/simonvc/stockledger/internal/valuation"
)

type Client struct {
	baseURL    string
	businessID int64
	httpClient *http.Client
}

func New(baseURL string, businessID int64) *Client {
	return &Client{
		baseURL:    baseURL,
		businessID: businessID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

func (c *Client) BusinessID() int64 { return c.businessID }

func (c *Client) biz(path string) string {
	return "/api/v1/businesses/" + strconv.FormatInt(c.businessID, 10) + path
}

func (c *Client) InitBusiness(ctx context.Context, name string, method inventory.Method) (*ledger.Business, error) {
	body := map[string]string{"name": name, "method": string(method)}
	var result ledger.Business
	if err := c.send(ctx, http.MethodPost, c.biz("/init"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetBusiness(ctx context.Context) (*ledger.Business, error) {
	var result ledger.Business
	if err := c.get(ctx, c.biz("/"), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) SetMethod(ctx context.Context, method inventory.Method) (*ledger.Business, error) {
	var result ledger.Business
	if err := c.send(ctx, http.MethodPut, c.biz("/method"), map[string]string{"method": string(method)}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAccounts(ctx context.Context, typ ledger.AccountType, activeOnly bool) ([]ledger.Account, error) {
	params := url.Values{}
	if typ != "" {
		params.Set("type", string(typ))
	}
	if activeOnly {
		params.Set("active", "true")
	}
	var result []ledger.Account
	if err := c.get(ctx, c.biz("/accounts"), params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetAccount(ctx context.Context, code int) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.get(ctx, c.biz("/accounts/"+strconv.Itoa(code)), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type BalanceResponse struct {
	BusinessID int64           `json:"business_id"`
	Code       int             `json:"code"`
	Balance    decimal.Decimal `json:"balance"`
	Formatted  string          `json:"formatted"`
}

func (c *Client) AccountBalance(ctx context.Context, code int) (*BalanceResponse, error) {
	var result BalanceResponse
	if err := c.get(ctx, c.biz("/accounts/"+strconv.Itoa(code)+"/balance"), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) AccountLines(ctx context.Context, code int, from, to time.Time) ([]store.AccountLine, error) {
	var result []store.AccountLine
	if err := c.get(ctx, c.biz("/accounts/"+strconv.Itoa(code)+"/lines"), rangeParams(from, to), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) DeactivateAccount(ctx context.Context, code int) error {
	return c.send(ctx, http.MethodPost, c.biz("/accounts/"+strconv.Itoa(code)+"/deactivate"), nil, nil)
}

// EntryQuery narrows ListEntries. Zero fields are not sent.
type EntryQuery struct {
	From, To    time.Time
	Source      ledger.SourceType
	AccountCode int
	Limit       int
	Offset      int
}

func (c *Client) ListEntries(ctx context.Context, q EntryQuery) ([]ledger.JournalEntry, error) {
	params := rangeParams(q.From, q.To)
	if q.Source != "" {
		params.Set("source", string(q.Source))
	}
	if q.AccountCode != 0 {
		params.Set("account", strconv.Itoa(q.AccountCode))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	var result []ledger.JournalEntry
	if err := c.get(ctx, c.biz("/entries"), params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ManualLine is one line of a manual journal entry.
type ManualLine struct {
	AccountCode int             `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

type ManualEntry struct {
	Date        string       `json:"date,omitempty"`
	Description string       `json:"description"`
	Reference   string       `json:"reference,omitempty"`
	CreatedBy   string       `json:"created_by,omitempty"`
	Lines       []ManualLine `json:"lines"`
}

func (c *Client) CreateManualEntry(ctx context.Context, e ManualEntry) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.send(ctx, http.MethodPost, c.biz("/entries"), e, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.get(ctx, c.biz("/entries/"+url.PathEscape(id)), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ReverseEntry(ctx context.Context, id string, date time.Time, createdBy string) (*ledger.JournalEntry, error) {
	body := map[string]string{"created_by": createdBy}
	if !date.IsZero() {
		body["date"] = date.Format(ledger.DateLayout)
	}
	var result ledger.JournalEntry
	if err := c.send(ctx, http.MethodPost, c.biz("/entries/"+url.PathEscape(id)+"/reverse"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) TrialBalance(ctx context.Context, asOf time.Time) (*ledger.TrialBalance, error) {
	var result ledger.TrialBalance
	if err := c.get(ctx, c.biz("/reports/trial-balance"), asOfParams(asOf), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) BalanceSheet(ctx context.Context, asOf time.Time) (*ledger.BalanceSheet, error) {
	var result ledger.BalanceSheet
	if err := c.get(ctx, c.biz("/reports/balance-sheet"), asOfParams(asOf), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) IncomeStatement(ctx context.Context, from, to time.Time) (*ledger.IncomeStatement, error) {
	var result ledger.IncomeStatement
	if err := c.get(ctx, c.biz("/reports/income-statement"), rangeParams(from, to), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Valuate(ctx context.Context, variationID, locationID int64, method inventory.Method, asOf time.Time) (*inventory.Valuation, error) {
	params := asOfParams(asOf)
	params.Set("variation_id", strconv.FormatInt(variationID, 10))
	params.Set("location_id", strconv.FormatInt(locationID, 10))
	if method != "" {
		params.Set("method", string(method))
	}
	var result inventory.Valuation
	if err := c.get(ctx, c.biz("/valuation"), params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CategoryValuation(ctx context.Context, method inventory.Method, asOf time.Time) (*valuation.CategorySummary, error) {
	params := asOfParams(asOf)
	if method != "" {
		params.Set("method", string(method))
	}
	var result valuation.CategorySummary
	if err := c.get(ctx, c.biz("/valuation/categories"), params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ValuationTrend(ctx context.Context, year int, g valuation.Granularity, method inventory.Method) (*valuation.Trend, error) {
	params := url.Values{}
	if year != 0 {
		params.Set("year", strconv.Itoa(year))
	}
	if g != "" {
		params.Set("granularity", string(g))
	}
	if method != "" {
		params.Set("method", string(method))
	}
	var result valuation.Trend
	if err := c.get(ctx, c.biz("/valuation/trend"), params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ProductProfitability(ctx context.Context, from, to time.Time) (*cogs.ProfitabilityReport, error) {
	return c.profitability(ctx, "/profitability/products", rangeParams(from, to))
}

func (c *Client) CategoryProfitability(ctx context.Context, from, to time.Time) (*cogs.ProfitabilityReport, error) {
	return c.profitability(ctx, "/profitability/categories", rangeParams(from, to))
}

// LowMarginProducts uses the server's configured threshold when threshold
// is nil.
func (c *Client) LowMarginProducts(ctx context.Context, from, to time.Time, threshold *decimal.Decimal) (*cogs.ProfitabilityReport, error) {
	params := rangeParams(from, to)
	if threshold != nil {
		params.Set("threshold", threshold.String())
	}
	return c.profitability(ctx, "/profitability/low-margin", params)
}

func (c *Client) TopPerformers(ctx context.Context, from, to time.Time, limit int) (*cogs.ProfitabilityReport, error) {
	params := rangeParams(from, to)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return c.profitability(ctx, "/profitability/top", params)
}

func (c *Client) profitability(ctx context.Context, path string, params url.Values) (*cogs.ProfitabilityReport, error) {
	var result cogs.ProfitabilityReport
	if err := c.get(ctx, c.biz(path), params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetChart(ctx context.Context) ([]ledger.ChartEntry, error) {
	var result []ledger.ChartEntry
	if err := c.get(ctx, "/api/v1/chart", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/chart", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func asOfParams(asOf time.Time) url.Values {
	params := url.Values{}
	if !asOf.IsZero() {
		params.Set("as_of", asOf.Format(ledger.DateLayout))
	}
	return params
}

func rangeParams(from, to time.Time) url.Values {
	params := url.Values{}
	if !from.IsZero() {
		params.Set("from", from.Format(ledger.DateLayout))
	}
	if !to.IsZero() {
		params.Set("to", to.Format(ledger.DateLayout))
	}
	return params
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req, result)
}

func (c *Client) send(ctx context.Context, method, path string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doRequest(req, result)
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var body apiError
		if json.Unmarshal(bodyBytes, &body) == nil && body.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
	}

	if result != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
