package valuation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/stockledger/internal/inventory"
)

type CategoryValue struct {
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Items        int             `json:"items"`
	Quantity     decimal.Decimal `json:"quantity"`
	TotalValue   decimal.Decimal `json:"total_value"`
}

type CategorySummary struct {
	BusinessID int64               `json:"business_id"`
	Method     inventory.Method    `json:"method"`
	AsOf       time.Time           `json:"as_of"`
	Categories []CategoryValue     `json:"categories"`
	TotalValue decimal.Decimal     `json:"total_value"`
	Warnings   []inventory.Warning `json:"warnings,omitempty"`
}

// CategoryValuation values every stocked (variation, location) pair of a
// business and totals them per category.
func (e *Engine) CategoryValuation(ctx context.Context, businessID int64, method inventory.Method, asOf time.Time) (*CategorySummary, error) {
	method, err := e.resolveMethod(ctx, Request{BusinessID: businessID, Method: method})
	if err != nil {
		return nil, err
	}
	pairs, err := e.src.StockedPairs(ctx, businessID)
	if err != nil {
		return nil, err
	}

	sum := &CategorySummary{BusinessID: businessID, Method: method, AsOf: asOf, TotalValue: decimal.Zero}
	if sum.AsOf.IsZero() {
		sum.AsOf = e.now()
	}
	byCategory := make(map[int64]*CategoryValue)
	for _, p := range pairs {
		val, err := e.Valuate(ctx, Request{
			BusinessID:  businessID,
			VariationID: p.VariationID,
			LocationID:  p.LocationID,
			Method:      method,
			AsOf:        asOf,
		})
		if err != nil {
			return nil, fmt.Errorf("value variation %d at location %d: %w", p.VariationID, p.LocationID, err)
		}
		cv, ok := byCategory[val.CategoryID]
		if !ok {
			cv = &CategoryValue{CategoryID: val.CategoryID, CategoryName: val.CategoryName, Quantity: decimal.Zero, TotalValue: decimal.Zero}
			byCategory[val.CategoryID] = cv
		}
		cv.Items++
		cv.Quantity = cv.Quantity.Add(val.Quantity)
		cv.TotalValue = cv.TotalValue.Add(val.TotalValue)
		sum.TotalValue = sum.TotalValue.Add(val.TotalValue)
		sum.Warnings = append(sum.Warnings, val.Warnings...)
	}

	for _, cv := range byCategory {
		sum.Categories = append(sum.Categories, *cv)
	}
	sort.Slice(sum.Categories, func(i, j int) bool {
		return sum.Categories[i].TotalValue.GreaterThan(sum.Categories[j].TotalValue) ||
			(sum.Categories[i].TotalValue.Equal(sum.Categories[j].TotalValue) && sum.Categories[i].CategoryID < sum.Categories[j].CategoryID)
	})
	return sum, nil
}

type Granularity string

const (
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
	Yearly    Granularity = "yearly"
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Monthly, Quarterly, Yearly:
		return g, nil
	case "":
		return Monthly, nil
	default:
		return "", fmt.Errorf("invalid granularity %q (want monthly, quarterly or yearly)", s)
	}
}

type TrendRequest struct {
	BusinessID  int64
	Year        int
	Granularity Granularity
	Method      inventory.Method
}

type TrendPoint struct {
	Label      string          `json:"label"`
	PeriodEnd  time.Time       `json:"period_end"`
	TotalValue decimal.Decimal `json:"total_value"`
}

type Trend struct {
	BusinessID    int64            `json:"business_id"`
	Year          int              `json:"year"`
	Granularity   Granularity      `json:"granularity"`
	Method        inventory.Method `json:"method"`
	Points        []TrendPoint     `json:"points"`
	StartValue    decimal.Decimal  `json:"start_value"`
	EndValue      decimal.Decimal  `json:"end_value"`
	Change        decimal.Decimal  `json:"change"`
	PercentChange decimal.Decimal  `json:"percent_change"`
}

// PeriodEnds returns the last calendar day of each period in year.
func PeriodEnds(year int, g Granularity) []time.Time {
	var months []time.Month
	switch g {
	case Quarterly:
		months = []time.Month{time.March, time.June, time.September, time.December}
	case Yearly:
		months = []time.Month{time.December}
	default:
		for m := time.January; m <= time.December; m++ {
			months = append(months, m)
		}
	}
	ends := make([]time.Time, 0, len(months))
	for _, m := range months {
		// Day 0 of the next month is the last day of m.
		ends = append(ends, time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC))
	}
	return ends
}

func periodLabel(end time.Time, g Granularity) string {
	switch g {
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", end.Year(), (int(end.Month())+2)/3)
	case Yearly:
		return fmt.Sprintf("%d", end.Year())
	default:
		return end.Format("2006-01")
	}
}

// Trend values the whole business at each period end of a year, skipping
// period ends that are still in the future.
func (e *Engine) Trend(ctx context.Context, req TrendRequest) (*Trend, error) {
	g := req.Granularity
	if g == "" {
		g = Monthly
	}
	method, err := e.resolveMethod(ctx, Request{BusinessID: req.BusinessID, Method: req.Method})
	if err != nil {
		return nil, err
	}

	tr := &Trend{
		BusinessID:    req.BusinessID,
		Year:          req.Year,
		Granularity:   g,
		Method:        method,
		Points:        []TrendPoint{},
		StartValue:    decimal.Zero,
		EndValue:      decimal.Zero,
		Change:        decimal.Zero,
		PercentChange: decimal.Zero,
	}

	now := e.now()
	for _, end := range PeriodEnds(req.Year, g) {
		if end.After(now) {
			break
		}
		// Value at the very end of the closing day.
		asOf := end.Add(24*time.Hour - time.Nanosecond)
		sum, err := e.CategoryValuation(ctx, req.BusinessID, method, asOf)
		if err != nil {
			return nil, err
		}
		tr.Points = append(tr.Points, TrendPoint{
			Label:      periodLabel(end, g),
			PeriodEnd:  end,
			TotalValue: sum.TotalValue,
		})
	}

	if n := len(tr.Points); n > 0 {
		tr.StartValue = tr.Points[0].TotalValue
		tr.EndValue = tr.Points[n-1].TotalValue
		tr.Change = tr.EndValue.Sub(tr.StartValue)
		if !tr.StartValue.IsZero() {
			tr.PercentChange = tr.Change.Div(tr.StartValue).Mul(decimal.NewFromInt(100)).Round(2)
		}
	}
	return tr, nil
}
