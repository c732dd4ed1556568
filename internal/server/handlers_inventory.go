package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/valuation"
)

type variationRequest struct {
	ProductID         int64           `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Name              string          `json:"name"`
	CategoryID        int64           `json:"category_id"`
	CategoryName      string          `json:"category_name"`
	LastPurchasePrice decimal.Decimal `json:"last_purchase_price"`
}

func (s *Server) upsertVariation(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	vid, err := intParam(r, "vid")
	if err != nil || vid <= 0 {
		writeError(w, http.StatusBadRequest, "invalid variation id")
		return
	}
	var req variationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	v := inventory.Variation{
		BusinessID:        bid,
		ID:                vid,
		ProductID:         req.ProductID,
		ProductName:       req.ProductName,
		Name:              req.Name,
		CategoryID:        req.CategoryID,
		CategoryName:      req.CategoryName,
		LastPurchasePrice: req.LastPurchasePrice,
	}
	if err := s.store.UpsertVariation(r.Context(), v); err != nil {
		s.fail(w, r, err)
		return
	}
	got, err := s.store.GetVariation(r.Context(), bid, vid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

type stockMovementRequest struct {
	VariationID int64                  `json:"variation_id"`
	LocationID  int64                  `json:"location_id"`
	Quantity    decimal.Decimal        `json:"quantity"`
	UnitCost    decimal.Decimal        `json:"unit_cost"`
	Kind        inventory.MovementKind `json:"kind"`
	Reference   string                 `json:"reference"`
	OccurredAt  string                 `json:"occurred_at"`
}

// recordStockMovement takes stock changes that do not pass through the
// recorders: opening balances, transfers, returns and adjustments.
func (s *Server) recordStockMovement(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req stockMovementRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	at, err := parseDay(req.OccurredAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mv := &inventory.StockTransaction{
		BusinessID:  bid,
		VariationID: req.VariationID,
		LocationID:  req.LocationID,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		Kind:        req.Kind,
		Reference:   req.Reference,
		OccurredAt:  at,
	}
	if err := s.store.RecordStockMovement(r.Context(), mv); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mv)
}

// endOfDay moves a date-only as_of to the last instant of that day so
// movements later that day are included.
func endOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.Add(24*time.Hour - time.Nanosecond)
}

func methodParam(r *http.Request) (inventory.Method, error) {
	return inventory.ParseMethod(r.URL.Query().Get("method"))
}

func (s *Server) valuate(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	vid, err := intParam(r, "variation_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lid, err := intParam(r, "location_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	method, err := methodParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	asOf, err := queryDay(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	val, err := s.valuation.Valuate(r.Context(), valuation.Request{
		BusinessID:  bid,
		VariationID: vid,
		LocationID:  lid,
		Method:      method,
		AsOf:        endOfDay(asOf),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, val)
}

func (s *Server) categoryValuation(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	method, err := methodParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	asOf, err := queryDay(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sum, err := s.valuation.CategoryValuation(r.Context(), bid, method, endOfDay(asOf))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) valuationTrend(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	year := time.Now().UTC().Year()
	if raw := q.Get("year"); raw != "" {
		if year, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid year: "+raw)
			return
		}
	}
	g := s.opts.TrendGranularity
	if raw := q.Get("granularity"); raw != "" {
		if g, err = valuation.ParseGranularity(raw); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	method, err := methodParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	tr, err := s.valuation.Trend(r.Context(), valuation.TrendRequest{
		BusinessID:  bid,
		Year:        year,
		Granularity: g,
		Method:      method,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}
