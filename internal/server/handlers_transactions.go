package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/simonvc/stockledger/internal/events"
	"github.com/simonvc/stockledger/internal/ledger"
	"github.com/simonvc/stockledger/internal/store"
)

// Event payloads carry dates as YYYY-MM-DD; the outer Date shadows the
// event's time.Time field when decoding.
type saleRequest struct {
	events.SaleEvent
	Date string `json:"date"`
}

type purchaseRequest struct {
	events.PurchaseEvent
	Date string `json:"date"`
}

type paymentRequest struct {
	events.PaymentEvent
	Date string `json:"date"`
}

func (s *Server) recordSale(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req saleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev := req.SaleEvent
	ev.BusinessID = bid
	if ev.Date, err = parseDay(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.recorder.CompleteSale(r.Context(), &ev)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// recordCostedSale posts the journal entry for a sale the caller has
// already costed. Stock is left alone.
func (s *Server) recordCostedSale(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req saleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev := req.SaleEvent
	ev.BusinessID = bid
	if ev.Date, err = parseDay(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := s.recorder.RecordSale(r.Context(), &ev)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) recordPurchase(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req purchaseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev := req.PurchaseEvent
	ev.BusinessID = bid
	if ev.Date, err = parseDay(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := s.recorder.RecordPurchase(r.Context(), &ev)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) recordPaymentReceived(w http.ResponseWriter, r *http.Request) {
	s.recordPayment(w, r, false)
}

func (s *Server) recordPaymentMade(w http.ResponseWriter, r *http.Request) {
	s.recordPayment(w, r, true)
}

func (s *Server) recordPayment(w http.ResponseWriter, r *http.Request, made bool) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req paymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev := req.PaymentEvent
	ev.BusinessID = bid
	if ev.Date, err = parseDay(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var e *ledger.JournalEntry
	if made {
		e, err = s.recorder.RecordPaymentMade(r.Context(), &ev)
	} else {
		e, err = s.recorder.RecordPaymentReceived(r.Context(), &ev)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

type manualEntryRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Reference   string `json:"reference"`
	CreatedBy   string `json:"created_by"`
	Lines       []struct {
		AccountCode int             `json:"account_code"`
		Debit       decimal.Decimal `json:"debit"`
		Credit      decimal.Decimal `json:"credit"`
		Description string          `json:"description"`
	} `json:"lines"`
}

func (s *Server) createManualEntry(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req manualEntryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e := &ledger.JournalEntry{
		BusinessID:  bid,
		EntryDate:   date,
		Description: req.Description,
		Reference:   req.Reference,
		CreatedBy:   req.CreatedBy,
	}
	for _, l := range req.Lines {
		e.Lines = append(e.Lines, ledger.JournalLine{
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		})
	}

	if err := s.store.PostManualEntry(r.Context(), e); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	filter := store.EntryFilter{BusinessID: bid, Limit: 100}
	q := r.URL.Query()
	if filter.From, filter.To, err = dateRange(r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if src := q.Get("source"); src != "" {
		filter.SourceType = ledger.SourceType(src)
	}
	if code := q.Get("account"); code != "" {
		if filter.AccountCode, err = strconv.Atoi(code); err != nil {
			writeError(w, http.StatusBadRequest, "invalid account: "+code)
			return
		}
	}
	if limit := q.Get("limit"); limit != "" {
		if filter.Limit, err = strconv.Atoi(limit); err != nil || filter.Limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit: "+limit)
			return
		}
	}
	if offset := q.Get("offset"); offset != "" {
		if filter.Offset, err = strconv.Atoi(offset); err != nil || filter.Offset < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset: "+offset)
			return
		}
	}

	entries, err := s.store.ListEntries(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []ledger.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	e, err := s.store.GetEntry(r.Context(), bid, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type reverseRequest struct {
	Date      string `json:"date"`
	CreatedBy string `json:"created_by"`
}

func (s *Server) reverseEntry(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req reverseRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	date, err := parseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rev, err := s.store.ReverseEntry(r.Context(), bid, chi.URLParam(r, "id"), date, req.CreatedBy)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}
