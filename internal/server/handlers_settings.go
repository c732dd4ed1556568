package server

import (
	"net/http"

	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/ledger"
)

type initBusinessRequest struct {
	Name   string `json:"name"`
	Method string `json:"method"`
}

// initBusiness seeds the chart of accounts. It is safe to repeat.
func (s *Server) initBusiness(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req initBusinessRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	method, err := inventory.ParseMethod(req.Method)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.InitializeBusiness(r.Context(), bid, req.Name, method); err != nil {
		s.fail(w, r, err)
		return
	}
	s.getBusinessStatus(w, r, bid, http.StatusCreated)
}

func (s *Server) getBusiness(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.getBusinessStatus(w, r, bid, http.StatusOK)
}

func (s *Server) getBusinessStatus(w http.ResponseWriter, r *http.Request, bid int64, status int) {
	b, err := s.store.GetBusiness(r.Context(), bid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, status, b)
}

type setMethodRequest struct {
	Method string `json:"method"`
}

func (s *Server) setMethod(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req setMethodRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	method, err := inventory.ParseMethod(req.Method)
	if err != nil || method == "" {
		writeError(w, http.StatusBadRequest, "method must be fifo, lifo or avco")
		return
	}
	if err := s.store.SetAccountingMethod(r.Context(), bid, method); err != nil {
		s.fail(w, r, err)
		return
	}
	s.getBusinessStatus(w, r, bid, http.StatusOK)
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ledger.ChartTemplate)
}

func (s *Server) getTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ledger.Templates)
}
