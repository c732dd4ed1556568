package server

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
)

func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	asOf, err := queryDay(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tb, err := s.statements.TrialBalance(r.Context(), bid, asOf)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	asOf, err := queryDay(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bs, err := s.statements.BalanceSheet(r.Context(), bid, asOf)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (s *Server) incomeStatement(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	is, err := s.statements.IncomeStatement(r.Context(), bid, from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, is)
}

func (s *Server) productProfitability(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := s.costs.ProductProfitability(r.Context(), bid, from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) categoryProfitability(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := s.costs.CategoryProfitability(r.Context(), bid, from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) lowMarginProducts(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	threshold := s.opts.LowMarginThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		if threshold, err = decimal.NewFromString(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid threshold: "+raw)
			return
		}
	}
	rep, err := s.costs.LowMarginProducts(r.Context(), bid, from, to, threshold)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) topPerformers(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit: "+raw)
			return
		}
	}
	rep, err := s.costs.TopPerformers(r.Context(), bid, from, to, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
