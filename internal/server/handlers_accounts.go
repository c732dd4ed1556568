package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/simonvc/stockledger/internal/ledger"
	"github.com/simonvc/stockledger/internal/store"
)

func accountCode(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "code")
	code, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ledger.ErrInvalidAccountCode
	}
	if _, err := ledger.TypeForCode(code); err != nil {
		return 0, err
	}
	return code, nil
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	filter := store.AccountFilter{}
	if typ := r.URL.Query().Get("type"); typ != "" {
		filter.Type = ledger.AccountType(typ)
		if !ledger.ValidAccountType(filter.Type) {
			writeError(w, http.StatusBadRequest, ledger.ErrInvalidAccountType.Error()+": "+typ)
			return
		}
	}
	if active := r.URL.Query().Get("active"); active == "true" || active == "1" {
		filter.ActiveOnly = true
	}

	accounts, err := s.store.ListAccounts(r.Context(), bid, filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []ledger.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	code, err := accountCode(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	acct, err := s.store.AccountByCode(r.Context(), bid, code)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) getAccountBalance(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	code, err := accountCode(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	balance, err := s.store.AccountBalance(r.Context(), bid, code)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"business_id": bid,
		"code":        code,
		"balance":     balance,
		"formatted":   ledger.FormatAmount(balance),
	})
}

func (s *Server) listAccountLines(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	code, err := accountCode(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lines, err := s.store.AccountLines(r.Context(), bid, code, from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if lines == nil {
		lines = []store.AccountLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}

func (s *Server) deactivateAccount(w http.ResponseWriter, r *http.Request) {
	bid, err := businessID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	code, err := accountCode(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.DeactivateAccount(r.Context(), bid, code); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
