package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/simonvc/stockledger/internal/events"
	"github.com/simonvc/stockledger/internal/inventory"
	"github.com/simonvc/stockledger/internal/ledger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := mapError(err)
	if status >= http.StatusInternalServerError {
		s.log.WithField("path", r.URL.Path).WithError(err).Error("request failed")
	}
	writeError(w, status, err.Error())
}

func mapError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrBusinessNotFound),
		errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrEntryNotFound),
		errors.Is(err, inventory.ErrVariationNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateEvent),
		errors.Is(err, ledger.ErrAlreadyReversed):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrUnbalancedEntry),
		errors.Is(err, ledger.ErrTooFewLines),
		errors.Is(err, ledger.ErrEmptyDescription),
		errors.Is(err, ledger.ErrInvalidLine),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidAccountCode),
		errors.Is(err, ledger.ErrInvalidBusiness),
		errors.Is(err, events.ErrInvalidEvent),
		errors.Is(err, inventory.ErrInvalidMethod),
		errors.Is(err, inventory.ErrInvalidMovement):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrConfiguration),
		errors.Is(err, ledger.ErrAccountInactive),
		errors.Is(err, ledger.ErrSystemAccount),
		errors.Is(err, ledger.ErrManualEntryNotAllowed),
		errors.Is(err, ledger.ErrCannotReverseReversal):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func businessID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "bid")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ledger.ErrInvalidBusiness, raw)
	}
	return id, nil
}

func intParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		raw = r.URL.Query().Get(name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

// parseDay accepts 2006-01-02 or RFC 3339. Empty yields the zero time.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(ledger.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t.UTC(), nil
}

func queryDay(r *http.Request, name string) (time.Time, error) {
	return parseDay(r.URL.Query().Get(name))
}

// dateRange reads from and to query parameters.
func dateRange(r *http.Request) (from, to time.Time, err error) {
	if from, err = queryDay(r, "from"); err != nil {
		return
	}
	to, err = queryDay(r, "to")
	return
}
