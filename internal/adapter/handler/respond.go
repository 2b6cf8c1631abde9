package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clubcouncil/registration-engine/internal/core/domain"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain outcomes onto HTTP statuses. Conflicts (full,
// out of stock, duplicates, double check-in) are 409 so a client can
// tell "nothing happened, safe to retry" from bad input.
func writeError(w http.ResponseWriter, err error) {
	var status int

	var outOfStock *domain.OutOfStockError
	var checkedIn *domain.AlreadyCheckedInError
	var overLimit *domain.PurchaseLimitError

	switch {
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrRegistrationNotFound),
		errors.Is(err, domain.ErrInvalidTicket):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDeadlinePassed),
		errors.Is(err, domain.ErrProofRequired),
		errors.Is(err, domain.ErrNoItemsSelected):
		status = http.StatusBadRequest
	case errors.As(err, &overLimit):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyRegistered),
		errors.Is(err, domain.ErrEventFull),
		errors.Is(err, domain.ErrInvalidState):
		status = http.StatusConflict
	case errors.As(err, &outOfStock), errors.As(err, &checkedIn):
		status = http.StatusConflict
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
