/**
 * @description
 * Shared response helpers for the handlers: a JSON envelope writer and
 * the mapping from service/store sentinel errors to HTTP status codes.
 */

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/app"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondWithJSON writes a JSON response with the given status code.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError maps domain conditions to status codes. Unknown
// errors become opaque 500s so internals never leak to the client.
func respondWithError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrForbidden), errors.Is(err, app.ErrRoleNotAllowed):
		respondWithJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, app.ErrInvalidInput):
		respondWithJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, app.ErrRateLimited):
		respondWithJSON(w, http.StatusTooManyRequests, errorResponse{Error: err.Error()})
	case errors.Is(err, app.ErrMemberInactive),
		errors.Is(err, store.ErrBookUnavailable),
		errors.Is(err, store.ErrReservationNotActive),
		errors.Is(err, store.ErrReservationExpired),
		errors.Is(err, store.ErrLoanAlreadyReturned),
		errors.Is(err, store.ErrCourseFull),
		errors.Is(err, store.ErrAlreadyEnrolled),
		errors.Is(err, store.ErrSlotUnavailable),
		errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, store.ErrEmailTaken):
		respondWithJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrBookNotFound),
		errors.Is(err, store.ErrMemberNotFound),
		errors.Is(err, store.ErrReservationNotFound),
		errors.Is(err, store.ErrLoanNotFound):
		respondWithJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
