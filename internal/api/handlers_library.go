/**
 * @description
 * HTTP handlers for the library: book catalog, reservations and loans.
 * Handlers parse the request, pull the session from context, call the
 * service layer and write the response; no business rules live here.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/app"
	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
)

// Handler holds the application services the HTTP layer dispatches to.
type Handler struct {
	library      *app.LibraryService
	members      *app.MemberService
	schedule     *app.ScheduleService
	pastoral     *app.PastoralService
	provisioning *app.ProvisioningService
}

// NewHandler creates a new Handler with its services.
func NewHandler(
	library *app.LibraryService,
	members *app.MemberService,
	schedule *app.ScheduleService,
	pastoral *app.PastoralService,
	provisioning *app.ProvisioningService,
) *Handler {
	return &Handler{
		library:      library,
		members:      members,
		schedule:     schedule,
		pastoral:     pastoral,
		provisioning: provisioning,
	}
}

// sessionOrAbort extracts the session or writes a 401.
func sessionOrAbort(w http.ResponseWriter, r *http.Request) (domain.Session, bool) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return sess, ok
}

// idParam parses the {id} URL parameter as a UUID.
func idParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// ── Books ───────────────────────────────────────────────────────────────

func (h *Handler) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	var in domain.BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	book, err := h.library.CreateBook(r.Context(), sess, in)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, book)
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	books, err := h.library.ListBooks(r.Context(), sess)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, books)
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	book, err := h.library.GetBook(r.Context(), sess, id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, book)
}

func (h *Handler) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	book, err := h.library.UpdateBook(r.Context(), sess, id, in)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, book)
}

func (h *Handler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.library.DeleteBook(r.Context(), sess, id); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Reservations ────────────────────────────────────────────────────────

func (h *Handler) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	var req domain.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	res, err := h.library.CreateReservation(r.Context(), sess, req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleListReservations(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	listing, err := h.library.ListReservations(r.Context(), sess)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

func (h *Handler) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.library.CancelReservation(r.Context(), sess, id); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleConvertReservation(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.ConvertReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	loan, err := h.library.ConvertReservationToLoan(r.Context(), sess, id, req.DueDate)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, loan)
}

// ── Loans ───────────────────────────────────────────────────────────────

func (h *Handler) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	var req domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	loan, err := h.library.CreateLoan(r.Context(), sess, req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, loan)
}

func (h *Handler) handleListLoans(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	loans, err := h.library.ListLoans(r.Context(), sess)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, loans)
}

func (h *Handler) handleReturnLoan(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	loan, err := h.library.ReturnLoan(r.Context(), sess, id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, loan)
}

func (h *Handler) handleCancelLoan(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.library.CancelLoan(r.Context(), sess, id); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
