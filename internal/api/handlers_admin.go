/**
 * @description
 * HTTP handler for the privileged user-provisioning endpoint. The caller
 * comes from the session; the service re-derives their role from the
 * database before acting.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
)

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	profile, err := h.provisioning.CreateUser(r.Context(), sess.UserID, sess.TenantID, req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, profile)
}
