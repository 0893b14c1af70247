/**
 * @description
 * HTTP handlers for the member directory.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/domain"
)

func (h *Handler) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	tenant, err := h.members.CurrentTenant(r.Context(), sess)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tenant)
}

func (h *Handler) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	var in domain.MemberInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	member, err := h.members.CreateMember(r.Context(), sess, in)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, member)
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	members, err := h.members.ListMembers(r.Context(), sess)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, members)
}

func (h *Handler) handleGetMember(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	member, err := h.members.GetMember(r.Context(), sess, id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, member)
}

func (h *Handler) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.MemberInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	member, err := h.members.UpdateMember(r.Context(), sess, id, in)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, member)
}

func (h *Handler) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.members.DeleteMember(r.Context(), sess, id); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
