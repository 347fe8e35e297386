package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nexussuite/clubcore/internal/authz"
	"github.com/nexussuite/clubcore/internal/gateway"
	"github.com/nexussuite/clubcore/internal/record"
)

func recordType(r *http.Request) record.Type {
	return record.Type(chi.URLParam(r, "type"))
}

// ListRecords returns the tenant's records of one type, newest first
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := h.gateway.List(r.Context(), actor, recordType(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

// GetRecord returns one record
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.gateway.Read(r.Context(), actor, recordType(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// CreateRecord creates a record from a JSON object of fields
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, authz.ActionCreate, http.StatusCreated)
}

// UpdateRecord patches fields; a null value clears an optional field
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, authz.ActionUpdate, http.StatusOK)
}

// DeleteRecord deletes a record and returns its last state
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, authz.ActionDelete, http.StatusOK)
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, action authz.Action, status int) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	m := gateway.Mutation{
		Action:   action,
		Type:     recordType(r),
		EntityID: chi.URLParam(r, "id"),
	}
	if action != authz.ActionDelete {
		if m.Payload, err = decodePayload(r); err != nil {
			writeError(w, r, err)
			return
		}
	}

	rec, err := h.gateway.Mutate(r.Context(), actor, m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, status, rec)
}
