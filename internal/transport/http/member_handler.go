package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nexussuite/clubcore/internal/member"
)

// UpdateRoleRequest represents a role change
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner admin manager finance marcom analyst staff player"`
}

// TransferOwnershipRequest names the member who becomes owner
type TransferOwnershipRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// ListMembers lists the tenant's members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	members, err := h.gateway.ListMembers(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, members)
}

// UpdateMemberRole changes a member's role
func (h *Handler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req UpdateRoleRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.gateway.UpdateMemberRole(r.Context(), actor, chi.URLParam(r, "userID"), member.Role(req.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// TransferOwnership hands the owner role to another member
func (h *Handler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req TransferOwnershipRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.gateway.TransferOwnership(r.Context(), actor, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// RemoveMember removes a non-owner member
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.gateway.RemoveMember(r.Context(), actor, chi.URLParam(r, "userID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
