package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/member"
)

// InviteRequest represents an invitation to join the tenant
type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=owner admin manager finance marcom analyst staff player"`
}

// AcceptInviteRequest carries the token from the invitation email
type AcceptInviteRequest struct {
	Token string `json:"token" validate:"required"`
}

// InviteMember creates an invite. The token appears only in this response.
func (h *Handler) InviteMember(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req InviteRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	inv, err := h.gateway.InviteMember(r.Context(), actor, req.Email, member.Role(req.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, inv)
}

// ListInvites lists invites with their effective status
func (h *Handler) ListInvites(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	invites, err := h.gateway.ListInvites(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, invites)
}

// CancelInvite deletes a pending invite; other states succeed without change
func (h *Handler) CancelInvite(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.gateway.CancelInvite(r.Context(), actor, chi.URLParam(r, "inviteID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AcceptInvite joins the invite's tenant and returns a token scoped to it
func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipal(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthenticated)
		return
	}
	var req AcceptInviteRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.gateway.AcceptInvite(r.Context(), p, req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p.TenantID = m.TenantID
	token, err := h.issueFor(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, membershipResponse{Member: m, Token: token})
}

type membershipResponse struct {
	Member *member.Member `json:"member"`
	Token  string         `json:"token,omitempty"`
}
