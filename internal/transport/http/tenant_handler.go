package http

import (
	"net/http"
	"strconv"

	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/tenant"
)

// CreateTenantRequest represents tenant creation data
type CreateTenantRequest struct {
	Name string `json:"name" validate:"required,max=120" example:"Night Owls Esports"`
}

type tenantResponse struct {
	Tenant *tenant.Tenant `json:"tenant"`
	Token  string         `json:"token,omitempty"`
}

// CreateTenant creates a tenant owned by the caller and returns a token scoped to it
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipal(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthenticated)
		return
	}
	var req CreateTenantRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.tenants.CreateTenant(r.Context(), p, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p.TenantID = t.ID
	token, err := h.issueFor(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, tenantResponse{Tenant: t, Token: token})
}

// GetTenant returns the caller's tenant
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.gateway.GetTenant(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// UpdateTenantSettings patches the club profile
func (h *Handler) UpdateTenantSettings(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload, err := decodePayload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.gateway.UpdateTenantSettings(r.Context(), actor, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// CloseTenant cancels the tenant's subscription
func (h *Handler) CloseTenant(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.gateway.CloseTenant(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// ListAudit returns the tenant's newest audit entries
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := h.gateway.ListAudit(r.Context(), actor, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Invalid("query parameter %s must be a non-negative integer", name)
	}
	return n, nil
}
