package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nexussuite/clubcore/internal/tenant"
)

// SuspendRequest carries the reason shown to the suspended tenant
type SuspendRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// SubscriptionRequest carries a billing status transition
type SubscriptionRequest struct {
	Status string `json:"status" validate:"required,oneof=trial active suspended canceled"`
}

// AdminListTenants lists tenants for operators
func (h *Handler) AdminListTenants(w http.ResponseWriter, r *http.Request) {
	op, err := h.operator(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tenants, err := h.tenants.List(r.Context(), op, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tenants)
}

// AdminSuspendTenant suspends a tenant; every mutation is blocked until reactivation
func (h *Handler) AdminSuspendTenant(w http.ResponseWriter, r *http.Request) {
	op, err := h.operator(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req SuspendRequest
	if r.ContentLength != 0 {
		if err := h.decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	t, err := h.tenants.Suspend(r.Context(), op, chi.URLParam(r, "tenantID"), req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// AdminReactivateTenant clears a suspension
func (h *Handler) AdminReactivateTenant(w http.ResponseWriter, r *http.Request) {
	op, err := h.operator(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.tenants.Reactivate(r.Context(), op, chi.URLParam(r, "tenantID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// AdminSyncSubscription applies a billing status transition
func (h *Handler) AdminSyncSubscription(w http.ResponseWriter, r *http.Request) {
	op, err := h.operator(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req SubscriptionRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.tenants.SyncSubscription(r.Context(), op, chi.URLParam(r, "tenantID"), tenant.SubscriptionStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// AdminDeleteTenant permanently deletes a tenant and its data; audit entries are kept
func (h *Handler) AdminDeleteTenant(w http.ResponseWriter, r *http.Request) {
	op, err := h.operator(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.tenants.Delete(r.Context(), op, chi.URLParam(r, "tenantID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
