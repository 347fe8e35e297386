// Copyright 2026 The NexusSuite Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package http binds the club management core to a chi router. Handlers
// translate requests into gateway and tenant service calls and map the error
// taxonomy onto status codes.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/gateway"
	"github.com/nexussuite/clubcore/internal/identity"
	"github.com/nexussuite/clubcore/internal/observability/logger"
	"github.com/nexussuite/clubcore/internal/tenant"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodyBytes = 1 << 20

// TokenIssuer signs bearer tokens. Signup and invite acceptance use it to hand
// back a token that carries the caller's new tenant.
type TokenIssuer interface {
	Issue(p identity.Principal, ttl time.Duration) (string, error)
}

// Options holds optional handler dependencies.
type Options struct {
	Issuer         TokenIssuer
	TokenTTL       time.Duration
	Security       *logger.SecurityLogger
	RequestTimeout time.Duration
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	gateway  *gateway.Gateway
	tenants  *tenant.Service
	resolver identity.Resolver
	issuer   TokenIssuer
	tokenTTL time.Duration
	security *logger.SecurityLogger
	timeout  time.Duration
	validate *validator.Validate
}

// NewHandler creates a new HTTP handler
func NewHandler(gw *gateway.Gateway, tenants *tenant.Service, resolver identity.Resolver, opts Options) *Handler {
	h := &Handler{
		gateway:  gw,
		tenants:  tenants,
		resolver: resolver,
		issuer:   opts.Issuer,
		tokenTTL: opts.TokenTTL,
		security: opts.Security,
		timeout:  opts.RequestTimeout,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	if h.security == nil {
		h.security = logger.NewSecurityLogger(nil)
	}
	if h.tokenTTL <= 0 {
		h.tokenTTL = 24 * time.Hour
	}
	if h.timeout <= 0 {
		h.timeout = 60 * time.Second
	}
	return h
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.timeout))

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		// Tenant-less principals
		r.Post("/tenants", h.CreateTenant)
		r.Post("/invites/accept", h.AcceptInvite)

		// Tenant-scoped
		r.Route("/tenant", func(r chi.Router) {
			r.Get("/", h.GetTenant)
			r.Patch("/", h.UpdateTenantSettings)
			r.Delete("/", h.CloseTenant)
			r.Get("/audit", h.ListAudit)
		})
		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.ListMembers)
			r.Post("/transfer-ownership", h.TransferOwnership)
			r.Put("/{userID}/role", h.UpdateMemberRole)
			r.Delete("/{userID}", h.RemoveMember)
		})
		r.Route("/invites", func(r chi.Router) {
			r.Get("/", h.ListInvites)
			r.Post("/", h.InviteMember)
			r.Delete("/{inviteID}", h.CancelInvite)
		})
		r.Route("/records/{type}", func(r chi.Router) {
			r.Get("/", h.ListRecords)
			r.Post("/", h.CreateRecord)
			r.Get("/{id}", h.GetRecord)
			r.Patch("/{id}", h.UpdateRecord)
			r.Delete("/{id}", h.DeleteRecord)
		})

		// Operator plane
		r.Route("/admin/tenants", func(r chi.Router) {
			r.Use(h.RequireOperator)
			r.Get("/", h.AdminListTenants)
			r.Post("/{tenantID}/suspend", h.AdminSuspendTenant)
			r.Post("/{tenantID}/reactivate", h.AdminReactivateTenant)
			r.Put("/{tenantID}/subscription", h.AdminSyncSubscription)
			r.Delete("/{tenantID}", h.AdminDeleteTenant)
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "clubcore",
	})
}

// actor derives the tenant-scoped actor from the authenticated principal.
func (h *Handler) actor(r *http.Request) (identity.Actor, error) {
	p, ok := GetPrincipal(r.Context())
	if !ok {
		return identity.Actor{}, apperr.ErrUnauthenticated
	}
	return p.Actor()
}

func (h *Handler) operator(r *http.Request) (identity.Operator, error) {
	p, ok := GetPrincipal(r.Context())
	if !ok {
		return identity.Operator{}, apperr.ErrUnauthenticated
	}
	return p.AsOperator()
}

// issueFor returns a token for p, or "" when no issuer is configured.
func (h *Handler) issueFor(p identity.Principal) (string, error) {
	if h.issuer == nil {
		return "", nil
	}
	return h.issuer.Issue(p, h.tokenTTL)
}

// decode reads a JSON body into dst and validates struct tags.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Invalid("invalid request body: %v", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperr.Invalid("field %s failed %s validation", fe.Field(), fe.Tag())
		}
		return apperr.Invalid("%v", err)
	}
	return nil
}

// decodePayload reads a free-form JSON object, keeping numbers exact.
func decodePayload(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, apperr.Invalid("invalid request body: %v", err)
	}
	if payload == nil {
		return nil, apperr.Invalid("request body must be a JSON object")
	}
	return payload, nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
