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

// Package gateway is the single write path into a tenant. Every mutation
// passes the suspension gate, the static permission table, a tenant-scoped
// pre-state read, a write keyed by (entity id, tenant id) and a best-effort
// audit append, in that order.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/audit"
	"github.com/nexussuite/clubcore/internal/authz"
	"github.com/nexussuite/clubcore/internal/identity"
	"github.com/nexussuite/clubcore/internal/invite"
	"github.com/nexussuite/clubcore/internal/member"
	"github.com/nexussuite/clubcore/internal/observability/logger"
	"github.com/nexussuite/clubcore/internal/observability/metrics"
	"github.com/nexussuite/clubcore/internal/record"
	"github.com/nexussuite/clubcore/internal/tenant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/nexussuite/clubcore/internal/gateway"

// Deps wires the gateway to storage and observability.
type Deps struct {
	Tenants  tenant.Repository
	Members  member.RoleStore
	Records  record.Store
	Reader   *record.Reader
	Invites  invite.Repository
	Recorder *audit.Recorder

	// Optional.
	Notifier  invite.Notifier
	Security  *logger.SecurityLogger
	Metrics   *metrics.Core
	Logger    *slog.Logger
	Clock     func() time.Time
	InviteTTL time.Duration
}

// Gateway enforces tenant isolation, suspension and role policy on every call.
type Gateway struct {
	tenants   tenant.Repository
	members   member.RoleStore
	records   record.Store
	reader    *record.Reader
	invites   invite.Repository
	recorder  *audit.Recorder
	notifier  invite.Notifier
	security  *logger.SecurityLogger
	metrics   *metrics.Core
	logger    *slog.Logger
	tracer    trace.Tracer
	validate  *validator.Validate
	now       func() time.Time
	inviteTTL time.Duration
}

// New creates a gateway.
func New(d Deps) *Gateway {
	g := &Gateway{
		tenants:   d.Tenants,
		members:   d.Members,
		records:   d.Records,
		reader:    d.Reader,
		invites:   d.Invites,
		recorder:  d.Recorder,
		notifier:  d.Notifier,
		security:  d.Security,
		metrics:   d.Metrics,
		logger:    d.Logger,
		now:       d.Clock,
		inviteTTL: d.InviteTTL,
		tracer:    otel.Tracer(tracerName),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	g.logger = g.logger.With(logger.Component("gateway"))
	if g.security == nil {
		g.security = logger.NewSecurityLogger(g.logger)
	}
	if g.metrics == nil {
		g.metrics = metrics.NoopCore()
	}
	if g.notifier == nil {
		g.notifier = invite.LogNotifier{Logger: g.logger}
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.inviteTTL <= 0 {
		g.inviteTTL = invite.DefaultTTL
	}
	if g.reader == nil && g.records != nil {
		g.reader = record.NewReader(g.records, record.DefaultLimit, g.logger)
	}
	return g
}

// gate loads the actor's tenant and, for mutations, rejects a suspended tenant.
// It runs before any role lookup so that no member, the owner included, gets past it.
func (g *Gateway) gate(ctx context.Context, actor identity.Actor, action authz.Action, entity authz.Entity) (*tenant.Tenant, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	t, err := g.tenants.GetByID(ctx, actor.TenantID)
	if errors.Is(err, apperr.ErrNotFound) {
		g.security.AccessDenied(ctx, actor.TenantID, actor.UserID, string(action), string(entity))
		return nil, fmt.Errorf("%w: not a member of tenant %s", apperr.ErrForbidden, actor.TenantID)
	}
	if err != nil {
		return nil, apperr.Unavailable("get tenant", err)
	}
	if action == authz.ActionRead {
		return t, nil
	}
	if err := t.SuspensionError(); err != nil {
		g.security.SuspendedBlocked(ctx, actor.TenantID, actor.UserID, string(action), string(entity))
		return nil, err
	}
	return t, nil
}

// authorize checks the actor's role in their tenant against the permission table.
func (g *Gateway) authorize(ctx context.Context, actor identity.Actor, action authz.Action, entity authz.Entity) (*member.Member, error) {
	m, err := g.members.GetMember(ctx, actor.TenantID, actor.UserID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		g.security.AccessDenied(ctx, actor.TenantID, actor.UserID, string(action), string(entity))
		return nil, fmt.Errorf("%w: not a member of tenant %s", apperr.ErrForbidden, actor.TenantID)
	case err != nil:
		return nil, apperr.Unavailable("get member", err)
	}
	if !m.IsActive || !authz.Allowed(m.Role, action, entity) {
		g.security.AccessDenied(ctx, actor.TenantID, actor.UserID, string(action), string(entity))
		return nil, fmt.Errorf("%w: role %s may not %s %s", apperr.ErrForbidden, m.Role, action, entity)
	}
	return m, nil
}

// enter runs the gate and authorization for a call with no other input to validate.
func (g *Gateway) enter(ctx context.Context, actor identity.Actor, action authz.Action, entity authz.Entity) (*tenant.Tenant, *member.Member, error) {
	t, err := g.gate(ctx, actor, action, entity)
	if err != nil {
		return nil, nil, err
	}
	m, err := g.authorize(ctx, actor, action, entity)
	if err != nil {
		return nil, nil, err
	}
	return t, m, nil
}

// observe wraps one gateway operation in a span and the mutation instruments.
func (g *Gateway) observe(ctx context.Context, op string, entity authz.Entity, fn func(ctx context.Context) error) error {
	ctx, span := g.tracer.Start(ctx, "gateway."+op, trace.WithAttributes(
		attribute.String("entity", string(entity)),
	))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	outcome := Outcome(err)

	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("entity", string(entity)),
		attribute.String("outcome", outcome),
	)
	g.metrics.Mutations.Add(ctx, 1, attrs)
	g.metrics.MutationDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		if outcome == "unavailable" || outcome == "error" {
			g.logger.ErrorContext(ctx, "gateway operation failed",
				logger.Operation(op), logger.Entity(string(entity)), logger.Error(err))
		}
	}
	return err
}

// Outcome classifies err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, apperr.ErrTenantSuspended):
		return "suspended"
	case errors.Is(err, apperr.ErrForbidden):
		return "forbidden"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrInvariantViolation):
		return "invariant"
	case errors.Is(err, apperr.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, apperr.ErrInviteExpired):
		return "invite_expired"
	case errors.Is(err, apperr.ErrInviteAlreadyUsed):
		return "invite_used"
	case errors.Is(err, apperr.ErrStorageUnavailable):
		return "unavailable"
	}
	return "error"
}

// audit appends an entry for a committed change. It never fails the caller.
func (g *Gateway) audit(ctx context.Context, actor identity.Actor, action string, entity authz.Entity, entityID string, typ audit.ActionType, before, after any) {
	e := audit.Entry{
		TenantID:    actor.TenantID,
		ActorUserID: actor.UserID,
		ActorName:   actor.DisplayName(),
		Action:      action,
		Entity:      string(entity),
		EntityID:    entityID,
		ActionType:  typ,
		OldValue:    g.serialize(ctx, before),
		NewValue:    g.serialize(ctx, after),
	}
	g.recorder.Record(ctx, e)
}

func (g *Gateway) serialize(ctx context.Context, v any) *string {
	if v == nil {
		return nil
	}
	out, err := audit.Serialize(v)
	if err != nil {
		g.logger.WarnContext(ctx, "failed to serialize audit value", logger.Error(err))
		return nil
	}
	return out
}
