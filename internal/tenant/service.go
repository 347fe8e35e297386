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

package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/audit"
	"github.com/nexussuite/clubcore/internal/id"
	"github.com/nexussuite/clubcore/internal/identity"
	"github.com/nexussuite/clubcore/internal/member"
	"github.com/nexussuite/clubcore/internal/observability/logger"
)

const entityTenant = "tenant"

// Service provides tenant lifecycle operations outside the tenant's own role
// store: signup and operator administration.
type Service struct {
	repo     Repository
	members  member.RoleStore
	recorder *audit.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new tenant service
func NewService(repo Repository, members member.RoleStore, recorder *audit.Recorder) *Service {
	return &Service{
		repo:     repo,
		members:  members,
		recorder: recorder,
		logger:   slog.Default().With(logger.Component("tenant")),
		now:      time.Now,
	}
}

// CreateTenant creates a tenant in trial status with the caller as its owner.
func (s *Service) CreateTenant(ctx context.Context, p identity.Principal, name string) (*Tenant, error) {
	if p.UserID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("tenant name is required")
	}
	if p.TenantID != "" {
		return nil, apperr.Invariant("user %s already belongs to a tenant", p.UserID)
	}

	now := s.now().UTC()
	t := &Tenant{
		ID:                 id.NewUUIDv7(),
		Name:               name,
		SubscriptionStatus: StatusTrial,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, apperr.Unavailable("create tenant", err)
	}

	owner, err := s.members.SetRole(ctx, t.ID, p.UserID, member.RoleOwner, member.Metadata{
		Email:     p.Email,
		Name:      p.Name,
		GrantedBy: p.UserID,
	})
	if err != nil {
		if derr := s.repo.Delete(context.WithoutCancel(ctx), t.ID); derr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back tenant after owner assignment failed",
				logger.TenantID(t.ID), logger.Error(derr))
		}
		return nil, fmt.Errorf("failed to assign tenant owner: %w", err)
	}

	actor := identity.Actor{UserID: p.UserID, TenantID: t.ID, Name: p.Name, Email: p.Email}
	s.audit(ctx, t.ID, actor.UserID, actor.DisplayName(), "Created tenant", audit.ActionCreate, nil, t)
	s.audit(ctx, t.ID, actor.UserID, actor.DisplayName(), "Added member", audit.ActionCreate, nil, owner)
	return t, nil
}

// GetTenant retrieves a tenant by ID
func (s *Service) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Unavailable("get tenant", err)
	}
	return t, nil
}

// List lists tenants with pagination for operators.
func (s *Service) List(ctx context.Context, op identity.Operator, limit, offset int) ([]*Tenant, error) {
	if op.ID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	tenants, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Unavailable("list tenants", err)
	}
	return tenants, nil
}

// Suspend blocks every mutation in the tenant until an operator reactivates it.
func (s *Service) Suspend(ctx context.Context, op identity.Operator, tenantID, reason string) (*Tenant, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultSuspensionReason
	}
	now := s.now().UTC()
	return s.transition(ctx, op, tenantID, "Suspended tenant", StatusChange{
		Status:           StatusSuspended,
		SuspensionReason: &reason,
		SuspendedAt:      &now,
		SuspendedBy:      op.ID,
	})
}

// Reactivate clears the suspension and returns the tenant to active.
// It is the only way out of suspended and is not itself subject to the suspension gate.
func (s *Service) Reactivate(ctx context.Context, op identity.Operator, tenantID string) (*Tenant, error) {
	return s.transition(ctx, op, tenantID, "Reactivated tenant", StatusChange{Status: StatusActive})
}

// SyncSubscription applies a billing-provider status transition.
func (s *Service) SyncSubscription(ctx context.Context, op identity.Operator, tenantID string, status SubscriptionStatus) (*Tenant, error) {
	if !status.Valid() {
		return nil, apperr.Invalid("unknown subscription status %q", status)
	}
	if status == StatusSuspended {
		return s.Suspend(ctx, op, tenantID, "Subscription payment failed")
	}
	return s.transition(ctx, op, tenantID, "Synced subscription status", StatusChange{Status: status})
}

// Delete removes the tenant and all of its data. The audit trail is retained.
func (s *Service) Delete(ctx context.Context, op identity.Operator, tenantID string) error {
	if op.ID == "" {
		return apperr.ErrUnauthenticated
	}
	before, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return apperr.Unavailable("get tenant", err)
	}
	if err := s.repo.Delete(ctx, tenantID); err != nil {
		return apperr.Unavailable("delete tenant", err)
	}
	s.logger.WarnContext(ctx, "tenant deleted",
		logger.TenantID(tenantID), logger.OperatorID(op.ID))
	s.audit(ctx, tenantID, op.ID, op.Name, "Deleted tenant", audit.ActionDelete, before, nil)
	return nil
}

func (s *Service) transition(ctx context.Context, op identity.Operator, tenantID, action string, change StatusChange) (*Tenant, error) {
	if op.ID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	before, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, apperr.Unavailable("get tenant", err)
	}
	after, err := s.repo.SetStatus(ctx, tenantID, change)
	if err != nil {
		return nil, apperr.Unavailable("update tenant status", err)
	}
	s.logger.InfoContext(ctx, "tenant status changed",
		logger.TenantID(tenantID),
		logger.OperatorID(op.ID),
		slog.String("from", string(before.SubscriptionStatus)),
		slog.String("to", string(after.SubscriptionStatus)),
	)
	s.audit(ctx, tenantID, op.ID, op.Name, action, audit.ActionUpdate, before, after)
	return after, nil
}

func (s *Service) audit(ctx context.Context, tenantID, actorID, actorName, action string, typ audit.ActionType, before, after any) {
	e := audit.Entry{
		TenantID:    tenantID,
		ActorUserID: actorID,
		ActorName:   actorName,
		Action:      action,
		Entity:      entityTenant,
		EntityID:    tenantID,
		ActionType:  typ,
	}
	switch v := after.(type) {
	case *member.Member:
		e.Entity = "member"
		e.EntityID = v.UserID
	}
	e.OldValue = s.serialize(ctx, before)
	e.NewValue = s.serialize(ctx, after)
	s.recorder.Record(ctx, e)
}

func (s *Service) serialize(ctx context.Context, v any) *string {
	if v == nil {
		return nil
	}
	out, err := audit.Serialize(v)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to serialize audit value", logger.Error(err))
		return nil
	}
	return out
}
