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

package gateway

import (
	"context"

	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/audit"
	"github.com/nexussuite/clubcore/internal/authz"
	"github.com/nexussuite/clubcore/internal/identity"
	"github.com/nexussuite/clubcore/internal/tenant"
)

// GetTenant returns the actor's tenant.
func (g *Gateway) GetTenant(ctx context.Context, actor identity.Actor) (*tenant.Tenant, error) {
	t, _, err := g.enter(ctx, actor, authz.ActionRead, authz.EntityTenant)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTenantSettings applies a partial profile update to the actor's tenant.
func (g *Gateway) UpdateTenantSettings(ctx context.Context, actor identity.Actor, payload map[string]any) (*tenant.Tenant, error) {
	var out *tenant.Tenant
	err := g.observe(ctx, "tenant.update", authz.EntityTenant, func(ctx context.Context) error {
		before, _, err := g.enter(ctx, actor, authz.ActionUpdate, authz.EntityTenant)
		if err != nil {
			return err
		}
		settings, err := tenant.ParseSettings(payload)
		if err != nil {
			return err
		}
		out, err = g.tenants.UpdateSettings(ctx, actor.TenantID, settings)
		if err != nil {
			return apperr.Unavailable("update tenant settings", err)
		}
		g.audit(ctx, actor, "Updated tenant settings", authz.EntityTenant, actor.TenantID, audit.ActionUpdate, before, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CloseTenant cancels the actor's tenant subscription. Data is kept until an
// operator deletes the tenant.
func (g *Gateway) CloseTenant(ctx context.Context, actor identity.Actor) (*tenant.Tenant, error) {
	var out *tenant.Tenant
	err := g.observe(ctx, "tenant.close", authz.EntityTenant, func(ctx context.Context) error {
		before, _, err := g.enter(ctx, actor, authz.ActionDelete, authz.EntityTenant)
		if err != nil {
			return err
		}
		out, err = g.tenants.SetStatus(ctx, actor.TenantID, tenant.StatusChange{Status: tenant.StatusCanceled})
		if err != nil {
			return apperr.Unavailable("close tenant", err)
		}
		g.audit(ctx, actor, "Closed tenant", authz.EntityTenant, actor.TenantID, audit.ActionDelete, before, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListAudit returns the actor's tenant audit trail, newest first.
func (g *Gateway) ListAudit(ctx context.Context, actor identity.Actor, limit int) ([]*audit.Entry, error) {
	if _, _, err := g.enter(ctx, actor, authz.ActionRead, authz.EntityAudit); err != nil {
		return nil, err
	}
	return g.recorder.List(ctx, actor.TenantID, limit)
}
