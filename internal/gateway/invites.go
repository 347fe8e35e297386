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
	"fmt"

	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/audit"
	"github.com/nexussuite/clubcore/internal/authz"
	"github.com/nexussuite/clubcore/internal/id"
	"github.com/nexussuite/clubcore/internal/identity"
	"github.com/nexussuite/clubcore/internal/invite"
	"github.com/nexussuite/clubcore/internal/member"
	"github.com/nexussuite/clubcore/internal/observability/logger"
)

// InviteMember creates a pending invite. The returned invite is the only
// place the plain token ever appears.
func (g *Gateway) InviteMember(ctx context.Context, actor identity.Actor, email string, role member.Role) (*invite.Invite, error) {
	var out *invite.Invite
	err := g.observe(ctx, "invite.create", authz.EntityInvite, func(ctx context.Context) error {
		if _, err := g.gate(ctx, actor, authz.ActionCreate, authz.EntityInvite); err != nil {
			return err
		}
		self, err := g.authorize(ctx, actor, authz.ActionCreate, authz.EntityInvite)
		if err != nil {
			return err
		}
		email = invite.NormalizeEmail(email)
		if err := g.validate.Var(email, "required,email"); err != nil {
			return apperr.Invalid("invalid email address %q", email)
		}
		if !role.Valid() {
			return apperr.Invalid("unknown role %q", role)
		}
		if !authz.CanAssign(self.Role, role) {
			g.security.AccessDenied(ctx, actor.TenantID, actor.UserID, "invite:"+string(role), string(authz.EntityInvite))
			return fmt.Errorf("%w: role %s may not invite %s", apperr.ErrForbidden, self.Role, role)
		}

		members, err := g.members.ListMembers(ctx, actor.TenantID)
		if err != nil {
			return apperr.Unavailable("list members", err)
		}
		for _, m := range members {
			if invite.NormalizeEmail(m.Email) == email {
				return apperr.Invariant("%s is already a member", email)
			}
		}

		token, err := invite.NewToken()
		if err != nil {
			return err
		}
		now := g.now().UTC()
		inv := &invite.Invite{
			ID:          id.NewUUIDv7(),
			TenantID:    actor.TenantID,
			Email:       email,
			Role:        role,
			TokenHash:   invite.HashToken(token),
			Status:      invite.StatusPending,
			InvitedBy:   actor.UserID,
			InviterName: actor.DisplayName(),
			ExpiresAt:   now.Add(g.inviteTTL),
			CreatedAt:   now,
		}
		if err := g.invites.Create(ctx, inv); err != nil {
			return apperr.Unavailable("create invite", err)
		}
		g.audit(ctx, actor, "Invited member", authz.EntityInvite, inv.ID, audit.ActionCreate, nil, inv.View(now))

		ev := invite.Event{
			TenantID:    inv.TenantID,
			InviteID:    inv.ID,
			Email:       inv.Email,
			Token:       token,
			Role:        inv.Role,
			InviterName: inv.InviterName,
			ExpiresAt:   inv.ExpiresAt,
		}
		go g.notifier.InviteCreated(context.WithoutCancel(ctx), ev)

		out = inv.View(now)
		out.Token = token
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListInvites returns the tenant's invites with their effective status.
func (g *Gateway) ListInvites(ctx context.Context, actor identity.Actor) ([]*invite.Invite, error) {
	if _, _, err := g.enter(ctx, actor, authz.ActionRead, authz.EntityInvite); err != nil {
		return nil, err
	}
	invites, err := g.invites.ListByTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, apperr.Unavailable("list invites", err)
	}
	now := g.now()
	out := make([]*invite.Invite, len(invites))
	for i, inv := range invites {
		out[i] = inv.View(now)
	}
	return out, nil
}

// CancelInvite deletes a pending invite. Cancelling an accepted or expired
// invite changes nothing and succeeds.
func (g *Gateway) CancelInvite(ctx context.Context, actor identity.Actor, inviteID string) error {
	return g.observe(ctx, "invite.cancel", authz.EntityInvite, func(ctx context.Context) error {
		if _, _, err := g.enter(ctx, actor, authz.ActionDelete, authz.EntityInvite); err != nil {
			return err
		}
		inv, err := g.invites.GetByID(ctx, actor.TenantID, inviteID)
		if err != nil {
			return apperr.Unavailable("get invite", err)
		}
		now := g.now()
		if inv.EffectiveStatus(now) != invite.StatusPending {
			return nil
		}
		deleted, err := g.invites.DeletePending(ctx, actor.TenantID, inviteID)
		if err != nil {
			return apperr.Unavailable("delete invite", err)
		}
		if !deleted {
			return nil
		}
		g.audit(ctx, actor, "Cancelled invite", authz.EntityInvite, inv.ID, audit.ActionDelete, inv.View(now), nil)
		return nil
	})
}

// AcceptInvite redeems token for the authenticated principal and returns the
// resulting membership. Expiry is evaluated here and never written back.
func (g *Gateway) AcceptInvite(ctx context.Context, p identity.Principal, token string) (*member.Member, error) {
	var out *member.Member
	err := g.observe(ctx, "invite.accept", authz.EntityInvite, func(ctx context.Context) error {
		if p.UserID == "" {
			return apperr.ErrUnauthenticated
		}
		if token == "" {
			return apperr.ErrNotFound
		}
		inv, err := g.invites.GetByTokenHash(ctx, invite.HashToken(token))
		if err != nil {
			return apperr.Unavailable("get invite", err)
		}
		now := g.now().UTC()
		switch inv.EffectiveStatus(now) {
		case invite.StatusAccepted:
			return apperr.ErrInviteAlreadyUsed
		case invite.StatusExpired:
			return apperr.ErrInviteExpired
		}

		actor := identity.Actor{UserID: p.UserID, TenantID: inv.TenantID, Name: p.Name, Email: p.Email}
		if _, err := g.gate(ctx, actor, authz.ActionCreate, authz.EntityMember); err != nil {
			return err
		}
		if p.TenantID != "" && p.TenantID != inv.TenantID {
			g.security.AccessDenied(ctx, inv.TenantID, p.UserID, "accept", string(authz.EntityInvite))
			return fmt.Errorf("%w: user already belongs to another tenant", apperr.ErrForbidden)
		}
		if invite.NormalizeEmail(p.Email) != inv.Email {
			g.security.AccessDenied(ctx, inv.TenantID, p.UserID, "accept", string(authz.EntityInvite))
			return fmt.Errorf("%w: invite was issued to a different email address", apperr.ErrForbidden)
		}

		// The claim precedes the membership write; a lost race writes nothing.
		accepted, err := g.invites.MarkAccepted(ctx, inv.ID, p.UserID, now)
		if err != nil {
			return apperr.Unavailable("accept invite", err)
		}
		if !accepted {
			return apperr.ErrInviteAlreadyUsed
		}

		meta := member.Metadata{Email: p.Email, Name: p.Name, GrantedBy: inv.InvitedBy}
		if inv.Role == member.RoleOwner {
			meta.TransferFrom = inv.InvitedBy
		}
		m, err := g.members.SetRole(ctx, inv.TenantID, p.UserID, inv.Role, meta)
		if err != nil {
			if rerr := g.invites.Reopen(context.WithoutCancel(ctx), inv.ID, p.UserID); rerr != nil {
				g.logger.ErrorContext(ctx, "failed to reopen invite after membership write failed",
					logger.TenantID(inv.TenantID), logger.EntityID(inv.ID), logger.Error(rerr))
			}
			return apperr.Unavailable("set role", err)
		}
		g.audit(ctx, actor, "Accepted invite", authz.EntityMember, p.UserID, audit.ActionCreate, nil, m)
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
