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
	"github.com/nexussuite/clubcore/internal/identity"
	"github.com/nexussuite/clubcore/internal/member"
)

// ListMembers returns the actor's tenant roster of members, newest first.
func (g *Gateway) ListMembers(ctx context.Context, actor identity.Actor) ([]*member.Member, error) {
	if _, _, err := g.enter(ctx, actor, authz.ActionRead, authz.EntityMember); err != nil {
		return nil, err
	}
	members, err := g.members.ListMembers(ctx, actor.TenantID)
	if err != nil {
		return nil, apperr.Unavailable("list members", err)
	}
	return members, nil
}

// UpdateMemberRole changes a member's role. Assigning owner is an ownership
// transfer from the actor, who is demoted to admin in the same transaction.
func (g *Gateway) UpdateMemberRole(ctx context.Context, actor identity.Actor, userID string, role member.Role) (*member.Member, error) {
	var out *member.Member
	err := g.observe(ctx, "member.update_role", authz.EntityMember, func(ctx context.Context) error {
		if _, err := g.gate(ctx, actor, authz.ActionUpdate, authz.EntityMember); err != nil {
			return err
		}
		self, err := g.authorize(ctx, actor, authz.ActionUpdate, authz.EntityMember)
		if err != nil {
			return err
		}
		if !role.Valid() {
			return apperr.Invalid("unknown role %q", role)
		}
		if !authz.CanAssign(self.Role, role) {
			g.security.AccessDenied(ctx, actor.TenantID, actor.UserID, "assign:"+string(role), string(authz.EntityMember))
			return fmt.Errorf("%w: role %s may not assign %s", apperr.ErrForbidden, self.Role, role)
		}

		before, err := g.members.GetMember(ctx, actor.TenantID, userID)
		if err != nil {
			return apperr.Unavailable("get member", err)
		}
		if before.Role == member.RoleOwner && self.Role != member.RoleOwner {
			return fmt.Errorf("%w: only the owner may change the owner's role", apperr.ErrForbidden)
		}

		meta := member.Metadata{GrantedBy: actor.UserID}
		action := "Changed member role"
		if role == member.RoleOwner {
			meta.TransferFrom = actor.UserID
			action = "Transferred ownership"
		}
		out, err = g.members.SetRole(ctx, actor.TenantID, userID, role, meta)
		if err != nil {
			return apperr.Unavailable("set role", err)
		}
		g.audit(ctx, actor, action, authz.EntityMember, userID, audit.ActionUpdate, before, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransferOwnership makes userID the owner and demotes the acting owner to admin.
func (g *Gateway) TransferOwnership(ctx context.Context, actor identity.Actor, userID string) (*member.Member, error) {
	if userID == actor.UserID {
		return nil, apperr.Invalid("cannot transfer ownership to yourself")
	}
	return g.UpdateMemberRole(ctx, actor, userID, member.RoleOwner)
}

// RemoveMember removes a non-owner member from the actor's tenant.
func (g *Gateway) RemoveMember(ctx context.Context, actor identity.Actor, userID string) error {
	return g.observe(ctx, "member.remove", authz.EntityMember, func(ctx context.Context) error {
		if _, _, err := g.enter(ctx, actor, authz.ActionDelete, authz.EntityMember); err != nil {
			return err
		}
		removed, err := g.members.RemoveMember(ctx, actor.TenantID, userID)
		if err != nil {
			return apperr.Unavailable("remove member", err)
		}
		g.audit(ctx, actor, "Removed member", authz.EntityMember, userID, audit.ActionDelete, removed, nil)
		return nil
	})
}
