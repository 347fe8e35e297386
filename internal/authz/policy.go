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

// Package authz holds the static permission table consulted by the mutation gateway.
package authz

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nexussuite/clubcore/internal/member"
)

// Action is the kind of operation requested on an entity.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ParseAction validates a mutating action name.
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return a, true
	}
	return "", false
}

// Entity names the type of object an action targets. Domain record types use
// their record type name.
type Entity string

const (
	EntityStaff        Entity = "staff"
	EntityPayroll      Entity = "payroll"
	EntityMatch        Entity = "match"
	EntityContract     Entity = "contract"
	EntityCampaign     Entity = "campaign"
	EntityWallet       Entity = "wallet"
	EntityTransaction  Entity = "transaction"
	EntityRoster       Entity = "roster"
	EntityRosterMember Entity = "roster_member"

	EntityMember Entity = "member"
	EntityInvite Entity = "invite"
	EntityTenant Entity = "tenant"
	EntityAudit  Entity = "audit"
)

type rule map[Action]string

func manage(perm string) rule {
	return rule{
		ActionRead:   PermActiveMember,
		ActionCreate: perm,
		ActionUpdate: perm,
		ActionDelete: perm,
	}
}

// memberCreates lets every active member create while keeping edits privileged.
func memberCreates(perm string) rule {
	r := manage(perm)
	r[ActionCreate] = PermActiveMember
	return r
}

// table maps (entity, action) to the permission required. Missing pairs deny.
var table = map[Entity]rule{
	EntityStaff:        manage(PermManageStaff),
	EntityRoster:       manage(PermManageRosters),
	EntityRosterMember: manage(PermManageRosters),
	EntityMatch:        memberCreates(PermManageMatches),
	EntityContract:     memberCreates(PermManageContracts),
	EntityPayroll:      memberCreates(PermManagePayroll),
	EntityCampaign:     manage(PermManageCampaigns),
	EntityWallet:       manage(PermManageFinance),
	EntityTransaction:  manage(PermManageFinance),

	EntityMember: {
		ActionRead:   PermActiveMember,
		ActionUpdate: PermManageMembers,
		ActionDelete: PermManageMembers,
	},
	EntityInvite: {
		ActionRead:   PermManageInvites,
		ActionCreate: PermManageInvites,
		ActionDelete: PermManageInvites,
	},
	EntityTenant: {
		ActionRead:   PermActiveMember,
		ActionUpdate: PermManageTenant,
		ActionDelete: PermCloseTenant,
	},
	EntityAudit: {
		ActionRead: PermViewAudit,
	},
}

// Allowed reports whether role may perform action on entity.
func Allowed(role member.Role, action Action, entity Entity) bool {
	perm, ok := table[entity][action]
	if !ok {
		return false
	}
	return HasPermission(role, perm)
}

// CanAssign reports whether actor may grant target. Granting owner is owner-only.
func CanAssign(actor, target member.Role) bool {
	if target == member.RoleOwner {
		return HasPermission(actor, PermAssignOwner)
	}
	return HasPermission(actor, PermManageMembers)
}

// Known reports whether entity has any rule.
func Known(entity Entity) bool {
	_, ok := table[entity]
	return ok
}

// Render writes the full role x (entity, action) matrix, one line per entity and action.
func Render(w io.Writer) error {
	entities := make([]string, 0, len(table))
	for e := range table {
		entities = append(entities, string(e))
	}
	sort.Strings(entities)

	actions := []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}
	for _, e := range entities {
		for _, a := range actions {
			if _, ok := table[Entity(e)][a]; !ok {
				continue
			}
			var allowed []string
			for _, r := range member.Roles {
				if Allowed(r, a, Entity(e)) {
					allowed = append(allowed, string(r))
				}
			}
			if _, err := fmt.Fprintf(w, "%-14s %-7s %s\n", e, a, strings.Join(allowed, ",")); err != nil {
				return err
			}
		}
	}
	return nil
}
