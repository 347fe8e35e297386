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

package authz

import "github.com/nexussuite/clubcore/internal/member"

// -----------------------------------------------------------------------------
// Permission Constants
// -----------------------------------------------------------------------------

const (
	// PermAll is the wildcard permission.
	PermAll = "*"

	// PermActiveMember is granted implicitly to every active member.
	PermActiveMember = "member:active"

	PermManageStaff     = "manage:staff"
	PermManageRosters   = "manage:rosters"
	PermManageMatches   = "manage:matches"
	PermManageContracts = "manage:contracts"
	PermManageCampaigns = "manage:campaigns"
	PermManageFinance   = "manage:finance"
	PermManagePayroll   = "manage:payroll"
	PermManageMembers   = "manage:members"
	PermManageInvites   = "manage:invites"
	PermManageTenant    = "manage:tenant"
	PermViewAudit       = "view:audit"

	// Owner-only permissions.
	PermAssignOwner = "assign:owner"
	PermCloseTenant = "close:tenant"
)

// -----------------------------------------------------------------------------
// Role Permission Mappings
// -----------------------------------------------------------------------------

// OwnerPermissions defines permissions for the owner role.
var OwnerPermissions = []string{
	PermAll,
}

// AdminPermissions defines permissions for the admin role.
var AdminPermissions = []string{
	PermManageStaff,
	PermManageRosters,
	PermManageMatches,
	PermManageContracts,
	PermManageCampaigns,
	PermManageFinance,
	PermManagePayroll,
	PermManageMembers,
	PermManageInvites,
	PermManageTenant,
	PermViewAudit,
}

// ManagerPermissions defines permissions for the manager role.
var ManagerPermissions = []string{
	PermManageStaff,
	PermManageRosters,
	PermManageMatches,
	PermManageContracts,
	PermManageCampaigns,
}

// FinancePermissions defines permissions for the finance role.
var FinancePermissions = []string{
	PermManageFinance,
	PermManagePayroll,
}

// MarcomPermissions defines permissions for the marcom role.
var MarcomPermissions = []string{
	PermManageCampaigns,
}

// rolePermissions is the static role table. Analyst, staff and player are read-only.
var rolePermissions = map[member.Role][]string{
	member.RoleOwner:   OwnerPermissions,
	member.RoleAdmin:   AdminPermissions,
	member.RoleManager: ManagerPermissions,
	member.RoleFinance: FinancePermissions,
	member.RoleMarcom:  MarcomPermissions,
	member.RoleAnalyst: nil,
	member.RoleStaff:   nil,
	member.RolePlayer:  nil,
}

// Permissions returns the permissions granted to role.
func Permissions(role member.Role) []string {
	return rolePermissions[role]
}

// HasPermission checks if the role holds a specific permission
func HasPermission(role member.Role, permission string) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	if permission == PermActiveMember {
		return true
	}
	for _, p := range perms {
		if p == PermAll || p == permission {
			return true
		}
	}
	return false
}
