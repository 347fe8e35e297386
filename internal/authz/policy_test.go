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

import (
	"bytes"
	"testing"

	"github.com/nexussuite/clubcore/internal/member"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates representative rows of the static permission table.
// Scope: Unit Test
// Security: Role-gated mutation
// Expected: Each (role, action, entity) resolves to the documented decision.
// Test Case ID: AUZ-01
func TestAllowed(t *testing.T) {
	tests := []struct {
		role   member.Role
		action Action
		entity Entity
		want   bool
	}{
		{member.RolePlayer, ActionCreate, EntityMatch, true},
		{member.RolePlayer, ActionCreate, EntityContract, true},
		{member.RoleAnalyst, ActionCreate, EntityPayroll, true},
		{member.RolePlayer, ActionUpdate, EntityMatch, false},
		{member.RoleManager, ActionUpdate, EntityMatch, true},
		{member.RoleFinance, ActionDelete, EntityPayroll, true},
		{member.RoleManager, ActionDelete, EntityPayroll, false},
		{member.RoleMarcom, ActionCreate, EntityCampaign, true},
		{member.RoleMarcom, ActionCreate, EntityWallet, false},
		{member.RoleFinance, ActionCreate, EntityWallet, true},
		{member.RoleStaff, ActionRead, EntityWallet, true},
		{member.RoleAdmin, ActionUpdate, EntityMember, true},
		{member.RoleManager, ActionUpdate, EntityMember, false},
		{member.RoleAdmin, ActionUpdate, EntityTenant, true},
		{member.RoleAdmin, ActionDelete, EntityTenant, false},
		{member.RoleOwner, ActionDelete, EntityTenant, true},
		{member.RoleAdmin, ActionCreate, EntityInvite, true},
		{member.RoleManager, ActionCreate, EntityInvite, false},
		{member.RoleAnalyst, ActionRead, EntityAudit, false},
		{member.RoleOwner, ActionCreate, EntityMember, false},
		{member.RoleOwner, ActionCreate, Entity("spaceship"), false},
		{member.Role("ghost"), ActionRead, EntityMatch, false},
	}

	for _, tt := range tests {
		name := string(tt.role) + "/" + string(tt.action) + "/" + string(tt.entity)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.role, tt.action, tt.entity))
		})
	}
}

// TestPurpose: Validates that only the owner may grant the owner role.
// Scope: Unit Test
// Security: Tenant ownership integrity
// Expected: Admin can grant non-owner roles but never owner.
// Test Case ID: AUZ-02
func TestCanAssign(t *testing.T) {
	assert.True(t, CanAssign(member.RoleOwner, member.RoleOwner))
	assert.False(t, CanAssign(member.RoleAdmin, member.RoleOwner))
	assert.True(t, CanAssign(member.RoleAdmin, member.RoleManager))
	assert.False(t, CanAssign(member.RoleManager, member.RolePlayer))
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("update")
	assert.True(t, ok)
	assert.Equal(t, ActionUpdate, a)

	_, ok = ParseAction("read")
	assert.False(t, ok)
}

func TestPermissionMatrixGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf))

	g := goldie.New(t)
	g.Assert(t, "permission_matrix", buf.Bytes())
}
