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

package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// TestPurpose: Validates that a signed token resolves to the principal it was issued for.
// Scope: Unit Test
// Security: Identity resolution
// Expected: Subject, tenant and operator flag survive the round trip.
// Test Case ID: IDN-01
func TestTokenResolver_IssueAndResolve(t *testing.T) {
	r := NewTokenResolver(testSecret, "clubcore", "clubcore-api")

	tok, err := r.Issue(Principal{UserID: "u1", TenantID: "t1", Email: "a@club.gg", Name: "Ada"}, time.Minute)
	require.NoError(t, err)

	p, err := r.Resolve(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "t1", p.TenantID)
	assert.Equal(t, "Ada", p.Name)
	assert.False(t, p.Operator)

	actor, err := p.Actor()
	require.NoError(t, err)
	assert.Equal(t, Actor{UserID: "u1", TenantID: "t1", Name: "Ada", Email: "a@club.gg"}, actor)
}

// TestPurpose: Validates that bad credentials never produce a principal.
// Scope: Unit Test
// Security: Identity resolution
// Expected: ErrUnauthenticated for every malformed, expired or foreign token.
// Test Case ID: IDN-02
func TestTokenResolver_Rejects(t *testing.T) {
	r := NewTokenResolver(testSecret, "clubcore", "clubcore-api")
	other := NewTokenResolver([]byte("ffffffffffffffffffffffffffffffff"), "clubcore", "clubcore-api")

	foreign, err := other.Issue(Principal{UserID: "u1"}, time.Minute)
	require.NoError(t, err)

	expired, err := r.Issue(Principal{UserID: "u1"}, -time.Hour)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong key", foreign},
		{"expired", expired},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.token)
			assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
		})
	}
}

func TestPrincipal_ActorAndOperator(t *testing.T) {
	_, err := Principal{UserID: "u1"}.Actor()
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = Principal{UserID: "u1", TenantID: "t1"}.AsOperator()
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	op, err := Principal{UserID: "ops-1", Email: "ops@nexus.gg", Operator: true}.AsOperator()
	require.NoError(t, err)
	assert.Equal(t, Operator{ID: "ops-1", Name: "ops@nexus.gg"}, op)

	assert.Equal(t, "u1", Actor{UserID: "u1"}.DisplayName())
}
