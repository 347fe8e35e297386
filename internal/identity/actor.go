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
	"fmt"
	"strings"

	"github.com/nexussuite/clubcore/internal/apperr"
)

// Principal is an authenticated identity as produced by the resolver.
// TenantID is empty for users who have not joined or created a tenant yet.
type Principal struct {
	UserID   string
	TenantID string
	Email    string
	Name     string
	Operator bool
}

// Actor is the explicit caller passed to every tenant-scoped core operation.
type Actor struct {
	UserID   string
	TenantID string
	Name     string
	Email    string
}

// Operator is a system-level administrator outside any tenant's role store.
type Operator struct {
	ID   string
	Name string
}

// Validate rejects actors missing either half of the (user, tenant) pair.
func (a Actor) Validate() error {
	if strings.TrimSpace(a.UserID) == "" || strings.TrimSpace(a.TenantID) == "" {
		return apperr.ErrUnauthenticated
	}
	return nil
}

// DisplayName returns the name recorded in audit entries.
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	if a.Email != "" {
		return a.Email
	}
	return a.UserID
}

// Actor derives the tenant-scoped actor for p.
func (p Principal) Actor() (Actor, error) {
	a := Actor{UserID: p.UserID, TenantID: p.TenantID, Name: p.Name, Email: p.Email}
	if err := a.Validate(); err != nil {
		return Actor{}, err
	}
	return a, nil
}

// AsOperator returns p as an operator, or ErrForbidden if p is not one.
func (p Principal) AsOperator() (Operator, error) {
	if p.UserID == "" {
		return Operator{}, apperr.ErrUnauthenticated
	}
	if !p.Operator {
		return Operator{}, fmt.Errorf("%w: operator privileges required", apperr.ErrForbidden)
	}
	name := p.Name
	if name == "" {
		name = p.Email
	}
	return Operator{ID: p.UserID, Name: name}, nil
}
