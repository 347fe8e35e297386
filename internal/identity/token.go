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
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nexussuite/clubcore/internal/apperr"
)

// Resolver turns an inbound credential into a Principal.
type Resolver interface {
	Resolve(token string) (Principal, error)
}

// Claims is the bearer token payload issued by the session layer.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Operator bool   `json:"operator,omitempty"`
}

// TokenResolver validates HS256 bearer tokens.
type TokenResolver struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewTokenResolver creates a resolver for tokens signed with secret.
func NewTokenResolver(secret []byte, issuer, audience string) *TokenResolver {
	return &TokenResolver{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		leeway:   30 * time.Second,
	}
}

// Resolve validates the token and returns its principal.
// Every failure maps to ErrUnauthenticated.
func (r *TokenResolver) Resolve(token string) (Principal, error) {
	if token == "" {
		return Principal{}, apperr.ErrUnauthenticated
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(r.leeway),
	}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}
	if r.audience != "" {
		opts = append(opts, jwt.WithAudience(r.audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: token has no subject", apperr.ErrUnauthenticated)
	}

	return Principal{
		UserID:   claims.Subject,
		TenantID: claims.TenantID,
		Email:    claims.Email,
		Name:     claims.Name,
		Operator: claims.Operator,
	}, nil
}

// Issue signs a token for p valid for ttl.
func (r *TokenResolver) Issue(p Principal, ttl time.Duration) (string, error) {
	if p.UserID == "" {
		return "", errors.New("principal has no user id")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    r.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TenantID: p.TenantID,
		Email:    p.Email,
		Name:     p.Name,
		Operator: p.Operator,
	}
	if r.audience != "" {
		claims.Audience = jwt.ClaimStrings{r.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
