// Package invite models pending membership offers and their lazy expiry.
package invite

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nexussuite/clubcore/internal/member"
	"github.com/nexussuite/clubcore/internal/observability/logger"
	"golang.org/x/crypto/blake2b"
)

// DefaultTTL is how long an invite stays acceptable.
const DefaultTTL = 7 * 24 * time.Hour

// Status is the lifecycle state of an invite.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	// StatusExpired is computed at read time and never stored.
	StatusExpired Status = "expired"
)

// Invite is a pending membership offer.
type Invite struct {
	ID       string      `json:"id"`
	TenantID string      `json:"tenantId"`
	Email    string      `json:"email"`
	Role     member.Role `json:"role"`
	// Token is only populated on the invite returned from creation.
	Token       string     `json:"token,omitempty"`
	TokenHash   string     `json:"-"`
	Status      Status     `json:"status"`
	InvitedBy   string     `json:"invitedBy"`
	InviterName string     `json:"inviterName"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	AcceptedBy  string     `json:"acceptedBy,omitempty"`
}

// EffectiveStatus applies lazy expiry: a pending invite past ExpiresAt reads as expired.
func (i *Invite) EffectiveStatus(now time.Time) Status {
	if i.Status == StatusPending && now.After(i.ExpiresAt) {
		return StatusExpired
	}
	return i.Status
}

// View returns a copy carrying the effective status and no token.
func (i *Invite) View(now time.Time) *Invite {
	c := *i
	c.Status = i.EffectiveStatus(now)
	c.Token = ""
	return &c
}

// NormalizeEmail lowercases and trims an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewToken returns an unguessable, URL-safe token.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken returns the stored lookup key for a token.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Repository persists invites.
type Repository interface {
	Create(ctx context.Context, inv *Invite) error
	// GetByID returns apperr.ErrNotFound when absent from the tenant.
	GetByID(ctx context.Context, tenantID, id string) (*Invite, error)
	// GetByTokenHash returns apperr.ErrNotFound for unknown tokens.
	GetByTokenHash(ctx context.Context, hash string) (*Invite, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*Invite, error)
	// MarkAccepted moves a pending invite to accepted; false if it was no longer pending.
	MarkAccepted(ctx context.Context, id, userID string, at time.Time) (bool, error)
	// Reopen returns an invite accepted by userID to pending. It undoes a claim
	// whose membership write failed.
	Reopen(ctx context.Context, id, userID string) error
	// DeletePending removes a pending invite; false if it was not pending.
	DeletePending(ctx context.Context, tenantID, id string) (bool, error)
}

// Event is published when an invite is created.
type Event struct {
	TenantID    string
	InviteID    string
	Email       string
	Token       string
	Role        member.Role
	InviterName string
	ExpiresAt   time.Time
}

// Notifier delivers invite emails. Calls are fire-and-forget.
type Notifier interface {
	InviteCreated(ctx context.Context, ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event)

func (f NotifierFunc) InviteCreated(ctx context.Context, ev Event) { f(ctx, ev) }

// LogNotifier logs invite events without the token.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) InviteCreated(ctx context.Context, ev Event) {
	l := n.Logger
	if l == nil {
		l = slog.Default()
	}
	l.InfoContext(ctx, "invite created",
		logger.TenantID(ev.TenantID),
		slog.String("invite_id", ev.InviteID),
		slog.String("email", ev.Email),
		logger.Role(string(ev.Role)),
		slog.Time("expires_at", ev.ExpiresAt),
	)
}
