package member

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexussuite/clubcore/internal/apperr"
)

// Role is a member's role within one tenant.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleFinance Role = "finance"
	RoleMarcom  Role = "marcom"
	RoleAnalyst Role = "analyst"
	RoleStaff   Role = "staff"
	RolePlayer  Role = "player"
)

// Roles lists every role from most to least privileged.
var Roles = []Role{
	RoleOwner, RoleAdmin, RoleManager, RoleFinance,
	RoleMarcom, RoleAnalyst, RoleStaff, RolePlayer,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole validates s as a role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", apperr.Invalid("unknown role %q", s)
	}
	return r, nil
}

// Member is a user's role-bearing relationship to a tenant.
type Member struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	UserID    string    `json:"userId"`
	Role      Role      `json:"role"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	InvitedBy string    `json:"invitedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Metadata accompanies a role assignment.
type Metadata struct {
	Email     string
	Name      string
	GrantedBy string
	// TransferFrom names the owner expected to hand over ownership when Role is owner.
	TransferFrom string
}

// RoleStore maps (tenant, user) to a role and enforces the single-owner invariant.
// Implementations must evaluate Plan and apply it atomically with respect to
// concurrent SetRole and RemoveMember calls for the same tenant.
type RoleStore interface {
	// GetMember returns apperr.ErrNotFound when the user is not a member.
	GetMember(ctx context.Context, tenantID, userID string) (*Member, error)
	SetRole(ctx context.Context, tenantID, userID string, role Role, meta Metadata) (*Member, error)
	// ListMembers orders by CreatedAt descending.
	ListMembers(ctx context.Context, tenantID string) ([]*Member, error)
	RemoveMember(ctx context.Context, tenantID, userID string) (*Member, error)
}

// GetRole returns the user's role, or false when absent.
func GetRole(ctx context.Context, store RoleStore, tenantID, userID string) (Role, bool, error) {
	m, err := store.GetMember(ctx, tenantID, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return m.Role, true, nil
}

// Plan is the outcome of evaluating a SetRole request against current state.
type Plan struct {
	// DemoteOwner is set when the current owner must become admin in the same transaction.
	DemoteOwner *Member
	// Noop is set when the target already holds the requested role.
	Noop bool
}

// PlanSetRole evaluates a role change. target is the user's current membership
// (nil when joining); owner is the tenant's current owner (nil when none).
func PlanSetRole(target, owner *Member, userID string, role Role, meta Metadata) (Plan, error) {
	if !role.Valid() {
		return Plan{}, apperr.Invalid("unknown role %q", role)
	}

	if target != nil && target.Role == RoleOwner && role != RoleOwner {
		return Plan{}, apperr.Invariant("user %s is the tenant owner; transfer ownership before changing their role", userID)
	}
	if target != nil && target.Role == role {
		return Plan{Noop: true}, nil
	}
	if role != RoleOwner || owner == nil {
		return Plan{}, nil
	}
	if owner.UserID == userID {
		return Plan{Noop: true}, nil
	}
	if meta.TransferFrom != "" && meta.TransferFrom == owner.UserID {
		return Plan{DemoteOwner: owner}, nil
	}
	return Plan{}, apperr.Invariant("tenant already has an owner (%s)", owner.UserID)
}

// CheckRemove rejects removal of the tenant owner.
func CheckRemove(m *Member) error {
	if m.Role == RoleOwner {
		return apperr.Invariant("the tenant owner cannot be removed; transfer ownership first")
	}
	return nil
}

// Apply returns a copy of target (or a fresh membership) with the role change applied.
func Apply(target *Member, tenantID, userID string, role Role, meta Metadata, newID string, now time.Time) *Member {
	var m Member
	if target != nil {
		m = *target
	} else {
		m = Member{
			ID:        newID,
			TenantID:  tenantID,
			UserID:    userID,
			IsActive:  true,
			InvitedBy: meta.GrantedBy,
			CreatedAt: now,
		}
	}
	if meta.Email != "" {
		m.Email = meta.Email
	}
	if meta.Name != "" {
		m.Name = meta.Name
	}
	m.Role = role
	m.UpdatedAt = now
	return &m
}

// Demoted returns a copy of owner reduced to admin.
func Demoted(owner *Member, now time.Time) *Member {
	m := *owner
	m.Role = RoleAdmin
	m.UpdatedAt = now
	return &m
}

func (m *Member) String() string {
	return fmt.Sprintf("%s@%s(%s)", m.UserID, m.TenantID, m.Role)
}
