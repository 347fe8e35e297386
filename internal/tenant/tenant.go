package tenant

import (
	"time"

	"github.com/nexussuite/clubcore/internal/apperr"
)

// SubscriptionStatus is the billing/administrative state of a tenant.
type SubscriptionStatus string

const (
	StatusTrial     SubscriptionStatus = "trial"
	StatusActive    SubscriptionStatus = "active"
	StatusSuspended SubscriptionStatus = "suspended"
	StatusCanceled  SubscriptionStatus = "canceled"
)

// Valid reports whether s is a known status.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusSuspended, StatusCanceled:
		return true
	}
	return false
}

// DefaultSuspensionReason is recorded when an operator gives none.
const DefaultSuspensionReason = "Administrative action"

// Tenant represents a club organization, the unit of data isolation.
type Tenant struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	ClubTag            string             `json:"clubTag,omitempty"`
	LogoURL            string             `json:"logoUrl,omitempty"`
	PrimaryColor       string             `json:"primaryColor,omitempty"`
	Website            string             `json:"website,omitempty"`
	Region             string             `json:"region,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	SuspensionReason   *string            `json:"suspensionReason,omitempty"`
	SuspendedAt        *time.Time         `json:"suspendedAt,omitempty"`
	SuspendedBy        string             `json:"suspendedBy,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// IsSuspended reports whether the tenant accepts no mutations.
func (t *Tenant) IsSuspended() bool {
	return t.SubscriptionStatus == StatusSuspended
}

// SuspensionError returns the gate error for a suspended tenant, or nil.
func (t *Tenant) SuspensionError() error {
	if !t.IsSuspended() {
		return nil
	}
	reason := DefaultSuspensionReason
	if t.SuspensionReason != nil && *t.SuspensionReason != "" {
		reason = *t.SuspensionReason
	}
	return apperr.Suspended(reason, t.SuspendedAt)
}

// StatusChange sets the subscription status and every suspension field together.
type StatusChange struct {
	Status           SubscriptionStatus
	SuspensionReason *string
	SuspendedAt      *time.Time
	SuspendedBy      string
}
