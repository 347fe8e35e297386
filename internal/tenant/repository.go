package tenant

import (
	"context"
)

// Repository defines the interface for tenant storage.
// Lookups return apperr.ErrNotFound when the tenant does not exist.
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	List(ctx context.Context, limit, offset int) ([]*Tenant, error)
	UpdateSettings(ctx context.Context, id string, s Settings) (*Tenant, error)
	SetStatus(ctx context.Context, id string, change StatusChange) (*Tenant, error)
	// Delete removes the tenant and every tenant-scoped row, legacy rows included.
	// Audit entries are retained.
	Delete(ctx context.Context, id string) error
}
