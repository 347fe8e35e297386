package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/tenant"
)

// TenantRepository implements tenant.Repository
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func cloneTenant(t *tenant.Tenant) *tenant.Tenant {
	c := *t
	if t.SuspensionReason != nil {
		r := *t.SuspensionReason
		c.SuspensionReason = &r
	}
	if t.SuspendedAt != nil {
		at := *t.SuspendedAt
		c.SuspendedAt = &at
	}
	return &c
}

func (r *TenantRepository) Create(_ context.Context, t *tenant.Tenant) error {
	txn := r.db.write()
	defer txn.Abort()

	existing, err := txn.First(tableTenants, indexID, t.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Invariant("tenant %s already exists", t.ID)
	}
	if err := txn.Insert(tableTenants, cloneTenant(t)); err != nil {
		return fmt.Errorf("failed to insert tenant: %w", err)
	}
	txn.Commit()
	return nil
}

func (r *TenantRepository) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	raw, err := r.db.read().First(tableTenants, indexID, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, apperr.ErrNotFound
	}
	return cloneTenant(raw.(*tenant.Tenant)), nil
}

func (r *TenantRepository) List(_ context.Context, limit, offset int) ([]*tenant.Tenant, error) {
	it, err := r.db.read().Get(tableTenants, indexID)
	if err != nil {
		return nil, err
	}
	all := collect[*tenant.Tenant](it, nil)
	newestFirst(all, func(t *tenant.Tenant) time.Time { return t.CreatedAt }, func(t *tenant.Tenant) string { return t.ID })

	if offset >= len(all) {
		return []*tenant.Tenant{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	out := make([]*tenant.Tenant, len(all))
	for i, t := range all {
		out[i] = cloneTenant(t)
	}
	return out, nil
}

func (r *TenantRepository) UpdateSettings(_ context.Context, id string, s tenant.Settings) (*tenant.Tenant, error) {
	return r.update(id, func(t *tenant.Tenant) *tenant.Tenant { return s.Apply(t) })
}

func (r *TenantRepository) SetStatus(_ context.Context, id string, change tenant.StatusChange) (*tenant.Tenant, error) {
	return r.update(id, func(t *tenant.Tenant) *tenant.Tenant {
		c := cloneTenant(t)
		c.SubscriptionStatus = change.Status
		c.SuspensionReason = change.SuspensionReason
		c.SuspendedAt = change.SuspendedAt
		c.SuspendedBy = change.SuspendedBy
		return c
	})
}

func (r *TenantRepository) update(id string, fn func(*tenant.Tenant) *tenant.Tenant) (*tenant.Tenant, error) {
	txn := r.db.write()
	defer txn.Abort()

	raw, err := txn.First(tableTenants, indexID, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, apperr.ErrNotFound
	}
	next := fn(raw.(*tenant.Tenant))
	next.UpdatedAt = r.db.now().UTC()
	if err := txn.Insert(tableTenants, next); err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}
	txn.Commit()
	return cloneTenant(next), nil
}

// Delete removes the tenant with its members, invites and records, including
// legacy rows that name the tenant only inside their data. Audit entries stay.
func (r *TenantRepository) Delete(_ context.Context, id string) error {
	txn := r.db.write()
	defer txn.Abort()

	raw, err := txn.First(tableTenants, indexID, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return apperr.ErrNotFound
	}
	if err := txn.Delete(tableTenants, raw); err != nil {
		return err
	}
	for _, table := range []string{tableMembers, tableInvites} {
		if _, err := txn.DeleteAll(table, indexTenant, id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}

	it, err := txn.Get(tableRows, indexID)
	if err != nil {
		return err
	}
	doomed := collect[*storedRow](it, func(sr *storedRow) bool { return sr.belongsTo(id) })
	for _, sr := range doomed {
		if err := txn.Delete(tableRows, sr); err != nil {
			return err
		}
	}
	txn.Commit()
	return nil
}
