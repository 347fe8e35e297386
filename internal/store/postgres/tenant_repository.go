package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/record"
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

const tenantColumns = `id, name, club_tag, logo_url, primary_color, website, region,
	subscription_status, suspension_reason, suspended_at, COALESCE(suspended_by, ''),
	created_at, updated_at`

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(
		&t.ID, &t.Name, &t.ClubTag, &t.LogoURL, &t.PrimaryColor, &t.Website, &t.Region,
		&t.SubscriptionStatus, &t.SuspensionReason, &t.SuspendedAt, &t.SuspendedBy,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create creates a new tenant
func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, club_tag, logo_url, primary_color, website, region,
			subscription_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, t.ID, t.Name, t.ClubTag, t.LogoURL, t.PrimaryColor, t.Website, t.Region,
		t.SubscriptionStatus, t.CreatedAt, t.UpdatedAt)
	return mapError("create tenant", err)
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := scanTenant(r.db.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get tenant", err)
	}
	return t, nil
}

// List retrieves tenants with pagination, newest first
func (r *TenantRepository) List(ctx context.Context, limit, offset int) ([]*tenant.Tenant, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, mapError("list tenants", err)
	}
	defer rows.Close()

	var tenants []*tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, mapError("list tenants", rows.Err())
}

// UpdateSettings applies the non-nil settings
func (r *TenantRepository) UpdateSettings(ctx context.Context, id string, s tenant.Settings) (*tenant.Tenant, error) {
	t, err := scanTenant(r.db.pool.QueryRow(ctx, `
		UPDATE tenants SET
			name          = COALESCE($2, name),
			club_tag      = COALESCE($3, club_tag),
			logo_url      = COALESCE($4, logo_url),
			primary_color = COALESCE($5, primary_color),
			website       = COALESCE($6, website),
			region        = COALESCE($7, region),
			updated_at    = $8
		WHERE id = $1
		RETURNING `+tenantColumns,
		id, s.Name, s.ClubTag, s.LogoURL, s.PrimaryColor, s.Website, s.Region, time.Now().UTC()))
	if err != nil {
		return nil, mapError("update tenant settings", err)
	}
	return t, nil
}

// SetStatus writes the status and every suspension field together
func (r *TenantRepository) SetStatus(ctx context.Context, id string, change tenant.StatusChange) (*tenant.Tenant, error) {
	var suspendedBy *string
	if change.SuspendedBy != "" {
		suspendedBy = &change.SuspendedBy
	}
	t, err := scanTenant(r.db.pool.QueryRow(ctx, `
		UPDATE tenants SET
			subscription_status = $2,
			suspension_reason   = $3,
			suspended_at        = $4,
			suspended_by        = $5,
			updated_at          = $6
		WHERE id = $1
		RETURNING `+tenantColumns,
		id, change.Status, change.SuspensionReason, change.SuspendedAt, suspendedBy, time.Now().UTC()))
	if err != nil {
		return nil, mapError("update tenant status", err)
	}
	return t, nil
}

// Delete removes the tenant. Members, invites and normalized rows go by
// foreign-key cascade; legacy rows are matched on their embedded tenant id.
// The audit log has no foreign key and is kept.
func (r *TenantRepository) Delete(ctx context.Context, id string) error {
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		for _, s := range record.Schemas() {
			if !s.DualSchema {
				continue
			}
			_, err := tx.Exec(ctx, `DELETE FROM `+ident(s.Table)+` WHERE tenant_id IS NULL AND data->>$2 = $1`,
				id, record.LegacyTenantKey)
			if err != nil {
				return mapError("delete legacy "+s.Table, err)
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
		if err != nil {
			return mapError("delete tenant", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
}
