package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nexussuite/clubcore/internal/invite"
)

// InviteRepository implements invite.Repository. Only token hashes are stored.
type InviteRepository struct {
	db *DB
}

// NewInviteRepository creates a new invite repository
func NewInviteRepository(db *DB) *InviteRepository {
	return &InviteRepository{db: db}
}

const inviteColumns = `id, tenant_id, email, role, token_hash, status, invited_by, inviter_name,
	expires_at, created_at, accepted_at, COALESCE(accepted_by, '')`

func scanInvite(row pgx.Row) (*invite.Invite, error) {
	var inv invite.Invite
	if err := row.Scan(&inv.ID, &inv.TenantID, &inv.Email, &inv.Role, &inv.TokenHash, &inv.Status,
		&inv.InvitedBy, &inv.InviterName, &inv.ExpiresAt, &inv.CreatedAt, &inv.AcceptedAt, &inv.AcceptedBy); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InviteRepository) Create(ctx context.Context, inv *invite.Invite) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO invites (id, tenant_id, email, role, token_hash, status, invited_by, inviter_name, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, inv.ID, inv.TenantID, inv.Email, inv.Role, inv.TokenHash, inv.Status,
		inv.InvitedBy, inv.InviterName, inv.ExpiresAt, inv.CreatedAt)
	return mapError("create invite", err)
}

func (r *InviteRepository) GetByID(ctx context.Context, tenantID, id string) (*invite.Invite, error) {
	inv, err := scanInvite(r.db.pool.QueryRow(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if err != nil {
		return nil, mapError("get invite", err)
	}
	return inv, nil
}

func (r *InviteRepository) GetByTokenHash(ctx context.Context, hash string) (*invite.Invite, error) {
	inv, err := scanInvite(r.db.pool.QueryRow(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE token_hash = $1`, hash))
	if err != nil {
		return nil, mapError("get invite by token", err)
	}
	return inv, nil
}

func (r *InviteRepository) ListByTenant(ctx context.Context, tenantID string) ([]*invite.Invite, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+inviteColumns+`
		FROM invites
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
	`, tenantID)
	if err != nil {
		return nil, mapError("list invites", err)
	}
	defer rows.Close()

	invites := []*invite.Invite{}
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, inv)
	}
	return invites, mapError("list invites", rows.Err())
}

// MarkAccepted only transitions a row that is still pending.
func (r *InviteRepository) MarkAccepted(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE invites SET status = 'accepted', accepted_at = $2, accepted_by = $3
		WHERE id = $1 AND status = 'pending'
	`, id, at, userID)
	if err != nil {
		return false, mapError("accept invite", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Reopen only reverts the claim made by userID.
func (r *InviteRepository) Reopen(ctx context.Context, id, userID string) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE invites SET status = 'pending', accepted_at = NULL, accepted_by = NULL
		WHERE id = $1 AND status = 'accepted' AND accepted_by = $2
	`, id, userID)
	return mapError("reopen invite", err)
}

func (r *InviteRepository) DeletePending(ctx context.Context, tenantID, id string) (bool, error) {
	tag, err := r.db.pool.Exec(ctx,
		`DELETE FROM invites WHERE id = $1 AND tenant_id = $2 AND status = 'pending'`, id, tenantID)
	if err != nil {
		return false, mapError("delete invite", err)
	}
	return tag.RowsAffected() == 1, nil
}
