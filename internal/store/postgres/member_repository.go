package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nexussuite/clubcore/internal/id"
	"github.com/nexussuite/clubcore/internal/member"
)

// MemberRepository implements member.RoleStore
type MemberRepository struct {
	db *DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = `id, tenant_id, user_id, role, email, name, is_active, invited_by, created_at, updated_at`

func scanMember(row pgx.Row) (*member.Member, error) {
	var m member.Member
	if err := row.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.Email, &m.Name,
		&m.IsActive, &m.InvitedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// findMember returns nil when the row does not exist.
func findMember(ctx context.Context, q querier, sql string, args ...any) (*member.Member, error) {
	m, err := scanMember(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// GetMember retrieves a membership
func (r *MemberRepository) GetMember(ctx context.Context, tenantID, userID string) (*member.Member, error) {
	m, err := scanMember(r.db.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID))
	if err != nil {
		return nil, mapError("get member", err)
	}
	return m, nil
}

// SetRole assigns a role. The tenant row is locked first, which serializes
// every role change in the tenant, so the owner read and the write are atomic.
// The members_one_owner index backs the invariant.
func (r *MemberRepository) SetRole(ctx context.Context, tenantID, userID string, role member.Role, meta member.Metadata) (*member.Member, error) {
	var out *member.Member
	err := r.db.withTx(ctx, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id FROM tenants WHERE id = $1 FOR UPDATE`, tenantID).Scan(&locked); err != nil {
			return mapError("lock tenant", err)
		}

		target, err := findMember(ctx, tx,
			`SELECT `+memberColumns+` FROM members WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID)
		if err != nil {
			return mapError("get member", err)
		}
		owner, err := findMember(ctx, tx,
			`SELECT `+memberColumns+` FROM members WHERE tenant_id = $1 AND role = 'owner'`, tenantID)
		if err != nil {
			return mapError("get owner", err)
		}

		plan, err := member.PlanSetRole(target, owner, userID, role, meta)
		if err != nil {
			return err
		}
		if plan.Noop {
			out = target
			if out == nil {
				out = owner
			}
			return nil
		}

		now := time.Now().UTC()
		if plan.DemoteOwner != nil {
			d := member.Demoted(plan.DemoteOwner, now)
			if _, err := tx.Exec(ctx, `UPDATE members SET role = $2, updated_at = $3 WHERE id = $1`,
				d.ID, d.Role, d.UpdatedAt); err != nil {
				return mapError("demote owner", err)
			}
		}

		next := member.Apply(target, tenantID, userID, role, meta, id.NewUUIDv7(), now)
		_, err = tx.Exec(ctx, `
			INSERT INTO members (id, tenant_id, user_id, role, email, name, is_active, invited_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (tenant_id, user_id) DO UPDATE SET
				role = EXCLUDED.role,
				email = EXCLUDED.email,
				name = EXCLUDED.name,
				updated_at = EXCLUDED.updated_at
		`, next.ID, next.TenantID, next.UserID, next.Role, next.Email, next.Name,
			next.IsActive, next.InvitedBy, next.CreatedAt, next.UpdatedAt)
		if err != nil {
			return mapError("set role", err)
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListMembers lists a tenant's members, newest first
func (r *MemberRepository) ListMembers(ctx context.Context, tenantID string) ([]*member.Member, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM members
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
	`, tenantID)
	if err != nil {
		return nil, mapError("list members", err)
	}
	defer rows.Close()

	members := []*member.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, mapError("list members", rows.Err())
}

// RemoveMember deletes a non-owner membership
func (r *MemberRepository) RemoveMember(ctx context.Context, tenantID, userID string) (*member.Member, error) {
	var out *member.Member
	err := r.db.withTx(ctx, func(tx pgx.Tx) error {
		m, err := scanMember(tx.QueryRow(ctx,
			`SELECT `+memberColumns+` FROM members WHERE tenant_id = $1 AND user_id = $2 FOR UPDATE`, tenantID, userID))
		if err != nil {
			return mapError("get member", err)
		}
		if err := member.CheckRemove(m); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM members WHERE id = $1`, m.ID); err != nil {
			return mapError("remove member", err)
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
