package postgres

import (
	"context"
	"fmt"

	"github.com/nexussuite/clubcore/internal/audit"
)

// AuditRepository implements audit.Ledger. The table rejects updates and deletes.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, e *audit.Entry) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO audit_log (id, tenant_id, actor_user_id, actor_name, action, entity, entity_id,
			old_value, new_value, action_type, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.TenantID, e.ActorUserID, e.ActorName, e.Action, e.Entity, e.EntityID,
		e.OldValue, e.NewValue, e.ActionType, e.Timestamp)
	return mapError("append audit entry", err)
}

func (r *AuditRepository) List(ctx context.Context, tenantID string, limit int) ([]*audit.Entry, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, actor_user_id, actor_name, action, entity, entity_id,
			old_value, new_value, action_type, timestamp
		FROM audit_log
		WHERE tenant_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, mapError("list audit entries", err)
	}
	defer rows.Close()

	entries := []*audit.Entry{}
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ActorUserID, &e.ActorName, &e.Action, &e.Entity,
			&e.EntityID, &e.OldValue, &e.NewValue, &e.ActionType, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, mapError("list audit entries", rows.Err())
}
