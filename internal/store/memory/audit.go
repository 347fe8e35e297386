package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/nexussuite/clubcore/internal/audit"
)

// AuditRepository implements audit.Ledger. It only ever inserts.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func cloneEntry(e *audit.Entry) *audit.Entry {
	c := *e
	if e.OldValue != nil {
		v := *e.OldValue
		c.OldValue = &v
	}
	if e.NewValue != nil {
		v := *e.NewValue
		c.NewValue = &v
	}
	return &c
}

func (r *AuditRepository) Append(_ context.Context, e *audit.Entry) error {
	txn := r.db.write()
	defer txn.Abort()
	if err := txn.Insert(tableAudit, cloneEntry(e)); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	txn.Commit()
	return nil
}

func (r *AuditRepository) List(_ context.Context, tenantID string, limit int) ([]*audit.Entry, error) {
	it, err := r.db.read().Get(tableAudit, indexTenant, tenantID)
	if err != nil {
		return nil, err
	}
	all := collect[*audit.Entry](it, nil)
	newestFirst(all, func(e *audit.Entry) time.Time { return e.Timestamp }, func(e *audit.Entry) string { return e.ID })
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	out := make([]*audit.Entry, len(all))
	for i, e := range all {
		out[i] = cloneEntry(e)
	}
	return out, nil
}
