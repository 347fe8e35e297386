package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/invite"
)

// InviteRepository implements invite.Repository
type InviteRepository struct {
	db *DB
}

// NewInviteRepository creates a new invite repository
func NewInviteRepository(db *DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func cloneInvite(inv *invite.Invite) *invite.Invite {
	c := *inv
	if inv.AcceptedAt != nil {
		at := *inv.AcceptedAt
		c.AcceptedAt = &at
	}
	return &c
}

func (r *InviteRepository) Create(_ context.Context, inv *invite.Invite) error {
	stored := cloneInvite(inv)
	stored.Token = ""

	txn := r.db.write()
	defer txn.Abort()
	if err := txn.Insert(tableInvites, stored); err != nil {
		return fmt.Errorf("failed to insert invite: %w", err)
	}
	txn.Commit()
	return nil
}

func (r *InviteRepository) GetByID(_ context.Context, tenantID, id string) (*invite.Invite, error) {
	raw, err := r.db.read().First(tableInvites, indexID, id)
	if err != nil {
		return nil, err
	}
	if raw == nil || raw.(*invite.Invite).TenantID != tenantID {
		return nil, apperr.ErrNotFound
	}
	return cloneInvite(raw.(*invite.Invite)), nil
}

func (r *InviteRepository) GetByTokenHash(_ context.Context, hash string) (*invite.Invite, error) {
	raw, err := r.db.read().First(tableInvites, indexToken, hash)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, apperr.ErrNotFound
	}
	return cloneInvite(raw.(*invite.Invite)), nil
}

func (r *InviteRepository) ListByTenant(_ context.Context, tenantID string) ([]*invite.Invite, error) {
	it, err := r.db.read().Get(tableInvites, indexTenant, tenantID)
	if err != nil {
		return nil, err
	}
	all := collect[*invite.Invite](it, nil)
	newestFirst(all, func(i *invite.Invite) time.Time { return i.CreatedAt }, func(i *invite.Invite) string { return i.ID })
	out := make([]*invite.Invite, len(all))
	for i, inv := range all {
		out[i] = cloneInvite(inv)
	}
	return out, nil
}

func (r *InviteRepository) MarkAccepted(_ context.Context, id, userID string, at time.Time) (bool, error) {
	txn := r.db.write()
	defer txn.Abort()

	raw, err := txn.First(tableInvites, indexID, id)
	if err != nil {
		return false, err
	}
	if raw == nil || raw.(*invite.Invite).Status != invite.StatusPending {
		return false, nil
	}
	next := cloneInvite(raw.(*invite.Invite))
	next.Status = invite.StatusAccepted
	next.AcceptedAt = &at
	next.AcceptedBy = userID
	if err := txn.Insert(tableInvites, next); err != nil {
		return false, fmt.Errorf("failed to accept invite: %w", err)
	}
	txn.Commit()
	return true, nil
}

func (r *InviteRepository) Reopen(_ context.Context, id, userID string) error {
	txn := r.db.write()
	defer txn.Abort()

	raw, err := txn.First(tableInvites, indexID, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	cur := raw.(*invite.Invite)
	if cur.Status != invite.StatusAccepted || cur.AcceptedBy != userID {
		return nil
	}
	next := cloneInvite(cur)
	next.Status = invite.StatusPending
	next.AcceptedAt = nil
	next.AcceptedBy = ""
	if err := txn.Insert(tableInvites, next); err != nil {
		return fmt.Errorf("failed to reopen invite: %w", err)
	}
	txn.Commit()
	return nil
}

func (r *InviteRepository) DeletePending(_ context.Context, tenantID, id string) (bool, error) {
	txn := r.db.write()
	defer txn.Abort()

	raw, err := txn.First(tableInvites, indexID, id)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	inv := raw.(*invite.Invite)
	if inv.TenantID != tenantID || inv.Status != invite.StatusPending {
		return false, nil
	}
	if err := txn.Delete(tableInvites, inv); err != nil {
		return false, fmt.Errorf("failed to delete invite: %w", err)
	}
	txn.Commit()
	return true, nil
}
