package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/id"
	"github.com/nexussuite/clubcore/internal/member"
)

// MemberRepository implements member.RoleStore. Role changes run inside the
// single memdb write transaction, so the owner check and the write are atomic.
type MemberRepository struct {
	db *DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func cloneMember(m *member.Member) *member.Member {
	c := *m
	return &c
}

func getMember(txn *memdb.Txn, tenantID, userID string) (*member.Member, error) {
	raw, err := txn.First(tableMembers, indexTenantUser, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return raw.(*member.Member), nil
}

func findOwner(txn *memdb.Txn, tenantID string) (*member.Member, error) {
	it, err := txn.Get(tableMembers, indexTenant, tenantID)
	if err != nil {
		return nil, err
	}
	owners := collect[*member.Member](it, func(m *member.Member) bool { return m.Role == member.RoleOwner })
	if len(owners) == 0 {
		return nil, nil
	}
	return owners[0], nil
}

func (r *MemberRepository) GetMember(_ context.Context, tenantID, userID string) (*member.Member, error) {
	m, err := getMember(r.db.read(), tenantID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.ErrNotFound
	}
	return cloneMember(m), nil
}

func (r *MemberRepository) SetRole(_ context.Context, tenantID, userID string, role member.Role, meta member.Metadata) (*member.Member, error) {
	txn := r.db.write()
	defer txn.Abort()

	t, err := txn.First(tableTenants, indexID, tenantID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.ErrNotFound
	}
	target, err := getMember(txn, tenantID, userID)
	if err != nil {
		return nil, err
	}
	owner, err := findOwner(txn, tenantID)
	if err != nil {
		return nil, err
	}

	plan, err := member.PlanSetRole(target, owner, userID, role, meta)
	if err != nil {
		return nil, err
	}
	if plan.Noop {
		if target == nil {
			target = owner
		}
		return cloneMember(target), nil
	}

	now := r.db.now().UTC()
	if plan.DemoteOwner != nil {
		if err := txn.Insert(tableMembers, member.Demoted(plan.DemoteOwner, now)); err != nil {
			return nil, fmt.Errorf("failed to demote owner: %w", err)
		}
	}
	next := member.Apply(target, tenantID, userID, role, meta, id.NewUUIDv7(), now)
	if err := txn.Insert(tableMembers, next); err != nil {
		return nil, fmt.Errorf("failed to set role: %w", err)
	}
	txn.Commit()
	return cloneMember(next), nil
}

func (r *MemberRepository) ListMembers(_ context.Context, tenantID string) ([]*member.Member, error) {
	it, err := r.db.read().Get(tableMembers, indexTenant, tenantID)
	if err != nil {
		return nil, err
	}
	all := collect[*member.Member](it, nil)
	newestFirst(all, func(m *member.Member) time.Time { return m.CreatedAt }, func(m *member.Member) string { return m.ID })
	out := make([]*member.Member, len(all))
	for i, m := range all {
		out[i] = cloneMember(m)
	}
	return out, nil
}

func (r *MemberRepository) RemoveMember(_ context.Context, tenantID, userID string) (*member.Member, error) {
	txn := r.db.write()
	defer txn.Abort()

	m, err := getMember(txn, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.ErrNotFound
	}
	if err := member.CheckRemove(m); err != nil {
		return nil, err
	}
	if err := txn.Delete(tableMembers, m); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}
	txn.Commit()
	return cloneMember(m), nil
}
