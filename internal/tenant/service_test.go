package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/audit"
	"github.com/nexussuite/clubcore/internal/identity"
	"github.com/nexussuite/clubcore/internal/member"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, t *Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]*Tenant, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*Tenant), args.Error(1)
}

func (m *mockRepo) UpdateSettings(ctx context.Context, id string, s Settings) (*Tenant, error) {
	args := m.Called(ctx, id, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *mockRepo) SetStatus(ctx context.Context, id string, change StatusChange) (*Tenant, error) {
	args := m.Called(ctx, id, change)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockRoleStore struct {
	mock.Mock
}

func (m *mockRoleStore) GetMember(ctx context.Context, tenantID, userID string) (*member.Member, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*member.Member), args.Error(1)
}

func (m *mockRoleStore) SetRole(ctx context.Context, tenantID, userID string, role member.Role, meta member.Metadata) (*member.Member, error) {
	args := m.Called(ctx, tenantID, userID, role, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*member.Member), args.Error(1)
}

func (m *mockRoleStore) ListMembers(ctx context.Context, tenantID string) ([]*member.Member, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*member.Member), args.Error(1)
}

func (m *mockRoleStore) RemoveMember(ctx context.Context, tenantID, userID string) (*member.Member, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*member.Member), args.Error(1)
}

type ledgerStub struct {
	entries []*audit.Entry
}

func (l *ledgerStub) Append(_ context.Context, e *audit.Entry) error {
	l.entries = append(l.entries, e)
	return nil
}

func (l *ledgerStub) List(context.Context, string, int) ([]*audit.Entry, error) {
	return l.entries, nil
}

func newTestService() (*Service, *mockRepo, *mockRoleStore, *ledgerStub) {
	repo := new(mockRepo)
	roles := new(mockRoleStore)
	ledger := &ledgerStub{}
	return NewService(repo, roles, audit.NewRecorder(ledger)), repo, roles, ledger
}

var op = identity.Operator{ID: "op-1", Name: "Platform Ops"}

// TestPurpose: Validates that signup creates a trial tenant with a UUIDv7 id and the caller as owner.
// Scope: Unit Test
// Security: The creator is the only owner of a new tenant
// Expected: Tenant persisted in trial, SetRole(owner) called for the creator, two audit entries.
// Test Case ID: TEN-01
func TestTenant_Service_CreateTenant(t *testing.T) {
	service, repo, roles, ledger := newTestService()
	ctx := context.Background()
	p := identity.Principal{UserID: "user-123", Email: "cap@club.gg", Name: "Captain"}

	repo.On("Create", ctx, mock.MatchedBy(func(t *Tenant) bool {
		uid, err := uuid.Parse(t.ID)
		return err == nil && uid.Version() == 7 && t.Name == "Night Owls" && t.SubscriptionStatus == StatusTrial
	})).Return(nil)
	roles.On("SetRole", ctx, mock.AnythingOfType("string"), "user-123", member.RoleOwner, mock.MatchedBy(func(meta member.Metadata) bool {
		return meta.Email == "cap@club.gg" && meta.GrantedBy == "user-123"
	})).Return(&member.Member{ID: "m-1", UserID: "user-123", Role: member.RoleOwner}, nil)

	tn, err := service.CreateTenant(ctx, p, "  Night Owls ")
	require.NoError(t, err)
	assert.Equal(t, "Night Owls", tn.Name)
	assert.Equal(t, StatusTrial, tn.SubscriptionStatus)
	require.Len(t, ledger.entries, 2)
	assert.Equal(t, "tenant", ledger.entries[0].Entity)
	assert.Equal(t, "member", ledger.entries[1].Entity)
	assert.Equal(t, "user-123", ledger.entries[1].EntityID)

	repo.AssertExpectations(t)
	roles.AssertExpectations(t)
}

// TestPurpose: Validates that signup rolls back the tenant when the owner cannot be assigned.
// Scope: Unit Test
// Expected: The error is returned and the tenant is deleted.
// Test Case ID: TEN-02
func TestTenant_Service_CreateTenant_RollsBack(t *testing.T) {
	service, repo, roles, ledger := newTestService()
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(nil)
	roles.On("SetRole", ctx, mock.Anything, "user-1", member.RoleOwner, mock.Anything).
		Return(nil, apperr.Unavailable("set role", errors.New("boom")))
	repo.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	_, err := service.CreateTenant(ctx, identity.Principal{UserID: "user-1"}, "Club")
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
	assert.Empty(t, ledger.entries)
	repo.AssertExpectations(t)
}

func TestTenant_Service_CreateTenant_Rejects(t *testing.T) {
	service, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := service.CreateTenant(ctx, identity.Principal{}, "Club")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = service.CreateTenant(ctx, identity.Principal{UserID: "u"}, "   ")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = service.CreateTenant(ctx, identity.Principal{UserID: "u", TenantID: "t"}, "Club")
	assert.ErrorIs(t, err, apperr.ErrInvariantViolation)
}

// TestPurpose: Validates operator suspension records reason, time and operator.
// Scope: Unit Test
// Security: Suspension is the administrative kill switch for a tenant
// Expected: Default reason applied, audit entry written under the tenant with the operator as actor.
// Test Case ID: TEN-03
func TestTenant_Service_Suspend(t *testing.T) {
	service, repo, _, ledger := newTestService()
	ctx := context.Background()
	before := &Tenant{ID: "t-1", SubscriptionStatus: StatusActive}
	reason := DefaultSuspensionReason
	after := &Tenant{ID: "t-1", SubscriptionStatus: StatusSuspended, SuspensionReason: &reason}

	repo.On("GetByID", ctx, "t-1").Return(before, nil)
	repo.On("SetStatus", ctx, "t-1", mock.MatchedBy(func(c StatusChange) bool {
		return c.Status == StatusSuspended &&
			c.SuspensionReason != nil && *c.SuspensionReason == DefaultSuspensionReason &&
			c.SuspendedAt != nil && c.SuspendedBy == "op-1"
	})).Return(after, nil)

	got, err := service.Suspend(ctx, op, "t-1", "")
	require.NoError(t, err)
	assert.True(t, got.IsSuspended())
	require.Len(t, ledger.entries, 1)
	assert.Equal(t, "t-1", ledger.entries[0].TenantID)
	assert.Equal(t, "op-1", ledger.entries[0].ActorUserID)
	assert.Equal(t, "Platform Ops", ledger.entries[0].ActorName)
	assert.Equal(t, audit.ActionUpdate, ledger.entries[0].ActionType)

	err = got.SuspensionError()
	var se *apperr.SuspendedError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, DefaultSuspensionReason, se.Reason)
}

func TestTenant_Service_Reactivate(t *testing.T) {
	service, repo, _, _ := newTestService()
	ctx := context.Background()

	repo.On("GetByID", ctx, "t-1").Return(&Tenant{ID: "t-1", SubscriptionStatus: StatusSuspended}, nil)
	repo.On("SetStatus", ctx, "t-1", StatusChange{Status: StatusActive}).
		Return(&Tenant{ID: "t-1", SubscriptionStatus: StatusActive}, nil)

	got, err := service.Reactivate(ctx, op, "t-1")
	require.NoError(t, err)
	assert.False(t, got.IsSuspended())
	assert.NoError(t, got.SuspensionError())
}

func TestTenant_Service_TransitionNotFound(t *testing.T) {
	service, repo, _, ledger := newTestService()
	ctx := context.Background()

	repo.On("GetByID", ctx, "missing").Return(nil, apperr.ErrNotFound)

	_, err := service.Reactivate(ctx, op, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, ledger.entries)
	repo.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestTenant_Service_SyncSubscription(t *testing.T) {
	service, repo, _, _ := newTestService()
	ctx := context.Background()

	_, err := service.SyncSubscription(ctx, op, "t-1", "lapsed")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	repo.On("GetByID", ctx, "t-1").Return(&Tenant{ID: "t-1", SubscriptionStatus: StatusTrial}, nil)
	repo.On("SetStatus", ctx, "t-1", StatusChange{Status: StatusActive}).
		Return(&Tenant{ID: "t-1", SubscriptionStatus: StatusActive}, nil)

	got, err := service.SyncSubscription(ctx, op, "t-1", StatusActive)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.SubscriptionStatus)
}

func TestTenant_Service_Delete(t *testing.T) {
	service, repo, _, ledger := newTestService()
	ctx := context.Background()

	repo.On("GetByID", ctx, "t-1").Return(&Tenant{ID: "t-1", Name: "Club"}, nil)
	repo.On("Delete", ctx, "t-1").Return(nil)

	require.NoError(t, service.Delete(ctx, op, "t-1"))
	require.Len(t, ledger.entries, 1)
	assert.Equal(t, audit.ActionDelete, ledger.entries[0].ActionType)
	assert.NotNil(t, ledger.entries[0].OldValue)
	assert.Nil(t, ledger.entries[0].NewValue)

	assert.ErrorIs(t, service.Delete(ctx, identity.Operator{}, "t-1"), apperr.ErrUnauthenticated)
}

func TestTenant_Service_ListClampsLimit(t *testing.T) {
	service, repo, _, _ := newTestService()
	ctx := context.Background()

	repo.On("List", ctx, 100, 0).Return([]*Tenant{{ID: "t-1"}}, nil)

	got, err := service.List(ctx, op, 0, -5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestParseSettings(t *testing.T) {
	s, err := ParseSettings(map[string]any{"name": "Owls", "primaryColor": "#ff8800", "website": "https://owls.gg"})
	require.NoError(t, err)
	updated := s.Apply(&Tenant{Name: "Old", Region: "EU"})
	assert.Equal(t, "Owls", updated.Name)
	assert.Equal(t, "#ff8800", updated.PrimaryColor)
	assert.Equal(t, "EU", updated.Region)

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"empty", map[string]any{}},
		{"unknown key", map[string]any{"subscriptionStatus": "active"}},
		{"not a string", map[string]any{"name": 7}},
		{"blank name", map[string]any{"name": ""}},
		{"bad color", map[string]any{"primaryColor": "orange"}},
		{"bad url", map[string]any{"website": "not a url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSettings(tt.payload)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}
