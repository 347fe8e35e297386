package invite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status Status
		expiry time.Time
		want   Status
	}{
		{"pending in time", StatusPending, now.Add(time.Hour), StatusPending},
		{"pending past expiry", StatusPending, now.Add(-time.Second), StatusExpired},
		{"pending at expiry instant", StatusPending, now, StatusPending},
		{"accepted never expires", StatusAccepted, now.Add(-time.Hour), StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invite{Status: tt.status, ExpiresAt: tt.expiry}
			assert.Equal(t, tt.want, inv.EffectiveStatus(now))
		})
	}
}

func TestViewHidesToken(t *testing.T) {
	now := time.Now()
	inv := &Invite{Token: "secret", Status: StatusPending, ExpiresAt: now.Add(-time.Minute)}

	v := inv.View(now)
	assert.Empty(t, v.Token)
	assert.Equal(t, StatusExpired, v.Status)
	assert.Equal(t, StatusPending, inv.Status, "stored status is untouched")
}

func TestTokens(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
	assert.Equal(t, HashToken(a), HashToken(a))
	assert.NotEqual(t, HashToken(a), HashToken(b))
	assert.Len(t, HashToken(a), 64)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "coach@club.gg", NormalizeEmail("  Coach@Club.GG "))
}

func TestNotifierFunc(t *testing.T) {
	var got Event
	n := NotifierFunc(func(ctx context.Context, ev Event) { got = ev })
	n.InviteCreated(context.Background(), Event{Email: "x@y.z"})
	assert.Equal(t, "x@y.z", got.Email)

	LogNotifier{}.InviteCreated(context.Background(), Event{Email: "x@y.z"})
}
