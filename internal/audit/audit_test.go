// Copyright 2026 The NexusSuite Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// MockLedger is a mock implementation of Ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Append(ctx context.Context, e *Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockLedger) List(ctx context.Context, tenantID string, limit int) ([]*Entry, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Entry), args.Error(1)
}

func TestIsSecret(t *testing.T) {
	tests := []struct {
		key      string
		isSecret bool
	}{
		{"password", true},
		{"Password", true},
		{"PASSWORD", true},
		{"token", true},
		{"access_token", true},
		{"secret", true},
		{"api_key", true},
		{"hash", true},
		{"password_hash", true},
		{"credential", true},
		{"private_key", true},
		{"user_id", false},
		{"tenant_id", false},
		{"email", false},
		{"status", false},
		{"isDefault", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := isSecret(tt.key); got != tt.isSecret {
				t.Errorf("isSecret(%q) = %v, want %v", tt.key, got, tt.isSecret)
			}
		})
	}
}

func TestSerialize(t *testing.T) {
	s, err := Serialize(nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Serialize(map[string]any{
		"email": "new@club.gg",
		"token": "abc123",
		"nested": map[string]any{
			"apiKey": "k",
			"list":   []any{map[string]any{"secret": "x", "ok": 1}},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.JSONEq(t, `{
		"email": "new@club.gg",
		"token": "[REDACTED]",
		"nested": {"apiKey": "[REDACTED]", "list": [{"secret": "[REDACTED]", "ok": 1}]}
	}`, *s)
}

// TestPurpose: Validates that the recorder stamps entries and appends them.
// Scope: Unit Test
// Security: Audit completeness
// Expected: ID and timestamp are assigned before the ledger sees the entry.
// Test Case ID: AUD-01
func TestRecorder_Record(t *testing.T) {
	fixed := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	ledger := new(MockLedger)
	ledger.On("Append", mock.Anything, mock.MatchedBy(func(e *Entry) bool {
		return e.ID != "" && e.Timestamp.Equal(fixed) && e.TenantID == "t1"
	})).Return(nil)

	r := NewRecorder(ledger, WithClock(func() time.Time { return fixed }))
	got := r.Record(context.Background(), Entry{TenantID: "t1", Entity: "wallet", ActionType: ActionCreate})

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, fixed, got.Timestamp)
	ledger.AssertExpectations(t)
}

// TestPurpose: Validates the AUDIT_EVENT log line.
// Scope: Unit Test
// Expected: The line carries the shared attribute keys used across the service logs.
// Test Case ID: AUD-04
func TestRecorder_LogsAuditEvent(t *testing.T) {
	var buf bytes.Buffer
	ledger := new(MockLedger)
	ledger.On("Append", mock.Anything, mock.Anything).Return(nil)

	r := NewRecorder(ledger, WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	r.Record(context.Background(), Entry{
		TenantID:    "t1",
		ActorUserID: "u1",
		Action:      "Created wallet",
		Entity:      "wallet",
		EntityID:    "w1",
		ActionType:  ActionCreate,
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "AUDIT_EVENT", line["msg"])
	assert.Equal(t, "audit", line["component"])
	assert.Equal(t, "t1", line["tenant_id"])
	assert.Equal(t, "u1", line["user_id"])
	assert.Equal(t, "Created wallet", line["action"])
	assert.Equal(t, "w1", line["entity_id"])
}

// TestPurpose: Validates that append failures are observable only internally.
// Scope: Unit Test
// Security: Availability over audit completeness
// Expected: Record returns normally, the hook sees ErrAuditWriteFailed and the counter increments.
// Test Case ID: AUD-02
func TestRecorder_FailureIsInternal(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	counter, err := provider.Meter("test").Int64Counter("audit.write_failures")
	require.NoError(t, err)

	ledger := new(MockLedger)
	ledger.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	var mu sync.Mutex
	var hooked []error
	r := NewRecorder(ledger,
		WithFailureCounter(counter),
		WithFailureHook(func(ctx context.Context, e Entry, err error) {
			mu.Lock()
			defer mu.Unlock()
			hooked = append(hooked, err)
		}),
	)

	got := r.Record(context.Background(), Entry{TenantID: "t1", Entity: "payroll", ActionType: ActionUpdate})
	require.NotNil(t, got)

	require.Len(t, hooked, 1)
	assert.ErrorIs(t, hooked[0], apperr.ErrAuditWriteFailed)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
}

func TestRecorder_ListClampsLimit(t *testing.T) {
	ctx := context.Background()
	ledger := new(MockLedger)
	ledger.On("List", ctx, "t1", DefaultListLimit).Return([]*Entry{{ID: "a"}}, nil)
	ledger.On("List", ctx, "t1", MaxListLimit).Return([]*Entry{}, nil)
	ledger.On("List", ctx, "t2", 5).Return(nil, errors.New("timeout"))

	r := NewRecorder(ledger)

	got, err := r.List(ctx, "t1", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = r.List(ctx, "t1", 50000)
	require.NoError(t, err)

	_, err = r.List(ctx, "t2", 5)
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
}
