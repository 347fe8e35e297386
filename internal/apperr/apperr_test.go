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

package apperr

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"suspended", Suspended("unpaid", &at), ErrTenantSuspended},
		{"invariant", Invariant("tenant %s already has an owner", "t1"), ErrInvariantViolation},
		{"unavailable", Unavailable("query", errors.New("conn refused")), ErrStorageUnavailable},
		{"invalid", Invalid("unknown field %q", "foo"), ErrInvalidInput},
		{"wrapped suspended", fmt.Errorf("gate: %w", Suspended("", nil)), ErrTenantSuspended},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.True(t, Classified(tt.err))
		})
	}
}

func TestSuspendedErrorDetails(t *testing.T) {
	at := time.Now()
	err := fmt.Errorf("wrapped: %w", Suspended("Payment overdue", &at))

	var se *SuspendedError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "Payment overdue", se.Reason)
	assert.Equal(t, &at, se.SuspendedAt)
}

func TestUnavailableKeepsClassification(t *testing.T) {
	err := Unavailable("lookup", ErrNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrStorageUnavailable)

	cause := errors.New("timeout")
	err = Unavailable("lookup", cause)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Unavailable("noop", nil))
}
