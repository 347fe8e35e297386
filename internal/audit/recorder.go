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
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/id"
	"github.com/nexussuite/clubcore/internal/observability/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// DefaultListLimit applies when the caller passes no limit.
	DefaultListLimit = 100
	// MaxListLimit caps a single listing.
	MaxListLimit = 1000
)

// FailureHook observes appends that failed after the mutation committed.
type FailureHook func(ctx context.Context, e Entry, err error)

// Recorder appends entries on behalf of the mutation gateway. Append failures
// are logged, counted and passed to the failure hook, never returned.
type Recorder struct {
	ledger   Ledger
	logger   *slog.Logger
	failures metric.Int64Counter
	hook     FailureHook
	now      func() time.Time
	limit    int
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the logger used for AUDIT_EVENT lines and failures.
func WithLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// WithFailureCounter counts failed appends.
func WithFailureCounter(c metric.Int64Counter) RecorderOption {
	return func(r *Recorder) { r.failures = c }
}

// WithFailureHook registers the internal error channel for failed appends.
func WithFailureHook(h FailureHook) RecorderOption {
	return func(r *Recorder) { r.hook = h }
}

// WithDefaultListLimit sets the limit used when List is called without one.
func WithDefaultListLimit(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 && n <= MaxListLimit {
			r.limit = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates a recorder over ledger.
func NewRecorder(ledger Ledger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		ledger: ledger,
		logger: slog.Default(),
		now:    time.Now,
		limit:  DefaultListLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("audit"))
	return r
}

// Record assigns the entry's id and timestamp and appends it. The append runs
// detached from ctx cancellation so a client disconnect after a committed
// write still leaves a trail.
func (r *Recorder) Record(ctx context.Context, e Entry) *Entry {
	if e.ID == "" {
		e.ID = id.NewUUIDv7()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now().UTC()
	}

	r.logger.InfoContext(ctx, "AUDIT_EVENT",
		slog.String("audit_id", e.ID),
		logger.TenantID(e.TenantID),
		logger.UserID(e.ActorUserID),
		logger.Action(e.Action),
		logger.Entity(e.Entity),
		logger.EntityID(e.EntityID),
		slog.String("action_type", string(e.ActionType)),
		slog.Time("timestamp", e.Timestamp),
	)

	if err := r.ledger.Append(context.WithoutCancel(ctx), &e); err != nil {
		r.fail(ctx, e, err)
	}
	return &e
}

func (r *Recorder) fail(ctx context.Context, e Entry, err error) {
	r.logger.ErrorContext(ctx, "audit append failed",
		slog.Bool("audit_write_failed", true),
		slog.String("audit_id", e.ID),
		logger.TenantID(e.TenantID),
		logger.Entity(e.Entity),
		logger.EntityID(e.EntityID),
		logger.Error(err),
	)
	if r.failures != nil {
		r.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("entity", e.Entity),
			attribute.String("action_type", string(e.ActionType)),
		))
	}
	if r.hook != nil {
		r.hook(ctx, e, fmt.Errorf("%w: %v", apperr.ErrAuditWriteFailed, err))
	}
}

// List returns the tenant's newest entries. A non-positive limit uses the
// default; larger limits are capped at MaxListLimit.
func (r *Recorder) List(ctx context.Context, tenantID string, limit int) ([]*Entry, error) {
	switch {
	case limit <= 0:
		limit = r.limit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	entries, err := r.ledger.List(ctx, tenantID, limit)
	if err != nil {
		return nil, apperr.Unavailable("list audit entries", err)
	}
	return entries, nil
}
