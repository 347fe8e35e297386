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

package logger

import (
	"context"
	"log/slog"
)

// SecurityEvent describes a denied or boundary-relevant request.
type SecurityEvent struct {
	Action   string
	TenantID string
	UserID   string
	Entity   string
	Result   string // denied, blocked, rejected
	Reason   string
}

// SecurityLogger records access-control outcomes that never reach the audit ledger.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger creates a new security logger
func NewSecurityLogger(l *slog.Logger) *SecurityLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SecurityLogger{logger: l.With(Component("security"))}
}

// Log logs a security event
func (s *SecurityLogger) Log(ctx context.Context, ev SecurityEvent) {
	attrs := []slog.Attr{
		Action(ev.Action),
		slog.String("result", ev.Result),
	}
	if ev.TenantID != "" {
		attrs = append(attrs, TenantID(ev.TenantID))
	}
	if ev.UserID != "" {
		attrs = append(attrs, UserID(ev.UserID))
	}
	if ev.Entity != "" {
		attrs = append(attrs, Entity(ev.Entity))
	}
	if ev.Reason != "" {
		attrs = append(attrs, slog.String("reason", ev.Reason))
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, "security_event", attrs...)
}

func (s *SecurityLogger) AccessDenied(ctx context.Context, tenantID, userID, action, entity string) {
	s.Log(ctx, SecurityEvent{
		Action:   action,
		TenantID: tenantID,
		UserID:   userID,
		Entity:   entity,
		Result:   "denied",
	})
}

func (s *SecurityLogger) SuspendedBlocked(ctx context.Context, tenantID, userID, action, entity string) {
	s.Log(ctx, SecurityEvent{
		Action:   action,
		TenantID: tenantID,
		UserID:   userID,
		Entity:   entity,
		Result:   "blocked",
		Reason:   "tenant suspended",
	})
}

func (s *SecurityLogger) Unauthenticated(ctx context.Context, path, reason string) {
	s.Log(ctx, SecurityEvent{
		Action: "authenticate",
		Entity: path,
		Result: "rejected",
		Reason: reason,
	})
}
