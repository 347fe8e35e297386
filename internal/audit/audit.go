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

// Package audit is the append-only ledger of tenant mutations.
package audit

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// ActionType classifies the mutation an entry records.
type ActionType string

const (
	ActionCreate ActionType = "create"
	ActionUpdate ActionType = "update"
	ActionDelete ActionType = "delete"
)

// Entry is one immutable audit record.
type Entry struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenantId"`
	ActorUserID string     `json:"actorUserId"`
	ActorName   string     `json:"actorName"`
	Action      string     `json:"action"`
	Entity      string     `json:"entity"`
	EntityID    string     `json:"entityId,omitempty"`
	OldValue    *string    `json:"oldValue"`
	NewValue    *string    `json:"newValue"`
	ActionType  ActionType `json:"actionType"`
	Timestamp   time.Time  `json:"timestamp"`
}

// Ledger stores entries. There is deliberately no update or delete.
type Ledger interface {
	// Append persists an entry whose ID and Timestamp are already assigned.
	Append(ctx context.Context, e *Entry) error
	// List returns the tenant's newest entries first.
	List(ctx context.Context, tenantID string, limit int) ([]*Entry, error)
}

const redacted = "[REDACTED]"

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	k := strings.ToLower(key)
	for _, s := range []string{"password", "secret", "token", "key", "authorization", "hash", "credential"} {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// Serialize renders v as JSON with secret-looking keys redacted.
// A nil value yields nil.
func Serialize(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return nil, nil
	}

	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	out, err := json.Marshal(redact(tree))
	if err != nil {
		return nil, err
	}
	s := string(out)
	return &s, nil
}

func redact(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, child := range x {
			if isSecret(k) {
				x[k] = redacted
				continue
			}
			x[k] = redact(child)
		}
	case []any:
		for i, child := range x {
			x[i] = redact(child)
		}
	}
	return v
}
