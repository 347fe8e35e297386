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

package gateway

import (
	"context"
	"fmt"

	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/audit"
	"github.com/nexussuite/clubcore/internal/authz"
	"github.com/nexussuite/clubcore/internal/id"
	"github.com/nexussuite/clubcore/internal/identity"
	"github.com/nexussuite/clubcore/internal/record"
)

// Mutation is a create, update or delete of one domain record.
type Mutation struct {
	Action authz.Action
	Type   record.Type
	// EntityID is empty for create.
	EntityID string
	Payload  map[string]any
}

var verbs = map[authz.Action]string{
	authz.ActionCreate: "Created",
	authz.ActionUpdate: "Updated",
	authz.ActionDelete: "Deleted",
}

var auditTypes = map[authz.Action]audit.ActionType{
	authz.ActionCreate: audit.ActionCreate,
	authz.ActionUpdate: audit.ActionUpdate,
	authz.ActionDelete: audit.ActionDelete,
}

// Mutate applies m on behalf of actor. It returns the stored record for create
// and update, and the deleted pre-state for delete.
func (g *Gateway) Mutate(ctx context.Context, actor identity.Actor, m Mutation) (*record.Record, error) {
	var out *record.Record
	entity := authz.Entity(m.Type)
	err := g.observe(ctx, "mutate."+string(m.Action), entity, func(ctx context.Context) error {
		if _, ok := verbs[m.Action]; !ok {
			return apperr.Invalid("unsupported action %q", m.Action)
		}
		if _, err := g.gate(ctx, actor, m.Action, entity); err != nil {
			return err
		}
		s, err := record.SchemaFor(m.Type)
		if err != nil {
			return err
		}
		if _, err := g.authorize(ctx, actor, m.Action, entity); err != nil {
			return err
		}

		var before *record.Record
		switch m.Action {
		case authz.ActionCreate:
			out, err = g.create(ctx, actor, s, m.Payload)
		case authz.ActionUpdate:
			before, out, err = g.update(ctx, actor, s, m.EntityID, m.Payload)
		case authz.ActionDelete:
			before, err = g.delete(ctx, actor, s, m.EntityID)
			out = before
		}
		if err != nil {
			return err
		}

		var after *record.Record
		if m.Action != authz.ActionDelete {
			after = out
		}
		g.audit(ctx, actor, fmt.Sprintf("%s %s", verbs[m.Action], m.Type), entity, out.ID, auditTypes[m.Action], nullable(before), nullable(after))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gateway) create(ctx context.Context, actor identity.Actor, s *record.Schema, payload map[string]any) (*record.Record, error) {
	fields, err := s.Validate(payload, false)
	if err != nil {
		return nil, err
	}
	for k, v := range fields {
		if v == nil {
			delete(fields, k)
		}
	}
	if err := g.checkReferences(ctx, actor.TenantID, s, fields); err != nil {
		return nil, err
	}

	rec := &record.Record{Type: s.Type, Fields: fields}
	record.Stamp(rec, id.NewUUIDv7(), actor.TenantID, g.now().UTC())
	if err := g.records.Insert(ctx, s, rec); err != nil {
		return nil, apperr.Unavailable("insert "+s.Table, err)
	}
	return rec, nil
}

func (g *Gateway) update(ctx context.Context, actor identity.Actor, s *record.Schema, entityID string, payload map[string]any) (before, after *record.Record, err error) {
	if entityID == "" {
		return nil, nil, apperr.Invalid("entity id is required for update")
	}
	patch, err := s.Validate(payload, true)
	if err != nil {
		return nil, nil, err
	}
	if len(patch) == 0 {
		return nil, nil, apperr.Invalid("no fields to update")
	}
	if err := g.checkReferences(ctx, actor.TenantID, s, patch); err != nil {
		return nil, nil, err
	}

	err = g.records.Lock(ctx, s, actor.TenantID, entityID, func(cur *record.Row, w record.Writer) error {
		if cur == nil {
			return apperr.ErrNotFound
		}
		before = g.reader.Normalize(ctx, s, *cur)
		after = before.Clone()
		for k, v := range patch {
			if v == nil {
				delete(after.Fields, k)
				continue
			}
			after.Fields[k] = v
		}
		after.UpdatedAt = g.now().UTC()
		return w.Update(ctx, after)
	})
	if err != nil {
		return nil, nil, apperr.Unavailable("update "+s.Table, err)
	}
	return before, after, nil
}

func (g *Gateway) delete(ctx context.Context, actor identity.Actor, s *record.Schema, entityID string) (*record.Record, error) {
	if entityID == "" {
		return nil, apperr.Invalid("entity id is required for delete")
	}
	var before *record.Record
	err := g.records.Lock(ctx, s, actor.TenantID, entityID, func(cur *record.Row, w record.Writer) error {
		if cur == nil {
			return apperr.ErrNotFound
		}
		before = g.reader.Normalize(ctx, s, *cur)
		return w.Delete(ctx)
	})
	if err != nil {
		return nil, apperr.Unavailable("delete "+s.Table, err)
	}
	return before, nil
}

// checkReferences requires every referenced record to exist in the same tenant.
func (g *Gateway) checkReferences(ctx context.Context, tenantID string, s *record.Schema, fields map[string]any) error {
	for _, ref := range s.References {
		v, ok := fields[ref.Field]
		if !ok || v == nil {
			continue
		}
		refID, ok := v.(string)
		if !ok || refID == "" {
			return apperr.Invalid("field %q must reference a %s id", ref.Field, ref.Type)
		}
		if _, err := g.reader.Get(ctx, tenantID, ref.Type, refID); err != nil {
			return fmt.Errorf("%s %s: %w", ref.Type, refID, err)
		}
	}
	return nil
}

// Read returns one record of the actor's tenant. Reads require an active
// membership and are not subject to the suspension gate.
func (g *Gateway) Read(ctx context.Context, actor identity.Actor, t record.Type, entityID string) (*record.Record, error) {
	if _, err := record.SchemaFor(t); err != nil {
		return nil, err
	}
	if _, _, err := g.enter(ctx, actor, authz.ActionRead, authz.Entity(t)); err != nil {
		return nil, err
	}
	return g.reader.Get(ctx, actor.TenantID, t, entityID)
}

// List returns the actor's tenant records of type t. A type with a placeholder
// yields one synthesized, unpersisted record when the tenant has none.
func (g *Gateway) List(ctx context.Context, actor identity.Actor, t record.Type) ([]*record.Record, error) {
	s, err := record.SchemaFor(t)
	if err != nil {
		return nil, err
	}
	if _, _, err := g.enter(ctx, actor, authz.ActionRead, authz.Entity(t)); err != nil {
		return nil, err
	}
	recs, err := g.reader.Resolve(ctx, actor.TenantID, t)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 && s.Placeholder != nil {
		return []*record.Record{s.Placeholder(actor.TenantID)}, nil
	}
	return recs, nil
}

// nullable keeps a nil record out of an interface so it serializes as absent.
func nullable(r *record.Record) any {
	if r == nil {
		return nil
	}
	return r
}
