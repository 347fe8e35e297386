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

// Package memory implements every repository on an in-process go-memdb
// database. It backs tests and the server's memory driver.
package memory

import (
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"
)

const (
	tableTenants = "tenants"
	tableMembers = "members"
	tableInvites = "invites"
	tableAudit   = "audit_log"
	tableRows    = "rows"

	indexID         = "id"
	indexTenant     = "tenant"
	indexTenantUser = "tenant_user"
	indexToken      = "token"
	indexTable      = "table"
)

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableTenants: {
				Name: tableTenants,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
				},
			},
			tableMembers: {
				Name: tableMembers,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:     {Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					indexTenant: {Name: indexTenant, Indexer: &memdb.StringFieldIndex{Field: "TenantID"}},
					indexTenantUser: {
						Name:   indexTenantUser,
						Unique: true,
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "TenantID"},
							&memdb.StringFieldIndex{Field: "UserID"},
						}},
					},
				},
			},
			tableInvites: {
				Name: tableInvites,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:     {Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					indexTenant: {Name: indexTenant, Indexer: &memdb.StringFieldIndex{Field: "TenantID"}},
					indexToken:  {Name: indexToken, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "TokenHash"}},
				},
			},
			tableAudit: {
				Name: tableAudit,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:     {Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					indexTenant: {Name: indexTenant, Indexer: &memdb.StringFieldIndex{Field: "TenantID"}},
				},
			},
			tableRows: {
				Name: tableRows,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:    {Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Key"}},
					indexTable: {Name: indexTable, Indexer: &memdb.StringFieldIndex{Field: "Table"}},
				},
			},
		},
	}
}

// DB wraps the in-memory database. Stored objects are never mutated in place;
// every write inserts a fresh copy.
type DB struct {
	db  *memdb.MemDB
	now func() time.Time
}

// New creates an empty database.
func New() (*DB, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}
	return &DB{db: db, now: time.Now}, nil
}

// SetClock overrides the timestamp source used for rows the store stamps itself.
func (d *DB) SetClock(now func() time.Time) {
	d.now = now
}

func (d *DB) read() *memdb.Txn {
	return d.db.Txn(false)
}

// write opens the single write transaction; go-memdb serializes writers.
func (d *DB) write() *memdb.Txn {
	return d.db.Txn(true)
}

func collect[T any](it memdb.ResultIterator, keep func(T) bool) []T {
	var out []T
	for raw := it.Next(); raw != nil; raw = it.Next() {
		v := raw.(T)
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// newestFirst sorts by time descending, then id descending.
func newestFirst[T any](items []T, at func(T) time.Time, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := at(items[i]), at(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return id(items[i]) > id(items[j])
	})
}
