// Package record models tenant-owned domain records and reads them through the
// schema-resolving reader, which hides the normalized/legacy storage split.
package record

import (
	"encoding/json"
	"maps"
	"time"
)

// Type names a domain record type.
type Type string

const (
	TypeStaff        Type = "staff"
	TypePayroll      Type = "payroll"
	TypeMatch        Type = "match"
	TypeContract     Type = "contract"
	TypeCampaign     Type = "campaign"
	TypeWallet       Type = "wallet"
	TypeTransaction  Type = "transaction"
	TypeRoster       Type = "roster"
	TypeRosterMember Type = "roster_member"
)

// Record is the normalized shape every caller sees, whatever the stored shape.
type Record struct {
	ID        string
	TenantID  string
	Type      Type
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
	// Synthetic marks a record built by policy rather than read from storage.
	Synthetic bool
}

// Clone returns a copy with its own field map.
func (r *Record) Clone() *Record {
	c := *r
	c.Fields = maps.Clone(r.Fields)
	if c.Fields == nil {
		c.Fields = map[string]any{}
	}
	return &c
}

// Get returns a field value.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// String returns a string field or "".
func (r *Record) String(key string) string {
	s, _ := r.Fields[key].(string)
	return s
}

// MarshalJSON flattens fields next to the envelope keys.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+5)
	maps.Copy(out, r.Fields)
	out["id"] = r.ID
	out["tenantId"] = r.TenantID
	out["recordType"] = r.Type
	if !r.CreatedAt.IsZero() {
		out["createdAt"] = r.CreatedAt
	}
	if !r.UpdatedAt.IsZero() {
		out["updatedAt"] = r.UpdatedAt
	}
	return json.Marshal(out)
}
