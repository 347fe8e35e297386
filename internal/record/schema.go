package record

import (
	"sort"
	"time"

	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/shopspring/decimal"
)

// LegacyTenantKey is the tenant field inside legacy data blobs.
const LegacyTenantKey = "tenantId"

// reserved keys are server-assigned and never accepted in payloads.
var reserved = map[string]bool{
	"id": true, "tenantId": true, "recordType": true, "createdAt": true, "updatedAt": true,
}

// Field describes one domain attribute.
type Field struct {
	Key      string // payload and legacy data key
	Column   string // normalized column
	Kind     Kind
	Required bool
	// Default applies when a legacy row lacks the field.
	Default any
}

// Reference requires a field to name an existing record of another type in the same tenant.
type Reference struct {
	Field string
	Type  Type
}

// Schema describes how a record type is stored.
type Schema struct {
	Type  Type
	Table string
	// DualSchema types may also exist as legacy rows keyed by data->>'tenantId'.
	DualSchema bool
	Fields     []Field
	References []Reference
	// Placeholder builds the record returned when a tenant has none of this type.
	Placeholder func(tenantID string) *Record
}

// Field returns the field with the given key.
func (s *Schema) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Columns returns the normalized column names in declaration order.
func (s *Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Validate checks a payload against the schema and returns canonical values.
// For a patch, required fields may be absent and a nil value clears the field.
func (s *Schema) Validate(payload map[string]any, patch bool) (map[string]any, error) {
	out := make(map[string]any, len(payload))
	for key, v := range payload {
		if reserved[key] {
			return nil, apperr.Invalid("field %q is server-assigned", key)
		}
		f, ok := s.Field(key)
		if !ok {
			return nil, apperr.Invalid("unknown field %q for %s", key, s.Type)
		}
		if v == nil {
			if f.Required {
				return nil, apperr.Invalid("field %q is required", key)
			}
			out[key] = nil
			continue
		}
		cv, err := f.Kind.Coerce(v)
		if err != nil {
			return nil, apperr.Invalid("field %q: %v", key, err)
		}
		out[key] = cv
	}
	if !patch {
		for _, f := range s.Fields {
			if _, ok := out[f.Key]; f.Required && !ok {
				return nil, apperr.Invalid("field %q is required", f.Key)
			}
		}
	}
	return out, nil
}

func str(key, column string, required bool) Field {
	return Field{Key: key, Column: column, Kind: KindString, Required: required}
}

func typed(key, column string, kind Kind, required bool) Field {
	return Field{Key: key, Column: column, Kind: kind, Required: required}
}

func withDefault(f Field, v any) Field {
	f.Default = v
	return f
}

var registry = map[Type]*Schema{
	TypeStaff: {
		Type:       TypeStaff,
		Table:      "staff",
		DualSchema: true,
		Fields: []Field{
			str("name", "name", true),
			str("email", "email", true),
			str("phone", "phone", false),
			str("role", "role", true),
			str("avatar", "avatar", false),
			withDefault(typed("permissions", "permissions", KindStrings, false), []string{}),
			withDefault(str("status", "status", false), "active"),
		},
	},
	TypePayroll: {
		Type:       TypePayroll,
		Table:      "payroll",
		DualSchema: true,
		Fields: []Field{
			str("staffId", "staff_id", false),
			str("name", "name", true),
			str("role", "role", true),
			typed("amount", "amount", KindDecimal, true),
			str("type", "type", true),
			withDefault(str("status", "status", false), "pending"),
			typed("date", "date", KindTime, true),
		},
	},
	TypeMatch: {
		Type:  TypeMatch,
		Table: "matches",
		Fields: []Field{
			str("tournamentId", "tournament_id", false),
			str("teamA", "team_a", true),
			str("teamB", "team_b", true),
			typed("scoreA", "score_a", KindInt, false),
			typed("scoreB", "score_b", KindInt, false),
			typed("date", "date", KindTime, true),
			str("game", "game", true),
			str("venue", "venue", false),
			str("status", "status", false),
			str("notes", "notes", false),
		},
	},
	TypeContract: {
		Type:  TypeContract,
		Table: "contracts",
		Fields: []Field{
			str("fileName", "file_name", true),
			str("fileUrl", "file_url", true),
			str("type", "type", true),
			str("linkedPerson", "linked_person", true),
			typed("expirationDate", "expiration_date", KindTime, true),
			str("status", "status", false),
		},
	},
	TypeCampaign: {
		Type:  TypeCampaign,
		Table: "campaigns",
		Fields: []Field{
			str("title", "title", true),
			str("description", "description", true),
			typed("startDate", "start_date", KindTime, true),
			typed("endDate", "end_date", KindTime, true),
			typed("platforms", "platforms", KindStrings, true),
			typed("reach", "reach", KindInt, false),
			typed("engagement", "engagement", KindDecimal, false),
			str("status", "status", false),
		},
	},
	TypeWallet: {
		Type:       TypeWallet,
		Table:      "wallets",
		DualSchema: true,
		Fields: []Field{
			str("name", "name", true),
			str("type", "type", false),
			withDefault(str("currency", "currency", false), "usd"),
			withDefault(typed("balance", "balance", KindDecimal, false), decimal.Zero),
			withDefault(typed("isDefault", "is_default", KindBool, false), true),
		},
		Placeholder: defaultWallet,
	},
	TypeTransaction: {
		Type:       TypeTransaction,
		Table:      "transactions",
		DualSchema: true,
		Fields: []Field{
			str("walletId", "wallet_id", false),
			str("type", "type", true),
			str("category", "category", true),
			typed("amount", "amount", KindDecimal, true),
			str("description", "description", false),
			typed("date", "date", KindTime, true),
			str("paymentMethod", "payment_method", false),
			str("reference", "reference", false),
			str("createdBy", "created_by", false),
		},
	},
	TypeRoster: {
		Type:  TypeRoster,
		Table: "rosters",
		Fields: []Field{
			str("name", "name", true),
			str("game", "game", true),
			str("description", "description", false),
			str("status", "status", false),
		},
	},
	TypeRosterMember: {
		Type:  TypeRosterMember,
		Table: "roster_members",
		Fields: []Field{
			str("rosterId", "roster_id", true),
			str("staffId", "staff_id", true),
			str("position", "position", false),
			str("status", "status", false),
			typed("joinedAt", "joined_at", KindTime, false),
		},
		References: []Reference{
			{Field: "rosterId", Type: TypeRoster},
			{Field: "staffId", Type: TypeStaff},
		},
	},
}

func defaultWallet(tenantID string) *Record {
	return &Record{
		TenantID: tenantID,
		Type:     TypeWallet,
		Fields: map[string]any{
			"name":      "Main Wallet",
			"type":      "operating",
			"currency":  "usd",
			"balance":   decimal.Zero,
			"isDefault": true,
		},
		Synthetic: true,
	}
}

// Lookup returns the schema for t.
func Lookup(t Type) (*Schema, bool) {
	s, ok := registry[t]
	return s, ok
}

// SchemaFor returns the schema for t or an invalid-input error.
func SchemaFor(t Type) (*Schema, error) {
	s, ok := registry[t]
	if !ok {
		return nil, apperr.Invalid("unknown record type %q", t)
	}
	return s, nil
}

// Types lists registered record types in name order.
func Types() []Type {
	out := make([]Type, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Schemas lists registered schemas in type order.
func Schemas() []*Schema {
	types := Types()
	out := make([]*Schema, len(types))
	for i, t := range types {
		out[i] = registry[t]
	}
	return out
}

// Stamp sets server-assigned fields on a new record.
func Stamp(r *Record, id, tenantID string, now time.Time) {
	r.ID = id
	r.TenantID = tenantID
	r.CreatedAt = now
	r.UpdatedAt = now
}
