package record

import (
	"context"
	"time"
)

// Shape tags how a stored row carries its tenant and fields.
type Shape uint8

const (
	// ShapeNormalized rows have tenant_id and per-field columns populated.
	ShapeNormalized Shape = iota + 1
	// ShapeLegacy rows keep the tenant and every field inside the data blob.
	ShapeLegacy
)

func (s Shape) String() string {
	switch s {
	case ShapeNormalized:
		return "normalized"
	case ShapeLegacy:
		return "legacy"
	}
	return "unknown"
}

// Row is a raw stored row. Only the Reader interprets it.
type Row struct {
	Shape    Shape
	ID       string
	TenantID string
	// Columns holds normalized column values keyed by column name; nil means SQL NULL.
	Columns   map[string]any
	Data      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Source is the read side of record storage. Find methods return (nil, nil)
// when no row matches.
type Source interface {
	QueryNormalized(ctx context.Context, s *Schema, tenantID string, limit int) ([]Row, error)
	QueryLegacy(ctx context.Context, s *Schema, tenantID string, limit int) ([]Row, error)
	FindNormalized(ctx context.Context, s *Schema, tenantID, id string) (*Row, error)
	FindLegacy(ctx context.Context, s *Schema, tenantID, id string) (*Row, error)
}

// Writer mutates the row locked by Store.Lock.
type Writer interface {
	// Update persists rec in the locked row's shape.
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context) error
}

// Store is full record storage.
type Store interface {
	Source
	// Insert writes a new normalized row.
	Insert(ctx context.Context, s *Schema, rec *Record) error
	// Lock locks the row (id, tenantID) for the duration of fn and commits if fn
	// returns nil. cur is nil when no row in the tenant has that id.
	Lock(ctx context.Context, s *Schema, tenantID, id string, fn func(cur *Row, w Writer) error) error
}
