package record

import (
	"context"
	"log/slog"

	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/observability/logger"
)

// DefaultLimit caps each resolve query.
const DefaultLimit = 200

// Reader resolves records across normalized and legacy storage shapes.
type Reader struct {
	src    Source
	limit  int
	logger *slog.Logger
}

// NewReader creates a reader over src returning at most limit rows per query.
func NewReader(src Source, limit int, l *slog.Logger) *Reader {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if l == nil {
		l = slog.Default()
	}
	return &Reader{src: src, limit: limit, logger: l.With(logger.Component("record_reader"))}
}

// Resolve returns the tenant's records of type t. The legacy path is consulted
// only when the normalized path returns zero rows; a query error on either
// path is returned as ErrStorageUnavailable.
func (r *Reader) Resolve(ctx context.Context, tenantID string, t Type) ([]*Record, error) {
	s, err := SchemaFor(t)
	if err != nil {
		return nil, err
	}

	rows, err := r.src.QueryNormalized(ctx, s, tenantID, r.limit)
	if err != nil {
		return nil, apperr.Unavailable("resolve normalized "+s.Table, err)
	}
	if len(rows) == 0 && s.DualSchema {
		rows, err = r.src.QueryLegacy(ctx, s, tenantID, r.limit)
		if err != nil {
			return nil, apperr.Unavailable("resolve legacy "+s.Table, err)
		}
		if len(rows) > 0 {
			r.logger.DebugContext(ctx, "served records from legacy shape",
				logger.TenantID(tenantID),
				logger.Entity(string(t)),
				slog.Int("rows", len(rows)),
			)
		}
	}

	out := make([]*Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.Normalize(ctx, s, row))
	}
	return out, nil
}

// Get returns one record scoped to tenantID, or ErrNotFound.
func (r *Reader) Get(ctx context.Context, tenantID string, t Type, id string) (*Record, error) {
	s, err := SchemaFor(t)
	if err != nil {
		return nil, err
	}

	row, err := r.src.FindNormalized(ctx, s, tenantID, id)
	if err != nil {
		return nil, apperr.Unavailable("find normalized "+s.Table, err)
	}
	if row == nil && s.DualSchema {
		row, err = r.src.FindLegacy(ctx, s, tenantID, id)
		if err != nil {
			return nil, apperr.Unavailable("find legacy "+s.Table, err)
		}
	}
	if row == nil {
		return nil, apperr.ErrNotFound
	}
	return r.Normalize(ctx, s, *row), nil
}

// Normalize converts a stored row into the record shape. Normalized rows take
// each column and fall back to the same-named data field when the column is
// NULL. Legacy rows are built from data alone with per-field defaults.
// Values that cannot be coerced are dropped and logged.
func (r *Reader) Normalize(ctx context.Context, s *Schema, row Row) *Record {
	rec := &Record{
		ID:        row.ID,
		TenantID:  row.TenantID,
		Type:      s.Type,
		Fields:    make(map[string]any, len(s.Fields)),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.Shape == ShapeLegacy && rec.TenantID == "" {
		rec.TenantID, _ = row.Data[LegacyTenantKey].(string)
	}

	for _, f := range s.Fields {
		var raw any
		switch row.Shape {
		case ShapeNormalized:
			raw = row.Columns[f.Column]
			if raw == nil {
				raw = row.Data[f.Key]
			}
		case ShapeLegacy:
			raw = row.Data[f.Key]
		}

		if raw != nil {
			v, err := f.Kind.Coerce(raw)
			if err == nil {
				rec.Fields[f.Key] = v
				continue
			}
			r.logger.WarnContext(ctx, "dropping malformed field",
				logger.Entity(string(s.Type)),
				logger.EntityID(row.ID),
				slog.String("field", f.Key),
				slog.String("shape", row.Shape.String()),
				logger.Error(err),
			)
		}
		if row.Shape == ShapeLegacy && f.Default != nil {
			rec.Fields[f.Key] = f.Default
		}
	}
	return rec
}
