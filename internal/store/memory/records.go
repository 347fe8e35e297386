package memory

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/record"
)

// storedRow is one row of a record table. Legacy rows carry their tenant only
// inside Data, as the migrated production tables do.
type storedRow struct {
	Key   string
	Table string
	Row   record.Row
}

func rowKey(table, id string) string {
	return table + "/" + id
}

func (sr *storedRow) belongsTo(tenantID string) bool {
	if sr.Row.Shape == record.ShapeLegacy {
		v, _ := sr.Row.Data[record.LegacyTenantKey].(string)
		return v == tenantID
	}
	return sr.Row.TenantID == tenantID
}

func cloneRow(r record.Row) record.Row {
	c := r
	c.Columns = maps.Clone(r.Columns)
	c.Data = maps.Clone(r.Data)
	return c
}

// RecordRepository implements record.Store
type RecordRepository struct {
	db *DB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Seed stores a raw row as-is, in either shape.
func (r *RecordRepository) Seed(table string, row record.Row) error {
	if row.Shape != record.ShapeNormalized && row.Shape != record.ShapeLegacy {
		return fmt.Errorf("row %s has no shape", row.ID)
	}
	txn := r.db.write()
	defer txn.Abort()
	if err := txn.Insert(tableRows, &storedRow{Key: rowKey(table, row.ID), Table: table, Row: cloneRow(row)}); err != nil {
		return fmt.Errorf("failed to seed row: %w", err)
	}
	txn.Commit()
	return nil
}

func (r *RecordRepository) query(s *record.Schema, limit int, keep func(*storedRow) bool) ([]record.Row, error) {
	it, err := r.db.read().Get(tableRows, indexTable, s.Table)
	if err != nil {
		return nil, err
	}
	matched := collect[*storedRow](it, keep)
	newestFirst(matched, func(sr *storedRow) time.Time { return sr.Row.CreatedAt }, func(sr *storedRow) string { return sr.Row.ID })
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	out := make([]record.Row, len(matched))
	for i, sr := range matched {
		out[i] = cloneRow(sr.Row)
	}
	return out, nil
}

func (r *RecordRepository) QueryNormalized(_ context.Context, s *record.Schema, tenantID string, limit int) ([]record.Row, error) {
	return r.query(s, limit, func(sr *storedRow) bool {
		return sr.Row.Shape == record.ShapeNormalized && sr.belongsTo(tenantID)
	})
}

func (r *RecordRepository) QueryLegacy(_ context.Context, s *record.Schema, tenantID string, limit int) ([]record.Row, error) {
	return r.query(s, limit, func(sr *storedRow) bool {
		return sr.Row.Shape == record.ShapeLegacy && sr.belongsTo(tenantID)
	})
}

func (r *RecordRepository) find(txn *memdb.Txn, s *record.Schema, tenantID, id string, shape record.Shape) (*storedRow, error) {
	raw, err := txn.First(tableRows, indexID, rowKey(s.Table, id))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	sr := raw.(*storedRow)
	if sr.Row.Shape != shape || !sr.belongsTo(tenantID) {
		return nil, nil
	}
	return sr, nil
}

func (r *RecordRepository) FindNormalized(_ context.Context, s *record.Schema, tenantID, id string) (*record.Row, error) {
	return r.findRow(s, tenantID, id, record.ShapeNormalized)
}

func (r *RecordRepository) FindLegacy(_ context.Context, s *record.Schema, tenantID, id string) (*record.Row, error) {
	return r.findRow(s, tenantID, id, record.ShapeLegacy)
}

func (r *RecordRepository) findRow(s *record.Schema, tenantID, id string, shape record.Shape) (*record.Row, error) {
	sr, err := r.find(r.db.read(), s, tenantID, id, shape)
	if err != nil || sr == nil {
		return nil, err
	}
	row := cloneRow(sr.Row)
	return &row, nil
}

func (r *RecordRepository) Insert(_ context.Context, s *record.Schema, rec *record.Record) error {
	row := record.Row{
		Shape:     record.ShapeNormalized,
		ID:        rec.ID,
		TenantID:  rec.TenantID,
		Columns:   columnsOf(s, rec),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}

	txn := r.db.write()
	defer txn.Abort()
	existing, err := txn.First(tableRows, indexID, rowKey(s.Table, rec.ID))
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Invariant("%s %s already exists", s.Type, rec.ID)
	}
	if err := txn.Insert(tableRows, &storedRow{Key: rowKey(s.Table, rec.ID), Table: s.Table, Row: row}); err != nil {
		return fmt.Errorf("failed to insert %s: %w", s.Table, err)
	}
	txn.Commit()
	return nil
}

// Lock holds the memdb write transaction for the duration of fn, which
// serializes it against every other write.
func (r *RecordRepository) Lock(ctx context.Context, s *record.Schema, tenantID, id string, fn func(cur *record.Row, w record.Writer) error) error {
	txn := r.db.write()
	defer txn.Abort()

	sr, err := r.find(txn, s, tenantID, id, record.ShapeNormalized)
	if err != nil {
		return err
	}
	if sr == nil && s.DualSchema {
		if sr, err = r.find(txn, s, tenantID, id, record.ShapeLegacy); err != nil {
			return err
		}
	}

	var cur *record.Row
	if sr != nil {
		row := cloneRow(sr.Row)
		cur = &row
	}
	if err := fn(cur, &rowWriter{txn: txn, schema: s, stored: sr}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

type rowWriter struct {
	txn    *memdb.Txn
	schema *record.Schema
	stored *storedRow
}

// Update rewrites the row in its existing shape.
func (w *rowWriter) Update(_ context.Context, rec *record.Record) error {
	if w.stored == nil {
		return apperr.ErrNotFound
	}
	row := cloneRow(w.stored.Row)
	row.UpdatedAt = rec.UpdatedAt
	switch row.Shape {
	case record.ShapeNormalized:
		row.Columns = columnsOf(w.schema, rec)
		for _, f := range w.schema.Fields {
			delete(row.Data, f.Key)
		}
	case record.ShapeLegacy:
		if row.Data == nil {
			row.Data = map[string]any{}
		}
		for _, f := range w.schema.Fields {
			if v, ok := rec.Fields[f.Key]; ok && v != nil {
				row.Data[f.Key] = v
			} else {
				delete(row.Data, f.Key)
			}
		}
	}
	next := &storedRow{Key: w.stored.Key, Table: w.stored.Table, Row: row}
	if err := w.txn.Insert(tableRows, next); err != nil {
		return fmt.Errorf("failed to update %s: %w", w.stored.Table, err)
	}
	w.stored = next
	return nil
}

func (w *rowWriter) Delete(context.Context) error {
	if w.stored == nil {
		return apperr.ErrNotFound
	}
	if err := w.txn.Delete(tableRows, w.stored); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", w.stored.Table, err)
	}
	w.stored = nil
	return nil
}

func columnsOf(s *record.Schema, rec *record.Record) map[string]any {
	cols := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		cols[f.Column] = rec.Fields[f.Key]
	}
	return cols
}
