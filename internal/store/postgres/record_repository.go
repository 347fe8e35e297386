package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/record"
)

// RecordRepository implements record.Store over the per-type tables.
// Column values travel as text: parameters are cast $n::text::<type> and
// reads render each column with to_jsonb(col) #>> '{}', leaving coercion to
// the record kinds.
type RecordRepository struct {
	db *DB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

const legacyFilter = `tenant_id IS NULL AND data->>'` + record.LegacyTenantKey + `' = $1`

func selectRow(s *record.Schema) string {
	var b strings.Builder
	b.WriteString(`SELECT id, COALESCE(tenant_id, ''), data, created_at, updated_at`)
	for _, col := range s.Columns() {
		fmt.Fprintf(&b, `, to_jsonb(%s) #>> '{}'`, ident(col))
	}
	b.WriteString(` FROM `)
	b.WriteString(ident(s.Table))
	return b.String()
}

func scanRow(row pgx.Row, s *record.Schema, shape record.Shape) (*record.Row, error) {
	var (
		out  = record.Row{Shape: shape}
		data []byte
		vals = make([]*string, len(s.Fields))
	)
	dest := []any{&out.ID, &out.TenantID, &data, &out.CreatedAt, &out.UpdatedAt}
	for i := range vals {
		dest = append(dest, &vals[i])
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	out.Columns = make(map[string]any, len(s.Fields))
	for i, f := range s.Fields {
		if vals[i] == nil {
			out.Columns[f.Column] = nil
			continue
		}
		out.Columns[f.Column] = *vals[i]
	}
	if len(data) > 0 {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&out.Data); err != nil {
			return nil, fmt.Errorf("failed to decode data for %s %s: %w", s.Table, out.ID, err)
		}
	}
	return &out, nil
}

func (r *RecordRepository) query(ctx context.Context, s *record.Schema, filter, tenantID string, limit int, shape record.Shape) ([]record.Row, error) {
	sql := selectRow(s) + ` WHERE ` + filter + ` ORDER BY created_at DESC, id DESC LIMIT NULLIF($2::int, 0)`
	rows, err := r.db.pool.Query(ctx, sql, tenantID, limit)
	if err != nil {
		return nil, mapError("query "+s.Table, err)
	}
	defer rows.Close()

	out := []record.Row{}
	for rows.Next() {
		row, err := scanRow(rows, s, shape)
		if err != nil {
			return nil, apperr.Unavailable("scan "+s.Table, err)
		}
		out = append(out, *row)
	}
	return out, mapError("query "+s.Table, rows.Err())
}

func (r *RecordRepository) QueryNormalized(ctx context.Context, s *record.Schema, tenantID string, limit int) ([]record.Row, error) {
	return r.query(ctx, s, `tenant_id = $1`, tenantID, limit, record.ShapeNormalized)
}

func (r *RecordRepository) QueryLegacy(ctx context.Context, s *record.Schema, tenantID string, limit int) ([]record.Row, error) {
	if !s.DualSchema {
		return []record.Row{}, nil
	}
	return r.query(ctx, s, legacyFilter, tenantID, limit, record.ShapeLegacy)
}

func (r *RecordRepository) find(ctx context.Context, q querier, s *record.Schema, filter, tenantID, id string, shape record.Shape, suffix string) (*record.Row, error) {
	sql := selectRow(s) + ` WHERE ` + filter + ` AND id = $2` + suffix
	row, err := scanRow(q.QueryRow(ctx, sql, tenantID, id), s, shape)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("find "+s.Table, err)
	}
	return row, nil
}

func (r *RecordRepository) FindNormalized(ctx context.Context, s *record.Schema, tenantID, id string) (*record.Row, error) {
	return r.find(ctx, r.db.pool, s, `tenant_id = $1`, tenantID, id, record.ShapeNormalized, "")
}

func (r *RecordRepository) FindLegacy(ctx context.Context, s *record.Schema, tenantID, id string) (*record.Row, error) {
	if !s.DualSchema {
		return nil, nil
	}
	return r.find(ctx, r.db.pool, s, legacyFilter, tenantID, id, record.ShapeLegacy, "")
}

// columnArgs renders the record's field values as text parameters, starting at $next.
func columnArgs(s *record.Schema, rec *record.Record, next int) ([]string, []any, error) {
	exprs := make([]string, len(s.Fields))
	args := make([]any, len(s.Fields))
	for i, f := range s.Fields {
		exprs[i] = fmt.Sprintf("$%d::text::%s", next+i, f.Kind.SQLType())
		v, ok := rec.Fields[f.Key]
		if !ok || v == nil {
			continue
		}
		text, err := f.Kind.Text(v)
		if err != nil {
			return nil, nil, apperr.Invalid("field %q: %v", f.Key, err)
		}
		args[i] = text
	}
	return exprs, args, nil
}

func (r *RecordRepository) Insert(ctx context.Context, s *record.Schema, rec *record.Record) error {
	exprs, vals, err := columnArgs(s, rec, 5)
	if err != nil {
		return err
	}
	cols := make([]string, 0, len(s.Fields)+4)
	cols = append(cols, "id", "tenant_id", "created_at", "updated_at")
	for _, c := range s.Columns() {
		cols = append(cols, ident(c))
	}

	sql := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, %s)`,
		ident(s.Table), strings.Join(cols, ", "), strings.Join(exprs, ", "))
	args := append([]any{rec.ID, rec.TenantID, rec.CreatedAt, rec.UpdatedAt}, vals...)
	_, err = r.db.pool.Exec(ctx, sql, args...)
	return mapError("insert "+s.Table, err)
}

// Lock selects the row FOR UPDATE inside a transaction that commits when fn succeeds.
func (r *RecordRepository) Lock(ctx context.Context, s *record.Schema, tenantID, id string, fn func(cur *record.Row, w record.Writer) error) error {
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		cur, err := r.find(ctx, tx, s, `tenant_id = $1`, tenantID, id, record.ShapeNormalized, ` FOR UPDATE`)
		if err != nil {
			return err
		}
		if cur == nil && s.DualSchema {
			if cur, err = r.find(ctx, tx, s, legacyFilter, tenantID, id, record.ShapeLegacy, ` FOR UPDATE`); err != nil {
				return err
			}
		}

		var snapshot *record.Row
		if cur != nil {
			c := *cur
			snapshot = &c
		}
		return fn(snapshot, &rowWriter{tx: tx, schema: s, tenantID: tenantID, cur: cur})
	})
}

type rowWriter struct {
	tx       pgx.Tx
	schema   *record.Schema
	tenantID string
	cur      *record.Row
}

// scope returns the tenant predicate for the locked row's shape, bound to $n.
func (w *rowWriter) scope(n int) string {
	if w.cur.Shape == record.ShapeLegacy {
		return fmt.Sprintf(`tenant_id IS NULL AND data->>'%s' = $%d`, record.LegacyTenantKey, n)
	}
	return fmt.Sprintf(`tenant_id = $%d`, n)
}

// exec runs a single-row write and reports ErrNotFound when nothing matched.
func (w *rowWriter) exec(ctx context.Context, op, sql string, args ...any) error {
	tag, err := w.tx.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(op+" "+w.schema.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Update rewrites the row in its existing shape.
func (w *rowWriter) Update(ctx context.Context, rec *record.Record) error {
	if w.cur == nil {
		return apperr.ErrNotFound
	}
	s := w.schema
	table := ident(s.Table)

	switch w.cur.Shape {
	case record.ShapeNormalized:
		exprs, vals, err := columnArgs(s, rec, 4)
		if err != nil {
			return err
		}
		sets := make([]string, len(exprs))
		for i, c := range s.Columns() {
			sets[i] = ident(c) + " = " + exprs[i]
		}
		keys := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			keys[i] = f.Key
		}
		sql := fmt.Sprintf(`UPDATE %s SET updated_at = $2, data = data - $3::text[], %s WHERE id = $1 AND %s`,
			table, strings.Join(sets, ", "), w.scope(4+len(vals)))
		args := append([]any{w.cur.ID, rec.UpdatedAt, keys}, vals...)
		args = append(args, w.tenantID)
		if err := w.exec(ctx, "update", sql, args...); err != nil {
			return err
		}

	case record.ShapeLegacy:
		data := make(map[string]any, len(w.cur.Data)+len(s.Fields))
		for k, v := range w.cur.Data {
			data[k] = v
		}
		for _, f := range s.Fields {
			v, ok := rec.Fields[f.Key]
			if !ok || v == nil {
				delete(data, f.Key)
				continue
			}
			text, err := f.Kind.Text(v)
			if err != nil {
				return apperr.Invalid("field %q: %v", f.Key, err)
			}
			data[f.Key] = legacyValue(f.Kind, v, text)
		}
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to encode data for %s %s: %w", s.Table, w.cur.ID, err)
		}
		sql := `UPDATE ` + table + ` SET data = $2::jsonb, updated_at = $3 WHERE id = $1 AND ` + w.scope(4)
		if err := w.exec(ctx, "update", sql, w.cur.ID, string(b), rec.UpdatedAt, w.tenantID); err != nil {
			return err
		}
	}
	w.cur.UpdatedAt = rec.UpdatedAt
	return nil
}

// legacyValue keeps JSON-native kinds native inside the blob and stores the
// rest as their text rendering.
func legacyValue(k record.Kind, v any, text string) any {
	switch k {
	case record.KindInt, record.KindBool, record.KindStrings:
		return v
	}
	return text
}

func (w *rowWriter) Delete(ctx context.Context) error {
	if w.cur == nil {
		return apperr.ErrNotFound
	}
	sql := `DELETE FROM ` + ident(w.schema.Table) + ` WHERE id = $1 AND ` + w.scope(2)
	if err := w.exec(ctx, "delete", sql, w.cur.ID, w.tenantID); err != nil {
		return err
	}
	w.cur = nil
	return nil
}

var _ record.Store = (*RecordRepository)(nil)

// SeedLegacy inserts a pre-migration row that carries its tenant and fields
// only in data.
func (r *RecordRepository) SeedLegacy(ctx context.Context, table, id string, data map[string]any, at time.Time) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}
	_, err = r.db.pool.Exec(ctx,
		`INSERT INTO `+ident(table)+` (id, data, created_at, updated_at) VALUES ($1, $2::jsonb, $3, $3)`,
		id, string(b), at)
	return mapError("seed "+table, err)
}
