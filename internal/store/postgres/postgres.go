package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/imgsrv/imageserver/internal/observability"
	"github.com/imgsrv/imageserver/internal/schema"
	"github.com/imgsrv/imageserver/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists schema rows in postgres. All SQL is generated from the
// field schema, so adding a field to a kind is a schema change only.
type Store struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func New(pool *pgxpool.Pool, prom *observability.Prom) *Store {
	return &Store{pool: pool, prom: prom}
}

// Column constraints that cannot be derived from the field schema alone.
var columnConstraints = map[schema.Kind]map[string]string{
	schema.KindUser: {
		"email": "UNIQUE",
	},
	schema.KindPost: {
		"userId": `REFERENCES "users"("id") ON DELETE CASCADE`,
	},
}

// Fields whose empty string means "not set"; stored as NULL so foreign
// keys and unique constraints behave.
var nullableFields = map[schema.Kind]map[string]bool{
	schema.KindUser: {"password": true, "imageUrl": true},
	schema.KindPost: {"userId": true},
}

func (s *Store) Migrate(ctx context.Context, kind schema.Kind) error {
	fields := schema.Fields(kind)
	if len(fields) == 0 {
		return fmt.Errorf("unknown kind %q", kind)
	}

	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Name == schema.IDField {
			cols = append(cols, `"id" TEXT PRIMARY KEY`)
			continue
		}

		col := quote(f.Name) + " " + sqlType(f.Type)
		if !nullableFields[kind][f.Name] {
			col += " NOT NULL"
			if f.Type == schema.TypeInt {
				col += " DEFAULT 0"
			}
		}
		if c := columnConstraints[kind][f.Name]; c != "" {
			col += " " + c
		}
		cols = append(cols, col)
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(string(kind)), strings.Join(cols, ", "))

	return s.observe("migrate", func() error {
		_, err := s.pool.Exec(ctx, query)
		return err
	})
}

func (s *Store) Get(ctx context.Context, kind schema.Kind, id string) (schema.Row, error) {
	fields := schema.Fields(kind)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE "id" = $1`, columnList(fields), quote(string(kind)))

	var row schema.Row
	err := s.observe("get", func() error {
		var scanErr error
		row, scanErr = scanRow(s.pool.QueryRow(ctx, query, id), fields)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return row, nil
}

func (s *Store) List(ctx context.Context, kind schema.Kind) ([]schema.Row, error) {
	fields := schema.Fields(kind)
	query := fmt.Sprintf("SELECT %s FROM %s", columnList(fields), quote(string(kind)))

	var out []schema.Row
	err := s.observe("list", func() error {
		rows, err := s.pool.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]schema.Row, 0)
		for rows.Next() {
			r, err := scanRow(rows, fields)
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, kind schema.Kind, row schema.Row) (string, error) {
	fields := schema.Fields(kind)
	id := uuid.NewString()

	cols := make([]string, 0, len(fields))
	placeholders := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))

	for _, f := range fields {
		cols = append(cols, quote(f.Name))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
		if f.Name == schema.IDField {
			args = append(args, id)
			continue
		}
		args = append(args, writeValue(kind, f.Name, row[f.Name]))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(string(kind)), strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	err := s.observe("insert", func() error {
		_, err := s.pool.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, kind schema.Kind, id string, row schema.Row) error {
	fields := schema.Fields(kind)

	sets := make([]string, 0, len(fields))
	args := []any{id}

	for _, f := range fields {
		if f.Name == schema.IDField {
			continue
		}
		args = append(args, writeValue(kind, f.Name, row[f.Name]))
		sets = append(sets, fmt.Sprintf("%s = $%d", quote(f.Name), len(args)))
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE "id" = $1`, quote(string(kind)), strings.Join(sets, ", "))

	return s.observe("update", func() error {
		tag, err := s.pool.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, kind schema.Kind, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE "id" = $1`, quote(string(kind)))

	return s.observe("delete", func() error {
		tag, err := s.pool.Exec(ctx, query, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *Store) Find(ctx context.Context, kind schema.Kind, field string, value any) (schema.Row, error) {
	fields := schema.Fields(kind)

	// only schema-declared names may reach the SQL text
	known := false
	for _, f := range fields {
		if f.Name == field {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown field %q for kind %q", field, kind)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 LIMIT 1",
		columnList(fields), quote(string(kind)), quote(field))

	var row schema.Row
	err := s.observe("find", func() error {
		var scanErr error
		row, scanErr = scanRow(s.pool.QueryRow(ctx, query, value), fields)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return row, nil
}

func (s *Store) observe(op string, fn func() error) error {
	if s.prom == nil {
		return fn()
	}
	return s.prom.ObserveDB(op, fn)
}

func quote(ident string) string {
	return `"` + ident + `"`
}

func sqlType(t schema.FieldType) string {
	if t == schema.TypeInt {
		return "INTEGER"
	}
	return "TEXT"
}

func columnList(fields []schema.Field) string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = quote(f.Name)
	}
	return strings.Join(cols, ", ")
}

// writeValue translates the in-memory representation to the column value,
// turning "" into NULL for nullable columns.
func writeValue(kind schema.Kind, field string, v any) any {
	if nullableFields[kind][field] {
		if s, ok := v.(string); ok && s == "" {
			return nil
		}
		if v == nil {
			return nil
		}
	}
	return v
}

func scanRow(src pgx.Row, fields []schema.Field) (schema.Row, error) {
	dests := make([]any, len(fields))
	for i, f := range fields {
		switch f.Type {
		case schema.TypeInt:
			dests[i] = new(*int64)
		default:
			dests[i] = new(*string)
		}
	}

	if err := src.Scan(dests...); err != nil {
		return nil, err
	}

	out := make(schema.Row, len(fields))
	for i, f := range fields {
		switch f.Type {
		case schema.TypeInt:
			if p := *(dests[i].(**int64)); p != nil {
				out[f.Name] = int(*p)
			}
		default:
			if p := *(dests[i].(**string)); p != nil {
				out[f.Name] = *p
			}
		}
	}
	return out, nil
}
