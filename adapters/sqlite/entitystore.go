package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
)

// EntityStore serves records straight from SQLite tables, discovering
// types and fields from the catalog. Any table that is not part of the
// engine's own bookkeeping is an entity type; foreign keys become
// to-one relations and their reverse side becomes reverse-to-many.
type EntityStore struct {
	db *DB
}

// NewEntityStore creates a catalog-backed entity store.
func NewEntityStore(db *DB) *EntityStore {
	return &EntityStore{db: db}
}

var _ ports.EntityStore = (*EntityStore)(nil)

// ResolveType resolves a table name to a descriptor. Engine bookkeeping
// and SQLite internal tables are not entity types.
func (s *EntityStore) ResolveType(ctx context.Context, identifier string) (ports.EntityDescriptor, error) {
	if strings.HasPrefix(identifier, "prism_") || strings.HasPrefix(identifier, "sqlite_") {
		return ports.EntityDescriptor{}, fmt.Errorf("%q: %w", identifier, ports.ErrTypeNotFound)
	}

	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		identifier).Scan(&name)
	if err == sql.ErrNoRows {
		return ports.EntityDescriptor{}, fmt.Errorf("%q: %w", identifier, ports.ErrTypeNotFound)
	}
	if err != nil {
		return ports.EntityDescriptor{}, fmt.Errorf("resolve type %s: %w", identifier, err)
	}
	return ports.EntityDescriptor{Identifier: name, Name: name, Table: name}, nil
}

// ListNativeFields enumerates the table's columns and both sides of its
// foreign keys, in a stable order.
func (s *EntityStore) ListNativeFields(ctx context.Context, desc ports.EntityDescriptor) ([]ports.NativeField, error) {
	fks, err := s.foreignKeys(ctx, desc.Table)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(desc.Table)))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", desc.Table, err)
	}
	defer rows.Close()

	var fields []ports.NativeField
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info: %w", err)
		}

		if target, ok := fks[name]; ok {
			fields = append(fields, ports.NativeField{
				Name:        strings.TrimSuffix(name, "_id"),
				Kind:        schema.KindToOne,
				RelatedType: target,
			})
			continue
		}
		fields = append(fields, ports.NativeField{Name: name, Kind: columnKind(colType)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reverse, err := s.reverseRelations(ctx, desc.Table)
	if err != nil {
		return nil, err
	}
	return append(fields, reverse...), nil
}

// Fetch returns the first record whose column equals value.
func (s *EntityStore) Fetch(ctx context.Context, desc ports.EntityDescriptor, field string, value any) (*ports.Record, error) {
	col, err := s.lookupColumn(ctx, desc.Table, field)
	if err != nil {
		return nil, err
	}
	recs, err := s.scan(ctx, desc, fmt.Sprintf(
		"SELECT * FROM %s WHERE %s = ? ORDER BY id LIMIT 1",
		quoteIdent(desc.Table), quoteIdent(col)), value)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s with %s=%v: %w", desc.Identifier, field, value, ports.ErrRecordNotFound)
	}
	return recs[0], nil
}

// Query returns records matching all equality/IN filters, ordered by id.
func (s *EntityStore) Query(ctx context.Context, desc ports.EntityDescriptor, filters map[string]any) ([]*ports.Record, error) {
	cols, err := s.tableColumns(ctx, desc.Table)
	if err != nil {
		return nil, err
	}

	var (
		clauses []string
		args    []any
	)
	for _, field := range sortedKeys(filters) {
		col := quoteIdent(resolveColumn(cols, field))
		switch v := filters[field].(type) {
		case []any:
			if len(v) == 0 {
				continue
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", col,
				strings.TrimSuffix(strings.Repeat("?,", len(v)), ",")))
			args = append(args, v...)
		default:
			clauses = append(clauses, col+" = ?")
			args = append(args, v)
		}
	}

	q := "SELECT * FROM " + quoteIdent(desc.Table)
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY id"
	return s.scan(ctx, desc, q, args...)
}

// Create inserts a row and returns it with its id assigned.
func (s *EntityStore) Create(ctx context.Context, desc ports.EntityDescriptor, attrs map[string]any) (*ports.Record, error) {
	cols := make([]string, 0, len(attrs))
	args := make([]any, 0, len(attrs))
	for _, k := range sortedKeys(attrs) {
		if k == "id" {
			continue
		}
		cols = append(cols, quoteIdent(k))
		args = append(args, attrs[k])
	}

	var q string
	if len(cols) == 0 {
		q = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", quoteIdent(desc.Table))
	} else {
		q = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quoteIdent(desc.Table), strings.Join(cols, ", "),
			strings.TrimSuffix(strings.Repeat("?,", len(cols)), ","))
	}

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", desc.Table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", desc.Table, err)
	}
	return s.Fetch(ctx, desc, "id", id)
}

// Update applies attribute changes to an existing row.
func (s *EntityStore) Update(ctx context.Context, rec *ports.Record, attrs map[string]any) (*ports.Record, error) {
	sets := make([]string, 0, len(attrs))
	args := make([]any, 0, len(attrs)+1)
	for _, k := range sortedKeys(attrs) {
		if k == "id" {
			continue
		}
		sets = append(sets, quoteIdent(k)+" = ?")
		args = append(args, attrs[k])
	}
	if len(sets) == 0 {
		return rec, nil
	}
	args = append(args, rec.ID())

	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?",
		quoteIdent(rec.Type.Table), strings.Join(sets, ", "))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("update %s id=%d: %w", rec.Type.Table, rec.ID(), err)
	}
	return s.Fetch(ctx, rec.Type, "id", rec.ID())
}

// Delete removes a row by id.
func (s *EntityStore) Delete(ctx context.Context, desc ports.EntityDescriptor, id int64) error {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", quoteIdent(desc.Table)), id)
	if err != nil {
		return fmt.Errorf("delete %s id=%d: %w", desc.Table, id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s id=%d: %w", desc.Identifier, id, ports.ErrRecordNotFound)
	}
	return nil
}

// RelationTarget returns the descriptor on the far side of a relation.
func (s *EntityStore) RelationTarget(ctx context.Context, desc ports.EntityDescriptor, field string) (ports.EntityDescriptor, error) {
	fields, err := s.ListNativeFields(ctx, desc)
	if err != nil {
		return ports.EntityDescriptor{}, err
	}
	base := strings.TrimSuffix(field, "_set")
	for _, nf := range fields {
		if nf.Name == field || nf.Name == base {
			if nf.RelatedType == "" {
				return ports.EntityDescriptor{}, fmt.Errorf("field %s of %s is not a relation", field, desc.Identifier)
			}
			return s.ResolveType(ctx, nf.RelatedType)
		}
	}
	return ports.EntityDescriptor{}, fmt.Errorf("field %s of %s not found", field, desc.Identifier)
}

// Related resolves a relation attribute: the FK target for to-one, the
// FK-pointing children for the reverse side.
func (s *EntityStore) Related(ctx context.Context, rec *ports.Record, field string) ([]*ports.Record, error) {
	fields, err := s.ListNativeFields(ctx, rec.Type)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(field, "_set")
	for _, nf := range fields {
		if nf.Name != field && nf.Name != base {
			continue
		}
		target, err := s.ResolveType(ctx, nf.RelatedType)
		if err != nil {
			return nil, err
		}

		switch nf.Kind {
		case schema.KindToOne:
			fk, ok := rec.Attrs[nf.Name+"_id"]
			if !ok {
				fk = rec.Attrs[nf.Name]
			}
			if fk == nil {
				return nil, nil
			}
			related, err := s.Fetch(ctx, target, "id", fk)
			if err != nil {
				return nil, nil
			}
			return []*ports.Record{related}, nil

		case schema.KindReverseToMany, schema.KindToMany:
			return s.Query(ctx, target, map[string]any{
				rec.Type.Name: rec.ID(),
			})
		}
	}
	return nil, fmt.Errorf("field %s of %s is not a relation", field, rec.Type.Identifier)
}

// Attach links a child by pointing its foreign key at the owner.
func (s *EntityStore) Attach(ctx context.Context, owner *ports.Record, field string, child *ports.Record) error {
	col, err := s.lookupColumn(ctx, child.Type.Table, owner.Type.Name)
	if err != nil {
		return err
	}
	_, err = s.Update(ctx, child, map[string]any{col: owner.ID()})
	return err
}

// foreignKeys maps FK column name to target table.
func (s *EntityStore) foreignKeys(ctx context.Context, table string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("foreign_key_list %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, seq int
		var target, from, to string
		var onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &target, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("scan foreign_key_list: %w", err)
		}
		out[from] = target
	}
	return out, rows.Err()
}

// reverseRelations finds the tables holding a foreign key into this one.
func (s *EntityStore) reverseRelations(ctx context.Context, table string) ([]ports.NativeField, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		  AND name NOT LIKE 'prism_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name != table {
			tables = append(tables, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []ports.NativeField
	for _, child := range tables {
		fks, err := s.foreignKeys(ctx, child)
		if err != nil {
			return nil, err
		}
		for _, target := range fks {
			if target == table {
				out = append(out, ports.NativeField{
					Name:        child,
					Kind:        schema.KindReverseToMany,
					RelatedType: child,
				})
				break
			}
		}
	}
	return out, nil
}

// scan runs a SELECT * query and maps every row into a record.
func (s *EntityStore) scan(ctx context.Context, desc ports.EntityDescriptor, q string, args ...any) ([]*ports.Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", desc.Table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []*ports.Record
	for rows.Next() {
		values := make([]any, len(cols))
		dests := make([]any, len(cols))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", desc.Table, err)
		}

		attrs := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				attrs[col] = string(b)
				continue
			}
			attrs[col] = values[i]
		}
		out = append(out, &ports.Record{Type: desc, Attrs: attrs})
	}
	return out, rows.Err()
}

// columnKind maps a declared column type to a field kind, following
// SQLite's affinity rules loosely.
func columnKind(colType string) schema.Kind {
	t := strings.ToUpper(colType)
	switch {
	case strings.Contains(t, "INT"):
		return schema.KindInt
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return schema.KindFloat
	case strings.Contains(t, "DECIMAL"), strings.Contains(t, "NUMERIC"):
		return schema.KindDecimal
	case strings.Contains(t, "BOOL"):
		return schema.KindBool
	case strings.Contains(t, "DATETIME"), strings.Contains(t, "TIMESTAMP"):
		return schema.KindDateTime
	case strings.Contains(t, "DATE"):
		return schema.KindDate
	case strings.Contains(t, "TIME"):
		return schema.KindTime
	case strings.Contains(t, "JSON"):
		return schema.KindJSON
	case strings.Contains(t, "CHAR"), strings.Contains(t, "TEXT"), strings.Contains(t, "CLOB"):
		return schema.KindChar
	default:
		return schema.KindDefault
	}
}

// lookupColumn maps a lookup field to the table column that serves it.
func (s *EntityStore) lookupColumn(ctx context.Context, table, field string) (string, error) {
	cols, err := s.tableColumns(ctx, table)
	if err != nil {
		return "", err
	}
	return resolveColumn(cols, field), nil
}

// resolveColumn resolves a relation name to its foreign key column;
// names matching a real column pass through untouched.
func resolveColumn(cols map[string]bool, field string) string {
	if !cols[field] && cols[field+"_id"] {
		return field + "_id"
	}
	return field
}

// tableColumns returns the set of column names of a table.
func (s *EntityStore) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// quoteIdent quotes an identifier for interpolation into SQL text.
// Parameters cannot stand in for identifiers, so names are sanitized
// and double-quoted instead.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, "") + `"`
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
