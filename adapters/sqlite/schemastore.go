package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
	"github.com/google/uuid"
)

// SchemaStore persists schema configuration in SQLite.
type SchemaStore struct {
	db *DB
}

// NewSchemaStore creates a SQLite-backed schema store.
func NewSchemaStore(db *DB) *SchemaStore {
	return &SchemaStore{db: db}
}

var _ ports.SchemaStore = (*SchemaStore)(nil)

const schemaColumns = `id, name, entity_type, active, format,
	can_view, can_edit, can_delete, can_create, synthesized`

// List returns every stored schema ordered by slug then id.
func (s *SchemaStore) List(ctx context.Context) ([]*schema.Schema, error) {
	return s.query(ctx,
		"SELECT "+schemaColumns+" FROM prism_schemas ORDER BY name, id")
}

// GetByName returns the schema with the given slug.
func (s *SchemaStore) GetByName(ctx context.Context, name string) (*schema.Schema, error) {
	out, err := s.query(ctx,
		"SELECT "+schemaColumns+" FROM prism_schemas WHERE name = ?", name)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%q: %w", name, ports.ErrSchemaNotFound)
	}
	return out[0], nil
}

// ForType returns all schemas bound to an entity type, ordered by slug
// then id so selection without an explicit name is deterministic.
func (s *SchemaStore) ForType(ctx context.Context, typeIdentifier string) ([]*schema.Schema, error) {
	return s.query(ctx,
		"SELECT "+schemaColumns+" FROM prism_schemas WHERE entity_type = ? ORDER BY name, id",
		typeIdentifier)
}

// Save inserts or replaces a schema and its fields in one transaction.
func (s *SchemaStore) Save(ctx context.Context, sc *schema.Schema) error {
	if err := sc.Bind(); err != nil {
		return err
	}
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO prism_schemas (id, name, entity_type, active, format,
			can_view, can_edit, can_delete, can_create, synthesized)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			entity_type = excluded.entity_type,
			active = excluded.active,
			format = excluded.format,
			can_view = excluded.can_view,
			can_edit = excluded.can_edit,
			can_delete = excluded.can_delete,
			can_create = excluded.can_create,
			synthesized = excluded.synthesized`,
		sc.ID, sc.Name, sc.EntityType, sc.Active, string(sc.Format),
		sc.Permissions.View, sc.Permissions.Edit, sc.Permissions.Delete,
		sc.Permissions.Create, sc.Synthesized)
	if err != nil {
		return fmt.Errorf("upsert schema %s: %w", sc.Name, err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM prism_schema_fields WHERE schema_id = ?", sc.ID); err != nil {
		return fmt.Errorf("clear fields of %s: %w", sc.Name, err)
	}
	for _, f := range sc.Fields {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO prism_schema_fields (schema_id, name, label, kind,
				out_kind, in_kind, form_kind, alt_key, nested_schema,
				active, required, is_key, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sc.ID, f.Name, f.Label, string(f.Kind), string(f.OutKind),
			string(f.InKind), string(f.FormKind), f.AltKey, f.NestedSchema,
			f.Active, f.Required, f.IsKey, f.Order)
		if err != nil {
			return fmt.Errorf("insert field %s.%s: %w", sc.Name, f.Name, err)
		}
	}

	return tx.Commit()
}

// Delete removes a schema by id; fields cascade.
func (s *SchemaStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM prism_schemas WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete schema %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%q: %w", id, ports.ErrSchemaNotFound)
	}
	return nil
}

func (s *SchemaStore) query(ctx context.Context, q string, args ...any) ([]*schema.Schema, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query schemas: %w", err)
	}
	defer rows.Close()

	var out []*schema.Schema
	for rows.Next() {
		sc := &schema.Schema{}
		var format string
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.EntityType, &sc.Active, &format,
			&sc.Permissions.View, &sc.Permissions.Edit, &sc.Permissions.Delete,
			&sc.Permissions.Create, &sc.Synthesized); err != nil {
			return nil, fmt.Errorf("scan schema: %w", err)
		}
		sc.Format = schema.OutputFormat(format)
		if err := s.loadFields(ctx, sc); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SchemaStore) loadFields(ctx context.Context, sc *schema.Schema) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, label, kind, out_kind, in_kind, form_kind, alt_key,
			nested_schema, active, required, is_key, sort_order
		FROM prism_schema_fields
		WHERE schema_id = ?
		ORDER BY sort_order, name`, sc.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("query fields of %s: %w", sc.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		f := &schema.SchemaField{}
		var kind, outKind, inKind, formKind string
		if err := rows.Scan(&f.Name, &f.Label, &kind, &outKind, &inKind,
			&formKind, &f.AltKey, &f.NestedSchema, &f.Active, &f.Required,
			&f.IsKey, &f.Order); err != nil {
			return fmt.Errorf("scan field: %w", err)
		}
		f.Kind = schema.Kind(kind)
		f.OutKind = schema.Kind(outKind)
		f.InKind = schema.Kind(inKind)
		f.FormKind = schema.Kind(formKind)
		sc.Fields = append(sc.Fields, f)
	}
	return rows.Err()
}
