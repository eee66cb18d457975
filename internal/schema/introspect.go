// Package schema provides live introspection of the target database's
// catalog. Every call queries information_schema directly, so validation
// always sees the current schema rather than a cached snapshot.
package schema

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ColumnInfo describes one column of a table, in ordinal position order.
type ColumnInfo struct {
	Name     string `db:"column_name" json:"name"`
	DataType string `db:"data_type" json:"data_type"`
}

// Introspector is the trust anchor for identifier validation. Implementations
// must return results fresh per call. A missing table yields an empty column
// list, not an error; downstream validation turns that into a descriptive
// validation failure.
type Introspector interface {
	Columns(ctx context.Context, table string) ([]string, error)
	ColumnTypes(ctx context.Context, table string) ([]ColumnInfo, error)
	TableNames(ctx context.Context) ([]string, error)
	SchemaName() string
}

// PostgresIntrospector reads catalog metadata from information_schema, scoped
// to a single schema namespace.
type PostgresIntrospector struct {
	db         *sqlx.DB
	schemaName string
}

// NewPostgresIntrospector creates an introspector over the given connection
// pool. An empty schemaName defaults to "public".
func NewPostgresIntrospector(db *sqlx.DB, schemaName string) *PostgresIntrospector {
	if schemaName == "" {
		schemaName = "public"
	}
	return &PostgresIntrospector{db: db, schemaName: schemaName}
}

// SchemaName returns the schema namespace all queries are scoped to.
func (p *PostgresIntrospector) SchemaName() string { return p.schemaName }

// Columns returns the column names of a table in ordinal position order.
// Returns an empty slice if the table does not exist.
func (p *PostgresIntrospector) Columns(ctx context.Context, table string) ([]string, error) {
	const q = `SELECT column_name FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	cols := []string{}
	if err := p.db.SelectContext(ctx, &cols, q, p.schemaName, table); err != nil {
		return nil, fmt.Errorf("introspect columns for %q: %w", table, err)
	}
	return cols, nil
}

// ColumnTypes returns column names and data types in ordinal position order.
func (p *PostgresIntrospector) ColumnTypes(ctx context.Context, table string) ([]ColumnInfo, error) {
	const q = `SELECT column_name, data_type FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	infos := []ColumnInfo{}
	if err := p.db.SelectContext(ctx, &infos, q, p.schemaName, table); err != nil {
		return nil, fmt.Errorf("introspect column types for %q: %w", table, err)
	}
	return infos, nil
}

// TableNames lists all base tables in the configured schema.
func (p *PostgresIntrospector) TableNames(ctx context.Context) ([]string, error) {
	const q = `SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	names := []string{}
	if err := p.db.SelectContext(ctx, &names, q, p.schemaName); err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}
	return names, nil
}
