// Package sqlgen composes final SQL text from fixed templates, one per
// action. Template slots accept only validated identifiers (SafeIdent),
// compiled predicates, and order directives; row limits and all literal
// values are bound as parameters. The builders return the SQL string
// alongside the full parameter list, placeholders numbered left to right.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/askql/askql/internal/validate"
)

// Builder renders schema-qualified SQL for one fixed schema namespace.
type Builder struct {
	schemaName string
}

// New creates a Builder scoped to the given schema namespace.
func New(schemaName string) *Builder {
	if schemaName == "" {
		schemaName = "public"
	}
	return &Builder{schemaName: schemaName}
}

// SchemaName returns the namespace queries are qualified with.
func (b *Builder) SchemaName() string { return b.schemaName }

func (b *Builder) qualify(table validate.SafeIdent) string {
	return b.schemaName + "." + table.String()
}

func columnList(cols []validate.SafeIdent) string {
	if len(cols) == 0 {
		return "*"
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}

// qualifiedColumnList renders every column of both tables, table-prefixed to
// avoid ambiguity. Used when a join has no explicit column selection.
func qualifiedColumnList(table1 validate.SafeIdent, cols1 []validate.SafeIdent, table2 validate.SafeIdent, cols2 []validate.SafeIdent) string {
	names := make([]string, 0, len(cols1)+len(cols2))
	for _, c := range cols1 {
		names = append(names, table1.String()+"."+c.String())
	}
	for _, c := range cols2 {
		names = append(names, table2.String()+"."+c.String())
	}
	return strings.Join(names, ", ")
}

func whereClause(pred validate.Predicate) string {
	if pred.SQL == "" {
		return ""
	}
	return " WHERE " + pred.SQL
}

func orderClause(order validate.OrderBy) string {
	if order.IsZero() {
		return ""
	}
	return " ORDER BY " + order.Column.String() + " " + order.Direction
}

// FetchTables lists all base tables in the schema. The namespace is the one
// bound parameter.
func (b *Builder) FetchTables() (string, []any) {
	sql := "SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE' ORDER BY table_name"
	return sql, []any{b.schemaName}
}

// FetchRecords selects rows from one table. Predicate placeholders must be
// numbered from 1; the limit binds after them.
func (b *Builder) FetchRecords(cols []validate.SafeIdent, table validate.SafeIdent, pred validate.Predicate, order validate.OrderBy, limit int) (string, []any) {
	sql := fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT $%d",
		columnList(cols), b.qualify(table), whereClause(pred), orderClause(order), len(pred.Params)+1)
	return sql, append(append([]any{}, pred.Params...), limit)
}

// FetchJoined selects rows across a two-table join. When cols is empty the
// projection is every column of both tables, table-qualified.
func (b *Builder) FetchJoined(cols []validate.SafeIdent, table1 validate.SafeIdent, allCols1 []validate.SafeIdent, joinType string, table2 validate.SafeIdent, allCols2 []validate.SafeIdent, joinCol1, joinCol2 validate.SafeIdent, pred validate.Predicate, order validate.OrderBy, limit int) (string, []any) {
	projection := columnList(cols)
	if len(cols) == 0 {
		projection = qualifiedColumnList(table1, allCols1, table2, allCols2)
	}
	joinCondition := fmt.Sprintf("%s.%s = %s.%s", table1, joinCol1, table2, joinCol2)
	sql := fmt.Sprintf("SELECT %s FROM %s %s JOIN %s ON %s%s%s LIMIT $%d",
		projection, b.qualify(table1), joinType, b.qualify(table2), joinCondition,
		whereClause(pred), orderClause(order), len(pred.Params)+1)
	return sql, append(append([]any{}, pred.Params...), limit)
}

// FetchAppended combines two tables vertically over their common columns.
// The same predicate applies to both arms with independent placeholder
// ranges, so its parameters appear twice, followed by the limit.
func (b *Builder) FetchAppended(commonCols []validate.SafeIdent, table1 validate.SafeIdent, pred1 validate.Predicate, table2 validate.SafeIdent, pred2 validate.Predicate, order validate.OrderBy, limit int) (string, []any) {
	cols := columnList(commonCols)
	sql := fmt.Sprintf("SELECT %s FROM %s%s UNION ALL SELECT %s FROM %s%s%s LIMIT $%d",
		cols, b.qualify(table1), whereClause(pred1),
		cols, b.qualify(table2), whereClause(pred2),
		orderClause(order), len(pred1.Params)+len(pred2.Params)+1)

	params := append([]any{}, pred1.Params...)
	params = append(params, pred2.Params...)
	return sql, append(params, limit)
}

// CountRows counts rows in a table, optionally filtered.
func (b *Builder) CountRows(table validate.SafeIdent, pred validate.Predicate) (string, []any) {
	sql := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s%s", b.qualify(table), whereClause(pred))
	return sql, append([]any{}, pred.Params...)
}

// RowCount is the first statement of a table summary.
func (b *Builder) RowCount(table validate.SafeIdent) (string, []any) {
	return fmt.Sprintf("SELECT COUNT(*) AS row_count FROM %s", b.qualify(table)), nil
}

// SampleRows selects the first rows of a table for a summary preview.
func (b *Builder) SampleRows(table validate.SafeIdent, limit int) (string, []any) {
	return fmt.Sprintf("SELECT * FROM %s LIMIT $1", b.qualify(table)), []any{limit}
}

// SummarizeColumn counts occurrences of each value in a column, most common
// first. Feeds the bar-chart visualization.
func (b *Builder) SummarizeColumn(table, column validate.SafeIdent) (string, []any) {
	sql := fmt.Sprintf("SELECT %s, COUNT(*) AS count FROM %s GROUP BY %s ORDER BY count DESC",
		column, b.qualify(table), column)
	return sql, nil
}

// AnalyzeRelationship sums a quantitative column grouped by a categorical
// one, largest first. Feeds the histogram visualization.
func (b *Builder) AnalyzeRelationship(table, categorical, quantitative validate.SafeIdent) (string, []any) {
	sql := fmt.Sprintf("SELECT %s, SUM(%s) AS %s FROM %s GROUP BY %s ORDER BY %s DESC",
		categorical, quantitative, quantitative, b.qualify(table), categorical, quantitative)
	return sql, nil
}

// CompanyName looks up a company name by enterprise id in the enterprises
// table.
func (b *Builder) CompanyName(table, nameCol, idCol validate.SafeIdent, enterpriseID string, limit int) (string, []any) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 LIMIT $2", nameCol, b.qualify(table), idCol)
	return sql, []any{enterpriseID, limit}
}

// RenderSQL substitutes parameters into their placeholders for display only.
// The result is provenance for a human reading the response; it is never
// re-executed.
func RenderSQL(sql string, params []any) string {
	for i := len(params); i >= 1; i-- {
		placeholder := fmt.Sprintf("$%d", i)
		sql = strings.ReplaceAll(sql, placeholder, renderValue(params[i-1]))
	}
	return sql
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", val)
	}
}
