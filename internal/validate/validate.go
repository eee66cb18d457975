package validate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/askql/askql/internal/intent"
	"github.com/askql/askql/internal/schema"
)

// validJoinTypes is the join-type allow-list, normalized to upper case.
var validJoinTypes = map[string]bool{
	"INNER": true, "LEFT": true, "RIGHT": true, "FULL": true, "FULL OUTER": true,
}

// validOperators is the condition operator allow-list.
var validOperators = map[string]bool{
	"=": true, "!=": true, ">": true, "<": true, ">=": true, "<=": true,
	"LIKE": true, "ILIKE": true, "BETWEEN": true, "IN": true,
	"IS NULL": true, "IS NOT NULL": true,
}

// Predicate is a validated WHERE fragment. SQL contains only validated
// identifiers, allow-listed operators, and positional placeholders; every
// literal value is in Params.
type Predicate struct {
	SQL    string
	Params []any
}

// OrderBy is a validated ORDER BY directive. The zero value means no
// ordering.
type OrderBy struct {
	Column    SafeIdent
	Direction string
}

// IsZero reports whether no ordering was requested.
func (o OrderBy) IsZero() bool { return o.Column.IsZero() }

// Validator checks intent identifiers against live schema metadata. Each
// check re-queries the introspector, so results stay correct under schema
// drift.
type Validator struct {
	schema schema.Introspector
	logger *slog.Logger
}

// New creates a Validator over the given introspector.
func New(sc schema.Introspector, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{schema: sc, logger: logger}
}

// Table verifies a table exists in the schema and returns it as a SafeIdent.
// A table with no columns is treated as nonexistent.
func (v *Validator) Table(ctx context.Context, name string) (SafeIdent, error) {
	if err := checkLexical(name); err != nil {
		return SafeIdent{}, &Error{Message: err.Error()}
	}
	cols, err := v.schema.Columns(ctx, name)
	if err != nil {
		return SafeIdent{}, fmt.Errorf("validate table %q: %w", name, err)
	}
	if len(cols) == 0 {
		tables, terr := v.schema.TableNames(ctx)
		if terr != nil {
			return SafeIdent{}, errorf("table %q not found in schema %q", name, v.schema.SchemaName())
		}
		return SafeIdent{}, errorf("table %q not found in schema %q, available tables: %v",
			name, v.schema.SchemaName(), tables)
	}
	return safeIdent(name), nil
}

// Columns validates a requested column list against a table. Invalid columns
// are dropped with a logged warning. An empty or fully-invalid request falls
// back to all columns: the filtering intent is lost but the query still runs.
func (v *Validator) Columns(ctx context.Context, table SafeIdent, requested []string) ([]SafeIdent, error) {
	available, err := v.schema.Columns(ctx, table.String())
	if err != nil {
		return nil, fmt.Errorf("validate columns for %q: %w", table, err)
	}
	if len(available) == 0 {
		return nil, errorf("table %q not found in schema %q", table, v.schema.SchemaName())
	}

	all := make([]SafeIdent, len(available))
	for i, c := range available {
		all[i] = safeIdent(c)
	}
	if len(requested) == 0 {
		return all, nil
	}

	availSet := make(map[string]bool, len(available))
	for _, c := range available {
		availSet[c] = true
	}

	valid := make([]SafeIdent, 0, len(requested))
	for _, col := range requested {
		if availSet[col] {
			valid = append(valid, safeIdent(col))
			continue
		}
		v.logger.Warn("dropping unknown column",
			"column", col, "table", table.String(), "available", available)
	}
	if len(valid) == 0 {
		return all, nil
	}
	return valid, nil
}

// Column strictly validates a single column's membership in a table. Unlike
// Columns there is no fallback; a miss is an error.
func (v *Validator) Column(ctx context.Context, table SafeIdent, name string) (SafeIdent, error) {
	available, err := v.schema.Columns(ctx, table.String())
	if err != nil {
		return SafeIdent{}, fmt.Errorf("validate column %q: %w", name, err)
	}
	for _, c := range available {
		if c == name {
			return safeIdent(name), nil
		}
	}
	return SafeIdent{}, errorf("column %q not found in table %q, available columns: %v",
		name, table, available)
}

// CommonColumns returns the columns present in both tables, preserving the
// first table's column order. An empty intersection is an error: an appended
// query has nothing to select.
func (v *Validator) CommonColumns(ctx context.Context, table1, table2 SafeIdent) ([]SafeIdent, error) {
	cols1, err := v.schema.Columns(ctx, table1.String())
	if err != nil {
		return nil, fmt.Errorf("validate common columns: %w", err)
	}
	cols2, err := v.schema.Columns(ctx, table2.String())
	if err != nil {
		return nil, fmt.Errorf("validate common columns: %w", err)
	}

	set2 := make(map[string]bool, len(cols2))
	for _, c := range cols2 {
		set2[c] = true
	}

	common := make([]SafeIdent, 0, len(cols1))
	for _, c := range cols1 {
		if set2[c] {
			common = append(common, safeIdent(c))
		}
	}
	if len(common) == 0 {
		return nil, errorf("no common columns found between tables %q and %q", table1, table2)
	}
	return common, nil
}

// JoinColumns verifies that each side of a join key exists in its table.
// Unlike column selection there is no fallback; a bad join key is an error.
func (v *Validator) JoinColumns(ctx context.Context, table1, table2 SafeIdent, jc intent.JoinColumns) (SafeIdent, SafeIdent, error) {
	col1, err := v.Column(ctx, table1, jc.Table1Column)
	if err != nil {
		return SafeIdent{}, SafeIdent{}, err
	}
	col2, err := v.Column(ctx, table2, jc.Table2Column)
	if err != nil {
		return SafeIdent{}, SafeIdent{}, err
	}
	return col1, col2, nil
}

// JoinType normalizes and checks a join type against the allow-list.
func (v *Validator) JoinType(joinType string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(joinType))
	if !validJoinTypes[normalized] {
		return "", errorf("invalid join type %q, valid types: [INNER LEFT RIGHT FULL FULL OUTER]", joinType)
	}
	return normalized, nil
}

// OrderBy validates an ORDER BY spec against one table. A table prefix is
// stripped for the membership check but preserved in the emitted identifier.
func (v *Validator) OrderBy(ctx context.Context, table SafeIdent, spec *intent.OrderSpec) (OrderBy, error) {
	if spec == nil {
		return OrderBy{}, nil
	}
	if err := checkLexicalQualified(spec.Column); err != nil {
		return OrderBy{}, &Error{Message: err.Error()}
	}

	_, bare := splitPrefix(spec.Column)
	if _, err := v.Column(ctx, table, bare); err != nil {
		return OrderBy{}, err
	}

	dir, err := v.direction(spec.Direction)
	if err != nil {
		return OrderBy{}, err
	}
	return OrderBy{Column: safeIdent(spec.Column), Direction: dir}, nil
}

// OrderByForJoin validates an ORDER BY spec against two joined tables. An
// unprefixed column must resolve to exactly one table; present in both is
// ambiguous, present in neither is unknown. The resolved identifier always
// carries its table prefix.
func (v *Validator) OrderByForJoin(ctx context.Context, table1, table2 SafeIdent, spec *intent.OrderSpec) (OrderBy, error) {
	if spec == nil {
		return OrderBy{}, nil
	}
	if err := checkLexicalQualified(spec.Column); err != nil {
		return OrderBy{}, &Error{Message: err.Error()}
	}

	resolved, err := v.resolveJoinColumn(ctx, table1, table2, spec.Column)
	if err != nil {
		return OrderBy{}, err
	}

	dir, err := v.direction(spec.Direction)
	if err != nil {
		return OrderBy{}, err
	}
	return OrderBy{Column: resolved, Direction: dir}, nil
}

// OrderByForAppend validates an ORDER BY spec for a UNION ALL query: the
// column must be common to both tables and carries no prefix.
func (v *Validator) OrderByForAppend(ctx context.Context, table1, table2 SafeIdent, spec *intent.OrderSpec) (OrderBy, error) {
	if spec == nil {
		return OrderBy{}, nil
	}
	if err := checkLexical(spec.Column); err != nil {
		return OrderBy{}, &Error{Message: err.Error()}
	}

	common, err := v.CommonColumns(ctx, table1, table2)
	if err != nil {
		return OrderBy{}, err
	}
	found := false
	for _, c := range common {
		if c.String() == spec.Column {
			found = true
			break
		}
	}
	if !found {
		names := make([]string, len(common))
		for i, c := range common {
			names[i] = c.String()
		}
		return OrderBy{}, errorf("column %q not found in common columns between tables %q and %q, common columns: %v",
			spec.Column, table1, table2, names)
	}

	dir, err := v.direction(spec.Direction)
	if err != nil {
		return OrderBy{}, err
	}
	return OrderBy{Column: safeIdent(spec.Column), Direction: dir}, nil
}

func (v *Validator) direction(direction string) (string, error) {
	dir := strings.ToUpper(strings.TrimSpace(direction))
	if dir == "" {
		dir = "ASC"
	}
	if dir != "ASC" && dir != "DESC" {
		return "", errorf("invalid order direction %q, valid directions: [ASC DESC]", direction)
	}
	return dir, nil
}

// Condition validates a filter condition against one table and compiles it
// to a predicate. Placeholders are numbered from placeholderStart so the
// caller controls how the fragment composes with other bound parameters.
// Identifiers and the operator keyword are the only text interpolated; all
// literal values go to Params.
func (v *Validator) Condition(ctx context.Context, table SafeIdent, cond *intent.Condition, placeholderStart int) (Predicate, error) {
	if cond == nil {
		return Predicate{}, nil
	}
	if err := checkLexicalQualified(cond.Column); err != nil {
		return Predicate{}, &Error{Message: err.Error()}
	}

	_, bare := splitPrefix(cond.Column)
	if _, err := v.Column(ctx, table, bare); err != nil {
		return Predicate{}, err
	}
	return compilePredicate(safeIdent(cond.Column), cond, placeholderStart)
}

// ConditionForAppend validates a condition for a UNION ALL query. The column
// may not carry a table prefix: the same fragment guards both arms, and a
// prefix would dangle in the arm whose FROM clause lacks that table.
func (v *Validator) ConditionForAppend(ctx context.Context, table SafeIdent, cond *intent.Condition, placeholderStart int) (Predicate, error) {
	if cond == nil {
		return Predicate{}, nil
	}
	if strings.Contains(cond.Column, ".") {
		return Predicate{}, errorf("condition column %q may not carry a table prefix in an appended query", cond.Column)
	}
	return v.Condition(ctx, table, cond, placeholderStart)
}

// ConditionForJoin validates a condition in a two-table scope, resolving an
// unprefixed column to whichever table owns it.
func (v *Validator) ConditionForJoin(ctx context.Context, table1, table2 SafeIdent, cond *intent.Condition, placeholderStart int) (Predicate, error) {
	if cond == nil {
		return Predicate{}, nil
	}
	if err := checkLexicalQualified(cond.Column); err != nil {
		return Predicate{}, &Error{Message: err.Error()}
	}

	resolved, err := v.resolveJoinColumn(ctx, table1, table2, cond.Column)
	if err != nil {
		return Predicate{}, err
	}
	return compilePredicate(resolved, cond, placeholderStart)
}

// resolveJoinColumn maps a possibly-prefixed column in a two-table scope to
// a prefixed SafeIdent.
func (v *Validator) resolveJoinColumn(ctx context.Context, table1, table2 SafeIdent, column string) (SafeIdent, error) {
	prefix, bare := splitPrefix(column)
	if prefix != "" {
		switch prefix {
		case table1.String():
			if _, err := v.Column(ctx, table1, bare); err != nil {
				return SafeIdent{}, err
			}
		case table2.String():
			if _, err := v.Column(ctx, table2, bare); err != nil {
				return SafeIdent{}, err
			}
		default:
			return SafeIdent{}, errorf("table prefix %q not found, available tables: %q, %q", prefix, table1, table2)
		}
		return safeIdent(column), nil
	}

	cols1, err := v.schema.Columns(ctx, table1.String())
	if err != nil {
		return SafeIdent{}, fmt.Errorf("resolve column %q: %w", column, err)
	}
	cols2, err := v.schema.Columns(ctx, table2.String())
	if err != nil {
		return SafeIdent{}, fmt.Errorf("resolve column %q: %w", column, err)
	}

	in1 := contains(cols1, bare)
	in2 := contains(cols2, bare)
	switch {
	case in1 && in2:
		return SafeIdent{}, errorf("column %q exists in both tables %q and %q, specify a table prefix (e.g. %q)",
			column, table1, table2, table1.String()+"."+column)
	case in1:
		return safeIdent(table1.String() + "." + column), nil
	case in2:
		return safeIdent(table2.String() + "." + column), nil
	default:
		return SafeIdent{}, errorf("column %q not found in either table %q or %q", column, table1, table2)
	}
}

// compilePredicate turns a validated column plus an operator and values into
// a placeholder fragment, enforcing operator arity.
func compilePredicate(column SafeIdent, cond *intent.Condition, placeholderStart int) (Predicate, error) {
	op := strings.ToUpper(strings.TrimSpace(cond.Operator))
	if op == "" {
		op = "="
	}
	if !validOperators[op] {
		return Predicate{}, errorf("invalid operator %q, valid operators: [= != > < >= <= LIKE ILIKE BETWEEN IN IS NULL IS NOT NULL]",
			cond.Operator)
	}

	ph := func(offset int) string {
		return fmt.Sprintf("$%d", placeholderStart+offset)
	}

	switch op {
	case "IS NULL", "IS NOT NULL":
		return Predicate{SQL: fmt.Sprintf("%s %s", column, op)}, nil

	case "BETWEEN":
		if len(cond.Values) != 2 {
			return Predicate{}, errorf("BETWEEN operator requires exactly 2 values, got %d", len(cond.Values))
		}
		return Predicate{
			SQL:    fmt.Sprintf("%s BETWEEN %s AND %s", column, ph(0), ph(1)),
			Params: append([]any{}, cond.Values...),
		}, nil

	case "IN":
		if len(cond.Values) == 0 {
			return Predicate{}, errorf("IN operator requires at least one value")
		}
		placeholders := make([]string, len(cond.Values))
		for i := range cond.Values {
			placeholders[i] = ph(i)
		}
		return Predicate{
			SQL:    fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")),
			Params: append([]any{}, cond.Values...),
		}, nil

	default:
		if cond.Value == nil {
			return Predicate{}, errorf("operator %q requires a value", op)
		}
		return Predicate{
			SQL:    fmt.Sprintf("%s %s %s", column, op, ph(0)),
			Params: []any{cond.Value},
		}, nil
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
