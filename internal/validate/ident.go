// Package validate checks every identifier an intent names against the live
// schema before it can reach SQL text. SafeIdent is the only way an
// identifier enters a query template: it is constructed exclusively in this
// package, after the lexical gate and a membership check have both passed.
// Literal values never pass through here; they travel as bound parameters.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// identRegex is the lexical gate for SQL identifiers. Must start with a
// letter or underscore, followed by alphanumerics or underscores.
var identRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// sqlReservedWords are keywords rejected as identifiers. Parameterization
// handles value injection; this blocks query structure attacks through
// identifier slots.
var sqlReservedWords = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true,
	"DROP": true, "CREATE": true, "ALTER": true, "TRUNCATE": true,
	"EXEC": true, "EXECUTE": true, "UNION": true, "INTO": true,
	"FROM": true, "WHERE": true, "TABLE": true, "DATABASE": true,
	"GRANT": true, "REVOKE": true, "INDEX": true, "VIEW": true,
	"PROCEDURE": true, "FUNCTION": true, "TRIGGER": true, "SCHEMA": true,
}

// SafeIdent is an identifier that has passed validation. Only this package
// constructs non-zero values, which is what lets the query builder accept
// identifiers by type instead of re-checking strings.
type SafeIdent struct {
	name string
}

// String returns the identifier text for interpolation into a template slot.
func (s SafeIdent) String() string { return s.name }

// IsZero reports whether the identifier is unset.
func (s SafeIdent) IsZero() bool { return s.name == "" }

// safeIdent wraps a name that has already been verified.
func safeIdent(name string) SafeIdent { return SafeIdent{name: name} }

// checkLexical ensures a bare (unprefixed) identifier is lexically safe.
func checkLexical(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("identifier too long (max 128 chars): %q", name)
	}
	if !identRegex.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: must match [a-zA-Z_][a-zA-Z0-9_]*", name)
	}
	if sqlReservedWords[strings.ToUpper(name)] {
		return fmt.Errorf("identifier %q is a SQL reserved word", name)
	}
	return nil
}

// checkLexicalQualified validates a possibly table-prefixed column name,
// gating each dot-separated segment independently.
func checkLexicalQualified(name string) error {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return fmt.Errorf("invalid identifier %q: at most one table prefix allowed", name)
	}
	for _, part := range parts {
		if err := checkLexical(part); err != nil {
			return err
		}
	}
	return nil
}

// splitPrefix separates an optional table prefix from a column name.
func splitPrefix(column string) (prefix, name string) {
	if i := strings.LastIndex(column, "."); i >= 0 {
		return column[:i], column[i+1:]
	}
	return "", column
}
