package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tipresias/tipresias-sub001/internal/sqltoken"
)

// Column is one referenced column of a query: a projection entry, a
// filter operand, an ORDER BY key or an INSERT/UPDATE pair.
type Column struct {
	// Name is the SQL column name as written.
	Name string

	// Alias is the output name. It defaults to Name; the document
	// database's "ref" column is canonicalized to the alias "id" so
	// that SQL tooling sees a conventional identifier column.
	Alias string

	// Table is the arena index of the owning table within the query,
	// or -1 while unattached.
	Table int

	// Position is the ordinal position within the owning table's
	// column list. Positions are unique per table, which is what makes
	// positional row access work.
	Position int

	// Value carries the literal for INSERT column/value and UPDATE SET
	// pairs. It is nil for read-only references.
	Value any
}

// ColumnFromIdentifier builds a Column from an identifier token,
// handling optional qualification (table.column) and an optional AS
// alias. The owner qualifier, when present, is returned alongside so
// the caller can resolve it against the query's table arena.
func ColumnFromIdentifier(tok *sqltoken.Token) (Column, string, error) {
	parts := tok.Parts()
	var name, owner string
	switch len(parts) {
	case 1:
		name = parts[0]
	case 2:
		owner = parts[0]
		name = parts[1]
	default:
		return Column{}, "", fmt.Errorf("cannot derive a column from %q", tok.Value())
	}

	alias := tok.Alias()
	if alias == "" {
		alias = name
	}
	if name == "ref" {
		alias = "id"
	}
	return Column{Name: name, Alias: alias, Table: -1}, owner, nil
}

// IsID reports whether the column addresses the document identifier
// (SQL "id" or the database-native "ref").
func (c Column) IsID() bool {
	return c.Alias == "id"
}

// literalValue converts a literal token to its Go value: quoted strings
// (with doubled inner quotes), integers, floats, TRUE/FALSE and NULL.
func literalValue(tok *sqltoken.Token) (any, error) {
	if tok.Kind != sqltoken.KindLiteral {
		return nil, fmt.Errorf("expected a literal, got %q", tok.Value())
	}
	text := tok.Text
	switch {
	case strings.HasPrefix(text, "'"):
		// Strip exactly the delimiting quotes; a doubled quote at
		// either end of the body is an escaped apostrophe, not a
		// delimiter.
		if len(text) < 2 || !strings.HasSuffix(text, "'") {
			return nil, fmt.Errorf("unterminated string literal %s", text)
		}
		return strings.ReplaceAll(text[1:len(text)-1], "''", "'"), nil
	case text == "TRUE":
		return true, nil
	case text == "FALSE":
		return false, nil
	case text == "NULL":
		return nil, nil
	case strings.Contains(text, "."):
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("parse literal %q: %w", text, err)
		}
		return f, nil
	default:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse literal %q: %w", text, err)
		}
		return n, nil
	}
}
