package model

import (
	"fmt"

	"github.com/tipresias/tipresias-sub001/internal/sqltoken"
)

// Table is one collection referenced by a query, together with its
// selected columns, its filters, and its position in the join chain.
//
// Neighbor links are arena indices into Query.Tables rather than
// pointers, which keeps the chain free of ownership cycles while
// preserving plain chain traversal. The chain is oriented so that the
// right neighbor is always the foreign-key-owning (referencing) table
// of the edge; the key column realizing an edge is therefore always
// owned by the edge's right-hand table.
type Table struct {
	// Name is the collection name.
	Name string

	// Columns are the columns of this table referenced by the query,
	// in reference order. Positions are unique within the table.
	Columns []Column

	// Filters are the WHERE predicates owned by this table.
	Filters []Filter

	// Left and Right are arena indices of the neighboring tables in
	// the join chain, or -1.
	Left, Right int

	// LeftKey and RightKey are the foreign-key columns realizing the
	// edge toward the respective neighbor. LeftKey is owned by this
	// table (it references the left neighbor); RightKey is owned by
	// the right neighbor.
	LeftKey, RightKey *Column
}

// TableFromIdentifier builds a Table from a FROM or JOIN identifier
// token.
func TableFromIdentifier(tok *sqltoken.Token) (*Table, error) {
	parts := tok.Parts()
	if len(parts) != 1 {
		return nil, fmt.Errorf("cannot derive a table from %q", tok.Value())
	}
	return &Table{Name: parts[0], Left: -1, Right: -1}, nil
}

// AddColumn appends a column to the table at the given arena index,
// assigning its ordinal position, and returns the stored copy.
func (t *Table) AddColumn(idx int, c Column) Column {
	c.Table = idx
	c.Position = len(t.Columns)
	t.Columns = append(t.Columns, c)
	return c
}

// Query is the table/filter model shared by the read and write
// statement kinds. Tables form an arena; joins link them into a single
// chain anchored at the principal (FROM) table.
type Query struct {
	// Tables is the table arena. Index 0 is always the principal.
	Tables []*Table

	// Principal is the arena index of the FROM table.
	Principal int
}

// PrincipalTable returns the FROM table.
func (q *Query) PrincipalTable() *Table {
	return q.Tables[q.Principal]
}

// TableIndex returns the arena index of the named table, or -1.
func (q *Query) TableIndex(name string) int {
	for i, t := range q.Tables {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// resolveOwner maps a column qualifier to a table arena index. An empty
// qualifier resolves to the principal table.
func (q *Query) resolveOwner(owner string) (int, error) {
	if owner == "" {
		return q.Principal, nil
	}
	idx := q.TableIndex(owner)
	if idx < 0 {
		return -1, fmt.Errorf("unknown table %q", owner)
	}
	return idx, nil
}
