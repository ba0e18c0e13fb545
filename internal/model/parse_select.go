package model

import (
	"fmt"
	"strings"

	"github.com/tipresias/tipresias-sub001/internal/sqltoken"
)

func parseSelect(root *sqltoken.Token) (*Select, error) {
	sel := &Select{}

	_, selIdx := root.NextKeyword(0, "SELECT")
	if selIdx < 0 {
		return nil, fmt.Errorf("malformed SELECT: %q", root.Value())
	}
	projIdx := selIdx + 1
	if projIdx < len(root.Children) && root.Children[projIdx].IsKeyword("DISTINCT") {
		sel.Distinct = true
		projIdx++
	}
	if projIdx >= len(root.Children) {
		return nil, fmt.Errorf("malformed SELECT: %q", root.Value())
	}
	projTok := root.Children[projIdx]

	// FROM and the join chain come first so column owners can be
	// resolved against the table arena.
	fromIdx, err := sel.parseFrom(root)
	if err != nil {
		return nil, err
	}
	if err := sel.parseJoins(root, fromIdx); err != nil {
		return nil, err
	}

	if err := sel.parseProjection(projTok); err != nil {
		return nil, err
	}

	if where, _ := root.FirstOfKind(sqltoken.KindWhere); where != nil {
		if err := sel.compileWhere(where); err != nil {
			return nil, err
		}
	}

	if err := sel.parseOrderBy(root); err != nil {
		return nil, err
	}
	if err := sel.parseLimit(root); err != nil {
		return nil, err
	}
	return sel, nil
}

// parseFrom extracts the single principal table. Multiple FROM tables
// without a JOIN cannot be translated and are rejected outright.
func (s *Select) parseFrom(root *sqltoken.Token) (int, error) {
	_, fromIdx := root.NextKeyword(0, "FROM")
	if fromIdx < 0 || fromIdx+1 >= len(root.Children) {
		return -1, fmt.Errorf("SELECT without FROM: %q", root.Value())
	}
	fromTok := root.Children[fromIdx+1]
	if fromTok.Kind == sqltoken.KindIdentifierList {
		return -1, NotSupportedMsg("FROM",
			"Only one table per query is supported: to query multiple tables you must join them together")
	}
	table, err := TableFromIdentifier(fromTok)
	if err != nil {
		return -1, err
	}
	s.Tables = []*Table{table}
	s.Principal = 0
	return fromIdx, nil
}

// parseJoins links joined tables into the chain, one per JOIN clause.
func (s *Select) parseJoins(root *sqltoken.Token, from int) error {
	i := from + 1
	for {
		kw, idx := root.NextKeyword(i, "JOIN", "LEFT", "RIGHT", "OUTER")
		if kw == nil {
			return nil
		}
		if !kw.IsKeyword("JOIN") {
			return NotSupportedMsg(kw.Text+" JOIN", "Only inner joins are supported")
		}
		if idx+3 >= len(root.Children) {
			return fmt.Errorf("malformed JOIN: %q", root.Value())
		}
		table, err := TableFromIdentifier(root.Children[idx+1])
		if err != nil {
			return err
		}
		if s.TableIndex(table.Name) >= 0 {
			return fmt.Errorf("table %q joined twice", table.Name)
		}
		s.Tables = append(s.Tables, table)
		newIdx := len(s.Tables) - 1

		if !root.Children[idx+2].IsKeyword("ON") {
			return fmt.Errorf("JOIN without ON: %q", root.Value())
		}
		on := root.Children[idx+3]
		if on.Kind != sqltoken.KindComparison {
			return fmt.Errorf("malformed JOIN condition: %q", on.Value())
		}
		if err := s.resolveJoin(newIdx, on); err != nil {
			return err
		}
		i = idx + 4
	}
}

// parseProjection validates and attaches the output column list.
func (s *Select) parseProjection(projTok *sqltoken.Token) error {
	items := elements(projTok)
	for _, item := range items {
		switch item.Kind {
		case sqltoken.KindWildcard:
			return NotSupportedMsg("*", "Wildcards (*) are not yet supported")
		case sqltoken.KindFunction:
			if len(items) > 1 {
				return NotSupportedMsg("aggregate",
					"Mixing aggregate functions with column selections is not supported")
			}
			return s.parseAggregate(item)
		case sqltoken.KindIdentifier:
			col, owner, err := ColumnFromIdentifier(item)
			if err != nil {
				return err
			}
			ownerIdx, err := s.resolveOwner(owner)
			if err != nil {
				return err
			}
			if ownerIdx != s.Principal {
				return NotSupportedMsg("cross-table SELECT",
					"Only columns of the principal (FROM) table can be selected")
			}
			stored := s.PrincipalTable().AddColumn(s.Principal, col)
			s.Projection = append(s.Projection, stored)
		default:
			return fmt.Errorf("unexpected projection element %q", item.Value())
		}
	}
	return nil
}

// parseAggregate handles a SQL aggregate function in the projection.
// Only COUNT has a sound translation; the rest are rejected by name.
func (s *Select) parseAggregate(fn *sqltoken.Token) error {
	name := strings.ToUpper(fn.FunctionName())
	if name != "COUNT" {
		return NotSupported(name)
	}
	args := fn.FunctionArgs()
	if len(args) != 1 {
		return NotSupportedMsg("COUNT", "COUNT takes exactly one column argument")
	}
	col, owner, err := ColumnFromIdentifier(args[0])
	if err != nil {
		return err
	}
	ownerIdx, err := s.resolveOwner(owner)
	if err != nil {
		return err
	}
	if ownerIdx != s.Principal {
		return NotSupportedMsg("COUNT",
			"Aggregate functions are limited to the principal (FROM) table's columns")
	}
	alias := fn.Alias()
	if alias == "" {
		alias = "count"
	}
	stored := s.PrincipalTable().AddColumn(s.Principal, col)
	s.Aggregate = &Aggregate{Kind: AggregateCount, Column: stored, Alias: alias}
	return nil
}

// parseOrderBy extracts the ORDER BY clause. Ordering is limited to a
// single principal-table column because it has to ride a value-sorted
// index of that table.
func (s *Select) parseOrderBy(root *sqltoken.Token) error {
	_, idx := root.NextKeyword(0, "ORDER")
	if idx < 0 {
		return nil
	}
	if idx+2 >= len(root.Children) || !root.Children[idx+1].IsKeyword("BY") {
		return fmt.Errorf("malformed ORDER BY: %q", root.Value())
	}
	orderTok := root.Children[idx+2]
	items := elements(orderTok)
	if len(items) != 1 {
		return NotSupportedMsg("ORDER BY", "Ordering by multiple columns is not yet supported")
	}
	col, owner, err := ColumnFromIdentifier(items[0])
	if err != nil {
		return err
	}
	ownerIdx, err := s.resolveOwner(owner)
	if err != nil {
		return err
	}
	if ownerIdx != s.Principal {
		return NotSupportedMsg("ORDER BY",
			"Sort is limited to columns of the principal (FROM) table")
	}
	col.Table = ownerIdx

	order := &OrderBy{Columns: []Column{col}, Direction: Ascending}
	if desc, _ := root.NextKeyword(idx+3, "DESC"); desc != nil {
		order.Direction = Descending
	}
	s.OrderBy = order
	return nil
}

func (s *Select) parseLimit(root *sqltoken.Token) error {
	_, idx := root.NextKeyword(0, "LIMIT")
	if idx < 0 {
		return nil
	}
	if idx+1 >= len(root.Children) {
		return fmt.Errorf("malformed LIMIT: %q", root.Value())
	}
	v, err := literalValue(root.Children[idx+1])
	if err != nil {
		return fmt.Errorf("parse LIMIT: %w", err)
	}
	n, ok := v.(int64)
	if !ok || n < 0 {
		return fmt.Errorf("LIMIT must be a non-negative integer, got %v", v)
	}
	limit := int(n)
	s.Limit = &limit
	return nil
}
