package model

import (
	"fmt"

	"github.com/tipresias/tipresias-sub001/internal/sqltoken"
)

// compileWhere walks the WHERE region into validated filters, attaching
// each filter to its owning table. Only AND-conjunctions of the
// supported comparison forms survive; everything else is rejected
// before any FQL is synthesized.
func (q *Query) compileWhere(where *sqltoken.Token) error {
	children := where.Children
	for i := 1; i < len(children); i++ {
		c := children[i]
		switch {
		case c.Kind == sqltoken.KindComparison:
			if err := q.filterFromComparison(c); err != nil {
				return err
			}
		case c.Kind == sqltoken.KindIdentifier:
			consumed, err := q.filterFromKeywordPredicate(children, i)
			if err != nil {
				return err
			}
			i += consumed
		case c.IsKeyword("AND"):
			continue
		case c.IsKeyword("OR"):
			return NotSupported("OR")
		case c.IsKeyword("NOT"):
			return NotSupported("NOT")
		case c.Kind == sqltoken.KindParenthesis:
			return NotSupportedMsg("WHERE group",
				"Parenthesized WHERE groups are not yet supported")
		default:
			return fmt.Errorf("unexpected WHERE token %q", c.Value())
		}
	}
	return nil
}

// filterFromComparison converts one grouped comparison into a Filter.
// Operand order is irrelevant: "5 < col" compiles the same as "col > 5".
func (q *Query) filterFromComparison(cmp *sqltoken.Token) error {
	if kw, _ := cmp.NextKeyword(0, "IS"); kw != nil {
		return q.filterFromIsNull(cmp)
	}
	if len(cmp.Children) != 3 {
		return fmt.Errorf("malformed comparison %q", cmp.Value())
	}
	left, opTok, right := cmp.Children[0], cmp.Children[1], cmp.Children[2]
	if opTok.Kind != sqltoken.KindOperator {
		return fmt.Errorf("malformed comparison %q", cmp.Value())
	}
	op, err := operatorFromText(opTok.Text)
	if err != nil {
		return err
	}

	leftIsCol := left.Kind == sqltoken.KindIdentifier
	rightIsCol := right.Kind == sqltoken.KindIdentifier
	switch {
	case leftIsCol && rightIsCol:
		return NotSupportedMsg("comparison",
			"Column-to-column comparisons in WHERE are not yet supported")
	case !leftIsCol && !rightIsCol:
		return fmt.Errorf("comparison %q references no column", cmp.Value())
	case rightIsCol:
		// Literal first: flip so the column is always the left operand.
		left, right = right, left
		op = flipOperator(op)
	}

	value, err := literalValue(right)
	if err != nil {
		return err
	}
	return q.addFilter(left, op, value)
}

func (q *Query) filterFromIsNull(cmp *sqltoken.Token) error {
	if kw, _ := cmp.NextKeyword(0, "NOT"); kw != nil {
		return NotSupported("IS NOT NULL")
	}
	field, _ := cmp.FirstOfKind(sqltoken.KindIdentifier)
	if field == nil {
		return fmt.Errorf("malformed IS NULL predicate %q", cmp.Value())
	}
	return q.addFilter(field, OpIsNull, nil)
}

// filterFromKeywordPredicate handles the predicate forms the tokenizer
// leaves ungrouped: <column> IN (...), BETWEEN and LIKE. A one-value IN
// degenerates to equality; everything else here is a rejection.
// Returns the number of extra tokens consumed.
func (q *Query) filterFromKeywordPredicate(children []*sqltoken.Token, i int) (int, error) {
	field := children[i]
	if i+1 >= len(children) {
		return 0, fmt.Errorf("dangling WHERE token %q", field.Value())
	}
	kw := children[i+1]
	switch {
	case kw.IsKeyword("BETWEEN"):
		return 0, NotSupported("BETWEEN")
	case kw.IsKeyword("LIKE"):
		return 0, NotSupported("LIKE")
	case kw.IsKeyword("NOT"):
		return 0, NotSupported("NOT")
	case kw.IsKeyword("IN"):
		if i+2 >= len(children) || children[i+2].Kind != sqltoken.KindParenthesis {
			return 0, fmt.Errorf("malformed IN predicate near %q", field.Value())
		}
		values := children[i+2].Items()
		if len(values) == 1 && values[0].Kind == sqltoken.KindIdentifierList {
			values = values[0].Items()
		}
		if len(values) != 1 {
			return 0, NotSupportedMsg("IN",
				"IN (...) predicates with more than one value are not yet supported")
		}
		value, err := literalValue(values[0])
		if err != nil {
			return 0, err
		}
		if err := q.addFilter(field, OpEqual, value); err != nil {
			return 0, err
		}
		return 2, nil
	default:
		return 0, fmt.Errorf("unexpected WHERE token %q", kw.Value())
	}
}

// addFilter resolves the column's owner and appends the filter to that
// table.
func (q *Query) addFilter(field *sqltoken.Token, op Operator, value any) error {
	col, owner, err := ColumnFromIdentifier(field)
	if err != nil {
		return err
	}
	ownerIdx, err := q.resolveOwner(owner)
	if err != nil {
		return err
	}
	col.Table = ownerIdx
	table := q.Tables[ownerIdx]
	table.Filters = append(table.Filters, Filter{Column: col, Operator: op, Value: value})
	return nil
}

func operatorFromText(text string) (Operator, error) {
	switch text {
	case "=":
		return OpEqual, nil
	case ">":
		return OpGreaterThan, nil
	case ">=":
		return OpGreaterThanOrEqual, nil
	case "<":
		return OpLessThan, nil
	case "<=":
		return OpLessThanOrEqual, nil
	case "<>", "!=":
		return 0, NotSupported(text)
	default:
		return 0, fmt.Errorf("unknown comparison operator %q", text)
	}
}

// flipOperator mirrors an operator across its operands.
func flipOperator(op Operator) Operator {
	switch op {
	case OpGreaterThan:
		return OpLessThan
	case OpGreaterThanOrEqual:
		return OpLessThanOrEqual
	case OpLessThan:
		return OpGreaterThan
	case OpLessThanOrEqual:
		return OpGreaterThanOrEqual
	default:
		return op
	}
}
