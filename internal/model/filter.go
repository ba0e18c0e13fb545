package model

// Operator is a supported comparison operator.
type Operator int

const (
	OpEqual Operator = iota
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
	OpIsNull
)

// String returns the SQL spelling of the operator.
func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpGreaterThan:
		return ">"
	case OpGreaterThanOrEqual:
		return ">="
	case OpLessThan:
		return "<"
	case OpLessThanOrEqual:
		return "<="
	case OpIsNull:
		return "IS NULL"
	default:
		return "?"
	}
}

// Filter is one WHERE predicate: column, comparison operator, value.
// A filter on the "id" alias with OpEqual is special-cased downstream
// to a direct ref lookup instead of an index match.
type Filter struct {
	Column   Column
	Operator Operator
	Value    any
}

// SetOp combines member document sets of a FilterGroup.
type SetOp int

const (
	// SetIntersection is the AND combination.
	SetIntersection SetOp = iota

	// SetUnion is the OR combination. OR predicates are rejected
	// upstream today, so SetUnion is not reachable from SQL input; the
	// code path stays available for when that restriction is lifted.
	SetUnion
)

// FilterGroup applies a set operation over a list of filters.
type FilterGroup struct {
	Op      SetOp
	Filters []Filter
}

// Direction orders an OrderBy.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// OrderBy captures the ORDER BY clause. Only single-column ordering is
// supported by design; Columns stays a slice to match the positional
// column model.
type OrderBy struct {
	Columns   []Column
	Direction Direction
}
