package fqlgen

import (
	"fmt"

	"github.com/tipresias/tipresias-sub001/internal/fql"
	"github.com/tipresias/tipresias-sub001/internal/model"
)

// querySet builds the set of principal-table document refs a query
// addresses, folding the join chain in from both ends and
// intersecting every table's filters along the way.
func querySet(q *model.Query) (fql.Expr, error) {
	principal, err := tableSet(q, q.Principal)
	if err != nil {
		return nil, err
	}
	sets := []fql.Expr{principal}

	if chain := q.ChainRightOf(); len(chain) > 0 {
		folded, err := foldForward(q, chain)
		if err != nil {
			return nil, err
		}
		sets = append(sets, folded)
	}
	if chain := q.ChainLeftOf(); len(chain) > 0 {
		folded, err := foldBackward(q, chain)
		if err != nil {
			return nil, err
		}
		sets = append(sets, folded)
	}

	if len(sets) == 1 {
		return sets[0], nil
	}
	return fql.Intersection(sets...), nil
}

// foldForward folds the chain segment right of the principal. Each hop
// moves right-to-left, from a foreign-key-owning table to the table it
// references, by reading the ref stored in the key column.
func foldForward(q *model.Query, chain []int) (fql.Expr, error) {
	set, err := tableSet(q, chain[0])
	if err != nil {
		return nil, err
	}
	for pos, idx := range chain {
		current := q.Tables[idx]
		key := current.LeftKey
		if key == nil {
			return nil, fmt.Errorf("table %q has no key toward its left neighbor", current.Name)
		}
		set = fql.Join(set, fql.Lambda("ref",
			fql.Singleton(fql.SelectStrict([]any{"data", key.Name}, fql.Get(fql.Var("ref"))))))

		// Intersect the hop target's own filters, except for the
		// principal whose set anchors the intersection in querySet.
		target := current.Left
		if target == q.Principal {
			continue
		}
		set, err = intersectTableFilters(q, target, set)
		if err != nil {
			return nil, err
		}
		if pos+1 < len(chain) && chain[pos+1] != target {
			return nil, fmt.Errorf("join chain is not contiguous at table %q", current.Name)
		}
	}
	return set, nil
}

// foldBackward folds the chain segment left of the principal. Each hop
// moves left-to-right, from a referenced table to the table holding
// the foreign key, through the key column's ref index.
func foldBackward(q *model.Query, chain []int) (fql.Expr, error) {
	set, err := tableSet(q, chain[0])
	if err != nil {
		return nil, err
	}
	for pos, idx := range chain {
		current := q.Tables[idx]
		key := current.RightKey
		if key == nil {
			return nil, fmt.Errorf("table %q has no key toward its right neighbor", current.Name)
		}
		target := current.Right
		child := q.Tables[target]
		refIndex, err := IndexName(child.Name, key.Name, IndexRef, current.Name)
		if err != nil {
			return nil, err
		}
		set = fql.Join(set, fql.Lambda("ref",
			fql.Match(fql.Index(refIndex), fql.Var("ref"))))

		if target == q.Principal {
			continue
		}
		set, err = intersectTableFilters(q, target, set)
		if err != nil {
			return nil, err
		}
		if pos+1 < len(chain) && chain[pos+1] != target {
			return nil, fmt.Errorf("join chain is not contiguous at table %q", current.Name)
		}
	}
	return set, nil
}

func intersectTableFilters(q *model.Query, idx int, set fql.Expr) (fql.Expr, error) {
	if len(q.Tables[idx].Filters) == 0 {
		return set, nil
	}
	own, err := tableSet(q, idx)
	if err != nil {
		return nil, err
	}
	return fql.Intersection(set, own), nil
}

// tableSet builds one table's document set: its filters combined as
// one AND group, or the whole collection when it has none.
func tableSet(q *model.Query, idx int) (fql.Expr, error) {
	t := q.Tables[idx]
	if len(t.Filters) == 0 {
		return allSet(t.Name), nil
	}
	return groupSet(t.Name, model.FilterGroup{
		Op:      model.SetIntersection,
		Filters: t.Filters,
	})
}

// groupSet combines the member sets of a filter group under its set
// operation.
func groupSet(table string, g model.FilterGroup) (fql.Expr, error) {
	sets := make([]fql.Expr, 0, len(g.Filters))
	for _, f := range g.Filters {
		s, err := filterSet(table, f)
		if err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	if len(sets) == 1 {
		return sets[0], nil
	}
	switch g.Op {
	case model.SetUnion:
		return fql.Union(sets...), nil
	default:
		return fql.Intersection(sets...), nil
	}
}

func allSet(table string) fql.Expr {
	return fql.Match(fql.Index(mustIndexName(table, "", IndexAll, "")))
}

// filterSet builds the document set matching one filter.
func filterSet(table string, f model.Filter) (fql.Expr, error) {
	switch f.Operator {
	case model.OpEqual:
		if f.Column.IsID() {
			id, err := idString(f.Value)
			if err != nil {
				return nil, err
			}
			return fql.Singleton(fql.Ref(fql.Collection(table), id)), nil
		}
		idx, err := IndexName(table, f.Column.Name, IndexTerm, "")
		if err != nil {
			return nil, err
		}
		return fql.Match(fql.Index(idx), f.Value), nil
	case model.OpIsNull:
		idx, err := IndexName(table, f.Column.Name, IndexTerm, "")
		if err != nil {
			return nil, err
		}
		return fql.Match(fql.Index(idx), nil), nil
	case model.OpGreaterThan, model.OpGreaterThanOrEqual,
		model.OpLessThan, model.OpLessThanOrEqual:
		return rangeSet(table, f)
	default:
		return nil, fmt.Errorf("no set translation for operator %v", f.Operator)
	}
}

// rangeSet builds a range filter over the column's value index. The
// index emits (value, ref) tuples; bounds are inclusive, so strict
// comparisons shave the boundary value off with a filter, and a final
// join collapses the surviving tuples back to a ref set.
func rangeSet(table string, f model.Filter) (fql.Expr, error) {
	if f.Column.IsID() {
		return nil, model.NotSupportedMsg(f.Operator.String(),
			"Range comparisons are not supported on the id column; only equality addresses document ids")
	}
	idx, err := IndexName(table, f.Column.Name, IndexValue, "")
	if err != nil {
		return nil, err
	}
	tuples := fql.Match(fql.Index(idx))

	var ranged fql.Expr
	switch f.Operator {
	case model.OpGreaterThanOrEqual:
		ranged = fql.Range(tuples, fql.Arr(f.Value), fql.Arr())
	case model.OpLessThanOrEqual:
		ranged = fql.Range(tuples, fql.Arr(), fql.Arr(f.Value))
	case model.OpGreaterThan:
		ranged = fql.Filter(
			fql.Range(tuples, fql.Arr(f.Value), fql.Arr()),
			excludeBoundary(f.Value))
	case model.OpLessThan:
		ranged = fql.Filter(
			fql.Range(tuples, fql.Arr(), fql.Arr(f.Value)),
			excludeBoundary(f.Value))
	default:
		return nil, fmt.Errorf("operator %v is not a range", f.Operator)
	}

	return fql.Join(ranged, fql.Lambda([]string{"value", "ref"},
		fql.Singleton(fql.Var("ref")))), nil
}

func excludeBoundary(v any) fql.Expr {
	return fql.Lambda([]string{"value", "ref"},
		fql.Not(fql.Equals(fql.Var("value"), fql.Value(v))))
}

// idString normalizes an id literal to the string form refs require.
func idString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case int64:
		return fmt.Sprintf("%d", t), nil
	default:
		return "", fmt.Errorf("id values must be strings, got %T", v)
	}
}
