package fqlgen

import (
	"github.com/tipresias/tipresias-sub001/internal/fql"
	"github.com/tipresias/tipresias-sub001/internal/model"
)

// defaultPageSize bounds every paginated read and write. The remote
// page maximum is the effective cap for unlimited queries.
const defaultPageSize = 100000

func buildSelect(s *model.Select) (fql.Expr, error) {
	set, err := querySet(&s.Query)
	if err != nil {
		return nil, err
	}

	if s.Aggregate != nil {
		return fql.Count(set), nil
	}

	size := defaultPageSize
	if s.Limit != nil {
		size = *s.Limit
	}

	var page fql.Expr
	if s.OrderBy != nil {
		page, err = orderedPage(s, set, size)
		if err != nil {
			return nil, err
		}
	} else {
		page = fql.Map(
			fql.Paginate(set, size),
			fql.Lambda("ref", projectionRow(s.Projection, fql.Var("ref"))))
	}

	if s.Distinct {
		return fql.Distinct(page), nil
	}
	return page, nil
}

// orderedPage rides the sort column's value index: its (value, ref)
// tuples are already sorted, so ordering is membership-filtering the
// tuples against the query's document set, not sorting. Descending
// order reverses the tuple set before pagination.
func orderedPage(s *model.Select, set fql.Expr, size int) (fql.Expr, error) {
	col := s.OrderBy.Columns[0]
	if col.IsID() {
		return nil, model.NotSupportedMsg("ORDER BY",
			"Sort is not supported on the id column, because no value index covers document ids")
	}
	idx, err := IndexName(s.PrincipalTable().Name, col.Name, IndexValue, "")
	if err != nil {
		return nil, err
	}
	tuples := fql.Match(fql.Index(idx))

	if narrowed(s) {
		tuples = fql.Filter(tuples, fql.Lambda([]string{"value", "ref"},
			fql.IsNonEmpty(fql.Intersection(fql.Singleton(fql.Var("ref")), set))))
	}
	if s.OrderBy.Direction == model.Descending {
		tuples = fql.Reverse(tuples)
	}
	return fql.Map(
		fql.Paginate(tuples, size),
		fql.Lambda([]string{"value", "ref"}, projectionRow(s.Projection, fql.Var("ref")))), nil
}

// narrowed reports whether the query's set is anything other than the
// whole principal collection.
func narrowed(s *model.Select) bool {
	return len(s.Tables) > 1 || len(s.PrincipalTable().Filters) > 0
}

// projectionRow reads one document and emits the projected values as
// an array in projection order. Missing fields surface as null, and
// the id column reads the document's own ref.
func projectionRow(projection []model.Column, ref fql.Expr) fql.Expr {
	values := make([]fql.Expr, len(projection))
	for i, col := range projection {
		if col.IsID() {
			values[i] = fql.SelectStrict([]any{"ref", "id"}, fql.Var("doc"))
			continue
		}
		values[i] = fql.Select([]any{"data", col.Name}, fql.Var("doc"), fql.Null())
	}
	return fql.Bind("doc", fql.Get(ref), fql.Arr(anySlice(values)...))
}

func anySlice(exprs []fql.Expr) []any {
	out := make([]any, len(exprs))
	for i, e := range exprs {
		out[i] = e
	}
	return out
}
