package fqlgen

import (
	"github.com/tipresias/tipresias-sub001/internal/fql"
	"github.com/tipresias/tipresias-sub001/internal/model"
)

func buildInsert(ins *model.Insert) (fql.Expr, error) {
	data := make(map[string]any, len(ins.Columns))
	for _, col := range ins.Columns {
		data[col.Name] = fql.Value(col.Value)
	}
	return fql.Create(
		fql.Collection(ins.Collection),
		fql.Obj(map[string]any{"data": fql.Obj(data)})), nil
}

func buildUpdate(upd *model.Update) (fql.Expr, error) {
	set, err := querySet(&upd.Query)
	if err != nil {
		return nil, err
	}
	data := make(map[string]any, len(upd.Sets))
	for _, col := range upd.Sets {
		data[col.Name] = fql.Value(col.Value)
	}
	return fql.Map(
		fql.Paginate(set, defaultPageSize),
		fql.Lambda("ref", fql.Update(
			fql.Var("ref"),
			fql.Obj(map[string]any{"data": fql.Obj(data)})))), nil
}

func buildDelete(del *model.Delete) (fql.Expr, error) {
	set, err := querySet(&del.Query)
	if err != nil {
		return nil, err
	}
	return fql.Map(
		fql.Paginate(set, defaultPageSize),
		fql.Lambda("ref", fql.Delete(fql.Var("ref")))), nil
}
