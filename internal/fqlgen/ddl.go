package fqlgen

import (
	"github.com/tipresias/tipresias-sub001/internal/fql"
	"github.com/tipresias/tipresias-sub001/internal/model"
)

// The schema metadata collections. The database has no information
// schema of its own, so DDL maintains these documents and the dialect
// reflects against them. The trailing underscore keeps the names out
// of the way of user tables.
const (
	tablesCollection  = "information_schema_tables_"
	columnsCollection = "information_schema_columns_"
	indexesCollection = "information_schema_indexes_"
)

func buildCreateTable(ct *model.CreateTable) (fql.Expr, error) {
	t := ct.Collection
	exprs := []fql.Expr{
		ensureInformationSchema(),
		ensureCollection(t),
		ensureIndex(mustIndexName(t, "", IndexAll, ""), allIndexParams(t)),
	}

	for _, col := range ct.Columns {
		if col.Name == "id" {
			// The document id is intrinsic; no index can or need
			// cover it.
			continue
		}
		unique := col.Unique || col.PrimaryKey
		term := mustIndexName(t, col.Name, IndexTerm, "")
		value := mustIndexName(t, col.Name, IndexValue, "")
		exprs = append(exprs,
			ensureIndex(term, termIndexParams(t, col.Name, unique)),
			ensureIndex(value, valueIndexParams(t, col.Name)),
		)
		if unique {
			exprs = append(exprs, createIndexMetadata(t, term, col.Name, true, ""))
		}
	}

	if fk := ct.ForeignKey; fk != nil {
		name, err := IndexName(t, fk.Column, IndexRef, fk.RefTable)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs,
			ensureIndex(name, refIndexParams(name, t, fk.Column)),
			createIndexMetadata(t, name, fk.Column, false, fk.RefTable),
		)
	}

	exprs = append(exprs, fql.Create(
		fql.Collection(tablesCollection),
		fql.Obj(map[string]any{"data": fql.Obj(map[string]any{"name_": t})})))
	for _, col := range ct.Columns {
		exprs = append(exprs, fql.Create(
			fql.Collection(columnsCollection),
			fql.Obj(map[string]any{"data": fql.Obj(map[string]any{
				"table_name_": t,
				"name_":       col.Name,
				"type_":       col.Type,
				"nullable_":   !col.NotNull,
				"default_":    fql.Value(col.Default),
			})})))
	}

	return fql.Do(exprs...), nil
}

func buildCreateIndex(ci *model.CreateIndex) (fql.Expr, error) {
	term, err := IndexName(ci.Collection, ci.Column, IndexTerm, "")
	if err != nil {
		return nil, err
	}
	return fql.Do(
		ensureInformationSchema(),
		ensureIndex(term, termIndexParams(ci.Collection, ci.Column, ci.Unique)),
		// The metadata document keeps the SQL-side name; the index
		// itself follows the naming convention so generated queries
		// can find it.
		fql.Create(
			fql.Collection(indexesCollection),
			fql.Obj(map[string]any{"data": fql.Obj(map[string]any{
				"table_name_":     ci.Collection,
				"name_":           ci.Name,
				"column_name_":    ci.Column,
				"unique_":         ci.Unique,
				"foreign_key_":    false,
				"referred_table_": nil,
			})})),
	), nil
}

// buildAlterTable handles the only supported ALTER form, dropping a
// column default. Schema lives in metadata documents, so the change is
// an update of the matching column document.
func buildAlterTable(at *model.AlterTable) (fql.Expr, error) {
	byTable := mustIndexName(columnsCollection, "table_name_", IndexTerm, "")
	matching := fql.Filter(
		fql.Match(fql.Index(byTable), at.Collection),
		fql.Lambda("ref", fql.Equals(
			fql.Select([]any{"data", "name_"}, fql.Get(fql.Var("ref")), fql.Null()),
			fql.Value(at.Column))))
	return fql.Map(
		fql.Paginate(matching, defaultPageSize),
		fql.Lambda("ref", fql.Update(
			fql.Var("ref"),
			fql.Obj(map[string]any{"data": fql.Obj(map[string]any{"default_": nil})})))), nil
}

// createIndexMetadata records one index in the metadata collection,
// under its conventional name.
func createIndexMetadata(table, name, column string, unique bool, referred string) fql.Expr {
	var referredValue any
	if referred != "" {
		referredValue = referred
	}
	return fql.Create(
		fql.Collection(indexesCollection),
		fql.Obj(map[string]any{"data": fql.Obj(map[string]any{
			"table_name_":     table,
			"name_":           name,
			"column_name_":    column,
			"unique_":         unique,
			"foreign_key_":    referred != "",
			"referred_table_": referredValue,
		})}))
}

// ensureInformationSchema provisions the metadata collections and
// their indexes when absent. Every DDL expression starts with it, so
// DDL works against a fresh database without a setup step.
func ensureInformationSchema() fql.Expr {
	exprs := []fql.Expr{
		ensureCollection(tablesCollection),
		ensureCollection(columnsCollection),
		ensureCollection(indexesCollection),
		ensureIndex(
			mustIndexName(tablesCollection, "", IndexAll, ""),
			allIndexParams(tablesCollection)),
		ensureIndex(
			mustIndexName(tablesCollection, "name_", IndexTerm, ""),
			termIndexParams(tablesCollection, "name_", false)),
		ensureIndex(
			mustIndexName(columnsCollection, "table_name_", IndexTerm, ""),
			termIndexParams(columnsCollection, "table_name_", false)),
		ensureIndex(
			mustIndexName(indexesCollection, "table_name_", IndexTerm, ""),
			termIndexParams(indexesCollection, "table_name_", false)),
	}
	return fql.Do(exprs...)
}

func ensureCollection(name string) fql.Expr {
	return fql.If(
		fql.Exists(fql.Collection(name)),
		fql.Null(),
		fql.CreateCollection(fql.Obj(map[string]any{"name": name})))
}

func ensureIndex(name string, params fql.Expr) fql.Expr {
	return fql.If(
		fql.Exists(fql.Index(name)),
		fql.Null(),
		fql.CreateIndexQ(params))
}

func allIndexParams(table string) fql.Expr {
	return fql.Obj(map[string]any{
		"name":   mustIndexName(table, "", IndexAll, ""),
		"source": fql.Collection(table),
		"active": true,
	})
}

func termIndexParams(table, column string, unique bool) fql.Expr {
	return fql.Obj(map[string]any{
		"name":   mustIndexName(table, column, IndexTerm, ""),
		"source": fql.Collection(table),
		"terms":  fql.Arr(fieldPath("data", column)),
		"unique": unique,
		"active": true,
	})
}

func valueIndexParams(table, column string) fql.Expr {
	return fql.Obj(map[string]any{
		"name":   mustIndexName(table, column, IndexValue, ""),
		"source": fql.Collection(table),
		"values": fql.Arr(fieldPath("data", column), fieldPath("ref")),
		"active": true,
	})
}

func refIndexParams(name, table, column string) fql.Expr {
	return fql.Obj(map[string]any{
		"name":   name,
		"source": fql.Collection(table),
		"terms":  fql.Arr(fieldPath("data", column)),
		"active": true,
	})
}

func fieldPath(parts ...string) fql.Expr {
	return fql.Obj(map[string]any{"field": fql.Value(parts)})
}
