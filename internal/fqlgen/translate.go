package fqlgen

import (
	"fmt"

	"github.com/tipresias/tipresias-sub001/internal/fql"
	"github.com/tipresias/tipresias-sub001/internal/model"
	"github.com/tipresias/tipresias-sub001/internal/sqltoken"
)

// Translate builds the FQL expression for one statement model.
func Translate(stmt model.Statement) (fql.Expr, error) {
	switch s := stmt.(type) {
	case *model.Select:
		return buildSelect(s)
	case *model.Insert:
		return buildInsert(s)
	case *model.Update:
		return buildUpdate(s)
	case *model.Delete:
		return buildDelete(s)
	case *model.CreateTable:
		return buildCreateTable(s)
	case *model.CreateIndex:
		return buildCreateIndex(s)
	case *model.AlterTable:
		return buildAlterTable(s)
	default:
		return nil, fmt.Errorf("no translation for statement %T", stmt)
	}
}

// Compile tokenizes, models and translates one SQL statement.
func Compile(sql string) (model.Statement, fql.Expr, error) {
	root, err := sqltoken.Tokenize(sql)
	if err != nil {
		return nil, nil, fmt.Errorf("tokenize: %w", err)
	}
	stmt, err := model.Parse(root)
	if err != nil {
		return nil, nil, err
	}
	expr, err := Translate(stmt)
	if err != nil {
		return nil, nil, err
	}
	return stmt, expr, nil
}
