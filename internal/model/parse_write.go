package model

import (
	"fmt"

	"github.com/tipresias/tipresias-sub001/internal/sqltoken"
)

func parseInsert(root *sqltoken.Token) (*Insert, error) {
	_, intoIdx := root.NextKeyword(0, "INTO")
	if intoIdx < 0 || intoIdx+1 >= len(root.Children) {
		return nil, fmt.Errorf("malformed INSERT: %q", root.Value())
	}
	target := root.Children[intoIdx+1]

	// With explicit columns the target groups as name(...) like a
	// function call; a bare identifier means the column list was left
	// out, which makes the field order ambiguous.
	if target.Kind == sqltoken.KindIdentifier {
		return nil, NotSupportedMsg("INSERT",
			"INSERT without explicit column names is not supported (field order would be ambiguous)")
	}
	if target.Kind != sqltoken.KindFunction {
		return nil, fmt.Errorf("malformed INSERT target %q", target.Value())
	}
	ins := &Insert{Collection: target.FunctionName()}

	var names []string
	for _, tok := range target.FunctionArgs() {
		for _, item := range elements(tok) {
			parts := item.Parts()
			if len(parts) != 1 {
				return nil, fmt.Errorf("malformed INSERT column %q", item.Value())
			}
			names = append(names, parts[0])
		}
	}
	if len(names) == 0 {
		return nil, NotSupportedMsg("INSERT",
			"INSERT without explicit column names is not supported (field order would be ambiguous)")
	}

	_, valuesIdx := root.NextKeyword(intoIdx, "VALUES")
	if valuesIdx < 0 {
		return nil, fmt.Errorf("INSERT without VALUES: %q", root.Value())
	}
	parens := 0
	var valueGroup *sqltoken.Token
	for i := valuesIdx + 1; i < len(root.Children); i++ {
		if root.Children[i].Kind == sqltoken.KindParenthesis {
			parens++
			valueGroup = root.Children[i]
		}
	}
	if parens == 0 {
		return nil, fmt.Errorf("INSERT without a VALUES list: %q", root.Value())
	}
	if parens > 1 {
		return nil, NotSupportedMsg("INSERT",
			"INSERT with multiple VALUES rows is not supported (batch writes are unavailable)")
	}

	var values []any
	for _, tok := range valueGroup.Items() {
		for _, item := range elements(tok) {
			v, err := literalValue(item)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
	}
	if len(values) != len(names) {
		return nil, fmt.Errorf("INSERT has %d columns but %d values", len(names), len(values))
	}

	for i, name := range names {
		col := Column{Name: name, Alias: name, Table: 0, Position: i, Value: values[i]}
		if name == "ref" {
			col.Alias = "id"
		}
		ins.Columns = append(ins.Columns, col)
	}
	return ins, nil
}

func parseUpdate(root *sqltoken.Token) (*Update, error) {
	_, updIdx := root.NextKeyword(0, "UPDATE")
	if updIdx < 0 || updIdx+1 >= len(root.Children) {
		return nil, fmt.Errorf("malformed UPDATE: %q", root.Value())
	}
	table, err := TableFromIdentifier(root.Children[updIdx+1])
	if err != nil {
		return nil, err
	}
	upd := &Update{Query: Query{Tables: []*Table{table}, Principal: 0}}

	_, setIdx := root.NextKeyword(updIdx, "SET")
	if setIdx < 0 || setIdx+1 >= len(root.Children) {
		return nil, fmt.Errorf("UPDATE without SET: %q", root.Value())
	}
	for _, item := range elements(root.Children[setIdx+1]) {
		if item.Kind != sqltoken.KindComparison {
			return nil, fmt.Errorf("malformed SET pair %q", item.Value())
		}
		col, err := upd.setPair(item)
		if err != nil {
			return nil, err
		}
		upd.Sets = append(upd.Sets, col)
	}
	if len(upd.Sets) == 0 {
		return nil, fmt.Errorf("UPDATE without SET pairs: %q", root.Value())
	}

	if where, _ := root.FirstOfKind(sqltoken.KindWhere); where != nil {
		if err := upd.compileWhere(where); err != nil {
			return nil, err
		}
	}
	return upd, nil
}

// setPair converts one "col = literal" comparison into a valued column.
func (u *Update) setPair(cmp *sqltoken.Token) (Column, error) {
	if len(cmp.Children) != 3 {
		return Column{}, fmt.Errorf("malformed SET pair %q", cmp.Value())
	}
	field, opTok, valueTok := cmp.Children[0], cmp.Children[1], cmp.Children[2]
	if opTok.Kind != sqltoken.KindOperator || opTok.Text != "=" {
		return Column{}, fmt.Errorf("malformed SET pair %q", cmp.Value())
	}
	col, owner, err := ColumnFromIdentifier(field)
	if err != nil {
		return Column{}, err
	}
	if owner != "" && owner != u.PrincipalTable().Name {
		return Column{}, NotSupportedMsg("UPDATE",
			"Cross-table updates are not supported")
	}
	value, err := literalValue(valueTok)
	if err != nil {
		return Column{}, err
	}
	col.Value = value
	stored := u.PrincipalTable().AddColumn(u.Principal, col)
	return stored, nil
}

func parseDelete(root *sqltoken.Token) (*Delete, error) {
	_, fromIdx := root.NextKeyword(0, "FROM")
	if fromIdx < 0 || fromIdx+1 >= len(root.Children) {
		return nil, fmt.Errorf("malformed DELETE: %q", root.Value())
	}
	fromTok := root.Children[fromIdx+1]
	if fromTok.Kind == sqltoken.KindIdentifierList {
		return nil, NotSupportedMsg("DELETE", "DELETE from multiple tables is not supported")
	}
	table, err := TableFromIdentifier(fromTok)
	if err != nil {
		return nil, err
	}
	del := &Delete{Query: Query{Tables: []*Table{table}, Principal: 0}}

	if where, _ := root.FirstOfKind(sqltoken.KindWhere); where != nil {
		if err := del.compileWhere(where); err != nil {
			return nil, err
		}
	}
	return del, nil
}
