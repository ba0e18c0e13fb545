package model

import (
	"fmt"
	"strings"

	"github.com/tipresias/tipresias-sub001/internal/sqltoken"
)

func parseCreateTable(root *sqltoken.Token) (*CreateTable, error) {
	target, _ := root.FirstOfKind(sqltoken.KindFunction)
	if target == nil {
		return nil, fmt.Errorf("malformed CREATE TABLE: %q", root.Value())
	}
	ct := &CreateTable{Collection: target.FunctionName()}

	defs, _ := target.FirstOfKind(sqltoken.KindParenthesis)
	if defs == nil {
		return nil, fmt.Errorf("CREATE TABLE without column definitions: %q", root.Value())
	}
	for _, seg := range defs.Segments() {
		if len(seg) == 0 {
			continue
		}
		if err := ct.parseDefSegment(seg); err != nil {
			return nil, err
		}
	}
	if len(ct.Columns) == 0 {
		return nil, fmt.Errorf("CREATE TABLE defines no columns: %q", root.Value())
	}
	return ct, nil
}

// parseDefSegment handles one comma-separated definition: a column
// declaration or a table-level constraint.
func (ct *CreateTable) parseDefSegment(seg []*sqltoken.Token) error {
	head := seg[0]
	switch {
	case head.IsKeyword("CONSTRAINT"):
		// Skip the constraint name and classify the remainder.
		if len(seg) < 3 {
			return fmt.Errorf("malformed CONSTRAINT clause")
		}
		return ct.parseDefSegment(seg[2:])
	case head.IsKeyword("PRIMARY"):
		return ct.parseKeyConstraint(seg, "PRIMARY KEY", func(c *ColumnDef) { c.PrimaryKey = true })
	case head.IsKeyword("UNIQUE"):
		return ct.parseKeyConstraint(seg, "UNIQUE", func(c *ColumnDef) { c.Unique = true })
	case head.IsKeyword("FOREIGN"):
		return ct.parseForeignKey(seg)
	case head.IsKeyword("CHECK"):
		return NotSupportedMsg("CHECK", "CHECK constraints are not supported")
	case head.Kind == sqltoken.KindIdentifier:
		return ct.parseColumnDef(seg)
	default:
		return fmt.Errorf("unexpected CREATE TABLE clause starting at %q", head.Value())
	}
}

func (ct *CreateTable) parseColumnDef(seg []*sqltoken.Token) error {
	def := ColumnDef{Name: seg[0].Parts()[0]}
	i := 1
	if i < len(seg) {
		switch seg[i].Kind {
		case sqltoken.KindIdentifier:
			def.Type = strings.ToUpper(seg[i].Parts()[0])
			i++
		case sqltoken.KindFunction:
			// Parameterized types such as VARCHAR(250).
			def.Type = strings.ToUpper(seg[i].FunctionName())
			i++
		}
	}
	for i < len(seg) {
		t := seg[i]
		switch {
		case t.IsKeyword("NOT") && i+1 < len(seg) && seg[i+1].Kind == sqltoken.KindLiteral && seg[i+1].Text == "NULL":
			def.NotNull = true
			i += 2
		case t.Kind == sqltoken.KindLiteral && t.Text == "NULL":
			i++
		case t.IsKeyword("PRIMARY") && i+1 < len(seg) && seg[i+1].IsKeyword("KEY"):
			def.PrimaryKey = true
			i += 2
		case t.IsKeyword("UNIQUE"):
			def.Unique = true
			i++
		case t.IsKeyword("DEFAULT") && i+1 < len(seg):
			v, err := literalValue(seg[i+1])
			if err != nil {
				return err
			}
			def.Default = v
			def.HasDefault = true
			i += 2
		case t.IsKeyword("CHECK"):
			return NotSupportedMsg("CHECK", "CHECK constraints are not supported")
		case t.IsKeyword("REFERENCES") && i+1 < len(seg):
			if err := ct.setForeignKey(def.Name, seg[i+1]); err != nil {
				return err
			}
			i += 2
		default:
			return fmt.Errorf("unexpected token %q in column definition %q", t.Value(), def.Name)
		}
	}
	ct.Columns = append(ct.Columns, def)
	return nil
}

// parseKeyConstraint handles PRIMARY KEY (col) and UNIQUE (col) table
// constraints by marking the named columns.
func (ct *CreateTable) parseKeyConstraint(seg []*sqltoken.Token, kind string, mark func(*ColumnDef)) error {
	paren := findParen(seg)
	if paren == nil {
		return fmt.Errorf("malformed %s constraint", kind)
	}
	for _, item := range paren.Items() {
		for _, col := range elements(item) {
			parts := col.Parts()
			if len(parts) != 1 {
				return fmt.Errorf("malformed %s constraint column %q", kind, col.Value())
			}
			def := ct.columnDef(parts[0])
			if def == nil {
				return fmt.Errorf("%s constraint references unknown column %q", kind, parts[0])
			}
			mark(def)
		}
	}
	return nil
}

// parseForeignKey handles FOREIGN KEY (col) REFERENCES table (id).
func (ct *CreateTable) parseForeignKey(seg []*sqltoken.Token) error {
	paren := findParen(seg)
	if paren == nil {
		return fmt.Errorf("malformed FOREIGN KEY constraint")
	}
	items := paren.Items()
	if len(items) != 1 || len(items[0].Parts()) != 1 {
		return NotSupportedMsg("FOREIGN KEY", "Composite foreign keys are not supported")
	}
	column := items[0].Parts()[0]

	_, refIdx := tokensNextKeyword(seg, "REFERENCES")
	if refIdx < 0 || refIdx+1 >= len(seg) {
		return fmt.Errorf("FOREIGN KEY without REFERENCES")
	}
	return ct.setForeignKey(column, seg[refIdx+1])
}

// setForeignKey records the table's single foreign key, validating the
// referenced column.
func (ct *CreateTable) setForeignKey(column string, target *sqltoken.Token) error {
	if ct.ForeignKey != nil {
		return NotSupportedMsg("FOREIGN KEY",
			"Tables with multiple FOREIGN KEY declarations are not supported")
	}
	var refTable, refColumn string
	switch target.Kind {
	case sqltoken.KindFunction:
		refTable = target.FunctionName()
		args := target.FunctionArgs()
		if len(args) != 1 || len(args[0].Parts()) != 1 {
			return fmt.Errorf("malformed REFERENCES target %q", target.Value())
		}
		refColumn = args[0].Parts()[0]
	case sqltoken.KindIdentifier:
		refTable = target.Parts()[0]
		refColumn = "id"
	default:
		return fmt.Errorf("malformed REFERENCES target %q", target.Value())
	}
	if refColumn != "id" && refColumn != "ref" {
		return NotSupportedMsg("FOREIGN KEY",
			"Foreign keys can only reference the id column of the referenced table")
	}
	ct.ForeignKey = &ForeignKey{Column: column, RefTable: refTable}
	return nil
}

func (ct *CreateTable) columnDef(name string) *ColumnDef {
	for i := range ct.Columns {
		if ct.Columns[i].Name == name {
			return &ct.Columns[i]
		}
	}
	return nil
}

func parseCreateIndex(root *sqltoken.Token) (*CreateIndex, error) {
	ci := &CreateIndex{}
	if kw, _ := root.NextKeyword(0, "UNIQUE"); kw != nil {
		ci.Unique = true
	}
	_, idxKw := root.NextKeyword(0, "INDEX")
	if idxKw < 0 || idxKw+1 >= len(root.Children) {
		return nil, fmt.Errorf("malformed CREATE INDEX: %q", root.Value())
	}
	nameTok := root.Children[idxKw+1]
	if nameTok.Kind != sqltoken.KindIdentifier || len(nameTok.Parts()) != 1 {
		return nil, fmt.Errorf("malformed index name %q", nameTok.Value())
	}
	ci.Name = nameTok.Parts()[0]

	_, onIdx := root.NextKeyword(idxKw, "ON")
	if onIdx < 0 || onIdx+1 >= len(root.Children) {
		return nil, fmt.Errorf("CREATE INDEX without ON: %q", root.Value())
	}
	target := root.Children[onIdx+1]
	if target.Kind != sqltoken.KindFunction {
		return nil, fmt.Errorf("malformed CREATE INDEX target %q", target.Value())
	}
	ci.Collection = target.FunctionName()

	var cols []string
	for _, tok := range target.FunctionArgs() {
		for _, item := range elements(tok) {
			parts := item.Parts()
			if len(parts) != 1 {
				return nil, fmt.Errorf("malformed CREATE INDEX column %q", item.Value())
			}
			cols = append(cols, parts[0])
		}
	}
	if len(cols) != 1 {
		return nil, NotSupportedMsg("CREATE INDEX", "Multi-column indexes are not supported")
	}
	ci.Column = cols[0]
	return ci, nil
}

func parseAlterTable(root *sqltoken.Token) (*AlterTable, error) {
	_, tableIdx := root.NextKeyword(0, "TABLE")
	if tableIdx < 0 || tableIdx+1 >= len(root.Children) {
		return nil, fmt.Errorf("malformed ALTER TABLE: %q", root.Value())
	}
	tableTok := root.Children[tableIdx+1]
	if tableTok.Kind != sqltoken.KindIdentifier {
		return nil, fmt.Errorf("malformed ALTER TABLE target %q", tableTok.Value())
	}

	// Schema is inferred from documents, not declared, so most ALTER
	// forms have nothing to alter. Reject them by name.
	if kw, _ := root.NextKeyword(tableIdx, "RENAME"); kw != nil {
		return nil, NotSupported("ALTER TABLE ... RENAME")
	}
	if kw, _ := root.NextKeyword(tableIdx, "ADD"); kw != nil {
		return nil, NotSupported("ALTER TABLE ... ADD COLUMN")
	}
	if kw, _ := root.NextKeyword(tableIdx, "TYPE"); kw != nil {
		return nil, NotSupported("ALTER COLUMN ... TYPE")
	}

	_, colKw := root.NextKeyword(tableIdx+2, "COLUMN")
	if colKw < 0 || colKw+1 >= len(root.Children) {
		return nil, NotSupported("ALTER TABLE " + root.Value())
	}
	colTok := root.Children[colKw+1]
	if colTok.Kind != sqltoken.KindIdentifier {
		return nil, fmt.Errorf("malformed ALTER COLUMN target %q", colTok.Value())
	}

	dropKw, _ := root.NextKeyword(colKw, "DROP")
	setKw, _ := root.NextKeyword(colKw, "SET")
	defaultKw, _ := root.NextKeyword(colKw, "DEFAULT")
	switch {
	case setKw != nil && defaultKw != nil:
		return nil, NotSupported("ALTER COLUMN ... SET DEFAULT")
	case dropKw != nil && defaultKw != nil:
		return &AlterTable{
			Collection: tableTok.Parts()[0],
			Column:     colTok.Parts()[0],
		}, nil
	case dropKw != nil:
		return nil, NotSupported("ALTER TABLE ... DROP COLUMN")
	default:
		return nil, NotSupported("ALTER TABLE " + root.Value())
	}
}

func findParen(seg []*sqltoken.Token) *sqltoken.Token {
	for _, t := range seg {
		if t.Kind == sqltoken.KindParenthesis {
			return t
		}
	}
	return nil
}

func tokensNextKeyword(seg []*sqltoken.Token, word string) (*sqltoken.Token, int) {
	for i, t := range seg {
		if t.IsKeyword(word) {
			return t, i
		}
	}
	return nil, -1
}
