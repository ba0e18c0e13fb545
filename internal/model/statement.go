package model

import (
	"fmt"

	"github.com/tipresias/tipresias-sub001/internal/sqltoken"
)

// Statement is the validated model of one SQL statement.
//
// This is a sealed interface - only types in this package implement it.
// Each statement kind carries only its relevant fields, and the FQL
// builder dispatches over the kinds with an exhaustive type switch.
type Statement interface {
	statementNode() // Marker method - seals interface to this package
}

// Select models a SELECT statement.
type Select struct {
	Query

	// Projection is the ordered list of output columns. All projection
	// columns belong to the principal table.
	Projection []Column

	// Aggregate replaces the projection with a server-side reduction
	// when a SQL aggregate function was selected. Only COUNT exists.
	Aggregate *Aggregate

	Distinct bool
	OrderBy  *OrderBy
	Limit    *int
}

func (*Select) statementNode() {}

// AggregateKind discriminates SQL aggregate functions.
type AggregateKind int

const (
	// AggregateCount is COUNT(column).
	AggregateCount AggregateKind = iota
)

// Aggregate is a SQL aggregate over a principal-table column.
type Aggregate struct {
	Kind   AggregateKind
	Column Column
	Alias  string
}

// Insert models a single-row INSERT with explicit column names. Each
// column carries its literal in Value, in declaration order.
type Insert struct {
	Collection string
	Columns    []Column
}

func (*Insert) statementNode() {}

// Update models an UPDATE. Sets carry the SET pairs with their literals
// in Value; the filtered document set comes from the embedded Query.
type Update struct {
	Query
	Sets []Column
}

func (*Update) statementNode() {}

// Delete models a DELETE over the filtered document set.
type Delete struct {
	Query
}

func (*Delete) statementNode() {}

// ColumnDef is one column declaration of a CREATE TABLE.
type ColumnDef struct {
	Name       string
	Type       string
	NotNull    bool
	Unique     bool
	PrimaryKey bool
	Default    any
	HasDefault bool
}

// ForeignKey is the single FOREIGN KEY declaration of a CREATE TABLE.
// References must target the id column of the referenced table.
type ForeignKey struct {
	Column   string
	RefTable string
}

// CreateTable models a CREATE TABLE statement.
type CreateTable struct {
	Collection string
	Columns    []ColumnDef
	ForeignKey *ForeignKey
}

func (*CreateTable) statementNode() {}

// CreateIndex models a CREATE [UNIQUE] INDEX statement.
type CreateIndex struct {
	Name       string
	Collection string
	Column     string
	Unique     bool
}

func (*CreateIndex) statementNode() {}

// AlterTable models the one supported ALTER TABLE form:
// ALTER COLUMN <column> DROP DEFAULT.
type AlterTable struct {
	Collection string
	Column     string
}

func (*AlterTable) statementNode() {}

// Parse builds the statement model from one tokenized statement,
// dispatching on the leading keyword. Validation fails fast: any
// construct the translator cannot map soundly onto the document
// database raises a NotSupportedError before any network traffic.
func Parse(root *sqltoken.Token) (Statement, error) {
	kw, _ := root.FirstOfKind(sqltoken.KindKeyword)
	if kw == nil {
		return nil, fmt.Errorf("statement has no leading keyword")
	}
	switch kw.Text {
	case "SELECT":
		return parseSelect(root)
	case "INSERT":
		return parseInsert(root)
	case "UPDATE":
		return parseUpdate(root)
	case "DELETE":
		return parseDelete(root)
	case "CREATE":
		if t, _ := root.NextKeyword(0, "TABLE"); t != nil {
			return parseCreateTable(root)
		}
		if t, _ := root.NextKeyword(0, "INDEX"); t != nil {
			return parseCreateIndex(root)
		}
		return nil, NotSupported(kw.Text + " " + root.Value())
	case "ALTER":
		return parseAlterTable(root)
	default:
		return nil, NotSupported(kw.Text)
	}
}

// elements unwraps a projection or value group: a single
// IdentifierList yields its items, anything else yields itself.
func elements(tok *sqltoken.Token) []*sqltoken.Token {
	if tok.Kind == sqltoken.KindIdentifierList {
		return tok.Items()
	}
	return []*sqltoken.Token{tok}
}
