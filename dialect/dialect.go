// Package dialect reflects database schema for SQL tooling. Schema
// lives in the information_schema_* metadata collections the DDL
// translator maintains; reflection is plain SQL against those tables.
//
// A database that has never seen a CREATE TABLE has no metadata
// collections or indexes yet. The remote reports queries against the
// missing indexes as errors; reflection maps those onto empty results,
// the answer an empty database should give.
package dialect

import (
	"context"
	"fmt"

	"github.com/tipresias/tipresias-sub001/driver"
	"github.com/tipresias/tipresias-sub001/internal/client"
)

// Column is one reflected column.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Default  any    `json:"default,omitempty"`
}

// ForeignKey is one reflected foreign-key constraint. The referred
// column is always the document id.
type ForeignKey struct {
	Name           string `json:"name"`
	Column         string `json:"column"`
	ReferredTable  string `json:"referred_table"`
	ReferredColumn string `json:"referred_column"`
}

// Index is one reflected index.
type Index struct {
	Name   string `json:"name"`
	Column string `json:"column"`
	Unique bool   `json:"unique"`
}

// Dialect reflects schema over one connection.
type Dialect struct {
	conn *driver.Connection
}

// New builds a dialect over the connection.
func New(conn *driver.Connection) *Dialect {
	return &Dialect{conn: conn}
}

// ConnectArgs maps a scheme://secret@host:port database URL onto
// driver connection parameters.
func ConnectArgs(url string) (driver.Config, error) {
	return driver.ParseDSN(url)
}

// TableNames lists the user tables.
func (d *Dialect) TableNames(ctx context.Context) ([]string, error) {
	rows, err := d.query(ctx,
		"SELECT information_schema_tables_.name_ FROM information_schema_tables_")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		name, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("malformed table metadata row %v", row)
		}
		names = append(names, name)
	}
	return names, nil
}

// HasTable reports whether the named table exists.
func (d *Dialect) HasTable(ctx context.Context, table string) (bool, error) {
	rows, err := d.query(ctx,
		"SELECT information_schema_tables_.name_ FROM information_schema_tables_ "+
			"WHERE information_schema_tables_.name_ = ?", table)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Columns reflects the named table's columns.
func (d *Dialect) Columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := d.query(ctx,
		"SELECT information_schema_columns_.name_, information_schema_columns_.type_, "+
			"information_schema_columns_.nullable_, information_schema_columns_.default_ "+
			"FROM information_schema_columns_ "+
			"WHERE information_schema_columns_.table_name_ = ?", table)
	if err != nil {
		return nil, err
	}
	cols := make([]Column, 0, len(rows))
	for _, row := range rows {
		col := Column{Default: row[3]}
		if s, ok := row[0].(string); ok {
			col.Name = s
		}
		if s, ok := row[1].(string); ok {
			col.Type = s
		}
		if b, ok := row[2].(bool); ok {
			col.Nullable = b
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// PrimaryKeyColumns reflects the primary key. Every document carries
// its own identifier, so the primary key is always the id column.
func (d *Dialect) PrimaryKeyColumns(ctx context.Context, table string) ([]string, error) {
	return []string{"id"}, nil
}

// ForeignKeys reflects the named table's foreign-key constraints.
func (d *Dialect) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := d.indexRows(ctx, table)
	if err != nil {
		return nil, err
	}
	fks := make([]ForeignKey, 0)
	for _, row := range rows {
		if isFK, ok := row[3].(bool); !ok || !isFK {
			continue
		}
		fk := ForeignKey{ReferredColumn: "id"}
		if s, ok := row[0].(string); ok {
			fk.Name = s
		}
		if s, ok := row[1].(string); ok {
			fk.Column = s
		}
		if s, ok := row[4].(string); ok {
			fk.ReferredTable = s
		}
		fks = append(fks, fk)
	}
	return fks, nil
}

// Indexes reflects the named table's non-constraint indexes.
func (d *Dialect) Indexes(ctx context.Context, table string) ([]Index, error) {
	rows, err := d.indexRows(ctx, table)
	if err != nil {
		return nil, err
	}
	idxs := make([]Index, 0)
	for _, row := range rows {
		if isFK, ok := row[3].(bool); ok && isFK {
			continue
		}
		idx := Index{}
		if s, ok := row[0].(string); ok {
			idx.Name = s
		}
		if s, ok := row[1].(string); ok {
			idx.Column = s
		}
		if b, ok := row[2].(bool); ok {
			idx.Unique = b
		}
		idxs = append(idxs, idx)
	}
	return idxs, nil
}

// UniqueConstraints reflects the unique indexes as constraints.
func (d *Dialect) UniqueConstraints(ctx context.Context, table string) ([]Index, error) {
	idxs, err := d.Indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	unique := make([]Index, 0)
	for _, idx := range idxs {
		if idx.Unique {
			unique = append(unique, idx)
		}
	}
	return unique, nil
}

// ViewNames lists views. The database has none.
func (d *Dialect) ViewNames(ctx context.Context) ([]string, error) {
	return nil, nil
}

// CheckConstraints lists check constraints. DDL rejects them, so no
// table has any.
func (d *Dialect) CheckConstraints(ctx context.Context, table string) ([]string, error) {
	return nil, nil
}

func (d *Dialect) indexRows(ctx context.Context, table string) ([]driver.Row, error) {
	return d.query(ctx,
		"SELECT information_schema_indexes_.name_, information_schema_indexes_.column_name_, "+
			"information_schema_indexes_.unique_, information_schema_indexes_.foreign_key_, "+
			"information_schema_indexes_.referred_table_ "+
			"FROM information_schema_indexes_ "+
			"WHERE information_schema_indexes_.table_name_ = ?", table)
}

// query runs one reflection SELECT, flattening a missing metadata
// index into an empty result.
func (d *Dialect) query(ctx context.Context, sql string, params ...any) ([]driver.Row, error) {
	cur := d.conn.Cursor()
	defer cur.Close()
	if err := cur.Execute(ctx, sql, params...); err != nil {
		if client.IsIndexNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return cur.FetchAll()
}
