package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/tipresias/tipresias-sub001/internal/fql"
	"github.com/tipresias/tipresias-sub001/internal/fqlgen"
	"github.com/tipresias/tipresias-sub001/internal/model"
)

// Row is one result row, values in projection order.
type Row []any

// Column describes one result column.
type Column struct {
	// Name is the output name: the column alias for SELECT, "id" for
	// the document identifier.
	Name string

	// Type is the value type inferred from the first row: string,
	// number, boolean, datetime. Empty when the first row holds null.
	Type string
}

// Cursor executes statements and buffers their full result. A cursor
// belongs to one goroutine at a time.
type Cursor struct {
	conn *Connection

	// Arraysize is the default batch size of FetchMany.
	Arraysize int

	closed   bool
	executed bool
	columns  []Column
	rows     []Row
	pos      int
	rowCount int
	lastID   string
}

// Close marks the cursor closed.
func (c *Cursor) Close() error {
	c.closed = true
	return nil
}

// Execute runs one SQL statement. Placeholders (?) in the statement
// are substituted with params before translation. The whole result is
// buffered before Execute returns; fetches never touch the network.
func (c *Cursor) Execute(ctx context.Context, sql string, params ...any) error {
	if c.closed || c.conn.closed {
		return ErrClosed
	}
	bound, err := bindParams(sql, params)
	if err != nil {
		return err
	}
	stmt, expr, err := fqlgen.Compile(bound)
	if err != nil {
		return err
	}
	result, err := c.conn.client.Query(ctx, expr)
	if err != nil {
		return err
	}
	return c.load(stmt, result)
}

// load resets the cursor and interprets the query result for the
// statement kind that produced it.
func (c *Cursor) load(stmt model.Statement, result any) error {
	c.executed = true
	c.columns = nil
	c.rows = nil
	c.pos = 0
	c.rowCount = 0
	c.lastID = ""

	switch s := stmt.(type) {
	case *model.Select:
		if s.Aggregate != nil {
			c.columns = []Column{{Name: s.Aggregate.Alias, Type: typeName(result)}}
			c.rows = []Row{{normalize(result)}}
			c.rowCount = 1
			return nil
		}
		return c.loadProjected(s, result)
	case *model.Insert:
		doc, err := fql.DocumentFromValue(result)
		if err != nil {
			return fmt.Errorf("interpret insert result: %w", err)
		}
		c.lastID = doc.Ref.ID
		c.rowCount = 1
		return nil
	case *model.Update, *model.Delete:
		c.rowCount = len(fql.PageData(result))
		return nil
	case *model.CreateTable, *model.CreateIndex, *model.AlterTable:
		return nil
	default:
		return fmt.Errorf("no result interpretation for statement %T", stmt)
	}
}

func (c *Cursor) loadProjected(s *model.Select, result any) error {
	data := fql.PageData(result)
	rows := make([]Row, 0, len(data))
	for _, entry := range data {
		values, ok := entry.([]any)
		if !ok {
			return fmt.Errorf("malformed result row %v", entry)
		}
		if len(values) != len(s.Projection) {
			return fmt.Errorf("result row has %d values for %d columns",
				len(values), len(s.Projection))
		}
		row := make(Row, len(values))
		for i, v := range values {
			row[i] = normalize(v)
		}
		rows = append(rows, row)
	}

	c.columns = make([]Column, len(s.Projection))
	for i, col := range s.Projection {
		c.columns[i] = Column{Name: col.Alias}
		if len(rows) > 0 {
			c.columns[i].Type = typeName(rows[0][i])
		}
	}
	c.rows = rows
	c.rowCount = len(rows)
	return nil
}

// Description returns the result columns of the last Execute. Like
// RowCount and LastInsertID it reads the buffered result only, so it
// stays readable after Close; Execute and the fetches are the calls
// that fail with ErrClosed.
func (c *Cursor) Description() []Column {
	return c.columns
}

// RowCount returns the number of rows the last statement produced or
// affected. Readable after Close.
func (c *Cursor) RowCount() int {
	return c.rowCount
}

// LastInsertID returns the id of the document created by the last
// INSERT, or "". Readable after Close.
func (c *Cursor) LastInsertID() string {
	return c.lastID
}

// FetchOne returns the next buffered row. It returns ErrNoMoreRows on
// exhaustion.
func (c *Cursor) FetchOne() (Row, error) {
	if err := c.fetchable(); err != nil {
		return nil, err
	}
	if c.pos >= len(c.rows) {
		return nil, ErrNoMoreRows
	}
	row := c.rows[c.pos]
	c.pos++
	return row, nil
}

// FetchMany returns up to n rows, or up to Arraysize rows when n <= 0.
// Exhaustion yields an empty slice, not an error.
func (c *Cursor) FetchMany(n int) ([]Row, error) {
	if err := c.fetchable(); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = c.Arraysize
	}
	if n <= 0 {
		n = 1
	}
	end := c.pos + n
	if end > len(c.rows) {
		end = len(c.rows)
	}
	batch := c.rows[c.pos:end]
	c.pos = end
	return batch, nil
}

// FetchAll returns all remaining rows.
func (c *Cursor) FetchAll() ([]Row, error) {
	if err := c.fetchable(); err != nil {
		return nil, err
	}
	rest := c.rows[c.pos:]
	c.pos = len(c.rows)
	return rest, nil
}

func (c *Cursor) fetchable() error {
	if c.closed || c.conn.closed {
		return ErrClosed
	}
	if !c.executed {
		return ErrBeforeExecute
	}
	return nil
}

// normalize maps decoded wire values onto the driver's SQL-facing
// types: document refs surface as their id string, containers convert
// recursively.
func normalize(v any) any {
	switch t := v.(type) {
	case fql.RefV:
		return t.ID
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	default:
		return v
	}
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case int64, float64:
		return "number"
	case bool:
		return "boolean"
	case time.Time:
		return "datetime"
	default:
		return ""
	}
}
