package driver

import (
	"context"
	"database/sql"
	gosqldriver "database/sql/driver"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"
)

// DriverName is the name this package registers with database/sql.
const DriverName = "fql"

func init() {
	sql.Register(DriverName, &sqlDriver{})
}

// sqlDriver implements database/sql/driver.Driver. The DSN has the
// shape scheme://secret@host:port.
type sqlDriver struct{}

func (d *sqlDriver) Open(dsn string) (gosqldriver.Conn, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return &sqlConn{conn: Connect(cfg)}, nil
}

var _ gosqldriver.Driver = &sqlDriver{}

// ParseDSN parses a scheme://secret@host:port data source name.
func ParseDSN(dsn string) (Config, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return Config{}, fmt.Errorf("parse dsn: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Config{}, fmt.Errorf("dsn scheme must be http or https, got %q", u.Scheme)
	}
	if u.User == nil || u.User.Username() == "" {
		return Config{}, fmt.Errorf("dsn is missing the secret: want scheme://secret@host:port")
	}
	cfg := Config{
		Scheme: u.Scheme,
		Host:   u.Hostname(),
		Secret: u.User.Username(),
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Config{}, fmt.Errorf("parse dsn port: %w", err)
		}
		cfg.Port = port
	}
	return cfg, nil
}

// sqlConn implements driver.Conn, driver.ExecerContext and
// driver.QueryerContext over a Connection.
type sqlConn struct {
	conn *Connection
}

func (c *sqlConn) Prepare(query string) (gosqldriver.Stmt, error) {
	return &sqlStmt{conn: c, query: query}, nil
}

func (c *sqlConn) Close() error {
	return c.conn.Close()
}

// Begin reports transactions as unsupported. Each statement already
// runs as one atomic expression.
func (c *sqlConn) Begin() (gosqldriver.Tx, error) {
	return nil, ErrTransactionsUnsupported
}

func (c *sqlConn) ExecContext(ctx context.Context, query string, args []gosqldriver.NamedValue) (gosqldriver.Result, error) {
	cur := c.conn.Cursor()
	if err := cur.Execute(ctx, query, fromNamedValues(args)...); err != nil {
		return nil, err
	}
	return sqlResult{cursor: cur}, nil
}

func (c *sqlConn) QueryContext(ctx context.Context, query string, args []gosqldriver.NamedValue) (gosqldriver.Rows, error) {
	cur := c.conn.Cursor()
	if err := cur.Execute(ctx, query, fromNamedValues(args)...); err != nil {
		return nil, err
	}
	return &sqlRows{cursor: cur}, nil
}

var (
	_ gosqldriver.Conn           = &sqlConn{}
	_ gosqldriver.ExecerContext  = &sqlConn{}
	_ gosqldriver.QueryerContext = &sqlConn{}
)

func fromNamedValues(args []gosqldriver.NamedValue) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a.Value
	}
	return out
}

// sqlStmt implements driver.Stmt for the Prepare path. Statements are
// not server-side prepared; the SQL travels with each execution.
type sqlStmt struct {
	conn  *sqlConn
	query string
}

func (s *sqlStmt) Close() error { return nil }

// NumInput returns -1: placeholder counting happens at bind time.
func (s *sqlStmt) NumInput() int { return -1 }

func (s *sqlStmt) Exec(args []gosqldriver.Value) (gosqldriver.Result, error) {
	return s.conn.ExecContext(context.Background(), s.query, toNamedValues(args))
}

func (s *sqlStmt) Query(args []gosqldriver.Value) (gosqldriver.Rows, error) {
	return s.conn.QueryContext(context.Background(), s.query, toNamedValues(args))
}

var _ gosqldriver.Stmt = &sqlStmt{}

func toNamedValues(args []gosqldriver.Value) []gosqldriver.NamedValue {
	out := make([]gosqldriver.NamedValue, len(args))
	for i, v := range args {
		out[i] = gosqldriver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return out
}

// sqlResult implements driver.Result over an executed cursor.
type sqlResult struct {
	cursor *Cursor
}

func (r sqlResult) LastInsertId() (int64, error) {
	id := r.cursor.LastInsertID()
	if id == "" {
		return 0, fmt.Errorf("statement created no document")
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("document id %q is not numeric", id)
	}
	return n, nil
}

func (r sqlResult) RowsAffected() (int64, error) {
	return int64(r.cursor.RowCount()), nil
}

var _ gosqldriver.Result = sqlResult{}

// sqlRows implements driver.Rows over an executed cursor's buffer.
type sqlRows struct {
	cursor *Cursor
}

func (r *sqlRows) Columns() []string {
	desc := r.cursor.Description()
	out := make([]string, len(desc))
	for i, c := range desc {
		out[i] = c.Name
	}
	return out
}

func (r *sqlRows) Close() error {
	return r.cursor.Close()
}

func (r *sqlRows) Next(dest []gosqldriver.Value) error {
	row, err := r.cursor.FetchOne()
	if err == ErrNoMoreRows {
		return io.EOF
	}
	if err != nil {
		return err
	}
	for i, v := range row {
		dv, err := toDriverValue(v)
		if err != nil {
			return err
		}
		dest[i] = dv
	}
	return nil
}

var _ gosqldriver.Rows = &sqlRows{}

// toDriverValue maps cursor values onto database/sql's value types.
func toDriverValue(v any) (gosqldriver.Value, error) {
	switch t := v.(type) {
	case nil, int64, float64, bool, string, time.Time:
		return t, nil
	case []any, map[string]any:
		// Nested documents have no SQL scalar form; the adapter does
		// not surface them.
		return nil, fmt.Errorf("value %T has no SQL representation", v)
	default:
		return nil, fmt.Errorf("value %T has no SQL representation", v)
	}
}
