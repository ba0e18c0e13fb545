// Package driver is a synchronous database driver that accepts SQL
// and executes it as FQL against a document database over HTTP.
//
// The surface follows the cursor model: Connect yields a Connection,
// a Cursor executes one statement at a time and buffers the full
// result, and FetchOne/FetchMany/FetchAll walk the buffer. A
// database/sql adapter over the same machinery is registered by this
// package under the name "fql".
package driver

import (
	"context"
	"errors"
	"time"

	"github.com/tipresias/tipresias-sub001/internal/client"
)

var (
	// ErrClosed is returned by operations on a closed connection or
	// cursor.
	ErrClosed = errors.New("connection is closed")

	// ErrBeforeExecute is returned when fetching from a cursor that
	// has not executed a query yet.
	ErrBeforeExecute = errors.New("no query has been executed")

	// ErrNoMoreRows is returned by FetchOne once the result buffer is
	// exhausted.
	ErrNoMoreRows = errors.New("no more rows")

	// ErrTransactionsUnsupported is returned for transaction begin
	// attempts. Every statement already executes as one atomic
	// expression, and there is no cross-statement transaction to
	// offer.
	ErrTransactionsUnsupported = errors.New("transactions are not supported")
)

// Config carries the connection parameters.
type Config struct {
	// Host is the database host.
	Host string

	// Port is the query endpoint port. Zero selects the conventional
	// port.
	Port int

	// Secret authenticates and scopes the connection to one database.
	Secret string

	// Scheme is http or https. Empty means https.
	Scheme string

	// Timeout bounds each statement's round trip. Zero leaves the
	// bound to the caller's context.
	Timeout time.Duration
}

// Connection is a logical connection to one database.
//
// The underlying transport is stateless HTTP, so a Connection is safe
// for concurrent use; each Cursor is not.
type Connection struct {
	client *client.Client
	closed bool
}

// Connect builds a connection. No traffic happens until the first
// Execute.
func Connect(cfg Config) *Connection {
	return &Connection{
		client: client.New(client.Config{
			Scheme:  cfg.Scheme,
			Host:    cfg.Host,
			Port:    cfg.Port,
			Secret:  cfg.Secret,
			Timeout: cfg.Timeout,
		}),
	}
}

// Cursor opens a new cursor over the connection.
func (c *Connection) Cursor() *Cursor {
	return &Cursor{conn: c, Arraysize: 1}
}

// Execute opens a cursor, runs one statement on it and returns the
// cursor for fetching.
func (c *Connection) Execute(ctx context.Context, sql string, params ...any) (*Cursor, error) {
	cur := c.Cursor()
	if err := cur.Execute(ctx, sql, params...); err != nil {
		return nil, err
	}
	return cur, nil
}

// Close marks the connection closed. Subsequent operations on it and
// its cursors fail with ErrClosed.
func (c *Connection) Close() error {
	c.closed = true
	return nil
}
