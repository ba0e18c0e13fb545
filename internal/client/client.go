// Package client speaks the database's HTTP query protocol: one POST
// per query, the FQL expression as the JSON body, the database secret
// as HTTP basic auth.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tipresias/tipresias-sub001/internal/fql"
)

// DefaultPort is the query endpoint's conventional port.
const DefaultPort = 8443

// RemoteError is a query rejection reported by the database.
type RemoteError struct {
	// Code is the machine-readable error code, e.g. "instance not
	// found" or "validation failed".
	Code string

	// Description is the human-readable message.
	Description string

	// Position locates the failing subexpression in the query, when
	// the database reports one.
	Position []string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// IsIndexNotFound reports whether err is the database rejecting a
// reference to a missing index. Reflection treats this as an empty
// result rather than a failure.
func IsIndexNotFound(err error) bool {
	var re *RemoteError
	if !errors.As(err, &re) {
		return false
	}
	return re.Code == "invalid ref" || re.Code == "instance not found"
}

// Config carries the connection parameters.
type Config struct {
	// Scheme is http or https.
	Scheme string

	// Host is the database host.
	Host string

	// Port is the query endpoint port. Zero means DefaultPort.
	Port int

	// Secret authenticates the connection and scopes it to one
	// database.
	Secret string

	// Timeout bounds each query round trip. Zero means no client-side
	// bound beyond the context's.
	Timeout time.Duration
}

// Client is a connection to one database. It is safe for concurrent
// use.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	log     *slog.Logger
}

// New builds a client from the config. It does not dial; the first
// query does.
func New(cfg Config) *Client {
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	return &Client{
		baseURL: fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, port),
		secret:  cfg.Secret,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     slog.Default(),
	}
}

// wireResponse is the protocol's response envelope.
type wireResponse struct {
	Resource json.RawMessage `json:"resource"`
	Errors   []wireError     `json:"errors"`
}

type wireError struct {
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Position    []string `json:"position"`
}

// Query executes one FQL expression and returns the decoded resource
// value, with wire envelopes (@ref, @date, @ts) resolved to Go values.
func (c *Client) Query(ctx context.Context, expr fql.Expr) (any, error) {
	body, err := json.Marshal(expr)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.SetBasicAuth(c.secret, "")
	req.Header.Set("Content-Type", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	c.log.Debug("executing query",
		"request_id", requestID,
		"bytes", len(body))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read query response: %w", err)
	}

	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode query response (status %d): %w", resp.StatusCode, err)
	}
	if len(wire.Errors) > 0 {
		we := wire.Errors[0]
		c.log.Debug("query rejected",
			"request_id", requestID,
			"code", we.Code,
			"status", resp.StatusCode)
		return nil, &RemoteError{
			Code:        we.Code,
			Description: we.Description,
			Position:    we.Position,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query failed with status %d", resp.StatusCode)
	}

	value, err := fql.Decode(wire.Resource)
	if err != nil {
		return nil, err
	}
	c.log.Debug("query completed",
		"request_id", requestID,
		"elapsed", time.Since(start))
	return value, nil
}
