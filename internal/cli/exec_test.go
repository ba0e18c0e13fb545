package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB serves canned query responses and records the wire queries
// it receives.
type fakeDB struct {
	server  *httptest.Server
	handler http.HandlerFunc
	queries []string
}

func newFakeDB(t *testing.T, handler http.HandlerFunc) *fakeDB {
	t.Helper()
	f := &fakeDB{handler: handler}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		f.queries = append(f.queries, string(body))
		r.Body = io.NopCloser(bytes.NewReader(body))
		f.handler(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func respondWith(response string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(response))
	}
}

func (f *fakeDB) dsn(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(f.server.URL)
	require.NoError(t, err)
	return "http://secret@" + u.Host
}

func TestExecSelectRendersTable(t *testing.T) {
	db := newFakeDB(t, respondWith(`{"resource":{"data":[["Bob",30],["Alice",25]]}}`))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewExecCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"SELECT users.name, users.age FROM users", "--url", db.dsn(t)})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "NAME") // go-pretty upper-cases headers
	assert.Contains(t, output, "Bob")
	assert.Contains(t, output, "Alice")
	assert.Contains(t, output, "(2 rows)")
}

func TestExecInsertReportsID(t *testing.T) {
	db := newFakeDB(t, respondWith(`{"resource":{
		"ref":{"@ref":{"id":"267","collection":{"@ref":{"id":"users","collection":{"@ref":{"id":"collections"}}}}}},
		"ts":1592215521000000,
		"data":{"name":"Bob"}
	}}`))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewExecCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"INSERT INTO users (name) VALUES ('Bob')", "--url", db.dsn(t)})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Equal(t, "1 row(s) affected, id 267\n", buf.String())
}

func TestExecJSON(t *testing.T) {
	db := newFakeDB(t, respondWith(`{"resource":{"data":[["Bob",30]]}}`))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewExecCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"SELECT users.name, users.age FROM users", "--url", db.dsn(t)})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"name", "age"}, data["columns"])
	assert.Equal(t, float64(1), data["row_count"])
}

func TestExecNoTarget(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewExecCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"DELETE FROM users"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeConfig)
}

func TestExecConfigFile(t *testing.T) {
	db := newFakeDB(t, respondWith(`{"resource":{"data":[["Bob",30]]}}`))

	configPath := filepath.Join(t.TempDir(), "db.yaml")
	require.NoError(t, os.WriteFile(configPath,
		[]byte("url: "+db.dsn(t)+"\ntimeout_seconds: 5\n"), 0o644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Config: configPath}
	cmd := NewExecCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"SELECT users.name, users.age FROM users"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Bob")
	require.Len(t, db.queries, 1)
}

func TestExecRejectedStatementNeverHitsNetwork(t *testing.T) {
	db := newFakeDB(t, respondWith(`{"resource":null}`))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewExecCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"SELECT * FROM users", "--url", db.dsn(t)})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeSQL)
	assert.Empty(t, db.queries)
}

func TestExecRemoteError(t *testing.T) {
	db := newFakeDB(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"code":"instance not unique","description":"document is not unique."}]}`))
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewExecCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"INSERT INTO users (name) VALUES ('Bob')", "--url", db.dsn(t)})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "not unique")
}
