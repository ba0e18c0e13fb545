package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// schemaHandler answers reflection queries from canned metadata,
// routing by the index each query matches.
func schemaHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		query := string(body)
		switch {
		case strings.Contains(query, "information_schema_columns"):
			w.Write([]byte(`{"resource":{"data":[
				["name","VARCHAR",false,null],
				["age","INTEGER",true,30]
			]}}`))
		case strings.Contains(query, "information_schema_indexes"):
			w.Write([]byte(`{"resource":{"data":[
				["users_by_name_term","name",true,false,null]
			]}}`))
		default:
			w.Write([]byte(`{"resource":{"data":[["users"]]}}`))
		}
	}
}

func TestReflectListsTables(t *testing.T) {
	db := newFakeDB(t, respondWith(`{"resource":{"data":[["users"],["accounts"]]}}`))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReflectCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--url", db.dsn(t)})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Equal(t, "users\naccounts\n", buf.String())
}

func TestReflectDescribesTable(t *testing.T) {
	db := newFakeDB(t, schemaHandler(t))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReflectCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"users", "--url", db.dsn(t)})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Table: users")
	assert.Contains(t, output, "VARCHAR")
	assert.Contains(t, output, "Primary key: id")
	assert.Contains(t, output, "unique index: users_by_name_term (name)")
}

func TestReflectDescribesTableJSON(t *testing.T) {
	db := newFakeDB(t, schemaHandler(t))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewReflectCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"users", "--url", db.dsn(t)})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	schema, ok := data["schema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "users", schema["name"])
	assert.Equal(t, []any{"id"}, schema["primary_key"])
}

func TestReflectMissingTable(t *testing.T) {
	db := newFakeDB(t, respondWith(`{"resource":{"data":[]}}`))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReflectCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"ghosts", "--url", db.dsn(t)})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), `table "ghosts" does not exist`)
}

func TestReflectEmptyDatabase(t *testing.T) {
	db := newFakeDB(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"code":"invalid ref","description":"Ref refers to undefined index"}]}`))
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReflectCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--url", db.dsn(t)})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Equal(t, "(no tables)\n", buf.String())
}
