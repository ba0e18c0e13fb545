package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tipresias/tipresias-sub001/internal/fql"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return New(Config{
		Scheme: "http",
		Host:   u.Hostname(),
		Port:   port,
		Secret: "secret",
	})
}

func TestQuery_SendsExpressionWithAuth(t *testing.T) {
	var gotBody []byte
	var gotAuth, gotRequestID string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		gotAuth = user
		gotRequestID = r.Header.Get("X-Request-ID")
		var err error
		gotBody, err = json.Marshal(json.RawMessage(mustRead(t, r)))
		require.NoError(t, err)
		w.Write([]byte(`{"resource":42}`))
	})

	v, err := c.Query(context.Background(), fql.Count(fql.Match(fql.Index("users_all"))))
	require.NoError(t, err)

	assert.Equal(t, int64(42), v)
	assert.Equal(t, "secret", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.JSONEq(t, `{"count":{"match":{"index":"users_all"}}}`, string(gotBody))
}

func TestQuery_DecodesPageOfDocuments(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resource":{"data":[
			{"@ref":{"id":"101","collection":{"@ref":{"id":"users","collection":{"@ref":{"id":"collections"}}}}}}
		]}}`))
	})

	v, err := c.Query(context.Background(), fql.Match(fql.Index("users_all")))
	require.NoError(t, err)

	data := fql.PageData(v)
	require.Len(t, data, 1)
	assert.Equal(t, fql.RefV{ID: "101", Collection: "users"}, data[0])
}

func TestQuery_RemoteError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"code":"invalid ref","description":"Ref refers to undefined index 'users_by_name_term'","position":["match"]}]}`))
	})

	_, err := c.Query(context.Background(), fql.Match(fql.Index("users_by_name_term"), "Bob"))
	require.Error(t, err)

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "invalid ref", re.Code)
	assert.Equal(t, []string{"match"}, re.Position)
	assert.True(t, IsIndexNotFound(err))
}

func TestQuery_NonErrorFailureStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{}`))
	})

	_, err := c.Query(context.Background(), fql.Match(fql.Index("users_all")))
	require.Error(t, err)
	assert.False(t, IsIndexNotFound(err))
}

func TestIsIndexNotFound_OtherCodes(t *testing.T) {
	assert.False(t, IsIndexNotFound(&RemoteError{Code: "validation failed"}))
	assert.True(t, IsIndexNotFound(&RemoteError{Code: "instance not found"}))
	assert.False(t, IsIndexNotFound(context.Canceled))
}

func mustRead(t *testing.T, r *http.Request) []byte {
	t.Helper()
	defer r.Body.Close()
	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
	return raw
}
