package fql

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshal(t *testing.T, e Expr) string {
	t.Helper()
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return string(b)
}

func TestMarshal_MatchIndex(t *testing.T) {
	e := Match(Index("users_by_name_term"), "Bob")
	assert.Equal(t,
		`{"match":{"index":"users_by_name_term"},"terms":"Bob"}`,
		marshal(t, e))
}

func TestMarshal_MatchWithoutTerms(t *testing.T) {
	e := Match(Index("users_all"))
	assert.Equal(t, `{"match":{"index":"users_all"}}`, marshal(t, e))
}

func TestMarshal_SingletonRef(t *testing.T) {
	e := Singleton(Ref(Collection("users"), "101"))
	assert.Equal(t,
		`{"singleton":{"ref":{"collection":"users"},"id":"101"}}`,
		marshal(t, e))
}

func TestMarshal_PaginateMapGet(t *testing.T) {
	e := Map(
		Paginate(Match(Index("users_all")), 100),
		Lambda("ref", Get(Var("ref"))),
	)
	assert.Equal(t,
		`{"map":{"lambda":"ref","expr":{"get":{"var":"ref"}}},`+
			`"collection":{"paginate":{"match":{"index":"users_all"}},"size":100}}`,
		marshal(t, e))
}

func TestMarshal_LambdaTupleBindings(t *testing.T) {
	e := Lambda([]string{"value", "ref"}, Var("ref"))
	assert.Equal(t,
		`{"lambda":["value","ref"],"expr":{"var":"ref"}}`,
		marshal(t, e))
}

func TestMarshal_LetBinding(t *testing.T) {
	e := Bind("doc", Get(Var("ref")),
		Select([]any{"data", "name"}, Var("doc"), Null()))
	assert.Equal(t,
		`{"let":[{"doc":{"get":{"var":"ref"}}}],`+
			`"in":{"select":["data","name"],"from":{"var":"doc"},"default":null}}`,
		marshal(t, e))
}

func TestMarshal_ObjectWrapping(t *testing.T) {
	e := Create(Collection("users"), Obj(map[string]any{
		"data": Obj(map[string]any{"name": "Bob", "age": int64(30)}),
	}))
	assert.Equal(t,
		`{"create":{"collection":"users"},`+
			`"params":{"object":{"data":{"object":{"age":30,"name":"Bob"}}}}}`,
		marshal(t, e))
}

func TestMarshal_IntersectionOfSets(t *testing.T) {
	e := Intersection(
		Match(Index("users_by_name_term"), "Bob"),
		Match(Index("users_by_age_term"), int64(30)),
	)
	assert.Equal(t,
		`{"intersection":[{"match":{"index":"users_by_name_term"},"terms":"Bob"},`+
			`{"match":{"index":"users_by_age_term"},"terms":30}]}`,
		marshal(t, e))
}

func TestMarshal_RangeOverTuples(t *testing.T) {
	e := Range(Match(Index("users_by_age_value")), Arr(int64(18)), Arr())
	assert.Equal(t,
		`{"range":{"match":{"index":"users_by_age_value"}},"from":[18],"to":[]}`,
		marshal(t, e))
}

func TestMarshal_DateEnvelope(t *testing.T) {
	day := time.Date(2020, 6, 13, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, `{"@date":"2020-06-13"}`, marshal(t, Date(day)))
}

func TestMarshal_Deterministic(t *testing.T) {
	build := func() Expr {
		return Obj(map[string]any{"b": int64(2), "a": int64(1), "c": int64(3)})
	}
	first := marshal(t, build())
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, marshal(t, build()))
	}
}

func TestDecode_PageOfRefs(t *testing.T) {
	raw := []byte(`{"data":[
		{"@ref":{"id":"101","collection":{"@ref":{"id":"users","collection":{"@ref":{"id":"collections"}}}}}},
		{"@ref":{"id":"102","collection":{"@ref":{"id":"users","collection":{"@ref":{"id":"collections"}}}}}}
	]}`)
	v, err := Decode(raw)
	require.NoError(t, err)

	data := PageData(v)
	require.Len(t, data, 2)
	assert.Equal(t, RefV{ID: "101", Collection: "users"}, data[0])
	assert.Equal(t, RefV{ID: "102", Collection: "users"}, data[1])
}

func TestDecode_Document(t *testing.T) {
	good := []byte(`{
		"ref":{"@ref":{"id":"101","collection":{"@ref":{"id":"users","collection":{"@ref":{"id":"collections"}}}}}},
		"ts":1592215521000000,
		"data":{"name":"Bob","age":30,"ratio":0.5,"since":{"@date":"2020-06-13"}}
	}`)
	v, err := Decode(good)
	require.NoError(t, err)

	doc, err := DocumentFromValue(v)
	require.NoError(t, err)
	assert.Equal(t, RefV{ID: "101", Collection: "users"}, doc.Ref)
	assert.Equal(t, int64(1592215521000000), doc.TS)
	assert.Equal(t, "Bob", doc.Data["name"])
	assert.Equal(t, int64(30), doc.Data["age"])
	assert.Equal(t, 0.5, doc.Data["ratio"])
	assert.Equal(t, time.Date(2020, 6, 13, 0, 0, 0, 0, time.UTC), doc.Data["since"])
}

func TestDecode_ScalarCount(t *testing.T) {
	v, err := Decode([]byte(`42`))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
	assert.Equal(t, []any{int64(42)}, PageData(v))
}

func TestDecode_TimestampEnvelope(t *testing.T) {
	v, err := Decode([]byte(`{"@ts":"2020-06-13T12:00:05.000000Z"}`))
	require.NoError(t, err)
	ts, ok := v.(time.Time)
	require.True(t, ok)
	assert.True(t, ts.Equal(time.Date(2020, 6, 13, 12, 0, 5, 0, time.UTC)))
}
