// Package fql models FQL expressions and their JSON wire form.
//
// An expression tree is built by the constructors in functions.go and
// serialized with MarshalJSON. The wire form follows the database's
// query protocol: every function is a JSON object keyed by its
// function name, literal objects are wrapped in {"object": ...}, and
// dates and timestamps travel in @date/@time envelopes.
package fql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Expr is one node of an FQL expression tree.
//
// This is a sealed interface - only types in this package implement
// it. All nodes marshal deterministically, so equal trees always
// produce byte-identical wire forms.
type Expr interface {
	json.Marshaler
	exprNode() // Marker method - seals interface to this package
}

// fn is a function call: a JSON object whose keys appear in call
// order. The first key names the function.
type fn struct {
	keys []string
	vals []Expr
}

func (fn) exprNode() {}

func (f fn) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(f.vals[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// call builds a function node from alternating key/value pairs.
func call(pairs ...any) fn {
	if len(pairs)%2 != 0 {
		panic("fql: call requires key/value pairs")
	}
	f := fn{}
	for i := 0; i < len(pairs); i += 2 {
		f.keys = append(f.keys, pairs[i].(string))
		f.vals = append(f.vals, wrap(pairs[i+1]))
	}
	return f
}

// literal is a scalar wire value: string, number, boolean or null.
type literal struct {
	v any
}

func (literal) exprNode() {}

func (l literal) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.v)
}

// arr is a wire array.
type arr []Expr

func (arr) exprNode() {}

func (a arr) MarshalJSON() ([]byte, error) {
	return json.Marshal([]Expr(a))
}

// obj is a literal object. On the wire it is wrapped in
// {"object": ...} so the database does not read its keys as function
// names. Keys marshal sorted.
type obj map[string]Expr

func (obj) exprNode() {}

func (o obj) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(`{"object":{`)
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// envelope is a special wire value such as {"@date": "2020-01-01"}.
type envelope struct {
	key   string
	value string
}

func (envelope) exprNode() {}

func (e envelope) MarshalJSON() ([]byte, error) {
	vb, err := json.Marshal(e.value)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("{%q:%s}", e.key, vb)), nil
}

// wrap converts a Go value to its Expr. Expr values pass through;
// maps and slices convert recursively. Unsupported types panic, which
// surfaces programming errors at build time rather than as malformed
// wire payloads.
func wrap(v any) Expr {
	switch t := v.(type) {
	case Expr:
		return t
	case nil:
		return literal{nil}
	case string:
		return literal{t}
	case bool:
		return literal{t}
	case int:
		return literal{t}
	case int64:
		return literal{t}
	case float64:
		return literal{t}
	case time.Time:
		return Time(t)
	case []any:
		out := make(arr, len(t))
		for i, e := range t {
			out[i] = wrap(e)
		}
		return out
	case []Expr:
		return arr(t)
	case []string:
		out := make(arr, len(t))
		for i, s := range t {
			out[i] = literal{s}
		}
		return out
	case map[string]any:
		out := make(obj, len(t))
		for k, e := range t {
			out[k] = wrap(e)
		}
		return out
	default:
		panic(fmt.Sprintf("fql: cannot wrap %T", v))
	}
}

// Obj builds a literal object expression from Go values.
func Obj(fields map[string]any) Expr {
	out := make(obj, len(fields))
	for k, v := range fields {
		out[k] = wrap(v)
	}
	return out
}

// Arr builds an array expression from Go values.
func Arr(items ...any) Expr {
	out := make(arr, len(items))
	for i, v := range items {
		out[i] = wrap(v)
	}
	return out
}

// Date builds a wire date from a calendar day.
func Date(t time.Time) Expr {
	return envelope{key: "@date", value: t.Format("2006-01-02")}
}

// Time builds a wire timestamp with nanosecond precision.
func Time(t time.Time) Expr {
	return envelope{key: "@ts", value: t.UTC().Format(time.RFC3339Nano)}
}
