package fql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// RefV is a decoded document reference.
type RefV struct {
	// ID is the document identifier within its collection.
	ID string

	// Collection is the owning collection's name. Empty for the
	// built-in schema collections' own references.
	Collection string
}

// Decode parses a JSON wire value into Go values, with UseNumber so
// integral numbers survive as int64 rather than float64.
func Decode(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode wire value: %w", err)
	}
	return FromWire(v)
}

// FromWire converts a decoded JSON value into its Go representation,
// resolving the protocol's special envelopes: @ref becomes a RefV,
// @date and @ts become time.Time, @obj unwraps to its inner map.
// json.Number converts to int64 when integral, float64 otherwise.
func FromWire(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			for key, inner := range t {
				switch key {
				case "@ref":
					return refFromWire(inner)
				case "@date":
					return timeFromWire(inner, "2006-01-02")
				case "@ts", "@time":
					return timeFromWire(inner, time.RFC3339Nano)
				case "@obj":
					return FromWire(inner)
				}
			}
		}
		out := make(map[string]any, len(t))
		for k, inner := range t {
			conv, err := FromWire(inner)
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			conv, err := FromWire(inner)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("decode number %q: %w", t.String(), err)
		}
		return f, nil
	default:
		return v, nil
	}
}

// refFromWire decodes the nested {"@ref": {"id": ..., "collection":
// {"@ref": ...}}} shape into a flat RefV.
func refFromWire(v any) (RefV, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return RefV{}, fmt.Errorf("malformed @ref value %v", v)
	}
	ref := RefV{}
	if id, ok := m["id"].(string); ok {
		ref.ID = id
	} else {
		return RefV{}, fmt.Errorf("@ref value without id: %v", v)
	}
	if coll, ok := m["collection"]; ok {
		parent, err := FromWire(coll)
		if err != nil {
			return RefV{}, err
		}
		if pr, ok := parent.(RefV); ok {
			ref.Collection = pr.ID
		}
	}
	return ref, nil
}

func timeFromWire(v any, layout string) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("malformed time value %v", v)
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// Document is one decoded database document.
type Document struct {
	Ref  RefV
	TS   int64
	Data map[string]any
}

// DocumentFromValue reads the ref/ts/data shape out of a converted
// wire value.
func DocumentFromValue(v any) (Document, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Document{}, fmt.Errorf("value %v is not a document", v)
	}
	doc := Document{}
	if ref, ok := m["ref"].(RefV); ok {
		doc.Ref = ref
	}
	if ts, ok := m["ts"].(int64); ok {
		doc.TS = ts
	}
	if data, ok := m["data"].(map[string]any); ok {
		doc.Data = data
	}
	return doc, nil
}

// PageData extracts the entries of a page-shaped value. A non-page
// value yields itself as a single entry, so callers can treat every
// query result as a sequence.
func PageData(v any) []any {
	if m, ok := v.(map[string]any); ok {
		if data, ok := m["data"].([]any); ok {
			return data
		}
	}
	return []any{v}
}
