// Package engine holds the token-level plumbing shared by input drivers:
// the token model, streaming enforcement (duplicate keys, nesting depth,
// byte budget), and decoding a token stream into an any-tree.
package engine

import (
	"encoding/json"
	"io"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string // stored as text; the caller decides interpretation
	Bool   bool
	Offset int64
}

// TokenSource is the minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64 // byte offset; -1 if unknown
}

// Decode builds an any-tree from the token source. Numbers decode as
// json.Number so the caller keeps full precision until the schema decides.
func Decode(src TokenSource) (any, error) {
	tok, err := src.NextToken()
	if err != nil {
		return nil, err
	}
	return decodeValue(src, tok)
}

func decodeValue(src TokenSource, tok Token) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return decodeObject(src)
	case KindBeginArray:
		return decodeArray(src)
	case KindString:
		return tok.String, nil
	case KindNumber:
		return json.Number(tok.Number), nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, io.ErrUnexpectedEOF
	}
}

// decodeObject returns an *OrderedMap: validation needs insertion order of
// keys for deterministic extra-field reporting.
func decodeObject(src TokenSource) (any, error) {
	om := &OrderedMap{}
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return om, nil
		}
		if tok.Kind != KindKey {
			return nil, io.ErrUnexpectedEOF
		}
		vt, err := src.NextToken()
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(src, vt)
		if err != nil {
			return nil, err
		}
		om.Set(tok.String, v)
	}
}

func decodeArray(src TokenSource) (any, error) {
	arr := []any{}
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := decodeValue(src, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

// OrderedMap is a string-keyed map preserving insertion order. Later
// duplicates overwrite in place (the enforcement layer decides whether they
// were legal at all).
type OrderedMap struct {
	keys []string
	vals map[string]any
}

// Set inserts or overwrites a key.
func (m *OrderedMap) Set(k string, v any) {
	if m.vals == nil {
		m.vals = map[string]any{}
	}
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

// Get fetches a key.
func (m *OrderedMap) Get(k string) (any, bool) {
	v, ok := m.vals[k]
	return v, ok
}

// Keys returns keys in insertion order.
func (m *OrderedMap) Keys() []string { return m.keys }

// Len reports the entry count.
func (m *OrderedMap) Len() int { return len(m.keys) }
