// Package gojson implements the JSON token source backed by goccy/go-json.
package gojson

import (
	"bytes"
	"io"

	j "github.com/goccy/go-json"

	eng "github.com/reval-go/reval/internal/engine"
)

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

type source struct {
	dec        *j.Decoder
	stack      []frame
	lastOffset int64
}

// NewReader wraps an io.Reader into an engine token source for JSON.
func NewReader(r io.Reader) eng.TokenSource {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &source{dec: dec, lastOffset: -1}
}

// NewBytes wraps a byte slice into an engine token source for JSON.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *source) Location() int64 { return s.lastOffset }

func (s *source) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		if err == io.EOF {
			return eng.Token{}, io.EOF
		}
		return eng.Token{}, err
	}
	s.lastOffset = s.dec.InputOffset()

	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return eng.Token{Kind: eng.KindBeginObject, Offset: s.lastOffset}, nil
		case '}':
			s.pop()
			s.afterValue()
			return eng.Token{Kind: eng.KindEndObject, Offset: s.lastOffset}, nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return eng.Token{Kind: eng.KindBeginArray, Offset: s.lastOffset}, nil
		case ']':
			s.pop()
			s.afterValue()
			return eng.Token{Kind: eng.KindEndArray, Offset: s.lastOffset}, nil
		}
	case string:
		if s.expectingKey() {
			s.top().expectingKey = false
			return eng.Token{Kind: eng.KindKey, String: v, Offset: s.lastOffset}, nil
		}
		s.afterValue()
		return eng.Token{Kind: eng.KindString, String: v, Offset: s.lastOffset}, nil
	case j.Number:
		s.afterValue()
		return eng.Token{Kind: eng.KindNumber, Number: v.String(), Offset: s.lastOffset}, nil
	case bool:
		s.afterValue()
		return eng.Token{Kind: eng.KindBool, Bool: v, Offset: s.lastOffset}, nil
	case nil:
		s.afterValue()
		return eng.Token{Kind: eng.KindNull, Offset: s.lastOffset}, nil
	}
	return eng.Token{}, io.ErrUnexpectedEOF
}

func (s *source) top() *frame {
	if len(s.stack) == 0 {
		return nil
	}
	return &s.stack[len(s.stack)-1]
}

func (s *source) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
}

func (s *source) expectingKey() bool {
	t := s.top()
	return t != nil && t.kind == kindObject && t.expectingKey
}

// afterValue flips the enclosing object back to expecting a key once a
// complete value has been emitted.
func (s *source) afterValue() {
	if t := s.top(); t != nil && t.kind == kindObject {
		t.expectingKey = true
	}
}
