// Package yamlsrc implements a YAML token source so YAML input flows
// through the same decoding and enforcement pipeline as JSON.
package yamlsrc

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	eng "github.com/reval-go/reval/internal/engine"
)

// NewBytes parses the first YAML document in b and returns a token source
// walking it. Parse failures surface from the first NextToken call.
func NewBytes(b []byte) eng.TokenSource {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return &source{err: err}
	}
	root := &doc
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return &source{err: io.ErrUnexpectedEOF}
		}
		root = doc.Content[0]
	}
	s := &source{}
	s.emitNode(root)
	return s
}

type source struct {
	err    error
	tokens []eng.Token
	pos    int
}

func (s *source) Location() int64 { return -1 }

func (s *source) NextToken() (eng.Token, error) {
	if s.err != nil {
		return eng.Token{}, s.err
	}
	if s.pos >= len(s.tokens) {
		return eng.Token{}, io.EOF
	}
	t := s.tokens[s.pos]
	s.pos++
	return t, nil
}

func (s *source) emit(t eng.Token) { s.tokens = append(s.tokens, t) }

func (s *source) emitNode(n *yaml.Node) {
	switch n.Kind {
	case yaml.MappingNode:
		s.emit(eng.Token{Kind: eng.KindBeginObject, Offset: -1})
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			s.emit(eng.Token{Kind: eng.KindKey, String: k.Value, Offset: -1})
			s.emitNode(n.Content[i+1])
		}
		s.emit(eng.Token{Kind: eng.KindEndObject, Offset: -1})
	case yaml.SequenceNode:
		s.emit(eng.Token{Kind: eng.KindBeginArray, Offset: -1})
		for _, c := range n.Content {
			s.emitNode(c)
		}
		s.emit(eng.Token{Kind: eng.KindEndArray, Offset: -1})
	case yaml.AliasNode:
		if n.Alias != nil {
			s.emitNode(n.Alias)
			return
		}
		s.emit(eng.Token{Kind: eng.KindNull, Offset: -1})
	case yaml.ScalarNode:
		s.emitScalar(n)
	default:
		s.err = fmt.Errorf("yamlsrc: unsupported node kind %d", n.Kind)
	}
}

func (s *source) emitScalar(n *yaml.Node) {
	switch n.Tag {
	case "!!null":
		s.emit(eng.Token{Kind: eng.KindNull, Offset: -1})
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			s.err = err
			return
		}
		s.emit(eng.Token{Kind: eng.KindBool, Bool: b, Offset: -1})
	case "!!int", "!!float":
		s.emit(eng.Token{Kind: eng.KindNumber, Number: n.Value, Offset: -1})
	default:
		s.emit(eng.Token{Kind: eng.KindString, String: n.Value, Offset: -1})
	}
}
