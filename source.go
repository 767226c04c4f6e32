package reval

import (
	"io"
	"sync"

	eng "github.com/reval-go/reval/internal/engine"
	"github.com/reval-go/reval/source/gojson"
	"github.com/reval-go/reval/source/yamlsrc"
)

// TokenKind enumerates input token kinds.
type TokenKind int

const (
	TokenBeginObject TokenKind = iota
	TokenEndObject
	TokenBeginArray
	TokenEndArray
	TokenKey
	TokenString
	TokenNumber
	TokenBool
	TokenNull
)

// Token describes a token in the input stream. Offset records the byte
// position when known (-1 otherwise).
type Token struct {
	Kind   TokenKind
	String string // stored for key/string tokens
	Number string // stored as text; the schema decides interpretation
	Bool   bool
	Offset int64
}

// Source abstracts over polymorphic text input sources.
type Source interface {
	NextToken() (Token, error)
	Location() int64 // byte offset; -1 if unknown
}

// JSONDriver converts JSON input into a Source via a pluggable SPI. The
// default implementation is backed by goccy/go-json and may be swapped with
// SetJSONDriver.
type JSONDriver interface {
	NewReader(r io.Reader) Source
	NewBytes(b []byte) Source
	Name() string
}

var (
	jsonDriverMu      sync.RWMutex
	currentJSONDriver JSONDriver = gojsonDriver{}
)

// SetJSONDriver replaces the global JSON driver; nil values are ignored.
func SetJSONDriver(d JSONDriver) {
	if d == nil {
		return
	}
	jsonDriverMu.Lock()
	currentJSONDriver = d
	jsonDriverMu.Unlock()
}

// UseDefaultJSONDriver restores the go-json-backed driver.
func UseDefaultJSONDriver() {
	jsonDriverMu.Lock()
	currentJSONDriver = gojsonDriver{}
	jsonDriverMu.Unlock()
}

func getJSONDriver() JSONDriver {
	jsonDriverMu.RLock()
	defer jsonDriverMu.RUnlock()
	return currentJSONDriver
}

// JSONBytes returns a Source over a JSON byte slice using the current driver.
func JSONBytes(b []byte) Source { return getJSONDriver().NewBytes(b) }

// JSONReader returns a Source over a JSON reader using the current driver.
func JSONReader(r io.Reader) Source { return getJSONDriver().NewReader(r) }

// YAMLBytes returns a Source over a YAML document; YAML flows through the
// same token pipeline and enforcement as JSON.
func YAMLBytes(b []byte) Source {
	return SourceFromEngine(yamlsrc.NewBytes(b))
}

type gojsonDriver struct{}

func (gojsonDriver) NewReader(r io.Reader) Source { return SourceFromEngine(gojson.NewReader(r)) }
func (gojsonDriver) NewBytes(b []byte) Source     { return SourceFromEngine(gojson.NewBytes(b)) }
func (gojsonDriver) Name() string                 { return "go-json" }

// ---- engine adapters ----

type engineSourceAdapter struct{ inner eng.TokenSource }

// SourceFromEngine adapts an engine-level token source (as produced by the
// packages under source/) into a Source.
func SourceFromEngine(ts eng.TokenSource) Source { return &engineSourceAdapter{inner: ts} }

func (a *engineSourceAdapter) Location() int64 { return a.inner.Location() }

func (a *engineSourceAdapter) NextToken() (Token, error) {
	t, err := a.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	return Token{
		Kind:   TokenKind(t.Kind),
		String: t.String,
		Number: t.Number,
		Bool:   t.Bool,
		Offset: t.Offset,
	}, nil
}

// engineTokenSource exposes the engine view of a public Source; the fast
// path unwraps adapter-backed sources.
func engineTokenSource(s Source) eng.TokenSource {
	if ea, ok := s.(*engineSourceAdapter); ok {
		return ea.inner
	}
	return &tokenSourceAdapter{inner: s}
}

type tokenSourceAdapter struct{ inner Source }

func (a *tokenSourceAdapter) Location() int64 { return a.inner.Location() }

func (a *tokenSourceAdapter) NextToken() (eng.Token, error) {
	t, err := a.inner.NextToken()
	if err != nil {
		return eng.Token{}, err
	}
	return eng.Token{
		Kind:   eng.Kind(t.Kind),
		String: t.String,
		Number: t.Number,
		Bool:   t.Bool,
		Offset: t.Offset,
	}, nil
}
