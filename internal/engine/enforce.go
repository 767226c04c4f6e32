package engine

import (
	"strconv"
	"strings"
)

// Enforcement wrapper for TokenSource applying duplicate-key handling, max
// depth checks, and max byte truncation in a streaming fashion, before any
// schema sees the data.

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// SimpleIssue is the minimal issue representation crossing the internal
// boundary; the root package maps it onto its own error model.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
	Offset  int64
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	MaxBytes    int64
	// WarnSink receives non-fatal findings (duplicate keys under DupWarn).
	WarnSink func(SimpleIssue)
}

// WrapWithEnforcement returns a TokenSource enforcing the given options.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	return &enforcingSource{inner: inner, opt: opt}
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	keys         map[string]struct{}
	expectingKey bool
	path         string
	nextIndex    int
	pendingKey   string
}

type enforcingSource struct {
	inner TokenSource
	opt   EnforceOptions
	stack []frame
	depth int
}

func (e *enforcingSource) Location() int64 { return e.inner.Location() }

func (e *enforcingSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	path := e.pathForToken(tok)

	switch tok.Kind {
	case KindBeginObject:
		e.stack = append(e.stack, frame{kind: kindObject, keys: map[string]struct{}{}, expectingKey: true, path: path})
		if err := e.enterContainer(path, tok.Offset); err != nil {
			return Token{}, err
		}
	case KindBeginArray:
		e.stack = append(e.stack, frame{kind: kindArray, path: path})
		if err := e.enterContainer(path, tok.Offset); err != nil {
			return Token{}, err
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
		if e.depth > 0 {
			e.depth--
		}
		e.valueDone()
	case KindKey:
		if err := e.onKey(tok, path); err != nil {
			return Token{}, err
		}
	case KindString, KindNumber, KindBool, KindNull:
		e.valueDone()
	}

	if e.opt.MaxBytes > 0 {
		if off := e.Location(); off >= 0 && off > e.opt.MaxBytes {
			return Token{}, IssueError{SimpleIssue{
				Code: "truncated", Path: normalizePath(path),
				Message: "max bytes exceeded", Offset: off,
			}}
		}
	}
	return tok, nil
}

func (e *enforcingSource) enterContainer(path string, off int64) error {
	e.depth++
	if e.opt.MaxDepth > 0 && e.depth > e.opt.MaxDepth {
		return IssueError{SimpleIssue{
			Code: "max_depth", Path: normalizePath(path),
			Message: "max depth exceeded", Offset: off,
		}}
	}
	return nil
}

func (e *enforcingSource) onKey(tok Token, path string) error {
	if n := len(e.stack); n > 0 {
		top := &e.stack[n-1]
		if top.kind == kindObject && top.expectingKey {
			if e.opt.OnDuplicate != DupIgnore {
				if _, dup := top.keys[tok.String]; dup {
					si := SimpleIssue{
						Code: "duplicate_key", Path: normalizePath(path),
						Message: "key '" + tok.String + "' duplicated", Offset: tok.Offset,
					}
					if e.opt.OnDuplicate == DupError {
						return IssueError{si}
					}
					if e.opt.WarnSink != nil {
						e.opt.WarnSink(si)
					}
				}
			}
			top.keys[tok.String] = struct{}{}
			top.expectingKey = false
			top.pendingKey = tok.String
		}
	}
	return nil
}

// valueDone restores key-expectancy after a complete value inside an object.
func (e *enforcingSource) valueDone() {
	if n := len(e.stack); n > 0 {
		top := &e.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
			top.pendingKey = ""
		}
	}
}

func (e *enforcingSource) pathForToken(tok Token) string {
	if len(e.stack) == 0 {
		if tok.Kind == KindKey {
			return joinPointer("", tok.String)
		}
		return ""
	}
	top := &e.stack[len(e.stack)-1]
	switch tok.Kind {
	case KindKey:
		return joinPointer(top.path, tok.String)
	case KindBeginObject, KindBeginArray, KindString, KindNumber, KindBool, KindNull:
		if top.kind == kindArray {
			p := joinPointer(top.path, strconv.Itoa(top.nextIndex))
			top.nextIndex++
			return p
		}
		if top.pendingKey != "" || !top.expectingKey {
			return joinPointer(top.path, top.pendingKey)
		}
		return top.path
	default:
		return top.path
	}
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinPointer(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}
