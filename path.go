package reval

import (
	"strconv"
	"strings"
)

// segKind discriminates path segment flavors.
type segKind uint8

const (
	segField segKind = iota
	segIndex
	segKeyMark // the key side of a failed dict entry
)

// Seg is one step of a validation path: a record field / dict key name, a
// sequence index, or the synthetic "[key]" marker distinguishing a failed
// dict key from its value.
type Seg struct {
	kind  segKind
	name  string
	index int
}

// FieldSeg addresses a record field or a dict entry by name.
func FieldSeg(name string) Seg { return Seg{kind: segField, name: name} }

// IndexSeg addresses a sequence element.
func IndexSeg(i int) Seg { return Seg{kind: segIndex, index: i} }

// KeySeg marks that the failure concerns a dict key itself, not its value.
func KeySeg() Seg { return Seg{kind: segKeyMark} }

// Field reports the segment's name and whether it is a field segment.
func (s Seg) Field() (string, bool) { return s.name, s.kind == segField }

// Index reports the segment's index and whether it is an index segment.
func (s Seg) Index() (int, bool) { return s.index, s.kind == segIndex }

// IsKey reports whether the segment is the synthetic key marker.
func (s Seg) IsKey() bool { return s.kind == segKeyMark }

// Path is the ordered location of an issue from the input root.
type Path []Seg

// String renders the path as a JSON Pointer (RFC 6901), with the synthetic
// key marker rendered as "[key]". The root path renders as "/".
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, s := range p {
		switch s.kind {
		case segField:
			b.WriteByte('/')
			b.WriteString(escapePointer(s.name))
		case segIndex:
			b.WriteByte('/')
			b.WriteString(strconv.Itoa(s.index))
		case segKeyMark:
			b.WriteString("[key]")
		}
	}
	return b.String()
}

// clone returns an independent copy so accumulated issues do not alias the
// walker's scratch path.
func (p Path) clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

func escapePointer(s string) string {
	if !strings.ContainsAny(s, "~/") {
		return s
	}
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}
