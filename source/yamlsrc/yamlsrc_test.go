package yamlsrc_test

import (
	"testing"

	eng "github.com/reval-go/reval/internal/engine"
	"github.com/reval-go/reval/source/yamlsrc"
)

func TestYAML_DecodesThroughEngine(t *testing.T) {
	doc := []byte("name: widget\ntags:\n  - a\n  - b\nenabled: true\ncount: 7\nnothing: null\n")
	tree, err := eng.Decode(yamlsrc.NewBytes(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	om := tree.(*eng.OrderedMap)

	keys := om.Keys()
	want := []string{"name", "tags", "enabled", "count", "nothing"}
	if len(keys) != len(want) {
		t.Fatalf("keys: %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("key order: want %v, got %v", want, keys)
		}
	}

	if v, _ := om.Get("enabled"); v != true {
		t.Fatalf("bool: %v", v)
	}
	if v, _ := om.Get("nothing"); v != nil {
		t.Fatalf("null: %v", v)
	}
	tags, _ := om.Get("tags")
	if arr := tags.([]any); len(arr) != 2 || arr[0] != "a" {
		t.Fatalf("sequence: %v", tags)
	}
}

// Anchors and aliases expand to the referenced node's tokens.
func TestYAML_AliasesExpand(t *testing.T) {
	doc := []byte("base: &b 10\ncopy: *b\n")
	tree, err := eng.Decode(yamlsrc.NewBytes(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	om := tree.(*eng.OrderedMap)
	b, _ := om.Get("base")
	c, _ := om.Get("copy")
	if b != c {
		t.Fatalf("alias should expand to the same value: %v vs %v", b, c)
	}
}

func TestYAML_MalformedSurfacesOnFirstToken(t *testing.T) {
	src := yamlsrc.NewBytes([]byte("a: [1, 2"))
	if _, err := src.NextToken(); err == nil {
		t.Fatalf("expected a parse error")
	}
}
