package reval_test

import (
	"errors"
	"testing"

	reval "github.com/reval-go/reval"
)

func TestCompile_UnresolvedRef(t *testing.T) {
	_, err := reval.Compile(&reval.RefSchema{Name: "missing"}, nil)
	if !errors.Is(err, reval.ErrUnresolvedRef) {
		t.Fatalf("expected ErrUnresolvedRef, got: %v", err)
	}
}

func TestCompile_DirectCycleRejected(t *testing.T) {
	list := &reval.ListSchema{}
	list.Item = list
	_, err := reval.Compile(list, nil)
	if !errors.Is(err, reval.ErrSchemaCycle) {
		t.Fatalf("expected ErrSchemaCycle, got: %v", err)
	}
}

func TestCompile_CycleThroughRefAllowed(t *testing.T) {
	node := &reval.RecordSchema{
		Name: "node",
		Fields: []reval.Field{
			{Name: "name", Schema: &reval.StringSchema{}, Required: true},
			{Name: "child", Schema: &reval.NullableSchema{Inner: &reval.RefSchema{Name: "node"}}},
		},
	}
	if _, err := reval.Compile(&reval.RefSchema{Name: "node"}, map[string]reval.Schema{"node": node}); err != nil {
		t.Fatalf("recursive graph via ref should compile: %v", err)
	}
}

func TestCompile_BadPattern(t *testing.T) {
	_, err := reval.Compile(&reval.StringSchema{Pattern: "("}, nil)
	if !errors.Is(err, reval.ErrBadSchema) {
		t.Fatalf("expected ErrBadSchema for bad pattern, got: %v", err)
	}
}

func TestCompile_ConstraintConflicts(t *testing.T) {
	cases := map[string]reval.Schema{
		"both int bounds": &reval.IntSchema{Ge: reval.Ptr(int64(1)), Gt: reval.Ptr(int64(0))},
		"neg multiple_of": &reval.IntSchema{MultipleOf: reval.Ptr(int64(-2))},
		"min > max":       &reval.StringSchema{MinLen: reval.Ptr(5), MaxLen: reval.Ptr(2)},
		"lower+upper":     &reval.StringSchema{ToLower: true, ToUpper: true},
		"empty literal":   &reval.LiteralSchema{},
		"empty union":     &reval.UnionSchema{},
		"no discriminator": &reval.TaggedUnionSchema{
			Mapping: map[string]reval.Schema{"a": &reval.AnySchema{}},
		},
		"dup field": &reval.RecordSchema{Fields: []reval.Field{
			{Name: "a", Schema: &reval.AnySchema{}},
			{Name: "a", Schema: &reval.AnySchema{}},
		}},
		"from_attributes no glue": &reval.RecordSchema{FromAttributes: true},
		"two default sources": &reval.DefaultSchema{
			Inner:   &reval.IntSchema{},
			Default: 1,
			Factory: func() any { return 2 },
		},
		"plain without fn": &reval.FunctionSchema{Mode: reval.FuncPlain},
	}
	for name, s := range cases {
		if _, err := reval.Compile(s, nil); !errors.Is(err, reval.ErrBadSchema) {
			t.Errorf("%s: expected ErrBadSchema, got: %v", name, err)
		}
	}
}

func TestCompile_UnionLabelMismatch(t *testing.T) {
	u := &reval.UnionSchema{
		Branches: []reval.Schema{&reval.IntSchema{}, &reval.StringSchema{}},
		Labels:   []string{"only-one"},
	}
	if _, err := reval.Compile(u, nil); !errors.Is(err, reval.ErrBadSchema) {
		t.Fatalf("expected ErrBadSchema, got: %v", err)
	}
}

func TestMustCompile_PanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	reval.MustCompile(&reval.RefSchema{Name: "nope"}, nil)
}
