package reval_test

import (
	"context"
	"strings"
	"testing"
	"time"

	reval "github.com/reval-go/reval"
)

func articleSchema() *reval.RecordSchema {
	return &reval.RecordSchema{
		Name: "article",
		Fields: []reval.Field{
			{Name: "id", Schema: &reval.StringSchema{}, Required: true},
			{Name: "title", Schema: &reval.StringSchema{}, Required: true},
			{Name: "views", Schema: &reval.IntSchema{}},
		},
	}
}

// Serialization emits record fields in declaration order, not map order.
func TestSerializeJSON_FieldOrder(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(articleSchema(), nil)

	out, err := c.SerializeJSON(ctx, map[string]any{
		"views": int64(3), "title": "Go", "id": "a1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"id":"a1","title":"Go","views":3}`
	if string(out) != want {
		t.Fatalf("want %s, got %s", want, out)
	}
}

func TestSerializeJSON_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(articleSchema(), nil)

	in := []byte(`{"id":"a1","title":"Go","views":"3"}`)
	validated, err := c.ValidateJSON(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, err := c.SerializeJSON(ctx, validated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// serializing the re-validated output must be byte-identical
	revalidated, err := c.ValidateJSON(ctx, first)
	if err != nil {
		t.Fatalf("canonical output must re-validate: %v", err)
	}
	second, err := c.SerializeJSON(ctx, revalidated)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("round-trip not idempotent: %s vs %s", first, second)
	}
}

func TestSerialize_ByAliasAndExclusions(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.RecordSchema{
		Fields: []reval.Field{
			{Name: "userID", Schema: &reval.StringSchema{}, SerAlias: "user_id"},
			{Name: "secret", Schema: &reval.StringSchema{}, Exclude: true},
			{Name: "note", Schema: &reval.StringSchema{}, ExcludeIf: func(v any) bool { return v == "" }},
		},
	}, nil)
	in := map[string]any{"userID": "u1", "secret": "hunter2", "note": ""}

	out, err := c.SerializeJSON(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"userID":"u1"}` {
		t.Fatalf("exclusions misapplied: %s", out)
	}

	out, err = c.SerializeJSON(ctx, in, reval.SerializeOptions{ByAlias: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"user_id":"u1"}` {
		t.Fatalf("alias misapplied: %s", out)
	}
}

func TestSerialize_CallLevelExcludeAndNilHandling(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.RecordSchema{
		Fields: []reval.Field{
			{Name: "a", Schema: &reval.StringSchema{}},
			{Name: "b", Schema: &reval.NullableSchema{Inner: &reval.StringSchema{}}},
		},
	}, nil)
	in := map[string]any{"a": "x", "b": nil}

	out, err := c.SerializeJSON(ctx, in, reval.SerializeOptions{Exclude: []string{"a"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"b":null}` {
		t.Fatalf("call-level exclude misapplied: %s", out)
	}

	out, err = c.SerializeJSON(ctx, in, reval.SerializeOptions{ExcludeNil: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"a":"x"}` {
		t.Fatalf("exclude-nil misapplied: %s", out)
	}
}

func TestSerialize_ExcludeDefaults(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.RecordSchema{
		Fields: []reval.Field{
			{Name: "name", Schema: &reval.StringSchema{}},
			{Name: "size", Schema: &reval.DefaultSchema{Inner: &reval.IntSchema{}, Default: int64(10)}},
		},
	}, nil)

	out, err := c.SerializeJSON(ctx, map[string]any{"name": "n", "size": int64(10)},
		reval.SerializeOptions{ExcludeDefaults: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"name":"n"}` {
		t.Fatalf("default-valued field should drop: %s", out)
	}

	out, err = c.SerializeJSON(ctx, map[string]any{"name": "n", "size": int64(3)},
		reval.SerializeOptions{ExcludeDefaults: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"name":"n","size":3}` {
		t.Fatalf("non-default value must stay: %s", out)
	}
}

// WhenJSON serializers run only in text mode: the native tree keeps the
// original value while the JSON rendering shows the hook output.
func TestSerialize_WhenUsedGating(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.RecordSchema{
		Fields: []reval.Field{
			{Name: "name", Schema: &reval.StringSchema{}, Serializer: &reval.SerializerHook{
				WhenUsed: reval.WhenJSON,
				Fn: func(ctx context.Context, v any, info *reval.Info) (any, error) {
					return strings.ToUpper(v.(string)), nil
				},
			}},
		},
	}, nil)
	in := map[string]any{"name": "ada"}

	native, err := c.Serialize(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nv, _ := native.Get("name")
	if nv.Str() != "ada" {
		t.Fatalf("native mode must skip the WhenJSON hook: %v", nv)
	}

	out, err := c.SerializeJSON(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"name":"ADA"}` {
		t.Fatalf("text mode must apply the hook: %s", out)
	}
}

func TestSerialize_WrapSerializer(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.RecordSchema{
		Fields: []reval.Field{
			{Name: "tags", Schema: &reval.ListSchema{Item: &reval.StringSchema{}}, Serializer: &reval.SerializerHook{
				WrapFn: func(ctx context.Context, v any, handler reval.Handler, info *reval.Info) (any, error) {
					out, err := handler(v)
					if err != nil {
						return nil, err
					}
					// decorate the default serialization
					return map[string]any{"items": out}, nil
				},
			}},
		},
	}, nil)

	out, err := c.SerializeJSON(ctx, map[string]any{"tags": []any{"a", "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"tags":{"items":["a","b"]}}` {
		t.Fatalf("wrap serializer misapplied: %s", out)
	}
}

func TestSerialize_TextModeScalars(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.RecordSchema{
		Fields: []reval.Field{
			{Name: "raw", Schema: &reval.BytesSchema{}},
			{Name: "at", Schema: &reval.DateTimeSchema{}},
		},
	}, nil)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	out, err := c.SerializeJSON(ctx, map[string]any{"raw": []byte("hi"), "at": at})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"raw":"aGk=","at":"2024-05-01T12:00:00Z"}`
	if string(out) != want {
		t.Fatalf("want %s, got %s", want, out)
	}

	// native mode keeps host types
	native, err := c.Serialize(ctx, map[string]any{"raw": []byte("hi"), "at": at})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := native.Get("at"); v.Kind() != reval.KindExternal {
		t.Fatalf("native datetime should stay a host value, got kind %v", v.Kind())
	}
}

func TestSerialize_UnionPicksMatchingBranch(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.UnionSchema{
		Branches: []reval.Schema{&reval.IntSchema{}, &reval.StringSchema{}},
	}, nil)

	out, err := c.SerializeJSON(ctx, "seven")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `"seven"` {
		t.Fatalf("want \"seven\", got %s", out)
	}
}
