package reval_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	reval "github.com/reval-go/reval"
)

// An after validator rejecting its input surfaces as value_error at the
// field path, with the user's message preserved.
func TestFunctionAfter_RejectionBecomesValueError(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.RecordSchema{
		Fields: []reval.Field{
			{Name: "number", Required: true, Schema: &reval.FunctionSchema{
				Mode:  reval.FuncAfter,
				Inner: &reval.IntSchema{},
				Fn: func(ctx context.Context, v any, info *reval.Info) (any, error) {
					if v.(int64)%2 != 0 {
						return nil, reval.NewValueError("number must be even")
					}
					return v, nil
				},
			}},
		},
	}, nil)

	out, err := c.Validate(ctx, map[string]any{"number": 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(map[string]any)["number"] != int64(4) {
		t.Fatalf("unexpected output: %v", out)
	}

	_, err = c.Validate(ctx, map[string]any{"number": 3})
	iss, _ := reval.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != reval.CodeValueError || iss[0].Path.String() != "/number" {
		t.Fatalf("expected value_error at /number, got: %v", err)
	}
	if iss[0].Message != "number must be even" {
		t.Fatalf("user message lost: %v", iss[0])
	}
}

// A before validator reshapes the raw input; failures of the inner schema
// then carry paths into the reshaped value.
func TestFunctionBefore_WrapsSingleton(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.RecordSchema{
		Fields: []reval.Field{
			{Name: "numbers", Required: true, Schema: &reval.FunctionSchema{
				Mode:  reval.FuncBefore,
				Inner: &reval.ListSchema{Item: &reval.IntSchema{}},
				Fn: func(ctx context.Context, v any, info *reval.Info) (any, error) {
					if _, ok := v.([]any); ok {
						return v, nil
					}
					return []any{v}, nil
				},
			}},
		},
	}, nil)

	out, err := c.Validate(ctx, map[string]any{"numbers": 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]any{int64(5)}, out.(map[string]any)["numbers"]); diff != "" {
		t.Fatalf("singleton wrap mismatch (-want +got):\n%s", diff)
	}

	_, err = c.Validate(ctx, map[string]any{"numbers": "x"})
	iss, _ := reval.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != reval.CodeIntParsing || iss[0].Path.String() != "/numbers/0" {
		t.Fatalf("expected int_parsing at /numbers/0, got: %v", err)
	}
}

func TestFunctionAfter_SkippedWhenInnerFails(t *testing.T) {
	ctx := context.Background()
	ran := false
	c := reval.MustCompile(&reval.FunctionSchema{
		Mode:  reval.FuncAfter,
		Inner: &reval.IntSchema{},
		Fn: func(ctx context.Context, v any, info *reval.Info) (any, error) {
			ran = true
			return v, nil
		},
	}, nil)

	_, err := c.Validate(ctx, "nope")
	if err == nil {
		t.Fatalf("expected inner failure")
	}
	if ran {
		t.Fatalf("after hook must not run when the inner schema fails")
	}
}

func TestFunctionWrap_TransformAndRecover(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.FunctionSchema{
		Mode:  reval.FuncWrap,
		Inner: &reval.StringSchema{MinLen: reval.Ptr(3)},
		WrapFn: func(ctx context.Context, v any, handler reval.Handler, info *reval.Info) (any, error) {
			if s, ok := v.(string); ok {
				v = strings.TrimSpace(s)
			}
			out, err := handler(v)
			if err != nil {
				// recover instead of failing
				return "fallback", nil
			}
			return out, nil
		},
	}, nil)

	out, err := c.Validate(ctx, "  abc ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "abc" {
		t.Fatalf("want abc, got %v", out)
	}

	out, err = c.Validate(ctx, "x")
	if err != nil {
		t.Fatalf("wrap recovered, call must succeed: %v", err)
	}
	if out != "fallback" {
		t.Fatalf("want fallback, got %v", out)
	}
}

func TestFunctionWrap_HandlerErrorCarriesIssues(t *testing.T) {
	ctx := context.Background()
	var sawCode string
	c := reval.MustCompile(&reval.FunctionSchema{
		Mode:  reval.FuncWrap,
		Inner: &reval.IntSchema{},
		WrapFn: func(ctx context.Context, v any, handler reval.Handler, info *reval.Info) (any, error) {
			out, err := handler(v)
			if iss, ok := reval.AsIssues(err); ok && len(iss) > 0 {
				sawCode = iss[0].Code
				return nil, err
			}
			return out, err
		},
	}, nil)

	_, err := c.Validate(ctx, "bad")
	if err == nil {
		t.Fatalf("expected failure")
	}
	if sawCode != reval.CodeIntParsing {
		t.Fatalf("wrap should observe the inner issues, saw %q", sawCode)
	}
}

func TestFunctionHook_PlainErrorBecomesValueError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("storage offline")
	c := reval.MustCompile(&reval.FunctionSchema{
		Mode:  reval.FuncPlain,
		Fn: func(ctx context.Context, v any, info *reval.Info) (any, error) {
			return nil, boom
		},
	}, nil)

	_, err := c.Validate(ctx, 1)
	iss, _ := reval.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != reval.CodeValueError {
		t.Fatalf("expected value_error, got: %v", err)
	}
	if !errors.Is(iss[0].Cause, boom) {
		t.Fatalf("cause should be preserved: %v", iss[0].Cause)
	}
}

// ErrOmit from a hook drops the entry from the enclosing container.
func TestFunctionHook_OmitSignal(t *testing.T) {
	ctx := context.Background()
	dropOdd := &reval.FunctionSchema{
		Mode:  reval.FuncAfter,
		Inner: &reval.IntSchema{},
		Fn: func(ctx context.Context, v any, info *reval.Info) (any, error) {
			if v.(int64)%2 != 0 {
				return nil, reval.ErrOmit
			}
			return v, nil
		},
	}

	list := reval.MustCompile(&reval.ListSchema{Item: dropOdd}, nil)
	out, err := list.Validate(ctx, []any{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]any{int64(2), int64(4)}, out); diff != "" {
		t.Fatalf("odd entries should be omitted (-want +got):\n%s", diff)
	}

	rec := reval.MustCompile(&reval.RecordSchema{
		Fields: []reval.Field{{Name: "n", Schema: dropOdd}},
	}, nil)
	out, err = rec.Validate(ctx, map[string]any{"n": 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := out.(map[string]any)["n"]; present {
		t.Fatalf("omitted optional field should vanish: %v", out)
	}
}

// ErrUseDefault from a hook asks the nearest enclosing default wrapper to
// substitute its value.
func TestFunctionHook_UseDefaultSignal(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.DefaultSchema{
		Default: int64(42),
		Inner: &reval.FunctionSchema{
			Mode:  reval.FuncAfter,
			Inner: &reval.IntSchema{},
			Fn: func(ctx context.Context, v any, info *reval.Info) (any, error) {
				if v.(int64) < 0 {
					return nil, reval.ErrUseDefault
				}
				return v, nil
			},
		},
	}, nil)

	if out, err := c.Validate(ctx, 7); err != nil || out != int64(7) {
		t.Fatalf("positive input should pass through: %v, %v", out, err)
	}
	out, err := c.Validate(ctx, -1)
	if err != nil {
		t.Fatalf("use-default must not fail the call: %v", err)
	}
	if out != int64(42) {
		t.Fatalf("want the default 42, got %v", out)
	}
}

// A short-circuit signal with no consumer is a usage error, not a silent
// success.
func TestFunctionHook_EscapedSignalFails(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.FunctionSchema{
		Mode: reval.FuncPlain,
		Fn: func(ctx context.Context, v any, info *reval.Info) (any, error) {
			return nil, reval.ErrOmit
		},
	}, nil)

	_, err := c.Validate(ctx, 1)
	iss, _ := reval.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != reval.CodeValueError {
		t.Fatalf("expected value_error for an escaped omit, got: %v", err)
	}
}

func TestOnError_DefaultAndOmitPolicies(t *testing.T) {
	ctx := context.Background()
	withDefault := reval.MustCompile(&reval.DefaultSchema{
		Inner:   &reval.IntSchema{},
		Default: int64(0),
		OnError: reval.OnErrorDefault,
	}, nil)

	out, err := withDefault.Validate(ctx, "junk")
	if err != nil {
		t.Fatalf("on-error default should swallow the failure: %v", err)
	}
	if out != int64(0) {
		t.Fatalf("want 0, got %v", out)
	}

	withOmit := reval.MustCompile(&reval.RecordSchema{
		Fields: []reval.Field{
			{Name: "n", Schema: &reval.DefaultSchema{
				Inner:   &reval.IntSchema{},
				OnError: reval.OnErrorOmit,
			}},
		},
	}, nil)
	out, err = withOmit.Validate(ctx, map[string]any{"n": "junk"})
	if err != nil {
		t.Fatalf("on-error omit should drop the field: %v", err)
	}
	if _, present := out.(map[string]any)["n"]; present {
		t.Fatalf("field should be omitted: %v", out)
	}
}

// A use-default signal with no wrapper above it must surface as an error at
// the field path, never as a silently missing field.
func TestFunctionHook_UseDefaultWithoutWrapperFails(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.RecordSchema{
		Fields: []reval.Field{
			{Name: "n", Required: true, Schema: &reval.FunctionSchema{
				Mode:  reval.FuncAfter,
				Inner: &reval.IntSchema{},
				Fn: func(ctx context.Context, v any, info *reval.Info) (any, error) {
					return nil, reval.ErrUseDefault
				},
			}},
		},
	}, nil)

	_, err := c.Validate(ctx, map[string]any{"n": int64(1)})
	iss, _ := reval.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != reval.CodeValueError || iss[0].Path.String() != "/n" {
		t.Fatalf("expected value_error at /n, got: %v", err)
	}

	list := reval.MustCompile(&reval.ListSchema{Item: &reval.FunctionSchema{
		Mode:  reval.FuncAfter,
		Inner: &reval.IntSchema{},
		Fn: func(ctx context.Context, v any, info *reval.Info) (any, error) {
			return nil, reval.ErrUseDefault
		},
	}}, nil)
	_, err = list.Validate(ctx, []any{int64(1)})
	iss, _ = reval.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != reval.CodeValueError || iss[0].Path.String() != "/0" {
		t.Fatalf("expected value_error at /0, got: %v", err)
	}
}

// The signal is consumed where it was raised; a later sibling's default
// wrapper must not see it.
func TestFunctionHook_UseDefaultStaysWithItsField(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.RecordSchema{
		Fields: []reval.Field{
			{Name: "a", Required: true, Schema: &reval.FunctionSchema{
				Mode:  reval.FuncAfter,
				Inner: &reval.IntSchema{},
				Fn: func(ctx context.Context, v any, info *reval.Info) (any, error) {
					return nil, reval.ErrUseDefault
				},
			}},
			{Name: "b", Required: true, Schema: &reval.DefaultSchema{
				Inner:   &reval.IntSchema{},
				Default: int64(99),
				OnError: reval.OnErrorRaise,
			}},
		},
	}, nil)

	_, err := c.Validate(ctx, map[string]any{"a": int64(1), "b": "junk"})
	iss, _ := reval.AsIssues(err)
	if len(iss) != 2 {
		t.Fatalf("expected both fields to fail, got: %v", err)
	}
	byPath := map[string]string{}
	for _, is := range iss {
		byPath[is.Path.String()] = is.Code
	}
	if byPath["/a"] != reval.CodeValueError {
		t.Fatalf("field a should report the stray signal: %v", iss)
	}
	if byPath["/b"] != reval.CodeIntParsing {
		t.Fatalf("field b must raise its own error, not substitute 99: %v", iss)
	}
}

// A fixed tuple position has no legal way to disappear; omit there is an
// error, not a shorter tuple.
func TestTuple_OmitSignalAtFixedPosition(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.TupleSchema{
		Items: []reval.Schema{
			&reval.IntSchema{},
			&reval.FunctionSchema{
				Mode:  reval.FuncAfter,
				Inner: &reval.StringSchema{},
				Fn: func(ctx context.Context, v any, info *reval.Info) (any, error) {
					return nil, reval.ErrOmit
				},
			},
		},
	}, nil)

	_, err := c.Validate(ctx, []any{int64(1), "x"})
	iss, _ := reval.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != reval.CodeValueError || iss[0].Path.String() != "/1" {
		t.Fatalf("expected value_error at /1, got: %v", err)
	}
}
