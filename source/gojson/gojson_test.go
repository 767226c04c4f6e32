package gojson_test

import (
	"io"
	"testing"

	eng "github.com/reval-go/reval/internal/engine"
	"github.com/reval-go/reval/source/gojson"
)

func kinds(t *testing.T, src eng.TokenSource) []eng.Kind {
	t.Helper()
	var out []eng.Kind
	for {
		tok, err := src.NextToken()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("NextToken: %v", err)
		}
		out = append(out, tok.Kind)
	}
}

func TestTokens_ObjectAndArray(t *testing.T) {
	src := gojson.NewBytes([]byte(`{"a":[1,"x",true,null],"b":{"c":2}}`))
	got := kinds(t, src)
	want := []eng.Kind{
		eng.KindBeginObject,
		eng.KindKey, eng.KindBeginArray,
		eng.KindNumber, eng.KindString, eng.KindBool, eng.KindNull,
		eng.KindEndArray,
		eng.KindKey, eng.KindBeginObject,
		eng.KindKey, eng.KindNumber,
		eng.KindEndObject,
		eng.KindEndObject,
	}
	if len(got) != len(want) {
		t.Fatalf("token count: want %d, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: want %v, got %v", i, want[i], got[i])
		}
	}
}

// Strings appearing as object values must not be mistaken for keys.
func TestTokens_StringValueVsKey(t *testing.T) {
	src := gojson.NewBytes([]byte(`{"a":"b","c":"d"}`))
	var keys, strs []string
	for {
		tok, err := src.NextToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextToken: %v", err)
		}
		switch tok.Kind {
		case eng.KindKey:
			keys = append(keys, tok.String)
		case eng.KindString:
			strs = append(strs, tok.String)
		}
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Fatalf("keys: %v", keys)
	}
	if len(strs) != 2 || strs[0] != "b" || strs[1] != "d" {
		t.Fatalf("strings: %v", strs)
	}
}

func TestTokens_NumbersKeepText(t *testing.T) {
	src := gojson.NewBytes([]byte(`[123456789012345678901234567890, 0.1]`))
	var nums []string
	for {
		tok, err := src.NextToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextToken: %v", err)
		}
		if tok.Kind == eng.KindNumber {
			nums = append(nums, tok.Number)
		}
	}
	if len(nums) != 2 || nums[0] != "123456789012345678901234567890" || nums[1] != "0.1" {
		t.Fatalf("number text lost: %v", nums)
	}
}
