package reval_test

import (
	"context"
	"io"
	"sync/atomic"
	"testing"

	reval "github.com/reval-go/reval"
	"github.com/reval-go/reval/source/gojson"
)

func TestValidateFrom_ExplicitSource(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.ListSchema{Item: &reval.IntSchema{}}, nil)

	src := reval.SourceFromEngine(gojson.NewBytes([]byte(`[1,2]`)))
	out, err := c.ValidateFrom(ctx, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.([]any)) != 2 {
		t.Fatalf("unexpected output: %v", out)
	}
}

// countingDriver delegates to the default driver while counting uses; it
// exercises the swap-and-restore contract of the driver SPI.
type countingDriver struct {
	inner reval.JSONDriver
	calls *atomic.Int64
}

func (d countingDriver) NewReader(r io.Reader) reval.Source {
	d.calls.Add(1)
	return d.inner.NewReader(r)
}

func (d countingDriver) NewBytes(b []byte) reval.Source {
	d.calls.Add(1)
	return d.inner.NewBytes(b)
}

func (d countingDriver) Name() string { return "counting(" + d.inner.Name() + ")" }

type defaultDriverProbe struct{}

func (defaultDriverProbe) NewReader(r io.Reader) reval.Source {
	return reval.SourceFromEngine(gojson.NewReader(r))
}
func (defaultDriverProbe) NewBytes(b []byte) reval.Source {
	return reval.SourceFromEngine(gojson.NewBytes(b))
}
func (defaultDriverProbe) Name() string { return "probe" }

func TestSetJSONDriver_SwapAndRestore(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.IntSchema{}, nil)

	var calls atomic.Int64
	reval.SetJSONDriver(countingDriver{inner: defaultDriverProbe{}, calls: &calls})
	defer reval.UseDefaultJSONDriver()

	out, err := c.ValidateJSON(ctx, []byte(`7`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != int64(7) {
		t.Fatalf("want 7, got %v", out)
	}
	if calls.Load() != 1 {
		t.Fatalf("custom driver not used: %d calls", calls.Load())
	}
}

// Text-mode base64 decoding for bytes applies on the JSON path even though
// the same string would fail a strict native-mode call.
func TestValidateJSON_BytesFromBase64(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.BytesSchema{Strict: reval.Ptr(true)}, nil)

	out, err := c.ValidateJSON(ctx, []byte(`"aGVsbG8="`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out.([]byte)) != "hello" {
		t.Fatalf("want hello, got %q", out)
	}

	_, err = c.ValidateJSON(ctx, []byte(`"%%%"`))
	iss, _ := reval.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != reval.CodeBytesEncoding {
		t.Fatalf("expected bytes_encoding, got: %v", err)
	}
}

func TestValidateJSON_DatetimeStrictTextMode(t *testing.T) {
	ctx := context.Background()
	c := reval.MustCompile(&reval.DateTimeSchema{Strict: reval.Ptr(true)}, nil)

	if _, err := c.ValidateJSON(ctx, []byte(`"2024-05-01T12:00:00Z"`)); err != nil {
		t.Fatalf("text mode must accept RFC 3339 strings under strict: %v", err)
	}
	if _, err := c.Validate(ctx, "2024-05-01T12:00:00Z", reval.Options{Strict: true}); err == nil {
		t.Fatalf("native strict must reject string datetimes")
	}
}
