package reval

import (
	"context"
	"io"
)

// Validate runs the schema against an in-memory Go value, returning the
// validated native output or a non-empty Issues error enumerating every
// recorded failure. It never returns partially valid output.
func (c *Compiled) Validate(ctx context.Context, v any, opts ...Options) (any, error) {
	return c.ValidateValue(ctx, FromGo(v), opts...)
}

// ValidateValue is Validate over an already-constructed Value.
func (c *Compiled) ValidateValue(ctx context.Context, v Value, opts ...Options) (any, error) {
	opt := lastOption(opts)
	st := newVState(ctx, c, opt)
	out, ok := st.validate(c.root, v)
	return finalize(st, out, ok)
}

// ValidateJSON parses a JSON document and validates it in text mode.
// Malformed text or a streaming-enforcement violation (duplicate key,
// depth, byte budget) yields a single top-level issue without any
// schema-level validation.
func (c *Compiled) ValidateJSON(ctx context.Context, data []byte, opts ...Options) (any, error) {
	return c.ValidateFrom(ctx, JSONBytes(data), opts...)
}

// ValidateReader streams JSON tokens from r; when Parse.MaxBytes is set the
// byte budget is enforced while reading.
func (c *Compiled) ValidateReader(ctx context.Context, r io.Reader, opts ...Options) (any, error) {
	return c.ValidateFrom(ctx, JSONReader(r), opts...)
}

// ValidateYAML parses a YAML document through the shared token pipeline and
// validates it in text mode.
func (c *Compiled) ValidateYAML(ctx context.Context, data []byte, opts ...Options) (any, error) {
	return c.ValidateFrom(ctx, YAMLBytes(data), opts...)
}

// ValidateFrom consumes tokens from an arbitrary Source, then validates the
// decoded value in text mode (unless the caller selected strings-only).
func (c *Compiled) ValidateFrom(ctx context.Context, src Source, opts ...Options) (any, error) {
	opt := lastOption(opts)
	if opt.Mode == ModeNative {
		opt.Mode = ModeText
	}
	var warn Issues
	v, err := decodeValueFromSource(src, opt.Parse, &warn)
	if err != nil {
		return nil, parseIssues(err)
	}
	st := newVState(ctx, c, opt)
	out, ok := st.validate(c.root, v)
	if !ok && len(warn) > 0 {
		// duplicate-key warnings ride along only when the call fails anyway
		st.issues = append(warn, st.issues...)
	}
	return finalize(st, out, ok)
}

// ValidateAssignment validates a single-field update against a record
// schema: the new value runs through the field's schema with current as the
// sibling data, and frozen fields reject the update. The root (resolved
// through definition references) must be a record. On success it returns a
// copy of current with the field replaced; current is never mutated.
func (c *Compiled) ValidateAssignment(ctx context.Context, field string, v any, current map[string]any, opts ...Options) (map[string]any, error) {
	rec, ok := c.rootRecord()
	if !ok {
		return nil, Issues{Issue{Code: CodeValueError, Message: "assignment requires a record schema"}}
	}
	st := newVState(ctx, c, lastOption(opts))
	out := st.validateAssignment(rec, field, FromGo(v), current)
	if st.failed() || out == nil {
		_, err := finalize(st, nil, false)
		return nil, err
	}
	return out, nil
}

// rootRecord unwraps definition references down to a record root.
func (c *Compiled) rootRecord() (*RecordSchema, bool) {
	s := c.root
	for i := 0; i < DefaultMaxDepth; i++ {
		switch t := s.(type) {
		case *RecordSchema:
			return t, true
		case *RefSchema:
			inner, ok := c.Definition(t.Name)
			if !ok {
				return nil, false
			}
			s = inner
		default:
			return nil, false
		}
	}
	return nil, false
}

// Is reports whether v conforms to the schema.
func Is(ctx context.Context, c *Compiled, v any) bool {
	_, err := c.Validate(ctx, v)
	return err == nil
}

// SafeValidate validates v, returning (nil, false) instead of an error.
func SafeValidate(ctx context.Context, c *Compiled, v any) (any, bool) {
	out, err := c.Validate(ctx, v)
	if err != nil {
		return nil, false
	}
	return out, true
}

// Serialize walks a validated native value alongside the schema and emits
// the output Value tree for the requested mode. A collaborator renders the
// tree to final text bytes; SerializeJSON does so via go-json.
func (c *Compiled) Serialize(ctx context.Context, v any, opts ...SerializeOptions) (Value, error) {
	opt := lastSerializeOption(opts)
	ss := &sstate{ctx: ctx, c: c, opt: opt}
	out, _ := ss.serialize(c.root, v)
	if len(ss.issues) > 0 {
		return out, ss.issues
	}
	return out, nil
}

// SerializeJSON serializes in text mode and renders the Value tree to JSON.
func (c *Compiled) SerializeJSON(ctx context.Context, v any, opts ...SerializeOptions) ([]byte, error) {
	opt := lastSerializeOption(opts)
	opt.Mode = ModeText
	out, err := c.Serialize(ctx, v, opt)
	if err != nil {
		return nil, err
	}
	return out.MarshalJSON()
}

func lastOption(opts []Options) Options {
	if len(opts) == 0 {
		return Options{}
	}
	return opts[len(opts)-1]
}

func lastSerializeOption(opts []SerializeOptions) SerializeOptions {
	if len(opts) == 0 {
		return SerializeOptions{}
	}
	return opts[len(opts)-1]
}

// finalize converts walker state into the public result contract.
func finalize(st *vstate, out any, ok bool) (any, error) {
	if ok && !st.failed() {
		return out, nil
	}
	if !st.failed() {
		// a short-circuit signal escaped without a consumer
		code := CodeValueError
		reason := "unhandled validator signal"
		if st.omit {
			reason = "omit signal outside a record or dict"
		} else if st.useDefault {
			reason = "use-default signal without an enclosing default"
		}
		st.bad(code, Value{}, map[string]any{"reason": reason})
	}
	return nil, st.issues
}
