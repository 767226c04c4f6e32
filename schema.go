package reval

import (
	"context"

	"github.com/shopspring/decimal"
)

// Schema is the closed set of node variants making up a schema graph. Nodes
// are plain exported structs constructed by callers (or a builder layer) and
// finalized by Compile; after Compile they are read-only and safe for
// concurrent use. Nodes travel by pointer so the same node may be reachable
// from multiple parents without copying; recursive structures are expressed
// only via RefSchema.
type Schema interface {
	node()
}

// Ptr is a convenience for optional constraint fields.
func Ptr[T any](v T) *T { return &v }

// ---- primitives ----

// AnySchema accepts any input unchanged.
type AnySchema struct{}

// NoneSchema accepts only null.
type NoneSchema struct{}

// BoolSchema validates booleans. Lax mode accepts "true"/"false"/"1"/"0"
// (case-insensitive) and the integers 0/1.
type BoolSchema struct {
	Strict *bool
}

// IntSchema validates integers with optional range and divisibility
// constraints. Lax coercions, in priority order: exact int, float with zero
// fractional part, numeric string. Bool input is never accepted.
type IntSchema struct {
	Strict     *bool
	Ge, Gt     *int64
	Le, Lt     *int64
	MultipleOf *int64
}

// FloatSchema validates floats. Lax mode accepts ints and numeric strings.
type FloatSchema struct {
	Strict      *bool
	Ge, Gt      *float64
	Le, Lt      *float64
	MultipleOf  *float64
	AllowInfNan *bool // overrides Options.AllowInfNan
}

// DecimalSchema validates arbitrary-precision decimals. Lax mode accepts
// ints, floats, and numeric strings.
type DecimalSchema struct {
	Strict        *bool
	Ge, Gt        *decimal.Decimal
	Le, Lt        *decimal.Decimal
	MultipleOf    *decimal.Decimal
	MaxDigits     *int
	DecimalPlaces *int
}

// StringSchema validates strings. Pattern is compiled by Compile and must be
// a valid Go regular expression.
type StringSchema struct {
	Strict           *bool
	MinLen, MaxLen   *int
	Pattern          string
	StripWhitespace  bool
	ToLower, ToUpper bool
}

// BytesSchema validates byte strings. In text mode, string input is decoded
// as base64.
type BytesSchema struct {
	Strict         *bool
	MinLen, MaxLen *int
}

// DateTimeSchema validates timestamps into time.Time. String input is parsed
// as RFC 3339; text mode accepts strings even under strict because the
// interchange format has no native timestamp.
type DateTimeSchema struct {
	Strict *bool
}

// LiteralSchema accepts exactly the listed scalar values (strings, ints, or
// bools). The matched literal is returned as the output.
type LiteralSchema struct {
	Values []any
}

// ---- containers ----

// ListSchema validates sequences into []any.
type ListSchema struct {
	Item           Schema
	MinLen, MaxLen *int
	// FailFast stops at the first failing item instead of visiting all.
	FailFast bool
}

// TupleSchema validates fixed-shape sequences. When Variadic is set, input
// longer than Items validates the tail against it.
type TupleSchema struct {
	Items    []Schema
	Variadic Schema
	FailFast bool
}

// SetSchema validates sequences with unique scalar items into []any,
// preserving first-seen order.
type SetSchema struct {
	Item           Schema
	MinLen, MaxLen *int
	FailFast       bool
}

// DictSchema validates mappings into map[string]any (native keys are
// stringified per Key schema output).
type DictSchema struct {
	Key, Value     Schema
	MinLen, MaxLen *int
	FailFast       bool
}

// ---- records ----

// Field is one declared record member. Fields validate in declaration
// order; a hook on field N can read fields 0..N-1 through Info.Data.
type Field struct {
	Name     string
	Schema   Schema
	Required bool
	// Aliases are tried in order before Name when looking up the input key.
	Aliases []string
	// Frozen marks the field immutable for consumers; serialization emits
	// it normally.
	Frozen bool

	// Serialization rules.
	SerAlias   string           // output key when SerializeOptions.ByAlias
	Exclude    bool             // never serialize
	ExcludeIf  func(v any) bool // drop when predicate holds
	Serializer *SerializerHook  // custom per-field serializer
}

// GetAttrFunc is the host-binding glue for from-attributes validation: fetch
// a named attribute from an external object, reporting absence.
type GetAttrFunc func(obj any, name string) (any, bool)

// RecordSchema validates a named, ordered set of fields from a mapping (or,
// with FromAttributes, from an external object via GetAttr).
type RecordSchema struct {
	Name   string
	Fields []Field
	// Extra selects unknown-key handling; ExtraUnset defers to Options.
	Extra ExtraBehavior
	// Extras validates retained unknown values under ExtraAllow.
	Extras Schema
	// FromAttributes permits external-object input through GetAttr.
	FromAttributes bool
	GetAttr        GetAttrFunc
	FailFast       bool
}

// ---- unions ----

// UnionMode selects the branch-resolution algorithm.
type UnionMode int

const (
	// UnionSmart probes all branches strict-first and picks the branch
	// needing the least coercion; ties resolve to the earliest branch.
	UnionSmart UnionMode = iota
	// UnionLeftToRight tries branches in declared order and returns the
	// first success.
	UnionLeftToRight
)

// UnionSchema validates against one of several candidate branches.
type UnionSchema struct {
	Branches []Schema
	// Labels name branches in aggregated union_invalid issues; optional,
	// defaults to the branch index.
	Labels []string
	Mode   UnionMode
}

// DiscriminatorFunc computes a tag from the input when a field path is not
// enough.
type DiscriminatorFunc func(v Value) (string, bool)

// TaggedUnionSchema dispatches on a discriminator value in O(1), never
// probing branch bodies.
type TaggedUnionSchema struct {
	// Discriminator is the field path to the tag within the input mapping
	// (attribute path for external objects).
	Discriminator []string
	// DiscriminatorFn overrides Discriminator when set.
	DiscriminatorFn DiscriminatorFunc
	Mapping         map[string]Schema
}

// ---- wrappers ----

// OnErrorMode governs DefaultSchema behavior when the wrapped schema fails
// on a present value.
type OnErrorMode int

const (
	OnErrorRaise   OnErrorMode = iota // propagate the failure
	OnErrorOmit                       // drop the entry (legal only inside records/dicts)
	OnErrorDefault                    // substitute the default
)

// DefaultSchema supplies a value when the input is absent. Exactly one of
// Default, Factory, or DataFactory should be set; DataFactory receives the
// already-validated sibling data of the enclosing record.
type DefaultSchema struct {
	Inner       Schema
	Default     any
	Factory     func() any
	DataFactory func(data map[string]any) any
	OnError     OnErrorMode
	// ValidateDefault overrides Options.ValidateDefault for this node.
	ValidateDefault *bool
}

// NullableSchema accepts null in addition to the inner schema's domain.
type NullableSchema struct {
	Inner Schema
}

// FuncMode is the hook placement relative to the inner schema.
type FuncMode int

const (
	FuncBefore FuncMode = iota // transform raw input, then run inner
	FuncAfter                  // run inner, then transform its output
	FuncPlain                  // replace inner entirely
	FuncWrap                   // receive a handler to run inner at will
)

// Info carries call-site context into hooks that asked for it. Data exposes
// the already-validated earlier fields of the enclosing record.
type Info struct {
	FieldName string
	Path      Path
	Mode      Mode
	Data      map[string]any
	Context   any
}

// Handler runs the wrapped inner schema against a (possibly modified) input.
// Wrap hooks may call it zero or more times, inspect its error, and recover.
type Handler func(v any) (any, error)

// ValidatorFunc is the Before/After/Plain hook shape. Failures are returned
// as Issues (see NewValueError) or any error; ErrUseDefault and ErrOmit
// short-circuit as documented.
type ValidatorFunc func(ctx context.Context, v any, info *Info) (any, error)

// WrapValidatorFunc is the Wrap hook shape.
type WrapValidatorFunc func(ctx context.Context, v any, handler Handler, info *Info) (any, error)

// FunctionSchema attaches a user hook to an inner schema. Fn serves
// Before/After/Plain modes; WrapFn serves FuncWrap. WantInfo selects the
// with-info flavor; without it hooks receive a nil Info.
type FunctionSchema struct {
	Inner    Schema // unused for FuncPlain
	Mode     FuncMode
	Fn       ValidatorFunc
	WrapFn   WrapValidatorFunc
	WantInfo bool
}

// SerializerFunc is the custom serializer hook shape; it returns the value
// to emit in place of default serialization.
type SerializerFunc func(ctx context.Context, v any, info *Info) (any, error)

// WrapSerializerFunc receives a handler running default serialization.
type WrapSerializerFunc func(ctx context.Context, v any, handler Handler, info *Info) (any, error)

// SerializerHook configures a custom field or node serializer.
type SerializerHook struct {
	Fn       SerializerFunc
	WrapFn   WrapSerializerFunc
	WhenUsed WhenUsed
}

// CustomErrorSchema rewrites any failure of Inner into a single issue with
// the given code and message.
type CustomErrorSchema struct {
	Inner   Schema
	Code    string
	Message string
}

// RefSchema is a named pointer into the definitions table passed to Compile.
// It is the only sanctioned way to express recursive or shared-by-name
// structures.
type RefSchema struct {
	Name string
}

func (*AnySchema) node()         {}
func (*NoneSchema) node()        {}
func (*BoolSchema) node()        {}
func (*IntSchema) node()         {}
func (*FloatSchema) node()       {}
func (*DecimalSchema) node()     {}
func (*StringSchema) node()      {}
func (*BytesSchema) node()       {}
func (*DateTimeSchema) node()    {}
func (*LiteralSchema) node()     {}
func (*ListSchema) node()        {}
func (*TupleSchema) node()       {}
func (*SetSchema) node()         {}
func (*DictSchema) node()        {}
func (*RecordSchema) node()      {}
func (*UnionSchema) node()       {}
func (*TaggedUnionSchema) node() {}
func (*DefaultSchema) node()     {}
func (*NullableSchema) node()    {}
func (*FunctionSchema) node()    {}
func (*CustomErrorSchema) node() {}
func (*RefSchema) node()         {}
