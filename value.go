package reval

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"sort"

	"github.com/shopspring/decimal"
)

// ValueKind enumerates the variants of the input value model.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindBigInt
	KindFloat
	KindDecimal
	KindString
	KindBytes
	KindSeq
	KindMap
	KindExternal
)

// String returns the lowercase kind name used in issue params.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindBigInt:
		return "bigint"
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindSeq:
		return "sequence"
	case KindMap:
		return "mapping"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Member is one mapping entry. Mappings preserve insertion order of keys;
// record-field matching and extra-key reporting depend on it.
type Member struct {
	Key Value
	Val Value
}

// Value is the tagged in-memory representation of "any input value". It is
// immutable once constructed and may be copied freely; validation never
// aliases a Value across calls.
type Value struct {
	kind    ValueKind
	b       bool
	i       int64
	f       float64
	big     *big.Int
	dec     decimal.Decimal
	s       string
	by      []byte
	seq     []Value
	members []Member
	ext     any
}

// ---- constructors ----

// NullValue returns the null Value.
func NullValue() Value { return Value{kind: KindNull} }

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// IntValue wraps an int64.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// BigIntValue wraps an arbitrary-precision integer. The caller must not
// mutate n afterwards.
func BigIntValue(n *big.Int) Value { return Value{kind: KindBigInt, big: n} }

// FloatValue wraps a float64.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// DecimalValue wraps a decimal.
func DecimalValue(d decimal.Decimal) Value { return Value{kind: KindDecimal, dec: d} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// BytesValue wraps a byte slice. The caller must not mutate b afterwards.
func BytesValue(b []byte) Value { return Value{kind: KindBytes, by: b} }

// SeqValue wraps a sequence of Values.
func SeqValue(items ...Value) Value { return Value{kind: KindSeq, seq: items} }

// MapValue wraps an ordered mapping.
func MapValue(members ...Member) Value { return Value{kind: KindMap, members: members} }

// ExternalValue wraps an opaque host object (e.g. a struct instance used
// with from-attributes record validation, or a time.Time).
func ExternalValue(v any) Value { return Value{kind: KindExternal, ext: v} }

// ---- accessors ----

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() bool               { return v.b }
func (v Value) Int() int64               { return v.i }
func (v Value) BigInt() *big.Int         { return v.big }
func (v Value) Float() float64           { return v.f }
func (v Value) Decimal() decimal.Decimal { return v.dec }
func (v Value) Str() string              { return v.s }
func (v Value) Bytes() []byte            { return v.by }
func (v Value) Seq() []Value             { return v.seq }
func (v Value) Members() []Member        { return v.members }
func (v Value) External() any            { return v.ext }

// Get looks up a mapping entry by string key. Lookup is linear; callers that
// probe many keys should build their own index over Members.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key.kind == KindString && m.Key.s == key {
			return m.Val, true
		}
	}
	return Value{}, false
}

// Interface converts the Value back into plain Go data: nil, bool, int64,
// *big.Int, float64, decimal.Decimal, string, []byte, []any,
// map-preserving []Member collapsed to map[string]any, or the external
// handle itself.
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindBigInt:
		return v.big
	case KindFloat:
		return v.f
	case KindDecimal:
		return v.dec
	case KindString:
		return v.s
	case KindBytes:
		return v.by
	case KindSeq:
		out := make([]any, len(v.seq))
		for i, it := range v.seq {
			out[i] = it.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			if m.Key.kind == KindString {
				out[m.Key.s] = m.Val.Interface()
			}
		}
		return out
	default:
		return v.ext
	}
}

// FromGo maps native Go data into the value model. Unrecognized types become
// External values; map[string]any keys are sorted for determinism because Go
// map iteration order is unspecified.
func FromGo(v any) Value {
	switch t := v.(type) {
	case nil:
		return NullValue()
	case Value:
		return t
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int8:
		return IntValue(int64(t))
	case int16:
		return IntValue(int64(t))
	case int32:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case uint:
		return fromUint64(uint64(t))
	case uint8:
		return IntValue(int64(t))
	case uint16:
		return IntValue(int64(t))
	case uint32:
		return IntValue(int64(t))
	case uint64:
		return fromUint64(t)
	case float32:
		return FloatValue(float64(t))
	case float64:
		return FloatValue(t)
	case *big.Int:
		return BigIntValue(t)
	case decimal.Decimal:
		return DecimalValue(t)
	case json.Number:
		return fromJSONNumber(t)
	case string:
		return StringValue(t)
	case []byte:
		return BytesValue(t)
	case []any:
		items := make([]Value, len(t))
		for i, it := range t {
			items[i] = FromGo(it)
		}
		return SeqValue(items...)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(t))
		for _, k := range keys {
			members = append(members, Member{Key: StringValue(k), Val: FromGo(t[k])})
		}
		return MapValue(members...)
	}
	return fromReflect(v)
}

func fromUint64(u uint64) Value {
	if u <= math.MaxInt64 {
		return IntValue(int64(u))
	}
	return BigIntValue(new(big.Int).SetUint64(u))
}

func fromJSONNumber(n json.Number) Value {
	if i, err := n.Int64(); err == nil {
		return IntValue(i)
	}
	if bi, ok := new(big.Int).SetString(n.String(), 10); ok {
		return BigIntValue(bi)
	}
	if f, err := n.Float64(); err == nil {
		return FloatValue(f)
	}
	// not numeric at all; surface as string so validators report a
	// parsing issue rather than panicking
	return StringValue(n.String())
}

// fromReflect handles typed slices and string-keyed maps; anything else is
// an opaque external object.
func fromReflect(v any) Value {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = FromGo(rv.Index(i).Interface())
		}
		return SeqValue(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			keys := make([]string, 0, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				keys = append(keys, iter.Key().String())
			}
			sort.Strings(keys)
			members := make([]Member, 0, len(keys))
			for _, k := range keys {
				members = append(members, Member{
					Key: StringValue(k),
					Val: FromGo(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()),
				})
			}
			return MapValue(members...)
		}
	case reflect.Pointer:
		if rv.IsNil() {
			return NullValue()
		}
	}
	return ExternalValue(v)
}
