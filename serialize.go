package reval

import (
	"context"
	"encoding/base64"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reval-go/reval/i18n"
)

// sstate is the per-call serialization context. Like validation, it is owned
// exclusively by one call and walks the immutable compiled graph in lockstep
// with the native value, in the opposite data direction.
type sstate struct {
	ctx       context.Context
	c         *Compiled
	opt       SerializeOptions
	path      Path
	issues    Issues
	depth     int
	fieldName string
}

func (ss *sstate) pushSeg(s Seg) { ss.path = append(ss.path, s) }
func (ss *sstate) popSeg()       { ss.path = ss.path[:len(ss.path)-1] }

func (ss *sstate) bad(code string, params map[string]any) {
	ss.issues = append(ss.issues, Issue{
		Path:    ss.path.clone(),
		Code:    code,
		Message: i18n.T(code, params),
		Params:  params,
	})
}

func (ss *sstate) info() *Info {
	return &Info{
		FieldName: ss.fieldName,
		Path:      ss.path.clone(),
		Mode:      ss.opt.Mode,
		Context:   ss.opt.Context,
	}
}

func (ss *sstate) text() bool { return ss.opt.Mode == ModeText }

// serialize emits the Value for one schema node and its native value.
// Mismatched shapes degrade to best-effort inference rather than hard
// failure; only structural problems (recursion) record issues.
func (ss *sstate) serialize(s Schema, v any) (Value, bool) {
	switch t := s.(type) {
	case *AnySchema:
		return ss.inferred(v), true
	case *NoneSchema:
		return NullValue(), true
	case *BoolSchema, *IntSchema, *FloatSchema, *StringSchema, *LiteralSchema:
		return ss.inferred(v), true
	case *DecimalSchema:
		if d, ok := v.(decimal.Decimal); ok && ss.text() {
			// decimals round-trip as strings in text mode to avoid float loss
			return StringValue(d.String()), true
		}
		return ss.inferred(v), true
	case *BytesSchema:
		if b, ok := v.([]byte); ok && ss.text() {
			return StringValue(base64.StdEncoding.EncodeToString(b)), true
		}
		return ss.inferred(v), true
	case *DateTimeSchema:
		if tm, ok := v.(time.Time); ok {
			if ss.text() {
				return StringValue(tm.Format(time.RFC3339)), true
			}
			return ExternalValue(tm), true
		}
		return ss.inferred(v), true
	case *ListSchema:
		return ss.serializeSeq(t.Item, v)
	case *SetSchema:
		return ss.serializeSeq(t.Item, v)
	case *TupleSchema:
		return ss.serializeTuple(t, v)
	case *DictSchema:
		return ss.serializeDict(t, v)
	case *RecordSchema:
		return ss.serializeRecord(t, v)
	case *UnionSchema:
		return ss.serializeUnion(t, v)
	case *TaggedUnionSchema:
		return ss.serializeTaggedUnion(t, v)
	case *DefaultSchema:
		return ss.serialize(t.Inner, v)
	case *NullableSchema:
		if v == nil {
			return NullValue(), true
		}
		return ss.serialize(t.Inner, v)
	case *FunctionSchema:
		// validation hooks have no serialization duty; emit via the inner
		// schema when there is one
		if t.Inner != nil {
			return ss.serialize(t.Inner, v)
		}
		return ss.inferred(v), true
	case *CustomErrorSchema:
		return ss.serialize(t.Inner, v)
	case *RefSchema:
		if ss.depth >= DefaultMaxDepth {
			ss.bad(CodeRecursionError, map[string]any{"max_depth": DefaultMaxDepth})
			return NullValue(), false
		}
		inner, ok := ss.c.Definition(t.Name)
		if !ok {
			ss.bad(CodeValueError, map[string]any{"reason": "unresolved reference " + t.Name})
			return NullValue(), false
		}
		ss.depth++
		out, ok := ss.serialize(inner, v)
		ss.depth--
		return out, ok
	}
	return ss.inferred(v), true
}

// inferred is the best-effort fallback used for extras, Any nodes, and shape
// mismatches: type inspection only, no schema guidance.
func (ss *sstate) inferred(v any) Value {
	val := FromGo(v)
	if ss.text() {
		return ss.textify(val)
	}
	return val
}

// textify rewrites value kinds the interchange format cannot carry.
func (ss *sstate) textify(v Value) Value {
	switch v.Kind() {
	case KindBytes:
		return StringValue(base64.StdEncoding.EncodeToString(v.Bytes()))
	case KindDecimal:
		return StringValue(v.Decimal().String())
	case KindExternal:
		if tm, ok := v.External().(time.Time); ok {
			return StringValue(tm.Format(time.RFC3339))
		}
		return v
	case KindSeq:
		items := make([]Value, len(v.Seq()))
		for i, it := range v.Seq() {
			items[i] = ss.textify(it)
		}
		return SeqValue(items...)
	case KindMap:
		members := make([]Member, len(v.Members()))
		for i, m := range v.Members() {
			members[i] = Member{Key: m.Key, Val: ss.textify(m.Val)}
		}
		return MapValue(members...)
	}
	return v
}

func (ss *sstate) serializeSeq(item Schema, v any) (Value, bool) {
	items, ok := v.([]any)
	if !ok {
		return ss.inferred(v), true
	}
	out := make([]Value, 0, len(items))
	allOK := true
	for i, it := range items {
		ss.pushSeg(IndexSeg(i))
		sv, ok := ss.serialize(item, it)
		ss.popSeg()
		if !ok {
			allOK = false
			continue
		}
		out = append(out, sv)
	}
	return SeqValue(out...), allOK
}

func (ss *sstate) serializeTuple(t *TupleSchema, v any) (Value, bool) {
	items, ok := v.([]any)
	if !ok {
		return ss.inferred(v), true
	}
	out := make([]Value, 0, len(items))
	allOK := true
	for i, it := range items {
		var sub Schema
		switch {
		case i < len(t.Items):
			sub = t.Items[i]
		case t.Variadic != nil:
			sub = t.Variadic
		default:
			sub = nil
		}
		ss.pushSeg(IndexSeg(i))
		var sv Value
		if sub != nil {
			sv, ok = ss.serialize(sub, it)
		} else {
			sv, ok = ss.inferred(it), true
		}
		ss.popSeg()
		if !ok {
			allOK = false
			continue
		}
		out = append(out, sv)
	}
	return SeqValue(out...), allOK
}

func (ss *sstate) serializeDict(t *DictSchema, v any) (Value, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return ss.inferred(v), true
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	members := make([]Member, 0, len(keys))
	allOK := true
	for _, k := range keys {
		ss.pushSeg(FieldSeg(k))
		sv, ok := ss.serialize(t.Value, m[k])
		ss.popSeg()
		if !ok {
			allOK = false
			continue
		}
		members = append(members, Member{Key: StringValue(k), Val: sv})
	}
	return MapValue(members...), allOK
}

func (ss *sstate) serializeUnion(t *UnionSchema, v any) (Value, bool) {
	// pick the first branch that serializes cleanly; serialization has no
	// strict/lax distinction so declaration order decides
	for _, b := range t.Branches {
		probe := &sstate{ctx: ss.ctx, c: ss.c, opt: ss.opt, path: ss.path.clone(), depth: ss.depth}
		if out, ok := probe.serialize(b, v); ok && len(probe.issues) == 0 {
			return out, true
		}
	}
	return ss.inferred(v), true
}

func (ss *sstate) serializeTaggedUnion(t *TaggedUnionSchema, v any) (Value, bool) {
	if m, ok := v.(map[string]any); ok && t.DiscriminatorFn == nil && len(t.Discriminator) > 0 {
		cur := any(m)
		found := true
		for _, step := range t.Discriminator {
			mm, ok := cur.(map[string]any)
			if !ok {
				found = false
				break
			}
			cur, ok = mm[step]
			if !ok {
				found = false
				break
			}
		}
		if found {
			if tag, ok := cur.(string); ok {
				if branch, ok := t.Mapping[tag]; ok {
					return ss.serialize(branch, v)
				}
			}
		}
	}
	return ss.inferred(v), true
}
