package reval

import (
	"fmt"
	"strconv"
)

// Containers visit every child even after failures so one call reports all
// item errors alongside any length violation, unless the node's FailFast
// flag stops iteration at the first failing child.

func (st *vstate) validateList(t *ListSchema, in Value) (any, bool) {
	if in.Kind() != KindSeq {
		st.bad(CodeListType, in, map[string]any{"got": in.Kind().String()})
		return nil, false
	}
	items := in.Seq()
	out := make([]any, 0, len(items))
	mark := len(st.issues)
	for i, item := range items {
		st.pushSeg(IndexSeg(i))
		v, ok := st.validate(t.Item, item)
		if !ok {
			st.strayUseDefault(item)
		}
		st.popSeg()
		if !ok {
			if st.omit {
				st.omit = false
				continue
			}
			if t.FailFast || st.abort() {
				break
			}
			continue
		}
		out = append(out, v)
	}
	st.checkSeqLen(len(items), t.MinLen, t.MaxLen, in)
	return out, len(st.issues) == mark
}

func (st *vstate) validateTuple(t *TupleSchema, in Value) (any, bool) {
	if in.Kind() != KindSeq {
		st.bad(CodeTupleType, in, map[string]any{"got": in.Kind().String()})
		return nil, false
	}
	items := in.Seq()
	mark := len(st.issues)
	out := make([]any, 0, len(items))

	for i, sub := range t.Items {
		if i >= len(items) {
			st.pushSeg(IndexSeg(i))
			st.bad(CodeMissing, in, nil)
			st.popSeg()
			if t.FailFast || st.abort() {
				break
			}
			continue
		}
		st.pushSeg(IndexSeg(i))
		v, ok := st.validate(sub, items[i])
		if !ok {
			if st.omit {
				// a fixed position cannot be dropped without shifting the rest
				st.omit = false
				st.bad(CodeValueError, items[i], map[string]any{"reason": "omit signal in a fixed tuple position"})
			}
			st.strayUseDefault(items[i])
		}
		st.popSeg()
		if !ok {
			if t.FailFast || st.abort() {
				break
			}
			continue
		}
		out = append(out, v)
	}

	if len(items) > len(t.Items) {
		if t.Variadic == nil {
			st.bad(CodeTooLong, in, map[string]any{"max_length": len(t.Items), "got": len(items)})
		} else {
			for i := len(t.Items); i < len(items); i++ {
				st.pushSeg(IndexSeg(i))
				v, ok := st.validate(t.Variadic, items[i])
				if !ok {
					st.strayUseDefault(items[i])
				}
				st.popSeg()
				if !ok {
					if st.omit {
						st.omit = false
						continue
					}
					if t.FailFast || st.abort() {
						break
					}
					continue
				}
				out = append(out, v)
			}
		}
	}
	return out, len(st.issues) == mark
}

func (st *vstate) validateSet(t *SetSchema, in Value) (any, bool) {
	if in.Kind() != KindSeq {
		st.bad(CodeSetType, in, map[string]any{"got": in.Kind().String()})
		return nil, false
	}
	items := in.Seq()
	mark := len(st.issues)
	out := make([]any, 0, len(items))
	seen := map[string]bool{}

	for i, item := range items {
		st.pushSeg(IndexSeg(i))
		v, ok := st.validate(t.Item, item)
		if !ok {
			st.strayUseDefault(item)
			st.popSeg()
			if st.omit {
				st.omit = false
				continue
			}
			if t.FailFast || st.abort() {
				break
			}
			continue
		}
		k := setKey(v)
		if seen[k] {
			st.bad(CodeSetItemDuplicate, item, nil)
			st.popSeg()
			if t.FailFast || st.abort() {
				break
			}
			continue
		}
		st.popSeg()
		seen[k] = true
		out = append(out, v)
	}
	st.checkSeqLen(len(out), t.MinLen, t.MaxLen, in)
	return out, len(st.issues) == mark
}

// setKey builds a canonical identity for uniqueness checks across the scalar
// output types the engine produces.
func setKey(v any) string {
	switch t := v.(type) {
	case string:
		return "s:" + t
	case int64:
		return "i:" + strconv.FormatInt(t, 10)
	case bool:
		return "b:" + strconv.FormatBool(t)
	case float64:
		return "f:" + strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}

func (st *vstate) validateDict(t *DictSchema, in Value) (any, bool) {
	if in.Kind() != KindMap {
		st.bad(CodeDictType, in, map[string]any{"got": in.Kind().String()})
		return nil, false
	}
	members := in.Members()
	mark := len(st.issues)
	out := make(map[string]any, len(members))

	for _, m := range members {
		label := keyLabel(m.Key)
		st.pushSeg(FieldSeg(label))

		kv, kok := st.validate(t.Key, m.Key)
		if !kok {
			st.strayUseDefault(m.Key)
			// relocate the key's own failures under the "[key]" marker
			st.retagKeyIssues(mark)
			st.popSeg()
			st.omit = false
			if t.FailFast || st.abort() {
				break
			}
			continue
		}
		vv, vok := st.validate(t.Value, m.Val)
		if !vok {
			st.strayUseDefault(m.Val)
		}
		st.popSeg()
		if !vok {
			if st.omit {
				st.omit = false
				continue
			}
			if t.FailFast || st.abort() {
				break
			}
			continue
		}
		out[keyString(kv)] = vv
	}
	st.checkSeqLen(len(members), t.MinLen, t.MaxLen, in)
	return out, len(st.issues) == mark
}

// retagKeyIssues appends the synthetic "[key]" marker to issues recorded for
// the current dict entry's key, so key failures are distinguishable from
// value failures at the same name.
func (st *vstate) retagKeyIssues(mark int) {
	for i := mark; i < len(st.issues); i++ {
		p := st.issues[i].Path
		if len(p) >= len(st.path) && p[:len(st.path)].String() == st.path.String() {
			if len(p) == len(st.path) {
				st.issues[i].Path = append(p, KeySeg())
			}
		}
	}
}

func keyLabel(k Value) string {
	switch k.Kind() {
	case KindString:
		return k.Str()
	case KindInt:
		return strconv.FormatInt(k.Int(), 10)
	case KindBool:
		return strconv.FormatBool(k.Bool())
	default:
		return fmt.Sprintf("%v", k.Interface())
	}
}

func keyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func (st *vstate) checkSeqLen(n int, min, max *int, in Value) {
	if min != nil && n < *min {
		st.bad(CodeTooShort, in, map[string]any{"min_length": *min, "got": n})
	}
	if max != nil && n > *max {
		st.bad(CodeTooLong, in, map[string]any{"max_length": *max, "got": n})
	}
}
