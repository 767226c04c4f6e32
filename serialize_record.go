package reval

import (
	"reflect"
	"sort"
)

// serializeRecord emits declared fields in declaration order, applying
// per-field inclusion rules and custom serializer hooks, then any retained
// extras in sorted order.
func (ss *sstate) serializeRecord(t *RecordSchema, v any) (Value, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return ss.inferred(v), true
	}

	topLevel := len(ss.path) == 0
	excluded := map[string]bool{}
	if topLevel {
		for _, name := range ss.opt.Exclude {
			excluded[name] = true
		}
	}

	members := make([]Member, 0, len(m))
	allOK := true
	declared := map[string]bool{}

	for i := range t.Fields {
		f := &t.Fields[i]
		declared[f.Name] = true
		if f.Exclude || excluded[f.Name] {
			continue
		}
		fv, present := m[f.Name]
		if !present {
			// omitted by on-error omit or an optional field; nothing to emit
			continue
		}
		if ss.opt.ExcludeNil && fv == nil {
			continue
		}
		if ss.opt.ExcludeDefaults {
			if ds := findDefault(f.Schema); ds != nil && ds.Default != nil && reflect.DeepEqual(fv, ds.Default) {
				continue
			}
		}
		if f.ExcludeIf != nil && f.ExcludeIf(fv) {
			continue
		}

		key := f.Name
		if ss.opt.ByAlias && f.SerAlias != "" {
			key = f.SerAlias
		}

		prev := ss.fieldName
		ss.fieldName = f.Name
		ss.pushSeg(FieldSeg(f.Name))
		sv, fok := ss.serializeField(f, fv)
		ss.popSeg()
		ss.fieldName = prev
		if !fok {
			allOK = false
			continue
		}
		members = append(members, Member{Key: StringValue(key), Val: sv})
	}

	// extras retained under allow, best-effort by type inspection
	extras := make([]string, 0)
	for k := range m {
		if !declared[k] {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		if excluded[k] {
			continue
		}
		ss.pushSeg(FieldSeg(k))
		var sv Value
		var eok bool
		if t.Extras != nil {
			sv, eok = ss.serialize(t.Extras, m[k])
		} else {
			sv, eok = ss.inferred(m[k]), true
		}
		ss.popSeg()
		if !eok {
			allOK = false
			continue
		}
		members = append(members, Member{Key: StringValue(k), Val: sv})
	}

	return MapValue(members...), allOK
}

// serializeField applies the field's custom serializer when its when-used
// gate admits the current mode, falling back to schema-driven emission.
func (ss *sstate) serializeField(f *Field, v any) (Value, bool) {
	hook := f.Serializer
	if hook == nil || !ss.whenUsedApplies(hook.WhenUsed, v) {
		return ss.serialize(f.Schema, v)
	}

	if hook.WrapFn != nil {
		handler := func(inner any) (any, error) {
			probe := &sstate{ctx: ss.ctx, c: ss.c, opt: ss.opt, path: ss.path.clone(), depth: ss.depth}
			out, ok := probe.serialize(f.Schema, inner)
			if !ok && len(probe.issues) > 0 {
				return nil, probe.issues
			}
			return out.Interface(), nil
		}
		out, err := hook.WrapFn(ss.ctx, v, handler, ss.info())
		if err != nil {
			ss.serializerFailed(err)
			return NullValue(), false
		}
		return ss.inferred(out), true
	}

	out, err := hook.Fn(ss.ctx, v, ss.info())
	if err != nil {
		ss.serializerFailed(err)
		return NullValue(), false
	}
	return ss.inferred(out), true
}

func (ss *sstate) serializerFailed(err error) {
	if iss, ok := AsIssues(err); ok {
		for _, it := range iss {
			if it.Path == nil {
				it.Path = ss.path.clone()
			}
			ss.issues = append(ss.issues, it)
		}
		return
	}
	ss.issues = append(ss.issues, Issue{
		Path:    ss.path.clone(),
		Code:    CodeValueError,
		Message: err.Error(),
		Cause:   err,
	})
}

// whenUsedApplies gates custom serializers by mode and nil-ness.
func (ss *sstate) whenUsedApplies(w WhenUsed, v any) bool {
	switch w {
	case WhenAlways:
		return true
	case WhenUnlessNil:
		return v != nil
	case WhenJSON:
		return ss.text()
	case WhenJSONUnlessNil:
		return ss.text() && v != nil
	}
	return true
}
