package reval

// Record validation walks declared fields in order, filling the sibling-data
// frame after each success so a hook on field N can read fields 0..N-1 (and
// only those) through Info.Data. Independent field failures accumulate; one
// call reports them all unless fail-fast applies.

func (st *vstate) validateRecord(t *RecordSchema, in Value) (any, bool) {
	lookup, listExtras, ok := st.recordInput(t, in)
	if !ok {
		return nil, false
	}

	frame := make(map[string]any, len(t.Fields))
	st.data = append(st.data, frame)
	prevField := st.fieldName
	defer func() {
		st.data = st.data[:len(st.data)-1]
		st.fieldName = prevField
	}()

	mark := len(st.issues)
	out := make(map[string]any, len(t.Fields))

	for i := range t.Fields {
		f := &t.Fields[i]
		st.fieldName = f.Name

		raw, found := lookupField(lookup, f)
		if !found {
			if ds := findDefault(f.Schema); ds != nil {
				before := len(st.issues)
				st.pushSeg(FieldSeg(f.Name))
				dv, dok := st.applyDefault(ds)
				if !dok && len(st.issues) == before && f.Required {
					// default schema had no value to supply
					st.bad(CodeMissing, in, nil)
				}
				st.popSeg()
				if dok {
					out[f.Name] = dv
					frame[f.Name] = dv
				}
			} else if f.Required {
				st.pushSeg(FieldSeg(f.Name))
				st.bad(CodeMissing, in, nil)
				st.popSeg()
			}
			if t.FailFast && len(st.issues) > mark {
				break
			}
			if st.abort() {
				break
			}
			continue
		}

		st.pushSeg(FieldSeg(f.Name))
		v, vok := st.validate(f.Schema, raw)
		if !vok {
			st.strayUseDefault(raw)
		}
		st.popSeg()
		if !vok {
			if st.omit {
				st.omit = false
				if f.Required {
					st.pushSeg(FieldSeg(f.Name))
					st.bad(CodeMissing, in, nil)
					st.popSeg()
				}
			}
			if t.FailFast && len(st.issues) > mark {
				break
			}
			if st.abort() {
				break
			}
			continue
		}
		out[f.Name] = v
		frame[f.Name] = v
	}

	if listExtras != nil {
		st.recordExtras(t, listExtras(), out, mark)
	}
	return out, len(st.issues) == mark
}

// validateAssignment revalidates one field of an already-validated record.
// The sibling frame holds the current snapshot so data-dependent hooks and
// factories see the other fields.
func (st *vstate) validateAssignment(t *RecordSchema, name string, in Value, current map[string]any) map[string]any {
	var f *Field
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			f = &t.Fields[i]
			break
		}
	}

	out := make(map[string]any, len(current)+1)
	for k, v := range current {
		out[k] = v
	}

	st.pushSeg(FieldSeg(name))
	defer st.popSeg()

	if f == nil {
		behavior := t.Extra
		if behavior == ExtraUnset {
			behavior = st.opt.Extra
		}
		if behavior != ExtraAllow {
			st.bad(CodeExtraForbidden, in, nil)
			return nil
		}
		if t.Extras == nil {
			out[name] = in.Interface()
			return out
		}
		v, ok := st.validate(t.Extras, in)
		if !ok {
			st.strayUseDefault(in)
			st.omit = false
			return nil
		}
		out[name] = v
		return out
	}

	if f.Frozen {
		st.bad(CodeFrozenField, in, nil)
		return nil
	}

	frame := make(map[string]any, len(current))
	for k, v := range current {
		if k != name {
			frame[k] = v
		}
	}
	st.data = append(st.data, frame)
	prevField := st.fieldName
	st.fieldName = f.Name
	defer func() {
		st.data = st.data[:len(st.data)-1]
		st.fieldName = prevField
	}()

	v, ok := st.validate(f.Schema, in)
	if !ok {
		if st.omit {
			st.omit = false
			delete(out, name)
			return out
		}
		st.strayUseDefault(in)
		return nil
	}
	out[name] = v
	return out
}

// recordInput resolves the two accepted input shapes: a mapping, or (with
// FromAttributes) an external object probed through the GetAttr glue.
func (st *vstate) recordInput(t *RecordSchema, in Value) (func(string) (Value, bool), func() []Member, bool) {
	switch in.Kind() {
	case KindMap:
		idx := make(map[string]int, len(in.Members()))
		members := in.Members()
		for i, m := range members {
			if m.Key.Kind() == KindString {
				if _, dup := idx[m.Key.Str()]; !dup {
					idx[m.Key.Str()] = i
				}
			}
		}
		lookup := func(name string) (Value, bool) {
			i, ok := idx[name]
			if !ok {
				return Value{}, false
			}
			return members[i].Val, true
		}
		return lookup, func() []Member { return members }, true
	case KindExternal:
		if t.FromAttributes && t.GetAttr != nil {
			obj := in.External()
			lookup := func(name string) (Value, bool) {
				v, ok := t.GetAttr(obj, name)
				if !ok {
					return Value{}, false
				}
				return FromGo(v), true
			}
			// attribute sets are not enumerable through the glue; extra-key
			// handling does not apply
			return lookup, nil, true
		}
	}
	st.bad(CodeRecordType, in, map[string]any{"got": in.Kind().String(), "record": t.Name})
	return nil, nil, false
}

// lookupField tries validation aliases in order, then the field name.
func lookupField(lookup func(string) (Value, bool), f *Field) (Value, bool) {
	for _, a := range f.Aliases {
		if v, ok := lookup(a); ok {
			return v, true
		}
	}
	return lookup(f.Name)
}

// recordExtras applies the extra-key policy to input keys matching no field.
func (st *vstate) recordExtras(t *RecordSchema, members []Member, out map[string]any, mark int) {
	behavior := t.Extra
	if behavior == ExtraUnset {
		behavior = st.opt.Extra
		if behavior == ExtraUnset {
			behavior = ExtraIgnore
		}
	}
	if behavior == ExtraIgnore {
		return
	}

	known := map[string]bool{}
	for i := range t.Fields {
		known[t.Fields[i].Name] = true
		for _, a := range t.Fields[i].Aliases {
			known[a] = true
		}
	}

	for _, m := range members {
		if m.Key.Kind() != KindString || known[m.Key.Str()] {
			continue
		}
		key := m.Key.Str()
		switch behavior {
		case ExtraForbid:
			st.pushSeg(FieldSeg(key))
			st.bad(CodeExtraForbidden, m.Val, nil)
			st.popSeg()
			if t.FailFast || st.abort() {
				return
			}
		case ExtraAllow:
			if t.Extras == nil {
				out[key] = m.Val.Interface()
				continue
			}
			st.pushSeg(FieldSeg(key))
			v, ok := st.validate(t.Extras, m.Val)
			if !ok {
				st.strayUseDefault(m.Val)
			}
			st.popSeg()
			if !ok {
				st.omit = false
				if t.FailFast || st.abort() {
					return
				}
				continue
			}
			out[key] = v
		}
	}
}

// findDefault unwraps pass-through wrappers to locate a DefaultSchema able
// to supply a value for an absent field.
func findDefault(s Schema) *DefaultSchema {
	switch t := s.(type) {
	case *DefaultSchema:
		return t
	case *NullableSchema:
		return findDefault(t.Inner)
	case *CustomErrorSchema:
		return findDefault(t.Inner)
	}
	return nil
}

// applyDefault produces the default for an absent field, validating it
// through the wrapped schema only when validate-default is in force.
func (st *vstate) applyDefault(t *DefaultSchema) (any, bool) {
	def, has := st.defaultValue(t)
	if !has {
		return nil, false
	}
	validate := st.opt.ValidateDefault
	if t.ValidateDefault != nil {
		validate = *t.ValidateDefault
	}
	if !validate {
		return def, true
	}
	return st.validate(t.Inner, FromGo(def))
}

func (st *vstate) defaultValue(t *DefaultSchema) (any, bool) {
	switch {
	case t.DataFactory != nil:
		return t.DataFactory(st.siblingData()), true
	case t.Factory != nil:
		return t.Factory(), true
	case t.Default != nil:
		return t.Default, true
	}
	return nil, false
}

// validateDefaultWrapped handles a *present* value flowing through a
// DefaultSchema; the on-error policy decides what a failure of the inner
// schema means.
func (st *vstate) validateDefaultWrapped(t *DefaultSchema, in Value) (any, bool) {
	mark := len(st.issues)
	out, ok := st.validate(t.Inner, in)
	if ok {
		return out, true
	}
	if st.useDefault {
		// a hook asked for the default explicitly
		st.useDefault = false
		st.issues = st.issues[:mark]
		return st.applyDefault(t)
	}
	if st.omit {
		// an inner omit signal passes through untouched
		return nil, false
	}
	switch t.OnError {
	case OnErrorDefault:
		st.issues = st.issues[:mark]
		def, has := st.defaultValue(t)
		if !has {
			return nil, false
		}
		return def, true
	case OnErrorOmit:
		st.issues = st.issues[:mark]
		st.omit = true
		return nil, false
	default: // OnErrorRaise
		return nil, false
	}
}
