package reval

// validate walks one schema node against one input value, recording failures
// into the state and returning the validated native value. The bool result
// reports success; on failure the value is meaningless. The walker never
// mutates the compiled graph.
func (st *vstate) validate(s Schema, in Value) (any, bool) {
	switch t := s.(type) {
	case *AnySchema:
		return in.Interface(), true
	case *NoneSchema:
		if in.IsNull() {
			return nil, true
		}
		st.bad(CodeNoneRequired, in, nil)
		return nil, false
	case *BoolSchema:
		return st.validateBool(t, in)
	case *IntSchema:
		return st.validateInt(t, in)
	case *FloatSchema:
		return st.validateFloat(t, in)
	case *DecimalSchema:
		return st.validateDecimal(t, in)
	case *StringSchema:
		return st.validateString(t, in)
	case *BytesSchema:
		return st.validateBytes(t, in)
	case *DateTimeSchema:
		return st.validateDateTime(t, in)
	case *LiteralSchema:
		return st.validateLiteral(t, in)
	case *ListSchema:
		return st.validateList(t, in)
	case *TupleSchema:
		return st.validateTuple(t, in)
	case *SetSchema:
		return st.validateSet(t, in)
	case *DictSchema:
		return st.validateDict(t, in)
	case *RecordSchema:
		return st.validateRecord(t, in)
	case *UnionSchema:
		return st.validateUnion(t, in)
	case *TaggedUnionSchema:
		return st.validateTaggedUnion(t, in)
	case *DefaultSchema:
		return st.validateDefaultWrapped(t, in)
	case *NullableSchema:
		if in.IsNull() {
			return nil, true
		}
		return st.validate(t.Inner, in)
	case *FunctionSchema:
		return st.validateFunction(t, in)
	case *CustomErrorSchema:
		return st.validateCustomError(t, in)
	case *RefSchema:
		return st.validateRef(t, in)
	default:
		// unreachable for compiled graphs; Compile rejects unknown nodes
		st.bad(CodeValueError, in, map[string]any{"reason": "unsupported schema node"})
		return nil, false
	}
}

// validateRef resolves a definition reference and recurses with the depth
// counter as the cycle-safety mechanism: a truly self-nested value against a
// recursive schema terminates with recursion_error, never a stack overflow.
func (st *vstate) validateRef(t *RefSchema, in Value) (any, bool) {
	if st.depth >= st.opt.maxDepth() {
		st.bad(CodeRecursionError, in, map[string]any{"max_depth": st.opt.maxDepth()})
		return nil, false
	}
	inner, ok := st.c.Definition(t.Name)
	if !ok {
		// unreachable after Compile; keep the walker total
		st.bad(CodeValueError, in, map[string]any{"reason": "unresolved reference " + t.Name})
		return nil, false
	}
	st.depth++
	out, ok := st.validate(inner, in)
	st.depth--
	return out, ok
}

// validateCustomError replaces every failure of the inner schema with a
// single issue carrying the configured code and message.
func (st *vstate) validateCustomError(t *CustomErrorSchema, in Value) (any, bool) {
	mark := len(st.issues)
	out, ok := st.validate(t.Inner, in)
	if ok {
		return out, true
	}
	st.issues = st.issues[:mark]
	iss := Issue{Path: st.path.clone(), Code: t.Code, Message: t.Message}
	if iss.Message == "" {
		iss.Message = t.Code
	}
	if !st.opt.HideInput {
		iss.Input = in.Interface()
	}
	st.issues = append(st.issues, iss)
	return nil, false
}

func (st *vstate) validateLiteral(t *LiteralSchema, in Value) (any, bool) {
	for _, want := range t.Values {
		switch w := want.(type) {
		case string:
			if in.Kind() == KindString && in.Str() == w {
				return w, true
			}
		case bool:
			if in.Kind() == KindBool && in.Bool() == w {
				return w, true
			}
		case int:
			if in.Kind() == KindInt && in.Int() == int64(w) {
				return int64(w), true
			}
		case int64:
			if in.Kind() == KindInt && in.Int() == w {
				return w, true
			}
		}
	}
	st.bad(CodeLiteralError, in, map[string]any{"expected": t.Values})
	return nil, false
}
