package reval

import "errors"

// validateFunction dispatches the four user-hook placements. Hooks signal
// through explicit return values: a plain error records a value_error,
// Issues pass through structurally, and the ErrUseDefault/ErrOmit sentinels
// raise the corresponding short-circuit instead of failing.
func (st *vstate) validateFunction(t *FunctionSchema, in Value) (any, bool) {
	var info *Info
	if t.WantInfo {
		info = st.info()
	}

	switch t.Mode {
	case FuncBefore:
		raw, err := t.Fn(st.ctx, in.Interface(), info)
		if err != nil {
			return st.hookFailed(err, in)
		}
		return st.validate(t.Inner, FromGo(raw))

	case FuncAfter:
		v, ok := st.validate(t.Inner, in)
		if !ok {
			// the after hook only runs on inner success
			return nil, false
		}
		out, err := t.Fn(st.ctx, v, info)
		if err != nil {
			return st.hookFailed(err, in)
		}
		return out, true

	case FuncPlain:
		out, err := t.Fn(st.ctx, in.Interface(), info)
		if err != nil {
			return st.hookFailed(err, in)
		}
		// whatever plain returns is final; zero further validation
		return out, true

	case FuncWrap:
		handler := func(v any) (any, error) {
			hs := st.fork(st.strictAll)
			out, ok := hs.validate(t.Inner, FromGo(v))
			if !ok {
				if len(hs.issues) == 0 {
					return nil, NewValueError("inner schema rejected value")
				}
				return nil, hs.issues
			}
			st.coercions += hs.coercions
			return out, nil
		}
		out, err := t.WrapFn(st.ctx, in.Interface(), handler, info)
		if err != nil {
			return st.hookFailed(err, in)
		}
		return out, true
	}

	st.bad(CodeValueError, in, map[string]any{"reason": "unknown function mode"})
	return nil, false
}

// hookFailed translates a hook's error return into engine state: sentinel
// short-circuits, structured Issues, or a single value_error.
func (st *vstate) hookFailed(err error, in Value) (any, bool) {
	switch {
	case errors.Is(err, ErrUseDefault):
		st.useDefault = true
		return nil, false
	case errors.Is(err, ErrOmit):
		st.omit = true
		return nil, false
	}
	if iss, ok := AsIssues(err); ok {
		st.badIssues(iss)
		return nil, false
	}
	issue := Issue{
		Path:    st.path.clone(),
		Code:    CodeValueError,
		Message: err.Error(),
		Cause:   err,
	}
	if !st.opt.HideInput {
		issue.Input = in.Interface()
	}
	st.issues = append(st.issues, issue)
	return nil, false
}
