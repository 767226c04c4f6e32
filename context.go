package reval

import (
	"context"

	"github.com/reval-go/reval/i18n"
)

// vstate is the per-call validation context: current path, accumulated
// issues, recursion depth, and the sibling-data frames of enclosing records.
// It is created at the start of a top-level call, owned exclusively by it,
// and never shared across calls.
type vstate struct {
	ctx context.Context
	c   *Compiled
	opt Options

	path   Path
	issues Issues
	depth  int

	// data is the stack of already-validated sibling maps, innermost last.
	// Record validation pushes a frame and fills it field by field, so a
	// hook on field N observes exactly fields 0..N-1.
	data []map[string]any

	// strictAll forces strict matching regardless of Options/node flags;
	// used by the smart-union strict probe pass.
	strictAll bool
	// coercions counts lax conversions performed; smart unions pick the
	// branch with the fewest.
	coercions int
	// fieldName is the record field currently being validated, for Info.
	fieldName string
	// omit is the upward "drop this entry" signal raised by ErrOmit hooks
	// and DefaultSchema's on-error omit policy; the nearest record or dict
	// consumes and clears it.
	omit bool
	// useDefault is the upward "substitute the default" signal raised by
	// ErrUseDefault hooks; the nearest DefaultSchema consumes and clears it.
	useDefault bool
}

func newVState(ctx context.Context, c *Compiled, opt Options) *vstate {
	return &vstate{ctx: ctx, c: c, opt: opt}
}

// fork returns an independent probe state sharing the compiled graph and
// options but owning its issues and counters. Union branch probing records
// nothing into the parent.
func (st *vstate) fork(strict bool) *vstate {
	return &vstate{
		ctx:       st.ctx,
		c:         st.c,
		opt:       st.opt,
		path:      st.path.clone(),
		depth:     st.depth,
		data:      st.data,
		strictAll: strict,
		fieldName: st.fieldName,
	}
}

func (st *vstate) pushSeg(s Seg) { st.path = append(st.path, s) }
func (st *vstate) popSeg()       { st.path = st.path[:len(st.path)-1] }

// failed reports whether any issue has been recorded so far.
func (st *vstate) failed() bool { return len(st.issues) > 0 }

// abort reports whether the whole call should stop now.
func (st *vstate) abort() bool { return st.opt.FailFast && st.failed() }

// strayUseDefault consumes a use-default signal that reached a container
// with no enclosing default. The issue lands at the current path, so callers
// invoke it before popping the child segment.
func (st *vstate) strayUseDefault(in Value) {
	if !st.useDefault {
		return
	}
	st.useDefault = false
	st.bad(CodeValueError, in, map[string]any{"reason": "use-default signal without an enclosing default"})
}

// bad records one issue at the current path.
func (st *vstate) bad(code string, in Value, params map[string]any) {
	iss := Issue{
		Path:    st.path.clone(),
		Code:    code,
		Message: i18n.T(code, params),
		Params:  params,
	}
	if !st.opt.HideInput {
		iss.Input = in.Interface()
	}
	st.issues = append(st.issues, iss)
}

// badIssues merges issues produced elsewhere (user hooks, probe commits),
// rebasing empty paths onto the current location.
func (st *vstate) badIssues(in Issues) {
	for _, it := range in {
		if it.Path == nil {
			it.Path = st.path.clone()
		} else if len(st.path) > 0 {
			it.Path = append(st.path.clone(), it.Path...)
		}
		if it.Message == "" {
			it.Message = i18n.T(it.Code, it.Params)
		}
		st.issues = append(st.issues, it)
	}
}

// strict resolves the effective strictness for a node-level flag.
func (st *vstate) strict(node *bool) bool {
	if st.strictAll {
		return true
	}
	if node != nil {
		return *node
	}
	return st.opt.Strict
}

// coerced marks that a lax conversion happened.
func (st *vstate) coerced() { st.coercions++ }

// intern routes validated strings through the optional cache.
func (st *vstate) intern(s string) string {
	if st.opt.Cache == nil {
		return s
	}
	return st.opt.Cache.Intern(s)
}

// siblingData returns the innermost record frame, or nil outside records.
func (st *vstate) siblingData() map[string]any {
	if len(st.data) == 0 {
		return nil
	}
	return st.data[len(st.data)-1]
}

// info materializes a hook Info for WantInfo hooks.
func (st *vstate) info() *Info {
	return &Info{
		FieldName: st.fieldName,
		Path:      st.path.clone(),
		Mode:      st.opt.Mode,
		Data:      st.siblingData(),
		Context:   st.opt.Context,
	}
}
