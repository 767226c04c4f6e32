package reval

import "strconv"

// probeResult captures one speculative branch run. Probe issues are internal
// to the union algorithm; they surface only inside the aggregated
// union_invalid issue when no branch matches.
type probeResult struct {
	value     any
	ok        bool
	coercions int
	issues    Issues
}

func (st *vstate) probeBranch(s Schema, in Value, strict bool) probeResult {
	ps := st.fork(strict)
	v, ok := ps.validate(s, in)
	return probeResult{value: v, ok: ok, coercions: ps.coercions, issues: ps.issues}
}

func (st *vstate) validateUnion(t *UnionSchema, in Value) (any, bool) {
	if t.Mode == UnionLeftToRight {
		return st.validateUnionLTR(t, in)
	}
	return st.validateUnionSmart(t, in)
}

// validateUnionSmart implements the two-pass resolution: a strict probe over
// every branch first, then a lax retry picking the branch that needed the
// fewest coercions. Ties prefer the branch whose concrete kind equals the
// input kind, then the earliest-declared branch. Callers rely on this
// ordering being deterministic.
func (st *vstate) validateUnionSmart(t *UnionSchema, in Value) (any, bool) {
	strictRes := make([]probeResult, len(t.Branches))
	winner := -1
	for i, b := range t.Branches {
		strictRes[i] = st.probeBranch(b, in, true)
		if strictRes[i].ok && winner < 0 {
			winner = i
		}
	}
	if winner >= 0 {
		st.coercions += strictRes[winner].coercions
		return strictRes[winner].value, true
	}
	if st.strictAll {
		// inside an outer strict probe there is no lax retry
		st.unionFailed(t, in, strictRes)
		return nil, false
	}

	laxRes := make([]probeResult, len(t.Branches))
	best := -1
	bestKindMatch := false
	for i, b := range t.Branches {
		laxRes[i] = st.probeBranch(b, in, false)
		if !laxRes[i].ok {
			continue
		}
		kindMatch := branchKind(b) == in.Kind()
		switch {
		case best < 0,
			laxRes[i].coercions < laxRes[best].coercions,
			laxRes[i].coercions == laxRes[best].coercions && kindMatch && !bestKindMatch:
			best = i
			bestKindMatch = kindMatch
		}
	}
	if best >= 0 {
		st.coercions += laxRes[best].coercions
		return laxRes[best].value, true
	}
	st.unionFailed(t, in, laxRes)
	return nil, false
}

func (st *vstate) validateUnionLTR(t *UnionSchema, in Value) (any, bool) {
	all := make([]probeResult, len(t.Branches))
	for i, b := range t.Branches {
		all[i] = st.probeBranch(b, in, st.strictAll)
		if all[i].ok {
			st.coercions += all[i].coercions
			return all[i].value, true
		}
	}
	st.unionFailed(t, in, all)
	return nil, false
}

// unionFailed emits the single aggregated issue listing every branch's
// failure reasons tagged by branch label.
func (st *vstate) unionFailed(t *UnionSchema, in Value, res []probeResult) {
	branches := make(map[string]any, len(res))
	for i, r := range res {
		reasons := make([]string, 0, len(r.issues))
		for _, iss := range r.issues {
			reasons = append(reasons, iss.Code+" at "+iss.Path.String())
		}
		branches[st.unionLabel(t, i)] = reasons
	}
	st.bad(CodeUnionInvalid, in, map[string]any{"branches": branches})
}

func (st *vstate) unionLabel(t *UnionSchema, i int) string {
	if i < len(t.Labels) && t.Labels[i] != "" {
		return t.Labels[i]
	}
	if r, ok := t.Branches[i].(*RecordSchema); ok && r.Name != "" {
		return r.Name
	}
	return strconv.Itoa(i)
}

// branchKind maps a branch schema to the input kind it most naturally
// consumes, for smart-mode tie-breaking.
func branchKind(s Schema) ValueKind {
	switch t := s.(type) {
	case *BoolSchema:
		return KindBool
	case *IntSchema:
		return KindInt
	case *FloatSchema:
		return KindFloat
	case *DecimalSchema:
		return KindDecimal
	case *StringSchema:
		return KindString
	case *BytesSchema:
		return KindBytes
	case *ListSchema, *TupleSchema, *SetSchema:
		return KindSeq
	case *DictSchema, *RecordSchema:
		return KindMap
	case *NoneSchema:
		return KindNull
	case *NullableSchema:
		return branchKind(t.Inner)
	case *DefaultSchema:
		return branchKind(t.Inner)
	case *CustomErrorSchema:
		return branchKind(t.Inner)
	case *FunctionSchema:
		if t.Inner != nil {
			return branchKind(t.Inner)
		}
	}
	return KindExternal
}

// validateTaggedUnion dispatches on the discriminator in O(1): the branch
// bodies are never probed, and an absent or unrecognized tag fails without
// scanning.
func (st *vstate) validateTaggedUnion(t *TaggedUnionSchema, in Value) (any, bool) {
	tag, found := st.discriminatorValue(t, in)
	if !found {
		st.pushDiscriminatorSeg(t)
		st.bad(CodeUnionTagNotFound, in, map[string]any{"discriminator": t.Discriminator})
		st.popDiscriminatorSeg(t)
		return nil, false
	}
	branch, ok := t.Mapping[tag]
	if !ok {
		st.pushDiscriminatorSeg(t)
		st.bad(CodeUnionTagInvalid, in, map[string]any{"tag": tag})
		st.popDiscriminatorSeg(t)
		return nil, false
	}
	return st.validate(branch, in)
}

func (st *vstate) discriminatorValue(t *TaggedUnionSchema, in Value) (string, bool) {
	if t.DiscriminatorFn != nil {
		return t.DiscriminatorFn(in)
	}
	cur := in
	for _, step := range t.Discriminator {
		switch cur.Kind() {
		case KindMap:
			v, ok := cur.Get(step)
			if !ok {
				return "", false
			}
			cur = v
		case KindExternal:
			// attribute-path extraction requires host glue; without it the
			// tag is simply not found
			return "", false
		default:
			return "", false
		}
	}
	switch cur.Kind() {
	case KindString:
		return cur.Str(), true
	case KindInt:
		return strconv.FormatInt(cur.Int(), 10), true
	case KindBool:
		return strconv.FormatBool(cur.Bool()), true
	}
	return "", false
}

func (st *vstate) pushDiscriminatorSeg(t *TaggedUnionSchema) {
	if t.DiscriminatorFn == nil {
		for _, step := range t.Discriminator {
			st.pushSeg(FieldSeg(step))
		}
	}
}

func (st *vstate) popDiscriminatorSeg(t *TaggedUnionSchema) {
	if t.DiscriminatorFn == nil {
		for range t.Discriminator {
			st.popSeg()
		}
	}
}
