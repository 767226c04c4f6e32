package reval

import (
	"errors"
	"fmt"
	"regexp"
)

// Compile-time failure sentinels, matchable with errors.Is.
var (
	ErrUnresolvedRef = errors.New("reval: unresolved definition reference")
	ErrSchemaCycle   = errors.New("reval: schema cycle without definition reference")
	ErrBadSchema     = errors.New("reval: invalid schema")
)

// Compiled is a finalized schema graph: root node, definitions table, and
// precompiled patterns. It is immutable and safe for concurrent use by any
// number of validation and serialization calls.
type Compiled struct {
	root     Schema
	defs     map[string]Schema
	patterns map[string]*regexp.Regexp
}

// Root returns the root node.
func (c *Compiled) Root() Schema { return c.root }

// Definition resolves a named definition in O(1).
func (c *Compiled) Definition(name string) (Schema, bool) {
	s, ok := c.defs[name]
	return s, ok
}

// Compile finalizes a schema graph. It resolves every RefSchema against
// defs, rejects direct structural cycles that do not pass through a
// RefSchema, validates constraint combinations, and compiles string
// patterns. All construction-time errors surface here, never at validation
// time.
func Compile(root Schema, defs map[string]Schema) (*Compiled, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root", ErrBadSchema)
	}
	c := &Compiled{
		root:     root,
		defs:     make(map[string]Schema, len(defs)),
		patterns: map[string]*regexp.Regexp{},
	}
	for name, s := range defs {
		if s == nil {
			return nil, fmt.Errorf("%w: nil definition %q", ErrBadSchema, name)
		}
		c.defs[name] = s
	}

	w := &compileWalk{c: c, onStack: map[Schema]bool{}, done: map[Schema]bool{}}
	if err := w.walk(root); err != nil {
		return nil, err
	}
	for name, s := range c.defs {
		if err := w.walk(s); err != nil {
			return nil, fmt.Errorf("definition %q: %w", name, err)
		}
	}
	return c, nil
}

// MustCompile is Compile panicking on error, for static graphs.
func MustCompile(root Schema, defs map[string]Schema) *Compiled {
	c, err := Compile(root, defs)
	if err != nil {
		panic(err)
	}
	return c
}

type compileWalk struct {
	c       *Compiled
	onStack map[Schema]bool
	done    map[Schema]bool
}

func (w *compileWalk) walk(s Schema) error {
	if s == nil {
		return fmt.Errorf("%w: nil node", ErrBadSchema)
	}
	if w.done[s] {
		return nil
	}
	if w.onStack[s] {
		return ErrSchemaCycle
	}
	w.onStack[s] = true
	defer func() {
		delete(w.onStack, s)
		w.done[s] = true
	}()

	switch t := s.(type) {
	case *RefSchema:
		if _, ok := w.c.defs[t.Name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnresolvedRef, t.Name)
		}
		// do not descend: refs are the sanctioned cycle point
		return nil
	case *StringSchema:
		return w.checkString(t)
	case *IntSchema:
		if (t.Ge != nil && t.Gt != nil) || (t.Le != nil && t.Lt != nil) {
			return fmt.Errorf("%w: int bounds set both inclusive and exclusive", ErrBadSchema)
		}
		if t.MultipleOf != nil && *t.MultipleOf <= 0 {
			return fmt.Errorf("%w: multiple_of must be positive", ErrBadSchema)
		}
	case *FloatSchema:
		if t.MultipleOf != nil && *t.MultipleOf <= 0 {
			return fmt.Errorf("%w: multiple_of must be positive", ErrBadSchema)
		}
	case *LiteralSchema:
		if len(t.Values) == 0 {
			return fmt.Errorf("%w: literal schema with no values", ErrBadSchema)
		}
		for _, v := range t.Values {
			switch v.(type) {
			case string, bool, int, int64:
			default:
				return fmt.Errorf("%w: literal values must be string, bool or int", ErrBadSchema)
			}
		}
	case *ListSchema:
		if err := checkLen(t.MinLen, t.MaxLen); err != nil {
			return err
		}
		return w.walk(t.Item)
	case *SetSchema:
		if err := checkLen(t.MinLen, t.MaxLen); err != nil {
			return err
		}
		return w.walk(t.Item)
	case *TupleSchema:
		if len(t.Items) == 0 && t.Variadic == nil {
			return fmt.Errorf("%w: empty tuple schema", ErrBadSchema)
		}
		for _, it := range t.Items {
			if err := w.walk(it); err != nil {
				return err
			}
		}
		if t.Variadic != nil {
			return w.walk(t.Variadic)
		}
	case *DictSchema:
		if err := checkLen(t.MinLen, t.MaxLen); err != nil {
			return err
		}
		if err := w.walk(t.Key); err != nil {
			return err
		}
		return w.walk(t.Value)
	case *RecordSchema:
		return w.checkRecord(t)
	case *UnionSchema:
		if len(t.Branches) == 0 {
			return fmt.Errorf("%w: union with no branches", ErrBadSchema)
		}
		if len(t.Labels) > 0 && len(t.Labels) != len(t.Branches) {
			return fmt.Errorf("%w: union labels/branches length mismatch", ErrBadSchema)
		}
		for _, b := range t.Branches {
			if err := w.walk(b); err != nil {
				return err
			}
		}
	case *TaggedUnionSchema:
		if len(t.Mapping) == 0 {
			return fmt.Errorf("%w: tagged union with empty mapping", ErrBadSchema)
		}
		if len(t.Discriminator) == 0 && t.DiscriminatorFn == nil {
			return fmt.Errorf("%w: tagged union without discriminator", ErrBadSchema)
		}
		for _, b := range t.Mapping {
			if err := w.walk(b); err != nil {
				return err
			}
		}
	case *DefaultSchema:
		n := 0
		if t.Default != nil {
			n++
		}
		if t.Factory != nil {
			n++
		}
		if t.DataFactory != nil {
			n++
		}
		if n > 1 {
			return fmt.Errorf("%w: default schema with multiple default sources", ErrBadSchema)
		}
		return w.walk(t.Inner)
	case *NullableSchema:
		return w.walk(t.Inner)
	case *FunctionSchema:
		return w.checkFunction(t)
	case *CustomErrorSchema:
		if t.Code == "" {
			return fmt.Errorf("%w: custom error schema without code", ErrBadSchema)
		}
		return w.walk(t.Inner)
	}
	return nil
}

func (w *compileWalk) checkString(t *StringSchema) error {
	if err := checkLen(t.MinLen, t.MaxLen); err != nil {
		return err
	}
	if t.ToLower && t.ToUpper {
		return fmt.Errorf("%w: string schema with both to_lower and to_upper", ErrBadSchema)
	}
	if t.Pattern != "" {
		if _, ok := w.c.patterns[t.Pattern]; !ok {
			re, err := regexp.Compile(t.Pattern)
			if err != nil {
				return fmt.Errorf("%w: pattern %q: %v", ErrBadSchema, t.Pattern, err)
			}
			w.c.patterns[t.Pattern] = re
		}
	}
	return nil
}

func (w *compileWalk) checkRecord(t *RecordSchema) error {
	seen := map[string]bool{}
	for i := range t.Fields {
		f := &t.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("%w: record %q field %d without name", ErrBadSchema, t.Name, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: record %q duplicate field %q", ErrBadSchema, t.Name, f.Name)
		}
		seen[f.Name] = true
		if err := w.walk(f.Schema); err != nil {
			return err
		}
	}
	if t.Extras != nil {
		if err := w.walk(t.Extras); err != nil {
			return err
		}
	}
	if t.FromAttributes && t.GetAttr == nil {
		return fmt.Errorf("%w: record %q from_attributes without GetAttr", ErrBadSchema, t.Name)
	}
	return nil
}

func (w *compileWalk) checkFunction(t *FunctionSchema) error {
	switch t.Mode {
	case FuncPlain:
		if t.Fn == nil {
			return fmt.Errorf("%w: plain function schema without Fn", ErrBadSchema)
		}
		// inner is ignored for plain
		return nil
	case FuncWrap:
		if t.WrapFn == nil {
			return fmt.Errorf("%w: wrap function schema without WrapFn", ErrBadSchema)
		}
	case FuncBefore, FuncAfter:
		if t.Fn == nil {
			return fmt.Errorf("%w: function schema without Fn", ErrBadSchema)
		}
	default:
		return fmt.Errorf("%w: unknown function mode %d", ErrBadSchema, t.Mode)
	}
	return w.walk(t.Inner)
}

func checkLen(min, max *int) error {
	if min != nil && *min < 0 {
		return fmt.Errorf("%w: negative min length", ErrBadSchema)
	}
	if min != nil && max != nil && *min > *max {
		return fmt.Errorf("%w: min length greater than max length", ErrBadSchema)
	}
	return nil
}

func (c *Compiled) pattern(p string) *regexp.Regexp { return c.patterns[p] }
