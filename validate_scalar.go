package reval

import (
	"encoding/base64"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Scalar validation is fail-fast within the coercion step (an unconvertible
// input yields exactly one issue) and fail-slow across constraints: every
// violated constraint on a successfully coerced scalar is reported
// separately.

func (st *vstate) validateBool(t *BoolSchema, in Value) (any, bool) {
	strict := st.strict(t.Strict)
	switch in.Kind() {
	case KindBool:
		return in.Bool(), true
	case KindString:
		if strict && st.opt.Mode != ModeStringsOnly {
			break
		}
		switch strings.ToLower(in.Str()) {
		case "true", "1":
			st.coerced()
			return true, true
		case "false", "0":
			st.coerced()
			return false, true
		}
		st.bad(CodeBoolParsing, in, nil)
		return nil, false
	case KindInt:
		if strict {
			break
		}
		switch in.Int() {
		case 0:
			st.coerced()
			return false, true
		case 1:
			st.coerced()
			return true, true
		}
		st.bad(CodeBoolParsing, in, nil)
		return nil, false
	}
	st.bad(CodeBoolType, in, map[string]any{"got": in.Kind().String()})
	return nil, false
}

func (st *vstate) validateInt(t *IntSchema, in Value) (any, bool) {
	strict := st.strict(t.Strict)
	var n int64
	var bigN *big.Int

	switch in.Kind() {
	case KindInt:
		n = in.Int()
	case KindBigInt:
		bigN = in.BigInt()
	case KindFloat:
		if strict {
			st.bad(CodeIntType, in, map[string]any{"got": "float"})
			return nil, false
		}
		f := in.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			st.bad(CodeIntFromFloat, in, nil)
			return nil, false
		}
		st.coerced()
		n = int64(f)
	case KindDecimal:
		if strict {
			st.bad(CodeIntType, in, map[string]any{"got": "decimal"})
			return nil, false
		}
		d := in.Decimal()
		if !d.IsInteger() {
			st.bad(CodeIntFromFloat, in, nil)
			return nil, false
		}
		st.coerced()
		n = d.IntPart()
	case KindString:
		if strict && st.opt.Mode != ModeStringsOnly {
			st.bad(CodeIntType, in, map[string]any{"got": "string"})
			return nil, false
		}
		s := strings.TrimSpace(in.Str())
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			if bi, ok := new(big.Int).SetString(s, 10); ok {
				st.coerced()
				bigN = bi
				break
			}
			st.bad(CodeIntParsing, in, nil)
			return nil, false
		}
		st.coerced()
		n = v
	default:
		// bool is deliberately not accepted as an int
		st.bad(CodeIntType, in, map[string]any{"got": in.Kind().String()})
		return nil, false
	}

	if bigN != nil {
		if bigN.IsInt64() {
			n = bigN.Int64()
			bigN = nil
		} else {
			return st.checkBigInt(t, bigN, in)
		}
	}

	ok := true
	if t.Ge != nil && n < *t.Ge {
		st.bad(CodeGreaterThanEqual, in, map[string]any{"ge": *t.Ge})
		ok = false
	}
	if t.Gt != nil && n <= *t.Gt {
		st.bad(CodeGreaterThan, in, map[string]any{"gt": *t.Gt})
		ok = false
	}
	if t.Le != nil && n > *t.Le {
		st.bad(CodeLessThanEqual, in, map[string]any{"le": *t.Le})
		ok = false
	}
	if t.Lt != nil && n >= *t.Lt {
		st.bad(CodeLessThan, in, map[string]any{"lt": *t.Lt})
		ok = false
	}
	if t.MultipleOf != nil && n%*t.MultipleOf != 0 {
		st.bad(CodeMultipleOf, in, map[string]any{"multiple_of": *t.MultipleOf})
		ok = false
	}
	if !ok {
		return nil, false
	}
	return n, true
}

// checkBigInt applies int constraints to values outside the int64 range.
func (st *vstate) checkBigInt(t *IntSchema, n *big.Int, in Value) (any, bool) {
	ok := true
	if t.Ge != nil && n.Cmp(big.NewInt(*t.Ge)) < 0 {
		st.bad(CodeGreaterThanEqual, in, map[string]any{"ge": *t.Ge})
		ok = false
	}
	if t.Gt != nil && n.Cmp(big.NewInt(*t.Gt)) <= 0 {
		st.bad(CodeGreaterThan, in, map[string]any{"gt": *t.Gt})
		ok = false
	}
	if t.Le != nil && n.Cmp(big.NewInt(*t.Le)) > 0 {
		st.bad(CodeLessThanEqual, in, map[string]any{"le": *t.Le})
		ok = false
	}
	if t.Lt != nil && n.Cmp(big.NewInt(*t.Lt)) >= 0 {
		st.bad(CodeLessThan, in, map[string]any{"lt": *t.Lt})
		ok = false
	}
	if t.MultipleOf != nil && new(big.Int).Mod(n, big.NewInt(*t.MultipleOf)).Sign() != 0 {
		st.bad(CodeMultipleOf, in, map[string]any{"multiple_of": *t.MultipleOf})
		ok = false
	}
	if !ok {
		return nil, false
	}
	return n, true
}

func (st *vstate) validateFloat(t *FloatSchema, in Value) (any, bool) {
	strict := st.strict(t.Strict)
	var f float64

	switch in.Kind() {
	case KindFloat:
		f = in.Float()
	case KindInt:
		if strict {
			st.bad(CodeFloatType, in, map[string]any{"got": "int"})
			return nil, false
		}
		st.coerced()
		f = float64(in.Int())
	case KindBigInt:
		if strict {
			st.bad(CodeFloatType, in, map[string]any{"got": "bigint"})
			return nil, false
		}
		st.coerced()
		bf, _ := new(big.Float).SetInt(in.BigInt()).Float64()
		f = bf
	case KindDecimal:
		if strict {
			st.bad(CodeFloatType, in, map[string]any{"got": "decimal"})
			return nil, false
		}
		st.coerced()
		f, _ = in.Decimal().Float64()
	case KindString:
		if strict && st.opt.Mode != ModeStringsOnly {
			st.bad(CodeFloatType, in, map[string]any{"got": "string"})
			return nil, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(in.Str()), 64)
		if err != nil {
			st.bad(CodeFloatParsing, in, nil)
			return nil, false
		}
		st.coerced()
		f = v
	default:
		st.bad(CodeFloatType, in, map[string]any{"got": in.Kind().String()})
		return nil, false
	}

	allowInfNan := st.opt.AllowInfNan
	if t.AllowInfNan != nil {
		allowInfNan = *t.AllowInfNan
	}
	if !allowInfNan && (math.IsInf(f, 0) || math.IsNaN(f)) {
		st.bad(CodeFiniteNumber, in, nil)
		return nil, false
	}

	ok := true
	if t.Ge != nil && f < *t.Ge {
		st.bad(CodeGreaterThanEqual, in, map[string]any{"ge": *t.Ge})
		ok = false
	}
	if t.Gt != nil && f <= *t.Gt {
		st.bad(CodeGreaterThan, in, map[string]any{"gt": *t.Gt})
		ok = false
	}
	if t.Le != nil && f > *t.Le {
		st.bad(CodeLessThanEqual, in, map[string]any{"le": *t.Le})
		ok = false
	}
	if t.Lt != nil && f >= *t.Lt {
		st.bad(CodeLessThan, in, map[string]any{"lt": *t.Lt})
		ok = false
	}
	if t.MultipleOf != nil {
		r := math.Abs(math.Mod(f, *t.MultipleOf))
		eps := math.Abs(f) * 1e-9
		if r > eps && math.Abs(r-*t.MultipleOf) > eps {
			st.bad(CodeMultipleOf, in, map[string]any{"multiple_of": *t.MultipleOf})
			ok = false
		}
	}
	if !ok {
		return nil, false
	}
	return f, true
}

func (st *vstate) validateDecimal(t *DecimalSchema, in Value) (any, bool) {
	strict := st.strict(t.Strict)
	var d decimal.Decimal

	switch in.Kind() {
	case KindDecimal:
		d = in.Decimal()
	case KindInt:
		if strict {
			st.bad(CodeDecimalType, in, map[string]any{"got": "int"})
			return nil, false
		}
		st.coerced()
		d = decimal.NewFromInt(in.Int())
	case KindBigInt:
		if strict {
			st.bad(CodeDecimalType, in, map[string]any{"got": "bigint"})
			return nil, false
		}
		st.coerced()
		d = decimal.NewFromBigInt(in.BigInt(), 0)
	case KindFloat:
		if strict {
			st.bad(CodeDecimalType, in, map[string]any{"got": "float"})
			return nil, false
		}
		if math.IsInf(in.Float(), 0) || math.IsNaN(in.Float()) {
			st.bad(CodeFiniteNumber, in, nil)
			return nil, false
		}
		st.coerced()
		d = decimal.NewFromFloat(in.Float())
	case KindString:
		if strict && st.opt.Mode != ModeStringsOnly && st.opt.Mode != ModeText {
			st.bad(CodeDecimalType, in, map[string]any{"got": "string"})
			return nil, false
		}
		v, err := decimal.NewFromString(strings.TrimSpace(in.Str()))
		if err != nil {
			st.bad(CodeDecimalParsing, in, nil)
			return nil, false
		}
		if st.opt.Mode == ModeNative {
			st.coerced()
		}
		d = v
	default:
		st.bad(CodeDecimalType, in, map[string]any{"got": in.Kind().String()})
		return nil, false
	}

	ok := true
	if t.Ge != nil && d.Cmp(*t.Ge) < 0 {
		st.bad(CodeGreaterThanEqual, in, map[string]any{"ge": t.Ge.String()})
		ok = false
	}
	if t.Gt != nil && d.Cmp(*t.Gt) <= 0 {
		st.bad(CodeGreaterThan, in, map[string]any{"gt": t.Gt.String()})
		ok = false
	}
	if t.Le != nil && d.Cmp(*t.Le) > 0 {
		st.bad(CodeLessThanEqual, in, map[string]any{"le": t.Le.String()})
		ok = false
	}
	if t.Lt != nil && d.Cmp(*t.Lt) >= 0 {
		st.bad(CodeLessThan, in, map[string]any{"lt": t.Lt.String()})
		ok = false
	}
	if t.MultipleOf != nil && !d.Mod(*t.MultipleOf).IsZero() {
		st.bad(CodeMultipleOf, in, map[string]any{"multiple_of": t.MultipleOf.String()})
		ok = false
	}
	if t.MaxDigits != nil {
		digits := len(strings.TrimLeft(d.Coefficient().String(), "-"))
		if digits > *t.MaxDigits {
			st.bad(CodeDecimalParsing, in, map[string]any{"max_digits": *t.MaxDigits})
			ok = false
		}
	}
	if t.DecimalPlaces != nil && int(-d.Exponent()) > *t.DecimalPlaces {
		st.bad(CodeDecimalParsing, in, map[string]any{"decimal_places": *t.DecimalPlaces})
		ok = false
	}
	if !ok {
		return nil, false
	}
	return d, true
}

func (st *vstate) validateString(t *StringSchema, in Value) (any, bool) {
	strict := st.strict(t.Strict)
	var s string

	switch in.Kind() {
	case KindString:
		s = in.Str()
	case KindInt:
		if strict || !st.opt.CoerceNumbersToStr {
			st.bad(CodeStringType, in, map[string]any{"got": "int"})
			return nil, false
		}
		st.coerced()
		s = strconv.FormatInt(in.Int(), 10)
	case KindBigInt:
		if strict || !st.opt.CoerceNumbersToStr {
			st.bad(CodeStringType, in, map[string]any{"got": "bigint"})
			return nil, false
		}
		st.coerced()
		s = in.BigInt().String()
	case KindFloat:
		if strict || !st.opt.CoerceNumbersToStr {
			st.bad(CodeStringType, in, map[string]any{"got": "float"})
			return nil, false
		}
		st.coerced()
		s = strconv.FormatFloat(in.Float(), 'g', -1, 64)
	case KindDecimal:
		if strict || !st.opt.CoerceNumbersToStr {
			st.bad(CodeStringType, in, map[string]any{"got": "decimal"})
			return nil, false
		}
		st.coerced()
		s = in.Decimal().String()
	default:
		st.bad(CodeStringType, in, map[string]any{"got": in.Kind().String()})
		return nil, false
	}

	if t.StripWhitespace || st.opt.StrStripWhitespace {
		s = strings.TrimSpace(s)
	}
	if t.ToLower {
		s = strings.ToLower(s)
	}
	if t.ToUpper {
		s = strings.ToUpper(s)
	}

	minLen, maxLen := t.MinLen, t.MaxLen
	if minLen == nil && st.opt.StrMinLen > 0 {
		minLen = &st.opt.StrMinLen
	}
	if maxLen == nil && st.opt.StrMaxLen > 0 {
		maxLen = &st.opt.StrMaxLen
	}

	ok := true
	n := len([]rune(s))
	if minLen != nil && n < *minLen {
		st.bad(CodeStringTooShort, in, map[string]any{"min_length": *minLen, "got": n})
		ok = false
	}
	if maxLen != nil && n > *maxLen {
		st.bad(CodeStringTooLong, in, map[string]any{"max_length": *maxLen, "got": n})
		ok = false
	}
	if t.Pattern != "" {
		if re := st.c.pattern(t.Pattern); re != nil && !re.MatchString(s) {
			st.bad(CodePatternMismatch, in, map[string]any{"pattern": t.Pattern})
			ok = false
		}
	}
	if !ok {
		return nil, false
	}
	return st.intern(s), true
}

func (st *vstate) validateBytes(t *BytesSchema, in Value) (any, bool) {
	strict := st.strict(t.Strict)
	var b []byte

	switch in.Kind() {
	case KindBytes:
		b = in.Bytes()
	case KindString:
		if st.opt.Mode == ModeText {
			// the interchange format has no native bytes; base64 is the
			// canonical spelling, accepted even under strict
			dec, err := base64.StdEncoding.DecodeString(in.Str())
			if err != nil {
				st.bad(CodeBytesEncoding, in, map[string]any{"encoding": "base64"})
				return nil, false
			}
			b = dec
			break
		}
		if strict {
			st.bad(CodeBytesType, in, map[string]any{"got": "string"})
			return nil, false
		}
		st.coerced()
		b = []byte(in.Str())
	default:
		st.bad(CodeBytesType, in, map[string]any{"got": in.Kind().String()})
		return nil, false
	}

	ok := true
	if t.MinLen != nil && len(b) < *t.MinLen {
		st.bad(CodeTooShort, in, map[string]any{"min_length": *t.MinLen, "got": len(b)})
		ok = false
	}
	if t.MaxLen != nil && len(b) > *t.MaxLen {
		st.bad(CodeTooLong, in, map[string]any{"max_length": *t.MaxLen, "got": len(b)})
		ok = false
	}
	if !ok {
		return nil, false
	}
	return b, true
}

func (st *vstate) validateDateTime(t *DateTimeSchema, in Value) (any, bool) {
	strict := st.strict(t.Strict)
	switch in.Kind() {
	case KindExternal:
		if tm, ok := in.External().(time.Time); ok {
			return tm, true
		}
	case KindString:
		// strings are the canonical text-mode spelling; in native mode they
		// are a lax coercion
		if strict && st.opt.Mode == ModeNative {
			st.bad(CodeDatetimeType, in, map[string]any{"got": "string"})
			return nil, false
		}
		tm, err := time.Parse(time.RFC3339, in.Str())
		if err != nil {
			st.bad(CodeDatetimeParsing, in, map[string]any{"format": "RFC 3339"})
			return nil, false
		}
		if st.opt.Mode == ModeNative {
			st.coerced()
		}
		return tm, true
	case KindInt:
		if strict {
			break
		}
		st.coerced()
		return time.Unix(in.Int(), 0).UTC(), true
	}
	st.bad(CodeDatetimeType, in, map[string]any{"got": in.Kind().String()})
	return nil, false
}
