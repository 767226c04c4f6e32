package reval

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	// Type errors: the input kind does not match the target in strict mode.
	CodeBoolType     = "bool_type"
	CodeIntType      = "int_type"
	CodeFloatType    = "float_type"
	CodeDecimalType  = "decimal_type"
	CodeStringType   = "string_type"
	CodeBytesType    = "bytes_type"
	CodeDatetimeType = "datetime_type"
	CodeListType     = "list_type"
	CodeTupleType    = "tuple_type"
	CodeSetType      = "set_type"
	CodeDictType     = "dict_type"
	CodeRecordType   = "record_type"
	CodeNoneRequired = "none_required"

	// Coercion errors: the value is present but cannot be converted.
	CodeBoolParsing     = "bool_parsing"
	CodeIntParsing      = "int_parsing"
	CodeIntFromFloat    = "int_from_float"
	CodeFloatParsing    = "float_parsing"
	CodeDecimalParsing  = "decimal_parsing"
	CodeDatetimeParsing = "datetime_parsing"
	CodeBytesEncoding   = "bytes_encoding"
	CodeFiniteNumber    = "finite_number"

	// Constraint errors.
	CodeGreaterThan      = "greater_than"
	CodeGreaterThanEqual = "greater_than_equal"
	CodeLessThan         = "less_than"
	CodeLessThanEqual    = "less_than_equal"
	CodeMultipleOf       = "multiple_of"
	CodeStringTooShort   = "string_too_short"
	CodeStringTooLong    = "string_too_long"
	CodePatternMismatch  = "string_pattern_mismatch"
	CodeTooShort         = "too_short"
	CodeTooLong          = "too_long"
	CodeSetItemDuplicate = "set_item_duplicate"
	CodeLiteralError     = "literal_error"

	// Structural errors.
	CodeMissing        = "missing"
	CodeExtraForbidden = "extra_forbidden"
	CodeFrozenField    = "frozen_field"

	// Union errors.
	CodeUnionInvalid     = "union_invalid"
	CodeUnionTagInvalid  = "union_tag_invalid"
	CodeUnionTagNotFound = "union_tag_not_found"

	// User-hook errors.
	CodeValueError     = "value_error"
	CodeAssertionError = "assertion_error"

	// Traversal and input-text errors.
	CodeRecursionError = "recursion_error"
	CodeJSONInvalid    = "json_invalid"
	CodeDuplicateKey   = "duplicate_key"
	CodeMaxDepth       = "max_depth"
	CodeTruncated      = "truncated"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    Path   // Structured location (renders as a JSON Pointer).
	Code    string // One of the codes listed above, or a custom code.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Cause   error  // Optional: underlying error.
	// Input is the offending input value, best effort. Suppressed when
	// Options.HideInput is set.
	Input any
	// Params carries structured parameters (e.g., {"ge": 2, "got": 1})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. int_parsing at /numbers/0
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path.String())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Control-flow sentinels for user hooks. A Before/After/Wrap/Plain function
// (or a wrap serializer) may return one of these instead of a plain error to
// request the documented short-circuit instead of failing.
var (
	// ErrUseDefault asks the nearest enclosing DefaultSchema to substitute
	// its default for the current value.
	ErrUseDefault = errors.New("reval: use default")
	// ErrOmit asks the enclosing record or dict to drop the current entry
	// from the output.
	ErrOmit = errors.New("reval: omit")
)

// NewValueError wraps a user-supplied message as a value_error issue at the
// current location. Hooks return it to reject a value with a custom reason.
func NewValueError(msg string) Issues {
	return Issues{Issue{Code: CodeValueError, Message: msg}}
}
