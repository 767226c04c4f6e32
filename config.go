package reval

import "sync"

// Mode selects the input flavor a validation call assumes.
type Mode int

const (
	// ModeNative validates in-memory Go values.
	ModeNative Mode = iota
	// ModeText validates values decoded from an interchange format such as
	// JSON; formats without native datetime/bytes representations get the
	// corresponding string coercions even under strict.
	ModeText
	// ModeStringsOnly validates inputs whose scalars all arrive as strings
	// (environment-variable style sources); scalar schemas always accept
	// their string spelling.
	ModeStringsOnly
)

// ExtraBehavior controls how unknown record keys are handled.
type ExtraBehavior int

const (
	ExtraUnset  ExtraBehavior = iota // Defer to Options.Extra.
	ExtraIgnore                      // Drop unknown keys.
	ExtraForbid                      // Reject unknown keys with an error.
	ExtraAllow                       // Retain unknown keys (validated by Extras when set).
)

// Severity expresses the severity level for streaming enforcement findings.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement for duplicate keys and NaN handling on
// the text-ingestion path.
type Strictness struct {
	OnDuplicateKey Severity // Warn or Error (duplicate JSON keys).
	AllowNaN       bool     // Allow NaN/±Inf literals from the driver.
}

// ParseOpt bundles text-ingestion options, applied before schema validation.
type ParseOpt struct {
	Strictness Strictness
	MaxDepth   int   // Maximum token nesting depth (0 = unlimited).
	MaxBytes   int64 // Maximum consumed input bytes (0 = unlimited).
}

// Options is the immutable per-call knob record consumed by both engines.
// Every validation call receives its own Options value; concurrent calls
// with different Options never interfere.
type Options struct {
	// Strict disables lax coercions globally; per-node Strict flags still
	// override in either direction.
	Strict bool
	// Mode selects native / text / strings-only input semantics.
	Mode Mode
	// MaxDepth bounds schema recursion through definition references.
	// Zero means DefaultMaxDepth.
	MaxDepth int
	// FailFast stops at the first issue instead of aggregating.
	FailFast bool
	// ValidateDefault runs defaults through their field schema.
	ValidateDefault bool
	// RevalidateExternal re-validates external objects that claim to be
	// already validated.
	RevalidateExternal bool
	// CoerceNumbersToStr lets string schemas accept numeric input in lax
	// mode.
	CoerceNumbersToStr bool
	// AllowInfNan permits non-finite floats unless a node overrides.
	AllowInfNan bool
	// StrMinLen/StrMaxLen are engine-wide string length caps applied when a
	// string schema does not set its own (0 = unset).
	StrMinLen int
	StrMaxLen int
	// StrStripWhitespace trims string input before constraint checks.
	StrStripWhitespace bool
	// Extra is the record extra-key behavior used when a record leaves it
	// unset.
	Extra ExtraBehavior
	// HideInput omits the offending input from issues.
	HideInput bool
	// Cache optionally interns validated strings. Purely a performance
	// feature; results are identical with it disabled.
	Cache *StringCache
	// Context is an opaque user value exposed to hooks via Info.
	Context any
	// Parse configures the text-ingestion layer for ValidateJSON and
	// ValidateFrom.
	Parse ParseOpt
}

// DefaultMaxDepth bounds definition-reference recursion when Options.MaxDepth
// is zero.
const DefaultMaxDepth = 100

func (o Options) maxDepth() int {
	if o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxDepth
}

// WhenUsed gates when a custom serializer runs.
type WhenUsed int

const (
	WhenAlways WhenUsed = iota
	WhenUnlessNil
	WhenJSON          // text mode only
	WhenJSONUnlessNil // text mode only, skipped for nil
)

// SerializeOptions configures a serialization call.
type SerializeOptions struct {
	// Mode selects native or text output shaping (round-trip formatting of
	// datetimes, base64 bytes, string dict keys).
	Mode Mode
	// ByAlias emits fields under their serialization alias.
	ByAlias bool
	// ExcludeNil drops nil-valued optional fields.
	ExcludeNil bool
	// ExcludeDefaults drops fields whose value equals the schema default.
	ExcludeDefaults bool
	// Exclude drops the named top-level fields for this call.
	Exclude []string
	// Context is an opaque user value exposed to serializer hooks.
	Context any
}

// StringCache interns strings produced by validation. It is safe for
// concurrent use and may be shared across calls, or kept per-call. There is
// no ambient process-wide cache; callers pass one in through Options.
type StringCache struct {
	mu   sync.RWMutex
	pool map[string]string
}

// NewStringCache returns an empty interning cache.
func NewStringCache() *StringCache {
	return &StringCache{pool: map[string]string{}}
}

// Intern returns the canonical instance of s, inserting it when absent.
func (c *StringCache) Intern(s string) string {
	c.mu.RLock()
	if v, ok := c.pool[s]; ok {
		c.mu.RUnlock()
		return v
	}
	c.mu.RUnlock()

	c.mu.Lock()
	if v, ok := c.pool[s]; ok { // double-check
		c.mu.Unlock()
		return v
	}
	c.pool[s] = s
	c.mu.Unlock()
	return s
}

// Len reports the number of interned strings.
func (c *StringCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pool)
}
