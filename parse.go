package reval

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	eng "github.com/reval-go/reval/internal/engine"
)

// decodeValueFromSource consumes tokens from the Source through the
// enforcement wrapper and builds a Value. Duplicate-key warnings are
// delivered through warn; hard enforcement findings and malformed text
// return as an error.
func decodeValueFromSource(src Source, popt ParseOpt, warn *Issues) (Value, error) {
	enforced := eng.WrapWithEnforcement(engineTokenSource(src), eng.EnforceOptions{
		OnDuplicate: toEngineDup(popt.Strictness.OnDuplicateKey),
		MaxDepth:    popt.MaxDepth,
		MaxBytes:    popt.MaxBytes,
		WarnSink: func(si eng.SimpleIssue) {
			if warn != nil {
				*warn = AppendIssues(*warn, issueFromSimple(si))
			}
		},
	})
	tree, err := eng.Decode(enforced)
	if err != nil {
		return Value{}, err
	}
	return valueFromEngine(tree), nil
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Warn:
		return eng.DupWarn
	case Error:
		return eng.DupError
	default:
		return eng.DupIgnore
	}
}

// valueFromEngine lifts the decoded any-tree into the value model,
// preserving object key order via the engine's ordered maps.
func valueFromEngine(v any) Value {
	switch t := v.(type) {
	case *eng.OrderedMap:
		members := make([]Member, 0, t.Len())
		for _, k := range t.Keys() {
			mv, _ := t.Get(k)
			members = append(members, Member{Key: StringValue(k), Val: valueFromEngine(mv)})
		}
		return MapValue(members...)
	case []any:
		items := make([]Value, len(t))
		for i, it := range t {
			items[i] = valueFromEngine(it)
		}
		return SeqValue(items...)
	case json.Number:
		return FromGo(t)
	default:
		return FromGo(t)
	}
}

// parseIssues maps a text-ingestion failure onto the error model: one
// top-level issue, never schema-level errors.
func parseIssues(err error) Issues {
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return Issues{issueFromSimple(ie.SimpleIssue)}
	}
	return Issues{Issue{Code: CodeJSONInvalid, Message: err.Error(), Cause: err}}
}

func issueFromSimple(si eng.SimpleIssue) Issue {
	return Issue{
		Path:    pointerToPath(si.Path),
		Code:    si.Code,
		Message: si.Message,
	}
}

// pointerToPath parses a JSON Pointer back into structured segments;
// all-digit tokens become indices.
func pointerToPath(p string) Path {
	if p == "" || p == "/" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	out := make(Path, 0, len(parts))
	for _, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if i, err := strconv.Atoi(part); err == nil && part != "" {
			out = append(out, IndexSeg(i))
			continue
		}
		out = append(out, FieldSeg(part))
	}
	return out
}
