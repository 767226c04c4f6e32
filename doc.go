// Package reval provides:
//
//   - A schema-driven validation engine: a compiled, immutable schema graph
//     validates untyped input (native Go values or parsed JSON/YAML text)
//     into typed output, with strict/lax coercion and fail-slow issue
//     aggregation (Validate/ValidateJSON/ValidateValue).
//   - A stable error model via Issues (structured path, code, message).
//   - A serialization engine walking schema and value in lockstep
//     (Serialize/SerializeJSON) with per-field aliases, exclusion
//     predicates, and custom serializer hooks.
//   - Streaming text ingestion via Source with duplicate-key/depth/size
//     enforcement.
//
// Design policy:
//   - Keep the public API in the root package; put token-level plumbing
//     under internal/.
//   - Place input drivers under source/ and message catalogs under i18n/.
//   - Schema graphs are plain exported structs finalized by Compile;
//     builder ergonomics belong to callers, not this package.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	c, err := reval.Compile(schema, nil)
//	out, err := c.Validate(ctx, input)
//	out, err = c.ValidateJSON(ctx, data)
//	v, err := c.Serialize(ctx, out, reval.SerializeOptions{Mode: reval.ModeText})
package reval
