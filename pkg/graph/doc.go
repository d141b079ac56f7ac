// Package graph decodes dependency graph documents and, on request, checks
// them for problems the generator itself never looks at.
//
// Decoding is strict about shape:
//
//   - Parse: malformed JSON or YAML
//   - Schema: missing required fields, wrong field types, unknown top-level
//     fields, repeated names inside one mapping
//   - Semantic: unsupported schemaVersion, unknown value types
//   - Structural: names shared between mappings, dangling or self
//     dependencies, cycles (Validate only)
//
// Every failure is one of the error types in errors.go and matches its
// sentinel through errors.Is.
package graph
