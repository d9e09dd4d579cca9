// Package rules defines verification rules, the violations they produce and the
// registry that holds them.
//
// A Rule is a named, stateless predicate over either a single TypeDescriptor
// (TypeCheck) or the whole Graph (GraphCheck). Rules never modify the graph. A
// Registry is an explicitly constructed, ordered set of rules; registration order
// is the tie-breaker for deterministic reporting. Builtin returns a fresh registry
// holding the built-in catalog.
package rules
