// Package conf implements a minimal lazy configuration-module engine.
//
// # Overview
//
// A configuration is described by fragments: static objects, or
// functions from an injected context to an object. Evaluate applies an
// ordered fragment list and Extend layers further fragments on top,
// producing a System. Nothing runs until an option is read through
// Get/String/StringSlice/Resolve; every fragment and every Deferred
// value is then computed at most once and cached.
//
// # Laziness
//
// Fragments may reference configurations that are still being
// resolved, as long as no value is transitively read before it is
// defined. Strict reads happen while a fragment body executes; lazy
// reads are wrapped with Defer and only run when the enclosing option
// is read. A value forced again while its own computation is in
// progress is reported as an unresolvable cycle instead of overflowing
// the stack.
//
// # Merge rules
//
// Contributions to one option path merge as follows: objects merge
// recursively; lists concatenate in application order; atomic values
// are taken from the last Extend layer that defines the path, and two
// differing definitions inside a single layer are a conflict, as are
// definitions of different kinds. Default wraps a low-priority
// definition that is discarded once any fragment defines the same
// option explicitly; schema fragments use it to declare overridable
// defaults.
//
// The engine is deterministic and single-threaded: systems must not be
// shared between goroutines during resolution.
package conf
