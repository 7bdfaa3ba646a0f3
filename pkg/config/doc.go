// Package config loads declarative inventory definitions from CUE
// files.
//
// A definition lives under the top-level "inventory" field and
// declares hosts, host ranges, groups, extra arguments and overlays.
// CUE handles typing, constraint checking and unification across
// files; this package decodes the result, validates it, and converts
// it into an inventory.Config of static fragments. Computed fragments
// cannot be expressed in data files; callers needing them assemble the
// inventory.Config in Go and may still merge a loaded definition in.
package config
