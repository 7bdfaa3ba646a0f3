// Package telemetry configures structured logging for avalanche.
//
// Resolution itself is a pure in-memory computation, so logging is the
// whole observability surface: the library packages accept a
// zerolog.Logger and this package builds one from a LoggingConfig,
// handling output selection, console/json formats, levels and
// timestamp formats. The CLI wires it up from flags.
package telemetry
