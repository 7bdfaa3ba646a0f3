package telemetry

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn,
	// error, fatal). Defaults to info.
	Level string

	// Format specifies the log format (console, json). Defaults to
	// console.
	Format string

	// Output specifies where logs are written (stdout, stderr, or a
	// file path). Defaults to stderr.
	Output string

	// TimeFormat specifies the timestamp format (rfc3339, unix,
	// unixms). Defaults to rfc3339.
	TimeFormat string
}

// DefaultLoggingConfig returns the configuration used when the caller
// does not care: console output on stderr at info level.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:      "info",
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "rfc3339",
	}
}

// NewLogger builds a zerolog logger from the configuration.
func NewLogger(cfg LoggingConfig) (zerolog.Logger, error) {
	var writer io.Writer
	switch cfg.Output {
	case "", "stderr":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("failed to open log output: %w", err)
		}
		writer = file
	}

	switch cfg.Format {
	case "", "console":
		writer = zerolog.ConsoleWriter{
			Out:        writer,
			TimeFormat: time.Kitchen,
		}
	case "json":
		// Raw writer.
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", cfg.Format)
	}

	switch cfg.TimeFormat {
	case "unix":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	case "unixms":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	default:
		zerolog.TimeFieldFormat = time.RFC3339
	}

	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	return zerolog.New(writer).With().Timestamp().Logger().Level(level), nil
}

// parseLogLevel converts a level name to a zerolog level.
func parseLogLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "fatal":
		return zerolog.FatalLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
}
