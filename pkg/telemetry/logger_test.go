package telemetry

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		{"trace", zerolog.TraceLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"verbose", zerolog.NoLevel, true},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseLogLevel(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseLogLevel(%q): unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLogger_RejectsUnknownFormat(t *testing.T) {
	_, err := NewLogger(LoggingConfig{Format: "xml"})
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewLogger_Defaults(t *testing.T) {
	logger, err := NewLogger(DefaultLoggingConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", logger.GetLevel())
	}
}
