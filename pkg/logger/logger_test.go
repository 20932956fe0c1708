package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_JSONIncludesService(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf, Service: "bookings"})

	log.Info("booking created", "booking_id", "b-1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record[SERVICE] != "bookings" {
		t.Errorf("expected service attribute 'bookings', got %v", record[SERVICE])
	}
	if record["booking_id"] != "b-1" {
		t.Errorf("expected booking_id attribute, got %v", record["booking_id"])
	}
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf, Level: WARN})

	log.Debug("hidden")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected nothing below warn to be written, got %q", buf.String())
	}

	log.With("component", "calendar").Warn("shown")
	if !bytes.Contains(buf.Bytes(), []byte(`"component":"calendar"`)) {
		t.Errorf("expected child attributes in output, got %q", buf.String())
	}
}
