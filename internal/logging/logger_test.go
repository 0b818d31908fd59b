package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewLogger_Defaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: LogLevelNormal, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if logger.GetLevel() != LogLevelNormal {
		t.Errorf("Expected level %s, got %s", LogLevelNormal, logger.GetLevel())
	}

	logger.Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("Expected output to contain message, got %q", buf.String())
	}
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: LogLevelNormal, Output: &buf, Format: "json"})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info("structured")
	out := buf.String()
	if !strings.Contains(out, `"msg":"structured"`) {
		t.Errorf("Expected JSON output, got %q", out)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name        string
		level       LogLevel
		debugShown  bool
		infoShown   bool
	}{
		{"quiet hides info", LogLevelQuiet, false, false},
		{"normal hides debug", LogLevelNormal, false, true},
		{"verbose shows debug", LogLevelVerbose, true, true},
		{"debug shows debug", LogLevelDebug, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, _ := NewLogger(Config{Level: tt.level, Output: &buf})

			logger.Debug("debug-line")
			logger.Info("info-line")

			out := buf.String()
			if strings.Contains(out, "debug-line") != tt.debugShown {
				t.Errorf("debug visibility = %v, want %v", !tt.debugShown, tt.debugShown)
			}
			if strings.Contains(out, "info-line") != tt.infoShown {
				t.Errorf("info visibility = %v, want %v", !tt.infoShown, tt.infoShown)
			}
		})
	}
}

func TestLogger_SetLevel(t *testing.T) {
	logger := NewDefaultLogger()
	logger.SetLevel(LogLevelDebug)
	if logger.GetLevel() != LogLevelDebug {
		t.Errorf("Expected level to be updated to debug, got %s", logger.GetLevel())
	}
	if !logger.IsLevelEnabled(LogLevelVerbose) {
		t.Error("Expected verbose to be enabled at debug level")
	}
}

func TestLogBatchProcessed(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := NewLogger(Config{Level: LogLevelNormal, Output: &buf, Format: "json"})

	logger.LogBatchProcessed("HiredEmployees", 10, 8, 2, 50*time.Millisecond)

	out := buf.String()
	for _, want := range []string{`"kind":"HiredEmployees"`, `"succeeded":8`, `"failed":2`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %s, got %q", want, out)
		}
	}
}

func TestLogTableBackup_Error(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := NewLogger(Config{Level: LogLevelNormal, Output: &buf, Format: "json"})

	logger.LogTableBackup("Jobs", 0, 0, time.Millisecond, errors.New("storage unreachable"))

	out := buf.String()
	if !strings.Contains(out, "storage unreachable") {
		t.Errorf("Expected error message in output, got %q", out)
	}
	if !strings.Contains(out, `"table":"Jobs"`) {
		t.Errorf("Expected table field in output, got %q", out)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := CreateContextWithRequestID(context.Background(), "req-42")
	if got := GetRequestIDFromContext(ctx); got != "req-42" {
		t.Errorf("Expected request ID req-42, got %q", got)
	}
	if got := GetRequestIDFromContext(context.Background()); got != "" {
		t.Errorf("Expected empty request ID, got %q", got)
	}
}
