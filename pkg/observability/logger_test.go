package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type logLine struct {
	Level   string `json:"level"`
	Msg     string `json:"msg"`
	Error   string `json:"error"`
	Section string `json:"section"`
	Request string `json:"request_id"`
	TraceID string `json:"trace_id"`
}

func decodeLine(t *testing.T, buf *bytes.Buffer) logLine {
	t.Helper()
	var line logLine
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("Failed to unmarshal log line %q: %v", buf.String(), err)
	}
	return line
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	t.Run("debug suppressed at info level", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		if buf.Len() > 0 {
			t.Errorf("Debug message should not be logged at Info level, got %s", buf.String())
		}
	})

	t.Run("info emitted", func(t *testing.T) {
		buf.Reset()
		logger.Info("info message")
		line := decodeLine(t, &buf)
		if line.Level != "INFO" {
			t.Errorf("Expected level INFO, got %s", line.Level)
		}
		if line.Msg != "info message" {
			t.Errorf("Expected msg 'info message', got %s", line.Msg)
		}
	})

	t.Run("formatted warn", func(t *testing.T) {
		buf.Reset()
		logger.Warnf("section %s missing", "cargo-commands")
		line := decodeLine(t, &buf)
		if line.Level != "WARN" || line.Msg != "section cargo-commands missing" {
			t.Errorf("Unexpected line: %+v", line)
		}
	})

	t.Run("error emitted", func(t *testing.T) {
		buf.Reset()
		logger.Errorf("failed: %d", 3)
		if decodeLine(t, &buf).Level != "ERROR" {
			t.Error("Expected ERROR level")
		}
	})
}

func TestLogger_WithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(DebugLevel, &buf)

	logger.WithFields(map[string]interface{}{"section": "installation"}).
		WithError(errors.New("boom")).
		Debug("lookup failed")

	line := decodeLine(t, &buf)
	if line.Section != "installation" {
		t.Errorf("Expected section field, got %q", line.Section)
	}
	if line.Error != "boom" {
		t.Errorf("Expected error field, got %q", line.Error)
	}

	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		" warn ":  WarnLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"bogus":   InfoLevel,
		"":        InfoLevel,
	}
	for input, want := range tests {
		if got := ParseLogLevel(input); got != want {
			t.Errorf("ParseLogLevel(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(InfoLevel, &buf)

	ctx := WithLogger(context.Background(), base)
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithSection(ctx, "core-concepts")

	FromContext(ctx).Info("served")

	line := decodeLine(t, &buf)
	if line.Request != "req-123" {
		t.Errorf("Expected request_id req-123, got %q", line.Request)
	}
	if line.Section != "core-concepts" {
		t.Errorf("Expected section core-concepts, got %q", line.Section)
	}
	if line.TraceID != "" {
		t.Errorf("Expected no trace_id without a span, got %q", line.TraceID)
	}
}

func TestContextAccessors_Empty(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" {
		t.Error("Expected empty request id")
	}
	if GetSection(ctx) != "" {
		t.Error("Expected empty section")
	}
	if GetLogger(ctx) == nil {
		t.Error("Expected fallback logger")
	}
}
