package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWithWriter_Format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter(&buf, "info", "text").Info("hello", slog.Int("n", 1))
	if !strings.Contains(buf.String(), "msg=hello n=1") {
		t.Errorf("text output = %q", buf.String())
	}

	buf.Reset()
	NewWithWriter(&buf, "warn", "json").Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info record written at warn level: %q", buf.String())
	}
}

func TestFromContext_Default(t *testing.T) {
	t.Parallel()

	if FromContext(context.Background()) != slog.Default() {
		t.Error("FromContext on empty ctx did not return slog.Default()")
	}
}

func TestWithRunID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := WithLogger(t.Context(), NewWithWriter(&buf, "info", "json"))
	ctx = WithRunID(ctx, "run-42")

	if got := RunID(ctx); got != "run-42" {
		t.Errorf("RunID() = %q, want run-42", got)
	}
	FromContext(ctx).Info("tagged")

	rec := map[string]any{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["run_id"] != "run-42" {
		t.Errorf("run_id = %v, want run-42", rec["run_id"])
	}
}

func TestNewRunID_Unique(t *testing.T) {
	t.Parallel()

	a, b := NewRunID(), NewRunID()
	if a == "" || a == b {
		t.Errorf("NewRunID() returned %q then %q", a, b)
	}
}
