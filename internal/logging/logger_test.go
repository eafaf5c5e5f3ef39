package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")

	logger.Info("run finished", "run_id", "r1")

	out := buf.String()
	if !strings.HasPrefix(out, "{") {
		t.Fatalf("expected JSON output, got %q", out)
	}
	if !strings.Contains(out, `"run_id":"r1"`) {
		t.Errorf("missing run_id field: %q", out)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "text")

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn entry missing: %q", out)
	}
}

func withDefault(t *testing.T, buf *bytes.Buffer) {
	t.Helper()
	orig := slog.Default()
	slog.SetDefault(New(buf, "debug", "text"))
	t.Cleanup(func() { slog.SetDefault(orig) })
}

func TestFromContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	withDefault(t, &buf)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	FromContext(ctx).Info("hello")

	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Errorf("missing request_id: %q", buf.String())
	}
}

func TestComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	withDefault(t, &buf)

	Component("media").Info("a")
	WithFields(context.Background(), "run_id", "r9").Info("b")

	out := buf.String()
	if !strings.Contains(out, "component=media") {
		t.Errorf("missing component: %q", out)
	}
	if !strings.Contains(out, "run_id=r9") {
		t.Errorf("missing run_id: %q", out)
	}
}
