package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	ctxutil "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/context"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in).Level(); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewWithWriter_JSONCarriesContextValues(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "backend-dian", "info", "production")

	ctx := ctxutil.WithCorrelationID(context.Background(), "req-1")
	ctx = ctxutil.WithOperation(ctx, "submit_invoice")
	log.InfoContext(ctx, "Document submitted", "status", "accepted")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	for key, want := range map[string]string{
		"app":            "backend-dian",
		"correlation_id": "req-1",
		"operation":      "submit_invoice",
		"status":         "accepted",
	} {
		if entry[key] != want {
			t.Errorf("expected %s=%q, got %v", key, want, entry[key])
		}
	}
}

func TestNewWithWriter_TextInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "backend-dian", "debug", "local")

	log.With("document", "900123456:FACT1").Debug("Assembled")

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "document=900123456:FACT1") {
		t.Errorf("unexpected text output %q", out)
	}
	if strings.Contains(out, colorCyan) {
		t.Error("non-terminal writers must not be colored")
	}
	if strings.Contains(out, "correlation_id") {
		t.Error("correlation_id must be omitted without context value")
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "backend-dian", "warn", "production")

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
}

func TestColorWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := &colorWriter{writer: &buf}

	n, err := cw.Write([]byte("level=ERROR msg=boom\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len("level=ERROR msg=boom\n") {
		t.Errorf("expected original length, got %d", n)
	}
	if !strings.HasPrefix(buf.String(), colorRed+"level=ERROR"+colorReset) {
		t.Errorf("expected red level, got %q", buf.String())
	}
}
