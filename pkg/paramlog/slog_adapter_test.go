package paramlog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSlogAdapterDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	adapter.Log(Event{
		Timestamp:  time.Now(),
		Instrument: "dmm",
		Parameter:  "volt",
		Op:         OpGet,
		Value:      "1.5",
	})

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") {
		t.Errorf("expected debug level, got %q", out)
	}
	if !strings.Contains(out, "parameter=volt") || !strings.Contains(out, "op=GET") {
		t.Errorf("expected event attributes, got %q", out)
	}
}

func TestSlogAdapterWarnsOnError(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	adapter.Log(Event{
		Timestamp: time.Now(),
		Parameter: "volt",
		Op:        OpSet,
		Error:     "device timeout",
	})

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("expected warn level for a failed operation, got %q", out)
	}
	if !strings.Contains(out, "device timeout") {
		t.Errorf("expected the error message, got %q", out)
	}
}
