package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/liuyichao82/Qcodes/pkg/paramlog"
)

func TestViewFormatsEvents(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunView(path, paramlog.Filter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "SET") || !strings.Contains(output, "keithley.smua_volt") {
		t.Errorf("expected formatted set event, got:\n%s", output)
	}
	if !strings.Contains(output, "value=1.5") {
		t.Errorf("expected value in output, got:\n%s", output)
	}
	if !strings.Contains(output, "Error: device timeout") {
		t.Errorf("expected error detail line, got:\n%s", output)
	}
	// Unbound parameters have no instrument prefix.
	if !strings.Contains(output, "CACHE_SET  gate") {
		t.Errorf("expected bare parameter name, got:\n%s", output)
	}
}

func TestViewAppliesFilter(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	op := paramlog.OpGet
	var buf bytes.Buffer
	if err := RunView(path, paramlog.Filter{Op: &op}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "SET") {
		t.Errorf("expected sets filtered out, got:\n%s", output)
	}
	if lines := strings.Count(output, "GET"); lines != 2 {
		t.Errorf("expected 2 get events, found %d in:\n%s", lines, output)
	}
}

func TestViewMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunView("nonexistent.plog", paramlog.Filter{}, &buf); err == nil {
		t.Error("expected an error for a missing file")
	}
}
