package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestStatsCountsEvents(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Total Events: 4") {
		t.Errorf("expected total of 4, got:\n%s", output)
	}
	if !strings.Contains(output, "Errors:       1") {
		t.Errorf("expected 1 error, got:\n%s", output)
	}
	if !strings.Contains(output, "GET:") || !strings.Contains(output, "SET:") {
		t.Errorf("expected per-operation counts, got:\n%s", output)
	}
	if !strings.Contains(output, "CACHE_SET:") {
		t.Errorf("expected cache set count, got:\n%s", output)
	}
}

func TestStatsPerParameter(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "keithley.smua_volt: 2 events") {
		t.Errorf("expected per-parameter counts, got:\n%s", output)
	}
	if !strings.Contains(output, "keithley.smua_curr: 1 events, 1 errors") {
		t.Errorf("expected error counts per parameter, got:\n%s", output)
	}
	if !strings.Contains(output, "avg device op") {
		t.Errorf("expected average device latency, got:\n%s", output)
	}
}

func TestStatsTimeRange(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	if !strings.Contains(buf.String(), "Time Range: 2026-01-28T10:00:00Z to 2026-01-28T10:00:03Z") {
		t.Errorf("expected a time range, got:\n%s", buf.String())
	}
}

func TestStatsEmptyLog(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("expected zero total, got:\n%s", buf.String())
	}
}
