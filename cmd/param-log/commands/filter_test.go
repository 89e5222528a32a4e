package commands

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/liuyichao82/Qcodes/pkg/paramlog"
)

func countEvents(t *testing.T, path string) int {
	t.Helper()
	reader, err := paramlog.NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		if _, err := reader.Next(); err == io.EOF {
			return count
		} else if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		count++
	}
}

func TestFilterByInstrument(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.plog")

	err := RunFilter(path, FilterOptions{Output: out, Instrument: "keithley"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if got := countEvents(t, out); got != 3 {
		t.Errorf("expected 3 keithley events, got %d", got)
	}
}

func TestFilterErrorsOnly(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.plog")

	err := RunFilter(path, FilterOptions{Output: out, ErrorsOnly: true})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if got := countEvents(t, out); got != 1 {
		t.Errorf("expected 1 failed event, got %d", got)
	}
}

func TestFilterByOpAndParameter(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.plog")

	err := RunFilter(path, FilterOptions{Output: out, Op: "get", Parameter: "smua_volt"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if got := countEvents(t, out); got != 1 {
		t.Errorf("expected 1 event, got %d", got)
	}
}

func TestFilterTimeWindow(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.plog")

	err := RunFilter(path, FilterOptions{
		Output:    out,
		TimeStart: "2026-01-28T10:00:01Z",
		TimeEnd:   "2026-01-28T10:00:03Z",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if got := countEvents(t, out); got != 2 {
		t.Errorf("expected 2 events in the window, got %d", got)
	}
}

func TestFilterRejectsBadInputs(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.plog")

	if err := RunFilter(path, FilterOptions{Output: out, Op: "bogus"}); err == nil {
		t.Error("expected an error for an unknown operation")
	}
	if err := RunFilter(path, FilterOptions{Output: out, TimeStart: "yesterday"}); err == nil {
		t.Error("expected an error for a malformed time")
	}
}
