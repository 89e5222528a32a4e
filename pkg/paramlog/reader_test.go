package paramlog

import (
	"io"
	"path/filepath"
	"testing"
	"time"
)

func writeEventLog(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.plog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()
	return path
}

func readAll(t *testing.T, path string, filter Filter) []Event {
	t.Helper()
	reader, err := NewFilteredReader(path, filter)
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	var events []Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		events = append(events, event)
	}
}

func TestReaderReadsAll(t *testing.T) {
	base := time.Now()
	path := writeEventLog(t, []Event{
		{Timestamp: base, Instrument: "dmm", Parameter: "volt", Op: OpGet},
		{Timestamp: base.Add(time.Second), Instrument: "dmm", Parameter: "volt", Op: OpSet},
		{Timestamp: base.Add(2 * time.Second), Instrument: "smu", Parameter: "curr", Op: OpGet, Error: "timeout"},
	})

	events := readAll(t, path, Filter{})
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Parameter != "volt" || events[2].Instrument != "smu" {
		t.Errorf("unexpected order: %+v", events)
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Now()
	path := writeEventLog(t, []Event{
		{Timestamp: base, Instrument: "dmm", Parameter: "volt", Op: OpGet},
		{Timestamp: base.Add(time.Second), Instrument: "dmm", Parameter: "volt", Op: OpSet},
		{Timestamp: base.Add(2 * time.Second), Instrument: "smu", Parameter: "curr", Op: OpGet, Error: "timeout"},
	})

	t.Run("ByInstrument", func(t *testing.T) {
		events := readAll(t, path, Filter{Instrument: "smu"})
		if len(events) != 1 || events[0].Parameter != "curr" {
			t.Errorf("expected the smu event, got %+v", events)
		}
	})

	t.Run("ByParameter", func(t *testing.T) {
		events := readAll(t, path, Filter{Parameter: "volt"})
		if len(events) != 2 {
			t.Errorf("expected 2 volt events, got %d", len(events))
		}
	})

	t.Run("ByOp", func(t *testing.T) {
		op := OpSet
		events := readAll(t, path, Filter{Op: &op})
		if len(events) != 1 || events[0].Op != OpSet {
			t.Errorf("expected the set event, got %+v", events)
		}
	})

	t.Run("ErrorsOnly", func(t *testing.T) {
		events := readAll(t, path, Filter{ErrorsOnly: true})
		if len(events) != 1 || events[0].Error != "timeout" {
			t.Errorf("expected the failed event, got %+v", events)
		}
	})

	t.Run("ByTimeWindow", func(t *testing.T) {
		start := base.Add(500 * time.Millisecond)
		end := base.Add(1500 * time.Millisecond)
		events := readAll(t, path, Filter{TimeStart: &start, TimeEnd: &end})
		if len(events) != 1 || events[0].Op != OpSet {
			t.Errorf("expected the middle event, got %+v", events)
		}
	})

	t.Run("NoMatch", func(t *testing.T) {
		events := readAll(t, path, Filter{Instrument: "laser"})
		if len(events) != 0 {
			t.Errorf("expected no events, got %+v", events)
		}
	})
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "absent.plog")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
