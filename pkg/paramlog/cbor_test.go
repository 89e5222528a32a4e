package paramlog

import (
	"testing"
	"time"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	event := Event{
		Timestamp:  time.Now(),
		SessionID:  "session-1",
		Instrument: "dmm",
		Parameter:  "volt",
		Op:         OpSet,
		Value:      "1.5",
		RawValue:   "1500",
		Elapsed:    3 * time.Millisecond,
		Error:      "timeout",
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.SessionID != event.SessionID {
		t.Errorf("session ID mismatch: %q vs %q", decoded.SessionID, event.SessionID)
	}
	if decoded.Instrument != event.Instrument || decoded.Parameter != event.Parameter {
		t.Errorf("identity mismatch: %+v", decoded)
	}
	if decoded.Op != OpSet {
		t.Errorf("expected OpSet, got %v", decoded.Op)
	}
	if decoded.Value != "1.5" || decoded.RawValue != "1500" {
		t.Errorf("value mismatch: %+v", decoded)
	}
	if decoded.Elapsed != event.Elapsed {
		t.Errorf("elapsed mismatch: %v vs %v", decoded.Elapsed, event.Elapsed)
	}
	if decoded.Error != "timeout" {
		t.Errorf("error mismatch: %q", decoded.Error)
	}
}

func TestTimestampNanosecondPrecision(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	event := Event{Timestamp: ts, Parameter: "volt", Op: OpGet}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(ts) {
		t.Errorf("timestamp lost precision: %v vs %v", decoded.Timestamp, ts)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x00, 0x01}); err == nil {
		t.Error("expected an error for malformed CBOR")
	}
}
