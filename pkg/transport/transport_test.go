package transport

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// scriptedRW records written commands and serves pre-loaded response lines.
type scriptedRW struct {
	in     bytes.Buffer
	out    bytes.Buffer
	closed bool
}

func (s *scriptedRW) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *scriptedRW) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s *scriptedRW) Close() error {
	s.closed = true
	return nil
}

func TestLineConnAsk(t *testing.T) {
	rw := &scriptedRW{}
	rw.in.WriteString("1.25\n")
	conn := NewLineConn(rw)

	resp, err := conn.Ask("VOLT?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if resp != "1.25" {
		t.Errorf("expected response 1.25, got %q", resp)
	}
	if rw.out.String() != "VOLT?\n" {
		t.Errorf("expected terminated query, got %q", rw.out.String())
	}
}

func TestLineConnStripsCarriageReturn(t *testing.T) {
	rw := &scriptedRW{}
	rw.in.WriteString("OK\r\n")
	conn := NewLineConn(rw)

	resp, err := conn.Ask("*OPC?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if resp != "OK" {
		t.Errorf("expected CR stripped, got %q", resp)
	}
}

func TestLineConnWrite(t *testing.T) {
	rw := &scriptedRW{}
	conn := NewLineConn(rw, WithTerminator("\r\n"))

	if err := conn.Write("OUTP ON"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if rw.out.String() != "OUTP ON\r\n" {
		t.Errorf("expected custom terminator, got %q", rw.out.String())
	}
}

func TestLineConnAskWithoutResponse(t *testing.T) {
	conn := NewLineConn(&scriptedRW{})

	if _, err := conn.Ask("VOLT?"); err == nil {
		t.Error("expected an error when no response line is available")
	}
}

func TestLineConnClose(t *testing.T) {
	rw := &scriptedRW{}
	conn := NewLineConn(rw)

	if err := conn.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !rw.closed {
		t.Error("expected the underlying closer to be closed")
	}

	if err := conn.Write("OUTP ON"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on write, got %v", err)
	}
	if _, err := conn.Ask("VOLT?"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on ask, got %v", err)
	}

	// A second close is a no-op.
	if err := conn.Close(); err != nil {
		t.Errorf("expected idempotent close, got %v", err)
	}
}

func TestLineConnPlainReadWriter(t *testing.T) {
	// A ReadWriter without Close still works; Close only marks the
	// connection closed.
	var out strings.Builder
	rw := struct {
		*strings.Reader
		*strings.Builder
	}{strings.NewReader("resp\n"), &out}

	conn := NewLineConn(rw)
	resp, err := conn.Ask("Q?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if resp != "resp" {
		t.Errorf("expected resp, got %q", resp)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
