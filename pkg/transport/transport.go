// Package transport provides line-oriented connections to instruments that
// speak ASCII command protocols (SCPI and friends) over TCP sockets, serial
// ports, or any io.ReadWriter.
package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/multierr"
)

// ErrClosed is returned for operations on a closed connection.
var ErrClosed = errors.New("connection is closed")

// Conn is a bidirectional command channel to an instrument.
type Conn interface {
	// Ask sends a query and returns the instrument's response line.
	Ask(cmd string) (string, error)

	// Write sends a command with no response expected.
	Write(cmd string) error

	// Close releases the underlying channel.
	Close() error
}

// LineConn frames commands and responses as terminator-delimited lines over
// an io.ReadWriter. It is safe for concurrent use; each Ask holds the
// connection for the full write-read round trip.
type LineConn struct {
	mu     sync.Mutex
	rw     io.ReadWriter
	reader *bufio.Reader
	term   string
	closed bool
}

// LineOption applies an option to a LineConn.
type LineOption func(*LineConn)

// WithTerminator sets the write terminator. Default "\n".
func WithTerminator(term string) LineOption {
	return func(c *LineConn) { c.term = term }
}

// NewLineConn wraps rw in a line-framed connection.
func NewLineConn(rw io.ReadWriter, opts ...LineOption) *LineConn {
	c := &LineConn{
		rw:     rw,
		reader: bufio.NewReader(rw),
		term:   "\n",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask sends a query and reads one response line, with the trailing
// terminator and any carriage return stripped.
func (c *LineConn) Ask(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}
	if _, err := io.WriteString(c.rw, cmd+c.term); err != nil {
		return "", fmt.Errorf("writing query %q: %w", cmd, err)
	}
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading response to %q: %w", cmd, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Write sends a command with no response expected.
func (c *LineConn) Write(cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if _, err := io.WriteString(c.rw, cmd+c.term); err != nil {
		return fmt.Errorf("writing command %q: %w", cmd, err)
	}
	return nil
}

// Close closes the underlying channel if it is closeable.
func (c *LineConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var err error
	if closer, ok := c.rw.(io.Closer); ok {
		err = multierr.Append(err, closer.Close())
	}
	return err
}

// Compile-time interface satisfaction check.
var _ Conn = (*LineConn)(nil)

// DialTCP opens a line-framed connection to a socket instrument, typically
// port 5025 for SCPI-raw.
func DialTCP(addr string, timeout time.Duration, opts ...LineOption) (*LineConn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	return NewLineConn(conn, opts...), nil
}

// OpenSerial opens a line-framed connection over a serial port, for
// instruments on USB-serial or RS-232 bridges.
func OpenSerial(port string, baudRate int, opts ...LineOption) (*LineConn, error) {
	p, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", port, err)
	}
	return NewLineConn(p, opts...), nil
}
