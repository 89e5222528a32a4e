// Package instrument provides the instrument-side half of the parameter
// abstraction: a named registry of parameters bound to a command
// connection.
package instrument

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/liuyichao82/Qcodes/pkg/paramlog"
	"github.com/liuyichao82/Qcodes/pkg/parameter"
	"github.com/liuyichao82/Qcodes/pkg/transport"
)

// Registry errors.
var (
	ErrDuplicateParameter = errors.New("duplicate parameter name")
	ErrUnitMismatch       = errors.New("unit differs from the abstract parameter being overridden")
	ErrParameterNotFound  = errors.New("parameter not found")
	ErrNotConnected       = errors.New("instrument has no connection")
	ErrAbstractParameter  = errors.New("abstract parameter was never overridden")
)

// Base is a concrete instrument: a name, a command connection and a
// parameter registry. Drivers embed Base and add their parameters on top.
type Base struct {
	name string
	id   string
	conn transport.Conn

	logger paramlog.Logger

	mu         sync.RWMutex
	parameters map[string]*parameter.Parameter
}

// Option configures an instrument at construction time.
type Option func(*Base)

// WithEventLogger makes every parameter added through AddParameter emit
// its operation events to l, unless the parameter config names its own
// logger.
func WithEventLogger(l paramlog.Logger) Option {
	return func(b *Base) { b.logger = l }
}

// New creates an instrument with the given name over the given connection.
// conn may be nil for instruments whose parameters never use string
// commands.
func New(name string, conn transport.Conn, opts ...Option) *Base {
	b := &Base{
		name:       name,
		id:         uuid.NewString(),
		conn:       conn,
		parameters: make(map[string]*parameter.Parameter),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the instrument name.
func (b *Base) Name() string { return b.name }

// ID returns the unique instance identifier.
func (b *Base) ID() string { return b.id }

// Ask forwards a query to the connection.
func (b *Base) Ask(cmd string) (string, error) {
	if b.conn == nil {
		return "", fmt.Errorf("%w: %q cannot ask %q", ErrNotConnected, b.name, cmd)
	}
	return b.conn.Ask(cmd)
}

// Write forwards a command to the connection.
func (b *Base) Write(cmd string) error {
	if b.conn == nil {
		return fmt.Errorf("%w: %q cannot write %q", ErrNotConnected, b.name, cmd)
	}
	return b.conn.Write(cmd)
}

// RegisterParameter adds a parameter to the registry. A name already in use
// is rejected unless the existing parameter is abstract; overriding an
// abstract parameter requires a matching unit.
func (b *Base) RegisterParameter(p *parameter.Parameter) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.parameters[p.Name()]; ok {
		if !existing.Abstract() {
			return fmt.Errorf("%w: %q on instrument %q", ErrDuplicateParameter, p.Name(), b.name)
		}
		if existing.Unit() != p.Unit() {
			return fmt.Errorf("%w: parameter %q has unit %q, abstract base has %q",
				ErrUnitMismatch, p.Name(), p.Unit(), existing.Unit())
		}
	}
	b.parameters[p.Name()] = p
	return nil
}

// AddParameter builds a parameter bound to this instrument and registers
// it. The config's Instrument field is overwritten.
func (b *Base) AddParameter(cfg *parameter.Config) (*parameter.Parameter, error) {
	if cfg == nil {
		return nil, parameter.ErrNameRequired
	}
	bound := *cfg
	bound.Instrument = b
	if bound.Logger == nil {
		bound.Logger = b.logger
	}
	return parameter.New(&bound)
}

// Parameter returns a registered parameter by name.
func (b *Base) Parameter(name string) (*parameter.Parameter, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p, ok := b.parameters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q on instrument %q", ErrParameterNotFound, name, b.name)
	}
	return p, nil
}

// Parameters returns a copy of the registry.
func (b *Base) Parameters() map[string]*parameter.Parameter {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]*parameter.Parameter, len(b.parameters))
	for name, p := range b.parameters {
		out[name] = p
	}
	return out
}

// ParameterNames returns the registered names in sorted order.
func (b *Base) ParameterNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.parameters))
	for name := range b.parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckAbstract returns an error naming every parameter that is still
// abstract. Instruments must pass this before use.
func (b *Base) CheckAbstract() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var err error
	for name, p := range b.parameters {
		if p.Abstract() {
			err = multierr.Append(err,
				fmt.Errorf("%w: %q on instrument %q", ErrAbstractParameter, name, b.name))
		}
	}
	return err
}

// Snapshot aggregates parameter snapshots, omitting parameters marked
// snapshot-excluded.
func (b *Base) Snapshot(update bool) map[string]any {
	params := b.Parameters()

	paramSnaps := make(map[string]any, len(params))
	for name, p := range params {
		if p.SnapshotExclude() {
			continue
		}
		paramSnaps[name] = p.Snapshot(update)
	}
	return map[string]any{
		"name":       b.name,
		"id":         b.id,
		"parameters": paramSnaps,
	}
}

// Close releases the connection. Errors from the connection are
// aggregated.
func (b *Base) Close() error {
	var err error
	if b.conn != nil {
		err = multierr.Append(err, b.conn.Close())
	}
	return err
}

// Compile-time interface satisfaction checks.
var (
	_ parameter.Instrument = (*Base)(nil)
	_ parameter.Registrar  = (*Base)(nil)
)
