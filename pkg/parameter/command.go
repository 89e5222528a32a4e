package parameter

import (
	"fmt"
	"strings"
)

// Instrument is the device-side collaborator a parameter dispatches string
// commands through. Implementations send a command and return the response
// (Ask) or send a command expecting no response (Write).
type Instrument interface {
	// Name returns the instrument name used in snapshots and errors.
	Name() string

	// Ask sends a query command and returns the instrument's response.
	Ask(cmd string) (string, error)

	// Write sends a command with no response expected.
	Write(cmd string) error
}

// Registrar is implemented by instruments that keep a parameter registry.
// Registration enforces the duplicate-name and abstract-override rules.
type Registrar interface {
	// RegisterParameter adds the parameter to the instrument's registry.
	RegisterParameter(p *Parameter) error
}

type cmdKind uint8

const (
	// cmdDefault is the zero value. Its meaning depends on position:
	// a default GetCmd is cache-backed, a default SetCmd is disabled.
	cmdDefault cmdKind = iota
	cmdNone
	cmdDisabled
	cmdString
	cmdGetFunc
	cmdSetFunc
)

// Cmd selects how a parameter's get or set reaches the device. The zero
// value keeps the historical defaults: reads come from the cache, writes
// are rejected. Construct non-default variants with NoCmd, Disabled,
// CmdString, GetFunc or SetFunc.
type Cmd struct {
	kind  cmdKind
	str   string
	getFn func() (any, error)
	setFn func(any) error
}

// NoCmd returns the trivial command: get reads the cached raw value, set
// stores into the cache. A parameter with NoCmd for both is a manual
// parameter.
func NoCmd() Cmd { return Cmd{kind: cmdNone} }

// Disabled returns a command that rejects the operation entirely.
func Disabled() Cmd { return Cmd{kind: cmdDisabled} }

// CmdString returns a command dispatched through the bound instrument.
// As a get command the string is sent via Ask and the response is the raw
// value. As a set command the string is a fmt template with exactly one
// verb for the raw value, sent via Write.
func CmdString(s string) Cmd { return Cmd{kind: cmdString, str: s} }

// GetFunc returns a get command backed by a callable.
func GetFunc(fn func() (any, error)) Cmd { return Cmd{kind: cmdGetFunc, getFn: fn} }

// SetFunc returns a set command backed by a callable.
func SetFunc(fn func(any) error) Cmd { return Cmd{kind: cmdSetFunc, setFn: fn} }

// isActive reports whether the command conflicts with a raw override.
// NoCmd and Disabled are compatible with overrides, everything else is not.
func (c Cmd) isActive() bool {
	return c.kind == cmdString || c.kind == cmdGetFunc || c.kind == cmdSetFunc
}

// resolveGet turns a get command into a raw getter for the parameter.
// The second return reports whether the parameter is gettable.
func (p *Parameter) resolveGet(cmd Cmd) (func() (any, error), bool, error) {
	switch cmd.kind {
	case cmdDefault, cmdNone:
		cache := p.cache
		return func() (any, error) { return cache.RawValue() }, true, nil
	case cmdDisabled:
		return nil, false, nil
	case cmdString:
		if p.instrument == nil {
			return nil, false, fmt.Errorf("%w: get command %q for parameter %q",
				ErrNoInstrument, cmd.str, p.name)
		}
		inst, query := p.instrument, cmd.str
		return func() (any, error) { return inst.Ask(query) }, true, nil
	case cmdGetFunc:
		return cmd.getFn, true, nil
	default:
		return nil, false, fmt.Errorf("%w: %q cannot be used as a get command",
			ErrBadCommand, p.name)
	}
}

// resolveSet turns a set command into a raw setter for the parameter.
func (p *Parameter) resolveSet(cmd Cmd) (func(any) error, bool, error) {
	switch cmd.kind {
	case cmdDefault, cmdDisabled:
		return nil, false, nil
	case cmdNone:
		// The wrapped set path stores the value in the cache; nothing
		// reaches a device.
		return func(any) error { return nil }, true, nil
	case cmdString:
		if p.instrument == nil {
			return nil, false, fmt.Errorf("%w: set command %q for parameter %q",
				ErrNoInstrument, cmd.str, p.name)
		}
		if !strings.ContainsRune(cmd.str, '%') {
			return nil, false, fmt.Errorf("%w: %q", ErrBadSetTemplate, cmd.str)
		}
		inst, tmpl := p.instrument, cmd.str
		return func(raw any) error {
			return inst.Write(fmt.Sprintf(tmpl, raw))
		}, true, nil
	case cmdSetFunc:
		return cmd.setFn, true, nil
	default:
		return nil, false, fmt.Errorf("%w: %q cannot be used as a set command",
			ErrBadCommand, p.name)
	}
}
