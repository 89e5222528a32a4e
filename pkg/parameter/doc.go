// Package parameter models a single controllable or readable degree of
// freedom on a laboratory instrument: a voltage, a frequency, a mode switch.
//
// A Parameter composes a value cache, an optional command dispatcher that
// forwards reads and writes to a physical device, a validator, and
// unit-conversion hooks (scale, offset, value mapping, parsers). Parameters
// are created once when an instrument is assembled and are addressed by name
// through the instrument's parameter registry.
//
// # Commands
//
// How a parameter reaches its device is decided at construction through the
// Cmd variant type:
//
//	p, err := parameter.New(&parameter.Config{
//	    Name:       "frequency",
//	    Instrument: gen,
//	    Unit:       "Hz",
//	    GetCmd:     parameter.CmdString("FREQ?"),
//	    SetCmd:     parameter.CmdString("FREQ %g"),
//	    Vals:       validators.NewNumbers(0, 2e7),
//	})
//
// String commands go through the instrument's Ask and Write methods. NoCmd
// turns the corresponding operation into a pure cache access, Disabled
// rejects it, and GetFunc/SetFunc dispatch to arbitrary callables.
//
// # Delegation
//
// A DelegateParameter wraps another parameter and forwards get/set to it
// while carrying its own presentation metadata and conversion knobs. Its
// cache is a facade over the source's cache; the source remains the single
// authoritative value store.
//
// # Manual parameters
//
// NewManual builds a parameter with no device command at all: a validated,
// cached variable.
package parameter
