package keithley2600

import (
	_ "embed"

	"github.com/liuyichao82/Qcodes/pkg/instrument"
	"github.com/liuyichao82/Qcodes/pkg/sim"
)

//go:embed keithley2600_sim.yaml
var simDefinition []byte

// NewSimulated builds the driver over an in-memory simulated 2601B.
// The returned backend is the same connection the driver talks to, so
// tests can assert on raw device state.
func NewSimulated(name string, opts ...instrument.Option) (*Keithley2600, *sim.Backend, error) {
	def, err := sim.Parse(simDefinition)
	if err != nil {
		return nil, nil, err
	}
	backend := sim.NewBackend(def)
	k, err := New(name, backend, opts...)
	if err != nil {
		return nil, nil, err
	}
	return k, backend, nil
}
