package keithley2600

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liuyichao82/Qcodes/pkg/sim"
	"github.com/liuyichao82/Qcodes/pkg/validators"
)

func newDriver(t *testing.T) (*Keithley2600, *sim.Backend) {
	t.Helper()
	k, backend, err := NewSimulated("keithley")
	require.NoError(t, err)
	t.Cleanup(func() { _ = k.Close() })
	return k, backend
}

func TestIDN(t *testing.T) {
	k, _ := newDriver(t)

	idn, err := k.IDN()
	require.NoError(t, err)
	assert.Equal(t, "Keithley Instruments Inc.", idn.Vendor)
	assert.Equal(t, "2601B", idn.Model)
	assert.Equal(t, "1398687", idn.Serial)
	assert.Equal(t, "3.0.0", idn.Firmware)
}

func TestChannelLookup(t *testing.T) {
	k, _ := newDriver(t)

	a, err := k.Channel("smua")
	require.NoError(t, err)
	assert.Same(t, k.SMUA, a)

	b, err := k.Channel("smub")
	require.NoError(t, err)
	assert.Same(t, k.SMUB, b)

	_, err = k.Channel("smuc")
	assert.Error(t, err)
}

func TestVoltageAndCurrent(t *testing.T) {
	k, backend := newDriver(t)

	for _, ch := range []*Channel{k.SMUA, k.SMUB} {
		t.Run(ch.Name, func(t *testing.T) {
			require.NoError(t, ch.Volt.Set(1.0))
			got, err := ch.Volt.Get()
			require.NoError(t, err)
			assert.Equal(t, 1.0, got)

			// The simulated device holds the written value.
			raw, ok := backend.Value(ch.Name + "_levelv")
			require.True(t, ok)
			assert.Equal(t, "1", raw)

			require.NoError(t, ch.Curr.Set(1.0))
			got, err = ch.Curr.Get()
			require.NoError(t, err)
			assert.Equal(t, 1.0, got)

			got, err = ch.Res.Get()
			require.NoError(t, err)
			assert.Equal(t, 0.0, got)
		})
	}
}

func TestSourceLimits(t *testing.T) {
	k, _ := newDriver(t)

	// The simulated 2601B rejects levels beyond its source capability.
	assert.Error(t, k.SMUA.Volt.Set(50.0))
	assert.Error(t, k.SMUA.Curr.Set(4.0))
}

func TestMode(t *testing.T) {
	k, backend := newDriver(t)

	got, err := k.SMUA.Mode.Get()
	require.NoError(t, err)
	assert.Equal(t, "current", got)

	require.NoError(t, k.SMUA.Mode.Set("voltage"))
	raw, ok := backend.Value("smua_func")
	require.True(t, ok)
	assert.Equal(t, "1", raw)

	got, err = k.SMUA.Mode.Get()
	require.NoError(t, err)
	assert.Equal(t, "voltage", got)

	err = k.SMUA.Mode.Set("resistance")
	assert.ErrorIs(t, err, validators.ErrNotPermitted)
}

func TestOutput(t *testing.T) {
	k, backend := newDriver(t)

	got, err := k.SMUA.Output.Get()
	require.NoError(t, err)
	assert.Equal(t, false, got)

	require.NoError(t, k.SMUA.Output.Set(true))
	raw, ok := backend.Value("smua_output")
	require.True(t, ok)
	assert.Equal(t, "1", raw)

	got, err = k.SMUA.Output.Get()
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestNPLC(t *testing.T) {
	k, _ := newDriver(t)

	require.NoError(t, k.SMUA.NPLC.Set(0.05))
	got, err := k.SMUA.NPLC.Get()
	require.NoError(t, err)
	assert.Equal(t, 0.05, got)

	assert.ErrorIs(t, k.SMUA.NPLC.Set(100.0), validators.ErrOutOfRange)
}

func TestVoltageRanges(t *testing.T) {
	k, _ := newDriver(t)

	for _, p := range []struct {
		name  string
		param interface {
			Set(any) error
			Get() (any, error)
		}
	}{
		{"source", k.SMUA.SourceRangeV},
		{"measure", k.SMUA.MeasureRangeV},
	} {
		t.Run(p.name, func(t *testing.T) {
			require.NoError(t, p.param.Set(20.0))
			got, err := p.param.Get()
			require.NoError(t, err)
			assert.Equal(t, 20.0, got)

			assert.ErrorIs(t, p.param.Set(5.0), validators.ErrNotPermitted)
		})
	}
}

func TestParameterRegistry(t *testing.T) {
	k, _ := newDriver(t)

	names := k.ParameterNames()
	assert.Len(t, names, 16)
	assert.Contains(t, names, "smua_volt")
	assert.Contains(t, names, "smub_measurerange_v")
}

func TestSnapshot(t *testing.T) {
	k, _ := newDriver(t)
	require.NoError(t, k.SMUA.Volt.Set(2.0))

	snap := k.Snapshot(true)
	params, ok := snap["parameters"].(map[string]any)
	require.True(t, ok)

	volt, ok := params["smua_volt"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2.0, volt["value"])
	assert.Equal(t, "V", volt["unit"])
}
