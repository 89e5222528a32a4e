// Package keithley2600 drives a Keithley 2600-series source meter. The
// instrument speaks TSP: values are read with print() expressions and
// written with Lua assignments, per channel (smua, smub).
package keithley2600

import (
	"fmt"
	"strings"

	"github.com/liuyichao82/Qcodes/pkg/instrument"
	"github.com/liuyichao82/Qcodes/pkg/parameter"
	"github.com/liuyichao82/Qcodes/pkg/transport"
	"github.com/liuyichao82/Qcodes/pkg/validators"
)

// ChannelNames lists the SMU channels of a 2600-series unit.
var ChannelNames = []string{"smua", "smub"}

// Voltage and current source ranges for the 2601B.
var (
	SourceRangesV = []any{0.2, 2.0, 20.0, 40.0}
	SourceRangesI = []any{100e-9, 1e-6, 10e-6, 100e-6, 1e-3, 0.01, 0.1, 1.0, 3.0}
)

// IDN identifies the instrument.
type IDN struct {
	Vendor   string
	Model    string
	Serial   string
	Firmware string
}

// Channel groups the parameters of one source-measure unit.
type Channel struct {
	// Name is the TSP channel name, smua or smub.
	Name string

	Volt          *parameter.Parameter
	Curr          *parameter.Parameter
	Res           *parameter.Parameter
	Mode          *parameter.Parameter
	Output        *parameter.Parameter
	NPLC          *parameter.Parameter
	SourceRangeV  *parameter.Parameter
	MeasureRangeV *parameter.Parameter
}

// Keithley2600 is a 2600-series source meter with two SMU channels.
type Keithley2600 struct {
	*instrument.Base

	SMUA *Channel
	SMUB *Channel
}

// New connects a Keithley 2600 driver over the given connection and builds
// the parameter set for both channels.
func New(name string, conn transport.Conn, opts ...instrument.Option) (*Keithley2600, error) {
	k := &Keithley2600{Base: instrument.New(name, conn, opts...)}

	var err error
	if k.SMUA, err = k.addChannel("smua"); err != nil {
		return nil, err
	}
	if k.SMUB, err = k.addChannel("smub"); err != nil {
		return nil, err
	}
	return k, nil
}

// IDN queries and parses the identity string.
func (k *Keithley2600) IDN() (IDN, error) {
	resp, err := k.Ask("*IDN?")
	if err != nil {
		return IDN{}, err
	}
	parts := strings.Split(resp, ",")
	if len(parts) != 4 {
		return IDN{}, fmt.Errorf("malformed identity string %q", resp)
	}
	return IDN{
		Vendor:   strings.TrimSpace(parts[0]),
		Model:    strings.TrimSpace(parts[1]),
		Serial:   strings.TrimSpace(parts[2]),
		Firmware: strings.TrimSpace(parts[3]),
	}, nil
}

// Channel returns a channel by TSP name.
func (k *Keithley2600) Channel(name string) (*Channel, error) {
	switch name {
	case "smua":
		return k.SMUA, nil
	case "smub":
		return k.SMUB, nil
	default:
		return nil, fmt.Errorf("unknown channel %q", name)
	}
}

func (k *Keithley2600) addChannel(ch string) (*Channel, error) {
	c := &Channel{Name: ch}

	// Each parameter is registered under a channel-prefixed name; the
	// command strings address the TSP attribute of the channel.
	specs := []struct {
		target **parameter.Parameter
		cfg    parameter.Config
	}{
		{&c.Volt, parameter.Config{
			Name:      ch + "_volt",
			Label:     "Voltage",
			Unit:      "V",
			GetCmd:    parameter.CmdString(fmt.Sprintf("print(%s.source.levelv)", ch)),
			SetCmd:    parameter.CmdString(ch + ".source.levelv = %g"),
			GetParser: parameter.ParseFloat,
			Vals:      validators.AnyNumber(),
		}},
		{&c.Curr, parameter.Config{
			Name:      ch + "_curr",
			Label:     "Current",
			Unit:      "A",
			GetCmd:    parameter.CmdString(fmt.Sprintf("print(%s.source.leveli)", ch)),
			SetCmd:    parameter.CmdString(ch + ".source.leveli = %g"),
			GetParser: parameter.ParseFloat,
			Vals:      validators.AnyNumber(),
		}},
		{&c.Res, parameter.Config{
			Name:      ch + "_res",
			Label:     "Resistance",
			Unit:      "Ohm",
			GetCmd:    parameter.CmdString(fmt.Sprintf("print(%s.measure.r())", ch)),
			GetParser: parameter.ParseFloat,
		}},
		{&c.Mode, parameter.Config{
			Name:   ch + "_mode",
			Label:  "Mode",
			GetCmd: parameter.CmdString(fmt.Sprintf("print(%s.source.func)", ch)),
			SetCmd: parameter.CmdString(ch + ".source.func = %s"),
			ValMapping: map[any]any{
				"current": "0",
				"voltage": "1",
			},
		}},
		{&c.Output, parameter.Config{
			Name:   ch + "_output",
			Label:  "Output",
			GetCmd: parameter.CmdString(fmt.Sprintf("print(%s.source.output)", ch)),
			SetCmd: parameter.CmdString(ch + ".source.output = %s"),
			ValMapping: map[any]any{
				false: "0",
				true:  "1",
			},
		}},
		{&c.NPLC, parameter.Config{
			Name:      ch + "_nplc",
			Label:     "Integration time",
			GetCmd:    parameter.CmdString(fmt.Sprintf("print(%s.measure.nplc)", ch)),
			SetCmd:    parameter.CmdString(ch + ".measure.nplc = %g"),
			GetParser: parameter.ParseFloat,
			Vals:      validators.NewNumbers(0.001, 25),
		}},
		{&c.SourceRangeV, parameter.Config{
			Name:      ch + "_sourcerange_v",
			Label:     "Source voltage range",
			Unit:      "V",
			GetCmd:    parameter.CmdString(fmt.Sprintf("print(%s.source.rangev)", ch)),
			SetCmd:    parameter.CmdString(ch + ".source.rangev = %g"),
			GetParser: parameter.ParseFloat,
			Vals:      validators.NewEnum(SourceRangesV...),
		}},
		{&c.MeasureRangeV, parameter.Config{
			Name:      ch + "_measurerange_v",
			Label:     "Measure voltage range",
			Unit:      "V",
			GetCmd:    parameter.CmdString(fmt.Sprintf("print(%s.measure.rangev)", ch)),
			SetCmd:    parameter.CmdString(ch + ".measure.rangev = %g"),
			GetParser: parameter.ParseFloat,
			Vals:      validators.NewEnum(SourceRangesV...),
		}},
	}

	for _, spec := range specs {
		p, err := k.AddParameter(&spec.cfg)
		if err != nil {
			return nil, fmt.Errorf("building channel %s: %w", ch, err)
		}
		*spec.target = p
	}
	return c, nil
}
