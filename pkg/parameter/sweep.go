package parameter

import (
	"errors"
	"fmt"
	"math"

	"github.com/liuyichao82/Qcodes/pkg/validators"
)

// Sweep construction errors.
var (
	ErrSweepSpacing = errors.New("sweep needs exactly one of step or num")
	ErrSweepNum     = errors.New("sweep num must be at least one")
	ErrSweepStep    = errors.New("sweep step must be non-zero")
)

// SweepOption configures the spacing of a sweep.
type SweepOption func(*sweepSpec)

type sweepSpec struct {
	step    float64
	num     int
	hasStep bool
	hasNum  bool
}

// WithStep spaces the sweep values |step| apart. The sign of step is
// ignored: direction follows stop relative to start.
func WithStep(step float64) SweepOption {
	return func(s *sweepSpec) {
		s.step = step
		s.hasStep = true
	}
}

// WithNum produces exactly num linearly spaced values from start to stop
// inclusive.
func WithNum(num int) SweepOption {
	return func(s *sweepSpec) {
		s.num = num
		s.hasNum = true
	}
}

// SweepFixedValues is an immutable, restartable, finite sequence of target
// values bound to the parameter that produced it. An external executor
// iterates it and calls Set per element.
type SweepFixedValues struct {
	parameter *Parameter
	values    []float64
}

// Sweep creates a collection of parameter values to iterate over, linearly
// spaced from start to stop. Exactly one of WithStep or WithNum is
// required. Every value is validated against the parameter's validator.
func (p *Parameter) Sweep(start, stop float64, opt SweepOption) (*SweepFixedValues, error) {
	var spec sweepSpec
	if opt != nil {
		opt(&spec)
	}
	if spec.hasStep == spec.hasNum {
		return nil, fmt.Errorf("%w: parameter %q", ErrSweepSpacing, p.name)
	}

	var values []float64
	switch {
	case spec.hasNum:
		if spec.num < 1 {
			return nil, fmt.Errorf("%w: got %d", ErrSweepNum, spec.num)
		}
		values = linspace(start, stop, spec.num)
	case spec.hasStep:
		if spec.step == 0 {
			return nil, ErrSweepStep
		}
		values = steppedRange(start, stop, spec.step)
	}

	for _, v := range values {
		if err := p.Validate(v); err != nil {
			return nil, err
		}
	}
	return &SweepFixedValues{parameter: p, values: values}, nil
}

// SweepList binds an explicit sequence of target values to the parameter,
// the equivalent of slicing the parameter into a sweep sequence.
func (p *Parameter) SweepList(values ...any) (*SweepFixedValues, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, ok := validators.ToFloat64(v)
		if !ok {
			return nil, fmt.Errorf("%w: sweep value %v", ErrNotNumeric, v)
		}
		if err := p.Validate(v); err != nil {
			return nil, err
		}
		out[i] = f
	}
	return &SweepFixedValues{parameter: p, values: out}, nil
}

// Parameter returns the parameter the sweep is bound to.
func (s *SweepFixedValues) Parameter() *Parameter { return s.parameter }

// Values returns a copy of the sweep values in order.
func (s *SweepFixedValues) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// Len returns the number of sweep values.
func (s *SweepFixedValues) Len() int { return len(s.values) }

// Reverse returns a new sweep over the same values in opposite order.
func (s *SweepFixedValues) Reverse() *SweepFixedValues {
	out := make([]float64, len(s.values))
	for i, v := range s.values {
		out[len(s.values)-1-i] = v
	}
	return &SweepFixedValues{parameter: s.parameter, values: out}
}

// Snapshot returns the sweep state as a JSON-friendly mapping.
func (s *SweepFixedValues) Snapshot() map[string]any {
	return map[string]any{
		"parameter": s.parameter.Name(),
		"values":    s.Values(),
	}
}

// linspace returns num values linearly spaced from start to stop inclusive.
func linspace(start, stop float64, num int) []float64 {
	if num == 1 {
		return []float64{start}
	}
	values := make([]float64, num)
	spacing := (stop - start) / float64(num-1)
	for i := range values {
		values[i] = start + float64(i)*spacing
	}
	values[num-1] = stop
	return values
}

// steppedRange returns values from start towards stop, |step| apart,
// including stop. The direction is taken from stop relative to start, not
// from the sign of step.
func steppedRange(start, stop, step float64) []float64 {
	span := stop - start
	signed := math.Abs(step)
	if span < 0 {
		signed = -signed
	}
	count := int(math.Round(math.Abs(span) / math.Abs(step)))
	if count == 0 {
		return []float64{start}
	}
	values := make([]float64, count+1)
	for i := range values {
		values[i] = start + float64(i)*signed
	}
	values[count] = stop
	return values
}

// permissiveRange returns values from start towards stop, |step| apart,
// excluding stop. A tiny tolerance absorbs floating point error in the
// step count.
func permissiveRange(start, stop, step float64) []float64 {
	span := stop - start
	if span == 0 {
		return nil
	}
	signed := math.Abs(step)
	if span < 0 {
		signed = -signed
	}
	count := int(math.Ceil(math.Abs(span)/math.Abs(step) - 1e-10))
	values := make([]float64, count)
	for i := range values {
		values[i] = start + float64(i)*signed
	}
	return values
}
