// Package validators provides the value validation framework consumed by
// parameters. A Validator checks a candidate value before it is written to
// an instrument or stored in a parameter cache.
package validators

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Validation errors.
var (
	ErrInvalidType  = errors.New("invalid value type")
	ErrOutOfRange   = errors.New("value out of range")
	ErrNotPermitted = errors.New("value not permitted")
)

// Validator checks whether a value is acceptable.
type Validator interface {
	// Validate returns nil if the value is acceptable, or an error
	// describing the violation.
	Validate(value any) error

	// String returns a short description for snapshots and error messages.
	String() string
}

// Anything accepts every value including nil.
type Anything struct{}

// Validate always returns nil.
func (Anything) Validate(any) error { return nil }

// String returns the validator description.
func (Anything) String() string { return "<Anything>" }

// Bool accepts only bool values.
type Bool struct{}

// Validate returns an error unless the value is a bool.
func (Bool) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("%w: expected bool, got %T", ErrInvalidType, value)
	}
	return nil
}

// String returns the validator description.
func (Bool) String() string { return "<Bool>" }

// Numbers accepts numeric values within [Min, Max].
type Numbers struct {
	Min float64
	Max float64
}

// NewNumbers creates a Numbers validator with the given inclusive bounds.
func NewNumbers(min, max float64) Numbers {
	return Numbers{Min: min, Max: max}
}

// AnyNumber accepts every numeric value.
func AnyNumber() Numbers {
	return Numbers{Min: math.Inf(-1), Max: math.Inf(1)}
}

// Validate returns an error unless the value is numeric and within bounds.
func (n Numbers) Validate(value any) error {
	f, ok := ToFloat64(value)
	if !ok {
		return fmt.Errorf("%w: expected number, got %T", ErrInvalidType, value)
	}
	if f < n.Min || f > n.Max {
		return fmt.Errorf("%w: %v outside [%v, %v]", ErrOutOfRange, value, n.Min, n.Max)
	}
	return nil
}

// String returns the validator description.
func (n Numbers) String() string {
	return fmt.Sprintf("<Numbers %v<=v<=%v>", n.Min, n.Max)
}

// Ints accepts integer values within [Min, Max].
type Ints struct {
	Min int64
	Max int64
}

// NewInts creates an Ints validator with the given inclusive bounds.
func NewInts(min, max int64) Ints {
	return Ints{Min: min, Max: max}
}

// Validate returns an error unless the value is an integer within bounds.
func (n Ints) Validate(value any) error {
	i, ok := toInt64(value)
	if !ok {
		return fmt.Errorf("%w: expected integer, got %T", ErrInvalidType, value)
	}
	if i < n.Min || i > n.Max {
		return fmt.Errorf("%w: %v outside [%v, %v]", ErrOutOfRange, value, n.Min, n.Max)
	}
	return nil
}

// String returns the validator description.
func (n Ints) String() string {
	return fmt.Sprintf("<Ints %v<=v<=%v>", n.Min, n.Max)
}

// Strings accepts string values with length within [MinLen, MaxLen].
// A zero MaxLen means unbounded.
type Strings struct {
	MinLen int
	MaxLen int
}

// Validate returns an error unless the value is a string of permitted length.
func (s Strings) Validate(value any) error {
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: expected string, got %T", ErrInvalidType, value)
	}
	if len(str) < s.MinLen {
		return fmt.Errorf("%w: length %d below minimum %d", ErrOutOfRange, len(str), s.MinLen)
	}
	if s.MaxLen > 0 && len(str) > s.MaxLen {
		return fmt.Errorf("%w: length %d above maximum %d", ErrOutOfRange, len(str), s.MaxLen)
	}
	return nil
}

// String returns the validator description.
func (s Strings) String() string {
	if s.MaxLen == 0 {
		return fmt.Sprintf("<Strings len>=%d>", s.MinLen)
	}
	return fmt.Sprintf("<Strings %d<=len<=%d>", s.MinLen, s.MaxLen)
}

// Enum accepts only values from a fixed set.
type Enum struct {
	values []any
}

// NewEnum creates an Enum validator over the given permitted values.
func NewEnum(values ...any) Enum {
	return Enum{values: values}
}

// Validate returns an error unless the value equals one of the permitted values.
func (e Enum) Validate(value any) error {
	for _, v := range e.values {
		if equalValues(v, value) {
			return nil
		}
	}
	return fmt.Errorf("%w: %v not in %v", ErrNotPermitted, value, e.values)
}

// Values returns the permitted values.
func (e Enum) Values() []any {
	out := make([]any, len(e.values))
	copy(out, e.values)
	return out
}

// String returns the validator description with values in a stable order.
func (e Enum) String() string {
	strs := make([]string, len(e.values))
	for i, v := range e.values {
		strs[i] = fmt.Sprintf("%v", v)
	}
	sort.Strings(strs)
	return fmt.Sprintf("<Enum %v>", strs)
}

// equalValues compares values, treating numerics of different widths as equal
// when they represent the same number.
func equalValues(a, b any) bool {
	if a == b {
		return true
	}
	fa, oka := ToFloat64(a)
	fb, okb := ToFloat64(b)
	return oka && okb && fa == fb
}

// ToFloat64 converts any numeric value to float64.
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
