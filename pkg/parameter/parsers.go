package parameter

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFloat is a GetParser that converts an instrument's string response
// to a float64. Numeric raw values pass through unchanged.
func ParseFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q as float: %w", v, err)
		}
		return f, nil
	case float64:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: cannot parse %T as float", ErrNotNumeric, raw)
	}
}

// ParseInt is a GetParser that converts an instrument's string response to
// an int64.
func ParseInt(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q as int: %w", v, err)
		}
		return i, nil
	case int64:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: cannot parse %T as int", ErrNotNumeric, raw)
	}
}

// TrimString is a GetParser that strips whitespace and line terminators
// from a string response.
func TrimString(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("expected string response, got %T", raw)
	}
	return strings.TrimSpace(s), nil
}
