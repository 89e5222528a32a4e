package paramlog

import (
	"time"
)

// Event records a single parameter operation.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the operation completed (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the capture session (UUID, set by FileLogger).
	SessionID string `cbor:"2,keyasint,omitempty"`

	// Instrument is the owning instrument name, if any.
	Instrument string `cbor:"3,keyasint,omitempty"`

	// Parameter is the parameter name.
	Parameter string `cbor:"4,keyasint"`

	// Op is the operation kind.
	Op Op `cbor:"5,keyasint"`

	// Value is the user-facing value involved, formatted.
	Value string `cbor:"6,keyasint,omitempty"`

	// RawValue is the raw device value involved, formatted.
	RawValue string `cbor:"7,keyasint,omitempty"`

	// Elapsed is how long the device interaction took.
	Elapsed time.Duration `cbor:"8,keyasint,omitempty"`

	// Error is the failure message, empty on success.
	Error string `cbor:"9,keyasint,omitempty"`
}

// Op classifies a parameter operation.
type Op uint8

const (
	// OpGet is a device read.
	OpGet Op = 0
	// OpSet is a device write.
	OpSet Op = 1
	// OpCacheSet is a cache-only write.
	OpCacheSet Op = 2
	// OpInvalidate marks the cache stale.
	OpInvalidate Op = 3
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpGet:
		return "GET"
	case OpSet:
		return "SET"
	case OpCacheSet:
		return "CACHE_SET"
	case OpInvalidate:
		return "INVALIDATE"
	default:
		return "UNKNOWN"
	}
}
