package parameter

import (
	"fmt"
	"sync"
	"time"
)

// Cache is the value-cache capability of a parameter. It stores the last
// known value and raw value together with the time they were obtained, and
// can declare them stale through a maximum value age.
//
// There are two implementations: the owning cache every plain Parameter
// carries, and the forwarding facade a DelegateParameter uses to read and
// write its source's cache.
type Cache interface {
	// Get returns the cached value. If the cache is invalid (never set,
	// invalidated, or older than the maximum value age) and the parameter
	// is gettable, a fresh device read is performed first.
	Get() (any, error)

	// Peek returns the last stored value without triggering a device read,
	// regardless of validity. It is nil if the cache was never set.
	Peek() (any, error)

	// RawValue returns the last stored raw value without triggering a
	// device read.
	RawValue() (any, error)

	// Set validates the value, converts it to its raw form and stores
	// both, stamping the current time. No device write is performed.
	Set(value any) error

	// Invalidate marks the cached value as stale, forcing the next Get to
	// perform a fresh device read.
	Invalidate()

	// Valid reports whether the cached value can be trusted.
	Valid() bool

	// Timestamp returns when the cached value was stored, or the zero time
	// if it never was.
	Timestamp() time.Time

	// MaxValAge returns the maximum trusted age of the cached value. The
	// second return is false when no age limit is configured.
	MaxValAge() (time.Duration, bool)

	// updateWith stores a value/raw pair obtained by the parameter's own
	// get/set path.
	updateWith(value, raw any, ts time.Time)
}

// valueCache is the owning cache implementation: a single mutable record
// exclusively owned by its parameter.
type valueCache struct {
	p *Parameter

	mu          sync.Mutex
	value       any
	raw         any
	timestamp   time.Time
	markedValid bool

	maxValAge time.Duration
	hasMaxAge bool
}

func newValueCache(p *Parameter, maxValAge *time.Duration) *valueCache {
	c := &valueCache{p: p}
	if maxValAge != nil {
		c.maxValAge = *maxValAge
		c.hasMaxAge = true
	}
	return c
}

func (c *valueCache) Get() (any, error) {
	if c.Valid() {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.value, nil
	}
	if !c.p.gettable {
		return nil, fmt.Errorf("%w: value of parameter %q is unknown and the parameter is not gettable",
			ErrCacheInvalid, c.p.name)
	}
	return c.p.Get()
}

func (c *valueCache) Peek() (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, nil
}

func (c *valueCache) RawValue() (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw, nil
}

func (c *valueCache) Set(value any) error {
	if err := c.p.Validate(value); err != nil {
		return err
	}
	raw, err := c.p.fromValueToRaw(value)
	if err != nil {
		return err
	}
	c.updateWith(value, raw, time.Now())
	c.p.logEvent(opCacheSet, value, raw, 0, nil)
	return nil
}

func (c *valueCache) Invalidate() {
	c.mu.Lock()
	c.markedValid = false
	c.mu.Unlock()
	c.p.logEvent(opInvalidate, nil, nil, 0, nil)
}

func (c *valueCache) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.markedValid {
		return false
	}
	if c.hasMaxAge && !c.timestamp.Add(c.maxValAge).After(time.Now()) {
		return false
	}
	return true
}

func (c *valueCache) Timestamp() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timestamp
}

func (c *valueCache) MaxValAge() (time.Duration, bool) {
	return c.maxValAge, c.hasMaxAge
}

func (c *valueCache) updateWith(value, raw any, ts time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.raw = raw
	c.timestamp = ts
	c.markedValid = true
}

// Compile-time interface satisfaction check.
var _ Cache = (*valueCache)(nil)
