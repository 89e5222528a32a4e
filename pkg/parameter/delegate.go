package parameter

import (
	"errors"
	"fmt"
	"time"
)

// Delegation errors.
var (
	ErrNoSource        = errors.New("delegate parameter has no source")
	ErrDelegateCmd     = errors.New("delegate parameter cannot take its own commands")
	ErrDelegateInitial = errors.New("delegate parameter initial value requires a source")
)

// DelegateParameter wraps a source Parameter. Getting or setting the
// delegate gets or sets the source, while the delegate carries its own
// presentation metadata and conversion knobs (scale, offset, parsers).
//
// Gettable, Settable and the snapshot-value flag follow the source and are
// recomputed whenever the source is reassigned. With a nil source the
// delegate is neither gettable nor settable, though it can still be
// snapshotted.
//
// Label and unit are either frozen at construction (when explicitly
// supplied) or track the source dynamically.
//
// Only invertible conversions are supported: the delegate's raw domain is
// the source's value domain, in both directions.
type DelegateParameter struct {
	*Parameter

	source     *Parameter
	labelFixed bool
	unitFixed  bool
}

// NewDelegate builds a delegate over source, which may be nil. The source
// supplies the device commands, so cfg must not carry GetCmd/SetCmd or raw
// overrides, and initial values require a source.
func NewDelegate(name string, source *Parameter, cfg *Config) (*DelegateParameter, error) {
	base := Config{}
	if cfg != nil {
		base = *cfg
	}
	if base.GetCmd.kind != cmdDefault || base.SetCmd.kind != cmdDefault ||
		base.GetRaw != nil || base.SetRaw != nil {
		return nil, fmt.Errorf("%w: %q", ErrDelegateCmd, name)
	}
	if source == nil && (base.InitialValue != nil || base.InitialCacheValue != nil) {
		return nil, fmt.Errorf("%w: %q", ErrDelegateInitial, name)
	}

	d := &DelegateParameter{
		labelFixed: base.Label != "",
		unitFixed:  base.Unit != "",
	}

	initialValue := base.InitialValue
	initialCacheValue := base.InitialCacheValue
	base.Name = name
	if base.BindToInstrument == nil {
		// Delegates are not registered on an instrument by default.
		unbound := false
		base.BindToInstrument = &unbound
	}
	base.InitialValue = nil
	base.InitialCacheValue = nil
	base.MaxValAge = nil // the facade's validity window is the source's
	base.GetRaw = func() (any, error) {
		if d.source == nil {
			return nil, fmt.Errorf("%w: cannot get %q", ErrNoSource, name)
		}
		return d.source.Get()
	}
	base.SetRaw = func(raw any) error {
		if d.source == nil {
			return fmt.Errorf("%w: cannot set %q", ErrNoSource, name)
		}
		return d.source.Set(raw)
	}

	p, err := New(&base)
	if err != nil {
		return nil, err
	}
	d.Parameter = p
	d.Parameter.cache = &delegateCache{d: d}
	d.SetSource(source)

	if initialValue != nil {
		if err := d.Set(initialValue); err != nil {
			return nil, fmt.Errorf("setting initial value of %q: %w", name, err)
		}
	}
	if initialCacheValue != nil {
		if err := d.Cache().Set(initialCacheValue); err != nil {
			return nil, fmt.Errorf("priming cache of %q: %w", name, err)
		}
	}
	return d, nil
}

// Source returns the wrapped parameter, or nil when the delegate is
// unbound.
func (d *DelegateParameter) Source() *Parameter { return d.source }

// SetSource reassigns the wrapped parameter, which may be nil. Gettable,
// Settable and the snapshot-value flag are re-derived immediately, and any
// non-fixed label or unit starts tracking the new source.
func (d *DelegateParameter) SetSource(source *Parameter) {
	d.source = source
	if source == nil {
		d.Parameter.gettable = false
		d.Parameter.settable = false
		d.Parameter.snapshotValue = false
	} else {
		d.Parameter.gettable = source.gettable
		d.Parameter.settable = source.settable
		d.Parameter.snapshotValue = source.snapshotValue
	}
	if !d.labelFixed {
		if source != nil {
			d.Parameter.label = source.Label()
		} else {
			d.Parameter.label = d.Parameter.name
		}
	}
	if !d.unitFixed {
		if source != nil {
			d.Parameter.unit = source.Unit()
		} else {
			d.Parameter.unit = ""
		}
	}
}

// Label returns the presentation label: the frozen value when it was
// supplied at construction, otherwise the source's current label.
func (d *DelegateParameter) Label() string {
	if d.labelFixed || d.source == nil {
		return d.Parameter.Label()
	}
	return d.source.Label()
}

// Unit returns the unit of measure, tracking the source unless frozen.
func (d *DelegateParameter) Unit() string {
	if d.unitFixed || d.source == nil {
		return d.Parameter.Unit()
	}
	return d.source.Unit()
}

// Snapshot returns the delegate state, embedding a full snapshot of the
// current source, or nil when unbound.
func (d *DelegateParameter) Snapshot(update bool) map[string]any {
	snap := d.Parameter.Snapshot(update)
	snap["label"] = d.Label()
	snap["unit"] = d.Unit()
	if d.source != nil {
		snap["source_parameter"] = d.source.Snapshot(update)
	} else {
		snap["source_parameter"] = nil
	}
	return snap
}

// delegateCache is the forwarding cache implementation: a facade over the
// source parameter's cache. The source cache is the authoritative store;
// the facade only applies the delegate's own value<->raw conversion on the
// way through.
type delegateCache struct {
	d *DelegateParameter
}

func (c *delegateCache) Get() (any, error) {
	src := c.d.source
	if src == nil {
		return nil, fmt.Errorf("%w: cannot get the cache of %q", ErrNoSource, c.d.name)
	}
	raw, err := src.cache.Get()
	if err != nil {
		return nil, err
	}
	return c.d.fromRawToValue(raw)
}

func (c *delegateCache) Peek() (any, error) {
	src := c.d.source
	if src == nil {
		return nil, fmt.Errorf("%w: cannot peek the cache of %q", ErrNoSource, c.d.name)
	}
	raw, err := src.cache.Peek()
	if err != nil {
		return nil, err
	}
	return c.d.fromRawToValue(raw)
}

// RawValue surfaces the source's cached value as the delegate's raw value.
// It reads through the source cache and so shares its staleness behavior.
func (c *delegateCache) RawValue() (any, error) {
	src := c.d.source
	if src == nil {
		return nil, fmt.Errorf("%w: cannot read the raw value of %q", ErrNoSource, c.d.name)
	}
	return src.cache.Peek()
}

func (c *delegateCache) Set(value any) error {
	src := c.d.source
	if src == nil {
		return fmt.Errorf("%w: cannot set the cache of %q", ErrNoSource, c.d.name)
	}
	if err := c.d.Validate(value); err != nil {
		return err
	}
	raw, err := c.d.fromValueToRaw(value)
	if err != nil {
		return err
	}
	return src.cache.Set(raw)
}

func (c *delegateCache) Invalidate() {
	if src := c.d.source; src != nil {
		src.cache.Invalidate()
	}
}

func (c *delegateCache) Valid() bool {
	src := c.d.source
	return src != nil && src.cache.Valid()
}

func (c *delegateCache) Timestamp() time.Time {
	src := c.d.source
	if src == nil {
		return time.Time{}
	}
	return src.cache.Timestamp()
}

func (c *delegateCache) MaxValAge() (time.Duration, bool) {
	src := c.d.source
	if src == nil {
		return 0, false
	}
	return src.cache.MaxValAge()
}

// updateWith is deliberately a no-op: the source parameter maintains its
// own cache on every get and set, and this facade mirrors it.
func (c *delegateCache) updateWith(any, any, time.Time) {}

// Compile-time interface satisfaction check.
var _ Cache = (*delegateCache)(nil)
