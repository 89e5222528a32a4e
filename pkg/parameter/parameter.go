package parameter

import (
	"errors"
	"fmt"
	"time"

	"github.com/liuyichao82/Qcodes/pkg/paramlog"
	"github.com/liuyichao82/Qcodes/pkg/validators"
)

// Construction and operation errors.
var (
	ErrNameRequired         = errors.New("parameter name is required")
	ErrNotGettable          = errors.New("parameter is not gettable")
	ErrNotSettable          = errors.New("parameter is not settable")
	ErrNoInstrument         = errors.New("string command requires a bound instrument")
	ErrBadCommand           = errors.New("malformed command")
	ErrBadSetTemplate       = errors.New("set command template has no format verb")
	ErrRawOverrideConflict  = errors.New("command supplied alongside a raw override")
	ErrMaxValAgeWithoutGet  = errors.New("max value age requires a get mechanism")
	ErrInitialValueConflict = errors.New("initial value and initial cache value are mutually exclusive")
	ErrCacheInvalid         = errors.New("cached value is unknown or stale")
	ErrValMapping           = errors.New("value mapping is not invertible")
	ErrUnmappedValue        = errors.New("value has no mapping")
	ErrNotNumeric           = errors.New("value is not numeric")
)

// Config is the construction-time keyword surface of a parameter. Name is
// required; everything else has a useful zero value.
type Config struct {
	// Name is the parameter identity, unique within an instrument.
	Name string

	// Instrument binds the parameter to a device for string commands and,
	// unless BindToInstrument is false, registers it on the instrument.
	Instrument Instrument

	// Label is the human-readable name used for plot axes. Defaults to Name.
	Label string

	// Unit is the unit of measure. Empty means unitless.
	Unit string

	// GetCmd and SetCmd select the device dispatch. See Cmd.
	GetCmd Cmd
	SetCmd Cmd

	// GetRaw and SetRaw are driver-supplied overrides of the raw get/set
	// path. Supplying one together with an active GetCmd/SetCmd is a
	// construction error.
	GetRaw func() (any, error)
	SetRaw func(any) error

	// Vals validates values before a set or cache set. Nil accepts
	// everything unless a ValMapping derives an Enum validator.
	Vals validators.Validator

	// ValMapping maps user-facing values to instrument codes. It must be
	// invertible. When given without Vals, an Enum validator over the keys
	// is derived.
	ValMapping map[any]any

	// GetParser transforms the raw device response before conversion;
	// SetParser transforms the converted raw value before dispatch.
	GetParser func(any) (any, error)
	SetParser func(any) (any, error)

	// Scale multiplies the value on set (raw = value*Scale + Offset) and
	// divides on get. Zero means no scaling.
	Scale float64

	// Offset shifts the raw value. Zero means no offset.
	Offset float64

	// Step caps the increment of a single device write. Larger changes are
	// broken into a ramp of steps this size. Zero disables ramping.
	Step float64

	// InterDelay is the minimum time between successive device writes;
	// PostDelay is the wait after each write.
	InterDelay time.Duration
	PostDelay  time.Duration

	// MaxValAge bounds how long a cached value is trusted. Nil means
	// forever; zero means never.
	MaxValAge *time.Duration

	// InitialValue performs a device set at the end of construction.
	// InitialCacheValue only primes the cache. Mutually exclusive.
	InitialValue      any
	InitialCacheValue any

	// SnapshotGet false prevents snapshots from refreshing the value.
	// SnapshotValue false omits the value from snapshots. SnapshotExclude
	// marks the parameter for omission from registry snapshots.
	SnapshotGet     *bool
	SnapshotValue   *bool
	SnapshotExclude bool

	// Abstract marks the parameter as a placeholder that must be
	// overridden before the owning instrument is usable.
	Abstract bool

	// BindToInstrument false skips registration on the instrument.
	// Defaults to true when an instrument is given.
	BindToInstrument *bool

	// Docstring is free-form documentation carried in snapshots.
	Docstring string

	// Metadata is extra information included in snapshots.
	Metadata map[string]any

	// Logger receives get/set events. Nil disables event capture.
	Logger paramlog.Logger
}

// Parameter is a single degree of freedom on an instrument: a named,
// validated, cached value with optional device dispatch.
type Parameter struct {
	name       string
	label      string
	unit       string
	instrument Instrument

	vals  validators.Validator
	cache Cache

	getRaw func() (any, error)
	setRaw func(any) error

	gettable bool
	settable bool

	scale  float64
	offset float64
	step   float64

	interDelay time.Duration
	postDelay  time.Duration
	lastSet    time.Time

	valMapping     map[any]any
	inverseMapping map[any]any
	getParser      func(any) (any, error)
	setParser      func(any) (any, error)

	snapshotGet     bool
	snapshotValue   bool
	snapshotExclude bool
	abstract        bool
	docstring       string
	metadata        map[string]any

	logger paramlog.Logger
}

// New builds a parameter from the given configuration. All contract
// violations fail here, immediately.
func New(cfg *Config) (*Parameter, error) {
	if cfg == nil || cfg.Name == "" {
		return nil, ErrNameRequired
	}

	p := &Parameter{
		name:            cfg.Name,
		instrument:      cfg.Instrument,
		vals:            cfg.Vals,
		scale:           cfg.Scale,
		offset:          cfg.Offset,
		step:            cfg.Step,
		interDelay:      cfg.InterDelay,
		postDelay:       cfg.PostDelay,
		valMapping:      cfg.ValMapping,
		getParser:       cfg.GetParser,
		setParser:       cfg.SetParser,
		snapshotGet:     boolOrDefault(cfg.SnapshotGet, true),
		snapshotValue:   boolOrDefault(cfg.SnapshotValue, true),
		snapshotExclude: cfg.SnapshotExclude,
		abstract:        cfg.Abstract,
		docstring:       cfg.Docstring,
		metadata:        cfg.Metadata,
		logger:          cfg.Logger,
	}
	if p.logger == nil {
		p.logger = paramlog.NoopLogger{}
	}

	p.label = cfg.Label
	if p.label == "" {
		p.label = cfg.Name
	}
	p.unit = cfg.Unit

	if p.valMapping != nil {
		inverse := make(map[any]any, len(p.valMapping))
		for value, code := range p.valMapping {
			if _, dup := inverse[code]; dup {
				return nil, fmt.Errorf("%w: code %v mapped twice", ErrValMapping, code)
			}
			inverse[code] = value
		}
		p.inverseMapping = inverse
		if p.vals == nil {
			keys := make([]any, 0, len(p.valMapping))
			for value := range p.valMapping {
				keys = append(keys, value)
			}
			p.vals = validators.NewEnum(keys...)
		}
	}

	p.cache = newValueCache(p, cfg.MaxValAge)

	// Wire the get path: a raw override wins, otherwise the command is
	// resolved into a raw getter.
	if cfg.GetRaw != nil {
		if cfg.GetCmd.isActive() {
			return nil, fmt.Errorf("%w: parameter %q has both GetRaw and an active get command",
				ErrRawOverrideConflict, p.name)
		}
		p.getRaw = cfg.GetRaw
		p.gettable = true
	} else {
		getRaw, gettable, err := p.resolveGet(cfg.GetCmd)
		if err != nil {
			return nil, err
		}
		p.getRaw = getRaw
		p.gettable = gettable
	}

	if cfg.SetRaw != nil {
		if cfg.SetCmd.isActive() {
			return nil, fmt.Errorf("%w: parameter %q has both SetRaw and an active set command",
				ErrRawOverrideConflict, p.name)
		}
		p.setRaw = cfg.SetRaw
		p.settable = true
	} else {
		setRaw, settable, err := p.resolveSet(cfg.SetCmd)
		if err != nil {
			return nil, err
		}
		p.setRaw = setRaw
		p.settable = settable
	}

	// A cache-backed get cannot refresh a stale value, so an age limit
	// demands a real get mechanism.
	deviceGet := cfg.GetRaw != nil || cfg.GetCmd.kind == cmdString || cfg.GetCmd.kind == cmdGetFunc
	if cfg.MaxValAge != nil && !deviceGet {
		return nil, fmt.Errorf("%w: parameter %q", ErrMaxValAgeWithoutGet, p.name)
	}

	if cfg.InitialValue != nil && cfg.InitialCacheValue != nil {
		return nil, fmt.Errorf("%w: parameter %q", ErrInitialValueConflict, p.name)
	}

	if cfg.Instrument != nil && boolOrDefault(cfg.BindToInstrument, true) {
		if registrar, ok := cfg.Instrument.(Registrar); ok {
			if err := registrar.RegisterParameter(p); err != nil {
				return nil, err
			}
		}
	}

	if cfg.InitialValue != nil {
		if err := p.Set(cfg.InitialValue); err != nil {
			return nil, fmt.Errorf("setting initial value of %q: %w", p.name, err)
		}
	}
	if cfg.InitialCacheValue != nil {
		if err := p.cache.Set(cfg.InitialCacheValue); err != nil {
			return nil, fmt.Errorf("priming cache of %q: %w", p.name, err)
		}
	}

	return p, nil
}

// NewManual builds a parameter with no device command: a validated,
// cached variable. Config command fields are ignored.
func NewManual(name string, cfg *Config) (*Parameter, error) {
	manual := Config{}
	if cfg != nil {
		manual = *cfg
	}
	manual.Name = name
	manual.GetCmd = NoCmd()
	manual.SetCmd = NoCmd()
	manual.GetRaw = nil
	manual.SetRaw = nil
	return New(&manual)
}

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.name }

// Label returns the presentation label.
func (p *Parameter) Label() string { return p.label }

// SetLabel changes the presentation label.
func (p *Parameter) SetLabel(label string) { p.label = label }

// Unit returns the unit of measure.
func (p *Parameter) Unit() string { return p.unit }

// SetUnit changes the unit of measure.
func (p *Parameter) SetUnit(unit string) { p.unit = unit }

// Gettable reports whether Get is usable.
func (p *Parameter) Gettable() bool { return p.gettable }

// Settable reports whether Set is usable.
func (p *Parameter) Settable() bool { return p.settable }

// Abstract reports whether the parameter is a placeholder awaiting override.
func (p *Parameter) Abstract() bool { return p.abstract }

// SnapshotExclude reports whether registry snapshots should omit this
// parameter.
func (p *Parameter) SnapshotExclude() bool { return p.snapshotExclude }

// Instrument returns the bound instrument, or nil.
func (p *Parameter) Instrument() Instrument { return p.instrument }

// Vals returns the validator, or nil when unvalidated.
func (p *Parameter) Vals() validators.Validator { return p.vals }

// Cache returns the parameter's value cache.
func (p *Parameter) Cache() Cache { return p.cache }

// Metadata returns the extra snapshot information.
func (p *Parameter) Metadata() map[string]any { return p.metadata }

// Docstring returns the free-form documentation.
func (p *Parameter) Docstring() string { return p.docstring }

// Validate checks a candidate value against the parameter's validator.
func (p *Parameter) Validate(value any) error {
	if p.vals == nil {
		return nil
	}
	if err := p.vals.Validate(value); err != nil {
		return fmt.Errorf("parameter %q: %w", p.name, err)
	}
	return nil
}

// Get performs a device read, converts the raw response and updates the
// cache.
func (p *Parameter) Get() (any, error) {
	if !p.gettable {
		return nil, fmt.Errorf("%w: %q", ErrNotGettable, p.name)
	}
	start := time.Now()
	raw, err := p.getRaw()
	if err != nil {
		p.logEvent(opGet, nil, nil, time.Since(start), err)
		return nil, fmt.Errorf("getting %q: %w", p.name, err)
	}
	value, err := p.fromRawToValue(raw)
	if err != nil {
		p.logEvent(opGet, nil, raw, time.Since(start), err)
		return nil, fmt.Errorf("getting %q: %w", p.name, err)
	}
	p.cache.updateWith(value, raw, time.Now())
	p.logEvent(opGet, value, raw, time.Since(start), nil)
	return value, nil
}

// GetLatest returns the cached value, performing a fresh read only when the
// cache is invalid.
func (p *Parameter) GetLatest() (any, error) {
	return p.cache.Get()
}

// Set validates the value and writes it to the device, ramping in
// increments of Step and honoring the configured delays.
func (p *Parameter) Set(value any) error {
	if !p.settable {
		return fmt.Errorf("%w: %q", ErrNotSettable, p.name)
	}
	if err := p.Validate(value); err != nil {
		return err
	}
	start := time.Now()
	steps := p.rampValues(value)
	for _, stepValue := range steps {
		if p.interDelay > 0 {
			if wait := p.interDelay - time.Since(p.lastSet); wait > 0 {
				time.Sleep(wait)
			}
		}
		raw, err := p.fromValueToRaw(stepValue)
		if err != nil {
			p.logEvent(opSet, stepValue, nil, time.Since(start), err)
			return fmt.Errorf("setting %q: %w", p.name, err)
		}
		if err := p.setRaw(raw); err != nil {
			p.logEvent(opSet, stepValue, raw, time.Since(start), err)
			return fmt.Errorf("setting %q: %w", p.name, err)
		}
		now := time.Now()
		p.cache.updateWith(stepValue, raw, now)
		p.lastSet = now
		if p.postDelay > 0 {
			time.Sleep(p.postDelay)
		}
	}
	p.logEvent(opSet, value, nil, time.Since(start), nil)
	return nil
}

// Increment adds delta to the current value and sets the result. Both must
// be numeric.
func (p *Parameter) Increment(delta any) error {
	current, err := p.Get()
	if err != nil {
		return err
	}
	cf, ok := validators.ToFloat64(current)
	if !ok {
		return fmt.Errorf("%w: current value %v of %q", ErrNotNumeric, current, p.name)
	}
	df, ok := validators.ToFloat64(delta)
	if !ok {
		return fmt.Errorf("%w: increment %v for %q", ErrNotNumeric, delta, p.name)
	}
	return p.Set(cf + df)
}

// rampValues breaks a set into intermediate targets no further than Step
// apart, starting from the cached value. Without a step, or when either end
// is not numeric, the target is written directly.
func (p *Parameter) rampValues(target any) []any {
	if p.step <= 0 {
		return []any{target}
	}
	current, err := p.cache.Peek()
	if err != nil || current == nil {
		return []any{target}
	}
	cf, ok := validators.ToFloat64(current)
	if !ok {
		return []any{target}
	}
	tf, ok := validators.ToFloat64(target)
	if !ok {
		return []any{target}
	}
	ramp := permissiveRange(cf, tf, p.step)
	if len(ramp) <= 1 {
		return []any{target}
	}
	// The first entry is where we already are.
	values := make([]any, 0, len(ramp))
	for _, v := range ramp[1:] {
		values = append(values, v)
	}
	return append(values, target)
}

func (p *Parameter) fromValueToRaw(value any) (any, error) {
	raw := value
	if p.valMapping != nil {
		mapped, ok := lookupMapping(p.valMapping, raw)
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnmappedValue, raw)
		}
		raw = mapped
	}
	if p.scale != 0 {
		f, ok := validators.ToFloat64(raw)
		if !ok {
			return nil, fmt.Errorf("%w: cannot scale %v", ErrNotNumeric, raw)
		}
		raw = f * p.scale
	}
	if p.offset != 0 {
		f, ok := validators.ToFloat64(raw)
		if !ok {
			return nil, fmt.Errorf("%w: cannot offset %v", ErrNotNumeric, raw)
		}
		raw = f + p.offset
	}
	if p.setParser != nil {
		parsed, err := p.setParser(raw)
		if err != nil {
			return nil, err
		}
		raw = parsed
	}
	return raw, nil
}

func (p *Parameter) fromRawToValue(raw any) (any, error) {
	value := raw
	if p.getParser != nil {
		parsed, err := p.getParser(value)
		if err != nil {
			return nil, err
		}
		value = parsed
	}
	if p.offset != 0 {
		f, ok := validators.ToFloat64(value)
		if !ok {
			return nil, fmt.Errorf("%w: cannot remove offset from %v", ErrNotNumeric, value)
		}
		value = f - p.offset
	}
	if p.scale != 0 {
		f, ok := validators.ToFloat64(value)
		if !ok {
			return nil, fmt.Errorf("%w: cannot unscale %v", ErrNotNumeric, value)
		}
		value = f / p.scale
	}
	if p.inverseMapping != nil {
		mapped, ok := lookupMapping(p.inverseMapping, value)
		if !ok {
			return nil, fmt.Errorf("%w: instrument code %v", ErrUnmappedValue, value)
		}
		value = mapped
	}
	return value, nil
}

// lookupMapping finds a key in a value mapping, tolerating numeric values
// of different widths.
func lookupMapping(m map[any]any, key any) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	kf, numeric := validators.ToFloat64(key)
	for candidate, v := range m {
		if numeric {
			if cf, ok := validators.ToFloat64(candidate); ok && cf == kf {
				return v, true
			}
		}
	}
	return nil, false
}

// Snapshot returns the parameter state as a JSON-friendly mapping. With
// update true and a gettable parameter, the value is refreshed first unless
// SnapshotGet was disabled; a failed refresh keeps the stale cache entry.
func (p *Parameter) Snapshot(update bool) map[string]any {
	if update && p.snapshotGet && p.gettable {
		// Keep the stale value on failure; snapshots must not abort.
		_, _ = p.Get()
	}
	snap := map[string]any{
		"name":  p.name,
		"label": p.label,
		"unit":  p.unit,
	}
	if p.vals != nil {
		snap["vals"] = p.vals.String()
	}
	if p.instrument != nil {
		snap["instrument"] = p.instrument.Name()
	}
	if p.snapshotValue {
		value, _ := p.cache.Peek()
		raw, _ := p.cache.RawValue()
		snap["value"] = value
		snap["raw_value"] = raw
		if ts := p.cache.Timestamp(); !ts.IsZero() {
			snap["ts"] = ts.Format(time.RFC3339Nano)
		} else {
			snap["ts"] = nil
		}
	}
	if p.docstring != "" {
		snap["docstring"] = p.docstring
	}
	if len(p.metadata) > 0 {
		snap["metadata"] = p.metadata
	}
	return snap
}

func (p *Parameter) logEvent(op paramlog.Op, value, raw any, elapsed time.Duration, err error) {
	event := paramlog.Event{
		Timestamp: time.Now(),
		Parameter: p.name,
		Op:        op,
		Value:     fmt.Sprintf("%v", value),
		RawValue:  fmt.Sprintf("%v", raw),
		Elapsed:   elapsed,
	}
	if p.instrument != nil {
		event.Instrument = p.instrument.Name()
	}
	if err != nil {
		event.Error = err.Error()
	}
	p.logger.Log(event)
}

// Op aliases keep call sites in this package short.
const (
	opGet        = paramlog.OpGet
	opSet        = paramlog.OpSet
	opCacheSet   = paramlog.OpCacheSet
	opInvalidate = paramlog.OpInvalidate
)

func boolOrDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
