// Package sim provides simulated instruments defined in YAML. A Definition
// lists fixed query/response dialogues and named properties with getter
// queries and setter templates; Backend serves it in memory behind the
// same connection interface a real instrument uses, so drivers and tests
// run without hardware.
package sim

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Simulation errors.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrOutOfLimits    = errors.New("value outside property limits")
	ErrBadDefinition  = errors.New("invalid instrument definition")
)

// Definition describes a simulated instrument.
type Definition struct {
	// Name identifies the simulated model.
	Name string `yaml:"name"`

	// Dialogues are fixed query -> response pairs, for identity and
	// status commands.
	Dialogues []Dialogue `yaml:"dialogues"`

	// Properties are stateful values with getter/setter commands.
	Properties []Property `yaml:"properties"`
}

// Dialogue is a fixed query/response pair.
type Dialogue struct {
	Q string `yaml:"q"`
	R string `yaml:"r"`
}

// Property is a stateful simulated value.
type Property struct {
	// Name labels the property in errors.
	Name string `yaml:"name"`

	// Default is the initial value.
	Default string `yaml:"default"`

	// Getter is the exact query that reads the property.
	Getter string `yaml:"getter"`

	// Setter is the write command with a single "%s" capture for the
	// value, e.g. "VOLT %s".
	Setter string `yaml:"setter"`

	// Min and Max bound numeric writes when non-nil.
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

// Parse parses an instrument definition from YAML bytes.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing instrument definition: %w", err)
	}
	for _, p := range def.Properties {
		if p.Name == "" || p.Getter == "" {
			return nil, fmt.Errorf("%w: property needs a name and a getter", ErrBadDefinition)
		}
		if p.Setter != "" && !strings.Contains(p.Setter, "%s") {
			return nil, fmt.Errorf("%w: setter of %q has no %%s capture", ErrBadDefinition, p.Name)
		}
	}
	return &def, nil
}

// Load loads and parses an instrument definition from a file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Backend serves a Definition in memory. It implements the Ask/Write/Close
// connection contract and is safe for concurrent use.
type Backend struct {
	def *Definition

	mu     sync.Mutex
	values map[string]string // property name -> current value
}

// NewBackend creates a backend with every property at its default value.
func NewBackend(def *Definition) *Backend {
	values := make(map[string]string, len(def.Properties))
	for _, p := range def.Properties {
		values[p.Name] = p.Default
	}
	return &Backend{def: def, values: values}
}

// Ask answers a query from the dialogues or the property getters.
func (b *Backend) Ask(cmd string) (string, error) {
	cmd = strings.TrimSpace(cmd)

	for _, d := range b.def.Dialogues {
		if d.Q == cmd {
			return d.R, nil
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.def.Properties {
		if p.Getter == cmd {
			return b.values[p.Name], nil
		}
	}
	return "", fmt.Errorf("%w: query %q", ErrUnknownCommand, cmd)
}

// Write matches the command against the property setters, range-checks
// numeric values and stores the result.
func (b *Backend) Write(cmd string) error {
	cmd = strings.TrimSpace(cmd)

	for _, p := range b.def.Properties {
		if p.Setter == "" {
			continue
		}
		value, ok := matchSetter(p.Setter, cmd)
		if !ok {
			continue
		}
		if p.Min != nil || p.Max != nil {
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("%w: property %q expects a number, got %q",
					ErrOutOfLimits, p.Name, value)
			}
			if p.Min != nil && f < *p.Min {
				return fmt.Errorf("%w: %v below %v for %q", ErrOutOfLimits, f, *p.Min, p.Name)
			}
			if p.Max != nil && f > *p.Max {
				return fmt.Errorf("%w: %v above %v for %q", ErrOutOfLimits, f, *p.Max, p.Name)
			}
		}
		b.mu.Lock()
		b.values[p.Name] = value
		b.mu.Unlock()
		return nil
	}
	return fmt.Errorf("%w: command %q", ErrUnknownCommand, cmd)
}

// Close is a no-op; the backend holds no resources.
func (b *Backend) Close() error { return nil }

// Value returns the current value of a property, for test assertions.
func (b *Backend) Value(property string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[property]
	return v, ok
}

// matchSetter matches "VOLT %s" style templates against a command and
// extracts the value token.
func matchSetter(template, cmd string) (string, bool) {
	idx := strings.Index(template, "%s")
	prefix := template[:idx]
	suffix := template[idx+2:]
	if !strings.HasPrefix(cmd, prefix) || !strings.HasSuffix(cmd, suffix) {
		return "", false
	}
	value := strings.TrimSpace(cmd[len(prefix) : len(cmd)-len(suffix)])
	if value == "" || strings.ContainsRune(value, ' ') {
		return "", false
	}
	return value, true
}
