package paramlog

import (
	"context"
	"log/slog"
)

// SlogAdapter writes parameter events to an slog.Logger. Useful for
// development when you want to see instrument traffic in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given
// slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level, or Warn level
// when the event carries an error.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("op", event.Op.String()),
		slog.String("parameter", event.Parameter),
	}
	if event.Instrument != "" {
		attrs = append(attrs, slog.String("instrument", event.Instrument))
	}
	if event.Value != "" {
		attrs = append(attrs, slog.String("value", event.Value))
	}
	if event.RawValue != "" {
		attrs = append(attrs, slog.String("raw_value", event.RawValue))
	}
	if event.Elapsed > 0 {
		attrs = append(attrs, slog.Duration("elapsed", event.Elapsed))
	}

	level := slog.LevelDebug
	if event.Error != "" {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", event.Error))
	}

	a.logger.LogAttrs(context.Background(), level, "parameter "+event.Op.String(), attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
