// Package paramlog provides structured event capture for parameter
// operations.
//
// Every device get and set (and cache mutation) on a parameter can be
// recorded as an Event, giving a machine-readable trace of instrument
// interaction for debugging and analysis. It is separate from operational
// logging (slog) - the capture stream is complete and replayable.
//
// Applications configure capture by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.Logger = paramlog.NewSlogAdapter(slog.Default())
//
//	// For production: write to a binary file
//	cfg.Logger, _ = paramlog.NewFileLogger("/var/log/lab/station.plog")
//
//	// Both: use MultiLogger
//	cfg.Logger = paramlog.NewMultiLogger(
//	    paramlog.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// Log files use CBOR encoding with .plog extension; Reader streams and
// filters them.
package paramlog
