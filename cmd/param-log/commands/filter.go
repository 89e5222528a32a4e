package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/liuyichao82/Qcodes/pkg/paramlog"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output     string
	SessionID  string
	Instrument string
	Parameter  string
	Op         string
	ErrorsOnly bool
	TimeStart  string
	TimeEnd    string
}

// RunFilter copies matching events from the log file into a new file,
// preserving session IDs and timestamps.
func RunFilter(path string, opts FilterOptions) error {
	filter := paramlog.Filter{
		SessionID:  opts.SessionID,
		Instrument: opts.Instrument,
		Parameter:  opts.Parameter,
		ErrorsOnly: opts.ErrorsOnly,
	}

	if opts.Op != "" {
		op, err := ParseOpFlag(opts.Op)
		if err != nil {
			return err
		}
		filter.Op = &op
	}
	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	reader, err := paramlog.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	out, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	encoder := paramlog.NewEncoder(out)
	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
		count++
	}

	fmt.Printf("Wrote %d events to %s\n", count, opts.Output)
	return nil
}
