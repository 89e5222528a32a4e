// Package commands implements the param-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/liuyichao82/Qcodes/pkg/paramlog"
)

// RunView prints events matching the filter in human-readable form.
func RunView(path string, filter paramlog.Filter, w io.Writer) error {
	reader, err := paramlog.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
	return nil
}

// formatEvent writes one human-readable line per event, with an indented
// error line for failed operations.
func formatEvent(w io.Writer, event paramlog.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	target := event.Parameter
	if event.Instrument != "" {
		target = event.Instrument + "." + event.Parameter
	}

	fmt.Fprintf(w, "%s %-10s %s", ts, event.Op.String(), target)
	if event.Value != "" {
		fmt.Fprintf(w, " value=%s", event.Value)
	}
	if event.RawValue != "" {
		fmt.Fprintf(w, " raw=%s", event.RawValue)
	}
	if event.Elapsed > 0 {
		fmt.Fprintf(w, " (%s)", event.Elapsed)
	}
	fmt.Fprintln(w)

	if event.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", event.Error)
	}
}

// ParseOpFlag converts an operation name flag into an Op.
func ParseOpFlag(s string) (paramlog.Op, error) {
	switch strings.ToLower(s) {
	case "get":
		return paramlog.OpGet, nil
	case "set":
		return paramlog.OpSet, nil
	case "cache-set", "cache_set", "cacheset":
		return paramlog.OpCacheSet, nil
	case "invalidate":
		return paramlog.OpInvalidate, nil
	default:
		return 0, fmt.Errorf("unknown operation %q (supported: get, set, cache-set, invalidate)", s)
	}
}
