package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/liuyichao82/Qcodes/pkg/paramlog"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents int
	EventsByOp  map[paramlog.Op]int
	Parameters  map[string]*ParameterStats
	Errors      int
	TimeRange   struct {
		Start time.Time
		End   time.Time
	}
}

// ParameterStats holds statistics for a single parameter.
type ParameterStats struct {
	Instrument   string
	Events       int
	Errors       int
	TotalElapsed time.Duration
	DeviceOps    int
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := paramlog.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByOp: make(map[paramlog.Op]int),
		Parameters: make(map[string]*ParameterStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByOp[event.Op]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		param, ok := stats.Parameters[event.Parameter]
		if !ok {
			param = &ParameterStats{Instrument: event.Instrument}
			stats.Parameters[event.Parameter] = param
		}
		param.Events++
		if event.Op == paramlog.OpGet || event.Op == paramlog.OpSet {
			param.DeviceOps++
			param.TotalElapsed += event.Elapsed
		}
		if event.Error != "" {
			param.Errors++
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Parameter Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
	}
	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Errors:       %d\n", stats.Errors)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Operation:")
	for _, op := range []paramlog.Op{paramlog.OpGet, paramlog.OpSet, paramlog.OpCacheSet, paramlog.OpInvalidate} {
		if count := stats.EventsByOp[op]; count > 0 {
			fmt.Fprintf(w, "  %-11s %d\n", op.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.Parameters) == 0 {
		return
	}

	names := make([]string, 0, len(stats.Parameters))
	for name := range stats.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Parameters:")
	for _, name := range names {
		param := stats.Parameters[name]
		label := name
		if param.Instrument != "" {
			label = param.Instrument + "." + name
		}
		fmt.Fprintf(w, "  %s: %d events", label, param.Events)
		if param.DeviceOps > 0 {
			avg := param.TotalElapsed / time.Duration(param.DeviceOps)
			fmt.Fprintf(w, ", avg device op %s", avg.Round(time.Microsecond))
		}
		if param.Errors > 0 {
			fmt.Fprintf(w, ", %d errors", param.Errors)
		}
		fmt.Fprintln(w)
	}
}
