// Command param-log is a tool for viewing and analyzing parameter event
// log files.
//
// Log files are produced by attaching a file logger to an instrument, for
// example with the param-shell -log flag.
//
// Usage:
//
//	param-log <command> [flags] <file.plog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	param-log view session.plog
//
//	# View only failed sets of one parameter
//	param-log view -op set -errors-only -parameter smua_volt session.plog
//
//	# Export to JSONL
//	param-log export -format jsonl session.plog
//
//	# Keep only one instrument's events
//	param-log filter -instrument keithley -o filtered.plog session.plog
//
//	# Show statistics
//	param-log stats session.plog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/liuyichao82/Qcodes/cmd/param-log/commands"
	"github.com/liuyichao82/Qcodes/pkg/paramlog"
)

const usage = `param-log - Parameter Event Log Analyzer

Usage:
  param-log <command> [flags] <file.plog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "param-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)

	instrument := fs.String("instrument", "", "Filter by instrument name")
	parameter := fs.String("parameter", "", "Filter by parameter name")
	op := fs.String("op", "", "Filter by operation (get, set, cache-set, invalidate)")
	errorsOnly := fs.Bool("errors-only", false, "Show only failed operations")

	path := parsePath(fs, args)

	filter := paramlog.Filter{
		Instrument: *instrument,
		Parameter:  *parameter,
		ErrorsOnly: *errorsOnly,
	}
	if *op != "" {
		parsed, err := commands.ParseOpFlag(*op)
		if err != nil {
			fatal(err)
		}
		filter.Op = &parsed
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default stdout)")

	path := parsePath(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)

	output := fs.String("o", "", "Output file (required)")
	session := fs.String("session", "", "Filter by capture session ID")
	instrument := fs.String("instrument", "", "Filter by instrument name")
	parameter := fs.String("parameter", "", "Filter by parameter name")
	op := fs.String("op", "", "Filter by operation (get, set, cache-set, invalidate)")
	errorsOnly := fs.Bool("errors-only", false, "Keep only failed operations")
	timeStart := fs.String("time-start", "", "Keep events at or after this RFC3339 time")
	timeEnd := fs.String("time-end", "", "Keep events before this RFC3339 time")

	path := parsePath(fs, args)

	if *output == "" {
		fatal(fmt.Errorf("output file required (-o)"))
	}

	err := commands.RunFilter(path, commands.FilterOptions{
		Output:     *output,
		SessionID:  *session,
		Instrument: *instrument,
		Parameter:  *parameter,
		Op:         *op,
		ErrorsOnly: *errorsOnly,
		TimeStart:  *timeStart,
		TimeEnd:    *timeEnd,
	})
	if err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	path := parsePath(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}

// parsePath parses the flag set and returns the required trailing log file
// argument, exiting on error.
func parsePath(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
