package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/liuyichao82/Qcodes/pkg/paramlog"
)

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := paramlog.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

// jsonEvent is the JSONL export shape with readable field names.
type jsonEvent struct {
	Timestamp  string `json:"timestamp"`
	SessionID  string `json:"session_id,omitempty"`
	Instrument string `json:"instrument,omitempty"`
	Parameter  string `json:"parameter"`
	Op         string `json:"op"`
	Value      string `json:"value,omitempty"`
	RawValue   string `json:"raw_value,omitempty"`
	ElapsedUS  int64  `json:"elapsed_us,omitempty"`
	Error      string `json:"error,omitempty"`
}

func exportJSONL(reader *paramlog.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		row := jsonEvent{
			Timestamp:  event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			SessionID:  event.SessionID,
			Instrument: event.Instrument,
			Parameter:  event.Parameter,
			Op:         event.Op.String(),
			Value:      event.Value,
			RawValue:   event.RawValue,
			ElapsedUS:  event.Elapsed.Microseconds(),
			Error:      event.Error,
		}
		if err := encoder.Encode(row); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *paramlog.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "session_id", "instrument", "parameter", "op", "value", "raw_value", "elapsed_us", "error"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.SessionID,
			event.Instrument,
			event.Parameter,
			event.Op.String(),
			event.Value,
			event.RawValue,
			fmt.Sprintf("%d", event.Elapsed.Microseconds()),
			event.Error,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
