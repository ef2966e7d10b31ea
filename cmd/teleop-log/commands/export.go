package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/standalonetc/teleop/pkg/log"
)

// RunExport exports the matching events of the log file in the given format.
func RunExport(path, format, output string, filter log.Filter) error {
	if format != "jsonl" && format != "csv" {
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "jsonl" {
		return exportJSONL(path, filter, w)
	}
	return exportCSV(path, filter, w)
}

func exportJSONL(path string, filter log.Filter, w io.Writer) error {
	encoder := json.NewEncoder(w)
	return each(path, filter, func(event log.Event) error {
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	})
}

func exportCSV(path string, filter log.Filter, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "run_id", "layer", "category", "component", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return each(path, filter, func(event log.Event) error {
		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.RunID,
			event.Layer.String(),
			event.Category.String(),
			event.Component,
			detail(event),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		return nil
	})
}

// detail returns a one-field summary of the event payload.
func detail(event log.Event) string {
	switch {
	case event.Lifecycle != nil:
		if event.Lifecycle.Error != "" {
			return event.Lifecycle.Phase.String() + ": " + event.Lifecycle.Error
		}
		return event.Lifecycle.Phase.String()
	case event.StateChange != nil:
		return event.StateChange.OldState + ">" + event.StateChange.NewState
	case event.Resolution != nil:
		return event.Resolution.Path + "=" + strconv.FormatBool(event.Resolution.Found)
	case event.Fault != nil:
		return event.Fault.Message
	case event.Tick != nil:
		return strconv.FormatUint(event.Tick.Sequence, 10)
	default:
		return ""
	}
}
