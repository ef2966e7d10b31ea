// Package commands implements the teleop-log CLI commands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/standalonetc/teleop/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [run:%s] %s %s", ts, shortenRunID(event.RunID), event.Layer, event.Category)
	if event.Component != "" {
		fmt.Fprintf(w, " %s", event.Component)
	}
	fmt.Fprintln(w)

	switch {
	case event.Lifecycle != nil:
		fmt.Fprintf(w, "  OpMode: %s\n", event.Lifecycle.OpMode)
		fmt.Fprintf(w, "  Phase: %s\n", event.Lifecycle.Phase)
		if event.Lifecycle.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", event.Lifecycle.Error)
		}
	case event.StateChange != nil:
		if event.StateChange.OldState != "" {
			fmt.Fprintf(w, "  %s -> %s\n", event.StateChange.OldState, event.StateChange.NewState)
		} else {
			fmt.Fprintf(w, "  -> %s\n", event.StateChange.NewState)
		}
	case event.Resolution != nil:
		r := event.Resolution
		status := "found"
		if !r.Found {
			status = "missing"
		}
		fmt.Fprintf(w, "  Device %d %s (%s): %s\n", r.DeviceID, r.Path, r.Kind, status)
		if r.Reason != "" {
			fmt.Fprintf(w, "  Reason: %s\n", r.Reason)
		}
	case event.Fault != nil:
		fmt.Fprintf(w, "  Message: %s\n", event.Fault.Message)
		if event.Fault.Count > 0 {
			fmt.Fprintf(w, "  Count: %d\n", event.Fault.Count)
		}
	case event.Tick != nil:
		fmt.Fprintf(w, "  Sequence: %d  Duration: %s  Faults: %d  Dropped: %d\n",
			event.Tick.Sequence, formatDuration(event.Tick.Duration), event.Tick.Faults, event.Tick.Dropped)
	}

	fmt.Fprintln(w)
}

func shortenRunID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseLayerFlag parses a layer name (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "opmode":
		return log.LayerOpMode, nil
	case "graph":
		return log.LayerGraph, nil
	case "hardware":
		return log.LayerHardware, nil
	case "telemetry":
		return log.LayerTelemetry, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be opmode, graph, hardware, or telemetry)", s)
	}
}

// ParseCategoryFlag parses a category name (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "lifecycle":
		return log.CategoryLifecycle, nil
	case "state":
		return log.CategoryState, nil
	case "resolution":
		return log.CategoryResolution, nil
	case "fault":
		return log.CategoryFault, nil
	case "tick":
		return log.CategoryTick, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be lifecycle, state, resolution, fault, or tick)", s)
	}
}

// FilterOptions are the filter flags shared by the commands.
type FilterOptions struct {
	RunID     string
	Layer     string
	Category  string
	Component string
	TimeStart string
	TimeEnd   string
}

// Build converts the options into a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	f := log.Filter{RunID: o.RunID, Component: o.Component}
	if o.Layer != "" {
		l, err := ParseLayerFlag(o.Layer)
		if err != nil {
			return f, err
		}
		f.Layer = &l
	}
	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return f, err
		}
		f.Category = &c
	}
	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return f, fmt.Errorf("invalid time-start: %w", err)
		}
		f.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return f, fmt.Errorf("invalid time-end: %w", err)
		}
		f.TimeEnd = &t
	}
	return f, nil
}

// each calls fn for every event of the log at path that matches filter.
func each(path string, filter log.Filter, fn func(log.Event) error) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}

// RunView executes the view command.
func RunView(path string, filter log.Filter, output io.Writer) error {
	return each(path, filter, func(event log.Event) error {
		formatEvent(output, event)
		return nil
	})
}
