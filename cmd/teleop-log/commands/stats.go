package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/standalonetc/teleop/pkg/log"
)

// Stats holds aggregate statistics about an event log.
type Stats struct {
	TotalEvents      int
	EventsByLayer    map[log.Layer]int
	EventsByCategory map[log.Category]int
	Runs             map[string]*RunSummary
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// RunSummary holds statistics for a single op-mode run.
type RunSummary struct {
	OpMode      string
	FirstSeen   time.Time
	LastSeen    time.Time
	Events      int
	Transitions int
	Missing     int
	Faults      uint64
	Ticks       uint64
	Dropped     uint64
	Failed      string
}

// Collect reads the log file and aggregates its statistics.
func Collect(path string, filter log.Filter) (*Stats, error) {
	stats := &Stats{
		EventsByLayer:    make(map[log.Layer]int),
		EventsByCategory: make(map[log.Category]int),
		Runs:             make(map[string]*RunSummary),
	}

	err := each(path, filter, func(event log.Event) error {
		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		run, ok := stats.Runs[event.RunID]
		if !ok {
			run = &RunSummary{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			stats.Runs[event.RunID] = run
		}
		run.Events++
		if event.Timestamp.After(run.LastSeen) {
			run.LastSeen = event.Timestamp
		}

		switch {
		case event.Lifecycle != nil:
			run.OpMode = event.Lifecycle.OpMode
			if event.Lifecycle.Error != "" && run.Failed == "" {
				run.Failed = event.Lifecycle.Phase.String() + ": " + event.Lifecycle.Error
			}
		case event.StateChange != nil:
			run.Transitions++
		case event.Resolution != nil:
			if !event.Resolution.Found {
				run.Missing++
			}
		case event.Fault != nil:
			run.Faults++
		case event.Tick != nil:
			run.Ticks = max(run.Ticks, event.Tick.Sequence)
			run.Dropped = max(run.Dropped, event.Tick.Dropped)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, filter log.Filter, w io.Writer) error {
	stats, err := Collect(path, filter)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Teleop Event Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerOpMode, log.LayerGraph, log.LayerHardware, log.LayerTelemetry} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryLifecycle, log.CategoryState, log.CategoryResolution, log.CategoryFault, log.CategoryTick} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Runs: %d\n", len(stats.Runs))
	if len(stats.Runs) == 0 {
		return
	}

	type runInfo struct {
		id    string
		stats *RunSummary
	}
	runs := make([]runInfo, 0, len(stats.Runs))
	for id, rs := range stats.Runs {
		runs = append(runs, runInfo{id, rs})
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].stats.FirstSeen.Before(runs[j].stats.FirstSeen)
	})

	fmt.Fprintln(w)
	for _, r := range runs {
		duration := r.stats.LastSeen.Sub(r.stats.FirstSeen).Round(time.Millisecond)
		fmt.Fprintf(w, "  [%s] %s: %d events, duration %s\n", shortenRunID(r.id), r.stats.OpMode, r.stats.Events, duration)
		fmt.Fprintf(w, "           Ticks: %d  Transitions: %d  Faults: %d\n", r.stats.Ticks, r.stats.Transitions, r.stats.Faults)
		if r.stats.Missing > 0 {
			fmt.Fprintf(w, "           Missing devices: %d\n", r.stats.Missing)
		}
		if r.stats.Dropped > 0 {
			fmt.Fprintf(w, "           Dropped telemetry: %d\n", r.stats.Dropped)
		}
		if r.stats.Failed != "" {
			fmt.Fprintf(w, "           Failed: %s\n", r.stats.Failed)
		}
	}
}
