// Command teleop-log views and analyzes teleop event logs.
//
// Event logs are written by teleop-sim when run with the -event-log flag.
//
// Usage:
//
//	teleop-log <command> [flags] <file.tlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL or CSV format
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	teleop-log view run.tlog
//
//	# View only actuator state changes
//	teleop-log view -category state run.tlog
//
//	# Export one run to CSV
//	teleop-log export -format csv -run 3f2a... -o run.csv run.tlog
//
//	# Show statistics
//	teleop-log stats run.tlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/standalonetc/teleop/cmd/teleop-log/commands"
	"github.com/standalonetc/teleop/pkg/log"
)

const usage = `teleop-log - Teleop Event Log Analyzer

Usage:
  teleop-log <command> [flags] <file.tlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL or CSV format
  stats    Show statistics about the log file

Use "teleop-log <command> -help" for more information about a command.
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

// filterFlags registers the shared filter flags on fs.
func filterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	var o commands.FilterOptions
	fs.StringVar(&o.RunID, "run", "", "Filter by run ID")
	fs.StringVar(&o.Layer, "layer", "", "Filter by layer (opmode, graph, hardware, telemetry)")
	fs.StringVar(&o.Category, "category", "", "Filter by category (lifecycle, state, resolution, fault, tick)")
	fs.StringVar(&o.Component, "component", "", "Filter by component name")
	fs.StringVar(&o.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&o.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	return &o
}

// parse parses args and returns the log path and the filter.
func parse(fs *flag.FlagSet, o *commands.FilterOptions, args []string) (string, log.Filter) {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	filter, err := o.Build()
	if err != nil {
		fatal(err)
	}
	return fs.Arg(0), filter
}

func newFlagSet(name, summary string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "teleop-log %s - %s\n\nUsage:\n  teleop-log %s [flags] <file.tlog>\n\nFlags:\n", name, summary, name)
		fs.PrintDefaults()
	}
	return fs
}

func runView(args []string) {
	fs := newFlagSet("view", "View log file in human-readable format")
	o := filterFlags(fs)
	path, filter := parse(fs, o, args)

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export log file to JSONL or CSV format")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	o := filterFlags(fs)
	path, filter := parse(fs, o, args)

	if err := commands.RunExport(path, *format, *output, filter); err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the log file")
	o := filterFlags(fs)
	path, filter := parse(fs, o, args)

	if err := commands.RunStats(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
