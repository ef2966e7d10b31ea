// Package log provides the structured event log of a robot run.
//
// It is separate from operational logging (slog): the event log is a
// machine-readable trace of what the control graph did, one Event per
// lifecycle phase, hardware lookup, state transition, contained fault and
// tick summary, all stamped with the run ID.
//
// # Basic Usage
//
//	// Development: events on the console via slog
//	cfg.Events = log.NewSlogAdapter(slog.Default())
//
//	// Field runs: binary file, one per run
//	fl, _ := log.NewFileLogger("runs/teleop.rlog")
//	cfg.Events = log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// Emitters usually wrap the destination in a Recorder, which stamps the
// time and run ID and offers one helper per event type.
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with integer keys. Read
// them back with Reader, optionally filtered.
package log
