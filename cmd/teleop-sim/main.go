// Command teleop-sim runs an op-mode against simulated hardware.
//
// The control loop ticks at the configured period. Telemetry packets are
// written as length-prefixed CBOR frames. With -interactive, a console
// drives the gamepads and inspects the robot while the loop runs.
//
// Usage:
//
//	teleop-sim [flags]
//
// Flags:
//
//	-config string      Op-mode configuration file (YAML)
//	-mode string        Override the mode: remote, host
//	-bundle string      Override the bundle file (YAML)
//	-omit string        Comma-separated device paths to leave unplugged
//	-telemetry string   Telemetry output file, "-" for stdout
//	-event-log string   Override the CBOR event log path
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-interactive        Run the console (default true)
//	-duration duration  Stop after this long (default: run until interrupted)
//
// Examples:
//
//	# Drive the Unicorn from the console
//	teleop-sim
//
//	# Record telemetry for ten seconds with the lifter touch sensor unplugged
//	teleop-sim -interactive=false -duration 10s -omit lifter.touch -telemetry run.cbor
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standalonetc/teleop/cmd/teleop-sim/interactive"
	"github.com/standalonetc/teleop/pkg/bundle"
	"github.com/standalonetc/teleop/pkg/hardware/sim"
	"github.com/standalonetc/teleop/pkg/log"
	"github.com/standalonetc/teleop/pkg/opmode"
	"github.com/standalonetc/teleop/pkg/subsystem"
	"github.com/standalonetc/teleop/pkg/telemetry"
)

// Flags holds the command line.
type Flags struct {
	ConfigFile  string
	Mode        string
	Bundle      string
	Omit        string
	Telemetry   string
	EventLog    string
	LogLevel    string
	Interactive bool
	Duration    time.Duration
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Op-mode configuration file (YAML)")
	flag.StringVar(&flags.Mode, "mode", "", "Override the mode: remote, host")
	flag.StringVar(&flags.Bundle, "bundle", "", "Override the bundle file (YAML)")
	flag.StringVar(&flags.Omit, "omit", "", "Comma-separated device paths to leave unplugged")
	flag.StringVar(&flags.Telemetry, "telemetry", "", `Telemetry output file, "-" for stdout`)
	flag.StringVar(&flags.EventLog, "event-log", "", "Override the CBOR event log path")
	flag.StringVar(&flags.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&flags.Interactive, "interactive", true, "Run the console")
	flag.DurationVar(&flags.Duration, "duration", 0, "Stop after this long (0 runs until interrupted)")
}

func main() {
	flag.Parse()
	if err := run(flags); err != nil {
		fmt.Fprintf(os.Stderr, "teleop-sim: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig applies the flag overrides to the configuration file.
func loadConfig(f Flags) (opmode.Config, error) {
	cfg := opmode.DefaultConfig()
	if f.ConfigFile != "" {
		var err error
		if cfg, err = opmode.LoadConfig(f.ConfigFile); err != nil {
			return opmode.Config{}, err
		}
	}
	if f.Mode != "" {
		if err := cfg.Mode.UnmarshalText([]byte(f.Mode)); err != nil {
			return opmode.Config{}, err
		}
	}
	if f.Bundle != "" {
		cfg.Bundle = f.Bundle
	}
	if f.EventLog != "" {
		cfg.EventLog = f.EventLog
	}
	return cfg, cfg.Validate()
}

func loadMapping(cfg opmode.Config) (*bundle.Mapping, error) {
	b := subsystem.Unicorn()
	if cfg.Bundle != "" {
		var err error
		if b, err = bundle.LoadFile(cfg.Bundle); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func splitList(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

func openTelemetry(path string) (io.WriteCloser, error) {
	switch path {
	case "":
		return nopCloser{io.Discard}, nil
	case "-":
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func run(f Flags) (err error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if f.Duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, f.Duration)
		defer cancel()
	}

	requests := make(chan interactive.Request)
	var console *interactive.Console
	logOut := io.Writer(os.Stderr)
	if f.Interactive {
		if console, err = interactive.New(requests); err != nil {
			return err
		}
		defer console.Close()
		logOut = console.Stdout()
	}
	logger, err := newLogger(logOut, f.LogLevel)
	if err != nil {
		return err
	}

	events, err := opmode.OpenEventLog(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer func() { err = errors.Join(err, events.Close()) }()

	mapping, err := loadMapping(cfg)
	if err != nil {
		return err
	}
	hw := sim.FromMapping(mapping, splitList(f.Omit)...)

	out, err := openTelemetry(f.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to open telemetry output: %w", err)
	}
	defer func() { err = errors.Join(err, out.Close()) }()

	queue := telemetry.NewQueue(cfg.Telemetry.Capacity, cfg.Telemetry.Policy)
	op, err := opmode.New(cfg, hw, queue,
		opmode.WithLogger(logger),
		opmode.WithEvents(events),
		opmode.WithMapping(mapping),
	)
	if err != nil {
		return err
	}
	worker := telemetry.NewWorker(queue, telemetry.NewFrameSender(out), telemetry.WorkerConfig{
		Logger: logger,
		Events: log.NewRecorder(events, op.RunID()),
	})

	// The worker outlives the control loop so the STOP announcement is
	// flushed after the queue is closed.
	var flush errgroup.Group
	flush.Go(func() error { return worker.Run(context.Background()) })
	defer func() {
		queue.Close()
		err = errors.Join(err, flush.Wait())
		logger.Info("telemetry flushed", "sent", worker.Sent(), "failed", worker.Failed(), "dropped", queue.Dropped())
	}()

	if err := op.Init(ctx); err != nil {
		return errors.Join(err, op.Stop(context.Background()))
	}
	defer func() { err = errors.Join(err, op.Stop(context.Background())) }()
	if err := op.Start(ctx); err != nil {
		return err
	}

	session := &interactive.Session{OpMode: op, Hardware: hw}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runLoop(gctx, session, cfg.TickPeriod, requests) })
	if console != nil {
		g.Go(func() error { return console.Run(gctx, cancel) })
	}
	return g.Wait()
}
