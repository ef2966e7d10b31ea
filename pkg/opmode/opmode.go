package opmode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/standalonetc/teleop/pkg/bundle"
	"github.com/standalonetc/teleop/pkg/gamepad"
	"github.com/standalonetc/teleop/pkg/hardware"
	"github.com/standalonetc/teleop/pkg/link"
	"github.com/standalonetc/teleop/pkg/log"
	"github.com/standalonetc/teleop/pkg/robot"
	"github.com/standalonetc/teleop/pkg/scope"
	"github.com/standalonetc/teleop/pkg/subsystem"
	"github.com/standalonetc/teleop/pkg/telemetry"
	"github.com/standalonetc/teleop/pkg/wire"
)

// Gamepad component names.
const (
	MasterName = "master"
	HelperName = "helper"
)

// HostOwner is the producer name of effectors driven by command packets.
const HostOwner = "host"

// Lifecycle errors.
var (
	// ErrLifecycle is returned when a lifecycle method is called out of
	// order.
	ErrLifecycle = errors.New("op-mode lifecycle violation")

	// ErrHostMode is returned by Command outside ModeHost.
	ErrHostMode = errors.New("commands are only accepted in host mode")
)

type phase uint8

const (
	phaseCreated phase = iota
	phaseInitialized
	phaseStarted
	phaseStopped
)

func (p phase) String() string {
	switch p {
	case phaseCreated:
		return "created"
	case phaseInitialized:
		return "initialized"
	case phaseStarted:
		return "started"
	default:
		return "stopped"
	}
}

// Option configures an OpMode.
type Option func(*OpMode)

// WithLogger sets the operational logger. The default is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *OpMode) { o.logger = l }
}

// WithEvents sets the event log.
func WithEvents(l log.Logger) Option {
	return func(o *OpMode) { o.eventLog = l }
}

// WithRunID sets the run ID stamped on events. The default is a random
// UUID.
func WithRunID(id string) Option {
	return func(o *OpMode) { o.runID = id }
}

// WithMapping uses m instead of the configured bundle.
func WithMapping(m *bundle.Mapping) Option {
	return func(o *OpMode) { o.mapping = m }
}

// OpMode is one run of the control graph against a hardware map. Its
// methods must be called from a single goroutine.
type OpMode struct {
	cfg      Config
	hw       hardware.Map
	queue    *telemetry.Queue
	logger   *slog.Logger
	eventLog log.Logger
	runID    string
	events   *log.Recorder
	attrs    attribute.Set

	phase phase

	mapping    *bundle.Mapping
	robot      *robot.Robot
	scope      *scope.DynamicScope
	master     *gamepad.Gamepad
	helper     *gamepad.Gamepad
	subsystems *subsystem.Set
	binder     *hardware.Binder

	links   *link.Group
	outputs telemetry.Outputs
	display []wire.Telemetry

	ticks   uint64
	dropped uint64
	faults  atomic.Uint64
}

// New creates an OpMode. Telemetry packets are pushed onto q; a nil q is
// replaced by a queue built from cfg.Telemetry.
func New(cfg Config, hw hardware.Map, q *telemetry.Queue, opts ...Option) (*OpMode, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if q == nil {
		q = telemetry.NewQueue(cfg.Telemetry.Capacity, cfg.Telemetry.Policy)
	}
	o := &OpMode{
		cfg:    cfg,
		hw:     hw,
		queue:  q,
		logger: slog.Default(),
		links:  link.NewGroup(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.events = log.NewRecorder(o.eventLog, o.runID)
	o.attrs = attribute.NewSet(attribute.String(opModeName, cfg.Name))
	o.logger = o.logger.With("opmode", cfg.Name, "run", o.events.RunID())
	return o, nil
}

// Name returns the op-mode name.
func (o *OpMode) Name() string { return o.cfg.Name }

// RunID returns the run ID stamped on every event.
func (o *OpMode) RunID() string { return o.events.RunID() }

// Queue returns the telemetry queue.
func (o *OpMode) Queue() *telemetry.Queue { return o.queue }

// Robot returns the realized robot. Nil before Init.
func (o *OpMode) Robot() *robot.Robot { return o.robot }

// Scope returns the component scope. Nil before Init.
func (o *OpMode) Scope() *scope.DynamicScope { return o.scope }

// Master returns the master gamepad. Nil before Init.
func (o *OpMode) Master() *gamepad.Gamepad { return o.master }

// Helper returns the helper gamepad. Nil before Init.
func (o *OpMode) Helper() *gamepad.Gamepad { return o.helper }

// Subsystems returns the subsystems. Nil before Init and in ModeHost.
func (o *OpMode) Subsystems() *subsystem.Set { return o.subsystems }

// Binder returns the hardware binding. Nil before Init.
func (o *OpMode) Binder() *hardware.Binder { return o.binder }

// Faults returns the number of faults contained by Links so far.
func (o *OpMode) Faults() uint64 { return o.faults.Load() }

// Ticks returns the number of completed Loop calls.
func (o *OpMode) Ticks() uint64 { return o.ticks }

// Display returns the telemetry lines received from the driver station.
func (o *OpMode) Display() []wire.Telemetry {
	return append([]wire.Telemetry(nil), o.display...)
}

func (o *OpMode) expect(p phase, op string) error {
	if o.phase != p {
		return fmt.Errorf("%w: %s while %s", ErrLifecycle, op, o.phase)
	}
	return nil
}

// Init builds the graph and binds it to the hardware map. Configuration
// errors abort Init.
func (o *OpMode) Init(ctx context.Context) (err error) {
	if err := o.expect(phaseCreated, "init"); err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "opmode.Init", trace.WithAttributes(attribute.String(opModeName, o.cfg.Name)))
	defer func() { endSpan(span, err) }()
	defer func() { o.events.Lifecycle(o.cfg.Name, log.PhaseInit, err) }()

	if err := o.build(); err != nil {
		return err
	}

	o.binder, err = hardware.Bind(o.hw, o.robot, hardware.BinderConfig{
		Logger: o.logger,
		Events: o.events,
	})
	if err != nil {
		return fmt.Errorf("bind hardware: %w", err)
	}

	o.publish(ctx, wire.OpModeInfo{Name: o.cfg.Name, State: wire.OpModeInit})
	for _, d := range wire.Describe(o.mapping) {
		o.publish(ctx, d)
	}

	o.phase = phaseInitialized
	o.logger.Info("op-mode initialized", "devices", o.mapping.Len(), "missing", len(o.binder.Missing()))
	return nil
}

func (o *OpMode) build() error {
	if o.mapping == nil {
		b := subsystem.Unicorn()
		if o.cfg.Bundle != "" {
			var err error
			if b, err = bundle.LoadFile(o.cfg.Bundle); err != nil {
				return err
			}
		}
		m, err := b.Build()
		if err != nil {
			return err
		}
		o.mapping = m
	}

	o.robot = robot.New(o.mapping)
	o.scope = scope.New(scope.WithFaultHandler(o.onTickFault))
	o.master = gamepad.New(MasterName, gamepad.WithTriggerThreshold(o.cfg.TriggerThreshold))
	o.helper = gamepad.New(HelperName, gamepad.WithTriggerThreshold(o.cfg.TriggerThreshold))

	for _, c := range []scope.Component{o.master, o.helper} {
		if err := o.scope.Setup(c); err != nil {
			return err
		}
	}
	if err := o.robot.Setup(o.scope); err != nil {
		return err
	}
	if o.cfg.Mode != ModeRemote {
		return nil
	}

	set, err := subsystem.NewSet(o.robot, o.cfg.Subsystems, subsystem.WithLinkOptions(link.WithFaultHandler(o.onFault)))
	if err != nil {
		return err
	}
	if err := set.Setup(o.scope); err != nil {
		return err
	}
	o.subsystems = set
	return nil
}

// Start initializes every component, wires the operator controls and
// starts publishing telemetry.
func (o *OpMode) Start(ctx context.Context) (err error) {
	if err := o.expect(phaseInitialized, "start"); err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "opmode.Start", trace.WithAttributes(attribute.String(opModeName, o.cfg.Name)))
	defer func() { endSpan(span, err) }()
	defer func() { o.events.Lifecycle(o.cfg.Name, log.PhaseStart, err) }()

	if err := o.scope.InitAll(ctx); err != nil {
		return err
	}

	if o.subsystems != nil {
		r := &remote{
			master: o.master,
			helper: o.helper,
			set:    o.subsystems,
			links:  o.links,
			opts:   o.linkOptions,
		}
		r.wire()
		o.watchStates()
	}

	// Replay the idle samples so edge streams have a previous value and
	// a button held at the first tick counts as a press.
	o.sample(o.master.Read(), o.helper.Read())

	o.outputs = o.buildOutputs()
	o.logFound()
	o.publish(ctx, wire.OpModeInfo{Name: o.cfg.Name, State: wire.OpModeStart})

	o.phase = phaseStarted
	o.logger.Info("op-mode started", "links", o.links.Len(), "outputs", len(o.outputs))
	return nil
}

func (o *OpMode) linkOptions(name string) []link.Option {
	return []link.Option{link.WithName(name), link.WithFaultHandler(o.onFault)}
}

func (o *OpMode) onFault(l *link.Link, err error) {
	o.faults.Add(1)
	o.logger.Error("link fault contained", "link", l.Name(), "faults", l.Faults(), "error", err)
	o.events.Fault(log.LayerGraph, l.Name(), err, l.Faults())
	measureLinkFault(context.Background(), o.cfg.Name, l.Name())
}

func (o *OpMode) onTickFault(c scope.Component, faults uint64, err error) {
	o.faults.Add(1)
	o.logger.Error("tick fault contained", "component", c.Name(), "faults", faults, "error", err)
	o.events.Fault(log.LayerGraph, c.Name(), err, faults)
	measureTickFault(context.Background(), o.cfg.Name, c.Name())
}

func (o *OpMode) watchStates() {
	for _, s := range o.subsystems.All() {
		for _, m := range s.Machines() {
			name := m.Name()
			o.links.Track(m.Observe(func(from, to string) {
				o.logger.Debug("state changed", "component", name, "from", from, "to", to)
				o.events.StateChange(name, from, to)
			}, o.linkOptions(name+".observer")...))
		}
	}
}

func (o *OpMode) buildOutputs() telemetry.Outputs {
	bound := o.binder.Bound()
	parts := make([]robot.Part, len(bound))
	for i, b := range bound {
		parts[i] = b.Part
	}

	outputs := telemetry.Outputs(telemetry.SensorTasks(parts))
	return append(outputs,
		telemetry.GamepadTask(wire.GamepadMaster, o.master),
		telemetry.GamepadTask(wire.GamepadHelper, o.helper),
		telemetry.VoltageTask(o.binder.Voltage),
	)
}

func (o *OpMode) logFound() {
	byKind := make(map[bundle.Kind][]string)
	for _, b := range o.binder.Bound() {
		e := b.Part.Entry()
		byKind[e.Kind()] = append(byKind[e.Kind()], fmt.Sprintf("(%d,%s)", e.ID, e.Path()))
	}
	for _, k := range []bundle.Kind{bundle.KindMotor, bundle.KindServo, bundle.KindContinuousServo} {
		o.logger.Info("found devices", "kind", k, "devices", strings.Join(byKind[k], ", "))
	}
}

// sample stores both gamepads before either notifies, so a master Link
// reads the helper sample of the same tick.
func (o *OpMode) sample(master, helper gamepad.Data) {
	o.master.Store(master)
	o.helper.Store(helper)
	o.master.Notify()
	o.helper.Notify()
}

// Loop runs one control tick with the given gamepad samples.
func (o *OpMode) Loop(ctx context.Context, master, helper gamepad.Data) error {
	if err := o.expect(phaseStarted, "loop"); err != nil {
		return err
	}
	start := time.Now()

	o.binder.Sample()
	o.sample(master, helper)
	o.scope.TickAll(start)
	o.binder.Apply()

	if err := o.outputs.Publish(ctx, o.queue); err != nil {
		return fmt.Errorf("publish telemetry: %w", err)
	}
	elapsed := time.Since(start)
	if err := o.queue.Push(ctx, wire.OperationPeriod{Period: elapsed}); err != nil {
		return fmt.Errorf("publish telemetry: %w", err)
	}

	o.ticks++
	measureTick(ctx, o.attrs, elapsed)
	dropped := o.queue.Dropped()
	measureDrops(ctx, o.attrs, dropped-o.dropped)
	o.dropped = dropped

	if o.cfg.TickLogInterval > 0 && o.ticks%o.cfg.TickLogInterval == 0 {
		o.events.Tick(log.TickEvent{
			Sequence: o.ticks,
			Duration: elapsed,
			Faults:   o.faults.Load(),
			Dropped:  dropped,
		})
	}
	return nil
}

// Command applies a command packet from the driver station. Only ModeHost
// accepts effector commands; Telemetry and TelemetryClear update the
// display in any mode.
func (o *OpMode) Command(p wire.Packet) error {
	if o.phase != phaseInitialized && o.phase != phaseStarted {
		return fmt.Errorf("%w: command while %s", ErrLifecycle, o.phase)
	}
	switch p := p.(type) {
	case wire.Telemetry:
		o.display = append(o.display, p)
		return nil
	case wire.TelemetryClear:
		o.display = nil
		return nil
	}
	if o.cfg.Mode != ModeHost {
		return ErrHostMode
	}
	return o.robot.Command(p, HostOwner)
}

// Stop severs every Link, stops the components in reverse order and
// releases the hardware. Stop after a failed Init or Start cleans up
// whatever was built.
func (o *OpMode) Stop(ctx context.Context) (err error) {
	if o.phase == phaseStopped {
		return nil
	}
	defer func() { o.events.Lifecycle(o.cfg.Name, log.PhaseStop, err) }()

	o.links.DisposeAll()

	if o.scope != nil {
		err = o.scope.StopAll()
	}
	if o.binder != nil {
		o.binder.Release()
	}
	if o.phase != phaseCreated {
		o.publish(ctx, wire.OpModeInfo{Name: o.cfg.Name, State: wire.OpModeStop})
	}

	o.phase = phaseStopped
	o.logger.Info("op-mode stopped", "ticks", o.ticks, "faults", o.faults.Load())
	return err
}

// publish pushes a lifecycle packet. A full blocking queue or a closed
// queue loses the packet; the control graph does not wait on telemetry.
func (o *OpMode) publish(ctx context.Context, p wire.Packet) {
	if err := o.queue.Push(ctx, p); err != nil {
		o.logger.Warn("telemetry packet lost", "type", p.PacketType(), "error", err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
