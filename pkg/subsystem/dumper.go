package subsystem

import (
	"context"
	"time"

	"github.com/standalonetc/teleop/pkg/device"
	"github.com/standalonetc/teleop/pkg/link"
	"github.com/standalonetc/teleop/pkg/robot"
	"github.com/standalonetc/teleop/pkg/statemachine"
)

// Dumper raises the dumper arm with its motor and clears it with a push
// rod servo.
type Dumper struct {
	base
	cfg Config

	// Power is the requested arm power before the motor direction is
	// applied.
	Power *device.Device[float64]

	// LockEnable holds the push rod retracted while true.
	LockEnable *device.Device[bool]

	motor   *robot.Motor
	encoder *robot.Encoder
	pushRod *stroke
}

// NewDumper resolves the dumper parts of r.
func NewDumper(r *robot.Robot, cfg Config, opts ...Option) (*Dumper, error) {
	motor, err := r.Motor(DumperGroup + ".am")
	if err != nil {
		return nil, err
	}
	encoder, err := r.Encoder(DumperGroup + ".am")
	if err != nil {
		return nil, err
	}
	servo, err := r.Servo(DumperGroup + ".servo")
	if err != nil {
		return nil, err
	}

	return &Dumper{
		base:       newBase(DumperGroup, opts, motor, encoder, servo),
		cfg:        cfg,
		Power:      device.New(DumperGroup+".power", 0.0),
		LockEnable: device.New(DumperGroup+".lock_enable", false),
		motor:      motor,
		encoder:    encoder,
		// A push that arrives mid-stroke is dropped: the rod has to come
		// back before it can clear the next load.
		pushRod: newStroke(DumperGroup+".push_rod", statemachine.Ignore, servo, cfg.StrokeTicks),
	}, nil
}

// Init claims the motor and push rod servo and links the requested power
// to the motor.
func (d *Dumper) Init(context.Context) error {
	if err := d.claim(d.motor.Power, d.pushRod.servo.Position); err != nil {
		return err
	}

	d.track(link.Map(d.Power, clampPower).Into(d.motor.Power, d.opts("power")...))
	d.track(link.Direct(device.Rising(d.LockEnable, device.Seed(d.LockEnable.Read()))).
		Do(func(bool) { d.pushRod.retract() }, d.opts("lock")...))
	return nil
}

// Push starts n push rod cycles. It reports false when the rod is locked
// or already moving.
func (d *Dumper) Push(n int) bool {
	if d.LockEnable.Read() {
		return false
	}
	return d.pushRod.trigger(n)
}

// PushRod returns a Sink that calls Push.
func (d *Dumper) PushRod() link.Sink[int] {
	return link.SinkFunc[int](func(n int) { d.Push(n) })
}

// Pushing reports whether the push rod is cycling.
func (d *Dumper) Pushing() bool {
	return d.pushRod.counter.Active()
}

// ToggleLock flips LockEnable.
func (d *Dumper) ToggleLock() {
	d.LockEnable.Update(!d.LockEnable.Read())
}

// InSadArea reports whether the arm is in the stretch where gravity works
// against it and the requested power needs a boost.
func (d *Dumper) InSadArea() bool {
	rev := d.encoder.Revolutions()
	return rev >= d.cfg.SadAreaStart && rev <= d.cfg.SadAreaEnd
}

// Tick advances the push rod.
func (d *Dumper) Tick(time.Time) {
	d.pushRod.tick()
}

// Machines implements Subsystem.
func (d *Dumper) Machines() []statemachine.Observable {
	return []statemachine.Observable{d.pushRod.counter}
}

// Stop severs the dumper's Links, stops the arm and retracts the rod.
func (d *Dumper) Stop() error {
	d.disposeLinks()
	d.motor.Power.Update(0)
	d.pushRod.retract()
	return nil
}

func clampPower(p float64) float64 {
	switch {
	case p > 1:
		return 1
	case p < -1:
		return -1
	default:
		return p
	}
}
