package subsystem

import (
	"context"

	"github.com/standalonetc/teleop/pkg/device"
	"github.com/standalonetc/teleop/pkg/link"
	"github.com/standalonetc/teleop/pkg/robot"
	"github.com/standalonetc/teleop/pkg/statemachine"
)

// ExpanderState is the motion of the expander slide.
type ExpanderState uint8

const (
	ExpanderStop ExpanderState = iota
	Expanding
	Shrinking
)

// String returns the state name.
func (s ExpanderState) String() string {
	switch s {
	case ExpanderStop:
		return "STOP"
	case Expanding:
		return "EXPANDING"
	case Shrinking:
		return "SHRINKING"
	default:
		return "UNKNOWN"
	}
}

// Expander drives the expander slide with its matrix motor. While Lock
// is engaged the latch servo holds the slide and only Stop is accepted.
type Expander struct {
	base
	cfg Config

	State *statemachine.Machine[ExpanderState]
	Lock  *device.Device[bool]

	motor *robot.Motor
	latch *robot.Servo
}

// NewExpander resolves the expander parts of r.
func NewExpander(r *robot.Robot, cfg Config, opts ...Option) (*Expander, error) {
	motor, err := r.Motor(ExpanderGroup + ".matrix")
	if err != nil {
		return nil, err
	}
	latch, err := r.Servo(ExpanderGroup + ".servo")
	if err != nil {
		return nil, err
	}

	e := &Expander{
		base:  newBase(ExpanderGroup, opts, motor, latch),
		cfg:   cfg,
		Lock:  device.New(ExpanderGroup+".lock", false),
		motor: motor,
		latch: latch,
	}
	e.State = statemachine.New(ExpanderGroup+".state", ExpanderStop, e.lockGuard)
	return e, nil
}

func (e *Expander) lockGuard(_, to ExpanderState) bool {
	return to != ExpanderStop && e.Lock.Read()
}

// Init claims the motor and latch and links them to the state and lock.
func (e *Expander) Init(context.Context) error {
	if err := e.claim(e.motor.Power, e.latch.Position); err != nil {
		return err
	}

	e.track(link.Map(e.State.State(), e.power).Into(e.motor.Power, e.opts("power")...))
	e.track(link.Map(e.Lock, e.latchPosition).Into(e.latch.Position, e.opts("latch")...))
	// Engaging the lock stops the slide.
	e.track(link.Map(device.Rising(e.Lock, device.Seed(e.Lock.Read())), func(bool) ExpanderState {
		return ExpanderStop
	}).Into(e.State, e.opts("lock")...))
	return nil
}

func (e *Expander) power(s ExpanderState) float64 {
	return powerOf(s, Expanding, Shrinking, e.cfg.ExpanderPower)
}

func (e *Expander) latchPosition(locked bool) float64 {
	if locked {
		return e.latch.Spec.Range.Max
	}
	return e.latch.Spec.Range.Min
}

// Machines implements Subsystem.
func (e *Expander) Machines() []statemachine.Observable {
	return []statemachine.Observable{e.State}
}

// Stop severs the expander's Links and stops the motor.
func (e *Expander) Stop() error {
	e.disposeLinks()
	e.motor.Power.Update(0)
	return nil
}
