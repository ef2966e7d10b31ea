package subsystem

import (
	"context"

	"github.com/standalonetc/teleop/pkg/device"
	"github.com/standalonetc/teleop/pkg/link"
	"github.com/standalonetc/teleop/pkg/robot"
	"github.com/standalonetc/teleop/pkg/statemachine"
)

// LifterState is the motion of the lifter.
type LifterState uint8

const (
	LifterStop LifterState = iota
	LifterLifting
	Landing
)

// String returns the state name.
func (s LifterState) String() string {
	switch s {
	case LifterStop:
		return "STOP"
	case LifterLifting:
		return "LIFTING"
	case Landing:
		return "LANDING"
	default:
		return "UNKNOWN"
	}
}

// Lifter hangs and lands the robot. The touch sensor marks the landed
// position: landing stops when it closes and is refused while it is held.
type Lifter struct {
	base
	cfg Config

	State *statemachine.Machine[LifterState]

	motor *robot.Motor
	touch *robot.TouchSensor
}

// NewLifter resolves the lifter parts of r.
func NewLifter(r *robot.Robot, cfg Config, opts ...Option) (*Lifter, error) {
	motor, err := r.Motor(LifterGroup + ".am")
	if err != nil {
		return nil, err
	}
	touch, err := r.TouchSensor(LifterGroup + ".touch")
	if err != nil {
		return nil, err
	}

	l := &Lifter{
		base:  newBase(LifterGroup, opts, motor, touch),
		cfg:   cfg,
		motor: motor,
		touch: touch,
	}
	l.State = statemachine.New(LifterGroup+".state", LifterStop, l.landedGuard)
	return l, nil
}

func (l *Lifter) landedGuard(_, to LifterState) bool {
	return to == Landing && l.touch.Pressed.Read()
}

// Init claims the motor and links it to the state. A closing touch sensor
// ends a landing.
func (l *Lifter) Init(context.Context) error {
	if err := l.claim(l.motor.Power); err != nil {
		return err
	}

	l.track(link.Map(l.State.State(), func(s LifterState) float64 {
		return powerOf(s, LifterLifting, Landing, l.cfg.LifterPower)
	}).Into(l.motor.Power, l.opts("power")...))

	landed := device.Filter(device.Rising(l.touch.Pressed, device.Seed(l.touch.Pressed.Read())), func(bool) bool {
		return l.State.Read() == Landing
	})
	l.track(link.Map(landed, func(bool) LifterState { return LifterStop }).Into(l.State, l.opts("limit")...))
	return nil
}

// Lift is the transition for the lift button: it interrupts a landing,
// otherwise it lifts.
func (l *Lifter) Lift() LifterState {
	if l.State.Read() == Landing {
		return LifterStop
	}
	return LifterLifting
}

// Machines implements Subsystem.
func (l *Lifter) Machines() []statemachine.Observable {
	return []statemachine.Observable{l.State}
}

// Stop severs the lifter's Links and stops the motor.
func (l *Lifter) Stop() error {
	l.disposeLinks()
	l.motor.Power.Update(0)
	return nil
}
