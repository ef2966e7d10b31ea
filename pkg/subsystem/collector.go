package subsystem

import (
	"context"

	"github.com/standalonetc/teleop/pkg/link"
	"github.com/standalonetc/teleop/pkg/robot"
	"github.com/standalonetc/teleop/pkg/statemachine"
)

// ArmState is the motion of the collector arm.
type ArmState uint8

const (
	ArmStop ArmState = iota
	Lifting
	Dropping
)

// String returns the state name.
func (s ArmState) String() string {
	switch s {
	case ArmStop:
		return "STOP"
	case Lifting:
		return "LIFTING"
	case Dropping:
		return "DROPPING"
	default:
		return "UNKNOWN"
	}
}

// CoreState is the motion of the collector core.
type CoreState uint8

const (
	CoreStop CoreState = iota
	Collecting
	Spitting
)

// String returns the state name.
func (s CoreState) String() string {
	switch s {
	case CoreStop:
		return "STOP"
	case Collecting:
		return "COLLECTING"
	case Spitting:
		return "SPITTING"
	default:
		return "UNKNOWN"
	}
}

// ArmThreshold is the stick deflection that moves the arm.
const ArmThreshold = 0.5

// ArmFromStick maps a stick deflection to an arm state.
func ArmFromStick(y float64) ArmState {
	switch {
	case y > ArmThreshold:
		return Lifting
	case y < -ArmThreshold:
		return Dropping
	default:
		return ArmStop
	}
}

// Collector drives the collector arm (matrix motor) and the collector
// core (continuous servo), each from its own state machine.
type Collector struct {
	base
	cfg Config

	Arm  *statemachine.Machine[ArmState]
	Core *statemachine.Machine[CoreState]

	arm  *robot.Motor
	core *robot.ContinuousServo
}

// NewCollector resolves the collector parts of r.
func NewCollector(r *robot.Robot, cfg Config, opts ...Option) (*Collector, error) {
	arm, err := r.Motor(CollectorGroup + ".matrix")
	if err != nil {
		return nil, err
	}
	core, err := r.ContinuousServo(CollectorGroup + ".cr")
	if err != nil {
		return nil, err
	}

	return &Collector{
		base: newBase(CollectorGroup, opts, arm, core),
		cfg:  cfg,
		Arm:  statemachine.New(CollectorGroup+".arm", ArmStop),
		Core: statemachine.New(CollectorGroup+".core", CoreStop),
		arm:  arm,
		core: core,
	}, nil
}

// Init claims the arm motor and core servo and links them to the machines.
func (c *Collector) Init(context.Context) error {
	if err := c.claim(c.arm.Power, c.core.Power); err != nil {
		return err
	}

	c.track(link.Map(c.Arm.State(), func(s ArmState) float64 {
		return powerOf(s, Lifting, Dropping, c.cfg.ArmPower)
	}).Into(c.arm.Power, c.opts("arm")...))
	c.track(link.Map(c.Core.State(), func(s CoreState) float64 {
		return powerOf(s, Collecting, Spitting, c.cfg.CorePower)
	}).Into(c.core.Power, c.opts("core")...))
	return nil
}

// Machines implements Subsystem.
func (c *Collector) Machines() []statemachine.Observable {
	return []statemachine.Observable{c.Arm, c.Core}
}

// Stop severs the collector's Links and stops both actuators.
func (c *Collector) Stop() error {
	c.disposeLinks()
	c.arm.Power.Update(0)
	c.core.Power.Update(0)
	return nil
}
