package subsystem

import (
	"context"
	"math"

	"github.com/standalonetc/teleop/pkg/device"
	"github.com/standalonetc/teleop/pkg/link"
	"github.com/standalonetc/teleop/pkg/robot"
	"github.com/standalonetc/teleop/pkg/statemachine"
)

// Descartes is a chassis motion in the robot frame: X forward, Y
// sideways, W rotation. Each component is in [-1, 1].
type Descartes struct {
	X float64
	Y float64
	W float64
}

// WheelPowers are the four mecanum wheel powers.
type WheelPowers struct {
	LF float64
	LB float64
	RF float64
	RB float64
}

// Powers solves d for a mecanum drive. When any wheel would exceed full
// power, all four are scaled down together so the motion keeps its
// direction.
func Powers(d Descartes) WheelPowers {
	p := WheelPowers{
		LF: d.X + d.Y + d.W,
		LB: d.X - d.Y + d.W,
		RF: d.X - d.Y - d.W,
		RB: d.X + d.Y - d.W,
	}
	peak := math.Max(math.Max(math.Abs(p.LF), math.Abs(p.LB)), math.Max(math.Abs(p.RF), math.Abs(p.RB)))
	if peak > 1 {
		p.LF /= peak
		p.LB /= peak
		p.RF /= peak
		p.RB /= peak
	}
	return p
}

// MecanumChassis drives the four chassis wheels from a Descartes input.
type MecanumChassis struct {
	base

	// Descartes is the requested motion.
	Descartes *device.Device[Descartes]

	lf, lb, rf, rb *robot.Motor
}

// NewMecanumChassis resolves the four chassis motors of r.
func NewMecanumChassis(r *robot.Robot, opts ...Option) (*MecanumChassis, error) {
	wheels := make([]*robot.Motor, 0, 4)
	for _, name := range []string{"LF", "LB", "RF", "RB"} {
		m, err := r.Motor(ChassisGroup + "." + name)
		if err != nil {
			return nil, err
		}
		wheels = append(wheels, m)
	}

	return &MecanumChassis{
		base:      newBase(ChassisGroup, opts, wheels[0], wheels[1], wheels[2], wheels[3]),
		Descartes: device.New(ChassisGroup+".descartes", Descartes{}),
		lf:        wheels[0],
		lb:        wheels[1],
		rf:        wheels[2],
		rb:        wheels[3],
	}, nil
}

// Init claims the wheel motors and links one per wheel from the input.
func (c *MecanumChassis) Init(context.Context) error {
	if err := c.claim(c.lf.Power, c.lb.Power, c.rf.Power, c.rb.Power); err != nil {
		return err
	}

	c.wheel("LF", c.lf, func(p WheelPowers) float64 { return p.LF })
	c.wheel("LB", c.lb, func(p WheelPowers) float64 { return p.LB })
	c.wheel("RF", c.rf, func(p WheelPowers) float64 { return p.RF })
	c.wheel("RB", c.rb, func(p WheelPowers) float64 { return p.RB })
	return nil
}

func (c *MecanumChassis) wheel(name string, m *robot.Motor, pick func(WheelPowers) float64) {
	c.track(link.Map(c.Descartes, func(d Descartes) float64 {
		return pick(Powers(d))
	}).Into(m.Power, c.opts(name)...))
}

// Machines implements Subsystem. The chassis has no state machine.
func (c *MecanumChassis) Machines() []statemachine.Observable {
	return nil
}

// Stop severs the chassis Links and stops every wheel.
func (c *MecanumChassis) Stop() error {
	c.disposeLinks()
	for _, m := range []*robot.Motor{c.lf, c.lb, c.rf, c.rb} {
		m.Power.Update(0)
	}
	return nil
}
