package subsystem

import (
	"math"

	"github.com/standalonetc/teleop/pkg/bundle"
	"github.com/standalonetc/teleop/pkg/robot"
	"github.com/standalonetc/teleop/pkg/scope"
)

// OmronEncoderCPR is the counts per revolution of the Omron E6B2 encoder
// on the dumper arm: 360 pulses, four counts each.
const OmronEncoderCPR = 360 * 4

// halfTurn is the range of the positional servos on Unicorn.
var halfTurn = bundle.Range{Min: 0, Max: math.Pi}

// Unicorn declares the devices of the Unicorn robot.
func Unicorn() *bundle.Bundle {
	b := bundle.New()
	b.Group(ChassisGroup, func(g *bundle.Group) {
		g.Motor("LF", bundle.Reversed)
		g.Motor("LB", bundle.Reversed)
		g.Motor("RF")
		g.Motor("RB")
	})
	b.Group(DumperGroup, func(g *bundle.Group) {
		g.Motor("am", bundle.Reversed)
		g.Encoder("am", OmronEncoderCPR)
		g.Servo("servo", halfTurn)
	})
	b.Group(DustpanGroup, func(g *bundle.Group) {
		g.Servo("servo", halfTurn)
	})
	b.Group(ExpanderGroup, func(g *bundle.Group) {
		g.Motor("matrix")
		g.Servo("servo", halfTurn)
	})
	b.Group(LifterGroup, func(g *bundle.Group) {
		g.Motor("am", bundle.Reversed)
		g.TouchSensor("touch")
	})
	b.Group(CollectorGroup, func(g *bundle.Group) {
		g.Motor("matrix", bundle.Reversed)
		g.ContinuousServo("cr")
	})
	return b
}

// Set is the complete set of Unicorn subsystems.
type Set struct {
	Chassis   *MecanumChassis
	Dumper    *Dumper
	Dustpan   *Dustpan
	Expander  *Expander
	Lifter    *Lifter
	Collector *Collector
}

// NewSet resolves every subsystem against r.
func NewSet(r *robot.Robot, cfg Config, opts ...Option) (*Set, error) {
	var (
		s   Set
		err error
	)
	if s.Chassis, err = NewMecanumChassis(r, opts...); err != nil {
		return nil, err
	}
	if s.Dumper, err = NewDumper(r, cfg, opts...); err != nil {
		return nil, err
	}
	if s.Dustpan, err = NewDustpan(r, cfg, opts...); err != nil {
		return nil, err
	}
	if s.Expander, err = NewExpander(r, cfg, opts...); err != nil {
		return nil, err
	}
	if s.Lifter, err = NewLifter(r, cfg, opts...); err != nil {
		return nil, err
	}
	if s.Collector, err = NewCollector(r, cfg, opts...); err != nil {
		return nil, err
	}
	return &s, nil
}

// All returns the subsystems in setup order.
func (s *Set) All() []Subsystem {
	return []Subsystem{s.Chassis, s.Dumper, s.Dustpan, s.Expander, s.Lifter, s.Collector}
}

// Setup registers every subsystem with sc. The robot parts must already
// be set up.
func (s *Set) Setup(sc *scope.DynamicScope) error {
	for _, sub := range s.All() {
		if err := sc.Setup(sub); err != nil {
			return err
		}
	}
	return nil
}
