package subsystem

import (
	"context"
	"time"

	"github.com/standalonetc/teleop/pkg/link"
	"github.com/standalonetc/teleop/pkg/robot"
	"github.com/standalonetc/teleop/pkg/statemachine"
)

// Dustpan tips the dustpan with its servo, one stroke per dump.
type Dustpan struct {
	base
	dump *stroke
}

// NewDustpan resolves the dustpan servo of r.
func NewDustpan(r *robot.Robot, cfg Config, opts ...Option) (*Dustpan, error) {
	servo, err := r.Servo(DustpanGroup + ".servo")
	if err != nil {
		return nil, err
	}
	return &Dustpan{
		base: newBase(DustpanGroup, opts, servo),
		// Dumps requested mid-stroke run after the current one, so
		// every press empties the pan once.
		dump: newStroke(DustpanGroup+".dump", statemachine.Queue, servo, cfg.StrokeTicks),
	}, nil
}

// Init claims the servo.
func (p *Dustpan) Init(context.Context) error {
	return p.claim(p.dump.servo.Position)
}

// Dump queues n dumps.
func (p *Dustpan) Dump(n int) bool {
	return p.dump.trigger(n)
}

// Dumps returns a Sink that calls Dump.
func (p *Dustpan) Dumps() link.Sink[int] {
	return link.SinkFunc[int](func(n int) { p.Dump(n) })
}

// Dumping reports whether a dump is in progress.
func (p *Dustpan) Dumping() bool {
	return p.dump.counter.Active()
}

// Tick advances the dump.
func (p *Dustpan) Tick(time.Time) {
	p.dump.tick()
}

// Machines implements Subsystem.
func (p *Dustpan) Machines() []statemachine.Observable {
	return []statemachine.Observable{p.dump.counter}
}

// Stop cancels any dump in progress.
func (p *Dustpan) Stop() error {
	p.disposeLinks()
	p.dump.retract()
	return nil
}
