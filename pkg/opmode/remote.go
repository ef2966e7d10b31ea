package opmode

import (
	"github.com/standalonetc/teleop/pkg/gamepad"
	"github.com/standalonetc/teleop/pkg/link"
	"github.com/standalonetc/teleop/pkg/subsystem"
)

// Dumper arm powers requested by the master's Y and A buttons. Inside the
// sad area both get SadAreaBoost on top.
const (
	DumperSlowPower = 0.35
	DumperFastPower = 0.5
	SadAreaBoost    = 0.2
)

// PushRodCycles is the number of push rod cycles per press.
const PushRodCycles = 2

// constant returns a transform that ignores its input.
func constant[T, U any](v U) func(T) U {
	return func(T) U { return v }
}

// remote is the operator wiring of the RemoteControl op-mode.
type remote struct {
	master *gamepad.Gamepad
	helper *gamepad.Gamepad
	set    *subsystem.Set
	links  *link.Group
	opts   func(name string) []link.Option
}

func (r *remote) track(l *link.Link) {
	r.links.Track(l)
}

// wire creates every operator Link. Links fire in the order created here.
func (r *remote) wire() {
	r.wireChassis()
	r.wireExpander()
	r.wireCollector()
	r.wireDumper()
	r.wireLifter()
	r.wireDustpan()
}

func (r *remote) wireChassis() {
	r.track(link.Map(r.master.Updated(), func(d gamepad.Data) subsystem.Descartes {
		return subsystem.Descartes{X: d.LeftStickY, Y: d.LeftStickX, W: -d.RightStickX}
	}).Into(r.set.Chassis.Descartes, r.opts("master.chassis")...))
}

func (r *remote) wireExpander() {
	e := r.set.Expander
	h := r.helper

	// Up: expanding while held. Down: shrinking while held.
	r.track(link.Map(h.Up.Pressing(), constant[bool](subsystem.Expanding)).Into(e.State, r.opts("helper.up")...))
	r.track(link.Map(h.Up.Releasing(), constant[bool](subsystem.ExpanderStop)).Into(e.State, r.opts("helper.up")...))
	r.track(link.Map(h.Down.Pressing(), constant[bool](subsystem.Shrinking)).Into(e.State, r.opts("helper.down")...))
	r.track(link.Map(h.Down.Releasing(), constant[bool](subsystem.ExpanderStop)).Into(e.State, r.opts("helper.down")...))

	// Left locks, right unlocks.
	r.track(link.Map(h.Left.Pressing(), constant[bool](true)).Into(e.Lock, r.opts("helper.left")...))
	r.track(link.Map(h.Right.Pressing(), constant[bool](false)).Into(e.Lock, r.opts("helper.right")...))
}

func (r *remote) wireCollector() {
	c := r.set.Collector
	h := r.helper

	r.track(link.Map(h.LeftStick.Changed(), func(v gamepad.Vector) subsystem.ArmState {
		return subsystem.ArmFromStick(v.Y)
	}).Into(c.Arm, r.opts("helper.left_stick")...))

	r.track(link.Map(h.RightTrigger.Pressing(), constant[float64](subsystem.Collecting)).Into(c.Core, r.opts("helper.right_trigger")...))
	r.track(link.Map(h.RightTrigger.Releasing(), constant[float64](subsystem.CoreStop)).Into(c.Core, r.opts("helper.right_trigger")...))
	r.track(link.Map(h.LeftBumper.Pressing(), constant[bool](subsystem.Spitting)).Into(c.Core, r.opts("helper.left_bumper")...))
	r.track(link.Map(h.LeftBumper.Releasing(), constant[bool](subsystem.CoreStop)).Into(c.Core, r.opts("helper.left_bumper")...))
}

func (r *remote) wireDumper() {
	d := r.set.Dumper
	m := r.master

	boosted := func(power float64) func(bool) float64 {
		return func(bool) float64 {
			if d.InSadArea() {
				return power + SadAreaBoost
			}
			return power
		}
	}

	r.track(link.Map(m.RightBumper.Pressing(), constant[bool](PushRodCycles)).Into(d.PushRod(), r.opts("master.right_bumper")...))
	r.track(link.Map(m.Y.Pressing(), boosted(DumperSlowPower)).Into(d.Power, r.opts("master.y")...))
	r.track(link.Map(m.Y.Releasing(), constant[bool](0.0)).Into(d.Power, r.opts("master.y")...))
	r.track(link.Map(m.A.Pressing(), boosted(DumperFastPower)).Into(d.Power, r.opts("master.a")...))
	// B, not A, releases the fast power: A latches it until B is tapped.
	r.track(link.Map(m.B.Releasing(), constant[bool](0.0)).Into(d.Power, r.opts("master.b")...))

	r.track(link.Direct(r.helper.Y.Pressing()).Do(func(bool) { d.ToggleLock() }, r.opts("helper.y")...))
}

func (r *remote) wireLifter() {
	l := r.set.Lifter
	m := r.master

	// Left trigger lands; right trigger lifts, or interrupts a landing.
	r.track(link.Map(m.LeftTrigger.Pressing(), constant[float64](subsystem.Landing)).Into(l.State, r.opts("master.left_trigger")...))
	r.track(link.Map(m.RightTrigger.Pressing(), func(float64) subsystem.LifterState {
		return l.Lift()
	}).Into(l.State, r.opts("master.right_trigger")...))
	r.track(link.Map(m.RightTrigger.Releasing(), constant[float64](subsystem.LifterStop)).Into(l.State, r.opts("master.right_trigger")...))
}

func (r *remote) wireDustpan() {
	r.track(link.Map(r.master.LeftBumper.Pressing(), constant[bool](1)).Into(r.set.Dustpan.Dumps(), r.opts("master.left_bumper")...))
}
