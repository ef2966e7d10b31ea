package subsystem

import (
	"github.com/standalonetc/teleop/pkg/robot"
	"github.com/standalonetc/teleop/pkg/statemachine"
)

// stroke moves a servo out and back once per counted cycle. Each half of
// a cycle lasts ticks Ticks.
type stroke struct {
	counter *statemachine.Counter
	servo   *robot.Servo
	ticks   int
	elapsed int
}

func newStroke(name string, policy statemachine.Policy, servo *robot.Servo, ticks int) *stroke {
	if ticks <= 0 {
		ticks = 1
	}
	return &stroke{
		counter: statemachine.NewCounter(name, policy),
		servo:   servo,
		ticks:   ticks,
	}
}

// trigger starts n cycles, subject to the counter's retrigger policy.
func (s *stroke) trigger(n int) bool {
	return s.counter.Trigger(2 * n * s.ticks)
}

// tick positions the servo for the current half-cycle, then counts down.
// Cycles start with the outward half.
func (s *stroke) tick() {
	if !s.counter.Active() {
		s.elapsed = 0
		s.moveTo(s.servo.Spec.Range.Min)
		return
	}

	if (s.elapsed/s.ticks)%2 == 0 {
		s.moveTo(s.servo.Spec.Range.Max)
	} else {
		s.moveTo(s.servo.Spec.Range.Min)
	}
	s.elapsed++
	s.counter.Tick()
	if !s.counter.Active() {
		s.elapsed = 0
	}
}

func (s *stroke) moveTo(position float64) {
	if s.servo.Position.Read() != position {
		s.servo.Position.Update(position)
	}
}

// retract cancels the remaining cycles and pulls the servo back.
func (s *stroke) retract() {
	s.counter.Cancel()
	s.elapsed = 0
	s.moveTo(s.servo.Spec.Range.Min)
}
