package statemachine

import (
	"fmt"

	"github.com/standalonetc/teleop/pkg/device"
	"github.com/standalonetc/teleop/pkg/link"
)

// Policy decides what a Trigger does while a Counter is already active.
type Policy uint8

const (
	// Ignore drops triggers received while active.
	Ignore Policy = iota

	// Queue appends the new count after the remaining one.
	Queue

	// Extend raises the remaining count to the new one if it is larger.
	Extend
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case Ignore:
		return "ignore"
	case Queue:
		return "queue"
	case Extend:
		return "extend"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// Counter is a counted action: once triggered it stays active for the
// requested number of ticks, counting down one per Tick, and goes idle at
// zero. Its activity is published on a bool Device.
type Counter struct {
	policy    Policy
	remaining int
	active    *device.Device[bool]
}

// NewCounter creates an idle Counter.
func NewCounter(name string, policy Policy) *Counter {
	return &Counter{
		policy: policy,
		active: device.New(name, false),
	}
}

// Name returns the name of the activity Device.
func (c *Counter) Name() string {
	return c.active.Name()
}

// Policy returns the retrigger policy.
func (c *Counter) Policy() Policy {
	return c.policy
}

// Trigger starts the action for n ticks. While already active the policy
// decides; Trigger reports whether the request changed the count.
// Non-positive counts are ignored.
func (c *Counter) Trigger(n int) bool {
	if n <= 0 {
		return false
	}
	if c.remaining == 0 {
		c.remaining = n
		c.active.Update(true)
		return true
	}

	switch c.policy {
	case Queue:
		c.remaining += n
		return true
	case Extend:
		if n > c.remaining {
			c.remaining = n
			return true
		}
	}
	return false
}

// Update implements link.Sink by calling Trigger.
func (c *Counter) Update(n int) {
	c.Trigger(n)
}

// Tick counts down one step while active.
func (c *Counter) Tick() {
	if c.remaining == 0 {
		return
	}
	c.remaining--
	if c.remaining == 0 {
		c.active.Update(false)
	}
}

// Cancel returns the Counter to idle immediately.
func (c *Counter) Cancel() {
	if c.remaining == 0 {
		return
	}
	c.remaining = 0
	c.active.Update(false)
}

// Active reports whether the action is running.
func (c *Counter) Active() bool {
	return c.remaining > 0
}

// Remaining returns the number of ticks left.
func (c *Counter) Remaining() int {
	return c.remaining
}

// Activity returns the Device that is true while the action runs.
func (c *Counter) Activity() *device.Device[bool] {
	return c.active
}

// Phase returns which stride-sized slice of the remaining count is
// running, counting down to 0 for the last one. It returns -1 when idle.
func (c *Counter) Phase(stride int) int {
	if c.remaining == 0 || stride <= 0 {
		return -1
	}
	return (c.remaining - 1) / stride
}

// Current implements Observable.
func (c *Counter) Current() string {
	return activityName(fmt.Sprint(c.Active()))
}

// Observe implements Observable with the states "idle" and "active".
func (c *Counter) Observe(fn func(from, to string), opts ...link.Option) *link.Link {
	return observe[bool](c.active, func(from, to string) {
		fn(activityName(from), activityName(to))
	}, opts)
}

func activityName(s string) string {
	if s == "true" {
		return "active"
	}
	return "idle"
}

// Compile-time interface satisfaction checks.
var (
	_ Observable = (*Counter)(nil)
	_ Observable = (*Machine[int])(nil)
)
