// Package gamepad exposes an operator gamepad as a set of Devices.
//
// Every button, stick and trigger is its own Device, updated once per tick
// from a Data sample, so control logic can derive edges from exactly the
// channel it needs:
//
//	helper.Up.Pressing()          // rising edge of the d-pad up button
//	helper.LeftStick.Changed()    // every change of the stick vector
//	master.RightTrigger.Pressing() // trigger crossing its threshold
package gamepad

import (
	"fmt"
	"strings"

	"github.com/standalonetc/teleop/pkg/device"
)

// DefaultTriggerThreshold is the analog trigger value at which a trigger
// counts as pressed.
const DefaultTriggerThreshold = 0.5

// Data is one raw sample of a gamepad. Axis values are normalized to
// [-1, 1]; trigger values to [0, 1].
type Data struct {
	LeftBumper  bool `cbor:"1,keyasint"`
	RightBumper bool `cbor:"2,keyasint"`
	A           bool `cbor:"3,keyasint"`
	B           bool `cbor:"4,keyasint"`
	X           bool `cbor:"5,keyasint"`
	Y           bool `cbor:"6,keyasint"`
	Up          bool `cbor:"7,keyasint"`
	Down        bool `cbor:"8,keyasint"`
	Left        bool `cbor:"9,keyasint"`
	Right       bool `cbor:"10,keyasint"`

	LeftStickX      float64 `cbor:"11,keyasint"`
	LeftStickY      float64 `cbor:"12,keyasint"`
	LeftStickButton bool    `cbor:"13,keyasint"`

	RightStickX      float64 `cbor:"14,keyasint"`
	RightStickY      float64 `cbor:"15,keyasint"`
	RightStickButton bool    `cbor:"16,keyasint"`

	LeftTrigger  float64 `cbor:"17,keyasint"`
	RightTrigger float64 `cbor:"18,keyasint"`
}

// Vector is a stick position.
type Vector struct {
	X float64
	Y float64
}

// Button is a digital input.
type Button struct {
	*device.Device[bool]
}

// Pressing emits on every press.
func (b *Button) Pressing() device.Stream[bool] {
	return device.Rising(b)
}

// Releasing emits on every release.
func (b *Button) Releasing() device.Stream[bool] {
	return device.Falling(b)
}

// Stick is an analog stick with its push button.
type Stick struct {
	*device.Device[Vector]
	Button *Button
}

// Changed emits whenever the stick position changes.
func (s *Stick) Changed() device.Stream[Vector] {
	return device.Changed[Vector](s)
}

// Trigger is an analog trigger that also behaves like a button around a
// threshold.
type Trigger struct {
	*device.Device[float64]
	threshold float64
}

// Threshold returns the value at which the trigger counts as pressed.
func (t *Trigger) Threshold() float64 {
	return t.threshold
}

// Pressed reports whether the trigger is at or above its threshold.
func (t *Trigger) Pressed() bool {
	return t.Read() >= t.threshold
}

// Pressing emits when the value crosses the threshold upwards.
func (t *Trigger) Pressing() device.Stream[float64] {
	return device.CrossingUp(t, t.threshold)
}

// Releasing emits when the value drops back below the threshold.
func (t *Trigger) Releasing() device.Stream[float64] {
	return device.CrossingDown(t, t.threshold)
}

// Option configures a Gamepad.
type Option func(*config)

type config struct {
	threshold float64
}

// WithTriggerThreshold overrides DefaultTriggerThreshold.
func WithTriggerThreshold(v float64) Option {
	return func(c *config) { c.threshold = v }
}

// Gamepad is one operator gamepad. It is a scope Component named after the
// operator role ("master", "helper").
type Gamepad struct {
	name string
	data *device.Device[Data]

	A, B, X, Y            *Button
	Up, Down, Left, Right *Button
	LeftBumper            *Button
	RightBumper           *Button

	LeftStick  *Stick
	RightStick *Stick

	LeftTrigger  *Trigger
	RightTrigger *Trigger

	buttons map[string]*Button
}

// New creates a Gamepad whose channel Devices are named "<name>.<channel>".
func New(name string, opts ...Option) *Gamepad {
	cfg := config{threshold: DefaultTriggerThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &Gamepad{
		name:    name,
		data:    device.New(name, Data{}),
		buttons: make(map[string]*Button),
	}
	button := func(channel string) *Button {
		b := &Button{device.New(name+"."+channel, false)}
		g.buttons[channel] = b
		return b
	}
	trigger := func(channel string) *Trigger {
		return &Trigger{Device: device.New(name+"."+channel, 0.0), threshold: cfg.threshold}
	}
	stick := func(channel string) *Stick {
		return &Stick{
			Device: device.New(name+"."+channel, Vector{}),
			Button: button(channel + "_button"),
		}
	}

	g.A, g.B, g.X, g.Y = button("a"), button("b"), button("x"), button("y")
	g.Up, g.Down = button("up"), button("down")
	g.Left, g.Right = button("left"), button("right")
	g.LeftBumper, g.RightBumper = button("left_bumper"), button("right_bumper")
	g.LeftStick, g.RightStick = stick("left_stick"), stick("right_stick")
	g.LeftTrigger, g.RightTrigger = trigger("left_trigger"), trigger("right_trigger")
	return g
}

// Name implements scope.Component.
func (g *Gamepad) Name() string {
	return g.name
}

// Updated emits the whole sample once per Update, after every channel has
// been updated.
func (g *Gamepad) Updated() device.Stream[Data] {
	return g.data
}

// Read returns the last sample.
func (g *Gamepad) Read() Data {
	return g.data.Read()
}

// Button returns a button by channel name ("a", "up", "left_bumper",
// "left_stick_button", ...).
func (g *Gamepad) Button(channel string) (*Button, bool) {
	b, ok := g.buttons[strings.ToLower(channel)]
	return b, ok
}

// Trigger returns "left_trigger" or "right_trigger".
func (g *Gamepad) Trigger(channel string) (*Trigger, bool) {
	switch strings.ToLower(channel) {
	case "left_trigger":
		return g.LeftTrigger, true
	case "right_trigger":
		return g.RightTrigger, true
	}
	return nil, false
}

// Update pushes one sample. Every channel stores its new value before any
// of them notifies, so a subscriber of one channel reads the rest of the
// same sample.
func (g *Gamepad) Update(d Data) {
	g.Store(d)
	g.Notify()
}

// Store records a sample on every channel without notifying subscribers.
func (g *Gamepad) Store(d Data) {
	g.LeftBumper.Set(d.LeftBumper)
	g.RightBumper.Set(d.RightBumper)
	g.A.Set(d.A)
	g.B.Set(d.B)
	g.X.Set(d.X)
	g.Y.Set(d.Y)
	g.Up.Set(d.Up)
	g.Down.Set(d.Down)
	g.Left.Set(d.Left)
	g.Right.Set(d.Right)
	g.LeftStick.Button.Set(d.LeftStickButton)
	g.RightStick.Button.Set(d.RightStickButton)

	g.LeftStick.Set(Vector{X: d.LeftStickX, Y: d.LeftStickY})
	g.RightStick.Set(Vector{X: d.RightStickX, Y: d.RightStickY})
	g.LeftTrigger.Set(d.LeftTrigger)
	g.RightTrigger.Set(d.RightTrigger)

	g.data.Set(d)
}

// Notify publishes the stored sample: buttons first, then sticks and
// triggers, then the whole sample on Updated.
func (g *Gamepad) Notify() {
	g.LeftBumper.Notify()
	g.RightBumper.Notify()
	g.A.Notify()
	g.B.Notify()
	g.X.Notify()
	g.Y.Notify()
	g.Up.Notify()
	g.Down.Notify()
	g.Left.Notify()
	g.Right.Notify()
	g.LeftStick.Button.Notify()
	g.RightStick.Button.Notify()

	g.LeftStick.Notify()
	g.RightStick.Notify()
	g.LeftTrigger.Notify()
	g.RightTrigger.Notify()

	g.data.Notify()
}

// Stop implements scope.Stopper by disposing every channel.
func (g *Gamepad) Stop() error {
	for _, b := range g.buttons {
		b.Dispose()
	}
	g.LeftStick.Dispose()
	g.RightStick.Dispose()
	g.LeftTrigger.Dispose()
	g.RightTrigger.Dispose()
	g.data.Dispose()
	return nil
}

// String implements fmt.Stringer.
func (g *Gamepad) String() string {
	return fmt.Sprintf("gamepad %s", g.name)
}
