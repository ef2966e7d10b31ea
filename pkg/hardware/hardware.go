// Package hardware is the boundary between the device graph and the
// physical robot.
//
// A Map looks up hardware devices by the path of their bundle entry. The
// Binder resolves every Part of a robot against a Map once, then moves
// values across the boundary once per tick: Sample pushes sensor readings
// into the graph, Apply writes effector commands out.
package hardware

import (
	"errors"
)

// ErrNotFound is returned by Map.Get for names with no device.
var ErrNotFound = errors.New("hardware device not found")

// Device is any hardware device.
type Device interface {
	DeviceName() string
}

// DcMotor is a motor with an attached encoder. Velocity is in radians per
// second.
type DcMotor interface {
	Device
	SetPower(power float64)
	CurrentPosition() int
	Velocity() float64
}

// Servo is a positional servo. Positions are normalized to [0, 1].
type Servo interface {
	Device
	SetPosition(position float64)
	SetPwmEnable(enable bool)
}

// CRServo is a continuous-rotation servo.
type CRServo interface {
	Device
	SetPower(power float64)
	SetPwmEnable(enable bool)
}

// ColorSensor reports raw channel counts.
type ColorSensor interface {
	Device
	Red() int
	Green() int
	Blue() int
	Alpha() int
	EnableLed(enable bool)
}

// TouchSensor is a digital contact switch.
type TouchSensor interface {
	Device
	IsPressed() bool
}

// VoltageSensor reports a supply voltage.
type VoltageSensor interface {
	Device
	Voltage() float64
}

// Map resolves hardware devices by name.
type Map interface {
	// Get returns the device registered under name, or an error wrapping
	// ErrNotFound.
	Get(name string) (Device, error)

	// VoltageSensors returns all voltage sensors.
	VoltageSensors() []VoltageSensor
}
