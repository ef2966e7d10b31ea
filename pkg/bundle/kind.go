package bundle

import (
	"fmt"
	"strings"
)

// Kind is the closed set of device kinds a bundle can declare.
type Kind uint8

const (
	KindMotor Kind = iota + 1
	KindServo
	KindContinuousServo
	KindEncoder
	KindColorSensor
	KindTouchSensor
)

// String returns the kind name used in paths and YAML.
func (k Kind) String() string {
	switch k {
	case KindMotor:
		return "motor"
	case KindServo:
		return "servo"
	case KindContinuousServo:
		return "continuous-servo"
	case KindEncoder:
		return "encoder"
	case KindColorSensor:
		return "color-sensor"
	case KindTouchSensor:
		return "touch-sensor"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= KindMotor && k <= KindTouchSensor
}

// IsEffector reports whether the kind is driven by control logic.
func (k Kind) IsEffector() bool {
	switch k {
	case KindMotor, KindServo, KindContinuousServo:
		return true
	default:
		return false
	}
}

// ParseKind parses a kind name as produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "motor":
		return KindMotor, nil
	case "servo":
		return KindServo, nil
	case "continuous-servo", "continuousservo", "crservo":
		return KindContinuousServo, nil
	case "encoder":
		return KindEncoder, nil
	case "color-sensor", "colorsensor", "color":
		return KindColorSensor, nil
	case "touch-sensor", "touchsensor", "touch":
		return KindTouchSensor, nil
	default:
		return 0, fmt.Errorf("unknown device kind %q", s)
	}
}

// Direction is the rotation direction of a motor.
type Direction int8

const (
	Forward  Direction = 1
	Reversed Direction = -1
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Reversed {
		return "reversed"
	}
	return "forward"
}

// Sign returns +1 or -1; power commands are multiplied by it.
func (d Direction) Sign() float64 {
	if d == Reversed {
		return -1
	}
	return 1
}

// Range is a closed positional range.
type Range struct {
	Min float64
	Max float64
}

// DefaultServoRange is the normalized servo range used when none is given.
var DefaultServoRange = Range{Min: 0, Max: 1}

// Contains reports whether v lies in the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 {
	switch {
	case v < r.Min:
		return r.Min
	case v > r.Max:
		return r.Max
	default:
		return v
	}
}

// Normalize maps v from the range onto [0, 1], clamping first.
func (r Range) Normalize(v float64) float64 {
	if r.Max == r.Min {
		return 0
	}
	return (r.Clamp(v) - r.Min) / (r.Max - r.Min)
}

// Spec is the kind-specific metadata of an entry. The set of
// implementations is closed; dispatch on it with a Visitor.
type Spec interface {
	Kind() Kind
	accept(e Entry, v Visitor)
}

// MotorSpec describes a DC motor.
type MotorSpec struct {
	Direction Direction
}

// ServoSpec describes a positional servo.
type ServoSpec struct {
	Range Range
}

// ContinuousServoSpec describes a continuous-rotation servo.
type ContinuousServoSpec struct{}

// EncoderSpec describes a quadrature encoder.
type EncoderSpec struct {
	CountsPerRevolution float64
}

// ColorSensorSpec describes a color sensor.
type ColorSensorSpec struct{}

// TouchSensorSpec describes a touch sensor.
type TouchSensorSpec struct{}

func (MotorSpec) Kind() Kind           { return KindMotor }
func (ServoSpec) Kind() Kind           { return KindServo }
func (ContinuousServoSpec) Kind() Kind { return KindContinuousServo }
func (EncoderSpec) Kind() Kind         { return KindEncoder }
func (ColorSensorSpec) Kind() Kind     { return KindColorSensor }
func (TouchSensorSpec) Kind() Kind     { return KindTouchSensor }

func (s MotorSpec) accept(e Entry, v Visitor)           { v.VisitMotor(e, s) }
func (s ServoSpec) accept(e Entry, v Visitor)           { v.VisitServo(e, s) }
func (s ContinuousServoSpec) accept(e Entry, v Visitor) { v.VisitContinuousServo(e, s) }
func (s EncoderSpec) accept(e Entry, v Visitor)         { v.VisitEncoder(e, s) }
func (s ColorSensorSpec) accept(e Entry, v Visitor)     { v.VisitColorSensor(e, s) }
func (s TouchSensorSpec) accept(e Entry, v Visitor)     { v.VisitTouchSensor(e, s) }

// Visitor dispatches over the closed set of kinds. Adding a kind adds a
// method here, so every Visitor must handle it.
type Visitor interface {
	VisitMotor(e Entry, s MotorSpec)
	VisitServo(e Entry, s ServoSpec)
	VisitContinuousServo(e Entry, s ContinuousServoSpec)
	VisitEncoder(e Entry, s EncoderSpec)
	VisitColorSensor(e Entry, s ColorSensorSpec)
	VisitTouchSensor(e Entry, s TouchSensorSpec)
}
