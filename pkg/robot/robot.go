// Package robot realizes a bundle mapping as a set of Parts, one per
// entry, each holding the Devices control logic reads and writes.
//
// Effector Parts (Motor, Servo, ContinuousServo) carry command Devices
// produced by control logic and consumed by the hardware binding. Sensor
// Parts (Encoder, ColorSensor, TouchSensor) carry reading Devices produced
// by the hardware binding. Every Part is a scope Component named by its
// entry key ("dumper.am/encoder"), so subsystems can declare them as
// dependencies.
package robot

import (
	"errors"
	"fmt"

	"github.com/standalonetc/teleop/pkg/bundle"
	"github.com/standalonetc/teleop/pkg/scope"
)

// ErrUnknownPart is returned when no part of the requested kind exists at
// a path.
var ErrUnknownPart = errors.New("unknown part")

// Robot holds the Parts of one bundle mapping.
type Robot struct {
	mapping *bundle.Mapping
	parts   []Part
	byKey   map[string]Part
}

// New realizes every entry of m.
func New(m *bundle.Mapping) *Robot {
	r := &Robot{
		mapping: m,
		parts:   make([]Part, 0, m.Len()),
		byKey:   make(map[string]Part, m.Len()),
	}
	m.Walk(&builder{r: r})
	return r
}

// Mapping returns the mapping the robot was built from.
func (r *Robot) Mapping() *bundle.Mapping {
	return r.mapping
}

// Parts returns all parts in identifier order.
func (r *Robot) Parts() []Part {
	result := make([]Part, len(r.parts))
	copy(result, r.parts)
	return result
}

// ByID returns the part with the given identifier.
func (r *Robot) ByID(id uint8) (Part, bool) {
	if int(id) >= len(r.parts) {
		return nil, false
	}
	return r.parts[id], true
}

// Part returns a part by entry key.
func (r *Robot) Part(key string) (Part, bool) {
	p, ok := r.byKey[key]
	return p, ok
}

// Setup registers every part with s.
func (r *Robot) Setup(s *scope.DynamicScope) error {
	for _, p := range r.parts {
		if err := s.Setup(p); err != nil {
			return fmt.Errorf("setup %s: %w", p.Name(), err)
		}
	}
	return nil
}

// Motor returns the motor declared at path ("chassis.LF").
func (r *Robot) Motor(path string) (*Motor, error) {
	return lookup[*Motor](r, path, bundle.KindMotor)
}

// Servo returns the servo declared at path.
func (r *Robot) Servo(path string) (*Servo, error) {
	return lookup[*Servo](r, path, bundle.KindServo)
}

// ContinuousServo returns the continuous servo declared at path.
func (r *Robot) ContinuousServo(path string) (*ContinuousServo, error) {
	return lookup[*ContinuousServo](r, path, bundle.KindContinuousServo)
}

// Encoder returns the encoder declared at path.
func (r *Robot) Encoder(path string) (*Encoder, error) {
	return lookup[*Encoder](r, path, bundle.KindEncoder)
}

// ColorSensor returns the color sensor declared at path.
func (r *Robot) ColorSensor(path string) (*ColorSensor, error) {
	return lookup[*ColorSensor](r, path, bundle.KindColorSensor)
}

// TouchSensor returns the touch sensor declared at path.
func (r *Robot) TouchSensor(path string) (*TouchSensor, error) {
	return lookup[*TouchSensor](r, path, bundle.KindTouchSensor)
}

func lookup[P Part](r *Robot, path string, kind bundle.Kind) (P, error) {
	var zero P
	p, ok := r.byKey[path+"/"+kind.String()]
	if !ok {
		return zero, fmt.Errorf("%w: %s %q", ErrUnknownPart, kind, path)
	}
	typed, ok := p.(P)
	if !ok {
		return zero, fmt.Errorf("%w: %s %q has type %T", ErrUnknownPart, kind, path, p)
	}
	return typed, nil
}

// builder realizes entries by kind.
type builder struct {
	r *Robot
}

func (b *builder) add(p Part) {
	b.r.parts = append(b.r.parts, p)
	b.r.byKey[p.Name()] = p
}

func (b *builder) VisitMotor(e bundle.Entry, s bundle.MotorSpec) {
	b.add(newMotor(e, s))
}

func (b *builder) VisitServo(e bundle.Entry, s bundle.ServoSpec) {
	b.add(newServo(e, s))
}

func (b *builder) VisitContinuousServo(e bundle.Entry, _ bundle.ContinuousServoSpec) {
	b.add(newContinuousServo(e))
}

func (b *builder) VisitEncoder(e bundle.Entry, s bundle.EncoderSpec) {
	b.add(newEncoder(e, s))
}

func (b *builder) VisitColorSensor(e bundle.Entry, _ bundle.ColorSensorSpec) {
	b.add(newColorSensor(e))
}

func (b *builder) VisitTouchSensor(e bundle.Entry, _ bundle.TouchSensorSpec) {
	b.add(newTouchSensor(e))
}

var _ bundle.Visitor = (*builder)(nil)
