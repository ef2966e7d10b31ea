package hardware

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/standalonetc/teleop/pkg/bundle"
	"github.com/standalonetc/teleop/pkg/log"
	"github.com/standalonetc/teleop/pkg/robot"
)

// DefaultOwner is the producer name the Binder claims sensor Devices with.
const DefaultOwner = "hardware"

// BinderConfig configures a Binder.
type BinderConfig struct {
	// Logger receives resolution diagnostics. Nil uses slog.Default.
	Logger *slog.Logger

	// Events receives resolution events. May be nil.
	Events *log.Recorder

	// Owner is the producer name for sensor Devices. Empty uses
	// DefaultOwner.
	Owner string
}

// Binding pairs a resolved Part with its hardware device.
type Binding struct {
	Part   robot.Part
	Device Device
}

type motorBinding struct {
	part *robot.Motor
	hw   DcMotor
}

type servoBinding struct {
	part *robot.Servo
	hw   Servo
}

type crServoBinding struct {
	part *robot.ContinuousServo
	hw   CRServo
}

type encoderBinding struct {
	part *robot.Encoder
	hw   DcMotor
}

type colorBinding struct {
	part *robot.ColorSensor
	hw   ColorSensor
}

type touchBinding struct {
	part *robot.TouchSensor
	hw   TouchSensor
}

// Binder moves values between a robot's Parts and the hardware they
// resolved to. Parts that did not resolve are left out: their Devices keep
// their default values.
type Binder struct {
	logger *slog.Logger
	events *log.Recorder

	bound   []Binding
	missing []bundle.Entry

	motors   []motorBinding
	servos   []servoBinding
	crServos []crServoBinding
	encoders []encoderBinding
	colors   []colorBinding
	touches  []touchBinding
	voltage  []VoltageSensor
}

// Bind resolves every Part of r against hw. Lookup failures are logged and
// skipped; the only errors returned are producer conflicts on sensor
// Devices, which are configuration errors.
func Bind(hw Map, r *robot.Robot, cfg BinderConfig) (*Binder, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Owner == "" {
		cfg.Owner = DefaultOwner
	}

	b := &Binder{
		logger:  cfg.Logger,
		events:  cfg.Events,
		voltage: hw.VoltageSensors(),
	}

	for _, p := range r.Parts() {
		entry := p.Entry()
		dev, err := hw.Get(entry.Path())
		if err == nil {
			err = b.attach(p, dev, cfg.Owner)
			var conflict claimError
			if errors.As(err, &conflict) {
				return nil, conflict.error
			}
		}
		if err != nil {
			b.missing = append(b.missing, entry)
			b.logger.Warn("Unable to find device", "id", entry.ID, "path", entry.Path(), "kind", entry.Kind(), "error", err)
			b.events.Resolution(entry.ID, entry.Path(), entry.Kind().String(), err)
			continue
		}
		b.bound = append(b.bound, Binding{Part: p, Device: dev})
		b.logger.Info("Found device", "id", entry.ID, "path", entry.Path(), "kind", entry.Kind())
		b.events.Resolution(entry.ID, entry.Path(), entry.Kind().String(), nil)
	}
	return b, nil
}

// claimError marks a producer conflict, which aborts Bind.
type claimError struct{ error }

func (e claimError) Unwrap() error { return e.error }

func claim(d interface{ Claim(string) error }, owner string) error {
	if err := d.Claim(owner); err != nil {
		return claimError{err}
	}
	return nil
}

// attach records a binding if dev implements the interface p's kind needs.
func (b *Binder) attach(p robot.Part, dev Device, owner string) error {
	switch p := p.(type) {
	case *robot.Motor:
		if hw, ok := dev.(DcMotor); ok {
			b.motors = append(b.motors, motorBinding{p, hw})
			return nil
		}
	case *robot.Servo:
		if hw, ok := dev.(Servo); ok {
			b.servos = append(b.servos, servoBinding{p, hw})
			return nil
		}
	case *robot.ContinuousServo:
		if hw, ok := dev.(CRServo); ok {
			b.crServos = append(b.crServos, crServoBinding{p, hw})
			return nil
		}
	case *robot.Encoder:
		if hw, ok := dev.(DcMotor); ok {
			if err := claim(p.Data, owner); err != nil {
				return err
			}
			b.encoders = append(b.encoders, encoderBinding{p, hw})
			return nil
		}
	case *robot.ColorSensor:
		if hw, ok := dev.(ColorSensor); ok {
			if err := claim(p.Data, owner); err != nil {
				return err
			}
			b.colors = append(b.colors, colorBinding{p, hw})
			return nil
		}
	case *robot.TouchSensor:
		if hw, ok := dev.(TouchSensor); ok {
			if err := claim(p.Pressed, owner); err != nil {
				return err
			}
			b.touches = append(b.touches, touchBinding{p, hw})
			return nil
		}
	}
	return fmt.Errorf("device %q is a %T, not a %s", dev.DeviceName(), dev, p.Entry().Kind())
}

// Bound returns the resolved Parts in identifier order.
func (b *Binder) Bound() []Binding {
	result := make([]Binding, len(b.bound))
	copy(result, b.bound)
	return result
}

// Missing returns the entries that did not resolve.
func (b *Binder) Missing() []bundle.Entry {
	result := make([]bundle.Entry, len(b.missing))
	copy(result, b.missing)
	return result
}

// Sample pushes one reading of every bound sensor into the graph.
func (b *Binder) Sample() {
	for _, e := range b.encoders {
		e.part.Data.Update(robot.EncoderData{
			Position: float64(e.hw.CurrentPosition()),
			Velocity: e.hw.Velocity(),
		})
	}
	for _, c := range b.colors {
		c.part.Data.Update(robot.ColorData{
			Red:   float64(c.hw.Red()),
			Green: float64(c.hw.Green()),
			Blue:  float64(c.hw.Blue()),
			Alpha: float64(c.hw.Alpha()),
		})
	}
	for _, t := range b.touches {
		t.part.Pressed.Update(t.hw.IsPressed())
	}
}

// Apply writes the current value of every bound effector to hardware.
// Motor power is clamped to [-1, 1] and multiplied by the declared
// direction; servo positions are normalized from the declared range.
func (b *Binder) Apply() {
	for _, m := range b.motors {
		m.hw.SetPower(clampPower(m.part.Power.Read()) * m.part.Spec.Direction.Sign())
	}
	for _, s := range b.servos {
		s.hw.SetPwmEnable(s.part.PwmEnable.Read())
		s.hw.SetPosition(s.part.Spec.Range.Normalize(s.part.Position.Read()))
	}
	for _, c := range b.crServos {
		c.hw.SetPwmEnable(c.part.PwmEnable.Read())
		c.hw.SetPower(clampPower(c.part.Power.Read()))
	}
	for _, c := range b.colors {
		c.hw.EnableLed(c.part.Led.Read())
	}
}

// Release stops every bound motor and continuous servo.
func (b *Binder) Release() {
	for _, m := range b.motors {
		m.hw.SetPower(0)
	}
	for _, c := range b.crServos {
		c.hw.SetPower(0)
	}
}

// Voltage returns the first positive supply voltage, or 0.
func (b *Binder) Voltage() float64 {
	for _, v := range b.voltage {
		if volts := v.Voltage(); volts > 0 {
			return volts
		}
	}
	return 0
}

func clampPower(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(-1, math.Min(1, p))
}
