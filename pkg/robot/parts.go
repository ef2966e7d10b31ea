package robot

import (
	"github.com/standalonetc/teleop/pkg/bundle"
	"github.com/standalonetc/teleop/pkg/device"
)

// EncoderData is one encoder reading. Velocity is in radians per second.
type EncoderData struct {
	Position float64
	Velocity float64
}

// ColorData is one color sensor reading.
type ColorData struct {
	Red   float64
	Green float64
	Blue  float64
	Alpha float64
}

// Part is the realized form of one bundle entry. Every Part is a scope
// Component named by its entry key.
type Part interface {
	Name() string
	Entry() bundle.Entry
	Stop() error
}

type part struct {
	entry bundle.Entry
}

func (p part) Name() string        { return p.entry.Key() }
func (p part) Entry() bundle.Entry { return p.entry }
func (p part) ID() uint8           { return p.entry.ID }

func deviceName(e bundle.Entry, channel string) string {
	return e.Path() + "." + channel
}

// disposeAll disposes each device; the result is always nil so it can end
// a Stop method.
func disposeAll(ds ...interface{ Dispose() }) error {
	for _, d := range ds {
		d.Dispose()
	}
	return nil
}

// Motor is a DC motor. Power is in [-1, 1] before the declared direction
// is applied.
type Motor struct {
	part
	Spec  bundle.MotorSpec
	Power *device.Device[float64]
}

func newMotor(e bundle.Entry, s bundle.MotorSpec) *Motor {
	return &Motor{
		part:  part{entry: e},
		Spec:  s,
		Power: device.New(deviceName(e, "power"), 0.0, device.WithID(e.ID)),
	}
}

// Stop disposes the motor's devices.
func (m *Motor) Stop() error { return disposeAll(m.Power) }

// Servo is a positional servo. Position is in the declared range.
type Servo struct {
	part
	Spec      bundle.ServoSpec
	Position  *device.Device[float64]
	PwmEnable *device.Device[bool]
}

func newServo(e bundle.Entry, s bundle.ServoSpec) *Servo {
	return &Servo{
		part:      part{entry: e},
		Spec:      s,
		Position:  device.New(deviceName(e, "position"), s.Range.Min, device.WithID(e.ID)),
		PwmEnable: device.New(deviceName(e, "pwm"), true, device.WithID(e.ID)),
	}
}

// Stop disposes the servo's devices.
func (s *Servo) Stop() error { return disposeAll(s.Position, s.PwmEnable) }

// ContinuousServo is a continuous-rotation servo driven by power.
type ContinuousServo struct {
	part
	Power     *device.Device[float64]
	PwmEnable *device.Device[bool]
}

func newContinuousServo(e bundle.Entry) *ContinuousServo {
	return &ContinuousServo{
		part:      part{entry: e},
		Power:     device.New(deviceName(e, "power"), 0.0, device.WithID(e.ID)),
		PwmEnable: device.New(deviceName(e, "pwm"), true, device.WithID(e.ID)),
	}
}

// Stop disposes the servo's devices.
func (c *ContinuousServo) Stop() error { return disposeAll(c.Power, c.PwmEnable) }

// Encoder is a quadrature encoder.
type Encoder struct {
	part
	Spec bundle.EncoderSpec
	Data *device.Device[EncoderData]
}

func newEncoder(e bundle.Entry, s bundle.EncoderSpec) *Encoder {
	return &Encoder{
		part: part{entry: e},
		Spec: s,
		Data: device.New(deviceName(e, "data"), EncoderData{}, device.WithID(e.ID)),
	}
}

// Revolutions converts the current position to shaft revolutions.
func (e *Encoder) Revolutions() float64 {
	if e.Spec.CountsPerRevolution == 0 {
		return 0
	}
	return e.Data.Read().Position / e.Spec.CountsPerRevolution
}

// Stop disposes the encoder's devices.
func (e *Encoder) Stop() error { return disposeAll(e.Data) }

// ColorSensor is a color sensor with a switchable LED.
type ColorSensor struct {
	part
	Data *device.Device[ColorData]
	Led  *device.Device[bool]
}

func newColorSensor(e bundle.Entry) *ColorSensor {
	return &ColorSensor{
		part: part{entry: e},
		Data: device.New(deviceName(e, "data"), ColorData{}, device.WithID(e.ID)),
		Led:  device.New(deviceName(e, "led"), false, device.WithID(e.ID)),
	}
}

// Stop disposes the sensor's devices.
func (c *ColorSensor) Stop() error { return disposeAll(c.Data, c.Led) }

// TouchSensor is a touch sensor.
type TouchSensor struct {
	part
	Pressed *device.Device[bool]
}

func newTouchSensor(e bundle.Entry) *TouchSensor {
	return &TouchSensor{
		part:    part{entry: e},
		Pressed: device.New(deviceName(e, "pressed"), false, device.WithID(e.ID)),
	}
}

// Stop disposes the sensor's devices.
func (t *TouchSensor) Stop() error { return disposeAll(t.Pressed) }
