// Package sim is an in-memory hardware map for running op-modes without a
// robot.
//
// Devices are plain structs guarded by a mutex, so a console goroutine can
// inspect and poke them while the control loop runs. Motors integrate
// their power into encoder counts on Step.
package sim

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/standalonetc/teleop/pkg/bundle"
	"github.com/standalonetc/teleop/pkg/hardware"
)

// DefaultCountsPerSecond is the encoder rate of a simulated motor at full
// power.
const DefaultCountsPerSecond = 2800

// Map is a simulated hardware map.
type Map struct {
	mu      sync.RWMutex
	devices map[string]hardware.Device
	battery *Battery
}

// New creates an empty Map with a 12V battery.
func New() *Map {
	return &Map{
		devices: make(map[string]hardware.Device),
		battery: &Battery{name: "battery", volts: 12},
	}
}

// FromMapping creates a Map with one device per distinct path of m.
// Motors and encoders declared at the same path share one Motor. Paths
// listed in omit are left out, to simulate unplugged devices.
func FromMapping(m *bundle.Mapping, omit ...string) *Map {
	sm := New()
	skip := make(map[string]bool, len(omit))
	for _, p := range omit {
		skip[p] = true
	}
	for _, e := range m.Entries() {
		path := e.Path()
		if skip[path] {
			continue
		}
		if _, exists := sm.devices[path]; exists {
			continue
		}
		switch e.Kind() {
		case bundle.KindMotor, bundle.KindEncoder:
			sm.devices[path] = NewMotor(path)
		case bundle.KindServo:
			sm.devices[path] = &Servo{name: path, pwm: true}
		case bundle.KindContinuousServo:
			sm.devices[path] = &CRServo{name: path, pwm: true}
		case bundle.KindColorSensor:
			sm.devices[path] = &ColorSensor{name: path}
		case bundle.KindTouchSensor:
			sm.devices[path] = &TouchSensor{name: path}
		}
	}
	return sm
}

// Add registers dev under its name, replacing any previous device.
func (m *Map) Add(dev hardware.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[dev.DeviceName()] = dev
}

// Get implements hardware.Map.
func (m *Map) Get(name string) (hardware.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dev, ok := m.devices[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, hardware.ErrNotFound)
	}
	return dev, nil
}

// Lookup returns the device registered under name if it has type T.
func Lookup[T hardware.Device](m *Map, name string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dev, ok := m.devices[name].(T)
	return dev, ok
}

// Names returns the registered device names, sorted.
func (m *Map) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.devices))
	for name := range m.devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VoltageSensors implements hardware.Map.
func (m *Map) VoltageSensors() []hardware.VoltageSensor {
	return []hardware.VoltageSensor{m.battery}
}

// Battery returns the simulated battery.
func (m *Map) Battery() *Battery {
	return m.battery
}

// Step advances every motor by dt.
func (m *Map) Step(dt time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, dev := range m.devices {
		if motor, ok := dev.(*Motor); ok {
			motor.Step(dt)
		}
	}
}

// Motor is a simulated DC motor with encoder.
type Motor struct {
	name            string
	countsPerSecond float64

	mu       sync.Mutex
	power    float64
	position float64
	velocity float64
}

// NewMotor creates a Motor at DefaultCountsPerSecond.
func NewMotor(name string) *Motor {
	return &Motor{name: name, countsPerSecond: DefaultCountsPerSecond}
}

func (m *Motor) DeviceName() string { return m.name }

// SetPower implements hardware.DcMotor.
func (m *Motor) SetPower(power float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.power = power
}

// Power returns the last power written.
func (m *Motor) Power() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.power
}

// CurrentPosition implements hardware.DcMotor.
func (m *Motor) CurrentPosition() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int(math.Round(m.position))
}

// Velocity implements hardware.DcMotor, in radians per second.
func (m *Motor) Velocity() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.velocity
}

// Step integrates the current power over dt.
func (m *Motor) Step(dt time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := m.power * m.countsPerSecond * dt.Seconds()
	m.position += counts
	if dt > 0 {
		// One revolution per countsPerSecond counts.
		m.velocity = counts / m.countsPerSecond * 2 * math.Pi / dt.Seconds()
	}
}

// Servo is a simulated positional servo.
type Servo struct {
	name string

	mu       sync.Mutex
	position float64
	pwm      bool
}

func (s *Servo) DeviceName() string { return s.name }

// SetPosition implements hardware.Servo.
func (s *Servo) SetPosition(position float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = position
}

// SetPwmEnable implements hardware.Servo.
func (s *Servo) SetPwmEnable(enable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pwm = enable
}

// Position returns the last normalized position written.
func (s *Servo) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// CRServo is a simulated continuous servo.
type CRServo struct {
	name string

	mu    sync.Mutex
	power float64
	pwm   bool
}

func (c *CRServo) DeviceName() string { return c.name }

// SetPower implements hardware.CRServo.
func (c *CRServo) SetPower(power float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.power = power
}

// SetPwmEnable implements hardware.CRServo.
func (c *CRServo) SetPwmEnable(enable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pwm = enable
}

// Power returns the last power written.
func (c *CRServo) Power() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.power
}

// ColorSensor is a simulated color sensor.
type ColorSensor struct {
	name string

	mu         sync.Mutex
	r, g, b, a int
	led        bool
}

func (c *ColorSensor) DeviceName() string { return c.name }

// Set changes the reported color.
func (c *ColorSensor) Set(r, g, b, a int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.r, c.g, c.b, c.a = r, g, b, a
}

func (c *ColorSensor) Red() int   { c.mu.Lock(); defer c.mu.Unlock(); return c.r }
func (c *ColorSensor) Green() int { c.mu.Lock(); defer c.mu.Unlock(); return c.g }
func (c *ColorSensor) Blue() int  { c.mu.Lock(); defer c.mu.Unlock(); return c.b }
func (c *ColorSensor) Alpha() int { c.mu.Lock(); defer c.mu.Unlock(); return c.a }

// EnableLed implements hardware.ColorSensor.
func (c *ColorSensor) EnableLed(enable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.led = enable
}

// Led reports the LED state.
func (c *ColorSensor) Led() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.led
}

// TouchSensor is a simulated touch sensor.
type TouchSensor struct {
	name string

	mu      sync.Mutex
	pressed bool
}

func (t *TouchSensor) DeviceName() string { return t.name }

// Set changes the reported contact state.
func (t *TouchSensor) Set(pressed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pressed = pressed
}

// IsPressed implements hardware.TouchSensor.
func (t *TouchSensor) IsPressed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pressed
}

// Battery is a simulated voltage sensor.
type Battery struct {
	name string

	mu    sync.Mutex
	volts float64
}

func (b *Battery) DeviceName() string { return b.name }

// Set changes the reported voltage.
func (b *Battery) Set(volts float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volts = volts
}

// Voltage implements hardware.VoltageSensor.
func (b *Battery) Voltage() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volts
}

// Compile-time interface satisfaction checks.
var (
	_ hardware.Map           = (*Map)(nil)
	_ hardware.DcMotor       = (*Motor)(nil)
	_ hardware.Servo         = (*Servo)(nil)
	_ hardware.CRServo       = (*CRServo)(nil)
	_ hardware.ColorSensor   = (*ColorSensor)(nil)
	_ hardware.TouchSensor   = (*TouchSensor)(nil)
	_ hardware.VoltageSensor = (*Battery)(nil)
)
