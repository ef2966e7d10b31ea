package hardware

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/standalonetc/teleop/pkg/bundle"
	"github.com/standalonetc/teleop/pkg/device"
	"github.com/standalonetc/teleop/pkg/log"
	"github.com/standalonetc/teleop/pkg/robot"
)

// ---------------------------------------------------------------------------
// mocks
// ---------------------------------------------------------------------------

type mockMap struct{ mock.Mock }

func (m *mockMap) Get(name string) (Device, error) {
	ret := m.Called(name)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(Device), ret.Error(1)
}

func (m *mockMap) VoltageSensors() []VoltageSensor {
	ret := m.Called()
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).([]VoltageSensor)
}

type mockMotor struct {
	mock.Mock
	name string
}

func (m *mockMotor) DeviceName() string   { return m.name }
func (m *mockMotor) SetPower(p float64)   { m.Called(p) }
func (m *mockMotor) CurrentPosition() int { return m.Called().Int(0) }
func (m *mockMotor) Velocity() float64    { return m.Called().Get(0).(float64) }

type mockServo struct {
	mock.Mock
	name string
}

func (s *mockServo) DeviceName() string    { return s.name }
func (s *mockServo) SetPosition(p float64) { s.Called(p) }
func (s *mockServo) SetPwmEnable(e bool)   { s.Called(e) }

type mockTouch struct {
	mock.Mock
	name string
}

func (t *mockTouch) DeviceName() string { return t.name }
func (t *mockTouch) IsPressed() bool    { return t.Called().Bool(0) }

type mockVoltage struct {
	mock.Mock
	name string
}

func (v *mockVoltage) DeviceName() string { return v.name }
func (v *mockVoltage) Voltage() float64   { return v.Called().Get(0).(float64) }

type eventSink struct{ events []log.Event }

func (s *eventSink) Log(ev log.Event) { s.events = append(s.events, ev) }

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func testRobot(t *testing.T) *robot.Robot {
	t.Helper()
	b := bundle.New()
	b.Group("dumper", func(g *bundle.Group) {
		g.Motor("am", bundle.Reversed)
		g.Encoder("am", 1440)
		g.Servo("servo", bundle.Range{Min: 0, Max: math.Pi})
	})
	b.Group("lifter", func(g *bundle.Group) {
		g.TouchSensor("touch")
	})
	m, err := b.Build()
	require.NoError(t, err)
	return robot.New(m)
}

func notFound(name string) error {
	return fmt.Errorf("%q: %w", name, ErrNotFound)
}

func TestBindResolvesAndReportsMissing(t *testing.T) {
	r := testRobot(t)
	motor := &mockMotor{name: "dumper.am"}
	servo := &mockServo{name: "dumper.servo"}

	hw := &mockMap{}
	hw.On("VoltageSensors").Return(nil)
	hw.On("Get", "dumper.am").Return(motor, nil)
	hw.On("Get", "dumper.servo").Return(servo, nil)
	hw.On("Get", "lifter.touch").Return(nil, notFound("lifter.touch"))

	var logs bytes.Buffer
	sink := &eventSink{}
	b, err := Bind(hw, r, BinderConfig{
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
		Events: log.NewRecorder(sink, "run"),
	})
	require.NoError(t, err)
	hw.AssertExpectations(t)

	assert.Len(t, b.Bound(), 3)
	missing := b.Missing()
	require.Len(t, missing, 1)
	assert.Equal(t, "lifter.touch", missing[0].Path())

	assert.True(t, strings.Contains(logs.String(), "Unable to find device"))
	assert.True(t, strings.Contains(logs.String(), "Found device"))

	require.Len(t, sink.events, 4)
	last := sink.events[3].Resolution
	require.NotNil(t, last)
	assert.False(t, last.Found)
	assert.Equal(t, uint8(3), last.DeviceID)

	enc, err := r.Encoder("dumper.am")
	require.NoError(t, err)
	assert.Equal(t, DefaultOwner, enc.Data.Owner())
}

func TestBindRejectsWrongType(t *testing.T) {
	r := testRobot(t)
	hw := &mockMap{}
	hw.On("VoltageSensors").Return(nil)
	hw.On("Get", "dumper.am").Return(&mockServo{name: "dumper.am"}, nil)
	hw.On("Get", "dumper.servo").Return(&mockServo{name: "dumper.servo"}, nil)
	hw.On("Get", "lifter.touch").Return(&mockTouch{name: "lifter.touch"}, nil)

	b, err := Bind(hw, r, BinderConfig{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))})
	require.NoError(t, err)

	var paths []string
	for _, e := range b.Missing() {
		paths = append(paths, e.Key())
	}
	assert.Equal(t, []string{"dumper.am/motor", "dumper.am/encoder"}, paths)
}

func TestBindProducerConflict(t *testing.T) {
	r := testRobot(t)
	touch, err := r.TouchSensor("lifter.touch")
	require.NoError(t, err)
	require.NoError(t, touch.Pressed.Claim("someone-else"))

	hw := &mockMap{}
	hw.On("VoltageSensors").Return(nil)
	hw.On("Get", "lifter.touch").Return(&mockTouch{name: "lifter.touch"}, nil)
	hw.On("Get", mock.Anything).Return(nil, notFound("x"))

	_, err = Bind(hw, r, BinderConfig{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))})
	assert.ErrorIs(t, err, device.ErrProducerConflict)
}

func TestSampleAndApply(t *testing.T) {
	r := testRobot(t)
	motor := &mockMotor{name: "dumper.am"}
	servo := &mockServo{name: "dumper.servo"}
	touch := &mockTouch{name: "lifter.touch"}
	battery := &mockVoltage{name: "battery"}
	dead := &mockVoltage{name: "dead"}

	hw := &mockMap{}
	hw.On("VoltageSensors").Return([]VoltageSensor{dead, battery})
	hw.On("Get", "dumper.am").Return(motor, nil)
	hw.On("Get", "dumper.servo").Return(servo, nil)
	hw.On("Get", "lifter.touch").Return(touch, nil)

	b, err := Bind(hw, r, BinderConfig{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))})
	require.NoError(t, err)

	motor.On("CurrentPosition").Return(720)
	motor.On("Velocity").Return(1.5)
	touch.On("IsPressed").Return(true)
	b.Sample()

	enc, _ := r.Encoder("dumper.am")
	assert.Equal(t, robot.EncoderData{Position: 720, Velocity: 1.5}, enc.Data.Read())
	pressed, _ := r.TouchSensor("lifter.touch")
	assert.True(t, pressed.Pressed.Read())

	m, _ := r.Motor("dumper.am")
	m.Power.Update(1.7)
	s, _ := r.Servo("dumper.servo")
	s.Position.Update(math.Pi / 2)

	motor.On("SetPower", -1.0).Once()
	servo.On("SetPwmEnable", true).Once()
	servo.On("SetPosition", 0.5).Once()
	b.Apply()
	motor.AssertExpectations(t)
	servo.AssertExpectations(t)

	motor.On("SetPower", 0.0).Once()
	b.Release()
	motor.AssertExpectations(t)

	dead.On("Voltage").Return(0.0)
	battery.On("Voltage").Return(12.4)
	assert.Equal(t, 12.4, b.Voltage())
}
