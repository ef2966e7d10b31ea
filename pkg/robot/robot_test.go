package robot

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standalonetc/teleop/pkg/bundle"
	"github.com/standalonetc/teleop/pkg/device"
	"github.com/standalonetc/teleop/pkg/scope"
	"github.com/standalonetc/teleop/pkg/wire"
)

func testMapping(t *testing.T) *bundle.Mapping {
	t.Helper()
	b := bundle.New()
	b.Group("dumper", func(g *bundle.Group) {
		g.Motor("am", bundle.Reversed)
		g.Encoder("am", 1440)
		g.Servo("servo", bundle.Range{Min: 0, Max: math.Pi})
	})
	b.Group("collector", func(g *bundle.Group) {
		g.ContinuousServo("cr")
		g.ColorSensor("color")
		g.TouchSensor("touch")
	})
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestNewRealizesEveryEntry(t *testing.T) {
	r := New(testMapping(t))

	parts := r.Parts()
	require.Len(t, parts, 6)
	for i, p := range parts {
		assert.Equal(t, uint8(i), p.Entry().ID)
	}

	motor, err := r.Motor("dumper.am")
	require.NoError(t, err)
	assert.Equal(t, "dumper.am/motor", motor.Name())
	assert.Equal(t, bundle.Reversed, motor.Spec.Direction)
	assert.Equal(t, 0, motor.Power.ID())

	enc, err := r.Encoder("dumper.am")
	require.NoError(t, err)
	assert.Equal(t, 1, enc.Data.ID())
	assert.NotEqual(t, motor.Name(), enc.Name())

	servo, err := r.Servo("dumper.servo")
	require.NoError(t, err)
	assert.Equal(t, 0.0, servo.Position.Read(), "servo starts at its range minimum")
	assert.True(t, servo.PwmEnable.Read())

	_, err = r.ContinuousServo("collector.cr")
	assert.NoError(t, err)
	_, err = r.ColorSensor("collector.color")
	assert.NoError(t, err)
	_, err = r.TouchSensor("collector.touch")
	assert.NoError(t, err)
}

func TestLookupErrors(t *testing.T) {
	r := New(testMapping(t))

	_, err := r.Motor("dumper.servo")
	assert.ErrorIs(t, err, ErrUnknownPart)
	_, err = r.TouchSensor("lifter.touch")
	assert.ErrorIs(t, err, ErrUnknownPart)

	_, ok := r.ByID(6)
	assert.False(t, ok)
	p, ok := r.Part("collector.touch/touch-sensor")
	require.True(t, ok)
	assert.Equal(t, uint8(5), p.Entry().ID)
}

func TestEncoderRevolutions(t *testing.T) {
	r := New(testMapping(t))
	enc, err := r.Encoder("dumper.am")
	require.NoError(t, err)

	enc.Data.Update(EncoderData{Position: 2880})
	assert.Equal(t, 2.0, enc.Revolutions())
}

func TestSetupRegistersPartsAndStopDisposes(t *testing.T) {
	r := New(testMapping(t))
	s := scope.New()
	require.NoError(t, r.Setup(s))
	assert.Equal(t, 6, s.Len())

	_, ok := s.Lookup("dumper.am/encoder")
	assert.True(t, ok)

	require.NoError(t, s.InitAll(context.Background()))
	require.NoError(t, s.StopAll())

	touch, err := r.TouchSensor("collector.touch")
	require.NoError(t, err)
	assert.True(t, touch.Pressed.Disposed())
}

func TestCommand(t *testing.T) {
	r := New(testMapping(t))

	require.NoError(t, r.Command(wire.MotorPower{ID: 0, Power: 0.4}, "console"))
	motor, _ := r.Motor("dumper.am")
	assert.Equal(t, 0.4, motor.Power.Read())
	assert.Equal(t, "console", motor.Power.Owner())

	require.NoError(t, r.Command(wire.ServoPosition{ID: 2, Position: 1}, "console"))
	require.NoError(t, r.Command(wire.PwmEnable{ID: 2, Enable: false}, "console"))
	servo, _ := r.Servo("dumper.servo")
	assert.Equal(t, 1.0, servo.Position.Read())
	assert.False(t, servo.PwmEnable.Read())

	require.NoError(t, r.Command(wire.ContinuousServoPower{ID: 3, Power: -1}, "console"))
	require.NoError(t, r.Command(wire.ColorSensorLed{ID: 4, Enable: true}, "console"))
	color, _ := r.ColorSensor("collector.color")
	assert.True(t, color.Led.Read())
}

func TestCommandErrors(t *testing.T) {
	r := New(testMapping(t))
	motor, _ := r.Motor("dumper.am")
	require.NoError(t, motor.Power.Claim("dumper"))

	tests := []struct {
		name   string
		packet wire.Packet
		want   error
	}{
		{name: "producer conflict", packet: wire.MotorPower{ID: 0, Power: 1}, want: device.ErrProducerConflict},
		{name: "wrong kind", packet: wire.MotorPower{ID: 1, Power: 1}, want: ErrUnknownPart},
		{name: "unknown id", packet: wire.ServoPosition{ID: 99}, want: ErrUnknownPart},
		{name: "servo out of range", packet: wire.ServoPosition{ID: 2, Position: 4}, want: wire.ErrInvalidPacket},
		{name: "pwm on a motor", packet: wire.PwmEnable{ID: 0}, want: ErrUnknownPart},
		{name: "sensor data", packet: wire.TouchSensorData{ID: 5}, want: ErrUnsupportedCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Command(tt.packet, "console")
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
	assert.Equal(t, 0.0, motor.Power.Read(), "rejected command must not write")
}
