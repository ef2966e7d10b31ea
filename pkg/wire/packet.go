package wire

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/standalonetc/teleop/pkg/bundle"
	"github.com/standalonetc/teleop/pkg/gamepad"
)

// ErrInvalidPacket is wrapped by every validation failure.
var ErrInvalidPacket = errors.New("invalid packet")

// PacketType identifies the payload of an Envelope.
type PacketType uint8

const (
	TypeDeviceDescription PacketType = iota + 1
	TypeMotorPower
	TypeServoPosition
	TypeContinuousServoPower
	TypePwmEnable
	TypeColorSensorLed
	TypeEncoderData
	TypeColorSensorData
	TypeTouchSensorData
	TypeGamepadData
	TypeVoltageData
	TypeOperationPeriod
	TypeOpModeInfo
	TypeTelemetry
	TypeTelemetryClear
)

// String returns the packet type name.
func (t PacketType) String() string {
	switch t {
	case TypeDeviceDescription:
		return "DeviceDescription"
	case TypeMotorPower:
		return "MotorPower"
	case TypeServoPosition:
		return "ServoPosition"
	case TypeContinuousServoPower:
		return "ContinuousServoPower"
	case TypePwmEnable:
		return "PwmEnable"
	case TypeColorSensorLed:
		return "ColorSensorLed"
	case TypeEncoderData:
		return "EncoderData"
	case TypeColorSensorData:
		return "ColorSensorData"
	case TypeTouchSensorData:
		return "TouchSensorData"
	case TypeGamepadData:
		return "GamepadData"
	case TypeVoltageData:
		return "VoltageData"
	case TypeOperationPeriod:
		return "OperationPeriod"
	case TypeOpModeInfo:
		return "OpModeInfo"
	case TypeTelemetry:
		return "Telemetry"
	case TypeTelemetryClear:
		return "TelemetryClear"
	default:
		return fmt.Sprintf("PacketType(%d)", uint8(t))
	}
}

// BuiltinID addresses devices that are not bundle entries.
type BuiltinID uint8

const (
	GamepadMaster BuiltinID = 0
	GamepadHelper BuiltinID = 1
)

// Packet is implemented by every packet type.
type Packet interface {
	PacketType() PacketType
}

// Validator is implemented by packets with constraints beyond their types.
type Validator interface {
	Validate() error
}

// DeviceDescription announces one bundle entry.
type DeviceDescription struct {
	ID   uint8       `cbor:"1,keyasint"`
	Name string      `cbor:"2,keyasint"`
	Kind bundle.Kind `cbor:"3,keyasint"`
}

// MotorPower commands a motor power in [-1, 1].
type MotorPower struct {
	ID    uint8   `cbor:"1,keyasint"`
	Power float64 `cbor:"2,keyasint"`
}

// ServoPosition commands a servo position within its declared range.
type ServoPosition struct {
	ID       uint8   `cbor:"1,keyasint"`
	Position float64 `cbor:"2,keyasint"`
}

// ContinuousServoPower commands a continuous servo power in [-1, 1].
type ContinuousServoPower struct {
	ID    uint8   `cbor:"1,keyasint"`
	Power float64 `cbor:"2,keyasint"`
}

// PwmEnable switches the PWM output of a servo.
type PwmEnable struct {
	ID     uint8 `cbor:"1,keyasint"`
	Enable bool  `cbor:"2,keyasint"`
}

// ColorSensorLed switches the LED of a color sensor.
type ColorSensorLed struct {
	ID     uint8 `cbor:"1,keyasint"`
	Enable bool  `cbor:"2,keyasint"`
}

// EncoderData reports an encoder reading. Velocity is in radians per
// second.
type EncoderData struct {
	ID       uint8   `cbor:"1,keyasint"`
	Position float64 `cbor:"2,keyasint"`
	Velocity float64 `cbor:"3,keyasint"`
}

// ColorSensorData reports a color sensor reading.
type ColorSensorData struct {
	ID    uint8   `cbor:"1,keyasint"`
	Red   float64 `cbor:"2,keyasint"`
	Green float64 `cbor:"3,keyasint"`
	Blue  float64 `cbor:"4,keyasint"`
	Alpha float64 `cbor:"5,keyasint"`
}

// TouchSensorData reports a touch sensor reading.
type TouchSensorData struct {
	ID      uint8 `cbor:"1,keyasint"`
	Pressed bool  `cbor:"2,keyasint"`
}

// GamepadData reports a gamepad sample.
type GamepadData struct {
	ID   BuiltinID    `cbor:"1,keyasint"`
	Data gamepad.Data `cbor:"2,keyasint"`
}

// VoltageData reports the battery voltage.
type VoltageData struct {
	Voltage float64 `cbor:"1,keyasint"`
}

// OperationPeriod reports how long the last control tick took.
// Stored as nanoseconds.
type OperationPeriod struct {
	Period time.Duration `cbor:"1,keyasint"`
}

// OpModeState is the lifecycle phase announced by OpModeInfo.
type OpModeState uint8

const (
	OpModeInit  OpModeState = 0
	OpModeStart OpModeState = 1
	OpModeStop  OpModeState = 2
)

// String returns the state name.
func (s OpModeState) String() string {
	switch s {
	case OpModeInit:
		return "INIT"
	case OpModeStart:
		return "START"
	case OpModeStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// OpModeInfo announces an op-mode lifecycle phase.
type OpModeInfo struct {
	Name  string      `cbor:"1,keyasint"`
	State OpModeState `cbor:"2,keyasint"`
}

// Telemetry adds a caption/text line to the robot's display.
type Telemetry struct {
	Caption string `cbor:"1,keyasint"`
	Text    string `cbor:"2,keyasint"`
}

// TelemetryClear clears the robot's display.
type TelemetryClear struct{}

func (DeviceDescription) PacketType() PacketType    { return TypeDeviceDescription }
func (MotorPower) PacketType() PacketType           { return TypeMotorPower }
func (ServoPosition) PacketType() PacketType        { return TypeServoPosition }
func (ContinuousServoPower) PacketType() PacketType { return TypeContinuousServoPower }
func (PwmEnable) PacketType() PacketType            { return TypePwmEnable }
func (ColorSensorLed) PacketType() PacketType       { return TypeColorSensorLed }
func (EncoderData) PacketType() PacketType          { return TypeEncoderData }
func (ColorSensorData) PacketType() PacketType      { return TypeColorSensorData }
func (TouchSensorData) PacketType() PacketType      { return TypeTouchSensorData }
func (GamepadData) PacketType() PacketType          { return TypeGamepadData }
func (VoltageData) PacketType() PacketType          { return TypeVoltageData }
func (OperationPeriod) PacketType() PacketType      { return TypeOperationPeriod }
func (OpModeInfo) PacketType() PacketType           { return TypeOpModeInfo }
func (Telemetry) PacketType() PacketType            { return TypeTelemetry }
func (TelemetryClear) PacketType() PacketType       { return TypeTelemetryClear }

func validPower(p float64) error {
	if math.IsNaN(p) || p < -1 || p > 1 {
		return fmt.Errorf("%w: power %v outside [-1, 1]", ErrInvalidPacket, p)
	}
	return nil
}

// Validate checks the power range.
func (p MotorPower) Validate() error { return validPower(p.Power) }

// Validate checks the power range.
func (p ContinuousServoPower) Validate() error { return validPower(p.Power) }

// Validate rejects NaN positions; range checks need the bundle entry.
func (p ServoPosition) Validate() error {
	if math.IsNaN(p.Position) {
		return fmt.Errorf("%w: servo position is NaN", ErrInvalidPacket)
	}
	return nil
}

// Validate checks the kind.
func (p DeviceDescription) Validate() error {
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: unknown device kind %d", ErrInvalidPacket, uint8(p.Kind))
	}
	if p.Name == "" {
		return fmt.Errorf("%w: empty device name", ErrInvalidPacket)
	}
	return nil
}

// Describe converts a bundle mapping into one DeviceDescription per entry,
// in identifier order.
func Describe(m *bundle.Mapping) []DeviceDescription {
	descs := m.Descriptions()
	result := make([]DeviceDescription, len(descs))
	for i, d := range descs {
		result[i] = DeviceDescription{ID: d.ID, Name: d.Name, Kind: d.Kind}
	}
	return result
}
