// Package wire defines the CBOR packet format shared between the robot
// and a remote console.
//
// Packets use CBOR (RFC 8949) with integer keys for compactness. Every
// packet travels inside an Envelope carrying its PacketType, so a stream
// of packets can be decoded without knowing what comes next.
//
// # Addressing
//
// Devices are addressed by the single-byte identifier their bundle entry
// was assigned. The console learns the mapping from DeviceDescription
// packets, one per entry. Gamepads are not bundle entries; their packets
// carry a BuiltinID instead.
//
// # Directions
//
// Robot to console: DeviceDescription, EncoderData, ColorSensorData,
// TouchSensorData, GamepadData, VoltageData, OperationPeriod, OpModeInfo.
//
// Console to robot: MotorPower, ServoPosition, ContinuousServoPower,
// PwmEnable, ColorSensorLed, Telemetry, TelemetryClear.
package wire
