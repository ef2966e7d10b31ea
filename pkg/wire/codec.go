package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for packets.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for packets.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Lenient for forward compatibility: unknown keys are skipped.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder creates a CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// Envelope is the outer frame of every packet.
//
// CBOR encoding:
//
//	{
//	  1: type,     // uint8 PacketType
//	  2: payload   // packet-specific map
//	}
type Envelope struct {
	Type    PacketType      `cbor:"1,keyasint"`
	Payload cbor.RawMessage `cbor:"2,keyasint"`
}

// Encode validates p and encodes it inside an Envelope.
func Encode(p Packet) ([]byte, error) {
	if v, ok := p.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	payload, err := Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", p.PacketType(), err)
	}
	return Marshal(Envelope{Type: p.PacketType(), Payload: payload})
}

// PeekType returns the packet type of an encoded Envelope without decoding
// the payload.
func PeekType(data []byte) (PacketType, error) {
	var peek struct {
		Type PacketType `cbor:"1,keyasint"`
	}
	if err := Unmarshal(data, &peek); err != nil {
		return 0, fmt.Errorf("failed to peek packet: %w", err)
	}
	return peek.Type, nil
}

// Decode decodes an Envelope and its payload into the concrete packet
// type, then validates it.
func Decode(data []byte) (Packet, error) {
	var env Envelope
	if err := Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}

	p, err := decodePayload(env.Type, env.Payload)
	if err != nil {
		return nil, err
	}
	if v, ok := p.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func decodePayload(t PacketType, payload []byte) (Packet, error) {
	var (
		p   Packet
		err error
	)
	switch t {
	case TypeDeviceDescription:
		p, err = decodeAs[DeviceDescription](payload)
	case TypeMotorPower:
		p, err = decodeAs[MotorPower](payload)
	case TypeServoPosition:
		p, err = decodeAs[ServoPosition](payload)
	case TypeContinuousServoPower:
		p, err = decodeAs[ContinuousServoPower](payload)
	case TypePwmEnable:
		p, err = decodeAs[PwmEnable](payload)
	case TypeColorSensorLed:
		p, err = decodeAs[ColorSensorLed](payload)
	case TypeEncoderData:
		p, err = decodeAs[EncoderData](payload)
	case TypeColorSensorData:
		p, err = decodeAs[ColorSensorData](payload)
	case TypeTouchSensorData:
		p, err = decodeAs[TouchSensorData](payload)
	case TypeGamepadData:
		p, err = decodeAs[GamepadData](payload)
	case TypeVoltageData:
		p, err = decodeAs[VoltageData](payload)
	case TypeOperationPeriod:
		p, err = decodeAs[OperationPeriod](payload)
	case TypeOpModeInfo:
		p, err = decodeAs[OpModeInfo](payload)
	case TypeTelemetry:
		p, err = decodeAs[Telemetry](payload)
	case TypeTelemetryClear:
		p = TelemetryClear{}
	default:
		return nil, fmt.Errorf("%w: unknown packet type %d", ErrInvalidPacket, uint8(t))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", t, err)
	}
	return p, nil
}

func decodeAs[T Packet](payload []byte) (Packet, error) {
	var v T
	if err := Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Equal compares two values by their CBOR encoding.
func Equal(a, b any) bool {
	dataA, errA := Marshal(a)
	dataB, errB := Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(dataA, dataB)
}
