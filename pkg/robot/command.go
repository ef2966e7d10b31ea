package robot

import (
	"errors"
	"fmt"

	"github.com/standalonetc/teleop/pkg/wire"
)

// ErrUnsupportedCommand is returned by Command for packets that do not
// command an effector.
var ErrUnsupportedCommand = errors.New("unsupported command")

// Command applies a console command packet to the addressed part. The
// commanded Device is claimed for owner first, so a console cannot drive
// an effector that control logic already produces.
func (r *Robot) Command(p wire.Packet, owner string) error {
	switch p := p.(type) {
	case wire.MotorPower:
		m, err := byID[*Motor](r, p.ID)
		if err != nil {
			return err
		}
		return claimAndSet(m.Power, owner, p.Power)

	case wire.ServoPosition:
		s, err := byID[*Servo](r, p.ID)
		if err != nil {
			return err
		}
		if !s.Spec.Range.Contains(p.Position) {
			return fmt.Errorf("%w: position %v outside [%v, %v]", wire.ErrInvalidPacket, p.Position, s.Spec.Range.Min, s.Spec.Range.Max)
		}
		return claimAndSet(s.Position, owner, p.Position)

	case wire.ContinuousServoPower:
		c, err := byID[*ContinuousServo](r, p.ID)
		if err != nil {
			return err
		}
		return claimAndSet(c.Power, owner, p.Power)

	case wire.PwmEnable:
		part, ok := r.ByID(p.ID)
		if !ok {
			return fmt.Errorf("%w: id %d", ErrUnknownPart, p.ID)
		}
		switch part := part.(type) {
		case *Servo:
			return claimAndSet(part.PwmEnable, owner, p.Enable)
		case *ContinuousServo:
			return claimAndSet(part.PwmEnable, owner, p.Enable)
		}
		return fmt.Errorf("%w: id %d is a %s", ErrUnknownPart, p.ID, part.Entry().Kind())

	case wire.ColorSensorLed:
		c, err := byID[*ColorSensor](r, p.ID)
		if err != nil {
			return err
		}
		return claimAndSet(c.Led, owner, p.Enable)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedCommand, p.PacketType())
}

type claimable[T any] interface {
	Claim(owner string) error
	Update(T)
}

func claimAndSet[T any](d claimable[T], owner string, v T) error {
	if err := d.Claim(owner); err != nil {
		return err
	}
	d.Update(v)
	return nil
}

func byID[P Part](r *Robot, id uint8) (P, error) {
	var zero P
	part, ok := r.ByID(id)
	if !ok {
		return zero, fmt.Errorf("%w: id %d", ErrUnknownPart, id)
	}
	typed, ok := part.(P)
	if !ok {
		return zero, fmt.Errorf("%w: id %d is a %s", ErrUnknownPart, id, part.Entry().Kind())
	}
	return typed, nil
}
