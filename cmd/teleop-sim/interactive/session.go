// Package interactive provides the console of teleop-sim.
package interactive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/standalonetc/teleop/pkg/gamepad"
	"github.com/standalonetc/teleop/pkg/hardware/sim"
	"github.com/standalonetc/teleop/pkg/opmode"
	"github.com/standalonetc/teleop/pkg/wire"
)

// ErrUsage is returned for malformed console commands.
var ErrUsage = errors.New("usage")

// Session is the state a console Action runs against. It is owned by the
// control loop goroutine; Actions run between ticks.
type Session struct {
	OpMode   *opmode.OpMode
	Hardware *sim.Map

	// Master and Helper are the samples fed to every Loop.
	Master gamepad.Data
	Helper gamepad.Data
}

// Action is a parsed console command.
type Action func(s *Session) (string, error)

// Parse turns the fields of a console line into an Action.
func Parse(args []string) (Action, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrUsage)
	}
	cmd, args := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "press", "p":
		return parseButton(args, true)
	case "release", "r":
		return parseButton(args, false)
	case "stick":
		return parseStick(args)
	case "trigger":
		return parseTrigger(args)
	case "idle":
		return func(s *Session) (string, error) {
			s.Master, s.Helper = gamepad.Data{}, gamepad.Data{}
			return "gamepads idle", nil
		}, nil
	case "touch":
		return parseTouch(args)
	case "battery":
		return parseBattery(args)
	case "power", "position", "crpower", "pwm", "led":
		return parseCommand(cmd, args)
	case "say":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: say <caption> <text...>", ErrUsage)
		}
		p := wire.Telemetry{Caption: args[0], Text: strings.Join(args[1:], " ")}
		return command(p), nil
	case "clear":
		return command(wire.TelemetryClear{}), nil
	case "devices", "d":
		return devices, nil
	case "state", "s":
		return states, nil
	case "hw":
		return hardware, nil
	case "status":
		return status, nil
	}
	return nil, fmt.Errorf("unknown command %q", cmd)
}

func pad(s *Session, name string) (*gamepad.Data, error) {
	switch strings.ToLower(name) {
	case "1", "m", opmode.MasterName:
		return &s.Master, nil
	case "2", "h", opmode.HelperName:
		return &s.Helper, nil
	}
	return nil, fmt.Errorf("unknown gamepad %q", name)
}

// ButtonField returns the field of d holding the named button.
func ButtonField(d *gamepad.Data, name string) (*bool, bool) {
	switch strings.ToLower(name) {
	case "a":
		return &d.A, true
	case "b":
		return &d.B, true
	case "x":
		return &d.X, true
	case "y":
		return &d.Y, true
	case "up":
		return &d.Up, true
	case "down":
		return &d.Down, true
	case "left":
		return &d.Left, true
	case "right":
		return &d.Right, true
	case "lb", "left_bumper":
		return &d.LeftBumper, true
	case "rb", "right_bumper":
		return &d.RightBumper, true
	case "ls", "left_stick_button":
		return &d.LeftStickButton, true
	case "rs", "right_stick_button":
		return &d.RightStickButton, true
	}
	return nil, false
}

func parseButton(args []string, pressed bool) (Action, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%w: press|release <pad> <button>", ErrUsage)
	}
	return func(s *Session) (string, error) {
		d, err := pad(s, args[0])
		if err != nil {
			return "", err
		}
		field, ok := ButtonField(d, args[1])
		if !ok {
			return "", fmt.Errorf("unknown button %q", args[1])
		}
		*field = pressed
		return fmt.Sprintf("%s %s pressed=%t", args[0], args[1], pressed), nil
	}, nil
}

func parseStick(args []string) (Action, error) {
	if len(args) != 4 {
		return nil, fmt.Errorf("%w: stick <pad> left|right <x> <y>", ErrUsage)
	}
	x, err := parseAxis(args[2])
	if err != nil {
		return nil, err
	}
	y, err := parseAxis(args[3])
	if err != nil {
		return nil, err
	}
	return func(s *Session) (string, error) {
		d, err := pad(s, args[0])
		if err != nil {
			return "", err
		}
		switch strings.ToLower(args[1]) {
		case "left", "l":
			d.LeftStickX, d.LeftStickY = x, y
		case "right", "r":
			d.RightStickX, d.RightStickY = x, y
		default:
			return "", fmt.Errorf("unknown stick %q", args[1])
		}
		return fmt.Sprintf("%s %s stick (%.2f, %.2f)", args[0], args[1], x, y), nil
	}, nil
}

func parseTrigger(args []string) (Action, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("%w: trigger <pad> left|right <value>", ErrUsage)
	}
	v, err := strconv.ParseFloat(args[2], 64)
	if err != nil || v < 0 || v > 1 {
		return nil, fmt.Errorf("trigger value must be in [0, 1], got %q", args[2])
	}
	return func(s *Session) (string, error) {
		d, err := pad(s, args[0])
		if err != nil {
			return "", err
		}
		switch strings.ToLower(args[1]) {
		case "left", "l":
			d.LeftTrigger = v
		case "right", "r":
			d.RightTrigger = v
		default:
			return "", fmt.Errorf("unknown trigger %q", args[1])
		}
		return fmt.Sprintf("%s %s trigger %.2f", args[0], args[1], v), nil
	}, nil
}

func parseAxis(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < -1 || v > 1 {
		return 0, fmt.Errorf("axis value must be in [-1, 1], got %q", s)
	}
	return v, nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func parseTouch(args []string) (Action, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%w: touch <path> on|off", ErrUsage)
	}
	pressed, err := parseOnOff(args[1])
	if err != nil {
		return nil, err
	}
	return func(s *Session) (string, error) {
		t, ok := sim.Lookup[*sim.TouchSensor](s.Hardware, args[0])
		if !ok {
			return "", fmt.Errorf("no touch sensor %q", args[0])
		}
		t.Set(pressed)
		return fmt.Sprintf("%s pressed=%t", args[0], pressed), nil
	}, nil
}

func parseBattery(args []string) (Action, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: battery <volts>", ErrUsage)
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("invalid voltage %q", args[0])
	}
	return func(s *Session) (string, error) {
		s.Hardware.Battery().Set(v)
		return fmt.Sprintf("battery %.2fV", v), nil
	}, nil
}

// parseCommand builds an effector command packet addressed by bundle ID.
func parseCommand(cmd string, args []string) (Action, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%w: %s <id> <value>", ErrUsage, cmd)
	}
	id, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid device id %q", args[0])
	}

	var p wire.Packet
	switch cmd {
	case "pwm", "led":
		on, err := parseOnOff(args[1])
		if err != nil {
			return nil, err
		}
		if cmd == "pwm" {
			p = wire.PwmEnable{ID: uint8(id), Enable: on}
		} else {
			p = wire.ColorSensorLed{ID: uint8(id), Enable: on}
		}
	default:
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", args[1])
		}
		switch cmd {
		case "power":
			p = wire.MotorPower{ID: uint8(id), Power: v}
		case "crpower":
			p = wire.ContinuousServoPower{ID: uint8(id), Power: v}
		default:
			p = wire.ServoPosition{ID: uint8(id), Position: v}
		}
	}
	if v, ok := p.(wire.Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return command(p), nil
}

func command(p wire.Packet) Action {
	return func(s *Session) (string, error) {
		if err := s.OpMode.Command(p); err != nil {
			return "", err
		}
		return fmt.Sprintf("sent %s", p.PacketType()), nil
	}
}

func devices(s *Session) (string, error) {
	b := s.OpMode.Binder()
	if b == nil {
		return "", errors.New("op-mode not initialized")
	}
	var sb strings.Builder
	for _, bound := range b.Bound() {
		e := bound.Part.Entry()
		fmt.Fprintf(&sb, "  %3d  %-20s %-16s found\n", e.ID, e.Path(), e.Kind())
	}
	for _, e := range b.Missing() {
		fmt.Fprintf(&sb, "  %3d  %-20s %-16s MISSING\n", e.ID, e.Path(), e.Kind())
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func states(s *Session) (string, error) {
	set := s.OpMode.Subsystems()
	if set == nil {
		return "no subsystems in this mode", nil
	}
	var sb strings.Builder
	for _, sub := range set.All() {
		for _, m := range sub.Machines() {
			fmt.Fprintf(&sb, "  %-24s %s\n", m.Name(), m.Current())
		}
	}
	fmt.Fprintf(&sb, "  %-24s %t\n", "expander.lock", set.Expander.Lock.Read())
	fmt.Fprintf(&sb, "  %-24s %t\n", "dumper.lock_enable", set.Dumper.LockEnable.Read())
	return strings.TrimRight(sb.String(), "\n"), nil
}

func hardware(s *Session) (string, error) {
	var sb strings.Builder
	for _, name := range s.Hardware.Names() {
		dev, err := s.Hardware.Get(name)
		if err != nil {
			continue
		}
		switch d := dev.(type) {
		case *sim.Motor:
			fmt.Fprintf(&sb, "  %-20s power=%+.2f position=%d\n", name, d.Power(), d.CurrentPosition())
		case *sim.Servo:
			fmt.Fprintf(&sb, "  %-20s position=%.2f\n", name, d.Position())
		case *sim.CRServo:
			fmt.Fprintf(&sb, "  %-20s power=%+.2f\n", name, d.Power())
		case *sim.TouchSensor:
			fmt.Fprintf(&sb, "  %-20s pressed=%t\n", name, d.IsPressed())
		case *sim.ColorSensor:
			fmt.Fprintf(&sb, "  %-20s rgba=(%d,%d,%d,%d) led=%t\n", name, d.Red(), d.Green(), d.Blue(), d.Alpha(), d.Led())
		}
	}
	fmt.Fprintf(&sb, "  %-20s %.2fV", "battery", s.Hardware.Battery().Voltage())
	return sb.String(), nil
}

func status(s *Session) (string, error) {
	op := s.OpMode
	q := op.Queue()
	return fmt.Sprintf("  opmode=%s run=%s ticks=%d faults=%d queue=%d/%d dropped=%d",
		op.Name(), op.RunID(), op.Ticks(), op.Faults(), q.Len(), q.Cap(), q.Dropped()), nil
}
