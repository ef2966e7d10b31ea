package telemetry

import (
	"context"

	"github.com/standalonetc/teleop/pkg/gamepad"
	"github.com/standalonetc/teleop/pkg/robot"
	"github.com/standalonetc/teleop/pkg/wire"
)

// Task produces one output packet from the current state.
type Task interface {
	Packet() wire.Packet
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc func() wire.Packet

// Packet calls f.
func (f TaskFunc) Packet() wire.Packet { return f() }

// EncoderTask reports the encoder's last reading.
func EncoderTask(e *robot.Encoder) Task {
	return TaskFunc(func() wire.Packet {
		d := e.Data.Read()
		return wire.EncoderData{ID: e.Entry().ID, Position: d.Position, Velocity: d.Velocity}
	})
}

// ColorTask reports the color sensor's last reading.
func ColorTask(c *robot.ColorSensor) Task {
	return TaskFunc(func() wire.Packet {
		d := c.Data.Read()
		return wire.ColorSensorData{ID: c.Entry().ID, Red: d.Red, Green: d.Green, Blue: d.Blue, Alpha: d.Alpha}
	})
}

// TouchTask reports the touch sensor's last reading.
func TouchTask(t *robot.TouchSensor) Task {
	return TaskFunc(func() wire.Packet {
		return wire.TouchSensorData{ID: t.Entry().ID, Pressed: t.Pressed.Read()}
	})
}

// GamepadTask reports the gamepad's last sample under a builtin ID.
func GamepadTask(id wire.BuiltinID, g *gamepad.Gamepad) Task {
	return TaskFunc(func() wire.Packet {
		return wire.GamepadData{ID: id, Data: g.Read()}
	})
}

// VoltageTask reports the battery voltage returned by read.
func VoltageTask(read func() float64) Task {
	return TaskFunc(func() wire.Packet {
		return wire.VoltageData{Voltage: read()}
	})
}

// SensorTasks returns one Task per sensor among parts, in order. Effectors
// are skipped.
func SensorTasks(parts []robot.Part) []Task {
	var tasks []Task
	for _, p := range parts {
		switch p := p.(type) {
		case *robot.Encoder:
			tasks = append(tasks, EncoderTask(p))
		case *robot.ColorSensor:
			tasks = append(tasks, ColorTask(p))
		case *robot.TouchSensor:
			tasks = append(tasks, TouchTask(p))
		}
	}
	return tasks
}

// Outputs is the ordered set of Tasks published every tick.
type Outputs []Task

// Snapshot evaluates every Task.
func (o Outputs) Snapshot() []wire.Packet {
	packets := make([]wire.Packet, len(o))
	for i, t := range o {
		packets[i] = t.Packet()
	}
	return packets
}

// Publish evaluates every Task and pushes the packets onto q, stopping at
// the first error.
func (o Outputs) Publish(ctx context.Context, q *Queue) error {
	for _, p := range o.Snapshot() {
		if err := q.Push(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
