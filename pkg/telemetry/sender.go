package telemetry

import (
	"io"

	"github.com/standalonetc/teleop/pkg/wire"
)

// Sender delivers one packet to the driver station.
type Sender interface {
	Send(p wire.Packet) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(p wire.Packet) error

// Send calls f(p).
func (f SenderFunc) Send(p wire.Packet) error { return f(p) }

// FrameSender encodes packets and writes each as one frame.
type FrameSender struct {
	fw *FrameWriter
}

// NewFrameSender creates a FrameSender writing to w.
func NewFrameSender(w io.Writer) *FrameSender {
	return &FrameSender{fw: NewFrameWriter(w)}
}

// Send encodes and writes p.
func (s *FrameSender) Send(p wire.Packet) error {
	return s.fw.WritePacket(p)
}

// Frames returns the number of frames written.
func (s *FrameSender) Frames() uint64 {
	return s.fw.Frames()
}

// Compile-time interface satisfaction checks.
var (
	_ Sender = (*FrameSender)(nil)
	_ Sender = SenderFunc(nil)
)
