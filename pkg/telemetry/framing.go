package telemetry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/standalonetc/teleop/pkg/wire"
)

// PrefixSize is the size of the big-endian length prefix of a frame.
const PrefixSize = 4

// MaxFrameSize is the largest payload a frame may carry. The largest
// packet, a DeviceDescription with a long path, is far below it.
const MaxFrameSize = 64 << 10

// Frame errors.
var (
	ErrEmptyFrame     = errors.New("empty frame")
	ErrFrameTooLarge  = errors.New("frame too large")
	ErrFrameTruncated = errors.New("frame truncated")
)

// FrameSize returns the size of a frame carrying n payload bytes.
func FrameSize(n int) int {
	return PrefixSize + n
}

// FrameWriter writes one frame per payload. Prefix and payload go out in a
// single Write, so concurrent writers and readers of a growing file never
// see half a frame.
type FrameWriter struct {
	mu     sync.Mutex
	w      io.Writer
	limit  int
	buf    []byte
	frames uint64
}

// NewFrameWriter creates a FrameWriter with the MaxFrameSize limit.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return NewFrameWriterLimit(w, MaxFrameSize)
}

// NewFrameWriterLimit creates a FrameWriter rejecting payloads above limit.
func NewFrameWriterLimit(w io.Writer, limit int) *FrameWriter {
	return &FrameWriter{w: w, limit: limit}
}

// WriteFrame writes data as one frame. It is safe for concurrent use.
func (fw *FrameWriter) WriteFrame(data []byte) error {
	if err := checkSize(len(data), fw.limit); err != nil {
		return err
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.buf = binary.BigEndian.AppendUint32(fw.buf[:0], uint32(len(data)))
	fw.buf = append(fw.buf, data...)
	if _, err := fw.w.Write(fw.buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	fw.frames++
	return nil
}

// WritePacket encodes p and writes it as one frame. Invalid packets are
// rejected before anything is written.
func (fw *FrameWriter) WritePacket(p wire.Packet) error {
	data, err := wire.Encode(p)
	if err != nil {
		return err
	}
	return fw.WriteFrame(data)
}

// Frames returns the number of frames written.
func (fw *FrameWriter) Frames() uint64 {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.frames
}

// FrameReader reads the frames written by a FrameWriter.
type FrameReader struct {
	r      io.Reader
	limit  int
	prefix [PrefixSize]byte
}

// NewFrameReader creates a FrameReader with the MaxFrameSize limit.
func NewFrameReader(r io.Reader) *FrameReader {
	return NewFrameReaderLimit(r, MaxFrameSize)
}

// NewFrameReaderLimit creates a FrameReader rejecting frames above limit.
func NewFrameReaderLimit(r io.Reader, limit int) *FrameReader {
	return &FrameReader{r: r, limit: limit}
}

// ReadFrame returns the payload of the next frame. The end of the stream
// between two frames is io.EOF; anywhere else it is ErrFrameTruncated.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(fr.r, fr.prefix[:]); err != nil {
		return nil, truncated(err, true)
	}

	n := binary.BigEndian.Uint32(fr.prefix[:])
	if err := checkSize(int(n), fr.limit); err != nil {
		return nil, err
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		return nil, truncated(err, false)
	}
	return payload, nil
}

// ReadPacket reads the next frame and decodes its packet.
func (fr *FrameReader) ReadPacket() (wire.Packet, error) {
	data, err := fr.ReadFrame()
	if err != nil {
		return nil, err
	}
	return wire.Decode(data)
}

func checkSize(n, limit int) error {
	switch {
	case n == 0:
		return ErrEmptyFrame
	case n > limit:
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, limit)
	}
	return nil
}

// truncated maps a short read. A clean EOF before the prefix is the end of
// the stream.
func truncated(err error, atBoundary bool) error {
	switch {
	case atBoundary && err == io.EOF:
		return io.EOF
	case err == io.EOF, errors.Is(err, io.ErrUnexpectedEOF):
		return ErrFrameTruncated
	}
	return fmt.Errorf("read frame: %w", err)
}
