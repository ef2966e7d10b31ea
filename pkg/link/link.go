// Package link wires a source stream through a transform into a sink.
//
// A Link owns one subscription on its source. Every emission is passed
// through the transform and the result is handed to the sink, in source
// order, exactly once, until the Link is disposed:
//
//	link.Map(master.Y.Pressing(), func(bool) float64 { return .35 }).Into(dumper.Power)
//	link.Direct(touch).Into(lifter.AtBottom)
//
// Transforms must be pure; side effects belong in the sink. A panic or
// error raised by a transform or sink is contained: it is reported to the
// Link's FaultHandler, the sink keeps its previous value, and other Links
// keep running.
package link

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/standalonetc/teleop/pkg/device"
)

// ErrPanic wraps a value recovered from a panicking transform or sink.
var ErrPanic = errors.New("link panicked")

// Sink receives transformed values. *device.Device satisfies Sink.
type Sink[T any] interface {
	Update(T)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc[T any] func(T)

// Update calls f(v).
func (f SinkFunc[T]) Update(v T) { f(v) }

// FaultHandler is called when a transform or sink fails.
type FaultHandler func(l *Link, err error)

// Option configures a Link.
type Option func(*Link)

// WithName labels the Link for diagnostics.
func WithName(name string) Option {
	return func(l *Link) { l.name = name }
}

// WithFaultHandler overrides the default fault handler, which logs through
// slog.Default.
func WithFaultHandler(h FaultHandler) Option {
	return func(l *Link) { l.onFault = h }
}

// Link is a live subscription from a source to a sink.
type Link struct {
	mu  sync.Mutex
	sub device.Subscription

	name     string
	disposed atomic.Bool
	faults   atomic.Uint64
	onFault  FaultHandler
}

// Name returns the diagnostic name of the Link.
func (l *Link) Name() string {
	return l.name
}

// Active reports whether the Link still delivers values.
func (l *Link) Active() bool {
	return !l.disposed.Load()
}

// Faults returns the number of contained faults.
func (l *Link) Faults() uint64 {
	return l.faults.Load()
}

// Dispose severs the Link permanently. Dispose is idempotent.
func (l *Link) Dispose() {
	if l.disposed.Swap(true) {
		return
	}
	l.mu.Lock()
	sub := l.sub
	l.sub = nil
	l.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

// String implements fmt.Stringer.
func (l *Link) String() string {
	if l.name == "" {
		return "link"
	}
	return "link " + l.name
}

// deliver runs fn with panics converted to faults.
func (l *Link) deliver(fn func() error) {
	if l.disposed.Load() {
		return
	}
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		return fn()
	}()
	if err != nil {
		l.faults.Add(1)
		l.onFault(l, err)
	}
}

func defaultFaultHandler(l *Link, err error) {
	slog.Default().Error("link fault contained", "link", l.Name(), "error", err)
}

func newLink(opts []Option) *Link {
	l := &Link{onFault: defaultFaultHandler}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Pipe is a source with a pending transform, waiting for a sink.
type Pipe[T, U any] struct {
	source    device.Stream[T]
	transform func(T) (U, error)
}

// Map starts a Pipe that transforms every value of source with fn.
func Map[T, U any](source device.Stream[T], fn func(T) U) *Pipe[T, U] {
	return &Pipe[T, U]{
		source:    source,
		transform: func(v T) (U, error) { return fn(v), nil },
	}
}

// TryMap starts a Pipe whose transform may fail. A failed transform is a
// contained fault; nothing is delivered for that value.
func TryMap[T, U any](source device.Stream[T], fn func(T) (U, error)) *Pipe[T, U] {
	return &Pipe[T, U]{source: source, transform: fn}
}

// Direct starts a Pipe that passes values through unchanged.
func Direct[T any](source device.Stream[T]) *Pipe[T, T] {
	return &Pipe[T, T]{
		source:    source,
		transform: func(v T) (T, error) { return v, nil },
	}
}

// Into activates the Pipe by subscribing to its source and returns the Link.
func (p *Pipe[T, U]) Into(sink Sink[U], opts ...Option) *Link {
	l := newLink(opts)
	sub := p.source.Subscribe(func(v T) {
		l.deliver(func() error {
			out, err := p.transform(v)
			if err != nil {
				return fmt.Errorf("transform: %w", err)
			}
			sink.Update(out)
			return nil
		})
	})

	l.mu.Lock()
	l.sub = sub
	l.mu.Unlock()
	return l
}

// Do activates the Pipe with a side-effecting sink function.
func (p *Pipe[T, U]) Do(fn func(U), opts ...Option) *Link {
	return p.Into(SinkFunc[U](fn), opts...)
}

// New creates and activates a Link from source through fn into sink.
func New[T, U any](source device.Stream[T], fn func(T) U, sink Sink[U], opts ...Option) *Link {
	return Map(source, fn).Into(sink, opts...)
}
