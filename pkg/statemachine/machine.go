// Package statemachine provides the guarded state machine and the counted
// action used by actuator subsystems.
//
// State is always a single enumerated value held in a Device, so exactly
// one state is active at a time. Transitions are requested, not forced:
// any Guard may veto a request, and a vetoed request is a silent no-op.
package statemachine

import (
	"fmt"
	"sync/atomic"

	"github.com/standalonetc/teleop/pkg/device"
	"github.com/standalonetc/teleop/pkg/link"
)

// Observable is the type-erased view of a state machine used for logging
// and display.
type Observable interface {
	Name() string
	// Current returns the current state formatted by fmt.Sprint.
	Current() string
	// Observe calls fn for every change of state, with both states
	// formatted by fmt.Sprint. fn runs inside a Link, so a panic in fn is
	// a contained fault.
	Observe(fn func(from, to string), opts ...link.Option) *link.Link
}

// Guard reports whether the transition from → to must be vetoed.
type Guard[S comparable] func(from, to S) bool

// Locked returns a Guard that vetoes every state change while lock holds
// true. Requests for the current state pass.
func Locked[S comparable](lock *device.Device[bool]) Guard[S] {
	return func(from, to S) bool {
		return from != to && lock.Read()
	}
}

// Machine is an enumerated state guarded by zero or more Guards.
type Machine[S comparable] struct {
	state    *device.Device[S]
	guards   []Guard[S]
	rejected atomic.Uint64
}

// New creates a Machine in the initial state.
func New[S comparable](name string, initial S, guards ...Guard[S]) *Machine[S] {
	return &Machine[S]{
		state:  device.New(name, initial),
		guards: guards,
	}
}

// Name returns the name of the state Device.
func (m *Machine[S]) Name() string {
	return m.state.Name()
}

// State returns the Device holding the current state. Subscribe to it to
// observe transitions; write to it only through Request.
func (m *Machine[S]) State() *device.Device[S] {
	return m.state
}

// Read returns the current state.
func (m *Machine[S]) Read() S {
	return m.state.Read()
}

// AddGuard appends a Guard. Guards are evaluated in the order added.
func (m *Machine[S]) AddGuard(g Guard[S]) {
	m.guards = append(m.guards, g)
}

// Request applies candidate unless a Guard vetoes it. It returns false for
// a vetoed request, which leaves the state unchanged.
func (m *Machine[S]) Request(candidate S) bool {
	current := m.state.Read()
	for _, veto := range m.guards {
		if veto(current, candidate) {
			m.rejected.Add(1)
			return false
		}
	}
	m.state.Update(candidate)
	return true
}

// Update implements link.Sink by calling Request.
func (m *Machine[S]) Update(candidate S) {
	m.Request(candidate)
}

// Rejected returns the number of vetoed requests.
func (m *Machine[S]) Rejected() uint64 {
	return m.rejected.Load()
}

// Current implements Observable.
func (m *Machine[S]) Current() string {
	return fmt.Sprint(m.Read())
}

// Observe implements Observable. Requests for the current state are not
// reported.
func (m *Machine[S]) Observe(fn func(from, to string), opts ...link.Option) *link.Link {
	return observe[S](m.state, fn, opts)
}

func observe[S comparable](d *device.Device[S], fn func(from, to string), opts []link.Option) *link.Link {
	prev := d.Read()
	return link.Direct[S](d).Do(func(next S) {
		if next == prev {
			return
		}
		from := prev
		prev = next
		fn(fmt.Sprint(from), fmt.Sprint(next))
	}, opts...)
}
