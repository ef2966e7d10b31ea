package device

import (
	"errors"
	"fmt"
	"sync"
)

// NoID marks a Device that has no wire identifier (e.g. gamepad channels).
const NoID = -1

// Device errors.
var (
	// ErrProducerConflict is returned by Claim when a second producer tries to
	// take ownership of a Device. It is a configuration error.
	ErrProducerConflict = errors.New("device already has a producer")

	// ErrDisposed is returned by Claim on a disposed Device.
	ErrDisposed = errors.New("device is disposed")
)

// Option configures a Device at construction.
type Option func(*options)

type options struct {
	id int
}

// WithID assigns the wire identifier of the Device.
func WithID(id uint8) Option {
	return func(o *options) { o.id = int(id) }
}

// Device is a named, typed, mutable cell that notifies its subscribers on
// every Update.
type Device[T any] struct {
	mu sync.RWMutex

	id   int
	name string

	value    T
	owner    string
	disposed bool

	subscribers []*subscriber[T]
}

// subscriber is a registered callback. cancelled is only touched under the
// owning Device's lock.
type subscriber[T any] struct {
	fn        func(T)
	cancelled bool
}

// New creates an active Device holding initial.
func New[T any](name string, initial T, opts ...Option) *Device[T] {
	o := options{id: NoID}
	for _, opt := range opts {
		opt(&o)
	}
	return &Device[T]{
		id:    o.id,
		name:  name,
		value: initial,
	}
}

// ID returns the wire identifier, or NoID.
func (d *Device[T]) ID() int {
	return d.id
}

// Name returns the logical name of the Device.
func (d *Device[T]) Name() string {
	return d.name
}

// String implements fmt.Stringer.
func (d *Device[T]) String() string {
	if d.id == NoID {
		return d.name
	}
	return fmt.Sprintf("%s#%d", d.name, d.id)
}

// Read returns the last published value.
func (d *Device[T]) Read() T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.value
}

// Update publishes value to all current subscribers, in subscription order,
// and returns once every subscriber has been called. Updates to a disposed
// Device are dropped.
func (d *Device[T]) Update(value T) {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.value = value
	subs := d.snapshot()
	d.mu.Unlock()

	d.dispatch(subs, value)
}

// Set stores value without notifying anyone. Read sees it immediately;
// subscribers see it on the next Notify. Sets on a disposed Device are
// dropped.
func (d *Device[T]) Set(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return
	}
	d.value = value
}

// Notify publishes the stored value to all current subscribers, exactly as
// Update would have.
func (d *Device[T]) Notify() {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	value := d.value
	subs := d.snapshot()
	d.mu.Unlock()

	d.dispatch(subs, value)
}

// snapshot must be called with d.mu held.
func (d *Device[T]) snapshot() []*subscriber[T] {
	subs := make([]*subscriber[T], len(d.subscribers))
	copy(subs, d.subscribers)
	return subs
}

func (d *Device[T]) dispatch(subs []*subscriber[T], value T) {
	for _, sub := range subs {
		if d.isCancelled(sub) {
			continue
		}
		sub.fn(value)
	}
}

func (d *Device[T]) isCancelled(sub *subscriber[T]) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sub.cancelled || d.disposed
}

// Subscribe registers fn for every subsequent Update. Subscribing to a
// disposed Device returns an inert Subscription.
func (d *Device[T]) Subscribe(fn func(T)) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disposed {
		return cancelFunc(func() {})
	}

	sub := &subscriber[T]{fn: fn}
	d.subscribers = append(d.subscribers, sub)

	return cancelFunc(func() { d.unsubscribe(sub) })
}

func (d *Device[T]) unsubscribe(sub *subscriber[T]) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sub.cancelled = true
	for i, s := range d.subscribers {
		if s == sub {
			d.subscribers = append(d.subscribers[:i:i], d.subscribers[i+1:]...)
			return
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (d *Device[T]) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

// Claim records owner as the single producer of the Device. Claiming again
// with the same owner is a no-op.
func (d *Device[T]) Claim(owner string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disposed {
		return fmt.Errorf("claim %s: %w", d.name, ErrDisposed)
	}
	if d.owner != "" && d.owner != owner {
		return fmt.Errorf("claim %s by %q (owned by %q): %w", d.name, owner, d.owner, ErrProducerConflict)
	}
	d.owner = owner
	return nil
}

// Owner returns the producer recorded by Claim, or "".
func (d *Device[T]) Owner() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.owner
}

// Dispose deactivates the Device permanently and drops its subscribers.
func (d *Device[T]) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.disposed = true
	for _, sub := range d.subscribers {
		sub.cancelled = true
	}
	d.subscribers = nil
}

// Disposed reports whether Dispose was called.
func (d *Device[T]) Disposed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.disposed
}

// Compile-time interface satisfaction check.
var _ Stream[bool] = (*Device[bool])(nil)
