package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/standalonetc/teleop/pkg/wire"
)

// DefaultCapacity is the Queue capacity used when none is configured.
const DefaultCapacity = 64

// ErrClosed is returned by a Queue after Close.
var ErrClosed = errors.New("telemetry queue closed")

// Policy decides what Push does when the Queue is full.
type Policy uint8

const (
	// DropOldest discards the oldest queued packet to make room.
	DropOldest Policy = iota

	// Block waits for room or for the context to end.
	Block
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case DropOldest:
		return "drop-oldest"
	case Block:
		return "block"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// ParsePolicy parses a policy name as produced by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drop-oldest", "drop_oldest", "dropoldest":
		return DropOldest, nil
	case "block":
		return Block, nil
	default:
		return 0, fmt.Errorf("unknown queue policy %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Queue is a bounded FIFO of packets between the control loop and the
// Worker. It supports one producer and any number of consumers.
type Queue struct {
	ch      chan wire.Packet
	policy  Policy
	dropped atomic.Uint64

	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a Queue. A non-positive capacity uses DefaultCapacity.
func NewQueue(capacity int, policy Policy) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		ch:     make(chan wire.Packet, capacity),
		policy: policy,
		done:   make(chan struct{}),
	}
}

// Policy returns the full-queue policy.
func (q *Queue) Policy() Policy {
	return q.policy
}

// Len returns the number of queued packets.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// Dropped returns the number of packets discarded by DropOldest.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Push enqueues p according to the policy. ctx bounds the wait of a
// blocking Push.
func (q *Queue) Push(ctx context.Context, p wire.Packet) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	if q.policy == Block {
		select {
		case q.ch <- p:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return ErrClosed
		}
	}

	for {
		select {
		case q.ch <- p:
			return nil
		default:
		}
		select {
		case <-q.ch:
			q.dropped.Add(1)
		default:
		}
	}
}

// Pop dequeues the oldest packet, waiting until one is available. After
// Close it returns the remaining packets, then ErrClosed.
func (q *Queue) Pop(ctx context.Context) (wire.Packet, error) {
	select {
	case p := <-q.ch:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.done:
		select {
		case p := <-q.ch:
			return p, nil
		default:
			return nil, ErrClosed
		}
	}
}

// Close stops the Queue from accepting packets. Close is idempotent.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
