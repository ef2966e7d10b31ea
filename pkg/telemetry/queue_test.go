package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/standalonetc/teleop/pkg/log"
	"github.com/standalonetc/teleop/pkg/wire"
)

func period(n int) wire.Packet {
	return wire.OperationPeriod{Period: time.Duration(n) * time.Millisecond}
}

func TestQueueDropOldest(t *testing.T) {
	q := NewQueue(2, DropOldest)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		require.NoError(t, q.Push(ctx, period(i)))
	}
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, uint64(2), q.Dropped())

	p, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, period(3), p, "oldest packets are discarded first")
	p, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, period(4), p)
}

func TestQueueBlockWaitsForContext(t *testing.T) {
	q := NewQueue(1, Block)
	require.NoError(t, q.Push(context.Background(), period(1)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := q.Push(ctx, period(2))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, uint64(0), q.Dropped())
	assert.Equal(t, 1, q.Len())
}

func TestQueueBlockResumesWhenDrained(t *testing.T) {
	q := NewQueue(1, Block)
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, period(1)))

	done := make(chan error, 1)
	go func() { done <- q.Push(ctx, period(2)) }()

	p, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, period(1), p)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("blocked Push did not resume")
	}
}

func TestQueueClose(t *testing.T) {
	q := NewQueue(4, DropOldest)
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, period(1)))

	q.Close()
	q.Close()
	assert.ErrorIs(t, q.Push(ctx, period(2)), ErrClosed)

	p, err := q.Pop(ctx)
	require.NoError(t, err, "queued packets survive Close")
	assert.Equal(t, period(1), p)
	_, err = q.Pop(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPolicyYAML(t *testing.T) {
	var cfg struct {
		Policy Policy `yaml:"policy"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("policy: block\n"), &cfg))
	assert.Equal(t, Block, cfg.Policy)

	require.Error(t, yaml.Unmarshal([]byte("policy: sometimes\n"), &cfg))

	out, err := yaml.Marshal(struct {
		Policy Policy `yaml:"policy"`
	}{DropOldest})
	require.NoError(t, err)
	assert.Equal(t, "policy: drop-oldest\n", string(out))
}

// recordingSender collects sent packets and fails on request.
type recordingSender struct {
	mu   sync.Mutex
	got  []wire.Packet
	fail func(wire.Packet) bool
}

func (s *recordingSender) Send(p wire.Packet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil && s.fail(p) {
		return errors.New("link down")
	}
	s.got = append(s.got, p)
	return nil
}

func (s *recordingSender) packets() []wire.Packet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]wire.Packet(nil), s.got...)
}

// eventSink collects log events.
type eventSink struct {
	mu     sync.Mutex
	events []log.Event
}

func (s *eventSink) Log(e log.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *eventSink) all() []log.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]log.Event(nil), s.events...)
}

func TestWorkerRunDrainsUntilClosed(t *testing.T) {
	q := NewQueue(8, Block)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, q.Push(ctx, period(i)))
	}
	q.Close()

	sender := &recordingSender{}
	w := NewWorker(q, sender, WorkerConfig{})
	require.NoError(t, w.Run(ctx))

	assert.Equal(t, []wire.Packet{period(1), period(2), period(3)}, sender.packets())
	assert.Equal(t, uint64(3), w.Sent())
}

func TestWorkerCountsFailures(t *testing.T) {
	q := NewQueue(8, Block)
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, period(1)))
	require.NoError(t, q.Push(ctx, wire.VoltageData{Voltage: 12}))
	require.NoError(t, q.Push(ctx, period(2)))
	q.Close()

	sink := &eventSink{}
	sender := &recordingSender{fail: func(p wire.Packet) bool {
		return p.PacketType() == wire.TypeVoltageData
	}}
	w := NewWorker(q, sender, WorkerConfig{Events: log.NewRecorder(sink, "run-1")})
	require.NoError(t, w.Run(ctx))

	assert.Equal(t, uint64(2), w.Sent())
	assert.Equal(t, uint64(1), w.Failed())

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, log.CategoryFault, events[0].Category)
	assert.Equal(t, log.LayerTelemetry, events[0].Layer)
	assert.Equal(t, "run-1", events[0].RunID)
	assert.Equal(t, "link down", events[0].Fault.Message)
}

func TestWorkerStartStop(t *testing.T) {
	q := NewQueue(8, DropOldest)
	sender := &recordingSender{}
	w := NewWorker(q, sender, WorkerConfig{})

	w.Start()
	w.Start()
	require.NoError(t, q.Push(context.Background(), period(1)))

	assert.Eventually(t, func() bool { return len(sender.packets()) == 1 }, time.Second, time.Millisecond)
	w.Stop()
	w.Stop()
}
