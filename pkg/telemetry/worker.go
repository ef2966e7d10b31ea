package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/standalonetc/teleop/pkg/log"
)

// WorkerConfig configures a Worker.
type WorkerConfig struct {
	// Logger receives send failures. Nil uses slog.Default.
	Logger *slog.Logger

	// Events receives send failures as fault events. May be nil.
	Events *log.Recorder
}

// Worker drains a Queue into a Sender on its own goroutine. A failed send
// is logged and counted; the Worker moves on to the next packet.
type Worker struct {
	queue  *Queue
	sender Sender
	logger *slog.Logger
	events *log.Recorder

	sent   atomic.Uint64
	failed atomic.Uint64

	// Background processing
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorker creates a Worker draining q into s.
func NewWorker(q *Queue, s Sender, cfg WorkerConfig) *Worker {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Worker{
		queue:  q,
		sender: s,
		logger: cfg.Logger,
		events: cfg.Events,
	}
}

// Start runs the Worker in the background until Stop.
func (w *Worker) Start() {
	if w.running.Swap(true) {
		return
	}

	var ctx context.Context
	ctx, w.cancel = context.WithCancel(context.Background())
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		_ = w.Run(ctx)
	}()
}

// Stop ends background processing started by Start and waits for it.
func (w *Worker) Stop() {
	if !w.running.Swap(false) {
		return
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// Run drains the Queue until ctx ends or the Queue is closed and empty.
// Both are a clean shutdown and return nil.
func (w *Worker) Run(ctx context.Context) error {
	for {
		p, err := w.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := w.sender.Send(p); err != nil {
			n := w.failed.Add(1)
			w.logger.Warn("telemetry send failed", "type", p.PacketType(), "failures", n, "error", err)
			w.events.Fault(log.LayerTelemetry, "telemetry", err, n)
			continue
		}
		w.sent.Add(1)
	}
}

// Sent returns the number of packets delivered.
func (w *Worker) Sent() uint64 {
	return w.sent.Load()
}

// Failed returns the number of failed sends.
func (w *Worker) Failed() uint64 {
	return w.failed.Load()
}
