// Package worker delivers queued alerts to notifiers.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/disasterscope/internal/domain/alert"
	"github.com/okian/disasterscope/pkg/logger"
	"github.com/okian/disasterscope/pkg/metrics"
)

const (
	defaultNotifyTimeout = 10 * time.Second
	poolShutdownTimeout  = 30 * time.Second
)

// Notifier sends an alert to one destination.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, a alert.Alert) error
}

// Queue defines how workers receive alerts.
type Queue interface {
	Dequeue(ctx context.Context) <-chan alert.Alert
}

// Worker delivers alerts until its queue is closed and drained.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown waits for the worker to finish delivering queued alerts.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker on top of a channel-backed queue.
type InMemoryWorker struct {
	queue         Queue
	notifier      Notifier
	name          string
	notifyTimeout time.Duration

	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, notifier Notifier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:         queue,
		notifier:      notifier,
		name:          "worker",
		notifyTimeout: defaultNotifyTimeout,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	alerts := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case a, ok := <-alerts:
			if !ok {
				return
			}
			if err := w.deliver(ctx, a); err != nil {
				w.logger.Error(ctx, "alert delivery failed",
					logger.String("alert_id", a.ID),
					logger.String("hazard", string(a.Hazard)),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown waits for Run to return. The caller closes the queue first.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) deliver(ctx context.Context, a alert.Alert) error { //nolint:gocritic // hugeParam: alerts travel by value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	nctx, cancel := context.WithTimeout(ctx, w.notifyTimeout)
	defer cancel()

	if err := w.notifier.Notify(nctx, a); err != nil {
		metrics.RecordAlert(metrics.AlertFailed)
		metrics.RecordErrorByComponent("worker", "notify_error")
		return fmt.Errorf("notify %s: %w", w.notifier.Name(), err)
	}
	metrics.RecordAlert(metrics.AlertDelivered)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	stopOnce sync.Once
	logger   logger.Logger
}

// NewPool creates a pool of workerCount workers. Counts below one become one.
func NewPool(workerCount int, queue Queue, notifier Notifier, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(queue, notifier, wopts...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Shutdown closes the queue and waits for the workers to drain it.
// The wait is bounded by ctx and an internal ceiling.
func (p *Pool) Shutdown(ctx context.Context) error {
	var err error
	p.stopOnce.Do(func() {
		if closer, ok := p.queue.(interface{ Close() error }); ok {
			if cerr := closer.Close(); cerr != nil {
				p.logger.Error(ctx, "error closing queue", logger.Error(cerr))
			}
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
		defer cancel()

		for i, w := range p.workers {
			if werr := w.Shutdown(shutdownCtx); werr != nil {
				p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
				err = werr
			}
		}
		metrics.UpdateWorkerActiveCount(0)
	})
	return err
}
