package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// writeBack is a single deferred store write.
type writeBack struct {
	label string
	run   func(context.Context) error
}

// WriteBackQueue executes fire-and-forget store writes (hwid binds,
// last_seen stamps) off the request path. Failures are logged and
// swallowed; callers never learn about them. A full queue drops the write,
// which is acceptable under the best-effort contract.
type WriteBackQueue struct {
	tasks    chan writeBack
	workers  int
	timeout  time.Duration
	wg       sync.WaitGroup
	logger   *slog.Logger
	shutdown chan struct{}
	stopOnce sync.Once
}

// NewWriteBackQueue creates a write-back queue with the given worker count.
func NewWriteBackQueue(workers int, timeout time.Duration, logger *slog.Logger) *WriteBackQueue {
	if workers <= 0 {
		workers = 2
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &WriteBackQueue{
		tasks:    make(chan writeBack, workers*16),
		workers:  workers,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "writeback")),
		shutdown: make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (q *WriteBackQueue) Start(ctx context.Context) {
	q.logger.Info("starting write-back queue", slog.Int("workers", q.workers))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

// Stop signals shutdown and waits for in-flight writes up to timeout.
func (q *WriteBackQueue) Stop(timeout time.Duration) error {
	q.logger.Info("stopping write-back queue")

	q.stopOnce.Do(func() {
		close(q.shutdown)
	})

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("write-back queue stopped")
		return nil
	case <-time.After(timeout):
		q.logger.Warn("write-back queue stop timeout exceeded")
		return fmt.Errorf("timeout waiting for write-back workers")
	}
}

// Submit enqueues a deferred write. It never blocks; a full queue drops
// the task and reports false.
func (q *WriteBackQueue) Submit(label string, fn func(context.Context) error) bool {
	select {
	case q.tasks <- writeBack{label: label, run: fn}:
		return true
	default:
		q.logger.Warn("write-back dropped, queue full", slog.String("label", label))
		return false
	}
}

// Pending returns the number of queued writes.
func (q *WriteBackQueue) Pending() int {
	return len(q.tasks)
}

func (q *WriteBackQueue) worker(ctx context.Context, workerID int) {
	defer q.wg.Done()

	logger := q.logger.With(slog.Int("worker_id", workerID))
	logger.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopped by context")
			return
		case <-q.shutdown:
			// Drain what is already queued before exiting
			for {
				select {
				case task := <-q.tasks:
					q.execute(ctx, task, logger)
				default:
					logger.Debug("worker stopped by shutdown")
					return
				}
			}
		case task := <-q.tasks:
			q.execute(ctx, task, logger)
		}
	}
}

func (q *WriteBackQueue) execute(ctx context.Context, task writeBack, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("write-back panicked",
				slog.String("label", task.label),
				slog.Any("panic", r))
		}
	}()

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.timeout)
	defer cancel()

	if err := task.run(writeCtx); err != nil {
		logger.Warn("write-back failed",
			slog.String("label", task.label),
			slog.String("error", err.Error()))
	}
}
