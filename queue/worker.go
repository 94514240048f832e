// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	defaultConcurrency   = 4
	defaultPollInterval  = time.Second
	defaultSweepInterval = time.Hour
)

// Handler processes one claimed job. A nil return marks the job succeeded;
// an error schedules a retry or, once attempts are exhausted, fails it.
type Handler func(ctx context.Context, job *Job) error

// Worker polls one queue and runs claimed jobs on a bounded goroutine pool.
type Worker struct {
	store   *Store
	queue   string
	handler Handler

	pool          *ants.Pool
	pollInterval  time.Duration
	sweepInterval time.Duration
	logger        *slog.Logger

	wg sync.WaitGroup
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker) error

// WithWorkerLogger sets a custom logger.
// Default is slog.Default().
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// WithConcurrency sets the number of jobs processed in parallel.
// Default is 4.
func WithConcurrency(n int) WorkerOption {
	return func(w *Worker) error {
		if n > 0 {
			pool, err := ants.NewPool(n)
			if err != nil {
				return err
			}
			w.pool.Release()
			w.pool = pool
		}
		return nil
	}
}

// WithPollInterval sets how often the queue is polled when idle.
// Default is 1s.
func WithPollInterval(interval time.Duration) WorkerOption {
	return func(w *Worker) error {
		if interval > 0 {
			w.pollInterval = interval
		}
		return nil
	}
}

// WithSweepInterval sets how often terminal jobs are pruned.
// Default is 1h.
func WithSweepInterval(interval time.Duration) WorkerOption {
	return func(w *Worker) error {
		if interval > 0 {
			w.sweepInterval = interval
		}
		return nil
	}
}

// NewWorker creates a worker for one queue.
func NewWorker(store *Store, queue string, handler Handler, opts ...WorkerOption) (*Worker, error) {
	if store == nil {
		return nil, ErrBackendRequired
	}
	if queue == "" {
		return nil, ErrQueueNameRequired
	}
	if handler == nil {
		return nil, ErrHandlerRequired
	}

	pool, err := ants.NewPool(defaultConcurrency)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		store:         store,
		queue:         queue,
		handler:       handler,
		pool:          pool,
		pollInterval:  defaultPollInterval,
		sweepInterval: defaultSweepInterval,
		logger:        slog.Default().With("component", "worker", "queue", queue),
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			pool.Release()
			return nil, err
		}
	}
	return w, nil
}

// Run polls the queue until the context is cancelled, then waits for
// in-flight jobs to finish.
func (w *Worker) Run(ctx context.Context) error {
	defer w.pool.Release()

	poll := time.NewTicker(w.pollInterval)
	defer poll.Stop()
	sweep := time.NewTicker(w.sweepInterval)
	defer sweep.Stop()

	w.logger.Info("worker started", "concurrency", w.pool.Cap())

	for {
		w.drain(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping, waiting for in-flight jobs")
			w.wg.Wait()
			return nil
		case <-poll.C:
		case <-sweep.C:
			if _, err := w.store.Sweep(ctx); err != nil {
				w.logger.Error("retention sweep failed", "err", err)
			}
		}
	}
}

// drain claims runnable jobs until the queue is empty. Submit blocks while
// the pool is saturated, so claiming paces itself to the workers.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		job, err := w.store.Claim(ctx, w.queue)
		if err != nil {
			w.logger.Error("claiming job failed", "err", err)
			return
		}
		if job == nil {
			return
		}

		w.wg.Add(1)
		err = w.pool.Submit(func() {
			defer w.wg.Done()
			w.execute(ctx, job)
		})
		if err != nil {
			w.wg.Done()
			w.logger.Error("submitting job failed", "jobId", job.ID, "err", err)
			return
		}
	}
}

func (w *Worker) execute(ctx context.Context, job *Job) {
	w.logger.Info("job started", "jobId", job.ID, "attempt", job.Attempts)

	err := w.handler(ctx, job)
	if _, cerr := w.store.Complete(ctx, job, err); cerr != nil {
		w.logger.Error("recording job outcome failed", "jobId", job.ID, "err", cerr)
	}
}
