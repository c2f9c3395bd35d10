// Package worker persists queued ingestion jobs into the document store.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/athletix/internal/adapters/mq/queue"
	"github.com/okian/athletix/internal/domain/model"
	"github.com/okian/athletix/pkg/logger"
	"github.com/okian/athletix/pkg/metrics"
)

const defaultWorkerMultiplier = 2

// Job is what workers read off the queue.
type Job = queue.Job

// Persister stores raw documents.
type Persister interface {
	AppendGenetic(ctx context.Context, athleteID string, docs []json.RawMessage) error
	AppendBiometrics(ctx context.Context, athleteID string, docs []json.RawMessage) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// FailureHook is called after a job could not be persisted.
type FailureHook func(ctx context.Context, j Job, err error)

// Worker processes jobs until its queue closes or it is stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	persister Persister
	name      string
	onFailure FailureHook

	processed *atomic.Int64
	failed    *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, p Persister, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		persister: p,
		name:      "worker",
		processed: new(atomic.Int64),
		failed:    new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "error processing job", logger.String("job_id", j.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j Job) (err error) { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	switch j.Kind {
	case model.KindGenetic:
		err = w.persister.AppendGenetic(ctx, j.AthleteID, j.Documents)
	case model.KindBiometric:
		err = w.persister.AppendBiometrics(ctx, j.AthleteID, j.Documents)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownKind, j.Kind)
	}
	if err != nil {
		if w.onFailure != nil {
			w.onFailure(ctx, j, err)
		}
		w.failed.Add(1)
		metrics.RecordIngestError(string(j.Kind))
		return fmt.Errorf("persist job %s: %w", j.ID, err)
	}

	w.processed.Add(1)
	metrics.RecordIngestProcessed(string(j.Kind))
	w.logger.Debug(ctx, "job persisted",
		logger.String("job_id", j.ID),
		logger.String("athlete", j.AthleteID),
		logger.String("kind", string(j.Kind)),
		logger.Int("documents", len(j.Documents)),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	processed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// NewPool creates a worker pool. Options apply to every worker.
func NewPool(workerCount int, q Queue, p Persister, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, p, wopts...)
		w.processed = &pool.processed
		w.failed = &pool.failed
		pool.workers[i] = w
	}
	pool.logger = pool.workers[0].logger
	metrics.UpdateWorkerCount(0)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of persisted jobs.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Failed returns the number of jobs that failed to persist.
func (p *Pool) Failed() int64 { return p.failed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerCount(len(p.workers))
}

// Shutdown closes the queue and waits for the workers to drain it. Workers
// still busy when ctx expires are stopped without draining.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	defer metrics.UpdateWorkerCount(0)

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			for _, rest := range p.workers[i:] {
				rest.shutdownOnce.Do(func() { close(rest.shutdown) })
			}
			return fmt.Errorf("pool shutdown: %w", ctx.Err())
		}
	}
	return nil
}
