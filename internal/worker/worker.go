package worker

import (
	"context"
	"errors"
	"sync"
)

type Job interface{}

type ProcessFunc func(ctx context.Context, job Job) error

// ErrPoolStopped is returned by Submit once Stop has been called.
var ErrPoolStopped = errors.New("worker pool stopped")

// WorkerPool runs a fixed number of workers over a bounded job queue. When the
// queue is full, Submit blocks until a slot frees up or its context ends.
type WorkerPool struct {
	numWorkers int
	jobs       chan Job
	processor  ProcessFunc
	wg         sync.WaitGroup

	quit     chan struct{}
	done     chan struct{}
	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
}

func NewWorkerPool(numWorkers int, bufferSize int, processor ProcessFunc) *WorkerPool {
	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan Job, bufferSize),
		processor:  processor,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}

	go func() {
		wp.wg.Wait()
		close(wp.done)
	}()
}

// Done is closed once every worker has exited, either because the Start
// context ended or because Stop drained the queue.
func (wp *WorkerPool) Done() <-chan struct{} {
	return wp.done
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			// A closed ctx can race a ready job in the select above.
			if ctx.Err() != nil {
				return
			}
			wp.processor(ctx, job)
		}
	}
}

// Submit queues job. It returns ctx.Err() if ctx ends first, or
// ErrPoolStopped if the pool is shutting down or its workers are gone.
func (wp *WorkerPool) Submit(ctx context.Context, job Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.stopped {
		return ErrPoolStopped
	}
	select {
	case <-wp.done:
		return ErrPoolStopped
	default:
	}

	select {
	case wp.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.quit:
		return ErrPoolStopped
	case <-wp.done:
		return ErrPoolStopped
	}
}

// Stop rejects new jobs, lets the workers drain what is queued and waits for
// them to exit. It is safe to call more than once.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.quit)

		wp.mu.Lock()
		wp.stopped = true
		close(wp.jobs)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}
