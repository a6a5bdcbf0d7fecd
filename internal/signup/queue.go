package signup

import (
	"context"
	"io"

	"github.com/mr1hm/go-disaster-feed/internal/worker"
)

type uploadJob struct {
	ctx      context.Context
	filename string
	r        io.Reader
	result   chan uploadResult
}

type uploadResult struct {
	url string
	err error
}

// QueuedUploader funnels uploads through a fixed-size worker pool so the
// asset host never sees more than a handful of concurrent requests.
type QueuedUploader struct {
	inner ImageUploader
	pool  *worker.WorkerPool
}

func NewQueuedUploader(inner ImageUploader, workers, bufferSize int) *QueuedUploader {
	q := &QueuedUploader{inner: inner}
	q.pool = worker.NewWorkerPool(workers, bufferSize, q.process)
	return q
}

func (q *QueuedUploader) Start(ctx context.Context) {
	q.pool.Start(ctx)
}

func (q *QueuedUploader) Stop() {
	q.pool.Stop()
}

func (q *QueuedUploader) process(_ context.Context, j worker.Job) error {
	job := j.(*uploadJob)

	// The caller already gave up.
	if err := job.ctx.Err(); err != nil {
		job.result <- uploadResult{err: err}
		return err
	}

	url, err := q.inner.Upload(job.ctx, job.filename, job.r)
	job.result <- uploadResult{url: url, err: err}
	return err
}

// Upload queues the image and waits for its worker to finish or for ctx to
// end. Once the pool's workers have exited it fails with
// worker.ErrPoolStopped instead of waiting on a job nobody will run.
func (q *QueuedUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	job := &uploadJob{
		ctx:      ctx,
		filename: filename,
		r:        r,
		result:   make(chan uploadResult, 1),
	}
	if err := q.pool.Submit(ctx, job); err != nil {
		return "", err
	}

	select {
	case res := <-job.result:
		return res.url, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-q.pool.Done():
		select {
		case res := <-job.result:
			return res.url, res.err
		default:
			return "", worker.ErrPoolStopped
		}
	}
}
