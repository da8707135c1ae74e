// internal/services/notification_queue.go
package services

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("notification queue is full")
	ErrQueueClosed = errors.New("notification queue is closed")
)

type queuedJob struct {
	ctx context.Context
	job NotificationJob
}

// WorkerPool is the in-process NotificationQueue: a bounded channel drained
// by a fixed number of goroutines.
type WorkerPool struct {
	handle func(context.Context, NotificationJob) error
	jobs   chan queuedJob
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewWorkerPool(handle func(context.Context, NotificationJob) error, workers, size int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if size < 0 {
		size = 0
	}

	p := &WorkerPool{
		handle: handle,
		jobs:   make(chan queuedJob, size),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

// Enqueue never blocks. Jobs outlive the caller's cancellation but keep its
// trace context.
func (p *WorkerPool) Enqueue(ctx context.Context, job NotificationJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrQueueClosed
	}

	select {
	case p.jobs <- queuedJob{ctx: context.WithoutCancel(ctx), job: job}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops intake and waits for queued jobs to finish or ctx to expire.
func (p *WorkerPool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *WorkerPool) work() {
	defer p.wg.Done()
	for q := range p.jobs {
		if err := p.handle(q.ctx, q.job); err != nil {
			logrus.WithError(err).
				WithField("notification_id", q.job.NotificationID.String()).
				Debug("Notification job finished with error")
		}
	}
}
