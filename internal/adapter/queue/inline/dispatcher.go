// Package inline dispatches email jobs in-process when no broker is configured.
package inline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/fairyhunter13/authentyc-landing/internal/adapter/observability"
	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

const jobTypeEmail = "email"

// ErrClosed is returned by EnqueueEmail after Close.
var ErrClosed = errors.New("dispatcher closed")

// Handler delivers the email of one job.
type Handler interface {
	HandleEmail(ctx context.Context, payload domain.EmailTaskPayload) error
}

// Dispatcher runs each job on its own goroutine, bounded by a semaphore.
// It implements domain.EmailQueue.
type Dispatcher struct {
	handler Handler
	sem     chan struct{}

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a dispatcher running at most concurrency jobs at once.
func New(h Handler, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{handler: h, sem: make(chan struct{}, concurrency), ctx: ctx, cancel: cancel}
}

// EnqueueEmail schedules payload and returns immediately. The job does not
// inherit ctx cancellation, only its values.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload domain.EmailTaskPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.wg.Add(1)
	observability.EnqueueJob(jobTypeEmail)

	jobCtx := context.WithoutCancel(ctx)
	go func() {
		defer d.wg.Done()
		select {
		case d.sem <- struct{}{}:
		case <-d.ctx.Done():
			return
		}
		defer func() { <-d.sem }()
		d.run(jobCtx, payload)
	}()
	return nil
}

func (d *Dispatcher) run(ctx context.Context, payload domain.EmailTaskPayload) {
	defer func() {
		if r := recover(); r != nil {
			observability.FailJob(jobTypeEmail)
			slog.Error("email job panicked", slog.String("job_id", payload.JobID), slog.Any("panic", r))
		}
	}()
	observability.StartProcessingJob(jobTypeEmail)
	if err := d.handler.HandleEmail(ctx, payload); err != nil {
		observability.FailJob(jobTypeEmail)
		slog.Error("email job failed", slog.String("job_id", payload.JobID), slog.Any("error", err))
		return
	}
	observability.CompleteJob(jobTypeEmail)
}

// Close stops accepting jobs and waits for running ones. Jobs still waiting
// for a slot are dropped when ctx ends first.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
