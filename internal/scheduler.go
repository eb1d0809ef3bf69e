package internal

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

type SchedulerOptions struct {
	// MaxConcurrent bounds tasks in flight at once.
	MaxConcurrent int
	// MinTime is the minimum spacing between two task starts.
	MinTime time.Duration
}

type SchedulerStats struct {
	Queued    int64 `json:"queued"`
	Running   int64 `json:"running"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Scheduler is the only path from command handling to the provider. Tasks get
// the ProviderAPI as an argument once admitted.
type Scheduler struct {
	provider ProviderAPI
	sem      *semaphore.Weighted
	spacing  *rate.Limiter
	logger   *Logger
	metrics  *MetricsCollector

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
	base    context.Context
	cancel  context.CancelFunc

	queued    atomic.Int64
	running   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

func NewScheduler(opts SchedulerOptions, provider ProviderAPI, logger *Logger, metrics *MetricsCollector) *Scheduler {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	limit := rate.Inf
	if opts.MinTime > 0 {
		limit = rate.Every(opts.MinTime)
	}

	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		provider: provider,
		sem:      semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		spacing:  rate.NewLimiter(limit, 1),
		logger:   logger,
		metrics:  metrics,
		base:     base,
		cancel:   cancel,
	}
}

// Future is the eventual result of a submitted task. It settles exactly once.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) settle(v T, err error) {
	f.once.Do(func() {
		f.val = v
		f.err = err
		close(f.done)
	})
}

func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task settles or ctx ends. Giving up on the wait does
// not cancel the task.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit queues task and returns immediately. A failing or panicking task
// settles only its own future.
func Submit[T any](ctx context.Context, s *Scheduler, task func(context.Context, ProviderAPI) (T, error)) *Future[T] {
	f := newFuture[T]()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		var zero T
		f.settle(zero, ErrSchedulerStopped)
		return f
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.queued.Add(1)
	go func() {
		defer s.wg.Done()
		v, err := execute(ctx, s, task)
		if err != nil {
			s.failed.Add(1)
			s.metrics.RecordTaskFailure()
		} else {
			s.completed.Add(1)
		}
		f.settle(v, err)
	}()
	return f
}

// Schedule submits task and waits for its result.
func Schedule[T any](ctx context.Context, s *Scheduler, task func(context.Context, ProviderAPI) (T, error)) (T, error) {
	return Submit(ctx, s, task).Wait(ctx)
}

func execute[T any](ctx context.Context, s *Scheduler, task func(context.Context, ProviderAPI) (T, error)) (v T, err error) {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.base, cancel)
	defer stop()

	release, err := s.admit(taskCtx)
	s.queued.Add(-1)
	if err != nil {
		return v, err
	}
	defer release()

	s.running.Add(1)
	defer s.running.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			s.logger.Error("scheduled_task_panicked").
				Component("scheduler").
				Operation("execute").
				Err(err).
				Log()
		}
	}()
	return task(taskCtx, s.provider)
}

func (s *Scheduler) admit(ctx context.Context) (func(), error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	release := func() { s.sem.Release(1) }

	if err := s.spacing.Wait(ctx); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		Queued:    s.queued.Load(),
		Running:   s.running.Load(),
		Completed: s.completed.Load(),
		Failed:    s.failed.Load(),
	}
}

// Stop rejects new work and waits for in-flight tasks. When ctx ends first the
// remaining tasks are cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}
