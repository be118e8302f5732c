package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrDuplicate is returned by Enqueue when a job with the same key is still queued, running or
// waiting for a retry.
var ErrDuplicate = errors.New("job already in flight")

// ErrUnknownType is the permanent failure of a job whose type has no registered handler.
var ErrUnknownType = errors.New("no handler for job type")

// Job is one unit of background work. Key identifies the logical operation (for example the
// fiscal year of a rollover) so the same operation is never in flight twice.
type Job struct {
	ID       string
	Type     string
	Key      string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

func (j Job) fields(queue string) []zap.Field {
	return []zap.Field{
		zap.String("queue", queue),
		zap.String("job_id", j.ID),
		zap.String("job_type", j.Type),
		zap.String("job_key", j.Key),
		zap.Int("attempt", j.Attempt),
	}
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// FailureHook observes a job that will not be retried again.
type FailureHook func(Job, error)

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// QueueConfig configures the worker pool. RetryDelay doubles per attempt up to MaxRetryDelay;
// JobTimeout bounds a single attempt.
type QueueConfig struct {
	Workers       int
	BufferSize    int
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	JobTimeout    time.Duration
	Logger        *zap.Logger
	OnFailure     FailureHook
}

// Queue dispatches jobs to the handler registered for their type on a small goroutine pool.
type Queue struct {
	name string
	cfg  QueueConfig

	handlers map[string]Handler
	inFlight map[string]struct{}

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a queue. Register handlers with Handle before Start.
func NewQueue(name string, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = cfg.RetryDelay * 16
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:     name,
		cfg:      cfg,
		handlers: make(map[string]Handler),
		inFlight: make(map[string]struct{}),
		jobs:     make(chan Job, cfg.BufferSize),
	}
}

// Handle registers the handler for jobType, replacing any earlier one.
func (q *Queue) Handle(jobType string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = h
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	types := make([]string, 0, len(q.handlers))
	for t := range q.handlers {
		types = append(types, t)
	}
	q.cfg.Logger.Info("job queue started",
		zap.String("queue", q.name),
		zap.Int("workers", q.cfg.Workers),
		zap.Strings("job_types", types),
	)
}

// Stop cancels workers and waits for running attempts to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.cfg.Logger.Info("job queue stopped", zap.String("queue", q.name))
}

// Enqueue pushes a new job. It fails with ErrDuplicate while a job with the same non-empty
// key is in flight.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return fmt.Errorf("queue %s not started", q.name)
	}
	if job.Key != "" {
		if _, busy := q.inFlight[job.Key]; busy {
			q.mu.Unlock()
			return fmt.Errorf("%s %q: %w", job.Type, job.Key, ErrDuplicate)
		}
		q.inFlight[job.Key] = struct{}{}
	}
	ctx := q.ctx
	q.mu.Unlock()

	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	if err := q.push(ctx, job); err != nil {
		q.release(job)
		return err
	}
	q.cfg.Logger.Debug("job enqueued", job.fields(q.name)...)
	return nil
}

func (q *Queue) push(ctx context.Context, job Job) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) release(job Job) {
	if job.Key == "" {
		return
	}
	q.mu.Lock()
	delete(q.inFlight, job.Key)
	q.mu.Unlock()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

func (q *Queue) run(job Job) {
	q.mu.Lock()
	handler, ok := q.handlers[job.Type]
	q.mu.Unlock()
	if !ok {
		q.giveUp(job, Permanent(fmt.Errorf("%w %q", ErrUnknownType, job.Type)))
		return
	}

	ctx := q.ctx
	if q.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(q.ctx, q.cfg.JobTimeout)
		defer cancel()
	}
	start := time.Now()
	err := handler(ctx, job)
	elapsed := time.Since(start)
	if err == nil {
		q.release(job)
		q.cfg.Logger.Info("job completed", append(job.fields(q.name), zap.Duration("elapsed", elapsed))...)
		return
	}
	if IsPermanent(err) {
		q.giveUp(job, err)
		return
	}

	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.giveUp(job, err)
		return
	}
	delay := q.backoff(job.Attempt)
	q.cfg.Logger.Warn("job attempt failed, retrying",
		append(job.fields(q.name), zap.Duration("elapsed", elapsed), zap.Duration("retry_in", delay), zap.Error(err))...)
	q.wg.Add(1)
	go q.retry(job, delay)
}

func (q *Queue) retry(job Job, delay time.Duration) {
	defer q.wg.Done()
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-q.ctx.Done():
		q.release(job)
	case <-timer.C:
		if err := q.push(q.ctx, job); err != nil {
			q.release(job)
			q.cfg.Logger.Error("job requeue failed", append(job.fields(q.name), zap.Error(err))...)
		}
	}
}

// backoff returns RetryDelay * 2^(attempt-1), capped at MaxRetryDelay.
func (q *Queue) backoff(attempt int) time.Duration {
	delay := q.cfg.RetryDelay
	for i := 1; i < attempt && delay < q.cfg.MaxRetryDelay; i++ {
		delay *= 2
	}
	if delay > q.cfg.MaxRetryDelay {
		delay = q.cfg.MaxRetryDelay
	}
	return delay
}

func (q *Queue) giveUp(job Job, err error) {
	q.release(job)
	q.cfg.Logger.Error("job abandoned", append(job.fields(q.name), zap.Bool("permanent", IsPermanent(err)), zap.Error(err))...)
	if q.cfg.OnFailure != nil {
		q.cfg.OnFailure(job, err)
	}
}
