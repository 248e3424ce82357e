package jobs

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/secrets"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configure a Tracker. Zero values are usable.
type Options struct {
	// Timeout bounds a single workflow run. Zero means no bound.
	Timeout  time.Duration
	Metrics  *Metrics
	Scrubber secrets.Scrubber
	Logger   *logging.Logger
}

type entry struct {
	job    Job
	cancel context.CancelFunc
}

// Tracker is the in-memory job registry. It is safe for concurrent use.
type Tracker struct {
	timeout  time.Duration
	metrics  *Metrics
	scrubber secrets.Scrubber
	logger   *logging.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	jobs   map[string]*entry
	order  []string
	closed bool
}

// NewTracker creates an empty registry. Workflows run under a context owned
// by the tracker and are cancelled by Close.
func NewTracker(opts Options) *Tracker {
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.Scrubber == nil {
		opts.Scrubber = &secrets.NoopScrubber{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
		scrubber: opts.Scrubber,
		logger:   opts.Logger.Named("jobs"),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		jobs:     make(map[string]*entry),
	}
}

// Create registers a new queued job and returns its ID.
func (t *Tracker) Create() string {
	id := uuid.NewString()
	now := t.now()

	t.mu.Lock()
	t.jobs[id] = &entry{job: Job{
		ID:        id,
		Status:    StatusQueued,
		Message:   QueuedMessage,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	t.order = append(t.order, id)
	t.mu.Unlock()

	t.metrics.Created.Inc()
	return id
}

// Schedule starts wf for a queued job and returns without waiting for it.
func (t *Tracker) Schedule(id string, wf Workflow) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	e, ok := t.jobs[id]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	switch {
	case e.job.Status.Terminal():
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTerminal, id)
	case e.job.Status != StatusQueued:
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrScheduled, id)
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if t.timeout > 0 {
		ctx, cancel = context.WithTimeout(t.ctx, t.timeout)
	} else {
		ctx, cancel = context.WithCancel(t.ctx)
	}
	e.cancel = cancel
	e.job.Status = StatusProcessing
	e.job.UpdatedAt = t.now()
	t.wg.Add(1)
	t.mu.Unlock()

	t.metrics.InFlight.Inc()
	go t.run(logging.WithJobID(ctx, id), cancel, id, wf)
	return nil
}

func (t *Tracker) run(ctx context.Context, cancel context.CancelFunc, id string, wf Workflow) {
	defer t.wg.Done()
	defer cancel()
	defer t.metrics.InFlight.Dec()

	start := time.Now()
	t.logger.Info(ctx, "job started")

	result, err := t.execute(ctx, id, wf)
	if err == nil && ctx.Err() != nil {
		err = WithResult(fmt.Errorf("job interrupted: %w", ctx.Err()), result)
	}
	elapsed := time.Since(start)
	t.metrics.Duration.Observe(elapsed.Seconds())

	if err != nil {
		msg := t.scrubber.Scrub(err.Error()).Scrubbed
		t.metrics.Finished.WithLabelValues(string(StatusFailed)).Inc()
		t.logger.Error(ctx, "job failed", zap.String("error", msg), zap.Duration("duration", elapsed))
		t.finish(id, func(j *Job) {
			j.Status = StatusFailed
			j.Progress = 0
			j.Message = "Error: " + msg
			j.PartialResult = partialResult(err)
		})
		return
	}

	t.metrics.Finished.WithLabelValues(string(StatusCompleted)).Inc()
	t.logger.Info(ctx, "job completed", zap.Duration("duration", elapsed))
	t.finish(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Progress = 100
		j.Message = CompletedMessage
		j.Result = result
	})
}

// execute runs wf, turning a panic into an error.
func (t *Tracker) execute(ctx context.Context, id string, wf Workflow) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error(ctx, "job panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("workflow panicked: %v", r)
		}
	}()
	return wf(ctx, UpdaterFunc(func(progress int, message string) {
		t.update(id, progress, message)
	}))
}

func (t *Tracker) update(id string, progress int, message string) {
	progress = min(max(progress, 0), 100)

	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.jobs[id]
	if !ok || e.job.Status != StatusProcessing {
		return
	}
	if progress > e.job.Progress {
		e.job.Progress = progress
	}
	if message != "" {
		e.job.Message = message
	}
	e.job.UpdatedAt = t.now()
}

func (t *Tracker) finish(id string, apply func(*Job)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.jobs[id]
	if !ok {
		return
	}
	apply(&e.job)
	e.job.UpdatedAt = t.now()
	e.cancel = nil
}

// Get returns a snapshot of the job.
func (t *Tracker) Get(id string) (Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.job, nil
}

// List returns snapshots of every job in creation order.
func (t *Tracker) List() []Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Job, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.jobs[id].job)
	}
	return out
}

// Delete removes the job, cancelling it if it is still running.
func (t *Tracker) Delete(id string) error {
	t.mu.Lock()
	e, ok := t.jobs[id]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(t.jobs, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	cancel := e.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// Close stops accepting work, cancels running jobs and waits for them to
// return or for ctx to expire.
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cancel()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}
}
