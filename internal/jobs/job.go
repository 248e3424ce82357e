// Package jobs tracks asynchronous site generation jobs.
//
// A Tracker owns every Job record. Work is handed to it as a Workflow, which
// runs in its own goroutine and reports progress through an Updater; callers
// only ever see snapshots.
package jobs

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned for an unknown job ID.
	ErrNotFound = errors.New("job not found")

	// ErrTerminal is returned when scheduling a job that already finished.
	ErrTerminal = errors.New("job already finished")

	// ErrScheduled is returned when scheduling a job that is already running.
	ErrScheduled = errors.New("job already scheduled")

	// ErrClosed is returned once the tracker is shutting down.
	ErrClosed = errors.New("job tracker closed")
)

// Status is the lifecycle state of a job.
type Status string

// Job statuses.
const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether s is completed or failed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Messages set by the tracker itself.
const (
	QueuedMessage    = "Job queued"
	CompletedMessage = "Site generation completed successfully"
)

// Job is a snapshot of a job record.
type Job struct {
	ID       string `json:"job_id"`
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	// Result is set only once the job completed.
	Result any `json:"result,omitempty"`
	// PartialResult is whatever a failed workflow had produced.
	PartialResult any       `json:"partial_result,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Updater reports progress for a running job. Decreasing progress values and
// updates after the job finished are ignored.
type Updater interface {
	Update(progress int, message string)
}

// UpdaterFunc adapts a function to Updater.
type UpdaterFunc func(progress int, message string)

// Update calls f(progress, message).
func (f UpdaterFunc) Update(progress int, message string) { f(progress, message) }

// Workflow is the unit of work scheduled for a job. The returned value
// becomes the job result.
type Workflow func(ctx context.Context, u Updater) (any, error)

// ResultError is a workflow error that carries the partial result produced
// before the failure.
type ResultError struct {
	Err    error
	Result any
}

func (e *ResultError) Error() string { return e.Err.Error() }

func (e *ResultError) Unwrap() error { return e.Err }

// WithResult attaches a partial result to err.
func WithResult(err error, result any) error {
	if err == nil {
		return nil
	}
	return &ResultError{Err: err, Result: result}
}

// partialResult extracts the result attached by WithResult, if any.
func partialResult(err error) any {
	var re *ResultError
	if errors.As(err, &re) {
		return re.Result
	}
	return nil
}
