package jobx

import (
	"errors"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
)

var jobxErrors = errx.NewRegistry("JOBX")

var (
	ErrJobNotFound      = jobxErrors.Register("JOB_NOT_FOUND", errx.TypeNotFound, 404, "Job not found")
	ErrJobExists        = jobxErrors.Register("JOB_EXISTS", errx.TypeConflict, 409, "Job with the same id already exists")
	ErrEnqueueFailed    = jobxErrors.Register("ENQUEUE_FAILED", errx.TypeExternal, 502, "Failed to enqueue job")
	ErrQueueUnavailable = jobxErrors.Register("QUEUE_UNAVAILABLE", errx.TypeExternal, 503, "Queue backend is unavailable")
	ErrInvalidJob       = jobxErrors.Register("INVALID_JOB", errx.TypeValidation, 400, "Invalid job definition")
	ErrInvalidPayload   = jobxErrors.Register("INVALID_PAYLOAD", errx.TypeValidation, 400, "Job payload cannot be decoded")
	ErrNoHandler        = jobxErrors.Register("NO_HANDLER", errx.TypeValidation, 400, "No handler registered for job name")
	ErrJobFailed        = jobxErrors.Register("JOB_FAILED", errx.TypeExternal, 500, "Job failed")
	ErrJobStalled       = jobxErrors.Register("JOB_STALLED", errx.TypeInternal, 500, "Job stalled more than allowable limit")
	ErrAlreadyRunning   = jobxErrors.Register("ALREADY_RUNNING", errx.TypeConflict, 409, "Worker is already running")
	ErrAwaitTimeout     = jobxErrors.Register("AWAIT_TIMEOUT", errx.TypeExternal, 504, "Timed out waiting for job result")
	ErrLockLost         = jobxErrors.Register("LOCK_LOST", errx.TypeConflict, 409, "Job lease is no longer held by this worker")
)

// unrecoverableError marks a failure that must not be retried.
type unrecoverableError struct {
	err error
}

func (e *unrecoverableError) Error() string { return "unrecoverable: " + e.err.Error() }
func (e *unrecoverableError) Unwrap() error { return e.err }

// Unrecoverable marks err so the worker fails the job without further
// attempts, regardless of the attempts left.
func Unrecoverable(err error) error {
	if err == nil {
		return nil
	}
	return &unrecoverableError{err: err}
}

// IsUnrecoverable reports whether err or any error it wraps was marked with
// Unrecoverable.
func IsUnrecoverable(err error) bool {
	var u *unrecoverableError
	return errors.As(err, &u)
}

// NewError builds a JOBX coded error. Backends use it for the codes the
// client inspects (ErrJobNotFound, ErrJobExists, ErrQueueUnavailable).
func NewError(code *errx.ErrorCode, cause error) *errx.Error {
	if cause == nil {
		return jobxErrors.New(code)
	}
	return jobxErrors.NewWithCause(code, cause)
}
