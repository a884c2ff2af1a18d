package jobx

import (
	"encoding/json"
	"time"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusWaiting   JobStatus = "waiting"
	JobStatusDelayed   JobStatus = "delayed"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further attempt will be made.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is a unit of queued work. The queue owns its scheduling state; a
// worker only reads it for the duration of a claim.
type Job struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Queue   string          `json:"queue"`
	Payload json.RawMessage `json:"payload"`
	Status  JobStatus       `json:"status"`

	AttemptsMade int     `json:"attempts_made"`
	MaxAttempts  int     `json:"max_attempts"`
	Priority     int     `json:"priority"`
	Backoff      Backoff `json:"backoff"`

	// Repeat is the calendar expression of a repeatable job, empty otherwise.
	Repeat string `json:"repeat,omitempty"`

	FailedReason string          `json:"failed_reason,omitempty"`
	Stacktrace   []string        `json:"stacktrace,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`

	EnqueuedAt time.Time  `json:"enqueued_at"`
	ReadyAt    time.Time  `json:"ready_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// LockToken identifies the current claim. State transitions by a worker
	// whose token no longer matches are rejected with ErrLockLost.
	LockToken string `json:"-"`
}

// Decode unmarshals the payload into v.
func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return jobxErrors.NewWithCause(ErrInvalidPayload, err).
			WithDetail("job_id", j.ID).
			WithDetail("job_name", j.Name)
	}
	return nil
}

// SetResult stores v as the job return value, readable by result waiters
// once the job completes.
func (j *Job) SetResult(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return jobxErrors.NewWithCause(ErrInvalidPayload, err).WithDetail("job_id", j.ID)
	}
	j.Result = data
	return nil
}

// DecodeResult unmarshals the stored result into v.
func (j *Job) DecodeResult(v any) error {
	if len(j.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(j.Result, v); err != nil {
		return jobxErrors.NewWithCause(ErrInvalidPayload, err).WithDetail("job_id", j.ID)
	}
	return nil
}

// Delay is the time between enqueue and first availability.
func (j *Job) Delay() time.Duration {
	if j.ReadyAt.After(j.EnqueuedAt) {
		return j.ReadyAt.Sub(j.EnqueuedAt)
	}
	return 0
}

// Exhausted reports whether the current attempt is the last one allowed.
func (j *Job) Exhausted() bool {
	return j.AttemptsMade >= j.MaxAttempts
}

// EventKind is a job lifecycle signal.
type EventKind string

const (
	EventActive    EventKind = "active"
	EventProgress  EventKind = "progress"
	EventStalled   EventKind = "stalled"
	EventRetrying  EventKind = "retrying"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// Event is published for every lifecycle transition. Listeners use it for
// logging, metrics and result waiting only.
type Event struct {
	Kind         EventKind `json:"kind"`
	JobID        string    `json:"job_id"`
	Name         string    `json:"name"`
	Queue        string    `json:"queue"`
	AttemptsMade int       `json:"attempts_made"`
	Reason       string    `json:"reason,omitempty"`
	Progress     int       `json:"progress,omitempty"`
	At           time.Time `json:"at"`
}

func newEvent(kind EventKind, job *Job) Event {
	return Event{
		Kind:         kind,
		JobID:        job.ID,
		Name:         job.Name,
		Queue:        job.Queue,
		AttemptsMade: job.AttemptsMade,
		At:           time.Now().UTC(),
	}
}

// Counts is a snapshot of queue depth per state.
type Counts struct {
	Waiting int64 `json:"waiting"`
	Delayed int64 `json:"delayed"`
	Active  int64 `json:"active"`
	Failed  int64 `json:"failed"`
}
