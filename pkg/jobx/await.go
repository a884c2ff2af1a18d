package jobx

import (
	"context"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
)

// AwaitResult blocks until the job reaches a terminal state or ctx is done.
// It returns the completed job, or an ErrJobFailed error carrying the last
// failure reason when the job failed for good. Retries are waited through.
func (c *Client) AwaitResult(ctx context.Context, jobID string) (*Job, error) {
	// Subscribe before reading state so a transition between the two is not lost.
	events, unsubscribe, err := c.queue.Subscribe(ctx)
	if err != nil {
		return nil, errx.Wrap(err, "failed to subscribe to job events", errx.TypeExternal).
			WithDetail("job_id", jobID)
	}
	defer unsubscribe()

	job, err := c.queue.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return terminalResult(job)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, jobxErrors.NewWithCause(ErrAwaitTimeout, ctx.Err()).WithDetail("job_id", jobID)
		case ev, ok := <-events:
			if !ok {
				return nil, jobxErrors.New(ErrQueueUnavailable).
					WithDetail("job_id", jobID).
					WithDetail("reason", "event subscription closed")
			}
			if ev.JobID != jobID || (ev.Kind != EventCompleted && ev.Kind != EventFailed) {
				continue
			}
			job, err := c.queue.GetJob(ctx, jobID)
			if err != nil {
				return nil, err
			}
			return terminalResult(job)
		}
	}
}

func terminalResult(job *Job) (*Job, error) {
	if job.Status == JobStatusCompleted {
		return job, nil
	}
	return job, jobxErrors.NewWithMessage(ErrJobFailed, job.FailedReason).
		WithDetail("job_id", job.ID).
		WithDetail("job_name", job.Name).
		WithDetail("attempts_made", job.AttemptsMade)
}
