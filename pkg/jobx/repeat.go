package jobx

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/logx"
	"github.com/robfig/cron/v3"
)

// Repeat registers a repeatable job. spec is a five field cron expression,
// optionally prefixed with CRON_TZ=<zone>. Only the next occurrence is stored;
// each occurrence schedules the following one when it terminates. Occurrence
// ids are derived from the fire time so that several processes registering
// the same repeat produce a single job per occurrence.
func (c *Client) Repeat(ctx context.Context, name, spec string, payload any, options ...EnqueueOption) (*Job, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, jobxErrors.NewWithCause(ErrInvalidJob, err).
			WithDetail("job_name", name).
			WithDetail("repeat", spec)
	}

	job, err := c.enqueueOccurrence(ctx, name, spec, schedule, time.Now(), payload, options...)
	if errx.HasCode(err, ErrJobExists) {
		logx.Debugf("jobx: next occurrence of %s already scheduled", name)
		return nil, nil
	}
	return job, err
}

func (c *Client) enqueueOccurrence(ctx context.Context, name, spec string, schedule cron.Schedule, after time.Time, payload any, options ...EnqueueOption) (*Job, error) {
	next := schedule.Next(after)
	opts := append([]EnqueueOption{}, options...)
	opts = append(opts,
		WithJobID(occurrenceID(name, next)),
		WithDelay(time.Until(next)),
		withRepeat(spec),
	)
	return c.Enqueue(ctx, name, payload, opts...)
}

// scheduleNext enqueues the occurrence following a terminated repeat job.
func (c *Client) scheduleNext(ctx context.Context, job *Job) {
	if job.Repeat == "" {
		return
	}

	schedule, err := cron.ParseStandard(job.Repeat)
	if err != nil {
		logx.WithError(err).Errorf("jobx: repeat job %s has an invalid expression", job.ID)
		return
	}

	after := time.Now()
	if job.ReadyAt.After(after) {
		after = job.ReadyAt
	}

	_, err = c.enqueueOccurrence(ctx, job.Name, job.Repeat, schedule, after, job.Payload,
		WithPriority(job.Priority),
		WithAttempts(job.MaxAttempts),
		WithBackoff(job.Backoff),
	)
	if err != nil && !errx.HasCode(err, ErrJobExists) {
		logx.WithError(err).Errorf("jobx: failed to schedule next occurrence of %s", job.Name)
	}
}

func occurrenceID(name string, at time.Time) string {
	return fmt.Sprintf("repeat:%s:%d", name, at.Unix())
}

func withRepeat(spec string) EnqueueOption {
	return func(o *EnqueueOptions) { o.Repeat = spec }
}
