package walletsrv

import (
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/asyncx"
	"github.com/Abraxas-365/rewardwallet/pkg/fsx"
	"github.com/Abraxas-365/rewardwallet/pkg/jobx"
	"github.com/Abraxas-365/rewardwallet/pkg/kernel"
	"github.com/Abraxas-365/rewardwallet/pkg/logx"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/google/uuid"
)

const (
	deadLetterAttempts = 3
	deadLetterDelay    = 200 * time.Millisecond
	deadLetterDir      = "dead-letters"
)

// Replayer re-enqueues a dead-lettered payload.
type Replayer interface {
	Replay(ctx context.Context, action wallet.Action, payload any) (*jobx.Job, error)
}

// DeadLetter persists jobs that failed for good.
type DeadLetter struct {
	repo     wallet.JobEventRepository
	archive  fsx.FileWriter
	replayer Replayer
	attempts int
	delay    time.Duration
	logger   *logx.Logger
}

// DeadLetterOption configures a DeadLetter.
type DeadLetterOption func(*DeadLetter)

// WithArchive keeps a copy in storage when the repository write fails.
func WithArchive(w fsx.FileWriter) DeadLetterOption {
	return func(d *DeadLetter) { d.archive = w }
}

// WithReplayer enables Replay.
func WithReplayer(r Replayer) DeadLetterOption {
	return func(d *DeadLetter) { d.replayer = r }
}

// WithPersistRetry sets how often a repository write is attempted.
func WithPersistRetry(attempts int, delay time.Duration) DeadLetterOption {
	return func(d *DeadLetter) {
		d.attempts = attempts
		d.delay = delay
	}
}

func NewDeadLetter(repo wallet.JobEventRepository, opts ...DeadLetterOption) *DeadLetter {
	d := &DeadLetter{
		repo:     repo,
		attempts: deadLetterAttempts,
		delay:    deadLetterDelay,
		logger:   logx.GetDefaultLogger(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// OnFailed is a jobx.FailedFunc. Persist errors are logged and never change
// the job's state.
func (d *DeadLetter) OnFailed(ctx context.Context, job *jobx.Job, cause error) {
	ev := snapshot(job)
	log := d.logger.WithFields(logx.Fields{
		"job_id":        job.ID,
		"job_name":      job.Name,
		"attempts_made": job.AttemptsMade,
	})
	log.WithError(cause).Error("wallet/deadletter: job failed for good")

	created, err := asyncx.RetryWithBackoff(ctx, d.attempts, d.delay, func(ctx context.Context) (bool, error) {
		return d.repo.SaveJobEventFailed(ctx, ev)
	})
	if err == nil {
		if !created {
			log.Info("wallet/deadletter: record already present")
		}
		return
	}
	log.WithError(err).Error("wallet/deadletter: failed to persist dead-letter record")

	if d.archive == nil {
		return
	}
	data, mErr := json.MarshalIndent(ev, "", "  ")
	if mErr != nil {
		log.WithError(mErr).Error("wallet/deadletter: failed to encode archive copy")
		return
	}
	name := path.Join(deadLetterDir, ev.CreatedAt.Format("2006-01-02"), job.ID+".json")
	if wErr := d.archive.WriteFile(ctx, name, data); wErr != nil {
		log.WithError(wErr).Error("wallet/deadletter: failed to archive dead-letter record")
		return
	}
	log.WithField("archive", name).Warn("wallet/deadletter: record archived to storage")
}

func (d *DeadLetter) List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[wallet.JobEvent], error) {
	return d.repo.ListJobEvents(ctx, opts.Normalize())
}

func (d *DeadLetter) Get(ctx context.Context, id string) (*wallet.JobEvent, error) {
	return d.repo.GetJobEvent(ctx, id)
}

// Replay re-enqueues the payload of a dead-letter record as a new job.
func (d *DeadLetter) Replay(ctx context.Context, id string) (*jobx.Job, error) {
	if d.replayer == nil {
		return nil, wallet.NewErrorWithMessage(wallet.ErrProduceFailed, "wallet/deadletter: replay is not configured")
	}
	ev, err := d.repo.GetJobEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	action, err := wallet.ParseAction(ev.Name)
	if err != nil {
		return nil, err
	}

	job, err := d.replayer.Replay(ctx, action, ev.Data)
	if err != nil {
		return nil, err
	}
	d.logger.WithFields(logx.Fields{"dead_letter_id": id, "job_id": job.ID, "original_job_id": ev.JobID}).
		Info("wallet/deadletter: replayed")
	return job, nil
}

func snapshot(job *jobx.Job) *wallet.JobEvent {
	return &wallet.JobEvent{
		ID:           uuid.NewString(),
		JobID:        job.ID,
		Name:         job.Name,
		Queue:        job.Queue,
		FailedReason: job.FailedReason,
		AttemptsMade: job.AttemptsMade,
		MaxAttempts:  job.MaxAttempts,
		Priority:     job.Priority,
		Delay:        job.Delay(),
		Data:         job.Payload,
		Stacktrace:   append([]string(nil), job.Stacktrace...),
		EnqueuedAt:   job.EnqueuedAt,
		ProcessedAt:  job.StartedAt,
		FinishedAt:   job.FinishedAt,
		CreatedAt:    time.Now().UTC(),
	}
}
