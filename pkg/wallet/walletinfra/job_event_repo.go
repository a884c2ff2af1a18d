package walletinfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/kernel"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresJobEventRepository implements wallet.JobEventRepository on the
// job_events_failed table. job_id is unique, so repeated saves of the same
// job keep a single row.
type PostgresJobEventRepository struct {
	db *sqlx.DB
}

func NewPostgresJobEventRepository(db *sqlx.DB) *PostgresJobEventRepository {
	return &PostgresJobEventRepository{db: db}
}

type jobEventRow struct {
	ID           string         `db:"id"`
	JobID        string         `db:"job_id"`
	Name         string         `db:"name"`
	Queue        string         `db:"queue"`
	FailedReason string         `db:"failed_reason"`
	AttemptsMade int            `db:"attempts_made"`
	MaxAttempts  int            `db:"max_attempts"`
	Priority     int            `db:"priority"`
	DelayMS      int64          `db:"delay_ms"`
	Data         []byte         `db:"data"`
	Stacktrace   pq.StringArray `db:"stacktrace"`
	EnqueuedAt   time.Time      `db:"enqueued_at"`
	ProcessedAt  *time.Time     `db:"processed_at"`
	FinishedAt   *time.Time     `db:"finished_at"`
	CreatedAt    time.Time      `db:"created_at"`
}

func toRow(ev *wallet.JobEvent) jobEventRow {
	data := []byte(ev.Data)
	if len(data) == 0 {
		data = []byte("null")
	}
	return jobEventRow{
		ID:           ev.ID,
		JobID:        ev.JobID,
		Name:         ev.Name,
		Queue:        ev.Queue,
		FailedReason: ev.FailedReason,
		AttemptsMade: ev.AttemptsMade,
		MaxAttempts:  ev.MaxAttempts,
		Priority:     ev.Priority,
		DelayMS:      ev.Delay.Milliseconds(),
		Data:         data,
		Stacktrace:   pq.StringArray(ev.Stacktrace),
		EnqueuedAt:   ev.EnqueuedAt,
		ProcessedAt:  ev.ProcessedAt,
		FinishedAt:   ev.FinishedAt,
		CreatedAt:    ev.CreatedAt,
	}
}

func (r jobEventRow) toDomain() wallet.JobEvent {
	return wallet.JobEvent{
		ID:           r.ID,
		JobID:        r.JobID,
		Name:         r.Name,
		Queue:        r.Queue,
		FailedReason: r.FailedReason,
		AttemptsMade: r.AttemptsMade,
		MaxAttempts:  r.MaxAttempts,
		Priority:     r.Priority,
		Delay:        time.Duration(r.DelayMS) * time.Millisecond,
		Data:         json.RawMessage(r.Data),
		Stacktrace:   []string(r.Stacktrace),
		EnqueuedAt:   r.EnqueuedAt,
		ProcessedAt:  r.ProcessedAt,
		FinishedAt:   r.FinishedAt,
		CreatedAt:    r.CreatedAt,
	}
}

func (r *PostgresJobEventRepository) SaveJobEventFailed(ctx context.Context, ev *wallet.JobEvent) (bool, error) {
	query := `
		INSERT INTO job_events_failed (
			id, job_id, name, queue, failed_reason, attempts_made, max_attempts, priority,
			delay_ms, data, stacktrace, enqueued_at, processed_at, finished_at, created_at
		) VALUES (
			:id, :job_id, :name, :queue, :failed_reason, :attempts_made, :max_attempts, :priority,
			:delay_ms, :data, :stacktrace, :enqueued_at, :processed_at, :finished_at, :created_at
		)
		ON CONFLICT (job_id) DO NOTHING`

	result, err := r.db.NamedExecContext(ctx, query, toRow(ev))
	if err != nil {
		return false, errx.Wrap(err, "failed to save dead-letter record", errx.TypeInternal).
			WithDetail("job_id", ev.JobID)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errx.Wrap(err, "failed to get rows affected on dead-letter save", errx.TypeInternal)
	}
	return rows == 1, nil
}

func (r *PostgresJobEventRepository) GetJobEvent(ctx context.Context, id string) (*wallet.JobEvent, error) {
	var row jobEventRow
	if err := r.db.GetContext(ctx, &row, `SELECT * FROM job_events_failed WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wallet.NewError(wallet.ErrJobEventNotFound).WithDetail("id", id)
		}
		return nil, errx.Wrap(err, "failed to get dead-letter record", errx.TypeInternal)
	}
	ev := row.toDomain()
	return &ev, nil
}

func (r *PostgresJobEventRepository) ListJobEvents(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[wallet.JobEvent], error) {
	opts = opts.Normalize()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM job_events_failed`); err != nil {
		return kernel.Paginated[wallet.JobEvent]{}, errx.Wrap(err, "failed to count dead-letter records", errx.TypeInternal)
	}

	var rows []jobEventRow
	query := `SELECT * FROM job_events_failed ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &rows, query, opts.PageSize, opts.Offset()); err != nil {
		return kernel.Paginated[wallet.JobEvent]{}, errx.Wrap(err, "failed to list dead-letter records", errx.TypeInternal)
	}

	items := make([]wallet.JobEvent, len(rows))
	for i, row := range rows {
		items[i] = row.toDomain()
	}
	return kernel.NewPaginated(items, opts.Page, opts.PageSize, total), nil
}
