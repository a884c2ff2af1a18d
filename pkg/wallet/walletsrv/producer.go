package walletsrv

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/jobx"
	"github.com/Abraxas-365/rewardwallet/pkg/logx"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
)

// JobQueue is the part of jobx.Client the producer needs.
type JobQueue interface {
	Ready(ctx context.Context) error
	Enqueue(ctx context.Context, name string, payload any, opts ...jobx.EnqueueOption) (*jobx.Job, error)
	AwaitResult(ctx context.Context, jobID string) (*jobx.Job, error)
}

// ProduceResult identifies the enqueued job and, when the producer waited,
// the saga outcome.
type ProduceResult struct {
	JobID   string   `json:"job_id"`
	Outcome *Outcome `json:"outcome,omitempty"`
}

// Producer enqueues money movements. It does not dedupe hashes: callers
// must not submit the same movement twice.
type Producer struct {
	queue        JobQueue
	await        bool
	awaitTimeout time.Duration
	logger       *logx.Logger
}

// ProducerOption configures a Producer.
type ProducerOption func(*Producer)

// WithAwait makes every Produce call wait up to timeout for the saga result.
func WithAwait(timeout time.Duration) ProducerOption {
	return func(p *Producer) {
		p.await = true
		p.awaitTimeout = timeout
	}
}

// WithProducerLogger replaces the default logger.
func WithProducerLogger(l *logx.Logger) ProducerOption {
	return func(p *Producer) { p.logger = l }
}

func NewProducer(queue JobQueue, opts ...ProducerOption) *Producer {
	p := &Producer{
		queue:  queue,
		logger: logx.GetDefaultLogger(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Producer) ProduceDeposit(ctx context.Context, req wallet.DepositRequest) (*ProduceResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return p.produce(ctx, wallet.ActionDeposit, req.Hash, req)
}

func (p *Producer) ProduceWithdraw(ctx context.Context, req wallet.WithdrawRequest) (*ProduceResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return p.produce(ctx, wallet.ActionWithdraw, req.Hash, req)
}

func (p *Producer) ProduceWithdrawAndWaive(ctx context.Context, req wallet.WithdrawAndWaiveRequest) (*ProduceResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return p.produce(ctx, wallet.ActionWithdrawAndWaive, req.Hash, req)
}

// EnqueueDeposit stores a deposit job without waiting for its result.
func (p *Producer) EnqueueDeposit(ctx context.Context, req wallet.DepositRequest, opts ...jobx.EnqueueOption) (*jobx.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	job, err := p.enqueue(ctx, wallet.ActionDeposit, req.Hash, req, opts...)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Replay enqueues a raw payload under action, for operator replays.
func (p *Producer) Replay(ctx context.Context, action wallet.Action, payload any) (*jobx.Job, error) {
	return p.enqueue(ctx, action, "", payload)
}

func (p *Producer) produce(ctx context.Context, action wallet.Action, hash string, payload any) (*ProduceResult, error) {
	job, err := p.enqueue(ctx, action, hash, payload)
	if err != nil {
		return nil, err
	}

	res := &ProduceResult{JobID: job.ID}
	if !p.await {
		return res, nil
	}

	awaitCtx, cancel := context.WithTimeout(ctx, p.awaitTimeout)
	defer cancel()

	done, err := p.queue.AwaitResult(awaitCtx, job.ID)
	if err != nil {
		return nil, p.wrap(action, hash, "failed", err).WithDetail("job_id", job.ID)
	}

	var out Outcome
	if err := done.DecodeResult(&out); err != nil {
		return nil, p.wrap(action, hash, "returned an unreadable result", err).WithDetail("job_id", job.ID)
	}
	res.Outcome = &out
	return res, nil
}

func (p *Producer) enqueue(ctx context.Context, action wallet.Action, hash string, payload any, opts ...jobx.EnqueueOption) (*jobx.Job, error) {
	if err := p.queue.Ready(ctx); err != nil {
		return nil, p.wrap(action, hash, "queue not ready", err)
	}

	job, err := p.queue.Enqueue(ctx, string(action), payload, opts...)
	if err != nil {
		return nil, p.wrap(action, hash, "enqueue failed", err)
	}

	p.logger.WithFields(logx.Fields{"job_id": job.ID, "job_name": job.Name, "hash": hash}).
		Debug("wallet/producer: job enqueued")
	return job, nil
}

func (p *Producer) wrap(action wallet.Action, hash, what string, cause error) *errx.Error {
	e := wallet.NewErrorWithMessage(wallet.ErrProduceFailed, fmt.Sprintf("wallet/producer: %s %s (hash %s)", action, what, hash)).
		WithDetail("job_name", string(action)).
		WithDetail("hash", hash)
	e.Err = cause
	p.logger.WithError(e).Error("wallet/producer: produce failed")
	return e
}
