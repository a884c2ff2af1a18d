package jobx_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/jobx"
	"github.com/Abraxas-365/rewardwallet/pkg/jobx/jobxredis"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type payload struct {
	Value int `json:"value"`
}

func newClient(t *testing.T) *jobx.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	q := jobxredis.NewRedisQueue(rdb, "test", jobxredis.Options{})
	return jobx.NewClient(q,
		jobx.WithConcurrency(2),
		jobx.WithPollInterval(10*time.Millisecond),
		jobx.WithStalledInterval(50*time.Millisecond),
		jobx.WithShutdownTimeout(time.Second),
		jobx.WithDefaultBackoff(jobx.Backoff{Type: jobx.BackoffFixed, Delay: 10 * time.Millisecond}),
	)
}

// run starts the client and stops it when the test ends.
func run(t *testing.T, c *jobx.Client) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func awaitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClient_ProcessesAndReturnsResult(t *testing.T) {
	c := newClient(t)
	c.Register("double", func(_ context.Context, job *jobx.Job) error {
		var p payload
		if err := job.Decode(&p); err != nil {
			return err
		}
		return job.SetResult(payload{Value: p.Value * 2})
	})

	job, err := c.Enqueue(context.Background(), "double", payload{Value: 21})
	if err != nil {
		t.Fatal(err)
	}
	if job.ID == "" {
		t.Fatal("expected generated job id")
	}

	run(t, c)

	done, err := c.AwaitResult(awaitCtx(t), job.ID)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	var out payload
	if err := done.DecodeResult(&out); err != nil || out.Value != 42 {
		t.Fatalf("expected 42, got %+v (%v)", out, err)
	}
}

func TestClient_RetriesUntilSuccess(t *testing.T) {
	c := newClient(t)
	var calls atomic.Int32
	c.Register("flaky", func(context.Context, *jobx.Job) error {
		if calls.Add(1) < 3 {
			return errors.New("temporarily down")
		}
		return nil
	})

	job, err := c.Enqueue(context.Background(), "flaky", nil, jobx.WithAttempts(3))
	if err != nil {
		t.Fatal(err)
	}
	run(t, c)

	done, err := c.AwaitResult(awaitCtx(t), job.ID)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if done.AttemptsMade != 3 || len(done.Stacktrace) != 2 {
		t.Fatalf("expected 3 attempts and 2 recorded failures, got %d / %v", done.AttemptsMade, done.Stacktrace)
	}
}

func TestClient_FinalFailureCallbackRunsOnce(t *testing.T) {
	c := newClient(t)
	c.Register("broken", func(context.Context, *jobx.Job) error {
		return errors.New("always broken")
	})

	var (
		mu     sync.Mutex
		failed []*jobx.Job
	)
	c.OnFailed(func(_ context.Context, job *jobx.Job, _ error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, job)
	})

	job, _ := c.Enqueue(context.Background(), "broken", nil, jobx.WithAttempts(2))
	run(t, c)

	_, err := c.AwaitResult(awaitCtx(t), job.ID)
	if !errx.HasCode(err, jobx.ErrJobFailed) {
		t.Fatalf("expected ErrJobFailed, got %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(failed) != 1 {
		t.Fatalf("expected one final failure callback, got %d", len(failed))
	}
	if failed[0].AttemptsMade != failed[0].MaxAttempts {
		t.Fatalf("callback ran before attempts were exhausted: %d/%d", failed[0].AttemptsMade, failed[0].MaxAttempts)
	}
}

func TestClient_UnrecoverableSkipsRetries(t *testing.T) {
	c := newClient(t)
	var calls atomic.Int32
	c.Register("fatal", func(context.Context, *jobx.Job) error {
		calls.Add(1)
		return jobx.Unrecoverable(errors.New("bad input"))
	})

	job, _ := c.Enqueue(context.Background(), "fatal", nil, jobx.WithAttempts(5))
	run(t, c)

	done, err := c.AwaitResult(awaitCtx(t), job.ID)
	if !errx.HasCode(err, jobx.ErrJobFailed) {
		t.Fatalf("expected ErrJobFailed, got %v", err)
	}
	if calls.Load() != 1 || done.AttemptsMade != 1 {
		t.Fatalf("expected a single attempt, got %d calls", calls.Load())
	}
}

func TestClient_UnknownNameFailsWithoutRetry(t *testing.T) {
	c := newClient(t)
	job, _ := c.Enqueue(context.Background(), "nobody-handles-this", nil, jobx.WithAttempts(3))
	run(t, c)

	done, err := c.AwaitResult(awaitCtx(t), job.ID)
	if err == nil {
		t.Fatal("expected failure")
	}
	if done.AttemptsMade != 1 {
		t.Fatalf("expected one attempt, got %d", done.AttemptsMade)
	}
}

func TestClient_DefaultHandler(t *testing.T) {
	c := newClient(t)
	c.HandleDefault(func(_ context.Context, job *jobx.Job) error {
		return job.SetResult(job.Name)
	})

	job, _ := c.Enqueue(context.Background(), "anything", nil)
	run(t, c)

	done, err := c.AwaitResult(awaitCtx(t), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	var name string
	_ = done.DecodeResult(&name)
	if name != "anything" {
		t.Fatalf("expected default handler result, got %q", name)
	}
}

func TestClient_RecoversHandlerPanic(t *testing.T) {
	c := newClient(t)
	c.Register("panics", func(context.Context, *jobx.Job) error {
		panic("nil map")
	})

	job, _ := c.Enqueue(context.Background(), "panics", nil, jobx.WithAttempts(1))
	run(t, c)

	done, err := c.AwaitResult(awaitCtx(t), job.ID)
	if err == nil || done.Status != jobx.JobStatusFailed {
		t.Fatalf("expected failed job, got %+v, %v", done, err)
	}
}

func TestClient_EnqueueDuplicateID(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	if _, err := c.Enqueue(ctx, "deposit", nil, jobx.WithJobID("hash-1")); err != nil {
		t.Fatal(err)
	}
	_, err := c.Enqueue(ctx, "deposit", nil, jobx.WithJobID("hash-1"))
	if !errx.HasCode(err, jobx.ErrJobExists) {
		t.Fatalf("expected ErrJobExists, got %v", err)
	}
}

func TestClient_EventsReachListeners(t *testing.T) {
	c := newClient(t)
	c.Register("noop", func(context.Context, *jobx.Job) error { return nil })

	kinds := make(chan jobx.EventKind, 8)
	c.OnEvent(func(ev jobx.Event) { kinds <- ev.Kind })

	job, _ := c.Enqueue(context.Background(), "noop", nil)
	run(t, c)

	if _, err := c.AwaitResult(awaitCtx(t), job.ID); err != nil {
		t.Fatal(err)
	}

	want := []jobx.EventKind{jobx.EventActive, jobx.EventCompleted}
	for _, k := range want {
		select {
		case got := <-kinds:
			if got != k {
				t.Fatalf("expected %s, got %s", k, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing %s event", k)
		}
	}
}

func TestClient_RepeatIsIdempotentAcrossRegistrations(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	first, err := c.Repeat(ctx, "cashback", "CRON_TZ=Asia/Bangkok 0 0 1 * *", nil)
	if err != nil {
		t.Fatal(err)
	}
	if first == nil || first.Status != jobx.JobStatusDelayed || first.Repeat == "" {
		t.Fatalf("expected delayed repeat job, got %+v", first)
	}

	second, err := c.Repeat(ctx, "cashback", "CRON_TZ=Asia/Bangkok 0 0 1 * *", nil)
	if err != nil || second != nil {
		t.Fatalf("expected second registration to be a no-op, got %+v, %v", second, err)
	}

	counts, _ := c.Queue().Counts(ctx)
	if counts.Delayed != 1 {
		t.Fatalf("expected a single scheduled occurrence, got %+v", counts)
	}
}

func TestClient_RepeatRejectsBadExpression(t *testing.T) {
	c := newClient(t)
	_, err := c.Repeat(context.Background(), "cashback", "not a cron", nil)
	if !errx.HasCode(err, jobx.ErrInvalidJob) {
		t.Fatalf("expected ErrInvalidJob, got %v", err)
	}
}

func TestClient_AwaitTimesOut(t *testing.T) {
	c := newClient(t)
	job, _ := c.Enqueue(context.Background(), "never-processed", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.AwaitResult(ctx, job.ID)
	if !errx.HasCode(err, jobx.ErrAwaitTimeout) {
		t.Fatalf("expected ErrAwaitTimeout, got %v", err)
	}
}

// leaseDroppingQueue never extends leases, so every claim expires after the
// lease duration. Complete results are reported on completed.
type leaseDroppingQueue struct {
	jobx.Queue
	completed chan error
}

func (q *leaseDroppingQueue) Heartbeat(context.Context, *jobx.Job, time.Duration) error {
	return errors.New("heartbeat dropped")
}

func (q *leaseDroppingQueue) Complete(ctx context.Context, job *jobx.Job) error {
	err := q.Queue.Complete(ctx, job)
	q.completed <- err
	return err
}

func newExpiringClient(t *testing.T) (*jobx.Client, *leaseDroppingQueue) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	q := &leaseDroppingQueue{
		Queue:     jobxredis.NewRedisQueue(rdb, "test", jobxredis.Options{}),
		completed: make(chan error, 4),
	}
	c := jobx.NewClient(q,
		jobx.WithConcurrency(2),
		jobx.WithPollInterval(10*time.Millisecond),
		jobx.WithLeaseDuration(60*time.Millisecond),
		jobx.WithStalledInterval(20*time.Millisecond),
		jobx.WithShutdownTimeout(time.Second),
	)
	return c, q
}

func nextComplete(t *testing.T, q *leaseDroppingQueue) error {
	t.Helper()
	select {
	case err := <-q.completed:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a complete call")
		return nil
	}
}

func TestClient_ExpiredLeaseIsRedeliveredAndStaleCompleteRejected(t *testing.T) {
	c, q := newExpiringClient(t)

	var runs, failures atomic.Int32
	c.Register("slow-once", func(_ context.Context, job *jobx.Job) error {
		n := runs.Add(1)
		if n == 1 {
			time.Sleep(300 * time.Millisecond)
			return job.SetResult(payload{Value: 1})
		}
		return job.SetResult(payload{Value: 2})
	})
	c.OnFailed(func(context.Context, *jobx.Job, error) { failures.Add(1) })

	job, err := c.Enqueue(context.Background(), "slow-once", nil, jobx.WithAttempts(2))
	if err != nil {
		t.Fatal(err)
	}
	run(t, c)

	done, err := c.AwaitResult(awaitCtx(t), job.ID)
	if err != nil {
		t.Fatalf("expected the redelivered attempt to complete, got %v", err)
	}
	var out payload
	if err := done.DecodeResult(&out); err != nil || out.Value != 2 {
		t.Fatalf("expected result of the second attempt, got %+v (%v)", out, err)
	}

	first, second := nextComplete(t, q), nextComplete(t, q)
	if first != nil {
		t.Fatalf("owner complete failed: %v", first)
	}
	if !errx.HasCode(second, jobx.ErrLockLost) {
		t.Fatalf("expected stale complete to be rejected, got %v", second)
	}

	got, err := c.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != jobx.JobStatusCompleted || got.AttemptsMade != 2 {
		t.Fatalf("unexpected final state: status=%s attempts=%d", got.Status, got.AttemptsMade)
	}
	if err := got.DecodeResult(&out); err != nil || out.Value != 2 {
		t.Fatalf("stale worker overwrote the result: %+v", out)
	}
	if runs.Load() != 2 || failures.Load() != 0 {
		t.Fatalf("runs=%d failures=%d, want 2 and 0", runs.Load(), failures.Load())
	}
}

func TestClient_StalledOnLastAttemptFailsOnceAndStaysFailed(t *testing.T) {
	c, q := newExpiringClient(t)

	var runs, failures atomic.Int32
	var failedCause error
	var mu sync.Mutex
	c.Register("slow", func(context.Context, *jobx.Job) error {
		runs.Add(1)
		time.Sleep(300 * time.Millisecond)
		return nil
	})
	c.OnFailed(func(_ context.Context, _ *jobx.Job, cause error) {
		mu.Lock()
		failedCause = cause
		mu.Unlock()
		failures.Add(1)
	})

	job, err := c.Enqueue(context.Background(), "slow", nil, jobx.WithAttempts(1))
	if err != nil {
		t.Fatal(err)
	}
	run(t, c)

	_, err = c.AwaitResult(awaitCtx(t), job.ID)
	if !errx.HasCode(err, jobx.ErrJobFailed) {
		t.Fatalf("expected ErrJobFailed, got %v", err)
	}

	if late := nextComplete(t, q); !errx.HasCode(late, jobx.ErrLockLost) {
		t.Fatalf("expected the late complete to be rejected, got %v", late)
	}

	got, err := c.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != jobx.JobStatusFailed {
		t.Fatalf("expected failed to stick, got %s", got.Status)
	}
	if runs.Load() != 1 || failures.Load() != 1 {
		t.Fatalf("runs=%d failures=%d, want 1 and 1", runs.Load(), failures.Load())
	}
	mu.Lock()
	defer mu.Unlock()
	if !errx.HasCode(failedCause, jobx.ErrJobStalled) {
		t.Fatalf("expected the failure callback to see ErrJobStalled, got %v", failedCause)
	}
}
