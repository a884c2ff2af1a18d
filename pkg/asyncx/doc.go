// Package asyncx holds the small set of concurrency helpers used by the
// background pipeline.
//
// [AllSettled] fans a slice of items out to one goroutine each and collects
// one [Result] per item, never short-circuiting. The cashback run uses it so
// that one customer's failure cannot abort the others:
//
//	results := asyncx.AllSettled(ctx, customers, func(ctx context.Context, c Customer) (Outcome, error) {
//	    return job.processCustomer(ctx, c)
//	})
//
// [RetryWithBackoff] retries an operation with exponential backoff and
// respects context cancellation between attempts.
package asyncx
