// Package workers runs the background jobs of the server and the client:
// periodic sync triggers, connectivity probing, the retention sweep and
// idempotency cache garbage collection.
package workers

import "context"

// Worker is a background job. Run blocks until ctx is done or the job
// fails; returning ctx.Err() after cancellation is not a failure.
type Worker interface {
	Run(ctx context.Context) error
}

// Func adapts a plain function to [Worker].
type Func func(ctx context.Context) error

func (f Func) Run(ctx context.Context) error { return f(ctx) }
