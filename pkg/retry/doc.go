// Package retry runs an operation with exponential backoff and jitter.
//
// Whether a failure is retried is decided by a Classifier. DefaultRetryable
// honours any error exposing IsRetryable() bool, so typed errors carry their
// own retry policy:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
//	    return repo.Load(ctx)
//	})
//
// A NextDelay hook replaces the computed backoff, which is how callers honour
// server supplied hints such as Retry-After:
//
//	cfg := retry.DefaultConfig()
//	cfg.NextDelay = func(attempt int, err error) (time.Duration, bool) {
//	    return hint(err), true
//	}
//
// Time is injectable through Now and After for deterministic tests.
package retry
