package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"time"
)

// JitterStrategy selects how delays are randomised.
type JitterStrategy int

const (
	// JitterNone uses the computed backoff as is.
	JitterNone JitterStrategy = iota
	// JitterEqual picks a delay uniformly in [0, backoff).
	JitterEqual
	// JitterDecorrelated picks a delay in [backoff, 1.5*backoff).
	JitterDecorrelated
)

// Config controls a retry loop.
type Config struct {
	// MaxAttempts counts the first call.
	MaxAttempts  int
	InitialDelay time.Duration
	// MinDelay defaults to InitialDelay.
	MinDelay time.Duration
	MaxDelay time.Duration
	// MaxElapsedTime bounds the whole loop; zero means no bound.
	MaxElapsedTime time.Duration
	Multiplier     float64
	JitterStrategy JitterStrategy
	Rand           *rand.Rand
	// OnRetry observes every scheduled retry.
	OnRetry func(attempt int, err error, nextDelay time.Duration)
	// NextDelay overrides backoff for a given failure. Returning false stops
	// the loop with that failure.
	NextDelay func(attempt int, err error) (time.Duration, bool)
	Now       func() time.Time
	After     func(d time.Duration) <-chan time.Time
}

// DefaultConfig is three attempts starting at 100ms with decorrelated jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   100 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterStrategy: JitterDecorrelated,
	}
}

// Normalize validates c and fills optional fields.
func (c *Config) Normalize() error {
	if c.MaxAttempts <= 0 {
		return errors.New("retry: MaxAttempts must be positive")
	}
	if c.InitialDelay <= 0 {
		return errors.New("retry: InitialDelay must be positive")
	}
	if c.MinDelay <= 0 {
		c.MinDelay = c.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.MinDelay > c.MaxDelay {
		return errors.New("retry: MinDelay cannot be greater than MaxDelay")
	}
	if c.InitialDelay < c.MinDelay || c.InitialDelay > c.MaxDelay {
		return errors.New("retry: InitialDelay must be between MinDelay and MaxDelay")
	}
	if c.Multiplier == 0 {
		c.Multiplier = 2.0
	}
	if c.Multiplier < 1.0 {
		return errors.New("retry: Multiplier must be >= 1.0")
	}
	if c.MaxElapsedTime < 0 {
		return errors.New("retry: MaxElapsedTime cannot be negative")
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.After == nil {
		c.After = time.After
	}
	return nil
}

// Func is one attempt.
type Func func(ctx context.Context) error

// Classifier decides whether an error is worth another attempt.
type Classifier func(err error) bool

// ExhaustedError reports a loop that ran out of attempts or time. It unwraps
// to the last failure so callers keep classifying it.
type ExhaustedError struct {
	LastError     error
	Attempts      int
	TotalDuration time.Duration
	Reason        string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: %s after %s (%d attempts): %v", e.Reason, e.TotalDuration, e.Attempts, e.LastError)
}

func (e *ExhaustedError) Unwrap() error { return e.LastError }

type retryable interface {
	IsRetryable() bool
}

// DefaultRetryable trusts an IsRetryable method anywhere in the chain and
// otherwise retries only timeouts and dropped connections.
func DefaultRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrUnexpectedEOF)
}

// Do runs fn with DefaultRetryable.
func Do(ctx context.Context, cfg Config, fn Func) error {
	return DoWithRetryable(ctx, cfg, fn, DefaultRetryable)
}

// DoWithRetryable runs fn until it succeeds, fails with a non-retryable
// error, or the attempt/time budget is spent. Non-retryable failures are
// returned unchanged.
func DoWithRetryable(ctx context.Context, cfg Config, fn Func, isRetryable Classifier) error {
	c := cfg
	if err := c.Normalize(); err != nil {
		return err
	}

	var lastErr error
	start := c.Now()

	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == c.MaxAttempts {
			break
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		var delay time.Duration
		if c.NextDelay != nil {
			d, ok := c.NextDelay(attempt, lastErr)
			if !ok {
				return lastErr
			}
			delay = d
		} else {
			delay = c.applyJitter(c.backoff(attempt))
		}

		if c.MaxElapsedTime > 0 {
			elapsed := c.Now().Sub(start)
			if elapsed+delay > c.MaxElapsedTime {
				return &ExhaustedError{LastError: lastErr, Attempts: attempt, TotalDuration: elapsed, Reason: "max elapsed time exceeded"}
			}
		}
		if deadline, ok := ctx.Deadline(); ok {
			delay = min(delay, time.Until(deadline))
		}
		if c.OnRetry != nil {
			c.OnRetry(attempt, lastErr, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.After(delay):
		}
	}

	return &ExhaustedError{
		LastError:     lastErr,
		Attempts:      c.MaxAttempts,
		TotalDuration: c.Now().Sub(start),
		Reason:        "max attempts exceeded",
	}
}

// Backoff returns the un-jittered delay before the retry following attempt.
func (c Config) Backoff(attempt int) time.Duration {
	return c.backoff(attempt)
}

func (c Config) backoff(attempt int) time.Duration {
	delay := c.InitialDelay
	for i := 1; i < attempt; i++ {
		if delay > time.Duration(float64(c.MaxDelay)/c.Multiplier) {
			return c.MaxDelay
		}
		delay = time.Duration(float64(delay) * c.Multiplier)
	}
	return clamp(delay, c.MinDelay, c.MaxDelay)
}

func (c Config) applyJitter(base time.Duration) time.Duration {
	if base <= 0 {
		return base
	}
	switch c.JitterStrategy {
	case JitterEqual:
		return clamp(time.Duration(c.Rand.Int63n(int64(base))), c.MinDelay, c.MaxDelay)
	case JitterDecorrelated:
		spread := base / 2
		if spread <= 0 {
			return base
		}
		return clamp(base+time.Duration(c.Rand.Int63n(int64(spread))), c.MinDelay, c.MaxDelay)
	default:
		return base
	}
}

func clamp(v, lo, hi time.Duration) time.Duration {
	return max(lo, min(v, hi))
}
