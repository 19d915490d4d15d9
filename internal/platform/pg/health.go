package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"nimli/pkg/retry"
)

// WaitForDB pings dsn until it answers or cfg gives up. Every failure is
// retried; the context bounds the total wait.
func WaitForDB(ctx context.Context, dsn string, cfg retry.Config) error {
	err := retry.DoWithRetryable(ctx, cfg, func(ctx context.Context) error {
		return ping(ctx, dsn, 5*time.Second)
	}, func(error) bool { return true })
	if err != nil {
		return fmt.Errorf("database not available: %w", err)
	}
	return nil
}

// DefaultWait backs off from one second up to thirty over ten attempts.
func DefaultWait() retry.Config {
	return retry.Config{
		MaxAttempts:    10,
		InitialDelay:   time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2,
		JitterStrategy: retry.JitterNone,
	}
}

// CheckPool fails when the pool is nearly exhausted and otherwise runs a
// trivial query.
func CheckPool(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("pool is nil")
	}
	if st := PoolStats(pool); st.Saturated() {
		return fmt.Errorf("pool saturated: %d of %d connections in use", st.InUse, st.MaxConns)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var one int
	if err := pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("health query: %w", err)
	}
	if one != 1 {
		return fmt.Errorf("health query returned %d", one)
	}
	return nil
}

// Stats is a snapshot of pool usage.
type Stats struct {
	MaxConns  int32
	OpenConns int32
	InUse     int32
	Idle      int32
}

// PoolStats snapshots pool usage; a nil pool has zero stats.
func PoolStats(pool *pgxpool.Pool) Stats {
	if pool == nil {
		return Stats{}
	}
	s := pool.Stat()
	return Stats{MaxConns: s.MaxConns(), OpenConns: s.TotalConns(), InUse: s.AcquiredConns(), Idle: s.IdleConns()}
}

// Saturated reports whether more than 90% of the pool is checked out.
func (s Stats) Saturated() bool {
	return s.MaxConns > 0 && float64(s.InUse)/float64(s.MaxConns) > 0.9
}

func ping(ctx context.Context, dsn string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()
	return pool.Ping(ctx)
}
