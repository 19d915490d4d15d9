// Package scheduler runs background jobs on cron schedules. Jobs receive a
// context cancelled on Stop; panics and errors are logged and reported to
// the optional hooks without stopping the scheduler.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc is one run of a job.
type JobFunc func(ctx context.Context) error

// JobID identifies a scheduled job.
type JobID = cron.EntryID

// OverlapPolicy decides what happens when a run is due while the previous
// one is still going.
type OverlapPolicy int

const (
	AllowOverlap OverlapPolicy = iota
	SkipIfRunning
	DelayIfRunning
)

func (p OverlapPolicy) String() string {
	switch p {
	case SkipIfRunning:
		return "skip"
	case DelayIfRunning:
		return "delay"
	default:
		return "allow"
	}
}

// JobOptions configures a job. Name is used in logs and hooks.
type JobOptions struct {
	Name          string
	Timeout       time.Duration
	OverlapPolicy OverlapPolicy
}

// JobHooks observe job runs; every field is optional.
type JobHooks struct {
	OnJobStart  func(name string)
	OnJobFinish func(name string, d time.Duration, err error)
}

type Config struct {
	Logger   *slog.Logger
	JobHooks JobHooks
}

type Scheduler struct {
	cron      *cron.Cron
	logger    *slog.Logger
	hooks     JobHooks
	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	stopOnce  sync.Once
}

func New(cfg Config) *Scheduler {
	return NewWithContext(context.Background(), cfg)
}

// NewWithContext stops the scheduler when parent is cancelled.
func NewWithContext(parent context.Context, cfg Config) *Scheduler {
	ctx, cancel := context.WithCancel(parent)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger{logger.With("component", "cron")}),
		),
		logger: logger,
		hooks:  cfg.JobHooks,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers job under a six-field cron spec or a descriptor such as
// "@every 5m" or "@hourly".
func (s *Scheduler) AddJob(schedule string, job JobFunc, opts JobOptions) (JobID, error) {
	if opts.Name == "" {
		opts.Name = "unnamed"
	}
	var chain cron.Chain
	switch opts.OverlapPolicy {
	case SkipIfRunning:
		chain = cron.NewChain(cron.SkipIfStillRunning(cronLogger{s.logger}))
	case DelayIfRunning:
		chain = cron.NewChain(cron.DelayIfStillRunning(cronLogger{s.logger}))
	default:
		chain = cron.NewChain()
	}

	id, err := s.cron.AddJob(schedule, chain.Then(cron.FuncJob(func() { s.run(job, opts) })))
	if err != nil {
		return 0, fmt.Errorf("schedule %q for job %s: %w", schedule, opts.Name, err)
	}
	s.logger.Info("job scheduled", "name", opts.Name, "schedule", schedule, "overlap", opts.OverlapPolicy, "id", id)
	return id, nil
}

func (s *Scheduler) Remove(id JobID) {
	s.cron.Remove(id)
}

// Start is idempotent.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.cron.Start()
		go func() {
			<-s.ctx.Done()
			s.stopOnce.Do(s.stop)
		}()
	})
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	s.stopOnce.Do(s.stop)
}

// StopContext is Stop bounded by ctx. Shutdown still completes in the
// background when ctx expires first.
func (s *Scheduler) StopContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Stop()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop deadline exceeded")
		return ctx.Err()
	}
}

// IsRunning is false once the scheduler is stopped or its parent context ends.
func (s *Scheduler) IsRunning() bool {
	return s.ctx.Err() == nil
}

func (s *Scheduler) stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(job JobFunc, opts JobOptions) {
	if s.hooks.OnJobStart != nil {
		s.hooks.OnJobStart(opts.Name)
	}

	ctx := s.ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := safeCall(ctx, job)
	d := time.Since(start)

	if s.hooks.OnJobFinish != nil {
		s.hooks.OnJobFinish(opts.Name, d, err)
	}
	if err != nil {
		s.logger.Error("job failed", "name", opts.Name, "duration", d, "error", err)
		return
	}
	s.logger.Debug("job done", "name", opts.Name, "duration", d)
}

func safeCall(ctx context.Context, job JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job(ctx)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, kv ...any) {
	l.logger.Debug(msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.logger.Error(msg, append([]any{"error", err}, kv...)...)
}
