// Package app wires configuration, storage, use-cases and the presentation
// adapters. Every dependency is built here and passed down by constructor.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"nimli/internal/adapter/cache"
	"nimli/internal/adapter/httpapi"
	"nimli/internal/adapter/scheduler"
	"nimli/internal/config"
	"nimli/internal/platform/logger"
	"nimli/internal/platform/metrics"
	"nimli/internal/platform/ratelimit"
	"nimli/internal/usecase"
)

// App owns every long-lived component.
type App struct {
	cfg     config.Config
	log     *slog.Logger
	metrics *metrics.Metrics

	services *usecase.Services
	popular  *cache.PopularCache
	sched    *scheduler.Scheduler
	checks   map[string]httpapi.Check

	closers []func() error
}

// NewLogger builds the process logger from cfg. A nil console means
// stdout.
func NewLogger(cfg config.Config, console io.Writer) *slog.Logger {
	return logger.New(logger.Options{
		Console:      console,
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "nimli",
	})
}

// New builds the repositories and use-cases described by cfg. Nothing is
// served until Serve or RunBot is called.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
		checks:  make(map[string]httpapi.Check),
	}
	a.sched = scheduler.NewWithContext(ctx, scheduler.Config{
		Logger:   log,
		JobHooks: scheduler.JobHooks{OnJobFinish: a.metrics.Job},
	})
	a.checks["scheduler"] = func(context.Context) error {
		if !a.sched.IsRunning() {
			return errors.New("scheduler stopped")
		}
		return nil
	}

	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	creators, tags, err := a.catalog()
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	a.popular = cache.New(creators, tags, a.cfg.Data.PopularSize, a.log, a.metrics)
	if err := a.popular.Refresh(ctx); err != nil {
		a.log.Warn("initial popular snapshot failed", "err", err)
	}
	if _, err := a.popular.Schedule(a.sched, a.cfg.Data.PopularSchedule); err != nil {
		return err
	}

	local, err := a.localStore(ctx)
	if err != nil {
		return fmt.Errorf("local store: %w", err)
	}
	subs, err := a.submissionStore(ctx)
	if err != nil {
		return fmt.Errorf("submission store: %w", err)
	}
	phone, err := a.phoneAuth()
	if err != nil {
		return fmt.Errorf("phone auth: %w", err)
	}

	a.services = usecase.New(usecase.Deps{
		Creators:     a.popular.Creators(),
		Tags:         a.popular.Tags(),
		Favorites:    local,
		History:      local,
		Applications: subs,
		Corrections:  subs,
		PhoneAuth:    phone,
		Logger:       a.log,
		Observer:     a.metrics,
	})
	return nil
}

// NewCatalog builds only the catalogue use-cases, without local state,
// submissions or a schedule. The CLI query commands use it.
func NewCatalog(cfg config.Config, log *slog.Logger) (*usecase.CatalogService, error) {
	a := &App{cfg: cfg, log: log}
	creators, tags, err := a.catalog()
	if err != nil {
		return nil, err
	}
	return usecase.NewCatalogService(creators, tags, log, nil), nil
}

// Services exposes the wired use-cases.
func (a *App) Services() *usecase.Services { return a.services }

// pruneLimiter drops idle rate-limit buckets on a schedule.
func (a *App) pruneLimiter(name string, l *ratelimit.Keyed) error {
	_, err := a.sched.AddJob("@every 10m", func(context.Context) error {
		if n := l.Prune(30 * time.Minute); n > 0 {
			a.log.Debug("rate limit buckets pruned", "limiter", name, "pruned", n, "left", l.Len())
		}
		return nil
	}, scheduler.JobOptions{Name: "prune-" + name, Timeout: time.Minute, OverlapPolicy: scheduler.SkipIfRunning})
	return err
}

// Close stops the scheduler and releases storage in reverse order of
// acquisition.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	errs := []error{a.sched.StopContext(ctx)}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
