// Package usecase orchestrates validation, repository calls and result
// shaping for every application operation. Each operation validates before
// any I/O and returns either its full response or a *Error, never both.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"nimli/internal/repository"
)

// Observer records the outcome of each use-case invocation. outcome is "ok"
// or the error kind name.
type Observer interface {
	UseCase(name, outcome string, d time.Duration)
}

type base struct {
	log *slog.Logger
	obs Observer
}

func newBase(log *slog.Logger, obs Observer, service string) base {
	if log == nil {
		log = slog.Default()
	}
	return base{log: log.With("service", service), obs: obs}
}

// call runs f as use-case op. Errors that escape f are remapped through the
// op's table and the result is dropped with them.
func call[T any](ctx context.Context, b base, op string, f func() (T, error)) (T, error) {
	start := time.Now()
	out, err := f()
	d := time.Since(start)

	outcome := "ok"
	if err != nil {
		ue := tableFor(op).Map(err)
		outcome = ue.Kind.String()
		b.log.InfoContext(ctx, "use-case failed",
			"usecase", op,
			"kind", outcome,
			"code", ue.Code(),
			"retryable", ue.IsRetryable(),
			"err", ue)
		var zero T
		out, err = zero, ue
	} else {
		b.log.DebugContext(ctx, "use-case done", "usecase", op, "duration", d)
	}
	if b.obs != nil {
		b.obs.UseCase(op, outcome, d)
	}
	return out, err
}

// exec is call for operations without a result.
func exec(ctx context.Context, b base, op string, f func() error) error {
	_, err := call(ctx, b, op, func() (struct{}, error) { return struct{}{}, f() })
	return err
}

// Deps lists the collaborators of every service.
type Deps struct {
	Creators     repository.CreatorRepository
	Tags         repository.TagRepository
	Favorites    repository.FavoriteRepository
	History      repository.SearchHistoryRepository
	Applications repository.TagApplicationRepository
	Corrections  repository.CorrectionRequestRepository
	PhoneAuth    repository.PhoneAuthProvider
	Cooldown     *Cooldown
	Logger       *slog.Logger
	Observer     Observer
}

// Services bundles the use-case services for the presentation adapters.
type Services struct {
	Catalog     *CatalogService
	Favorites   *FavoriteService
	History     *HistoryService
	Submissions *SubmissionService
	Auth        *AuthService
}

// New wires every service from d. A nil Cooldown gets the default period.
func New(d Deps) *Services {
	cd := d.Cooldown
	if cd == nil {
		cd = NewCooldown(DefaultResendCooldown)
	}
	return &Services{
		Catalog:     NewCatalogService(d.Creators, d.Tags, d.Logger, d.Observer),
		Favorites:   NewFavoriteService(d.Favorites, d.Creators, d.Logger, d.Observer),
		History:     NewHistoryService(d.History, d.Logger, d.Observer),
		Submissions: NewSubmissionService(d.Creators, d.Applications, d.Corrections, d.Logger, d.Observer),
		Auth:        NewAuthService(d.PhoneAuth, cd, d.Logger, d.Observer),
	}
}
