package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"nimli/internal/adapter/api"
	"nimli/internal/adapter/fixture"
	"nimli/internal/adapter/phoneauth"
	"nimli/internal/adapter/storage/kv"
	pgstore "nimli/internal/adapter/storage/pg"
	"nimli/internal/adapter/storage/sqlite"
	"nimli/internal/platform/httpclient"
	pgdb "nimli/internal/platform/pg"
	sqlitedb "nimli/internal/platform/sqlite"
	"nimli/internal/repository"
	"nimli/internal/shared"
)

// localStore holds favorites and search history.
type localStore interface {
	repository.FavoriteRepository
	repository.SearchHistoryRepository
}

// submissionStore holds tag applications and correction requests.
type submissionStore interface {
	repository.TagApplicationRepository
	repository.CorrectionRequestRepository
}

func (a *App) apiClient() (*httpclient.Client, error) {
	return httpclient.New(a.cfg.Data.APIBaseURL,
		httpclient.WithLogger(a.log.With("component", "api")),
		httpclient.WithTimeout(a.cfg.Data.APITimeout),
		httpclient.WithRetries(a.cfg.Data.APIRetries, 0),
		httpclient.WithErrorHook(func(e *shared.RepositoryError) {
			a.metrics.RepositoryError(e.Kind.String())
		}),
	)
}

func (a *App) catalog() (repository.CreatorRepository, repository.TagRepository, error) {
	if a.cfg.Data.Source == "api" {
		client, err := a.apiClient()
		if err != nil {
			return nil, nil, err
		}
		return api.NewCreatorRepository(client), api.NewTagRepository(client), nil
	}
	cat, err := fixture.Load()
	if err != nil {
		return nil, nil, err
	}
	log := a.log.With("component", "fixture")
	return fixture.NewCreatorRepository(cat, log), fixture.NewTagRepository(cat, log), nil
}

func (a *App) localStore(ctx context.Context) (localStore, error) {
	switch a.cfg.Local.Store {
	case "badger":
		if err := os.MkdirAll(a.cfg.Local.BadgerPath, 0o755); err != nil {
			return nil, err
		}
		s, err := kv.Open(a.cfg.Local.BadgerPath, a.log.With("component", "kv"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	default:
		db, err := a.openSQLite(ctx)
		if err != nil {
			return nil, err
		}
		info, err := sqlite.Migrate(db)
		if err != nil {
			return nil, err
		}
		if info.Applied {
			a.log.Info("local schema migrated", "from", info.FromVersion, "to", info.ToVersion)
		}
		a.checks["local"] = db.PingContext
		return sqlite.NewStore(db, a.log.With("component", "sqlite")), nil
	}
}

func (a *App) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(a.cfg.Local.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	db, err := sqlitedb.Open(ctx, a.cfg.Local.SQLitePath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	return db, nil
}

func (a *App) submissionStore(ctx context.Context) (submissionStore, error) {
	switch a.cfg.Submissions.Store {
	case "api":
		client, err := a.apiClient()
		if err != nil {
			return nil, err
		}
		return api.NewSubmissionRepository(client), nil
	case "postgres":
		dsn := a.cfg.Submissions.PostgresDSN
		if err := pgdb.WaitForDB(ctx, dsn, pgdb.DefaultWait()); err != nil {
			return nil, err
		}
		info, err := pgstore.Migrate(dsn)
		if err != nil {
			return nil, err
		}
		if info.Applied {
			a.log.Info("submission schema migrated", "from", info.FromVersion, "to", info.ToVersion)
		}
		pool, err := pgdb.NewPool(ctx, dsn)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		s := pgstore.NewStore(pool, a.log.With("component", "pg"))
		a.checks["submissions"] = s.Ping
		return s, nil
	default:
		return fixture.NewSubmissionStore(), nil
	}
}

func (a *App) phoneAuth() (repository.PhoneAuthProvider, error) {
	if a.cfg.PhoneAuth.Provider != "identitytoolkit" {
		if a.cfg.Env == "prod" {
			a.log.Warn("fake phone auth in use; every number accepts the fixed code")
		}
		return phoneauth.NewFakeProvider(), nil
	}
	client, err := httpclient.New(a.cfg.PhoneAuth.BaseURL,
		httpclient.WithLogger(a.log.With("component", "phoneauth")),
		httpclient.WithTimeout(a.cfg.Data.APITimeout),
		httpclient.WithHeaders(map[string]string{"X-Goog-Api-Key": a.cfg.PhoneAuth.APIKey}),
	)
	if err != nil {
		return nil, fmt.Errorf("identity toolkit client: %w", err)
	}
	return phoneauth.NewIdentityToolkit(client), nil
}
