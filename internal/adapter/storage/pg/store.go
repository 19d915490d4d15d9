// Package pg persists tag applications and correction requests in
// PostgreSQL.
package pg

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"nimli/internal/domain"
	pgdb "nimli/internal/platform/pg"
	"nimli/internal/repository"
	"nimli/internal/shared"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the database at dsn to the latest submission schema.
func Migrate(dsn string) (pgdb.MigrationInfo, error) {
	return pgdb.Migrate(dsn, migrations, "migrations")
}

const uniqueViolation = "23505"

// Store implements TagApplicationRepository and CorrectionRequestRepository.
type Store struct {
	tx  *pgdb.TxRunner
	log *slog.Logger
	now func() time.Time
}

func NewStore(pool *pgxpool.Pool, log *slog.Logger) *Store {
	return &Store{tx: pgdb.NewTxRunner(pool), log: log, now: time.Now}
}

// SubmitTagApplication checks for a pending twin and inserts in one
// transaction; the partial unique index catches a concurrent twin.
func (s *Store) SubmitTagApplication(ctx context.Context, app domain.TagApplication) (domain.TagApplication, error) {
	app.ID = uuid.NewString()
	app.Status = domain.StatusPending
	app.CreatedAt = s.now().UTC()
	key := repository.TagKey(app.TagName)

	err := s.tx.WithinTx(ctx, pgx.TxOptions{}, func(ctx context.Context) error {
		q := s.tx.Querier(ctx)
		var pending bool
		err := q.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM tag_applications
				WHERE creator_id = $1 AND tag_key = $2 AND application_type = $3 AND status = 'pending'
			)`, app.CreatorID, key, string(app.ApplicationType)).Scan(&pending)
		if err != nil {
			return err
		}
		if pending {
			return repository.ErrDuplicate
		}
		_, err = q.Exec(ctx, `
			INSERT INTO tag_applications
				(id, creator_id, tag_name, tag_key, application_type, reason, status, requested_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			app.ID, app.CreatorID, app.TagName, key, string(app.ApplicationType), app.Reason,
			string(app.Status), app.RequestedBy, app.CreatedAt)
		return err
	})
	if err != nil {
		return domain.TagApplication{}, s.fail("submit tag application", err)
	}
	return app, nil
}

func (s *Store) PendingTagApplications(ctx context.Context, creatorID string) ([]domain.TagApplication, error) {
	rows, err := s.tx.Querier(ctx).Query(ctx, `
		SELECT id, creator_id, tag_name, application_type, reason, status, requested_by, created_at
		FROM tag_applications
		WHERE creator_id = $1 AND status = 'pending'
		ORDER BY created_at`, creatorID)
	if err != nil {
		return nil, s.fail("list tag applications", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.TagApplication, error) {
		var (
			a        domain.TagApplication
			typ, st  string
			id       uuid.UUID
			creation time.Time
		)
		err := r.Scan(&id, &a.CreatorID, &a.TagName, &typ, &a.Reason, &st, &a.RequestedBy, &creation)
		a.ID = id.String()
		a.ApplicationType = domain.ApplicationType(typ)
		a.Status = domain.SubmissionStatus(st)
		a.CreatedAt = creation.UTC()
		return a, err
	})
	if err != nil {
		return nil, s.fail("list tag applications", err)
	}
	return out, nil
}

func (s *Store) SubmitCorrectionRequest(ctx context.Context, req domain.CorrectionRequest) (domain.CorrectionRequest, error) {
	req.ID = uuid.NewString()
	req.Status = domain.StatusPending
	req.CreatedAt = s.now().UTC()

	items, err := json.Marshal(req.Items)
	if err != nil {
		return domain.CorrectionRequest{}, s.fail("submit correction request", err)
	}
	_, err = s.tx.Querier(ctx).Exec(ctx, `
		INSERT INTO correction_requests
			(id, creator_id, items, reason, reference_url, status, requested_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		req.ID, req.CreatorID, items, req.Reason, req.ReferenceURL,
		string(req.Status), req.RequestedBy, req.CreatedAt)
	if err != nil {
		return domain.CorrectionRequest{}, s.fail("submit correction request", err)
	}
	return req, nil
}

func (s *Store) PendingCorrectionRequests(ctx context.Context, creatorID string) ([]domain.CorrectionRequest, error) {
	rows, err := s.tx.Querier(ctx).Query(ctx, `
		SELECT id, creator_id, items, reason, reference_url, status, requested_by, created_at
		FROM correction_requests
		WHERE creator_id = $1 AND status = 'pending'
		ORDER BY created_at`, creatorID)
	if err != nil {
		return nil, s.fail("list correction requests", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.CorrectionRequest, error) {
		var (
			c        domain.CorrectionRequest
			id       uuid.UUID
			items    []byte
			st       string
			creation time.Time
		)
		if err := r.Scan(&id, &c.CreatorID, &items, &c.Reason, &c.ReferenceURL, &st, &c.RequestedBy, &creation); err != nil {
			return c, err
		}
		c.ID = id.String()
		c.Status = domain.SubmissionStatus(st)
		c.CreatedAt = creation.UTC()
		return c, json.Unmarshal(items, &c.Items)
	})
	if err != nil {
		return nil, s.fail("list correction requests", err)
	}
	return out, nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return pgdb.CheckPool(ctx, s.tx.Pool)
}

func (s *Store) fail(op string, err error) error {
	var pe *pgconn.PgError
	var re *shared.RepositoryError
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		re = shared.Unknown(shared.Wrap(err, op))
	case errors.As(err, &pe) && pe.Code == uniqueViolation:
		re = shared.Unknown(shared.Wrapf(repository.ErrDuplicate, "%s: %s", op, pe.ConstraintName))
	default:
		re = shared.MapError(shared.Wrap(err, op))
	}
	s.log.Warn("submission store failed", "op", op, "kind", re.Kind, "code", re.Code(), "err", err)
	return re
}
