// Package sqlite keeps per-user favorites and search history in a local
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"log/slog"
	"time"

	"nimli/internal/domain"
	sqlitedb "nimli/internal/platform/sqlite"
	"nimli/internal/shared"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings db to the latest local-state schema.
func Migrate(db *sql.DB) (sqlitedb.MigrationInfo, error) {
	return sqlitedb.Migrate(db, migrations, "migrations")
}

// Store implements FavoriteRepository and SearchHistoryRepository.
type Store struct {
	tx  *sqlitedb.TxRunner
	log *slog.Logger
	now func() time.Time
}

func NewStore(db *sql.DB, log *slog.Logger) *Store {
	return &Store{tx: sqlitedb.NewTxRunner(db), log: log, now: time.Now}
}

func (s *Store) ListFavorites(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.tx.Querier(ctx).QueryContext(ctx,
		`SELECT creator_id FROM favorites WHERE user_id = ? ORDER BY seq DESC`, userID)
	if err != nil {
		return nil, s.fail("list favorites", err)
	}
	ids, err := scanStrings(rows)
	if err != nil {
		return nil, s.fail("list favorites", err)
	}
	return ids, nil
}

// AddFavorite is idempotent; an existing favorite keeps its position.
func (s *Store) AddFavorite(ctx context.Context, userID, creatorID string) error {
	_, err := s.tx.Querier(ctx).ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (user_id, creator_id, created_at) VALUES (?, ?, ?)`,
		userID, creatorID, s.now().Unix())
	return s.fail("add favorite", err)
}

func (s *Store) RemoveFavorite(ctx context.Context, userID, creatorID string) error {
	_, err := s.tx.Querier(ctx).ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND creator_id = ?`, userID, creatorID)
	return s.fail("remove favorite", err)
}

func (s *Store) IsFavorite(ctx context.Context, userID, creatorID string) (bool, error) {
	var n int
	err := s.tx.Querier(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = ? AND creator_id = ?`, userID, creatorID).Scan(&n)
	if err != nil {
		return false, s.fail("check favorite", err)
	}
	return n > 0, nil
}

// SaveQuery moves query to the front and drops entries past the bound.
func (s *Store) SaveQuery(ctx context.Context, userID, query string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		q := s.tx.Querier(ctx)
		if _, err := q.ExecContext(ctx,
			`DELETE FROM search_history WHERE user_id = ? AND query = ?`, userID, query); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO search_history (user_id, query, used_at) VALUES (?, ?, ?)`,
			userID, query, s.now().Unix()); err != nil {
			return err
		}
		_, err := q.ExecContext(ctx, `
			DELETE FROM search_history
			WHERE user_id = ? AND seq NOT IN (
				SELECT seq FROM search_history WHERE user_id = ? ORDER BY seq DESC LIMIT ?
			)`, userID, userID, domain.MaxSearchHistory)
		return err
	})
	return s.fail("save query", err)
}

func (s *Store) ListQueries(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.tx.Querier(ctx).QueryContext(ctx,
		`SELECT query FROM search_history WHERE user_id = ? ORDER BY seq DESC LIMIT ?`,
		userID, domain.MaxSearchHistory)
	if err != nil {
		return nil, s.fail("list queries", err)
	}
	qs, err := scanStrings(rows)
	if err != nil {
		return nil, s.fail("list queries", err)
	}
	return qs, nil
}

func (s *Store) ClearQueries(ctx context.Context, userID string) error {
	_, err := s.tx.Querier(ctx).ExecContext(ctx, `DELETE FROM search_history WHERE user_id = ?`, userID)
	return s.fail("clear queries", err)
}

func (s *Store) fail(op string, err error) error {
	if err == nil {
		return nil
	}
	re := shared.MapError(shared.Wrap(err, op))
	s.log.Warn("local store failed", "op", op, "kind", re.Kind, "code", re.Code(), "err", err)
	return re
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
