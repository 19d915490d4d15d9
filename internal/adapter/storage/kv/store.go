// Package kv keeps per-user favorites and search history in an embedded
// Badger database. Each user owns one JSON list per concern, newest first.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"nimli/internal/domain"
	"nimli/internal/shared"
	"nimli/pkg/retry"
)

const (
	favoritesPrefix = "fav:"
	historyPrefix   = "hist:"
)

// Store implements FavoriteRepository and SearchHistoryRepository.
type Store struct {
	db    *badger.DB
	log   *slog.Logger
	retry retry.Config
}

// Open opens a Badger directory; an empty dir opens an in-memory store.
func Open(dir string, log *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{log})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %q: %w", dir, err)
	}
	return &Store{
		db:  db,
		log: log,
		retry: retry.Config{
			MaxAttempts:    5,
			InitialDelay:   5 * time.Millisecond,
			MaxDelay:       100 * time.Millisecond,
			Multiplier:     2,
			JitterStrategy: retry.JitterEqual,
		},
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ListFavorites(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.read(ctx, favoritesPrefix+userID)
	return ids, s.fail("list favorites", err)
}

// AddFavorite is idempotent; an existing favorite keeps its position.
func (s *Store) AddFavorite(ctx context.Context, userID, creatorID string) error {
	return s.fail("add favorite", s.update(ctx, favoritesPrefix+userID, func(ids []string) []string {
		if slices.Contains(ids, creatorID) {
			return ids
		}
		return append([]string{creatorID}, ids...)
	}))
}

func (s *Store) RemoveFavorite(ctx context.Context, userID, creatorID string) error {
	return s.fail("remove favorite", s.update(ctx, favoritesPrefix+userID, func(ids []string) []string {
		return slices.DeleteFunc(ids, func(id string) bool { return id == creatorID })
	}))
}

func (s *Store) IsFavorite(ctx context.Context, userID, creatorID string) (bool, error) {
	ids, err := s.read(ctx, favoritesPrefix+userID)
	if err != nil {
		return false, s.fail("check favorite", err)
	}
	return slices.Contains(ids, creatorID), nil
}

func (s *Store) SaveQuery(ctx context.Context, userID, query string) error {
	return s.fail("save query", s.update(ctx, historyPrefix+userID, func(qs []string) []string {
		return domain.PushHistory(qs, query)
	}))
}

func (s *Store) ListQueries(ctx context.Context, userID string) ([]string, error) {
	qs, err := s.read(ctx, historyPrefix+userID)
	return qs, s.fail("list queries", err)
}

func (s *Store) ClearQueries(ctx context.Context, userID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(historyPrefix + userID))
	})
	return s.fail("clear queries", err)
}

func (s *Store) read(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = getList(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// update rewrites one list, retrying on write conflicts.
func (s *Store) update(ctx context.Context, key string, f func([]string) []string) error {
	err := retry.DoWithRetryable(ctx, s.retry, func(context.Context) error {
		return s.db.Update(func(txn *badger.Txn) error {
			cur, err := getList(txn, key)
			if err != nil {
				return err
			}
			next := f(cur)
			if len(next) == 0 {
				return txn.Delete([]byte(key))
			}
			raw, err := json.Marshal(next)
			if err != nil {
				return err
			}
			return txn.Set([]byte(key), raw)
		})
	}, func(err error) bool { return errors.Is(err, badger.ErrConflict) })

	var ex *retry.ExhaustedError
	if errors.As(err, &ex) {
		return ex.LastError
	}
	return err
}

func getList(txn *badger.Txn, key string) ([]string, error) {
	out := []string{}
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	err = item.Value(func(v []byte) error { return json.Unmarshal(v, &out) })
	return out, err
}

func (s *Store) fail(op string, err error) error {
	if err == nil {
		return nil
	}
	re := shared.MapError(shared.Wrap(err, op))
	s.log.Warn("kv store failed", "op", op, "kind", re.Kind, "code", re.Code(), "err", err)
	return re
}

// badgerLogger routes badger's printf logging into slog. Info goes to debug.
type badgerLogger struct{ log *slog.Logger }

func (l badgerLogger) Errorf(f string, a ...any) { l.log.Error(fmt.Sprintf(f, a...), "component", "badger") }
func (l badgerLogger) Warningf(f string, a ...any) { l.log.Warn(fmt.Sprintf(f, a...), "component", "badger") }
func (l badgerLogger) Infof(f string, a ...any) { l.log.Debug(fmt.Sprintf(f, a...), "component", "badger") }
func (l badgerLogger) Debugf(f string, a ...any) { l.log.Debug(fmt.Sprintf(f, a...), "component", "badger") }
