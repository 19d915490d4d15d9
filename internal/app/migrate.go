package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	pgstore "nimli/internal/adapter/storage/pg"
	"nimli/internal/adapter/storage/sqlite"
	"nimli/internal/config"
	sqlitedb "nimli/internal/platform/sqlite"
)

// MigrationResult describes one schema brought up to date.
type MigrationResult struct {
	Store       string `json:"store"`
	FromVersion uint   `json:"fromVersion"`
	ToVersion   uint   `json:"toVersion"`
	Applied     bool   `json:"applied"`
}

// Migrate applies the schemas of the SQL stores cfg selects. Badger and the
// in-memory store have no schema.
func Migrate(ctx context.Context, cfg config.Config, log *slog.Logger) ([]MigrationResult, error) {
	out := []MigrationResult{}
	if cfg.Local.Store == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Local.SQLitePath), 0o755); err != nil {
			return nil, err
		}
		db, err := sqlitedb.Open(ctx, cfg.Local.SQLitePath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		info, err := sqlite.Migrate(db)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		log.Info("sqlite migrated", "path", cfg.Local.SQLitePath, "to", info.ToVersion, "applied", info.Applied)
		out = append(out, MigrationResult{"sqlite", info.FromVersion, info.ToVersion, info.Applied})
	}
	if cfg.Submissions.Store == "postgres" {
		info, err := pgstore.Migrate(cfg.Submissions.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		log.Info("postgres migrated", "to", info.ToVersion, "applied", info.Applied)
		out = append(out, MigrationResult{"postgres", info.FromVersion, info.ToVersion, info.Applied})
	}
	return out, nil
}
