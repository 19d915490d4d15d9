package pg

import (
	"errors"
	"fmt"
	"io/fs"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrationInfo reports the schema version around a migration run.
type MigrationInfo struct {
	FromVersion uint
	ToVersion   uint
	Applied     bool
}

// Migrate applies the migrations in dir of fsys. It refuses to touch a
// dirty schema.
func Migrate(dsn string, fsys fs.FS, dir string) (MigrationInfo, error) {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return MigrationInfo{}, fmt.Errorf("open migrations %s: %w", dir, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return MigrationInfo{}, fmt.Errorf("create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	var info MigrationInfo
	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return info, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return info, fmt.Errorf("schema is dirty at version %d", from)
	}
	info.FromVersion, info.ToVersion = from, from

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return info, nil
		}
		return info, fmt.Errorf("apply migrations: %w", err)
	}
	info.Applied = true
	if v, _, err := m.Version(); err == nil {
		info.ToVersion = v
	}
	return info, nil
}
