package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	migrate "github.com/golang-migrate/migrate/v4"
	msqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrationInfo reports the schema version around a migration run.
type MigrationInfo struct {
	FromVersion uint
	ToVersion   uint
	Applied     bool
}

// Migrate applies the migrations found in dir of fsys to db. Running it on
// an up-to-date schema is a no-op. db stays open afterwards.
func Migrate(db *sql.DB, fsys fs.FS, dir string) (MigrationInfo, error) {
	m, closeSrc, err := newMigrator(db, fsys, dir)
	if err != nil {
		return MigrationInfo{}, err
	}
	defer closeSrc()

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

// Version returns the applied schema version, zero when none.
func Version(db *sql.DB, fsys fs.FS, dir string) (uint, bool, error) {
	m, closeSrc, err := newMigrator(db, fsys, dir)
	if err != nil {
		return 0, false, err
	}
	defer closeSrc()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Reset rolls every migration back.
func Reset(db *sql.DB, fsys fs.FS, dir string) error {
	m, closeSrc, err := newMigrator(db, fsys, dir)
	if err != nil {
		return err
	}
	defer closeSrc()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("reset migrations: %w", err)
	}
	return nil
}

// The migrate instance is not closed: its sqlite driver would close db.
func newMigrator(db *sql.DB, fsys fs.FS, dir string) (*migrate.Migrate, func(), error) {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open migrations %s: %w", dir, err)
	}
	drv, err := msqlite.WithInstance(db, &msqlite.Config{})
	if err != nil {
		_ = src.Close()
		return nil, nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		_ = src.Close()
		return nil, nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, func() { _ = src.Close() }, nil
}
