// Package migrations applies the embedded schema migrations with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Up applies every pending migration for the driver. It is a no-op when the
// schema is already current.
func Up(driver, dsn string) error {
	m, err := newMigrate(driver, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Down reverts every applied migration.
func Down(driver, dsn string) error {
	m, err := newMigrate(driver, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("revert migrations: %w", err)
	}
	return nil
}

// Version reports the current schema version. A zero version with a nil error
// means no migration has been applied yet.
func Version(driver, dsn string) (uint, bool, error) {
	m, err := newMigrate(driver, dsn)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func newMigrate(driver, dsn string) (*migrate.Migrate, error) {
	dir, databaseURL, err := resolve(driver, dsn)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(files, dir)
	if err != nil {
		return nil, fmt.Errorf("load %s migrations: %w", dir, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	return m, nil
}

// resolve maps a database/sql driver name and DSN onto the migration source
// directory and the URL golang-migrate expects.
func resolve(driver, dsn string) (string, string, error) {
	if strings.TrimSpace(dsn) == "" {
		return "", "", errors.New("migrations: dsn is required")
	}

	switch driver {
	case "postgres":
		if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			return "", "", fmt.Errorf("migrations: postgres dsn must be a URL, got %q", dsn)
		}
		return "postgres", dsn, nil
	case "sqlite":
		return "sqlite", "sqlite://" + strings.TrimPrefix(dsn, "file:"), nil
	default:
		return "", "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}
