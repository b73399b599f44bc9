// Package migrate applies the SQL schema in migrations/ to the order database.
package migrate

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"gorm.io/gorm"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// ErrDirtySchema means an earlier run stopped halfway; the version has to be
// forced by hand before the service will start.
var ErrDirtySchema = errors.New("schema is dirty")

// Up brings the schema to the newest version found under dir and returns it.
func Up(db *gorm.DB, dir string, logger *slog.Logger) (uint, error) {
	if logger == nil {
		logger = slog.Default()
	}
	source, err := sourceURL(dir)
	if err != nil {
		return 0, err
	}

	conn, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("migrate: unwrap connection: %w", err)
	}
	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		return 0, fmt.Errorf("migrate: open driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(source, "postgres", driver)
	if err != nil {
		return 0, fmt.Errorf("migrate: load %s: %w", source, err)
	}

	before, dirty, err := version(m)
	if err != nil {
		return 0, err
	}
	if dirty {
		return before, fmt.Errorf("%w at version %d", ErrDirtySchema, before)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Debug("schema up to date", "version", before)
		return before, nil
	case err != nil:
		return before, fmt.Errorf("migrate: up from version %d: %w", before, err)
	}

	after, _, err := version(m)
	if err != nil {
		return before, err
	}
	logger.Info("schema migrated", "from", before, "to", after, "source", source)
	return after, nil
}

func version(m *migrate.Migrate) (uint, bool, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migrate: read version: %w", err)
	}
	return v, dirty, nil
}

// sourceURL turns a directory, relative or absolute, into a file:// source.
func sourceURL(dir string) (string, error) {
	dir = strings.TrimPrefix(dir, "file://")
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("migrate: empty migrations directory")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("migrate: resolve %q: %w", dir, err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}
