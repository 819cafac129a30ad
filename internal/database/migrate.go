package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies all pending migrations from migrationsPath. A dirty
// schema version (an earlier run died mid-migration) is forced back one step
// and retried once before giving up.
func RunMigrations(db *sql.DB, migrationsPath string, logger *slog.Logger) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			logger.Info("Database schema is up to date")
			return nil
		case strings.Contains(err.Error(), "Dirty database"):
			if retryErr := retryDirty(m, logger); retryErr != nil {
				return retryErr
			}
		default:
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	version, dirty, _ := m.Version()
	logger.Info("Migrations completed", "version", version, "dirty", dirty)

	return nil
}

func retryDirty(m *migrate.Migrate, logger *slog.Logger) error {
	version, dirty, err := m.Version()
	if err != nil || !dirty || version == 0 {
		return fmt.Errorf("dirty migration state at version %d cannot be recovered", version)
	}

	logger.Warn("Dirty migration state, forcing previous version and retrying", "version", version)
	if err := m.Force(int(version) - 1); err != nil {
		return fmt.Errorf("failed to force migration version: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations after dirty fix: %w", err)
	}
	return nil
}
