// internal/database/migrate.go
package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	_ "github.com/golang-migrate/migrate/v4/source/file"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// applySQLMigrations runs the versioned SQL files. An empty path uses the
// files embedded in the binary.
func applySQLMigrations(db *gorm.DB, migrationsPath string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("creating postgres driver: %w", err)
	}

	var m *migrate.Migrate
	if migrationsPath != "" {
		m, err = migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsPath), "postgres", driver)
	} else {
		source, srcErr := iofs.New(migrationFiles, "migrations")
		if srcErr != nil {
			return fmt.Errorf("opening embedded migrations: %w", srcErr)
		}
		m, err = migrate.NewWithInstance("iofs", source, "postgres", driver)
	}
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logrus.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("SQL migrations applied")
	return nil
}
