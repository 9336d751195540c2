// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/G-alileo/e-visa-application-system/internal/config"
	"github.com/G-alileo/e-visa-application-system/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	}

	db, err := Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, err
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established successfully")
	return db, nil
}

// Open connects through an arbitrary dialector; integration tests pass the
// DSN of a throwaway container.
func Open(dialector gorm.Dialector, gormConfig *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB, migrationsPath string) error {
	logrus.Info("Running database migrations...")

	// gen_random_uuid() lives in pgcrypto before postgres 13
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"pgcrypto\"").Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.VisaType{},
		&models.Application{},
		&models.AuditLog{},
		&models.Payment{},
		&models.ReviewDecision{},
		&models.Document{},
		&models.ScreeningResult{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Versioned SQL: triggers and constraints AutoMigrate cannot express
	if err := applySQLMigrations(db, migrationsPath); err != nil {
		return fmt.Errorf("failed to apply sql migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Application indexes
		"CREATE INDEX IF NOT EXISTS idx_applications_applicant_created ON applications(applicant_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_applications_status_deleted ON applications(status, soft_deleted_at)",
		"CREATE INDEX IF NOT EXISTS idx_applications_queue ON applications(status, submitted_at) WHERE soft_deleted_at IS NULL",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_application_ts ON audit_logs(application_id, timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_actor_ts ON audit_logs(actor_id, timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_ts ON audit_logs(timestamp DESC)",

		// Review indexes
		"CREATE INDEX IF NOT EXISTS idx_review_decisions_reviewer_created ON review_decisions(reviewer_id, created_at DESC)",

		// Screening indexes
		"CREATE INDEX IF NOT EXISTS idx_screening_results_application_created ON screening_results(application_id, created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
