//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/G-alileo/e-visa-application-system/internal/database"
)

// PostgresContainer wraps a migrated testcontainers postgres instance.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *gorm.DB
}

// NewPostgresContainer starts postgres, runs the schema migrations and
// registers cleanup with t.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("evisa_test"),
		tcpostgres.WithUsername("evisa"),
		tcpostgres.WithPassword("evisa"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := database.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	if err := database.RunMigrations(db, ""); err != nil {
		t.Fatalf("failed to migrate postgres: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// Truncate empties the mutable tables between tests. The audit table is
// append-only, so tests use fresh application ids instead of clearing it.
func (p *PostgresContainer) Truncate(t *testing.T) {
	t.Helper()
	err := p.DB.Exec("TRUNCATE review_decisions, documents, screening_results, payments, applications, visa_types CASCADE").Error
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
