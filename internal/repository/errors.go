// internal/repository/errors.go
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
)

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = fmt.Errorf("duplicate record: %w", domain.ErrConflict)

const pgUniqueViolation = "23505"

// translate maps driver errors onto the repository's error vocabulary.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}
