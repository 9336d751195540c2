// internal/repository/repository.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/G-alileo/e-visa-application-system/internal/models"
)

// Store groups the repositories that share one transactional boundary.
// Repositories obtained from the Store passed to RunInTx's callback join
// that transaction; the callback's error rolls every write back.
type Store interface {
	Applications() ApplicationRepository
	Audit() AuditRepository
	Payments() PaymentRepository
	Reviews() ReviewRepository
	Documents() DocumentRepository
	VisaTypes() VisaTypeRepository
	Screenings() ScreeningRepository

	RunInTx(ctx context.Context, fn func(tx Store) error) error
}

type ListOptions struct {
	Offset int
	Limit  int
}

// ApplicationRepository never returns soft-deleted rows.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	Get(ctx context.Context, id uuid.UUID) (*models.Application, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Application, error)
	Update(ctx context.Context, app *models.Application) error
	ListByApplicant(ctx context.Context, applicantID uuid.UUID, opts ListOptions) ([]models.Application, int64, error)
	ListByStatus(ctx context.Context, status models.ApplicationStatus, opts ListOptions) ([]models.Application, int64, error)
}

type AuditFilter struct {
	ApplicationID *uuid.UUID
	Limit         int
}

type AuditRepository interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	// ListByApplication is ordered by timestamp ascending.
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.AuditLog, error)
	// List is ordered by timestamp descending.
	List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error)
	// Update and Delete always fail with an ImmutabilityViolationError.
	Update(ctx context.Context, entry *models.AuditLog) error
	Delete(ctx context.Context, id uint64) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByApplication(ctx context.Context, applicationID uuid.UUID) (*models.Payment, error)
	GetByApplicationForUpdate(ctx context.Context, applicationID uuid.UUID) (*models.Payment, error)
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
}

type ReviewFilter struct {
	ReviewerID    *uuid.UUID
	ApplicationID *uuid.UUID
	Limit         int
}

type ReviewRepository interface {
	Create(ctx context.Context, decision *models.ReviewDecision) error
	// List is ordered newest first.
	List(ctx context.Context, filter ReviewFilter) ([]models.ReviewDecision, error)
}

type DocumentRepository interface {
	// Upsert keeps one row per (application, document type).
	Upsert(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
}

type VisaTypeRepository interface {
	Create(ctx context.Context, vt *models.VisaType) error
	Get(ctx context.Context, id uuid.UUID) (*models.VisaType, error)
	GetByCode(ctx context.Context, code string) (*models.VisaType, error)
	List(ctx context.Context, activeOnly bool) ([]models.VisaType, error)
	Update(ctx context.Context, vt *models.VisaType) error
}

type ScreeningRepository interface {
	Create(ctx context.Context, result *models.ScreeningResult) error
	Latest(ctx context.Context, applicationID uuid.UUID) (*models.ScreeningResult, error)
}
