// internal/services/audit_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/models"
	"github.com/G-alileo/e-visa-application-system/internal/repository"
)

// AuditLogViewLimit caps the supervisor audit log view.
const AuditLogViewLimit = 500

// AuditWriter appends audit entries inside the caller's transaction.
type AuditWriter interface {
	Append(ctx context.Context, tx repository.Store, entry *models.AuditLog) error
}

type AuditService struct {
	store repository.Store
}

func NewAuditService(store repository.Store) *AuditService {
	return &AuditService{store: store}
}

func (s *AuditService) Append(ctx context.Context, tx repository.Store, entry *models.AuditLog) error {
	if err := tx.Audit().Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry for application %s: %w", entry.ApplicationID, err)
	}
	return nil
}

// Trail returns the audit entries of one application, oldest first. The
// owner and staff may read it.
func (s *AuditService) Trail(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID) ([]models.AuditLog, error) {
	app, err := s.store.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, app); err != nil {
		return nil, err
	}
	return s.store.Audit().ListByApplication(ctx, applicationID)
}

// Recent is the supervisor view of the audit log, newest first.
func (s *AuditService) Recent(ctx context.Context, actor *domain.Actor, applicationID *uuid.UUID) ([]models.AuditLog, error) {
	if err := domain.RequireRole(actor, domain.RoleSupervisor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.Audit().List(ctx, repository.AuditFilter{
		ApplicationID: applicationID,
		Limit:         AuditLogViewLimit,
	})
}

// authorizeRead allows the owning applicant and any staff member.
func authorizeRead(actor *domain.Actor, app *models.Application) error {
	if actor == nil {
		return domain.ErrForbidden
	}
	if app.IsOwnedBy(actor.ID) || actor.IsStaff() {
		return nil
	}
	return domain.ErrForbidden
}

func actorID(actor *domain.Actor) *uuid.UUID {
	if actor == nil {
		return nil
	}
	id := actor.ID
	return &id
}
