// internal/services/application_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/models"
	"github.com/G-alileo/e-visa-application-system/internal/repository"
	"github.com/G-alileo/e-visa-application-system/internal/rules"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

const (
	reasonSubmitted   = "Application submitted by applicant."
	reasonResubmitted = "Additional information provided by applicant."
)

type ApplicationService struct {
	store       repository.Store
	transitions *TransitionService
	payments    *PaymentService
	screening   *ScreeningService
	now         func() time.Time
}

type CreateApplicationRequest struct {
	VisaTypeCode      string `json:"visa_type_code" validate:"required,visa_type_code"`
	Nationality       string `json:"nationality" validate:"required,nationality"`
	PurposeOfTravel   string `json:"purpose_of_travel" validate:"required,min=3,max=2000"`
	IntendedEntryDate string `json:"intended_entry_date" validate:"required,future_date"`
}

type UpdateApplicationRequest struct {
	VisaTypeCode      *string `json:"visa_type_code" validate:"omitempty,visa_type_code"`
	Nationality       *string `json:"nationality" validate:"omitempty,nationality"`
	PurposeOfTravel   *string `json:"purpose_of_travel" validate:"omitempty,min=3,max=2000"`
	IntendedEntryDate *string `json:"intended_entry_date" validate:"omitempty,future_date"`
}

type ReApplyRequest struct {
	IntendedEntryDate string `json:"intended_entry_date" validate:"required,future_date"`
}

// SubmissionResult reports how far the submit flow progressed. Screening is
// set when the rule engine ran, including when it blocked the application.
type SubmissionResult struct {
	Application *models.Application `json:"application"`
	Payment     *models.Payment     `json:"payment"`
	Screening   *rules.Result       `json:"screening,omitempty"`
}

func NewApplicationService(store repository.Store, transitions *TransitionService, payments *PaymentService, screening *ScreeningService) *ApplicationService {
	return &ApplicationService{
		store:       store,
		transitions: transitions,
		payments:    payments,
		screening:   screening,
		now:         time.Now,
	}
}

func (s *ApplicationService) CreateDraft(ctx context.Context, actor *domain.Actor, req *CreateApplicationRequest) (*models.Application, error) {
	if err := domain.RequireRole(actor, domain.RoleApplicant); err != nil {
		return nil, err
	}

	visaType, err := s.activeVisaType(ctx, req.VisaTypeCode)
	if err != nil {
		return nil, err
	}
	entry, err := utils.ParseDate(req.IntendedEntryDate)
	if err != nil {
		return nil, fmt.Errorf("invalid intended entry date: %w", err)
	}

	app := &models.Application{
		ApplicantID:       actor.ID,
		VisaTypeID:        visaType.ID,
		Status:            models.StatusDraft,
		Nationality:       strings.ToUpper(strings.TrimSpace(req.Nationality)),
		PurposeOfTravel:   strings.TrimSpace(req.PurposeOfTravel),
		IntendedEntryDate: entry,
	}
	if err := s.store.Applications().Create(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	app.VisaType = visaType

	logrus.WithFields(logrus.Fields{
		"application_id": app.ID,
		"applicant_id":   actor.ID,
		"visa_type":      visaType.Code,
	}).Info("Application draft created")

	return app, nil
}

// UpdateDraft changes applicant-supplied fields. Only DRAFT applications
// may be edited.
func (s *ApplicationService) UpdateDraft(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID, req *UpdateApplicationRequest) (*models.Application, error) {
	var app *models.Application
	err := s.store.RunInTx(ctx, func(tx repository.Store) error {
		var err error
		app, err = s.ownedDraft(ctx, tx, actor, applicationID)
		if err != nil {
			return err
		}

		if req.VisaTypeCode != nil {
			visaType, err := activeVisaType(ctx, tx, *req.VisaTypeCode)
			if err != nil {
				return err
			}
			app.VisaTypeID = visaType.ID
			app.VisaType = visaType
		}
		if req.Nationality != nil {
			app.Nationality = strings.ToUpper(strings.TrimSpace(*req.Nationality))
		}
		if req.PurposeOfTravel != nil {
			app.PurposeOfTravel = strings.TrimSpace(*req.PurposeOfTravel)
		}
		if req.IntendedEntryDate != nil {
			entry, err := utils.ParseDate(*req.IntendedEntryDate)
			if err != nil {
				return fmt.Errorf("invalid intended entry date: %w", err)
			}
			app.IntendedEntryDate = entry
		}

		return tx.Applications().Update(ctx, app)
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

func (s *ApplicationService) Get(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID) (*models.Application, error) {
	app, err := s.store.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ListMine returns the actor's own applications, newest first.
func (s *ApplicationService) ListMine(ctx context.Context, actor *domain.Actor, params utils.PaginationParams) ([]models.Application, int64, error) {
	if actor == nil {
		return nil, 0, domain.ErrForbidden
	}
	return s.store.Applications().ListByApplicant(ctx, actor.ID, listOptions(params))
}

// OfficerQueue lists applications awaiting a decision, oldest submission first.
func (s *ApplicationService) OfficerQueue(ctx context.Context, actor *domain.Actor, params utils.PaginationParams) ([]models.Application, int64, error) {
	return s.queue(ctx, actor, models.StatusUnderReview, params)
}

func (s *ApplicationService) PendingInfoQueue(ctx context.Context, actor *domain.Actor, params utils.PaginationParams) ([]models.Application, int64, error) {
	return s.queue(ctx, actor, models.StatusPendingInfo, params)
}

func (s *ApplicationService) queue(ctx context.Context, actor *domain.Actor, status models.ApplicationStatus, params utils.PaginationParams) ([]models.Application, int64, error) {
	if err := domain.RequireRole(actor, domain.RoleOfficer, domain.RoleSupervisor, domain.RoleAdmin); err != nil {
		return nil, 0, err
	}
	return s.store.Applications().ListByStatus(ctx, status, listOptions(params))
}

// SoftDelete hides a DRAFT from every read path. The row is kept.
func (s *ApplicationService) SoftDelete(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID) error {
	return s.store.RunInTx(ctx, func(tx repository.Store) error {
		app, err := s.ownedDraft(ctx, tx, actor, applicationID)
		if err != nil {
			return err
		}
		deletedAt := s.now().UTC()
		app.SoftDeletedAt = &deletedAt
		return tx.Applications().Update(ctx, app)
	})
}

// Submit moves a DRAFT to SUBMITTED and opens its PENDING payment in one
// transaction, then hands the application to pre-screening. A screening
// failure is returned alongside the result: the submission itself stands.
func (s *ApplicationService) Submit(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID) (*SubmissionResult, error) {
	var (
		transition *TransitionResult
		payment    *models.Payment
	)
	err := s.store.RunInTx(ctx, func(tx repository.Store) error {
		app, err := tx.Applications().Get(ctx, applicationID)
		if err != nil {
			return err
		}
		if !app.IsOwnedBy(actorUUID(actor)) {
			return domain.ErrForbidden
		}
		visaType, err := tx.VisaTypes().Get(ctx, app.VisaTypeID)
		if err != nil {
			return fmt.Errorf("failed to load visa type: %w", err)
		}

		transition, err = s.transitions.Transition(ctx, tx, app.ID, models.StatusSubmitted, actor, reasonSubmitted)
		if err != nil {
			return err
		}
		payment, err = s.payments.CreatePaymentRecord(ctx, tx, app.ID, visaType.FeeAmount, s.payments.NewReference(app.ID))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.transitions.Committed(ctx, transition)

	result := &SubmissionResult{Application: transition.Application, Payment: payment}

	app, screening, err := s.screening.Screen(ctx, applicationID)
	result.Screening = screening
	if err != nil {
		return result, err
	}
	result.Application = app
	return result, nil
}

// Resubmit returns a PENDING_INFO application to the officer queue once the
// applicant has supplied what was asked for.
func (s *ApplicationService) Resubmit(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID) (*models.Application, error) {
	var result *TransitionResult
	err := s.store.RunInTx(ctx, func(tx repository.Store) error {
		app, err := tx.Applications().Get(ctx, applicationID)
		if err != nil {
			return err
		}
		if !app.IsOwnedBy(actorUUID(actor)) {
			return domain.ErrForbidden
		}
		result, err = s.transitions.Transition(ctx, tx, app.ID, models.StatusUnderReview, actor, reasonResubmitted)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.transitions.Committed(ctx, result)
	return result.Application, nil
}

// ReApply opens a new DRAFT prefilled from a REJECTED application.
func (s *ApplicationService) ReApply(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID, req *ReApplyRequest) (*models.Application, error) {
	previous, err := s.store.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !previous.IsOwnedBy(actorUUID(actor)) {
		return nil, domain.ErrForbidden
	}
	if previous.Status != models.StatusRejected {
		return nil, &domain.InvalidTransitionError{
			From:    string(previous.Status),
			To:      string(models.StatusDraft),
			Message: fmt.Sprintf("Only rejected applications can be re-applied. Application %s is currently %q.", previous.ID, previous.Status),
		}
	}

	visaType, err := s.store.VisaTypes().Get(ctx, previous.VisaTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load visa type: %w", err)
	}

	return s.CreateDraft(ctx, actor, &CreateApplicationRequest{
		VisaTypeCode:      visaType.Code,
		Nationality:       previous.Nationality,
		PurposeOfTravel:   previous.PurposeOfTravel,
		IntendedEntryDate: req.IntendedEntryDate,
	})
}

func (s *ApplicationService) activeVisaType(ctx context.Context, code string) (*models.VisaType, error) {
	return activeVisaType(ctx, s.store, code)
}

func activeVisaType(ctx context.Context, store repository.Store, code string) (*models.VisaType, error) {
	visaType, err := store.VisaTypes().GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if !visaType.IsActive {
		return nil, &domain.RuleViolationError{
			Message:      fmt.Sprintf("Visa type '%s' is not currently accepting applications.", visaType.Code),
			FailureCodes: []string{"VISA_TYPE_INACTIVE"},
		}
	}
	return visaType, nil
}

func (s *ApplicationService) ownedDraft(ctx context.Context, tx repository.Store, actor *domain.Actor, applicationID uuid.UUID) (*models.Application, error) {
	app, err := tx.Applications().GetForUpdate(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.IsOwnedBy(actorUUID(actor)) {
		return nil, domain.ErrForbidden
	}
	if app.Status != models.StatusDraft {
		return nil, &domain.InvalidTransitionError{
			From:    string(app.Status),
			To:      string(app.Status),
			Message: fmt.Sprintf("Only DRAFT applications can be changed. Application %s is currently %q.", app.ID, app.Status),
		}
	}
	return app, nil
}

func actorUUID(actor *domain.Actor) uuid.UUID {
	if actor == nil {
		return uuid.Nil
	}
	return actor.ID
}

func listOptions(params utils.PaginationParams) repository.ListOptions {
	return repository.ListOptions{Offset: params.Offset(), Limit: params.Limit}
}
