// internal/services/review_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/models"
	"github.com/G-alileo/e-visa-application-system/internal/repository"
)

// DecisionHistoryLimit caps the decision history view.
const DecisionHistoryLimit = 200

const CodeRejectionReasonMissing = "REJECTION_REASON_MISSING"

var reviewerRoles = []domain.Role{domain.RoleOfficer, domain.RoleSupervisor}

type ReviewService struct {
	store       repository.Store
	transitions *TransitionService
}

type ReviewRequest struct {
	Reason string `json:"reason" validate:"max=5000"`
}

func NewReviewService(store repository.Store, transitions *TransitionService) *ReviewService {
	return &ReviewService{store: store, transitions: transitions}
}

func (s *ReviewService) Approve(ctx context.Context, reviewer *domain.Actor, applicationID uuid.UUID) (*models.ReviewDecision, error) {
	reason := fmt.Sprintf("Approved by %s.", reviewer.Label())
	return s.decide(ctx, reviewer, applicationID, models.StatusApproved, models.DecisionApproved, reason, nil)
}

// Reject requires a written reason.
func (s *ReviewService) Reject(ctx context.Context, reviewer *domain.Actor, applicationID uuid.UUID, reason string) (*models.ReviewDecision, error) {
	return s.decide(ctx, reviewer, applicationID, models.StatusRejected, models.DecisionRejected, reason, func() error {
		if strings.TrimSpace(reason) == "" {
			return &domain.RuleViolationError{
				Message:      "A written reason is required when rejecting an application.",
				FailureCodes: []string{CodeRejectionReasonMissing},
			}
		}
		return nil
	})
}

// RequestInfo pauses the application until the applicant responds. The
// note is stored as the reason on both the audit entry and the decision.
func (s *ReviewService) RequestInfo(ctx context.Context, reviewer *domain.Actor, applicationID uuid.UUID, note string) (*models.ReviewDecision, error) {
	return s.decide(ctx, reviewer, applicationID, models.StatusPendingInfo, models.DecisionRequestInfo, note, nil)
}

// decide checks the status first, then the role, then any decision-specific
// precondition, all inside the transaction that records the outcome.
func (s *ReviewService) decide(ctx context.Context, reviewer *domain.Actor, applicationID uuid.UUID, target models.ApplicationStatus, value models.DecisionValue, reason string, check func() error) (*models.ReviewDecision, error) {
	var (
		decision *models.ReviewDecision
		result   *TransitionResult
	)
	err := s.store.RunInTx(ctx, func(tx repository.Store) error {
		app, err := tx.Applications().GetForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}
		if app.Status != models.StatusUnderReview {
			return &domain.InvalidTransitionError{
				From:    string(app.Status),
				To:      string(target),
				Allowed: statusStrings(app.Status.AllowedTransitions()),
				Message: fmt.Sprintf("Review actions require status UNDER_REVIEW. Application %s is currently %q.", app.ID, app.Status),
			}
		}
		if err := domain.RequireRole(reviewer, reviewerRoles...); err != nil {
			return err
		}
		if check != nil {
			if err := check(); err != nil {
				return err
			}
		}

		result, err = s.transitions.Transition(ctx, tx, applicationID, target, reviewer, reason)
		if err != nil {
			return err
		}

		decision = &models.ReviewDecision{
			ApplicationID: applicationID,
			ReviewerID:    reviewer.ID,
			Decision:      value,
			Reason:        reason,
		}
		if err := tx.Reviews().Create(ctx, decision); err != nil {
			return fmt.Errorf("failed to record review decision: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.transitions.Committed(ctx, result)
	return decision, nil
}

// DecisionHistory lists decisions newest first. Supervisors and admins see
// every decision; officers see their own.
func (s *ReviewService) DecisionHistory(ctx context.Context, actor *domain.Actor, applicationID *uuid.UUID) ([]models.ReviewDecision, error) {
	if err := domain.RequireRole(actor, domain.RoleOfficer, domain.RoleSupervisor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	filter := repository.ReviewFilter{ApplicationID: applicationID, Limit: DecisionHistoryLimit}
	if actor.Role == domain.RoleOfficer {
		id := actor.ID
		filter.ReviewerID = &id
	}
	return s.store.Reviews().List(ctx, filter)
}
