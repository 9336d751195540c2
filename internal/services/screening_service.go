// internal/services/screening_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/metrics"
	"github.com/G-alileo/e-visa-application-system/internal/models"
	"github.com/G-alileo/e-visa-application-system/internal/repository"
	"github.com/G-alileo/e-visa-application-system/internal/rules"
)

const (
	reasonPreScreeningPassed   = "Pre-screening passed."
	reasonPreScreeningWarnings = "Pre-screening warnings: "
	reasonAssignedToQueue      = "Pre-screening complete, assigned to officer queue."
)

// ScreeningService runs the automated checks between submission and
// officer review.
type ScreeningService struct {
	store       repository.Store
	engine      *rules.Engine
	transitions *TransitionService
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewScreeningService(store repository.Store, engine *rules.Engine, transitions *TransitionService, m *metrics.Metrics) *ScreeningService {
	return &ScreeningService{
		store:       store,
		engine:      engine,
		transitions: transitions,
		metrics:     m,
		now:         time.Now,
	}
}

// Evaluate runs the rule engine against the application's current
// documents without changing anything.
func (s *ScreeningService) Evaluate(ctx context.Context, app *models.Application) (rules.Result, error) {
	code, err := visaTypeCode(ctx, s.store, app)
	if err != nil {
		return rules.Result{}, err
	}
	docs, err := s.store.Documents().ListByApplication(ctx, app.ID)
	if err != nil {
		return rules.Result{}, fmt.Errorf("failed to list documents: %w", err)
	}

	supplied := make([]string, len(docs))
	for i, d := range docs {
		supplied[i] = string(d.DocumentType)
	}

	return s.engine.Evaluate(rules.Input{
		VisaTypeCode:      code,
		Nationality:       app.Nationality,
		IntendedEntryDate: app.IntendedEntryDate,
		DocumentTypes:     supplied,
		ReferenceDate:     s.now(),
	})
}

// RunPreScreening moves a SUBMITTED application to PRE_SCREENING. A
// nationality failure raises a RuleViolationError and leaves the status
// unchanged; any other failure is folded into the audit reason as a warning.
func (s *ScreeningService) RunPreScreening(ctx context.Context, applicationID uuid.UUID) (*models.Application, *rules.Result, error) {
	app, err := s.store.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.Evaluate(ctx, app)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.RecordRuleFailures(result.FailureCodes)

	screening := &models.ScreeningResult{
		ApplicationID: app.ID,
		Passed:        result.Passed,
		FailureCodes:  result.FailureCodes,
		Explanations:  result.Explanations,
		ReferenceDate: s.now().UTC(),
	}

	if blockers := result.HardBlockers(); len(blockers) > 0 {
		screening.Blocked = true
		if err := s.store.Screenings().Create(ctx, screening); err != nil {
			logrus.WithError(err).WithField("application_id", app.ID).Warn("Failed to record blocked screening result")
		}
		return nil, &result, &domain.RuleViolationError{
			Message:      fmt.Sprintf("Pre-screening hard failure for application %s: %s", app.ID, strings.Join(result.Explanations, "; ")),
			FailureCodes: result.FailureCodes,
		}
	}

	reason := reasonPreScreeningPassed
	if !result.Passed {
		reason = reasonPreScreeningWarnings + strings.Join(result.Explanations, "; ")
	}

	var transition *TransitionResult
	err = s.store.RunInTx(ctx, func(tx repository.Store) error {
		var err error
		transition, err = s.transitions.Transition(ctx, tx, app.ID, models.StatusPreScreening, nil, reason)
		if err != nil {
			return err
		}
		return tx.Screenings().Create(ctx, screening)
	})
	if err != nil {
		return nil, nil, err
	}
	s.transitions.Committed(ctx, transition)

	logrus.WithFields(logrus.Fields{
		"application_id": app.ID,
		"passed":         result.Passed,
		"failure_codes":  result.FailureCodes,
	}).Info("Pre-screening completed")

	return transition.Application, &result, nil
}

// MoveToUnderReview places a pre-screened application in the officer queue.
func (s *ScreeningService) MoveToUnderReview(ctx context.Context, applicationID uuid.UUID) (*models.Application, error) {
	return s.transitions.Apply(ctx, applicationID, models.StatusUnderReview, nil, reasonAssignedToQueue)
}

// Screen runs pre-screening and, when it succeeds, queues the application
// for review.
func (s *ScreeningService) Screen(ctx context.Context, applicationID uuid.UUID) (*models.Application, *rules.Result, error) {
	_, result, err := s.RunPreScreening(ctx, applicationID)
	if err != nil {
		return nil, result, err
	}
	app, err := s.MoveToUnderReview(ctx, applicationID)
	return app, result, err
}

// Rerun lets staff retry screening for an application left in SUBMITTED by
// an earlier hard failure. An application that passed pre-screening but never
// reached the queue is only queued.
func (s *ScreeningService) Rerun(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID) (*models.Application, *rules.Result, error) {
	if err := domain.RequireRole(actor, domain.RoleOfficer, domain.RoleSupervisor, domain.RoleAdmin); err != nil {
		return nil, nil, err
	}

	app, err := s.store.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, nil, err
	}
	if app.Status != models.StatusPreScreening {
		return s.Screen(ctx, applicationID)
	}

	result, err := s.Evaluate(ctx, app)
	if err != nil {
		return nil, nil, err
	}
	queued, err := s.MoveToUnderReview(ctx, applicationID)
	return queued, &result, err
}

// LatestResult returns the most recent structured screening outcome.
func (s *ScreeningService) LatestResult(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID) (*models.ScreeningResult, error) {
	app, err := s.store.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, app); err != nil {
		return nil, err
	}
	return s.store.Screenings().Latest(ctx, app.ID)
}
