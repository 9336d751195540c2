// internal/services/transition_service.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/events"
	"github.com/G-alileo/e-visa-application-system/internal/metrics"
	"github.com/G-alileo/e-visa-application-system/internal/models"
	"github.com/G-alileo/e-visa-application-system/internal/repository"
)

// TransitionService is the only code path that changes an application's
// status. Each change is paired with exactly one audit entry in the same
// transaction.
type TransitionService struct {
	store    repository.Store
	audit    AuditWriter
	notifier *NotificationService
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewTransitionService(store repository.Store, audit AuditWriter, notifier *NotificationService, m *metrics.Metrics) *TransitionService {
	return &TransitionService{
		store:    store,
		audit:    audit,
		notifier: notifier,
		metrics:  m,
		now:      time.Now,
	}
}

// TransitionResult is what a successful transition wrote.
type TransitionResult struct {
	Application *models.Application
	Entry       *models.AuditLog
}

func (r *TransitionResult) Event() events.Event {
	return auditEvent(events.TypeStatusChanged, r.Entry)
}

func auditEvent(eventType string, entry *models.AuditLog) events.Event {
	return events.Event{
		Type:           eventType,
		ApplicationID:  entry.ApplicationID,
		PreviousStatus: entry.PreviousStatus,
		NewStatus:      entry.NewStatus,
		ActorID:        entry.ActorID,
		System:         entry.IsSystemInitiated(),
		Reason:         entry.Reason,
		OccurredAt:     entry.Timestamp,
	}
}

// Transition moves the application to target inside tx. The row is read
// with a lock so the status check and the write cannot interleave with
// another transition. Nothing is written when the target is not allowed.
func (s *TransitionService) Transition(ctx context.Context, tx repository.Store, applicationID uuid.UUID, target models.ApplicationStatus, actor *domain.Actor, reason string) (*TransitionResult, error) {
	app, err := tx.Applications().GetForUpdate(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	current := app.Status
	if !current.CanTransitionTo(target) {
		s.metrics.RecordTransitionRejected(string(current), string(target))
		return nil, invalidTransition(current, target)
	}

	app.Status = target
	if target == models.StatusSubmitted {
		submittedAt := s.now().UTC()
		app.SubmittedAt = &submittedAt
	}
	if err := tx.Applications().Update(ctx, app); err != nil {
		return nil, err
	}

	entry := &models.AuditLog{
		ApplicationID:  app.ID,
		PreviousStatus: string(current),
		NewStatus:      string(target),
		ActorID:        actorID(actor),
		Reason:         reason,
	}
	if err := s.audit.Append(ctx, tx, entry); err != nil {
		return nil, err
	}

	return &TransitionResult{Application: app, Entry: entry}, nil
}

// Apply runs a single transition as its own atomic unit and announces it
// once committed.
func (s *TransitionService) Apply(ctx context.Context, applicationID uuid.UUID, target models.ApplicationStatus, actor *domain.Actor, reason string) (*models.Application, error) {
	var result *TransitionResult
	err := s.store.RunInTx(ctx, func(tx repository.Store) error {
		var err error
		result, err = s.Transition(ctx, tx, applicationID, target, actor, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Committed(ctx, result)
	return result.Application, nil
}

// Committed records metrics and publishes events for transitions whose
// transaction has committed.
func (s *TransitionService) Committed(ctx context.Context, results ...*TransitionResult) {
	evts := make([]events.Event, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		s.metrics.RecordTransition(r.Entry.PreviousStatus, r.Entry.NewStatus)
		evts = append(evts, r.Event())
	}
	s.notifier.Notify(ctx, evts...)
}

func invalidTransition(from, to models.ApplicationStatus) *domain.InvalidTransitionError {
	return &domain.InvalidTransitionError{
		From:    string(from),
		To:      string(to),
		Allowed: statusStrings(from.AllowedTransitions()),
	}
}
