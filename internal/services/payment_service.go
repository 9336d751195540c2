// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/G-alileo/e-visa-application-system/internal/config"
	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/events"
	"github.com/G-alileo/e-visa-application-system/internal/metrics"
	"github.com/G-alileo/e-visa-application-system/internal/models"
	"github.com/G-alileo/e-visa-application-system/internal/repository"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

const reasonVisaIssued = "Payment confirmed, visa issued."

// PaymentService is the payment gate: one payment per application, confirmed
// exactly once, and issuance only after confirmation.
type PaymentService struct {
	store          repository.Store
	transitions    *TransitionService
	audit          AuditWriter
	gateway        PaymentGateway
	notifier       *NotificationService
	metrics        *metrics.Metrics
	references     *utils.ReferenceGenerator
	currency       string
	publishableKey string
	now            func() time.Time
}

type CheckoutResponse struct {
	Reference      string          `json:"reference"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	IntentID       string          `json:"intent_id"`
	ClientSecret   string          `json:"client_secret"`
	Status         string          `json:"status"`
	PublishableKey string          `json:"publishable_key,omitempty"`
}

type ConfirmPaymentRequest struct {
	Reference string `json:"reference" validate:"required,max=100"`
}

func NewPaymentService(store repository.Store, transitions *TransitionService, audit AuditWriter, gateway PaymentGateway, notifier *NotificationService, m *metrics.Metrics, cfg *config.Config) (*PaymentService, error) {
	references, err := utils.NewReferenceGenerator(cfg.Payment.ReferencePrefix)
	if err != nil {
		return nil, err
	}
	if gateway == nil {
		gateway = LocalGateway{}
	}
	return &PaymentService{
		store:          store,
		transitions:    transitions,
		audit:          audit,
		gateway:        gateway,
		notifier:       notifier,
		metrics:        m,
		references:     references,
		currency:       cfg.Payment.Currency,
		publishableKey: cfg.Payment.StripePublishableKey,
		now:            time.Now,
	}, nil
}

// NewReference returns a fresh payment reference for an application.
func (s *PaymentService) NewReference(applicationID uuid.UUID) string {
	return s.references.Generate(applicationID)
}

// CreatePaymentRecord creates the PENDING payment inside tx. Callers run it
// in the same transaction as the submission.
func (s *PaymentService) CreatePaymentRecord(ctx context.Context, tx repository.Store, applicationID uuid.UUID, amount decimal.Decimal, reference string) (*models.Payment, error) {
	_, err := tx.Payments().GetByApplication(ctx, applicationID)
	switch {
	case err == nil:
		return nil, domain.NewPaymentError(domain.PaymentExists,
			"A payment record already exists for application %s.", applicationID)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	// Stored amounts have two decimal places; the rounded value must be positive.
	rounded := amount.Round(2)
	if !rounded.IsPositive() {
		return nil, domain.NewPaymentError(domain.PaymentInvalidAmount,
			"Payment amount must be positive. Received: %s.", amount.String())
	}

	payment := &models.Payment{
		ApplicationID: applicationID,
		Amount:        rounded,
		Currency:      s.currency,
		Status:        models.PaymentStatusPending,
		Reference:     reference,
	}
	if err := tx.Payments().Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// A concurrent submission won the unique index.
			return nil, domain.NewPaymentError(domain.PaymentExists,
				"A payment record already exists for application %s.", applicationID)
		}
		return nil, fmt.Errorf("failed to create payment record: %w", err)
	}

	s.metrics.RecordPayment(metrics.PaymentCreated)
	return payment, nil
}

// MarkAsPaid confirms the payment of an application. The payment row is
// locked for the duration of the transaction, so of two concurrent calls
// with the same reference exactly one succeeds and the other observes the
// double-payment error.
func (s *PaymentService) MarkAsPaid(ctx context.Context, applicationID uuid.UUID, reference string) (*models.Payment, error) {
	var (
		payment *models.Payment
		entry   *models.AuditLog
	)
	err := s.store.RunInTx(ctx, func(tx repository.Store) error {
		var err error
		payment, entry, err = s.markAsPaid(ctx, tx, applicationID, reference)
		return err
	})
	if err != nil {
		s.metrics.RecordPayment(metrics.PaymentRejected)
		return nil, err
	}

	s.metrics.RecordPayment(metrics.PaymentConfirmed)
	s.notifier.Notify(ctx, auditEvent(events.TypePaymentConfirmed, entry))
	return payment, nil
}

func (s *PaymentService) markAsPaid(ctx context.Context, tx repository.Store, applicationID uuid.UUID, reference string) (*models.Payment, *models.AuditLog, error) {
	app, err := tx.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, nil, err
	}

	payment, err := tx.Payments().GetByApplicationForUpdate(ctx, applicationID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.NewPaymentError(domain.PaymentMissing,
			"No payment record found for application %s. A payment record must be created before it can be confirmed.", applicationID)
	}
	if err != nil {
		return nil, nil, err
	}

	if payment.IsPaid() {
		return nil, nil, domain.NewPaymentError(domain.PaymentAlreadyPaid,
			"Application %s has already been marked as paid (reference: %q). Double-payment prevented.", applicationID, payment.Reference)
	}
	if payment.Reference != reference {
		return nil, nil, domain.NewPaymentError(domain.PaymentReferenceMismatch,
			"Reference mismatch for application %s. Expected %q, received %q.", applicationID, payment.Reference, reference)
	}

	paidAt := s.now().UTC()
	payment.Status = models.PaymentStatusPaid
	payment.PaidAt = &paidAt
	if err := tx.Payments().Update(ctx, payment); err != nil {
		return nil, nil, fmt.Errorf("failed to update payment: %w", err)
	}

	// Payment is a side event: the status is recorded unchanged.
	entry := &models.AuditLog{
		ApplicationID:  applicationID,
		PreviousStatus: string(app.Status),
		NewStatus:      string(app.Status),
		Reason:         fmt.Sprintf("Payment confirmed. Reference: %s.", reference),
	}
	if err := s.audit.Append(ctx, tx, entry); err != nil {
		return nil, nil, err
	}

	return payment, entry, nil
}

// IssueVisa moves an APPROVED application to ISSUED once its payment is PAID.
func (s *PaymentService) IssueVisa(ctx context.Context, applicationID uuid.UUID) (*models.Application, error) {
	var result *TransitionResult
	err := s.store.RunInTx(ctx, func(tx repository.Store) error {
		payment, err := tx.Payments().GetByApplication(ctx, applicationID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewPaymentError(domain.PaymentMissing,
				"Application %s has no payment record. A confirmed payment is required before issuing a visa.", applicationID)
		}
		if err != nil {
			return err
		}
		if !payment.IsPaid() {
			return domain.NewPaymentError(domain.PaymentNotPaid,
				"Application %s payment is %q, not PAID. Cannot issue visa until payment is confirmed.", applicationID, payment.Status)
		}

		result, err = s.transitions.Transition(ctx, tx, applicationID, models.StatusIssued, nil, reasonVisaIssued)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPayment(metrics.PaymentIssued)
	s.transitions.Committed(ctx, result)
	return result.Application, nil
}

// GetPayment returns the payment of an application the actor may read.
func (s *PaymentService) GetPayment(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID) (*models.Payment, error) {
	app, err := s.store.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, app); err != nil {
		return nil, err
	}
	return s.store.Payments().GetByApplication(ctx, applicationID)
}

// Checkout opens a gateway intent for the fee of an approved application.
func (s *PaymentService) Checkout(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID) (*CheckoutResponse, error) {
	app, err := s.store.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if actor == nil || !app.IsOwnedBy(actor.ID) {
		return nil, domain.ErrForbidden
	}
	if app.Status != models.StatusApproved {
		return nil, &domain.InvalidTransitionError{
			From:    string(app.Status),
			To:      string(models.StatusIssued),
			Message: fmt.Sprintf("Payment is only possible once application %s is APPROVED. It is currently %q.", app.ID, app.Status),
		}
	}

	payment, err := s.store.Payments().GetByApplication(ctx, applicationID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewPaymentError(domain.PaymentMissing,
			"No payment record found for application %s.", applicationID)
	}
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, domain.NewPaymentError(domain.PaymentNotPending,
			"Payment for application %s is %q and cannot be checked out again.", applicationID, payment.Status)
	}

	intent, err := s.gateway.CreateIntent(ctx, payment)
	if err != nil {
		return nil, err
	}

	// The gateway call runs without a lock. Re-read the row under lock so a
	// confirmation that committed meanwhile is never overwritten.
	err = s.store.RunInTx(ctx, func(tx repository.Store) error {
		current, err := tx.Payments().GetByApplicationForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}
		if current.IsPaid() {
			return domain.NewPaymentError(domain.PaymentAlreadyPaid,
				"Application %s has already been marked as paid (reference: %q).", applicationID, current.Reference)
		}
		if current.Status != models.PaymentStatusPending {
			return domain.NewPaymentError(domain.PaymentNotPending,
				"Payment for application %s is %q and cannot be checked out again.", applicationID, current.Status)
		}
		current.GatewayIntentID = intent.ID
		if err := tx.Payments().Update(ctx, current); err != nil {
			return fmt.Errorf("failed to store payment intent: %w", err)
		}
		payment = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutResponse{
		Reference:      payment.Reference,
		Amount:         payment.Amount,
		Currency:       payment.Currency,
		IntentID:       intent.ID,
		ClientSecret:   intent.ClientSecret,
		Status:         intent.Status,
		PublishableKey: s.publishableKey,
	}, nil
}

// Confirm is the applicant-facing confirmation. The gateway must report the
// fee as collected before the payment is marked as paid and the visa issued.
func (s *PaymentService) Confirm(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID, reference string) (*models.Application, error) {
	app, err := s.store.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if actor == nil || !(app.IsOwnedBy(actor.ID) || actor.HasRole(domain.RoleAdmin)) {
		return nil, domain.ErrForbidden
	}
	if app.Status != models.StatusApproved {
		return nil, &domain.InvalidTransitionError{
			From:    string(app.Status),
			To:      string(models.StatusIssued),
			Allowed: statusStrings(app.Status.AllowedTransitions()),
			Message: fmt.Sprintf("Payment can only be confirmed for APPROVED applications. Application %s is currently %q.", app.ID, app.Status),
		}
	}

	payment, err := s.store.Payments().GetByApplication(ctx, applicationID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	// Missing, paid or mismatched payments are reported by MarkAsPaid.
	if err == nil && payment.Status == models.PaymentStatusPending && payment.Reference == reference {
		if err := s.gateway.VerifyCollected(ctx, payment); err != nil {
			s.metrics.RecordPayment(metrics.PaymentRejected)
			return nil, err
		}
	}

	if _, err := s.MarkAsPaid(ctx, applicationID, reference); err != nil {
		return nil, err
	}
	return s.IssueVisa(ctx, applicationID)
}

// HandleWebhook processes a gateway callback. A retried callback for a
// payment that is already PAID is acknowledged without error.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}

	logger := logrus.WithFields(logrus.Fields{
		"event_type": event.Type,
		"intent_id":  event.IntentID,
		"reference":  event.Reference,
	})
	if event.Type != EventPaymentIntentSucceeded {
		logger.Debug("Ignoring payment webhook")
		return nil
	}
	if event.Reference == "" {
		return domain.NewPaymentError(domain.PaymentMissing, "Webhook payment intent %s carries no payment reference.", event.IntentID)
	}

	payment, err := s.store.Payments().GetByReference(ctx, event.Reference)
	if err != nil {
		return err
	}

	_, err = s.MarkAsPaid(ctx, payment.ApplicationID, event.Reference)
	if err != nil && !domain.IsPaymentError(err, domain.PaymentAlreadyPaid) {
		return err
	}
	if err != nil {
		logger.Info("Duplicate payment webhook acknowledged")
	}

	app, err := s.store.Applications().Get(ctx, payment.ApplicationID)
	if err != nil {
		return err
	}
	if app.Status != models.StatusApproved {
		return nil
	}
	if _, err := s.IssueVisa(ctx, app.ID); err != nil {
		return err
	}
	logger.WithField("application_id", app.ID).Info("Visa issued from payment webhook")
	return nil
}

func statusStrings(statuses []models.ApplicationStatus) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}
