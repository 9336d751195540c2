// internal/services/payment_service_test.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/G-alileo/e-visa-application-system/internal/config"
	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/events"
	"github.com/G-alileo/e-visa-application-system/internal/metrics"
	"github.com/G-alileo/e-visa-application-system/internal/models"
)

func (suite *WorkflowSuite) TestSubmitCreatesPendingPayment() {
	app := suite.underReview()

	payment := suite.paymentOf(app.ID)
	assert.Equal(suite.T(), models.PaymentStatusPending, payment.Status)
	assert.True(suite.T(), payment.Amount.Equal(decimal.RequireFromString("50.00")))
	assert.Equal(suite.T(), "usd", payment.Currency)

	prefix := "EVS-" + strings.ToUpper(app.ID.String()[:8]) + "-"
	assert.True(suite.T(), strings.HasPrefix(payment.Reference, prefix), payment.Reference)
	assert.Len(suite.T(), payment.Reference, len(prefix)+6)
	assert.Equal(suite.T(), 1.0, testutil.ToFloat64(suite.metrics.Payments.WithLabelValues(metrics.PaymentCreated)))
}

func (suite *WorkflowSuite) TestCreatePaymentRecordTwice() {
	app := suite.underReview()

	_, err := suite.payments.CreatePaymentRecord(suite.ctx, suite.store, app.ID, decimal.RequireFromString("50.00"), "EVS-AGAIN")
	assert.True(suite.T(), domain.IsPaymentError(err, domain.PaymentExists), "got %v", err)
}

func (suite *WorkflowSuite) TestCreatePaymentRecordRejectsNonPositiveAmount() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)

	for _, amount := range []string{"0", "-10.00", "0.004"} {
		_, err := suite.payments.CreatePaymentRecord(suite.ctx, suite.store, app.ID, decimal.RequireFromString(amount), "EVS-"+amount)
		assert.True(suite.T(), domain.IsPaymentError(err, domain.PaymentInvalidAmount), "amount %s: %v", amount, err)
	}
	_, err := suite.store.Payments().GetByApplication(suite.ctx, app.ID)
	suite.ErrorIs(err, domain.ErrNotFound)
}

func (suite *WorkflowSuite) TestMarkAsPaidReferenceMismatch() {
	app := suite.approved()

	_, err := suite.payments.MarkAsPaid(suite.ctx, app.ID, "EVS-WRONG")
	suite.Require().True(domain.IsPaymentError(err, domain.PaymentReferenceMismatch), "got %v", err)
	assert.Equal(suite.T(), models.PaymentStatusPending, suite.paymentOf(app.ID).Status)
}

func (suite *WorkflowSuite) TestMarkAsPaidTwice() {
	app := suite.approved()
	reference := suite.paymentOf(app.ID).Reference
	before := len(suite.trail(app.ID))

	paid, err := suite.payments.MarkAsPaid(suite.ctx, app.ID, reference)
	suite.Require().NoError(err)
	assert.True(suite.T(), paid.IsPaid())
	suite.Require().NotNil(paid.PaidAt)

	_, err = suite.payments.MarkAsPaid(suite.ctx, app.ID, reference)
	suite.Require().True(domain.IsPaymentError(err, domain.PaymentAlreadyPaid), "got %v", err)
	assert.Contains(suite.T(), err.Error(), "Double-payment prevented")

	trail := suite.trail(app.ID)
	suite.Require().Len(trail, before+1)
	entry := trail[len(trail)-1]
	assert.Equal(suite.T(), "APPROVED", entry.PreviousStatus)
	assert.Equal(suite.T(), "APPROVED", entry.NewStatus)
	assert.Equal(suite.T(), fmt.Sprintf("Payment confirmed. Reference: %s.", reference), entry.Reason)
	assert.Len(suite.T(), suite.publisher.ofType(events.TypePaymentConfirmed), 1)
}

func (suite *WorkflowSuite) TestConcurrentMarkAsPaid() {
	app := suite.approved()
	reference := suite.paymentOf(app.ID).Reference

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		doubled   int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.payments.MarkAsPaid(suite.ctx, app.ID, reference)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case domain.IsPaymentError(err, domain.PaymentAlreadyPaid):
				doubled++
			}
		}()
	}
	wg.Wait()

	assert.Equal(suite.T(), 1, succeeded)
	assert.Equal(suite.T(), callers-1, doubled)
	assert.Len(suite.T(), suite.publisher.ofType(events.TypePaymentConfirmed), 1)
}

func (suite *WorkflowSuite) TestMarkAsPaidWithoutPaymentRecord() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)

	_, err := suite.payments.MarkAsPaid(suite.ctx, app.ID, "EVS-NONE")
	assert.True(suite.T(), domain.IsPaymentError(err, domain.PaymentMissing), "got %v", err)
}

func (suite *WorkflowSuite) TestIssueVisaRequiresPaidPayment() {
	app := suite.approved()

	_, err := suite.payments.IssueVisa(suite.ctx, app.ID)
	suite.Require().True(domain.IsPaymentError(err, domain.PaymentNotPaid), "got %v", err)
	assert.Contains(suite.T(), err.Error(), `payment is "PENDING", not PAID`)
	assert.Equal(suite.T(), models.StatusApproved, suite.reload(app.ID).Status)
}

func (suite *WorkflowSuite) TestIssueVisaWithoutPaymentRecord() {
	app := &models.Application{
		ApplicantID:       suite.applicant.ID,
		VisaTypeID:        suite.tourist.ID,
		Status:            models.StatusApproved,
		Nationality:       "NG",
		PurposeOfTravel:   "Sightseeing",
		IntendedEntryDate: testNow.AddDate(0, 2, 0),
	}
	suite.Require().NoError(suite.store.Applications().Create(suite.ctx, app))

	_, err := suite.payments.IssueVisa(suite.ctx, app.ID)
	suite.Require().True(domain.IsPaymentError(err, domain.PaymentMissing), "got %v", err)
	assert.Contains(suite.T(), err.Error(), "has no payment record")
	assert.Equal(suite.T(), models.StatusApproved, suite.reload(app.ID).Status)
}

func (suite *WorkflowSuite) TestConfirmIssuesVisa() {
	app := suite.approved()
	reference := suite.paymentOf(app.ID).Reference

	issued, err := suite.payments.Confirm(suite.ctx, suite.applicant, app.ID, reference)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.StatusIssued, issued.Status)
	assert.True(suite.T(), suite.paymentOf(app.ID).IsPaid())

	trail := suite.trail(app.ID)
	last := trail[len(trail)-1]
	assert.Equal(suite.T(), "ISSUED", last.NewStatus)
	assert.Equal(suite.T(), reasonVisaIssued, last.Reason)
	assert.Equal(suite.T(), 1.0, testutil.ToFloat64(suite.metrics.Payments.WithLabelValues(metrics.PaymentIssued)))
}

func (suite *WorkflowSuite) TestConfirmAccessAndStatus() {
	app := suite.approved()
	reference := suite.paymentOf(app.ID).Reference

	_, err := suite.payments.Confirm(suite.ctx, suite.other, app.ID, reference)
	suite.ErrorIs(err, domain.ErrForbidden)

	reviewing := suite.underReview()
	_, err = suite.payments.Confirm(suite.ctx, suite.applicant, reviewing.ID, suite.paymentOf(reviewing.ID).Reference)
	var invalid *domain.InvalidTransitionError
	suite.ErrorAs(err, &invalid)
	assert.Equal(suite.T(), models.PaymentStatusPending, suite.paymentOf(reviewing.ID).Status)
}

func (suite *WorkflowSuite) TestCheckoutStoresIntent() {
	app := suite.approved()
	payment := suite.paymentOf(app.ID)

	checkout, err := suite.payments.Checkout(suite.ctx, suite.applicant, app.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "pi_local_"+payment.Reference, checkout.IntentID)
	assert.Equal(suite.T(), payment.Reference, checkout.Reference)
	assert.Equal(suite.T(), checkout.IntentID, suite.paymentOf(app.ID).GatewayIntentID)

	_, err = suite.payments.Checkout(suite.ctx, suite.other, app.ID)
	suite.ErrorIs(err, domain.ErrForbidden)
}

func webhookPayload(eventType, reference string) []byte {
	return []byte(fmt.Sprintf(`{"type":%q,"data":{"object":{"id":"pi_test","metadata":{"reference":%q}}}}`, eventType, reference))
}

func (suite *WorkflowSuite) TestWebhookConfirmsAndIssues() {
	app := suite.approved()
	reference := suite.paymentOf(app.ID).Reference
	payload := webhookPayload(EventPaymentIntentSucceeded, reference)

	suite.Require().NoError(suite.payments.HandleWebhook(suite.ctx, payload, ""))
	assert.Equal(suite.T(), models.StatusIssued, suite.reload(app.ID).Status)

	// A retried delivery is acknowledged without a second confirmation.
	suite.Require().NoError(suite.payments.HandleWebhook(suite.ctx, payload, ""))
	assert.Len(suite.T(), suite.publisher.ofType(events.TypePaymentConfirmed), 1)
}

func (suite *WorkflowSuite) TestWebhookIgnoresOtherEvents() {
	app := suite.approved()
	reference := suite.paymentOf(app.ID).Reference

	suite.Require().NoError(suite.payments.HandleWebhook(suite.ctx, webhookPayload("payment_intent.created", reference), ""))
	assert.Equal(suite.T(), models.PaymentStatusPending, suite.paymentOf(app.ID).Status)

	err := suite.payments.HandleWebhook(suite.ctx, webhookPayload(EventPaymentIntentSucceeded, "EVS-UNKNOWN"), "")
	suite.ErrorIs(err, domain.ErrNotFound)
}

func (suite *WorkflowSuite) TestWebhookRejectsMalformedPayloads() {
	suite.ErrorIs(suite.payments.HandleWebhook(suite.ctx, []byte("{"), ""), ErrInvalidWebhook)
	suite.ErrorIs(suite.payments.HandleWebhook(suite.ctx, []byte(`{"data":{}}`), ""), ErrInvalidWebhook)

	// The Stripe gateway refuses callbacks it cannot verify.
	gateway := NewStripeGateway("sk_test_unused", "whsec_test")
	_, err := gateway.ParseWebhook(webhookPayload(EventPaymentIntentSucceeded, "EVS-1"), "t=1,v1=bad")
	suite.ErrorIs(err, ErrInvalidWebhook)
}

// scriptedGateway behaves like the local gateway, with hooks around intent
// creation and a scripted collection result.
type scriptedGateway struct {
	LocalGateway
	onCreateIntent func()
	collected      error
	verifyCalls    int
}

func (g *scriptedGateway) CreateIntent(ctx context.Context, payment *models.Payment) (*PaymentIntent, error) {
	if g.onCreateIntent != nil {
		g.onCreateIntent()
	}
	return g.LocalGateway.CreateIntent(ctx, payment)
}

func (g *scriptedGateway) VerifyCollected(ctx context.Context, payment *models.Payment) error {
	g.verifyCalls++
	return g.collected
}

func (suite *WorkflowSuite) paymentsWith(gateway PaymentGateway) *PaymentService {
	cfg := &config.Config{Payment: config.PaymentConfig{Currency: "usd", ReferencePrefix: "EVS"}}
	payments, err := NewPaymentService(suite.store, suite.transitions, suite.audit, gateway, NewNotificationService(suite.publisher), suite.metrics, cfg)
	suite.Require().NoError(err)
	payments.now = fixedClock
	return payments
}

func (suite *WorkflowSuite) TestCheckoutKeepsConfirmationMadeDuringGatewayCall() {
	app := suite.approved()
	reference := suite.paymentOf(app.ID).Reference

	gateway := &scriptedGateway{}
	gateway.onCreateIntent = func() {
		_, err := suite.payments.MarkAsPaid(suite.ctx, app.ID, reference)
		suite.Require().NoError(err)
	}

	_, err := suite.paymentsWith(gateway).Checkout(suite.ctx, suite.applicant, app.ID)
	suite.Require().True(domain.IsPaymentError(err, domain.PaymentAlreadyPaid), "got %v", err)

	payment := suite.paymentOf(app.ID)
	assert.Equal(suite.T(), models.PaymentStatusPaid, payment.Status)
	suite.Require().NotNil(payment.PaidAt)
	assert.Empty(suite.T(), payment.GatewayIntentID)

	_, err = suite.payments.MarkAsPaid(suite.ctx, app.ID, reference)
	assert.True(suite.T(), domain.IsPaymentError(err, domain.PaymentAlreadyPaid), "got %v", err)
	assert.Len(suite.T(), suite.publisher.ofType(events.TypePaymentConfirmed), 1)
}

func (suite *WorkflowSuite) TestConfirmRequiresCollectedPayment() {
	app := suite.approved()
	reference := suite.paymentOf(app.ID).Reference

	gateway := &scriptedGateway{collected: domain.NewPaymentError(domain.PaymentNotCollected, "intent is requires_payment_method")}
	payments := suite.paymentsWith(gateway)
	_, err := payments.Checkout(suite.ctx, suite.applicant, app.ID)
	suite.Require().NoError(err)

	_, err = payments.Confirm(suite.ctx, suite.applicant, app.ID, reference)
	suite.Require().True(domain.IsPaymentError(err, domain.PaymentNotCollected), "got %v", err)
	assert.Equal(suite.T(), 1, gateway.verifyCalls)
	assert.Equal(suite.T(), models.PaymentStatusPending, suite.paymentOf(app.ID).Status)
	assert.Equal(suite.T(), models.StatusApproved, suite.reload(app.ID).Status)

	// A wrong reference is refused before the gateway is asked.
	_, err = payments.Confirm(suite.ctx, suite.applicant, app.ID, "EVS-WRONG")
	suite.Require().True(domain.IsPaymentError(err, domain.PaymentReferenceMismatch), "got %v", err)
	assert.Equal(suite.T(), 1, gateway.verifyCalls)

	gateway.collected = nil
	issued, err := payments.Confirm(suite.ctx, suite.applicant, app.ID, reference)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.StatusIssued, issued.Status)
	assert.Equal(suite.T(), 2, gateway.verifyCalls)
}

func (suite *WorkflowSuite) TestStripeGatewayRequiresCheckoutBeforeConfirm() {
	gateway := NewStripeGateway("sk_test_unused", "whsec_test")

	err := gateway.VerifyCollected(suite.ctx, &models.Payment{Reference: "EVS-1"})
	assert.True(suite.T(), domain.IsPaymentError(err, domain.PaymentNotCollected), "got %v", err)
}
