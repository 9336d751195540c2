// internal/services/payment_gateway.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/models"
)

const EventPaymentIntentSucceeded = "payment_intent.succeeded"

// ErrInvalidWebhook marks a callback whose signature or body cannot be trusted.
var ErrInvalidWebhook = errors.New("invalid payment webhook")

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// WebhookEvent is the part of a gateway callback the payment gate acts on.
type WebhookEvent struct {
	Type      string
	IntentID  string
	Reference string
}

// PaymentGateway is the external processor collecting the visa fee.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, payment *models.Payment) (*PaymentIntent, error)
	// VerifyCollected returns nil only when the processor reports the fee
	// of payment as collected.
	VerifyCollected(ctx context.Context, payment *models.Payment) error
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type StripeGateway struct {
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, payment *models.Payment) (*PaymentIntent, error) {
	// Stripe amounts are in the currency's minor unit
	amountInCents := payment.Amount.Shift(2).Round(0).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(payment.Currency),
	}
	params.Context = ctx
	params.AddMetadata("reference", payment.Reference)
	params.AddMetadata("application_id", payment.ApplicationID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

func (g *StripeGateway) VerifyCollected(ctx context.Context, payment *models.Payment) error {
	if payment.GatewayIntentID == "" {
		return domain.NewPaymentError(domain.PaymentNotCollected,
			"Payment %q has no checkout on record. Start a checkout before confirming.", payment.Reference)
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(payment.GatewayIntentID, params)
	if err != nil {
		return fmt.Errorf("failed to fetch payment intent: %w", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return domain.NewPaymentError(domain.PaymentNotCollected,
			"Payment intent %s is %q, not succeeded.", pi.ID, pi.Status)
	}
	if pi.Metadata["reference"] != payment.Reference || pi.AmountReceived != payment.Amount.Shift(2).Round(0).IntPart() {
		return domain.NewPaymentError(domain.PaymentNotCollected,
			"Payment intent %s does not match payment %q.", pi.ID, payment.Reference)
	}
	return nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrInvalidWebhook, err)
	}

	out := &WebhookEvent{Type: string(event.Type)}
	if out.Type != EventPaymentIntentSucceeded {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: payment intent: %v", ErrInvalidWebhook, err)
	}
	out.IntentID = pi.ID
	out.Reference = pi.Metadata["reference"]
	return out, nil
}

// LocalGateway stands in for Stripe in development. Intents are derived from
// the payment reference, every payment counts as collected and webhooks are
// accepted unsigned. It must never face the public internet.
type LocalGateway struct{}

func (LocalGateway) CreateIntent(ctx context.Context, payment *models.Payment) (*PaymentIntent, error) {
	return &PaymentIntent{
		ID:           "pi_local_" + payment.Reference,
		ClientSecret: "pi_local_" + payment.Reference + "_secret",
		Status:       "requires_payment_method",
	}, nil
}

func (LocalGateway) VerifyCollected(ctx context.Context, payment *models.Payment) error {
	return nil
}

func (LocalGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	var body struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID       string            `json:"id"`
				Metadata map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrInvalidWebhook, err)
	}
	if body.Type == "" {
		return nil, fmt.Errorf("%w: payload has no event type", ErrInvalidWebhook)
	}
	return &WebhookEvent{
		Type:      body.Type,
		IntentID:  body.Data.Object.ID,
		Reference: body.Data.Object.Metadata["reference"],
	}, nil
}
