// internal/handlers/payment.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/i18n"
	"github.com/G-alileo/e-visa-application-system/internal/services"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

const stripeSignatureHeader = "Stripe-Signature"

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// GET /applications/:id/payment
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), actor, id)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "payment")
		return
	}

	utils.SuccessResponse(c, gin.H{"payment": payment})
}

// POST /applications/:id/payment/checkout
func (h *PaymentHandler) Checkout(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	checkout, err := h.paymentService.Checkout(c.Request.Context(), actor, id)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.SuccessResponse(c, checkout)
}

// POST /applications/:id/payment/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	var req services.ConfirmPaymentRequest
	if !bindJSON(c, &req, false) {
		return
	}

	app, err := h.paymentService.Confirm(c.Request.Context(), actor, id, req.Reference)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyPaymentConfirmed),
		"application": app,
	})
}

// POST /webhooks/stripe
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		utils.BadRequestResponse(c, "Unable to read webhook body", nil)
		return
	}

	err = h.paymentService.HandleWebhook(c.Request.Context(), payload, c.GetHeader(stripeSignatureHeader))
	if err != nil {
		var paymentErr *domain.PaymentError
		if errors.Is(err, services.ErrInvalidWebhook) {
			logrus.WithError(err).Warn("Rejected payment webhook")
			utils.BadRequestResponse(c, "Invalid webhook signature or payload", nil)
			return
		}
		if errors.As(err, &paymentErr) {
			logrus.WithError(err).Warn("Payment webhook refused")
		}
		utils.ServiceErrorResponse(c, err, "payment")
		return
	}

	utils.SuccessResponse(c, gin.H{"received": true})
}
