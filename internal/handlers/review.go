// internal/handlers/review.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/i18n"
	"github.com/G-alileo/e-visa-application-system/internal/models"
	"github.com/G-alileo/e-visa-application-system/internal/services"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

type decideFunc func(ctx context.Context, reviewer *domain.Actor, applicationID uuid.UUID, reason string) (*models.ReviewDecision, error)

func (h *ReviewHandler) decide(c *gin.Context, messageKey string, fn decideFunc) {
	lang := utils.GetLangFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	var req services.ReviewRequest
	if !bindJSON(c, &req, true) {
		return
	}

	decision, err := fn(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, messageKey),
		"decision": decision,
	})
}

// POST /officer/applications/:id/approve
func (h *ReviewHandler) Approve(c *gin.Context) {
	h.decide(c, i18n.KeyReviewApproved, func(ctx context.Context, reviewer *domain.Actor, applicationID uuid.UUID, _ string) (*models.ReviewDecision, error) {
		return h.reviewService.Approve(ctx, reviewer, applicationID)
	})
}

// POST /officer/applications/:id/reject
func (h *ReviewHandler) Reject(c *gin.Context) {
	h.decide(c, i18n.KeyReviewRejected, h.reviewService.Reject)
}

// POST /officer/applications/:id/request-info
func (h *ReviewHandler) RequestInfo(c *gin.Context) {
	h.decide(c, i18n.KeyReviewInfoRequested, h.reviewService.RequestInfo)
}

// GET /officer/decisions?application_id=
func (h *ReviewHandler) DecisionHistory(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var applicationID *uuid.UUID
	if raw := c.Query("application_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid application ID", nil)
			return
		}
		applicationID = &id
	}

	decisions, err := h.reviewService.DecisionHistory(c.Request.Context(), actor, applicationID)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.SuccessResponse(c, gin.H{"decisions": decisions})
}
