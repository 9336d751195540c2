// internal/handlers/audit.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/G-alileo/e-visa-application-system/internal/services"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// GET /applications/:id/audit
func (h *AuditHandler) GetTrail(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	trail, err := h.auditService.Trail(c.Request.Context(), actor, id)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.SuccessResponse(c, gin.H{"audit_trail": trail})
}

// GET /supervisor/audit?application_id=
func (h *AuditHandler) GetRecent(c *gin.Context) {
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

	entries, err := h.auditService.Recent(c.Request.Context(), actor, applicationID)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "record")
		return
	}

	utils.SuccessResponse(c, gin.H{"audit_logs": entries})
}
