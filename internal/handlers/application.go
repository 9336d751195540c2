// internal/handlers/application.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/G-alileo/e-visa-application-system/internal/i18n"
	"github.com/G-alileo/e-visa-application-system/internal/services"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

const resourceApplication = "application"

type ApplicationHandler struct {
	applicationService    *services.ApplicationService
	screeningService      *services.ScreeningService
	recommendationService *services.RecommendationService
}

func NewApplicationHandler(applicationService *services.ApplicationService, screeningService *services.ScreeningService, recommendationService *services.RecommendationService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService:    applicationService,
		screeningService:      screeningService,
		recommendationService: recommendationService,
	}
}

// POST /applications
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.CreateApplicationRequest
	if !bindJSON(c, &req, false) {
		return
	}

	app, err := h.applicationService.CreateDraft(c.Request.Context(), actor, &req)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "visa_type")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyApplicationCreated),
		"application": app,
	})
}

// GET /applications
func (h *ApplicationHandler) ListMyApplications(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	apps, total, err := h.applicationService.ListMine(c.Request.Context(), actor, params)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(apps, total, params))
}

// GET /applications/:id
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	app, err := h.applicationService.Get(c.Request.Context(), actor, id)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.SuccessResponse(c, gin.H{"application": app})
}

// PUT /applications/:id
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	var req services.UpdateApplicationRequest
	if !bindJSON(c, &req, false) {
		return
	}

	app, err := h.applicationService.UpdateDraft(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyApplicationUpdated),
		"application": app,
	})
}

// DELETE /applications/:id
func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	if err := h.applicationService.SoftDelete(c.Request.Context(), actor, id); err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyApplicationDeleted)})
}

// POST /applications/:id/submit
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	result, err := h.applicationService.Submit(c.Request.Context(), actor, id)
	if err != nil {
		// A screening block still leaves a submitted application behind.
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyApplicationSubmitted),
		"application": result.Application,
		"payment":     result.Payment,
		"screening":   result.Screening,
	})
}

// POST /applications/:id/resubmit
func (h *ApplicationHandler) ResubmitApplication(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	app, err := h.applicationService.Resubmit(c.Request.Context(), actor, id)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyApplicationResubmitted),
		"application": app,
	})
}

// POST /applications/:id/reapply
func (h *ApplicationHandler) ReApply(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	var req services.ReApplyRequest
	if !bindJSON(c, &req, false) {
		return
	}

	app, err := h.applicationService.ReApply(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyApplicationCreated),
		"application": app,
	})
}

// GET /applications/:id/recommendations
func (h *ApplicationHandler) GetRecommendations(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	recs, err := h.recommendationService.ForApplication(c.Request.Context(), actor, id)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.SuccessResponse(c, gin.H{"recommendations": recs})
}

// GET /applications/:id/screening
func (h *ApplicationHandler) GetScreeningResult(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	result, err := h.screeningService.LatestResult(c.Request.Context(), actor, id)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "record")
		return
	}

	utils.SuccessResponse(c, gin.H{"screening": result})
}

// POST /officer/applications/:id/screening
func (h *ApplicationHandler) RerunScreening(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	app, result, err := h.screeningService.Rerun(c.Request.Context(), actor, id)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"application": app,
		"screening":   result,
	})
}

// GET /officer/queue
func (h *ApplicationHandler) OfficerQueue(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	apps, total, err := h.applicationService.OfficerQueue(c.Request.Context(), actor, params)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(apps, total, params))
}

// GET /officer/pending-info
func (h *ApplicationHandler) PendingInfoQueue(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	apps, total, err := h.applicationService.PendingInfoQueue(c.Request.Context(), actor, params)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(apps, total, params))
}
