// internal/handlers/visa_type.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/G-alileo/e-visa-application-system/internal/i18n"
	"github.com/G-alileo/e-visa-application-system/internal/services"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

const resourceVisaType = "visa_type"

type VisaTypeHandler struct {
	visaTypeService *services.VisaTypeService
}

func NewVisaTypeHandler(visaTypeService *services.VisaTypeService) *VisaTypeHandler {
	return &VisaTypeHandler{visaTypeService: visaTypeService}
}

// GET /visa-types
func (h *VisaTypeHandler) ListActive(c *gin.Context) {
	types, err := h.visaTypeService.ListActive(c.Request.Context())
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceVisaType)
		return
	}
	utils.SuccessResponse(c, gin.H{"visa_types": types})
}

// GET /visa-types/:code
func (h *VisaTypeHandler) GetByCode(c *gin.Context) {
	vt, err := h.visaTypeService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceVisaType)
		return
	}
	utils.SuccessResponse(c, gin.H{"visa_type": vt})
}

// GET /admin/visa-types
func (h *VisaTypeHandler) ListAll(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	types, err := h.visaTypeService.ListAll(c.Request.Context(), actor)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceVisaType)
		return
	}
	utils.SuccessResponse(c, gin.H{"visa_types": types})
}

// POST /admin/visa-types
func (h *VisaTypeHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.CreateVisaTypeRequest
	if !bindJSON(c, &req, false) {
		return
	}

	vt, err := h.visaTypeService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceVisaType)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyVisaTypeCreated),
		"visa_type": vt,
	})
}

// PUT /admin/visa-types/:id
func (h *VisaTypeHandler) Update(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "visa type")
	if !ok {
		return
	}

	var req services.UpdateVisaTypeRequest
	if !bindJSON(c, &req, false) {
		return
	}

	vt, err := h.visaTypeService.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceVisaType)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyVisaTypeUpdated),
		"visa_type": vt,
	})
}
