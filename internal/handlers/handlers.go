// internal/handlers/handlers.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/i18n"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

// currentActor writes a 401 and returns false when the request carries no actor.
func currentActor(c *gin.Context) (*domain.Actor, bool) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return nil, false
	}
	return actor, true
}

func pathID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+label+" ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes and validates the request body, writing a 400 on failure.
// An empty body is accepted when allowEmpty is set.
func bindJSON(c *gin.Context, req interface{}, allowEmpty bool) bool {
	lang := utils.GetLangFromContext(c)
	if !(allowEmpty && c.Request.ContentLength == 0) {
		if err := c.ShouldBindJSON(req); err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
			return false
		}
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}
