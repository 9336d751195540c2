// internal/utils/response.go
package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/i18n"
)

// ActorContextKey is where the authenticated actor is stored on the request.
const ActorContextKey = "actor"

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAuthRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAuthForbidden)
	}
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", message, nil)
}

func NotFoundResponse(c *gin.Context, resource string) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, resource+".not_found")
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func ConflictResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, "CONFLICT", message, nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyInternalError)
	}
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

// ServiceErrorResponse maps workflow errors onto HTTP responses. resource
// names the i18n prefix used for not-found messages.
func ServiceErrorResponse(c *gin.Context, err error, resource string) {
	var (
		invalidTransition *domain.InvalidTransitionError
		permissionDenied  *domain.PermissionDeniedError
		ruleViolation     *domain.RuleViolationError
		paymentErr        *domain.PaymentError
		immutability      *domain.ImmutabilityViolationError
	)

	switch {
	case errors.As(err, &invalidTransition):
		ErrorResponse(c, http.StatusConflict, "INVALID_TRANSITION", invalidTransition.Error(), gin.H{
			"from":    invalidTransition.From,
			"to":      invalidTransition.To,
			"allowed": nonNil(invalidTransition.Allowed),
		})
	case errors.As(err, &permissionDenied):
		ErrorResponse(c, http.StatusForbidden, "PERMISSION_DENIED", permissionDenied.Error(), gin.H{
			"allowed_roles": permissionDenied.Allowed,
		})
	case errors.Is(err, domain.ErrForbidden):
		ForbiddenResponse(c, "")
	case errors.As(err, &ruleViolation):
		ErrorResponse(c, http.StatusUnprocessableEntity, "RULE_VIOLATION", ruleViolation.Message, gin.H{
			"failure_codes": nonNil(ruleViolation.FailureCodes),
		})
	case errors.As(err, &paymentErr):
		ErrorResponse(c, http.StatusConflict, "PAYMENT_ERROR", paymentErr.Message, gin.H{
			"code": paymentErr.Code,
		})
	case errors.Is(err, domain.ErrConflict):
		ConflictResponse(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		if resource == "" {
			resource = "record"
		}
		NotFoundResponse(c, resource)
	case errors.As(err, &immutability):
		logrus.WithError(err).Error("Attempted to modify an append-only record")
		InternalErrorResponse(c, "")
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		InternalErrorResponse(c, "")
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", message, errors)
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if userID, exists := c.Get("user_id"); exists {
		if userIDStr, ok := userID.(string); ok {
			return userIDStr, true
		}
	}
	return "", false
}

func GetActorFromContext(c *gin.Context) (*domain.Actor, bool) {
	if value, exists := c.Get(ActorContextKey); exists {
		if actor, ok := value.(*domain.Actor); ok && actor != nil {
			return actor, true
		}
	}
	return nil, false
}
