// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/G-alileo/e-visa-application-system/internal/models"
)

var (
	validate          *validator.Validate
	nationalityRegexp = regexp.MustCompile(`^[A-Za-z]{2}$`)
	visaTypeCodeRegex = regexp.MustCompile(`^[A-Z][A-Z0-9_]{1,29}$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("nationality", validateNationality)
	validate.RegisterValidation("future_date", validateFutureDate)
	validate.RegisterValidation("document_type", validateDocumentType)
	validate.RegisterValidation("visa_type_code", validateVisaTypeCode)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateNationality accepts a two-letter country code in either case.
func validateNationality(fl validator.FieldLevel) bool {
	return nationalityRegexp.MatchString(fl.Field().String())
}

// validateFutureDate accepts YYYY-MM-DD strings after today (UTC).
func validateFutureDate(fl validator.FieldLevel) bool {
	date, err := ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return date.After(today)
}

func validateDocumentType(fl validator.FieldLevel) bool {
	return models.DocumentType(strings.ToUpper(fl.Field().String())).Valid()
}

func validateVisaTypeCode(fl validator.FieldLevel) bool {
	return visaTypeCodeRegex.MatchString(fl.Field().String())
}

// ParseDate parses a calendar date as midnight UTC.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(value), time.UTC)
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "nationality":
		return "Nationality must be a two-letter country code"
	case "future_date":
		return e.Field() + " must be a future date in YYYY-MM-DD format"
	case "document_type":
		return "Unknown document type"
	case "visa_type_code":
		return "Visa type code must be upper case letters, digits and underscores"
	default:
		return e.Field() + " is invalid"
	}
}
