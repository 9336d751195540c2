// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthForbidden    = "auth.forbidden"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// Applications
	KeyApplicationCreated     = "application.created"
	KeyApplicationUpdated     = "application.updated"
	KeyApplicationDeleted     = "application.deleted"
	KeyApplicationSubmitted   = "application.submitted"
	KeyApplicationResubmitted = "application.resubmitted"
	KeyApplicationNotFound    = "application.not_found"
	KeyApplicationBlocked     = "application.blocked"

	// Documents
	KeyDocumentUploaded = "document.uploaded"
	KeyDocumentVerified = "document.verified"
	KeyDocumentNotFound = "document.not_found"
	KeyDocumentTooLarge = "document.too_large"

	// Reviews
	KeyReviewApproved      = "review.approved"
	KeyReviewRejected      = "review.rejected"
	KeyReviewInfoRequested = "review.info_requested"

	// Payments
	KeyPaymentConfirmed = "payment.confirmed"
	KeyPaymentNotFound  = "payment.not_found"

	// Visa types
	KeyVisaTypeCreated  = "visa_type.created"
	KeyVisaTypeUpdated  = "visa_type.updated"
	KeyVisaTypeNotFound = "visa_type.not_found"

	// Generic
	KeyRecordNotFound = "record.not_found"
	KeyInternalError  = "error.internal"
	KeyRateLimited    = "error.rate_limited"
)
