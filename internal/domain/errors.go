// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("access to this resource is not allowed")
	ErrConflict  = errors.New("resource already exists")
)

// InvalidTransitionError is returned when a status change is not in the
// transition table, or when a workflow step requires a different status.
type InvalidTransitionError struct {
	From    string
	To      string
	Allowed []string
	Message string
}

func (e *InvalidTransitionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	allowed := "none"
	if len(e.Allowed) > 0 {
		allowed = strings.Join(e.Allowed, ", ")
	}
	return fmt.Sprintf("cannot transition from %q to %q; allowed targets: %s", e.From, e.To, allowed)
}

type PermissionDeniedError struct {
	ActorID string
	Role    string
	Allowed []string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("user %s has role %q; only %s may perform this action",
		e.ActorID, e.Role, strings.Join(e.Allowed, " or "))
}

// RuleViolationError carries machine-readable failure codes for triage.
type RuleViolationError struct {
	Message      string
	FailureCodes []string
}

func (e *RuleViolationError) Error() string {
	if len(e.FailureCodes) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(e.FailureCodes, ", "))
}

// Payment error codes.
const (
	PaymentExists            = "PAYMENT_EXISTS"
	PaymentInvalidAmount     = "PAYMENT_INVALID_AMOUNT"
	PaymentMissing           = "PAYMENT_MISSING"
	PaymentAlreadyPaid       = "PAYMENT_ALREADY_PAID"
	PaymentReferenceMismatch = "PAYMENT_REFERENCE_MISMATCH"
	PaymentNotPaid           = "PAYMENT_NOT_PAID"
	PaymentNotPending        = "PAYMENT_NOT_PENDING"
	PaymentNotCollected      = "PAYMENT_NOT_COLLECTED"
)

type PaymentError struct {
	Code    string
	Message string
}

func (e *PaymentError) Error() string {
	return e.Message
}

func NewPaymentError(code, format string, args ...interface{}) *PaymentError {
	return &PaymentError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsPaymentError reports whether err is a PaymentError with the given code.
func IsPaymentError(err error, code string) bool {
	var pe *PaymentError
	return errors.As(err, &pe) && pe.Code == code
}

// ImmutabilityViolationError signals an attempt to rewrite an append-only
// record. Reaching it means a caller bypassed the public API.
type ImmutabilityViolationError struct {
	Entity string
	ID     interface{}
	Op     string
}

func (e *ImmutabilityViolationError) Error() string {
	return fmt.Sprintf("%s %v is immutable: %s is not permitted", e.Entity, e.ID, e.Op)
}
