// internal/models/audit.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
)

// AuditLog is append-only. Rows are written once by the transition engine
// and the payment gate; updates and deletes are refused here and by a
// database trigger.
type AuditLog struct {
	ID             uint64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ApplicationID  uuid.UUID  `json:"application_id" gorm:"type:uuid;not null"`
	PreviousStatus string     `json:"previous_status" gorm:"type:varchar(20);not null;default:''"`
	NewStatus      string     `json:"new_status" gorm:"type:varchar(20);not null"`
	ActorID        *uuid.UUID `json:"actor_id" gorm:"type:uuid"`
	Reason         string     `json:"reason" gorm:"type:text;not null;default:''"`
	Timestamp      time.Time  `json:"timestamp" gorm:"not null;autoCreateTime"`
}

func (a *AuditLog) IsSystemInitiated() bool {
	return a.ActorID == nil
}

func (a *AuditLog) BeforeUpdate(tx *gorm.DB) error {
	return &domain.ImmutabilityViolationError{Entity: "audit log entry", ID: a.ID, Op: "update"}
}

func (a *AuditLog) BeforeDelete(tx *gorm.DB) error {
	return &domain.ImmutabilityViolationError{Entity: "audit log entry", ID: a.ID, Op: "delete"}
}
