// internal/models/application.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Application struct {
	BaseModel
	ApplicantID       uuid.UUID         `json:"applicant_id" gorm:"type:uuid;not null;index"`
	VisaTypeID        uuid.UUID         `json:"visa_type_id" gorm:"type:uuid;not null"`
	Status            ApplicationStatus `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Nationality       string            `json:"nationality" gorm:"type:char(2);not null"`
	PurposeOfTravel   string            `json:"purpose_of_travel" gorm:"type:text;not null"`
	IntendedEntryDate time.Time         `json:"intended_entry_date" gorm:"type:date;not null"`
	SubmittedAt       *time.Time        `json:"submitted_at"`
	SoftDeletedAt     *time.Time        `json:"soft_deleted_at,omitempty" gorm:"index"`

	// Relationships
	VisaType  *VisaType  `json:"visa_type,omitempty" gorm:"foreignKey:VisaTypeID"`
	Documents []Document `json:"documents,omitempty" gorm:"foreignKey:ApplicationID"`
	Payment   *Payment   `json:"payment,omitempty" gorm:"foreignKey:ApplicationID"`
}

func (a *Application) IsOwnedBy(applicantID uuid.UUID) bool {
	return a.ApplicantID == applicantID
}

func (a *Application) IsSoftDeleted() bool {
	return a.SoftDeletedAt != nil
}

// AcceptsDocuments reports whether uploads are open in the current status.
func (a *Application) AcceptsDocuments() bool {
	return a.Status == StatusDraft || a.Status == StatusPendingInfo
}
