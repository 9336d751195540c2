// internal/models/review.go
package models

import (
	"github.com/google/uuid"
)

type ReviewDecision struct {
	BaseModel
	ApplicationID uuid.UUID     `json:"application_id" gorm:"type:uuid;not null;index"`
	ReviewerID    uuid.UUID     `json:"reviewer_id" gorm:"type:uuid;not null;index"`
	Decision      DecisionValue `json:"decision" gorm:"type:varchar(20);not null"`
	Reason        string        `json:"reason" gorm:"type:text;not null;default:''"`
}
