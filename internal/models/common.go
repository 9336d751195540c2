// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnsureID assigns a random identifier if none is set yet.
func (b *BaseModel) EnsureID() {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	b.EnsureID()
	return nil
}

// Enums
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type DecisionValue string

const (
	DecisionApproved    DecisionValue = "APPROVED"
	DecisionRejected    DecisionValue = "REJECTED"
	DecisionRequestInfo DecisionValue = "REQUEST_INFO"
)

type DocumentType string

const (
	DocumentPassport           DocumentType = "PASSPORT"
	DocumentPhoto              DocumentType = "PHOTO"
	DocumentBankStatement      DocumentType = "BANK_STATEMENT"
	DocumentInvitationLetter   DocumentType = "INVITATION_LETTER"
	DocumentTravelItinerary    DocumentType = "TRAVEL_ITINERARY"
	DocumentAccommodationProof DocumentType = "ACCOMMODATION_PROOF"
	DocumentOther              DocumentType = "OTHER"
)

var documentTypes = []DocumentType{
	DocumentPassport,
	DocumentPhoto,
	DocumentBankStatement,
	DocumentInvitationLetter,
	DocumentTravelItinerary,
	DocumentAccommodationProof,
	DocumentOther,
}

func DocumentTypes() []DocumentType {
	out := make([]DocumentType, len(documentTypes))
	copy(out, documentTypes)
	return out
}

func (d DocumentType) Valid() bool {
	for _, t := range documentTypes {
		if t == d {
			return true
		}
	}
	return false
}
