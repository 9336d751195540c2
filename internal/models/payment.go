// internal/models/payment.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Payment struct {
	BaseModel
	ApplicationID   uuid.UUID       `json:"application_id" gorm:"type:uuid;not null;uniqueIndex"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Currency        string          `json:"currency" gorm:"size:3;not null;default:'usd'"`
	Status          PaymentStatus   `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	Reference       string          `json:"reference" gorm:"size:100;not null;uniqueIndex"`
	GatewayIntentID string          `json:"gateway_intent_id,omitempty" gorm:"size:255;index"`
	PaidAt          *time.Time      `json:"paid_at"`
}

func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}
