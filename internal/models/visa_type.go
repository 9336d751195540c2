// internal/models/visa_type.go
package models

import (
	"github.com/shopspring/decimal"
)

type VisaType struct {
	BaseModel
	Code        string          `json:"code" gorm:"size:30;not null;uniqueIndex"`
	Name        string          `json:"name" gorm:"size:100;not null"`
	Description string          `json:"description" gorm:"type:text"`
	FeeAmount   decimal.Decimal `json:"fee_amount" gorm:"type:decimal(10,2);not null"`
	MaxStayDays int             `json:"max_stay_days" gorm:"not null"`
	IsActive    bool            `json:"is_active" gorm:"not null;default:true;index"`
}
