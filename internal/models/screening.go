// internal/models/screening.go
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ScreeningResult keeps the structured outcome of a pre-screening run so the
// advisories survive beyond the audit reason text.
type ScreeningResult struct {
	BaseModel
	ApplicationID uuid.UUID      `json:"application_id" gorm:"type:uuid;not null;index"`
	Passed        bool           `json:"passed" gorm:"not null"`
	Blocked       bool           `json:"blocked" gorm:"not null"`
	FailureCodes  pq.StringArray `json:"failure_codes" gorm:"type:text[]"`
	Explanations  pq.StringArray `json:"explanations" gorm:"type:text[]"`
	ReferenceDate time.Time      `json:"reference_date" gorm:"type:date;not null"`
}

// HasCode reports whether code is among the recorded failures.
func (s *ScreeningResult) HasCode(code string) bool {
	for _, c := range s.FailureCodes {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}
