// internal/database/seeds.go
package database

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/G-alileo/e-visa-application-system/internal/models"
)

// DefaultVisaTypes is the reference data a fresh installation starts with.
func DefaultVisaTypes() []models.VisaType {
	return []models.VisaType{
		{
			Code:        "TOURIST_30",
			Name:        "Tourist Visa (30 days)",
			Description: "Single-entry visa for tourism and family visits.",
			FeeAmount:   decimal.RequireFromString("50.00"),
			MaxStayDays: 30,
			IsActive:    true,
		},
		{
			Code:        "BUSINESS_90",
			Name:        "Business Visa (90 days)",
			Description: "Multiple-entry visa for meetings, conferences and short work assignments.",
			FeeAmount:   decimal.RequireFromString("120.00"),
			MaxStayDays: 90,
			IsActive:    true,
		},
		{
			Code:        "STUDENT_365",
			Name:        "Student Visa (365 days)",
			Description: "Visa for enrolled students of accredited institutions.",
			FeeAmount:   decimal.RequireFromString("200.00"),
			MaxStayDays: 365,
			IsActive:    true,
		},
		{
			Code:        "TRANSIT_7",
			Name:        "Transit Visa (7 days)",
			Description: "Short visa for travellers connecting through the country.",
			FeeAmount:   decimal.RequireFromString("20.00"),
			MaxStayDays: 7,
			IsActive:    true,
		},
	}
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	err := WithTransaction(db, func(tx *gorm.DB) error {
		for _, vt := range DefaultVisaTypes() {
			var count int64
			if err := tx.Model(&models.VisaType{}).Where("code = ?", vt.Code).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&vt).Error; err != nil {
				return fmt.Errorf("failed to create visa type %s: %w", vt.Code, err)
			}
			logrus.WithField("code", vt.Code).Info("Visa type seeded")
		}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.Info("Initial data seeding completed")
	return nil
}
