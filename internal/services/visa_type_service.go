// internal/services/visa_type_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/G-alileo/e-visa-application-system/internal/cache"
	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/models"
	"github.com/G-alileo/e-visa-application-system/internal/repository"
)

type VisaTypeService struct {
	store repository.Store
	cache cache.VisaTypeCache
}

type CreateVisaTypeRequest struct {
	Code        string          `json:"code" validate:"required,visa_type_code"`
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=2000"`
	FeeAmount   decimal.Decimal `json:"fee_amount"`
	MaxStayDays int             `json:"max_stay_days" validate:"required,min=1,max=3650"`
	IsActive    *bool           `json:"is_active"`
}

type UpdateVisaTypeRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	FeeAmount   *decimal.Decimal `json:"fee_amount"`
	MaxStayDays *int             `json:"max_stay_days" validate:"omitempty,min=1,max=3650"`
	IsActive    *bool            `json:"is_active"`
}

func NewVisaTypeService(store repository.Store, c cache.VisaTypeCache) *VisaTypeService {
	if c == nil {
		c = cache.NoopVisaTypeCache{}
	}
	return &VisaTypeService{store: store, cache: c}
}

// ListActive returns the visa types applicants may choose, served from the
// cache when possible.
func (s *VisaTypeService) ListActive(ctx context.Context) ([]models.VisaType, error) {
	if types, found, err := s.cache.GetActive(ctx); err != nil {
		logrus.WithError(err).Warn("Visa type cache read failed")
	} else if found {
		return types, nil
	}

	types, err := s.store.VisaTypes().List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list visa types: %w", err)
	}
	if err := s.cache.SetActive(ctx, types); err != nil {
		logrus.WithError(err).Warn("Visa type cache write failed")
	}
	return types, nil
}

func (s *VisaTypeService) ListAll(ctx context.Context, actor *domain.Actor) ([]models.VisaType, error) {
	if err := domain.RequireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.VisaTypes().List(ctx, false)
}

func (s *VisaTypeService) GetByCode(ctx context.Context, code string) (*models.VisaType, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if vt, found, err := s.cache.GetByCode(ctx, code); err != nil {
		logrus.WithError(err).WithField("code", code).Warn("Visa type cache read failed")
	} else if found {
		return vt, nil
	}

	vt, err := s.store.VisaTypes().GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetByCode(ctx, vt); err != nil {
		logrus.WithError(err).WithField("code", code).Warn("Visa type cache write failed")
	}
	return vt, nil
}

func (s *VisaTypeService) Create(ctx context.Context, actor *domain.Actor, req *CreateVisaTypeRequest) (*models.VisaType, error) {
	if err := domain.RequireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !req.FeeAmount.IsPositive() {
		return nil, &domain.RuleViolationError{Message: "Visa fee must be positive.", FailureCodes: []string{"INVALID_FEE"}}
	}

	vt := &models.VisaType{
		Code:        strings.ToUpper(req.Code),
		Name:        req.Name,
		Description: req.Description,
		FeeAmount:   req.FeeAmount.Round(2),
		MaxStayDays: req.MaxStayDays,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := s.store.VisaTypes().Create(ctx, vt); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return vt, nil
}

func (s *VisaTypeService) Update(ctx context.Context, actor *domain.Actor, id uuid.UUID, req *UpdateVisaTypeRequest) (*models.VisaType, error) {
	if err := domain.RequireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	vt, err := s.store.VisaTypes().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		vt.Name = *req.Name
	}
	if req.Description != nil {
		vt.Description = *req.Description
	}
	if req.FeeAmount != nil {
		if !req.FeeAmount.IsPositive() {
			return nil, &domain.RuleViolationError{Message: "Visa fee must be positive.", FailureCodes: []string{"INVALID_FEE"}}
		}
		vt.FeeAmount = req.FeeAmount.Round(2)
	}
	if req.MaxStayDays != nil {
		vt.MaxStayDays = *req.MaxStayDays
	}
	if req.IsActive != nil {
		vt.IsActive = *req.IsActive
	}

	if err := s.store.VisaTypes().Update(ctx, vt); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return vt, nil
}

func (s *VisaTypeService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate visa type cache")
	}
}
