// internal/services/visa_type_service_test.go
package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/models"
)

// countingCache is an in-process VisaTypeCache that records invalidations.
type countingCache struct {
	active        []models.VisaType
	hasActive     bool
	invalidations int
}

func (c *countingCache) GetActive(ctx context.Context) ([]models.VisaType, bool, error) {
	return c.active, c.hasActive, nil
}

func (c *countingCache) SetActive(ctx context.Context, types []models.VisaType) error {
	c.active, c.hasActive = types, true
	return nil
}

func (c *countingCache) GetByCode(ctx context.Context, code string) (*models.VisaType, bool, error) {
	return nil, false, nil
}

func (c *countingCache) SetByCode(ctx context.Context, vt *models.VisaType) error { return nil }

func (c *countingCache) Invalidate(ctx context.Context) error {
	c.active, c.hasActive = nil, false
	c.invalidations++
	return nil
}

func (suite *WorkflowSuite) TestVisaTypeCreateAndCache() {
	cache := &countingCache{}
	svc := NewVisaTypeService(suite.store, cache)

	active, err := svc.ListActive(suite.ctx)
	suite.Require().NoError(err)
	assert.Len(suite.T(), active, 3)
	assert.True(suite.T(), cache.hasActive)

	created, err := svc.Create(suite.ctx, suite.admin, &CreateVisaTypeRequest{
		Code:        "TRANSIT_7",
		Name:        "Transit Visa",
		FeeAmount:   decimal.RequireFromString("20.00"),
		MaxStayDays: 7,
	})
	suite.Require().NoError(err)
	assert.True(suite.T(), created.IsActive)
	assert.Equal(suite.T(), "20.00", created.FeeAmount.StringFixed(2))
	assert.Equal(suite.T(), 1, cache.invalidations)

	active, err = svc.ListActive(suite.ctx)
	suite.Require().NoError(err)
	assert.Len(suite.T(), active, 4)
}

func (suite *WorkflowSuite) TestVisaTypeAdminRules() {
	req := &CreateVisaTypeRequest{Code: "TOURIST_30", Name: "Duplicate", FeeAmount: decimal.NewFromInt(10), MaxStayDays: 30}

	_, err := suite.visaTypes.Create(suite.ctx, suite.officer, req)
	var denied *domain.PermissionDeniedError
	suite.ErrorAs(err, &denied)

	_, err = suite.visaTypes.Create(suite.ctx, suite.admin, req)
	suite.ErrorIs(err, domain.ErrConflict)

	free := *req
	free.Code = "FREE_1"
	free.FeeAmount = decimal.Zero
	_, err = suite.visaTypes.Create(suite.ctx, suite.admin, &free)
	var violation *domain.RuleViolationError
	suite.ErrorAs(err, &violation)

	_, err = suite.visaTypes.ListAll(suite.ctx, suite.applicant)
	suite.ErrorAs(err, &denied)

	byCode, err := suite.visaTypes.GetByCode(suite.ctx, "business_90")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), suite.business.ID, byCode.ID)
}
