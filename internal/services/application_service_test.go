// internal/services/application_service_test.go
package services

import (
	"github.com/stretchr/testify/assert"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/models"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

func (suite *WorkflowSuite) TestCreateDraft() {
	app := suite.draft("tourist_30", "ng", "  Sightseeing  ", entryDate)

	assert.Equal(suite.T(), models.StatusDraft, app.Status)
	assert.Equal(suite.T(), "NG", app.Nationality)
	assert.Equal(suite.T(), "Sightseeing", app.PurposeOfTravel)
	assert.Equal(suite.T(), suite.tourist.ID, app.VisaTypeID)
	assert.Equal(suite.T(), suite.applicant.ID, app.ApplicantID)
	assert.Nil(suite.T(), app.SubmittedAt)
	assert.Empty(suite.T(), suite.trail(app.ID))
}

func (suite *WorkflowSuite) TestCreateDraftRules() {
	req := &CreateApplicationRequest{VisaTypeCode: "TOURIST_30", Nationality: "NG", PurposeOfTravel: "Tourism", IntendedEntryDate: entryDate}

	_, err := suite.applications.CreateDraft(suite.ctx, suite.officer, req)
	var denied *domain.PermissionDeniedError
	suite.ErrorAs(err, &denied)

	unknown := *req
	unknown.VisaTypeCode = "SPACE_1"
	_, err = suite.applications.CreateDraft(suite.ctx, suite.applicant, &unknown)
	suite.ErrorIs(err, domain.ErrNotFound)

	inactive := false
	_, err = suite.visaTypes.Update(suite.ctx, suite.admin, suite.student.ID, &UpdateVisaTypeRequest{IsActive: &inactive})
	suite.Require().NoError(err)
	closed := *req
	closed.VisaTypeCode = "STUDENT_365"
	_, err = suite.applications.CreateDraft(suite.ctx, suite.applicant, &closed)
	var violation *domain.RuleViolationError
	suite.ErrorAs(err, &violation)
}

func (suite *WorkflowSuite) TestUpdateDraft() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)
	code, purpose := "BUSINESS_90", "Trade fair"

	updated, err := suite.applications.UpdateDraft(suite.ctx, suite.applicant, app.ID, &UpdateApplicationRequest{
		VisaTypeCode:    &code,
		PurposeOfTravel: &purpose,
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), suite.business.ID, updated.VisaTypeID)
	assert.Equal(suite.T(), "Trade fair", suite.reload(app.ID).PurposeOfTravel)

	_, err = suite.applications.UpdateDraft(suite.ctx, suite.other, app.ID, &UpdateApplicationRequest{PurposeOfTravel: &purpose})
	suite.ErrorIs(err, domain.ErrForbidden)

	reviewing := suite.underReview()
	_, err = suite.applications.UpdateDraft(suite.ctx, suite.applicant, reviewing.ID, &UpdateApplicationRequest{PurposeOfTravel: &purpose})
	var invalid *domain.InvalidTransitionError
	suite.ErrorAs(err, &invalid)
}

func (suite *WorkflowSuite) TestGetAccess() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)

	_, err := suite.applications.Get(suite.ctx, suite.applicant, app.ID)
	suite.NoError(err)
	_, err = suite.applications.Get(suite.ctx, suite.officer, app.ID)
	suite.NoError(err)
	_, err = suite.applications.Get(suite.ctx, suite.other, app.ID)
	suite.ErrorIs(err, domain.ErrForbidden)
	_, err = suite.applications.Get(suite.ctx, nil, app.ID)
	suite.ErrorIs(err, domain.ErrForbidden)
}

func (suite *WorkflowSuite) TestSoftDelete() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)

	suite.ErrorIs(suite.applications.SoftDelete(suite.ctx, suite.other, app.ID), domain.ErrForbidden)
	suite.Require().NoError(suite.applications.SoftDelete(suite.ctx, suite.applicant, app.ID))

	_, err := suite.applications.Get(suite.ctx, suite.applicant, app.ID)
	suite.ErrorIs(err, domain.ErrNotFound)

	mine, total, err := suite.applications.ListMine(suite.ctx, suite.applicant, utils.PaginationParams{Page: 1, Limit: 20})
	suite.Require().NoError(err)
	assert.Zero(suite.T(), total)
	assert.Empty(suite.T(), mine)
}

func (suite *WorkflowSuite) TestSoftDeleteRequiresDraft() {
	app := suite.underReview()

	err := suite.applications.SoftDelete(suite.ctx, suite.applicant, app.ID)
	var invalid *domain.InvalidTransitionError
	suite.ErrorAs(err, &invalid)
}

func (suite *WorkflowSuite) TestSubmitRequiresOwnerAndDraft() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)

	_, err := suite.applications.Submit(suite.ctx, suite.other, app.ID)
	suite.ErrorIs(err, domain.ErrForbidden)

	reviewing := suite.underReview()
	_, err = suite.applications.Submit(suite.ctx, suite.applicant, reviewing.ID)
	var invalid *domain.InvalidTransitionError
	suite.Require().ErrorAs(err, &invalid)

	// The refused submission must not open a payment.
	_, err = suite.store.Payments().GetByApplication(suite.ctx, app.ID)
	suite.ErrorIs(err, domain.ErrNotFound)
}

func (suite *WorkflowSuite) TestReApply() {
	app := suite.underReview()
	_, err := suite.reviews.Reject(suite.ctx, suite.officer, app.ID, "Photo does not meet requirements.")
	suite.Require().NoError(err)

	again, err := suite.applications.ReApply(suite.ctx, suite.applicant, app.ID, &ReApplyRequest{IntendedEntryDate: "2026-07-01"})
	suite.Require().NoError(err)
	assert.NotEqual(suite.T(), app.ID, again.ID)
	assert.Equal(suite.T(), models.StatusDraft, again.Status)
	assert.Equal(suite.T(), app.VisaTypeID, again.VisaTypeID)
	assert.Equal(suite.T(), app.Nationality, again.Nationality)
	assert.Equal(suite.T(), app.PurposeOfTravel, again.PurposeOfTravel)
	assert.Equal(suite.T(), "2026-07-01", again.IntendedEntryDate.Format("2006-01-02"))
	assert.Equal(suite.T(), models.StatusRejected, suite.reload(app.ID).Status)

	_, err = suite.applications.ReApply(suite.ctx, suite.applicant, again.ID, &ReApplyRequest{IntendedEntryDate: "2026-07-01"})
	var invalid *domain.InvalidTransitionError
	suite.ErrorAs(err, &invalid)
}

func (suite *WorkflowSuite) TestQueues() {
	first := suite.underReview()
	second := suite.underReview()
	_, err := suite.reviews.RequestInfo(suite.ctx, suite.officer, second.ID, "Need bank statement.")
	suite.Require().NoError(err)

	queue, total, err := suite.applications.OfficerQueue(suite.ctx, suite.officer, utils.PaginationParams{Page: 1, Limit: 20})
	suite.Require().NoError(err)
	assert.EqualValues(suite.T(), 1, total)
	assert.Equal(suite.T(), first.ID, queue[0].ID)

	pending, _, err := suite.applications.PendingInfoQueue(suite.ctx, suite.supervisor, utils.PaginationParams{Page: 1, Limit: 20})
	suite.Require().NoError(err)
	suite.Require().Len(pending, 1)
	assert.Equal(suite.T(), second.ID, pending[0].ID)

	_, _, err = suite.applications.OfficerQueue(suite.ctx, suite.applicant, utils.PaginationParams{Page: 1, Limit: 20})
	var denied *domain.PermissionDeniedError
	suite.ErrorAs(err, &denied)
}
