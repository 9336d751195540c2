// internal/services/review_service_test.go
package services

import (
	"github.com/stretchr/testify/assert"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/models"
)

func (suite *WorkflowSuite) TestApproveRecordsDecision() {
	app := suite.underReview()

	decision, err := suite.reviews.Approve(suite.ctx, suite.officer, app.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.DecisionApproved, decision.Decision)
	assert.Equal(suite.T(), suite.officer.ID, decision.ReviewerID)
	assert.Equal(suite.T(), models.StatusApproved, suite.reload(app.ID).Status)

	trail := suite.trail(app.ID)
	last := trail[len(trail)-1]
	assert.Equal(suite.T(), "APPROVED", last.NewStatus)
	assert.Equal(suite.T(), "Approved by officer@example.com.", last.Reason)
}

func (suite *WorkflowSuite) TestRejectWithoutReason() {
	app := suite.underReview()
	before := len(suite.trail(app.ID))

	_, err := suite.reviews.Reject(suite.ctx, suite.officer, app.ID, "   ")
	var violation *domain.RuleViolationError
	suite.Require().ErrorAs(err, &violation)
	assert.Equal(suite.T(), []string{CodeRejectionReasonMissing}, violation.FailureCodes)

	assert.Equal(suite.T(), models.StatusUnderReview, suite.reload(app.ID).Status)
	assert.Len(suite.T(), suite.trail(app.ID), before)
}

func (suite *WorkflowSuite) TestRejectWithReason() {
	app := suite.underReview()

	decision, err := suite.reviews.Reject(suite.ctx, suite.supervisor, app.ID, "Insufficient funds shown.")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.DecisionRejected, decision.Decision)
	assert.Equal(suite.T(), "Insufficient funds shown.", decision.Reason)
	assert.Equal(suite.T(), models.StatusRejected, suite.reload(app.ID).Status)
}

func (suite *WorkflowSuite) TestRequestInfoAndResubmit() {
	app := suite.underReview()

	_, err := suite.reviews.RequestInfo(suite.ctx, suite.officer, app.ID, "Please upload a clearer photo.")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.StatusPendingInfo, suite.reload(app.ID).Status)

	_, err = suite.applications.Resubmit(suite.ctx, suite.other, app.ID)
	suite.ErrorIs(err, domain.ErrForbidden)

	suite.upload(app, models.DocumentPhoto)
	resubmitted, err := suite.applications.Resubmit(suite.ctx, suite.applicant, app.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.StatusUnderReview, resubmitted.Status)

	trail := suite.trail(app.ID)
	last := trail[len(trail)-1]
	assert.Equal(suite.T(), "PENDING_INFO", last.PreviousStatus)
	assert.Equal(suite.T(), reasonResubmitted, last.Reason)
}

func (suite *WorkflowSuite) TestApplicantCannotReview() {
	app := suite.underReview()
	before := len(suite.trail(app.ID))

	_, err := suite.reviews.Approve(suite.ctx, suite.applicant, app.ID)
	var denied *domain.PermissionDeniedError
	suite.Require().ErrorAs(err, &denied)
	assert.Equal(suite.T(), "APPLICANT", denied.Role)

	_, err = suite.reviews.Approve(suite.ctx, suite.admin, app.ID)
	suite.ErrorAs(err, &denied)

	assert.Equal(suite.T(), models.StatusUnderReview, suite.reload(app.ID).Status)
	assert.Len(suite.T(), suite.trail(app.ID), before)
}

func (suite *WorkflowSuite) TestReviewRequiresUnderReview() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)

	_, err := suite.reviews.Approve(suite.ctx, suite.officer, app.ID)
	var invalid *domain.InvalidTransitionError
	suite.Require().ErrorAs(err, &invalid)
	assert.Contains(suite.T(), invalid.Error(), "Review actions require status UNDER_REVIEW")
	assert.Empty(suite.T(), suite.trail(app.ID))
}

func (suite *WorkflowSuite) TestDecisionHistoryScopedToOfficer() {
	first := suite.underReview()
	second := suite.underReview()
	otherOfficer := &domain.Actor{ID: suite.admin.ID, Email: "second@example.com", Role: domain.RoleOfficer}

	_, err := suite.reviews.Approve(suite.ctx, suite.officer, first.ID)
	suite.Require().NoError(err)
	_, err = suite.reviews.Reject(suite.ctx, otherOfficer, second.ID, "Incomplete itinerary.")
	suite.Require().NoError(err)

	own, err := suite.reviews.DecisionHistory(suite.ctx, suite.officer, nil)
	suite.Require().NoError(err)
	suite.Require().Len(own, 1)
	assert.Equal(suite.T(), first.ID, own[0].ApplicationID)

	all, err := suite.reviews.DecisionHistory(suite.ctx, suite.supervisor, nil)
	suite.Require().NoError(err)
	assert.Len(suite.T(), all, 2)

	_, err = suite.reviews.DecisionHistory(suite.ctx, suite.applicant, nil)
	var denied *domain.PermissionDeniedError
	suite.ErrorAs(err, &denied)
}
