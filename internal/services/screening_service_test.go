// internal/services/screening_service_test.go
package services

import (
	"strings"

	"github.com/stretchr/testify/assert"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/events"
	"github.com/G-alileo/e-visa-application-system/internal/models"
	"github.com/G-alileo/e-visa-application-system/internal/rules"
)

func (suite *WorkflowSuite) TestSubmitRunsScreeningIntoReviewQueue() {
	app := suite.draft("TOURIST_30", "ng", "Sightseeing", entryDate)
	suite.upload(app, models.DocumentPassport, models.DocumentPhoto)

	result, err := suite.applications.Submit(suite.ctx, suite.applicant, app.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.StatusUnderReview, result.Application.Status)
	suite.Require().NotNil(result.Screening)
	assert.True(suite.T(), result.Screening.Passed)

	trail := suite.trail(app.ID)
	suite.Require().Len(trail, 3)
	assert.Equal(suite.T(), reasonSubmitted, trail[0].Reason)
	assert.Equal(suite.T(), "PRE_SCREENING", trail[1].NewStatus)
	assert.Equal(suite.T(), reasonPreScreeningPassed, trail[1].Reason)
	assert.Nil(suite.T(), trail[1].ActorID)
	assert.Equal(suite.T(), "UNDER_REVIEW", trail[2].NewStatus)
	assert.Equal(suite.T(), reasonAssignedToQueue, trail[2].Reason)

	latest, err := suite.screening.LatestResult(suite.ctx, suite.officer, app.ID)
	suite.Require().NoError(err)
	assert.True(suite.T(), latest.Passed)
	assert.False(suite.T(), latest.Blocked)
}

func (suite *WorkflowSuite) TestScreeningWarningsFoldIntoReason() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDateTooSoon)
	suite.upload(app, models.DocumentPassport)

	result, err := suite.applications.Submit(suite.ctx, suite.applicant, app.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.StatusUnderReview, result.Application.Status)
	assert.ElementsMatch(suite.T(),
		[]string{rules.CodeMissingRequiredDocuments, rules.CodeEntryDateTooSoon},
		result.Screening.FailureCodes)

	trail := suite.trail(app.ID)
	suite.Require().Len(trail, 3)
	assert.True(suite.T(), strings.HasPrefix(trail[1].Reason, reasonPreScreeningWarnings))
	assert.Contains(suite.T(), trail[1].Reason, "PHOTO")
	assert.Contains(suite.T(), trail[1].Reason, "; ")
}

func (suite *WorkflowSuite) TestHardBlockerLeavesApplicationSubmitted() {
	app := suite.draft("TOURIST_30", "KP", "Sightseeing", entryDate)
	suite.upload(app, models.DocumentPassport, models.DocumentPhoto)

	result, err := suite.applications.Submit(suite.ctx, suite.applicant, app.ID)
	var violation *domain.RuleViolationError
	suite.Require().ErrorAs(err, &violation)
	assert.Contains(suite.T(), violation.FailureCodes, rules.CodeNationalityGloballyBlocked)
	assert.Contains(suite.T(), violation.Message, "Pre-screening hard failure for application "+app.ID.String())

	suite.Require().NotNil(result)
	assert.Equal(suite.T(), models.StatusSubmitted, result.Application.Status)
	assert.Equal(suite.T(), models.StatusSubmitted, suite.reload(app.ID).Status)
	assert.Equal(suite.T(), models.PaymentStatusPending, suite.paymentOf(app.ID).Status)
	assert.Len(suite.T(), suite.trail(app.ID), 1)

	latest, err := suite.store.Screenings().Latest(suite.ctx, app.ID)
	suite.Require().NoError(err)
	assert.True(suite.T(), latest.Blocked)
	assert.True(suite.T(), latest.HasCode(rules.CodeNationalityGloballyBlocked))
}

func (suite *WorkflowSuite) TestAllowlistBlocksPreScreening() {
	app := suite.draft("STUDENT_365", "FR", "Master's degree", entryDate)
	suite.upload(app, models.DocumentPassport, models.DocumentPhoto)

	_, err := suite.applications.Submit(suite.ctx, suite.applicant, app.ID)
	var violation *domain.RuleViolationError
	suite.Require().ErrorAs(err, &violation)
	assert.Contains(suite.T(), violation.FailureCodes, rules.CodeNationalityNotInAllowlist)
}

func (suite *WorkflowSuite) TestRerunAfterRuleChange() {
	app := suite.draft("TOURIST_30", "KP", "Sightseeing", entryDate)
	suite.upload(app, models.DocumentPassport, models.DocumentPhoto)
	_, err := suite.applications.Submit(suite.ctx, suite.applicant, app.ID)
	suite.Require().Error(err)

	_, _, err = suite.screening.Rerun(suite.ctx, suite.applicant, app.ID)
	var denied *domain.PermissionDeniedError
	suite.Require().ErrorAs(err, &denied)

	suite.rules.set(func(rs *rules.RuleSet) { rs.Global.BlockedNationalities = nil })

	rerun, result, err := suite.screening.Rerun(suite.ctx, suite.officer, app.ID)
	suite.Require().NoError(err)
	assert.True(suite.T(), result.Passed)
	assert.Equal(suite.T(), models.StatusUnderReview, rerun.Status)
}

func (suite *WorkflowSuite) TestRerunQueuesApplicationLeftInPreScreening() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)
	suite.upload(app, models.DocumentPassport, models.DocumentPhoto)
	_, err := suite.transitions.Apply(suite.ctx, app.ID, models.StatusSubmitted, suite.applicant, "Submitted by applicant.")
	suite.Require().NoError(err)
	screened, _, err := suite.screening.RunPreScreening(suite.ctx, app.ID)
	suite.Require().NoError(err)
	suite.Require().Equal(models.StatusPreScreening, screened.Status)

	rerun, result, err := suite.screening.Rerun(suite.ctx, suite.officer, app.ID)
	suite.Require().NoError(err)
	assert.True(suite.T(), result.Passed)
	assert.Equal(suite.T(), models.StatusUnderReview, rerun.Status)

	published := suite.publisher.ofType(events.TypeStatusChanged)
	last := published[len(published)-1]
	assert.Equal(suite.T(), "UNDER_REVIEW", last.NewStatus)
	assert.True(suite.T(), last.System)
}

func (suite *WorkflowSuite) TestScreeningRequiresSubmittedStatus() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)

	_, _, err := suite.screening.RunPreScreening(suite.ctx, app.ID)
	var invalid *domain.InvalidTransitionError
	suite.Require().ErrorAs(err, &invalid)
	assert.Equal(suite.T(), models.StatusDraft, suite.reload(app.ID).Status)
}

func (suite *WorkflowSuite) TestLatestResultRequiresReadAccess() {
	app := suite.underReview()

	_, err := suite.screening.LatestResult(suite.ctx, suite.other, app.ID)
	suite.ErrorIs(err, domain.ErrForbidden)
}
