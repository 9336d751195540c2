// internal/services/audit_service_test.go
package services

import (
	"github.com/stretchr/testify/assert"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
)

func (suite *WorkflowSuite) TestTrailIsChronological() {
	app := suite.approved()

	trail, err := suite.audit.Trail(suite.ctx, suite.applicant, app.ID)
	suite.Require().NoError(err)

	statuses := make([]string, len(trail))
	for i, e := range trail {
		statuses[i] = e.NewStatus
	}
	assert.Equal(suite.T(), []string{"SUBMITTED", "PRE_SCREENING", "UNDER_REVIEW", "APPROVED"}, statuses)

	_, err = suite.audit.Trail(suite.ctx, suite.other, app.ID)
	suite.ErrorIs(err, domain.ErrForbidden)
}

func (suite *WorkflowSuite) TestRecentRequiresSupervisor() {
	first := suite.underReview()
	suite.underReview()

	_, err := suite.audit.Recent(suite.ctx, suite.officer, nil)
	var denied *domain.PermissionDeniedError
	suite.Require().ErrorAs(err, &denied)

	all, err := suite.audit.Recent(suite.ctx, suite.supervisor, nil)
	suite.Require().NoError(err)
	assert.Len(suite.T(), all, 6)

	filtered, err := suite.audit.Recent(suite.ctx, suite.admin, &first.ID)
	suite.Require().NoError(err)
	suite.Require().Len(filtered, 3)
	assert.Equal(suite.T(), "UNDER_REVIEW", filtered[0].NewStatus)
}

func (suite *WorkflowSuite) TestAuditEntriesAreImmutable() {
	app := suite.underReview()
	entry := suite.trail(app.ID)[0]

	entry.Reason = "rewritten"
	var violation *domain.ImmutabilityViolationError
	suite.ErrorAs(suite.store.Audit().Update(suite.ctx, &entry), &violation)
	suite.ErrorAs(suite.store.Audit().Delete(suite.ctx, entry.ID), &violation)

	assert.Equal(suite.T(), reasonSubmitted, suite.trail(app.ID)[0].Reason)
}
