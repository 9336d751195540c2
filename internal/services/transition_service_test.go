// internal/services/transition_service_test.go
package services

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/events"
	"github.com/G-alileo/e-visa-application-system/internal/models"
	"github.com/G-alileo/e-visa-application-system/internal/repository"
)

type failingAudit struct{}

func (failingAudit) Append(ctx context.Context, tx repository.Store, entry *models.AuditLog) error {
	return errors.New("audit store unavailable")
}

func (suite *WorkflowSuite) TestTransitionWritesOneAuditEntry() {
	app := suite.draft("TOURIST_30", "NG", "tourism", entryDate)

	updated, err := suite.transitions.Apply(suite.ctx, app.ID, models.StatusSubmitted, suite.applicant, "manual submit")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.StatusSubmitted, updated.Status)
	suite.Require().NotNil(updated.SubmittedAt)
	assert.True(suite.T(), updated.SubmittedAt.Equal(testNow))

	trail := suite.trail(app.ID)
	suite.Require().Len(trail, 1)
	assert.Equal(suite.T(), "DRAFT", trail[0].PreviousStatus)
	assert.Equal(suite.T(), "SUBMITTED", trail[0].NewStatus)
	assert.Equal(suite.T(), "manual submit", trail[0].Reason)
	suite.Require().NotNil(trail[0].ActorID)
	assert.Equal(suite.T(), suite.applicant.ID, *trail[0].ActorID)

	published := suite.publisher.ofType(events.TypeStatusChanged)
	suite.Require().Len(published, 1)
	assert.Equal(suite.T(), app.ID, published[0].ApplicationID)
	assert.Equal(suite.T(), "SUBMITTED", published[0].NewStatus)
	assert.False(suite.T(), published[0].System)

	assert.Equal(suite.T(), 1.0, testutil.ToFloat64(suite.metrics.Transitions.WithLabelValues("DRAFT", "SUBMITTED")))
}

func (suite *WorkflowSuite) TestInvalidTransitionWritesNothing() {
	app := suite.draft("TOURIST_30", "NG", "tourism", entryDate)

	_, err := suite.transitions.Apply(suite.ctx, app.ID, models.StatusIssued, suite.admin, "skip ahead")
	var invalid *domain.InvalidTransitionError
	suite.Require().ErrorAs(err, &invalid)
	assert.Equal(suite.T(), "DRAFT", invalid.From)
	assert.Equal(suite.T(), "ISSUED", invalid.To)
	assert.Equal(suite.T(), []string{"SUBMITTED"}, invalid.Allowed)

	assert.Equal(suite.T(), models.StatusDraft, suite.reload(app.ID).Status)
	assert.Empty(suite.T(), suite.trail(app.ID))
	assert.Empty(suite.T(), suite.publisher.ofType(events.TypeStatusChanged))
	assert.Equal(suite.T(), 1.0, testutil.ToFloat64(suite.metrics.TransitionRejections.WithLabelValues("DRAFT", "ISSUED")))
}

func (suite *WorkflowSuite) TestWithdrawnIsUnreachable() {
	app := suite.draft("TOURIST_30", "NG", "tourism", entryDate)

	_, err := suite.transitions.Apply(suite.ctx, app.ID, models.StatusWithdrawn, suite.applicant, "changed my mind")
	var invalid *domain.InvalidTransitionError
	suite.ErrorAs(err, &invalid)
	assert.Equal(suite.T(), models.StatusDraft, suite.reload(app.ID).Status)
}

func (suite *WorkflowSuite) TestTransitionRollsBackWhenAuditFails() {
	app := suite.draft("TOURIST_30", "NG", "tourism", entryDate)
	transitions := NewTransitionService(suite.store, failingAudit{}, NewNotificationService(suite.publisher), nil)

	_, err := transitions.Apply(suite.ctx, app.ID, models.StatusSubmitted, suite.applicant, "submit")
	suite.Require().Error(err)

	reloaded := suite.reload(app.ID)
	assert.Equal(suite.T(), models.StatusDraft, reloaded.Status)
	assert.Nil(suite.T(), reloaded.SubmittedAt)
	assert.Empty(suite.T(), suite.publisher.ofType(events.TypeStatusChanged))
}

func (suite *WorkflowSuite) TestTransitionUnknownApplication() {
	_, err := suite.transitions.Apply(suite.ctx, suite.applicant.ID, models.StatusSubmitted, suite.applicant, "")
	suite.ErrorIs(err, domain.ErrNotFound)
}

func (suite *WorkflowSuite) TestPublishFailureDoesNotFailTransition() {
	suite.publisher.err = errors.New("broker down")
	app := suite.draft("TOURIST_30", "NG", "tourism", entryDate)

	_, err := suite.transitions.Apply(suite.ctx, app.ID, models.StatusSubmitted, suite.applicant, "submit")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.StatusSubmitted, suite.reload(app.ID).Status)
}
