// internal/services/document_service_test.go
package services

import (
	"errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/models"
)

func (suite *WorkflowSuite) TestUploadReplacesDocumentAndResetsVerification() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)
	suite.upload(app, models.DocumentPassport)

	docs, err := suite.documents.List(suite.ctx, suite.applicant, app.ID)
	suite.Require().NoError(err)
	suite.Require().Len(docs, 1)
	original := docs[0]

	_, err = suite.documents.Verify(suite.ctx, suite.officer, original.ID, true)
	suite.Require().NoError(err)

	replaced, err := suite.documents.Upload(suite.ctx, suite.applicant, app.ID, "passport", UploadFile{
		Name:        "passport-renewed.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4 renewed"),
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), original.ID, replaced.ID)
	assert.False(suite.T(), replaced.Verified)
	assert.Equal(suite.T(), models.DocumentPassport, replaced.DocumentType)

	suite.files.AssertCalled(suite.T(), "Delete", mock.Anything, original.FilePath)
}

func (suite *WorkflowSuite) TestUploadRules() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)
	file := UploadFile{Name: "x.pdf", ContentType: "application/pdf", Data: []byte("x")}

	_, err := suite.documents.Upload(suite.ctx, suite.other, app.ID, models.DocumentPassport, file)
	suite.ErrorIs(err, domain.ErrForbidden)

	_, err = suite.documents.Upload(suite.ctx, suite.applicant, app.ID, "DRIVING_LICENCE", file)
	var violation *domain.RuleViolationError
	suite.ErrorAs(err, &violation)

	reviewing := suite.underReview()
	_, err = suite.documents.Upload(suite.ctx, suite.applicant, reviewing.ID, models.DocumentOther, file)
	var invalid *domain.InvalidTransitionError
	suite.Require().ErrorAs(err, &invalid)
	assert.Contains(suite.T(), invalid.Error(), "Documents cannot be changed at this stage")
}

func (suite *WorkflowSuite) TestUploadStorageFailure() {
	files := &mockFileStore{}
	files.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("bucket unavailable"))
	documents := NewDocumentService(suite.store, files, suite.documents.engine)
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)

	_, err := documents.Upload(suite.ctx, suite.applicant, app.ID, models.DocumentPassport, UploadFile{Name: "p.pdf", Data: []byte("p")})
	suite.Require().Error(err)

	docs, err := suite.store.Documents().ListByApplication(suite.ctx, app.ID)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), docs)
	files.AssertExpectations(suite.T())
}

func (suite *WorkflowSuite) TestDocumentSummary() {
	app := suite.draft("BUSINESS_90", "NG", "Conference", entryDate)
	suite.upload(app, models.DocumentPassport, models.DocumentPhoto)

	summary, err := suite.documents.Summary(suite.ctx, suite.applicant, app.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{"PASSPORT", "PHOTO", "INVITATION_LETTER"}, summary.Required)
	assert.Equal(suite.T(), []string{"INVITATION_LETTER"}, summary.Missing)
	assert.False(suite.T(), summary.AllUploaded)
	assert.False(suite.T(), summary.AllVerified)
	suite.Require().Len(summary.Summary, 3)
	assert.True(suite.T(), summary.Summary[0].Uploaded)
	assert.NotNil(suite.T(), summary.Summary[0].UploadedAt)
	assert.Nil(suite.T(), summary.Summary[2].UploadedAt)

	_, err = suite.documents.Summary(suite.ctx, suite.other, app.ID)
	suite.ErrorIs(err, domain.ErrForbidden)
}

func (suite *WorkflowSuite) TestVerifyRequiresReviewer() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)
	suite.upload(app, models.DocumentPassport)
	docs, err := suite.documents.List(suite.ctx, suite.officer, app.ID)
	suite.Require().NoError(err)

	_, err = suite.documents.Verify(suite.ctx, suite.applicant, docs[0].ID, true)
	var denied *domain.PermissionDeniedError
	suite.ErrorAs(err, &denied)

	verified, err := suite.documents.Verify(suite.ctx, suite.supervisor, docs[0].ID, true)
	suite.Require().NoError(err)
	assert.True(suite.T(), verified.Verified)
}

func (suite *WorkflowSuite) TestDownloadURL() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)
	suite.upload(app, models.DocumentPassport)
	docs, err := suite.documents.List(suite.ctx, suite.applicant, app.ID)
	suite.Require().NoError(err)
	suite.files.On("DownloadURL", mock.Anything, docs[0].FilePath, downloadURLExpiry).Return("https://signed.test/passport", nil)

	url, err := suite.documents.DownloadURL(suite.ctx, suite.officer, docs[0].ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "https://signed.test/passport", url)

	_, err = suite.documents.DownloadURL(suite.ctx, suite.other, docs[0].ID)
	suite.ErrorIs(err, domain.ErrForbidden)
}
