// internal/services/recommendation_service_test.go
package services

import (
	"github.com/stretchr/testify/assert"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/models"
)

func recommendationsOfType(recs []Recommendation, recType string) []Recommendation {
	var out []Recommendation
	for _, r := range recs {
		if r.Type == recType {
			out = append(out, r)
		}
	}
	return out
}

func (suite *WorkflowSuite) TestMissingDocumentRecommendation() {
	app := suite.draft("TOURIST_30", "NG", "Sightseeing", entryDate)
	suite.upload(app, models.DocumentPassport)

	recs, err := suite.recommendations.ForApplication(suite.ctx, suite.applicant, app.ID)
	suite.Require().NoError(err)

	missing := recommendationsOfType(recs, RecommendationMissingDocument)
	suite.Require().Len(missing, 1)
	assert.Equal(suite.T(), "Document 'PHOTO' is required but has not been uploaded.", missing[0].Message)
	assert.Contains(suite.T(), missing[0].Explanation, "Your visa type (TOURIST_30) requires a 'PHOTO'.")

	assert.Len(suite.T(), recommendationsOfType(recs, RecommendationEligibilityPrefix+"MISSING_REQUIRED_DOCUMENTS"), 1)
	assert.Empty(suite.T(), recommendationsOfType(recs, RecommendationVisaTypeSuggestion))
}

func (suite *WorkflowSuite) TestEligibilityRecommendationsSkipNationality() {
	app := suite.draft("TOURIST_30", "KP", "Sightseeing", entryDateTooSoon)
	suite.upload(app, models.DocumentPassport, models.DocumentPhoto)

	recs, err := suite.recommendations.ForApplication(suite.ctx, suite.applicant, app.ID)
	suite.Require().NoError(err)

	suite.Require().Len(recs, 1)
	assert.Equal(suite.T(), RecommendationEligibilityPrefix+"ENTRY_DATE_TOO_SOON", recs[0].Type)
	assert.Equal(suite.T(), "Potential eligibility issue detected.", recs[0].Message)
	assert.Contains(suite.T(), recs[0].Explanation, "at least 14 day(s)")
}

func (suite *WorkflowSuite) TestVisaTypeSuggestion() {
	app := suite.draft("TOURIST_30", "NG", "Business meetings with suppliers", entryDate)
	suite.upload(app, models.DocumentPassport, models.DocumentPhoto)

	recs, err := suite.recommendations.ForApplication(suite.ctx, suite.applicant, app.ID)
	suite.Require().NoError(err)

	suggestions := recommendationsOfType(recs, RecommendationVisaTypeSuggestion)
	suite.Require().Len(suggestions, 1)
	assert.Equal(suite.T(), "Consider visa type 'Business Visa' (BUSINESS_90).", suggestions[0].Message)
	assert.Contains(suite.T(), suggestions[0].Explanation, "mentions 'business'")
	assert.Contains(suite.T(), suggestions[0].Explanation, "current selection (TOURIST_30)")
}

func (suite *WorkflowSuite) TestVisaTypeSuggestionSkipsCurrentType() {
	matching := suite.draft("BUSINESS_90", "NG", "Business trip", entryDate)
	recs, err := suite.recommendations.ForApplication(suite.ctx, suite.applicant, matching.ID)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), recommendationsOfType(recs, RecommendationVisaTypeSuggestion))

	mixed := suite.draft("BUSINESS_90", "NG", "Business school study visit", entryDate)
	recs, err = suite.recommendations.ForApplication(suite.ctx, suite.applicant, mixed.ID)
	suite.Require().NoError(err)
	suggestions := recommendationsOfType(recs, RecommendationVisaTypeSuggestion)
	suite.Require().Len(suggestions, 1)
	assert.Equal(suite.T(), "Consider visa type 'Student Visa' (STUDENT_365).", suggestions[0].Message)
}

func (suite *WorkflowSuite) TestVisaTypeSuggestionRequiresActiveType() {
	inactive := false
	_, err := suite.visaTypes.Update(suite.ctx, suite.admin, suite.business.ID, &UpdateVisaTypeRequest{IsActive: &inactive})
	suite.Require().NoError(err)

	app := suite.draft("TOURIST_30", "NG", "work placement then study", entryDate)
	recs, err := suite.recommendations.ForApplication(suite.ctx, suite.applicant, app.ID)
	suite.Require().NoError(err)

	// "work" matches first, so no later keyword is considered.
	assert.Empty(suite.T(), recommendationsOfType(recs, RecommendationVisaTypeSuggestion))
}

func (suite *WorkflowSuite) TestRecommendationsDoNotChangeState() {
	app := suite.draft("TOURIST_30", "KP", "business", entryDateTooSoon)

	_, err := suite.recommendations.ForApplication(suite.ctx, suite.officer, app.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.StatusDraft, suite.reload(app.ID).Status)
	assert.Empty(suite.T(), suite.trail(app.ID))

	_, err = suite.recommendations.ForApplication(suite.ctx, suite.other, app.ID)
	suite.ErrorIs(err, domain.ErrForbidden)
}
