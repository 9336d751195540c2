// internal/services/recommendation_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/models"
	"github.com/G-alileo/e-visa-application-system/internal/repository"
	"github.com/G-alileo/e-visa-application-system/internal/rules"
)

const (
	RecommendationMissingDocument    = "MISSING_DOCUMENT_WARNING"
	RecommendationEligibilityPrefix  = "ELIGIBILITY_WARNING_"
	RecommendationVisaTypeSuggestion = "VISA_TYPE_SUGGESTION"
)

type Recommendation struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	Explanation string `json:"explanation"`
}

type purposeKeyword struct {
	keyword  string
	visaType string
}

// Checked in order; the first keyword whose suggestion differs from the
// current visa type decides.
var purposeKeywords = []purposeKeyword{
	{"business", "BUSINESS_90"},
	{"work", "BUSINESS_90"},
	{"study", "STUDENT_365"},
	{"student", "STUDENT_365"},
	{"education", "STUDENT_365"},
}

// RecommendationService produces read-only advice. It never changes state
// and never blocks a workflow action.
type RecommendationService struct {
	store     repository.Store
	screening *ScreeningService
	documents *DocumentService
}

func NewRecommendationService(store repository.Store, screening *ScreeningService, documents *DocumentService) *RecommendationService {
	return &RecommendationService{store: store, screening: screening, documents: documents}
}

func (s *RecommendationService) ForApplication(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID) ([]Recommendation, error) {
	app, err := s.store.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, app); err != nil {
		return nil, err
	}
	return s.Recommend(ctx, app)
}

func (s *RecommendationService) Recommend(ctx context.Context, app *models.Application) ([]Recommendation, error) {
	code, err := visaTypeCode(ctx, s.store, app)
	if err != nil {
		return nil, err
	}

	recs := []Recommendation{}

	summary, err := s.documents.summarize(ctx, app)
	if err != nil {
		return nil, err
	}
	recs = append(recs, documentRecommendations(code, summary.Missing)...)

	result, err := s.screening.Evaluate(ctx, app)
	if err != nil {
		return nil, err
	}
	recs = append(recs, eligibilityRecommendations(result)...)

	suggestion, err := s.visaTypeSuggestion(ctx, app.PurposeOfTravel, code)
	if err != nil {
		return nil, err
	}
	if suggestion != nil {
		recs = append(recs, *suggestion)
	}

	return recs, nil
}

func documentRecommendations(visaTypeCode string, missing []string) []Recommendation {
	recs := make([]Recommendation, 0, len(missing))
	for _, doc := range missing {
		recs = append(recs, Recommendation{
			Type:    RecommendationMissingDocument,
			Message: fmt.Sprintf("Document '%s' is required but has not been uploaded.", doc),
			Explanation: fmt.Sprintf("Your visa type (%s) requires a '%s'. Uploading it before submission "+
				"reduces the chance of your application being paused for more information.", visaTypeCode, doc),
		})
	}
	return recs
}

// eligibilityRecommendations covers the advisory failures only; nationality
// blockers are enforced during pre-screening.
func eligibilityRecommendations(result rules.Result) []Recommendation {
	var recs []Recommendation
	for _, w := range result.Warnings() {
		recs = append(recs, Recommendation{
			Type:        RecommendationEligibilityPrefix + w.Code,
			Message:     "Potential eligibility issue detected.",
			Explanation: w.Explanation,
		})
	}
	return recs
}

func (s *RecommendationService) visaTypeSuggestion(ctx context.Context, purpose, currentCode string) (*Recommendation, error) {
	purpose = strings.ToLower(purpose)

	for _, kw := range purposeKeywords {
		if !strings.Contains(purpose, kw.keyword) || kw.visaType == currentCode {
			continue
		}

		suggested, err := s.store.VisaTypes().GetByCode(ctx, kw.visaType)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !suggested.IsActive {
			return nil, nil
		}

		return &Recommendation{
			Type:    RecommendationVisaTypeSuggestion,
			Message: fmt.Sprintf("Consider visa type '%s' (%s).", suggested.Name, kw.visaType),
			Explanation: fmt.Sprintf("Your stated purpose of travel mentions '%s'. The '%s' visa type may be more "+
				"appropriate than your current selection (%s). This is a suggestion only, your current selection is still valid.",
				kw.keyword, suggested.Name, currentCode),
		}, nil
	}
	return nil, nil
}
