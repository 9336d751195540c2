// internal/services/document_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/models"
	"github.com/G-alileo/e-visa-application-system/internal/repository"
	"github.com/G-alileo/e-visa-application-system/internal/rules"
)

const downloadURLExpiry = 15 * time.Minute

type DocumentService struct {
	store  repository.Store
	files  FileStore
	engine *rules.Engine
	now    func() time.Time
}

type DocumentSummaryItem struct {
	DocumentType string     `json:"document_type"`
	Uploaded     bool       `json:"uploaded"`
	Verified     bool       `json:"verified"`
	UploadedAt   *time.Time `json:"uploaded_at"`
}

type DocumentSummary struct {
	Required    []string              `json:"required"`
	Summary     []DocumentSummaryItem `json:"summary"`
	Missing     []string              `json:"missing"`
	AllUploaded bool                  `json:"all_uploaded"`
	AllVerified bool                  `json:"all_verified"`
}

func NewDocumentService(store repository.Store, files FileStore, engine *rules.Engine) *DocumentService {
	return &DocumentService{
		store:  store,
		files:  files,
		engine: engine,
		now:    time.Now,
	}
}

// Upload stores a document for the owner's application. One document is
// kept per type; a re-upload replaces the file and clears verification.
func (s *DocumentService) Upload(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID, docType models.DocumentType, file UploadFile) (*models.Document, error) {
	app, err := s.store.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if actor == nil || !app.IsOwnedBy(actor.ID) {
		return nil, domain.ErrForbidden
	}
	if !app.AcceptsDocuments() {
		return nil, &domain.InvalidTransitionError{
			From:    string(app.Status),
			Message: fmt.Sprintf("Documents cannot be changed at this stage. Application %s is currently %q.", app.ID, app.Status),
		}
	}
	docType = models.DocumentType(strings.ToUpper(string(docType)))
	if !docType.Valid() {
		return nil, &domain.RuleViolationError{
			Message:      fmt.Sprintf("Unknown document type %q.", docType),
			FailureCodes: []string{"INVALID_DOCUMENT_TYPE"},
		}
	}

	previous := s.findByType(ctx, app.ID, docType)

	result, err := s.files.Upload(ctx, file, s.files.DocumentUploadOptions(app.ID))
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ApplicationID: app.ID,
		DocumentType:  docType,
		FilePath:      result.Key,
		FileURL:       result.URL,
		FileSize:      result.Size,
		MimeType:      result.MimeType,
		Checksum:      result.Checksum,
		Verified:      false,
		UploadedAt:    s.now().UTC(),
	}
	if err := s.store.Documents().Upsert(ctx, doc); err != nil {
		_ = s.files.Delete(ctx, result.Key)
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	if previous != nil && previous.FilePath != doc.FilePath {
		if err := s.files.Delete(ctx, previous.FilePath); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"application_id": app.ID,
				"document_type":  docType,
			}).Warn("Failed to delete replaced document file")
		}
	}

	return doc, nil
}

func (s *DocumentService) findByType(ctx context.Context, applicationID uuid.UUID, docType models.DocumentType) *models.Document {
	docs, err := s.store.Documents().ListByApplication(ctx, applicationID)
	if err != nil {
		return nil
	}
	for i := range docs {
		if docs[i].DocumentType == docType {
			return &docs[i]
		}
	}
	return nil
}

// Verify records an officer's check of an uploaded document.
func (s *DocumentService) Verify(ctx context.Context, actor *domain.Actor, documentID uuid.UUID, verified bool) (*models.Document, error) {
	if err := domain.RequireRole(actor, reviewerRoles...); err != nil {
		return nil, err
	}

	doc, err := s.store.Documents().Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Applications().Get(ctx, doc.ApplicationID); err != nil {
		return nil, err
	}

	doc.Verified = verified
	if err := s.store.Documents().Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"document_id":    doc.ID,
		"application_id": doc.ApplicationID,
		"verified":       verified,
		"reviewer_id":    actor.ID,
	}).Info("Document verification updated")
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID) ([]models.Document, error) {
	app, err := s.store.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, app); err != nil {
		return nil, err
	}
	return s.store.Documents().ListByApplication(ctx, app.ID)
}

// Summary compares the uploaded documents with what the rules require.
func (s *DocumentService) Summary(ctx context.Context, actor *domain.Actor, applicationID uuid.UUID) (*DocumentSummary, error) {
	app, err := s.store.Applications().Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, app); err != nil {
		return nil, err
	}
	return s.summarize(ctx, app)
}

func (s *DocumentService) summarize(ctx context.Context, app *models.Application) (*DocumentSummary, error) {
	code, err := visaTypeCode(ctx, s.store, app)
	if err != nil {
		return nil, err
	}
	required, err := s.engine.RequiredDocuments(code)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.Documents().ListByApplication(ctx, app.ID)
	if err != nil {
		return nil, err
	}

	byType := make(map[string]models.Document, len(docs))
	for _, d := range docs {
		byType[strings.ToUpper(string(d.DocumentType))] = d
	}

	summary := &DocumentSummary{
		Required:    required,
		Summary:     make([]DocumentSummaryItem, 0, len(required)),
		Missing:     []string{},
		AllUploaded: true,
		AllVerified: true,
	}
	for _, docType := range required {
		item := DocumentSummaryItem{DocumentType: docType}
		if d, ok := byType[strings.ToUpper(docType)]; ok {
			uploadedAt := d.UploadedAt
			item.Uploaded = true
			item.Verified = d.Verified
			item.UploadedAt = &uploadedAt
		} else {
			summary.Missing = append(summary.Missing, docType)
		}
		summary.AllUploaded = summary.AllUploaded && item.Uploaded
		summary.AllVerified = summary.AllVerified && item.Verified
		summary.Summary = append(summary.Summary, item)
	}
	return summary, nil
}

// DownloadURL returns a short-lived link to the document file.
func (s *DocumentService) DownloadURL(ctx context.Context, actor *domain.Actor, documentID uuid.UUID) (string, error) {
	doc, err := s.store.Documents().Get(ctx, documentID)
	if err != nil {
		return "", err
	}
	app, err := s.store.Applications().Get(ctx, doc.ApplicationID)
	if err != nil {
		return "", err
	}
	if err := authorizeRead(actor, app); err != nil {
		return "", err
	}
	return s.files.DownloadURL(ctx, doc.FilePath, downloadURLExpiry)
}

func visaTypeCode(ctx context.Context, store repository.Store, app *models.Application) (string, error) {
	if app.VisaType != nil {
		return app.VisaType.Code, nil
	}
	vt, err := store.VisaTypes().Get(ctx, app.VisaTypeID)
	if err != nil {
		return "", fmt.Errorf("failed to load visa type: %w", err)
	}
	return vt.Code, nil
}
