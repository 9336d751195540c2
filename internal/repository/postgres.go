// internal/repository/postgres.go
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/models"
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store backed by postgres through gorm.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Applications() ApplicationRepository { return &gormApplications{db: s.db} }
func (s *gormStore) Audit() AuditRepository              { return &gormAudit{db: s.db} }
func (s *gormStore) Payments() PaymentRepository         { return &gormPayments{db: s.db} }
func (s *gormStore) Reviews() ReviewRepository           { return &gormReviews{db: s.db} }
func (s *gormStore) Documents() DocumentRepository       { return &gormDocuments{db: s.db} }
func (s *gormStore) VisaTypes() VisaTypeRepository       { return &gormVisaTypes{db: s.db} }
func (s *gormStore) Screenings() ScreeningRepository     { return &gormScreenings{db: s.db} }

// RunInTx nests as a savepoint when called on a transactional store.
func (s *gormStore) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func applyList(q *gorm.DB, opts ListOptions) *gorm.DB {
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	return q
}

// Applications

type gormApplications struct {
	db *gorm.DB
}

func (r *gormApplications) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Application{}).Where("soft_deleted_at IS NULL")
}

func (r *gormApplications) Create(ctx context.Context, app *models.Application) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(app).Error)
}

func (r *gormApplications) Get(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	if err := r.active(ctx).Preload("VisaType").First(&app, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (r *gormApplications) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	if err := r.active(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&app, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (r *gormApplications) Update(ctx context.Context, app *models.Application) error {
	res := r.db.WithContext(ctx).Model(app).
		Select("visa_type_id", "status", "nationality", "purpose_of_travel",
			"intended_entry_date", "submitted_at", "soft_deleted_at", "updated_at").
		Updates(app)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *gormApplications) ListByApplicant(ctx context.Context, applicantID uuid.UUID, opts ListOptions) ([]models.Application, int64, error) {
	query := r.active(ctx).Where("applicant_id = ?", applicantID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var apps []models.Application
	if err := applyList(query.Preload("VisaType").Order("created_at DESC"), opts).Find(&apps).Error; err != nil {
		return nil, 0, translate(err)
	}
	return apps, total, nil
}

func (r *gormApplications) ListByStatus(ctx context.Context, status models.ApplicationStatus, opts ListOptions) ([]models.Application, int64, error) {
	query := r.active(ctx).Where("status = ?", status)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var apps []models.Application
	if err := applyList(query.Preload("VisaType").Order("submitted_at ASC, created_at ASC"), opts).Find(&apps).Error; err != nil {
		return nil, 0, translate(err)
	}
	return apps, total, nil
}

// Audit

type gormAudit struct {
	db *gorm.DB
}

// The audit_logs trigger raises insufficient_privilege on UPDATE or DELETE.
const pgInsufficientPrivilege = "42501"

func (r *gormAudit) Append(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID != 0 {
		return &domain.ImmutabilityViolationError{Entity: "audit log entry", ID: entry.ID, Op: "re-append"}
	}
	return translate(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *gormAudit) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("timestamp ASC, id ASC").
		Find(&entries).Error
	return entries, translate(err)
}

func (r *gormAudit) List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.ApplicationID != nil {
		query = query.Where("application_id = ?", *filter.ApplicationID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []models.AuditLog
	err := query.Order("timestamp DESC, id DESC").Find(&entries).Error
	return entries, translate(err)
}

// Update routes through the model hooks, which refuse the write before any
// SQL is issued.
func (r *gormAudit) Update(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == 0 {
		// Save would turn this into an insert.
		return &domain.ImmutabilityViolationError{Entity: "audit log entry", ID: entry.ID, Op: "update"}
	}
	return r.immutable(r.db.WithContext(ctx).Save(entry).Error, entry.ID, "update")
}

func (r *gormAudit) Delete(ctx context.Context, id uint64) error {
	return r.immutable(r.db.WithContext(ctx).Delete(&models.AuditLog{ID: id}).Error, id, "delete")
}

func (r *gormAudit) immutable(err error, id uint64, op string) error {
	var violation *domain.ImmutabilityViolationError
	if errors.As(err, &violation) {
		return violation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInsufficientPrivilege {
		return &domain.ImmutabilityViolationError{Entity: "audit log entry", ID: id, Op: op}
	}
	if err != nil {
		return translate(err)
	}
	return &domain.ImmutabilityViolationError{Entity: "audit log entry", ID: id, Op: op}
}

// Payments

type gormPayments struct {
	db *gorm.DB
}

func (r *gormPayments) Create(ctx context.Context, payment *models.Payment) error {
	return translate(r.db.WithContext(ctx).Create(payment).Error)
}

func (r *gormPayments) GetByApplication(ctx context.Context, applicationID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "application_id = ?", applicationID).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (r *gormPayments) GetByApplicationForUpdate(ctx context.Context, applicationID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payment, "application_id = ?", applicationID).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (r *gormPayments) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "reference = ?", reference).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (r *gormPayments) Update(ctx context.Context, payment *models.Payment) error {
	res := r.db.WithContext(ctx).Model(payment).
		Select("status", "gateway_intent_id", "paid_at", "updated_at").
		Updates(payment)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Reviews

type gormReviews struct {
	db *gorm.DB
}

func (r *gormReviews) Create(ctx context.Context, decision *models.ReviewDecision) error {
	return translate(r.db.WithContext(ctx).Create(decision).Error)
}

func (r *gormReviews) List(ctx context.Context, filter ReviewFilter) ([]models.ReviewDecision, error) {
	query := r.db.WithContext(ctx).Model(&models.ReviewDecision{})
	if filter.ReviewerID != nil {
		query = query.Where("reviewer_id = ?", *filter.ReviewerID)
	}
	if filter.ApplicationID != nil {
		query = query.Where("application_id = ?", *filter.ApplicationID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var decisions []models.ReviewDecision
	err := query.Order("created_at DESC").Find(&decisions).Error
	return decisions, translate(err)
}

// Documents

type gormDocuments struct {
	db *gorm.DB
}

func (r *gormDocuments) Upsert(ctx context.Context, doc *models.Document) error {
	doc.EnsureID()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "application_id"}, {Name: "document_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"file_path", "file_url", "file_size", "mime_type", "checksum", "verified", "uploaded_at", "updated_at",
		}),
	}).Create(doc).Error
	if err != nil {
		return translate(err)
	}

	// On conflict the stored id wins; reload so callers see it.
	return translate(r.db.WithContext(ctx).
		First(doc, "application_id = ? AND document_type = ?", doc.ApplicationID, doc.DocumentType).Error)
}

func (r *gormDocuments) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func (r *gormDocuments) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("uploaded_at ASC").
		Find(&docs).Error
	return docs, translate(err)
}

func (r *gormDocuments) Update(ctx context.Context, doc *models.Document) error {
	return translate(r.db.WithContext(ctx).Model(doc).
		Select("verified", "updated_at").Updates(doc).Error)
}

// Visa types

type gormVisaTypes struct {
	db *gorm.DB
}

func (r *gormVisaTypes) Create(ctx context.Context, vt *models.VisaType) error {
	return translate(r.db.WithContext(ctx).Create(vt).Error)
}

func (r *gormVisaTypes) Get(ctx context.Context, id uuid.UUID) (*models.VisaType, error) {
	var vt models.VisaType
	if err := r.db.WithContext(ctx).First(&vt, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &vt, nil
}

func (r *gormVisaTypes) GetByCode(ctx context.Context, code string) (*models.VisaType, error) {
	var vt models.VisaType
	if err := r.db.WithContext(ctx).First(&vt, "code = ?", code).Error; err != nil {
		return nil, translate(err)
	}
	return &vt, nil
}

func (r *gormVisaTypes) List(ctx context.Context, activeOnly bool) ([]models.VisaType, error) {
	query := r.db.WithContext(ctx).Model(&models.VisaType{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var types []models.VisaType
	err := query.Order("code ASC").Find(&types).Error
	return types, translate(err)
}

func (r *gormVisaTypes) Update(ctx context.Context, vt *models.VisaType) error {
	return translate(r.db.WithContext(ctx).Model(vt).
		Select("name", "description", "fee_amount", "max_stay_days", "is_active", "updated_at").
		Updates(vt).Error)
}

// Screenings

type gormScreenings struct {
	db *gorm.DB
}

func (r *gormScreenings) Create(ctx context.Context, result *models.ScreeningResult) error {
	return translate(r.db.WithContext(ctx).Create(result).Error)
}

func (r *gormScreenings) Latest(ctx context.Context, applicationID uuid.UUID) (*models.ScreeningResult, error) {
	var result models.ScreeningResult
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		First(&result).Error; err != nil {
		return nil, translate(err)
	}
	return &result, nil
}
