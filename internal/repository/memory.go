// internal/repository/memory.go
package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/models"
)

// MemoryStore is an in-process Store for tests and local runs. It favors
// clarity over performance: a transaction holds the store lock for its whole
// duration and works on a private copy that replaces the shared state only
// when the callback succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState(), now: time.Now}
}

// WithClock sets the clock used for server-assigned timestamps.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

type memState struct {
	applications map[uuid.UUID]models.Application
	audit        []models.AuditLog
	nextAuditID  uint64
	payments     map[uuid.UUID]models.Payment
	reviews      []models.ReviewDecision
	documents    map[uuid.UUID]models.Document
	visaTypes    map[uuid.UUID]models.VisaType
	screenings   []models.ScreeningResult
}

func newMemState() *memState {
	return &memState{
		applications: make(map[uuid.UUID]models.Application),
		payments:     make(map[uuid.UUID]models.Payment),
		documents:    make(map[uuid.UUID]models.Document),
		visaTypes:    make(map[uuid.UUID]models.VisaType),
	}
}

// clone copies every table. Stored rows never share mutable slices with
// callers, so a shallow row copy is enough.
func (s *memState) clone() *memState {
	c := &memState{
		applications: make(map[uuid.UUID]models.Application, len(s.applications)),
		audit:        append([]models.AuditLog(nil), s.audit...),
		nextAuditID:  s.nextAuditID,
		payments:     make(map[uuid.UUID]models.Payment, len(s.payments)),
		reviews:      append([]models.ReviewDecision(nil), s.reviews...),
		documents:    make(map[uuid.UUID]models.Document, len(s.documents)),
		visaTypes:    make(map[uuid.UUID]models.VisaType, len(s.visaTypes)),
		screenings:   append([]models.ScreeningResult(nil), s.screenings...),
	}
	for k, v := range s.applications {
		c.applications[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.documents {
		c.documents[k] = v
	}
	for k, v := range s.visaTypes {
		c.visaTypes[k] = v
	}
	return c
}

// runner gives repositories access to state: autocommitting on the store,
// directly inside a transaction.
type runner interface {
	read(fn func(st *memState) error) error
	write(fn func(st *memState) error) error
	clock() time.Time
}

func (m *MemoryStore) read(fn func(st *memState) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.state)
}

func (m *MemoryStore) write(fn func(st *memState) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.state.clone()
	if err := fn(next); err != nil {
		return err
	}
	m.state = next
	return nil
}

func (m *MemoryStore) clock() time.Time { return m.now() }

func (m *MemoryStore) Applications() ApplicationRepository { return &memApplications{r: m} }
func (m *MemoryStore) Audit() AuditRepository              { return &memAudit{r: m} }
func (m *MemoryStore) Payments() PaymentRepository         { return &memPayments{r: m} }
func (m *MemoryStore) Reviews() ReviewRepository           { return &memReviews{r: m} }
func (m *MemoryStore) Documents() DocumentRepository       { return &memDocuments{r: m} }
func (m *MemoryStore) VisaTypes() VisaTypeRepository       { return &memVisaTypes{r: m} }
func (m *MemoryStore) Screenings() ScreeningRepository     { return &memScreenings{r: m} }

func (m *MemoryStore) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{state: m.state.clone(), now: m.now}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

type memTx struct {
	state *memState
	now   func() time.Time
}

func (t *memTx) read(fn func(st *memState) error) error  { return fn(t.state) }
func (t *memTx) write(fn func(st *memState) error) error { return fn(t.state) }
func (t *memTx) clock() time.Time                        { return t.now() }

func (t *memTx) Applications() ApplicationRepository { return &memApplications{r: t} }
func (t *memTx) Audit() AuditRepository              { return &memAudit{r: t} }
func (t *memTx) Payments() PaymentRepository         { return &memPayments{r: t} }
func (t *memTx) Reviews() ReviewRepository           { return &memReviews{r: t} }
func (t *memTx) Documents() DocumentRepository       { return &memDocuments{r: t} }
func (t *memTx) VisaTypes() VisaTypeRepository       { return &memVisaTypes{r: t} }
func (t *memTx) Screenings() ScreeningRepository     { return &memScreenings{r: t} }

// RunInTx behaves like a savepoint: a failing callback discards only its
// own writes.
func (t *memTx) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	child := &memTx{state: t.state.clone(), now: t.now}
	if err := fn(child); err != nil {
		return err
	}
	t.state = child.state
	return nil
}

func paginate[T any](rows []T, opts ListOptions) []T {
	if opts.Offset >= len(rows) {
		return []T{}
	}
	rows = rows[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(rows) {
		rows = rows[:opts.Limit]
	}
	return rows
}

// Applications

type memApplications struct {
	r runner
}

func stripApplication(app models.Application) models.Application {
	app.VisaType = nil
	app.Documents = nil
	app.Payment = nil
	return app
}

func (a *memApplications) withVisaType(st *memState, app models.Application) *models.Application {
	if vt, ok := st.visaTypes[app.VisaTypeID]; ok {
		app.VisaType = &vt
	}
	return &app
}

func (a *memApplications) Create(ctx context.Context, app *models.Application) error {
	return a.r.write(func(st *memState) error {
		app.EnsureID()
		if _, exists := st.applications[app.ID]; exists {
			return ErrDuplicate
		}
		now := a.r.clock()
		if app.CreatedAt.IsZero() {
			app.CreatedAt = now
		}
		app.UpdatedAt = now
		if app.Status == "" {
			app.Status = models.StatusDraft
		}
		st.applications[app.ID] = stripApplication(*app)
		return nil
	})
}

func (a *memApplications) Get(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var out *models.Application
	err := a.r.read(func(st *memState) error {
		app, ok := st.applications[id]
		if !ok || app.IsSoftDeleted() {
			return domain.ErrNotFound
		}
		out = a.withVisaType(st, app)
		return nil
	})
	return out, err
}

// GetForUpdate needs no extra locking: writers are already serialized.
func (a *memApplications) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return a.Get(ctx, id)
}

func (a *memApplications) Update(ctx context.Context, app *models.Application) error {
	return a.r.write(func(st *memState) error {
		existing, ok := st.applications[app.ID]
		if !ok || existing.IsSoftDeleted() {
			return domain.ErrNotFound
		}
		app.CreatedAt = existing.CreatedAt
		app.ApplicantID = existing.ApplicantID
		app.UpdatedAt = a.r.clock()
		st.applications[app.ID] = stripApplication(*app)
		return nil
	})
}

func (a *memApplications) list(filter func(models.Application) bool, less func(x, y models.Application) bool, opts ListOptions) ([]models.Application, int64, error) {
	var out []models.Application
	var total int64
	err := a.r.read(func(st *memState) error {
		var rows []models.Application
		for _, app := range st.applications {
			if !app.IsSoftDeleted() && filter(app) {
				rows = append(rows, app)
			}
		}
		sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
		total = int64(len(rows))
		for _, app := range paginate(rows, opts) {
			out = append(out, *a.withVisaType(st, app))
		}
		return nil
	})
	return out, total, err
}

func (a *memApplications) ListByApplicant(ctx context.Context, applicantID uuid.UUID, opts ListOptions) ([]models.Application, int64, error) {
	return a.list(
		func(app models.Application) bool { return app.ApplicantID == applicantID },
		func(x, y models.Application) bool { return x.CreatedAt.After(y.CreatedAt) },
		opts,
	)
}

func (a *memApplications) ListByStatus(ctx context.Context, status models.ApplicationStatus, opts ListOptions) ([]models.Application, int64, error) {
	return a.list(
		func(app models.Application) bool { return app.Status == status },
		func(x, y models.Application) bool {
			xs, ys := submittedOrZero(x), submittedOrZero(y)
			if !xs.Equal(ys) {
				return xs.Before(ys)
			}
			return x.CreatedAt.Before(y.CreatedAt)
		},
		opts,
	)
}

func submittedOrZero(app models.Application) time.Time {
	if app.SubmittedAt == nil {
		return time.Time{}
	}
	return *app.SubmittedAt
}

// Audit

type memAudit struct {
	r runner
}

func (a *memAudit) Append(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID != 0 {
		return &domain.ImmutabilityViolationError{Entity: "audit log entry", ID: entry.ID, Op: "re-append"}
	}
	return a.r.write(func(st *memState) error {
		st.nextAuditID++
		entry.ID = st.nextAuditID
		if entry.Timestamp.IsZero() {
			entry.Timestamp = a.r.clock()
		}
		st.audit = append(st.audit, *entry)
		return nil
	})
}

func (a *memAudit) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.AuditLog, error) {
	var out []models.AuditLog
	err := a.r.read(func(st *memState) error {
		for _, e := range st.audit {
			if e.ApplicationID == applicationID {
				out = append(out, e)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (a *memAudit) List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error) {
	var out []models.AuditLog
	err := a.r.read(func(st *memState) error {
		for _, e := range st.audit {
			if filter.ApplicationID == nil || e.ApplicationID == *filter.ApplicationID {
				out = append(out, e)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, err
}

func (a *memAudit) Update(ctx context.Context, entry *models.AuditLog) error {
	return &domain.ImmutabilityViolationError{Entity: "audit log entry", ID: entry.ID, Op: "update"}
}

func (a *memAudit) Delete(ctx context.Context, id uint64) error {
	return &domain.ImmutabilityViolationError{Entity: "audit log entry", ID: id, Op: "delete"}
}

// Payments

type memPayments struct {
	r runner
}

func (p *memPayments) Create(ctx context.Context, payment *models.Payment) error {
	return p.r.write(func(st *memState) error {
		for _, existing := range st.payments {
			if existing.ApplicationID == payment.ApplicationID || existing.Reference == payment.Reference {
				return ErrDuplicate
			}
		}
		payment.EnsureID()
		now := p.r.clock()
		payment.CreatedAt = now
		payment.UpdatedAt = now
		st.payments[payment.ID] = *payment
		return nil
	})
}

func (p *memPayments) find(match func(models.Payment) bool) (*models.Payment, error) {
	var out *models.Payment
	err := p.r.read(func(st *memState) error {
		for _, payment := range st.payments {
			if match(payment) {
				found := payment
				out = &found
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

func (p *memPayments) GetByApplication(ctx context.Context, applicationID uuid.UUID) (*models.Payment, error) {
	return p.find(func(payment models.Payment) bool { return payment.ApplicationID == applicationID })
}

func (p *memPayments) GetByApplicationForUpdate(ctx context.Context, applicationID uuid.UUID) (*models.Payment, error) {
	return p.GetByApplication(ctx, applicationID)
}

func (p *memPayments) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	return p.find(func(payment models.Payment) bool { return payment.Reference == reference })
}

func (p *memPayments) Update(ctx context.Context, payment *models.Payment) error {
	return p.r.write(func(st *memState) error {
		existing, ok := st.payments[payment.ID]
		if !ok {
			return domain.ErrNotFound
		}
		existing.Status = payment.Status
		existing.GatewayIntentID = payment.GatewayIntentID
		existing.PaidAt = payment.PaidAt
		existing.UpdatedAt = p.r.clock()
		st.payments[payment.ID] = existing
		*payment = existing
		return nil
	})
}

// Reviews

type memReviews struct {
	r runner
}

func (v *memReviews) Create(ctx context.Context, decision *models.ReviewDecision) error {
	return v.r.write(func(st *memState) error {
		decision.EnsureID()
		now := v.r.clock()
		decision.CreatedAt = now
		decision.UpdatedAt = now
		st.reviews = append(st.reviews, *decision)
		return nil
	})
}

func (v *memReviews) List(ctx context.Context, filter ReviewFilter) ([]models.ReviewDecision, error) {
	var out []models.ReviewDecision
	err := v.r.read(func(st *memState) error {
		// Walk backwards so equal timestamps still come out newest first.
		for i := len(st.reviews) - 1; i >= 0; i-- {
			d := st.reviews[i]
			if filter.ReviewerID != nil && d.ReviewerID != *filter.ReviewerID {
				continue
			}
			if filter.ApplicationID != nil && d.ApplicationID != *filter.ApplicationID {
				continue
			}
			out = append(out, d)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, err
}

// Documents

type memDocuments struct {
	r runner
}

func (d *memDocuments) Upsert(ctx context.Context, doc *models.Document) error {
	return d.r.write(func(st *memState) error {
		now := d.r.clock()
		for id, existing := range st.documents {
			if existing.ApplicationID == doc.ApplicationID && existing.DocumentType == doc.DocumentType {
				doc.ID = id
				doc.CreatedAt = existing.CreatedAt
				doc.UpdatedAt = now
				st.documents[id] = *doc
				return nil
			}
		}
		doc.EnsureID()
		doc.CreatedAt = now
		doc.UpdatedAt = now
		st.documents[doc.ID] = *doc
		return nil
	})
}

func (d *memDocuments) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var out *models.Document
	err := d.r.read(func(st *memState) error {
		doc, ok := st.documents[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &doc
		return nil
	})
	return out, err
}

func (d *memDocuments) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]models.Document, error) {
	var out []models.Document
	err := d.r.read(func(st *memState) error {
		for _, doc := range st.documents {
			if doc.ApplicationID == applicationID {
				out = append(out, doc)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
		return out[i].DocumentType < out[j].DocumentType
	})
	return out, err
}

func (d *memDocuments) Update(ctx context.Context, doc *models.Document) error {
	return d.r.write(func(st *memState) error {
		existing, ok := st.documents[doc.ID]
		if !ok {
			return domain.ErrNotFound
		}
		existing.Verified = doc.Verified
		existing.UpdatedAt = d.r.clock()
		st.documents[doc.ID] = existing
		*doc = existing
		return nil
	})
}

// Visa types

type memVisaTypes struct {
	r runner
}

func (v *memVisaTypes) Create(ctx context.Context, vt *models.VisaType) error {
	return v.r.write(func(st *memState) error {
		for _, existing := range st.visaTypes {
			if strings.EqualFold(existing.Code, vt.Code) {
				return ErrDuplicate
			}
		}
		vt.EnsureID()
		now := v.r.clock()
		vt.CreatedAt = now
		vt.UpdatedAt = now
		st.visaTypes[vt.ID] = *vt
		return nil
	})
}

func (v *memVisaTypes) Get(ctx context.Context, id uuid.UUID) (*models.VisaType, error) {
	var out *models.VisaType
	err := v.r.read(func(st *memState) error {
		vt, ok := st.visaTypes[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &vt
		return nil
	})
	return out, err
}

func (v *memVisaTypes) GetByCode(ctx context.Context, code string) (*models.VisaType, error) {
	var out *models.VisaType
	err := v.r.read(func(st *memState) error {
		for _, vt := range st.visaTypes {
			if vt.Code == code {
				found := vt
				out = &found
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

func (v *memVisaTypes) List(ctx context.Context, activeOnly bool) ([]models.VisaType, error) {
	var out []models.VisaType
	err := v.r.read(func(st *memState) error {
		for _, vt := range st.visaTypes {
			if !activeOnly || vt.IsActive {
				out = append(out, vt)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}

func (v *memVisaTypes) Update(ctx context.Context, vt *models.VisaType) error {
	return v.r.write(func(st *memState) error {
		existing, ok := st.visaTypes[vt.ID]
		if !ok {
			return domain.ErrNotFound
		}
		vt.Code = existing.Code
		vt.CreatedAt = existing.CreatedAt
		vt.UpdatedAt = v.r.clock()
		st.visaTypes[vt.ID] = *vt
		return nil
	})
}

// Screenings

type memScreenings struct {
	r runner
}

func (s *memScreenings) Create(ctx context.Context, result *models.ScreeningResult) error {
	return s.r.write(func(st *memState) error {
		result.EnsureID()
		now := s.r.clock()
		result.CreatedAt = now
		result.UpdatedAt = now
		row := *result
		row.FailureCodes = append([]string(nil), result.FailureCodes...)
		row.Explanations = append([]string(nil), result.Explanations...)
		st.screenings = append(st.screenings, row)
		return nil
	})
}

func (s *memScreenings) Latest(ctx context.Context, applicationID uuid.UUID) (*models.ScreeningResult, error) {
	var out *models.ScreeningResult
	err := s.r.read(func(st *memState) error {
		for i := len(st.screenings) - 1; i >= 0; i-- {
			if st.screenings[i].ApplicationID == applicationID {
				found := st.screenings[i]
				out = &found
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}
