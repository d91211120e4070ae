package services

import (
	"time"

	"github.com/formflowhq/formflow/internal/forms"
)

// RecordStore abstracts persistence for creating and reading record
// documents. Mutation goes through VersionService.Commit.
type RecordStore interface {
	InsertRecord(r *Record) error
	GetRecord(id string) (*Record, error)
	GetForm(id string) (*Form, error)
	ListRecordsByTenant(tenantID string) ([]*Record, error)
}

const StatusDraft = "draft"

type RecordService struct {
	store RecordStore
	now   func() time.Time
	idGen func() string
}

func NewRecordService(store RecordStore) *RecordService {
	return &RecordService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
	}
}

// Create opens a new record against a form definition. When no data is
// supplied the document starts from the schema's initial values.
func (s *RecordService) Create(tenantID, formID string, data map[string]any) (*Record, error) {
	if tenantID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	f, err := s.store.GetForm(formID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, NewNotFoundError("form not found")
	}
	if f.TenantID != tenantID {
		return nil, NewForbiddenError("forbidden")
	}
	if data == nil {
		data = forms.InitialData(f.Schema)
	}
	now := s.now()
	rec := &Record{
		ID:        s.idGen(),
		TenantID:  tenantID,
		FormID:    formID,
		Data:      data,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *RecordService) Get(tenantID, id string) (*Record, error) {
	rec, err := s.store.GetRecord(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, NewNotFoundError("record not found")
	}
	if tenantID != "" && rec.TenantID != tenantID {
		return nil, NewForbiddenError("forbidden")
	}
	return rec, nil
}

func (s *RecordService) List(tenantID string) ([]*Record, error) {
	if tenantID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	return s.store.ListRecordsByTenant(tenantID)
}
