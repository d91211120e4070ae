package services

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/formflowhq/formflow/internal/forms"
)

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }

func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// FormStore abstracts persistence for form definitions.
type FormStore interface {
	InsertForm(f *Form) error
	GetForm(id string) (*Form, error)
	UpdateForm(f *Form) error
	DeleteForm(id string) (bool, error)
	ListFormsByTenant(tenantID string) ([]*Form, error)
	AddAudit(entry AuditEntry)
}

// FormService owns the form-definition lifecycle and the structural/cosmetic
// separation: a structural change bumps SchemaVersion (and marks
// template-derived forms customized), a cosmetic-only change touches
// neither.
type FormService struct {
	store FormStore
	now   func() time.Time
	idGen func() string
}

func NewFormService(store FormStore) *FormService {
	return &FormService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(8) },
	}
}

// Create stores a new form. The supplied schema may be a merged document;
// any embedded UI config is split out into the cosmetic column.
func (s *FormService) Create(tenantID, name, templateSlug string, schema *forms.FormSchema) (*Form, error) {
	if tenantID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	if strings.TrimSpace(name) == "" {
		return nil, NewInvalidError("name required")
	}
	if err := schema.Validate(); err != nil {
		return nil, NewInvalidError(err.Error())
	}
	structural, ui := forms.ExtractUIConfig(schema)
	now := s.now()
	f := &Form{
		ID:            s.idGen(),
		TenantID:      tenantID,
		Name:          name,
		TemplateSlug:  templateSlug,
		Schema:        structural,
		UIConfig:      ui,
		SchemaVersion: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.InsertForm(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FormService) Get(tenantID, id string) (*Form, error) {
	f, err := s.store.GetForm(id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, NewNotFoundError("form not found")
	}
	if tenantID != "" && f.TenantID != tenantID {
		return nil, NewForbiddenError("forbidden")
	}
	return f, nil
}

// GetMerged returns the render-ready schema: the structural document with
// the cosmetic document (or its fallbacks) merged in.
func (s *FormService) GetMerged(id string) (*forms.FormSchema, error) {
	f, err := s.store.GetForm(id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, NewNotFoundError("form not found")
	}
	return forms.BuildFormSchema(f.Schema, f.UIConfig), nil
}

func (s *FormService) List(tenantID string) ([]*Form, error) {
	if tenantID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	return s.store.ListFormsByTenant(tenantID)
}

// Update applies an edited merged schema. The cosmetic part is always
// written; the structural part is compared by value against the stored
// document, and only a real structural difference bumps SchemaVersion and
// the customized flag.
func (s *FormService) Update(tenantID, id string, merged *forms.FormSchema, actor string) (*Form, error) {
	f, err := s.Get(tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, NewInvalidError(err.Error())
	}
	structural, ui := forms.ExtractUIConfig(merged)

	structuralChanged := !jsonEqual(structural, f.Schema)
	f.Schema = structural
	if ui != nil {
		f.UIConfig = ui
	}
	f.UpdatedAt = s.now()
	if structuralChanged {
		f.SchemaVersion++
		if f.TemplateSlug != "" {
			f.Customized = true
		}
	}
	if err := s.store.UpdateForm(f); err != nil {
		return nil, err
	}
	if structuralChanged {
		s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "form_schema_change", Target: id})
	}
	return f, nil
}

func (s *FormService) Delete(tenantID, id, actor string) error {
	if _, err := s.Get(tenantID, id); err != nil {
		return err
	}
	ok, err := s.store.DeleteForm(id)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFoundError("form not found")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "delete_form", Target: id})
	return nil
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// jsonEqual compares two values by their canonical JSON encoding. Maps
// marshal with sorted keys, so this is a value-equality check for the
// JSON-shaped documents this package moves around.
func jsonEqual(a, b any) bool {
	ab, aerr := json.Marshal(a)
	bb, berr := json.Marshal(b)
	if aerr != nil || berr != nil {
		return false
	}
	return string(ab) == string(bb)
}
