package services

import (
	"testing"
	"time"

	"github.com/formflowhq/formflow/internal/forms"
)

type recordStubStore struct {
	forms   map[string]*Form
	records map[string]*Record
}

func newRecordStubStore() *recordStubStore {
	return &recordStubStore{forms: map[string]*Form{}, records: map[string]*Record{}}
}

func (s *recordStubStore) InsertRecord(r *Record) error {
	s.records[r.ID] = r
	return nil
}

func (s *recordStubStore) GetRecord(id string) (*Record, error) { return s.records[id], nil }

func (s *recordStubStore) GetForm(id string) (*Form, error) { return s.forms[id], nil }

func (s *recordStubStore) ListRecordsByTenant(tenantID string) ([]*Record, error) {
	out := []*Record{}
	for _, r := range s.records {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestRecordService(store *recordStubStore) *RecordService {
	svc := NewRecordService(store)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	svc.idGen = func() string { return "rec00000001" }
	return svc
}

func seedIntakeForm(store *recordStubStore) {
	store.forms["f1"] = &Form{
		ID:       "f1",
		TenantID: "t1",
		Name:     "Intake",
		Schema: &forms.FormSchema{
			Steps: []forms.FormStep{{
				ID: "s1",
				Fields: []forms.FormField{
					{Name: "name", Type: forms.FieldText, Required: true},
					{Name: "agree", Type: forms.FieldCheckbox},
					{Name: "budget", Type: forms.FieldNumber},
				},
			}},
		},
	}
}

func TestRecordCreateSeedsInitialData(t *testing.T) {
	store := newRecordStubStore()
	seedIntakeForm(store)
	svc := newTestRecordService(store)

	rec, err := svc.Create("t1", "f1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Status != StatusDraft {
		t.Fatalf("status = %q, want %q", rec.Status, StatusDraft)
	}
	if got := rec.Data["name"]; got != "" {
		t.Fatalf("name initial = %v, want empty string", got)
	}
	if got := rec.Data["agree"]; got != false {
		t.Fatalf("agree initial = %v, want false", got)
	}
	// Value-less types stay unset until answered.
	if _, ok := rec.Data["budget"]; ok {
		t.Fatalf("budget should have no initial value")
	}
}

func TestRecordCreateKeepsSuppliedData(t *testing.T) {
	store := newRecordStubStore()
	seedIntakeForm(store)
	svc := newTestRecordService(store)

	rec, err := svc.Create("t1", "f1", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Data["name"] != "Ada" {
		t.Fatalf("supplied data was replaced: %v", rec.Data)
	}
}

func TestRecordTenantScope(t *testing.T) {
	store := newRecordStubStore()
	seedIntakeForm(store)
	svc := newTestRecordService(store)

	if _, err := svc.Create("t2", "f1", nil); err == nil {
		t.Fatalf("expected forbidden creating against another tenant's form")
	}

	rec, err := svc.Create("t1", "f1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = svc.Get("t2", rec.ID)
	if err == nil {
		t.Fatalf("expected forbidden reading another tenant's record")
	}
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorForbidden {
		t.Fatalf("error = %v, want forbidden", err)
	}

	if _, err := svc.Get("t1", "missing"); err == nil {
		t.Fatalf("expected not found")
	}
}
