package api

import "github.com/formflowhq/formflow/internal/services"

type formStoreAdapter struct {
	store Store
}

func newFormStoreAdapter(store Store) services.FormStore {
	return &formStoreAdapter{store: store}
}

func formToService(f *Form) *services.Form {
	if f == nil {
		return nil
	}
	return &services.Form{
		ID:            f.ID,
		TenantID:      f.TenantID,
		Name:          f.Name,
		TemplateSlug:  f.TemplateSlug,
		Schema:        f.Schema,
		UIConfig:      f.UIConfig,
		SchemaVersion: f.SchemaVersion,
		Customized:    f.Customized,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

func formFromService(f *services.Form) *Form {
	if f == nil {
		return nil
	}
	return &Form{
		ID:            f.ID,
		TenantID:      f.TenantID,
		Name:          f.Name,
		TemplateSlug:  f.TemplateSlug,
		Schema:        f.Schema,
		UIConfig:      f.UIConfig,
		SchemaVersion: f.SchemaVersion,
		Customized:    f.Customized,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

func auditFromService(e services.AuditEntry) AuditEntry {
	return AuditEntry{Time: e.Time, Actor: e.Actor, Action: e.Action, Target: e.Target, Note: e.Note}
}

func (a *formStoreAdapter) InsertForm(f *services.Form) error {
	a.store.AddForm(formFromService(f))
	return nil
}

func (a *formStoreAdapter) GetForm(id string) (*services.Form, error) {
	return formToService(a.store.GetForm(id)), nil
}

func (a *formStoreAdapter) UpdateForm(f *services.Form) error {
	if !a.store.UpdateForm(formFromService(f)) {
		return services.NewNotFoundError("form not found")
	}
	return nil
}

func (a *formStoreAdapter) DeleteForm(id string) (bool, error) {
	return a.store.DeleteForm(id), nil
}

func (a *formStoreAdapter) ListFormsByTenant(tenantID string) ([]*services.Form, error) {
	fs := a.store.ListFormsByTenant(tenantID)
	out := make([]*services.Form, 0, len(fs))
	for _, f := range fs {
		out = append(out, formToService(f))
	}
	return out, nil
}

func (a *formStoreAdapter) AddAudit(entry services.AuditEntry) {
	a.store.AddAudit(auditFromService(entry))
}
