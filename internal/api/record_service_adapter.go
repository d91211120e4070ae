package api

import "github.com/formflowhq/formflow/internal/services"

type recordStoreAdapter struct {
	store Store
}

func newRecordStoreAdapter(store Store) services.RecordStore {
	return &recordStoreAdapter{store: store}
}

func recordToService(r *Record) *services.Record {
	if r == nil {
		return nil
	}
	return &services.Record{
		ID:            r.ID,
		TenantID:      r.TenantID,
		FormID:        r.FormID,
		Data:          r.Data,
		Status:        r.Status,
		CompletionPct: r.CompletionPct,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func recordFromService(r *services.Record) *Record {
	if r == nil {
		return nil
	}
	return &Record{
		ID:            r.ID,
		TenantID:      r.TenantID,
		FormID:        r.FormID,
		Data:          r.Data,
		Status:        r.Status,
		CompletionPct: r.CompletionPct,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (a *recordStoreAdapter) InsertRecord(r *services.Record) error {
	a.store.AddRecord(recordFromService(r))
	return nil
}

func (a *recordStoreAdapter) GetRecord(id string) (*services.Record, error) {
	return recordToService(a.store.GetRecord(id)), nil
}

func (a *recordStoreAdapter) GetForm(id string) (*services.Form, error) {
	return formToService(a.store.GetForm(id)), nil
}

func (a *recordStoreAdapter) ListRecordsByTenant(tenantID string) ([]*services.Record, error) {
	rs := a.store.ListRecordsByTenant(tenantID)
	out := make([]*services.Record, 0, len(rs))
	for _, r := range rs {
		out = append(out, recordToService(r))
	}
	return out, nil
}
