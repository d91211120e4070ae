package api

import (
	"time"

	"github.com/formflowhq/formflow/internal/services"
)

type draftStoreAdapter struct {
	store Store
}

func newDraftStoreAdapter(store Store) services.DraftStore {
	return &draftStoreAdapter{store: store}
}

func draftToService(d *Draft) *services.Draft {
	if d == nil {
		return nil
	}
	return &services.Draft{
		RecordID:  d.RecordID,
		UserID:    d.UserID,
		Document:  d.Document,
		AutoSaved: d.AutoSaved,
		UpdatedAt: d.UpdatedAt,
	}
}

func (a *draftStoreAdapter) GetDraft(recordID, userID string) (*services.Draft, error) {
	return draftToService(a.store.GetDraft(recordID, userID)), nil
}

func (a *draftStoreAdapter) UpsertDraft(d *services.Draft) error {
	a.store.UpsertDraft(&Draft{
		RecordID:  d.RecordID,
		UserID:    d.UserID,
		Document:  d.Document,
		AutoSaved: d.AutoSaved,
		UpdatedAt: d.UpdatedAt,
	})
	return nil
}

func (a *draftStoreAdapter) DeleteDraft(recordID, userID string) (bool, error) {
	return a.store.DeleteDraft(recordID, userID), nil
}

func (a *draftStoreAdapter) DeleteExpiredAutosaves(cutoff time.Time) (int, error) {
	return a.store.DeleteExpiredAutosaves(cutoff), nil
}

func (a *draftStoreAdapter) AddAudit(entry services.AuditEntry) {
	a.store.AddAudit(auditFromService(entry))
}
