package api

import "github.com/formflowhq/formflow/internal/services"

type versionStoreAdapter struct {
	store Store
}

func newVersionStoreAdapter(store Store) services.VersionStore {
	return &versionStoreAdapter{store: store}
}

func versionToService(v *Version) *services.Version {
	if v == nil {
		return nil
	}
	return &services.Version{
		RecordID:      v.RecordID,
		VersionNumber: v.VersionNumber,
		Snapshot: services.RecordSnapshot{
			Data:          v.Snapshot.Data,
			Status:        v.Snapshot.Status,
			CompletionPct: v.Snapshot.CompletionPct,
		},
		ChangedFields: v.ChangedFields,
		CreatedAt:     v.CreatedAt,
	}
}

func versionFromService(v *services.Version) *Version {
	if v == nil {
		return nil
	}
	return &Version{
		RecordID:      v.RecordID,
		VersionNumber: v.VersionNumber,
		Snapshot: RecordSnapshot{
			Data:          v.Snapshot.Data,
			Status:        v.Snapshot.Status,
			CompletionPct: v.Snapshot.CompletionPct,
		},
		ChangedFields: v.ChangedFields,
		CreatedAt:     v.CreatedAt,
	}
}

func (a *versionStoreAdapter) GetRecord(id string) (*services.Record, error) {
	return recordToService(a.store.GetRecord(id)), nil
}

func (a *versionStoreAdapter) UpdateRecord(r *services.Record) error {
	if !a.store.UpdateRecord(recordFromService(r)) {
		return services.NewNotFoundError("record not found")
	}
	return nil
}

func (a *versionStoreAdapter) MaxVersionNumber(recordID string) (int, error) {
	return a.store.MaxVersionNumber(recordID), nil
}

func (a *versionStoreAdapter) InsertVersion(v *services.Version) error {
	// A refused insert means the snapshot was not persisted; the commit
	// must not proceed to overwrite the live row.
	if !a.store.InsertVersion(versionFromService(v)) {
		return services.NewConflictError("version insert conflict")
	}
	return nil
}

func (a *versionStoreAdapter) GetVersion(recordID string, number int) (*services.Version, error) {
	return versionToService(a.store.GetVersion(recordID, number)), nil
}

func (a *versionStoreAdapter) ListVersions(recordID string) ([]*services.Version, error) {
	vs := a.store.ListVersions(recordID)
	out := make([]*services.Version, 0, len(vs))
	for _, v := range vs {
		out = append(out, versionToService(v))
	}
	return out, nil
}

func (a *versionStoreAdapter) PruneVersions(recordID string, keep int) (int, error) {
	return a.store.PruneVersions(recordID, keep), nil
}

func (a *versionStoreAdapter) AddAudit(entry services.AuditEntry) {
	a.store.AddAudit(auditFromService(entry))
}
