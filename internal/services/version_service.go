package services

import (
	"fmt"
	"strconv"
	"time"
)

// VersionStore abstracts persistence for record documents and their version
// chains. InsertVersion must fail on a duplicate (record, version number)
// pair; that uniqueness constraint is the only cross-session concurrency
// guarantee.
type VersionStore interface {
	GetRecord(id string) (*Record, error)
	UpdateRecord(r *Record) error
	MaxVersionNumber(recordID string) (int, error)
	InsertVersion(v *Version) error
	GetVersion(recordID string, number int) (*Version, error)
	ListVersions(recordID string) ([]*Version, error)
	PruneVersions(recordID string, keep int) (int, error)
	AddAudit(entry AuditEntry)
}

// DefaultVersionRetention is how many versions are kept per record. The
// count is policy, not an invariant; hosts may tune it.
const DefaultVersionRetention = 10

// VersionService implements the commit/version protocol: every committed
// change to a tracked field (data, status, completion percentage) first
// writes a snapshot of the old values, then overwrites the live row.
type VersionService struct {
	store     VersionStore
	now       func() time.Time
	retention int
}

// NewVersionService builds the service. A retention of zero or less selects
// DefaultVersionRetention.
func NewVersionService(store VersionStore, retention int) *VersionService {
	if retention <= 0 {
		retention = DefaultVersionRetention
	}
	return &VersionService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		retention: retention,
	}
}

// Commit finalizes a record's document. Tracked fields are compared by
// value; when none changed, no version row is written and the live row is
// left untouched. Otherwise the PRE-update snapshot is inserted first, so a
// version exists for every committed mutation, and only then is the live
// row overwritten and the chain pruned. Returns the created version, or nil
// for a no-op commit.
func (s *VersionService) Commit(recordID string, data map[string]any, status string, completionPct int, actor string) (*Version, error) {
	rec, err := s.store.GetRecord(recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, NewNotFoundError("record not found")
	}

	var changed []string
	if !jsonEqual(rec.Data, data) {
		changed = append(changed, "data")
	}
	if rec.Status != status {
		changed = append(changed, "status")
	}
	if rec.CompletionPct != completionPct {
		changed = append(changed, "completion_pct")
	}
	if len(changed) == 0 {
		return nil, nil
	}

	max, err := s.store.MaxVersionNumber(recordID)
	if err != nil {
		return nil, err
	}
	v := &Version{
		RecordID:      recordID,
		VersionNumber: max + 1,
		Snapshot: RecordSnapshot{
			Data:          rec.Data,
			Status:        rec.Status,
			CompletionPct: rec.CompletionPct,
		},
		ChangedFields: changed,
		CreatedAt:     s.now(),
	}
	if err := s.store.InsertVersion(v); err != nil {
		return nil, err
	}

	rec.Data = data
	rec.Status = status
	rec.CompletionPct = completionPct
	rec.UpdatedAt = s.now()
	if err := s.store.UpdateRecord(rec); err != nil {
		return nil, err
	}

	if _, err := s.store.PruneVersions(recordID, s.retention); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "commit_record", Target: recordID, Note: strconv.Itoa(v.VersionNumber)})
	return v, nil
}

// Rollback overwrites the live record with a stored snapshot, through the
// standard commit path: the rollback itself is recorded as a new version
// whose snapshot is the state just before the rollback.
func (s *VersionService) Rollback(recordID string, versionNumber int, actor string) (*Version, error) {
	v, err := s.store.GetVersion(recordID, versionNumber)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, NewNotFoundError(fmt.Sprintf("version %d not found", versionNumber))
	}
	created, err := s.Commit(recordID, v.Snapshot.Data, v.Snapshot.Status, v.Snapshot.CompletionPct, actor)
	if err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "rollback_record", Target: recordID, Note: strconv.Itoa(versionNumber)})
	return created, nil
}

// ListVersions returns the record's retained history, newest first.
func (s *VersionService) ListVersions(recordID string) ([]*Version, error) {
	return s.store.ListVersions(recordID)
}
