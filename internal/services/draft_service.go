package services

import (
	"strconv"
	"time"
)

// DraftStore abstracts persistence for in-progress drafts. Uniqueness per
// (record, user) is the store's job, enforced by a constraint rather than
// application locking.
type DraftStore interface {
	GetDraft(recordID, userID string) (*Draft, error)
	UpsertDraft(d *Draft) error
	DeleteDraft(recordID, userID string) (bool, error)
	DeleteExpiredAutosaves(cutoff time.Time) (int, error)
	AddAudit(entry AuditEntry)
}

// DefaultDraftRetention is how long auto-saved drafts survive without a
// write before the cleanup pass may purge them. Manually saved drafts are
// never purged.
const DefaultDraftRetention = 30 * 24 * time.Hour

type DraftService struct {
	store     DraftStore
	now       func() time.Time
	retention time.Duration
}

// NewDraftService builds the service. A zero retention selects
// DefaultDraftRetention.
func NewDraftService(store DraftStore, retention time.Duration) *DraftService {
	if retention <= 0 {
		retention = DefaultDraftRetention
	}
	return &DraftService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		retention: retention,
	}
}

// Save upserts the caller's draft: the first save creates the row, every
// later save overwrites it in place. Last write wins; drafts keep no
// history.
func (s *DraftService) Save(recordID, userID string, document map[string]any, autoSaved bool) (*Draft, error) {
	if recordID == "" || userID == "" {
		return nil, NewInvalidError("record_id and user_id required")
	}
	if document == nil {
		return nil, NewInvalidError("document required")
	}
	d := &Draft{
		RecordID:  recordID,
		UserID:    userID,
		Document:  document,
		AutoSaved: autoSaved,
		UpdatedAt: s.now(),
	}
	if err := s.store.UpsertDraft(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get returns the caller's draft, or nil when none exists.
func (s *DraftService) Get(recordID, userID string) (*Draft, error) {
	if recordID == "" || userID == "" {
		return nil, NewInvalidError("record_id and user_id required")
	}
	return s.store.GetDraft(recordID, userID)
}

// Discard drops the caller's draft, e.g. after the record is finalized.
func (s *DraftService) Discard(recordID, userID, actor string) error {
	if recordID == "" || userID == "" {
		return NewInvalidError("record_id and user_id required")
	}
	deleted, err := s.store.DeleteDraft(recordID, userID)
	if err != nil {
		return err
	}
	if deleted {
		s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "discard_draft", Target: recordID})
	}
	return nil
}

// PurgeExpired deletes auto-saved drafts whose last write predates the
// retention window. Scheduling is the caller's concern; this is the single
// pass a cron-style job invokes.
func (s *DraftService) PurgeExpired(actor string) (int, error) {
	cutoff := s.now().Add(-s.retention)
	removed, err := s.store.DeleteExpiredAutosaves(cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "purge_drafts", Note: strconv.Itoa(removed)})
	}
	return removed, nil
}
