package api

import "time"

// Store is the persistence surface shared by the in-memory and SQLite
// implementations. Errorless lookups return nil (or false) on miss; the
// service adapters translate those into the service error vocabulary.
type Store interface {
	AddForm(f *Form)
	GetForm(id string) *Form
	UpdateForm(f *Form) bool
	DeleteForm(id string) bool
	ListFormsByTenant(tid string) []*Form

	AddRecord(r *Record)
	GetRecord(id string) *Record
	UpdateRecord(r *Record) bool
	ListRecordsByTenant(tid string) []*Record

	GetDraft(recordID, userID string) *Draft
	UpsertDraft(d *Draft)
	DeleteDraft(recordID, userID string) bool
	DeleteExpiredAutosaves(cutoff time.Time) int

	MaxVersionNumber(recordID string) int
	InsertVersion(v *Version) bool
	GetVersion(recordID string, number int) *Version
	ListVersions(recordID string) []*Version
	PruneVersions(recordID string, keep int) int

	AddTenant(t *Tenant)
	AddUser(u *User)
	FindUserByEmail(email string) *User

	AddAudit(e AuditEntry)
	ListAudit() []AuditEntry
}

var _ Store = (*memoryStore)(nil)
