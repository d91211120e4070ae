package api

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/formflowhq/formflow/internal/forms"
)

type Form struct {
	ID            string            `json:"id"`
	TenantID      string            `json:"tenant_id,omitempty"`
	Name          string            `json:"name"`
	TemplateSlug  string            `json:"template_slug,omitempty"`
	Schema        *forms.FormSchema `json:"schema"`
	UIConfig      *forms.UIConfig   `json:"ui_config,omitempty"`
	SchemaVersion int               `json:"schema_version"`
	Customized    bool              `json:"customized,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type Record struct {
	ID            string         `json:"id"`
	TenantID      string         `json:"tenant_id,omitempty"`
	FormID        string         `json:"form_id"`
	Data          map[string]any `json:"data"`
	Status        string         `json:"status"`
	CompletionPct int            `json:"completion_pct"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Draft struct {
	RecordID  string         `json:"record_id"`
	UserID    string         `json:"user_id"`
	Document  map[string]any `json:"document"`
	AutoSaved bool           `json:"auto_saved"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type RecordSnapshot struct {
	Data          map[string]any `json:"data"`
	Status        string         `json:"status"`
	CompletionPct int            `json:"completion_pct"`
}

type Version struct {
	RecordID      string         `json:"record_id"`
	VersionNumber int            `json:"version_number"`
	Snapshot      RecordSnapshot `json:"snapshot"`
	ChangedFields []string       `json:"changed_fields"`
	CreatedAt     time.Time      `json:"created_at"`
}

type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	TenantID  string    `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditEntry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target"`
	Note   string    `json:"note,omitempty"`
}

type memoryStore struct {
	mu           sync.RWMutex
	forms        map[string]*Form
	records      map[string]*Record
	drafts       map[string]*Draft   // keyed record|user
	versions     map[string][]*Version
	tenants      map[string]*Tenant
	usersByEmail map[string]*User
	audit        []AuditEntry
}

// NewMemoryStore builds the in-memory Store used for development and tests.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		forms:        map[string]*Form{},
		records:      map[string]*Record{},
		drafts:       map[string]*Draft{},
		versions:     map[string][]*Version{},
		tenants:      map[string]*Tenant{},
		usersByEmail: map[string]*User{},
	}
}

func draftKey(recordID, userID string) string { return recordID + "|" + userID }

// --- forms ---

func (s *memoryStore) AddForm(f *Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[f.ID] = f
}

func (s *memoryStore) GetForm(id string) *Form {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forms[id]
}

func (s *memoryStore) UpdateForm(f *Form) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[f.ID]; !ok {
		return false
	}
	s.forms[f.ID] = f
	return true
}

func (s *memoryStore) DeleteForm(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[id]; !ok {
		return false
	}
	delete(s.forms, id)
	return true
}

func (s *memoryStore) ListFormsByTenant(tid string) []*Form {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Form{}
	for _, f := range s.forms {
		if f.TenantID == tid {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- records ---

func (s *memoryStore) AddRecord(r *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r
}

func (s *memoryStore) GetRecord(id string) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id]
}

func (s *memoryStore) UpdateRecord(r *Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; !ok {
		return false
	}
	s.records[r.ID] = r
	return true
}

func (s *memoryStore) ListRecordsByTenant(tid string) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Record{}
	for _, r := range s.records {
		if r.TenantID == tid {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- drafts ---

func (s *memoryStore) GetDraft(recordID, userID string) *Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drafts[draftKey(recordID, userID)]
}

func (s *memoryStore) UpsertDraft(d *Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draftKey(d.RecordID, d.UserID)] = d
}

func (s *memoryStore) DeleteDraft(recordID, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := draftKey(recordID, userID)
	if _, ok := s.drafts[key]; !ok {
		return false
	}
	delete(s.drafts, key)
	return true
}

func (s *memoryStore) DeleteExpiredAutosaves(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, d := range s.drafts {
		if d.AutoSaved && d.UpdatedAt.Before(cutoff) {
			delete(s.drafts, key)
			removed++
		}
	}
	return removed
}

// --- versions ---

func (s *memoryStore) MaxVersionNumber(recordID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, v := range s.versions[recordID] {
		if v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max
}

func (s *memoryStore) InsertVersion(v *Version) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.versions[v.RecordID] {
		if existing.VersionNumber == v.VersionNumber {
			return false
		}
	}
	s.versions[v.RecordID] = append(s.versions[v.RecordID], v)
	return true
}

func (s *memoryStore) GetVersion(recordID string, number int) *Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.versions[recordID] {
		if v.VersionNumber == number {
			return v
		}
	}
	return nil
}

func (s *memoryStore) ListVersions(recordID string) []*Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]*Version(nil), s.versions[recordID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out
}

func (s *memoryStore) PruneVersions(recordID string, keep int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs := s.versions[recordID]
	sort.Slice(vs, func(i, j int) bool { return vs[i].VersionNumber < vs[j].VersionNumber })
	removed := 0
	for len(vs) > keep {
		vs = vs[1:]
		removed++
	}
	s.versions[recordID] = vs
	return removed
}

// --- tenants & users ---

func (s *memoryStore) AddTenant(t *Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = t
}

func (s *memoryStore) AddUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByEmail[strings.ToLower(u.Email)] = u
}

func (s *memoryStore) FindUserByEmail(email string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usersByEmail[strings.ToLower(email)]
}

// --- audit ---

func (s *memoryStore) AddAudit(e AuditEntry) {
	s.mu.Lock()
	s.audit = append(s.audit, e)
	s.mu.Unlock()
}

func (s *memoryStore) ListAudit() []AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}
