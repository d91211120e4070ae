package services

import (
	"time"

	"github.com/formflowhq/formflow/internal/forms"
)

// Form is one form definition owned by an agency. Schema and UIConfig are
// the two independently stored documents; SchemaVersion counts structural
// changes only. A template-derived form flips Customized on its first
// structural edit, which blocks template push-updates.
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

// Record is a subject document: the live data a form instance belongs to,
// e.g. one consultation. Data, Status and CompletionPct are the tracked
// fields whose committed changes produce version snapshots.
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

// Draft is the mutable, no-history working copy of a record's document,
// scoped to one editor. Exactly one live draft exists per (record, user).
type Draft struct {
	RecordID  string         `json:"record_id"`
	UserID    string         `json:"user_id"`
	Document  map[string]any `json:"document"`
	AutoSaved bool           `json:"auto_saved"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// RecordSnapshot captures the tracked fields of a record at one point in
// time.
type RecordSnapshot struct {
	Data          map[string]any `json:"data"`
	Status        string         `json:"status"`
	CompletionPct int            `json:"completion_pct"`
}

// Version is an immutable historical snapshot, created on every committed
// change to a tracked field. The snapshot holds the record as it looked
// BEFORE the change, so the chain supports point-in-time rollback.
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
	Time   time.Time
	Actor  string
	Action string
	Target string
	Note   string
}
