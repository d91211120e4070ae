// Package db provides the SQLite-backed implementation of api.Store.
//
// The Store contract is errorless: lookups return nil on miss. Database
// failures are therefore logged here rather than surfaced, matching the
// in-memory store's behavior from the caller's point of view.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/formflowhq/formflow/internal/api"
	"github.com/formflowhq/formflow/internal/forms"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

var _ api.Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func encodeJSON(v any) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func decodeValueMap(ns sql.NullString) map[string]any {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil
	}
	return out
}

func decodeStringSlice(ns sql.NullString) []string {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil
	}
	return out
}

func decodeSchema(ns sql.NullString) *forms.FormSchema {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out forms.FormSchema
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil
	}
	return &out
}

func decodeUIConfig(ns sql.NullString) *forms.UIConfig {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out forms.UIConfig
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil
	}
	return &out
}

// --- forms ---

func (s *SQLiteStore) AddForm(f *api.Form) {
	_, err := s.db.Exec(`INSERT INTO forms (id, tenant_id, name, template_slug, schema, ui_config, schema_version, customized, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.TenantID, f.Name, toNullString(f.TemplateSlug), encodeJSON(f.Schema), encodeJSON(uiOrNil(f.UIConfig)),
		f.SchemaVersion, boolToInt64(f.Customized), f.CreatedAt, f.UpdatedAt)
	s.logErr("add form", err)
}

func uiOrNil(c *forms.UIConfig) any {
	if c == nil {
		return nil
	}
	return c
}

func (s *SQLiteStore) scanForm(row *sql.Row) *api.Form {
	var f api.Form
	var slug, schema, ui sql.NullString
	var customized int64
	err := row.Scan(&f.ID, &f.TenantID, &f.Name, &slug, &schema, &ui, &f.SchemaVersion, &customized, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("scan form", err)
		}
		return nil
	}
	f.TemplateSlug = slug.String
	f.Schema = decodeSchema(schema)
	f.UIConfig = decodeUIConfig(ui)
	f.Customized = customized != 0
	return &f
}

const formCols = `id, tenant_id, name, template_slug, schema, ui_config, schema_version, customized, created_at, updated_at`

func (s *SQLiteStore) GetForm(id string) *api.Form {
	row := s.db.QueryRow(`SELECT `+formCols+` FROM forms WHERE id = ?`, id)
	return s.scanForm(row)
}

func (s *SQLiteStore) UpdateForm(f *api.Form) bool {
	res, err := s.db.Exec(`UPDATE forms SET name = ?, template_slug = ?, schema = ?, ui_config = ?, schema_version = ?, customized = ?, updated_at = ? WHERE id = ?`,
		f.Name, toNullString(f.TemplateSlug), encodeJSON(f.Schema), encodeJSON(uiOrNil(f.UIConfig)),
		f.SchemaVersion, boolToInt64(f.Customized), f.UpdatedAt, f.ID)
	if err != nil {
		s.logErr("update form", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) DeleteForm(id string) bool {
	res, err := s.db.Exec(`DELETE FROM forms WHERE id = ?`, id)
	if err != nil {
		s.logErr("delete form", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) ListFormsByTenant(tid string) []*api.Form {
	rows, err := s.db.Query(`SELECT `+formCols+` FROM forms WHERE tenant_id = ? ORDER BY id`, tid)
	if err != nil {
		s.logErr("list forms", err)
		return nil
	}
	defer rows.Close()
	out := []*api.Form{}
	for rows.Next() {
		var f api.Form
		var slug, schema, ui sql.NullString
		var customized int64
		if err := rows.Scan(&f.ID, &f.TenantID, &f.Name, &slug, &schema, &ui, &f.SchemaVersion, &customized, &f.CreatedAt, &f.UpdatedAt); err != nil {
			s.logErr("scan form row", err)
			continue
		}
		f.TemplateSlug = slug.String
		f.Schema = decodeSchema(schema)
		f.UIConfig = decodeUIConfig(ui)
		f.Customized = customized != 0
		out = append(out, &f)
	}
	s.logErr("list forms rows", rows.Err())
	return out
}

// --- records ---

const recordCols = `id, tenant_id, form_id, data, status, completion_pct, created_at, updated_at`

func (s *SQLiteStore) AddRecord(r *api.Record) {
	_, err := s.db.Exec(`INSERT INTO records (`+recordCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.TenantID, r.FormID, encodeJSON(r.Data), r.Status, r.CompletionPct, r.CreatedAt, r.UpdatedAt)
	s.logErr("add record", err)
}

func (s *SQLiteStore) GetRecord(id string) *api.Record {
	row := s.db.QueryRow(`SELECT `+recordCols+` FROM records WHERE id = ?`, id)
	var r api.Record
	var data sql.NullString
	err := row.Scan(&r.ID, &r.TenantID, &r.FormID, &data, &r.Status, &r.CompletionPct, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("get record", err)
		}
		return nil
	}
	r.Data = decodeValueMap(data)
	return &r
}

func (s *SQLiteStore) UpdateRecord(r *api.Record) bool {
	res, err := s.db.Exec(`UPDATE records SET data = ?, status = ?, completion_pct = ?, updated_at = ? WHERE id = ?`,
		encodeJSON(r.Data), r.Status, r.CompletionPct, r.UpdatedAt, r.ID)
	if err != nil {
		s.logErr("update record", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) ListRecordsByTenant(tid string) []*api.Record {
	rows, err := s.db.Query(`SELECT `+recordCols+` FROM records WHERE tenant_id = ? ORDER BY id`, tid)
	if err != nil {
		s.logErr("list records", err)
		return nil
	}
	defer rows.Close()
	out := []*api.Record{}
	for rows.Next() {
		var r api.Record
		var data sql.NullString
		if err := rows.Scan(&r.ID, &r.TenantID, &r.FormID, &data, &r.Status, &r.CompletionPct, &r.CreatedAt, &r.UpdatedAt); err != nil {
			s.logErr("scan record row", err)
			continue
		}
		r.Data = decodeValueMap(data)
		out = append(out, &r)
	}
	s.logErr("list records rows", rows.Err())
	return out
}

// --- drafts ---

func (s *SQLiteStore) GetDraft(recordID, userID string) *api.Draft {
	row := s.db.QueryRow(`SELECT record_id, user_id, document, auto_saved, updated_at FROM record_drafts WHERE record_id = ? AND user_id = ?`, recordID, userID)
	var d api.Draft
	var doc sql.NullString
	var autoSaved int64
	err := row.Scan(&d.RecordID, &d.UserID, &doc, &autoSaved, &d.UpdatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("get draft", err)
		}
		return nil
	}
	d.Document = decodeValueMap(doc)
	d.AutoSaved = autoSaved != 0
	return &d
}

func (s *SQLiteStore) UpsertDraft(d *api.Draft) {
	_, err := s.db.Exec(`INSERT INTO record_drafts (record_id, user_id, document, auto_saved, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(record_id, user_id) DO UPDATE SET document = excluded.document, auto_saved = excluded.auto_saved, updated_at = excluded.updated_at`,
		d.RecordID, d.UserID, encodeJSON(d.Document), boolToInt64(d.AutoSaved), d.UpdatedAt)
	s.logErr("upsert draft", err)
}

func (s *SQLiteStore) DeleteDraft(recordID, userID string) bool {
	res, err := s.db.Exec(`DELETE FROM record_drafts WHERE record_id = ? AND user_id = ?`, recordID, userID)
	if err != nil {
		s.logErr("delete draft", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) DeleteExpiredAutosaves(cutoff time.Time) int {
	res, err := s.db.Exec(`DELETE FROM record_drafts WHERE auto_saved = 1 AND updated_at < ?`, cutoff)
	if err != nil {
		s.logErr("purge drafts", err)
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}

// --- versions ---

func (s *SQLiteStore) MaxVersionNumber(recordID string) int {
	row := s.db.QueryRow(`SELECT COALESCE(MAX(version_number), 0) FROM record_versions WHERE record_id = ?`, recordID)
	var max int
	if err := row.Scan(&max); err != nil {
		s.logErr("max version", err)
		return 0
	}
	return max
}

func (s *SQLiteStore) InsertVersion(v *api.Version) bool {
	_, err := s.db.Exec(`INSERT INTO record_versions (record_id, version_number, data, status, completion_pct, changed_fields, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.RecordID, v.VersionNumber, encodeJSON(v.Snapshot.Data), v.Snapshot.Status, v.Snapshot.CompletionPct, encodeJSON(v.ChangedFields), v.CreatedAt)
	if err != nil {
		s.logErr("insert version", err)
		return false
	}
	return true
}

func (s *SQLiteStore) GetVersion(recordID string, number int) *api.Version {
	row := s.db.QueryRow(`SELECT record_id, version_number, data, status, completion_pct, changed_fields, created_at FROM record_versions WHERE record_id = ? AND version_number = ?`, recordID, number)
	return s.scanVersion(row)
}

func (s *SQLiteStore) scanVersion(row *sql.Row) *api.Version {
	var v api.Version
	var data, changed sql.NullString
	err := row.Scan(&v.RecordID, &v.VersionNumber, &data, &v.Snapshot.Status, &v.Snapshot.CompletionPct, &changed, &v.CreatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("scan version", err)
		}
		return nil
	}
	v.Snapshot.Data = decodeValueMap(data)
	v.ChangedFields = decodeStringSlice(changed)
	return &v
}

func (s *SQLiteStore) ListVersions(recordID string) []*api.Version {
	rows, err := s.db.Query(`SELECT record_id, version_number, data, status, completion_pct, changed_fields, created_at FROM record_versions WHERE record_id = ? ORDER BY version_number DESC`, recordID)
	if err != nil {
		s.logErr("list versions", err)
		return nil
	}
	defer rows.Close()
	out := []*api.Version{}
	for rows.Next() {
		var v api.Version
		var data, changed sql.NullString
		if err := rows.Scan(&v.RecordID, &v.VersionNumber, &data, &v.Snapshot.Status, &v.Snapshot.CompletionPct, &changed, &v.CreatedAt); err != nil {
			s.logErr("scan version row", err)
			continue
		}
		v.Snapshot.Data = decodeValueMap(data)
		v.ChangedFields = decodeStringSlice(changed)
		out = append(out, &v)
	}
	s.logErr("list versions rows", rows.Err())
	return out
}

func (s *SQLiteStore) PruneVersions(recordID string, keep int) int {
	// Oldest versions go first so the highest numbers survive.
	res, err := s.db.Exec(`DELETE FROM record_versions WHERE record_id = ? AND version_number NOT IN (
		SELECT version_number FROM record_versions WHERE record_id = ? ORDER BY version_number DESC LIMIT ?)`,
		recordID, recordID, keep)
	if err != nil {
		s.logErr("prune versions", err)
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}

// --- tenants & users ---

func (s *SQLiteStore) AddTenant(t *api.Tenant) {
	_, err := s.db.Exec(`INSERT INTO tenants (id, name) VALUES (?, ?)`, t.ID, t.Name)
	s.logErr("add tenant", err)
}

func (s *SQLiteStore) AddUser(u *api.User) {
	_, err := s.db.Exec(`INSERT INTO users (id, email, pass_hash, tenant_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.PassHash, u.TenantID, u.CreatedAt)
	s.logErr("add user", err)
}

func (s *SQLiteStore) FindUserByEmail(email string) *api.User {
	row := s.db.QueryRow(`SELECT id, email, pass_hash, tenant_id, created_at FROM users WHERE email = ?`, strings.ToLower(email))
	var u api.User
	err := row.Scan(&u.ID, &u.Email, &u.PassHash, &u.TenantID, &u.CreatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("find user", err)
		}
		return nil
	}
	return &u
}

// --- audit ---

func (s *SQLiteStore) AddAudit(e api.AuditEntry) {
	_, err := s.db.Exec(`INSERT INTO audit_log (at, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		e.Time, toNullString(e.Actor), e.Action, toNullString(e.Target), toNullString(e.Note))
	s.logErr("add audit", err)
}

func (s *SQLiteStore) ListAudit() []api.AuditEntry {
	rows, err := s.db.Query(`SELECT at, actor, action, target, note FROM audit_log ORDER BY id`)
	if err != nil {
		s.logErr("list audit", err)
		return nil
	}
	defer rows.Close()
	out := []api.AuditEntry{}
	for rows.Next() {
		var e api.AuditEntry
		var actor, target, note sql.NullString
		if err := rows.Scan(&e.Time, &actor, &e.Action, &target, &note); err != nil {
			s.logErr("scan audit row", err)
			continue
		}
		e.Actor = actor.String
		e.Target = target.String
		e.Note = note.String
		out = append(out, e)
	}
	s.logErr("list audit rows", rows.Err())
	return out
}
