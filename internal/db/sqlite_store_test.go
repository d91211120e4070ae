package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formflowhq/formflow/internal/api"
	"github.com/formflowhq/formflow/internal/forms"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, RunMigrations(conn, ""))
	store, err := NewSQLiteStore(conn)
	require.NoError(t, err)
	return store
}

func seedTenant(t *testing.T, store *SQLiteStore) string {
	t.Helper()
	store.AddTenant(&api.Tenant{ID: "t1", Name: "Acme Agency"})
	return "t1"
}

func intakeSchema() *forms.FormSchema {
	return &forms.FormSchema{
		Steps: []forms.FormStep{
			{
				ID:    "s1",
				Title: "Contact",
				Fields: []forms.FormField{
					{Name: "name", Type: forms.FieldText, Label: "Name", Required: true},
					{Name: "email", Type: forms.FieldEmail, Label: "Email"},
				},
			},
		},
	}
}

func TestFormRoundTrip(t *testing.T) {
	store := newTestStore(t)
	tid := seedTenant(t, store)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	store.AddForm(&api.Form{
		ID:            "f1",
		TenantID:      tid,
		Name:          "Client Intake",
		TemplateSlug:  "intake",
		Schema:        intakeSchema(),
		UIConfig:      &forms.UIConfig{Layout: forms.LayoutWizard, SubmitButtonText: "Send"},
		SchemaVersion: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	})

	got := store.GetForm("f1")
	require.NotNil(t, got)
	assert.Equal(t, "Client Intake", got.Name)
	assert.Equal(t, "intake", got.TemplateSlug)
	require.NotNil(t, got.Schema)
	require.Len(t, got.Schema.Steps, 1)
	assert.Equal(t, "name", got.Schema.Steps[0].Fields[0].Name)
	require.NotNil(t, got.UIConfig)
	assert.Equal(t, forms.LayoutWizard, got.UIConfig.Layout)
	assert.Equal(t, "Send", got.UIConfig.SubmitButtonText)

	got.SchemaVersion = 2
	got.Customized = true
	require.True(t, store.UpdateForm(got))
	again := store.GetForm("f1")
	require.NotNil(t, again)
	assert.Equal(t, 2, again.SchemaVersion)
	assert.True(t, again.Customized)

	list := store.ListFormsByTenant(tid)
	require.Len(t, list, 1)
	assert.Empty(t, store.ListFormsByTenant("other"))

	require.True(t, store.DeleteForm("f1"))
	assert.Nil(t, store.GetForm("f1"))
	assert.False(t, store.DeleteForm("f1"))
}

func seedRecord(t *testing.T, store *SQLiteStore, tid string) *api.Record {
	t.Helper()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store.AddForm(&api.Form{ID: "f1", TenantID: tid, Name: "Intake", Schema: intakeSchema(), SchemaVersion: 1, CreatedAt: now, UpdatedAt: now})
	rec := &api.Record{
		ID:        "c1",
		TenantID:  tid,
		FormID:    "f1",
		Data:      map[string]any{"name": "", "email": ""},
		Status:    "draft",
		CreatedAt: now,
		UpdatedAt: now,
	}
	store.AddRecord(rec)
	return rec
}

func TestRecordRoundTrip(t *testing.T) {
	store := newTestStore(t)
	tid := seedTenant(t, store)
	rec := seedRecord(t, store, tid)

	got := store.GetRecord(rec.ID)
	require.NotNil(t, got)
	assert.Equal(t, "draft", got.Status)
	assert.Equal(t, map[string]any{"name": "", "email": ""}, got.Data)

	got.Data["name"] = "Ada"
	got.Status = "active"
	got.CompletionPct = 50
	require.True(t, store.UpdateRecord(got))
	again := store.GetRecord(rec.ID)
	require.NotNil(t, again)
	assert.Equal(t, "Ada", again.Data["name"])
	assert.Equal(t, "active", again.Status)
	assert.Equal(t, 50, again.CompletionPct)

	assert.Len(t, store.ListRecordsByTenant(tid), 1)
	assert.Empty(t, store.ListRecordsByTenant("other"))
}

func TestDraftUpsertAndPurge(t *testing.T) {
	store := newTestStore(t)
	tid := seedTenant(t, store)
	rec := seedRecord(t, store, tid)
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	store.UpsertDraft(&api.Draft{RecordID: rec.ID, UserID: "u1", Document: map[string]any{"name": "A"}, AutoSaved: true, UpdatedAt: old})
	store.UpsertDraft(&api.Draft{RecordID: rec.ID, UserID: "u1", Document: map[string]any{"name": "B"}, AutoSaved: true, UpdatedAt: old})

	d := store.GetDraft(rec.ID, "u1")
	require.NotNil(t, d)
	assert.Equal(t, "B", d.Document["name"], "second write should replace the first")

	// A second editor gets an independent row.
	store.UpsertDraft(&api.Draft{RecordID: rec.ID, UserID: "u2", Document: map[string]any{"name": "C"}, AutoSaved: false, UpdatedAt: old})
	require.NotNil(t, store.GetDraft(rec.ID, "u2"))

	// Purge drops only expired autosaves; the manual draft stays.
	n := store.DeleteExpiredAutosaves(recent)
	assert.Equal(t, 1, n)
	assert.Nil(t, store.GetDraft(rec.ID, "u1"))
	assert.NotNil(t, store.GetDraft(rec.ID, "u2"))

	require.True(t, store.DeleteDraft(rec.ID, "u2"))
	assert.False(t, store.DeleteDraft(rec.ID, "u2"))
}

func TestVersionChain(t *testing.T) {
	store := newTestStore(t)
	tid := seedTenant(t, store)
	rec := seedRecord(t, store, tid)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, store.MaxVersionNumber(rec.ID))
	for i := 1; i <= 5; i++ {
		ok := store.InsertVersion(&api.Version{
			RecordID:      rec.ID,
			VersionNumber: i,
			Snapshot:      api.RecordSnapshot{Data: map[string]any{"name": "v"}, Status: "draft"},
			ChangedFields: []string{"data"},
			CreatedAt:     now.Add(time.Duration(i) * time.Minute),
		})
		require.True(t, ok)
	}
	assert.Equal(t, 5, store.MaxVersionNumber(rec.ID))

	v := store.GetVersion(rec.ID, 3)
	require.NotNil(t, v)
	assert.Equal(t, []string{"data"}, v.ChangedFields)
	assert.Nil(t, store.GetVersion(rec.ID, 99))

	removed := store.PruneVersions(rec.ID, 3)
	assert.Equal(t, 2, removed)
	vs := store.ListVersions(rec.ID)
	require.Len(t, vs, 3)
	assert.Equal(t, 5, vs[0].VersionNumber, "list is newest first")
	assert.Equal(t, 3, vs[2].VersionNumber, "prune removes the oldest")
}

func TestUserLookupIsCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	seedTenant(t, store)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.AddUser(&api.User{ID: "u1", Email: "Owner@Example.com", PassHash: []byte("hash"), TenantID: "t1", CreatedAt: now})

	u := store.FindUserByEmail("owner@example.com")
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)
	assert.Nil(t, store.FindUserByEmail("nobody@example.com"))
}

func TestAuditLogOrder(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.AddAudit(api.AuditEntry{Time: now, Actor: "u1", Action: "commit_record", Target: "c1"})
	store.AddAudit(api.AuditEntry{Time: now.Add(time.Minute), Actor: "u1", Action: "rollback_record", Target: "c1"})

	entries := store.ListAudit()
	require.Len(t, entries, 2)
	assert.Equal(t, "commit_record", entries[0].Action)
	assert.Equal(t, "rollback_record", entries[1].Action)
}
