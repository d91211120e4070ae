package services

import (
	"sort"
	"testing"
	"time"
)

type versionStubStore struct {
	records  map[string]*Record
	versions map[string][]*Version
	ops      []string
	audit    []AuditEntry
}

func newVersionStubStore() *versionStubStore {
	return &versionStubStore{records: map[string]*Record{}, versions: map[string][]*Version{}}
}

func (s *versionStubStore) GetRecord(id string) (*Record, error) {
	if r, ok := s.records[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *versionStubStore) UpdateRecord(r *Record) error {
	s.ops = append(s.ops, "update_record")
	cp := *r
	s.records[r.ID] = &cp
	return nil
}

func (s *versionStubStore) MaxVersionNumber(recordID string) (int, error) {
	max := 0
	for _, v := range s.versions[recordID] {
		if v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max, nil
}

func (s *versionStubStore) InsertVersion(v *Version) error {
	s.ops = append(s.ops, "insert_version")
	cp := *v
	s.versions[v.RecordID] = append(s.versions[v.RecordID], &cp)
	return nil
}

func (s *versionStubStore) GetVersion(recordID string, number int) (*Version, error) {
	for _, v := range s.versions[recordID] {
		if v.VersionNumber == number {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *versionStubStore) ListVersions(recordID string) ([]*Version, error) {
	out := append([]*Version(nil), s.versions[recordID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out, nil
}

func (s *versionStubStore) PruneVersions(recordID string, keep int) (int, error) {
	vs := s.versions[recordID]
	sort.Slice(vs, func(i, j int) bool { return vs[i].VersionNumber < vs[j].VersionNumber })
	removed := 0
	for len(vs) > keep {
		vs = vs[1:]
		removed++
	}
	s.versions[recordID] = vs
	return removed, nil
}

func (s *versionStubStore) AddAudit(entry AuditEntry) { s.audit = append(s.audit, entry) }

func seedRecord(store *versionStubStore) *Record {
	rec := &Record{ID: "c1", TenantID: "t1", FormID: "f1", Status: StatusDraft,
		Data: map[string]any{"name": ""}}
	store.records[rec.ID] = rec
	return rec
}

func TestCommitVersionsAreAppendOnlyAndPruned(t *testing.T) {
	store := newVersionStubStore()
	seedRecord(store)
	svc := NewVersionService(store, 3)
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }

	for i := 1; i <= 5; i++ {
		v, err := svc.Commit("c1", map[string]any{"name": "rev"}, StatusDraft, i*10, "u1")
		if err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
		if v == nil || v.VersionNumber != i {
			t.Fatalf("commit %d produced version %+v", i, v)
		}
	}

	vs, _ := svc.ListVersions("c1")
	if len(vs) != 3 {
		t.Fatalf("retained versions = %d, want 3", len(vs))
	}
	// the highest-numbered rows survive, newest first
	for i, want := range []int{5, 4, 3} {
		if vs[i].VersionNumber != want {
			t.Fatalf("retained[%d] = %d, want %d", i, vs[i].VersionNumber, want)
		}
	}
	// numbers keep climbing after pruning, never reused
	v, err := svc.Commit("c1", map[string]any{"name": "rev"}, "submitted", 50, "u1")
	if err != nil {
		t.Fatalf("commit after prune: %v", err)
	}
	if v.VersionNumber != 6 {
		t.Fatalf("version after prune = %d, want 6", v.VersionNumber)
	}
}

func TestCommitStoresPreUpdateSnapshot(t *testing.T) {
	store := newVersionStubStore()
	seedRecord(store)
	svc := NewVersionService(store, 0)

	v, err := svc.Commit("c1", map[string]any{"name": "Acme"}, "submitted", 100, "u1")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if v.Snapshot.Data["name"] != "" || v.Snapshot.Status != StatusDraft || v.Snapshot.CompletionPct != 0 {
		t.Fatalf("snapshot is not the pre-update state: %+v", v.Snapshot)
	}
	if got := v.ChangedFields; len(got) != 3 {
		t.Fatalf("changed fields = %v", got)
	}
	rec, _ := store.GetRecord("c1")
	if rec.Data["name"] != "Acme" || rec.Status != "submitted" || rec.CompletionPct != 100 {
		t.Fatalf("live record not overwritten: %+v", rec)
	}

	// the snapshot must hit storage before the live row is overwritten
	if len(store.ops) < 2 || store.ops[0] != "insert_version" || store.ops[1] != "update_record" {
		t.Fatalf("operation order = %v", store.ops)
	}
}

func TestNoOpCommitProducesNoVersion(t *testing.T) {
	store := newVersionStubStore()
	rec := seedRecord(store)
	rec.Data = map[string]any{"name": "Acme", "tags": []string{"web"}}
	rec.Status = "submitted"
	rec.CompletionPct = 100
	svc := NewVersionService(store, 0)

	// structurally equal document built fresh, different map instance
	v, err := svc.Commit("c1", map[string]any{"tags": []string{"web"}, "name": "Acme"}, "submitted", 100, "u1")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if v != nil {
		t.Fatalf("no-op commit created version %+v", v)
	}
	if len(store.versions["c1"]) != 0 {
		t.Fatalf("version rows written on no-op commit")
	}
	if len(store.ops) != 0 {
		t.Fatalf("live row touched on no-op commit: %v", store.ops)
	}
}

func TestRollbackIsItselfVersioned(t *testing.T) {
	store := newVersionStubStore()
	seedRecord(store)
	svc := NewVersionService(store, 0)

	states := []string{"one", "two", "three", "four", "five"}
	for i, name := range states {
		if _, err := svc.Commit("c1", map[string]any{"name": name}, StatusDraft, (i+1)*10, "u1"); err != nil {
			t.Fatalf("commit %d: %v", i+1, err)
		}
	}

	// version 3 stored the state before commit #3, i.e. data "two"
	created, err := svc.Rollback("c1", 3, "u1")
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	rec, _ := store.GetRecord("c1")
	if rec.Data["name"] != "two" {
		t.Fatalf("live data after rollback = %v, want version 3 snapshot", rec.Data)
	}
	if created == nil || created.VersionNumber != 6 {
		t.Fatalf("rollback version = %+v, want number 6", created)
	}
	if created.Snapshot.Data["name"] != "five" {
		t.Fatalf("rollback snapshot = %v, want the pre-rollback state", created.Snapshot.Data)
	}

	if _, err := svc.Rollback("c1", 99, "u1"); err == nil {
		t.Fatalf("expected not-found for missing version")
	}
}

func TestCommitMissingRecord(t *testing.T) {
	svc := NewVersionService(newVersionStubStore(), 0)
	_, err := svc.Commit("missing", map[string]any{}, StatusDraft, 0, "u1")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not-found service error, got %v", err)
	}
}
