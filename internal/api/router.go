package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/formflowhq/formflow/internal/forms"
	"github.com/formflowhq/formflow/internal/middleware"
	"github.com/formflowhq/formflow/internal/services"
)

// Config carries the tunable retention policies. Zero values select the
// service defaults.
type Config struct {
	DraftRetention   time.Duration
	VersionRetention int
}

type Router struct {
	store    Store
	auth     *services.AuthService
	forms    *services.FormService
	records  *services.RecordService
	drafts   *services.DraftService
	versions *services.VersionService
}

func NewRouter(store Store, cfg Config) *Router {
	return &Router{
		store:    store,
		auth:     services.NewAuthService(newAuthStoreAdapter(store), middleware.SignToken),
		forms:    services.NewFormService(newFormStoreAdapter(store)),
		records:  services.NewRecordService(newRecordStoreAdapter(store)),
		drafts:   services.NewDraftService(newDraftStoreAdapter(store), cfg.DraftRetention),
		versions: services.NewVersionService(newVersionStoreAdapter(store), cfg.VersionRetention),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister) // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)       // POST
	mux.Handle("/api/forms", middleware.RequireAuth(http.HandlerFunc(rt.handleForms)))
	mux.HandleFunc("/api/forms/", rt.handleFormScoped) // /{id}, /{id}/schema
	mux.Handle("/api/records", middleware.RequireAuth(http.HandlerFunc(rt.handleRecords)))
	mux.Handle("/api/records/", middleware.RequireAuth(http.HandlerFunc(rt.handleRecordScoped)))
	mux.Handle("/api/drafts/purge", middleware.RequireAuth(http.HandlerFunc(rt.handlePurgeDrafts)))
	mux.Handle("/api/audit", middleware.RequireAuth(http.HandlerFunc(rt.handleAudit)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]string{"error": se.Message, "code": string(se.Code)})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// POST /api/auth/register — create an agency tenant plus its first user.
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		AgencyName string `json:"agency_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password, req.AgencyName)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": res.Token, "tenant_id": res.TenantID, "user_id": res.UserID})
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": res.Token, "tenant_id": res.TenantID, "user_id": res.UserID})
}

// /api/forms — POST creates from a merged document, GET lists the tenant's
// forms.
func (rt *Router) handleForms(w http.ResponseWriter, r *http.Request) {
	tid, _ := middleware.TenantIDFromContext(r.Context())
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Name         string            `json:"name"`
			TemplateSlug string            `json:"template_slug"`
			Schema       *forms.FormSchema `json:"schema"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, err := rt.forms.Create(tid, req.Name, req.TemplateSlug, req.Schema)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	case http.MethodGet:
		fs, err := rt.forms.List(tid)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, fs)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// /api/forms/{id} — GET/PUT/DELETE (owner only).
// /api/forms/{id}/schema — GET the merged render-ready document; public so
// a record-filling client does not need owner credentials.
func (rt *Router) handleFormScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/forms/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if len(parts) == 2 && parts[1] == "schema" {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		merged, err := rt.forms.GetMerged(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, merged)
		return
	}
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}
	tid, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		f, err := rt.forms.Get(tid, id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	case http.MethodPut:
		var req struct {
			Schema *forms.FormSchema `json:"schema"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, err := rt.forms.Update(tid, id, req.Schema, uid)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	case http.MethodDelete:
		if err := rt.forms.Delete(tid, id, uid); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// /api/records — POST creates a record for a form, GET lists the tenant's
// records.
func (rt *Router) handleRecords(w http.ResponseWriter, r *http.Request) {
	tid, _ := middleware.TenantIDFromContext(r.Context())
	switch r.Method {
	case http.MethodPost:
		var req struct {
			FormID string         `json:"form_id"`
			Data   map[string]any `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec, err := rt.records.Create(tid, req.FormID, req.Data)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodGet:
		rs, err := rt.records.List(tid)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rs)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// /api/records/{id}           — GET
// /api/records/{id}/draft     — GET/PUT/DELETE, scoped to the caller
// /api/records/{id}/commit    — POST
// /api/records/{id}/versions  — GET
// /api/records/{id}/rollback  — POST
func (rt *Router) handleRecordScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/records/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}
	tid, _ := middleware.TenantIDFromContext(r.Context())
	uid, _ := middleware.UserIDFromContext(r.Context())

	// Tenant scope gate for every record-scoped route.
	rec, err := rt.records.Get(tid, id)
	if err != nil {
		writeErr(w, err)
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	switch parts[1] {
	case "draft":
		rt.handleDraft(w, r, id, uid)
	case "commit":
		rt.handleCommit(w, r, rec, uid)
	case "versions":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		vs, err := rt.versions.ListVersions(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, vs)
	case "rollback":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Version int `json:"version"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v, err := rt.versions.Rollback(id, req.Version, uid)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	default:
		http.NotFound(w, r)
	}
}

func (rt *Router) handleDraft(w http.ResponseWriter, r *http.Request, recordID, userID string) {
	switch r.Method {
	case http.MethodGet:
		d, err := rt.drafts.Get(recordID, userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if d == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no draft"})
			return
		}
		writeJSON(w, http.StatusOK, d)
	case http.MethodPut:
		var req struct {
			Document  map[string]any `json:"document"`
			AutoSaved bool           `json:"auto_saved"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d, err := rt.drafts.Save(recordID, userID, req.Document, req.AutoSaved)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	case http.MethodDelete:
		if err := rt.drafts.Discard(recordID, userID, userID); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /api/records/{id}/commit
// Validates the full document against the record's merged form schema, then
// commits it as the live state. A successful commit also discards the
// caller's draft.
func (rt *Router) handleCommit(w http.ResponseWriter, r *http.Request, rec *services.Record, userID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Data          map[string]any `json:"data"`
		Status        string         `json:"status"`
		CompletionPct int            `json:"completion_pct"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		req.Status = rec.Status
	}
	merged, err := rt.forms.GetMerged(rec.FormID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if res := forms.ValidateData(merged, req.Data, nil); !res.OK {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "validation failed", "errors": res.Errors})
		return
	}
	v, err := rt.versions.Commit(rec.ID, req.Data, req.Status, req.CompletionPct, userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	// The commit is already durable at this point; a stale draft is a
	// cleanup problem, not a commit failure.
	if err := rt.drafts.Discard(rec.ID, userID, userID); err != nil {
		log.Printf("api: discard draft after commit: record=%s user=%s: %v", rec.ID, userID, err)
	}
	out := map[string]any{"ok": true}
	if v != nil {
		out["version"] = v.VersionNumber
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/drafts/purge — drop auto-saved drafts older than the retention
// window. Manually saved drafts are untouched.
func (rt *Router) handlePurgeDrafts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	n, err := rt.drafts.PurgeExpired(uid)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"purged": n})
}

// GET /api/audit — the tenant-agnostic audit trail (schema changes, commits,
// rollbacks, purges).
func (rt *Router) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, rt.store.ListAudit())
}
