//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("FORMFLOW_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

// Walks the whole lifecycle against a running server: register, create a
// form, open a record, autosave a draft, commit twice, then roll back.
func TestFormLifecycleIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()

	userEmail := fmt.Sprintf("integration_%d@example.com", time.Now().UnixNano())
	password := "Secret123!"

	var registerResp struct {
		Token    string `json:"token"`
		TenantID string `json:"tenant_id"`
		UserID   string `json:"user_id"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/auth/register", "", map[string]any{
		"email":       userEmail,
		"password":    password,
		"agency_name": fmt.Sprintf("Agency %d", time.Now().UnixNano()),
	}, &registerResp)
	if registerResp.Token == "" || registerResp.TenantID == "" {
		t.Fatalf("unexpected register response: %+v", registerResp)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/auth/login", "", map[string]string{
		"email":    userEmail,
		"password": password,
	}, &loginResp)
	token := loginResp.Token
	if token == "" {
		t.Fatalf("login did not return token")
	}

	var createFormResp struct {
		ID string `json:"id"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/forms", token, map[string]any{
		"name": "Integration Intake",
		"schema": map[string]any{
			"steps": []map[string]any{
				{
					"id":    "contact",
					"title": "Contact",
					"fields": []map[string]any{
						{"name": "name", "type": "text", "label": "Name", "required": true},
						{"name": "email", "type": "email", "label": "Email"},
					},
				},
			},
			"ui_config": map[string]any{"layout": "wizard", "submit_button_text": "Send"},
		},
	}, &createFormResp)
	if createFormResp.ID == "" {
		t.Fatalf("expected form id in response")
	}

	// The public merged schema carries the embedded cosmetic document.
	var mergedResp struct {
		UIConfig struct {
			SubmitButtonText string `json:"submit_button_text"`
		} `json:"ui_config"`
	}
	doJSON(t, client, http.MethodGet, base+"/api/forms/"+createFormResp.ID+"/schema", "", nil, &mergedResp)
	if mergedResp.UIConfig.SubmitButtonText != "Send" {
		t.Fatalf("merged schema ui_config = %+v", mergedResp)
	}

	var recordResp struct {
		ID string `json:"id"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/records", token, map[string]any{
		"form_id": createFormResp.ID,
	}, &recordResp)
	if recordResp.ID == "" {
		t.Fatalf("expected record id in response")
	}

	recordURL := base + "/api/records/" + recordResp.ID
	doJSON(t, client, http.MethodPut, recordURL+"/draft", token, map[string]any{
		"document":   map[string]any{"name": "Ada", "email": ""},
		"auto_saved": true,
	}, nil)

	var draftResp struct {
		Document map[string]any `json:"document"`
	}
	doJSON(t, client, http.MethodGet, recordURL+"/draft", token, nil, &draftResp)
	if draftResp.Document["name"] != "Ada" {
		t.Fatalf("draft document = %+v", draftResp.Document)
	}

	var commitResp struct {
		Version int `json:"version"`
	}
	doJSON(t, client, http.MethodPost, recordURL+"/commit", token, map[string]any{
		"data":           map[string]any{"name": "Ada", "email": "ada@example.com"},
		"status":         "active",
		"completion_pct": 100,
	}, &commitResp)
	if commitResp.Version != 1 {
		t.Fatalf("first commit version = %d, want 1", commitResp.Version)
	}

	// The commit consumed the caller's draft.
	checkStatus(t, client, http.MethodGet, recordURL+"/draft", token, http.StatusNotFound)

	doJSON(t, client, http.MethodPost, recordURL+"/commit", token, map[string]any{
		"data":           map[string]any{"name": "Grace", "email": "grace@example.com"},
		"status":         "active",
		"completion_pct": 100,
	}, nil)

	var versions []struct {
		VersionNumber int `json:"version_number"`
	}
	doJSON(t, client, http.MethodGet, recordURL+"/versions", token, nil, &versions)
	if len(versions) != 2 || versions[0].VersionNumber != 2 {
		t.Fatalf("versions = %+v", versions)
	}

	// Rolling back to version 2 restores the pre-update snapshot (Ada) and
	// records the rollback as a new version.
	doJSON(t, client, http.MethodPost, recordURL+"/rollback", token, map[string]any{"version": 2}, nil)

	var record struct {
		Data map[string]any `json:"data"`
	}
	doJSON(t, client, http.MethodGet, recordURL, token, nil, &record)
	if record.Data["name"] != "Ada" {
		t.Fatalf("record after rollback = %+v", record.Data)
	}
	doJSON(t, client, http.MethodGet, recordURL+"/versions", token, nil, &versions)
	if len(versions) != 3 {
		t.Fatalf("rollback should append a version, got %+v", versions)
	}
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, out any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, url, string(bodyBytes))
	}
	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}

func checkStatus(t *testing.T, client *http.Client, method, url, token string, want int) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s failed: %v", method, url, err)
	}
	resp.Body.Close()
	if resp.StatusCode != want {
		t.Fatalf("status for %s = %d, want %d", url, resp.StatusCode, want)
	}
}
