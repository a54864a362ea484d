package api_test

import (
	"net/http"
	"strings"
	"testing"

	"shed/lorebook"
)

func TestListEntriesEmpty(t *testing.T) {
	env := newTestServer(t)

	resp := env.do(t, http.MethodGet, "/api/entries", "")
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("expected json content-type, got %q", ct)
	}
	entries := decodeBody[[]lorebook.Entry](t, resp)
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries, got %d", len(entries))
	}
}

func TestCreateEntry201(t *testing.T) {
	env := newTestServer(t)

	resp := env.do(t, http.MethodPost, "/api/entries", `{"displayName":"Marcus","text":"A blacksmith."}`)
	expectStatus(t, resp, http.StatusCreated)
	e := decodeBody[lorebook.Entry](t, resp)
	if e.ID == "" {
		t.Fatal("expected generated id")
	}
	if e.DisplayName != "Marcus" || e.Text != "A blacksmith." {
		t.Fatalf("unexpected entry %+v", e)
	}

	list := decodeBody[[]lorebook.Entry](t, env.do(t, http.MethodGet, "/api/entries", ""))
	if len(list) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(list))
	}
}

func TestCreateEntryBadJSON(t *testing.T) {
	env := newTestServer(t)
	expectStatus(t, env.do(t, http.MethodPost, "/api/entries", "not-json"), http.StatusBadRequest)
}

func TestCreateEntryConflict(t *testing.T) {
	env := newTestServer(t)
	expectStatus(t, env.do(t, http.MethodPost, "/api/entries", `{"id":"e1"}`), http.StatusCreated)
	expectStatus(t, env.do(t, http.MethodPost, "/api/entries", `{"id":"e1"}`), http.StatusConflict)
}

func TestGetEntryNotFound(t *testing.T) {
	env := newTestServer(t)
	expectStatus(t, env.do(t, http.MethodGet, "/api/entries/nope", ""), http.StatusNotFound)
}

func TestUpdateText(t *testing.T) {
	env := newTestServer(t)
	env.createEntry(t, "e1", "old")

	resp := env.do(t, http.MethodPut, "/api/entries/e1/text", `{"text":"new"}`)
	expectStatus(t, resp, http.StatusOK)
	if e := decodeBody[lorebook.Entry](t, resp); e.Text != "new" {
		t.Fatalf("expected updated text, got %q", e.Text)
	}

	expectStatus(t, env.do(t, http.MethodPut, "/api/entries/e1/text", `{}`), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPut, "/api/entries/ghost/text", `{"text":"x"}`), http.StatusNotFound)
}

func TestRemoveEntryForgetsShedState(t *testing.T) {
	env := newTestServer(t)
	env.createEntry(t, "e1", "Marcus is a blacksmith.")
	expectStatus(t, env.do(t, http.MethodPut, "/api/entries/e1/shed/enabled", `{"enabled":true}`), http.StatusOK)

	expectStatus(t, env.do(t, http.MethodDelete, "/api/entries/e1", ""), http.StatusNoContent)
	expectStatus(t, env.do(t, http.MethodGet, "/api/entries/e1", ""), http.StatusNotFound)

	// Re-creating the id starts from a clean slate.
	env.createEntry(t, "e1", "Someone else.")
	snap := decodeBody[map[string]any](t, env.do(t, http.MethodGet, "/api/entries/e1/shed", ""))
	if snap["slough"] != nil {
		t.Fatalf("expected no slough after removal, got %v", snap["slough"])
	}
	if snap["phase"] != "no-slough" {
		t.Fatalf("expected no-slough phase, got %v", snap["phase"])
	}
}

func TestRemoveEntryNotFound(t *testing.T) {
	env := newTestServer(t)
	expectStatus(t, env.do(t, http.MethodDelete, "/api/entries/nonexistent", ""), http.StatusNotFound)
}

func TestPanels(t *testing.T) {
	env := newTestServer(t)

	empty := decodeBody[map[string]any](t, env.do(t, http.MethodGet, "/api/panel", ""))
	if empty["id"] != "shed-panel" {
		t.Fatalf("unexpected panel id %v", empty["id"])
	}

	env.createEntry(t, "e1", "Marcus is a blacksmith.")
	resp := env.do(t, http.MethodGet, "/api/entries/e1/panel", "")
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody[struct {
		Content []struct {
			Type       string `json:"type"`
			StorageKey string `json:"storageKey"`
		} `json:"content"`
	}](t, resp)

	var keys []string
	for _, p := range body.Content {
		if p.StorageKey != "" {
			keys = append(keys, p.StorageKey)
		}
	}
	if strings.Join(keys, ",") != "shed-enabled-e1,shed-pattern-e1" {
		t.Fatalf("unexpected storage keys %v", keys)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/api/entries/ghost/panel", ""), http.StatusNotFound)
}
