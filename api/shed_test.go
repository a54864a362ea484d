package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"shed/shed"
)

func TestShedLifecycleOverHTTP(t *testing.T) {
	env := newTestServer(t)
	const original = "Marcus is a blacksmith in the village."
	env.createEntry(t, "e1", original)

	expectStatus(t, env.do(t, http.MethodPut, "/api/entries/e1/shed/pattern",
		`{"pattern":"Marcus is slowly transforming into a rock elemental."}`), http.StatusOK)

	const skin = "Marcus's forearms have taken on a granite sheen."
	env.answer(skin, nil)
	resp := env.do(t, http.MethodPost, "/api/entries/e1/shed/molt", "")
	expectStatus(t, resp, http.StatusOK)
	snap := decodeBody[shed.Snapshot](t, resp)
	if snap.Entry.Text != skin {
		t.Fatalf("expected molted text, got %q", snap.Entry.Text)
	}
	if snap.Slough == nil || *snap.Slough != original {
		t.Fatalf("expected slough %q, got %v", original, snap.Slough)
	}
	if snap.Skin == nil || *snap.Skin != skin {
		t.Fatalf("expected skin, got %v", snap.Skin)
	}

	resp = env.do(t, http.MethodPost, "/api/entries/e1/shed/unshed", "")
	expectStatus(t, resp, http.StatusOK)
	snap = decodeBody[shed.Snapshot](t, resp)
	if snap.Entry.Text != original || snap.Skin != nil || snap.Config.Enabled {
		t.Fatalf("unshed did not reset: %+v", snap)
	}
	if snap.Phase != shed.PhaseSloughOnly {
		t.Fatalf("expected slough-only phase, got %v", snap.Phase)
	}
}

func TestMoltErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		entry   bool
		pattern string
		reply   string
		err     error
		want    int
	}{
		{name: "missing entry", want: http.StatusNotFound},
		{name: "no pattern", entry: true, want: http.StatusUnprocessableEntity},
		{name: "too short", entry: true, pattern: "p", reply: "  tiny ", want: http.StatusUnprocessableEntity},
		{name: "generator down", entry: true, pattern: "p", err: errors.New("connection refused"), want: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestServer(t)
			if tt.entry {
				env.createEntry(t, "e1", "Marcus is a blacksmith.")
			}
			if tt.pattern != "" {
				expectStatus(t, env.do(t, http.MethodPut, "/api/entries/e1/shed/pattern", `{"pattern":"`+tt.pattern+`"}`), http.StatusOK)
			}
			env.answer(tt.reply, tt.err)

			resp := env.do(t, http.MethodPost, "/api/entries/e1/shed/molt", "")
			expectStatus(t, resp, tt.want)
			body := decodeBody[map[string]string](t, resp)
			if body["error"] == "" {
				t.Fatal("expected error message in body")
			}
		})
	}
}

func TestUnshedWithoutSlough409(t *testing.T) {
	env := newTestServer(t)
	env.createEntry(t, "e1", "Marcus is a blacksmith.")

	resp := env.do(t, http.MethodPost, "/api/entries/e1/shed/unshed", "")
	expectStatus(t, resp, http.StatusConflict)
	body := decodeBody[map[string]string](t, resp)
	if body["error"] != shed.UserMessage(shed.ErrNoSlough) {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestSetEnabledCapturesSlough(t *testing.T) {
	env := newTestServer(t)
	env.createEntry(t, "e1", "Marcus is a blacksmith.")

	resp := env.do(t, http.MethodPut, "/api/entries/e1/shed/enabled", `{"enabled":true}`)
	expectStatus(t, resp, http.StatusOK)
	snap := decodeBody[shed.Snapshot](t, resp)
	if !snap.Config.Enabled || snap.Slough == nil || *snap.Slough != "Marcus is a blacksmith." {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if env.generated() != 0 {
		t.Fatalf("enabling must not generate, got %d calls", env.generated())
	}

	expectStatus(t, env.do(t, http.MethodPut, "/api/entries/e1/shed/enabled", `{}`), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPut, "/api/entries/e1/shed/enabled", `nope`), http.StatusBadRequest)
}

func TestSetInterval(t *testing.T) {
	env := newTestServer(t)
	env.createEntry(t, "e1", "Marcus is a blacksmith.")

	snap := decodeBody[shed.Snapshot](t, env.do(t, http.MethodPut, "/api/entries/e1/shed/interval", `{"moltInterval":3}`))
	if snap.Config.MoltInterval != 3 {
		t.Fatalf("expected interval 3, got %d", snap.Config.MoltInterval)
	}
}

func TestStoryAppend(t *testing.T) {
	env := newTestServer(t)

	expectStatus(t, env.do(t, http.MethodPost, "/api/story", `{"text":"The forge burned low."}`), http.StatusCreated)
	expectStatus(t, env.do(t, http.MethodPost, "/api/story", `{"text":"   "}`), http.StatusBadRequest)

	sections, err := env.doc.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 1 || sections[0].Text != "The forge burned low." {
		t.Fatalf("unexpected sections %+v", sections)
	}

	list := decodeBody[[]map[string]any](t, env.do(t, http.MethodGet, "/api/story", ""))
	if len(list) != 1 {
		t.Fatalf("expected 1 section, got %d", len(list))
	}
}
