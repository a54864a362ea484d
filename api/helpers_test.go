package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"shed/api"
	"shed/generate"
	"shed/lorebook"
	"shed/notify"
	"shed/shed"
	"shed/store"
	"shed/story"
)

type testEnv struct {
	srv  *httptest.Server
	book *lorebook.Book
	doc  *story.Document
	hub  *notify.Hub

	mu       sync.Mutex
	reply    string
	replyErr error
	calls    int
}

// answer sets what the generator replies; a non-nil err fails the call.
func (e *testEnv) answer(reply string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reply, e.replyErr = reply, err
}

func (e *testEnv) generated() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	book, err := lorebook.NewBook(ctx, store.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewBook: %v", err)
	}
	doc, err := story.NewDocument(ctx, store.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}

	env := &testEnv{book: book, doc: doc, hub: notify.NewHub()}
	gen := generate.GeneratorFunc(func(context.Context, []generate.Message, generate.Params) (*generate.Response, error) {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.calls++
		if env.replyErr != nil {
			return nil, env.replyErr
		}
		return &generate.Response{Choices: []generate.Choice{{Text: env.reply}}}, nil
	})

	engine := shed.New(shed.Deps{
		Lorebook: book,
		Document: doc,
		Stores: store.Namespaces{
			Story:   store.NewMemoryStore(),
			History: store.NewMemoryStore(),
			Temp:    store.NewMemoryStore(),
		},
		Generator: gen,
		Notifier:  env.hub,
	})

	env.srv = httptest.NewServer(api.RegisterRoutes(api.Deps{
		Book:   book,
		Story:  doc,
		Engine: engine,
		Hub:    env.hub,
	}))
	t.Cleanup(func() {
		env.srv.Close()
		env.hub.Close()
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d (%s)", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func (e *testEnv) createEntry(t *testing.T, id, text string) {
	t.Helper()
	if _, err := e.book.Create(context.Background(), id, "Marcus", text); err != nil {
		t.Fatalf("Create: %v", err)
	}
}
