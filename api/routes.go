package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"shed/logging"
	"shed/lorebook"
	"shed/notify"
	"shed/shed"
	"shed/story"
)

// Deps are the services the HTTP surface exposes.
type Deps struct {
	Book   *lorebook.Book
	Story  *story.Document
	Engine *shed.Engine
	Hub    *notify.Hub
	Logger *zap.SugaredLogger // nil = nop
}

func RegisterRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop().Sugar()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.Requests(d.Logger))
	r.Use(middleware.Recoverer)

	h := &handler{
		book:   d.Book,
		story:  d.Story,
		engine: d.Engine,
		hub:    d.Hub,
		logger: d.Logger,
	}

	r.Get("/api/panel", h.emptyPanel)

	r.Route("/api/entries", func(r chi.Router) {
		r.Get("/", h.listEntries)
		r.Post("/", h.createEntry)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getEntry)
			r.Delete("/", h.removeEntry)
			r.Put("/text", h.updateText)
			r.Get("/panel", h.entryPanel)

			r.Get("/shed", h.snapshot)
			r.Put("/shed/enabled", h.setEnabled)
			r.Put("/shed/pattern", h.setPattern)
			r.Put("/shed/interval", h.setInterval)
			r.Post("/shed/molt", h.molt)
			r.Post("/shed/unshed", h.unshed)
		})
	})

	r.Get("/api/story", h.listStory)
	r.Post("/api/story", h.appendStory)

	// WebSocket
	r.Get("/api/toasts/ws", h.handleWS)

	return r
}

type handler struct {
	book   *lorebook.Book
	story  *story.Document
	engine *shed.Engine
	hub    *notify.Hub
	logger *zap.SugaredLogger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
