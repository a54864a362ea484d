package api

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"

	"shed/lorebook"
	"shed/panel"
)

func (h *handler) listEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.book.List())
}

func (h *handler) createEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		Text        string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := h.book.Create(r.Context(), req.ID, req.DisplayName, req.Text)
	if err != nil {
		if errors.Is(err, lorebook.ErrIDTaken) {
			writeError(w, http.StatusConflict, "entry id already in use")
			return
		}
		h.logger.Errorw("Create entry failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create entry")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *handler) getEntry(w http.ResponseWriter, r *http.Request) {
	e, ok, err := h.book.Entry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load entry")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *handler) updateText(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Text *string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.book.UpdateText(r.Context(), id, *req.Text); err != nil {
		h.fail(w, err)
		return
	}
	h.getEntry(w, r)
}

// removeEntry deletes the entry together with its shed state.
func (h *handler) removeEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.book.Remove(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.engine.Forget(r.Context(), id); err != nil {
		h.logger.Errorw("Forget shed state failed", "entry_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "entry removed but its shed state remains")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) emptyPanel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"id": panel.ID, "content": panel.Empty()})
}

func (h *handler) entryPanel(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      panel.ID,
		"content": panel.Build(panel.FromSnapshot(snap)),
	})
}
