package api

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"

	"shed/lorebook"
	"shed/shed"
)

func (h *handler) snapshot(w http.ResponseWriter, r *http.Request) {
	h.respondSnapshot(w, r, chi.URLParam(r, "id"))
}

func (h *handler) setEnabled(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.engine.SetEnabled(r.Context(), id, *req.Enabled); err != nil {
		h.fail(w, err)
		return
	}
	h.respondSnapshot(w, r, id)
}

func (h *handler) setPattern(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Pattern *string `json:"pattern"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Pattern == nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.engine.SetPattern(r.Context(), id, *req.Pattern); err != nil {
		h.fail(w, err)
		return
	}
	h.respondSnapshot(w, r, id)
}

func (h *handler) setInterval(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		MoltInterval *int `json:"moltInterval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MoltInterval == nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.engine.SetMoltInterval(r.Context(), id, *req.MoltInterval); err != nil {
		h.fail(w, err)
		return
	}
	h.respondSnapshot(w, r, id)
}

// molt is the "Shed Now" button. Generation failures that are not one of
// the shed preconditions are reported as a bad gateway.
func (h *handler) molt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.ShedNow(r.Context(), id); err != nil {
		if status, ok := statusFor(err); ok {
			writeError(w, status, shed.UserMessage(err))
			return
		}
		writeError(w, http.StatusBadGateway, shed.UserMessage(err))
		return
	}
	h.respondSnapshot(w, r, id)
}

func (h *handler) unshed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.Unshed(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	h.respondSnapshot(w, r, id)
}

func (h *handler) respondSnapshot(w http.ResponseWriter, r *http.Request, id string) {
	snap, err := h.engine.Snapshot(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// statusFor maps the known domain errors to HTTP statuses.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, shed.ErrEntryNotFound), errors.Is(err, lorebook.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, shed.ErrNoPattern), errors.Is(err, shed.ErrTooShort):
		return http.StatusUnprocessableEntity, true
	case errors.Is(err, shed.ErrNoSlough):
		return http.StatusConflict, true
	}
	return 0, false
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	if status, ok := statusFor(err); ok {
		writeError(w, status, shed.UserMessage(err))
		return
	}
	h.logger.Errorw("Request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
