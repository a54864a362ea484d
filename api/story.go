package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

func (h *handler) listStory(w http.ResponseWriter, r *http.Request) {
	sections, err := h.story.Scan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read story")
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

func (h *handler) appendStory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	added, err := h.story.Append(r.Context(), req.Text)
	if err != nil {
		h.logger.Errorw("Append story failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to append paragraph")
		return
	}
	writeJSON(w, http.StatusCreated, added)
}
