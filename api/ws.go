package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 5 * time.Second

// handleWS streams toasts to the client as JSON. The most recent toast is
// replayed on connect so a late client sees the current progress state.
func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("WS upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	toasts, cancel := h.hub.Subscribe()
	defer cancel()

	if last, ok := h.hub.Last(); ok {
		conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
		if err := conn.WriteJSON(last); err != nil {
			h.logger.Debugw("WS replay failed", "error", err)
			return
		}
	}

	// Reader: the client sends nothing meaningful; a read error means it left.
	connDone := make(chan struct{})
	go func() {
		defer close(connDone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case t, ok := <-toasts:
			if !ok {
				// Hub closed: server shutting down.
				conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := conn.WriteJSON(t); err != nil {
				return
			}
		case <-connDone:
			return
		}
	}
}
