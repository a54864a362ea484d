package api_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"shed/notify"
)

func dialWS(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/api/toasts/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WS dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readToast(t *testing.T, conn *websocket.Conn) notify.Toast {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var toast notify.Toast
	if err := conn.ReadJSON(&toast); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return toast
}

func TestWSReplaysLastToast(t *testing.T) {
	env := newTestServer(t)
	env.hub.Notify(notify.Toast{Kind: notify.Info, Message: "🐍 Shedding resumed"})

	conn := dialWS(t, env)
	toast := readToast(t, conn)
	if toast.Message != "🐍 Shedding resumed" || toast.Kind != notify.Info {
		t.Fatalf("unexpected replay %+v", toast)
	}
}

func TestWSStreamsMoltProgress(t *testing.T) {
	env := newTestServer(t)
	env.createEntry(t, "e1", "Marcus is a blacksmith.")
	expectStatus(t, env.do(t, http.MethodPut, "/api/entries/e1/shed/pattern", `{"pattern":"stone"}`), http.StatusOK)

	conn := dialWS(t, env)
	// Subscription happens after the upgrade; give the handler a moment.
	time.Sleep(50 * time.Millisecond)

	env.answer("Marcus's skin is cold granite now.", nil)
	expectStatus(t, env.do(t, http.MethodPost, "/api/entries/e1/shed/molt", ""), http.StatusOK)

	first := readToast(t, conn)
	second := readToast(t, conn)
	if first.Message != "🐍 Shedding..." {
		t.Fatalf("expected progress toast, got %q", first.Message)
	}
	if second.Message != "🐍 Shed complete!" || second.Kind != notify.Success {
		t.Fatalf("expected completion toast, got %+v", second)
	}
	if first.ID != second.ID {
		t.Fatal("progress and completion toasts should share an id")
	}
}

func TestWSClosedOnHubClose(t *testing.T) {
	env := newTestServer(t)
	conn := dialWS(t, env)
	time.Sleep(50 * time.Millisecond)

	env.hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var toast notify.Toast
	if err := conn.ReadJSON(&toast); err == nil {
		t.Fatalf("expected close, got toast %+v", toast)
	}
}
