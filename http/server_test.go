package http

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aliciaolivaresgil/sslearn/wrapper"
)

func TestWebSocketUpgradeThroughMiddlewareChain(t *testing.T) {
	api, err := NewAPI(zap.NewNop(), NewHub(nil), 3)
	if err != nil {
		t.Fatalf("api init failed: %v", err)
	}
	server := NewServer(DefaultServerConfig(), api, zap.NewNop())

	go server.hub.Run()
	defer server.hub.Stop()

	// Serve the full middleware-wrapped handler, not the bare mux: the
	// upgrade must survive the logging writer wrapper.
	ts := httptest.NewServer(server.server.Handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws/training"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial through the middleware chain failed: %v", err)
	}
	defer conn.Close()

	// Give the hub a moment to register the client before broadcasting.
	time.Sleep(100 * time.Millisecond)
	server.hub.BroadcastRound(7, wrapper.RoundStats{Round: 1, NewlyLabeled: 2})

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg RoundMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if msg.RunID != 7 || msg.Stats.Round != 1 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}
