package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func TestBroadcastReachesConnectedClient(t *testing.T) {
	hub := NewHub(logrus.New())
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	payload := map[string]any{"refresh_id": "r-1", "total_countries": float64(3)}
	// Registration happens in the upgrade handler; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.Broadcast(payload)
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		var got map[string]any
		if err := conn.ReadJSON(&got); err == nil {
			if got["refresh_id"] != "r-1" {
				t.Fatalf("unexpected payload: %v", got)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("client never received broadcast")
		}
	}
}

func TestBroadcastDropsClosedClient(t *testing.T) {
	hub := NewHub(logrus.New())
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	// Must not panic or block on the dead connection.
	hub.Broadcast(map[string]string{"refresh_id": "r-2"})
	hub.Broadcast(map[string]string{"refresh_id": "r-3"})
}
