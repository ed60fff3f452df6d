package sync

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

func TestHub_BroadcastReachesClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws", WSHandler(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	_, welcome, err := conn.ReadMessage()
	if err != nil || !strings.Contains(string(welcome), "welcome") {
		t.Fatalf("welcome = %s, %v", welcome, err)
	}

	// Add runs right after the welcome write; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Stats().WSClients == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	ev := NewEvent(EventWatchlistAdd, "u1", "h-4")
	ev.List = "favorite"
	hub.Publish(ev)

	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got ActivityEvent
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != EventWatchlistAdd || got.MovieID != "h-4" || got.List != "favorite" {
		t.Fatalf("event = %+v", got)
	}
}

func TestHub_NilPublishIsNoop(t *testing.T) {
	var hub *Hub
	hub.Publish(NewEvent(EventCommentCreate, "u", "m"))
}
