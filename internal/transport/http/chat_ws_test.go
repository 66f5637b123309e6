package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gameday-trivia-service/internal/domain"
	"gameday-trivia-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func dialChat(t *testing.T, server *httptest.Server, gamePk, name string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws/chat?gamePk=" + gamePk + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", u, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readChat(t *testing.T, conn *websocket.Conn) domain.ChatMessage {
	t.Helper()
	var msg domain.ChatMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg
}

func TestChatWebSocketBroadcast(t *testing.T) {
	store := memory.NewChatStore(0)
	hub := NewChatHub(store)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/chat", hub.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	alice := dialChat(t, server, "777", "Alice")
	bob := dialChat(t, server, "777", "Bob")

	if err := alice.WriteJSON(map[string]any{"text": "go phillies"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, conn := range []*websocket.Conn{alice, bob} {
		msg := readChat(t, conn)
		if msg.Name != "Alice" || msg.Text != "go phillies" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	}

	history, err := store.RecentMessages(context.Background(), 777, 0)
	if err != nil || len(history) != 1 {
		t.Fatalf("expected persisted message, got %v err=%v", history, err)
	}
}

func TestChatWebSocketReplaysHistory(t *testing.T) {
	store := memory.NewChatStore(0)
	hub := NewChatHub(store)

	seed := domain.ChatMessage{GamePk: 777, Name: "Alice", Text: "first", SentAt: time.Now().UTC()}
	if err := store.AppendMessage(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/chat", hub.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	late := dialChat(t, server, "777", "Bob")
	msg := readChat(t, late)
	if msg.Text != "first" {
		t.Fatalf("expected replayed history, got %+v", msg)
	}
}

func TestChatWebSocketRoomsAreIsolated(t *testing.T) {
	store := memory.NewChatStore(0)
	hub := NewChatHub(store)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/chat", hub.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	gameA := dialChat(t, server, "777", "Alice")
	gameB := dialChat(t, server, "778", "Bob")

	if err := gameA.WriteJSON(map[string]any{"text": "only for 777"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readChat(t, gameA); msg.Text != "only for 777" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	_ = gameB.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var stray domain.ChatMessage
	if err := gameB.ReadJSON(&stray); err == nil {
		t.Fatalf("expected no cross-room delivery, got %+v", stray)
	}
}

func TestChatWebSocketRejectsBadParams(t *testing.T) {
	hub := NewChatHub(memory.NewChatStore(0))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/chat", hub.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	for _, q := range []string{"", "?gamePk=abc&name=x", "?gamePk=777"} {
		resp, err := http.Get(server.URL + "/ws/chat" + q)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("query %q status = %d, want 400", q, resp.StatusCode)
		}
	}
}
