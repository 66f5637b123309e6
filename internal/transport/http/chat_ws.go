package http

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"gameday-trivia-service/internal/app"
	"gameday-trivia-service/internal/domain"
	"github.com/gorilla/websocket"
)

// ChatHub fans chat messages out to websocket subscribers, one room per
// game. Messages also land in the chat store so late joiners can catch up
// over REST.
type ChatHub struct {
	store    app.ChatStore
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[int64]map[chan domain.ChatMessage]struct{}
}

func NewChatHub(store app.ChatStore) *ChatHub {
	return &ChatHub{
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		rooms: make(map[int64]map[chan domain.ChatMessage]struct{}),
	}
}

func (h *ChatHub) subscribe(gamePk int64) (chan domain.ChatMessage, func()) {
	ch := make(chan domain.ChatMessage, 16)
	h.mu.Lock()
	room, ok := h.rooms[gamePk]
	if !ok {
		room = make(map[chan domain.ChatMessage]struct{})
		h.rooms[gamePk] = room
	}
	room[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if room, ok := h.rooms[gamePk]; ok {
			if _, subscribed := room[ch]; subscribed {
				delete(room, ch)
				close(ch)
			}
			if len(room) == 0 {
				delete(h.rooms, gamePk)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast delivers a message to every subscriber of its game. Slow
// consumers have their oldest pending message dropped rather than
// blocking the sender.
func (h *ChatHub) Broadcast(msg domain.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.rooms[msg.GamePk] {
		select {
		case ch <- msg:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- msg
		}
	}
}

type inboundChat struct {
	Text string `json:"text"`
}

// ServeWS upgrades the connection and joins the caller to a game's chat
// room. Inbound frames are persisted and broadcast; outbound frames carry
// every message posted to the room, over REST or websocket.
func (h *ChatHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	gamePk, err := strconv.ParseInt(r.URL.Query().Get("gamePk"), 10, 64)
	if err != nil || gamePk <= 0 {
		http.Error(w, "missing or bad gamePk", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	history, err := h.store.RecentMessages(r.Context(), gamePk, 50)
	if err == nil {
		for _, msg := range history {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}

	updates, cancel := h.subscribe(gamePk)
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range updates {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	for {
		var inbound inboundChat
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if inbound.Text == "" {
			continue
		}
		msg := domain.ChatMessage{
			GamePk: gamePk,
			Name:   name,
			Text:   inbound.Text,
			SentAt: time.Now().UTC(),
		}
		if err := h.store.AppendMessage(context.Background(), msg); err != nil {
			log.Printf("persist chat message: %v", err)
			continue
		}
		h.Broadcast(msg)
	}

	cancel()
	<-writerDone
}
