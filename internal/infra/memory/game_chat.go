package memory

import (
	"context"
	"sync"

	"gameday-trivia-service/internal/domain"
)

// GameStore is an in-memory implementation of app.GameStore.
type GameStore struct {
	mu    sync.RWMutex
	games map[int64]domain.Game
}

func NewGameStore() *GameStore {
	return &GameStore{games: make(map[int64]domain.Game)}
}

func (s *GameStore) UpsertGame(_ context.Context, g domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.GamePk] = g
	return nil
}

func (s *GameStore) Game(_ context.Context, gamePk int64) (domain.Game, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[gamePk]
	return g, ok, nil
}

func (s *GameStore) GamesByDate(_ context.Context, date string) ([]domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Game
	for _, g := range s.games {
		if g.Date == date {
			out = append(out, g)
		}
	}
	return out, nil
}

// ChatStore is an in-memory implementation of app.ChatStore with a capped
// history per game.
type ChatStore struct {
	mu       sync.Mutex
	capacity int
	messages map[int64][]domain.ChatMessage
}

func NewChatStore(capacity int) *ChatStore {
	if capacity <= 0 {
		capacity = 200
	}
	return &ChatStore{
		capacity: capacity,
		messages: make(map[int64][]domain.ChatMessage),
	}
}

func (s *ChatStore) AppendMessage(_ context.Context, m domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.messages[m.GamePk], m)
	if len(history) > s.capacity {
		history = history[len(history)-s.capacity:]
	}
	s.messages[m.GamePk] = history
	return nil
}

func (s *ChatStore) RecentMessages(_ context.Context, gamePk int64, limit int) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.messages[gamePk]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return append([]domain.ChatMessage(nil), history...), nil
}
