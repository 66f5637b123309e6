package app

import (
	"context"

	"gameday-trivia-service/internal/domain"
)

// GameStore holds ingested schedule entries.
type GameStore interface {
	UpsertGame(ctx context.Context, g domain.Game) error
	Game(ctx context.Context, gamePk int64) (domain.Game, bool, error)
	GamesByDate(ctx context.Context, date string) ([]domain.Game, error)
}

// ChatStore keeps a capped per-game chat history.
type ChatStore interface {
	AppendMessage(ctx context.Context, m domain.ChatMessage) error
	RecentMessages(ctx context.Context, gamePk int64, limit int) ([]domain.ChatMessage, error)
}
