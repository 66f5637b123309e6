package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"gameday-trivia-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// GameStore keeps ingested schedule entries as JSON documents plus a set
// per date for listing.
type GameStore struct {
	client *redis.Client
}

func NewGameStore(client *redis.Client) *GameStore {
	return &GameStore{client: client}
}

func (s *GameStore) UpsertGame(ctx context.Context, g domain.Game) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, gameKey(g.GamePk), payload, 0)
	pipe.SAdd(ctx, gameDateKey(g.Date), g.GamePk)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("upsert game: %w", err)
	}
	return nil
}

func (s *GameStore) Game(ctx context.Context, gamePk int64) (domain.Game, bool, error) {
	raw, err := s.client.Get(ctx, gameKey(gamePk)).Bytes()
	if err == redis.Nil {
		return domain.Game{}, false, nil
	}
	if err != nil {
		return domain.Game{}, false, fmt.Errorf("get game: %w", err)
	}
	var g domain.Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return domain.Game{}, false, fmt.Errorf("decode game: %w", err)
	}
	return g, true, nil
}

func (s *GameStore) GamesByDate(ctx context.Context, date string) ([]domain.Game, error) {
	members, err := s.client.SMembers(ctx, gameDateKey(date)).Result()
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	var out []domain.Game
	for _, m := range members {
		pk, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		g, ok, err := s.Game(ctx, pk)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// ChatStore keeps a capped chat list per game: RPUSH + LTRIM.
type ChatStore struct {
	client   *redis.Client
	capacity int64
}

func NewChatStore(client *redis.Client, capacity int) *ChatStore {
	if capacity <= 0 {
		capacity = 200
	}
	return &ChatStore{client: client, capacity: int64(capacity)}
}

func (s *ChatStore) AppendMessage(ctx context.Context, m domain.ChatMessage) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode chat message: %w", err)
	}
	key := chatKey(m.GamePk)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, -s.capacity, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

func (s *ChatStore) RecentMessages(ctx context.Context, gamePk int64, limit int) ([]domain.ChatMessage, error) {
	start := int64(-1) * int64(limit)
	if limit <= 0 {
		start = 0
	}
	raws, err := s.client.LRange(ctx, chatKey(gamePk), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read chat history: %w", err)
	}
	out := make([]domain.ChatMessage, 0, len(raws))
	for _, raw := range raws {
		var m domain.ChatMessage
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func gameKey(gamePk int64) string {
	return fmt.Sprintf("games:%d", gamePk)
}

func gameDateKey(date string) string {
	return "games:date:" + date
}

func chatKey(gamePk int64) string {
	return fmt.Sprintf("chat:%d", gamePk)
}
