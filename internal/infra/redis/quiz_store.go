package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gameday-trivia-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// QuestionStore keeps questions as JSON documents in Redis.
// Layout:
//
//	quiz:game:{pk}:active  question JSON, TTL = remaining lifetime (SET NX)
//	quiz:game:{pk}:latest  question JSON, TTL = retention
//	quiz:question:{id}     question JSON, TTL = retention
//
// The active key's SET NX is what makes question creation single-writer
// per game: the first racer installs the document, everyone else reads
// the winner back.
type QuestionStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewQuestionStore(client *redis.Client, retention time.Duration) *QuestionStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &QuestionStore{client: client, retention: retention}
}

func (s *QuestionStore) LatestQuestion(ctx context.Context, gamePk int64) (domain.Question, bool, error) {
	raw, err := s.client.Get(ctx, latestKey(gamePk)).Bytes()
	if err == redis.Nil {
		return domain.Question{}, false, nil
	}
	if err != nil {
		return domain.Question{}, false, fmt.Errorf("latest question: %w", err)
	}
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Question{}, false, fmt.Errorf("decode question: %w", err)
	}
	return q, true, nil
}

func (s *QuestionStore) InsertQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	payload, err := json.Marshal(q)
	if err != nil {
		return domain.Question{}, fmt.Errorf("encode question: %w", err)
	}
	ttl := time.Until(q.ExpiresAt)
	if ttl <= 0 {
		return domain.Question{}, fmt.Errorf("question already expired at insert")
	}

	// Bounded retry: the active key can expire between a failed SET NX and
	// the follow-up read.
	for attempt := 0; attempt < 3; attempt++ {
		set, err := s.client.SetNX(ctx, activeKey(q.GamePk), payload, ttl).Result()
		if err != nil {
			return domain.Question{}, fmt.Errorf("install question: %w", err)
		}
		if set {
			pipe := s.client.Pipeline()
			pipe.Set(ctx, latestKey(q.GamePk), payload, s.retention)
			pipe.Set(ctx, questionKey(q.ID), payload, s.retention)
			if _, err := pipe.Exec(ctx); err != nil {
				return domain.Question{}, fmt.Errorf("persist question: %w", err)
			}
			return q, nil
		}

		raw, err := s.client.Get(ctx, activeKey(q.GamePk)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return domain.Question{}, fmt.Errorf("read active question: %w", err)
		}
		var winner domain.Question
		if err := json.Unmarshal(raw, &winner); err != nil {
			return domain.Question{}, fmt.Errorf("decode active question: %w", err)
		}
		return winner, nil
	}
	return q, fmt.Errorf("install question: contention on game %d", q.GamePk)
}

func (s *QuestionStore) Question(ctx context.Context, gamePk int64, id string) (domain.Question, bool, error) {
	raw, err := s.client.Get(ctx, questionKey(id)).Bytes()
	if err == redis.Nil {
		return domain.Question{}, false, nil
	}
	if err != nil {
		return domain.Question{}, false, fmt.Errorf("get question: %w", err)
	}
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Question{}, false, fmt.Errorf("decode question: %w", err)
	}
	if q.GamePk != gamePk {
		return domain.Question{}, false, nil
	}
	return q, true, nil
}

// VoteStore stores votes in a hash per question, one field per
// participant: HSET quiz:question:{id}:votes {participant} {vote JSON}.
// HSET gives the upsert semantics directly: last write wins, never a
// duplicate row.
type VoteStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewVoteStore(client *redis.Client, retention time.Duration) *VoteStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &VoteStore{client: client, retention: retention}
}

func (s *VoteStore) UpsertVote(ctx context.Context, v domain.Vote) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode vote: %w", err)
	}
	key := votesKey(v.QuestionID)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, v.Participant, payload)
	pipe.Expire(ctx, key, s.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record vote: %w", err)
	}
	return nil
}

// Vote returns the stored vote for a (question, participant) pair.
func (s *VoteStore) Vote(ctx context.Context, questionID, participant string) (domain.Vote, bool, error) {
	raw, err := s.client.HGet(ctx, votesKey(questionID), participant).Bytes()
	if err == redis.Nil {
		return domain.Vote{}, false, nil
	}
	if err != nil {
		return domain.Vote{}, false, fmt.Errorf("get vote: %w", err)
	}
	var v domain.Vote
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.Vote{}, false, fmt.Errorf("decode vote: %w", err)
	}
	return v, true, nil
}

// ScoreStore keeps per-game scores in a sorted set, guarded by a credited
// set per participant. SADD is the atomic check-and-set: only the call
// that first adds the question id goes on to increment, so duplicate and
// concurrent correct votes cannot double-count.
type ScoreStore struct {
	client *redis.Client
}

func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client}
}

func (s *ScoreStore) CreditOnce(ctx context.Context, gamePk int64, participant, questionID string) (bool, int, error) {
	added, err := s.client.SAdd(ctx, creditedKey(gamePk, participant), questionID).Result()
	if err != nil {
		return false, 0, fmt.Errorf("mark credited: %w", err)
	}
	if added == 0 {
		score, err := s.Score(ctx, gamePk, participant)
		return false, score, err
	}
	score, err := s.client.ZIncrBy(ctx, scoresKey(gamePk), 1, participant).Result()
	if err != nil {
		return false, 0, fmt.Errorf("increment score: %w", err)
	}
	return true, int(score), nil
}

func (s *ScoreStore) Score(ctx context.Context, gamePk int64, participant string) (int, error) {
	score, err := s.client.ZScore(ctx, scoresKey(gamePk), participant).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get score: %w", err)
	}
	return int(score), nil
}

func (s *ScoreStore) TopScores(ctx context.Context, gamePk int64) ([]domain.LeaderboardEntry, error) {
	members, err := s.client.ZRangeWithScores(ctx, scoresKey(gamePk), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(members))
	for _, m := range members {
		name, _ := m.Member.(string)
		entries = append(entries, domain.LeaderboardEntry{Participant: name, Score: int(m.Score)})
	}
	return entries, nil
}

func activeKey(gamePk int64) string {
	return fmt.Sprintf("quiz:game:%d:active", gamePk)
}

func latestKey(gamePk int64) string {
	return fmt.Sprintf("quiz:game:%d:latest", gamePk)
}

func questionKey(id string) string {
	return "quiz:question:" + id
}

func votesKey(questionID string) string {
	return "quiz:question:" + questionID + ":votes"
}

func scoresKey(gamePk int64) string {
	return fmt.Sprintf("quiz:game:%d:scores", gamePk)
}

func creditedKey(gamePk int64, participant string) string {
	return fmt.Sprintf("quiz:game:%d:credited:%s", gamePk, participant)
}
