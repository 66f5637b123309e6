package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gameday-trivia-service/internal/domain"
)

// QuestionStore is an in-memory implementation of app.QuestionStore.
type QuestionStore struct {
	mu     sync.RWMutex
	clock  func() time.Time
	latest map[int64]domain.Question
	byID   map[string]domain.Question
}

func NewQuestionStore() *QuestionStore {
	return NewQuestionStoreWithClock(time.Now)
}

// NewQuestionStoreWithClock allows deterministic expiry checks in tests.
func NewQuestionStoreWithClock(clock func() time.Time) *QuestionStore {
	return &QuestionStore{
		clock:  clock,
		latest: make(map[int64]domain.Question),
		byID:   make(map[string]domain.Question),
	}
}

func (s *QuestionStore) LatestQuestion(_ context.Context, gamePk int64) (domain.Question, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.latest[gamePk]
	return q, ok, nil
}

// InsertQuestion installs q unless an unexpired question already holds the
// game; the holder wins and is returned to every racer.
func (s *QuestionStore) InsertQuestion(_ context.Context, q domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.latest[q.GamePk]; ok && !cur.Expired(s.clock()) {
		return cur, nil
	}
	s.latest[q.GamePk] = q
	s.byID[q.ID] = q
	return q, nil
}

func (s *QuestionStore) Question(_ context.Context, gamePk int64, id string) (domain.Question, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.byID[id]
	if !ok || q.GamePk != gamePk {
		return domain.Question{}, false, nil
	}
	return q, true, nil
}

// VoteStore is an in-memory implementation of app.VoteStore.
type VoteStore struct {
	mu    sync.RWMutex
	votes map[string]map[string]domain.Vote // questionID -> participant -> vote
}

func NewVoteStore() *VoteStore {
	return &VoteStore{votes: make(map[string]map[string]domain.Vote)}
}

func (s *VoteStore) UpsertVote(_ context.Context, v domain.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byParticipant, ok := s.votes[v.QuestionID]
	if !ok {
		byParticipant = make(map[string]domain.Vote)
		s.votes[v.QuestionID] = byParticipant
	}
	byParticipant[v.Participant] = v
	return nil
}

// Vote returns the stored vote for a (question, participant) pair.
func (s *VoteStore) Vote(_ context.Context, questionID, participant string) (domain.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.votes[questionID][participant]
	return v, ok, nil
}

// ScoreStore is an in-memory implementation of app.ScoreStore. The
// credited set makes double-counting structurally impossible: a
// (game, participant, question) triple increments at most once no matter
// how many times the same correct vote arrives.
type ScoreStore struct {
	mu       sync.Mutex
	scores   map[int64]map[string]int
	credited map[string]struct{}
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		scores:   make(map[int64]map[string]int),
		credited: make(map[string]struct{}),
	}
}

func creditKey(gamePk int64, participant, questionID string) string {
	return fmt.Sprintf("%d|%s|%s", gamePk, participant, questionID)
}

func (s *ScoreStore) CreditOnce(_ context.Context, gamePk int64, participant, questionID string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := creditKey(gamePk, participant, questionID)
	if _, done := s.credited[key]; done {
		return false, s.scores[gamePk][participant], nil
	}
	s.credited[key] = struct{}{}
	byParticipant, ok := s.scores[gamePk]
	if !ok {
		byParticipant = make(map[string]int)
		s.scores[gamePk] = byParticipant
	}
	byParticipant[participant]++
	return true, byParticipant[participant], nil
}

func (s *ScoreStore) Score(_ context.Context, gamePk int64, participant string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[gamePk][participant], nil
}

func (s *ScoreStore) TopScores(_ context.Context, gamePk int64) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]domain.LeaderboardEntry, 0, len(s.scores[gamePk]))
	for participant, score := range s.scores[gamePk] {
		entries = append(entries, domain.LeaderboardEntry{Participant: participant, Score: score})
	}
	return entries, nil
}
