package app

import (
	"context"
	"sort"
	"strings"
	"time"

	"gameday-trivia-service/internal/domain"
	"github.com/google/uuid"
)

// QuestionStore abstracts how questions are persisted (in-memory, Redis, etc).
type QuestionStore interface {
	// LatestQuestion returns the newest question for the game, expired or not.
	LatestQuestion(ctx context.Context, gamePk int64) (domain.Question, bool, error)
	// InsertQuestion installs q as the game's live question unless an
	// unexpired one already exists, in which case the existing question is
	// returned. Concurrent callers racing to create a question for the same
	// game all receive the same winner.
	InsertQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
	// Question looks up a question by id, scoped to the claimed game.
	Question(ctx context.Context, gamePk int64, id string) (domain.Question, bool, error)
}

// VoteStore records votes keyed by (question, participant); a repeat vote
// for the same pair overwrites the choice.
type VoteStore interface {
	UpsertVote(ctx context.Context, v domain.Vote) error
}

// ScoreStore accumulates per-game participant scores.
type ScoreStore interface {
	// CreditOnce awards one point for (gamePk, participant, questionID)
	// unless that triple was already credited. It returns whether the point
	// was newly awarded and the participant's resulting score either way.
	CreditOnce(ctx context.Context, gamePk int64, participant, questionID string) (bool, int, error)
	Score(ctx context.Context, gamePk int64, participant string) (int, error)
	TopScores(ctx context.Context, gamePk int64) ([]domain.LeaderboardEntry, error)
}

// Config holds the quiz timing knobs.
type Config struct {
	RevealDelay     time.Duration // delay before the correct answer is disclosed
	Lifetime        time.Duration // total voting window per question
	MinGap          time.Duration // minimum spacing between generated questions, measured from last reveal
	LeaderboardSize int
}

func (c Config) withDefaults() Config {
	if c.RevealDelay <= 0 {
		c.RevealDelay = 5 * time.Second
	}
	if c.Lifetime <= 0 {
		c.Lifetime = 120 * time.Second
	}
	if c.MinGap <= 0 {
		c.MinGap = 30 * time.Second
	}
	if c.LeaderboardSize <= 0 {
		c.LeaderboardSize = 10
	}
	return c
}

// QuizService owns the question lifecycle and the vote/score ledgers.
type QuizService struct {
	questions QuestionStore
	votes     VoteStore
	scores    ScoreStore
	gen       *Generator
	cfg       Config
	clock     func() time.Time
}

func NewQuizService(questions QuestionStore, votes VoteStore, scores ScoreStore, gen *Generator, cfg Config) *QuizService {
	return NewQuizServiceWithClock(questions, votes, scores, gen, cfg, time.Now)
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(questions QuestionStore, votes VoteStore, scores ScoreStore, gen *Generator, cfg Config, clock func() time.Time) *QuizService {
	return &QuizService{
		questions: questions,
		votes:     votes,
		scores:    scores,
		gen:       gen,
		cfg:       cfg.withDefaults(),
		clock:     clock,
	}
}

// LatestQuestion returns the game's live question, generating a fresh one
// when the previous question has expired and the inter-question gap has
// passed. A nil question with nil error tells the client to wait and poll
// again.
func (s *QuizService) LatestQuestion(ctx context.Context, gamePk int64) (*domain.Question, error) {
	if gamePk <= 0 {
		return nil, domain.ErrInvalidGame
	}
	now := s.clock()

	last, ok, err := s.questions.LatestQuestion(ctx, gamePk)
	if err != nil {
		return nil, err
	}
	if ok {
		if !last.Expired(now) {
			return &last, nil
		}
		if now.Sub(last.RevealAt) < s.cfg.MinGap {
			// Too soon after the previous reveal; let the client wait
			// instead of thrashing out questions back to back.
			return nil, nil
		}
	}

	draft := s.gen.Generate(ctx, gamePk)
	q := domain.Question{
		ID:           uuid.NewString(),
		GamePk:       gamePk,
		Text:         draft.Text,
		Options:      draft.Options,
		CorrectIndex: draft.CorrectIndex,
		Category:     draft.Category,
		Detail:       draft.Detail,
		CreatedAt:    now,
		RevealAt:     now.Add(s.cfg.RevealDelay),
		ExpiresAt:    now.Add(s.cfg.Lifetime),
	}
	stored, err := s.questions.InsertQuestion(ctx, q)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// RecordVote validates and records a participant's vote, crediting the
// score ledger when the answer is already revealed and correct. Crediting
// is idempotent per (game, participant, question): repeat submissions and
// concurrent duplicates resolve to the same end state as a single vote.
func (s *QuizService) RecordVote(ctx context.Context, gamePk int64, questionID, participant string, optionIndex int) (domain.VoteResult, error) {
	if gamePk <= 0 {
		return domain.VoteResult{}, domain.ErrInvalidGame
	}
	participant = strings.TrimSpace(participant)
	if participant == "" {
		return domain.VoteResult{}, domain.ErrInvalidParticipant
	}

	q, ok, err := s.questions.Question(ctx, gamePk, questionID)
	if err != nil {
		return domain.VoteResult{}, err
	}
	if !ok {
		return domain.VoteResult{}, domain.ErrQuestionNotFound
	}
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return domain.VoteResult{}, domain.ErrInvalidOption
	}

	now := s.clock()
	if q.Expired(now) {
		return domain.VoteResult{}, domain.ErrQuestionExpired
	}

	vote := domain.Vote{
		QuestionID:  q.ID,
		GamePk:      gamePk,
		Participant: participant,
		OptionIndex: optionIndex,
		VotedAt:     now,
	}
	revealed := q.Revealed(now)
	if revealed {
		correct := optionIndex == *q.CorrectIndex
		vote.Correct = &correct
	}
	if err := s.votes.UpsertVote(ctx, vote); err != nil {
		return domain.VoteResult{}, err
	}

	result := domain.VoteResult{Accepted: true}
	if revealed {
		result.Correct = vote.Correct
		result.CorrectIndex = q.CorrectIndex
	}
	if revealed && *vote.Correct {
		_, score, err := s.scores.CreditOnce(ctx, gamePk, participant, q.ID)
		if err != nil {
			return domain.VoteResult{}, err
		}
		result.MyScore = score
		return result, nil
	}

	score, err := s.scores.Score(ctx, gamePk, participant)
	if err != nil {
		return domain.VoteResult{}, err
	}
	result.MyScore = score
	return result, nil
}

// Score returns a participant's accumulated score for a game, zero when absent.
func (s *QuizService) Score(ctx context.Context, gamePk int64, participant string) (int, error) {
	if gamePk <= 0 {
		return 0, domain.ErrInvalidGame
	}
	participant = strings.TrimSpace(participant)
	if participant == "" {
		return 0, domain.ErrInvalidParticipant
	}
	return s.scores.Score(ctx, gamePk, participant)
}

// Leaderboard returns the top n participants for a game, sorted by score
// descending with ties broken by participant name ascending so repeated
// calls rank identically.
func (s *QuizService) Leaderboard(ctx context.Context, gamePk int64, n int) ([]domain.LeaderboardEntry, error) {
	if gamePk <= 0 {
		return nil, domain.ErrInvalidGame
	}
	if n <= 0 {
		n = s.cfg.LeaderboardSize
	}
	entries, err := s.scores.TopScores(ctx, gamePk)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Participant < entries[j].Participant
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}
