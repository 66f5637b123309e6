package domain

import "time"

// Question is a single trivia prompt scoped to one game. Questions are
// immutable once stored; rotation supersedes them, it never edits them.
type Question struct {
	ID           string    `json:"id"`
	GamePk       int64     `json:"gamePk"`
	Text         string    `json:"text"`
	Options      []string  `json:"options"`
	CorrectIndex *int      `json:"correctIndex,omitempty"` // nil for engagement-only questions
	Category     string    `json:"category"`               // template that produced it, e.g. "batter-stat"
	Detail       string    `json:"detail,omitempty"`       // extra context line for clients
	CreatedAt    time.Time `json:"createdAt"`
	RevealAt     time.Time `json:"revealAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Revealed reports whether the correct answer is disclosable at now.
// The boundary is inclusive: at exactly RevealAt the answer is revealed.
func (q Question) Revealed(now time.Time) bool {
	return q.CorrectIndex != nil && !now.Before(q.RevealAt)
}

// Expired reports whether voting is closed at now. Votes are accepted
// through ExpiresAt itself (inclusive); only strictly-later votes are
// rejected.
func (q Question) Expired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}

// QuestionDraft is generator output before the lifecycle manager stamps
// identity and timing onto it.
type QuestionDraft struct {
	Text         string
	Options      []string
	CorrectIndex *int
	Category     string
	Detail       string
}

// Vote records one participant's choice on one question. The
// (QuestionID, Participant) pair is unique; a repeat vote overwrites the
// choice rather than creating a duplicate.
type Vote struct {
	QuestionID  string    `json:"questionId"`
	GamePk      int64     `json:"gamePk"`
	Participant string    `json:"participant"`
	OptionIndex int       `json:"optionIndex"`
	Correct     *bool     `json:"correct,omitempty"` // resolved at vote time if already revealed
	VotedAt     time.Time `json:"votedAt"`
}

// VoteResult is what the vote endpoint reports back to the caller.
// Correct and CorrectIndex stay nil until the question is revealed.
type VoteResult struct {
	Accepted     bool  `json:"accepted"`
	Correct      *bool `json:"correct"`
	CorrectIndex *int  `json:"correctIndex"`
	MyScore      int   `json:"myScore"`
}

// LeaderboardEntry is one row of a game's scoreboard.
type LeaderboardEntry struct {
	Participant string `json:"name"`
	Score       int    `json:"score"`
}

// PlayerRef identifies a live batter or pitcher.
type PlayerRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LiveContext is the normalized snapshot of a game's current state,
// sourced from the upstream feed and cached behind a staleness window.
type LiveContext struct {
	GamePk     int64      `json:"gamePk"`
	Status     string     `json:"status"`
	Inning     int        `json:"inning"`
	InningDesc string     `json:"inningDesc"`
	Balls      int        `json:"balls"`
	Strikes    int        `json:"strikes"`
	Outs       int        `json:"outs"`
	Batter     *PlayerRef `json:"batter,omitempty"`
	Pitcher    *PlayerRef `json:"pitcher,omitempty"`
	OnFirst    bool       `json:"onFirst"`
	OnSecond   bool       `json:"onSecond"`
	OnThird    bool       `json:"onThird"`
	HomeTeam   string     `json:"homeTeam"`
	AwayTeam   string     `json:"awayTeam"`
	HomeRuns   int        `json:"homeRuns"`
	AwayRuns   int        `json:"awayRuns"`
	HomeHits   int        `json:"homeHits"`
	AwayHits   int        `json:"awayHits"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// StatGroup selects which side of the box score a stat line covers.
type StatGroup string

const (
	StatGroupHitting  StatGroup = "hitting"
	StatGroupPitching StatGroup = "pitching"
)

// SeasonStats is a player's season aggregate line. Counting stats are
// pointers so a missing field is distinguishable from a zero; rate stats
// keep the feed's string formatting (".274", "3.15").
type SeasonStats struct {
	HomeRuns    *int
	RBI         *int
	StolenBases *int
	Runs        *int
	Hits        *int
	StrikeOuts  *int
	Wins        *int
	Saves       *int
	AVG         string
	OPS         string
	ERA         string
}

// BankQuestion is one entry of the static fallback bank used when no
// live-stat template can produce a question.
type BankQuestion struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Game is an ingested schedule entry.
type Game struct {
	GamePk    int64     `json:"gamePk"`
	Date      string    `json:"date"` // YYYY-MM-DD
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	Status    string    `json:"status"`
	StartTime time.Time `json:"startTime"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChatMessage is one line of a game's chat history.
type ChatMessage struct {
	GamePk int64     `json:"gamePk"`
	Name   string    `json:"name"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}
