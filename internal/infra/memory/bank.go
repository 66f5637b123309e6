package memory

import (
	"context"

	"gameday-trivia-service/internal/domain"
)

// StaticBankLoader serves a fixed fallback bank (useful for tests/demos
// and for running without Postgres).
type StaticBankLoader struct {
	bank []domain.BankQuestion
}

func NewStaticBankLoader(bank []domain.BankQuestion) *StaticBankLoader {
	return &StaticBankLoader{bank: bank}
}

func (l *StaticBankLoader) LoadBank(_ context.Context) ([]domain.BankQuestion, error) {
	return append([]domain.BankQuestion(nil), l.bank...), nil
}

// DefaultBank is the built-in definitional question set used when no
// durable bank is configured.
func DefaultBank() []domain.BankQuestion {
	return []domain.BankQuestion{
		{
			Text: "What does ERA stand for?",
			Options: []string{
				"Earned Run Average",
				"Eventual Runs Against",
				"Extra Runs Allowed",
				"Estimated Run Average",
			},
			CorrectIndex: 0,
		},
		{
			Text: "What is WHIP?",
			Options: []string{
				"Walks + Hits per Inning Pitched",
				"Wins per Inning Pitched",
				"Wild pitches per Inning",
				"Walks per 9 innings",
			},
			CorrectIndex: 0,
		},
		{
			Text: "What does OPS combine?",
			Options: []string{
				"On-base percentage and slugging",
				"Outs per strikeout",
				"Overall pitching score",
				"On-base plus steals",
			},
			CorrectIndex: 0,
		},
		{
			Text: "How many outs end a half-inning?",
			Options: []string{"2", "3", "4", "6"},
			CorrectIndex: 1,
		},
		{
			Text: "A batter hits for the cycle when they collect which hits in one game?",
			Options: []string{
				"Single, double, triple, home run",
				"Four home runs",
				"Three singles and a walk",
				"A hit in every inning",
			},
			CorrectIndex: 0,
		},
	}
}
