package domain

import "errors"

var (
	// ErrInvalidGame is returned when a game id cannot be parsed or is non-positive.
	ErrInvalidGame = errors.New("bad gamePk")
	// ErrInvalidParticipant is returned when a vote carries no participant name.
	ErrInvalidParticipant = errors.New("participant name required")
	// ErrInvalidOption is returned when a vote's option index is outside the question's options.
	ErrInvalidOption = errors.New("option index out of range")
	// ErrQuestionNotFound indicates the question id is unknown or belongs to another game.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuestionExpired rejects votes submitted after the voting window closed.
	ErrQuestionExpired = errors.New("question expired")
	// ErrGameNotFound indicates no ingested schedule entry for the game.
	ErrGameNotFound = errors.New("game not found")
)
