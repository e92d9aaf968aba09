package service

import "errors"

// Domain errors shared across services. Handlers translate them to API
// error codes.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBanned      = errors.New("account banned")
	ErrSessionInvalid     = errors.New("session invalidated")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInviteCode  = errors.New("invalid invite code")
	ErrNotParticipant     = errors.New("not a conversation participant")
	ErrNoParticipants     = errors.New("conversation needs another participant")
	ErrNoQuestions        = errors.New("quiz has no questions")
	ErrInvalidQuestion    = errors.New("correct_index out of range")
	ErrUnknownTable       = errors.New("unknown table")
	ErrEmptyQuery         = errors.New("empty query")
	ErrActionForbidden    = errors.New("action not allowed")
)
