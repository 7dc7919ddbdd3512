package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput          = errors.New("input is empty")
	ErrTurnInFlight        = errors.New("a turn is already in flight")
	ErrSessionClosed       = errors.New("session is closed")
	ErrSessionNotFound     = errors.New("session not found")
	ErrJournalNotAvailable = errors.New("journal store not configured")
)

// RejectionError is returned when the first message of a task reads as a question.
type RejectionError struct {
	Reason  string // "question"
	Message string // user-facing
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("rejected (%s): %s", e.Reason, e.Message)
}

// GenerationError wraps a transport or backend failure of the response generator.
type GenerationError struct {
	Mode TurnMode
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s reply: %v", e.Mode, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// MalformedOutputError is returned when generated text lacks the structure a mode requires.
type MalformedOutputError struct {
	Raw string
}

func (e *MalformedOutputError) Error() string {
	return "generator returned malformed output"
}

// IsRejection reports whether err is a *RejectionError and returns it.
func IsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
