package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrTooManyAttempts is returned when submission stays blocked after the
	// configured number of correction rounds.
	ErrTooManyAttempts = errors.New("tui: submission still blocked")
)
