package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrTooManyAttempts is returned when a field was answered with invalid
	// values more often than the configured limit.
	ErrTooManyAttempts = errors.New("prompt: too many invalid answers")
)
