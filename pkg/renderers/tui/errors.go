package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrDeclined is returned when the user gives up after a failed submission.
	ErrDeclined = errors.New("tui: registration not completed")
)
