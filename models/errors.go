package models

import "errors"

var (
	// ErrNotFound is returned when an identifier does not resolve to a stored user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidAction is returned for an action outside the allowed set or a self-action.
	ErrInvalidAction = errors.New("invalid action")
	// ErrProfileIncomplete is returned when the user has no stored preference profile.
	ErrProfileIncomplete = errors.New("incomplete profile")
)
