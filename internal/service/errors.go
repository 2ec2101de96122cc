package service

import "errors"

// Sentinel errors returned by the services. The HTTP layer maps each one to a
// status code; callers branch with errors.Is.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrCommentNotFound = errors.New("comment not found")

	ErrDuplicateEmail    = errors.New("email already in use")
	ErrDuplicateUsername = errors.New("username already in use")

	ErrAlreadyRegistered = errors.New("already registered for event")
	ErrEventFull         = errors.New("event is full")
	ErrDeadlinePassed    = errors.New("registration deadline passed")
	ErrEventInPast       = errors.New("event is in the past")
	ErrNotRegistered     = errors.New("not registered for event")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	ErrInvalidInput = errors.New("invalid input")
)
