package session

import "errors"

var (
	// ErrEmptyMessage rejects blank user submissions.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrTooManyPending rejects submits while the turn queue is full.
	ErrTooManyPending = errors.New("too many pending requests")
)
