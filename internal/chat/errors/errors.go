package errors

import "errors"

var (
	ErrSessionNotFound = errors.New("chat session not found")

	ErrIdentityRequired = errors.New("name and email are required before chatting")

	ErrIdentityLocked = errors.New("identity has already been submitted for this session")

	ErrEmptyMessage = errors.New("message cannot be empty")

	ErrExchangeInFlight = errors.New("another exchange is already in flight")

	ErrNoActiveForm = errors.New("no active booking form")

	ErrNoPendingConfirmation = errors.New("no submitted booking is awaiting confirmation")

	ErrUnknownQuickAction = errors.New("unknown quick action")

	ErrUnknownChoice = errors.New("unknown booking choice")

	ErrSessionClosed = errors.New("chat session is closed")
)
