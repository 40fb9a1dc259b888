package models

import (
	"errors"
	"fmt"
)

var (
	ErrBookingNotFound = errors.New("models: booking not found")
	ErrChatNotFound    = errors.New("models: chat not found")
	ErrServiceNotFound = errors.New("models: service not found")
	ErrUserNotFound    = errors.New("models: user not found")
	ErrMessageNotFound = errors.New("models: message not found")

	ErrForbidden      = errors.New("forbidden")
	ErrInvalidState   = errors.New("invalid state for operation")
	ErrInvalidRequest = errors.New("invalid request")

	// ErrConflict is surfaced when a precondition-guarded write loses a race
	// against a concurrent transition. Safe to retry from the caller.
	ErrConflict = errors.New("concurrent update conflict")

	ErrInvalidCredentials = errors.New("models: invalid credentials")
	ErrDuplicatePhone     = errors.New("models: duplicate phone number")
)

// ChatClosedError rejects a write on a closed chat and echoes why it closed,
// so clients can distinguish "booking completed" from "booking cancelled".
type ChatClosedError struct {
	Reason ChatClosedReason
}

func (e *ChatClosedError) Error() string {
	return fmt.Sprintf("chat is closed (%s)", e.Reason)
}

func (e *ChatClosedError) Unwrap() error { return ErrInvalidState }

// BlockedError rejects messaging between blocked users. ByCaller is true when
// the caller blocked the peer, false when the peer blocked the caller.
type BlockedError struct {
	ByCaller bool
}

func (e *BlockedError) Error() string {
	if e.ByCaller {
		return "cannot send messages to blocked user"
	}
	return "cannot send messages: you have been blocked by this user"
}

func (e *BlockedError) Unwrap() error { return ErrForbidden }
