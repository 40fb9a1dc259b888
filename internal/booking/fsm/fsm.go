package fsm

import (
	"context"
	"database/sql"
	"errors"

	"hirelyBack/internal/models"
)

// Booking status constants used by the booking state machine.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Chat status constants used by the conversation projection.
const (
	ChatPending = "pending"
	ChatActive  = "active"
	ChatClosed  = "closed"
)

// ErrConflict is returned by Apply when the optimistic precondition no longer
// holds, i.e. a concurrent transition won the race.
var ErrConflict = models.ErrConflict

var bookingTransitions = map[string]map[string]struct{}{
	StatusPending: {
		StatusConfirmed: {},
		StatusCancelled: {},
	},
	StatusConfirmed: {
		StatusInProgress: {},
		StatusCompleted:  {},
		StatusCancelled:  {},
	},
	StatusInProgress: {
		StatusCompleted: {},
		StatusCancelled: {},
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

var chatTransitions = map[string]map[string]struct{}{
	ChatPending: {
		ChatActive: {},
		ChatClosed: {},
	},
	ChatActive: {
		ChatClosed: {},
	},
	ChatClosed: {
		// A closed chat is reopened when a new booking links to it.
		ChatPending: {},
		ChatActive:  {},
	},
}

// CanTransition returns whether a booking can move from one status to another.
// The graph is monotonic: completed and cancelled are terminal.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	allowed, ok := bookingTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// ChatCanTransition returns whether a chat can move from one status to another.
func ChatCanTransition(from, to string) bool {
	if from == to {
		return true
	}
	allowed, ok := chatTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// IsTerminal reports whether a booking status admits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// Execer is the subset of database/sql used by Apply. Both *sql.DB and
// *sql.Tx satisfy it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Apply updates a booking status using optimistic validation: the write only
// lands if the row still carries the observed status.
func Apply(ctx context.Context, db Execer, bookingID int, fromStatus, toStatus string) error {
	if !CanTransition(fromStatus, toStatus) {
		return errors.New("fsm: invalid booking status transition")
	}
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?`,
		toStatus, bookingID, fromStatus)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConflict
	}
	return nil
}

// ApplyChat is Apply for the chats table.
func ApplyChat(ctx context.Context, db Execer, chatID int, fromStatus, toStatus string) error {
	if !ChatCanTransition(fromStatus, toStatus) {
		return errors.New("fsm: invalid chat status transition")
	}
	res, err := db.ExecContext(ctx,
		`UPDATE chats SET status = ? WHERE id = ? AND status = ?`,
		toStatus, chatID, fromStatus)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConflict
	}
	return nil
}
