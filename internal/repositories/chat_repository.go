package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"hirelyBack/internal/booking/fsm"
	"hirelyBack/internal/models"
)

type ChatRepository struct {
	Db *sql.DB
}

const chatColumns = `id, user1_id, user2_id, service_id, booking_id, status,
        closed_at, closed_reason, last_message_at, created_at`

func (r *ChatRepository) CreateChat(ctx context.Context, chat models.Chat) (models.Chat, error) {
	now := time.Now()
	res, err := r.Db.ExecContext(ctx, `
        INSERT INTO chats (user1_id, user2_id, service_id, booking_id, status, last_message_at, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		chat.User1ID, chat.User2ID, chat.ServiceID, chat.BookingID, chat.Status, now, now)
	if err != nil {
		// unique pair index: a concurrent create won, reuse its row
		if strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return r.GetChatByParticipants(ctx, chat.User1ID, chat.User2ID)
		}
		return models.Chat{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Chat{}, err
	}
	chat.ID = int(id)
	chat.LastMessageAt = now
	chat.CreatedAt = now
	return chat, nil
}

func (r *ChatRepository) GetChatByID(ctx context.Context, id int) (models.Chat, error) {
	row := r.Db.QueryRowContext(ctx, `SELECT `+chatColumns+` FROM chats WHERE id = ?`, id)
	chat, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, models.ErrChatNotFound
	}
	return chat, err
}

// GetChatByParticipants returns the most recent chat between a user pair,
// regardless of which side created it.
func (r *ChatRepository) GetChatByParticipants(ctx context.Context, user1ID, user2ID int) (models.Chat, error) {
	row := r.Db.QueryRowContext(ctx, `
        SELECT `+chatColumns+`
        FROM chats
        WHERE (user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)
        ORDER BY created_at DESC
        LIMIT 1`,
		user1ID, user2ID, user2ID, user1ID)
	chat, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, models.ErrChatNotFound
	}
	return chat, err
}

func (r *ChatRepository) ListChatsByUser(ctx context.Context, userID int) ([]models.Chat, error) {
	rows, err := r.Db.QueryContext(ctx, `
        SELECT `+chatColumns+`
        FROM chats
        WHERE user1_id = ? OR user2_id = ?
        ORDER BY last_message_at DESC`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chats := []models.Chat{}
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// AttachBooking repoints the chat at the booking currently driving it.
func (r *ChatRepository) AttachBooking(ctx context.Context, chatID, bookingID int, serviceID *int) error {
	_, err := r.Db.ExecContext(ctx,
		`UPDATE chats SET booking_id = ?, service_id = COALESCE(?, service_id) WHERE id = ?`,
		bookingID, serviceID, chatID)
	return err
}

// ReopenChat brings a closed chat back to the given status with a new driving
// booking. The closed guard rejects reopening a chat something else revived.
func (r *ChatRepository) ReopenChat(ctx context.Context, chatID, bookingID int, serviceID *int, status string) error {
	res, err := r.Db.ExecContext(ctx, `
        UPDATE chats
        SET status = ?, booking_id = ?, service_id = COALESCE(?, service_id),
            closed_at = NULL, closed_reason = NULL
        WHERE id = ? AND status = ?`,
		status, bookingID, serviceID, chatID, fsm.ChatClosed)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

// ActivateChat opens the messaging window on acceptance. Closed chats are
// never activated this way.
func (r *ChatRepository) ActivateChat(ctx context.Context, chatID int) error {
	res, err := r.Db.ExecContext(ctx,
		`UPDATE chats SET status = ? WHERE id = ? AND status <> ?`,
		fsm.ChatActive, chatID, fsm.ChatClosed)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

// PromoteIfPending flips a pending chat to active; reports whether this call
// performed the flip.
func (r *ChatRepository) PromoteIfPending(ctx context.Context, chatID int) (bool, error) {
	err := fsm.ApplyChat(ctx, r.Db, chatID, fsm.ChatPending, fsm.ChatActive)
	if errors.Is(err, fsm.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CloseChat closes the messaging window. Idempotent: closing an already
// closed chat is a no-op.
func (r *ChatRepository) CloseChat(ctx context.Context, chatID int, reason models.ChatClosedReason, at time.Time) error {
	_, err := r.Db.ExecContext(ctx, `
        UPDATE chats
        SET status = ?, closed_at = ?, closed_reason = ?
        WHERE id = ? AND status <> ?`,
		fsm.ChatClosed, at, string(reason), chatID, fsm.ChatClosed)
	return err
}

func (r *ChatRepository) TouchLastMessage(ctx context.Context, chatID int, at time.Time) error {
	_, err := r.Db.ExecContext(ctx, `UPDATE chats SET last_message_at = ? WHERE id = ?`, at, chatID)
	return err
}

func scanChat(row rowScanner) (models.Chat, error) {
	var (
		chat         models.Chat
		serviceID    sql.NullInt64
		bookingID    sql.NullInt64
		closedAt     sql.NullTime
		closedReason sql.NullString
	)
	err := row.Scan(
		&chat.ID, &chat.User1ID, &chat.User2ID, &serviceID, &bookingID,
		&chat.Status, &closedAt, &closedReason, &chat.LastMessageAt, &chat.CreatedAt,
	)
	if err != nil {
		return models.Chat{}, err
	}
	if serviceID.Valid {
		id := int(serviceID.Int64)
		chat.ServiceID = &id
	}
	if bookingID.Valid {
		id := int(bookingID.Int64)
		chat.BookingID = &id
	}
	if closedAt.Valid {
		t := closedAt.Time
		chat.ClosedAt = &t
	}
	chat.ClosedReason = models.ChatClosedReason(closedReason.String)
	return chat, nil
}
