package repositories

import (
	"context"
	"database/sql"
	"time"

	"hirelyBack/internal/models"
)

type MessageRepository struct {
	Db *sql.DB
}

const messageColumns = `id, chat_id, sender_id, receiver_id, message_type,
        text, voice_url, image_url, latitude, longitude, address, ref_service_id,
        created_at, is_read, read_at, delivered_at`

// AppendMessage inserts a single message row. Appends are additive, so
// concurrent messages from both participants never overwrite each other.
func (r *MessageRepository) AppendMessage(ctx context.Context, msg models.Message) error {
	var (
		lat, lon *float64
		addr     *string
	)
	if msg.Content.Location != nil {
		lat = &msg.Content.Location.Latitude
		lon = &msg.Content.Location.Longitude
		if msg.Content.Location.Address != "" {
			addr = &msg.Content.Location.Address
		}
	}
	_, err := r.Db.ExecContext(ctx, `
        INSERT INTO messages
            (id, chat_id, sender_id, receiver_id, message_type,
             text, voice_url, image_url, latitude, longitude, address, ref_service_id,
             created_at, is_read)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		msg.ID, msg.ChatID, msg.SenderID, msg.ReceiverID, string(msg.Type),
		nullIfEmpty(msg.Content.Text), nullIfEmpty(msg.Content.VoiceURL), nullIfEmpty(msg.Content.ImageURL),
		lat, lon, addr, msg.Content.ServiceID,
		msg.CreatedAt)
	return err
}

func (r *MessageRepository) GetMessagesForChat(ctx context.Context, chatID, page, pageSize int) ([]models.Message, error) {
	offset := (page - 1) * pageSize
	rows, err := r.Db.QueryContext(ctx, `
        SELECT `+messageColumns+`
        FROM messages
        WHERE chat_id = ?
        ORDER BY created_at ASC
        LIMIT ? OFFSET ?`,
		chatID, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// MarkDelivered stamps delivered_at on every message addressed to the caller
// that has no stamp yet and returns how many rows this call updated.
func (r *MessageRepository) MarkDelivered(ctx context.Context, chatID, receiverID int) (int, error) {
	res, err := r.Db.ExecContext(ctx, `
        UPDATE messages
        SET delivered_at = ?
        WHERE chat_id = ? AND receiver_id = ? AND delivered_at IS NULL`,
		time.Now(), chatID, receiverID)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	return int(rows), err
}

// MarkRead marks every unread message from the other party as read (stamping
// delivery along the way) and returns how many rows this call updated.
func (r *MessageRepository) MarkRead(ctx context.Context, chatID, receiverID int) (int, error) {
	now := time.Now()
	res, err := r.Db.ExecContext(ctx, `
        UPDATE messages
        SET is_read = 1, read_at = ?, delivered_at = COALESCE(delivered_at, ?)
        WHERE chat_id = ? AND receiver_id = ? AND is_read = 0`,
		now, now, chatID, receiverID)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	return int(rows), err
}

func (r *MessageRepository) CountUnread(ctx context.Context, chatID, receiverID int) (int, error) {
	var count int
	err := r.Db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE chat_id = ? AND receiver_id = ? AND is_read = 0`,
		chatID, receiverID).Scan(&count)
	return count, err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scanMessage(row rowScanner) (models.Message, error) {
	var (
		msg          models.Message
		messageType  string
		text         sql.NullString
		voiceURL     sql.NullString
		imageURL     sql.NullString
		lat, lon     sql.NullFloat64
		addr         sql.NullString
		refServiceID sql.NullInt64
		readAt       sql.NullTime
		deliveredAt  sql.NullTime
	)
	err := row.Scan(
		&msg.ID, &msg.ChatID, &msg.SenderID, &msg.ReceiverID, &messageType,
		&text, &voiceURL, &imageURL, &lat, &lon, &addr, &refServiceID,
		&msg.CreatedAt, &msg.IsRead, &readAt, &deliveredAt,
	)
	if err != nil {
		return models.Message{}, err
	}
	msg.Type = models.MessageType(messageType)
	msg.Content.Text = text.String
	msg.Content.VoiceURL = voiceURL.String
	msg.Content.ImageURL = imageURL.String
	if lat.Valid && lon.Valid {
		msg.Content.Location = &models.MessageLocationData{
			Latitude:  lat.Float64,
			Longitude: lon.Float64,
			Address:   addr.String,
		}
	}
	if refServiceID.Valid {
		id := int(refServiceID.Int64)
		msg.Content.ServiceID = &id
	}
	if readAt.Valid {
		t := readAt.Time
		msg.ReadAt = &t
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		msg.DeliveredAt = &t
	}
	return msg, nil
}
