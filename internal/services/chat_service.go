package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"hirelyBack/internal/booking/fsm"
	"hirelyBack/internal/models"
)

// ChatService guards every write to a chat. Admission checks run in a fixed
// order so the caller always gets the most fundamental refusal first:
// participant, block, booking link, open window, content shape.
type ChatService struct {
	ChatRepo    ChatStore
	MessageRepo MessageStore
	UserRepo    UserDirectory
	Unread      UnreadCounter
	Notifier    Notifier
	Pusher      MessagePusher

	Clock func() time.Time
}

// UnreadCounter is the redis-backed unread counter. All methods are
// best-effort; a nil counter disables the feature.
type UnreadCounter interface {
	Increment(ctx context.Context, userID, chatID int) error
	Reset(ctx context.Context, userID, chatID int) error
	Get(ctx context.Context, userID, chatID int) (int, error)
}

func (s *ChatService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// SendMessage runs the admission pipeline and, on success, appends the
// message, promotes a pending chat to active and fans out delivery.
func (s *ChatService) SendMessage(ctx context.Context, senderID int, req models.SendMessageRequest) (models.Message, error) {
	chat, err := s.ChatRepo.GetChatByID(ctx, req.ChatID)
	if err != nil {
		return models.Message{}, err
	}
	if !chat.HasParticipant(senderID) {
		return models.Message{}, fmt.Errorf("%w: not a participant of this chat", models.ErrForbidden)
	}
	receiverID := chat.OtherParticipant(senderID)

	blocks, err := s.UserRepo.GetBlockStatus(ctx, senderID, receiverID)
	if err != nil {
		return models.Message{}, err
	}
	if blocks.CallerBlockedPeer {
		return models.Message{}, &models.BlockedError{ByCaller: true}
	}
	if blocks.PeerBlockedCaller {
		return models.Message{}, &models.BlockedError{ByCaller: false}
	}

	if chat.BookingID == nil {
		return models.Message{}, fmt.Errorf("%w: chat requires an active booking", models.ErrInvalidState)
	}
	if chat.Status == fsm.ChatClosed {
		return models.Message{}, &models.ChatClosedError{Reason: chat.ClosedReason}
	}
	if err := validateContent(req.Type, req.Content); err != nil {
		return models.Message{}, err
	}

	now := s.now()
	msg := models.Message{
		ID:         uuid.New().String(),
		ChatID:     chat.ID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Type:       req.Type,
		Content:    req.Content,
		CreatedAt:  now,
	}
	if err := s.MessageRepo.AppendMessage(ctx, msg); err != nil {
		return models.Message{}, err
	}
	if err := s.ChatRepo.TouchLastMessage(ctx, chat.ID, now); err != nil {
		log.Printf("touch last message for chat %d: %v", chat.ID, err)
	}
	if chat.Status == fsm.ChatPending {
		if _, err := s.ChatRepo.PromoteIfPending(ctx, chat.ID); err != nil {
			log.Printf("promote chat %d: %v", chat.ID, err)
		}
	}
	if s.Unread != nil {
		if err := s.Unread.Increment(ctx, receiverID, chat.ID); err != nil {
			log.Printf("unread counter for user %d chat %d: %v", receiverID, chat.ID, err)
		}
	}

	if s.Pusher != nil && s.Pusher.Push(receiverID, msg) {
		now := s.now()
		if _, err := s.MessageRepo.MarkDelivered(ctx, chat.ID, receiverID); err != nil {
			log.Printf("mark delivered for chat %d: %v", chat.ID, err)
		} else {
			msg.DeliveredAt = &now
		}
	} else if s.Notifier != nil {
		s.Notifier.NewMessage(ctx, msg)
	}
	return msg, nil
}

func validateContent(t models.MessageType, c models.MessageContent) error {
	switch t {
	case models.MessageText:
		if strings.TrimSpace(c.Text) == "" {
			return fmt.Errorf("%w: text message requires text", models.ErrInvalidRequest)
		}
	case models.MessageVoice:
		if c.VoiceURL == "" {
			return fmt.Errorf("%w: voice message requires voice_url", models.ErrInvalidRequest)
		}
	case models.MessageImage:
		if c.ImageURL == "" {
			return fmt.Errorf("%w: image message requires image_url", models.ErrInvalidRequest)
		}
	case models.MessageLocation:
		if c.Location == nil {
			return fmt.Errorf("%w: location message requires coordinates", models.ErrInvalidRequest)
		}
	case models.MessageBookingRequest:
		if c.ServiceID == nil {
			return fmt.Errorf("%w: booking request message requires service_id", models.ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown message type %q", models.ErrInvalidRequest, t)
	}
	return nil
}

// MarkDelivered stamps every undelivered message addressed to the caller.
// Idempotent; returns how many messages this call stamped.
func (s *ChatService) MarkDelivered(ctx context.Context, chatID, userID int) (int, error) {
	chat, err := s.ChatRepo.GetChatByID(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if !chat.HasParticipant(userID) {
		return 0, fmt.Errorf("%w: not a participant of this chat", models.ErrForbidden)
	}
	return s.MessageRepo.MarkDelivered(ctx, chatID, userID)
}

// MarkRead marks all of the caller's incoming messages read and resets the
// unread counter. Idempotent; returns how many messages flipped.
func (s *ChatService) MarkRead(ctx context.Context, chatID, userID int) (int, error) {
	chat, err := s.ChatRepo.GetChatByID(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if !chat.HasParticipant(userID) {
		return 0, fmt.Errorf("%w: not a participant of this chat", models.ErrForbidden)
	}
	n, err := s.MessageRepo.MarkRead(ctx, chatID, userID)
	if err != nil {
		return 0, err
	}
	if s.Unread != nil {
		if err := s.Unread.Reset(ctx, userID, chatID); err != nil {
			log.Printf("reset unread for user %d chat %d: %v", userID, chatID, err)
		}
	}
	return n, nil
}

// Reopen revives a closed chat for a new booking between the same pair.
// The chat comes back active; closed bookkeeping is cleared.
func (s *ChatService) Reopen(ctx context.Context, chatID, userID, bookingID int) (models.Chat, error) {
	chat, err := s.ChatRepo.GetChatByID(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	if !chat.HasParticipant(userID) {
		return models.Chat{}, fmt.Errorf("%w: not a participant of this chat", models.ErrForbidden)
	}
	if chat.Status != fsm.ChatClosed {
		return models.Chat{}, fmt.Errorf("%w: only closed chats can be reopened", models.ErrInvalidState)
	}
	if err := s.ChatRepo.ReopenChat(ctx, chat.ID, bookingID, nil, fsm.ChatActive); err != nil {
		return models.Chat{}, err
	}
	chat.Status = fsm.ChatActive
	chat.BookingID = &bookingID
	chat.ClosedAt = nil
	chat.ClosedReason = ""
	return chat, nil
}

// GetChat returns a chat visible only to its participants.
func (s *ChatService) GetChat(ctx context.Context, chatID, userID int) (models.Chat, error) {
	chat, err := s.ChatRepo.GetChatByID(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	if !chat.HasParticipant(userID) {
		return models.Chat{}, fmt.Errorf("%w: not a participant of this chat", models.ErrForbidden)
	}
	return chat, nil
}

func (s *ChatService) ListChats(ctx context.Context, userID int) ([]models.Chat, error) {
	return s.ChatRepo.ListChatsByUser(ctx, userID)
}

// GetMessages pages through a chat's history, oldest first.
func (s *ChatService) GetMessages(ctx context.Context, chatID, userID, page, pageSize int) ([]models.Message, error) {
	chat, err := s.ChatRepo.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: not a participant of this chat", models.ErrForbidden)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.MessageRepo.GetMessagesForChat(ctx, chatID, page, pageSize)
}

// UnreadCount prefers the redis counter and falls back to the messages table.
func (s *ChatService) UnreadCount(ctx context.Context, chatID, userID int) (int, error) {
	chat, err := s.ChatRepo.GetChatByID(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if !chat.HasParticipant(userID) {
		return 0, fmt.Errorf("%w: not a participant of this chat", models.ErrForbidden)
	}
	if s.Unread != nil {
		if n, err := s.Unread.Get(ctx, userID, chatID); err == nil && n > 0 {
			return n, nil
		}
	}
	return s.MessageRepo.CountUnread(ctx, chatID, userID)
}
