package services

import (
	"context"
	"time"

	"hirelyBack/internal/models"
)

// Storage interfaces are declared here, next to the services that consume
// them, so tests can swap in-memory fakes for the SQL repositories.

type BookingStore interface {
	CreateBooking(ctx context.Context, b models.Booking) (models.Booking, error)
	GetBookingByID(ctx context.Context, id int) (models.Booking, error)
	ListBookingsByUser(ctx context.Context, userID int, status string, page, pageSize int) ([]models.Booking, error)
	LinkConversation(ctx context.Context, bookingID, chatID int) error
	MarkAccepted(ctx context.Context, id int, at time.Time) error
	MarkCancelled(ctx context.Context, id int, from string, by models.Role, reason string) error
	MarkCompletionInitiated(ctx context.Context, id int, by models.Role, at time.Time) error
	MarkCompleted(ctx context.Context, id int, by models.Role, at time.Time) error
	MarkInProgress(ctx context.Context, id int) error
}

type ChatStore interface {
	CreateChat(ctx context.Context, chat models.Chat) (models.Chat, error)
	GetChatByID(ctx context.Context, id int) (models.Chat, error)
	GetChatByParticipants(ctx context.Context, userA, userB int) (models.Chat, error)
	ListChatsByUser(ctx context.Context, userID int) ([]models.Chat, error)
	AttachBooking(ctx context.Context, chatID, bookingID int, serviceID *int) error
	ReopenChat(ctx context.Context, chatID, bookingID int, serviceID *int, toStatus string) error
	ActivateChat(ctx context.Context, chatID int) error
	PromoteIfPending(ctx context.Context, chatID int) (bool, error)
	CloseChat(ctx context.Context, chatID int, reason models.ChatClosedReason, at time.Time) error
	TouchLastMessage(ctx context.Context, chatID int, at time.Time) error
}

type MessageStore interface {
	AppendMessage(ctx context.Context, msg models.Message) error
	GetMessagesForChat(ctx context.Context, chatID, page, pageSize int) ([]models.Message, error)
	MarkDelivered(ctx context.Context, chatID, receiverID int) (int, error)
	MarkRead(ctx context.Context, chatID, receiverID int) (int, error)
	CountUnread(ctx context.Context, chatID, receiverID int) (int, error)
}

type ServiceStore interface {
	GetServiceByID(ctx context.Context, id int) (models.Service, error)
	IncrementBookings(ctx context.Context, id int) error
}

type UserDirectory interface {
	GetUserByID(ctx context.Context, id int) (models.User, error)
	GetBlockStatus(ctx context.Context, callerID, peerID int) (models.BlockStatus, error)
}

// Notifier delivers push notifications. Implementations must not fail the
// calling operation; delivery errors are logged and swallowed.
type Notifier interface {
	BookingCreated(ctx context.Context, b models.Booking)
	BookingAccepted(ctx context.Context, b models.Booking)
	BookingCancelled(ctx context.Context, b models.Booking)
	BookingCompleted(ctx context.Context, b models.Booking)
	CompletionRequested(ctx context.Context, b models.Booking)
	NewMessage(ctx context.Context, msg models.Message)
}

// MessagePusher hands a message to a live connection when the receiver is
// online. Returns false when the receiver has no open connection.
type MessagePusher interface {
	Push(receiverID int, msg models.Message) bool
}
