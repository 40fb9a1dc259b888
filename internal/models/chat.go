package models

import "time"

// ChatClosedReason records why a chat stopped accepting messages.
type ChatClosedReason string

const (
	ClosedCompleted ChatClosedReason = "completed"
	ClosedCancelled ChatClosedReason = "cancelled"
)

// Chat is the single durable conversation channel between a customer and a
// provider. Exactly one chat exists per unordered user pair; repeat bookings
// reopen it instead of creating a new one.
type Chat struct {
	ID      int `json:"id"`
	User1ID int `json:"user1_id"`
	User2ID int `json:"user2_id"`

	ServiceID *int `json:"service_id,omitempty"`
	// BookingID names the booking that last transitioned this chat's status.
	BookingID *int `json:"booking_id,omitempty"`

	Status       string           `json:"status"`
	ClosedAt     *time.Time       `json:"closed_at,omitempty"`
	ClosedReason ChatClosedReason `json:"closed_reason,omitempty"`

	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasParticipant reports whether userID is one of the chat's two users.
func (c *Chat) HasParticipant(userID int) bool {
	return userID == c.User1ID || userID == c.User2ID
}

// OtherParticipant returns the peer of userID in this chat.
func (c *Chat) OtherParticipant(userID int) int {
	if userID == c.User1ID {
		return c.User2ID
	}
	return c.User1ID
}
