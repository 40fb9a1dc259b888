package models

import "time"

// MessageType enumerates supported message payloads.
type MessageType string

const (
	MessageText           MessageType = "text"
	MessageVoice          MessageType = "voice"
	MessageImage          MessageType = "image"
	MessageLocation       MessageType = "location"
	MessageBookingRequest MessageType = "booking_request"
)

// MessageLocationData carries coordinates for location messages.
type MessageLocationData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// MessageContent is the type-dependent payload. Exactly the fields matching
// the message type are set.
type MessageContent struct {
	Text      string               `json:"text,omitempty"`
	VoiceURL  string               `json:"voice_url,omitempty"`
	ImageURL  string               `json:"image_url,omitempty"`
	Location  *MessageLocationData `json:"location,omitempty"`
	ServiceID *int                 `json:"service_id,omitempty"`
}

// Message is one entry in a chat's append-only sequence.
type Message struct {
	ID         string         `json:"id"`
	ChatID     int            `json:"chat_id"`
	SenderID   int            `json:"sender_id"`
	ReceiverID int            `json:"receiver_id"`
	Type       MessageType    `json:"message_type"`
	Content    MessageContent `json:"content"`
	CreatedAt  time.Time      `json:"created_at"`

	IsRead      bool       `json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}
