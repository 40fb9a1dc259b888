package models

import "time"

type CreateBookingRequest struct {
	ServiceID       int             `json:"service_id"`
	BookingType     BookingType     `json:"booking_type"`
	CustomerDetails CustomerDetails `json:"customer_details"`
	ReservationDate *time.Time      `json:"reservation_date,omitempty"`
	HoursBooked     int             `json:"hours_booked"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

type SendMessageRequest struct {
	ChatID  int            `json:"chat_id"`
	Type    MessageType    `json:"type"`
	Content MessageContent `json:"content"`
}

type ReopenChatRequest struct {
	BookingID int `json:"booking_id"`
}

type MarkReadRequest struct {
	ChatID int `json:"chat_id"`
}

type BlockUserRequest struct {
	UserID int `json:"user_id"`
}

type NotifyTokenRequest struct {
	Token string `json:"token"`
}
