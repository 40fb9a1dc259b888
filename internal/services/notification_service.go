package services

import (
	"context"
	"fmt"
	"log"

	"firebase.google.com/go/messaging"

	"hirelyBack/internal/models"
)

// TokenStore resolves a user's registered device tokens.
type TokenStore interface {
	GetTokensByUserID(ctx context.Context, userID int) ([]string, error)
}

// NotificationService delivers lifecycle and message pushes over FCM.
// Everything here is best-effort: a failed push is logged and never fails the
// operation that triggered it. A nil Client disables pushes entirely.
type NotificationService struct {
	Client *messaging.Client
	Tokens TokenStore
}

func NewNotificationService(client *messaging.Client, tokens TokenStore) *NotificationService {
	return &NotificationService{Client: client, Tokens: tokens}
}

func (s *NotificationService) BookingCreated(ctx context.Context, b models.Booking) {
	s.push(ctx, b.ProviderID, "New booking request",
		fmt.Sprintf("You have a new booking request for %d hour(s)", b.HoursBooked),
		map[string]string{"type": "booking_created", "booking_id": fmt.Sprint(b.ID)})
}

func (s *NotificationService) BookingAccepted(ctx context.Context, b models.Booking) {
	s.push(ctx, b.CustomerID, "Booking confirmed",
		"Your booking was accepted. You can now chat with the provider.",
		map[string]string{"type": "booking_accepted", "booking_id": fmt.Sprint(b.ID)})
}

func (s *NotificationService) BookingCancelled(ctx context.Context, b models.Booking) {
	// notify the party that did not cancel
	target := b.CustomerID
	if b.CancelledBy == models.RoleCustomer {
		target = b.ProviderID
	}
	s.push(ctx, target, "Booking cancelled",
		"The booking has been cancelled.",
		map[string]string{"type": "booking_cancelled", "booking_id": fmt.Sprint(b.ID)})
}

func (s *NotificationService) BookingCompleted(ctx context.Context, b models.Booking) {
	target := b.CustomerID
	if b.CompletionConfirmedBy == models.RoleCustomer {
		target = b.ProviderID
	}
	s.push(ctx, target, "Booking completed",
		"Both sides confirmed completion. Thank you!",
		map[string]string{"type": "booking_completed", "booking_id": fmt.Sprint(b.ID)})
}

func (s *NotificationService) CompletionRequested(ctx context.Context, b models.Booking) {
	target := b.CustomerID
	if b.CompletionInitiatedBy == models.RoleCustomer {
		target = b.ProviderID
	}
	s.push(ctx, target, "Completion confirmation needed",
		"The other party marked the work as done. Please confirm.",
		map[string]string{"type": "completion_requested", "booking_id": fmt.Sprint(b.ID)})
}

func (s *NotificationService) NewMessage(ctx context.Context, msg models.Message) {
	body := msg.Content.Text
	switch msg.Type {
	case models.MessageVoice:
		body = "Voice message"
	case models.MessageImage:
		body = "Photo"
	case models.MessageLocation:
		body = "Location"
	case models.MessageBookingRequest:
		body = "Booking request"
	}
	s.push(ctx, msg.ReceiverID, "New message", body,
		map[string]string{"type": "new_message", "chat_id": fmt.Sprint(msg.ChatID)})
}

func (s *NotificationService) push(ctx context.Context, userID int, title, body string, data map[string]string) {
	if s == nil || s.Client == nil {
		return
	}
	tokens, err := s.Tokens.GetTokensByUserID(ctx, userID)
	if err != nil {
		log.Printf("fetch notify tokens for user %d: %v", userID, err)
		return
	}
	for _, token := range tokens {
		message := &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
			Android: &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					ChannelID: "high_priority_channel",
				},
			},
			APNS: &messaging.APNSConfig{
				Headers: map[string]string{
					"apns-priority": "10",
				},
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{
						Alert: &messaging.ApsAlert{
							Title: title,
							Body:  body,
						},
						Sound: "default",
					},
				},
			},
		}
		if _, err := s.Client.Send(ctx, message); err != nil {
			log.Printf("send notification to user %d: %v", userID, err)
		}
	}
}
