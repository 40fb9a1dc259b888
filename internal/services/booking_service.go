package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"hirelyBack/internal/booking/fsm"
	"hirelyBack/internal/models"
)

// BookingService owns the booking lifecycle and keeps the paired chat's
// status consistent with it. All status writes go through guarded updates in
// the stores, so a stale precondition surfaces as models.ErrConflict instead
// of a lost update.
type BookingService struct {
	BookingRepo BookingStore
	ChatRepo    ChatStore
	ServiceRepo ServiceStore
	Notifier    Notifier

	// CancelLeadTime is how far before the reservation a cancellation is
	// still allowed. Doubles as the minimum scheduling lead for new
	// reservations.
	CancelLeadTime time.Duration

	// Clock is overridable in tests; nil means time.Now.
	Clock func() time.Time
}

func (s *BookingService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// CreateBooking validates the request, creates a pending booking and links it
// to the single chat for the customer/provider pair, reusing or reopening an
// existing one. A failure to link the chat fails the whole call; a booking
// without a conversation is not usable.
func (s *BookingService) CreateBooking(ctx context.Context, customerID int, req models.CreateBookingRequest) (models.Booking, error) {
	if req.HoursBooked < 1 {
		return models.Booking{}, fmt.Errorf("%w: hours_booked must be at least 1", models.ErrInvalidRequest)
	}
	if req.BookingType == "" {
		req.BookingType = models.BookingReservation
	}
	if req.BookingType != models.BookingImmediate && req.BookingType != models.BookingReservation {
		return models.Booking{}, fmt.Errorf("%w: unknown booking type %q", models.ErrInvalidRequest, req.BookingType)
	}

	service, err := s.ServiceRepo.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		return models.Booking{}, err
	}
	if !service.IsActive {
		return models.Booking{}, fmt.Errorf("%w: service is not accepting bookings", models.ErrInvalidRequest)
	}
	if service.ProviderID == customerID {
		return models.Booking{}, fmt.Errorf("%w: cannot book your own service", models.ErrInvalidRequest)
	}

	now := s.now()
	var reservation *time.Time
	switch req.BookingType {
	case models.BookingImmediate:
		t := now
		reservation = &t
	case models.BookingReservation:
		if req.ReservationDate == nil {
			return models.Booking{}, fmt.Errorf("%w: reservation_date is required", models.ErrInvalidRequest)
		}
		if req.ReservationDate.Sub(now) < s.CancelLeadTime {
			return models.Booking{}, fmt.Errorf("%w: reservation must be at least %v ahead", models.ErrInvalidRequest, s.CancelLeadTime)
		}
		t := *req.ReservationDate
		reservation = &t
	}

	booking := models.Booking{
		CustomerID:      customerID,
		ProviderID:      service.ProviderID,
		ServiceID:       service.ID,
		BookingType:     req.BookingType,
		CustomerDetails: req.CustomerDetails,
		ReservationDate: reservation,
		HoursBooked:     req.HoursBooked,
		TotalAmount:     service.PricePerHour * float64(req.HoursBooked),
	}
	booking, err = s.BookingRepo.CreateBooking(ctx, booking)
	if err != nil {
		return models.Booking{}, err
	}
	if err := s.ServiceRepo.IncrementBookings(ctx, service.ID); err != nil {
		log.Printf("increment bookings for service %d: %v", service.ID, err)
	}

	chat, err := s.attachChat(ctx, booking)
	if err != nil {
		return models.Booking{}, err
	}
	if err := s.BookingRepo.LinkConversation(ctx, booking.ID, chat.ID); err != nil {
		return models.Booking{}, err
	}
	booking.ConversationID = &chat.ID
	booking.RecomputeCanCancel(now, s.CancelLeadTime)

	if s.Notifier != nil {
		s.Notifier.BookingCreated(ctx, booking)
	}
	return booking, nil
}

// attachChat finds the chat for the booking's user pair and points it at the
// booking. Closed chats reopen to pending; missing chats are created pending.
func (s *BookingService) attachChat(ctx context.Context, b models.Booking) (models.Chat, error) {
	serviceID := b.ServiceID
	chat, err := s.ChatRepo.GetChatByParticipants(ctx, b.CustomerID, b.ProviderID)
	switch {
	case errors.Is(err, models.ErrChatNotFound):
		return s.ChatRepo.CreateChat(ctx, models.Chat{
			User1ID:   b.CustomerID,
			User2ID:   b.ProviderID,
			ServiceID: &serviceID,
			BookingID: &b.ID,
			Status:    fsm.ChatPending,
		})
	case err != nil:
		return models.Chat{}, err
	}

	if chat.Status == fsm.ChatClosed {
		err = s.ChatRepo.ReopenChat(ctx, chat.ID, b.ID, &serviceID, fsm.ChatPending)
		if err == nil {
			chat.Status = fsm.ChatPending
			chat.ClosedAt = nil
			chat.ClosedReason = ""
			return chat, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return models.Chat{}, err
		}
		// a concurrent booking already reopened it; fall through and repoint
	}
	if err := s.ChatRepo.AttachBooking(ctx, chat.ID, b.ID, &serviceID); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// Accept confirms a pending booking. Provider only. The paired chat becomes
// active so the two sides can talk.
func (s *BookingService) Accept(ctx context.Context, bookingID, actorID int) (models.Booking, error) {
	b, err := s.BookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if actorID != b.ProviderID {
		return models.Booking{}, fmt.Errorf("%w: only the provider can accept a booking", models.ErrForbidden)
	}
	if b.Status != fsm.StatusPending {
		return models.Booking{}, fmt.Errorf("%w: only pending bookings can be accepted", models.ErrInvalidState)
	}

	now := s.now()
	if err := s.BookingRepo.MarkAccepted(ctx, b.ID, now); err != nil {
		return models.Booking{}, err
	}
	b.Status = fsm.StatusConfirmed
	b.AcceptedAt = &now

	if b.ConversationID != nil {
		if err := s.ChatRepo.ActivateChat(ctx, *b.ConversationID); err != nil {
			if !errors.Is(err, models.ErrConflict) {
				return models.Booking{}, err
			}
			log.Printf("chat %d not activatable for booking %d", *b.ConversationID, b.ID)
		}
	} else {
		serviceID := b.ServiceID
		chat, err := s.ChatRepo.CreateChat(ctx, models.Chat{
			User1ID:   b.CustomerID,
			User2ID:   b.ProviderID,
			ServiceID: &serviceID,
			BookingID: &b.ID,
			Status:    fsm.ChatActive,
		})
		if err != nil {
			return models.Booking{}, err
		}
		if err := s.BookingRepo.LinkConversation(ctx, b.ID, chat.ID); err != nil {
			return models.Booking{}, err
		}
		b.ConversationID = &chat.ID
	}

	b.RecomputeCanCancel(now, s.CancelLeadTime)
	if s.Notifier != nil {
		s.Notifier.BookingAccepted(ctx, b)
	}
	return b, nil
}

// Reject declines a pending booking. Provider only. The chat closes as
// cancelled without ever having been active.
func (s *BookingService) Reject(ctx context.Context, bookingID, actorID int, reason string) (models.Booking, error) {
	b, err := s.BookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if actorID != b.ProviderID {
		return models.Booking{}, fmt.Errorf("%w: only the provider can reject a booking", models.ErrForbidden)
	}
	if b.Status != fsm.StatusPending {
		return models.Booking{}, fmt.Errorf("%w: only pending bookings can be rejected", models.ErrInvalidState)
	}
	if reason == "" {
		reason = "rejected by provider"
	}

	now := s.now()
	if err := s.BookingRepo.MarkCancelled(ctx, b.ID, fsm.StatusPending, models.RoleProvider, reason); err != nil {
		return models.Booking{}, err
	}
	b.Status = fsm.StatusCancelled
	b.CancelledBy = models.RoleProvider
	b.CancellationReason = reason

	if b.ConversationID != nil {
		if err := s.ChatRepo.CloseChat(ctx, *b.ConversationID, models.ClosedCancelled, now); err != nil {
			log.Printf("close chat %d after reject: %v", *b.ConversationID, err)
		}
	}
	if s.Notifier != nil {
		s.Notifier.BookingCancelled(ctx, b)
	}
	return b, nil
}

// Cancel withdraws a booking. Either party may cancel while the booking is
// not terminal and the reservation is still outside the lead-time window.
func (s *BookingService) Cancel(ctx context.Context, bookingID, actorID int, reason string) (models.Booking, error) {
	b, err := s.BookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	role := b.RoleOf(actorID)
	if role == "" {
		return models.Booking{}, fmt.Errorf("%w: not a participant of this booking", models.ErrForbidden)
	}
	if fsm.IsTerminal(b.Status) {
		return models.Booking{}, fmt.Errorf("%w: booking is already %s", models.ErrInvalidState, b.Status)
	}

	now := s.now()
	b.RecomputeCanCancel(now, s.CancelLeadTime)
	if !b.CanCancel {
		return models.Booking{}, fmt.Errorf("%w: cancellation window has closed", models.ErrForbidden)
	}

	if err := s.BookingRepo.MarkCancelled(ctx, b.ID, b.Status, role, reason); err != nil {
		return models.Booking{}, err
	}
	b.Status = fsm.StatusCancelled
	b.CancelledBy = role
	b.CancellationReason = reason
	b.CanCancel = false

	if b.ConversationID != nil {
		if err := s.ChatRepo.CloseChat(ctx, *b.ConversationID, models.ClosedCancelled, now); err != nil {
			log.Printf("close chat %d after cancel: %v", *b.ConversationID, err)
		}
	}
	if s.Notifier != nil {
		s.Notifier.BookingCancelled(ctx, b)
	}
	return b, nil
}

// Start moves a confirmed booking to in_progress. Provider only.
func (s *BookingService) Start(ctx context.Context, bookingID, actorID int) (models.Booking, error) {
	b, err := s.BookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if actorID != b.ProviderID {
		return models.Booking{}, fmt.Errorf("%w: only the provider can start the work", models.ErrForbidden)
	}
	if b.Status != fsm.StatusConfirmed {
		return models.Booking{}, fmt.Errorf("%w: only confirmed bookings can be started", models.ErrInvalidState)
	}
	if err := s.BookingRepo.MarkInProgress(ctx, b.ID); err != nil {
		return models.Booking{}, err
	}
	b.Status = fsm.StatusInProgress
	return b, nil
}

// InitiateCompletion records that one party considers the work done. The
// booking stays in its current status until the other party confirms.
func (s *BookingService) InitiateCompletion(ctx context.Context, bookingID, actorID int) (models.Booking, error) {
	b, err := s.BookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	role := b.RoleOf(actorID)
	if role == "" {
		return models.Booking{}, fmt.Errorf("%w: not a participant of this booking", models.ErrForbidden)
	}
	if b.Status != fsm.StatusConfirmed && b.Status != fsm.StatusInProgress {
		return models.Booking{}, fmt.Errorf("%w: booking is not in a completable status", models.ErrInvalidState)
	}
	if b.CompletionInitiatedBy != "" {
		return models.Booking{}, fmt.Errorf("%w: completion already initiated by %s", models.ErrInvalidState, b.CompletionInitiatedBy)
	}

	now := s.now()
	if err := s.BookingRepo.MarkCompletionInitiated(ctx, b.ID, role, now); err != nil {
		return models.Booking{}, err
	}
	b.CompletionInitiatedBy = role
	b.CompletionInitiatedAt = &now

	if s.Notifier != nil {
		s.Notifier.CompletionRequested(ctx, b)
	}
	return b, nil
}

// ConfirmCompletion is the second half of the handshake. The confirmer must
// be the party that did not initiate. On success the booking completes and
// the chat closes.
func (s *BookingService) ConfirmCompletion(ctx context.Context, bookingID, actorID int) (models.Booking, error) {
	b, err := s.BookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	role := b.RoleOf(actorID)
	if role == "" {
		return models.Booking{}, fmt.Errorf("%w: not a participant of this booking", models.ErrForbidden)
	}
	if b.Status != fsm.StatusConfirmed && b.Status != fsm.StatusInProgress {
		return models.Booking{}, fmt.Errorf("%w: booking is not in a completable status", models.ErrInvalidState)
	}
	if b.CompletionInitiatedBy == "" {
		return models.Booking{}, fmt.Errorf("%w: completion has not been initiated", models.ErrInvalidState)
	}
	if b.CompletionInitiatedBy == role {
		return models.Booking{}, fmt.Errorf("%w: the other party must confirm completion", models.ErrInvalidState)
	}

	now := s.now()
	if err := s.BookingRepo.MarkCompleted(ctx, b.ID, role, now); err != nil {
		return models.Booking{}, err
	}
	b.Status = fsm.StatusCompleted
	b.CompletionConfirmedBy = role
	b.CompletionConfirmedAt = &now
	b.CanCancel = false

	if b.ConversationID != nil {
		if err := s.ChatRepo.CloseChat(ctx, *b.ConversationID, models.ClosedCompleted, now); err != nil {
			log.Printf("close chat %d after completion: %v", *b.ConversationID, err)
		}
	}
	if s.Notifier != nil {
		s.Notifier.BookingCompleted(ctx, b)
	}
	return b, nil
}

// Complete is the single-endpoint flow kept for older clients: the first call
// initiates the handshake, a call from the other party confirms it. The bool
// reports whether confirmation from the peer is still required.
func (s *BookingService) Complete(ctx context.Context, bookingID, actorID int) (models.Booking, bool, error) {
	b, err := s.BookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return models.Booking{}, false, err
	}
	role := b.RoleOf(actorID)
	if role == "" {
		return models.Booking{}, false, fmt.Errorf("%w: not a participant of this booking", models.ErrForbidden)
	}
	if b.CompletionInitiatedBy == "" {
		b, err = s.InitiateCompletion(ctx, bookingID, actorID)
		return b, true, err
	}
	b, err = s.ConfirmCompletion(ctx, bookingID, actorID)
	return b, false, err
}

// GetBooking returns a booking visible only to its two parties, with the
// cancellation flag recomputed for the moment of the read.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, actorID int) (models.Booking, error) {
	b, err := s.BookingRepo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if b.RoleOf(actorID) == "" {
		return models.Booking{}, fmt.Errorf("%w: not a participant of this booking", models.ErrForbidden)
	}
	if fsm.IsTerminal(b.Status) {
		b.CanCancel = false
	} else {
		b.RecomputeCanCancel(s.now(), s.CancelLeadTime)
	}
	return b, nil
}

// ListBookings returns the caller's bookings on either side of the market.
func (s *BookingService) ListBookings(ctx context.Context, userID int, status string, page, pageSize int) ([]models.Booking, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	bookings, err := s.BookingRepo.ListBookingsByUser(ctx, userID, status, page, pageSize)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range bookings {
		if fsm.IsTerminal(bookings[i].Status) {
			bookings[i].CanCancel = false
			continue
		}
		bookings[i].RecomputeCanCancel(now, s.CancelLeadTime)
	}
	return bookings, nil
}
