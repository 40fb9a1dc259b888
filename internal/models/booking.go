package models

import "time"

// Role identifies which side of a booking performed an action.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
)

// BookingType distinguishes "right now" bookings from scheduled ones.
type BookingType string

const (
	BookingImmediate   BookingType = "immediate"
	BookingReservation BookingType = "reservation"
)

// CustomerDetails is the contact block the customer fills in on purchase.
type CustomerDetails struct {
	Name         string `json:"name"`
	PhoneNumber  string `json:"phone_number"`
	ExactAddress string `json:"exact_address"`
}

// Booking is one purchase of a provider's service for a given time and duration.
type Booking struct {
	ID              int             `json:"id"`
	CustomerID      int             `json:"customer_id"`
	ProviderID      int             `json:"provider_id"`
	ServiceID       int             `json:"service_id"`
	BookingType     BookingType     `json:"booking_type"`
	CustomerDetails CustomerDetails `json:"customer_details"`
	Status          string          `json:"status"`
	ReservationDate *time.Time      `json:"reservation_date,omitempty"`
	HoursBooked     int             `json:"hours_booked"`
	TotalAmount     float64         `json:"total_amount"`

	ConversationID *int `json:"conversation_id,omitempty"`

	CancellationReason string `json:"cancellation_reason,omitempty"`
	CancelledBy        Role   `json:"cancelled_by,omitempty"`

	// CanCancel is derived from ReservationDate on every read, never persisted
	// past its validity window.
	CanCancel bool `json:"can_cancel"`

	AcceptedAt *time.Time `json:"accepted_at,omitempty"`

	CompletionInitiatedBy Role       `json:"completion_initiated_by,omitempty"`
	CompletionInitiatedAt *time.Time `json:"completion_initiated_at,omitempty"`
	CompletionConfirmedBy Role       `json:"completion_confirmed_by,omitempty"`
	CompletionConfirmedAt *time.Time `json:"completion_confirmed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleOf reports the caller's side of the booking, or "" for outsiders.
func (b *Booking) RoleOf(userID int) Role {
	switch userID {
	case b.CustomerID:
		return RoleCustomer
	case b.ProviderID:
		return RoleProvider
	}
	return ""
}

// RecomputeCanCancel refreshes the cancellation window flag from the
// reservation time. Immediate bookings have no window once created.
func (b *Booking) RecomputeCanCancel(now time.Time, leadTime time.Duration) {
	if b.ReservationDate == nil {
		b.CanCancel = false
		return
	}
	b.CanCancel = b.ReservationDate.Sub(now) > leadTime
}
