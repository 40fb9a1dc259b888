package models

import "time"

// Service is a provider's bookable listing.
type Service struct {
	ID            int        `json:"id"`
	ProviderID    int        `json:"provider_id"`
	ServiceName   string     `json:"service_name"`
	Description   string     `json:"description,omitempty"`
	AreaCovered   string     `json:"area_covered,omitempty"`
	PricePerHour  float64    `json:"price_per_hour"`
	TotalBookings int        `json:"total_bookings"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}
