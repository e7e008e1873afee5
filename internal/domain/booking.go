package domain

import "time"

// Booking statuses. Only StatusPending is written by the booking
// workflow; the other two exist for owner/admin tooling.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type Booking struct {
	ID         int64
	UserID     int64
	HotelID    int64
	CheckIn    time.Time // calendar date, midnight UTC
	CheckOut   time.Time
	TotalPrice float64
	Status     string
	CreatedAt  time.Time
}

// NewBooking is the insert payload for the booking recorder.
type NewBooking struct {
	UserID     int64
	HotelID    int64
	CheckIn    time.Time
	CheckOut   time.Time
	TotalPrice float64
}

// PaymentIntent is the processor's handle for an authorized charge.
// It is never persisted locally; the client secret is the only thing
// the caller needs to complete the payment.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       int64 // minor currency units
	Status       string
}
