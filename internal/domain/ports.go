package domain

import (
	"context"
	"time"
)

type HotelRepository interface {
	// Write paths (seeder)
	UpsertHotel(ctx context.Context, h Hotel) error

	// Read paths
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotels(ctx context.Context) ([]Hotel, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, nb NewBooking) (Booking, error)
	ListUserBookings(ctx context.Context, userID int64) ([]Booking, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, username, passwordHash string, email *string, isOwner bool) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByID(ctx context.Context, id int64) (User, error)
}

// PaymentProvider abstracts the external payment processor. Amounts
// are minor currency units; metadata travels verbatim to the intent.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (PaymentIntent, error)
	ConfirmIntent(ctx context.Context, clientSecret, returnURL string) (PaymentIntent, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// SessionStore issues and resolves opaque bearer tokens for the auth
// middleware. Resolve returns ErrNotFound for unknown/expired tokens.
type SessionStore interface {
	Create(ctx context.Context, userID int64, ttl time.Duration) (token string, err error)
	Resolve(ctx context.Context, token string) (userID int64, err error)
	Destroy(ctx context.Context, token string) error
}
