package domain

import "time"

type Hotel struct {
	ID                  int64
	Name                string
	Description         string
	Location            string
	ImageURL            string
	PricePerNight       float64
	Rating              float64
	Amenities           []string
	OwnerID             *int64
	VirtualTourURL      *string
	AdditionalImages    []string
	SubscriptionStatus  string
	SubscriptionEndDate *time.Time
	CreatedAt           time.Time
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        *string
	IsHotelOwner bool
	CreatedAt    time.Time
}
