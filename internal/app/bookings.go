package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"stayfinder/internal/domain"
)

// BookingService drives the booking-and-payment workflow:
// intent creation -> confirmation -> booking persistence.
// Each attempt is a linear pipeline; nothing is shared across
// requests beyond the injected dependencies.
type BookingService struct {
	hotels    domain.HotelRepository
	bookings  domain.BookingRepository
	payments  domain.PaymentProvider
	currency  string
	returnURL string
}

func NewBookingService(h domain.HotelRepository, b domain.BookingRepository, p domain.PaymentProvider, currency, returnURL string) *BookingService {
	return &BookingService{hotels: h, bookings: b, payments: p, currency: currency, returnURL: returnURL}
}

// IntentResult is what the client needs to run the payment step.
type IntentResult struct {
	ClientSecret string
	Amount       int64
}

// CreatePaymentIntent opens an authorization hold for a stay. The
// amount is always recomputed from the stored hotel price; a
// client-submitted amount is never read, so price tampering on the
// wire has no effect. Nothing is persisted locally and a retry simply
// creates a fresh, unrelated intent.
func (s *BookingService) CreatePaymentIntent(ctx context.Context, userID, hotelID int64, nights int) (IntentResult, error) {
	if userID <= 0 {
		return IntentResult{}, domain.ErrUnauthenticated
	}
	if nights < 1 {
		return IntentResult{}, domain.Validationf("nights must be a positive integer")
	}

	hotel, err := s.hotels.GetHotel(ctx, hotelID)
	if err != nil {
		return IntentResult{}, err
	}

	q := quoteNights(hotel.PricePerNight, nights)
	intent, err := s.payments.CreateIntent(ctx, q.Amount, s.currency, map[string]string{
		"hotel_id":   strconv.FormatInt(hotel.ID, 10),
		"hotel_name": hotel.Name,
		"nights":     strconv.Itoa(nights),
	})
	if err != nil {
		return IntentResult{}, err
	}

	log.Info().
		Int64("hotel_id", hotel.ID).
		Int("nights", nights).
		Int64("amount", q.Amount).
		Str("intent_id", intent.ID).
		Msg("payment intent created")

	return IntentResult{ClientSecret: intent.ClientSecret, Amount: q.Amount}, nil
}

// ConfirmPayment hands the client secret back to the processor. The
// result is trusted as-is: success or failure, no polling and no
// webhook reconciliation. On failure the attempt is abandoned with no
// local state to clean up.
func (s *BookingService) ConfirmPayment(ctx context.Context, userID int64, clientSecret string) (string, error) {
	if userID <= 0 {
		return "", domain.ErrUnauthenticated
	}
	if clientSecret == "" {
		return "", domain.Validationf("clientSecret is required")
	}

	intent, err := s.payments.ConfirmIntent(ctx, clientSecret, s.returnURL)
	if err != nil {
		return "", err
	}
	log.Info().Str("intent_id", intent.ID).Str("status", intent.Status).Msg("payment confirmed")
	return intent.Status, nil
}

// CreateBooking persists one booking row with status pending. It does
// not re-verify the payment with the processor; it trusts that the
// caller ran the confirmation step first. There is also no idempotency
// key, so a duplicated call inserts a second row.
func (s *BookingService) CreateBooking(ctx context.Context, userID int64, hotelID int64, checkIn, checkOut time.Time, totalPrice float64) (domain.Booking, error) {
	if userID <= 0 {
		return domain.Booking{}, domain.ErrUnauthenticated
	}
	if _, err := Nights(checkIn, checkOut); err != nil {
		return domain.Booking{}, err
	}
	if totalPrice <= 0 {
		return domain.Booking{}, domain.Validationf("totalPrice must be positive")
	}

	b, err := s.bookings.CreateBooking(ctx, domain.NewBooking{
		UserID:     userID,
		HotelID:    hotelID,
		CheckIn:    midnight(checkIn),
		CheckOut:   midnight(checkOut),
		TotalPrice: totalPrice,
	})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("create booking: %w", err)
	}

	log.Info().
		Int64("booking_id", b.ID).
		Int64("user_id", userID).
		Int64("hotel_id", hotelID).
		Msg("booking persisted")

	return b, nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	if userID <= 0 {
		return nil, domain.ErrUnauthenticated
	}
	return s.bookings.ListUserBookings(ctx, userID)
}
