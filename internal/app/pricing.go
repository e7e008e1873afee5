package app

import (
	"math"
	"time"

	"stayfinder/internal/domain"
)

// Quote is the priced result of a date-range check.
type Quote struct {
	Nights     int
	TotalPrice float64 // decimal, what gets persisted
	Amount     int64   // minor units, what the processor is charged
}

// Nights returns the ceiling of the day-count between check-in and
// check-out. Both are treated as calendar dates: time-of-day is
// dropped before the difference is taken. checkOut must be strictly
// after checkIn; single-night stays (nights == 1) are valid.
func Nights(checkIn, checkOut time.Time) (int, error) {
	in := midnight(checkIn)
	out := midnight(checkOut)
	if !out.After(in) {
		return 0, domain.Validationf("check-out must be after check-in")
	}
	n := int(math.Ceil(out.Sub(in).Hours() / 24))
	return n, nil
}

// QuoteStay prices a stay. The decimal total is pricePerNight*nights;
// the minor-unit amount is only computed here, at the processor
// boundary, rounded to the nearest cent.
func QuoteStay(pricePerNight float64, checkIn, checkOut time.Time) (Quote, error) {
	n, err := Nights(checkIn, checkOut)
	if err != nil {
		return Quote{}, err
	}
	return quoteNights(pricePerNight, n), nil
}

func quoteNights(pricePerNight float64, nights int) Quote {
	total := pricePerNight * float64(nights)
	return Quote{
		Nights:     nights,
		TotalPrice: total,
		Amount:     int64(math.Round(total * 100)),
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
