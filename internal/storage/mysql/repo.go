package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"stayfinder/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- hotels ----

func (r *Repo) UpsertHotel(ctx context.Context, h domain.Hotel) error {
	amen, _ := json.Marshal(h.Amenities)
	imgs, _ := json.Marshal(h.AdditionalImages)
	_, err := r.db.ExecContext(ctx, upsertHotelSQL,
		h.ID,
		h.Name,
		h.Description,
		h.Location,
		h.ImageURL,
		h.PricePerNight,
		h.Rating,
		string(amen),
		valInt64(h.OwnerID),
		valStr(h.VirtualTourURL),
		string(imgs),
		h.SubscriptionStatus,
		valTime(h.SubscriptionEndDate),
	)
	return err
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	row := r.db.QueryRowContext(ctx, getHotelSQL, id)
	h, err := scanHotel(row)
	if err == sql.ErrNoRows {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, err
}

func (r *Repo) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, listHotelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanHotel(row rowScanner) (domain.Hotel, error) {
	var h domain.Hotel
	var amenitiesJSON, imagesJSON []byte
	var ownerID sql.NullInt64
	var tourURL, subStatus sql.NullString
	var subEnd sql.NullTime

	if err := row.Scan(
		&h.ID,
		&h.Name,
		&h.Description,
		&h.Location,
		&h.ImageURL,
		&h.PricePerNight,
		&h.Rating,
		&amenitiesJSON,
		&ownerID,
		&tourURL,
		&imagesJSON,
		&subStatus,
		&subEnd,
		&h.CreatedAt,
	); err != nil {
		return domain.Hotel{}, err
	}

	_ = json.Unmarshal(amenitiesJSON, &h.Amenities)
	_ = json.Unmarshal(imagesJSON, &h.AdditionalImages)
	if ownerID.Valid {
		v := ownerID.Int64
		h.OwnerID = &v
	}
	if tourURL.Valid {
		v := tourURL.String
		h.VirtualTourURL = &v
	}
	if subStatus.Valid {
		h.SubscriptionStatus = subStatus.String
	}
	if subEnd.Valid {
		v := subEnd.Time
		h.SubscriptionEndDate = &v
	}
	return h, nil
}

// ---- bookings ----

func (r *Repo) CreateBooking(ctx context.Context, nb domain.NewBooking) (domain.Booking, error) {
	res, err := r.db.ExecContext(ctx, insertBookingSQL,
		nb.UserID,
		nb.HotelID,
		nb.CheckIn.Format("2006-01-02"),
		nb.CheckOut.Format("2006-01-02"),
		nb.TotalPrice,
		domain.StatusPending,
	)
	if err != nil {
		return domain.Booking{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Booking{}, err
	}

	row := r.db.QueryRowContext(ctx, getBookingSQL, id)
	return scanBooking(row)
}

func (r *Repo) ListUserBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, listUserBookingsSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBooking(row rowScanner) (domain.Booking, error) {
	var b domain.Booking
	var status sql.NullString
	if err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.HotelID,
		&b.CheckIn,
		&b.CheckOut,
		&b.TotalPrice,
		&status,
		&b.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, err
	}
	if status.Valid {
		b.Status = status.String
	}
	return b, nil
}

// ---- users ----

func (r *Repo) CreateUser(ctx context.Context, username, passwordHash string, email *string, isOwner bool) (domain.User, error) {
	res, err := r.db.ExecContext(ctx, insertUserSQL, username, passwordHash, valStr(email), isOwner)
	if err != nil {
		return domain.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, err
	}
	return r.GetUserByID(ctx, id)
}

func (r *Repo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByUsernameSQL, username))
}

func (r *Repo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByIDSQL, id))
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	var email sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &email, &u.IsHotelOwner, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	if email.Valid {
		v := email.String
		u.Email = &v
	}
	return u, nil
}
