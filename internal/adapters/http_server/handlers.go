package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"stayfinder/internal/adapters/observability"
	"stayfinder/internal/adapters/stripe"
	"stayfinder/internal/app"
	"stayfinder/internal/domain"
)

const dateLayout = "2006-01-02"

var validate = validator.New(validator.WithRequiredStructEnabled())

type Handlers struct {
	Q        *app.QueryService
	B        *app.BookingService
	A        *app.AuthService
	Sessions domain.SessionStore
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/hotels", h.listHotels)
		r.Get("/hotels/{id}", h.getHotel)
		r.Post("/register", h.register)
		r.Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser(h.Sessions))
			r.Post("/create-payment-intent", h.createPaymentIntent)
			r.Post("/confirm-payment", h.confirmPayment)
			r.Post("/bookings", h.createBooking)
			r.Get("/bookings", h.listBookings)
			r.Post("/logout", h.logout)
			r.Get("/user", h.currentUser)
		})
	})
}

// ---- request/response shapes ----

type createIntentRequest struct {
	HotelID int64 `json:"hotelId" validate:"required"`
	Nights  int   `json:"nights" validate:"required,min=1"`
}

type confirmPaymentRequest struct {
	ClientSecret string `json:"clientSecret" validate:"required"`
}

type createBookingRequest struct {
	HotelID    int64   `json:"hotelId" validate:"required"`
	CheckIn    string  `json:"checkIn" validate:"required,datetime=2006-01-02"`
	CheckOut   string  `json:"checkOut" validate:"required,datetime=2006-01-02"`
	TotalPrice float64 `json:"totalPrice" validate:"required,gt=0"`
}

type registerRequest struct {
	Username     string  `json:"username" validate:"required,min=3,max=64"`
	Password     string  `json:"password" validate:"required,min=6"`
	Email        *string `json:"email" validate:"omitempty,email"`
	IsHotelOwner bool    `json:"isHotelOwner"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type hotelJSON struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	Location            string     `json:"location"`
	ImageURL            string     `json:"imageUrl"`
	PricePerNight       float64    `json:"pricePerNight"`
	Rating              float64    `json:"rating"`
	Amenities           []string   `json:"amenities"`
	OwnerID             *int64     `json:"ownerId,omitempty"`
	VirtualTourURL      *string    `json:"virtualTourUrl,omitempty"`
	AdditionalImages    []string   `json:"additionalImages,omitempty"`
	SubscriptionStatus  string     `json:"subscriptionStatus,omitempty"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate,omitempty"`
}

type bookingJSON struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	HotelID    int64     `json:"hotelId"`
	CheckIn    string    `json:"checkIn"`
	CheckOut   string    `json:"checkOut"`
	TotalPrice float64   `json:"totalPrice"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

type userJSON struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	Email        *string `json:"email,omitempty"`
	IsHotelOwner bool    `json:"isHotelOwner"`
	Token        string  `json:"token,omitempty"`
}

func hotelToJSON(h domain.Hotel) hotelJSON {
	return hotelJSON{
		ID:                  h.ID,
		Name:                h.Name,
		Description:         h.Description,
		Location:            h.Location,
		ImageURL:            h.ImageURL,
		PricePerNight:       h.PricePerNight,
		Rating:              h.Rating,
		Amenities:           h.Amenities,
		OwnerID:             h.OwnerID,
		VirtualTourURL:      h.VirtualTourURL,
		AdditionalImages:    h.AdditionalImages,
		SubscriptionStatus:  h.SubscriptionStatus,
		SubscriptionEndDate: h.SubscriptionEndDate,
	}
}

func bookingToJSON(b domain.Booking) bookingJSON {
	return bookingJSON{
		ID:         b.ID,
		UserID:     b.UserID,
		HotelID:    b.HotelID,
		CheckIn:    b.CheckIn.Format(dateLayout),
		CheckOut:   b.CheckOut.Format(dateLayout),
		TotalPrice: b.TotalPrice,
		Status:     b.Status,
		CreatedAt:  b.CreatedAt,
	}
}

// ---- write helpers ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeError emits the `{error}` body the payment/booking routes use.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// decodeValid decodes the body into dst and runs struct validation.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// serviceError maps workflow errors onto the wire. Processor messages
// are passed through verbatim, matching the original behavior.
func serviceError(w http.ResponseWriter, err error) {
	var apiErr *stripe.APIError
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Hotel not found")
	case errors.Is(err, domain.ErrUnauthenticated):
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
	case errors.As(err, &apiErr):
		writeError(w, http.StatusBadRequest, apiErr.Message)
	default:
		log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// calcETagAndBody marshals once and hashes once, returning both.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// ---- hotel reads ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.Q.ListHotels(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to list hotels")
		return
	}
	out := make([]hotelJSON, 0, len(hotels))
	for _, hv := range hotels {
		out = append(out, hotelToJSON(hv))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	hotel, err := h.Q.GetHotel(r.Context(), id)
	if err != nil {
		// plain text on unknown hotel, matching the public contract
		http.Error(w, "Hotel not found", http.StatusNotFound)
		return
	}

	etag, body := calcETagAndBody(hotelToJSON(hotel))
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getHotel body")
	}
}

// ---- booking workflow ----

func (h *Handlers) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req createIntentRequest
	if !decodeValid(w, r, &req) {
		return
	}

	res, err := h.B.CreatePaymentIntent(r.Context(), userID, req.HotelID, req.Nights)
	if err != nil {
		observability.ObserveIntent("failed")
		serviceError(w, err)
		return
	}
	observability.ObserveIntent("created")
	writeJSON(w, http.StatusOK, map[string]any{
		"clientSecret": res.ClientSecret,
		"amount":       res.Amount,
	})
}

func (h *Handlers) confirmPayment(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req confirmPaymentRequest
	if !decodeValid(w, r, &req) {
		return
	}

	status, err := h.B.ConfirmPayment(r.Context(), userID, req.ClientSecret)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req createBookingRequest
	if !decodeValid(w, r, &req) {
		return
	}
	checkIn, _ := time.Parse(dateLayout, req.CheckIn)
	checkOut, _ := time.Parse(dateLayout, req.CheckOut)

	b, err := h.B.CreateBooking(r.Context(), userID, req.HotelID, checkIn, checkOut, req.TotalPrice)
	if err != nil {
		serviceError(w, err)
		return
	}
	observability.ObserveBookingCreated()
	writeJSON(w, http.StatusCreated, bookingToJSON(b))
}

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	bs, err := h.B.ListUserBookings(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	out := make([]bookingJSON, 0, len(bs))
	for _, b := range bs {
		out = append(out, bookingToJSON(b))
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- auth ----

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeValid(w, r, &req) {
		return
	}
	u, token, err := h.A.Register(r.Context(), req.Username, req.Password, req.Email, req.IsHotelOwner)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userJSON{
		ID: u.ID, Username: u.Username, Email: u.Email, IsHotelOwner: u.IsHotelOwner, Token: token,
	})
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeValid(w, r, &req) {
		return
	}
	u, token, err := h.A.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, app.ErrBadCredentials) {
			http.Error(w, "Not authenticated", http.StatusUnauthorized)
			return
		}
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userJSON{
		ID: u.ID, Username: u.Username, Email: u.Email, IsHotelOwner: u.IsHotelOwner, Token: token,
	})
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.A.Logout(r.Context(), sessionToken(r.Context())); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) currentUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	u, err := h.A.UserByID(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userJSON{
		ID: u.ID, Username: u.Username, Email: u.Email, IsHotelOwner: u.IsHotelOwner,
	})
}
