package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"stayfinder/internal/domain"
)

var ErrBadCredentials = errors.New("invalid username or password")

// AuthService handles register/login/logout against the user table
// and the session store. Everything downstream only ever sees the
// resolved user id from the request context.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionStore
	sessionTTL time.Duration
}

func NewAuthService(u domain.UserRepository, s domain.SessionStore, ttl time.Duration) *AuthService {
	return &AuthService{users: u, sessions: s, sessionTTL: ttl}
}

// Register creates the account and logs it straight in, returning the
// fresh session token alongside the user.
func (s *AuthService) Register(ctx context.Context, username, password string, email *string, isOwner bool) (domain.User, string, error) {
	if username == "" {
		return domain.User{}, "", domain.Validationf("username is required")
	}
	if len(password) < 6 {
		return domain.User{}, "", domain.Validationf("password must be at least 6 characters")
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return domain.User{}, "", domain.Validationf("username already taken")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, "", err
	}

	u, err := s.users.CreateUser(ctx, username, string(hash), email, isOwner)
	if err != nil {
		return domain.User{}, "", err
	}

	token, err := s.sessions.Create(ctx, u.ID, s.sessionTTL)
	if err != nil {
		// account exists; the caller can still log in explicitly
		log.Warn().Err(err).Int64("user_id", u.ID).Msg("session create after register failed")
		return u, "", nil
	}

	log.Info().Int64("user_id", u.ID).Str("username", username).Msg("user registered")
	return u, token, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (domain.User, string, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, "", ErrBadCredentials
		}
		return domain.User{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return domain.User{}, "", ErrBadCredentials
	}

	token, err := s.sessions.Create(ctx, u.ID, s.sessionTTL)
	if err != nil {
		return domain.User{}, "", err
	}
	return u, token, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

func (s *AuthService) UserByID(ctx context.Context, id int64) (domain.User, error) {
	return s.users.GetUserByID(ctx, id)
}
