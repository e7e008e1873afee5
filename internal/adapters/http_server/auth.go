package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"stayfinder/internal/domain"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	tokenKey
)

// UserID returns the authenticated user's id from the request context,
// or false when the request carried no valid session.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func sessionToken(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireUser resolves the bearer token against the session store and
// puts the user id into the context. 401 with the original's
// plain-text body when the session is missing or expired.
func RequireUser(sessions domain.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "Not authenticated", http.StatusUnauthorized)
				return
			}
			userID, err := sessions.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					http.Error(w, "Not authenticated", http.StatusUnauthorized)
					return
				}
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
