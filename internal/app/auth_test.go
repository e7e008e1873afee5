package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"stayfinder/internal/app"
	"stayfinder/internal/domain"
)

type fakeUsers struct {
	byName map[string]domain.User
	nextID int64
}

func (f *fakeUsers) CreateUser(ctx context.Context, username, hash string, email *string, isOwner bool) (domain.User, error) {
	if f.byName == nil {
		f.byName = map[string]domain.User{}
	}
	f.nextID++
	u := domain.User{ID: f.nextID, Username: username, PasswordHash: hash, Email: email, IsHotelOwner: isOwner, CreatedAt: time.Now()}
	f.byName[username] = u
	return u, nil
}

func (f *fakeUsers) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	u, ok := f.byName[username]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

type fakeSessions struct {
	byToken map[string]int64
	n       int
}

func (f *fakeSessions) Create(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	if f.byToken == nil {
		f.byToken = map[string]int64{}
	}
	f.n++
	token := fmt.Sprintf("tok-%d", f.n)
	f.byToken[token] = userID
	return token, nil
}

func (f *fakeSessions) Resolve(ctx context.Context, token string) (int64, error) {
	id, ok := f.byToken[token]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return id, nil
}

func (f *fakeSessions) Destroy(ctx context.Context, token string) error {
	delete(f.byToken, token)
	return nil
}

func TestRegister_HashesPasswordAndLogsIn(t *testing.T) {
	users := &fakeUsers{}
	sessions := &fakeSessions{}
	a := app.NewAuthService(users, sessions, time.Hour)

	u, token, err := a.Register(context.Background(), "ana", "hunter22", nil, false)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if u.PasswordHash == "hunter22" || u.PasswordHash == "" {
		t.Fatalf("password stored in the clear")
	}
	if token == "" {
		t.Fatal("expected auto-login session token")
	}
	if id, err := sessions.Resolve(context.Background(), token); err != nil || id != u.ID {
		t.Fatalf("token does not resolve to user: %v %d", err, id)
	}
}

func TestRegister_RejectsShortPasswordAndDupes(t *testing.T) {
	a := app.NewAuthService(&fakeUsers{}, &fakeSessions{}, time.Hour)

	if _, _, err := a.Register(context.Background(), "ana", "short", nil, false); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, _, err := a.Register(context.Background(), "ana", "hunter22", nil, false); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, _, err := a.Register(context.Background(), "ana", "hunter22", nil, false); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected duplicate username rejection, got %v", err)
	}
}

func TestLoginLogout(t *testing.T) {
	users := &fakeUsers{}
	sessions := &fakeSessions{}
	a := app.NewAuthService(users, sessions, time.Hour)

	if _, _, err := a.Register(context.Background(), "ana", "hunter22", nil, false); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := a.Login(context.Background(), "ana", "wrong"); !errors.Is(err, app.ErrBadCredentials) {
		t.Fatalf("expected bad credentials, got %v", err)
	}
	if _, _, err := a.Login(context.Background(), "nobody", "hunter22"); !errors.Is(err, app.ErrBadCredentials) {
		t.Fatalf("unknown user should look like bad credentials, got %v", err)
	}

	u, token, err := a.Login(context.Background(), "ana", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Username != "ana" || token == "" {
		t.Fatalf("unexpected login result: %+v %q", u, token)
	}

	if err := a.Logout(context.Background(), token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := sessions.Resolve(context.Background(), token); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("session should be gone, got %v", err)
	}
}
