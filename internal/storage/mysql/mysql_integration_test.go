//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"stayfinder/internal/domain"
	mysqlrepo "stayfinder/internal/storage/mysql"
)

// ---------- small helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/migrations)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// ---------- the test ----------

func TestRepo_MySQL_BookingWorkflow(t *testing.T) {
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=stayfinder",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "stayfinder")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// a user and a hotel to book against
	u, err := repo.CreateUser(ctx, "ana", "$2a$10$fakehashfakehashfakehash", nil, false)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := repo.GetUserByUsername(ctx, "ana"); err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if _, err := repo.GetUserByUsername(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}

	h := domain.Hotel{
		ID:                 10001,
		Name:               "The Grand Meridian",
		Description:        "Downtown landmark",
		Location:           "New York, NY",
		ImageURL:           "https://images.example.com/gm.jpg",
		PricePerNight:      120,
		Rating:             4.7,
		Amenities:          []string{"wifi", "pool"},
		AdditionalImages:   []string{},
		SubscriptionStatus: "active",
	}
	if err := repo.UpsertHotel(ctx, h); err != nil {
		t.Fatalf("UpsertHotel: %v", err)
	}
	// Upsert again with a new price; must update, not duplicate
	h.PricePerNight = 135
	if err := repo.UpsertHotel(ctx, h); err != nil {
		t.Fatalf("UpsertHotel (update): %v", err)
	}

	got, err := repo.GetHotel(ctx, 10001)
	if err != nil {
		t.Fatalf("GetHotel: %v", err)
	}
	if got.Name != "The Grand Meridian" || got.PricePerNight != 135 {
		t.Fatalf("unexpected hotel: %+v", got)
	}
	if len(got.Amenities) != 2 {
		t.Fatalf("amenities round trip: %+v", got.Amenities)
	}
	if _, err := repo.GetHotel(ctx, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	hotels, err := repo.ListHotels(ctx)
	if err != nil || len(hotels) != 1 {
		t.Fatalf("ListHotels: %v (%d)", err, len(hotels))
	}

	// persist a booking twice with the same payload; the schema has no
	// idempotency key, so two rows is the current contract.
	nb := domain.NewBooking{
		UserID:     u.ID,
		HotelID:    10001,
		CheckIn:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
		TotalPrice: 360,
	}
	b1, err := repo.CreateBooking(ctx, nb)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b1.Status != domain.StatusPending {
		t.Fatalf("status = %q, want pending", b1.Status)
	}
	if b1.TotalPrice != 360 {
		t.Fatalf("total = %v", b1.TotalPrice)
	}
	b2, err := repo.CreateBooking(ctx, nb)
	if err != nil {
		t.Fatalf("CreateBooking (dup): %v", err)
	}
	if b2.ID == b1.ID {
		t.Fatalf("expected distinct rows, both id=%d", b1.ID)
	}

	rows, err := repo.ListUserBookings(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListUserBookings: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("bookings = %d, want 2 (duplicate submissions make distinct rows)", len(rows))
	}
	if rows[0].CheckIn.Format("2006-01-02") != "2024-06-01" {
		t.Fatalf("check_in round trip: %v", rows[0].CheckIn)
	}

	other, err := repo.ListUserBookings(ctx, u.ID+100)
	if err != nil || len(other) != 0 {
		t.Fatalf("expected no bookings for other user: %v (%d)", err, len(other))
	}
}
