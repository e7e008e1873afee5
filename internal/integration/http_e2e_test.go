//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "stayfinder/internal/adapters/http_server"
	redisad "stayfinder/internal/adapters/redis"
	"stayfinder/internal/adapters/stripe"
	"stayfinder/internal/app"
	"stayfinder/internal/domain"
	mysqlrepo "stayfinder/internal/storage/mysql"
)

// ---------- helpers ----------

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

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=stayfinder",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/stayfinder?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

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
	return db
}

// fake processor implementing just enough of the intents API
func startProcessor(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /payment_intents", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.WriteHeader(200)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "pi_e2e_1",
			"client_secret": "pi_e2e_1_secret_abc",
			"amount":        mustAtoi(r.PostForm.Get("amount")),
			"status":        "requires_payment_method",
		})
	})
	mux.HandleFunc("POST /payment_intents/{id}/confirm", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": r.PathValue("id"), "status": "succeeded",
		})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func mustAtoi(s string) int64 {
	var n int64
	_, _ = fmt.Sscan(s, &n)
	return n
}

// ---------- the test ----------

func TestHTTP_E2E_BookingFlow(t *testing.T) {
	db := startMySQL(t)
	applyMigrations(t, db)

	mr := miniredis.RunT(t)
	processor := startProcessor(t)

	repo := mysqlrepo.New(db)
	cache := redisad.New(mr.Addr(), "", 0)
	sessions := redisad.NewSessions(mr.Addr(), "", 0)
	payments, err := stripe.New(processor.URL, "sk_test_e2e", 100)
	if err != nil {
		t.Fatalf("stripe client: %v", err)
	}

	srv := server.New()
	srv.MountHandlers(&server.Handlers{
		Q:        app.NewQueryService(repo, cache, time.Minute),
		B:        app.NewBookingService(repo, repo, payments, "usd", "http://localhost/complete"),
		A:        app.NewAuthService(repo, sessions, time.Hour),
		Sessions: sessions,
	})
	api := httptest.NewServer(srv.Mux())
	t.Cleanup(api.Close)

	// seed one hotel straight through the repo
	seed := app.NewSeedService(repo, cache)
	if err := seed.SeedHotel(context.Background(), domain.Hotel{
		ID:                 1,
		Name:               "Seaside Palms Resort",
		Description:        "Beachfront bungalows",
		Location:           "Key West, FL",
		ImageURL:           "https://images.example.com/sp.jpg",
		PricePerNight:      120,
		Rating:             4.9,
		Amenities:          []string{"wifi", "beach"},
		SubscriptionStatus: "active",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	post := func(path, token string, body any) (*http.Response, []byte) {
		b, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, api.URL+path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		defer resp.Body.Close()
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return resp, buf.Bytes()
	}

	// register
	resp, body := post("/api/register", "", map[string]any{"username": "ana", "password": "hunter22"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: %d %s", resp.StatusCode, body)
	}
	var reg struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(body, &reg)

	// intent: 3 nights at $120 -> 36000 cents
	resp, body = post("/api/create-payment-intent", reg.Token, map[string]any{"hotelId": 1, "nights": 3})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("intent: %d %s", resp.StatusCode, body)
	}
	var intent struct {
		ClientSecret string `json:"clientSecret"`
		Amount       int64  `json:"amount"`
	}
	_ = json.Unmarshal(body, &intent)
	if intent.Amount != 36000 || intent.ClientSecret == "" {
		t.Fatalf("unexpected intent: %s", body)
	}

	// confirm
	resp, body = post("/api/confirm-payment", reg.Token, map[string]any{"clientSecret": intent.ClientSecret})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm: %d %s", resp.StatusCode, body)
	}

	// book
	resp, body = post("/api/bookings", reg.Token, map[string]any{
		"hotelId": 1, "checkIn": "2024-06-01", "checkOut": "2024-06-04", "totalPrice": 360,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("booking: %d %s", resp.StatusCode, body)
	}
	var booked struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	_ = json.Unmarshal(body, &booked)
	if booked.Status != "pending" || booked.ID == 0 {
		t.Fatalf("unexpected booking: %s", body)
	}

	// list
	req, _ := http.NewRequest(http.MethodGet, api.URL+"/api/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	listResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer listResp.Body.Close()
	var rows []json.RawMessage
	_ = json.NewDecoder(listResp.Body).Decode(&rows)
	if len(rows) != 1 {
		t.Fatalf("bookings = %d, want 1", len(rows))
	}
}
