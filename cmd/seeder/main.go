package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"stayfinder/internal/adapters/observability"
	redisad "stayfinder/internal/adapters/redis"
	"stayfinder/internal/app"
	"stayfinder/internal/domain"
	"stayfinder/internal/shared"
	mysqlrepo "stayfinder/internal/storage/mysql"
)

// hotelFixture is the on-disk shape of a seed record.
type hotelFixture struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	Location            string     `json:"location"`
	ImageURL            string     `json:"imageUrl"`
	PricePerNight       float64    `json:"pricePerNight"`
	Rating              float64    `json:"rating"`
	Amenities           []string   `json:"amenities"`
	OwnerID             *int64     `json:"ownerId"`
	VirtualTourURL      *string    `json:"virtualTourUrl"`
	AdditionalImages    []string   `json:"additionalImages"`
	SubscriptionStatus  string     `json:"subscriptionStatus"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate"`
}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("file", cfg.SeedFile).
		Int("workers", cfg.Workers).
		Msg("seeder starting")

	raw, err := os.ReadFile(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("read seed file failed")
	}
	var fixtures []hotelFixture
	if err := json.Unmarshal(raw, &fixtures); err != nil {
		log.Fatal().Err(err).Msg("parse seed file failed")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	seeder := app.NewSeedService(repo, cache)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, fx := range fixtures {
		fx := fx

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			h := domain.Hotel{
				ID:                  fx.ID,
				Name:                fx.Name,
				Description:         fx.Description,
				Location:            fx.Location,
				ImageURL:            fx.ImageURL,
				PricePerNight:       fx.PricePerNight,
				Rating:              fx.Rating,
				Amenities:           fx.Amenities,
				OwnerID:             fx.OwnerID,
				VirtualTourURL:      fx.VirtualTourURL,
				AdditionalImages:    fx.AdditionalImages,
				SubscriptionStatus:  fx.SubscriptionStatus,
				SubscriptionEndDate: fx.SubscriptionEndDate,
			}
			if h.SubscriptionStatus == "" {
				h.SubscriptionStatus = "trial"
			}
			if err := seeder.SeedHotel(ctx, h); err != nil {
				log.Warn().Int64("id", fx.ID).Err(err).Msg("seed failed")
				return
			}
			log.Info().Int64("id", fx.ID).Str("name", fx.Name).Msg("seed ok")
		}()
	}

	wg.Wait()
	log.Info().Msg("seeding completed")
}
