package app

import (
	"context"

	"stayfinder/internal/domain"
)

// SeedService upserts hotel records and keeps the read cache honest.
// Used by cmd/seeder; the API never writes hotels.
type SeedService struct {
	repo  domain.HotelRepository
	cache domain.Cache
}

func NewSeedService(r domain.HotelRepository, c domain.Cache) *SeedService {
	return &SeedService{repo: r, cache: c}
}

func (s *SeedService) SeedHotel(ctx context.Context, h domain.Hotel) error {
	if err := s.repo.UpsertHotel(ctx, h); err != nil {
		return err
	}
	// Evict so readers never see a stale snapshot of this hotel or of
	// the listing that contains it.
	if s.cache != nil {
		_ = s.cache.Del(ctx, hotelKey(h.ID))
		_ = s.cache.Del(ctx, hotelsListKey)
	}
	return nil
}
