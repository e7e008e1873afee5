package app

import (
	"context"
	"fmt"
	"time"

	"stayfinder/internal/domain"
)

const hotelsListKey = "hotels:all"

type QueryService struct {
	repo     domain.HotelRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.HotelRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	key := hotelKey(id)
	var h domain.Hotel
	if ok, _ := s.cache.Get(ctx, key, &h); ok {
		return h, nil
	}
	h, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	_ = s.cache.Set(ctx, key, h, int(s.cacheTTL.Seconds()))
	return h, nil
}

func (s *QueryService) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	var out []domain.Hotel
	if ok, _ := s.cache.Get(ctx, hotelsListKey, &out); ok {
		return out, nil
	}

	hs, err := s.repo.ListHotels(ctx)
	if err != nil {
		return nil, err
	}

	// copy to avoid aliasing the repo's backing array into the cache
	cp := make([]domain.Hotel, len(hs))
	copy(cp, hs)
	_ = s.cache.Set(ctx, hotelsListKey, cp, int(s.cacheTTL.Seconds()))
	return cp, nil
}

func hotelKey(id int64) string { return fmt.Sprintf("hotel:%d", id) }
