package statistics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ManuelReschke/Urlsy/app/repository"
)

const (
	CacheKeyTotals  = "statistics:totals"
	CacheExpiration = 5 * time.Minute
)

// Totals are the public headline numbers shown on the homepage
type Totals struct {
	TotalLinks  int64 `json:"totalLinks"`
	TotalClicks int64 `json:"totalClicks"`
	TotalUsers  int64 `json:"totalUsers"`
}

// Service counts totals and caches them in Redis. A nil client disables caching.
type Service struct {
	repos *repository.Repositories
	cache *redis.Client
}

func NewService(repos *repository.Repositories, cache *redis.Client) *Service {
	return &Service{repos: repos, cache: cache}
}

// Get returns the cached totals, recounting them when the cache entry is
// missing or unreadable. Cache failures are logged and never returned.
func (s *Service) Get(ctx context.Context) (Totals, error) {
	if cached, ok := s.cached(ctx); ok {
		return cached, nil
	}

	totals, err := s.count(ctx)
	if err != nil {
		return Totals{}, err
	}

	if s.cache != nil {
		payload, _ := json.Marshal(totals)
		if err := s.cache.Set(ctx, CacheKeyTotals, payload, CacheExpiration).Err(); err != nil {
			log.Warn().Err(err).Msg("failed to cache statistics")
		}
	}
	return totals, nil
}

// Invalidate drops the cached totals
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, CacheKeyTotals).Err()
}

func (s *Service) cached(ctx context.Context) (Totals, bool) {
	if s.cache == nil {
		return Totals{}, false
	}

	raw, err := s.cache.Get(ctx, CacheKeyTotals).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("failed to read statistics cache")
		}
		return Totals{}, false
	}

	var totals Totals
	if err := json.Unmarshal(raw, &totals); err != nil {
		return Totals{}, false
	}
	return totals, true
}

func (s *Service) count(ctx context.Context) (Totals, error) {
	var totals Totals

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repos.Link.Count(gctx)
		totals.TotalLinks = n
		return err
	})
	g.Go(func() error {
		n, err := s.repos.Click.Count(gctx)
		totals.TotalClicks = n
		return err
	})
	g.Go(func() error {
		n, err := s.repos.User.Count(gctx)
		totals.TotalUsers = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Totals{}, err
	}
	return totals, nil
}
