package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
)

var client *redis.Client

// SetupCache initializes the connection to the Redis/Dragonfly cache server.
// A failed ping is logged; callers treat cache misses as soft failures.
func SetupCache(cfg config.CacheConfig) *redis.Client {
	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if pong, err := client.Ping(ctx).Result(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr()).Msg("could not connect to cache")
	} else {
		log.Info().Str("addr", cfg.Addr()).Str("pong", pong).Msg("connected to cache")
	}
	return client
}

// GetClient returns the Redis client instance or nil before SetupCache ran
func GetClient() *redis.Client {
	return client
}
