package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/Urlsy/app/models"
)

// Result is the outcome of one Consume call.
type Result struct {
	Allowed    bool
	Hits       int
	Limit      int
	RetryAfter int // seconds until the window resets, at least 1
	ResetAt    time.Time
}

// Limiter is a fixed window rate limiter backed by the rate_limit_buckets table.
// Concurrent requests serialize on the bucket row inside the database.
type Limiter struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Limiter {
	return &Limiter{db: db, now: time.Now}
}

// WithClock returns a copy of the limiter using the given clock
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	return &Limiter{db: l.db, now: now}
}

// BucketStart returns the start of the fixed window containing now.
func BucketStart(now time.Time, window time.Duration) time.Time {
	ms := now.UnixMilli()
	w := window.Milliseconds()
	return time.UnixMilli((ms / w) * w).UTC()
}

// Consume records one hit for (key, endpoint) in the current window and
// reports whether it is within limit.
func (l *Limiter) Consume(ctx context.Context, key, endpoint string, limit int, window time.Duration) (Result, error) {
	if window <= 0 || limit <= 0 {
		return Result{}, fmt.Errorf("invalid rate limit %d per %s", limit, window)
	}

	now := l.now()
	start := BucketStart(now, window)

	var bucket models.RateLimitBucket
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.RateLimitBucket{
			CallerKey:   key,
			Endpoint:    endpoint,
			BucketStart: start,
			Hits:        1,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "caller_key"}, {Name: "endpoint"}, {Name: "bucket_start"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"hits":       gorm.Expr("hits + 1"),
				"updated_at": now.UTC(),
			}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Where("caller_key = ? AND endpoint = ? AND bucket_start = ?", key, endpoint, start).
			First(&bucket).Error
	})
	if err != nil {
		return Result{}, fmt.Errorf("rate limit %s/%s: %w", endpoint, key, err)
	}

	resetAt := start.Add(window)
	retryAfter := int(math.Ceil(float64(resetAt.Sub(now).Milliseconds()) / 1000))
	if retryAfter < 1 {
		retryAfter = 1
	}

	return Result{
		Allowed:    bucket.Hits <= limit,
		Hits:       bucket.Hits,
		Limit:      limit,
		RetryAfter: retryAfter,
		ResetAt:    resetAt,
	}, nil
}
