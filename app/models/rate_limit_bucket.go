package models

import "time"

// RateLimitBucket counts hits for one caller and endpoint inside one fixed
// window. Old buckets are never read again and need no expiry.
type RateLimitBucket struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CallerKey   string    `gorm:"type:varchar(191);not null;index:ux_rate_limit_buckets_key,unique,priority:1" json:"caller_key"`
	Endpoint    string    `gorm:"type:varchar(64);not null;index:ux_rate_limit_buckets_key,unique,priority:2" json:"endpoint"`
	BucketStart time.Time `gorm:"not null;index:ux_rate_limit_buckets_key,unique,priority:3" json:"bucket_start"`
	Hits        int       `gorm:"not null;default:0" json:"hits"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
