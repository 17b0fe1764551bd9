package models

import "time"

const (
	LinkSourceHomepage  = "homepage_hero"
	LinkSourceDashboard = "dashboard_create"
	LinkSourceSeed      = "seed"
)

// Link is a short code pointing at a target URL. Guest links have no owner and
// carry the guest token of the browser that created them until claimed.
type Link struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	// case-sensitive; binary collation on MySQL is applied by database.AutoMigrate
	Code       string     `gorm:"uniqueIndex;type:varchar(64);not null" json:"code"`
	TargetURL  string     `gorm:"type:text;not null" json:"target_url"`
	Source     string     `gorm:"type:varchar(32);not null;default:'homepage_hero'" json:"source"`
	IsActive   bool       `gorm:"not null" json:"is_active"`
	ExpiresAt  *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	OwnerID    *uint      `gorm:"index:idx_links_owner_created,priority:1" json:"owner_id,omitempty"`
	Owner      *User      `gorm:"foreignKey:OwnerID" json:"-"`
	GuestToken string     `gorm:"type:varchar(64);index;default:null" json:"-"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index:idx_links_owner_created,priority:2" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsLive reports whether the link should still redirect at the given time
func (l *Link) IsLive(now time.Time) bool {
	if !l.IsActive {
		return false
	}
	return l.ExpiresAt == nil || l.ExpiresAt.After(now)
}

// OwnerPlan returns the owner's plan tier, or "" for guest links.
func (l *Link) OwnerPlan() string {
	if l.OwnerID == nil || l.Owner == nil {
		return ""
	}
	return l.Owner.PlanTier
}
