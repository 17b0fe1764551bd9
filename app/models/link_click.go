package models

import "time"

const (
	DeviceBot     = "bot"
	DeviceTablet  = "tablet"
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
	DeviceUnknown = "unknown"
)

// LinkClick is one tracked redirect. The visitor IP is only stored salted and hashed.
type LinkClick struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LinkID     uint      `gorm:"not null;index:idx_link_clicks_link_time,priority:1" json:"link_id"`
	IPHash     string    `gorm:"type:varchar(64);not null" json:"ip_hash"`
	Referrer   string    `gorm:"type:text" json:"referrer"`
	UserAgent  string    `gorm:"type:text" json:"user_agent"`
	Country    string    `gorm:"type:varchar(8)" json:"country"`
	Region     string    `gorm:"type:varchar(100)" json:"region"`
	City       string    `gorm:"type:varchar(100)" json:"city"`
	DeviceType string    `gorm:"type:varchar(16)" json:"device_type"`
	ClickedAt  time.Time `gorm:"not null;index:idx_link_clicks_link_time,priority:2" json:"clicked_at"`
}
