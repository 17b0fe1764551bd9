package models

import "time"

// UsageMonthly counts metered usage per user and UTC calendar month
type UsageMonthly struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index:ux_usage_monthly_user_month,unique,priority:1" json:"user_id"`
	MonthStart    time.Time `gorm:"not null;index:ux_usage_monthly_user_month,unique,priority:2" json:"month_start"`
	TrackedClicks int       `gorm:"not null;default:0" json:"tracked_clicks"`
	CreatedLinks  int       `gorm:"not null;default:0" json:"created_links"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UsageMonthly) TableName() string {
	return "usage_monthly"
}
