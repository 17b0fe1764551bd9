package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/Urlsy/app/models"
)

type usageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a new usage repository instance
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

// Get returns the counters for the month, or zero counters when nothing was recorded yet.
func (r *usageRepository) Get(ctx context.Context, userID uint, monthStart time.Time) (*models.UsageMonthly, error) {
	var usage models.UsageMonthly
	err := r.db.WithContext(ctx).Where("user_id = ? AND month_start = ?", userID, monthStart).First(&usage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UsageMonthly{UserID: userID, MonthStart: monthStart}, nil
	}
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

func (r *usageRepository) IncrementTrackedClicks(ctx context.Context, userID uint, monthStart time.Time) error {
	return r.increment(ctx, userID, monthStart, "tracked_clicks")
}

func (r *usageRepository) IncrementCreatedLinks(ctx context.Context, userID uint, monthStart time.Time) error {
	return r.increment(ctx, userID, monthStart, "created_links")
}

// increment creates the month row with the column at 1 or adds 1 to it
func (r *usageRepository) increment(ctx context.Context, userID uint, monthStart time.Time, column string) error {
	row := models.UsageMonthly{UserID: userID, MonthStart: monthStart}
	switch column {
	case "tracked_clicks":
		row.TrackedClicks = 1
	case "created_links":
		row.CreatedLinks = 1
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "month_start"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			column:       gorm.Expr(column + " + 1"),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&row).Error
}
