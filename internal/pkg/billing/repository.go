package billing

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/Urlsy/app/models"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	FindUserByID(ctx context.Context, userID uint) (*models.User, error)
	FindUserByCustomerID(ctx context.Context, customerID string) (*models.User, error)
	SetUserCustomerID(ctx context.Context, userID uint, customerID string) error
	SetUserPlan(ctx context.Context, userID uint, plan string) error
	GetSubscription(ctx context.Context, userID uint) (*models.Subscription, error)
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
	// ClaimEvent records a delivery and reports whether it should be processed.
	// It returns false for events that were already processed.
	ClaimEvent(ctx context.Context, eventID, eventType string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID string) error
	MarkEventFailed(ctx context.Context, eventID, message string) error
	Transaction(ctx context.Context, fn func(repo Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) FindUserByCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) SetUserCustomerID(ctx context.Context, userID uint, customerID string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("stripe_customer_id", customerID).Error
}

func (r *gormRepository) SetUserPlan(ctx context.Context, userID uint, plan string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("plan_tier", plan).Error
}

func (r *gormRepository) GetSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_tier",
			"status",
			"stripe_customer_id",
			"stripe_subscription_id",
			"stripe_price_id",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.WithContext(ctx).Where("user_id = ?", sub.UserID).First(sub).Error
}

func (r *gormRepository) ClaimEvent(ctx context.Context, eventID, eventType string) (bool, error) {
	event := &models.BillingEvent{
		ID:       eventID,
		Type:     eventType,
		Status:   models.BillingEventReceived,
		Attempts: 1,
	}
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	if tx.RowsAffected > 0 {
		return true, nil
	}

	// Redelivery: reset anything that is not terminal. attempts always changes
	// so the affected row count is reliable on MySQL too.
	tx = r.db.WithContext(ctx).Model(&models.BillingEvent{}).
		Where("id = ? AND status <> ?", eventID, models.BillingEventProcessed).
		Updates(map[string]interface{}{
			"type":          eventType,
			"status":        models.BillingEventReceived,
			"error_message": "",
			"processed_at":  nil,
			"attempts":      gorm.Expr("attempts + 1"),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) MarkEventProcessed(ctx context.Context, eventID string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&models.BillingEvent{}).Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status":       models.BillingEventProcessed,
			"processed_at": &now,
		}).Error
}

func (r *gormRepository) MarkEventFailed(ctx context.Context, eventID, message string) error {
	return r.db.WithContext(ctx).Model(&models.BillingEvent{}).Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status":        models.BillingEventFailed,
			"error_message": message,
		}).Error
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(repo Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
