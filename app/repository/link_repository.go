package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/Urlsy/app/models"
)

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates a new link repository instance
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

// Create inserts the link. A taken code surfaces as gorm.ErrDuplicatedKey.
func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(link).Error
}

// GetOwnedByID retrieves a link only if it belongs to the owner
func (r *linkRepository) GetOwnedByID(ctx context.Context, ownerID, id uint) (*models.Link, error) {
	var link models.Link
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetLiveByCode retrieves an active, unexpired link with its owner preloaded
func (r *linkRepository) GetLiveByCode(ctx context.Context, code string, now time.Time) (*models.Link, error) {
	var link models.Link
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("code = ? AND is_active = ?", code, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// ListByOwner returns the owner's links, newest first
func (r *linkRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Link, error) {
	var links []models.Link
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&links).Error
	return links, err
}

func (r *linkRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Link{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

// CountActiveByOwner counts links that still redirect
func (r *linkRepository) CountActiveByOwner(ctx context.Context, ownerID uint, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Link{}).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&count).Error
	return count, err
}

func (r *linkRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Link{}, id).Error
}

// ClaimGuestLinks assigns all ownerless links created with the guest token to the owner
func (r *linkRepository) ClaimGuestLinks(ctx context.Context, guestToken string, ownerID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Link{}).
		Where("owner_id IS NULL AND guest_token = ?", guestToken).
		Updates(map[string]interface{}{
			"owner_id":    ownerID,
			"guest_token": gorm.Expr("NULL"),
		})
	return res.RowsAffected, res.Error
}

// UpsertByCode creates the link or resets target, source and state of an existing code
func (r *linkRepository) UpsertByCode(ctx context.Context, link *models.Link) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"target_url", "source", "is_active", "expires_at", "updated_at"}),
	}).Create(link).Error
}

func (r *linkRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Link{}).Count(&count).Error
	return count, err
}
