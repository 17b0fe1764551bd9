package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/Urlsy/app/models"
)

type clickRepository struct {
	db *gorm.DB
}

// NewClickRepository creates a new click repository instance
func NewClickRepository(db *gorm.DB) ClickRepository {
	return &clickRepository{db: db}
}

func (r *clickRepository) Create(ctx context.Context, click *models.LinkClick) error {
	return r.db.WithContext(ctx).Create(click).Error
}

// CountByLinkIDs returns click totals keyed by link id. Links without clicks are absent.
func (r *clickRepository) CountByLinkIDs(ctx context.Context, linkIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(linkIDs))
	if len(linkIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		LinkID uint
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&models.LinkClick{}).
		Select("link_id, COUNT(*) AS total").
		Where("link_id IN ?", linkIDs).
		Group("link_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.LinkID] = row.Total
	}
	return counts, nil
}

// CountByOwner counts clicks on all of the owner's links, optionally since a point in time
func (r *clickRepository) CountByOwner(ctx context.Context, ownerID uint, since *time.Time) (int64, error) {
	var count int64
	q := r.ownerScope(ctx, ownerID)
	if since != nil {
		q = q.Where("link_clicks.clicked_at >= ?", *since)
	}
	err := q.Count(&count).Error
	return count, err
}

// ListForLink returns the link's clicks in chronological order
func (r *clickRepository) ListForLink(ctx context.Context, linkID uint, since *time.Time) ([]models.LinkClick, error) {
	var clicks []models.LinkClick
	q := r.db.WithContext(ctx).Where("link_id = ?", linkID)
	if since != nil {
		q = q.Where("clicked_at >= ?", *since)
	}
	err := q.Order("clicked_at ASC").Find(&clicks).Error
	return clicks, err
}

// ListForOwner returns the clicks of all the owner's links in chronological order
func (r *clickRepository) ListForOwner(ctx context.Context, ownerID uint, since *time.Time) ([]models.LinkClick, error) {
	var clicks []models.LinkClick
	q := r.ownerScope(ctx, ownerID)
	if since != nil {
		q = q.Where("link_clicks.clicked_at >= ?", *since)
	}
	err := q.Select("link_clicks.*").Order("link_clicks.clicked_at ASC").Find(&clicks).Error
	return clicks, err
}

func (r *clickRepository) DeleteByLink(ctx context.Context, linkID uint) error {
	return r.db.WithContext(ctx).Where("link_id = ?", linkID).Delete(&models.LinkClick{}).Error
}

func (r *clickRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LinkClick{}).Count(&count).Error
	return count, err
}

func (r *clickRepository) ownerScope(ctx context.Context, ownerID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.LinkClick{}).
		Joins("JOIN links ON links.id = link_clicks.link_id").
		Where("links.owner_id = ?", ownerID)
}
