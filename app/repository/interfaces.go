package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/Urlsy/app/models"
)

// Identity is a user profile asserted by an external identity provider
type Identity struct {
	Provider       string
	ProviderUserID string
	Email          string
	Name           string
	AvatarURL      string
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	FindOrCreateByIdentity(ctx context.Context, identity Identity) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

// LinkRepository defines the interface for short link database operations
type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	GetOwnedByID(ctx context.Context, ownerID, id uint) (*models.Link, error)
	GetLiveByCode(ctx context.Context, code string, now time.Time) (*models.Link, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Link, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
	CountActiveByOwner(ctx context.Context, ownerID uint, now time.Time) (int64, error)
	Delete(ctx context.Context, id uint) error
	ClaimGuestLinks(ctx context.Context, guestToken string, ownerID uint) (int64, error)
	UpsertByCode(ctx context.Context, link *models.Link) error
	Count(ctx context.Context) (int64, error)
}

// ClickRepository defines the interface for click tracking database operations
type ClickRepository interface {
	Create(ctx context.Context, click *models.LinkClick) error
	CountByLinkIDs(ctx context.Context, linkIDs []uint) (map[uint]int64, error)
	CountByOwner(ctx context.Context, ownerID uint, since *time.Time) (int64, error)
	ListForLink(ctx context.Context, linkID uint, since *time.Time) ([]models.LinkClick, error)
	ListForOwner(ctx context.Context, ownerID uint, since *time.Time) ([]models.LinkClick, error)
	DeleteByLink(ctx context.Context, linkID uint) error
	Count(ctx context.Context) (int64, error)
}

// UsageRepository defines the interface for monthly usage counters
type UsageRepository interface {
	Get(ctx context.Context, userID uint, monthStart time.Time) (*models.UsageMonthly, error)
	IncrementTrackedClicks(ctx context.Context, userID uint, monthStart time.Time) error
	IncrementCreatedLinks(ctx context.Context, userID uint, monthStart time.Time) error
}
