package analytics

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/Urlsy/app/models"
	"github.com/ManuelReschke/Urlsy/app/repository"
	"github.com/ManuelReschke/Urlsy/internal/pkg/entitlements"
)

var (
	ErrProRequired  = errors.New("pro_required")
	ErrLinkNotFound = errors.New("not_found")
)

// Service answers the PRO analytics endpoints.
type Service struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewService(repos *repository.Repositories) *Service {
	return &Service{repos: repos, now: time.Now}
}

// ForLink aggregates the clicks of one owned link.
func (s *Service) ForLink(ctx context.Context, userID, linkID uint, window Window) (*Response, error) {
	if err := s.requirePro(ctx, userID); err != nil {
		return nil, err
	}
	link, err := s.repos.Link.GetOwnedByID(ctx, userID, linkID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	clicks, err := s.repos.Click.ListForLink(ctx, link.ID, window.Since(s.now()))
	if err != nil {
		return nil, err
	}
	res := Build(clicks)
	return &res, nil
}

// ForOwner aggregates the clicks across all links of the user.
func (s *Service) ForOwner(ctx context.Context, userID uint, window Window) (*Response, error) {
	if err := s.requirePro(ctx, userID); err != nil {
		return nil, err
	}
	clicks, err := s.repos.Click.ListForOwner(ctx, userID, window.Since(s.now()))
	if err != nil {
		return nil, err
	}
	res := Build(clicks)
	return &res, nil
}

func (s *Service) requirePro(ctx context.Context, userID uint) error {
	plan := models.PlanFree
	user, err := s.repos.User.GetByID(ctx, userID)
	switch {
	case err == nil:
		plan = user.PlanTier
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	if !entitlements.CanUseAdvancedAnalytics(plan) {
		return ErrProRequired
	}
	return nil
}
