package links

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Urlsy/app/models"
	"github.com/ManuelReschke/Urlsy/app/repository"
	"github.com/ManuelReschke/Urlsy/internal/pkg/entitlements"
	"github.com/ManuelReschke/Urlsy/internal/pkg/logger"
	"github.com/ManuelReschke/Urlsy/internal/pkg/metrics"
	"github.com/ManuelReschke/Urlsy/internal/pkg/ratelimit"
	"github.com/ManuelReschke/Urlsy/internal/pkg/shortener"
	"github.com/ManuelReschke/Urlsy/internal/pkg/visitor"
)

const (
	ShortenEndpoint   = "shorten"
	ShortenGuestLimit = 10
	ShortenUserLimit  = 30
	ShortenWindow     = time.Minute

	maxCodeAttempts = 5
)

// RateLimiter consumes one hit of a fixed window budget
type RateLimiter interface {
	Consume(ctx context.Context, key, endpoint string, limit int, window time.Duration) (ratelimit.Result, error)
}

// Service implements link creation, lookup, click tracking and the dashboard listing.
type Service struct {
	repos   *repository.Repositories
	limiter RateLimiter
	metrics *metrics.Metrics
	now     func() time.Time
	newCode func() (string, error)
}

func NewService(repos *repository.Repositories, limiter RateLimiter, m *metrics.Metrics) *Service {
	return &Service{
		repos:   repos,
		limiter: limiter,
		metrics: m,
		now:     time.Now,
		newCode: shortener.GenerateCode,
	}
}

// Caller identifies who creates a link. UserID is 0 for guests.
type Caller struct {
	UserID     uint
	GuestToken string
	IPHash     string
}

func (c Caller) rateLimitKey() (string, int) {
	if c.UserID != 0 {
		return "shorten:user:" + strconv.FormatUint(uint64(c.UserID), 10), ShortenUserLimit
	}
	return "shorten:ip:" + c.IPHash, ShortenGuestLimit
}

// ShortenInput is the public homepage form
type ShortenInput struct {
	URL    string
	Source string
	Caller Caller
}

// CreateInput is the signed-in dashboard form. Alias and expiry are PRO features.
type CreateInput struct {
	URL       string
	Alias     string
	ExpiresAt *time.Time
}

// Shorten creates a link from the public homepage for a guest or a signed-in user.
func (s *Service) Shorten(ctx context.Context, in ShortenInput) (*models.Link, error) {
	if in.Source != models.LinkSourceHomepage {
		return nil, ErrInvalidSource
	}

	target, err := shortener.NormalizeURL(in.URL)
	if err != nil {
		logger.Event("shorten_invalid_url").Msg("rejected url")
		return nil, ErrInvalidURL
	}

	key, limit := in.Caller.rateLimitKey()
	res, err := s.limiter.Consume(ctx, key, ShortenEndpoint, limit, ShortenWindow)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		s.metrics.RateLimited(ShortenEndpoint)
		logger.Event("shorten_rate_limited").Int("hits", res.Hits).Int("retry_after", res.RetryAfter).Msg("shorten rate limited")
		return nil, &RateLimitError{RetryAfter: res.RetryAfter, Hits: res.Hits}
	}

	link := &models.Link{
		TargetURL: target,
		Source:    in.Source,
		IsActive:  true,
	}

	if in.Caller.UserID == 0 {
		link.GuestToken = in.Caller.GuestToken
		if err := s.insertWithGeneratedCode(ctx, link, nil); err != nil {
			return nil, err
		}
		s.created(link, "guest")
		return link, nil
	}

	user, err := s.activeLinkCheck(ctx, in.Caller.UserID)
	if err != nil {
		return nil, err
	}
	link.OwnerID = &user.ID
	if err := s.insertWithGeneratedCode(ctx, link, &user.ID); err != nil {
		return nil, err
	}
	s.created(link, "authenticated")
	return link, nil
}

// Create creates a link from the dashboard for a signed-in user.
func (s *Service) Create(ctx context.Context, userID uint, in CreateInput) (*models.Link, error) {
	target, err := shortener.NormalizeURL(in.URL)
	if err != nil {
		return nil, ErrInvalidURL
	}

	user, err := s.activeLinkCheck(ctx, userID)
	if err != nil {
		return nil, err
	}

	alias := strings.TrimSpace(in.Alias)
	if alias != "" || in.ExpiresAt != nil {
		if alias != "" && !entitlements.CanUseAlias(user.PlanTier) {
			return nil, ErrProRequired
		}
		if in.ExpiresAt != nil && !entitlements.CanUseExpiry(user.PlanTier) {
			return nil, ErrProRequired
		}
	}
	if alias != "" && !shortener.IsValidCode(alias) {
		return nil, ErrInvalidAlias
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(s.now()) {
		return nil, ErrInvalidExpiry
	}

	link := &models.Link{
		TargetURL: target,
		Source:    models.LinkSourceDashboard,
		IsActive:  true,
		OwnerID:   &user.ID,
	}
	if in.ExpiresAt != nil {
		expires := in.ExpiresAt.UTC()
		link.ExpiresAt = &expires
	}

	if alias != "" {
		link.Code = alias
		err := s.insert(ctx, link, &user.ID)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAliasTaken
		}
		if err != nil {
			return nil, err
		}
		s.created(link, "authenticated")
		return link, nil
	}

	if err := s.insertWithGeneratedCode(ctx, link, &user.ID); err != nil {
		return nil, err
	}
	s.created(link, "authenticated")
	return link, nil
}

func (s *Service) activeLinkCheck(ctx context.Context, userID uint) (*models.User, error) {
	var (
		user   *models.User
		active int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.repos.User.GetByID(gctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		user = u
		return err
	})
	g.Go(func() error {
		n, err := s.repos.Link.CountActiveByOwner(gctx, userID, s.now().UTC())
		active = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !entitlements.CanCreateActiveLink(user.PlanTier, active) {
		return nil, ErrFreeLimitReached
	}
	return user, nil
}

// insertWithGeneratedCode retries random codes on unique collisions.
func (s *Service) insertWithGeneratedCode(ctx context.Context, link *models.Link, ownerID *uint) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return err
		}
		link.ID = 0
		link.Code = code

		err = s.insert(ctx, link, ownerID)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return err
	}

	logger.ErrorEvent("shorten_server_error", ErrCodeGenerationExhausted).Str("reason", "code_generation_exhausted").Msg("no free code")
	return ErrCodeGenerationExhausted
}

// insert stores the link. Owned links bump the monthly created_links counter in the same transaction.
func (s *Service) insert(ctx context.Context, link *models.Link, ownerID *uint) error {
	if ownerID == nil {
		return s.repos.Link.Create(ctx, link)
	}
	month := entitlements.MonthStartUTC(s.now())
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Link.Create(ctx, link); err != nil {
			return err
		}
		return tx.Usage.IncrementCreatedLinks(ctx, *ownerID, month)
	})
}

func (s *Service) created(link *models.Link, ownerType string) {
	s.metrics.LinkCreated(link.Source)
	logger.Event("shorten_success").Str("code", link.Code).Str("source", link.Source).Str("owner_type", ownerType).Msg("link created")
}

// Delete removes an owned link and its clicks.
func (s *Service) Delete(ctx context.Context, ownerID, linkID uint) error {
	link, err := s.repos.Link.GetOwnedByID(ctx, ownerID, linkID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Click.DeleteByLink(ctx, link.ID); err != nil {
			return err
		}
		return tx.Link.Delete(ctx, link.ID)
	})
}

// ClaimGuestLinks moves links created anonymously with the guest token to the user.
func (s *Service) ClaimGuestLinks(ctx context.Context, userID uint, guestToken string) (int64, error) {
	if strings.TrimSpace(guestToken) == "" {
		return 0, nil
	}
	n, err := s.repos.Link.ClaimGuestLinks(ctx, guestToken, userID)
	if err != nil {
		return 0, fmt.Errorf("claim guest links: %w", err)
	}
	if n > 0 {
		log.Info().Uint("user_id", userID).Int64("claimed", n).Msg("claimed guest links")
	}
	return n, nil
}

// Resolve returns the live link for a redirect path segment.
func (s *Service) Resolve(ctx context.Context, code string) (*models.Link, error) {
	if !shortener.IsValidCode(code) {
		return nil, ErrNotFound
	}
	link, err := s.repos.Link.GetLiveByCode(ctx, code, s.now().UTC())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

// TrackClick records a redirect. Clicks on FREE owners' links stop being
// recorded once the monthly quota is used; the redirect itself is unaffected.
// Owned clicks and the usage counter are committed together.
func (s *Service) TrackClick(ctx context.Context, link *models.Link, visit visitor.Visit) (bool, error) {
	now := s.now().UTC()
	month := entitlements.MonthStartUTC(now)

	if link.OwnerID != nil && !entitlements.IsPro(link.OwnerPlan()) {
		usage, err := s.repos.Usage.Get(ctx, *link.OwnerID, month)
		if err != nil {
			return false, err
		}
		if !entitlements.CanTrackClick(link.OwnerPlan(), usage.TrackedClicks) {
			s.metrics.Click("capped")
			logger.Event("click_tracking_capped").Str("code", link.Code).Uint("owner_id", *link.OwnerID).Msg("monthly click quota used")
			return false, nil
		}
	}

	click := &models.LinkClick{
		LinkID:     link.ID,
		IPHash:     visit.IPHash,
		Referrer:   visit.Referrer,
		UserAgent:  visit.UserAgent,
		Country:    visit.Country,
		Region:     visit.Region,
		City:       visit.City,
		DeviceType: visit.DeviceType,
		ClickedAt:  now,
	}

	var err error
	if link.OwnerID == nil {
		err = s.repos.Click.Create(ctx, click)
	} else {
		ownerID := *link.OwnerID
		err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
			if err := tx.Click.Create(ctx, click); err != nil {
				return err
			}
			return tx.Usage.IncrementTrackedClicks(ctx, ownerID, month)
		})
	}
	if err != nil {
		s.metrics.Click("failed")
		return false, err
	}
	s.metrics.Click("tracked")
	return true, nil
}
