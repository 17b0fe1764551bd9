package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/Urlsy/app/models"
	"github.com/ManuelReschke/Urlsy/internal/pkg/metrics"
)

// Service keeps local subscription state in line with the payment provider.
type Service struct {
	repo     Repository
	provider Provider
	prices   Prices
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService creates a billing service. provider may be nil when billing is
// not configured; every provider backed operation then fails with ErrNotConfigured.
func NewService(repo Repository, provider Provider, prices Prices, m *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		prices:   prices,
		metrics:  m,
		now:      time.Now,
	}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, provider Provider, prices Prices, m *metrics.Metrics) *Service {
	return NewService(NewRepository(db), provider, prices, m)
}

func (s *Service) Prices() Prices {
	return s.prices
}

func (s *Service) configured() error {
	if s.provider == nil {
		return ErrNotConfigured
	}
	return nil
}

func (s *Service) findUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	return user, err
}

// EnsureCustomer returns a valid provider customer id for the account,
// creating and linking a new customer when none is linked or the linked one
// no longer exists at the provider.
func (s *Service) EnsureCustomer(ctx context.Context, accountID uint) (string, error) {
	if err := s.configured(); err != nil {
		return "", err
	}
	user, err := s.findUser(ctx, accountID)
	if err != nil {
		return "", err
	}
	return s.ensureCustomer(ctx, user)
}

func (s *Service) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	if id := user.CustomerID(); id != "" {
		exists, err := s.provider.CustomerExists(ctx, id)
		if err != nil {
			return "", err
		}
		if exists {
			return id, nil
		}
	}

	id, err := s.provider.CreateCustomer(ctx, CustomerInput{
		Email:    user.Email,
		Name:     user.Name,
		Metadata: map[string]string{metadataUserID: strconv.FormatUint(uint64(user.ID), 10)},
	})
	if err != nil {
		return "", err
	}
	if err := s.repo.SetUserCustomerID(ctx, user.ID, id); err != nil {
		return "", fmt.Errorf("link customer: %w", err)
	}
	user.StripeCustomerID = &id
	return id, nil
}

// MapResult is the outcome of applying a provider subscription locally.
type MapResult struct {
	Mapped bool
	UserID uint
	Plan   string
	Status string
}

// ApplySubscription writes the subscription snapshot to the owning account.
// The account is the one linked to customerID; failing that the hint account
// is linked to customerID and used. Without either the result is unmapped.
// Applying the same snapshot twice leaves the same local state.
func (s *Service) ApplySubscription(ctx context.Context, sub Subscription, customerID string, hintAccountID uint) (MapResult, error) {
	if customerID == "" {
		customerID = sub.CustomerID
	}
	plan := DerivePlan(sub, s.now())

	var result MapResult
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		user, err := resolveAccount(ctx, repo, customerID, hintAccountID)
		if err != nil || user == nil {
			return err
		}

		subID := sub.ID
		row := &models.Subscription{
			UserID:               user.ID,
			PlanTier:             plan,
			Status:               sub.Status,
			StripeCustomerID:     customerID,
			StripeSubscriptionID: &subID,
			StripePriceID:        sub.PriceID,
			CurrentPeriodStart:   utcPtr(sub.CurrentPeriodStart),
			CurrentPeriodEnd:     utcPtr(sub.CurrentPeriodEnd),
			CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		}
		if err := repo.UpsertSubscription(ctx, row); err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}
		if err := repo.SetUserPlan(ctx, user.ID, plan); err != nil {
			return fmt.Errorf("set plan: %w", err)
		}

		result = MapResult{Mapped: true, UserID: user.ID, Plan: plan, Status: sub.Status}
		return nil
	})
	return result, err
}

func resolveAccount(ctx context.Context, repo Repository, customerID string, hintAccountID uint) (*models.User, error) {
	if customerID != "" {
		user, err := repo.FindUserByCustomerID(ctx, customerID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if hintAccountID == 0 {
		return nil, nil
	}

	user, err := repo.FindUserByID(ctx, hintAccountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if customerID != "" && user.CustomerID() != customerID {
		if err := repo.SetUserCustomerID(ctx, user.ID, customerID); err != nil {
			return nil, fmt.Errorf("link customer: %w", err)
		}
		user.StripeCustomerID = &customerID
	}
	return user, nil
}

// StatusResult is the local billing snapshot of an account.
type StatusResult struct {
	Plan         string               `json:"plan"`
	HasCustomer  bool                 `json:"hasCustomer"`
	Subscription *models.Subscription `json:"subscription"`
	Interval     Interval             `json:"interval,omitempty"`
}

// Status reads the local billing state without calling the provider.
func (s *Service) Status(ctx context.Context, accountID uint) (*StatusResult, error) {
	user, err := s.findUser(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := &StatusResult{Plan: user.PlanTier, HasCustomer: user.CustomerID() != ""}

	sub, err := s.repo.GetSubscription(ctx, accountID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if sub != nil {
		out.Subscription = sub
		switch sub.StripePriceID {
		case "":
		case s.prices.Monthly:
			out.Interval = IntervalMonth
		case s.prices.Yearly:
			out.Interval = IntervalYear
		}
	}
	return out, nil
}

func parseAccountID(v string) uint {
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
