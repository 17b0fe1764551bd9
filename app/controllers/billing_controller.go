package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ManuelReschke/Urlsy/internal/pkg/billing"
	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
	"github.com/ManuelReschke/Urlsy/internal/pkg/usercontext"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	webhookTimeout        = 15 * time.Second
)

// BillingController exposes the Stripe subscription flows
type BillingController struct {
	cfg      *config.Config
	billing  *billing.Service
	webhooks *billing.EventProcessor
}

func NewBillingController(deps Dependencies) *BillingController {
	return &BillingController{
		cfg:      deps.Config,
		billing:  deps.Billing,
		webhooks: deps.Webhooks,
	}
}

var billingController *BillingController

func GetBillingController() *BillingController {
	mustBeInitialized("BillingController", billingController != nil)
	return billingController
}

// HandleBillingCheckout - Adapter for checkout session creation
func HandleBillingCheckout(c *fiber.Ctx) error {
	return GetBillingController().HandleCheckout(c)
}

// HandleBillingPortal - Adapter for the customer portal
func HandleBillingPortal(c *fiber.Ctx) error {
	return GetBillingController().HandlePortal(c)
}

// HandleBillingStatus - Adapter for the local billing snapshot
func HandleBillingStatus(c *fiber.Ctx) error {
	return GetBillingController().HandleStatus(c)
}

// HandleBillingSync - Adapter for the provider pull sync
func HandleBillingSync(c *fiber.Ctx) error {
	return GetBillingController().HandleSync(c)
}

// HandleBillingUpgradeYearly - Adapter for the monthly to yearly switch
func HandleBillingUpgradeYearly(c *fiber.Ctx) error {
	return GetBillingController().HandleUpgradeYearly(c)
}

// HandleStripeWebhook - Adapter for Stripe webhook deliveries
func HandleStripeWebhook(c *fiber.Ctx) error {
	return GetBillingController().HandleWebhook(c)
}

type checkoutRequest struct {
	Interval string `json:"interval" validate:"required,oneof=month year"`
}

type syncRequest struct {
	SessionID string `json:"sessionId"`
}

type upgradeYearlyRequest struct {
	FromPlan string `json:"fromPlan" validate:"omitempty,eq=monthly"`
}

// HandleCheckout returns the hosted checkout URL for {interval: month|year}
func (bc *BillingController) HandleCheckout(c *fiber.Ctx) error {
	if !bc.cfg.Stripe.Configured() {
		return apiError(c, fiber.StatusInternalServerError, "billing_not_configured")
	}

	var req checkoutRequest
	if err := parseJSON(c, &req, false); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid_request")
	}

	url, err := bc.billing.CreateCheckout(c.UserContext(), usercontext.GetUserID(c), billing.Interval(req.Interval), appURL(c, bc.cfg))
	if err != nil {
		return bc.checkoutError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandlePortal returns a customer portal URL
func (bc *BillingController) HandlePortal(c *fiber.Ctx) error {
	if !bc.cfg.Stripe.Configured() {
		return apiError(c, fiber.StatusInternalServerError, "billing_not_configured")
	}

	url, err := bc.billing.CreatePortal(c.UserContext(), usercontext.GetUserID(c), appURL(c, bc.cfg))
	if err != nil {
		return bc.checkoutError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleStatus returns the stored plan and subscription without calling Stripe
func (bc *BillingController) HandleStatus(c *fiber.Ctx) error {
	status, err := bc.billing.Status(c.UserContext(), usercontext.GetUserID(c))
	if errors.Is(err, billing.ErrAccountNotFound) {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		log.Error().Err(err).Msg("billing status failed")
		return apiError(c, fiber.StatusInternalServerError, "server_error")
	}
	return c.JSON(status)
}

// HandleSync pulls the subscription from Stripe, optionally for a finished checkout session
func (bc *BillingController) HandleSync(c *fiber.Ctx) error {
	if !bc.cfg.Stripe.Configured() {
		return apiError(c, fiber.StatusInternalServerError, "billing_not_configured")
	}

	var req syncRequest
	if err := parseJSON(c, &req, true); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid_request")
	}

	userID := usercontext.GetUserID(c)
	res, err := bc.billing.Sync(c.UserContext(), userID, req.SessionID)
	switch {
	case errors.Is(err, billing.ErrInvalidSession):
		return apiError(c, fiber.StatusBadRequest, "invalid_session")
	case errors.Is(err, billing.ErrAccountNotFound):
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	case err != nil:
		log.Error().Err(err).Uint("user_id", userID).Msg("billing sync failed")
		return apiError(c, fiber.StatusInternalServerError, "sync_failed")
	}

	return c.JSON(fiber.Map{
		"plan":               res.Plan,
		"subscriptionStatus": res.SubscriptionStatus,
		"syncedAt":           time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// HandleUpgradeYearly schedules the switch to the yearly price at period end
func (bc *BillingController) HandleUpgradeYearly(c *fiber.Ctx) error {
	if !bc.cfg.Stripe.Configured() {
		return apiError(c, fiber.StatusInternalServerError, "billing_not_configured")
	}

	var req upgradeYearlyRequest
	if err := parseJSON(c, &req, true); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid_request")
	}

	userID := usercontext.GetUserID(c)
	res, err := bc.billing.ScheduleYearlyUpgrade(c.UserContext(), userID)
	switch {
	case errors.Is(err, billing.ErrAlreadyYearly):
		return apiError(c, fiber.StatusConflict, "already_yearly")
	case errors.Is(err, billing.ErrNotOnMonthly):
		return apiError(c, fiber.StatusBadRequest, "not_on_monthly")
	case errors.Is(err, billing.ErrPeriodAlreadyEnded):
		return apiError(c, fiber.StatusConflict, "period_already_ended")
	case errors.Is(err, billing.ErrMissingPeriod):
		return apiError(c, fiber.StatusInternalServerError, "missing_period")
	case errors.Is(err, billing.ErrSubscriptionMissingPrice):
		return apiError(c, fiber.StatusInternalServerError, "subscription_missing_price")
	case err != nil:
		log.Error().Err(err).Uint("user_id", userID).Msg("billing_upgrade_yearly_failed")
		return apiError(c, fiber.StatusInternalServerError, "schedule_failed")
	}

	return c.JSON(fiber.Map{
		"status":      "scheduled",
		"effectiveAt": res.EffectiveAt.UTC().Format(time.RFC3339Nano),
		"scheduleId":  res.ScheduleID,
	})
}

// HandleWebhook verifies and applies a Stripe event. Failures answer 500 so
// Stripe redelivers; processed replays are acknowledged as duplicates.
func (bc *BillingController) HandleWebhook(c *fiber.Ctx) error {
	if !bc.cfg.Stripe.WebhookConfigured() || bc.webhooks == nil {
		return apiError(c, fiber.StatusInternalServerError, "billing_not_configured")
	}

	signature := c.Get(stripeSignatureHeader)
	if signature == "" {
		return apiError(c, fiber.StatusBadRequest, "missing_signature")
	}

	event, err := bc.webhooks.Verify(c.Body(), signature)
	if errors.Is(err, billing.ErrNotConfigured) {
		return apiError(c, fiber.StatusInternalServerError, "billing_not_configured")
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_signature",
			"message": err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), webhookTimeout)
	defer cancel()

	res, err := bc.webhooks.Process(ctx, event)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "webhook_processing_failed")
	}
	if res.Duplicate {
		return c.JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (bc *BillingController) checkoutError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, billing.ErrNotConfigured):
		return apiError(c, fiber.StatusInternalServerError, "billing_not_configured")
	case errors.Is(err, billing.ErrPriceNotConfigured):
		return apiError(c, fiber.StatusInternalServerError, "price_not_configured")
	case errors.Is(err, billing.ErrAccountNotFound):
		return apiError(c, fiber.StatusNotFound, "user_not_found")
	case errors.Is(err, billing.ErrAlreadySubscribedMonthly):
		return apiError(c, fiber.StatusConflict, "already_subscribed_monthly")
	case errors.Is(err, billing.ErrAlreadyOnMonthlyUseUpgrade):
		return apiError(c, fiber.StatusConflict, "already_on_monthly_use_upgrade_endpoint")
	case errors.Is(err, billing.ErrAlreadySubscribedYearly):
		return apiError(c, fiber.StatusConflict, "already_subscribed_yearly")
	case errors.Is(err, billing.ErrNoBillingCustomer):
		return apiError(c, fiber.StatusBadRequest, "no_billing_customer")
	case errors.Is(err, billing.ErrCheckoutURLMissing):
		return apiError(c, fiber.StatusInternalServerError, "checkout_url_missing")
	case errors.Is(err, billing.ErrResourceMissing):
		return apiError(c, fiber.StatusBadRequest, "billing_resource_missing")
	default:
		log.Error().Err(err).Str("request_id", requestID(c)).Msg("billing provider call failed")
		return apiError(c, fiber.StatusInternalServerError, "billing_provider_error")
	}
}
