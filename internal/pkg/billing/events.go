package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/Urlsy/internal/pkg/logger"
	"github.com/ManuelReschke/Urlsy/internal/pkg/metrics"
)

const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventSubscriptionCreated  = "customer.subscription.created"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventInvoicePaid          = "invoice.paid"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// ProcessResult reports how a webhook delivery was handled
type ProcessResult struct {
	Duplicate bool
	Mapped    bool
}

// EventProcessor applies provider webhook events at most once per event id.
type EventProcessor struct {
	repo     Repository
	service  *Service
	provider Provider
	metrics  *metrics.Metrics
}

func NewEventProcessor(service *Service) *EventProcessor {
	return &EventProcessor{
		repo:     service.repo,
		service:  service,
		provider: service.provider,
		metrics:  service.metrics,
	}
}

// Verify checks the delivery signature and decodes the event.
func (p *EventProcessor) Verify(payload []byte, signature string) (Event, error) {
	if p.provider == nil {
		return Event{}, ErrNotConfigured
	}
	return p.provider.ParseWebhook(payload, signature)
}

// Process claims the event id and dispatches the event. Events that were
// already processed return Duplicate without touching the provider or the
// database. A dispatch error marks the event failed and is returned so the
// provider redelivers it.
func (p *EventProcessor) Process(ctx context.Context, event Event) (ProcessResult, error) {
	if p.provider == nil {
		return ProcessResult{}, ErrNotConfigured
	}

	claimed, err := p.repo.ClaimEvent(ctx, event.ID, event.Type)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("claim event: %w", err)
	}
	if !claimed {
		p.metrics.WebhookEvent(event.Type, "duplicate")
		logger.Event("webhook_duplicate").Str("event_id", event.ID).Str("type", event.Type).Msg("event already processed")
		return ProcessResult{Duplicate: true}, nil
	}

	mapped, err := p.dispatch(ctx, event)
	if err != nil {
		if markErr := p.repo.MarkEventFailed(ctx, event.ID, err.Error()); markErr != nil {
			logger.ErrorEvent("webhook_failed", markErr).Str("event_id", event.ID).Msg("could not mark event failed")
		}
		p.metrics.WebhookEvent(event.Type, "failed")
		logger.ErrorEvent("webhook_failed", err).Str("event_id", event.ID).Str("type", event.Type).Msg("event processing failed")
		return ProcessResult{}, err
	}

	if err := p.repo.MarkEventProcessed(ctx, event.ID); err != nil {
		return ProcessResult{}, fmt.Errorf("mark processed: %w", err)
	}
	p.metrics.WebhookEvent(event.Type, "processed")
	logger.Event("webhook_processed").Str("event_id", event.ID).Str("type", event.Type).Bool("mapped", mapped).Msg("event processed")
	return ProcessResult{Mapped: mapped}, nil
}

func (p *EventProcessor) dispatch(ctx context.Context, event Event) (bool, error) {
	switch event.Type {
	case EventCheckoutCompleted:
		var session checkoutPayload
		if err := json.Unmarshal(event.Raw, &session); err != nil {
			return false, fmt.Errorf("decode checkout.session: %w", err)
		}
		return p.handleCheckout(ctx, session)

	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub subscriptionPayload
		if err := json.Unmarshal(event.Raw, &sub); err != nil {
			return false, fmt.Errorf("decode subscription: %w", err)
		}
		if sub.Customer.ID == "" {
			return false, nil
		}
		snapshot := sub.snapshot()
		return p.apply(ctx, snapshot, snapshot.CustomerID, parseAccountID(snapshot.Metadata[metadataUserID]))

	case EventInvoicePaid, EventInvoicePaymentFailed:
		var invoice invoicePayload
		if err := json.Unmarshal(event.Raw, &invoice); err != nil {
			return false, fmt.Errorf("decode invoice: %w", err)
		}
		subID := invoice.subscriptionID()
		if subID == "" || invoice.Customer.ID == "" {
			return false, nil
		}
		sub, err := p.provider.GetSubscription(ctx, subID)
		if err != nil {
			return false, err
		}
		return p.apply(ctx, *sub, invoice.Customer.ID, 0)

	default:
		return false, nil
	}
}

func (p *EventProcessor) handleCheckout(ctx context.Context, session checkoutPayload) (bool, error) {
	customerID := session.Customer.ID
	ref := session.ClientReferenceID
	if ref == "" {
		ref = session.Metadata[metadataUserID]
	}
	accountID := parseAccountID(ref)

	if accountID != 0 && customerID != "" {
		if err := linkCustomer(ctx, p.repo, accountID, customerID); err != nil {
			return false, fmt.Errorf("link customer: %w", err)
		}
	}

	if session.Subscription.ID == "" || customerID == "" {
		return false, nil
	}
	sub, err := p.provider.GetSubscription(ctx, session.Subscription.ID)
	if err != nil {
		return false, err
	}
	return p.apply(ctx, *sub, customerID, accountID)
}

func (p *EventProcessor) apply(ctx context.Context, sub Subscription, customerID string, hint uint) (bool, error) {
	res, err := p.service.ApplySubscription(ctx, sub, customerID, hint)
	if err != nil {
		return false, err
	}
	if !res.Mapped {
		logger.WarnEvent("webhook_unmapped").Str("customer_id", customerID).Str("subscription_id", sub.ID).Msg("no account for subscription")
	}
	return res.Mapped, nil
}

func linkCustomer(ctx context.Context, repo Repository, accountID uint, customerID string) error {
	user, err := repo.FindUserByID(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.CustomerID() == customerID {
		return nil
	}
	return repo.SetUserCustomerID(ctx, user.ID, customerID)
}

// expandable decodes a provider reference that is either an id string or an
// expanded object carrying an id.
type expandable struct {
	ID string
}

func (e *expandable) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &e.ID)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	e.ID = obj.ID
	return nil
}

type checkoutPayload struct {
	ID                string            `json:"id"`
	Customer          expandable        `json:"customer"`
	Subscription      expandable        `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

type subscriptionPayload struct {
	ID                string            `json:"id"`
	Customer          expandable        `json:"customer"`
	Status            string            `json:"status"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	Created           int64             `json:"created"`
	Schedule          expandable        `json:"schedule"`
	Metadata          map[string]string `json:"metadata"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

func (p subscriptionPayload) snapshot() Subscription {
	sub := Subscription{
		ID:                p.ID,
		CustomerID:        p.Customer.ID,
		Status:            p.Status,
		CancelAtPeriodEnd: p.CancelAtPeriodEnd,
		Created:           unixTime(p.Created),
		ScheduleID:        p.Schedule.ID,
		Metadata:          p.Metadata,
	}
	if len(p.Items.Data) > 0 {
		item := p.Items.Data[0]
		sub.PriceID = item.Price.ID
		sub.CurrentPeriodStart = unixTimePtr(item.CurrentPeriodStart)
		sub.CurrentPeriodEnd = unixTimePtr(item.CurrentPeriodEnd)
	}
	return sub
}

type invoicePayload struct {
	ID           string     `json:"id"`
	Customer     expandable `json:"customer"`
	Subscription expandable `json:"subscription"`
	Parent       struct {
		SubscriptionDetails struct {
			Subscription expandable `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

// subscriptionID prefers the invoice parent and falls back to the legacy top-level field.
func (p invoicePayload) subscriptionID() string {
	if id := p.Parent.SubscriptionDetails.Subscription.ID; id != "" {
		return id
	}
	return p.Subscription.ID
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func unixTimePtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
