package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider on the Stripe API.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider builds a provider with its own API client so no global
// stripe.Key is involved.
func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	return &StripeProvider{
		api:           client.New(strings.TrimSpace(secretKey), nil),
		webhookSecret: strings.TrimSpace(webhookSecret),
	}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, in CustomerInput) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	if in.Email != "" {
		params.Email = stripe.String(in.Email)
	}
	if in.Name != "" {
		params.Name = stripe.String(in.Name)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	c, err := p.api.Customers.New(params)
	if err != nil {
		return "", wrapStripeError("create customer", err)
	}
	return c.ID, nil
}

func (p *StripeProvider) CustomerExists(ctx context.Context, customerID string) (bool, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	c, err := p.api.Customers.Get(customerID, params)
	if err != nil {
		err = wrapStripeError("get customer", err)
		if errors.Is(err, ErrResourceMissing) {
			return false, nil
		}
		return false, err
	}
	return !c.Deleted, nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	s, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, wrapStripeError("get subscription", err)
	}
	sub := subscriptionFromStripe(s)
	return &sub, nil
}

func (p *StripeProvider) ListSubscriptions(ctx context.Context, customerID string) ([]Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Context = ctx

	var out []Subscription
	iter := p.api.Subscriptions.List(params)
	for iter.Next() {
		out = append(out, subscriptionFromStripe(iter.Subscription()))
	}
	if err := iter.Err(); err != nil {
		return nil, wrapStripeError("list subscriptions", err)
	}
	return out, nil
}

func (p *StripeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, wrapStripeError("get checkout session", err)
	}
	return checkoutFromStripe(s), nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String("subscription"),
		Customer: stripe.String(in.CustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(in.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:          stripe.String(in.SuccessURL),
		CancelURL:           stripe.String(in.CancelURL),
		ClientReferenceID:   stripe.String(in.ClientReferenceID),
		AllowPromotionCodes: stripe.Bool(false),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: in.Metadata,
		},
	}
	params.Context = ctx
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, wrapStripeError("create checkout session", err)
	}
	return checkoutFromStripe(s), nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	s, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", wrapStripeError("create portal session", err)
	}
	return s.URL, nil
}

func (p *StripeProvider) GetSchedule(ctx context.Context, scheduleID string) (*Schedule, error) {
	params := &stripe.SubscriptionScheduleParams{}
	params.Context = ctx
	s, err := p.api.SubscriptionSchedules.Get(scheduleID, params)
	if err != nil {
		return nil, wrapStripeError("get schedule", err)
	}
	return scheduleFromStripe(s), nil
}

func (p *StripeProvider) CreateScheduleFromSubscription(ctx context.Context, subscriptionID string) (*Schedule, error) {
	params := &stripe.SubscriptionScheduleParams{
		FromSubscription: stripe.String(subscriptionID),
	}
	params.Context = ctx
	s, err := p.api.SubscriptionSchedules.New(params)
	if err != nil {
		return nil, wrapStripeError("create schedule", err)
	}
	return scheduleFromStripe(s), nil
}

func (p *StripeProvider) UpdateSchedule(ctx context.Context, scheduleID string, in ScheduleUpdate) (*Schedule, error) {
	params := &stripe.SubscriptionScheduleParams{
		EndBehavior: stripe.String(in.EndBehavior),
	}
	params.Context = ctx
	for _, phase := range in.Phases {
		pp := &stripe.SubscriptionSchedulePhaseParams{
			Items: []*stripe.SubscriptionSchedulePhaseItemParams{
				{Price: stripe.String(phase.PriceID), Quantity: stripe.Int64(1)},
			},
			ProrationBehavior: stripe.String("none"),
		}
		if !phase.Start.IsZero() {
			pp.StartDate = stripe.Int64(phase.Start.Unix())
		}
		if phase.End != nil {
			pp.EndDate = stripe.Int64(phase.End.Unix())
		}
		params.Phases = append(params.Phases, pp)
	}

	s, err := p.api.SubscriptionSchedules.Update(scheduleID, params)
	if err != nil {
		return nil, wrapStripeError("update schedule", err)
	}
	return scheduleFromStripe(s), nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (Event, error) {
	if p.webhookSecret == "" {
		return Event{}, ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, err
	}
	out := Event{ID: event.ID, Type: string(event.Type)}
	if event.Data != nil {
		out.Raw = event.Data.Raw
	}
	return out, nil
}

func wrapStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
		return fmt.Errorf("%s: %w: %s", op, ErrResourceMissing, stripeErr.Msg)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrProvider, err)
}

func subscriptionFromStripe(s *stripe.Subscription) Subscription {
	sub := Subscription{
		ID:                s.ID,
		Status:            string(s.Status),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		Created:           unixTime(s.Created),
		Metadata:          s.Metadata,
	}
	if s.Customer != nil {
		sub.CustomerID = s.Customer.ID
	}
	if s.Schedule != nil {
		sub.ScheduleID = s.Schedule.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 {
		item := s.Items.Data[0]
		if item.Price != nil {
			sub.PriceID = item.Price.ID
		}
		sub.CurrentPeriodStart = unixTimePtr(item.CurrentPeriodStart)
		sub.CurrentPeriodEnd = unixTimePtr(item.CurrentPeriodEnd)
	}
	return sub
}

func checkoutFromStripe(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:                s.ID,
		URL:               s.URL,
		ClientReferenceID: s.ClientReferenceID,
		Metadata:          s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}
	return out
}

func scheduleFromStripe(s *stripe.SubscriptionSchedule) *Schedule {
	out := &Schedule{ID: s.ID, Status: string(s.Status)}
	switch {
	case s.CurrentPhase != nil && s.CurrentPhase.StartDate > 0:
		out.CurrentPhaseStart = time.Unix(s.CurrentPhase.StartDate, 0).UTC()
	case len(s.Phases) > 0 && s.Phases[0].StartDate > 0:
		out.CurrentPhaseStart = time.Unix(s.Phases[0].StartDate, 0).UTC()
	}
	return out
}
