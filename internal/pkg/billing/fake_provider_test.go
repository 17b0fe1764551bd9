package billing

import (
	"context"
	"fmt"
	"sync"
)

// fakeProvider is an in-memory Provider that counts every call.
type fakeProvider struct {
	mu sync.Mutex

	customers     map[string]bool
	subscriptions map[string]*Subscription
	sessions      map[string]*CheckoutSession
	schedules     map[string]*Schedule
	updates       map[string]ScheduleUpdate
	events        map[string]Event

	nextID int
	calls  int
	err    error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		customers:     map[string]bool{},
		subscriptions: map[string]*Subscription{},
		sessions:      map[string]*CheckoutSession{},
		schedules:     map[string]*Schedule{},
		updates:       map[string]ScheduleUpdate{},
		events:        map[string]Event{},
	}
}

func (f *fakeProvider) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s_%d", prefix, f.nextID)
}

func (f *fakeProvider) call() error {
	f.calls++
	return f.err
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeProvider) CreateCustomer(ctx context.Context, in CustomerInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call(); err != nil {
		return "", err
	}
	id := f.id("cus")
	f.customers[id] = true
	return id, nil
}

func (f *fakeProvider) CustomerExists(ctx context.Context, customerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call(); err != nil {
		return false, err
	}
	return f.customers[customerID], nil
}

func (f *fakeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call(); err != nil {
		return nil, err
	}
	sub, ok := f.subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("get subscription: %w", ErrResourceMissing)
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeProvider) ListSubscriptions(ctx context.Context, customerID string) ([]Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call(); err != nil {
		return nil, err
	}
	var out []Subscription
	for _, sub := range f.subscriptions {
		if sub.CustomerID == customerID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call(); err != nil {
		return nil, err
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("get checkout session: %w", ErrResourceMissing)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call(); err != nil {
		return nil, err
	}
	id := f.id("cs")
	s := &CheckoutSession{
		ID:                id,
		URL:               "https://checkout.stripe.test/" + id,
		CustomerID:        in.CustomerID,
		ClientReferenceID: in.ClientReferenceID,
		Metadata:          in.Metadata,
	}
	f.sessions[id] = s
	return s, nil
}

func (f *fakeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call(); err != nil {
		return "", err
	}
	return "https://billing.stripe.test/" + customerID + "?return=" + returnURL, nil
}

func (f *fakeProvider) GetSchedule(ctx context.Context, scheduleID string) (*Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call(); err != nil {
		return nil, err
	}
	s, ok := f.schedules[scheduleID]
	if !ok {
		return nil, fmt.Errorf("get schedule: %w", ErrResourceMissing)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeProvider) CreateScheduleFromSubscription(ctx context.Context, subscriptionID string) (*Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call(); err != nil {
		return nil, err
	}
	sub, ok := f.subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("create schedule: %w", ErrResourceMissing)
	}
	s := &Schedule{ID: f.id("sub_sched"), Status: "active"}
	if sub.CurrentPeriodStart != nil {
		s.CurrentPhaseStart = *sub.CurrentPeriodStart
	}
	f.schedules[s.ID] = s
	sub.ScheduleID = s.ID
	cp := *s
	return &cp, nil
}

func (f *fakeProvider) UpdateSchedule(ctx context.Context, scheduleID string, in ScheduleUpdate) (*Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call(); err != nil {
		return nil, err
	}
	s, ok := f.schedules[scheduleID]
	if !ok {
		return nil, fmt.Errorf("update schedule: %w", ErrResourceMissing)
	}
	f.updates[scheduleID] = in
	cp := *s
	return &cp, nil
}

func (f *fakeProvider) ParseWebhook(payload []byte, signature string) (Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[signature]
	if !ok {
		return Event{}, fmt.Errorf("invalid signature")
	}
	return ev, nil
}
